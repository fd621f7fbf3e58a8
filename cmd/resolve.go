package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sumwave/otodl/internal/output"
	"github.com/sumwave/otodl/internal/resolver"
)

func newResolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve [URL]...",
		Short: "Show which service and content IDs an input maps to, without downloading",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			rv := resolver.New()
			for _, input := range args {
				result := rv.Resolve(cmd.Context(), input)
				switch {
				case result == nil:
					output.PrintWarning(fmt.Sprintf("%s %s nothing playable", input, output.StyleSymbols["arrow"]))
				case result.Service == resolver.NotURL:
					output.PrintInfo(fmt.Sprintf("%s %s search query", input, output.StyleSymbols["arrow"]))
				default:
					detail := strings.Join(result.IDs, ", ")
					if result.ListID != "" {
						detail += " " + output.FDetail("(list "+result.ListID+")")
					}
					if result.Item > 1 {
						detail += " " + output.FDetail(fmt.Sprintf("(item %d)", result.Item))
					}
					output.PrintSuccess(fmt.Sprintf("%s %s %s: %s", input, output.StyleSymbols["arrow"], result.Service, detail))
				}
			}
		},
	}
	return cmd
}
