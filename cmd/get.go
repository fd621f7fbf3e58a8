package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sumwave/otodl/internal/acquire"
	"github.com/sumwave/otodl/internal/output"
	"github.com/sumwave/otodl/internal/resolver"
	"github.com/sumwave/otodl/internal/scheduler"
	"github.com/sumwave/otodl/internal/utils"
)

func newGetCmd() *cobra.Command {
	var batchFile string
	cmd := &cobra.Command{
		Use:   "get [URL]...",
		Short: "Resolve inputs and cache their audio locally",
		Args:  cobra.ArbitraryArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if batchFile != "" {
				more, err := readBatchFile(batchFile)
				if err != nil {
					output.PrintError(err.Error())
					os.Exit(1)
				}
				args = append(args, more...)
			}
			if len(args) == 0 {
				output.PrintError("No inputs; pass URLs or --batch")
				os.Exit(1)
			}
			if err := acquire.EnsureTools(); err != nil {
				output.PrintError(err.Error())
				os.Exit(1)
			}
			rv := resolver.New()
			var reqs []utils.AcquisitionRequest
			for _, input := range args {
				result := rv.Resolve(cmd.Context(), input)
				switch {
				case result == nil:
					output.PrintWarning(fmt.Sprintf("Nothing playable at: %s", input))
				case result.Service == resolver.NotURL:
					output.PrintWarning(fmt.Sprintf("Not a URL, skipping: %s", input))
				case len(result.IDs) == 0:
					output.PrintWarning(fmt.Sprintf("Nothing playable behind: %s", input))
				default:
					reqs = append(reqs, result.Requests()...)
				}
			}
			if len(reqs) == 0 {
				output.PrintError("Nothing to acquire")
				os.Exit(1)
			}
			log.Debug().Str("op", "cmd/get").Msgf("starting scheduler with %d requests", len(reqs))
			outcomes := scheduler.Run(cmd.Context(), newPathManager(), reqs, cfg.Workers)
			failed := 0
			for _, o := range outcomes {
				if o.Err != nil {
					failed++
				}
			}
			if failed > 0 {
				fmt.Println()
				output.PrintError(fmt.Sprintf("%d of %d acquisitions failed", failed, len(outcomes)))
				os.Exit(1)
			}
			output.PrintSuccess(fmt.Sprintf("Cached %d file(s)", len(outcomes)))
		},
	}
	cmd.Flags().StringVarP(&batchFile, "batch", "b", "", "YAML file with a list of URLs to acquire")
	return cmd
}

// readBatchFile loads a YAML list of input strings.
func readBatchFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}
	var inputs []string
	if err := yaml.Unmarshal(data, &inputs); err != nil {
		return nil, fmt.Errorf("failed to parse batch file: %w", err)
	}
	return inputs, nil
}
