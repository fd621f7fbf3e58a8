package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sumwave/otodl/internal/output"
	"github.com/sumwave/otodl/internal/utils"
)

func newCleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove temp directories left behind by interrupted acquisitions",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if err := utils.CleanCacheDirs(cfg.CacheRoot); err != nil {
				output.PrintError("Error cleaning up temporary directories")
				os.Exit(1)
			}
			output.PrintSuccess("Temporary directories cleaned up")
		},
	}
}
