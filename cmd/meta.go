package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sumwave/otodl/internal/metacache"
	"github.com/sumwave/otodl/internal/output"
	"github.com/sumwave/otodl/internal/utils"
)

func newMetaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "meta",
		Short: "Batch metadata lookups with a local JSONL cache",
	}
	cmd.AddCommand(newMetaYouTubeCmd())
	cmd.AddCommand(newMetaNiconicoCmd())
	cmd.AddCommand(newMetaTwitterCmd())
	cmd.AddCommand(newMetaMusicBrainzCmd())
	return cmd
}

func metaHTTPClient() *utils.OtodlHTTPClient {
	return utils.NewOtodlHTTPClient(globalHTTPConfig)
}

// printEntries writes each successful result as one JSON line, in input
// order. Failed slots are skipped.
func printEntries[T any](entries []metacache.Entry[T]) {
	enc := json.NewEncoder(os.Stdout)
	for _, e := range entries {
		if !e.OK {
			continue
		}
		if err := enc.Encode(e.Body); err != nil {
			output.PrintError(err.Error())
		}
	}
}

func okCount[T any](entries []metacache.Entry[T]) int {
	n := 0
	for _, e := range entries {
		if e.OK {
			n++
		}
	}
	return n
}

func newMetaYouTubeCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "youtube [VIDEO_ID]...",
		Short:   "Look up YouTube video metadata (needs OTODL_YOUTUBE_API_KEY)",
		Aliases: []string{"yt"},
		Args:    cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			client := metacache.NewYouTubeClient(cfg.CacheJSONDir, cfg.YouTubeAPIKey, metaHTTPClient())
			entries := client.BatchGet(cmd.Context(), args, 0)
			reportMeta(okCount(entries), len(args))
			printEntries(entries)
		},
	}
}

func newMetaNiconicoCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "niconico [CONTENT_ID]...",
		Short:   "Look up Niconico video metadata",
		Aliases: []string{"nico"},
		Args:    cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			client := metacache.NewNiconicoClient(cfg.CacheJSONDir, metaHTTPClient())
			entries := client.BatchGet(cmd.Context(), args, 0)
			reportMeta(okCount(entries), len(args))
			printEntries(entries)
		},
	}
}

func newMetaTwitterCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "twitter [STATUS_ID]...",
		Short:   "Look up post metadata on X",
		Aliases: []string{"x"},
		Args:    cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			client := metacache.NewTwitterClient(cfg.CacheJSONDir, metaHTTPClient())
			entries := client.BatchGet(cmd.Context(), args, 0)
			reportMeta(okCount(entries), len(args))
			printEntries(entries)
		},
	}
}

func newMetaMusicBrainzCmd() *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:     "musicbrainz [MBID]...",
		Short:   "Look up MusicBrainz entities",
		Aliases: []string{"mb"},
		Args:    cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			client := metacache.NewMusicBrainzClient(cfg.CacheJSONDir, metaHTTPClient())
			entries := client.BatchGet(cmd.Context(), metacache.MBKind(kind), args, 0)
			reportMeta(okCount(entries), len(args))
			printEntries(entries)
		},
	}
	cmd.Flags().StringVar(&kind, "kind", string(metacache.MBRecording), "Entity kind: artist, release or recording")
	return cmd
}

func reportMeta(got, want int) {
	if got < want {
		output.PrintWarning(fmt.Sprintf("%d of %d lookups failed", want-got, want))
	}
}
