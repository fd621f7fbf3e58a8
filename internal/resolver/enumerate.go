package resolver

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"

	"github.com/rs/zerolog/log"

	"github.com/sumwave/otodl/internal/utils"
)

// ListFunc enumerates the content IDs behind a playlist-like URL.
type ListFunc func(ctx context.Context, target string) ([]string, error)

// YtdlpList shells out to yt-dlp in flat-playlist mode and collects the
// id field from each JSON line it prints.
func YtdlpList(ctx context.Context, target string) ([]string, error) {
	args := []string{"--flat-playlist", "-j", target}
	log.Debug().Str("op", "resolver/enumerate").Msgf("running yt-dlp %v", args)
	cmd := exec.CommandContext(ctx, "yt-dlp", args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start yt-dlp: %w", err)
	}
	ids := CollectIDs(stdout)
	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("yt-dlp enumeration failed: %w", err)
	}
	return ids, nil
}

// CollectIDs reads line-delimited JSON and returns every id field found.
// Lines that are not valid JSON objects are skipped, not fatal; yt-dlp
// mixes warnings into its output.
func CollectIDs(r io.Reader) []string {
	ids := []string{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1024), utils.DefaultBufferSize)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(line, &entry); err != nil || entry.ID == "" {
			log.Debug().Str("op", "resolver/enumerate").Msgf("skipping non-entry line: %.80s", line)
			continue
		}
		ids = append(ids, entry.ID)
	}
	return ids
}
