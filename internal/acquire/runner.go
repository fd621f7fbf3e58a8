// Package acquire downloads a single piece of media with yt-dlp, converts
// it to a bot-playable audio container with ffmpeg, and lands the result
// in the service cache folder.
package acquire

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/sumwave/otodl/internal/utils"
)

// LineFunc receives one line of subprocess output.
type LineFunc func(line string)

// CommandRunner abstracts subprocess execution so the pipeline can be
// driven without spawning real tools.
type CommandRunner interface {
	// Run executes the command, streaming stdout and stderr lines to the
	// callbacks, and returns the process exit error if any.
	Run(ctx context.Context, name string, args []string, onStdout, onStderr LineFunc) error
	// Output executes the command and returns its combined stdout.
	Output(ctx context.Context, name string, args []string) ([]byte, error)
}

// ExecRunner runs commands with os/exec. The zero value is ready to use.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args []string, onStdout, onStderr LineFunc) error {
	log.Debug().Str("op", "acquire/runner").Msgf("running %s %v", name, args)
	cmd := exec.CommandContext(ctx, name, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to create stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", name, err)
	}
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 1024), utils.DefaultBufferSize)
		for scanner.Scan() {
			if onStdout != nil {
				onStdout(scanner.Text())
			}
		}
	}()
	go func() {
		defer wg.Done()
		scanner := bufio.NewScanner(stderr)
		scanner.Buffer(make([]byte, 1024), utils.DefaultBufferSize)
		for scanner.Scan() {
			if onStderr != nil {
				onStderr(scanner.Text())
			}
		}
	}()
	wg.Wait()
	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%s exited: %w", name, err)
	}
	return nil
}

func (ExecRunner) Output(ctx context.Context, name string, args []string) ([]byte, error) {
	log.Debug().Str("op", "acquire/runner").Msgf("running %s %v", name, args)
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%s failed: %w", name, err)
	}
	return out, nil
}

// EnsureTools verifies that yt-dlp, ffmpeg and ffprobe are reachable.
func EnsureTools() error {
	for _, tool := range []string{"yt-dlp", "ffmpeg", "ffprobe"} {
		if _, err := exec.LookPath(tool); err != nil {
			return fmt.Errorf("%s not found in PATH: %w", tool, err)
		}
	}
	return nil
}
