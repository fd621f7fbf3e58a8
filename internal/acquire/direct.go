package acquire

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sumwave/otodl/internal/errclass"
	"github.com/sumwave/otodl/internal/utils"
)

// acquireDirect fetches a plain media URL over HTTP and runs it through
// the same probe-and-convert tail as the yt-dlp services. The download
// half of the progress range covers the HTTP transfer.
func (w *Worker) acquireDirect(ctx context.Context, req utils.AcquisitionRequest, status utils.StatusFunc) (*Result, error) {
	runner := w.runner()
	serviceDir := filepath.Join(w.Root, string(utils.ServiceURL))
	if err := os.MkdirAll(serviceDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache folder: %w", err)
	}
	tempDir, err := makeTempDir(serviceDir)
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tempDir)

	key := req.Key()
	report := func(s utils.Status, pct float64) {
		status(s, utils.StatusBody{Percent: utils.Pct(pct), Service: utils.ServiceURL})
	}
	report(utils.StatusDownloading, 0)

	rawPath := filepath.Join(tempDir, key+"-before")
	if err := w.fetch(ctx, req.ID, rawPath, report); err != nil {
		return nil, &AcquireError{Codes: []errclass.Code{errclass.Classify(err.Error())}, Err: err}
	}
	report(utils.StatusConverting, 50)

	info, err := Probe(ctx, runner, rawPath)
	if err != nil {
		return nil, &AcquireError{Codes: []errclass.Code{errclass.Classify(err.Error())}, Err: err}
	}
	duration := info.Duration()
	codecArg, ext := transcodeTarget(info)
	outName := key + "." + ext
	outPath := filepath.Join(tempDir, outName)

	runErr := runner.Run(ctx, "ffmpeg", []string{"-i", rawPath, "-vn", "-c:a", codecArg, outPath},
		nil,
		func(line string) {
			if p, ok := ParseFFmpegProgress(line); ok && duration > 0 {
				frac := p.Time / duration
				if frac > 1 {
					frac = 1
				}
				report(utils.StatusConverting, 50+frac*50)
			}
		})
	if _, statErr := os.Stat(outPath); statErr != nil {
		cause := runErr
		if cause == nil {
			cause = errors.New(errclass.MsgConvertedFileMissing)
		}
		return nil, &AcquireError{Codes: []errclass.Code{"ffmpeg-1"}, Err: cause}
	}

	finalPath := filepath.Join(serviceDir, outName)
	if err := os.Rename(outPath, finalPath); err != nil {
		return nil, fmt.Errorf("failed to move converted file into cache: %w", err)
	}
	stat, err := os.Stat(finalPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat cached file: %w", err)
	}
	report(utils.StatusDone, 100)
	return &Result{Filename: outName, Path: finalPath, Info: utils.SourceInfo{Duration: duration, Size: stat.Size()}}, nil
}

// fetch streams the URL into path, reporting bytes against Content-Length
// as the first half of the progress range.
func (w *Worker) fetch(ctx context.Context, rawURL, path string, report func(utils.Status, float64)) error {
	client := w.HTTP
	if client == nil {
		client = utils.NewOtodlHTTPClient(utils.HTTPClientConfig{})
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("error creating GET request: %w", err)
	}
	req.Header.Set("Connection", "keep-alive")
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("error executing GET request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Error: Status code %d", resp.StatusCode)
	}
	outFile, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("error creating output file: %w", err)
	}
	defer outFile.Close()

	start := time.Now()
	total := resp.ContentLength
	var done int64
	buffer := make([]byte, utils.DefaultBufferSize)
	for {
		bytesRead, readErr := resp.Body.Read(buffer)
		if bytesRead > 0 {
			if _, writeErr := outFile.Write(buffer[:bytesRead]); writeErr != nil {
				return fmt.Errorf("error writing to output file: %w", writeErr)
			}
			done += int64(bytesRead)
			if total > 0 {
				report(utils.StatusDownloading, float64(done)/float64(total)*50)
			}
		}
		if readErr != nil {
			if readErr == io.EOF {
				break
			}
			return fmt.Errorf("error reading response body: %w", readErr)
		}
	}
	log.Debug().Str("op", "acquire/direct").Msgf("fetched %s (%s at %s)", rawURL, utils.FormatBytes(uint64(done)), utils.FormatSpeed(done, time.Since(start).Seconds()))
	return outFile.Sync()
}
