package acquire

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sumwave/otodl/internal/errclass"
	"github.com/sumwave/otodl/internal/utils"
)

// urlPrefixes maps each service to the URL the content ID is appended to.
var urlPrefixes = map[utils.Service]string{
	utils.ServiceYouTube:    "https://youtube.com/watch?v=",
	utils.ServiceTwitter:    "https://x.com/i/web/status/",
	utils.ServiceNiconico:   "https://www.nicovideo.jp/watch/",
	utils.ServiceSoundCloud: "https://api-v2.soundcloud.com/tracks/",
}

// Worker acquires one piece of media per call. Zero-value fields fall
// back to real tools and defaults.
type Worker struct {
	Runner       CommandRunner
	Root         string // cache root; each service gets a subfolder
	Cookies      CookieSource
	Timeout      time.Duration // per acquisition, 0 means no limit
	ChooseFormat bool          // probe the format table instead of -f ba*
	HTTP         *utils.OtodlHTTPClient
}

// Result describes a finished acquisition.
type Result struct {
	Filename string // final name inside the service cache folder
	Path     string // full path to the cached file
	Info     utils.SourceInfo
}

// Acquire downloads req's media, converts it to m4a or ogg, and moves it
// into the service cache folder. The temp directory is removed on every
// exit path.
func (w *Worker) Acquire(ctx context.Context, req utils.AcquisitionRequest, status utils.StatusFunc) (*Result, error) {
	if status == nil {
		status = func(utils.Status, utils.StatusBody) {}
	}
	if !req.Service.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownService, req.Service)
	}
	if req.Service == utils.ServiceNiconico && !utils.NicoVideoIDRegex.MatchString(req.ID) {
		return nil, fmt.Errorf("invalid niconico content id %q", req.ID)
	}
	if w.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.Timeout)
		defer cancel()
	}
	if req.Service == utils.ServiceURL {
		return w.acquireDirect(ctx, req, status)
	}
	runner := w.runner()
	serviceDir := filepath.Join(w.Root, string(req.Service))
	if err := os.MkdirAll(serviceDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache folder: %w", err)
	}
	tempDir, err := makeTempDir(serviceDir)
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tempDir)

	key := req.Key()
	target := urlPrefixes[req.Service] + req.ID
	report := func(s utils.Status, pct float64) {
		status(s, utils.StatusBody{Percent: utils.Pct(pct), Service: req.Service})
	}
	report(utils.StatusFormatChoosing, 30)
	selector := w.formatSelector(ctx, runner, target)
	report(utils.StatusDownloading, 0)

	args := []string{"-f", selector, "--progress", "--newline", "--progress-template", "%(progress)j", "-o", filepath.Join(tempDir, key+"-before.%(ext)s")}
	switch req.Service {
	case utils.ServiceYouTube:
		args = append(args, "--extractor-args", "youtube:player_client=mweb")
	case utils.ServiceNiconico:
		args = append(args, "--add-header", "Referer:https://www.nicovideo.jp/")
	case utils.ServiceTwitter:
		args = append(args, "--playlist-items", strconv.Itoa(req.Item()))
	}

	beforeFile, codes, err := w.download(ctx, tempDir, key, target, args, 0, report)
	if err != nil && hasCode(codes, "ytdlp-10") {
		for attempt := 1; attempt <= MaxCookieRetries; attempt++ {
			log.Debug().Str("op", "acquire/worker").Msgf("retrying %s with cookie attempt %d", key, attempt)
			var more []errclass.Code
			beforeFile, more, err = w.download(ctx, tempDir, key, target, args, attempt, report)
			codes = append(codes, more...)
			if err == nil {
				break
			}
		}
	}
	if err != nil {
		return nil, &AcquireError{Codes: codes, Err: err}
	}
	report(utils.StatusConverting, 50)

	beforePath := filepath.Join(tempDir, beforeFile)
	info, err := Probe(ctx, runner, beforePath)
	if err != nil {
		return nil, &AcquireError{Codes: appendCode(codes, errclass.Classify(err.Error())), Err: err}
	}
	duration := info.Duration()
	codecArg, ext := transcodeTarget(info)
	outName := key + "." + ext
	outPath := filepath.Join(tempDir, outName)

	var convertErrs []string
	err = runner.Run(ctx, "ffmpeg", []string{"-i", beforePath, "-vn", "-c:a", codecArg, outPath},
		func(line string) {
			log.Debug().Str("op", "acquire/worker").Msg(line)
		},
		func(line string) {
			if strings.HasPrefix(line, "Error") {
				convertErrs = append(convertErrs, line)
			}
			if p, ok := ParseFFmpegProgress(line); ok && duration > 0 {
				frac := p.Time / duration
				if frac > 1 {
					frac = 1
				}
				report(utils.StatusConverting, 50+frac*50)
			}
		})
	// ffmpeg can exit 0 after printing Error lines; the converted file is
	// the source of truth.
	if _, statErr := os.Stat(outPath); statErr != nil {
		codes = appendCode(append(codes, errclass.ClassifyAll(convertErrs)...), "ffmpeg-1")
		cause := err
		if cause == nil {
			cause = errors.New(errclass.MsgConvertedFileMissing)
		}
		return nil, &AcquireError{Codes: codes, Err: cause}
	}
	for _, line := range convertErrs {
		log.Warn().Str("op", "acquire/worker").Msg(line)
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
	log.Debug().Str("op", "acquire/worker").Msgf("cached %s (%s, %.1fs)", outName, utils.FormatBytes(uint64(stat.Size())), duration)
	return &Result{Filename: outName, Path: finalPath, Info: utils.SourceInfo{Duration: duration, Size: stat.Size()}}, nil
}

// download runs one yt-dlp attempt and locates the downloaded file. The
// file's presence decides success; exit status alone does not.
func (w *Worker) download(ctx context.Context, tempDir, key, target string, baseArgs []string, attempt int, report func(utils.Status, float64)) (string, []errclass.Code, error) {
	args := append(append([]string{}, baseArgs...), w.Cookies.Args(attempt)...)
	args = append(args, target)
	var errLines []string
	runErr := w.runner().Run(ctx, "yt-dlp", args,
		func(line string) {
			if p, ok := ParseYtdlpProgress(line); ok {
				if frac, ok := p.Fraction(); ok {
					report(utils.StatusDownloading, frac*50)
				}
			}
		},
		func(line string) {
			log.Debug().Str("op", "acquire/worker").Msg(line)
			errLines = append(errLines, line)
		})
	codes := errclass.ClassifyAll(errLines)
	if file := findFile(tempDir, key); file != "" {
		return file, codes, nil
	}
	if runErr != nil {
		if ctx.Err() != nil {
			return "", codes, ctx.Err()
		}
		err := fmt.Errorf("%s %d: %w", errclass.MsgUnexpectedExit, exitCode(runErr), runErr)
		return "", appendCode(codes, "ytdlp-3"), err
	}
	return "", appendCode(codes, "ytdlp-4"), errors.New(errclass.MsgDownloadedFileMissing)
}

// formatSelector returns the -f argument. By default every service gets
// best-audio; with ChooseFormat the format table is probed first.
func (w *Worker) formatSelector(ctx context.Context, runner CommandRunner, target string) string {
	if !w.ChooseFormat {
		return "ba*"
	}
	formats, err := ListFormats(ctx, runner, target)
	if err != nil {
		log.Warn().Str("op", "acquire/worker").Err(err).Msg("format probe failed, falling back to best-audio")
		return "ba*"
	}
	if best := PickBestFormat(formats); best != nil {
		return best.FormatID
	}
	return "ba*"
}

// transcodeTarget picks the audio codec argument and container extension
// from the probed streams. Known codecs are copied; anything else is
// re-encoded with libopus.
func transcodeTarget(info *ProbeInfo) (codecArg, ext string) {
	switch {
	case info.HasCodec("aac"):
		return "copy", "m4a"
	case info.HasCodec("opus"), info.HasCodec("ogg"):
		return "copy", "ogg"
	default:
		return "libopus", "ogg"
	}
}

func (w *Worker) runner() CommandRunner {
	if w.Runner != nil {
		return w.Runner
	}
	return ExecRunner{}
}

// makeTempDir creates a UUID-named working directory under parent,
// retrying on collision.
func makeTempDir(parent string) (string, error) {
	for i := 0; i <= 500; i++ {
		path := filepath.Join(parent, uuid.NewString())
		if _, err := os.Stat(path); err == nil {
			continue
		}
		if err := os.Mkdir(path, 0755); err != nil {
			return "", fmt.Errorf("failed to create temp directory: %w", err)
		}
		return path, nil
	}
	return "", ErrTempDirExhausted
}

// findFile returns the first entry of dir whose name contains key.
func findFile(dir, key string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	for _, entry := range entries {
		if strings.Contains(entry.Name(), key) {
			return entry.Name()
		}
	}
	return ""
}

func exitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
