package acquire

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/sumwave/otodl/internal/utils"
)

type fakeRunner struct {
	ytdlpCalls [][]string
	ytdlp      func(call int, args []string, onStdout, onStderr LineFunc) error
	ffmpeg     func(args []string, onStdout, onStderr LineFunc) error
	probeJSON  string
}

func (f *fakeRunner) Run(ctx context.Context, name string, args []string, onStdout, onStderr LineFunc) error {
	switch name {
	case "yt-dlp":
		f.ytdlpCalls = append(f.ytdlpCalls, args)
		return f.ytdlp(len(f.ytdlpCalls), args, onStdout, onStderr)
	case "ffmpeg":
		if f.ffmpeg == nil {
			return errors.New("unexpected ffmpeg call")
		}
		return f.ffmpeg(args, onStdout, onStderr)
	}
	return fmt.Errorf("unexpected command %q", name)
}

func (f *fakeRunner) Output(ctx context.Context, name string, args []string) ([]byte, error) {
	if name == "ffprobe" {
		return []byte(f.probeJSON), nil
	}
	return nil, fmt.Errorf("unexpected command %q", name)
}

// outDir extracts the directory of the -o output template.
func outDir(t *testing.T, args []string) string {
	t.Helper()
	for i, a := range args {
		if a == "-o" && i+1 < len(args) {
			return filepath.Dir(args[i+1])
		}
	}
	t.Fatal("no -o argument")
	return ""
}

func hasArgPair(args []string, key, value string) bool {
	for i, a := range args {
		if a == key && i+1 < len(args) && args[i+1] == value {
			return true
		}
	}
	return false
}

// assertNoTempDirs fails if the service cache folder still contains any
// working directories.
func assertNoTempDirs(t *testing.T, serviceDir string) {
	t.Helper()
	entries, err := os.ReadDir(serviceDir)
	if err != nil {
		if os.IsNotExist(err) {
			return
		}
		t.Fatalf("reading cache folder: %v", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			t.Errorf("leftover temp directory %s", e.Name())
		}
	}
}

func TestAcquireSuccess(t *testing.T) {
	root := t.TempDir()
	runner := &fakeRunner{
		probeJSON: `{"streams":[{"codec_name":"opus","duration":"120.0"}]}`,
	}
	runner.ytdlp = func(call int, args []string, onStdout, onStderr LineFunc) error {
		if !hasArgPair(args, "--extractor-args", "youtube:player_client=mweb") {
			t.Error("missing youtube extractor args")
		}
		dir := outDir(t, args)
		onStdout(`{"status":"downloading","downloaded_bytes":1024,"total_bytes":2048}`)
		if err := os.WriteFile(filepath.Join(dir, "vid1-before.webm"), []byte("raw"), 0644); err != nil {
			t.Fatal(err)
		}
		return nil
	}
	runner.ffmpeg = func(args []string, onStdout, onStderr LineFunc) error {
		onStderr("size=    64KiB time=00:01:00.00 bitrate= 120.0kbits/s speed=30x")
		return os.WriteFile(args[len(args)-1], []byte("audio"), 0644)
	}

	var statuses []utils.Status
	var lastPct float64
	w := &Worker{Runner: runner, Root: root}
	res, err := w.Acquire(context.Background(), utils.AcquisitionRequest{ID: "vid1", Service: utils.ServiceYouTube},
		func(s utils.Status, body utils.StatusBody) {
			statuses = append(statuses, s)
			if body.Percent != nil {
				lastPct = *body.Percent
			}
		})
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if res.Filename != "vid1.ogg" {
		t.Errorf("Filename = %q", res.Filename)
	}
	if res.Info.Duration != 120 || res.Info.Size != int64(len("audio")) {
		t.Errorf("Info = %+v", res.Info)
	}
	if _, err := os.Stat(res.Path); err != nil {
		t.Errorf("cached file missing: %v", err)
	}
	if len(statuses) == 0 || statuses[len(statuses)-1] != utils.StatusDone || lastPct != 100 {
		t.Errorf("statuses = %v, last pct %v", statuses, lastPct)
	}
	var sawChoosing bool
	for _, s := range statuses {
		if s == utils.StatusFormatChoosing {
			sawChoosing = true
		}
		if s == utils.StatusDownloading && !sawChoosing {
			t.Errorf("downloading reported before format choosing: %v", statuses)
			break
		}
	}
	if !sawChoosing {
		t.Errorf("format choosing never reported: %v", statuses)
	}
	assertNoTempDirs(t, filepath.Join(root, "youtube"))
}

func TestAcquireNiconicoRefererHeader(t *testing.T) {
	root := t.TempDir()
	runner := &fakeRunner{probeJSON: `{"streams":[{"codec_name":"aac","duration":"30"}]}`}
	runner.ytdlp = func(call int, args []string, onStdout, onStderr LineFunc) error {
		if !hasArgPair(args, "--add-header", "Referer:https://www.nicovideo.jp/") {
			t.Error("missing niconico referer header")
		}
		return os.WriteFile(filepath.Join(outDir(t, args), "sm9-before.mp4"), []byte("raw"), 0644)
	}
	runner.ffmpeg = func(args []string, onStdout, onStderr LineFunc) error {
		return os.WriteFile(args[len(args)-1], []byte("audio"), 0644)
	}
	w := &Worker{Runner: runner, Root: root}
	res, err := w.Acquire(context.Background(), utils.AcquisitionRequest{ID: "sm9", Service: utils.ServiceNiconico}, nil)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if res.Filename != "sm9.m4a" {
		t.Errorf("Filename = %q", res.Filename)
	}
}

func TestAcquireTwitterItemNaming(t *testing.T) {
	root := t.TempDir()
	runner := &fakeRunner{probeJSON: `{"streams":[{"codec_name":"aac","duration":"9.5"}]}`}
	runner.ytdlp = func(call int, args []string, onStdout, onStderr LineFunc) error {
		if !hasArgPair(args, "--playlist-items", "2") {
			t.Error("missing --playlist-items 2")
		}
		return os.WriteFile(filepath.Join(outDir(t, args), "100200-2-before.mp4"), []byte("raw"), 0644)
	}
	runner.ffmpeg = func(args []string, onStdout, onStderr LineFunc) error {
		return os.WriteFile(args[len(args)-1], []byte("audio"), 0644)
	}
	w := &Worker{Runner: runner, Root: root}
	res, err := w.Acquire(context.Background(), utils.AcquisitionRequest{ID: "100200", Service: utils.ServiceTwitter, ItemIndex: 2}, nil)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if res.Filename != "100200-2.m4a" {
		t.Errorf("Filename = %q, want 100200-2.m4a", res.Filename)
	}
}

func TestAcquireBotCheckRetryLadder(t *testing.T) {
	root := t.TempDir()
	runner := &fakeRunner{}
	runner.ytdlp = func(call int, args []string, onStdout, onStderr LineFunc) error {
		onStderr("ERROR: Sign in to confirm you're not a bot. Use --cookies for authentication")
		return nil
	}
	w := &Worker{Runner: runner, Root: root}
	_, err := w.Acquire(context.Background(), utils.AcquisitionRequest{ID: "vid1", Service: utils.ServiceYouTube}, nil)
	if err == nil {
		t.Fatal("expected failure")
	}
	if got := len(runner.ytdlpCalls); got != 3 {
		t.Fatalf("yt-dlp ran %d times, want 3 (initial + 2 retries)", got)
	}
	if hasArgPair(runner.ytdlpCalls[0], "--cookies-from-browser", "firefox") {
		t.Error("initial attempt must not send cookies")
	}
	if !hasArgPair(runner.ytdlpCalls[1], "--cookies-from-browser", "firefox") {
		t.Error("first retry should use browser cookies")
	}
	if !hasArgPair(runner.ytdlpCalls[2], "--cookies", "./cookies.txt") {
		t.Error("second retry should use the cookie file")
	}
	var aerr *AcquireError
	if !errors.As(err, &aerr) || !hasCode(aerr.Codes, "ytdlp-10") {
		t.Errorf("error should carry the bot-check code, got %v", err)
	}
	assertNoTempDirs(t, filepath.Join(root, "youtube"))
}

func TestAcquireNoRetryWithoutBotCode(t *testing.T) {
	root := t.TempDir()
	runner := &fakeRunner{}
	runner.ytdlp = func(call int, args []string, onStdout, onStderr LineFunc) error {
		onStderr("ERROR: [youtube] vid1: Video unavailable")
		return nil
	}
	w := &Worker{Runner: runner, Root: root}
	_, err := w.Acquire(context.Background(), utils.AcquisitionRequest{ID: "vid1", Service: utils.ServiceYouTube}, nil)
	if err == nil {
		t.Fatal("expected failure")
	}
	if got := len(runner.ytdlpCalls); got != 1 {
		t.Errorf("yt-dlp ran %d times, want 1", got)
	}
	var aerr *AcquireError
	if !errors.As(err, &aerr) {
		t.Fatalf("error type %T", err)
	}
	if !hasCode(aerr.Codes, "ytdlp-1") || !hasCode(aerr.Codes, "ytdlp-4") {
		t.Errorf("codes = %v", aerr.Codes)
	}
	tri := aerr.Triage()
	if len(tri.Main) == 0 {
		t.Errorf("triage main bucket empty: %+v", tri)
	}
	assertNoTempDirs(t, filepath.Join(root, "youtube"))
}

func TestAcquireMissingConversionOutput(t *testing.T) {
	root := t.TempDir()
	runner := &fakeRunner{probeJSON: `{"streams":[{"codec_name":"opus","duration":"10"}]}`}
	runner.ytdlp = func(call int, args []string, onStdout, onStderr LineFunc) error {
		return os.WriteFile(filepath.Join(outDir(t, args), "vid1-before.webm"), []byte("raw"), 0644)
	}
	runner.ffmpeg = func(args []string, onStdout, onStderr LineFunc) error {
		return nil // exits cleanly without writing the file
	}
	w := &Worker{Runner: runner, Root: root}
	_, err := w.Acquire(context.Background(), utils.AcquisitionRequest{ID: "vid1", Service: utils.ServiceYouTube}, nil)
	var aerr *AcquireError
	if !errors.As(err, &aerr) || !hasCode(aerr.Codes, "ffmpeg-1") {
		t.Errorf("want ffmpeg-1 code, got %v", err)
	}
	assertNoTempDirs(t, filepath.Join(root, "youtube"))
}

func TestAcquireDirectURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("raw media bytes"))
	}))
	defer srv.Close()

	root := t.TempDir()
	runner := &fakeRunner{probeJSON: `{"streams":[{"codec_name":"opus","duration":"42"}]}`}
	runner.ffmpeg = func(args []string, onStdout, onStderr LineFunc) error {
		return os.WriteFile(args[len(args)-1], []byte("audio"), 0644)
	}
	w := &Worker{Runner: runner, Root: root}

	target := srv.URL + "/episode.mp3"
	var statuses []utils.Status
	res, err := w.Acquire(context.Background(), utils.AcquisitionRequest{ID: target, Service: utils.ServiceURL},
		func(s utils.Status, body utils.StatusBody) { statuses = append(statuses, s) })
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if want := utils.URLKey(target) + ".ogg"; res.Filename != want {
		t.Errorf("Filename = %q, want %q", res.Filename, want)
	}
	if _, err := os.Stat(res.Path); err != nil {
		t.Errorf("cached file missing: %v", err)
	}
	if len(runner.ytdlpCalls) != 0 {
		t.Error("yt-dlp launched for a direct URL")
	}
	if len(statuses) == 0 || statuses[len(statuses)-1] != utils.StatusDone {
		t.Errorf("statuses = %v", statuses)
	}
	assertNoTempDirs(t, filepath.Join(root, "url"))
}

func TestAcquireDirectURLNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	w := &Worker{Runner: &fakeRunner{}, Root: t.TempDir()}
	_, err := w.Acquire(context.Background(), utils.AcquisitionRequest{ID: srv.URL + "/gone.mp3", Service: utils.ServiceURL}, nil)
	var aerr *AcquireError
	if !errors.As(err, &aerr) || !hasCode(aerr.Codes, "5-1") {
		t.Errorf("want 5-1 code, got %v", err)
	}
}

func TestAcquireUnknownService(t *testing.T) {
	w := &Worker{Runner: &fakeRunner{}, Root: t.TempDir()}
	_, err := w.Acquire(context.Background(), utils.AcquisitionRequest{ID: "x", Service: "vimeo"}, nil)
	if !errors.Is(err, ErrUnknownService) {
		t.Errorf("want ErrUnknownService, got %v", err)
	}
}

func TestAcquireRejectsMalformedNiconicoID(t *testing.T) {
	runner := &fakeRunner{}
	w := &Worker{Runner: runner, Root: t.TempDir()}
	for _, id := range []string{"sm0", "watch", "sm", "xx123", "sm-1"} {
		if _, err := w.Acquire(context.Background(), utils.AcquisitionRequest{ID: id, Service: utils.ServiceNiconico}, nil); err == nil {
			t.Errorf("id %q accepted", id)
		}
	}
	if len(runner.ytdlpCalls) != 0 {
		t.Errorf("yt-dlp launched for malformed IDs")
	}
}
