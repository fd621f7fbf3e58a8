package errclass

import (
	"reflect"
	"strings"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Code
	}{
		{"video unavailable", "ERROR: [youtube] dQw4w9WgXcQ: Video unavailable", "ytdlp-1"},
		{"bot check straight apostrophe", "ERROR: Sign in to confirm you're not a bot. Use --cookies", "ytdlp-10"},
		{"bot check curly apostrophe", "ERROR: Sign in to confirm you’re not a bot. Use --cookies", "ytdlp-10"},
		{"retrying 400 beats plain 400", "WARNING: HTTP Error 400: Bad Request. Retrying (1/3)...", "ytdlp-7"},
		{"plain 400", "ERROR: HTTP Error 400: Bad Request", "ytdlp-8"},
		{"m3u8 403", "ERROR: Failed to download m3u8 information: HTTP Error 403: Forbidden", "ytdlp-5"},
		{"video data 403", "ERROR: unable to download video data: HTTP Error 403: Forbidden", "ytdlp-11"},
		{"tweet without video", "ERROR: No video could be found in this tweet", "ytdlp-12"},
		{"status 404", "Error: Status code 404", "5-1"},
		{"missing download sentinel", MsgDownloadedFileMissing, "ytdlp-4"},
		{"missing conversion sentinel", MsgConvertedFileMissing, "ffmpeg-1"},
		{"unexpected exit sentinel", MsgUnexpectedExit + " 1", "ytdlp-3"},
		{"unknown text", "something nobody has ever seen", Unknown},
		{"empty", "", Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.raw); got != tt.want {
				t.Errorf("Classify(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestClassifyAllDedupesRuns(t *testing.T) {
	lines := []string{
		"garbage line one",
		"garbage line two",
		"ERROR: [youtube] x: Video unavailable",
		"more garbage",
	}
	got := ClassifyAll(lines)
	want := []Code{"0", "ytdlp-1", "0"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ClassifyAll = %v, want %v", got, want)
	}
}

func TestPartition(t *testing.T) {
	codes := []Code{"ytdlp-10", "ytdlp-4", "0", "ffmpeg-1", "weird-99"}
	got := Partition(codes)
	if !reflect.DeepEqual(got.Main, []Code{"ytdlp-10", "ffmpeg-1"}) {
		t.Errorf("Main = %v", got.Main)
	}
	if !reflect.DeepEqual(got.Sub, []Code{"ytdlp-4"}) {
		t.Errorf("Sub = %v", got.Sub)
	}
	if !reflect.DeepEqual(got.Other, []Code{"0", "weird-99"}) {
		t.Errorf("Other = %v", got.Other)
	}
}

func TestDescribe(t *testing.T) {
	d := Describe("1-2")
	if d.Title != "Failed to access locally held audio" {
		t.Errorf("1-2 Title = %q", d.Title)
	}
	if !strings.Contains(d.DevDescription, "path the path manager points to") {
		t.Errorf("1-2 DevDescription = %q", d.DevDescription)
	}
	if d = Describe("2-1"); !strings.Contains(d.Title, "valid info") {
		t.Errorf("2-1 Title = %q", d.Title)
	}
	if d = Describe("ytdlp-2"); !strings.Contains(d.DevDescription, "yt-dlp/wiki/EJS") {
		t.Errorf("ytdlp-2 DevDescription = %q", d.DevDescription)
	}
}

func TestDescribeUnknownCode(t *testing.T) {
	d := Describe("no-code")
	if d.Title != "Unknown error" {
		t.Errorf("Title = %q", d.Title)
	}
	if !strings.Contains(d.Description, `"no-code"`) {
		t.Errorf("short code not shown verbatim: %q", d.Description)
	}
	long := Describe("ytdlp-9999-overflow")
	if !strings.Contains(long.Description, `"ytdlp-9999..."`) {
		t.Errorf("long code not truncated: %q", long.Description)
	}
	// Codes matched by Classify but without a dedicated entry share the
	// unknown shape.
	if got := Describe("ytdlp-7"); got.Title != "Unknown error" {
		t.Errorf("ytdlp-7 Title = %q", got.Title)
	}
}
