package resolver

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/sumwave/otodl/internal/utils"
)

func fakeList(ids []string) ListFunc {
	return func(ctx context.Context, target string) ([]string, error) {
		return ids, nil
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name  string
		input string
		list  []string
		want  *Result
	}{
		{
			name:  "youtube watch",
			input: "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
			want:  &Result{Service: utils.ServiceYouTube, IDs: []string{"dQw4w9WgXcQ"}},
		},
		{
			name:  "music subdomain",
			input: "https://music.youtube.com/watch?v=abc123",
			want:  &Result{Service: utils.ServiceYouTube, IDs: []string{"abc123"}},
		},
		{
			name:  "mobile subdomain",
			input: "https://m.youtube.com/watch?v=abc123",
			want:  &Result{Service: utils.ServiceYouTube, IDs: []string{"abc123"}},
		},
		{
			name:  "short link",
			input: "https://youtu.be/dQw4w9WgXcQ?t=42",
			want:  &Result{Service: utils.ServiceYouTube, IDs: []string{"dQw4w9WgXcQ"}},
		},
		{
			name:  "playlist enumeration",
			input: "https://www.youtube.com/playlist?list=PLx",
			list:  []string{"a", "b", "c"},
			want:  &Result{Service: utils.ServiceYouTube, IDs: []string{"a", "b", "c"}, ListID: "PLx"},
		},
		{
			name:  "niconico watch",
			input: "https://www.nicovideo.jp/watch/sm9",
			want:  &Result{Service: utils.ServiceNiconico, IDs: []string{"sm9"}},
		},
		{
			name:  "niconico short link",
			input: "https://nico.ms/sm9",
			want:  &Result{Service: utils.ServiceNiconico, IDs: []string{"sm9"}},
		},
		{
			name:  "mylist enumeration",
			input: "https://www.nicovideo.jp/mylist/12345",
			list:  []string{"sm1", "sm2"},
			want:  &Result{Service: utils.ServiceNiconico, IDs: []string{"sm1", "sm2"}, ListID: "12345"},
		},
		{
			name:  "tweet defaults to first item",
			input: "https://x.com/someone/status/1234567890",
			want:  &Result{Service: utils.ServiceTwitter, IDs: []string{"1234567890"}, Item: 1},
		},
		{
			name:  "tweet photo index",
			input: "https://twitter.com/someone/status/1234567890/photo/3",
			want:  &Result{Service: utils.ServiceTwitter, IDs: []string{"1234567890"}, Item: 3},
		},
		{
			name:  "tweet video index",
			input: "https://x.com/someone/status/1234567890/video/2",
			want:  &Result{Service: utils.ServiceTwitter, IDs: []string{"1234567890"}, Item: 2},
		},
		{
			name:  "soundcloud track",
			input: "https://soundcloud.com/artist/some-track",
			list:  []string{"2067528639"},
			want:  &Result{Service: utils.ServiceSoundCloud, IDs: []string{"2067528639"}},
		},
		{
			name:  "soundcloud bare profile rejected",
			input: "https://soundcloud.com/artist",
			want:  nil,
		},
		{
			name:  "soundcloud widget",
			input: "https://w.soundcloud.com/player/?url=https%3A//api.soundcloud.com/tracks/soundcloud%3Atracks%3A2067528639",
			want:  &Result{Service: utils.ServiceSoundCloud, IDs: []string{"2067528639"}},
		},
		{
			name:  "unknown host is a direct download",
			input: "https://example.com/episode.mp3",
			want:  &Result{Service: utils.ServiceURL, IDs: []string{"https://example.com/episode.mp3"}},
		},
		{
			name:  "recognized host without content",
			input: "https://www.youtube.com/feed/trending",
			want:  nil,
		},
		{
			name:  "free text",
			input: "never gonna give you up",
			want:  &Result{Service: NotURL, IDs: []string{"never gonna give you up"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rv := &Resolver{List: fakeList(tt.list)}
			got := rv.Resolve(context.Background(), tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Resolve(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestResolveDegradesOnEnumerationFailure(t *testing.T) {
	rv := &Resolver{List: func(ctx context.Context, target string) ([]string, error) {
		return nil, fmt.Errorf("yt-dlp enumeration failed: exit status 1")
	}}
	for _, input := range []string{
		"https://www.youtube.com/playlist?list=PLx",
		"https://www.nicovideo.jp/mylist/12345",
		"https://soundcloud.com/artist/sets/mixtape",
	} {
		got := rv.Resolve(context.Background(), input)
		want := &Result{Service: NotURL, IDs: []string{input}}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Resolve(%q) = %+v, want the free-text fallback", input, got)
		}
	}
}

func TestCollectIDsSkipsBadLines(t *testing.T) {
	input := strings.Join([]string{
		`{"id":"sm1","title":"first"}`,
		``,
		`WARNING: something yt-dlp felt like saying`,
		`{"title":"no id here"}`,
		`{"id":"sm2"}`,
	}, "\n")
	got := CollectIDs(strings.NewReader(input))
	want := []string{"sm1", "sm2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CollectIDs = %v, want %v", got, want)
	}
}

func TestResultRequests(t *testing.T) {
	r := &Result{Service: utils.ServiceTwitter, IDs: []string{"111"}, Item: 2}
	reqs := r.Requests()
	if len(reqs) != 1 {
		t.Fatalf("got %d requests", len(reqs))
	}
	if reqs[0].Key() != "111-2" {
		t.Errorf("Key = %q, want %q", reqs[0].Key(), "111-2")
	}
}
