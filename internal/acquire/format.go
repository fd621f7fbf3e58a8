package acquire

import (
	"context"
	"encoding/json"
	"fmt"
)

// Format is one entry of a yt-dlp formats list.
type Format struct {
	FormatID   string  `json:"format_id"`
	Resolution string  `json:"resolution"`
	FormatNote string  `json:"format_note"`
	ASR        float64 `json:"asr"`
	Ext        string  `json:"ext"`
}

// audioNotes are the format_note values of directly playable audio-only
// renditions.
var audioNotes = map[string]struct{}{
	"Default, high": {},
	"medium":        {},
}

// PickBestFormat selects the audio-only format with the highest sample
// rate. Ties keep the earliest entry. Returns nil when no candidate
// qualifies.
func PickBestFormat(formats []Format) *Format {
	var best *Format
	for i := range formats {
		f := &formats[i]
		if f.Resolution != "audio only" {
			continue
		}
		if _, ok := audioNotes[f.FormatNote]; !ok {
			continue
		}
		if best == nil || f.ASR > best.ASR {
			best = f
		}
	}
	return best
}

// ListFormats asks yt-dlp for the media's format table.
func ListFormats(ctx context.Context, runner CommandRunner, target string) ([]Format, error) {
	out, err := runner.Output(ctx, "yt-dlp", []string{"-j", target})
	if err != nil {
		return nil, fmt.Errorf("format listing failed: %w", err)
	}
	var info struct {
		Formats []Format `json:"formats"`
	}
	if err := json.Unmarshal(out, &info); err != nil {
		return nil, fmt.Errorf("failed to parse format listing: %w", err)
	}
	return info.Formats, nil
}

// ProbeStream is one stream of an ffprobe report.
type ProbeStream struct {
	CodecName string `json:"codec_name"`
	Duration  string `json:"duration"`
}

// ProbeInfo is the parsed output of ffprobe -show_streams.
type ProbeInfo struct {
	Streams []ProbeStream `json:"streams"`
}

// Duration returns the longest stream duration in seconds.
func (p ProbeInfo) Duration() float64 {
	var longest float64
	for _, s := range p.Streams {
		var d float64
		fmt.Sscanf(s.Duration, "%g", &d)
		if d > longest {
			longest = d
		}
	}
	return longest
}

// HasCodec reports whether any stream uses the named codec.
func (p ProbeInfo) HasCodec(name string) bool {
	for _, s := range p.Streams {
		if s.CodecName == name {
			return true
		}
	}
	return false
}

// Probe runs ffprobe on path and parses its JSON report.
func Probe(ctx context.Context, runner CommandRunner, path string) (*ProbeInfo, error) {
	out, err := runner.Output(ctx, "ffprobe", []string{"-v", "error", "-show_streams", "-of", "json", path})
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}
	var info ProbeInfo
	if err := json.Unmarshal(out, &info); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}
	return &info, nil
}
