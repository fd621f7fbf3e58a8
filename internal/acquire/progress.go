package acquire

import (
	"encoding/json"
	"strconv"
	"strings"
)

// YtdlpProgress is one line of yt-dlp --progress-template %(progress)j
// output.
type YtdlpProgress struct {
	Status             string  `json:"status"`
	DownloadedBytes    float64 `json:"downloaded_bytes"`
	TotalBytes         float64 `json:"total_bytes"`
	TotalBytesEstimate float64 `json:"total_bytes_estimate"`
	ETA                float64 `json:"eta"`
	Speed              float64 `json:"speed"`
	Elapsed            float64 `json:"elapsed"`
}

// ParseYtdlpProgress parses one stdout line. yt-dlp interleaves plain
// status text with the JSON template lines, so unparseable lines are
// reported as not ok rather than as errors.
func ParseYtdlpProgress(line string) (YtdlpProgress, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "{") {
		return YtdlpProgress{}, false
	}
	var p YtdlpProgress
	if err := json.Unmarshal([]byte(line), &p); err != nil {
		return YtdlpProgress{}, false
	}
	return p, true
}

// Fraction returns download completion in [0,1]. The estimate stands in
// when the exact total is unknown.
func (p YtdlpProgress) Fraction() (float64, bool) {
	total := p.TotalBytes
	if total <= 0 {
		total = p.TotalBytesEstimate
	}
	if total <= 0 {
		return 0, false
	}
	return p.DownloadedBytes / total, true
}

// FFmpegProgress holds the fields of an ffmpeg stderr stats line.
type FFmpegProgress struct {
	Frame   float64
	FPS     float64
	SizeKiB float64
	Time    float64 // seconds
	Bitrate float64 // kbit/s
	Speed   float64
}

// ParseFFmpegProgress parses an ffmpeg "frame=... time=... speed=..."
// stats line. ffmpeg pads values after the equals sign, so a key may be
// separated from its value by whitespace. Lines without size, time and
// speed are not stats lines and are reported as not ok.
func ParseFFmpegProgress(line string) (FFmpegProgress, bool) {
	fields := strings.Fields(line)
	var p FFmpegProgress
	var haveSize, haveTime, haveSpeed bool
	for i, field := range fields {
		key, value, found := strings.Cut(field, "=")
		if !found {
			continue
		}
		if value == "" && i+1 < len(fields) {
			value = fields[i+1]
		}
		switch key {
		case "frame":
			p.Frame, _ = strconv.ParseFloat(value, 64)
		case "fps":
			p.FPS, _ = strconv.ParseFloat(value, 64)
		case "size", "Lsize":
			for _, suffix := range []string{"KiB", "kB"} {
				if strings.HasSuffix(value, suffix) {
					p.SizeKiB, _ = strconv.ParseFloat(strings.TrimSuffix(value, suffix), 64)
					haveSize = true
				}
			}
		case "time":
			p.Time = parseClock(value)
			haveTime = true
		case "bitrate":
			if strings.HasSuffix(value, "kbits/s") {
				p.Bitrate, _ = strconv.ParseFloat(strings.TrimSuffix(value, "kbits/s"), 64)
			}
		case "speed":
			if strings.HasSuffix(value, "x") {
				p.Speed, _ = strconv.ParseFloat(strings.TrimSuffix(value, "x"), 64)
				haveSpeed = true
			}
		}
	}
	if !haveSize || !haveTime || !haveSpeed {
		return FFmpegProgress{}, false
	}
	return p, true
}

// parseClock converts H:MM:SS.ss (any number of colon groups, rightmost
// is seconds) to seconds.
func parseClock(value string) float64 {
	parts := strings.Split(value, ":")
	var seconds float64
	for i, part := range parts {
		n, err := strconv.ParseFloat(part, 64)
		if err != nil {
			continue
		}
		exp := len(parts) - i - 1
		mult := 1.0
		for j := 0; j < exp; j++ {
			mult *= 60
		}
		seconds += n * mult
	}
	return seconds
}
