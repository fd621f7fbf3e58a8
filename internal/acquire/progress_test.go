package acquire

import (
	"math"
	"testing"
)

func TestParseYtdlpProgress(t *testing.T) {
	p, ok := ParseYtdlpProgress(`{"status":"downloading","downloaded_bytes":512,"total_bytes":2048,"speed":100.5}`)
	if !ok {
		t.Fatal("expected ok")
	}
	frac, ok := p.Fraction()
	if !ok || frac != 0.25 {
		t.Errorf("Fraction = %v, %v", frac, ok)
	}
}

func TestParseYtdlpProgressEstimateFallback(t *testing.T) {
	p, ok := ParseYtdlpProgress(`{"status":"downloading","downloaded_bytes":100,"total_bytes_estimate":400}`)
	if !ok {
		t.Fatal("expected ok")
	}
	frac, ok := p.Fraction()
	if !ok || frac != 0.25 {
		t.Errorf("Fraction = %v, %v", frac, ok)
	}
}

func TestParseYtdlpProgressRejectsNoise(t *testing.T) {
	for _, line := range []string{
		"[youtube] dQw4w9WgXcQ: Downloading webpage",
		"{not json",
		"",
	} {
		if _, ok := ParseYtdlpProgress(line); ok {
			t.Errorf("accepted %q", line)
		}
	}
	if _, ok := ParseYtdlpProgress(`{"status":"downloading","downloaded_bytes":5}`); !ok {
		t.Error("valid JSON without totals should still parse")
	} else if frac, ok := func() (float64, bool) { p, _ := ParseYtdlpProgress(`{"downloaded_bytes":5}`); return p.Fraction() }(); ok {
		t.Errorf("Fraction without totals reported ok (%v)", frac)
	}
}

func TestParseFFmpegProgress(t *testing.T) {
	line := "size=    1024KiB time=00:01:02.03 bitrate= 135.3kbits/s speed=10.5x"
	p, ok := ParseFFmpegProgress(line)
	if !ok {
		t.Fatal("expected ok")
	}
	if p.SizeKiB != 1024 {
		t.Errorf("SizeKiB = %v", p.SizeKiB)
	}
	if math.Abs(p.Time-62.03) > 0.001 {
		t.Errorf("Time = %v, want 62.03", p.Time)
	}
	if p.Bitrate != 135.3 {
		t.Errorf("Bitrate = %v", p.Bitrate)
	}
	if p.Speed != 10.5 {
		t.Errorf("Speed = %v", p.Speed)
	}
}

func TestParseFFmpegProgressRejectsNonStatsLines(t *testing.T) {
	for _, line := range []string{
		"Input #0, matroska,webm, from 'x.webm':",
		"Error while decoding stream #0:0",
		"size=N/A time=N/A bitrate=N/A speed=N/A",
		"",
	} {
		if _, ok := ParseFFmpegProgress(line); ok {
			t.Errorf("accepted %q", line)
		}
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"00:00:01.00", 1},
		{"01:00:00.00", 3600},
		{"10:30", 630},
		{"5.5", 5.5},
	}
	for _, tt := range tests {
		if got := parseClock(tt.in); math.Abs(got-tt.want) > 0.001 {
			t.Errorf("parseClock(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
