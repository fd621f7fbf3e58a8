package acquire

import "testing"

func TestPickBestFormat(t *testing.T) {
	tests := []struct {
		name    string
		formats []Format
		want    string // format_id, "" means nil
	}{
		{
			name: "highest sample rate wins",
			formats: []Format{
				{FormatID: "249", Resolution: "audio only", FormatNote: "medium", ASR: 22050},
				{FormatID: "140", Resolution: "audio only", FormatNote: "Default, high", ASR: 44100},
				{FormatID: "251", Resolution: "audio only", FormatNote: "medium", ASR: 48000},
			},
			want: "251",
		},
		{
			name: "video renditions excluded",
			formats: []Format{
				{FormatID: "22", Resolution: "1280x720", FormatNote: "medium", ASR: 48000},
				{FormatID: "140", Resolution: "audio only", FormatNote: "medium", ASR: 44100},
			},
			want: "140",
		},
		{
			name: "unplayable notes excluded",
			formats: []Format{
				{FormatID: "600", Resolution: "audio only", FormatNote: "ultralow", ASR: 48000},
				{FormatID: "140", Resolution: "audio only", FormatNote: "Default, high", ASR: 44100},
			},
			want: "140",
		},
		{
			name: "tie keeps first",
			formats: []Format{
				{FormatID: "first", Resolution: "audio only", FormatNote: "medium", ASR: 44100},
				{FormatID: "second", Resolution: "audio only", FormatNote: "medium", ASR: 44100},
			},
			want: "first",
		},
		{
			name:    "no candidates",
			formats: []Format{{FormatID: "22", Resolution: "1280x720", FormatNote: "hd"}},
			want:    "",
		},
		{
			name: "empty list",
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PickBestFormat(tt.formats)
			if tt.want == "" {
				if got != nil {
					t.Errorf("PickBestFormat = %+v, want nil", got)
				}
				return
			}
			if got == nil || got.FormatID != tt.want {
				t.Errorf("PickBestFormat = %+v, want %s", got, tt.want)
			}
		})
	}
}

func TestProbeInfoDuration(t *testing.T) {
	info := ProbeInfo{Streams: []ProbeStream{
		{CodecName: "h264", Duration: "12.5"},
		{CodecName: "aac", Duration: "13.2"},
	}}
	if got := info.Duration(); got != 13.2 {
		t.Errorf("Duration = %v, want 13.2", got)
	}
	if !info.HasCodec("aac") || info.HasCodec("opus") {
		t.Error("HasCodec mismatch")
	}
}

func TestTranscodeTarget(t *testing.T) {
	tests := []struct {
		codec string
		arg   string
		ext   string
	}{
		{"aac", "copy", "m4a"},
		{"opus", "copy", "ogg"},
		{"ogg", "copy", "ogg"},
		{"mp3", "libopus", "ogg"},
	}
	for _, tt := range tests {
		info := &ProbeInfo{Streams: []ProbeStream{{CodecName: tt.codec}}}
		arg, ext := transcodeTarget(info)
		if arg != tt.arg || ext != tt.ext {
			t.Errorf("transcodeTarget(%s) = %s,%s want %s,%s", tt.codec, arg, ext, tt.arg, tt.ext)
		}
	}
}
