package errclass

// Severity buckets used when summarizing a failed acquisition. Main codes
// are the likely root cause, sub codes are contributing detail, and
// everything else is noise kept for logs only.
type Triage struct {
	Main  []Code
	Sub   []Code
	Other []Code
}

var mainCodes = map[Code]struct{}{
	"1-2":      {},
	"2-2":      {},
	"ytdlp-1":  {},
	"ytdlp-8":  {},
	"ytdlp-10": {},
	"ytdlp-11": {},
	"ffmpeg-1": {},
}

var subCodes = map[Code]struct{}{
	"1-1":     {},
	"2-1":     {},
	"3-1":     {},
	"3-2":     {},
	"3-3":     {},
	"3-4":     {},
	"5-1":     {},
	"ytdlp-4": {},
	"ytdlp-5": {},
	"ytdlp-6": {},
	"ytdlp-7": {},
	"ytdlp-9": {},
}

// Partition splits codes into triage buckets, preserving input order
// within each bucket.
func Partition(codes []Code) Triage {
	var t Triage
	for _, c := range codes {
		switch {
		case isMain(c):
			t.Main = append(t.Main, c)
		case isSub(c):
			t.Sub = append(t.Sub, c)
		default:
			t.Other = append(t.Other, c)
		}
	}
	return t
}

func isMain(c Code) bool { _, ok := mainCodes[c]; return ok }
func isSub(c Code) bool  { _, ok := subCodes[c]; return ok }
