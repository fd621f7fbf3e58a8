// Package errclass reduces raw subprocess and API error text to a small
// stable vocabulary of error codes, maps codes to human-readable messages,
// and partitions code lists for display triage.
package errclass

import "strings"

// Code is an error-code token: "ytdlp-<n>", "ffmpeg-<n>", "<n>-<m>", or
// "0" for unclassified text.
type Code = string

const Unknown Code = "0"

// Internal sentinel messages produced by the acquisition worker itself.
// The classifier matches on these, so they must stay stable.
const (
	MsgUnexpectedExit        = "yt-dlp exited unexpectedly with code"
	MsgDownloadedFileMissing = "could not locate the file yt-dlp downloaded"
	MsgConvertedFileMissing  = "ffmpeg conversion finished but no converted file exists"
)

type matcher struct {
	substr string
	code   Code
}

// Ordered; first match wins. The "Retrying" variant of the 400 error must
// stay ahead of the plain one.
var matchers = []matcher{
	{": Video unavailable", "ytdlp-1"},
	{"No supported JavaScript runtime could be found. Only deno is enabled by default", "ytdlp-2"},
	{MsgUnexpectedExit, "ytdlp-3"},
	{MsgDownloadedFileMissing, "ytdlp-4"},
	{"Failed to download m3u8 information: HTTP Error 403: Forbidden", "ytdlp-5"},
	{"Precondition check failed.", "ytdlp-6"},
	{"HTTP Error 400: Bad Request. Retrying", "ytdlp-7"},
	{"HTTP Error 400: Bad Request", "ytdlp-8"},
	{"No title found in player responses; falling back to title from initial data. Other metadata may also be missing", "ytdlp-9"},
	// yt-dlp has emitted both a typographic and a plain apostrophe here.
	{"Sign in to confirm you’re not a bot", "ytdlp-10"},
	{"Sign in to confirm you're not a bot", "ytdlp-10"},
	{"unable to download video data: HTTP Error 403: Forbidden", "ytdlp-11"},
	{"No video could be found in this tweet", "ytdlp-12"},
	{"Error: Status code 404", "5-1"},
	{MsgConvertedFileMissing, "ffmpeg-1"},
}

// Classify scans raw error text against the ordered matcher list and
// returns the first matching code, or Unknown when nothing matches.
func Classify(raw string) Code {
	for _, m := range matchers {
		if strings.Contains(raw, m.substr) {
			return m.code
		}
	}
	return Unknown
}

// ClassifyAll classifies every line of raw text, deduplicating
// consecutive identical codes.
func ClassifyAll(lines []string) []Code {
	var codes []Code
	for _, line := range lines {
		code := Classify(line)
		if len(codes) > 0 && codes[len(codes)-1] == code {
			continue
		}
		codes = append(codes, code)
	}
	return codes
}
