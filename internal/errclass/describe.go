package errclass

// Description is the user-facing explanation of one error code. Title and
// Description are shown to users; DevDescription is operator detail.
type Description struct {
	Title          string
	Description    string
	DevDescription string
}

// Appended to dev descriptions of codes that never identify a root cause
// on their own.
const needsOtherCodes = " This code alone cannot pin down the cause; check the other codes reported with it."

var descriptions = map[Code]Description{
	"1-1": {
		Title:          "Failed to fetch audio or info",
		Description:    "The audio or its info could not be fetched, or a nonexistent track number was selected.",
		DevDescription: "The source info lookup returned nothing. The path manager could not fetch the audio or its info, or a nonexistent track number was selected." + needsOtherCodes,
	},
	"1-2": {
		Title:          "Failed to access locally held audio",
		Description:    "Audio data that should exist was missing. Left alone it may repair itself, but if the origin no longer has the data and no copy exists anywhere, this error cannot clear.",
		DevDescription: "No data existed at the path the path manager points to. Usually fatal: the audio was deleted, the path changed, or the stored info no longer matches. Recover by locating the data manually and checking the folder layout and permissions.",
	},
	"2-1": {
		Title:          "Failed to return valid info",
		Description:    "A structured response was requested but a well-formed one could not be produced. Cause unknown.",
		DevDescription: "The response document was malformed while answering a request. Causes vary widely." + needsOtherCodes,
	},
	"2-2": {
		Title:          "Unimplemented request",
		Description:    "This request is not implemented yet.",
		DevDescription: "An unimplemented request path was reached.",
	},
	"2-3": {
		Title:          "Invalid URL or text",
		Description:    "The input was parsed but no source was found in it.",
		DevDescription: "The URL/text parser returned without finding anything, so processing stopped.",
	},
	"2-4": {
		Title:          "Failed to parse URL",
		Description:    "The URL was parsed but no ID could be extracted from it.",
		DevDescription: "The URL looks malformed, or an unsupported URL was supplied. It may be one worth supporting.",
	},
	"3-1": {
		Title:          "This source does not exist",
		Description:    "This source appears to be one that cannot be fetched.",
		DevDescription: "The exact meaning of this error is still being pinned down." + needsOtherCodes,
	},
	"3-2": {
		Title:          "Failed to fetch info",
		Description:    "An error occurred while fetching info. Cause unknown.",
		DevDescription: "Fetching info failed." + needsOtherCodes,
	},
	"3-3": {
		Title:          "Failed to fetch audio",
		Description:    "An error occurred while fetching audio. Cause unknown.",
		DevDescription: "Fetching audio failed." + needsOtherCodes,
	},
	"3-4": {
		Title:          "Failed to fetch audio",
		Description:    "An error occurred while fetching audio. Cause unknown.",
		DevDescription: "A multi-audio fetch failed partway. An unsupported source may be among the inputs, so this is not necessarily serious." + needsOtherCodes,
	},
	"ytdlp-1": {
		Title:          "Unavailable content",
		Description:    "This video is unavailable. Try another URL.",
		DevDescription: "An unavailable video ID was requested. No action needed.",
	},
	"ytdlp-2": {
		Title:          "Downloader internal warning",
		Description:    "This error can be ignored.",
		DevDescription: "yt-dlp wants an external JavaScript runtime but could not find one. Deno is the recommended install; https://github.com/yt-dlp/yt-dlp/wiki/EJS has hints. Not fatal.",
	},
	"ytdlp-3": {
		Title:          "Downloader malfunction",
		Description:    "The downloader exited for an unknown reason.",
		DevDescription: "yt-dlp exited without returning anything." + needsOtherCodes,
	},
	"ytdlp-4": {
		Title:          "Downloader fetch error",
		Description:    "The downloader could not download the source.",
		DevDescription: "The file yt-dlp supposedly downloaded could not be found, so there is nothing to hand back." + needsOtherCodes,
	},
	"ytdlp-10": {
		Title:          "Downloader blocked by bot detection",
		Description:    "The downloader was detected as a bot and blocked, so the audio may be unavailable. Waiting a while can resolve it.",
		DevDescription: "Cookies are needed to prove the request is not automated. The cookie retry ladder can recover this; otherwise the fetch keeps failing. Queueing the fetch for later and letting the access cool down may help.",
	},
	"ytdlp-12": {
		Title:          "Content without audio",
		Description:    "This post contains no audio.",
		DevDescription: "yt-dlp tried to download a tweet with no video in it.",
	},
	"ffmpeg-1": {
		Title:          "Unsupported audio",
		Description:    "The download failed on an invalid video, or the content may contain no audio.",
		DevDescription: "FFmpeg could not convert the media. Occasionally this is a logic slip, so it is worth a look.",
	},
}

// Describe returns the explanation for a code. Codes without a dedicated
// entry fall back to the unknown-error shape, with long codes truncated in
// the user-facing text.
func Describe(code Code) Description {
	if d, ok := descriptions[code]; ok {
		return d
	}
	shown := code
	if len(shown) >= 10 {
		shown = shown[:10] + "..."
	}
	return Description{
		Title:          "Unknown error",
		Description:    "An unidentifiable error code \"" + shown + "\" was passed. This is most likely an unexpected or internal error.",
		DevDescription: "An error code that should never surface was received, or the code table has a gap. The logs may hold hints." + needsOtherCodes,
	}
}
