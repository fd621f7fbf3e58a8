package acquire

// MaxCookieRetries bounds the bot-check retry ladder: one browser-cookie
// attempt and one cookie-file attempt after the initial failure.
const MaxCookieRetries = 2

// CookieSource decides how retries authenticate after the service asks
// for a sign-in. Empty fields fall back to the defaults.
type CookieSource struct {
	Browser string // browser profile for --cookies-from-browser
	File    string // Netscape cookie file for --cookies
}

// DefaultCookieSource matches the conventional local setup.
var DefaultCookieSource = CookieSource{Browser: "firefox", File: "./cookies.txt"}

// Args returns the extra yt-dlp arguments for the given retry attempt.
// Attempt 0 is the initial run and adds nothing.
func (c CookieSource) Args(attempt int) []string {
	browser := c.Browser
	if browser == "" {
		browser = DefaultCookieSource.Browser
	}
	file := c.File
	if file == "" {
		file = DefaultCookieSource.File
	}
	switch attempt {
	case 1:
		return []string{"--cookies-from-browser", browser}
	case 2:
		return []string{"--cookies", file}
	}
	return nil
}
