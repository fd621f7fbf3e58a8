package utils

import (
	"crypto/sha1"
	"encoding/hex"
	"strconv"
	"time"
)

// Service identifies which external service a content ID belongs to.
type Service string

const (
	ServiceYouTube    Service = "youtube"
	ServiceNiconico   Service = "niconico"
	ServiceTwitter    Service = "twitter"
	ServiceSoundCloud Service = "soundcloud"
	ServiceURL        Service = "url"
)

// KnownServices is the set of services the acquisition pipeline accepts.
var KnownServices = []Service{ServiceYouTube, ServiceNiconico, ServiceTwitter, ServiceSoundCloud, ServiceURL}

// Valid reports whether s is one of the supported services.
func (s Service) Valid() bool {
	for _, known := range KnownServices {
		if s == known {
			return true
		}
	}
	return false
}

// AcquisitionRequest identifies one unit of media to fetch. ItemIndex
// disambiguates multi-media posts (1-based, treated as 1 when < 1).
type AcquisitionRequest struct {
	ID        string
	Service   Service
	ItemIndex int
}

// Item returns the normalized 1-based item index.
func (r AcquisitionRequest) Item() int {
	if r.ItemIndex < 1 {
		return 1
	}
	return r.ItemIndex
}

// Key returns the cache-file / in-flight registry key: the content ID,
// suffixed with the item index for multi-media services. Raw URLs are
// hashed so the key stays filename-safe.
func (r AcquisitionRequest) Key() string {
	switch r.Service {
	case ServiceTwitter:
		return r.ID + "-" + strconv.Itoa(r.Item())
	case ServiceURL:
		return URLKey(r.ID)
	}
	return r.ID
}

// URLKey derives a short filename-safe cache key from a raw URL.
func URLKey(raw string) string {
	sum := sha1.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])[:16]
}

// Status is one stage of an acquisition, reported to status callbacks.
type Status string

const (
	StatusLoading        Status = "loading"
	StatusFormatChoosing Status = "formatchoosing"
	StatusDownloading    Status = "downloading"
	StatusConverting     Status = "converting"
	StatusDone           Status = "done"
)

// StatusBody carries optional detail for a status event. Percent is nil
// when the total is unknown.
type StatusBody struct {
	Percent *float64
	Service Service
}

// StatusFunc receives status transitions during an acquisition.
type StatusFunc func(status Status, body StatusBody)

// Pct is a convenience constructor for StatusBody percent values.
func Pct(p float64) *float64 { return &p }

// SourceInfo describes the final acquired file.
type SourceInfo struct {
	Duration float64 // seconds, 0 when unknown
	Size     int64   // bytes
}

// HTTPClientConfig configures the shared HTTP client.
type HTTPClientConfig struct {
	Timeout       time.Duration
	KATimeout     time.Duration
	ProxyURL      string
	ProxyUsername string
	ProxyPassword string
	UserAgent     string
	Headers       map[string]string
}
