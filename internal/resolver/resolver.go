// Package resolver turns arbitrary user input (URLs or free text) into
// service-qualified content IDs that the acquisition pipeline understands.
package resolver

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/sumwave/otodl/internal/utils"
)

// NotURL marks input that is not a URL at all and should be treated as a
// search query by the caller.
const NotURL utils.Service = "noturl"

// Result is the outcome of resolving one input string. IDs holds content
// IDs for Service, or the raw input when Service is NotURL. ListID is set
// when the IDs came from enumerating a playlist or mylist. Item is the
// 1-based media index inside a multi-media post.
type Result struct {
	Service utils.Service
	IDs     []string
	ListID  string
	Item    int
}

// Requests expands the result into acquisition requests, one per ID.
func (r *Result) Requests() []utils.AcquisitionRequest {
	reqs := make([]utils.AcquisitionRequest, 0, len(r.IDs))
	for _, id := range r.IDs {
		reqs = append(reqs, utils.AcquisitionRequest{ID: id, Service: r.Service, ItemIndex: r.Item})
	}
	return reqs
}

// Resolver maps input strings to Results. List may be overridden to avoid
// spawning yt-dlp for playlist enumeration.
type Resolver struct {
	List ListFunc
}

func New() *Resolver {
	return &Resolver{List: YtdlpList}
}

// Resolve classifies input by hostname. Non-URL text maps to a NotURL
// result, and resolution failures degrade to the same branch instead of
// propagating. URLs on unrecognized hosts become direct-download requests;
// nil means the URL points at nothing playable.
func (rv *Resolver) Resolve(ctx context.Context, input string) *Result {
	u, err := url.Parse(input)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return &Result{Service: NotURL, IDs: []string{input}}
	}
	res, err := rv.resolveURL(ctx, input, u)
	if err != nil {
		log.Debug().Str("op", "resolver/resolver").Err(err).Msgf("resolution of %s degraded to free text", input)
		return &Result{Service: NotURL, IDs: []string{input}}
	}
	return res
}

func (rv *Resolver) resolveURL(ctx context.Context, input string, u *url.URL) (*Result, error) {
	segs := splitPath(u.Path)
	switch u.Hostname() {
	case "youtube.com", "www.youtube.com", "m.youtube.com", "music.youtube.com":
		if v := u.Query().Get("v"); v != "" {
			return &Result{Service: utils.ServiceYouTube, IDs: []string{v}}, nil
		}
		if list := u.Query().Get("list"); list != "" {
			ids, err := rv.list(ctx, "https://youtube.com/playlist?list="+list)
			if err != nil {
				return nil, err
			}
			return &Result{Service: utils.ServiceYouTube, IDs: ids, ListID: list}, nil
		}
		return nil, nil
	case "youtu.be", "www.youtu.be":
		if len(segs) > 0 {
			return &Result{Service: utils.ServiceYouTube, IDs: []string{segs[0]}}, nil
		}
		return nil, nil
	case "nicovideo.jp", "www.nicovideo.jp":
		if id := segAfter(segs, "watch"); id != "" {
			return &Result{Service: utils.ServiceNiconico, IDs: []string{id}}, nil
		}
		if mylist := segAfter(segs, "mylist"); mylist != "" {
			ids, err := rv.list(ctx, "https://www.nicovideo.jp/mylist/"+mylist)
			if err != nil {
				return nil, err
			}
			return &Result{Service: utils.ServiceNiconico, IDs: ids, ListID: mylist}, nil
		}
		return nil, nil
	case "nico.ms", "www.nico.ms":
		if len(segs) > 0 {
			return &Result{Service: utils.ServiceNiconico, IDs: []string{segs[0]}}, nil
		}
		return nil, nil
	case "x.com", "www.x.com", "twitter.com", "www.twitter.com":
		if id := segAfter(segs, "status"); id != "" {
			return &Result{Service: utils.ServiceTwitter, IDs: []string{id}, Item: mediaIndex(segs)}, nil
		}
		return nil, nil
	case "soundcloud.com", "www.soundcloud.com", "on.soundcloud.com", "api-v2.soundcloud.com":
		// A single path segment on the main host is a bare profile page,
		// not a playable item.
		if (u.Hostname() == "soundcloud.com" || u.Hostname() == "www.soundcloud.com") && len(segs) == 1 {
			return nil, nil
		}
		ids, err := rv.list(ctx, u.Scheme+"://"+u.Host+u.Path)
		if err != nil {
			return nil, err
		}
		return &Result{Service: utils.ServiceSoundCloud, IDs: ids}, nil
	case "w.soundcloud.com":
		if id := widgetTrackID(u.Query().Get("url")); id != "" {
			return &Result{Service: utils.ServiceSoundCloud, IDs: []string{id}}, nil
		}
		return nil, nil
	}
	// Anything else is treated as a direct media URL.
	return &Result{Service: utils.ServiceURL, IDs: []string{input}}, nil
}

func (rv *Resolver) list(ctx context.Context, target string) ([]string, error) {
	if rv.List != nil {
		return rv.List(ctx, target)
	}
	return YtdlpList(ctx, target)
}

func splitPath(p string) []string {
	var segs []string
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}

// segAfter returns the segment following the first occurrence of key.
func segAfter(segs []string, key string) string {
	for i, s := range segs {
		if s == key && i+1 < len(segs) {
			return segs[i+1]
		}
	}
	return ""
}

// mediaIndex extracts the /photo/N or /video/N index from a tweet URL,
// defaulting to the first item.
func mediaIndex(segs []string) int {
	for _, key := range []string{"photo", "video"} {
		if v := segAfter(segs, key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
	}
	return 1
}

// widgetTrackID parses the url parameter of an embedded player and pulls
// the track ID out of a soundcloud:tracks:<id> resource path.
func widgetTrackID(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	segs := splitPath(u.Path)
	if len(segs) < 2 || segs[0] != "tracks" {
		return ""
	}
	parts := strings.Split(segs[1], ":")
	if len(parts) == 3 && parts[0] == "soundcloud" && parts[1] == "tracks" && parts[2] != "" {
		return parts[2]
	}
	return ""
}
