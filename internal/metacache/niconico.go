package metacache

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sumwave/otodl/internal/utils"
)

// NicoMeta is the cached shape of one Niconico video.
type NicoMeta struct {
	ContentID     string `json:"contentId"`
	Title         string `json:"title"`
	Description   string `json:"description,omitempty"`
	ThumbnailURL  string `json:"thumbnailUrl,omitempty"`
	LengthSeconds int    `json:"lengthSeconds,omitempty"`
	ViewCounter   int    `json:"viewCounter,omitempty"`
	UserNickname  string `json:"userNickname,omitempty"`
}

// NiconicoClient looks up video metadata via the oEmbed endpoint, falling
// back to the legacy getthumbinfo XML API. Results are cached in
// cacheJSONs/niconicoInfoCache.jsonl.
type NiconicoClient struct {
	HTTP  *utils.OtodlHTTPClient
	Store *Store[NicoMeta]
}

func NewNiconicoClient(cacheDir string, client *utils.OtodlHTTPClient) *NiconicoClient {
	return &NiconicoClient{
		HTTP:  client,
		Store: NewStore(cacheDir, "niconicoInfoCache", func(n NicoMeta) string { return n.ContentID }),
	}
}

// Get returns metadata for one content ID (sm/nm/so prefixed).
func (c *NiconicoClient) Get(ctx context.Context, contentID string) (NicoMeta, error) {
	if !utils.NicoVideoIDRegex.MatchString(contentID) {
		return NicoMeta{}, fmt.Errorf("invalid niconico content id %q", contentID)
	}
	return c.Store.GetOrFetch(ctx, contentID, func(ctx context.Context) (NicoMeta, error) {
		meta, err := c.fetchOEmbed(ctx, contentID)
		if err == nil {
			return meta, nil
		}
		log.Debug().Str("op", "metacache/niconico").Err(err).Msgf("oembed failed for %s, trying getthumbinfo", contentID)
		return c.fetchThumbInfo(ctx, contentID)
	})
}

// BatchGet resolves many IDs concurrently, preserving input order.
func (c *NiconicoClient) BatchGet(ctx context.Context, contentIDs []string, start int) []Entry[NicoMeta] {
	return BatchGet(ctx, contentIDs, start, c.Get)
}

func (c *NiconicoClient) fetchOEmbed(ctx context.Context, contentID string) (NicoMeta, error) {
	watch := "https://www.nicovideo.jp/watch/" + contentID
	endpoint := "https://www.nicovideo.jp/oembed?url=" + url.QueryEscape(watch) + "&format=json"
	var resp struct {
		Title        string `json:"title"`
		ThumbnailURL string `json:"thumbnail_url"`
		AuthorName   string `json:"author_name"`
	}
	headers := map[string]string{"Referer": "https://www.nicovideo.jp/"}
	if err := fetchJSON(ctx, c.HTTP, endpoint, headers, &resp); err != nil {
		return NicoMeta{}, err
	}
	if resp.Title == "" {
		return NicoMeta{}, fmt.Errorf("empty oembed response for %s", contentID)
	}
	return NicoMeta{
		ContentID:    contentID,
		Title:        resp.Title,
		ThumbnailURL: resp.ThumbnailURL,
		UserNickname: resp.AuthorName,
	}, nil
}

func (c *NiconicoClient) fetchThumbInfo(ctx context.Context, contentID string) (NicoMeta, error) {
	client := c.HTTP
	if client == nil {
		client = utils.NewOtodlHTTPClient(utils.HTTPClientConfig{Timeout: 30 * time.Second})
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://ext.nicovideo.jp/api/getthumbinfo/"+contentID, nil)
	if err != nil {
		return NicoMeta{}, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return NicoMeta{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return NicoMeta{}, fmt.Errorf("Error: Status code %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return NicoMeta{}, err
	}
	var parsed struct {
		Status string `xml:"status,attr"`
		Thumb  struct {
			VideoID      string `xml:"video_id"`
			Title        string `xml:"title"`
			Description  string `xml:"description"`
			ThumbnailURL string `xml:"thumbnail_url"`
			Length       string `xml:"length"` // mm:ss
			ViewCounter  int    `xml:"view_counter"`
			UserNickname string `xml:"user_nickname"`
		} `xml:"thumb"`
	}
	if err := xml.Unmarshal(body, &parsed); err != nil {
		return NicoMeta{}, fmt.Errorf("failed to parse getthumbinfo response: %w", err)
	}
	if parsed.Status != "ok" || parsed.Thumb.Title == "" {
		return NicoMeta{}, fmt.Errorf("no metadata found for %s", contentID)
	}
	return NicoMeta{
		ContentID:     contentID,
		Title:         parsed.Thumb.Title,
		Description:   parsed.Thumb.Description,
		ThumbnailURL:  parsed.Thumb.ThumbnailURL,
		LengthSeconds: parseLength(parsed.Thumb.Length),
		ViewCounter:   parsed.Thumb.ViewCounter,
		UserNickname:  parsed.Thumb.UserNickname,
	}, nil
}

// parseLength converts the mm:ss (or h:mm:ss) length string to seconds.
func parseLength(value string) int {
	var seconds int
	var part int
	for _, r := range value {
		if r == ':' {
			seconds = seconds*60 + part
			part = 0
			continue
		}
		if r < '0' || r > '9' {
			return 0
		}
		part = part*10 + int(r-'0')
	}
	return seconds*60 + part
}
