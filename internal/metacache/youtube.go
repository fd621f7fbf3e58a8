package metacache

import (
	"context"
	"fmt"
	"net/url"

	"github.com/sumwave/otodl/internal/utils"
)

// VideoMeta is the cached shape of one YouTube video.
type VideoMeta struct {
	VideoID      string `json:"videoId"`
	Title        string `json:"title"`
	ChannelID    string `json:"channelId"`
	ChannelTitle string `json:"channelTitle"`
	Duration     string `json:"duration"` // ISO 8601, as the API reports it
	Thumbnail    string `json:"thumbnail"`
	ViewCount    string `json:"viewCount"`
}

// YouTubeClient looks up video metadata through the Data API v3, caching
// results in cacheJSONs/youtubeInfoCache.jsonl.
type YouTubeClient struct {
	HTTP   *utils.OtodlHTTPClient
	APIKey string
	Store  *Store[VideoMeta]
}

func NewYouTubeClient(cacheDir, apiKey string, client *utils.OtodlHTTPClient) *YouTubeClient {
	return &YouTubeClient{
		HTTP:   client,
		APIKey: apiKey,
		Store:  NewStore(cacheDir, "youtubeInfoCache", func(v VideoMeta) string { return v.VideoID }),
	}
}

// Get returns metadata for one video ID, from cache or the API.
func (c *YouTubeClient) Get(ctx context.Context, videoID string) (VideoMeta, error) {
	return c.Store.GetOrFetch(ctx, videoID, func(ctx context.Context) (VideoMeta, error) {
		return c.fetch(ctx, videoID)
	})
}

// BatchGet resolves many IDs concurrently, preserving input order.
func (c *YouTubeClient) BatchGet(ctx context.Context, videoIDs []string, start int) []Entry[VideoMeta] {
	return BatchGet(ctx, videoIDs, start, c.Get)
}

func (c *YouTubeClient) fetch(ctx context.Context, videoID string) (VideoMeta, error) {
	if c.APIKey == "" {
		return VideoMeta{}, fmt.Errorf("youtube api key not configured")
	}
	q := url.Values{}
	q.Set("part", "snippet,contentDetails,statistics")
	q.Set("id", videoID)
	q.Set("key", c.APIKey)
	var resp struct {
		Items []struct {
			ID      string `json:"id"`
			Snippet struct {
				Title        string `json:"title"`
				ChannelID    string `json:"channelId"`
				ChannelTitle string `json:"channelTitle"`
				Thumbnails   struct {
					High struct {
						URL string `json:"url"`
					} `json:"high"`
				} `json:"thumbnails"`
			} `json:"snippet"`
			ContentDetails struct {
				Duration string `json:"duration"`
			} `json:"contentDetails"`
			Statistics struct {
				ViewCount string `json:"viewCount"`
			} `json:"statistics"`
		} `json:"items"`
	}
	endpoint := "https://www.googleapis.com/youtube/v3/videos?" + q.Encode()
	if err := fetchJSON(ctx, c.HTTP, endpoint, nil, &resp); err != nil {
		return VideoMeta{}, err
	}
	if len(resp.Items) == 0 {
		return VideoMeta{}, fmt.Errorf("no metadata found for video %s", videoID)
	}
	item := resp.Items[0]
	return VideoMeta{
		VideoID:      item.ID,
		Title:        item.Snippet.Title,
		ChannelID:    item.Snippet.ChannelID,
		ChannelTitle: item.Snippet.ChannelTitle,
		Duration:     item.ContentDetails.Duration,
		Thumbnail:    item.Snippet.Thumbnails.High.URL,
		ViewCount:    item.Statistics.ViewCount,
	}, nil
}
