package metacache

import (
	"context"
	"fmt"

	"github.com/sumwave/otodl/internal/utils"
)

// TweetMedia is one attachment of a post.
type TweetMedia struct {
	Type string `json:"type"` // photo, video, gif
	URL  string `json:"url"`
}

// TweetMeta is the cached shape of one post on X.
type TweetMeta struct {
	ID             string       `json:"id"`
	Text           string       `json:"text,omitempty"`
	AuthorName     string       `json:"authorName,omitempty"`
	AuthorUsername string       `json:"authorUsername,omitempty"`
	CreatedAt      string       `json:"createdAt,omitempty"`
	Likes          int          `json:"likes,omitempty"`
	Media          []TweetMedia `json:"media,omitempty"`
}

// TwitterClient looks up post metadata through the public fxtwitter
// status API, cached in cacheJSONs/twitterInfoCache.jsonl.
type TwitterClient struct {
	HTTP  *utils.OtodlHTTPClient
	Store *Store[TweetMeta]
}

func NewTwitterClient(cacheDir string, client *utils.OtodlHTTPClient) *TwitterClient {
	return &TwitterClient{
		HTTP:  client,
		Store: NewStore(cacheDir, "twitterInfoCache", func(t TweetMeta) string { return t.ID }),
	}
}

// Get returns metadata for one status ID, from cache or the API.
func (c *TwitterClient) Get(ctx context.Context, statusID string) (TweetMeta, error) {
	return c.Store.GetOrFetch(ctx, statusID, func(ctx context.Context) (TweetMeta, error) {
		return c.fetch(ctx, statusID)
	})
}

// BatchGet resolves many status IDs concurrently, preserving input order.
func (c *TwitterClient) BatchGet(ctx context.Context, statusIDs []string, start int) []Entry[TweetMeta] {
	return BatchGet(ctx, statusIDs, start, c.Get)
}

func (c *TwitterClient) fetch(ctx context.Context, statusID string) (TweetMeta, error) {
	var resp struct {
		Code  int `json:"code"`
		Tweet struct {
			ID     string `json:"id"`
			Text   string `json:"text"`
			Author struct {
				Name       string `json:"name"`
				ScreenName string `json:"screen_name"`
			} `json:"author"`
			CreatedAt string `json:"created_at"`
			Likes     int    `json:"likes"`
			Media     struct {
				All []struct {
					Type string `json:"type"`
					URL  string `json:"url"`
				} `json:"all"`
			} `json:"media"`
		} `json:"tweet"`
	}
	endpoint := "https://api.fxtwitter.com/status/" + statusID
	if err := fetchJSON(ctx, c.HTTP, endpoint, nil, &resp); err != nil {
		return TweetMeta{}, err
	}
	if resp.Code != 0 && resp.Code != 200 {
		return TweetMeta{}, fmt.Errorf("Error: Status code %d", resp.Code)
	}
	if resp.Tweet.ID == "" {
		return TweetMeta{}, fmt.Errorf("no metadata found for status %s", statusID)
	}
	meta := TweetMeta{
		ID:             resp.Tweet.ID,
		Text:           resp.Tweet.Text,
		AuthorName:     resp.Tweet.Author.Name,
		AuthorUsername: resp.Tweet.Author.ScreenName,
		CreatedAt:      resp.Tweet.CreatedAt,
		Likes:          resp.Tweet.Likes,
	}
	for _, m := range resp.Tweet.Media.All {
		meta.Media = append(meta.Media, TweetMedia{Type: m.Type, URL: m.URL})
	}
	return meta, nil
}
