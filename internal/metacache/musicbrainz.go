package metacache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sumwave/otodl/internal/utils"
)

// MBKind selects which MusicBrainz entity a lookup targets.
type MBKind string

const (
	MBArtist    MBKind = "artist"
	MBRelease   MBKind = "release"
	MBRecording MBKind = "recording"
)

// mbTTL is how long a cached MusicBrainz row stays fresh.
const mbTTL = 6 * 30 * 24 * time.Hour

// MBRow wraps the raw entity document with its fetch time so stale rows
// can be refreshed.
type MBRow struct {
	MBID      string          `json:"mbid"`
	FetchedAt int64           `json:"fetchedAt"` // unix milliseconds
	Data      json.RawMessage `json:"data"`
}

// MusicBrainzClient looks up artist, release and recording documents,
// caching each kind in its own JSONL file. MusicBrainz requires a
// descriptive User-Agent on every request.
type MusicBrainzClient struct {
	HTTP      *utils.OtodlHTTPClient
	UserAgent string
	stores    map[MBKind]*Store[MBRow]
	now       func() time.Time
}

func NewMusicBrainzClient(cacheDir string, client *utils.OtodlHTTPClient) *MusicBrainzClient {
	key := func(r MBRow) string { return r.MBID }
	return &MusicBrainzClient{
		HTTP:      client,
		UserAgent: utils.ToolUserAgent,
		stores: map[MBKind]*Store[MBRow]{
			MBArtist:    NewStore(cacheDir, "musicBrainzInfoArtist", key),
			MBRelease:   NewStore(cacheDir, "musicBrainzInfoRelease", key),
			MBRecording: NewStore(cacheDir, "musicBrainzInfoRecording", key),
		},
		now: time.Now,
	}
}

// Get returns the raw entity document for mbid. A cached row older than
// the TTL is refetched; the newest row for the MBID wins.
func (c *MusicBrainzClient) Get(ctx context.Context, kind MBKind, mbid string) (json.RawMessage, error) {
	store, ok := c.stores[kind]
	if !ok {
		return nil, fmt.Errorf("unknown musicbrainz kind %q", kind)
	}
	if row, ok := c.freshest(store, mbid); ok {
		return row.Data, nil
	}
	data, err := c.fetch(ctx, kind, mbid)
	if err != nil {
		return nil, err
	}
	row := MBRow{MBID: mbid, FetchedAt: c.now().UnixMilli(), Data: data}
	// Append unconditionally: a stale row with the same MBID must not
	// suppress the refreshed one, so rows are deduped by freshness on
	// read instead.
	if err := store.appendAlways(row); err != nil {
		return data, nil
	}
	return data, nil
}

// BatchGet resolves many MBIDs of one kind, preserving input order.
func (c *MusicBrainzClient) BatchGet(ctx context.Context, kind MBKind, mbids []string, start int) []Entry[json.RawMessage] {
	return BatchGet(ctx, mbids, start, func(ctx context.Context, mbid string) (json.RawMessage, error) {
		return c.Get(ctx, kind, mbid)
	})
}

// freshest returns the newest cached row for mbid if it is within TTL.
func (c *MusicBrainzClient) freshest(store *Store[MBRow], mbid string) (MBRow, bool) {
	store.mu.Lock()
	defer store.mu.Unlock()
	var newest MBRow
	var found bool
	for _, row := range store.readAll() {
		if row.MBID != mbid {
			continue
		}
		if !found || row.FetchedAt > newest.FetchedAt {
			newest = row
			found = true
		}
	}
	if !found || c.now().UnixMilli()-newest.FetchedAt >= mbTTL.Milliseconds() {
		return MBRow{}, false
	}
	return newest, true
}

func (c *MusicBrainzClient) fetch(ctx context.Context, kind MBKind, mbid string) (json.RawMessage, error) {
	var endpoint string
	switch kind {
	case MBArtist:
		endpoint = "https://musicbrainz.org/ws/2/artist/" + mbid + "?fmt=json"
	case MBRelease:
		endpoint = "https://musicbrainz.org/ws/2/release/" + mbid + "?fmt=json&inc=artist-credits"
	case MBRecording:
		endpoint = "https://musicbrainz.org/ws/2/recording/" + mbid + "?fmt=json&inc=releases"
	}
	var data json.RawMessage
	headers := map[string]string{"User-Agent": c.UserAgent, "Accept": "application/json"}
	if err := fetchJSON(ctx, c.HTTP, endpoint, headers, &data); err != nil {
		return nil, err
	}
	return data, nil
}
