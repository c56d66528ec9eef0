package lyrics

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	sentry "github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"
)

const DefaultBaseURL = "https://lrclib.net"

var syncedTimestamp = regexp.MustCompile(`\[\d+:\d+\.\d+\]`)

type SearchResult struct {
	ID           int    `json:"id"`
	TrackName    string `json:"trackName"`
	ArtistName   string `json:"artistName"`
	AlbumName    string `json:"albumName"`
	PlainLyrics  string `json:"plainLyrics"`
	SyncedLyrics string `json:"syncedLyrics"`
}

// Lyrics is the text shown on the player screen. TrackInfo names the match,
// which may differ slightly from the track that was searched for.
type Lyrics struct {
	Text      string `json:"text"`
	TrackInfo string `json:"trackInfo"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Search looks up lyrics for a track. A miss is not an error: it returns an
// empty Lyrics.
func (c *Client) Search(ctx context.Context, trackName, artistName string) (Lyrics, error) {
	span := sentry.StartSpan(ctx, "lyrics.search")
	span.Description = "Search lyrics on lrclib"
	defer span.Finish()

	params := url.Values{}
	params.Set("track_name", trackName)
	if artistName != "" {
		params.Set("artist_name", artistName)
	}

	req, err := http.NewRequestWithContext(span.Context(), http.MethodGet, c.baseURL+"/api/search?"+params.Encode(), nil)
	if err != nil {
		return Lyrics{}, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.Status = sentry.SpanStatusUnavailable
		return Lyrics{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		span.Status = sentry.SpanStatusInternalError
		return Lyrics{}, fmt.Errorf("lrclib API returned status %d", resp.StatusCode)
	}

	var results []SearchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return Lyrics{}, err
	}

	span.Status = sentry.SpanStatusOK
	if len(results) == 0 {
		log.Tracef("No lyrics found for %s by %s", trackName, artistName)
		return Lyrics{}, nil
	}

	res := results[0]
	trackInfo := res.TrackName + " - " + res.ArtistName

	var text string
	if res.PlainLyrics != "" {
		text = res.PlainLyrics
	} else if res.SyncedLyrics != "" {
		text = strings.TrimSpace(syncedTimestamp.ReplaceAllString(res.SyncedLyrics, ""))
	}

	return Lyrics{Text: text, TrackInfo: trackInfo}, nil
}
