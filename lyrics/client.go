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
)

const defaultBaseURL = "https://lrclib.net"

var timestampRe = regexp.MustCompile(`\[\d+:\d+\.\d+\]`)

type SearchResult struct {
	ID           int    `json:"id"`
	TrackName    string `json:"trackName"`
	ArtistName   string `json:"artistName"`
	AlbumName    string `json:"albumName"`
	PlainLyrics  string `json:"plainLyrics"`
	SyncedLyrics string `json:"syncedLyrics"`
}

// Result is the best match for a query. Lyrics is empty when the match has none.
type Result struct {
	Lyrics    string `json:"lyrics"`
	TrackInfo string `json:"trackInfo"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New() *Client {
	return NewWithBaseURL(defaultBaseURL)
}

func NewWithBaseURL(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Search returns the first lrclib match for query, or nil when nothing matched.
func (c *Client) Search(ctx context.Context, query string) (*Result, error) {
	u := fmt.Sprintf("%s/api/search?q=%s", c.baseURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("lrclib API returned status %d", resp.StatusCode)
	}

	var results []SearchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, err
	}

	if len(results) == 0 {
		return nil, nil
	}

	res := results[0]
	trackInfo := res.TrackName
	if res.ArtistName != "" {
		trackInfo += " by " + res.ArtistName
	}

	var text string
	if res.PlainLyrics != "" {
		text = res.PlainLyrics
	} else if res.SyncedLyrics != "" {
		text = strings.TrimSpace(timestampRe.ReplaceAllString(res.SyncedLyrics, ""))
	}

	return &Result{Lyrics: text, TrackInfo: trackInfo}, nil
}
