package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"musicstream/models"
)

// StatusError is returned when the catalog answers with a non-200 status or
// reports success=false.
type StatusError struct {
	Path       string
	StatusCode int
}

func (e *StatusError) Error() string {
	if e.StatusCode == http.StatusOK {
		return fmt.Sprintf("catalog %s reported failure", e.Path)
	}
	return fmt.Sprintf("catalog %s returned status %d", e.Path, e.StatusCode)
}

// Client reads songs and albums from a Catalog Service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *log.Entry
}

// New returns a client for the service at baseURL. A nil httpClient gets a
// client with a 10s timeout.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger: log.WithFields(log.Fields{
			"module": "catalog",
		}),
	}
}

// A missing success field counts as success; only an explicit false fails.
type songList struct {
	Success *bool          `json:"success"`
	Songs   []models.Track `json:"songs"`
}

type albumList struct {
	Success *bool          `json:"success"`
	Albums  []models.Album `json:"albums"`
}

func failed(success *bool) bool {
	return success != nil && !*success
}

func (c *Client) ListSongs(ctx context.Context) ([]models.Track, error) {
	var resp songList
	if err := c.get(ctx, "/api/song/list", &resp); err != nil {
		return nil, err
	}
	if failed(resp.Success) {
		return nil, &StatusError{Path: "/api/song/list", StatusCode: http.StatusOK}
	}
	return resp.Songs, nil
}

func (c *Client) ListAlbums(ctx context.Context) ([]models.Album, error) {
	var resp albumList
	if err := c.get(ctx, "/api/album/list", &resp); err != nil {
		return nil, err
	}
	if failed(resp.Success) {
		return nil, &StatusError{Path: "/api/album/list", StatusCode: http.StatusOK}
	}
	return resp.Albums, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.WithField("status", resp.StatusCode).Warnf("catalog request %s failed", path)
		return &StatusError{Path: path, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}
