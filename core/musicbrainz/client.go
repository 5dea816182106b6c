package musicbrainz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"RaspCD/logger"

	"github.com/hashicorp/go-retryablehttp"
)

// AppVersion is reported in the User-Agent header, which MusicBrainz requires.
const AppVersion = "0.1"

// ErrNotFound is returned when the service has no disc or stub for an id.
var ErrNotFound = errors.New("musicbrainz: not found")

// Client MusicBrainz web-service 客户端
type Client struct {
	baseURL     string
	coverArtURL string
	userAgent   string
	httpClient  *retryablehttp.Client
}

// NewClient creates a client for the ws/2 API at baseURL. contact is placed in
// the User-Agent as MusicBrainz asks of every application.
func NewClient(baseURL, coverArtURL, contact string, timeout time.Duration) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 2
	rc.RetryWaitMin = 500 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.HTTPClient.Timeout = timeout
	rc.Logger = nil

	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		coverArtURL: strings.TrimRight(coverArtURL, "/"),
		userAgent:   fmt.Sprintf("RaspCD/%s ( %s )", AppVersion, contact),
		httpClient:  rc,
	}
}

// LookupDiscID fetches the releases (or CD stub) attached to a disc id.
func (c *Client) LookupDiscID(ctx context.Context, discID string) (*DiscIDResult, error) {
	q := url.Values{}
	q.Set("inc", "recordings artist-credits")
	q.Set("cdstubs", "yes")
	q.Set("fmt", "json")
	endpoint := fmt.Sprintf("%s/ws/2/discid/%s?%s", c.baseURL, url.PathEscape(discID), q.Encode())

	body, err := c.get(ctx, endpoint, "application/json")
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var result DiscIDResult
	if err := json.NewDecoder(body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode discid response: %w", err)
	}
	logger.Debug("musicbrainz lookup complete",
		logger.String("discId", discID),
		logger.Int("releases", len(result.Releases)),
		logger.Bool("stub", result.IsStub()))
	return &result, nil
}

// CoverArtURL is the Cover Art Archive front image for a release.
func (c *Client) CoverArtURL(releaseID string) string {
	return fmt.Sprintf("%s/release/%s/front-500", c.coverArtURL, url.PathEscape(releaseID))
}

// FetchCover downloads the front cover of a release.
func (c *Client) FetchCover(ctx context.Context, releaseID string) ([]byte, string, error) {
	body, contentType, err := c.getWithType(ctx, c.CoverArtURL(releaseID), "image/*")
	if err != nil {
		return nil, "", err
	}
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, 8<<20))
	if err != nil {
		return nil, "", fmt.Errorf("read cover: %w", err)
	}
	return data, contentType, nil
}

func (c *Client) get(ctx context.Context, endpoint, accept string) (io.ReadCloser, error) {
	body, _, err := c.getWithType(ctx, endpoint, accept)
	return body, err
}

func (c *Client) getWithType(ctx context.Context, endpoint, accept string) (io.ReadCloser, string, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", accept)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("request %s: %w", endpoint, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, "", ErrNotFound
	case resp.StatusCode != http.StatusOK:
		resp.Body.Close()
		return nil, "", fmt.Errorf("unexpected status %d from %s", resp.StatusCode, endpoint)
	}
	return resp.Body, resp.Header.Get("Content-Type"), nil
}
