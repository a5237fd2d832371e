package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"adforge/internal/config/configs"
	"adforge/internal/core/port"
)

// Client resolves upload references through the media storage collaborator.
// For video uploads the collaborator also returns a cover image, which the
// creative payload needs as the thumbnail.
type Client struct {
	baseURL string
	hc      *http.Client
}

// NewClient builds a Client from configuration.
func NewClient(cfg configs.Media) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		hc:      &http.Client{Timeout: time.Duration(cfg.TimeoutSec) * time.Second},
	}
}

var _ port.MediaStore = (*Client)(nil)

// Resolve exchanges an upload reference for a stable URL (and thumbnail for
// video).
func (c *Client) Resolve(ctx context.Context, ref, mediaType string) (*port.MediaAsset, error) {
	body, err := json.Marshal(map[string]string{"ref": ref, "type": mediaType})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/resolve", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("media resolve failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("media resolve failed with status %d", resp.StatusCode)
	}

	var out struct {
		URL          string `json:"url"`
		ThumbnailURL string `json:"thumbnail_url"`
	}
	if err = json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode media response: %w", err)
	}
	if out.URL == "" {
		return nil, fmt.Errorf("media collaborator returned no url for ref %q", ref)
	}
	return &port.MediaAsset{URL: out.URL, ThumbnailURL: out.ThumbnailURL}, nil
}
