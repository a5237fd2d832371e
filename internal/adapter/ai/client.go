package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"adforge/internal/config/configs"
	"adforge/internal/core/domain"
	"adforge/internal/core/port"
)

// Client calls the hosted generative model that derives ad copy and
// targeting from media. It implements port.CreativeIntelligence. Any subset
// of the response may be missing; the caller fills defaults, so this client
// decodes whatever it gets and passes it through.
type Client struct {
	baseURL string
	hc      *http.Client
}

// NewClient builds a Client from configuration.
func NewClient(cfg configs.AI) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		hc:      &http.Client{Timeout: time.Duration(cfg.TimeoutSec) * time.Second},
	}
}

var _ port.CreativeIntelligence = (*Client)(nil)

// Analyze submits the media reference and requested counts and decodes the
// insight payload.
func (c *Client) Analyze(ctx context.Context, in port.AnalysisInput) (*domain.AIInsights, error) {
	body, err := json.Marshal(map[string]any{
		"media_url":       in.MediaURL,
		"media_type":      in.MediaType,
		"product_context": in.ProductContext,
		"campaign_count":  in.Counts.Campaigns,
		"ad_set_count":    in.Counts.AdSets,
		"ad_count":        in.Counts.Ads,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/analyze", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("analysis request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("analysis failed with status %d", resp.StatusCode)
	}

	var insights domain.AIInsights
	if err = json.NewDecoder(resp.Body).Decode(&insights); err != nil {
		return nil, fmt.Errorf("decode insights: %w", err)
	}
	return &insights, nil
}
