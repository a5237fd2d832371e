package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"adforge/internal/config/configs"
	"adforge/internal/core/domain"
	"adforge/internal/core/port"
)

// Client talks to the remote advertising platform's HTTP API. It implements
// port.GraphAPI. Each method is a single logical remote call: creations get
// a bounded retry on transient signals, listings get bounded pagination, and
// nothing is cached here.
type Client struct {
	baseURL  string
	version  string
	hc       *http.Client
	retry    RetryPolicy
	maxPages int
	logger   *slog.Logger
}

// NewClient builds a Client from configuration.
func NewClient(cfg configs.Graph, logger *slog.Logger) *Client {
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		version:  cfg.Version,
		hc:       &http.Client{Timeout: time.Duration(cfg.TimeoutSec) * time.Second},
		retry:    DefaultRetryPolicy(cfg.MaxAttempts),
		maxPages: cfg.MaxPages,
		logger:   logger,
	}
}

// SetRetryPolicy replaces the retry policy. Tests use it to inject a fake
// sleep.
func (c *Client) SetRetryPolicy(p RetryPolicy) { c.retry = p }

var _ port.GraphAPI = (*Client)(nil)

// collections maps a resource kind to its creation endpoint under the
// account node.
var collections = map[domain.ResourceKind]string{
	domain.KindCampaign: "campaigns",
	domain.KindAdSet:    "adsets",
	domain.KindCreative: "adcreatives",
	domain.KindAd:       "ads",
}

// ProbeAccount performs the cheapest possible authenticated read against
// the account. Errors are returned as-is; the resolver interprets any
// failure as "wrong identity".
func (c *Client) ProbeAccount(ctx context.Context, accountID string, cred domain.Credential) error {
	var out struct {
		ID string `json:"id"`
	}
	params := url.Values{"fields": {"account_status"}}
	return c.get(ctx, "act_"+accountID, params, cred, &out)
}

// GetAdAccount returns currency and country reference data for the account.
func (c *Client) GetAdAccount(ctx context.Context, accountID string, cred domain.Credential) (*domain.AdAccount, error) {
	var out struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Currency    string `json:"currency"`
		CountryCode string `json:"business_country_code"`
	}
	params := url.Values{"fields": {"name,currency,business_country_code"}}
	if err := c.get(ctx, "act_"+accountID, params, cred, &out); err != nil {
		return nil, fmt.Errorf("get ad account %s: %w", accountID, err)
	}
	return &domain.AdAccount{
		ID:          accountID,
		Name:        out.Name,
		Currency:    out.Currency,
		CountryCode: out.CountryCode,
	}, nil
}

// Create posts one object under the account node and returns its remote id.
// Transient errors are retried per the client's policy; fatal errors carry
// the platform's structured detail and surface immediately.
func (c *Client) Create(ctx context.Context, accountID string, kind domain.ResourceKind, payload map[string]any, cred domain.Credential) (string, error) {
	collection, ok := collections[kind]
	if !ok {
		return "", fmt.Errorf("unknown resource kind %q", kind)
	}

	var out struct {
		ID string `json:"id"`
	}
	err := c.retry.Do(ctx, func() error {
		return c.post(ctx, "act_"+accountID+"/"+collection, payload, cred, &out)
	})
	if err != nil {
		return "", fmt.Errorf("create %s: %w", kind, err)
	}
	return out.ID, nil
}

// ListAll follows pagination cursors up to the configured page bound. On a
// page-fetch failure it returns the items gathered so far together with the
// error, so a multi-account fetch can surface partial results.
func (c *Client) ListAll(ctx context.Context, endpoint string, params map[string]string, cred domain.Credential) ([]map[string]any, error) {
	qs := url.Values{}
	for k, v := range params {
		qs.Set(k, v)
	}

	var items []map[string]any
	after := ""
	for page := 0; page < c.maxPages; page++ {
		if after != "" {
			qs.Set("after", after)
		}
		var out struct {
			Data   []map[string]any `json:"data"`
			Paging struct {
				Cursors struct {
					After string `json:"after"`
				} `json:"cursors"`
				Next string `json:"next"`
			} `json:"paging"`
		}
		if err := c.get(ctx, endpoint, qs, cred, &out); err != nil {
			return items, fmt.Errorf("list %s page %d: %w", endpoint, page+1, err)
		}
		items = append(items, out.Data...)
		if out.Paging.Next == "" || out.Paging.Cursors.After == "" {
			return items, nil
		}
		after = out.Paging.Cursors.After
	}
	c.logger.Warn("listing truncated at page bound",
		slog.String("endpoint", endpoint), slog.Int("max_pages", c.maxPages))
	return items, nil
}

// SearchInterests queries the platform's targeting taxonomy.
func (c *Client) SearchInterests(ctx context.Context, query string, cred domain.Credential) ([]domain.Interest, error) {
	var out struct {
		Data []domain.Interest `json:"data"`
	}
	params := url.Values{"type": {"adinterest"}, "q": {query}}
	if err := c.get(ctx, "search", params, cred, &out); err != nil {
		return nil, fmt.Errorf("search interests: %w", err)
	}
	return out.Data, nil
}

// Beneficiary resolves the account's regulatory beneficiary identity.
func (c *Client) Beneficiary(ctx context.Context, accountID string, cred domain.Credential) (string, error) {
	var out struct {
		Beneficiary string `json:"default_dsa_beneficiary"`
		Name        string `json:"name"`
	}
	params := url.Values{"fields": {"default_dsa_beneficiary,name"}}
	if err := c.get(ctx, "act_"+accountID, params, cred, &out); err != nil {
		return "", fmt.Errorf("resolve beneficiary: %w", err)
	}
	if out.Beneficiary != "" {
		return out.Beneficiary, nil
	}
	return out.Name, nil
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values, cred domain.Credential, out any) error {
	u := fmt.Sprintf("%s/%s/%s", c.baseURL, c.version, endpoint)
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.do(req, cred, out)
}

func (c *Client) post(ctx context.Context, endpoint string, payload map[string]any, cred domain.Credential, out any) error {
	form := url.Values{}
	for k, v := range payload {
		switch val := v.(type) {
		case string:
			form.Set(k, val)
		default:
			// nested objects (targeting, creative spec) go over the
			// wire as JSON-encoded form fields
			b, err := json.Marshal(val)
			if err != nil {
				return fmt.Errorf("encode field %s: %w", k, err)
			}
			form.Set(k, string(b))
		}
	}

	u := fmt.Sprintf("%s/%s/%s", c.baseURL, c.version, endpoint)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, cred, out)
}

// do executes the request with the credential attached and decodes either
// the success body or the platform's structured error envelope.
func (c *Client) do(req *http.Request, cred domain.Credential, out any) error {
	req.Header.Set("Authorization", "Bearer "+cred.Token)

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("platform request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var envelope struct {
			Error Error `json:"error"`
		}
		if jsonErr := json.Unmarshal(body, &envelope); jsonErr == nil && envelope.Error.Message != "" {
			envelope.Error.HTTPStatus = resp.StatusCode
			return &envelope.Error
		}
		return &Error{
			Message:    fmt.Sprintf("unexpected status %d", resp.StatusCode),
			Code:       codeUnknown,
			HTTPStatus: resp.StatusCode,
		}
	}

	if out == nil {
		return nil
	}
	if err = json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
