package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adforge/internal/config/configs"
	"adforge/internal/core/domain"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(configs.Graph{
		BaseURL:     srv.URL,
		Version:     "v19.0",
		MaxAttempts: 3,
		MaxPages:    3,
		TimeoutSec:  5,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	c.SetRetryPolicy(RetryPolicy{
		MaxAttempts: 3,
		Retryable:   IsTransient,
		Sleep:       func(time.Duration) {},
		Delay:       func(int) time.Duration { return 0 },
	})
	return c
}

var testCred = domain.Credential{Token: "tok-1", OwnerLabel: "own"}

func TestCreateCampaign(t *testing.T) {
	var gotPath, gotAuth string
	var gotForm map[string]string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, r.ParseForm())
		gotForm = map[string]string{}
		for k := range r.PostForm {
			gotForm[k] = r.PostForm.Get(k)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "cmp_42"})
	})

	c := newTestClient(t, handler)
	id, err := c.Create(context.Background(), "123", domain.KindCampaign, map[string]any{
		"name":      "Launch",
		"objective": "OUTCOME_TRAFFIC",
		"targeting": map[string]any{"age_min": 20},
	}, testCred)
	require.NoError(t, err)
	assert.Equal(t, "cmp_42", id)
	assert.Equal(t, "/v19.0/act_123/campaigns", gotPath)
	assert.Equal(t, "Bearer tok-1", gotAuth)
	assert.Equal(t, "Launch", gotForm["name"])
	// nested objects travel as JSON-encoded form fields
	assert.JSONEq(t, `{"age_min":20}`, gotForm["targeting"])
}

func TestCreateUnknownKind(t *testing.T) {
	c := newTestClient(t, http.NotFoundHandler())
	_, err := c.Create(context.Background(), "123", domain.ResourceKind("banner"), nil, testCred)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown resource kind")
}

func TestCreateDecodesPlatformError(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid parameter","code":100,"error_subcode":1487888}}`))
	})

	c := newTestClient(t, handler)
	_, err := c.Create(context.Background(), "123", domain.KindAdSet, map[string]any{"name": "x"}, testCred)
	require.Error(t, err)

	var pe *Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 100, pe.Code)
	assert.Equal(t, 1487888, pe.Subcode)
	assert.Equal(t, http.StatusBadRequest, pe.HTTPStatus)
	assert.Contains(t, err.Error(), "Invalid parameter")
}

func TestCreateRetriesTransient(t *testing.T) {
	calls := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"message":"Please retry your request later.","code":2}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "ads_7"})
	})

	c := newTestClient(t, handler)
	id, err := c.Create(context.Background(), "123", domain.KindAd, map[string]any{"name": "x"}, testCred)
	require.NoError(t, err)
	assert.Equal(t, "ads_7", id)
	assert.Equal(t, 3, calls)
}

func TestCreateDoesNotRetryAppNotLive(t *testing.T) {
	calls := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"App must be live","code":2069}}`))
	})

	c := newTestClient(t, handler)
	_, err := c.Create(context.Background(), "123", domain.KindAd, map[string]any{"name": "x"}, testCred)
	require.Error(t, err)
	assert.True(t, IsAppNotLive(err))
	assert.Equal(t, 1, calls)
}

func TestCreateUnstructuredErrorBody(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	})

	c := newTestClient(t, handler)
	c.SetRetryPolicy(RetryPolicy{MaxAttempts: 1})
	_, err := c.Create(context.Background(), "123", domain.KindAd, map[string]any{"name": "x"}, testCred)
	require.Error(t, err)

	var pe *Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, http.StatusBadGateway, pe.HTTPStatus)
}

func TestGetAdAccount(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v19.0/act_123", r.URL.Path)
		assert.Equal(t, "name,currency,business_country_code", r.URL.Query().Get("fields"))
		_ = json.NewEncoder(w).Encode(map[string]string{
			"id":                    "act_123",
			"name":                  "Acme Ads",
			"currency":              "THB",
			"business_country_code": "TH",
		})
	})

	c := newTestClient(t, handler)
	acct, err := c.GetAdAccount(context.Background(), "123", testCred)
	require.NoError(t, err)
	assert.Equal(t, "123", acct.ID)
	assert.Equal(t, "Acme Ads", acct.Name)
	assert.Equal(t, "THB", acct.Currency)
	assert.Equal(t, "TH", acct.CountryCode)
}

func TestProbeAccountRejected(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid OAuth access token.","code":190}}`))
	})

	c := newTestClient(t, handler)
	err := c.ProbeAccount(context.Background(), "123", testCred)
	require.Error(t, err)
	assert.True(t, IsAuth(err))
}

func TestListAllFollowsCursors(t *testing.T) {
	page := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page++
		switch r.URL.Query().Get("after") {
		case "":
			_, _ = fmt.Fprint(w, `{"data":[{"id":"a"},{"id":"b"}],"paging":{"cursors":{"after":"c2"},"next":"yes"}}`)
		case "c2":
			_, _ = fmt.Fprint(w, `{"data":[{"id":"c"}],"paging":{}}`)
		default:
			t.Fatalf("unexpected cursor %q", r.URL.Query().Get("after"))
		}
	})

	c := newTestClient(t, handler)
	items, err := c.ListAll(context.Background(), "act_123/campaigns", map[string]string{"fields": "id,name"}, testCred)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "a", items[0]["id"])
	assert.Equal(t, "c", items[2]["id"])
	assert.Equal(t, 2, page)
}

func TestListAllStopsAtPageBound(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		// every page claims to have more
		_, _ = fmt.Fprint(w, `{"data":[{"id":"x"}],"paging":{"cursors":{"after":"more"},"next":"yes"}}`)
	})

	c := newTestClient(t, handler)
	items, err := c.ListAll(context.Background(), "act_123/ads", nil, testCred)
	require.NoError(t, err)
	assert.Len(t, items, 3) // maxPages in the test config
}

func TestListAllPartialOnPageFailure(t *testing.T) {
	page := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		page++
		if page == 1 {
			_, _ = fmt.Fprint(w, `{"data":[{"id":"a"}],"paging":{"cursors":{"after":"c2"},"next":"yes"}}`)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"boom","code":1}}`))
	})

	c := newTestClient(t, handler)
	items, err := c.ListAll(context.Background(), "act_123/campaigns", nil, testCred)
	require.Error(t, err)
	// the first page's items still come back alongside the error
	require.Len(t, items, 1)
	assert.Equal(t, "a", items[0]["id"])
}

func TestSearchInterests(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v19.0/search", r.URL.Path)
		assert.Equal(t, "adinterest", r.URL.Query().Get("type"))
		assert.Equal(t, "coffee", r.URL.Query().Get("q"))
		_, _ = fmt.Fprint(w, `{"data":[{"id":"601","name":"Coffee"}]}`)
	})

	c := newTestClient(t, handler)
	interests, err := c.SearchInterests(context.Background(), "coffee", testCred)
	require.NoError(t, err)
	require.Len(t, interests, 1)
	assert.Equal(t, "601", interests[0].ID)
	assert.Equal(t, "Coffee", interests[0].Name)
}

func TestBeneficiaryFallsBackToName(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"name": "Acme GmbH"})
	})
	c := newTestClient(t, handler)
	b, err := c.Beneficiary(context.Background(), "123", testCred)
	require.NoError(t, err)
	assert.Equal(t, "Acme GmbH", b)

	handler2 := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{
			"default_dsa_beneficiary": "Acme Holdings",
			"name":                    "Acme GmbH",
		})
	})
	c2 := newTestClient(t, handler2)
	b, err = c2.Beneficiary(context.Background(), "123", testCred)
	require.NoError(t, err)
	assert.Equal(t, "Acme Holdings", b)
}
