package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"adforge/internal/core/domain"
	"adforge/internal/core/port"
)

// fakeGraph is a scriptable port.GraphAPI. Fields left nil behave as
// success with zero values.
type fakeGraph struct {
	mu sync.Mutex

	probeErr   func(accountID string, cred domain.Credential) error
	probeCalls []string // "accountID/token" in probe order

	account *domain.AdAccount

	createFn    func(kind domain.ResourceKind, payload map[string]any) (string, error)
	createCalls []domain.ResourceKind

	listFn   func(endpoint string) ([]map[string]any, error)
	searchFn func(query string) ([]domain.Interest, error)

	beneficiary    string
	beneficiaryErr error
}

func (g *fakeGraph) ProbeAccount(_ context.Context, accountID string, cred domain.Credential) error {
	g.mu.Lock()
	g.probeCalls = append(g.probeCalls, accountID+"/"+cred.Token)
	g.mu.Unlock()
	if g.probeErr != nil {
		return g.probeErr(accountID, cred)
	}
	return nil
}

func (g *fakeGraph) GetAdAccount(_ context.Context, accountID string, _ domain.Credential) (*domain.AdAccount, error) {
	if g.account != nil {
		return g.account, nil
	}
	return &domain.AdAccount{ID: accountID, Name: "Acct " + accountID, Currency: "USD", CountryCode: "US"}, nil
}

func (g *fakeGraph) Create(_ context.Context, _ string, kind domain.ResourceKind, payload map[string]any, _ domain.Credential) (string, error) {
	g.mu.Lock()
	g.createCalls = append(g.createCalls, kind)
	n := len(g.createCalls)
	g.mu.Unlock()
	if g.createFn != nil {
		return g.createFn(kind, payload)
	}
	return fmt.Sprintf("%s-%d", kind, n), nil
}

func (g *fakeGraph) ListAll(_ context.Context, endpoint string, _ map[string]string, _ domain.Credential) ([]map[string]any, error) {
	if g.listFn != nil {
		return g.listFn(endpoint)
	}
	return nil, nil
}

func (g *fakeGraph) SearchInterests(_ context.Context, query string, _ domain.Credential) ([]domain.Interest, error) {
	if g.searchFn != nil {
		return g.searchFn(query)
	}
	return nil, nil
}

func (g *fakeGraph) Beneficiary(context.Context, string, domain.Credential) (string, error) {
	return g.beneficiary, g.beneficiaryErr
}

// fakeStore is an in-memory port.Store.
type fakeStore struct {
	mu          sync.Mutex
	credentials map[string]domain.Credential
	owner       map[string]domain.TeamMember   // member -> owner
	teammates   map[string][]domain.TeamMember // owner -> members
	past        []string

	audits    []domain.AuditRecord
	resources []domain.RemoteResource
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		credentials: make(map[string]domain.Credential),
		owner:       make(map[string]domain.TeamMember),
		teammates:   make(map[string][]domain.TeamMember),
	}
}

func (s *fakeStore) Credential(_ context.Context, userID string) (*domain.Credential, error) {
	if c, ok := s.credentials[userID]; ok {
		return &c, nil
	}
	return nil, nil
}

func (s *fakeStore) TeamOwner(_ context.Context, userID string) (*domain.TeamMember, error) {
	if o, ok := s.owner[userID]; ok {
		return &o, nil
	}
	return nil, nil
}

func (s *fakeStore) Teammates(_ context.Context, ownerID string) ([]domain.TeamMember, error) {
	return s.teammates[ownerID], nil
}

func (s *fakeStore) AppendAudit(_ context.Context, rec domain.AuditRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audits = append(s.audits, rec)
	return nil
}

func (s *fakeStore) AppendResources(_ context.Context, _ string, res []domain.RemoteResource) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resources = append(s.resources, res...)
	return nil
}

func (s *fakeStore) PastInterests(context.Context, string) ([]string, error) {
	return s.past, nil
}

// fakeCache computes through without storing and records invalidations.
type fakeCache struct {
	mu           sync.Mutex
	deleted      []string
	invalidated  []string
	computeCount int
}

func (c *fakeCache) GetOrCompute(ctx context.Context, _ string, _, _ time.Duration, compute func(context.Context) ([]byte, error)) (port.CacheResult, error) {
	c.mu.Lock()
	c.computeCount++
	c.mu.Unlock()
	v, err := compute(ctx)
	if err != nil {
		return port.CacheResult{}, err
	}
	return port.CacheResult{Value: v}, nil
}

func (c *fakeCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleted = append(c.deleted, key)
	return nil
}

func (c *fakeCache) InvalidateNamespace(_ context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, prefix)
	return nil
}

// fakeAI returns the configured insights or an error.
type fakeAI struct {
	insights *domain.AIInsights
	err      error
}

func (a *fakeAI) Analyze(context.Context, port.AnalysisInput) (*domain.AIInsights, error) {
	return a.insights, a.err
}

// fakeMedia resolves every reference to a fixed asset.
type fakeMedia struct{}

func (fakeMedia) Resolve(_ context.Context, ref, mediaType string) (*port.MediaAsset, error) {
	asset := &port.MediaAsset{URL: "https://media.test/" + ref}
	if mediaType == "video" {
		asset.ThumbnailURL = asset.URL + "/cover.jpg"
	}
	return asset, nil
}
