package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"adforge/internal/core/domain"
	"adforge/internal/core/port"
)

// resolutionTTL bounds how long a verified (account, credential) pair is
// trusted without re-probing. A cached credential may have been revoked in
// the meantime; that staleness cost is accepted in exchange for not burning
// rate limit on re-probes.
const resolutionTTL = 12 * time.Hour

// CredentialResolver determines which credential in a pool the platform
// accepts for a given ad account. Resolutions are cached per account after
// a remote-verified success; a cache hit is returned unconditionally.
type CredentialResolver struct {
	graph  port.GraphAPI
	logger *slog.Logger
	now    func() time.Time

	mu    sync.Mutex
	cache map[string]domain.CredentialResolution
}

// NewCredentialResolver returns a resolver probing through the given
// platform client.
func NewCredentialResolver(g port.GraphAPI, logger *slog.Logger) *CredentialResolver {
	return &CredentialResolver{
		graph:  g,
		logger: logger,
		now:    time.Now,
		cache:  make(map[string]domain.CredentialResolution),
	}
}

// SetClock overrides the time source for tests.
func (r *CredentialResolver) SetClock(now func() time.Time) { r.now = now }

// Resolve probes the pool in order with a cheap read against the account
// and returns the first credential the platform accepts. A failed probe is
// interpreted as "wrong identity" and never retried. Exhausting the pool
// returns port.ErrAccountNotConnected, which callers must treat as
// "reconnect required" rather than a transient failure.
func (r *CredentialResolver) Resolve(ctx context.Context, accountID string, pool []domain.Credential) (*domain.Credential, error) {
	r.mu.Lock()
	if res, ok := r.cache[accountID]; ok && r.now().Sub(res.ResolvedAt) < resolutionTTL {
		r.mu.Unlock()
		cred := res.Credential
		return &cred, nil
	}
	r.mu.Unlock()

	for _, cred := range pool {
		if err := r.graph.ProbeAccount(ctx, accountID, cred); err != nil {
			r.logger.Debug("credential probe rejected",
				slog.String("account_id", accountID),
				slog.String("owner", cred.OwnerLabel),
				slog.Any("error", err))
			continue
		}

		r.mu.Lock()
		r.cache[accountID] = domain.CredentialResolution{
			AccountID:  accountID,
			Credential: cred,
			ResolvedAt: r.now(),
		}
		r.mu.Unlock()

		c := cred
		return &c, nil
	}
	return nil, port.ErrAccountNotConnected
}

// Forget drops a cached resolution, forcing the next Resolve to re-probe.
func (r *CredentialResolver) Forget(accountID string) {
	r.mu.Lock()
	delete(r.cache, accountID)
	r.mu.Unlock()
}
