package port

import (
	"context"

	"adforge/internal/core/domain"
)

// GraphAPI is the outbound port to the remote advertising platform. The
// implementation performs single remote calls only: retry is bounded and
// local to each call, pagination is bounded per listing, and no caching
// happens at this layer.
type GraphAPI interface {
	// ProbeAccount performs a cheap read against the account to verify the
	// credential can act on it. Any error means "wrong identity" to the
	// resolver; probes are never retried individually.
	ProbeAccount(ctx context.Context, accountID string, cred domain.Credential) error

	// GetAdAccount returns the account's currency and country reference data.
	GetAdAccount(ctx context.Context, accountID string, cred domain.Credential) (*domain.AdAccount, error)

	// Create posts one object of the given kind under the account and
	// returns its remote id. Transient failures are retried a small fixed
	// number of times; fatal platform errors surface immediately with
	// their structured detail.
	Create(ctx context.Context, accountID string, kind domain.ResourceKind, payload map[string]any, cred domain.Credential) (string, error)

	// ListAll follows pagination cursors for the endpoint up to a bounded
	// page count. A page-fetch failure returns the items gathered so far
	// together with the error.
	ListAll(ctx context.Context, endpoint string, params map[string]string, cred domain.Credential) ([]map[string]any, error)

	// SearchInterests queries the targeting taxonomy.
	SearchInterests(ctx context.Context, query string, cred domain.Credential) ([]domain.Interest, error)

	// Beneficiary resolves the regulatory beneficiary identity for the
	// account. Callers resolve it once per account and reuse it for all
	// children.
	Beneficiary(ctx context.Context, accountID string, cred domain.Credential) (string, error)
}
