package usecase

import (
	"context"
	"fmt"

	"adforge/internal/core/domain"
	"adforge/internal/core/port"
)

// BuildCredentialPool assembles every credential the acting user might use,
// ordered by probe preference: the user's own first, then the team owner's,
// then teammates'. Pure aggregation over the store; no remote calls. The
// result is de-duplicated by raw token so shared connections are probed
// once.
func BuildCredentialPool(ctx context.Context, store port.Store, userID string) ([]domain.Credential, error) {
	var pool []domain.Credential
	seen := make(map[string]struct{})

	add := func(cred *domain.Credential) {
		if cred == nil || cred.Token == "" {
			return
		}
		if _, ok := seen[cred.Token]; ok {
			return
		}
		seen[cred.Token] = struct{}{}
		pool = append(pool, *cred)
	}

	own, err := store.Credential(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load own credential: %w", err)
	}
	add(own)

	owner, err := store.TeamOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load team owner: %w", err)
	}
	if owner != nil {
		cred, err := store.Credential(ctx, owner.UserID)
		if err != nil {
			return nil, fmt.Errorf("load owner credential: %w", err)
		}
		if cred != nil && cred.OwnerLabel == "" {
			cred.OwnerLabel = owner.Name
		}
		add(cred)
	}

	members, err := store.Teammates(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load teammates: %w", err)
	}
	for _, m := range members {
		cred, err := store.Credential(ctx, m.UserID)
		if err != nil {
			return nil, fmt.Errorf("load teammate credential: %w", err)
		}
		if cred != nil && cred.OwnerLabel == "" {
			cred.OwnerLabel = m.Name
		}
		add(cred)
	}

	return pool, nil
}
