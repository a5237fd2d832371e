package port

import (
	"context"
	"errors"

	"adforge/internal/core/domain"
)

// ErrAccountNotConnected is returned by the resolver when no credential in
// the pool can act on the account. Callers must treat it as "reconnect
// required", distinct from a transient or rate-limit failure.
var ErrAccountNotConnected = errors.New("ad account is not connected to any available identity")

// Store is the outbound port to the relational store. Credentials are
// persisted encrypted and decrypted on read; audit and resource records are
// append-only.
type Store interface {
	// Credential returns the user's own platform credential, or nil when
	// the user has not connected one.
	Credential(ctx context.Context, userID string) (*domain.Credential, error)

	// TeamOwner returns the owner of the team the user belongs to, or nil
	// when the user is not a member of any team.
	TeamOwner(ctx context.Context, userID string) (*domain.TeamMember, error)

	// Teammates returns the members of the team the user owns.
	Teammates(ctx context.Context, ownerID string) ([]domain.TeamMember, error)

	// AppendAudit stores one audit record.
	AppendAudit(ctx context.Context, rec domain.AuditRecord) error

	// AppendResources stores the remote resources created by a run.
	AppendResources(ctx context.Context, userID string, res []domain.RemoteResource) error

	// PastInterests mines previously used interest names from the user's
	// audit history, most recent first.
	PastInterests(ctx context.Context, userID string) ([]string, error)
}
