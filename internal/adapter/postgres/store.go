package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"adforge/internal/core/domain"
	"adforge/internal/core/port"
)

// Store implements port.Store over pgxpool. Credentials are sealed with
// AES-GCM before they touch a row and opened on the way out; audit and
// resource tables are append-only.
type Store struct {
	pool   *pgxpool.Pool
	cipher *tokenCipher
}

// NewStore returns a store decrypting credentials with the given hex key.
func NewStore(pool *pgxpool.Pool, hexKey string) (*Store, error) {
	c, err := newTokenCipher(hexKey)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool, cipher: c}, nil
}

var _ port.Store = (*Store)(nil)

// Credential returns the user's decrypted platform credential, or nil when
// none is connected.
func (s *Store) Credential(ctx context.Context, userID string) (*domain.Credential, error) {
	var sealed, label string
	err := s.pool.QueryRow(ctx,
		`SELECT token_enc, owner_label FROM credentials WHERE user_id = $1`,
		userID).Scan(&sealed, &label)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query credential: %w", err)
	}
	token, err := s.cipher.open(sealed)
	if err != nil {
		return nil, fmt.Errorf("credential for user %s: %w", userID, err)
	}
	return &domain.Credential{Token: token, OwnerLabel: label}, nil
}

// SaveCredential seals and upserts a user's credential.
func (s *Store) SaveCredential(ctx context.Context, userID string, cred domain.Credential) error {
	sealed, err := s.cipher.seal(cred.Token)
	if err != nil {
		return fmt.Errorf("seal credential: %w", err)
	}
	_, err = s.pool.Exec(ctx, `INSERT INTO credentials (user_id, token_enc, owner_label, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (user_id) DO UPDATE SET token_enc = $2, owner_label = $3, updated_at = now()`,
		userID, sealed, cred.OwnerLabel)
	if err != nil {
		return fmt.Errorf("save credential: %w", err)
	}
	return nil
}

// TeamOwner returns the owner of the team the user belongs to, or nil.
func (s *Store) TeamOwner(ctx context.Context, userID string) (*domain.TeamMember, error) {
	var owner domain.TeamMember
	err := s.pool.QueryRow(ctx,
		`SELECT t.owner_id, t.owner_name FROM team_members m
		 JOIN teams t ON t.owner_id = m.owner_id
		 WHERE m.member_id = $1`,
		userID).Scan(&owner.UserID, &owner.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query team owner: %w", err)
	}
	return &owner, nil
}

// Teammates returns the members of the team the user owns.
func (s *Store) Teammates(ctx context.Context, ownerID string) ([]domain.TeamMember, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT member_id, member_name FROM team_members WHERE owner_id = $1 ORDER BY member_name`,
		ownerID)
	if err != nil {
		return nil, fmt.Errorf("query teammates: %w", err)
	}
	members, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.TeamMember, error) {
		var m domain.TeamMember
		err := row.Scan(&m.UserID, &m.Name)
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan teammates: %w", err)
	}
	return members, nil
}

// AppendAudit stores one audit record. Rows are never updated or deleted.
func (s *Store) AppendAudit(ctx context.Context, rec domain.AuditRecord) error {
	details, err := json.Marshal(rec.Details)
	if err != nil {
		return fmt.Errorf("encode audit details: %w", err)
	}
	_, err = s.pool.Exec(ctx, `INSERT INTO audit_log (id, user_id, action, entity_id, details, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.ID, rec.UserID, rec.Action, rec.EntityID, details, rec.Timestamp)
	if err != nil {
		return fmt.Errorf("append audit: %w", err)
	}
	return nil
}

// AppendResources stores the remote resources a run created, in creation
// order. Append-only like the audit log.
func (s *Store) AppendResources(ctx context.Context, userID string, res []domain.RemoteResource) error {
	batch := &pgx.Batch{}
	for _, r := range res {
		batch.Queue(`INSERT INTO remote_resources (user_id, kind, remote_id, parent_remote_id, created_at)
VALUES ($1, $2, $3, $4, $5)`,
			userID, string(r.Kind), r.RemoteID, r.ParentRemoteID, r.CreatedAt)
	}
	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()
	for range res {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("append remote resources: %w", err)
		}
	}
	return nil
}

// PastInterests mines interest names out of the user's audit history, most
// recent runs first, de-duplicated.
func (s *Store) PastInterests(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT DISTINCT ON (interest) interest FROM (
		    SELECT jsonb_array_elements_text(details->'interests') AS interest, created_at
		    FROM audit_log
		    WHERE user_id = $1 AND details ? 'interests'
		    ORDER BY created_at DESC
		    LIMIT 200
		 ) mined ORDER BY interest`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("mine past interests: %w", err)
	}
	interests, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (string, error) {
		var v string
		err := row.Scan(&v)
		return v, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan past interests: %w", err)
	}
	return interests, nil
}
