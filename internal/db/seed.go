package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"adforge/internal/adapter/postgres"
	"adforge/internal/core/domain"
)

// Seed inserts demo data: one team of three users, a connected credential
// for each, and a little audit history so past-interest mining has
// something to return. Intended for local development only.
func Seed(ctx context.Context, pool *pgxpool.Pool, store *postgres.Store) error {
	owner := "user-owner"
	members := []string{"user-member-1", "user-member-2"}

	_, err := pool.Exec(ctx, `INSERT INTO teams (owner_id, owner_name)
VALUES ($1, 'Demo Agency') ON CONFLICT DO NOTHING`, owner)
	if err != nil {
		return err
	}
	for i, member := range members {
		_, err = pool.Exec(ctx, `INSERT INTO team_members (owner_id, member_id, member_name)
VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`, owner, member, fmt.Sprintf("Member %d", i+1))
		if err != nil {
			return err
		}
	}

	users := append([]string{owner}, members...)
	for i, userID := range users {
		cred := domain.Credential{
			Token:      fmt.Sprintf("demo-token-%d", i+1),
			OwnerLabel: userID,
		}
		if err = store.SaveCredential(ctx, userID, cred); err != nil {
			return err
		}
	}

	rec := domain.AuditRecord{
		ID:       uuid.NewString(),
		UserID:   owner,
		Action:   "structure.create",
		EntityID: "demo-campaign",
		Details: map[string]any{
			"interests": []string{"coffee", "espresso machines", "home brewing"},
		},
		Timestamp: time.Now().UTC(),
	}
	return store.AppendAudit(ctx, rec)
}
