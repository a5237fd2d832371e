package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"adforge/internal/core/domain"
	"adforge/internal/core/port"
)

// Cache horizons for roster reads. Within the fresh window the platform is
// never called; between fresh and stale the cached roster is served while a
// background refresh runs.
const (
	rosterFreshTTL = 5 * time.Minute
	rosterStaleTTL = time.Hour
)

// Multi-account fetches run in small fixed-size batches with a short pause
// in between, as rate-limit pacing against the platform's per-account
// pools.
const (
	accountBatchSize  = 3
	accountBatchPause = 500 * time.Millisecond
)

// ListCampaigns returns campaign rosters across every ad account the user's
// credential pool can reach, served through the stale-while-revalidate
// cache. forceRefresh deletes the entry first so the next access recomputes.
func (s *StructureService) ListCampaigns(ctx context.Context, userID string, forceRefresh bool) (*port.RosterResult, error) {
	return s.roster(ctx, userID, "campaigns", forceRefresh)
}

// ListAds is the ad-level roster.
func (s *StructureService) ListAds(ctx context.Context, userID string, forceRefresh bool) (*port.RosterResult, error) {
	return s.roster(ctx, userID, "ads", forceRefresh)
}

// listing field sets per hierarchy level, insight sub-resources merged in
// by the platform.
var rosterFields = map[string]string{
	"campaigns": "name,status,objective,insights{impressions,clicks,spend}",
	"ads":       "name,status,adset_id,insights{impressions,clicks,spend}",
}

func (s *StructureService) roster(ctx context.Context, userID, level string, forceRefresh bool) (*port.RosterResult, error) {
	key := userNamespace(userID) + level
	if forceRefresh {
		if err := s.cache.Delete(ctx, key); err != nil {
			return nil, err
		}
	}

	res, err := s.cache.GetOrCompute(ctx, key, rosterFreshTTL, rosterStaleTTL, func(ctx context.Context) ([]byte, error) {
		rosters, err := s.fetchRosters(ctx, userID, level)
		if err != nil {
			return nil, err
		}
		return json.Marshal(rosters)
	})
	if err != nil {
		return nil, err
	}

	var accounts []port.AccountRoster
	if err = json.Unmarshal(res.Value, &accounts); err != nil {
		return nil, fmt.Errorf("decode cached roster: %w", err)
	}
	return &port.RosterResult{Accounts: accounts, Stale: res.IsStale}, nil
}

// fetchRosters walks the user's reachable ad accounts in batches. One
// failing account does not fail the fetch: its roster entry carries the
// error instead, so the caller can surface which accounts errored alongside
// the partial results.
func (s *StructureService) fetchRosters(ctx context.Context, userID, level string) ([]port.AccountRoster, error) {
	pool, err := BuildCredentialPool(ctx, s.store, userID)
	if err != nil {
		return nil, fmt.Errorf("build credential pool: %w", err)
	}
	if len(pool) == 0 {
		return nil, port.ErrAccountNotConnected
	}

	accountIDs := s.discoverAccounts(ctx, pool)
	rosters := make([]port.AccountRoster, len(accountIDs))

	for start := 0; start < len(accountIDs); start += accountBatchSize {
		if start > 0 {
			s.sleep(accountBatchPause)
		}
		end := min(start+accountBatchSize, len(accountIDs))

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				rosters[i] = s.fetchAccount(ctx, accountIDs[i], level, pool)
			}(i)
		}
		wg.Wait()
	}
	return rosters, nil
}

// discoverAccounts merges the ad account lists visible to each credential
// in the pool, de-duplicated, in pool order. A credential whose listing
// fails contributes nothing; the remaining pool still covers its shared
// accounts in most team setups.
func (s *StructureService) discoverAccounts(ctx context.Context, pool []domain.Credential) []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, cred := range pool {
		items, err := s.graph.ListAll(ctx, "me/adaccounts", map[string]string{"fields": "account_id"}, cred)
		if err != nil {
			s.logger.Warn("account discovery failed for credential",
				slog.String("owner", cred.OwnerLabel), slog.Any("error", err))
		}
		for _, item := range items {
			id, _ := item["account_id"].(string)
			if id == "" {
				continue
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids
}

// fetchAccount gathers one account's roster: metadata and the paginated
// listing run concurrently for that account only.
func (s *StructureService) fetchAccount(ctx context.Context, accountID, level string, pool []domain.Credential) port.AccountRoster {
	roster := port.AccountRoster{AccountID: accountID}

	cred, err := s.resolver.Resolve(ctx, accountID, pool)
	if err != nil {
		roster.Error = err.Error()
		return roster
	}

	var (
		wg      sync.WaitGroup
		acct    *domain.AdAccount
		acctErr error
		items   []map[string]any
		listErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		acct, acctErr = s.graph.GetAdAccount(ctx, accountID, *cred)
	}()
	go func() {
		defer wg.Done()
		items, listErr = s.graph.ListAll(ctx, "act_"+accountID+"/"+level,
			map[string]string{"fields": rosterFields[level]}, *cred)
	}()
	wg.Wait()

	if acctErr == nil && acct != nil {
		roster.Name = acct.Name
		roster.Currency = acct.Currency
	}
	roster.Items = items
	switch {
	case listErr != nil:
		roster.Error = listErr.Error()
	case acctErr != nil:
		roster.Error = acctErr.Error()
	}
	return roster
}
