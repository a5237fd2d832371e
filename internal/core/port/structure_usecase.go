package port

import (
	"context"

	"adforge/internal/core/domain"
)

// StructureUseCase is the primary inbound port: it turns one marketing
// request into a correctly ordered tree of remote platform objects and
// serves the cached read paths that report on them.
type StructureUseCase interface {
	// CreateStructure provisions campaigns, ad sets, creatives and ads on
	// the remote platform in dependency order. It fails with a descriptive
	// error on validation, authentication or unrecoverable remote failure.
	// Resources created before a deeper failure remain live remotely; the
	// returned error reports their ids so an operator can intervene.
	CreateStructure(ctx context.Context, req CreateStructureReq) (*StructureResult, error)

	// ListCampaigns returns campaign rosters across every ad account the
	// user can act on. Results are served through the SWR cache;
	// forceRefresh deletes the cache entry before recomputing.
	ListCampaigns(ctx context.Context, userID string, forceRefresh bool) (*RosterResult, error)

	// ListAds is ListCampaigns for the ad level of the hierarchy.
	ListAds(ctx context.Context, userID string, forceRefresh bool) (*RosterResult, error)
}

// CreateStructureReq describes one marketing request. Counts are mandatory
// and must all be positive; everything else has a fallback.
type CreateStructureReq struct {
	UserID    string
	AccountID string
	PageID    string

	// MediaRef is an upload reference resolved by the media storage
	// collaborator into a stable URL (plus a cover image for video).
	MediaRef  string
	MediaType string // "image" or "video"

	Counts domain.StructureCounts

	// ProductContext is optional free text handed to the AI collaborator.
	ProductContext string

	// Overrides. Targeting/copy overrides replace the AI-derived variants
	// wholesale; the text overrides win only when exactly one ad is
	// requested.
	TargetingOverrides  []domain.TargetingGroup
	CopyOverrides       []domain.CopyVariant
	PrimaryTextOverride string
	HeadlineOverride    string

	// DailyBudget is in major currency units; zero selects the
	// currency-keyed default.
	DailyBudget float64

	Country              string
	Placements           []string
	AgeMin               int
	AgeMax               int
	ExclusionAudienceIDs []string
}

// StructureResult reports a fully successful run.
type StructureResult struct {
	CampaignID string            `json:"campaign_id"`
	Structure  StructureSummary  `json:"structure"`
	AIInsights domain.AIInsights `json:"ai_insights"`
}

// StructureSummary lists every remote id created, grouped by level.
type StructureSummary struct {
	Campaigns []string `json:"campaigns"`
	AdSets    []string `json:"ad_sets"`
	Ads       []string `json:"ads"`
}

// RosterResult aggregates per-account listings. A failing account yields an
// entry with Error set instead of failing the whole fetch.
type RosterResult struct {
	Accounts []AccountRoster `json:"accounts"`
	Stale    bool            `json:"stale"`
}

// AccountRoster is one account's listing plus the metadata needed to render
// it. Items are the platform's objects as returned, insight sub-resources
// merged in.
type AccountRoster struct {
	AccountID string           `json:"account_id"`
	Name      string           `json:"name"`
	Currency  string           `json:"currency"`
	Items     []map[string]any `json:"items"`
	Error     string           `json:"error,omitempty"`
}
