package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"adforge/internal/core/domain"
	"adforge/internal/core/port"
)

// Destination countries whose regulation requires a beneficiary identity on
// every ad set. Resolved once per account and reused for all children.
var regulatedCountries = map[string]struct{}{
	"AT": {}, "BE": {}, "BG": {}, "HR": {}, "CY": {}, "CZ": {}, "DK": {},
	"EE": {}, "FI": {}, "FR": {}, "DE": {}, "GR": {}, "HU": {}, "IE": {},
	"IT": {}, "LV": {}, "LT": {}, "LU": {}, "MT": {}, "NL": {}, "PL": {},
	"PT": {}, "RO": {}, "SK": {}, "SI": {}, "ES": {}, "SE": {},
}

// StructureService drives the provisioning of one marketing request into a
// campaign tree on the remote platform, and serves the cached read paths.
// It implements port.StructureUseCase.
//
// Creation is single-threaded and strictly sequential: an ad set needs its
// campaign's remote id, a creative needs the media asset (and, for
// regulated destinations, the beneficiary), an ad needs its creative. A
// small randomized delay between sibling creations paces the platform's
// rate limiter; it is not a correctness mechanism.
type StructureService struct {
	store    port.Store
	graph    port.GraphAPI
	cache    port.Cache
	resolver *CredentialResolver
	ai       port.CreativeIntelligence
	media    port.MediaStore
	logger   *slog.Logger

	sleep  func(time.Duration)
	jitter func() time.Duration
}

// NewStructureService wires the orchestrator with its collaborators.
func NewStructureService(store port.Store, g port.GraphAPI, cache port.Cache, resolver *CredentialResolver, ai port.CreativeIntelligence, media port.MediaStore, logger *slog.Logger) *StructureService {
	return &StructureService{
		store:    store,
		graph:    g,
		cache:    cache,
		resolver: resolver,
		ai:       ai,
		media:    media,
		logger:   logger,
		sleep:    time.Sleep,
		jitter: func() time.Duration {
			return time.Duration(200+rand.Intn(400)) * time.Millisecond
		},
	}
}

// SetPacing overrides the sibling-pacing sleep and jitter. Tests disable
// both.
func (s *StructureService) SetPacing(sleep func(time.Duration), jitter func() time.Duration) {
	s.sleep = sleep
	s.jitter = jitter
}

var _ port.StructureUseCase = (*StructureService)(nil)

// CreateStructure runs the full pipeline: credential resolution, media and
// AI collaboration, planning, then paced depth-first creation of
// Campaign → AdSet → Creative → Ad. The first hard failure aborts all
// remaining planned siblings and descendants; resources already created
// stay live on the platform and are reported in the returned *RunError.
func (s *StructureService) CreateStructure(ctx context.Context, req port.CreateStructureReq) (*port.StructureResult, error) {
	if err := validateReq(req); err != nil {
		return nil, err
	}

	pool, err := BuildCredentialPool(ctx, s.store, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("build credential pool: %w", err)
	}
	if len(pool) == 0 {
		return nil, port.ErrAccountNotConnected
	}
	cred, err := s.resolver.Resolve(ctx, req.AccountID, pool)
	if err != nil {
		return nil, err
	}

	acct, err := s.graph.GetAdAccount(ctx, req.AccountID, *cred)
	if err != nil {
		return nil, err
	}

	asset, err := s.media.Resolve(ctx, req.MediaRef, req.MediaType)
	if err != nil {
		return nil, fmt.Errorf("resolve media: %w", err)
	}

	insights := s.analyze(ctx, req, asset)
	plan, err := s.buildPlan(ctx, req, insights, acct.Currency)
	if err != nil {
		return nil, err
	}

	beneficiary := s.resolveBeneficiary(ctx, req.AccountID, acct.CountryCode, *cred)
	taxonomy := s.resolveTaxonomy(ctx, plan, *cred)

	run := &treeRun{
		svc:         s,
		req:         req,
		cred:        *cred,
		asset:       asset,
		insights:    insights,
		plan:        plan,
		beneficiary: beneficiary,
		taxonomy:    taxonomy,
	}
	result, runErr := run.execute(ctx)

	// the resource trail is durable either way; an operator needs it most
	// when the run aborted partway
	if len(run.created) > 0 {
		if err := s.store.AppendResources(ctx, req.UserID, run.created); err != nil {
			s.logger.Error("persist remote resources", slog.Any("error", err))
		}
	}
	if runErr != nil {
		return nil, runErr
	}

	s.finishRun(ctx, req, plan, result)
	result.AIInsights = insights
	return result, nil
}

func validateReq(req port.CreateStructureReq) error {
	c := req.Counts
	if c.Campaigns <= 0 || c.AdSets <= 0 || c.Ads <= 0 {
		return fmt.Errorf("%w: counts must be positive, got campaigns=%d ad_sets=%d ads=%d",
			ErrValidation, c.Campaigns, c.AdSets, c.Ads)
	}
	if req.UserID == "" || req.AccountID == "" || req.PageID == "" {
		return fmt.Errorf("%w: user, account and page ids are required", ErrValidation)
	}
	if req.MediaRef == "" {
		return fmt.Errorf("%w: media reference is required", ErrValidation)
	}
	return nil
}

// analyze calls the generative collaborator and makes its output total. The
// core never blocks on AI availability: a failed analysis degrades to
// deterministic fallbacks.
func (s *StructureService) analyze(ctx context.Context, req port.CreateStructureReq, asset *port.MediaAsset) domain.AIInsights {
	var insights domain.AIInsights
	out, err := s.ai.Analyze(ctx, port.AnalysisInput{
		MediaURL:       asset.URL,
		MediaType:      req.MediaType,
		ProductContext: req.ProductContext,
		Counts:         req.Counts,
	})
	if err != nil {
		s.logger.Warn("ai analysis unavailable, using fallbacks", slog.Any("error", err))
	} else if out != nil {
		insights = *out
	}
	return insights.FillDefaults()
}

func (s *StructureService) buildPlan(ctx context.Context, req port.CreateStructureReq, insights domain.AIInsights, currency string) (*domain.StructurePlan, error) {
	groups := req.TargetingOverrides
	if len(groups) == 0 {
		groups = insights.InterestGroups
	}
	variants := req.CopyOverrides
	if len(variants) == 0 {
		variants = insights.AdCopyVariations
	}
	ages := domain.AgeRange{Min: req.AgeMin, Max: req.AgeMax}
	if ages.Min == 0 && ages.Max == 0 {
		ages = domain.AgeRange{Min: insights.AgeMin, Max: insights.AgeMax}
	}

	base := insights.Interests
	past, err := s.store.PastInterests(ctx, req.UserID)
	if err != nil {
		s.logger.Warn("past interest mining failed", slog.Any("error", err))
	} else {
		base = append(base, past...)
	}

	name := insights.ProductCategory
	return BuildPlan(PlanInput{
		Name:                name,
		Counts:              req.Counts,
		TargetingGroups:     groups,
		BaseInterests:       base,
		CopyVariants:        variants,
		PrimaryTextOverride: req.PrimaryTextOverride,
		HeadlineOverride:    req.HeadlineOverride,
		DailyBudget:         req.DailyBudget,
		Currency:            currency,
		Ages:                ages,
	})
}

func (s *StructureService) resolveBeneficiary(ctx context.Context, accountID, country string, cred domain.Credential) string {
	if _, ok := regulatedCountries[country]; !ok {
		return ""
	}
	beneficiary, err := s.graph.Beneficiary(ctx, accountID, cred)
	if err != nil {
		s.logger.Warn("beneficiary resolution failed",
			slog.String("account_id", accountID), slog.Any("error", err))
		return ""
	}
	return beneficiary
}

// resolveTaxonomy looks up every distinct interest name in the plan against
// the platform's targeting taxonomy, preferring an exact name match over
// the first hit. Names the taxonomy does not know are left out of payloads;
// a lookup failure only logs.
func (s *StructureService) resolveTaxonomy(ctx context.Context, plan *domain.StructurePlan, cred domain.Credential) map[string]domain.Interest {
	out := make(map[string]domain.Interest)
	for _, camp := range plan.Campaigns {
		for _, adSet := range camp.AdSets {
			for _, name := range adSet.Targeting.Interests {
				key := strings.ToLower(name)
				if _, ok := out[key]; ok {
					continue
				}
				matches, err := s.graph.SearchInterests(ctx, name, cred)
				if err != nil {
					s.logger.Warn("interest taxonomy lookup failed",
						slog.String("interest", name), slog.Any("error", err))
					continue
				}
				if len(matches) == 0 {
					continue
				}
				out[key] = matches[0]
				for _, m := range matches {
					if strings.EqualFold(m.Name, name) {
						out[key] = m
						break
					}
				}
			}
		}
	}
	return out
}

// finishRun appends the audit record and purges the user's cache namespace
// so the next read is never served pre-mutation data. Neither failure
// undoes the run; both are logged.
func (s *StructureService) finishRun(ctx context.Context, req port.CreateStructureReq, plan *domain.StructurePlan, result *port.StructureResult) {
	interests := make([]string, 0, 8)
	for _, camp := range plan.Campaigns {
		for _, as := range camp.AdSets {
			interests = append(interests, as.Targeting.Interests...)
		}
	}
	rec := domain.AuditRecord{
		ID:       uuid.NewString(),
		UserID:   req.UserID,
		Action:   "structure.create",
		EntityID: result.CampaignID,
		Details: map[string]any{
			"account_id": req.AccountID,
			"campaigns":  len(result.Structure.Campaigns),
			"ad_sets":    len(result.Structure.AdSets),
			"ads":        len(result.Structure.Ads),
			"interests":  interests,
		},
		Timestamp: time.Now().UTC(),
	}
	if err := s.store.AppendAudit(ctx, rec); err != nil {
		s.logger.Error("append audit record", slog.Any("error", err))
	}
	if err := s.cache.InvalidateNamespace(ctx, userNamespace(req.UserID)); err != nil {
		s.logger.Error("invalidate cache namespace", slog.Any("error", err))
	}
}

func userNamespace(userID string) string { return "user:" + userID + ":" }

// treeRun holds the mutable state of one provisioning walk.
type treeRun struct {
	svc         *StructureService
	req         port.CreateStructureReq
	cred        domain.Credential
	asset       *port.MediaAsset
	insights    domain.AIInsights
	plan        *domain.StructurePlan
	beneficiary string
	taxonomy    map[string]domain.Interest

	created []domain.RemoteResource
}

// execute walks the plan depth-first. Sibling creations at each level are
// separated by jitter; the first hard failure aborts the walk.
func (t *treeRun) execute(ctx context.Context) (*port.StructureResult, *RunError) {
	result := &port.StructureResult{}

	for ci, camp := range t.plan.Campaigns {
		if ci > 0 {
			t.pace()
		}
		campaignID, err := t.create(ctx, domain.KindCampaign, "", t.campaignPayload(camp))
		if err != nil {
			return nil, t.fail(fmt.Sprintf("creating campaign %d of %d", ci+1, len(t.plan.Campaigns)), err)
		}
		if result.CampaignID == "" {
			result.CampaignID = campaignID
		}
		result.Structure.Campaigns = append(result.Structure.Campaigns, campaignID)

		for si, adSet := range camp.AdSets {
			if si > 0 {
				t.pace()
			}
			adSetID, err := t.create(ctx, domain.KindAdSet, campaignID, t.adSetPayload(adSet, campaignID))
			if err != nil {
				return nil, t.fail(fmt.Sprintf("creating ad set %d of %d in campaign %s",
					si+1, len(camp.AdSets), campaignID), err)
			}
			result.Structure.AdSets = append(result.Structure.AdSets, adSetID)

			for ai, ad := range adSet.Ads {
				if ai > 0 {
					t.pace()
				}
				creativeID, err := t.create(ctx, domain.KindCreative, adSetID, t.creativePayload(ad))
				if err != nil {
					return nil, t.fail(fmt.Sprintf("creating creative for ad %d of %d in ad set %s",
						ai+1, len(adSet.Ads), adSetID), err)
				}

				adID, err := t.create(ctx, domain.KindAd, creativeID, t.adPayload(ad, adSetID, creativeID))
				if err != nil {
					return nil, t.fail(fmt.Sprintf("creating ad %d of %d in ad set %s",
						ai+1, len(adSet.Ads), adSetID), err)
				}
				result.Structure.Ads = append(result.Structure.Ads, adID)
			}
		}
	}
	return result, nil
}

func (t *treeRun) create(ctx context.Context, kind domain.ResourceKind, parentID string, payload map[string]any) (string, error) {
	remoteID, err := t.svc.graph.Create(ctx, t.req.AccountID, kind, payload, t.cred)
	if err != nil {
		return "", err
	}
	t.created = append(t.created, domain.RemoteResource{
		Kind:           kind,
		RemoteID:       remoteID,
		ParentRemoteID: parentID,
		CreatedAt:      time.Now().UTC(),
	})
	return remoteID, nil
}

func (t *treeRun) fail(stage string, err error) *RunError {
	t.svc.logger.Error("structure run aborted",
		slog.String("stage", stage),
		slog.Int("created", len(t.created)),
		slog.Any("error", err))
	return &RunError{Stage: stage, Created: t.created, Err: err}
}

func (t *treeRun) pace() {
	t.svc.sleep(t.svc.jitter())
}

func (t *treeRun) campaignPayload(camp domain.CampaignPlan) map[string]any {
	return map[string]any{
		"name":                  camp.Name,
		"objective":             "OUTCOME_TRAFFIC",
		"status":                "PAUSED",
		"special_ad_categories": []string{},
	}
}

func (t *treeRun) adSetPayload(adSet domain.AdSetPlan, campaignID string) map[string]any {
	targeting := map[string]any{
		"geo_locations": map[string]any{"countries": []string{t.req.Country}},
		"age_min":       adSet.Ages.Min,
		"age_max":       adSet.Ages.Max,
	}
	if entries := t.taxonomyEntries(adSet.Targeting.Interests); len(entries) > 0 {
		targeting["interests"] = entries
	}
	if len(t.req.Placements) > 0 {
		targeting["publisher_platforms"] = t.req.Placements
	}
	if len(t.req.ExclusionAudienceIDs) > 0 {
		excluded := make([]map[string]string, 0, len(t.req.ExclusionAudienceIDs))
		for _, id := range t.req.ExclusionAudienceIDs {
			excluded = append(excluded, map[string]string{"id": id})
		}
		targeting["excluded_custom_audiences"] = excluded
	}

	payload := map[string]any{
		"name":              adSet.Name,
		"campaign_id":       campaignID,
		"daily_budget":      strconv.FormatInt(t.plan.BudgetMinor, 10),
		"billing_event":     "IMPRESSIONS",
		"optimization_goal": "LINK_CLICKS",
		"bid_strategy":      "LOWEST_COST_WITHOUT_CAP",
		"targeting":         targeting,
		"status":            "PAUSED",
	}
	if t.beneficiary != "" {
		payload["dsa_beneficiary"] = t.beneficiary
		payload["dsa_payor"] = t.beneficiary
	}
	return payload
}

// taxonomyEntries maps interest names onto their resolved taxonomy ids.
// Unresolved names are dropped; an ad set whose names all miss falls back
// to broad targeting by omitting the field.
func (t *treeRun) taxonomyEntries(names []string) []map[string]string {
	var entries []map[string]string
	for _, name := range names {
		if m, ok := t.taxonomy[strings.ToLower(name)]; ok {
			entries = append(entries, map[string]string{"id": m.ID, "name": m.Name})
		}
	}
	return entries
}

func (t *treeRun) creativePayload(ad domain.AdPlan) map[string]any {
	spec := map[string]any{"page_id": t.req.PageID}
	if t.req.MediaType == "video" {
		spec["video_data"] = map[string]any{
			"video_id":  t.asset.URL,
			"image_url": t.asset.ThumbnailURL,
			"message":   ad.Copy.PrimaryText,
			"title":     ad.Copy.Headline,
		}
	} else {
		spec["link_data"] = map[string]any{
			"picture": t.asset.URL,
			"message": ad.Copy.PrimaryText,
			"name":    ad.Copy.Headline,
		}
	}

	payload := map[string]any{
		"name":              ad.Name + " Creative",
		"object_story_spec": spec,
	}
	// chat-destination extras: entry-point greeting and predefined
	// conversation starters
	if t.insights.Greeting != "" || len(t.insights.IceBreakers) > 0 {
		welcome := map[string]any{"greeting": t.insights.Greeting}
		if len(t.insights.IceBreakers) > 0 {
			starters := make([]map[string]string, 0, len(t.insights.IceBreakers))
			for _, q := range t.insights.IceBreakers {
				starters = append(starters, map[string]string{"question": q})
			}
			welcome["ice_breakers"] = starters
		}
		payload["page_welcome_message"] = welcome
	}
	if t.insights.CTAMessage != "" {
		payload["call_to_action"] = map[string]any{
			"type":  "LEARN_MORE",
			"value": map[string]string{"link_caption": t.insights.CTAMessage},
		}
	}
	return payload
}

func (t *treeRun) adPayload(ad domain.AdPlan, adSetID, creativeID string) map[string]any {
	return map[string]any{
		"name":     ad.Name,
		"adset_id": adSetID,
		"creative": map[string]string{"creative_id": creativeID},
		"status":   "PAUSED",
	}
}
