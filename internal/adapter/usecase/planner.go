package usecase

import (
	"fmt"
	"math"
	"strings"

	"adforge/internal/core/domain"
)

// Budget tables keyed by ISO currency code, in minor units. Daily defaults
// apply when the user supplies no amount; minimums clamp what the user did
// supply, since the platform rejects ad sets budgeted below its per-currency
// floor.
var (
	defaultDailyBudgetMinor = map[string]int64{
		"USD": 2000,
		"EUR": 2000,
		"GBP": 1500,
		"BRL": 10000,
		"THB": 20000,
		"VND": 500000,
		"IDR": 300000,
		"PHP": 100000,
	}
	minDailyBudgetMinor = map[string]int64{
		"USD": 100,
		"EUR": 100,
		"GBP": 100,
		"BRL": 500,
		"THB": 4000,
		"VND": 200000,
		"IDR": 100000,
		"PHP": 5000,
	}
	fallbackDefaultBudgetMinor int64 = 2000
	fallbackMinBudgetMinor     int64 = 100
)

// Cap on interests per synthesized targeting group. Larger groups dilute
// audience distinctness without improving delivery.
const maxInterestsPerGroup = 5

// PlanInput gathers everything the planner needs, already made total by the
// caller: at least one copy variant, a valid currency, a usable age range.
type PlanInput struct {
	Name                string
	Counts              domain.StructureCounts
	TargetingGroups     []domain.TargetingGroup
	BaseInterests       []string
	CopyVariants        []domain.CopyVariant
	PrimaryTextOverride string
	HeadlineOverride    string
	DailyBudget         float64 // major units; 0 selects the currency default
	Currency            string
	Ages                domain.AgeRange
}

// BuildPlan turns requested counts plus copy/targeting variants into an
// index-addressable plan. Fan-out is uniform ceiling division on purpose:
// every campaign gets ceil(S/C) ad sets and every ad set ceil(A/S) ads, so
// the materialized totals may exceed the requested ones.
func BuildPlan(in PlanInput) (*domain.StructurePlan, error) {
	c, s, a := in.Counts.Campaigns, in.Counts.AdSets, in.Counts.Ads
	if c <= 0 || s <= 0 || a <= 0 {
		return nil, fmt.Errorf("%w: counts must be positive, got campaigns=%d ad_sets=%d ads=%d",
			ErrValidation, c, s, a)
	}
	if len(in.CopyVariants) == 0 {
		return nil, fmt.Errorf("%w: at least one copy variant is required", ErrValidation)
	}

	adSetsPerCamp := ceilDiv(s, c)
	adsPerAdSet := ceilDiv(a, s)
	totalAdSets := c * adSetsPerCamp
	totalAds := totalAdSets * adsPerAdSet

	groups := expandTargeting(in.TargetingGroups, in.BaseInterests, totalAdSets)
	ages := normalizeAges(in.Ages)
	budget := normalizeBudget(in.DailyBudget, in.Currency)

	name := in.Name
	if name == "" {
		name = "AdForge Campaign"
	}

	plan := &domain.StructurePlan{
		Currency:      in.Currency,
		BudgetMinor:   budget,
		AdSetsPerCamp: adSetsPerCamp,
		AdsPerAdSet:   adsPerAdSet,
		TotalAdSets:   totalAdSets,
		TotalAds:      totalAds,
	}

	globalAd := 0
	for ci := 0; ci < c; ci++ {
		camp := domain.CampaignPlan{Name: fmt.Sprintf("%s %d", name, ci+1)}
		for si := 0; si < adSetsPerCamp; si++ {
			global := ci*adSetsPerCamp + si
			adSet := domain.AdSetPlan{
				Name:        fmt.Sprintf("%s - Ad Set %d", name, global+1),
				GlobalIndex: global,
				Targeting:   groups[global],
				Ages:        ages,
			}
			for ai := 0; ai < adsPerAdSet; ai++ {
				adSet.Ads = append(adSet.Ads, domain.AdPlan{
					Name:        fmt.Sprintf("%s - Ad %d", name, globalAd+1),
					GlobalIndex: globalAd,
					Copy:        pickCopy(in, globalAd),
				})
				globalAd++
			}
			camp.AdSets = append(camp.AdSets, adSet)
		}
		plan.Campaigns = append(plan.Campaigns, camp)
	}
	return plan, nil
}

func ceilDiv(n, d int) int { return (n + d - 1) / d }

// pickCopy rotates variants by global ad index. A user-supplied override
// wins only when exactly one ad was requested.
func pickCopy(in PlanInput, globalAd int) domain.CopyVariant {
	if in.Counts.Ads == 1 && (in.PrimaryTextOverride != "" || in.HeadlineOverride != "") {
		v := in.CopyVariants[0]
		if in.PrimaryTextOverride != "" {
			v.PrimaryText = in.PrimaryTextOverride
		}
		if in.HeadlineOverride != "" {
			v.Headline = in.HeadlineOverride
		}
		return v
	}
	return in.CopyVariants[globalAd%len(in.CopyVariants)]
}

// expandTargeting guarantees one non-empty group per ad set. When enough
// groups were supplied they are used as-is, in order. Otherwise all
// supplied interests plus the base list are flattened into a de-duplicated
// pool and dealt round-robin across totalAdSets synthesized groups.
// Distinctness is only approximate when the pool is smaller than the group
// count.
func expandTargeting(groups []domain.TargetingGroup, base []string, totalAdSets int) []domain.TargetingGroup {
	if len(groups) >= totalAdSets {
		return groups[:totalAdSets]
	}

	pool := dedupeInterests(groups, base)
	out := make([]domain.TargetingGroup, totalAdSets)
	for i := range out {
		out[i].Name = fmt.Sprintf("Audience %d", i+1)
	}
	for j, interest := range pool {
		g := j % totalAdSets
		if len(out[g].Interests) < maxInterestsPerGroup {
			out[g].Interests = append(out[g].Interests, interest)
		}
	}
	// a group that got nothing falls back to the head of the pool
	for i := range out {
		if len(out[i].Interests) == 0 && len(pool) > 0 {
			n := min(3, len(pool))
			out[i].Interests = append([]string(nil), pool[:n]...)
		}
	}
	return out
}

func dedupeInterests(groups []domain.TargetingGroup, base []string) []string {
	seen := make(map[string]struct{})
	var pool []string
	add := func(interest string) {
		key := strings.ToLower(strings.TrimSpace(interest))
		if key == "" {
			return
		}
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		pool = append(pool, strings.TrimSpace(interest))
	}
	for _, g := range groups {
		for _, interest := range g.Interests {
			add(interest)
		}
	}
	for _, interest := range base {
		add(interest)
	}
	return pool
}

// normalizeAges swaps an inverted range.
func normalizeAges(ages domain.AgeRange) domain.AgeRange {
	if ages.Min > ages.Max {
		ages.Min, ages.Max = ages.Max, ages.Min
	}
	return ages
}

// normalizeBudget converts a major-unit amount to minor units, falls back
// to the currency default when absent, and clamps to the currency minimum
// so the platform does not reject the ad set.
func normalizeBudget(amount float64, currency string) int64 {
	currency = strings.ToUpper(currency)

	var minor int64
	if amount > 0 {
		minor = int64(math.Round(amount * 100))
	} else {
		minor = lookupOr(defaultDailyBudgetMinor, currency, fallbackDefaultBudgetMinor)
	}

	if floor := lookupOr(minDailyBudgetMinor, currency, fallbackMinBudgetMinor); minor < floor {
		minor = floor
	}
	return minor
}

func lookupOr(table map[string]int64, key string, fallback int64) int64 {
	if v, ok := table[key]; ok {
		return v
	}
	return fallback
}
