package domain

// StructureCounts is the requested fan-out: C campaigns, S ad sets, A ads.
// Ad sets are replicated uniformly across campaigns and ads uniformly across
// ad sets using ceiling division, so the materialized totals may exceed S
// and A when the counts do not divide evenly.
type StructureCounts struct {
	Campaigns int
	AdSets    int
	Ads       int
}

// TargetingGroup is a named bundle of taxonomy interests narrowing one ad
// set's audience.
type TargetingGroup struct {
	Name      string   `json:"name"`
	Interests []string `json:"interests"`
}

// CopyVariant is one primary-text/headline pairing rotated across ads.
type CopyVariant struct {
	PrimaryText string `json:"primary_text"`
	Headline    string `json:"headline"`
}

// AgeRange bounds an ad set's audience age. Min never exceeds Max once a
// plan is built.
type AgeRange struct {
	Min int
	Max int
}

// StructurePlan is the index-addressable expansion of one request into the
// full campaign tree. Everything a creation loop needs is resolved here;
// the orchestrator only walks the plan in order.
type StructurePlan struct {
	Campaigns     []CampaignPlan
	Currency      string
	BudgetMinor   int64 // daily budget per ad set, minor currency units
	AdSetsPerCamp int
	AdsPerAdSet   int
	TotalAdSets   int
	TotalAds      int
}

// CampaignPlan holds one campaign and its ad sets.
type CampaignPlan struct {
	Name   string
	AdSets []AdSetPlan
}

// AdSetPlan carries the globally unique ad set index, its resolved
// targeting and the ads it will contain.
type AdSetPlan struct {
	Name        string
	GlobalIndex int
	Targeting   TargetingGroup
	Ages        AgeRange
	Ads         []AdPlan
}

// AdPlan binds a global ad index to its rotated copy variant.
type AdPlan struct {
	Name        string
	GlobalIndex int
	Copy        CopyVariant
}
