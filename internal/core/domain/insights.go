package domain

// AIInsights is the output of the generative analysis collaborator. Every
// field is optional on the wire; FillDefaults makes the struct total before
// it reaches the planner, so downstream code never checks for absence.
type AIInsights struct {
	PrimaryText      string           `json:"primary_text,omitempty"`
	Headline         string           `json:"headline,omitempty"`
	CTAMessage       string           `json:"cta_message,omitempty"`
	Interests        []string         `json:"interests,omitempty"`
	AgeMin           int              `json:"age_min,omitempty"`
	AgeMax           int              `json:"age_max,omitempty"`
	ProductCategory  string           `json:"product_category,omitempty"`
	Confidence       float64          `json:"confidence,omitempty"`
	InterestGroups   []TargetingGroup `json:"interest_groups,omitempty"`
	AdCopyVariations []CopyVariant    `json:"ad_copy_variations,omitempty"`
	IceBreakers      []string         `json:"ice_breakers,omitempty"`
	Greeting         string           `json:"greeting,omitempty"`
}

// Defaults applied when the collaborator is down or returns a partial
// shape. The age range is deliberately broad.
const (
	DefaultPrimaryText = "Discover something new today."
	DefaultHeadline    = "Learn More"
	DefaultGreeting    = "Hi! How can we help you?"
	DefaultAgeMin      = 20
	DefaultAgeMax      = 65
)

// FillDefaults returns a copy of in with every absent field replaced by its
// deterministic fallback: generic copy, broad age range, empty targeting.
// The result always has at least one copy variation.
func (in AIInsights) FillDefaults() AIInsights {
	out := in
	if out.PrimaryText == "" {
		out.PrimaryText = DefaultPrimaryText
	}
	if out.Headline == "" {
		out.Headline = DefaultHeadline
	}
	if out.Greeting == "" {
		out.Greeting = DefaultGreeting
	}
	if out.AgeMin <= 0 {
		out.AgeMin = DefaultAgeMin
	}
	if out.AgeMax <= 0 {
		out.AgeMax = DefaultAgeMax
	}
	if len(out.AdCopyVariations) == 0 {
		out.AdCopyVariations = []CopyVariant{{
			PrimaryText: out.PrimaryText,
			Headline:    out.Headline,
		}}
	}
	return out
}
