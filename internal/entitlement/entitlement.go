package entitlement

import "strings"

// Plan is a subscription tier. Tiers are ordered by capability; unknown
// values resolve to the most restrictive tier.
type Plan string

const (
	PlanFree    Plan = "free"
	PlanBasic   Plan = "basic"
	PlanPremium Plan = "premium"
)

// Feature is a boolean capability gated by plan.
type Feature string

const (
	FeatureOwnerUpload        Feature = "ownerUpload"
	FeatureLeadCapture        Feature = "leadCapture"
	FeatureAIContentGenerator Feature = "aiContentGenerator"
	FeatureRealTimeAnalytics  Feature = "realTimeAnalytics"
	FeatureCustomDomain       Feature = "customDomain"
	FeatureRemoveBranding     Feature = "removeBranding"
)

// Quota is a numeric resource ceiling gated by plan.
type Quota string

const (
	QuotaLandingPages Quota = "maxLandingPages"
)

// Unlimited marks a quota with no ceiling.
const Unlimited = -1

// Table maps plans to their enabled features and quota ceilings. It is
// immutable after construction; changing entitlements means redeploying.
type Table struct {
	features map[Plan]map[Feature]bool
	quotas   map[Plan]map[Quota]int
	rank     map[Plan]int
}

// Default returns the shipped entitlement table.
func Default() *Table {
	return &Table{
		features: map[Plan]map[Feature]bool{
			PlanFree: {
				FeatureOwnerUpload: true,
			},
			PlanBasic: {
				FeatureOwnerUpload:  true,
				FeatureLeadCapture:  true,
				FeatureCustomDomain: true,
			},
			PlanPremium: {
				FeatureOwnerUpload:        true,
				FeatureLeadCapture:        true,
				FeatureCustomDomain:       true,
				FeatureAIContentGenerator: true,
				FeatureRealTimeAnalytics:  true,
				FeatureRemoveBranding:     true,
			},
		},
		quotas: map[Plan]map[Quota]int{
			PlanFree: {
				QuotaLandingPages: 1,
			},
			PlanBasic: {
				QuotaLandingPages: 5,
			},
			PlanPremium: {
				QuotaLandingPages: Unlimited,
			},
		},
		rank: map[Plan]int{
			PlanFree:    0,
			PlanBasic:   1,
			PlanPremium: 2,
		},
	}
}

// Normalize maps arbitrary input onto a known plan, falling back to free.
func Normalize(raw string) Plan {
	switch Plan(strings.ToLower(strings.TrimSpace(raw))) {
	case PlanBasic:
		return PlanBasic
	case PlanPremium:
		return PlanPremium
	default:
		return PlanFree
	}
}

// Features returns the feature set enabled for a plan.
func (t *Table) Features(plan Plan) []Feature {
	set := t.features[t.known(plan)]
	out := make([]Feature, 0, len(set))
	for f, enabled := range set {
		if enabled {
			out = append(out, f)
		}
	}
	return out
}

// HasFeature reports whether a plan unlocks a feature. Unknown features are
// never enabled.
func (t *Table) HasFeature(plan Plan, feature Feature) bool {
	return t.features[t.known(plan)][feature]
}

// QuotaLimit returns the ceiling for a quota, or Unlimited. Unknown quotas
// resolve to zero, which denies creation outright.
func (t *Table) QuotaLimit(plan Plan, quota Quota) int {
	limit, ok := t.quotas[t.known(plan)][quota]
	if !ok {
		return 0
	}
	return limit
}

// Quotas returns all quota ceilings for a plan.
func (t *Table) Quotas(plan Plan) map[Quota]int {
	src := t.quotas[t.known(plan)]
	out := make(map[Quota]int, len(src))
	for q, limit := range src {
		out[q] = limit
	}
	return out
}

// Rank orders plans by capability, free lowest.
func (t *Table) Rank(plan Plan) int {
	return t.rank[t.known(plan)]
}

// MinimumPlanFor returns the lowest-ranked plan that unlocks a feature.
// Denial responses use it to tell the caller which tier to upgrade to.
func (t *Table) MinimumPlanFor(feature Feature) (Plan, bool) {
	var best Plan
	found := false
	for plan, set := range t.features {
		if !set[feature] {
			continue
		}
		if !found || t.Rank(plan) < t.Rank(best) {
			best = plan
			found = true
		}
	}
	return best, found
}

func (t *Table) known(plan Plan) Plan {
	if _, ok := t.features[plan]; ok {
		return plan
	}
	return PlanFree
}
