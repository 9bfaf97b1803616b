package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"

	"github.com/pagelift/pagelift/internal/entitlement"
)

// QuotaDecision is the outcome of a quota check. Max carries the resolved
// ceiling (entitlement.Unlimited when the plan has none) so callers can
// explain a denial.
type QuotaDecision struct {
	Allowed bool `json:"allowed"`
	Max     int  `json:"max"`
}

// Service gates protected operations on the caller's subscription plan.
// Both checks are fail-closed: when the plan cannot be resolved within
// budget the answer is denial, never a guess.
type Service interface {
	CanUseFeature(ctx context.Context, userID snowflake.ID, feature entitlement.Feature) bool
	CheckQuota(ctx context.Context, userID snowflake.ID, quota entitlement.Quota) QuotaDecision
}

// PlanStore resolves a user's current plan. Implemented by the account
// repository; the result is read per check and never cached here, so a plan
// upgrade applied by the billing webhook takes effect on the next check.
type PlanStore interface {
	GetUserPlan(ctx context.Context, userID snowflake.ID) (entitlement.Plan, error)
}

// ResourceCounter counts a user's existing resources for a quota.
type ResourceCounter interface {
	CountResourcesByOwner(ctx context.Context, userID snowflake.ID, quota entitlement.Quota) (int64, error)
}
