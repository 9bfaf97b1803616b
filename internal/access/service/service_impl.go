package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"

	accessdomain "github.com/pagelift/pagelift/internal/access/domain"
	"github.com/pagelift/pagelift/internal/config"
	"github.com/pagelift/pagelift/internal/entitlement"
)

// checkTimeout bounds every store read made on a gating path. A check that
// cannot confirm entitlement within budget resolves to denial.
const checkTimeout = 2 * time.Second

type Params struct {
	fx.In

	Log        *zap.Logger
	Table      *entitlement.Table
	Plans      accessdomain.PlanStore
	Counter    accessdomain.ResourceCounter
	Governance *config.GovernanceConfigHolder
}

type Service struct {
	log        *zap.Logger
	table      *entitlement.Table
	plans      accessdomain.PlanStore
	counter    accessdomain.ResourceCounter
	governance *config.GovernanceConfigHolder
}

func NewService(p Params) accessdomain.Service {
	return &Service{
		log:        p.Log.Named("access.service"),
		table:      p.Table,
		plans:      p.Plans,
		counter:    p.Counter,
		governance: p.Governance,
	}
}

func (s *Service) CanUseFeature(ctx context.Context, userID snowflake.ID, feature entitlement.Feature) bool {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	plan, err := s.plans.GetUserPlan(ctx, userID)
	if err != nil {
		s.log.Warn("feature check failed closed",
			zap.String("user_id", userID.String()),
			zap.String("feature", string(feature)),
			zap.Error(err),
		)
		return false
	}
	return s.table.HasFeature(plan, feature)
}

// CheckQuota is advisory, not transactional: two concurrent creates that
// both pass can together exceed the ceiling by the number of in-flight
// requests. A soft limit does not warrant a distributed transaction.
func (s *Service) CheckQuota(ctx context.Context, userID snowflake.ID, quota entitlement.Quota) accessdomain.QuotaDecision {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	plan, err := s.plans.GetUserPlan(ctx, userID)
	if err != nil {
		s.log.Warn("quota check failed closed",
			zap.String("user_id", userID.String()),
			zap.String("quota", string(quota)),
			zap.Error(err),
		)
		return accessdomain.QuotaDecision{Allowed: false, Max: 0}
	}

	max := s.quotaLimit(plan, quota)
	if max == entitlement.Unlimited {
		return accessdomain.QuotaDecision{Allowed: true, Max: entitlement.Unlimited}
	}

	count, err := s.counter.CountResourcesByOwner(ctx, userID, quota)
	if err != nil {
		s.log.Warn("quota count failed closed",
			zap.String("user_id", userID.String()),
			zap.String("quota", string(quota)),
			zap.Error(err),
		)
		return accessdomain.QuotaDecision{Allowed: false, Max: max}
	}

	return accessdomain.QuotaDecision{
		Allowed: count < int64(max),
		Max:     max,
	}
}

// quotaLimit applies any operator override from governance.yml on top of the
// shipped table.
func (s *Service) quotaLimit(plan entitlement.Plan, quota entitlement.Quota) int {
	if s.governance != nil {
		overrides := s.governance.Current().Quotas
		if byQuota, ok := overrides[string(plan)]; ok {
			if limit, ok := byQuota[string(quota)]; ok {
				return limit
			}
		}
	}
	return s.table.QuotaLimit(plan, quota)
}
