package service

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	accessdomain "github.com/pagelift/pagelift/internal/access/domain"
	"github.com/pagelift/pagelift/internal/config"
	"github.com/pagelift/pagelift/internal/entitlement"
)

// Manual mocks

type mockPlanStore struct {
	plan        entitlement.Plan
	err         error
	sawDeadline bool
}

func (m *mockPlanStore) GetUserPlan(ctx context.Context, userID snowflake.ID) (entitlement.Plan, error) {
	_, m.sawDeadline = ctx.Deadline()
	if m.err != nil {
		return "", m.err
	}
	return m.plan, nil
}

type mockCounter struct {
	count       int64
	err         error
	sawDeadline bool
}

func (m *mockCounter) CountResourcesByOwner(ctx context.Context, userID snowflake.ID, quota entitlement.Quota) (int64, error) {
	_, m.sawDeadline = ctx.Deadline()
	if m.err != nil {
		return 0, m.err
	}
	return m.count, nil
}

func newTestService(plans accessdomain.PlanStore, counter accessdomain.ResourceCounter, governance *config.GovernanceConfigHolder) accessdomain.Service {
	return NewService(Params{
		Log:        zap.NewNop(),
		Table:      entitlement.Default(),
		Plans:      plans,
		Counter:    counter,
		Governance: governance,
	})
}

func TestCanUseFeaturePerPlan(t *testing.T) {
	userID := snowflake.ID(1001)

	cases := []struct {
		plan    entitlement.Plan
		feature entitlement.Feature
		want    bool
	}{
		{entitlement.PlanFree, entitlement.FeatureOwnerUpload, true},
		{entitlement.PlanFree, entitlement.FeatureLeadCapture, false},
		{entitlement.PlanBasic, entitlement.FeatureLeadCapture, true},
		{entitlement.PlanBasic, entitlement.FeatureRealTimeAnalytics, false},
		{entitlement.PlanPremium, entitlement.FeatureRealTimeAnalytics, true},
	}
	for _, tc := range cases {
		svc := newTestService(&mockPlanStore{plan: tc.plan}, &mockCounter{}, nil)
		got := svc.CanUseFeature(context.Background(), userID, tc.feature)
		assert.Equal(t, tc.want, got, "plan %s feature %s", tc.plan, tc.feature)
	}
}

func TestCanUseFeatureFailsClosed(t *testing.T) {
	userID := snowflake.ID(1001)

	svc := newTestService(&mockPlanStore{err: errors.New("store unavailable")}, &mockCounter{}, nil)
	assert.False(t, svc.CanUseFeature(context.Background(), userID, entitlement.FeatureOwnerUpload))

	svc = newTestService(&mockPlanStore{err: context.DeadlineExceeded}, &mockCounter{}, nil)
	assert.False(t, svc.CanUseFeature(context.Background(), userID, entitlement.FeatureOwnerUpload))

	// Unknown feature names always deny, even for the top plan.
	svc = newTestService(&mockPlanStore{plan: entitlement.PlanPremium}, &mockCounter{}, nil)
	assert.False(t, svc.CanUseFeature(context.Background(), userID, entitlement.Feature("timeTravel")))
}

func TestCanUseFeatureBoundsStoreRead(t *testing.T) {
	store := &mockPlanStore{plan: entitlement.PlanFree}
	svc := newTestService(store, &mockCounter{}, nil)

	svc.CanUseFeature(context.Background(), snowflake.ID(1), entitlement.FeatureOwnerUpload)
	assert.True(t, store.sawDeadline, "store read must carry a deadline")
}

func TestCheckQuotaBoundary(t *testing.T) {
	userID := snowflake.ID(2002)

	// basic: maxLandingPages = 5
	svc := newTestService(&mockPlanStore{plan: entitlement.PlanBasic}, &mockCounter{count: 4}, nil)
	d := svc.CheckQuota(context.Background(), userID, entitlement.QuotaLandingPages)
	assert.True(t, d.Allowed)
	assert.Equal(t, 5, d.Max)

	svc = newTestService(&mockPlanStore{plan: entitlement.PlanBasic}, &mockCounter{count: 5}, nil)
	d = svc.CheckQuota(context.Background(), userID, entitlement.QuotaLandingPages)
	assert.False(t, d.Allowed)
	assert.Equal(t, 5, d.Max)
}

func TestCheckQuotaUnlimited(t *testing.T) {
	counter := &mockCounter{count: 100000}
	svc := newTestService(&mockPlanStore{plan: entitlement.PlanPremium}, counter, nil)

	d := svc.CheckQuota(context.Background(), snowflake.ID(1), entitlement.QuotaLandingPages)
	assert.True(t, d.Allowed)
	assert.Equal(t, entitlement.Unlimited, d.Max)
	// No point counting when there is no ceiling.
	assert.False(t, counter.sawDeadline)
}

func TestCheckQuotaFailsClosed(t *testing.T) {
	userID := snowflake.ID(2002)

	svc := newTestService(&mockPlanStore{err: errors.New("store down")}, &mockCounter{}, nil)
	d := svc.CheckQuota(context.Background(), userID, entitlement.QuotaLandingPages)
	assert.False(t, d.Allowed)

	svc = newTestService(&mockPlanStore{plan: entitlement.PlanFree}, &mockCounter{err: context.DeadlineExceeded}, nil)
	d = svc.CheckQuota(context.Background(), userID, entitlement.QuotaLandingPages)
	assert.False(t, d.Allowed)
	assert.Equal(t, 1, d.Max)
}

func TestUpgradeTakesEffectImmediately(t *testing.T) {
	userID := snowflake.ID(3003)
	store := &mockPlanStore{plan: entitlement.PlanFree}
	counter := &mockCounter{count: 1}
	svc := newTestService(store, counter, nil)

	// free with one existing page: denied at max 1.
	d := svc.CheckQuota(context.Background(), userID, entitlement.QuotaLandingPages)
	assert.False(t, d.Allowed)
	assert.Equal(t, 1, d.Max)

	// The billing webhook flips the stored plan; the very next check sees
	// it because plans are re-read per check, never cached here.
	store.plan = entitlement.PlanBasic
	d = svc.CheckQuota(context.Background(), userID, entitlement.QuotaLandingPages)
	assert.True(t, d.Allowed)
	assert.Equal(t, 5, d.Max)
}

func TestGovernanceQuotaOverride(t *testing.T) {
	cfg := config.DefaultGovernanceConfig()
	cfg.Quotas = map[string]map[string]int{
		"free": {string(entitlement.QuotaLandingPages): 3},
	}
	holder := config.NewStaticGovernanceHolder(cfg)

	svc := newTestService(&mockPlanStore{plan: entitlement.PlanFree}, &mockCounter{count: 2}, holder)
	d := svc.CheckQuota(context.Background(), snowflake.ID(1), entitlement.QuotaLandingPages)
	assert.True(t, d.Allowed)
	assert.Equal(t, 3, d.Max)
}
