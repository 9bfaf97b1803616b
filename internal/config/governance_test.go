package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultGovernanceConfigIsValid(t *testing.T) {
	require.NoError(t, validateGovernanceConfig(DefaultGovernanceConfig()))
}

func TestRateProfileForUnknownClassFallsBackToMutation(t *testing.T) {
	cfg := DefaultGovernanceConfig()

	got := cfg.RateProfileFor("no_such_class")
	assert.Equal(t, cfg.RateProfiles[RateClassMutation], got)
}

func TestCacheTTLForUnknownResourceUsesDefault(t *testing.T) {
	cfg := DefaultGovernanceConfig()

	assert.Equal(t, 30*time.Second, cfg.CacheTTLFor("no_such_resource"))
	assert.Equal(t, time.Minute, cfg.CacheTTLFor(CacheResourcePublicPage))
}

func TestValidateRejectsNonPositiveWindow(t *testing.T) {
	cfg := DefaultGovernanceConfig()
	cfg.RateProfiles[RateClassRead] = RateProfile{WindowMillis: 0, MaxRequests: 10}

	assert.Error(t, validateGovernanceConfig(cfg))
}

func TestValidateRejectsNonPositiveMaxRequests(t *testing.T) {
	cfg := DefaultGovernanceConfig()
	cfg.RateProfiles[RateClassLead] = RateProfile{WindowMillis: 60_000, MaxRequests: 0}

	assert.Error(t, validateGovernanceConfig(cfg))
}

func TestValidateRequiresMutationProfile(t *testing.T) {
	cfg := DefaultGovernanceConfig()
	delete(cfg.RateProfiles, RateClassMutation)

	assert.Error(t, validateGovernanceConfig(cfg))
}

func TestStaticHolderServesFixedConfig(t *testing.T) {
	cfg := DefaultGovernanceConfig()
	cfg.Quotas = map[string]map[string]int{"free": {"maxLandingPages": 3}}

	holder := NewStaticGovernanceHolder(cfg)
	assert.Equal(t, 3, holder.Current().Quotas["free"]["maxLandingPages"])
}
