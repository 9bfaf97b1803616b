package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// RateProfile is a fixed-window budget for one operation class.
type RateProfile struct {
	WindowMillis int `mapstructure:"windowMs"`
	MaxRequests  int `mapstructure:"maxRequests"`
}

func (p RateProfile) Window() time.Duration {
	return time.Duration(p.WindowMillis) * time.Millisecond
}

// GovernanceConfig is the operator-tunable policy surface: per-class rate
// budgets, per-resource cache TTLs and per-plan quota ceiling overrides.
type GovernanceConfig struct {
	RateProfiles map[string]RateProfile    `mapstructure:"rateProfiles"`
	CacheTTLMs   map[string]int            `mapstructure:"cacheTtlMs"`
	Quotas       map[string]map[string]int `mapstructure:"quotas"`
}

// Operation classes with a default rate budget.
const (
	RateClassMutation   = "mutation"
	RateClassRead       = "read"
	RateClassPublicRead = "public_read"
	RateClassLead       = "lead_capture"
	RateClassWebhook    = "webhook"
)

// Cached resources with a default TTL.
const (
	CacheResourcePublicPage   = "public_page"
	CacheResourceBusiness     = "business"
	CacheResourceBusinessList = "business_list"
)

func DefaultGovernanceConfig() GovernanceConfig {
	return GovernanceConfig{
		RateProfiles: map[string]RateProfile{
			RateClassMutation:   {WindowMillis: 60_000, MaxRequests: 30},
			RateClassRead:       {WindowMillis: 60_000, MaxRequests: 120},
			RateClassPublicRead: {WindowMillis: 60_000, MaxRequests: 300},
			RateClassLead:       {WindowMillis: 60_000, MaxRequests: 10},
			RateClassWebhook:    {WindowMillis: 60_000, MaxRequests: 60},
		},
		CacheTTLMs: map[string]int{
			CacheResourcePublicPage:   60_000,
			CacheResourceBusiness:     30_000,
			CacheResourceBusinessList: 30_000,
		},
		Quotas: map[string]map[string]int{},
	}
}

// RateProfileFor falls back to the mutation budget for unknown classes so an
// unconfigured endpoint never runs unmetered.
func (c GovernanceConfig) RateProfileFor(class string) RateProfile {
	if p, ok := c.RateProfiles[class]; ok {
		return p
	}
	return c.RateProfiles[RateClassMutation]
}

func (c GovernanceConfig) CacheTTLFor(resource string) time.Duration {
	if ms, ok := c.CacheTTLMs[resource]; ok {
		return time.Duration(ms) * time.Millisecond
	}
	return 30 * time.Second
}

// GovernanceConfigHolder hot-reloads governance.yml and atomically swaps the
// active policy. Invalid reloads are logged and ignored.
type GovernanceConfigHolder struct {
	current atomic.Value // holds GovernanceConfig
}

func NewGovernanceConfigHolder() (*GovernanceConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("governance")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/pagelift/config")
	v.AddConfigPath("/etc/pagelift")
	v.AddConfigPath(".")

	v.SetEnvPrefix("PAGELIFT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	cfg, err := unmarshalGovernance(v)
	if err != nil {
		return nil, err
	}

	holder := &GovernanceConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := unmarshalGovernance(v)
		if err != nil {
			log.Printf("[governance-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[governance-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

// NewStaticGovernanceHolder wraps a fixed config, bypassing file watching.
// Used by tests and embedded tooling.
func NewStaticGovernanceHolder(cfg GovernanceConfig) *GovernanceConfigHolder {
	holder := &GovernanceConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func (h *GovernanceConfigHolder) Current() GovernanceConfig {
	return h.current.Load().(GovernanceConfig)
}

func unmarshalGovernance(v *viper.Viper) (GovernanceConfig, error) {
	cfg := DefaultGovernanceConfig()

	var overlay GovernanceConfig
	if err := v.UnmarshalKey("governance", &overlay); err != nil {
		return GovernanceConfig{}, err
	}
	for class, profile := range overlay.RateProfiles {
		cfg.RateProfiles[class] = profile
	}
	for resource, ttl := range overlay.CacheTTLMs {
		cfg.CacheTTLMs[resource] = ttl
	}
	for plan, quotas := range overlay.Quotas {
		cfg.Quotas[plan] = quotas
	}

	if err := validateGovernanceConfig(cfg); err != nil {
		return GovernanceConfig{}, err
	}
	return cfg, nil
}

func validateGovernanceConfig(cfg GovernanceConfig) error {
	for class, profile := range cfg.RateProfiles {
		if profile.WindowMillis <= 0 {
			return fmt.Errorf("rate profile %q: windowMs must be positive", class)
		}
		if profile.MaxRequests <= 0 {
			return fmt.Errorf("rate profile %q: maxRequests must be positive", class)
		}
	}
	for resource, ttl := range cfg.CacheTTLMs {
		if ttl <= 0 {
			return fmt.Errorf("cache ttl %q must be positive", resource)
		}
	}
	if _, ok := cfg.RateProfiles[RateClassMutation]; !ok {
		return errors.New("rate profile for mutation class is required")
	}
	return nil
}
