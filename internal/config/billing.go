package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// BillingRunConfig is an immutable snapshot of the billing-run parameters.
// The batch entry point receives one snapshot per run; nothing reads the
// holder mid-run, so tariffs, timezone and timeouts stay consistent for the
// whole pass.
type BillingRunConfig struct {
	// Timezone the usage aggregation windows are interpreted in.
	Timezone string

	// RuleTimeout is the wall-clock budget for a single activation-rule
	// execution.
	RuleTimeout time.Duration

	// Workers bounds how many accounts are reconciled concurrently.
	Workers int

	// EnforcementEnabled turns on account locking for negative balances.
	EnforcementEnabled bool

	// CurrencySymbol is prepended to amounts in alert emails.
	CurrencySymbol string
}

// Location resolves the configured timezone, falling back to UTC.
func (c BillingRunConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func DefaultBillingRunConfig() BillingRunConfig {
	return BillingRunConfig{
		Timezone:           "UTC",
		RuleTimeout:        2 * time.Second,
		Workers:            4,
		EnforcementEnabled: false,
		CurrencySymbol:     "$",
	}
}

// BillingConfigHolder serves the current BillingRunConfig. The file is hot
// reloaded, but callers only ever see full snapshots.
type BillingConfigHolder struct {
	current atomic.Value // holds BillingRunConfig
}

func NewBillingConfigHolder() (*BillingConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("billing")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/quotaledger/config")
	v.AddConfigPath("/etc/quotaledger")
	v.AddConfigPath(".")

	v.SetEnvPrefix("QUOTALEDGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultBillingRunConfig()
	v.SetDefault("billing.timezone", defaults.Timezone)
	v.SetDefault("billing.ruleTimeout", defaults.RuleTimeout)
	v.SetDefault("billing.workers", defaults.Workers)
	v.SetDefault("billing.enforcementEnabled", defaults.EnforcementEnabled)
	v.SetDefault("billing.currencySymbol", defaults.CurrencySymbol)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	cfg, err := unmarshalBillingRunConfig(v)
	if err != nil {
		return nil, err
	}

	holder := &BillingConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := unmarshalBillingRunConfig(v)
		if err != nil {
			log.Printf("[billing-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[billing-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

// NewStaticBillingConfigHolder wraps a fixed configuration without file
// watching, for callers that manage their own reload lifecycle.
func NewStaticBillingConfigHolder(cfg BillingRunConfig) *BillingConfigHolder {
	holder := &BillingConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

// Snapshot returns the current immutable run configuration.
func (h *BillingConfigHolder) Snapshot() BillingRunConfig {
	return h.current.Load().(BillingRunConfig)
}

func unmarshalBillingRunConfig(v *viper.Viper) (BillingRunConfig, error) {
	var cfg BillingRunConfig
	if err := v.UnmarshalKey("billing", &cfg); err != nil {
		return BillingRunConfig{}, err
	}
	if err := validateBillingRunConfig(cfg); err != nil {
		return BillingRunConfig{}, err
	}
	return cfg, nil
}

func validateBillingRunConfig(cfg BillingRunConfig) error {
	if cfg.RuleTimeout <= 0 {
		return errors.New("billing.ruleTimeout must be positive")
	}
	if cfg.Workers <= 0 {
		return errors.New("billing.workers must be positive")
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return errors.New("billing.timezone is not a valid IANA timezone")
	}
	return nil
}
