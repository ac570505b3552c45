package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultBillingRunConfig(t *testing.T) {
	cfg := DefaultBillingRunConfig()

	assert.NoError(t, validateBillingRunConfig(cfg))
	assert.Equal(t, time.UTC, cfg.Location())
	assert.Equal(t, 2*time.Second, cfg.RuleTimeout)
}

func TestValidateBillingRunConfig_Rejects(t *testing.T) {
	cfg := DefaultBillingRunConfig()
	cfg.RuleTimeout = 0
	assert.Error(t, validateBillingRunConfig(cfg))

	cfg = DefaultBillingRunConfig()
	cfg.Workers = -1
	assert.Error(t, validateBillingRunConfig(cfg))

	cfg = DefaultBillingRunConfig()
	cfg.Timezone = "Not/AZone"
	assert.Error(t, validateBillingRunConfig(cfg))
}

func TestLocation_FallsBackToUTC(t *testing.T) {
	cfg := BillingRunConfig{Timezone: "garbage"}
	assert.Equal(t, time.UTC, cfg.Location())
}
