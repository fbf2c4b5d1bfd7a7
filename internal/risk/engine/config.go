package engine

import (
	"time"

	"custodia/internal/risk/safeguard"
	"custodia/internal/risk/similarity"
)

// Config is the explicit behavior switchboard of the facade. There are no
// global toggles; everything the facade varies on is here.
type Config struct {
	// DuplicateCheckEnabled runs the duplicate scan against tenant records.
	DuplicateCheckEnabled bool `yaml:"duplicate_check_enabled"`
	// StopScanOnBlock ends the duplicate scan at the first BLOCK finding.
	StopScanOnBlock bool `yaml:"stop_scan_on_block"`
	// ReuseEnabled lets remediation link approved EIPDs instead of drafting.
	ReuseEnabled bool `yaml:"reuse_enabled"`
	// ReuseThreshold is the relevance an approved EIPD must exceed.
	ReuseThreshold float64 `yaml:"reuse_threshold"`
	// SafeguardTimeout bounds all certification lookups of one evaluation.
	SafeguardTimeout time.Duration `yaml:"safeguard_timeout"`
}

func DefaultConfig() Config {
	return Config{
		DuplicateCheckEnabled: true,
		StopScanOnBlock:       true,
		ReuseEnabled:          true,
		ReuseThreshold:        similarity.DefaultReuseThreshold,
		SafeguardTimeout:      safeguard.DefaultTimeout,
	}
}

// EffectiveReuseThreshold returns the threshold for remediation.WithReuseThreshold,
// negative when reuse is disabled.
func (c Config) EffectiveReuseThreshold() float64 {
	if !c.ReuseEnabled {
		return -1
	}
	return c.ReuseThreshold
}
