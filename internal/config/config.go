// Package config provides configuration loading for the curation
// pipeline.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete pipeline configuration.
type Config struct {
	DB           string             `yaml:"db"`
	Classifier   ClassifierConfig   `yaml:"classifier"`
	Review       ReviewConfig       `yaml:"review"`
	Health       HealthConfig       `yaml:"health"`
	Compensation CompensationConfig `yaml:"compensation"`
}

// ClassifierConfig holds quarantine thresholds and the capability
// deadline.
type ClassifierConfig struct {
	// SafeThreshold admits scores at or above it.
	SafeThreshold float64 `yaml:"safe_threshold"`
	// FlagThreshold: scores below it (but at or above reject) flag.
	FlagThreshold float64 `yaml:"flag_threshold"`
	// RejectThreshold: scores below it reject outright.
	RejectThreshold float64 `yaml:"reject_threshold"`
	// Timeout bounds one external scoring call. On timeout the memory
	// stays pending for a later sweep, never defaults to safe.
	Timeout time.Duration `yaml:"timeout"`
	// BannedPatterns override the reference scorer's pattern list.
	BannedPatterns []string `yaml:"banned_patterns"`
}

// ReviewConfig holds the advisory voting policy. Resolution is always
// an explicit call; quorum only marks requests as ready.
type ReviewConfig struct {
	Quorum int `yaml:"quorum"`
}

// HealthConfig holds mood bands and the feedback deactivation
// threshold.
type HealthConfig struct {
	ConfusedHallucinationRate float64       `yaml:"confused_hallucination_rate"`
	StressedRefusalRate       float64       `yaml:"stressed_refusal_rate"`
	DegradedCoherence         float64       `yaml:"degraded_coherence"`
	FeedbackRefusals          int           `yaml:"feedback_refusals"`
	Window                    time.Duration `yaml:"window"`
}

// CompensationConfig holds the value scoring table.
type CompensationConfig struct {
	Rates       map[string]int `yaml:"rates"`
	USDPerPoint float64        `yaml:"usd_per_point"`
}

// DefaultConfig returns a Config with standard defaults.
func DefaultConfig() *Config {
	return &Config{
		Classifier: ClassifierConfig{
			SafeThreshold:   0.8,
			FlagThreshold:   0.5,
			RejectThreshold: 0.3,
			Timeout:         10 * time.Second,
		},
		Review: ReviewConfig{
			Quorum: 2,
		},
		Health: HealthConfig{
			ConfusedHallucinationRate: 0.3,
			StressedRefusalRate:       0.5,
			DegradedCoherence:         0.4,
			FeedbackRefusals:          3,
			Window:                    24 * time.Hour,
		},
		Compensation: CompensationConfig{
			USDPerPoint: 0.001,
		},
	}
}

// Load reads a YAML config. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks threshold ordering and bounds.
func (c *Config) Validate() error {
	cl := c.Classifier
	if cl.RejectThreshold < 0 || cl.SafeThreshold > 1 {
		return fmt.Errorf("classifier thresholds must lie in [0, 1]")
	}
	if !(cl.RejectThreshold < cl.FlagThreshold && cl.FlagThreshold < cl.SafeThreshold) {
		return fmt.Errorf("classifier thresholds must satisfy reject < flag < safe, got %v / %v / %v",
			cl.RejectThreshold, cl.FlagThreshold, cl.SafeThreshold)
	}
	if cl.Timeout <= 0 {
		return fmt.Errorf("classifier.timeout must be positive")
	}
	if c.Review.Quorum < 0 {
		return fmt.Errorf("review.quorum must not be negative")
	}
	if c.Health.Window <= 0 {
		return fmt.Errorf("health.window must be positive")
	}
	return nil
}
