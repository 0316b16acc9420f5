package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 0.8, cfg.Classifier.SafeThreshold)
	assert.Equal(t, 0.5, cfg.Classifier.FlagThreshold)
	assert.Equal(t, 0.3, cfg.Classifier.RejectThreshold)
	assert.Equal(t, 10*time.Second, cfg.Classifier.Timeout)
	assert.Equal(t, 2, cfg.Review.Quorum)
	assert.Equal(t, 24*time.Hour, cfg.Health.Window)
	assert.Equal(t, 3, cfg.Health.FeedbackRefusals)
	assert.Equal(t, 0.001, cfg.Compensation.USDPerPoint)
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
db: /tmp/test.db
classifier:
  safe_threshold: 0.9
  timeout: 5s
  banned_patterns:
    - "secret phrase"
review:
  quorum: 3
health:
  window: 1h
compensation:
  rates:
    generation-use: 7
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/test.db", cfg.DB)
	assert.Equal(t, 0.9, cfg.Classifier.SafeThreshold)
	assert.Equal(t, 5*time.Second, cfg.Classifier.Timeout)
	assert.Equal(t, []string{"secret phrase"}, cfg.Classifier.BannedPatterns)
	assert.Equal(t, 3, cfg.Review.Quorum)
	assert.Equal(t, time.Hour, cfg.Health.Window)
	assert.Equal(t, 7, cfg.Compensation.Rates["generation-use"])

	// Untouched sections keep their defaults.
	assert.Equal(t, 0.5, cfg.Classifier.FlagThreshold)
	assert.Equal(t, 3, cfg.Health.FeedbackRefusals)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("classifier: [not a map"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidateThresholdOrdering(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Classifier.FlagThreshold = 0.9
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Classifier.RejectThreshold = -0.1
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Classifier.SafeThreshold = 1.2
	assert.Error(t, cfg.Validate())
}

func TestValidateTimeoutAndWindow(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Classifier.Timeout = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Health.Window = -time.Hour
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Review.Quorum = -1
	assert.Error(t, cfg.Validate())
}
