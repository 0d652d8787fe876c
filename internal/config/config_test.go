package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// chTempDir moves the test into an empty directory so that a stray
// config.yaml in the repo root cannot leak into the test.
func chTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chTempDir(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "match.db", cfg.Store.Path)
	assert.True(t, cfg.Dedupe.BusinessKeyTier)
	assert.InDelta(t, 0.90, cfg.Dedupe.SimilarityThreshold, 0.001)
	assert.Equal(t, 10000, cfg.Dedupe.BatchLimit)
	assert.Equal(t, 40, cfg.Matcher.MinScore)
	assert.Equal(t, 50, cfg.Matcher.Limit)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.InDelta(t, 20, cfg.Server.RatePerSecond, 0.001)
	assert.Equal(t, 40, cfg.Server.RateBurst)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadDefaultsFillRubric(t *testing.T) {
	chTempDir(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.InDelta(t, 150, cfg.Matcher.Rubric.RawCeiling, 0.001)
	assert.InDelta(t, 28, cfg.Matcher.Rubric.Weights.BizType.Max, 0.001)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chTempDir(t)

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/match
log:
  level: debug
  format: console
server:
  port: 9090
matcher:
  min_score: 55
dedupe:
  business_key_tier: false
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/match", cfg.Store.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 55, cfg.Matcher.MinScore)
	assert.False(t, cfg.Dedupe.BusinessKeyTier)
	// Defaults still apply for unset values
	assert.Equal(t, 50, cfg.Matcher.Limit)
	assert.InDelta(t, 0.90, cfg.Dedupe.SimilarityThreshold, 0.001)
}

func TestLoadRubricOverride(t *testing.T) {
	dir := chTempDir(t)

	yaml := `
matcher:
  rubric:
    raw_ceiling: 100
    weights:
      company_scale: {max: 20, partial: 10}
      revenue: {max: 10, partial: 5}
      employee: {max: 5, partial: 2}
      business_age: {max: 5, partial: 2}
      region: {max: 10, partial: 7}
      certification: {max: 5, partial: 0}
      biz_type: {max: 15, partial: 5}
      lifecycle: {max: 2, partial: 1}
      industry_content: {max: 15, partial: 5}
      deadline: {max: 10, partial: 4}
      financial: {max: 1, partial: 0}
      support_type: {max: 2, partial: 1}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.InDelta(t, 100, cfg.Matcher.Rubric.RawCeiling, 0.001)
	assert.InDelta(t, 15, cfg.Matcher.Rubric.Weights.BizType.Max, 0.001)
}

func TestLoadRejectsInvalidRubric(t *testing.T) {
	dir := chTempDir(t)

	// Declared ceiling does not match the sum of factor maxima.
	yaml := `
matcher:
  rubric:
    raw_ceiling: 999
    weights:
      company_scale: {max: 20, partial: 10}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chTempDir(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("MATCH_STORE_DRIVER", "postgres")
	t.Setenv("MATCH_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chTempDir(t)

	t.Setenv("MATCH_SERVER_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with enough populated to pass validation.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Store.Driver = "sqlite"
	cfg.Store.Path = "match.db"
	cfg.Dedupe.SimilarityThreshold = 0.90
	cfg.Server.Port = 8080
	return cfg
}

func TestValidatePostgresRequiresURL(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "postgres"

	err := cfg.Validate("match")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url")

	cfg.Store.DatabaseURL = "postgres://localhost/match"
	assert.NoError(t, cfg.Validate("match"))
}

func TestValidateSQLiteRequiresPath(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Path = ""

	err := cfg.Validate("match")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "store.path")
}

func TestValidateUnknownDriver(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "mysql"

	err := cfg.Validate("match")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver")
}

func TestValidateServePort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port")

	cfg.Server.Port = 9090
	assert.NoError(t, cfg.Validate("serve"))
}

func TestValidateDedupeThreshold(t *testing.T) {
	cfg := validDefaults()
	cfg.Dedupe.SimilarityThreshold = 1.5

	err := cfg.Validate("dedupe")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "similarity_threshold")
}
