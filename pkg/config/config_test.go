package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate runs the test from an empty directory with an empty home, so no
// stray config.yaml or .env is picked up.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Chdir(dir)
	return dir
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "https://data.sec.gov", cfg.Edgar.BaseURL)
	assert.Equal(t, "https://www.sec.gov", cfg.Edgar.WWWURL)
	assert.Equal(t, 10, cfg.Edgar.RateLimit)
	assert.Equal(t, 30*time.Second, cfg.Edgar.Timeout)
	assert.Equal(t, 4, cfg.History.Concurrency)
	assert.Equal(t, "edgar.db", cfg.DB.Path)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Contains(t, cfg.Bulk.SubmissionsURL, "submissions.zip")
	assert.Contains(t, cfg.Bulk.CompanyFactsURL, "companyfacts.zip")

	assert.ErrorIs(t, cfg.Validate(), ErrMissingUserAgent)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := isolate(t)
	yaml := `
edgar:
  user_agent: "File Agent file@example.com"
  rate_limit: 5
  timeout: 45s
history:
  concurrency: 2
server:
  port: 9090
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))
	t.Setenv("EDGAR_SERVER_PORT", "7070")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "File Agent file@example.com", cfg.Edgar.UserAgent)
	assert.Equal(t, 5, cfg.Edgar.RateLimit)
	assert.Equal(t, 45*time.Second, cfg.Edgar.Timeout)
	assert.Equal(t, 2, cfg.History.Concurrency)
	assert.Equal(t, 7070, cfg.Server.Port, "environment wins over the file")
	assert.NoError(t, cfg.Validate())
}

func TestLoadDotEnv(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("EDGAR_EDGAR_USER_AGENT=\"Env Agent env@example.com\"\n"), 0o644))
	// godotenv sets process variables; make sure the test leaves none behind.
	t.Setenv("EDGAR_EDGAR_USER_AGENT", "")
	os.Unsetenv("EDGAR_EDGAR_USER_AGENT")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "Env Agent env@example.com", cfg.Edgar.UserAgent)
}

func TestLoadExplicitPathMustExist(t *testing.T) {
	dir := isolate(t)
	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		Edgar:   EdgarConfig{UserAgent: "a b@example.com", RateLimit: 10},
		History: HistoryConfig{Concurrency: 4},
	}
	assert.NoError(t, cfg.Validate())

	cfg.Edgar.RateLimit = 0
	assert.Error(t, cfg.Validate())

	cfg.Edgar.RateLimit = 10
	cfg.History.Concurrency = 0
	assert.Error(t, cfg.Validate())
}
