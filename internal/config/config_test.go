package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(cwd) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, 250_000, cfg.Store.ContentCapChars)
	assert.Equal(t, 240_000, cfg.Analysis.ReduceTriggerChars)
	assert.Equal(t, 250_000, cfg.Analysis.PromptCeilingChars)
	assert.Equal(t, 3000, cfg.Analysis.CompleteChars)
	assert.Equal(t, 2, cfg.Analysis.ChainSettleSecs)
	assert.Equal(t, 30, cfg.Fetch.DirectTimeoutSecs)
	assert.Equal(t, 3000, cfg.Firecrawl.SettleMillis)
	assert.Equal(t, 10000, cfg.Firecrawl.RetrySettleMillis)
	assert.Equal(t, "local", cfg.DocExtract.Provider)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	yaml := `
store:
  driver: sqlite
  database_url: file:vetting.db
analysis:
  complete_chars: 5000
fetch:
  min_usable_chars: 500
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(cwd) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "file:vetting.db", cfg.Store.DatabaseURL)
	assert.Equal(t, 5000, cfg.Analysis.CompleteChars)
	assert.Equal(t, 500, cfg.Fetch.MinUsableChars)
	// Untouched defaults survive.
	assert.Equal(t, 240_000, cfg.Analysis.ReduceTriggerChars)
}

func TestInitLogger_BadLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "shout", Format: "json"})
	assert.Error(t, err)
}

func TestInitLogger_Console(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	assert.NoError(t, err)
}
