package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_Defaults(t *testing.T) {
	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 60, cfg.Server.UtterancesPerMinute)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.ClassifierModel)
	assert.Equal(t, "voicedesk_sessions.jsonl", cfg.Session.JournalPath)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoader_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte(`
server:
  addr: ":9090"
  utterances_per_minute: 10
llm:
  classifier_model: gpt-4o
log:
  level: debug
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := NewLoader().WithConfigPath(path).Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 10, cfg.Server.UtterancesPerMinute)
	assert.Equal(t, "gpt-4o", cfg.LLM.ClassifierModel)
	assert.Equal(t, "debug", cfg.Log.Level)
	// untouched fields keep defaults
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
}

func TestLoader_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  addr: \":9090\"\n"), 0o644))

	t.Setenv("VOICEDESK_SERVER_ADDR", ":7070")
	t.Setenv("VOICEDESK_SMTP_USER", "frontdesk@example.com")

	cfg, err := NewLoader().WithConfigPath(path).Load()
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, "frontdesk@example.com", cfg.SMTP.User)
}

func TestLoader_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := NewLoader().WithConfigPath("does-not-exist.yaml").Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoader_OpenAIKeyFallback(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-fallback")
	cfg, err := NewLoader().Load()
	require.NoError(t, err)
	assert.Equal(t, "sk-fallback", cfg.LLM.APIKey)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"empty addr", func(c *Config) { c.Server.Addr = "" }, "server.addr"},
		{"zero rate", func(c *Config) { c.Server.UtterancesPerMinute = 0 }, "utterances_per_minute"},
		{"bad level", func(c *Config) { c.Log.Level = "verbose" }, "log.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
