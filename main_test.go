package main

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withSettings(t *testing.T, s Settings) {
	t.Helper()
	settingsMutex.Lock()
	old := settings
	settings = s
	settingsMutex.Unlock()
	t.Cleanup(func() {
		settingsMutex.Lock()
		settings = old
		settingsMutex.Unlock()
	})
}

func TestResolveModelName(t *testing.T) {
	oldModel := llmModel
	t.Cleanup(func() { llmModel = oldModel })

	withSettings(t, Settings{})
	llmModel = ""
	assert.Equal(t, "gemini-2.0-flash", resolveModelName())

	llmModel = "gemini-2.5-flash"
	assert.Equal(t, "gemini-2.5-flash", resolveModelName())

	withSettings(t, Settings{Model: "gemini-2.5-pro"})
	assert.Equal(t, "gemini-2.5-pro", resolveModelName(), "runtime setting wins over LLM_MODEL")
}

func TestGetReportLanguage(t *testing.T) {
	withSettings(t, Settings{})
	assert.Equal(t, "English", getReportLanguage())

	withSettings(t, Settings{ReportLanguage: "korean"})
	assert.Equal(t, "Korean", getReportLanguage())

	withSettings(t, Settings{ReportLanguage: "GERMAN"})
	assert.Equal(t, "German", getReportLanguage())
}

func TestLoadEnvDefaults(t *testing.T) {
	t.Chdir(t.TempDir()) // keep any local .env out of the test

	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("LLM_MODEL", "")
	t.Setenv("LISTEN_ADDR", "")
	t.Setenv("HISTORY_RETENTION_DAYS", "")
	t.Setenv("ANALYZER_CACHE_DIR", "")
	t.Setenv("GEMINI_API_KEY", "test-key")

	loadEnv()

	assert.Equal(t, "googleai", llmProvider)
	assert.Equal(t, ":8080", listenAddr)
	assert.Equal(t, 0, retentionDays)
	assert.Equal(t, "test-key", geminiAPIKey)
}

func TestLoadEnvAppliesTokenLimitFromDotEnv(t *testing.T) {
	t.Chdir(t.TempDir())

	// Snapshot the var for cleanup, then clear it so only .env supplies it
	t.Setenv("TOKEN_LIMIT", "")
	require.NoError(t, os.Unsetenv("TOKEN_LIMIT"))
	t.Setenv("GEMINI_API_KEY", "test-key")

	oldLimit := tokenLimit
	t.Cleanup(func() { tokenLimit = oldLimit })

	require.NoError(t, os.WriteFile(".env", []byte("TOKEN_LIMIT=50\n"), 0644))

	loadEnv()

	assert.Equal(t, "50", os.Getenv("TOKEN_LIMIT"))
	assert.Equal(t, 50, tokenLimit)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())

	t.Setenv("LLM_PROVIDER", "OpenAI")
	t.Setenv("LISTEN_ADDR", ":9090")
	t.Setenv("HISTORY_RETENTION_DAYS", "14")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")

	loadEnv()

	assert.Equal(t, "openai", llmProvider, "provider is lowercased")
	assert.Equal(t, ":9090", listenAddr)
	assert.Equal(t, 14, retentionDays)
	assert.Empty(t, geminiAPIKey)
}
