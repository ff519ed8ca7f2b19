package common

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, key := range []string{
		"RECEIPTS_DB_PATH", "OPENAI_MODEL", "OPENAI_API_KEY",
		"OPENAI_BASE_URL", "OPENAI_TEMPERATURE", "OPENAI_TIMEOUT",
		"SCAN_MAX_ATTEMPTS",
	} {
		t.Setenv(key, "")
	}

	cfg := LoadConfig()
	assert.Equal(t, "receipts.db", cfg.Database.Path)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, "https://api.openai.com/v1", cfg.LLM.BaseURL)
	assert.Equal(t, float32(0), cfg.LLM.Temperature)
	assert.Equal(t, 45*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 3, cfg.Scan.MaxAttempts)
}

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("RECEIPTS_DB_PATH", "/tmp/r.db")
	t.Setenv("OPENAI_MODEL", "gpt-4o")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_TEMPERATURE", "0.2")
	t.Setenv("OPENAI_TIMEOUT", "90s")
	t.Setenv("SCAN_MAX_ATTEMPTS", "5")

	cfg := LoadConfig()
	assert.Equal(t, "/tmp/r.db", cfg.Database.Path)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.Equal(t, float32(0.2), cfg.LLM.Temperature)
	assert.Equal(t, 90*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 5, cfg.Scan.MaxAttempts)
}

func TestLoadConfig_MalformedValuesFallBack(t *testing.T) {
	t.Setenv("OPENAI_TEMPERATURE", "warm")
	t.Setenv("OPENAI_TIMEOUT", "soon")
	t.Setenv("SCAN_MAX_ATTEMPTS", "many")

	cfg := LoadConfig()
	assert.Equal(t, float32(0), cfg.LLM.Temperature)
	assert.Equal(t, 45*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 3, cfg.Scan.MaxAttempts)
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	valid := func() *Config {
		return &Config{
			Database: DatabaseConfig{Path: "receipts.db"},
			LLM:      LLMConfig{APIKey: "sk-test"},
			Scan:     ScanConfig{MaxAttempts: 3},
		}
	}

	assert.NoError(t, valid().Validate())

	t.Run("missing api key", func(t *testing.T) {
		t.Parallel()
		cfg := valid()
		cfg.LLM.APIKey = ""
		err := cfg.Validate()
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidInput))
		assert.Contains(t, err.Error(), "OPENAI_API_KEY")
	})

	t.Run("missing db path", func(t *testing.T) {
		t.Parallel()
		cfg := valid()
		cfg.Database.Path = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("zero attempts", func(t *testing.T) {
		t.Parallel()
		cfg := valid()
		cfg.Scan.MaxAttempts = 0
		assert.Error(t, cfg.Validate())
	})
}
