package shelfscan_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shelfscan/shelfscan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("CLOUD_VISION_API_KEY", "v-key")
	t.Setenv("GROQ_API_KEY", "q-key")
	t.Setenv("SHELFSCAN_DISABLE_VISION", "true")
	t.Setenv("GROQ_MODEL", "mixtral-8x7b")

	cfg, err := shelfscan.FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "g-key", cfg.GeminiAPIKey)
	assert.Equal(t, "v-key", cfg.VisionAPIKey)
	assert.Equal(t, "q-key", cfg.GroqAPIKey)
	assert.True(t, cfg.DisableVision)
	assert.Equal(t, "mixtral-8x7b", cfg.GroqModel)
	assert.Equal(t, "gemini-2.0-flash", cfg.GeminiModel, "default applied")
}

func TestFromEnv_EmptyEnvironmentIsValid(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("CLOUD_VISION_API_KEY", "")
	t.Setenv("GROQ_API_KEY", "")
	t.Setenv("SHELFSCAN_DISABLE_VISION", "")

	cfg, err := shelfscan.FromEnv()
	require.NoError(t, err)
	assert.Empty(t, cfg.GeminiAPIKey)
	assert.False(t, cfg.DisableVision)
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("TEST_GEMINI_KEY", "expanded-key")

	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
gemini_api_key: ${TEST_GEMINI_KEY}
disable_vision: true
groq_api_key: q-key
quotas:
  - key: primary-vision
    limit: 10
    window: 1h
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := shelfscan.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "expanded-key", cfg.GeminiAPIKey)
	assert.True(t, cfg.DisableVision)
	assert.Equal(t, "gemini-2.0-flash", cfg.GeminiModel)

	limits := cfg.QuotaLimits()
	assert.Equal(t, shelfscan.QuotaLimit{Limit: 10, Window: time.Hour}, limits[shelfscan.KeyPrimaryVision])
	// Untouched keys keep their defaults.
	assert.Equal(t, shelfscan.DefaultQuotas()[shelfscan.KeyPrimaryText], limits[shelfscan.KeyPrimaryText])
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := shelfscan.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	t.Run("unknown quota key", func(t *testing.T) {
		cfg := shelfscan.Config{Quotas: []shelfscan.QuotaConfig{{Key: "nope", Limit: 1}}}
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "unknown key")
	})

	t.Run("duplicate quota key", func(t *testing.T) {
		cfg := shelfscan.Config{Quotas: []shelfscan.QuotaConfig{
			{Key: shelfscan.KeyPrimaryText, Limit: 1},
			{Key: shelfscan.KeyPrimaryText, Limit: 2},
		}}
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate")
	})

	t.Run("negative limit", func(t *testing.T) {
		cfg := shelfscan.Config{Quotas: []shelfscan.QuotaConfig{
			{Key: shelfscan.KeyPrimaryText, Limit: -1},
		}}
		assert.Error(t, cfg.Validate())
	})

	t.Run("empty config valid", func(t *testing.T) {
		assert.NoError(t, shelfscan.Config{}.Validate())
	})
}
