package shelfscan

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config holds the provider credentials and switches consumed by the
// chains. A missing credential disables the corresponding provider.
type Config struct {
	// Primary vision/text provider (Gemini).
	GeminiAPIKey string `yaml:"gemini_api_key" env:"GEMINI_API_KEY"`
	GeminiModel  string `yaml:"gemini_model" env:"GEMINI_MODEL" envDefault:"gemini-2.0-flash"`

	// DisableVision force-disables the primary vision provider even when
	// its credential is present.
	DisableVision bool `yaml:"disable_vision" env:"SHELFSCAN_DISABLE_VISION"`

	// Secondary vision provider (Cloud Vision OCR + labels).
	VisionAPIKey string `yaml:"vision_api_key" env:"CLOUD_VISION_API_KEY"`

	// Secondary text provider (OpenAI-compatible endpoint).
	GroqAPIKey string `yaml:"groq_api_key" env:"GROQ_API_KEY"`
	GroqModel  string `yaml:"groq_model" env:"GROQ_MODEL" envDefault:"llama-3.3-70b-versatile"`

	// Quotas overrides the default per-key admission limits.
	Quotas []QuotaConfig `yaml:"quotas"`
}

// QuotaConfig overrides the admission limit for one provider key.
type QuotaConfig struct {
	Key    ProviderKey `yaml:"key"`
	Limit  int         `yaml:"limit"`
	Window Duration    `yaml:"window"`
}

// Duration wraps time.Duration with YAML string parsing ("24h", "90s").
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("shelfscan: parse duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// FromEnv loads configuration from environment variables.
func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("shelfscan: parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads and parses a YAML config file.
// Environment variables in the format ${VAR} are expanded before parsing.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("shelfscan: read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return Config{}, fmt.Errorf("shelfscan: parse config: %w", err)
	}

	if cfg.GeminiModel == "" {
		cfg.GeminiModel = "gemini-2.0-flash"
	}
	if cfg.GroqModel == "" {
		cfg.GroqModel = "llama-3.3-70b-versatile"
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks the config for consistency. An empty config is valid:
// every provider is then treated as unconfigured and the chains resolve
// from their terminal defaults.
func (c Config) Validate() error {
	seen := make(map[ProviderKey]bool, len(c.Quotas))
	for i, q := range c.Quotas {
		switch q.Key {
		case KeyPrimaryVision, KeySecondaryVision, KeyPrimaryText, KeySecondaryText:
		default:
			return fmt.Errorf("shelfscan: config: quotas[%d]: unknown key %q", i, q.Key)
		}
		if seen[q.Key] {
			return fmt.Errorf("shelfscan: config: duplicate quota key %q", q.Key)
		}
		seen[q.Key] = true

		if q.Limit < 0 {
			return fmt.Errorf("shelfscan: config: quotas[%d] (%s): limit must be >= 0", i, q.Key)
		}
		if q.Window.Std() < 0 {
			return fmt.Errorf("shelfscan: config: quotas[%d] (%s): window must be >= 0", i, q.Key)
		}
	}
	return nil
}

// QuotaLimits merges the configured overrides over DefaultQuotas.
func (c Config) QuotaLimits() map[ProviderKey]QuotaLimit {
	limits := DefaultQuotas()
	for _, q := range c.Quotas {
		limits[q.Key] = QuotaLimit{Limit: q.Limit, Window: q.Window.Std()}
	}
	return limits
}
