// Package config loads audiotrainer settings from defaults, an optional
// YAML file and AUDIOTRAINER_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/abhisek/audiotrainer/internal/audiometry"
	"github.com/abhisek/audiotrainer/internal/llm"
	"github.com/abhisek/audiotrainer/internal/logging"
	"github.com/abhisek/audiotrainer/internal/response"
)

// EnvPrefix prefixes every environment override, e.g.
// AUDIOTRAINER_ENGINE_IA_AC.
const EnvPrefix = "AUDIOTRAINER"

// Config is the top-level configuration.
type Config struct {
	Engine  EngineConfig   `mapstructure:"engine"`
	Store   StoreConfig    `mapstructure:"store"`
	Logging logging.Config `mapstructure:"logging"`
	Server  ServerConfig   `mapstructure:"server"`
	LLM     LLMConfig      `mapstructure:"llm"`
}

// EngineConfig holds the response engine settings.
type EngineConfig struct {
	IAAC                 int          `mapstructure:"ia_ac"`
	IABC                 int          `mapstructure:"ia_bc"`
	IAOverrides          []IAOverride `mapstructure:"ia_overrides"`
	MaxMaskOffset        int          `mapstructure:"max_mask_offset"`
	SuppressOverMasking  bool         `mapstructure:"suppress_over_masking"`
	SuppressCrossHearing bool         `mapstructure:"suppress_cross_hearing"`
}

// IAOverride replaces the interaural attenuation at one frequency.
type IAOverride struct {
	Transducer string `mapstructure:"transducer"`
	Freq       int    `mapstructure:"freq"`
	DB         int    `mapstructure:"db"`
}

// StoreConfig locates the SQLite database. An empty path resolves to the
// XDG data directory.
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// ServerConfig holds HTTP host settings.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LLMConfig selects the narrative provider.
type LLMConfig struct {
	Provider   string         `mapstructure:"provider"`
	Timeout    time.Duration  `mapstructure:"timeout"`
	Anthropic  ProviderConfig `mapstructure:"anthropic"`
	OpenAI     ProviderConfig `mapstructure:"openai"`
	Gemini     ProviderConfig `mapstructure:"gemini"`
	OpenRouter ProviderConfig `mapstructure:"openrouter"`
}

// ProviderConfig is one provider's credentials.
type ProviderConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

func setDefaults(v *viper.Viper) {
	att := audiometry.DefaultAttenuation()
	v.SetDefault("engine.ia_ac", att.AC)
	v.SetDefault("engine.ia_bc", att.BC)
	v.SetDefault("engine.ia_overrides", []IAOverride{})
	v.SetDefault("engine.max_mask_offset", response.DefaultMaxMaskOffset)
	v.SetDefault("engine.suppress_over_masking", false)
	v.SetDefault("engine.suppress_cross_hearing", false)

	v.SetDefault("store.path", "")

	lc := logging.DefaultConfig()
	v.SetDefault("logging.level", lc.Level)
	v.SetDefault("logging.file", lc.File)
	v.SetDefault("logging.max_size_mb", lc.MaxSizeMB)
	v.SetDefault("logging.max_backups", lc.MaxBackups)
	v.SetDefault("logging.max_age_days", lc.MaxAgeDays)
	v.SetDefault("logging.compress", lc.Compress)

	v.SetDefault("server.addr", "127.0.0.1:8088")
	v.SetDefault("server.shutdown_timeout", 5*time.Second)

	// Empty values keep llm.ConfigFromEnv and DiscoverConfig in charge;
	// the keys must exist for AutomaticEnv to reach them on Unmarshal.
	v.SetDefault("llm.provider", "")
	v.SetDefault("llm.timeout", time.Duration(0))
	for _, p := range []string{"anthropic", "openai", "gemini", "openrouter"} {
		v.SetDefault("llm."+p+".api_key", "")
		v.SetDefault("llm."+p+".model", "")
		v.SetDefault("llm."+p+".base_url", "")
	}
}

// Load reads configuration. With an explicit path the file must exist;
// otherwise audiotrainer.yaml is looked up in the working directory and
// the XDG config directory and may be absent.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("audiotrainer")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := configDir(); err == nil {
			v.AddConfigPath(dir)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// Response builds the engine configuration.
func (e EngineConfig) Response() (response.Config, error) {
	cfg := response.DefaultConfig()
	cfg.Attenuation.AC = e.IAAC
	cfg.Attenuation.BC = e.IABC
	if e.MaxMaskOffset > 0 {
		cfg.MaxMaskOffset = e.MaxMaskOffset
	}
	cfg.SuppressOverMasking = e.SuppressOverMasking
	cfg.SuppressCrossHearing = e.SuppressCrossHearing

	for _, o := range e.IAOverrides {
		t, err := audiometry.ParseTransducer(o.Transducer)
		if err != nil {
			return response.Config{}, fmt.Errorf("ia override: %w", err)
		}
		if !audiometry.IsFrequency(o.Freq) {
			return response.Config{}, fmt.Errorf("ia override: unsupported frequency %d", o.Freq)
		}
		if t == audiometry.AC {
			if cfg.Attenuation.ACByFreq == nil {
				cfg.Attenuation.ACByFreq = make(map[int]int)
			}
			cfg.Attenuation.ACByFreq[o.Freq] = o.DB
		} else {
			if cfg.Attenuation.BCByFreq == nil {
				cfg.Attenuation.BCByFreq = make(map[int]int)
			}
			cfg.Attenuation.BCByFreq[o.Freq] = o.DB
		}
	}
	return cfg, nil
}

// Apply overlays the non-empty settings onto base.
func (c LLMConfig) Apply(base llm.Config) llm.Config {
	if c.Provider != "" {
		base.Provider = c.Provider
	}
	if c.Timeout > 0 {
		base.Timeout = c.Timeout
	}
	overlay(&base.Anthropic.APIKey, c.Anthropic.APIKey)
	overlay(&base.Anthropic.Model, c.Anthropic.Model)
	overlay(&base.OpenAI.APIKey, c.OpenAI.APIKey)
	overlay(&base.OpenAI.Model, c.OpenAI.Model)
	overlay(&base.OpenAI.BaseURL, c.OpenAI.BaseURL)
	overlay(&base.Gemini.APIKey, c.Gemini.APIKey)
	overlay(&base.Gemini.Model, c.Gemini.Model)
	overlay(&base.OpenRouter.APIKey, c.OpenRouter.APIKey)
	overlay(&base.OpenRouter.Model, c.OpenRouter.Model)
	overlay(&base.OpenRouter.BaseURL, c.OpenRouter.BaseURL)
	return base
}

// Configured reports whether any LLM setting was given.
func (c LLMConfig) Configured() bool {
	return c.Provider != "" || c.Anthropic.APIKey != "" || c.OpenAI.APIKey != "" ||
		c.Gemini.APIKey != "" || c.OpenRouter.APIKey != ""
}

func overlay(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func configDir() (string, error) {
	if d := os.Getenv("XDG_CONFIG_HOME"); d != "" {
		return filepath.Join(d, "audiotrainer"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "audiotrainer"), nil
}
