// Package config loads and patch-merges the gateway's normalized
// configuration (spec §6, §9 "replacing dynamic configuration objects").
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

// Config is the gateway's closed configuration struct, defaults applied
// once at Load time. In-flight requests keep their own snapshot; reload
// happens only through Patch (spec §5 "Config: read-mostly; atomic swap").
type Config struct {
	Gateway     GatewayConfig     `mapstructure:"gateway"`
	Routing     RoutingConfig     `mapstructure:"routing"`
	Reliability ReliabilityConfig `mapstructure:"reliability"`
	Providers   map[string]ProviderConfig `mapstructure:"providers"`
	Auth        AuthConfig        `mapstructure:"auth"`
	Log         LogConfig         `mapstructure:"log"`
}

// GatewayConfig controls the HTTP frontend's listen address and global
// enable flag (spec 4.J: "config enabled=false ... force passthrough").
type GatewayConfig struct {
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	Enabled bool   `mapstructure:"enabled"`
}

// RoutingConfig configures mode selection and cascade behaviour (spec 4.E).
type RoutingConfig struct {
	Mode               string            `mapstructure:"mode"` // "tiered" | "cascade"
	ComplexityModels   map[string]string `mapstructure:"complexity_models"`
	CascadeEnabled     bool              `mapstructure:"cascade_enabled"`
	CascadeModels      []string          `mapstructure:"cascade_models"`
	MaxEscalations     int               `mapstructure:"max_escalations"`
	QualityModelEnvKey string            `mapstructure:"quality_model_env_key"`
}

// ReliabilityConfig configures the gateway-side cooldown manager (spec 4.H)
// and the embeddable middleware's breaker/supervisor (spec 4.K-4.M).
type ReliabilityConfig struct {
	CooldownWindowSeconds int64 `mapstructure:"cooldown_window_seconds"`
	CooldownAllowedFails  int   `mapstructure:"cooldown_allowed_fails"`
	CooldownSeconds       int64 `mapstructure:"cooldown_seconds"`

	MiddlewareEnabled        bool          `mapstructure:"middleware_enabled"`
	MiddlewareProxyURL       string        `mapstructure:"middleware_proxy_url"`
	MiddlewareFailureThreshold int         `mapstructure:"middleware_failure_threshold"`
	MiddlewareResetTimeoutMillis int64     `mapstructure:"middleware_reset_timeout_millis"`
	MiddlewareRequestTimeout time.Duration `mapstructure:"middleware_request_timeout"`
}

// ProviderConfig is one upstream's base URL, API key env var name, and
// statically known models.
type ProviderConfig struct {
	BaseURL   string   `mapstructure:"base_url"`
	APIKeyEnv string   `mapstructure:"api_key_env"`
	Models    []string `mapstructure:"models"`

	resolvedKey string
}

// APIKey returns the value of the environment variable named by
// APIKeyEnv, resolved once at Load time.
func (p ProviderConfig) APIKey() string { return p.resolvedKey }

// AuthConfig selects whether MAX OAuth-style tokens are preferred over
// plain API keys for Anthropic (spec 4.G hybrid auth scheme).
type AuthConfig struct {
	UseMaxForModels []string `mapstructure:"use_max_for_models"`
}

// LogConfig controls the zap logger factory.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json | console
}

// Load reads layered configuration: built-in defaults, then
// $RELAYPLANE_CONFIG_PATH (or ~/.relayplane/config.json) if present, then
// environment variable overrides (spec §6 "Environment variables
// consumed"). On-disk hot-reload is out of scope (§1 Non-goals); Patch
// handles runtime mutation for /control/config instead.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("json")
	configPath := os.Getenv("RELAYPLANE_CONFIG_PATH")
	if configPath == "" {
		home, _ := os.UserHomeDir()
		configPath = filepath.Join(home, ".relayplane", "config.json")
	}
	if _, err := os.Stat(configPath); err == nil {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configPath, err)
		}
	}

	v.SetEnvPrefix("RELAYPLANE")
	v.AutomaticEnv()
	if host := os.Getenv("RELAYPLANE_PROXY_HOST"); host != "" {
		v.Set("gateway.host", host)
	}
	if port := os.Getenv("RELAYPLANE_PROXY_PORT"); port != "" {
		if n, err := strconv.Atoi(port); err == nil {
			v.Set("gateway.port", n)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	applyProviderKeyEnv(&cfg)
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("gateway.host", "127.0.0.1")
	v.SetDefault("gateway.port", 4801)
	v.SetDefault("gateway.enabled", true)

	v.SetDefault("routing.mode", "tiered")
	v.SetDefault("routing.cascade_enabled", false)
	v.SetDefault("routing.max_escalations", 1)
	v.SetDefault("routing.quality_model_env_key", "RELAYPLANE_QUALITY_MODEL")

	v.SetDefault("reliability.cooldown_window_seconds", 60)
	v.SetDefault("reliability.cooldown_allowed_fails", 3)
	v.SetDefault("reliability.cooldown_seconds", 30)

	v.SetDefault("reliability.middleware_enabled", false)
	v.SetDefault("reliability.middleware_proxy_url", "http://127.0.0.1:4801")
	v.SetDefault("reliability.middleware_failure_threshold", 5)
	v.SetDefault("reliability.middleware_reset_timeout_millis", 30_000)
	v.SetDefault("reliability.middleware_request_timeout", "3s")

	v.SetDefault("providers.anthropic.base_url", "https://api.anthropic.com")
	v.SetDefault("providers.anthropic.api_key_env", "ANTHROPIC_API_KEY")
	v.SetDefault("providers.openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("providers.openai.api_key_env", "OPENAI_API_KEY")
	v.SetDefault("providers.google.base_url", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("providers.google.api_key_env", "GEMINI_API_KEY")
	v.SetDefault("providers.xai.base_url", "https://api.x.ai/v1")
	v.SetDefault("providers.xai.api_key_env", "XAI_API_KEY")
	v.SetDefault("providers.moonshot.base_url", "https://api.moonshot.cn/v1")
	v.SetDefault("providers.moonshot.api_key_env", "MOONSHOT_API_KEY")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// applyProviderKeyEnv resolves each provider's configured api_key_env
// variable into a literal key, so downstream code need not re-read the
// environment.
func applyProviderKeyEnv(cfg *Config) {
	for name, p := range cfg.Providers {
		if p.APIKeyEnv != "" {
			p.resolvedKey = os.Getenv(p.APIKeyEnv)
			cfg.Providers[name] = p
		}
	}
}
