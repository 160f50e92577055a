// Package config loads providerkit configuration through viper and decodes
// it into typed structs with mapstructure.
package config

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/providerkit/providerkit/internal/llm"
)

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "PROVIDERKIT"

var (
	// appConfig holds the most recently loaded configuration
	appConfig *Config
	configMu  sync.RWMutex
)

// SetDefaults registers default values on v. Every key that may be
// overridden from the environment must have a default so viper can bind it.
func SetDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.admin_token", "")

	// Provider credentials are empty until configured
	for _, p := range llm.Providers() {
		v.SetDefault("llm."+keyField(p), "")
	}
	v.SetDefault("llm.ollama_base_url", "")
	v.SetDefault("llm.request_timeout", llm.DefaultRequestTimeout.String())

	// Cooldown defaults
	v.SetDefault("rate_limit.cooldown", "60s")
	v.SetDefault("rate_limit.cleanup_interval", "5m")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.profile", "structured")

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)

	// Health check defaults
	v.SetDefault("health.enabled", true)
}

// BindEnv enables PROVIDERKIT_SECTION_KEY style overrides on v.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
}

// Load decodes the current state of v into a Config and records it as the
// active configuration. It is safe to call repeatedly (e.g. on reload).
func Load(v *viper.Viper) (*Config, error) {
	if v == nil {
		return nil, fmt.Errorf("config: viper instance is required")
	}

	settings := v.AllSettings()
	applyProviderEnvOverrides(settings, os.LookupEnv)

	cfg, err := Decode(settings)
	if err != nil {
		return nil, err
	}

	setConfig(cfg)
	return cfg, nil
}

// Decode converts a nested settings map into a Config.
func Decode(settings map[string]any) (*Config, error) {
	cfg := &Config{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	if err := decoder.Decode(settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// Watch re-loads the configuration whenever viper reports a change to the
// config file. A failed load leaves the previous configuration active.
func Watch(v *viper.Viper, onChange func(*Config), onError func(error)) {
	v.OnConfigChange(changeHandler(v, onChange, onError))
	v.WatchConfig()
}

func changeHandler(v *viper.Viper, onChange func(*Config), onError func(error)) func(fsnotify.Event) {
	return func(event fsnotify.Event) {
		if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
			return
		}
		cfg, err := Load(v)
		if err != nil {
			if onError != nil {
				onError(fmt.Errorf("reload %s: %w", event.Name, err))
			}
			return
		}
		if onChange != nil {
			onChange(cfg)
		}
	}
}

// GetConfig returns the most recently loaded configuration (thread-safe)
func GetConfig() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return appConfig
}

// setConfig updates the current configuration (thread-safe)
func setConfig(cfg *Config) {
	configMu.Lock()
	defer configMu.Unlock()
	appConfig = cfg
}

// ProviderKeyEnv returns the dedicated environment variable for a provider key,
// e.g. PROVIDERKIT_OPENCODE_ZEN_API_KEY.
func ProviderKeyEnv(p llm.Provider) string {
	return EnvPrefix + "_" + envSlug(string(p)) + "_API_KEY"
}

// applyProviderEnvOverrides layers PROVIDERKIT_<PROVIDER>_API_KEY and
// PROVIDERKIT_OLLAMA_BASE_URL over the decoded settings.
func applyProviderEnvOverrides(settings map[string]any, lookup func(string) (string, bool)) {
	section := ensureMap(settings, "llm")
	for _, p := range llm.Providers() {
		if value, ok := lookup(ProviderKeyEnv(p)); ok && strings.TrimSpace(value) != "" {
			section[keyField(p)] = value
		}
	}
	if value, ok := lookup(EnvPrefix + "_OLLAMA_BASE_URL"); ok && strings.TrimSpace(value) != "" {
		section["ollama_base_url"] = strings.TrimSpace(value)
	}
}

// keyField maps a provider to its llm.Config key, e.g. opencode-zen -> opencode_zen_key.
func keyField(p llm.Provider) string {
	return strings.ReplaceAll(string(p), "-", "_") + "_key"
}

func envSlug(raw string) string {
	return strings.ToUpper(strings.ReplaceAll(raw, "-", "_"))
}

func ensureMap(parent map[string]any, key string) map[string]any {
	if parent == nil {
		return map[string]any{}
	}
	if existing, ok := parent[key]; ok {
		if typed, ok := existing.(map[string]any); ok {
			return typed
		}
	}
	next := map[string]any{}
	parent[key] = next
	return next
}
