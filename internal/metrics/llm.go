package metrics

import "github.com/providerkit/providerkit/internal/observability"

// LLM manager metrics following Prometheus conventions
const (
	RateLimitsTotalName      = "llm_rate_limits_total"
	ConfigReloadsTotalName   = "llm_config_reloads_total"
	KeyLookupErrorsTotalName = "llm_key_lookup_errors_total"
	CooldownsCleanedName     = "llm_cooldowns_cleaned_total"
	ActiveCooldownsName      = "llm_active_cooldowns"
	ServerStartTimeName      = "app_server_start_time_seconds"
)

// LLMRecorder forwards llm.Manager events to the global telemetry system.
// The zero value is ready to use; events are dropped until metrics are initialized.
type LLMRecorder struct{}

// ConfigReloaded counts a credential snapshot swap.
func (LLMRecorder) ConfigReloaded() {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(ConfigReloadsTotalName, 1, nil)
	}
}

// RateLimitRecorded counts a model entering cooldown.
func (LLMRecorder) RateLimitRecorded(model string) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			RateLimitsTotalName,
			1,
			map[string]string{"model": model},
		)
	}
}

// KeyLookupFailed counts an APIKey failure by provider and reason.
func (LLMRecorder) KeyLookupFailed(provider string, reason string) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			KeyLookupErrorsTotalName,
			1,
			map[string]string{
				"provider": provider,
				"reason":   reason,
			},
		)
	}
}

// CooldownsCleaned counts expired entries removed by cleanup.
func (LLMRecorder) CooldownsCleaned(removed int) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(CooldownsCleanedName, float64(removed), nil)
	}
}

// SetActiveCooldowns records the number of models currently cooling down.
func SetActiveCooldowns(count int) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Gauge(ActiveCooldownsName, float64(count), nil)
	}
}

// SetServerStartTime records the server start time (Unix timestamp)
func SetServerStartTime(timestamp int64) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Gauge(
			ServerStartTimeName,
			float64(timestamp),
			nil,
		)
	}
}
