package metrics

import (
	"testing"

	"github.com/fulmenhq/gofulmen/telemetry"
	telemetrytesting "github.com/fulmenhq/gofulmen/telemetry/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/providerkit/providerkit/internal/llm"
	"github.com/providerkit/providerkit/internal/observability"
)

func setupTelemetry(t *testing.T) *telemetrytesting.FakeCollector {
	t.Helper()

	collector := telemetrytesting.NewFakeCollector()
	sys, err := telemetry.NewSystem(&telemetry.Config{
		Enabled: true,
		Emitter: collector,
	})
	require.NoError(t, err)

	original := observability.TelemetrySystem
	observability.TelemetrySystem = sys
	t.Cleanup(func() {
		observability.TelemetrySystem = original
	})

	return collector
}

var _ llm.Recorder = LLMRecorder{}

func TestLLMRecorderEmitsManagerEvents(t *testing.T) {
	collector := setupTelemetry(t)

	m := llm.NewManager(llm.Config{}, llm.WithMetrics(LLMRecorder{}))
	m.ReloadConfig(llm.Config{OpenAIKey: "k"})
	m.RecordRateLimit("openai/gpt-4")
	_, _ = m.APIKey("anthropic")
	m.CleanupRateLimits(0)

	assert.Greater(t, collector.CountMetricsByName(ConfigReloadsTotalName), 0)
	assert.Greater(t, collector.CountMetricsByName(RateLimitsTotalName), 0)
	assert.Greater(t, collector.CountMetricsByName(KeyLookupErrorsTotalName), 0)
	assert.Greater(t, collector.CountMetricsByName(CooldownsCleanedName), 0)
}

func TestRecordersAreNoopsWithoutTelemetry(t *testing.T) {
	original := observability.TelemetrySystem
	observability.TelemetrySystem = nil
	t.Cleanup(func() { observability.TelemetrySystem = original })

	recorder := LLMRecorder{}
	recorder.ConfigReloaded()
	recorder.RateLimitRecorded("m")
	recorder.KeyLookupFailed("p", "missing_key")
	recorder.CooldownsCleaned(3)
	SetActiveCooldowns(1)
	SetServerStartTime(1)
	RecordError("INTERNAL_ERROR", 500)
	RecordPanic()
	RecordErrorByEndpoint("/v1/providers", "INTERNAL_ERROR")
}

func TestErrorMetrics(t *testing.T) {
	collector := setupTelemetry(t)

	RecordError("NOT_FOUND", 404)
	RecordPanic()
	RecordErrorByEndpoint("/v1/cooldowns/*", "NOT_FOUND")

	assert.Greater(t, collector.CountMetricsByName(ErrorsTotalName), 0)
	assert.Greater(t, collector.CountMetricsByName(PanicsTotalName), 0)
	assert.Greater(t, collector.CountMetricsByName(ErrorsByEndpointName), 0)
}
