package llm

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"
)

// Recorder receives manager events for metrics export.
type Recorder interface {
	ConfigReloaded()
	RateLimitRecorded(model string)
	KeyLookupFailed(provider string, reason string)
	CooldownsCleaned(removed int)
}

type noopRecorder struct{}

func (noopRecorder) ConfigReloaded() {}

func (noopRecorder) RateLimitRecorded(string) {}

func (noopRecorder) KeyLookupFailed(string, string) {}

func (noopRecorder) CooldownsCleaned(int) {}

// Manager owns provider credentials, the shared HTTP client and rate limit state.
//
// A Manager is safe for concurrent use. Pass the same *Manager to every caller.
type Manager struct {
	credentials *CredentialStore
	cooldowns   *CooldownTracker
	httpClient  *http.Client

	logger  *logging.Logger
	metrics Recorder

	// retention is the longest cooldown window any caller has asked about.
	// Cleanup never drops entries younger than this.
	retention atomic.Int64
}

// Option configures a Manager.
type Option func(*managerOptions)

type managerOptions struct {
	logger     *logging.Logger
	clock      func() time.Time
	httpClient *http.Client
	timeout    time.Duration
	metrics    Recorder
}

// WithLogger sets the logger for reload and rate limit events.
func WithLogger(logger *logging.Logger) Option {
	return func(o *managerOptions) { o.logger = logger }
}

// WithClock overrides the time source used by the cooldown tracker.
func WithClock(clock func() time.Time) Option {
	return func(o *managerOptions) { o.clock = clock }
}

// WithHTTPClient supplies a prebuilt client instead of building one.
func WithHTTPClient(client *http.Client) Option {
	return func(o *managerOptions) { o.httpClient = client }
}

// WithRequestTimeout overrides the timeout of the built HTTP client.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(o *managerOptions) { o.timeout = timeout }
}

// WithMetrics sets the event recorder.
func WithMetrics(recorder Recorder) Option {
	return func(o *managerOptions) { o.metrics = recorder }
}

// NewManager builds a Manager from the initial provider configuration.
func NewManager(cfg Config, opts ...Option) *Manager {
	options := managerOptions{timeout: cfg.RequestTimeout}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	if options.timeout <= 0 {
		options.timeout = DefaultRequestTimeout
	}

	client := options.httpClient
	if client == nil {
		client = &http.Client{Timeout: options.timeout}
	}

	recorder := options.metrics
	if recorder == nil {
		recorder = noopRecorder{}
	}

	cooldowns := NewCooldownTracker()
	cooldowns.Clock = options.clock

	return &Manager{
		credentials: NewCredentialStore(NewCredentialSet(cfg)),
		cooldowns:   cooldowns,
		httpClient:  client,
		logger:      options.logger,
		metrics:     recorder,
	}
}

// ReloadConfig atomically swaps in new provider credentials.
func (m *Manager) ReloadConfig(cfg Config) {
	set := NewCredentialSet(cfg)
	m.credentials.Replace(set)
	m.metrics.ConfigReloaded()
	if m.logger != nil {
		m.logger.Info("LLM provider keys reloaded",
			zap.Int("configured_providers", len(set.Configured())))
	}
}

// APIKey returns the API key for provider.
func (m *Manager) APIKey(provider string) (string, error) {
	key, err := m.credentials.APIKey(provider)
	if err != nil {
		reason := "missing_key"
		if errors.Is(err, ErrUnknownProvider) {
			reason = "unknown_provider"
		}
		m.metrics.KeyLookupFailed(provider, reason)
		return "", err
	}
	return key, nil
}

// OllamaBaseURL returns the configured Ollama base URL, if any.
func (m *Manager) OllamaBaseURL() (string, bool) {
	return m.credentials.Load().OllamaBaseURL()
}

// HTTPClient returns the shared outbound client.
func (m *Manager) HTTPClient() *http.Client {
	return m.httpClient
}

// ResolveModel splits a model name into provider and model.
func (m *Manager) ResolveModel(name string) (provider string, model string) {
	return ResolveModel(name)
}

// RecordRateLimit marks model as rate limited now.
func (m *Manager) RecordRateLimit(model string) {
	m.cooldowns.Record(model)
	m.metrics.RateLimitRecorded(model)
	if m.logger != nil {
		m.logger.Warn("model rate limited, entering cooldown", zap.String("model", model))
	}
}

// IsRateLimited reports whether model is inside its cooldown window.
func (m *Manager) IsRateLimited(model string, cooldown time.Duration) bool {
	m.ObserveCooldown(cooldown)
	return m.cooldowns.IsRateLimited(model, cooldown)
}

// ObserveCooldown registers a cooldown window a caller evaluates entries
// against, so the cleanup loop keeps entries at least that long.
func (m *Manager) ObserveCooldown(cooldown time.Duration) {
	for {
		current := m.retention.Load()
		if int64(cooldown) <= current || m.retention.CompareAndSwap(current, int64(cooldown)) {
			return
		}
	}
}

// Retention returns the window used by RunCleanup: the larger of cooldown
// and the longest window seen by ObserveCooldown.
func (m *Manager) Retention(cooldown time.Duration) time.Duration {
	if observed := time.Duration(m.retention.Load()); observed > cooldown {
		return observed
	}
	return cooldown
}

// CleanupRateLimits drops expired cooldown entries.
func (m *Manager) CleanupRateLimits(cooldown time.Duration) int {
	removed := m.cooldowns.Cleanup(cooldown)
	if removed > 0 {
		m.metrics.CooldownsCleaned(removed)
		if m.logger != nil {
			m.logger.Debug("expired rate limit entries removed", zap.Int("removed", removed))
		}
	}
	return removed
}

// RunCleanup calls CleanupRateLimits every interval until ctx is done.
// cooldown is read on every tick so config reloads apply; entries still
// inside a longer observed window are kept (see Retention).
func (m *Manager) RunCleanup(ctx context.Context, interval time.Duration, cooldown func() time.Duration) {
	if interval <= 0 {
		return
	}
	if cooldown == nil {
		cooldown = func() time.Duration { return 0 }
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.CleanupRateLimits(m.Retention(cooldown()))
		}
	}
}

// Credentials exposes the credential store.
func (m *Manager) Credentials() *CredentialStore {
	return m.credentials
}

// Cooldowns exposes the rate limit tracker.
func (m *Manager) Cooldowns() *CooldownTracker {
	return m.cooldowns
}
