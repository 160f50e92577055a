package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/providerkit/providerkit/internal/llm"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newLLMRouter(t *testing.T, cfg llm.Config) (http.Handler, *llm.Manager, *testClock) {
	t.Helper()

	clock := &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	manager := llm.NewManager(cfg, llm.WithClock(clock.Now))
	handler := &LLMHandler{
		Manager:  manager,
		Cooldown: func() time.Duration { return time.Minute },
	}

	r := chi.NewRouter()
	r.Route("/v1", handler.Register)
	return r, manager, clock
}

func serve(h http.Handler, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func decodeErrorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp.Error.Code
}

func TestProvidersListsEveryProviderWithoutSecrets(t *testing.T) {
	router, _, _ := newLLMRouter(t, llm.Config{
		AnthropicKey:  "sk-ant-secret",
		OllamaBaseURL: "http://localhost:11434",
	})

	rec := serve(router, http.MethodGet, "/v1/providers")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "sk-ant-secret")

	var resp ProvidersResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Providers, len(llm.Providers()))

	byID := make(map[string]ProviderStatus, len(resp.Providers))
	for _, p := range resp.Providers {
		byID[p.Provider] = p
	}
	assert.True(t, byID["anthropic"].Configured)
	assert.False(t, byID["openai"].Configured)
	assert.Equal(t, "http://localhost:11434", byID["ollama"].BaseURL)
	assert.Empty(t, byID["anthropic"].BaseURL)
}

func TestProviderKeyStatusCodes(t *testing.T) {
	router, _, _ := newLLMRouter(t, llm.Config{OpenAIKey: "sk-openai"})

	rec := serve(router, http.MethodGet, "/v1/providers/openai/key")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = serve(router, http.MethodGet, "/v1/providers/groq/key")
	assert.Equal(t, http.StatusFailedDependency, rec.Code)
	assert.Equal(t, "PROVIDER_KEY_MISSING", decodeErrorCode(t, rec))

	rec = serve(router, http.MethodGet, "/v1/providers/acme/key")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "UNKNOWN_PROVIDER", decodeErrorCode(t, rec))
}

func TestResolveEndpoint(t *testing.T) {
	router, _, _ := newLLMRouter(t, llm.Config{})

	rec := serve(router, http.MethodGet, "/v1/models/resolve?name=openrouter/meta/llama")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ResolveResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "openrouter", resp.Provider)
	assert.Equal(t, "meta/llama", resp.Model)
	assert.True(t, resp.Known)

	rec = serve(router, http.MethodGet, "/v1/models/resolve?name=claude-3")
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "anthropic", resp.Provider)
	assert.Equal(t, "claude-3", resp.Model)

	rec = serve(router, http.MethodGet, "/v1/models/resolve?name=acme/x")
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.False(t, resp.Known)
}

func TestResolveEndpointAcceptsEmptyName(t *testing.T) {
	router, _, _ := newLLMRouter(t, llm.Config{})

	rec := serve(router, http.MethodGet, "/v1/models/resolve?name=")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ResolveResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "anthropic", resp.Provider)
	assert.Equal(t, "", resp.Model)
}

func TestResolveEndpointRequiresName(t *testing.T) {
	router, _, _ := newLLMRouter(t, llm.Config{})

	rec := serve(router, http.MethodGet, "/v1/models/resolve")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_INPUT", decodeErrorCode(t, rec))
}

func TestCooldownLifecycleOverHTTP(t *testing.T) {
	router, manager, clock := newLLMRouter(t, llm.Config{})

	rec := serve(router, http.MethodPost, "/v1/cooldowns/openai/gpt-4")
	require.Equal(t, http.StatusAccepted, rec.Code)

	var status CooldownStatus
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&status))
	assert.Equal(t, "openai/gpt-4", status.Model)
	assert.True(t, status.RateLimited)
	assert.InDelta(t, 60, status.RemainingSeconds, 0.001)
	assert.True(t, manager.IsRateLimited("openai/gpt-4", time.Minute))

	clock.Advance(45 * time.Second)
	rec = serve(router, http.MethodGet, "/v1/cooldowns/openai/gpt-4")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&status))
	assert.True(t, status.RateLimited)
	assert.InDelta(t, 15, status.RemainingSeconds, 0.001)

	rec = serve(router, http.MethodGet, "/v1/cooldowns/openai/gpt-4?cooldown=30s")
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&status))
	assert.False(t, status.RateLimited)

	rec = serve(router, http.MethodDelete, "/v1/cooldowns/openai/gpt-4")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, manager.IsRateLimited("openai/gpt-4", time.Minute))

	rec = serve(router, http.MethodDelete, "/v1/cooldowns/openai/gpt-4")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListCooldownsReturnsActiveEntriesOnly(t *testing.T) {
	router, manager, clock := newLLMRouter(t, llm.Config{})

	manager.RecordRateLimit("old")
	clock.Advance(2 * time.Minute)
	manager.RecordRateLimit("b-model")
	manager.RecordRateLimit("a-model")

	rec := serve(router, http.MethodGet, "/v1/cooldowns")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp CooldownListResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.InDelta(t, 60, resp.CooldownSeconds, 0.001)
	require.Len(t, resp.Entries, 2)
	assert.Equal(t, "a-model", resp.Entries[0].Model)
	assert.Equal(t, "b-model", resp.Entries[1].Model)
}

func TestCooldownRejectsInvalidOverride(t *testing.T) {
	router, _, _ := newLLMRouter(t, llm.Config{})

	for _, raw := range []string{"soon", "-5s"} {
		rec := serve(router, http.MethodGet, "/v1/cooldowns?cooldown="+raw)
		assert.Equal(t, http.StatusBadRequest, rec.Code, raw)
	}
}

func TestCooldownRequiresModel(t *testing.T) {
	router, _, _ := newLLMRouter(t, llm.Config{})

	rec := serve(router, http.MethodPost, "/v1/cooldowns/")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCooldownUnescapesModel(t *testing.T) {
	router, manager, _ := newLLMRouter(t, llm.Config{})

	rec := serve(router, http.MethodPost, "/v1/cooldowns/"+strings.ReplaceAll("openrouter/meta/llama", "/", "%2F"))
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.True(t, manager.IsRateLimited("openrouter/meta/llama", time.Minute))
}

func TestCooldownModelEscapingRoundTrips(t *testing.T) {
	router, manager, _ := newLLMRouter(t, llm.Config{})

	for _, model := range []string{"weird%model", "literal%2Fslash", "100%", "a b", "openai/gpt-4"} {
		target := "/v1/cooldowns/" + url.PathEscape(model)

		rec := serve(router, http.MethodPost, target)
		require.Equal(t, http.StatusAccepted, rec.Code, model)

		var status CooldownStatus
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&status))
		assert.Equal(t, model, status.Model)
		assert.True(t, manager.IsRateLimited(model, time.Minute), model)

		rec = serve(router, http.MethodDelete, target)
		require.Equal(t, http.StatusNoContent, rec.Code, model)
	}
	assert.Zero(t, manager.Cooldowns().Len())
}

func TestCooldownOverrideExtendsRetention(t *testing.T) {
	router, manager, _ := newLLMRouter(t, llm.Config{})

	rec := serve(router, http.MethodGet, "/v1/cooldowns/m?cooldown=10m")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 10*time.Minute, manager.Retention(time.Minute))
}

func TestLLMHandlerHealthCheck(t *testing.T) {
	var nilHandler *LLMHandler
	assert.Error(t, nilHandler.CheckHealth(context.Background()))

	handler := &LLMHandler{Manager: llm.NewManager(llm.Config{})}
	assert.NoError(t, handler.CheckHealth(context.Background()))
}
