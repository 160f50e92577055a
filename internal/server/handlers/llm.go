package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/providerkit/providerkit/internal/errors"
	"github.com/providerkit/providerkit/internal/llm"
	"github.com/providerkit/providerkit/internal/metrics"
)

// LLMHandler exposes credential and cooldown state of an llm.Manager.
// Secrets are never written to responses.
type LLMHandler struct {
	Manager *llm.Manager

	// Cooldown returns the active cooldown window. It is consulted per request
	// so config reloads take effect without rebuilding the router.
	Cooldown func() time.Duration
}

var errNoCredentials = errors.New("credential store not initialized")

// ProviderStatus describes one provider without revealing its key.
type ProviderStatus struct {
	Provider   string `json:"provider"`
	Configured bool   `json:"configured"`
	BaseURL    string `json:"base_url,omitempty"`
}

// ProvidersResponse lists every supported provider.
type ProvidersResponse struct {
	Providers []ProviderStatus `json:"providers"`
}

// ResolveResponse is the result of splitting a model identifier.
type ResolveResponse struct {
	Name     string `json:"name"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
	Known    bool   `json:"known_provider"`
}

// CooldownStatus reports whether a model is rate limited.
type CooldownStatus struct {
	Model            string  `json:"model"`
	RateLimited      bool    `json:"rate_limited"`
	RemainingSeconds float64 `json:"remaining_seconds"`
	CooldownSeconds  float64 `json:"cooldown_seconds"`
}

// CooldownListResponse lists models currently cooling down.
type CooldownListResponse struct {
	CooldownSeconds float64          `json:"cooldown_seconds"`
	Entries         []CooldownStatus `json:"entries"`
}

// Register mounts the provider and cooldown routes on r.
func (h *LLMHandler) Register(r chi.Router) {
	r.Get("/providers", h.Providers)
	r.Get("/providers/{provider}/key", h.ProviderKey)
	r.Get("/models/resolve", h.Resolve)
	r.Get("/cooldowns", h.ListCooldowns)
	r.Get("/cooldowns/*", h.GetCooldown)
	r.Post("/cooldowns/*", h.RecordCooldown)
	r.Delete("/cooldowns/*", h.ClearCooldown)
}

// CheckHealth fails when no credential snapshot has been published.
func (h *LLMHandler) CheckHealth(ctx context.Context) error {
	if h == nil || h.Manager == nil || h.Manager.Credentials().Load() == nil {
		return errNoCredentials
	}
	return nil
}

// Providers handles GET /v1/providers.
func (h *LLMHandler) Providers(w http.ResponseWriter, r *http.Request) {
	snapshot := h.Manager.Credentials().Load()

	resp := ProvidersResponse{Providers: make([]ProviderStatus, 0, len(llm.Providers()))}
	for _, p := range llm.Providers() {
		_, configured := snapshot.Key(p)
		status := ProviderStatus{Provider: string(p), Configured: configured}
		if p == llm.ProviderOllama {
			status.BaseURL, _ = snapshot.OllamaBaseURL()
		}
		resp.Providers = append(resp.Providers, status)
	}

	writeJSON(w, http.StatusOK, resp)
}

// ProviderKey handles GET /v1/providers/{provider}/key. It answers 204 when a
// key is configured and an error envelope otherwise.
func (h *LLMHandler) ProviderKey(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	if _, err := h.Manager.APIKey(provider); err != nil {
		respondWithError(w, r, apperrors.FromLLMError(r.Context(), err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Resolve handles GET /v1/models/resolve?name=provider/model.
func (h *LLMHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	values, ok := r.URL.Query()["name"]
	if !ok || len(values) == 0 {
		respondWithError(w, r, apperrors.NewInvalidInputError("query parameter 'name' is required"))
		return
	}

	name := values[0]
	provider, model := h.Manager.ResolveModel(name)
	_, err := llm.ParseProvider(provider)

	writeJSON(w, http.StatusOK, ResolveResponse{
		Name:     name,
		Provider: provider,
		Model:    model,
		Known:    err == nil,
	})
}

// ListCooldowns handles GET /v1/cooldowns.
func (h *LLMHandler) ListCooldowns(w http.ResponseWriter, r *http.Request) {
	cooldown, ok := h.cooldownFor(w, r)
	if !ok {
		return
	}

	entries := h.Manager.Cooldowns().Snapshot(cooldown)
	metrics.SetActiveCooldowns(len(entries))

	resp := CooldownListResponse{
		CooldownSeconds: cooldown.Seconds(),
		Entries:         make([]CooldownStatus, 0, len(entries)),
	}
	for _, entry := range entries {
		resp.Entries = append(resp.Entries, CooldownStatus{
			Model:            entry.Model,
			RateLimited:      true,
			RemainingSeconds: entry.Remaining.Seconds(),
			CooldownSeconds:  cooldown.Seconds(),
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetCooldown handles GET /v1/cooldowns/{model...}.
func (h *LLMHandler) GetCooldown(w http.ResponseWriter, r *http.Request) {
	model, ok := modelParam(w, r)
	if !ok {
		return
	}
	cooldown, ok := h.cooldownFor(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, h.status(model, cooldown))
}

// RecordCooldown handles POST /v1/cooldowns/{model...}.
func (h *LLMHandler) RecordCooldown(w http.ResponseWriter, r *http.Request) {
	model, ok := modelParam(w, r)
	if !ok {
		return
	}
	cooldown, ok := h.cooldownFor(w, r)
	if !ok {
		return
	}

	h.Manager.RecordRateLimit(model)
	writeJSON(w, http.StatusAccepted, h.status(model, cooldown))
}

// ClearCooldown handles DELETE /v1/cooldowns/{model...}.
func (h *LLMHandler) ClearCooldown(w http.ResponseWriter, r *http.Request) {
	model, ok := modelParam(w, r)
	if !ok {
		return
	}
	if !h.Manager.Cooldowns().Clear(model) {
		respondWithError(w, r, apperrors.NewNotFoundError("model has no recorded rate limit"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *LLMHandler) status(model string, cooldown time.Duration) CooldownStatus {
	remaining := h.Manager.Cooldowns().Remaining(model, cooldown)
	return CooldownStatus{
		Model:            model,
		RateLimited:      remaining > 0,
		RemainingSeconds: remaining.Seconds(),
		CooldownSeconds:  cooldown.Seconds(),
	}
}

// cooldownFor returns the ?cooldown= override or the configured window.
func (h *LLMHandler) cooldownFor(w http.ResponseWriter, r *http.Request) (time.Duration, bool) {
	if raw := strings.TrimSpace(r.URL.Query().Get("cooldown")); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			respondWithError(w, r, apperrors.WrapInvalidInput(r.Context(), err, "cooldown must be a non-negative duration"))
			return 0, false
		}
		h.Manager.ObserveCooldown(d)
		return d, true
	}
	if h.Cooldown == nil {
		return 0, true
	}
	cooldown := h.Cooldown()
	h.Manager.ObserveCooldown(cooldown)
	return cooldown, true
}

// modelParam reads the wildcard model segment; model ids may contain '/'.
// chi matches on RawPath when the request carries one, so the segment is
// only unescaped in that case; otherwise it is already decoded.
func modelParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	model := chi.URLParam(r, "*")
	if r.URL.RawPath != "" {
		unescaped, err := url.PathUnescape(model)
		if err != nil {
			respondWithError(w, r, apperrors.WrapInvalidInput(r.Context(), err, "model identifier is not valid path encoding"))
			return "", false
		}
		model = unescaped
	}
	if model == "" {
		respondWithError(w, r, apperrors.NewInvalidInputError("model identifier is required"))
		return "", false
	}
	return model, true
}
