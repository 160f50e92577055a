package llm

import (
	"strings"
	"sync/atomic"
)

// CredentialSet is an immutable snapshot of provider credentials.
//
// A published set is never modified; reloads publish a new one.
type CredentialSet struct {
	keys          map[Provider]string
	ollamaBaseURL string
}

// NewCredentialSet snapshots cfg. Whitespace-only keys count as unset; any
// other key is stored exactly as configured.
func NewCredentialSet(cfg Config) *CredentialSet {
	set := &CredentialSet{
		keys:          make(map[Provider]string, len(providers)),
		ollamaBaseURL: strings.TrimSpace(cfg.OllamaBaseURL),
	}
	for _, p := range providers {
		if key := cfg.Key(p); strings.TrimSpace(key) != "" {
			set.keys[p] = key
		}
	}
	return set
}

// Key returns the key for p, if one is configured.
func (s *CredentialSet) Key(p Provider) (string, bool) {
	if s == nil {
		return "", false
	}
	key, ok := s.keys[p]
	return key, ok
}

// OllamaBaseURL returns the Ollama endpoint override, if any.
func (s *CredentialSet) OllamaBaseURL() (string, bool) {
	if s == nil || s.ollamaBaseURL == "" {
		return "", false
	}
	return s.ollamaBaseURL, true
}

// Configured lists providers that have a key, in declaration order.
func (s *CredentialSet) Configured() []Provider {
	if s == nil {
		return nil
	}
	out := make([]Provider, 0, len(s.keys))
	for _, p := range providers {
		if _, ok := s.keys[p]; ok {
			out = append(out, p)
		}
	}
	return out
}

// CredentialStore publishes CredentialSet snapshots. Reads never block.
type CredentialStore struct {
	current atomic.Pointer[CredentialSet]
}

// NewCredentialStore returns a store holding initial.
func NewCredentialStore(initial *CredentialSet) *CredentialStore {
	s := &CredentialStore{}
	s.Replace(initial)
	return s
}

// Replace publishes next for all subsequent reads. A nil set publishes an empty one.
func (s *CredentialStore) Replace(next *CredentialSet) {
	if next == nil {
		next = NewCredentialSet(Config{})
	}
	s.current.Store(next)
}

// Load returns the current snapshot. Read several fields from one Load result
// to get a consistent view across a concurrent Replace.
func (s *CredentialStore) Load() *CredentialSet {
	return s.current.Load()
}

// APIKey looks up the key for providerID in the current snapshot.
func (s *CredentialStore) APIKey(providerID string) (string, error) {
	p, err := ParseProvider(providerID)
	if err != nil {
		return "", err
	}
	key, ok := s.Load().Key(p)
	if !ok {
		return "", &MissingProviderKeyError{Provider: providerID}
	}
	return key, nil
}

// BaseURLOverride returns the configured base URL for providerID. Only ollama
// supports an override.
func (s *CredentialStore) BaseURLOverride(providerID string) (string, bool) {
	if providerID != string(ProviderOllama) {
		return "", false
	}
	return s.Load().OllamaBaseURL()
}
