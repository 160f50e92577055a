package llm

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAPIKeyReturnsConfiguredSecret(t *testing.T) {
	store := NewCredentialStore(NewCredentialSet(Config{AnthropicKey: "sk-ant"}))

	key, err := store.APIKey("anthropic")
	require.NoError(t, err)
	require.Equal(t, "sk-ant", key)
}

func TestAPIKeyMissingForRecognisedProvider(t *testing.T) {
	store := NewCredentialStore(NewCredentialSet(Config{OpenAIKey: "sk-openai"}))

	_, err := store.APIKey("anthropic")
	require.True(t, errors.Is(err, ErrMissingProviderKey))
	require.False(t, errors.Is(err, ErrUnknownProvider))

	var typed *MissingProviderKeyError
	require.True(t, errors.As(err, &typed))
	require.Equal(t, "anthropic", typed.Provider)
}

func TestAPIKeyUnknownProviderRegardlessOfConfig(t *testing.T) {
	var full Config
	for _, p := range Providers() {
		full.SetKey(p, "k")
	}

	for _, cfg := range []Config{{}, full} {
		store := NewCredentialStore(NewCredentialSet(cfg))
		_, err := store.APIKey("google")
		require.True(t, errors.Is(err, ErrUnknownProvider))
	}
}

func TestCredentialSetTreatsBlankKeyAsUnset(t *testing.T) {
	set := NewCredentialSet(Config{GroqKey: "   ", XAIKey: " xai-key "})

	_, ok := set.Key(ProviderGroq)
	require.False(t, ok)

	key, ok := set.Key(ProviderXAI)
	require.True(t, ok)
	require.Equal(t, " xai-key ", key)
	require.Equal(t, []Provider{ProviderXAI}, set.Configured())
}

func TestCredentialSetIsDetachedFromConfig(t *testing.T) {
	cfg := Config{MistralKey: "before"}
	set := NewCredentialSet(cfg)
	cfg.MistralKey = "after"

	key, ok := set.Key(ProviderMistral)
	require.True(t, ok)
	require.Equal(t, "before", key)
}

func TestBaseURLOverrideOnlyForOllama(t *testing.T) {
	store := NewCredentialStore(NewCredentialSet(Config{OllamaBaseURL: "http://gpu-box:11434"}))

	url, ok := store.BaseURLOverride("ollama")
	require.True(t, ok)
	require.Equal(t, "http://gpu-box:11434", url)

	_, ok = store.BaseURLOverride("openai")
	require.False(t, ok)
	_, ok = store.BaseURLOverride("nonsense")
	require.False(t, ok)
}

func TestReplaceIsWholeObject(t *testing.T) {
	store := NewCredentialStore(NewCredentialSet(Config{
		AnthropicKey:  "old-key",
		OllamaBaseURL: "http://old",
	}))

	store.Replace(NewCredentialSet(Config{OpenAIKey: "new-key"}))

	_, err := store.APIKey("anthropic")
	require.True(t, errors.Is(err, ErrMissingProviderKey))
	_, ok := store.BaseURLOverride("ollama")
	require.False(t, ok)

	key, err := store.APIKey("openai")
	require.NoError(t, err)
	require.Equal(t, "new-key", key)
}

func TestReplaceNilPublishesEmptySet(t *testing.T) {
	store := NewCredentialStore(NewCredentialSet(Config{AnthropicKey: "k"}))
	store.Replace(nil)

	require.NotNil(t, store.Load())
	_, err := store.APIKey("anthropic")
	require.True(t, errors.Is(err, ErrMissingProviderKey))
}

func TestConcurrentReadersNeverSeeMixedSnapshot(t *testing.T) {
	oldSet := NewCredentialSet(Config{AnthropicKey: "old", OllamaBaseURL: "http://old"})
	newSet := NewCredentialSet(Config{AnthropicKey: "new", OllamaBaseURL: "http://new"})
	store := NewCredentialStore(oldSet)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	mixed := make(chan string, 1)

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				snap := store.Load()
				key, _ := snap.Key(ProviderAnthropic)
				url, _ := snap.OllamaBaseURL()
				if "http://"+key != url {
					select {
					case mixed <- key + " " + url:
					default:
					}
					return
				}
			}
		}()
	}

	for i := 0; i < 2000; i++ {
		if i%2 == 0 {
			store.Replace(newSet)
		} else {
			store.Replace(oldSet)
		}
	}
	close(stop)
	wg.Wait()

	select {
	case got := <-mixed:
		t.Fatalf("observed mixed snapshot: %s", got)
	default:
	}
}
