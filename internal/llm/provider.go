package llm

// Provider identifies an upstream LLM vendor.
type Provider string

const (
	ProviderAnthropic   Provider = "anthropic"
	ProviderOpenAI      Provider = "openai"
	ProviderOpenRouter  Provider = "openrouter"
	ProviderZhipu       Provider = "zhipu"
	ProviderGroq        Provider = "groq"
	ProviderTogether    Provider = "together"
	ProviderFireworks   Provider = "fireworks"
	ProviderDeepSeek    Provider = "deepseek"
	ProviderXAI         Provider = "xai"
	ProviderMistral     Provider = "mistral"
	ProviderOllama      Provider = "ollama"
	ProviderOpenCodeZen Provider = "opencode-zen"
	ProviderNvidia      Provider = "nvidia"
)

var providers = []Provider{
	ProviderAnthropic,
	ProviderOpenAI,
	ProviderOpenRouter,
	ProviderZhipu,
	ProviderGroq,
	ProviderTogether,
	ProviderFireworks,
	ProviderDeepSeek,
	ProviderXAI,
	ProviderMistral,
	ProviderOllama,
	ProviderOpenCodeZen,
	ProviderNvidia,
}

// Providers returns every supported provider in declaration order.
func Providers() []Provider {
	out := make([]Provider, len(providers))
	copy(out, providers)
	return out
}

// ParseProvider validates a provider id. Matching is exact.
func ParseProvider(id string) (Provider, error) {
	for _, p := range providers {
		if string(p) == id {
			return p, nil
		}
	}
	return "", &UnknownProviderError{Provider: id}
}

func (p Provider) String() string {
	return string(p)
}
