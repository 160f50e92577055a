package llm

import "time"

// DefaultRequestTimeout bounds every outbound request made with the shared HTTP client.
const DefaultRequestTimeout = 120 * time.Second

// Config carries provider credentials as delivered by the application config layer.
//
// An empty or whitespace-only key means the provider is not configured. Other
// keys are used verbatim, surrounding whitespace included.
type Config struct {
	AnthropicKey   string `mapstructure:"anthropic_key"`
	OpenAIKey      string `mapstructure:"openai_key"`
	OpenRouterKey  string `mapstructure:"openrouter_key"`
	ZhipuKey       string `mapstructure:"zhipu_key"`
	GroqKey        string `mapstructure:"groq_key"`
	TogetherKey    string `mapstructure:"together_key"`
	FireworksKey   string `mapstructure:"fireworks_key"`
	DeepSeekKey    string `mapstructure:"deepseek_key"`
	XAIKey         string `mapstructure:"xai_key"`
	MistralKey     string `mapstructure:"mistral_key"`
	OllamaKey      string `mapstructure:"ollama_key"`
	OpenCodeZenKey string `mapstructure:"opencode_zen_key"`
	NvidiaKey      string `mapstructure:"nvidia_key"`

	// OllamaBaseURL overrides the default local Ollama endpoint.
	OllamaBaseURL string `mapstructure:"ollama_base_url"`

	// RequestTimeout applies to the shared HTTP client. It is read once at
	// construction; reloads do not rebuild the client.
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// Key returns the configured key field for p.
func (c Config) Key(p Provider) string {
	switch p {
	case ProviderAnthropic:
		return c.AnthropicKey
	case ProviderOpenAI:
		return c.OpenAIKey
	case ProviderOpenRouter:
		return c.OpenRouterKey
	case ProviderZhipu:
		return c.ZhipuKey
	case ProviderGroq:
		return c.GroqKey
	case ProviderTogether:
		return c.TogetherKey
	case ProviderFireworks:
		return c.FireworksKey
	case ProviderDeepSeek:
		return c.DeepSeekKey
	case ProviderXAI:
		return c.XAIKey
	case ProviderMistral:
		return c.MistralKey
	case ProviderOllama:
		return c.OllamaKey
	case ProviderOpenCodeZen:
		return c.OpenCodeZenKey
	case ProviderNvidia:
		return c.NvidiaKey
	default:
		return ""
	}
}

// SetKey assigns the key field for p. Unknown providers are ignored.
func (c *Config) SetKey(p Provider, key string) {
	switch p {
	case ProviderAnthropic:
		c.AnthropicKey = key
	case ProviderOpenAI:
		c.OpenAIKey = key
	case ProviderOpenRouter:
		c.OpenRouterKey = key
	case ProviderZhipu:
		c.ZhipuKey = key
	case ProviderGroq:
		c.GroqKey = key
	case ProviderTogether:
		c.TogetherKey = key
	case ProviderFireworks:
		c.FireworksKey = key
	case ProviderDeepSeek:
		c.DeepSeekKey = key
	case ProviderXAI:
		c.XAIKey = key
	case ProviderMistral:
		c.MistralKey = key
	case ProviderOllama:
		c.OllamaKey = key
	case ProviderOpenCodeZen:
		c.OpenCodeZenKey = key
	case ProviderNvidia:
		c.NvidiaKey = key
	}
}
