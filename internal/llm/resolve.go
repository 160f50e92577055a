package llm

import "strings"

// DefaultProvider is assumed when a model name carries no provider prefix.
const DefaultProvider = ProviderAnthropic

// ModelSeparator splits "provider/model" identifiers.
const ModelSeparator = "/"

// ResolveModel splits name on the first separator into provider and model.
// Names without a separator resolve to DefaultProvider. The input is not
// trimmed or validated: "" yields (DefaultProvider, "") and "/m" yields ("", "m").
func ResolveModel(name string) (provider string, model string) {
	if p, m, ok := strings.Cut(name, ModelSeparator); ok {
		return p, m
	}
	return string(DefaultProvider), name
}
