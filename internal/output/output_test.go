package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleProviders() ProviderList {
	return ProviderList{Providers: []ProviderStatus{
		{Provider: "anthropic", Configured: true, EnvVar: "PROVIDERKIT_ANTHROPIC_API_KEY"},
		{Provider: "ollama", EnvVar: "PROVIDERKIT_OLLAMA_API_KEY", BaseURL: "http://localhost:11434"},
	}}
}

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{
		"":         FormatTable,
		"table":    FormatTable,
		"JSON":     FormatJSON,
		" yaml ":   FormatYAML,
		"yml":      FormatYAML,
		"markdown": FormatMarkdown,
		"md":       FormatMarkdown,
	}
	for in, want := range cases {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}

	_, err := ParseFormat("csv")
	require.Error(t, err)
}

func TestRenderProvidersTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, FormatTable, sampleProviders()))

	out := buf.String()
	require.Contains(t, out, "PROVIDER")
	require.Contains(t, out, "anthropic")
	require.Contains(t, out, "yes")
	require.Contains(t, out, "http://localhost:11434")
}

func TestRenderProvidersMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, FormatMarkdown, sampleProviders()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.GreaterOrEqual(t, len(lines), 4)
	require.True(t, strings.HasPrefix(lines[0], "|"))
	require.Contains(t, strings.ToLower(lines[0]), "provider")
	require.Contains(t, buf.String(), "anthropic")
}

func TestRenderProvidersJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, FormatJSON, sampleProviders()))

	var decoded ProviderList
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded.Providers, 2)
	require.True(t, decoded.Providers[0].Configured)
	require.NotContains(t, buf.String(), "base_url\": \"\"")
}

func TestRenderProvidersYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, FormatYAML, sampleProviders()))

	var decoded map[string][]map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	require.Equal(t, "anthropic", decoded["providers"][0]["provider"])
	require.Equal(t, true, decoded["providers"][0]["configured"])
	require.NotContains(t, decoded["providers"][0], "base_url")
}

func TestRenderResolutionsQuotesName(t *testing.T) {
	list := ResolutionList{Resolutions: []Resolution{
		{Name: "", Provider: "anthropic", Model: "", KnownProvider: true},
		{Name: "openrouter/meta/llama", Provider: "openrouter", Model: "meta/llama", KnownProvider: true},
	}}

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, FormatTable, list))
	require.Contains(t, buf.String(), `""`)
	require.Contains(t, buf.String(), "meta/llama")
}

func TestTableRejectsNonTabular(t *testing.T) {
	var buf bytes.Buffer
	require.Error(t, Render(&buf, FormatTable, map[string]string{"a": "b"}))
}

func TestCooldownListRows(t *testing.T) {
	list := CooldownList{
		CooldownSeconds: 60,
		Entries: []Cooldown{
			{Model: "openai/gpt-4", RateLimited: true, RemainingSeconds: 14.6},
			{Model: "claude-3", RateLimited: false},
		},
	}

	rows := list.Rows()
	require.Len(t, rows, 2)
	require.Equal(t, []string{"openai/gpt-4", "yes", "15s"}, rows[0])
	require.Equal(t, []string{"claude-3", "no", "-"}, rows[1])
}

func TestCooldownListFilterPrefix(t *testing.T) {
	list := CooldownList{Entries: []Cooldown{{Model: "openai/gpt-4"}, {Model: "groq/llama"}}}

	filtered := list.FilterPrefix("groq/")
	require.Len(t, filtered.Entries, 1)
	require.Equal(t, "groq/llama", filtered.Entries[0].Model)
	require.Len(t, list.FilterPrefix("").Entries, 2)
	require.Empty(t, list.FilterPrefix("xai/").Entries)
}
