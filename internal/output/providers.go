package output

import "strconv"

// ProviderStatus is one row of the providers listing. It never carries a key.
type ProviderStatus struct {
	Provider   string `json:"provider" yaml:"provider"`
	Configured bool   `json:"configured" yaml:"configured"`
	EnvVar     string `json:"env_var" yaml:"env_var"`
	BaseURL    string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
}

// ProviderList is the providers command payload.
type ProviderList struct {
	Providers []ProviderStatus `json:"providers" yaml:"providers"`
}

// Header implements Tabular.
func (l ProviderList) Header() []string {
	return []string{"Provider", "Configured", "Env", "Base URL"}
}

// Rows implements Tabular.
func (l ProviderList) Rows() [][]string {
	rows := make([][]string, 0, len(l.Providers))
	for _, p := range l.Providers {
		rows = append(rows, []string{p.Provider, yesNo(p.Configured), p.EnvVar, p.BaseURL})
	}
	return rows
}

// Resolution is the provider/model split of one model identifier.
type Resolution struct {
	Name          string `json:"name" yaml:"name"`
	Provider      string `json:"provider" yaml:"provider"`
	Model         string `json:"model" yaml:"model"`
	KnownProvider bool   `json:"known_provider" yaml:"known_provider"`
}

// ResolutionList is the resolve command payload.
type ResolutionList struct {
	Resolutions []Resolution `json:"resolutions" yaml:"resolutions"`
}

// Header implements Tabular.
func (l ResolutionList) Header() []string {
	return []string{"Name", "Provider", "Model", "Known"}
}

// Rows implements Tabular.
func (l ResolutionList) Rows() [][]string {
	rows := make([][]string, 0, len(l.Resolutions))
	for _, r := range l.Resolutions {
		rows = append(rows, []string{strconv.Quote(r.Name), r.Provider, r.Model, yesNo(r.KnownProvider)})
	}
	return rows
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
