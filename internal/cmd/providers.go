package cmd

import (
	"github.com/spf13/cobra"

	"github.com/providerkit/providerkit/internal/config"
	errwrap "github.com/providerkit/providerkit/internal/errors"
	"github.com/providerkit/providerkit/internal/llm"
	"github.com/providerkit/providerkit/internal/output"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List supported providers and whether a key is configured",
	Long: `List every supported LLM provider, whether an API key is configured for it,
and the environment variable that sets it. Keys themselves are never printed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return errwrap.WrapConfigInvalid(cmd.Context(), err, "failed to load configuration")
		}
		return renderTo(cmd, providerList(llm.NewCredentialSet(cfg.LLM)))
	},
}

func init() {
	rootCmd.AddCommand(providersCmd)
	addOutputFlags(providersCmd)
}

func providerList(set *llm.CredentialSet) output.ProviderList {
	list := output.ProviderList{Providers: make([]output.ProviderStatus, 0, len(llm.Providers()))}
	for _, p := range llm.Providers() {
		_, configured := set.Key(p)
		status := output.ProviderStatus{
			Provider:   p.String(),
			Configured: configured,
			EnvVar:     config.ProviderKeyEnv(p),
		}
		if p == llm.ProviderOllama {
			status.BaseURL, _ = set.OllamaBaseURL()
		}
		list.Providers = append(list.Providers, status)
	}
	return list
}
