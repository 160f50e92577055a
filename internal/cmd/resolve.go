package cmd

import (
	"github.com/spf13/cobra"

	"github.com/providerkit/providerkit/internal/llm"
	"github.com/providerkit/providerkit/internal/output"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <model>...",
	Short: "Split model identifiers into provider and model",
	Long: `Split each "provider/model" identifier on its first '/'. Identifiers
without a provider prefix resolve to the anthropic provider.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return renderTo(cmd, resolveAll(args))
	},
}

func init() {
	rootCmd.AddCommand(resolveCmd)
	addOutputFlags(resolveCmd)
}

func resolveAll(names []string) output.ResolutionList {
	list := output.ResolutionList{Resolutions: make([]output.Resolution, 0, len(names))}
	for _, name := range names {
		provider, model := llm.ResolveModel(name)
		_, err := llm.ParseProvider(provider)
		list.Resolutions = append(list.Resolutions, output.Resolution{
			Name:          name,
			Provider:      provider,
			Model:         model,
			KnownProvider: err == nil,
		})
	}
	return list
}
