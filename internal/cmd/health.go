package cmd

import (
	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	errwrap "github.com/providerkit/providerkit/internal/errors"
	"github.com/providerkit/providerkit/internal/llm"
	"github.com/providerkit/providerkit/internal/observability"
)

var requireKeys bool

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Run self-health check",
	Long: `Verify that the configuration decodes and the credential store can be built.
With --require-keys the check also fails when no provider has a key.`,
	Run: func(cmd *cobra.Command, args []string) {
		log := observability.CLILogger
		log.Info("Running health check...")

		if versionInfo.Version == "" {
			ExitWithCode(log, foundry.ExitConfigInvalid, "Version information missing",
				errwrap.NewConfigInvalidError("Version information missing"))
			return
		}
		log.Info("✅ Version information available")

		cfg, err := loadConfig()
		if err != nil {
			ExitWithCode(log, foundry.ExitConfigInvalid, "Configuration invalid",
				errwrap.WrapConfigInvalid(cmd.Context(), err, "failed to load configuration"))
			return
		}
		log.Info("✅ Configuration loaded")

		configured := llm.NewCredentialSet(cfg.LLM).Configured()
		log.Debug("Credential snapshot built", zap.Int("configured_providers", len(configured)))
		if len(configured) == 0 && requireKeys {
			ExitWithCode(log, foundry.ExitConfigInvalid, "No provider API keys configured",
				errwrap.NewConfigInvalidError("no provider API keys configured"))
			return
		}
		log.Info("✅ Credential store ready", zap.Int("configured_providers", len(configured)))

		log.Info("")
		log.Info("✅ All health checks passed")
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
	healthCmd.Flags().BoolVar(&requireKeys, "require-keys", false, "fail when no provider API key is configured")
}
