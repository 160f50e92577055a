package cmd

import (
	"fmt"
	"runtime"

	"github.com/fulmenhq/gofulmen/crucible"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/providerkit/providerkit/internal/config"
	errwrap "github.com/providerkit/providerkit/internal/errors"
	"github.com/providerkit/providerkit/internal/llm"
	"github.com/providerkit/providerkit/internal/observability"
)

var envInfoCmd = &cobra.Command{
	Use:   "envinfo",
	Short: "Display environment information",
	Long:  "Display version, configuration and provider credential status. Secrets are reported as set or not set.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return errwrap.WrapConfigInvalid(cmd.Context(), err, "failed to load configuration")
		}
		log := observability.CLILogger
		deps := crucible.GetVersion()

		log.Info("=== providerkit Environment Information ===")
		log.Info("")

		log.Info("Application:")
		log.Info("  Version:    " + versionInfo.Version)
		log.Info("  Commit:     " + versionInfo.Commit)
		log.Info("  Built:      " + versionInfo.BuildDate)
		log.Info("  Go:         " + runtime.Version())
		log.Info("  Platform:   " + runtime.GOOS + "/" + runtime.GOARCH)
		log.Info("  Gofulmen:   " + deps.Gofulmen)
		log.Info("  Crucible:   " + deps.Crucible)
		log.Info("")

		configFile := appViper.ConfigFileUsed()
		if configFile == "" {
			configFile = "(none, defaults and environment only)"
		}
		log.Info("Configuration:")
		log.Info("  File:             " + configFile)
		log.Info("  Env prefix:       " + config.EnvPrefix + "_")
		log.Info(fmt.Sprintf("  Server:           %s:%d", cfg.Server.Host, cfg.Server.Port))
		log.Info("  Log level:        " + cfg.Logging.Level)
		log.Info("  Request timeout:  " + cfg.LLM.RequestTimeout.String())
		log.Info("  Cooldown:         " + cfg.RateLimit.Cooldown.String())
		log.Info("  Cleanup interval: " + cfg.RateLimit.CleanupInterval.String())
		log.Info(fmt.Sprintf("  Metrics:          %t (port %d)", cfg.Metrics.Enabled, cfg.Metrics.Port),
			zap.Bool("metrics_enabled", cfg.Metrics.Enabled))
		log.Info("")

		set := llm.NewCredentialSet(cfg.LLM)
		log.Info("Providers:")
		for _, p := range llm.Providers() {
			state := "(not set)"
			if _, ok := set.Key(p); ok {
				state = "(set)"
			}
			log.Info(fmt.Sprintf("  %-13s %-10s %s", p, state, config.ProviderKeyEnv(p)))
		}
		if url, ok := set.OllamaBaseURL(); ok {
			log.Info("  ollama base URL: " + url)
		}
		log.Info("")

		log.Info("=== End Environment Information ===")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(envInfoCmd)
}
