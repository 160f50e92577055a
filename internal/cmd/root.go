package cmd

import (
	"errors"
	"os"
	"path/filepath"

	gfconfig "github.com/fulmenhq/gofulmen/config"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/providerkit/providerkit/internal/config"
	"github.com/providerkit/providerkit/internal/observability"
)

// AppName is the binary name and the config directory name.
const AppName = "providerkit"

var (
	cfgFile string
	envFile string
	verbose bool

	// appViper holds the layered configuration for the current invocation.
	appViper *viper.Viper

	// Version info set by main package
	versionInfo struct {
		Version   string
		Commit    string
		BuildDate string
	}
)

// SetVersionInfo is called by main package to set version information
func SetVersionInfo(version, commit, buildDate string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.BuildDate = buildDate
}

var rootCmd = &cobra.Command{
	Use:   AppName,
	Short: "LLM provider credentials and rate limit cooldowns",
	Long: `providerkit manages API credentials for LLM providers and tracks
per-model rate limit cooldowns.

Credentials come from the config file and PROVIDERKIT_<PROVIDER>_API_KEY
environment variables. The serve command reloads them on SIGHUP or when the
config file changes.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Keep config loading from emitting metrics to stdout; serve installs
	// the real telemetry system.
	observability.DisableMetrics()

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/providerkit/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file with PROVIDERKIT_* variables, loaded before the environment is read")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (sets log level to debug)")
}

// initConfig builds a fresh viper instance from defaults, the config file and
// the environment.
func initConfig() {
	observability.InitCLILogger(AppName, verbose)

	if err := loadEnvFile(false); err != nil {
		observability.CLILogger.Warn("Failed to load env file", zap.String("path", envFile), zap.Error(err))
	}

	v := viper.New()
	config.SetDefaults(v)
	config.BindEnv(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		for _, dir := range configSearchPaths() {
			v.AddConfigPath(dir)
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound):
			observability.CLILogger.Debug("No config file found, using defaults and environment variables")
		case cfgFile != "" && errors.Is(err, os.ErrNotExist):
			observability.CLILogger.Warn("Config file does not exist", zap.String("path", cfgFile))
		default:
			observability.CLILogger.Warn("Error reading config file", zap.Error(err))
		}
	} else {
		observability.CLILogger.Debug("Using config file", zap.String("path", v.ConfigFileUsed()))
	}

	appViper = v
}

// loadEnvFile applies --env-file to the process environment. Variables that
// are already set win unless override is true (used on reload).
func loadEnvFile(override bool) error {
	if envFile == "" {
		return nil
	}
	if override {
		return godotenv.Overload(envFile)
	}
	return godotenv.Load(envFile)
}

// configSearchPaths lists directories searched for config.yaml, highest priority first.
func configSearchPaths() []string {
	var dirs []string
	if dir := gfconfig.GetAppConfigDir(AppName); dir != "" {
		dirs = append(dirs, dir)
	} else if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, "."+AppName))
	}
	return append(dirs, "./config")
}

// loadConfig decodes the current viper state.
func loadConfig() (*config.Config, error) {
	if appViper == nil {
		initConfig()
	}
	return config.Load(appViper)
}
