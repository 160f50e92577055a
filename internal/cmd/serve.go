package cmd

import (
	"context"
	"sync"
	"time"

	"github.com/fulmenhq/gofulmen/signals"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/providerkit/providerkit/internal/config"
	errwrap "github.com/providerkit/providerkit/internal/errors"
	"github.com/providerkit/providerkit/internal/llm"
	"github.com/providerkit/providerkit/internal/metrics"
	"github.com/providerkit/providerkit/internal/observability"
	"github.com/providerkit/providerkit/internal/server"
	"github.com/providerkit/providerkit/internal/server/handlers"
)

// telemetryHealthChecker ensures telemetry system and exporter are available
type telemetryHealthChecker struct{}

func (telemetryHealthChecker) CheckHealth(ctx context.Context) error {
	if observability.TelemetrySystem == nil || observability.PrometheusExporter == nil {
		return errwrap.NewServiceUnavailableError("telemetry system not initialized")
	}
	return nil
}

// configHealthChecker fails until a configuration has been decoded.
type configHealthChecker struct{}

func (configHealthChecker) CheckHealth(ctx context.Context) error {
	if config.GetConfig() == nil {
		return errwrap.NewConfigInvalidError("configuration not loaded")
	}
	return nil
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the admin HTTP server",
	Long: `Start the admin HTTP server with graceful shutdown support.

Credentials are reloaded atomically when the config file changes or on SIGHUP;
in-flight requests keep the snapshot they started with. Expired cooldowns are
dropped every rate_limit.cleanup_interval.

Signal Handling:
  • Ctrl+C (SIGINT) or SIGTERM: Graceful shutdown
  • Ctrl+C twice within 2s: Force quit
  • SIGHUP: Reload config file and provider credentials`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("host", "localhost", "server host")
	serveCmd.Flags().IntP("port", "p", 8080, "server port")
}

func runServe(cmd *cobra.Command, args []string) error {
	v := appViper
	_ = v.BindPFlag("server.host", cmd.Flags().Lookup("host"))
	_ = v.BindPFlag("server.port", cmd.Flags().Lookup("port"))

	cfg, err := config.Load(v)
	if err != nil {
		return errwrap.WrapConfigInvalid(cmd.Context(), err, "failed to load configuration")
	}

	observability.InitServerLogger(AppName, cfg.Logging.Level, cfg.Logging.Profile)
	logger := observability.ServerLogger

	if cfg.Metrics.Enabled {
		if err := observability.InitMetrics(AppName, cfg.Metrics.Port); err != nil {
			logger.Error("Failed to initialize metrics", zap.Error(err))
			return errwrap.WrapInternal(cmd.Context(), err, "metrics initialization failed")
		}
		metrics.SetServerStartTime(time.Now().Unix())
	}

	manager := llm.NewManager(cfg.LLM,
		llm.WithLogger(logger),
		llm.WithMetrics(metrics.LLMRecorder{}),
	)

	logger.Info("Initializing server",
		zap.String("service", AppName),
		zap.String("version", versionInfo.Version),
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.Bool("metrics_enabled", cfg.Metrics.Enabled),
		zap.Int("metrics_port", cfg.Metrics.Port),
		zap.Int("configured_providers", len(manager.Credentials().Load().Configured())),
		zap.Duration("cooldown", cfg.RateLimit.Cooldown))

	hm := handlers.InitHealthManager(versionInfo.Version)
	hm.RegisterChecker("config", configHealthChecker{})
	if cfg.Metrics.Enabled {
		hm.RegisterChecker("telemetry", telemetryHealthChecker{})
	}
	handlers.SetAppName(AppName)

	srv := server.New(cfg.Server.Host, cfg.Server.Port,
		server.WithManager(manager, currentCooldown(cfg.RateLimit.Cooldown)),
		server.WithAdminToken(cfg.Server.AdminToken),
		server.WithMetricsPort(cfg.Metrics.Port),
		server.WithTimeouts(server.Timeouts{
			Read:  cfg.Server.ReadTimeout,
			Write: cfg.Server.WriteTimeout,
			Idle:  cfg.Server.IdleTimeout,
		}),
	)

	configPath := v.ConfigFileUsed()

	// reloadMu serializes SIGHUP and file-watch reloads.
	var reloadMu sync.Mutex
	applyConfig := func(next *config.Config) {
		reloadMu.Lock()
		defer reloadMu.Unlock()
		manager.ReloadConfig(next.LLM)
	}

	if configPath != "" {
		config.Watch(v, applyConfig, func(err error) {
			logger.Warn("Config file change ignored", zap.Error(err))
		})
		logger.Info("Watching config file for changes", zap.String("file", configPath))
	}

	janitorCtx, stopJanitor := context.WithCancel(context.Background())
	go manager.RunCleanup(janitorCtx, cfg.RateLimit.CleanupInterval, currentCooldown(cfg.RateLimit.Cooldown))

	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}

	// Shutdown handlers run last registered first.
	signals.OnShutdown(func(ctx context.Context) error {
		logger.Info("Flushing logger...")
		if err := logger.Sync(); err != nil {
			logger.Warn("Logger sync returned error (may be benign)", zap.Error(err))
		}
		return nil
	})
	signals.OnShutdown(func(ctx context.Context) error {
		stopJanitor()
		return nil
	})
	signals.OnShutdown(func(ctx context.Context) error {
		shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return errwrap.WrapInternal(ctx, err, "server shutdown failed")
		}
		logger.Info("HTTP server stopped gracefully")
		return nil
	})

	signals.OnReload(func(ctx context.Context) error {
		logger.Info("Received SIGHUP: reloading configuration")
		reloadMu.Lock()
		defer reloadMu.Unlock()

		next, err := reloadFromDisk(configPath)
		if err != nil {
			logger.Error("Config reload failed, keeping current credentials",
				zap.String("file", configPath),
				zap.Error(err))
			return errwrap.WrapConfigInvalid(ctx, err, "config reload failed")
		}
		manager.ReloadConfig(next.LLM)
		return nil
	})

	if err := signals.EnableDoubleTap(signals.DoubleTapConfig{
		Window:  2 * time.Second,
		Message: "Press Ctrl+C again within 2 seconds to force quit",
	}); err != nil {
		logger.Warn("Failed to enable double-tap force quit", zap.Error(err))
	}

	errChan := make(chan error, 2)
	go func() {
		errChan <- srv.Start()
	}()
	go func() {
		if err := signals.Listen(cmd.Context()); err != nil {
			logger.Error("Signal handler error", zap.Error(err))
			errChan <- err
		}
	}()

	err = <-errChan
	stopJanitor()
	if err != nil {
		return errwrap.WrapInternal(cmd.Context(), err, "server error")
	}
	return nil
}

// reloadFromDisk re-reads the env file and the config file at path, if any,
// and decodes the result. It reads into a fresh viper instance: the one passed
// to config.Watch belongs to viper's watcher goroutine.
func reloadFromDisk(path string) (*config.Config, error) {
	if err := loadEnvFile(true); err != nil {
		return nil, err
	}
	v := viper.New()
	config.SetDefaults(v)
	config.BindEnv(v)
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}
	return config.Load(v)
}

// currentCooldown returns the cooldown from the most recently loaded config,
// so a reload changes the window used by the admin endpoints.
func currentCooldown(fallback time.Duration) func() time.Duration {
	return func() time.Duration {
		if cfg := config.GetConfig(); cfg != nil {
			return cfg.RateLimit.Cooldown
		}
		return fallback
	}
}
