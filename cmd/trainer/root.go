package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"mmmcli/internal/config"
	"mmmcli/internal/infrastructure"
	"mmmcli/internal/services"
	"mmmcli/internal/training"
)

// app holds the state shared by every subcommand of one invocation.
type app struct {
	cfgFile     string
	metricsAddr string
	verbose     bool

	cfg        *config.Config
	paths      *config.Paths
	logger     *slog.Logger
	otel       *infrastructure.OTelProviders
	cmdMetrics *infrastructure.CommandMetrics
	stopServe  context.CancelFunc
}

func newApp() *app {
	return &app{}
}

// execute runs the command tree with args and releases telemetry afterwards.
func (a *app) execute(ctx context.Context, args []string) error {
	root := a.rootCmd()
	root.SetArgs(args)
	defer a.shutdown()
	return root.ExecuteContext(ctx)
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "trainer",
		Short: "Train marketing-mix models over a transformation parameter sweep",
		Long: `trainer fits constrained marketing-mix models for every combination of
media transformation parameters and stores one scored record per
combination and model.

Examples:
  trainer combinations --job jobs/north.yaml
  trainer train --job jobs/north.yaml
  trainer elasticity --run 3f6c... --transforms data/transforms/north.yaml
  trainer export --run 3f6c... --format xlsx`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default: mmm.yaml, config.yaml or configs/config.yaml)")
	root.PersistentFlags().StringVar(&a.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while the command runs")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		a.trainCmd(),
		a.combinationsCmd(),
		a.elasticityCmd(),
		a.exportCmd(),
		a.runsCmd(),
		versionCmd(),
	)
	return root
}

// setup loads the configuration and initialises logging, paths and telemetry.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	if a.verbose {
		cfg.Logging.Level = "debug"
	}
	if a.metricsAddr != "" {
		cfg.Telemetry.MetricsAddr = a.metricsAddr
	}
	a.cfg = cfg

	if a.paths, err = cfg.ResolvePaths(); err != nil {
		return err
	}
	if err := a.paths.EnsureDirectories(); err != nil {
		return err
	}
	cfg.Logging.FilePath = a.paths.GetLogPath(cfg.Logging.FilePath)

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	a.logger = logger
	a.paths.LogPathResolution()

	otelCfg := infrastructure.OTelConfigFrom(cfg.Telemetry)
	if !otelCfg.EnableTracing && !otelCfg.EnableMetrics {
		return nil
	}
	if a.otel, err = infrastructure.InitializeOTel(otelCfg, logger); err != nil {
		return err
	}
	if a.otel.Meter != nil {
		if a.cmdMetrics, err = infrastructure.CreateCommandMetrics(a.otel.Meter); err != nil {
			return err
		}
	}
	if addr := cfg.Telemetry.MetricsAddr; addr != "" && a.otel.PrometheusHTTP != nil {
		serveCtx, cancel := context.WithCancel(context.WithoutCancel(cmd.Context()))
		a.stopServe = cancel
		go func() {
			if err := a.otel.ServeMetrics(serveCtx, addr); err != nil {
				infrastructure.WithError(logger, err).Error("Metrics endpoint stopped")
			}
		}()
	}
	return nil
}

// shutdown flushes telemetry.
func (a *app) shutdown() {
	if a.stopServe != nil {
		a.stopServe()
	}
	if a.otel == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.otel.Shutdown(ctx); err != nil && a.logger != nil {
		infrastructure.WithError(a.logger, err).Warn("Telemetry shutdown failed")
	}
}

// run wraps a subcommand body with command metrics and failure logging.
func (a *app) run(name string, fn func(ctx context.Context, out io.Writer) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		ctx, span := infrastructure.StartSpan(cmd.Context(), "command."+name, map[string]interface{}{
			"command": name,
			"config":  a.cfgFile,
		})
		defer span.End()
		ctx = infrastructure.EnsureTraceID(ctx)
		started := time.Now()

		err := fn(ctx, cmd.OutOrStdout())

		infrastructure.RecordCommand(ctx, a.cmdMetrics, name, time.Since(started), err)
		if err != nil {
			infrastructure.RecordError(ctx, err)
			infrastructure.WithError(a.logger, err).ErrorContext(ctx, "Command failed",
				slog.String("command", name))
		}
		return err
	}
}

// service builds the training service from the loaded configuration.
func (a *app) service() *services.TrainingService {
	trainer := training.New(a.cfg.TrainingOptions(), a.logger)
	return services.NewTrainingService(trainer, a.paths, a.logger,
		services.WithCommandMetrics(a.cmdMetrics))
}
