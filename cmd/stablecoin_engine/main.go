package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/common/expfmt"

	"frizo/stablecoin_engine/internal/config"
	"frizo/stablecoin_engine/internal/logger"
	"frizo/stablecoin_engine/internal/metrics"
	"frizo/stablecoin_engine/internal/scenario"
	"frizo/stablecoin_engine/internal/version"
)

var errScenarioFailed = errors.New("scenario had unexpected outcomes")

func main() {
	// Command line flags
	var (
		showVersion    = flag.Bool("version", false, "Show version information")
		showHelp       = flag.Bool("help", false, "Show help information")
		healthCheck    = flag.Bool("health-check", false, "Perform health check")
		configFile     = flag.String("config", ".env.local", "Path to .env configuration file")
		logLevel       = flag.String("log-level", "", "Log level (debug, info, warn, error)")
		deploymentFile = flag.String("deployment", "", "Path to deployment YAML (overrides DEPLOYMENT_FILE)")
		scenarioFile   = flag.String("scenario", "", "Path to scenario YAML (overrides SCENARIO_FILE)")
		dumpMetrics    = flag.Bool("metrics", false, "Print gathered metrics when done")
	)
	flag.Parse()

	// Handle version flag
	if *showVersion {
		fmt.Println(version.String())
		os.Exit(0)
	}

	// Handle help flag
	if *showHelp {
		fmt.Printf("%s %s\n\n", version.Name, version.Short())
		fmt.Println("Usage:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	// Handle health check
	if *healthCheck {
		fmt.Println("OK")
		os.Exit(0)
	}

	// .env first so that Load sees its variables
	envErr := config.LoadEnvFile(*configFile)

	// Load configuration
	cfg := config.Load()

	// Override from command line
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *deploymentFile != "" {
		cfg.DeploymentFile = *deploymentFile
	}
	if *scenarioFile != "" {
		cfg.ScenarioFile = *scenarioFile
	}
	if *dumpMetrics {
		cfg.MetricsDump = true
	}

	// Initialize logger
	log := logger.NewWithOptions(logger.Options{
		Level:     cfg.LogLevel,
		Format:    cfg.LogFormat,
		File:      cfg.LogFile,
		MaxSizeMB: cfg.LogMaxSizeMB,
	})
	logger.SetDefault(log)

	if envErr != nil {
		log.Warn("Configuration file not loaded, using environment", "file", *configFile, "error", envErr)
	}

	log.Info("Starting "+version.Name, append(version.LogAttrs(),
		"environment", cfg.Environment,
		"deployment", cfg.DeploymentFile,
		"scenario", cfg.ScenarioFile,
	)...)

	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m, err := metrics.New(registry)
	if err != nil {
		log.Error("Metrics registration failed", "error", err)
		os.Exit(1)
	}

	runErr := run(ctx, cfg, log, m, os.Stdout)

	if cfg.MetricsDump {
		if err := writeMetrics(os.Stdout, registry); err != nil {
			log.Error("Metrics dump failed", "error", err)
		}
	}

	if runErr != nil {
		log.Error("Application error", "error", runErr)
		stop()
		os.Exit(1)
	}
	log.Info(version.Name + " stopped")
}

// run wires the deployment and replays the configured scenario.
func run(ctx context.Context, cfg *config.Config, log *logger.Logger, m *metrics.Metrics, out io.Writer) error {
	deployment, err := config.LoadDeployment(cfg.DeploymentFile)
	if err != nil {
		return err
	}

	runner, err := scenario.New(deployment, scenario.WithLogger(log), scenario.WithMetrics(m))
	if err != nil {
		return fmt.Errorf("wire deployment: %w", err)
	}
	log.Info("Engine wired",
		"address", runner.Engine().Address(),
		"collateral", runner.Engine().CollateralAssets(),
		"start_time", runner.Now(),
	)

	if cfg.ScenarioFile == "" {
		log.Info("No scenario configured, nothing to replay")
		return nil
	}
	s, err := config.LoadScenario(cfg.ScenarioFile)
	if err != nil {
		return err
	}

	report, err := runner.Run(ctx, s)
	if report != nil {
		report.Print(out)
	}
	if err != nil {
		return err
	}
	if !report.Passed() {
		return fmt.Errorf("%w: %d of %d steps", errScenarioFailed, report.Failures, len(report.Steps))
	}
	return nil
}

func writeMetrics(w io.Writer, registry *prometheus.Registry) error {
	families, err := registry.Gather()
	if err != nil {
		return err
	}
	for _, family := range families {
		if _, err := expfmt.MetricFamilyToText(w, family); err != nil {
			return err
		}
	}
	return nil
}
