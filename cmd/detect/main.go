package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/smartreview/detection/internal/adapter/backend/bedrock"
	backendhttp "github.com/smartreview/detection/internal/adapter/backend/http"
	"github.com/smartreview/detection/internal/adapter/backend/static"
	"github.com/smartreview/detection/internal/adapter/cli"
	"github.com/smartreview/detection/internal/adapter/observability"
	jsonwriter "github.com/smartreview/detection/internal/adapter/output/json"
	"github.com/smartreview/detection/internal/adapter/output/markdown"
	"github.com/smartreview/detection/internal/adapter/store/sqlite"
	"github.com/smartreview/detection/internal/config"
	"github.com/smartreview/detection/internal/optimize"
	"github.com/smartreview/detection/internal/usecase/detect"
	"github.com/smartreview/detection/internal/usecase/invoke"
	"github.com/smartreview/detection/internal/version"
)

// Compile-time interface checks for the main wiring.
var (
	_ invoke.Backend     = (*bedrock.Client)(nil)
	_ invoke.Backend     = (*static.Backend)(nil)
	_ detect.Invoker     = (*invoke.Invoker)(nil)
	_ detect.Store       = (*sqlite.Store)(nil)
	_ detect.Logger      = (*observability.Logger)(nil)
	_ detect.Optimizer   = (*optimize.Optimizer)(nil)
	_ cli.Detector       = (*detect.Orchestrator)(nil)
	_ cli.ResponseWriter = (*jsonwriter.Writer)(nil)
	_ cli.ResponseWriter = (*markdown.Writer)(nil)
	_ cli.HistoryLister  = (*sqlite.Store)(nil)
)

func main() {
	if err := run(); err != nil {
		log.Println(backendhttp.RedactURLSecrets(err.Error()))
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(config.LoaderOptions{
		ConfigPaths: defaultConfigPaths(),
		FileName:    "detect",
		EnvPrefix:   "DETECT",
	})
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	obsLogger, callLogger, metrics := buildObservability(cfg.Observability)

	backend, err := buildBackend(cfg.Backend)
	if err != nil {
		return err
	}

	invokerOpts := []invoke.Option{}
	if callLogger != nil {
		invokerOpts = append(invokerOpts, invoke.WithLogger(callLogger))
	}
	if metrics != nil {
		invokerOpts = append(invokerOpts, invoke.WithMetrics(metrics))
	}
	invoker := invoke.NewInvoker(backend, backendhttp.NewDefaultPricing(), invoke.Config{
		MinCallInterval: config.Duration(cfg.RateLimit.MinCallInterval, 200*time.Millisecond),
		MaxAttempts:     cfg.RateLimit.MaxAttempts,
		RetryDelay:      config.Duration(cfg.RateLimit.RetryDelay, time.Second),
	}, invokerOpts...)

	orchestratorOpts := []detect.Option{}
	if obsLogger != nil {
		orchestratorOpts = append(orchestratorOpts, detect.WithLogger(obsLogger))
	}
	if cfg.Analysis.Optimize {
		orchestratorOpts = append(orchestratorOpts, detect.WithOptimizer(optimize.New()))
	}

	var history cli.HistoryLister
	if cfg.Store.Enabled {
		storeDir := filepath.Dir(cfg.Store.Path)
		if err := os.MkdirAll(storeDir, 0o755); err != nil {
			log.Printf("warning: failed to create store directory: %v", err)
		} else {
			runStore, err := sqlite.NewStore(cfg.Store.Path)
			if err != nil {
				log.Printf("warning: failed to initialize store: %v", err)
			} else {
				defer runStore.Close()
				orchestratorOpts = append(orchestratorOpts, detect.WithStore(runStore))
				history = runStore
			}
		}
	}

	orchestrator := detect.NewOrchestrator(invoker, detect.Config{
		ModelID:             cfg.Backend.Model,
		MaxTokens:           cfg.Analysis.MaxTokens,
		MaxPromptTokens:     cfg.Analysis.MaxPromptTokens,
		ConfidenceThreshold: cfg.Analysis.ConfidenceThreshold,
		Workers:             cfg.Analysis.Workers,
		SafetyBuffer:        config.Duration(cfg.Analysis.SafetyBuffer, 30*time.Second),
		MinFileTimeout:      config.Duration(cfg.Analysis.MinFileTimeout, 10*time.Second),
	}, orchestratorOpts...)

	nowFunc := func() string {
		return time.Now().UTC().Format("20060102T150405Z")
	}
	var writers []cli.ResponseWriter
	for _, format := range cfg.Output.Formats {
		switch format {
		case "json":
			writers = append(writers, jsonwriter.NewWriter(nowFunc))
		case "markdown":
			writers = append(writers, markdown.NewWriter(nowFunc))
		}
	}

	root := cli.NewRootCommand(cli.Dependencies{
		Detector:      orchestrator,
		Writers:       writers,
		History:       history,
		DefaultOutput: cfg.Output.Directory,
		Version:       version.Value(),
	})

	if err := root.ExecuteContext(ctx); err != nil {
		if errors.Is(err, cli.ErrVersionRequested) {
			return nil
		}
		return fmt.Errorf("command failed: %w", err)
	}
	return nil
}

// buildBackend selects the model backend from configuration.
func buildBackend(cfg config.BackendConfig) (invoke.Backend, error) {
	switch cfg.Name {
	case "bedrock":
		client := bedrock.NewClient(cfg.APIKey)
		if cfg.BaseURL != "" {
			client.SetBaseURL(cfg.BaseURL)
		}
		if cfg.Timeout != "" {
			client.SetTimeout(config.Duration(cfg.Timeout, 60*time.Second))
		}
		return client, nil
	case "static":
		return static.NewBackend(), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Name)
	}
}

// buildObservability creates logging and metrics components from config.
func buildObservability(cfg config.ObservabilityConfig) (*observability.Logger, backendhttp.Logger, backendhttp.Metrics) {
	var obsLogger *observability.Logger
	var callLogger backendhttp.Logger
	var metrics backendhttp.Metrics

	if cfg.Logging.Enabled {
		level := observability.ParseLevel(cfg.Logging.Level)
		format := observability.ParseFormat(cfg.Logging.Format)
		obsLogger = observability.NewLogger(level, format)
		callLogger = backendhttp.NewDefaultLogger(level, format, cfg.Logging.RedactAPIKeys)
	}

	if cfg.Metrics.Enabled {
		metrics = backendhttp.NewDefaultMetrics()
	}

	return obsLogger, callLogger, metrics
}

func defaultConfigPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "detect"))
	}
	return paths
}
