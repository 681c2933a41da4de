package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/bkyoung/pull-analyzer/internal/adapter/cli"
	"github.com/bkyoung/pull-analyzer/internal/adapter/github"
	"github.com/bkyoung/pull-analyzer/internal/adapter/llm/openai"
	"github.com/bkyoung/pull-analyzer/internal/adapter/observability"
	jsonout "github.com/bkyoung/pull-analyzer/internal/adapter/output/json"
	"github.com/bkyoung/pull-analyzer/internal/config"
	"github.com/bkyoung/pull-analyzer/internal/domain"
	"github.com/bkyoung/pull-analyzer/internal/usecase/report"
	"github.com/bkyoung/pull-analyzer/internal/version"
)

func main() {
	if err := run(); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}

func run() error {
	// Cancellable context with signal handling for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	settings, err := config.Load(config.LoaderOptions{
		ConfigPaths: defaultConfigPaths(),
		FileName:    "pa",
		EnvPrefix:   "PA",
	})
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	root := cli.NewRootCommand(cli.Dependencies{
		Runner: &app{
			settings: settings,
			input:    os.Stdin,
			output:   os.Stdout,
		},
		Version: version.Value(),
	})

	if err := root.ExecuteContext(ctx); err != nil {
		if errors.Is(err, cli.ErrVersionRequested) {
			return nil
		}
		return fmt.Errorf("command failed: %w", err)
	}
	return nil
}

func defaultConfigPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "pa"))
	}
	return paths
}

// app wires the adapters together once the manifest is available.
type app struct {
	settings config.Settings
	input    io.Reader
	output   io.Writer
}

// GenerateReport implements cli.ReportRunner.
func (a *app) GenerateReport(ctx context.Context, opts cli.RunOptions) error {
	logger, err := observability.NewLogger(a.settings.Logging, opts.Verbose)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("loading manifest from stdin")
	manifest, err := config.LoadManifest(a.input)
	if err != nil {
		return err
	}
	logger.Info("manifest loaded")

	ghClient := github.NewClient(manifest.GitHub, a.settings.HTTP, logger)
	fetcher := github.NewFetcher(ghClient, logger)

	completer := openai.NewClient(manifest.OpenAI, a.settings.HTTP, a.settings.RateLimit)
	completer.SetLogger(observability.NewRequestLogger(logger))

	generator := report.NewGenerator(report.Deps{
		Searcher:  ghClient,
		Fetcher:   fetcher,
		Completer: completer,
		Prompts: domain.Prompts{
			Grounding: manifest.Report.GroundingPrompt,
			Pull:      manifest.Report.PullPrompt,
			Overview:  manifest.Report.OverviewPrompt,
		},
		MaxWorkers: a.settings.Concurrency.MaxWorkers,
		Logger:     logger,
	})

	logger.Info("generating report")
	result, err := generator.Generate(ctx)
	if err != nil {
		return err
	}
	logger.Info("report generated")

	return jsonout.NewWriter(a.output).Write(result)
}

// Compile-time interface compliance checks
var _ cli.ReportRunner = (*app)(nil)
var _ report.Searcher = (*github.Client)(nil)
var _ report.ConversationFetcher = (*github.Fetcher)(nil)
var _ report.Completer = (*openai.Client)(nil)
