// curation-enricher-ai suggests metadata for data catalog datasets using an
// LLM backend: column descriptions, sensitive-column tags, and dataset tags.
//
// Usage:
//
//	curation-enricher-ai enrich <dataset-urn> [-apply] [-output file]
//	curation-enricher-ai batch [-platform name] [-limit n] [-output file]
//	curation-enricher-ai check
//
// Configuration comes from config.yaml (override with -config) plus
// ENRICHER_* environment variables. Secrets are environment-only.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/synchrony-solutions/curation-enricher-ai/pkg/catalog"
	"github.com/synchrony-solutions/curation-enricher-ai/pkg/config"
	"github.com/synchrony-solutions/curation-enricher-ai/pkg/llm"
	"github.com/synchrony-solutions/curation-enricher-ai/pkg/logging"
	"github.com/synchrony-solutions/curation-enricher-ai/pkg/models"
	"github.com/synchrony-solutions/curation-enricher-ai/pkg/retry"
	"github.com/synchrony-solutions/curation-enricher-ai/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	command := os.Args[1]
	args := os.Args[2:]

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch command {
	case "enrich":
		err = runEnrich(ctx, args)
	case "batch":
		err = runBatch(ctx, args)
	case "check":
		err = runCheck(ctx, args)
	case "version":
		fmt.Println(Version)
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", logging.SanitizeError(err))
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage:
  curation-enricher-ai enrich <dataset-urn> [-apply] [-output file] [-config file]
  curation-enricher-ai batch [-platform name] [-limit n] [-output file] [-config file]
  curation-enricher-ai check [-config file]
  curation-enricher-ai version`)
}

// app holds the wired components shared by all commands.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	catalog  *catalog.Client
	backend  llm.Service
	enricher services.EnrichmentService
}

func buildApp(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Processing.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}

	retryCfg := retry.DefaultConfig()
	retryCfg.MaxRetries = cfg.Processing.MaxRetries

	catalogClient := catalog.NewClient(cfg.Catalog.GMSURL, cfg.Catalog.GMSToken, retryCfg, logger)

	settings := cfg.LLMSettings()
	settings.Remote.Retry = retryCfg
	backend, err := llm.NewService(settings, logger)
	if err != nil {
		return nil, fmt.Errorf("init LLM backend: %w", err)
	}

	enricher := services.NewEnrichmentService(
		catalogClient, backend, cfg.Features, cfg.Processing.BatchSize, logger)

	return &app{
		cfg:      cfg,
		logger:   logger,
		catalog:  catalogClient,
		backend:  backend,
		enricher: enricher,
	}, nil
}

func runEnrich(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("enrich", flag.ExitOnError)
	apply := fs.Bool("apply", false, "write suggestions back to the catalog")
	output := fs.String("output", "", "write suggestions JSON to this file instead of stdout")
	configPath := fs.String("config", "config.yaml", "path to config file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("enrich requires exactly one dataset URN")
	}
	datasetURN := fs.Arg(0)

	a, err := buildApp(*configPath)
	if err != nil {
		return err
	}
	defer a.logger.Sync()

	suggestions, err := a.enricher.Enrich(ctx, datasetURN)
	if err != nil {
		return fmt.Errorf("enrich %s: %w", datasetURN, err)
	}

	if *apply {
		applied := 0
		for _, s := range suggestions {
			if a.enricher.Apply(ctx, s) {
				applied++
			}
		}
		a.logger.Info("Applied suggestions",
			zap.Int("applied", applied),
			zap.Int("total", len(suggestions)))
	}

	return writeJSON(*output, suggestions)
}

func runBatch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("batch", flag.ExitOnError)
	platform := fs.String("platform", "", "only enrich datasets from this platform")
	limit := fs.Int("limit", 50, "maximum number of datasets to enrich")
	output := fs.String("output", "", "write suggestions JSON to this file instead of stdout")
	configPath := fs.String("config", "config.yaml", "path to config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := buildApp(*configPath)
	if err != nil {
		return err
	}
	defer a.logger.Sync()

	datasets, err := a.catalog.ListDatasets(ctx, *platform, *limit)
	if err != nil {
		return fmt.Errorf("list datasets: %w", err)
	}
	if len(datasets) == 0 {
		a.logger.Info("No datasets matched", zap.String("platform", *platform))
		return writeJSON(*output, map[string][]models.Suggestion{})
	}

	urns := make([]string, len(datasets))
	for i, d := range datasets {
		urns[i] = d.URN
	}

	a.logger.Info("Starting batch enrichment",
		zap.Int("datasets", len(urns)),
		zap.Int("concurrency", a.cfg.Processing.BatchSize))

	results := a.enricher.EnrichBatch(ctx, urns)
	return writeJSON(*output, results)
}

func runCheck(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "path to config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := buildApp(*configPath)
	if err != nil {
		return err
	}
	defer a.logger.Sync()

	ok := true

	if err := a.catalog.CheckConnection(ctx); err != nil {
		fmt.Printf("catalog: FAILED (%s)\n", logging.SanitizeError(err))
		ok = false
	} else {
		fmt.Printf("catalog: ok (%s)\n", a.cfg.Catalog.GMSURL)
	}

	if a.backend.CheckConnection(ctx) {
		fmt.Printf("llm backend: ok (%s)\n", a.backend.BackendName())
	} else {
		fmt.Printf("llm backend: FAILED (%s)\n", a.backend.BackendName())
		ok = false
	}

	if !ok {
		return fmt.Errorf("connection check failed")
	}
	return nil
}

// writeJSON renders v as indented JSON to path, or stdout when path is
// empty.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	data = append(data, '\n')

	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write output file: %w", err)
	}
	return nil
}
