// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/poiesic/reqmatch"
	"github.com/poiesic/reqmatch/ai/hashing"
	"github.com/poiesic/reqmatch/catalogue"
	"github.com/poiesic/reqmatch/config"
	"github.com/poiesic/reqmatch/reembed"
	"github.com/poiesic/reqmatch/search"
	"github.com/poiesic/reqmatch/server"
	"github.com/poiesic/reqmatch/training"
	"github.com/urfave/cli/v2"
)

func main() {
	app := newApp()
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "reqmatch",
		Usage: "Match requirements against a standards catalogue",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "import",
				Usage:     "Load standards and requirements from a catalogue file",
				ArgsUsage: "<catalogue.yaml>",
				Action:    importCommand,
				Flags:     storeFlags(),
			},
			{
				Name:      "search",
				Usage:     "Find requirements similar to a query",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: append(storeFlags(),
					&cli.Float64Flag{
						Name:  "threshold",
						Usage: "Minimum similarity for a match (overrides config)",
					},
				),
			},
			{
				Name:   "prepare",
				Usage:  "Join and label-encode the catalogue into a training set",
				Action: prepareCommand,
				Flags: append(storeFlags(),
					&cli.StringFlag{
						Name:     "out",
						Aliases:  []string{"o"},
						Usage:    "Path of the Parquet file to write",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "sample-limit",
						Usage: "Maximum joined records to encode, 0 for all (overrides config)",
					},
					&cli.StringFlag{
						Name:  "label-map",
						Usage: "Name under which to persist and continue the label map (overrides config)",
					},
				),
			},
			{
				Name:   "reembed",
				Usage:  "Refresh cached embeddings for every requirement",
				Action: reembedCommand,
				Flags: append(storeFlags(),
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of requirements to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N requirements",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
					&cli.BoolFlag{
						Name:  "purge",
						Usage: "Delete every cached embedding before reembedding",
					},
				),
			},
			{
				Name:   "serve",
				Usage:  "Serve the catalogue and search over HTTP",
				Action: serveCommand,
				Flags: append(storeFlags(),
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address (overrides config)",
					},
				),
			},
		},
	}
}

// storeFlags are shared by every command that opens the store.
func storeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			Aliases: []string{"d"},
			Usage:   "Path to BadgerDB database directory (overrides config)",
		},
		&cli.StringFlag{
			Name:  "provider",
			Usage: "Embedding provider, openai or hashing (overrides config)",
		},
		&cli.StringFlag{
			Name:  "embedding-host",
			Usage: "Embedding service host URL (overrides config)",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name (overrides config)",
		},
	}
}

// loadConfig reads the config file and environment, then applies flag overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}

	if c.IsSet("db") {
		cfg.Database.Path = c.String("db")
	}
	if c.IsSet("provider") {
		cfg.Embedding.Provider = c.String("provider")
	}
	if c.IsSet("embedding-host") {
		cfg.Embedding.Host = c.String("embedding-host")
	}
	if c.IsSet("embedding-model") {
		cfg.Embedding.Model = c.String("embedding-model")
	}
	if c.IsSet("threshold") {
		cfg.Search.Threshold = c.Float64("threshold")
	}
	if c.IsSet("sample-limit") {
		cfg.Training.SampleLimit = c.Int("sample-limit")
	}
	if c.IsSet("label-map") {
		cfg.Training.LabelMap = c.String("label-map")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !c.IsSet("log-level") && cfg.Log.Level != "" {
		if err := configureLogger(cfg.Log.Level); err != nil {
			return nil, err
		}
	}
	if cfg.Database.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}
	return cfg, nil
}

// openAnalyzer opens the store described by cfg.
func openAnalyzer(cfg *config.Config) (*reqmatch.Analyzer, error) {
	aiConfig := cfg.AIConfig()
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	opts := []reqmatch.Option{
		reqmatch.WithAIConfig(aiConfig),
		reqmatch.WithSearchOptions(
			search.WithThreshold(float32(cfg.Search.Threshold)),
			search.WithPoolSize(cfg.Search.PoolSize),
		),
		reqmatch.WithTrainingOptions(training.WithSampleLimit(cfg.Training.SampleLimit)),
	}
	if cfg.Embedding.Provider == config.ProviderHashing {
		opts = append(opts, reqmatch.WithProvider(hashing.NewProvider(aiConfig)))
	}
	if cfg.Training.LabelMap != "" {
		opts = append(opts, reqmatch.WithLabelMapName(cfg.Training.LabelMap))
	}

	analyzer, err := reqmatch.Open(cfg.Database.Path, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return analyzer, nil
}

func printSettings(cfg *config.Config) {
	fmt.Fprintf(os.Stderr, "Database: %s\n", cfg.Database.Path)
	fmt.Fprintf(os.Stderr, "Embedding provider: %s\n", cfg.Embedding.Provider)
	if cfg.Embedding.Provider == config.ProviderOpenAI {
		fmt.Fprintf(os.Stderr, "Embedding host: %s\n", cfg.Embedding.Host)
		fmt.Fprintf(os.Stderr, "Embedding model: %s\n", cfg.Embedding.Model)
	}
	fmt.Fprintln(os.Stderr)
}

func importCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("exactly one catalogue file is required")
	}

	cat, err := catalogue.Load(c.Args().First())
	if err != nil {
		return fmt.Errorf("failed to load catalogue: %w", err)
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	analyzer, err := openAnalyzer(cfg)
	if err != nil {
		return err
	}
	defer analyzer.Close()

	printSettings(cfg)

	result, err := analyzer.Ingest(c.Context, cat.Standards, cat.Requirements)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	fmt.Fprintf(c.App.Writer, "Imported %d standards and %d requirements\n", result.Standards, result.Requirements)
	return nil
}

func searchCommand(c *cli.Context) error {
	query := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("a query is required")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	analyzer, err := openAnalyzer(cfg)
	if err != nil {
		return err
	}
	defer analyzer.Close()

	results, err := analyzer.SearchRequirementsScored(c.Context, query)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	w := c.App.Writer
	fmt.Fprintf(w, "Found %d matches at threshold %0.2f\n", len(results), analyzer.Threshold())
	for i, hit := range results {
		fmt.Fprintf(w, "%d: %s [%0.3f] %s\n", i, hit.Item.ReferenceID, hit.Score, hit.Item.Description)
	}
	return nil
}

func prepareCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	analyzer, err := openAnalyzer(cfg)
	if err != nil {
		return err
	}
	defer analyzer.Close()

	dataset, err := analyzer.PrepareTrainingSet(c.Context)
	if err != nil {
		return fmt.Errorf("preparation failed: %w", err)
	}

	out := c.String("out")
	if err := training.WriteParquet(out, dataset.Records, dataset.Labels); err != nil {
		return fmt.Errorf("failed to write training set: %w", err)
	}

	w := c.App.Writer
	fmt.Fprintf(w, "Requirements: %d\n", dataset.Stats.Requirements)
	fmt.Fprintf(w, "Matched: %d\n", dataset.Stats.Matched)
	fmt.Fprintf(w, "Dropped: %d\n", dataset.Stats.Dropped)
	fmt.Fprintf(w, "Sampled out: %d\n", dataset.Sampled)
	fmt.Fprintf(w, "Labels: %d\n", dataset.Labels.Len())
	fmt.Fprintf(w, "Wrote %d records to %s\n", len(dataset.Records), out)
	return nil
}

func reembedCommand(c *cli.Context) error {
	reembedConfig := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
		Purge:          c.Bool("purge"),
	}

	// Validate config
	if reembedConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if reembedConfig.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if reembedConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	analyzer, err := openAnalyzer(cfg)
	if err != nil {
		return err
	}
	defer analyzer.Close()

	reembedder, err := analyzer.NewReembedder(reembedConfig, os.Stderr)
	if err != nil {
		return err
	}

	printSettings(cfg)

	stats, err := reembedder.Run(c.Context)
	if err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}

	fmt.Fprintf(c.App.Writer, "Embedded %d texts for %d requirements (%d purged)\n", stats.Embedded, stats.Requirements, stats.Purged)
	return nil
}

func serveCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	addr := cfg.Addr()
	if c.IsSet("addr") {
		addr = c.String("addr")
	}

	analyzer, err := openAnalyzer(cfg)
	if err != nil {
		return err
	}
	defer analyzer.Close()

	srv := server.New(addr, cfg.Server.Mode, analyzer)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", addr)
		errCh <- srv.Start()
	}()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}

func setupLogger(c *cli.Context) error {
	return configureLogger(c.String("log-level"))
}

// configureLogger installs a text handler on stderr as the default logger.
func configureLogger(name string) error {
	levelStr := strings.ToLower(name)

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
