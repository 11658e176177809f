// Command legacyimport copies the previous storefront's PostgreSQL database into the
// normalized schema used by the API.
//
//	LEGACY_DATABASE_URL=postgres://... go run ./cmd/legacyimport [-dry-run]
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/DaniilNightingale/EMPIREsite3/config"
	"github.com/DaniilNightingale/EMPIREsite3/legacy"
	"github.com/DaniilNightingale/EMPIREsite3/models"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

func main() {
	source := flag.String("source", os.Getenv("LEGACY_DATABASE_URL"), "connection string of the legacy database")
	dryRun := flag.Bool("dry-run", false, "run the import and roll it back")
	flag.Parse()

	if err := run(*source, *dryRun); err != nil {
		fmt.Fprintf(os.Stderr, "legacy import failed: %v\n", err)
		os.Exit(1)
	}
}

func run(source string, dryRun bool) error {
	if source == "" {
		return errors.New("legacy database URL is required (-source or LEGACY_DATABASE_URL)")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	config.SetConfig(cfg)

	logger, err := config.InitLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, err := sql.Open("postgres", source)
	if err != nil {
		return fmt.Errorf("failed to open legacy database: %w", err)
	}
	defer src.Close()
	if err := src.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to reach legacy database: %w", err)
	}

	if err := config.ConnectDatabase(cfg); err != nil {
		return err
	}
	if err := models.AutoMigrate(config.GetDB()); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	importer := legacy.NewImporter(src, config.GetDB(), logger)
	importer.DryRun = dryRun

	report, err := importer.Run(ctx)
	if err != nil && !errors.Is(err, legacy.ErrDryRun) {
		return err
	}

	logger.Info("import report", zap.Int("warnings", len(report.Warnings)))
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
