package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/netnynja/netnynja/pkg/config"
	"github.com/netnynja/netnynja/pkg/db"
	"github.com/netnynja/netnynja/pkg/lifecycle"
	"github.com/netnynja/netnynja/pkg/logger"
	"github.com/netnynja/netnynja/pkg/natsutil"
	"github.com/netnynja/netnynja/pkg/stig"
	"github.com/netnynja/netnynja/pkg/version"
)

var (
	errFailedToLoadConfig = fmt.Errorf("failed to load config")
	errNATSRequired       = errors.New("nats configuration is required to run the audit worker")
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := flag.String("config", "/etc/netnynja/stig.json", "Path to stig engine config file")
	rescan := flag.Bool("rescan", false, "Rebuild the STIG library index and exit")
	flag.Parse()

	ctx := context.Background()

	cfgLoader := config.NewConfig(nil)

	var cfg stig.Config

	cfg.Database.Password = os.Getenv("NETNYNJA_DB_PASSWORD")

	if err := cfgLoader.LoadAndValidate(ctx, *configPath, &cfg); err != nil {
		return fmt.Errorf("%w: %w", errFailedToLoadConfig, err)
	}

	logConfig := cfg.Logging
	if logConfig == nil {
		logConfig = &logger.Config{Level: "info", Output: "stdout"}
	}

	stigLogger, err := lifecycle.CreateComponentLogger(ctx, "stig-engine", logConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	stigLogger.Info().Str("version", version.GetFullVersion()).Msg("Starting stig-engine")

	indexer := stig.NewIndexer(cfg.LibraryPath, stigLogger)

	if *rescan {
		if _, err := indexer.Rescan(); err != nil {
			return err
		}

		summary := indexer.Summary()
		stigLogger.Info().
			Int("entries", summary.TotalEntries).
			Int("stigs", summary.STIGs).
			Int("srgs", summary.SRGs).
			Int("rules", summary.TotalRules).
			Msg("Library index rebuilt")

		return nil
	}

	if _, err := indexer.Load(); err != nil {
		return err
	}

	summary := indexer.Summary()
	stigLogger.Info().
		Int("entries", summary.TotalEntries).
		Int("stigs", summary.STIGs).
		Int("srgs", summary.SRGs).
		Msg("STIG library ready")

	if cfg.NATS == nil {
		return errNATSRequired
	}

	pool, err := db.NewPool(ctx, &cfg.Database, stigLogger)
	if err != nil {
		return err
	}
	defer pool.Close()

	nc, err := natsutil.Connect(cfg.NATS, stigLogger)
	if err != nil {
		return err
	}
	defer nc.Close()

	js, err := natsutil.NewJetStream(nc, cfg.NATS.Domain)
	if err != nil {
		return err
	}

	store := stig.NewStore(pool, stigLogger)

	worker, err := stig.NewWorker(ctx, js, store, indexer, stigLogger)
	if err != nil {
		return err
	}

	return lifecycle.Run(ctx, &lifecycle.RunOptions{
		ServiceName: "stig-engine",
		Service:     worker,
	}, stigLogger)
}
