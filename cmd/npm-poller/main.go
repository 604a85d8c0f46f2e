package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/netnynja/netnynja/pkg/config"
	"github.com/netnynja/netnynja/pkg/crypto/secrets"
	"github.com/netnynja/netnynja/pkg/db"
	"github.com/netnynja/netnynja/pkg/icmp"
	"github.com/netnynja/netnynja/pkg/lifecycle"
	"github.com/netnynja/netnynja/pkg/logger"
	"github.com/netnynja/netnynja/pkg/natsutil"
	"github.com/netnynja/netnynja/pkg/npm"
	"github.com/netnynja/netnynja/pkg/snmp"
	"github.com/netnynja/netnynja/pkg/version"
)

var errFailedToLoadConfig = fmt.Errorf("failed to load config")

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := flag.String("config", "/etc/netnynja/npm.json", "Path to poller config file")
	flag.Parse()

	ctx := context.Background()

	cfgLoader := config.NewConfig(nil)

	var cfg npm.Config

	// Secrets omitted from the config file can come from the environment.
	cfg.Database.Password = os.Getenv("NETNYNJA_DB_PASSWORD")
	cfg.CredentialKey = os.Getenv("NETNYNJA_CREDENTIAL_SECRET")

	if err := cfgLoader.LoadAndValidate(ctx, *configPath, &cfg); err != nil {
		return fmt.Errorf("%w: %w", errFailedToLoadConfig, err)
	}

	logConfig := cfg.Logging
	if logConfig == nil {
		logConfig = &logger.Config{Level: "info", Output: "stdout"}
	}

	pollerLogger, err := lifecycle.CreateComponentLogger(ctx, "npm-poller", logConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	pollerLogger.Info().Str("version", version.GetFullVersion()).Msg("Starting npm-poller")

	pool, err := db.NewPool(ctx, &cfg.Database, pollerLogger)
	if err != nil {
		return err
	}
	defer pool.Close()

	cipher, err := secrets.NewCipher(cfg.CredentialKey)
	if err != nil {
		return fmt.Errorf("failed to initialize credential cipher: %w", err)
	}

	var bus *npm.Bus

	if cfg.NATS != nil {
		nc, err := natsutil.Connect(cfg.NATS, pollerLogger)
		if err != nil {
			return err
		}
		defer nc.Close()

		js, err := natsutil.NewJetStream(nc, cfg.NATS.Domain)
		if err != nil {
			return err
		}

		bus, err = npm.NewBus(ctx, nc, js, pollerLogger)
		if err != nil {
			return err
		}
	}

	store := npm.NewStore(pool, pollerLogger)
	pinger := icmp.NewSystemPinger(cfg.PingCount, time.Duration(cfg.PingTimeout), pollerLogger)
	collector := npm.NewCollector(&cfg, pinger, snmp.Dial, cipher, pollerLogger)

	var tsdb *npm.TSDBClient
	if cfg.TSDBURL != "" {
		tsdb = npm.NewTSDBClient(cfg.TSDBURL, pollerLogger)
	}

	sink := npm.NewSink(store, tsdb, bus, pollerLogger)
	scheduler := npm.NewScheduler(&cfg, store, collector, sink, bus, pollerLogger)

	return lifecycle.Run(ctx, &lifecycle.RunOptions{
		ServiceName: "npm-poller",
		Service:     scheduler,
	}, pollerLogger)
}
