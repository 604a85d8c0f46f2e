package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/netnynja/netnynja/pkg/config"
	"github.com/netnynja/netnynja/pkg/db"
	"github.com/netnynja/netnynja/pkg/lifecycle"
	"github.com/netnynja/netnynja/pkg/logger"
	"github.com/netnynja/netnynja/pkg/natsutil"
	"github.com/netnynja/netnynja/pkg/syslog"
	"github.com/netnynja/netnynja/pkg/version"
)

var errFailedToLoadConfig = fmt.Errorf("failed to load config")

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := flag.String("config", "/etc/netnynja/syslog.json", "Path to syslog config file")
	flag.Parse()

	ctx := context.Background()

	cfgLoader := config.NewConfig(nil)

	var cfg syslog.Config

	cfg.Database.Password = os.Getenv("NETNYNJA_DB_PASSWORD")

	if err := cfgLoader.LoadAndValidate(ctx, *configPath, &cfg); err != nil {
		return fmt.Errorf("%w: %w", errFailedToLoadConfig, err)
	}

	logConfig := cfg.Logging
	if logConfig == nil {
		logConfig = &logger.Config{Level: "info", Output: "stdout"}
	}

	syslogLogger, err := lifecycle.CreateComponentLogger(ctx, "syslog", logConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	syslogLogger.Info().Str("version", version.GetFullVersion()).Msg("Starting syslog service")

	pool, err := db.NewPool(ctx, &cfg.Database, syslogLogger)
	if err != nil {
		return err
	}
	defer pool.Close()

	store := syslog.NewStore(pool, syslogLogger)

	var publisher syslog.EventPublisher

	if cfg.NATS != nil {
		nc, err := natsutil.Connect(cfg.NATS, syslogLogger)
		if err != nil {
			return err
		}
		defer nc.Close()

		publisher = syslog.NewPublisher(nc, syslogLogger)
	}

	collector := syslog.NewCollector(store, publisher, cfg.BatchSize, time.Duration(cfg.FlushInterval), syslogLogger)
	janitor := syslog.NewJanitor(store, time.Duration(cfg.JanitorInterval), syslogLogger)
	service := syslog.NewService(&cfg, collector, janitor, syslogLogger)

	return lifecycle.Run(ctx, &lifecycle.RunOptions{
		ServiceName: "syslog",
		Service:     service,
	}, syslogLogger)
}
