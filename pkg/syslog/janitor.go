package syslog

import (
	"context"
	"time"

	"github.com/netnynja/netnynja/pkg/logger"
)

// RetentionStore is the slice of Store the janitor needs.
type RetentionStore interface {
	EnforceRetention(ctx context.Context) (int64, error)
}

// Janitor keeps the events table inside its byte quota by periodically
// running the store's retention pass.
type Janitor struct {
	store    RetentionStore
	interval time.Duration
	logger   logger.Logger
}

// NewJanitor returns a janitor running every interval.
func NewJanitor(store RetentionStore, interval time.Duration, log logger.Logger) *Janitor {
	return &Janitor{store: store, interval: interval, logger: log}
}

// Run loops until ctx is canceled. The first pass runs one full
// interval after start.
func (j *Janitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := j.store.EnforceRetention(ctx)
			if err != nil {
				j.logger.Error().Err(err).Msg("Failed to manage buffer size")
				continue
			}

			if deleted > 0 {
				j.logger.Info().Int64("deleted", deleted).Msg("Buffer cleanup completed")
			}
		}
	}
}
