// Package syslog implements the syslog ingest service: a UDP listener
// feeding a batching collector that parses RFC 3164/5424 frames,
// classifies them by device and event type, persists batches to
// PostgreSQL, and fans events out over NATS.
package syslog

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/netnynja/netnynja/pkg/logger"
	"github.com/netnynja/netnynja/pkg/models"
)

// bufferFactor bounds the in-memory buffer at this multiple of the batch
// size. Ingest drops new frames once the bound is hit, and a failed
// flush never re-queues past it.
const bufferFactor = 10

const finalFlushTimeout = 10 * time.Second

//go:generate mockgen -destination=mock_syslog.go -package=syslog github.com/netnynja/netnynja/pkg/syslog EventStore,EventPublisher,RetentionStore

// EventStore persists parsed events.
type EventStore interface {
	// EnsureSources resolves every distinct source IP in events to a
	// syslog source row, creating rows on first sight.
	EnsureSources(ctx context.Context, events []models.SyslogEvent) (map[string]uuid.UUID, error)
	// InsertEvents appends the batch and bumps per-source receive stats.
	InsertEvents(ctx context.Context, events []models.SyslogEvent, sources map[string]uuid.UUID) error
}

// EventPublisher fans a single event out to the message bus. It must not
// block on broker round-trips; delivery failures are the publisher's to
// log, never the collector's to retry.
type EventPublisher interface {
	Publish(event models.SyslogEvent)
}

// Collector buffers parsed events and writes them out in batches, either
// when the batch size is reached or on the flush interval, whichever
// comes first. A failed batch is re-queued at the front of the buffer so
// ordering survives transient database outages.
type Collector struct {
	store     EventStore
	publisher EventPublisher
	batchSize int
	interval  time.Duration
	logger    logger.Logger

	mu      sync.Mutex
	buffer  []models.SyslogEvent
	flushCh chan struct{}
	dropped atomic.Int64
}

// NewCollector returns a collector flushing to store every interval or
// batchSize events. publisher may be nil to disable fan-out.
func NewCollector(store EventStore, publisher EventPublisher, batchSize int, interval time.Duration, log logger.Logger) *Collector {
	return &Collector{
		store:     store,
		publisher: publisher,
		batchSize: batchSize,
		interval:  interval,
		logger:    log,
		flushCh:   make(chan struct{}, 1),
	}
}

// Ingest parses one raw frame from sourceIP and buffers the event. It
// does no database or broker round-trips, so the UDP receive path never
// stalls behind a slow flush. When the buffer is at capacity the frame
// is dropped and counted.
func (c *Collector) Ingest(sourceIP, raw string) {
	event := Parse(raw)
	event.ID = uuid.New()
	event.SourceIP = sourceIP
	event.ReceivedAt = time.Now().UTC()

	c.mu.Lock()
	if len(c.buffer) >= c.batchSize*bufferFactor {
		c.mu.Unlock()
		total := c.dropped.Add(1)
		c.logger.Warn().
			Str("source_ip", sourceIP).
			Int64("dropped_total", total).
			Msg("Event buffer full, dropping frame")

		return
	}

	c.buffer = append(c.buffer, event)
	full := len(c.buffer) >= c.batchSize
	c.mu.Unlock()

	if full {
		select {
		case c.flushCh <- struct{}{}:
		default:
		}
	}

	if c.publisher != nil {
		c.publisher.Publish(event)
	}
}

// Run drives the flush loop until ctx is canceled, then performs a final
// flush so buffered events survive shutdown.
func (c *Collector) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalFlushTimeout)
			if err := c.Flush(flushCtx); err != nil {
				c.logger.Error().Err(err).Msg("Final flush failed")
			}

			cancel()

			return
		case <-ticker.C:
			if err := c.Flush(ctx); err != nil {
				c.logger.Error().Err(err).Msg("Failed to flush event buffer")
			}
		case <-c.flushCh:
			if err := c.Flush(ctx); err != nil {
				c.logger.Error().Err(err).Msg("Failed to flush event buffer")
			}
		}
	}
}

// Flush swaps the buffer out under the lock and writes the batch. On
// failure the batch is re-queued at the front, capped at the buffer
// bound; whatever does not fit is dropped and counted.
func (c *Collector) Flush(ctx context.Context) error {
	c.mu.Lock()
	batch := c.buffer
	c.buffer = nil
	c.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}

	if err := c.writeBatch(ctx, batch); err != nil {
		c.requeue(batch)
		return fmt.Errorf("flush %d syslog events: %w", len(batch), err)
	}

	c.logger.Debug().Int("count", len(batch)).Msg("Flushed events to database")

	return nil
}

// Dropped reports how many frames have been discarded because the buffer
// was full.
func (c *Collector) Dropped() int64 {
	return c.dropped.Load()
}

func (c *Collector) writeBatch(ctx context.Context, batch []models.SyslogEvent) error {
	sources, err := c.store.EnsureSources(ctx, batch)
	if err != nil {
		return err
	}

	return c.store.InsertEvents(ctx, batch, sources)
}

func (c *Collector) requeue(batch []models.SyslogEvent) {
	limit := c.batchSize * bufferFactor

	c.mu.Lock()
	combined := make([]models.SyslogEvent, 0, len(batch)+len(c.buffer))
	combined = append(combined, batch...)
	combined = append(combined, c.buffer...)

	overflow := 0
	if len(combined) > limit {
		overflow = len(combined) - limit
		combined = combined[:limit]
	}

	c.buffer = combined
	c.mu.Unlock()

	if overflow > 0 {
		total := c.dropped.Add(int64(overflow))
		c.logger.Warn().
			Int("dropped", overflow).
			Int64("dropped_total", total).
			Msg("Buffer over capacity after failed flush, dropping newest events")
	}
}
