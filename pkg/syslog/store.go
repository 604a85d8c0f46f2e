package syslog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/netnynja/netnynja/pkg/db"
	"github.com/netnynja/netnynja/pkg/logger"
	"github.com/netnynja/netnynja/pkg/models"
)

// purgeOldestLimit caps how many of the oldest events one cleanup pass
// removes beyond the retention cutoff.
const purgeOldestLimit = 100000

const (
	selectSourceIDSQL = `SELECT id FROM syslog.sources WHERE ip_address = $1::inet`

	upsertSourceSQL = `
INSERT INTO syslog.sources (name, ip_address, hostname, device_type)
VALUES ($1, $2::inet, $3, $4)
ON CONFLICT (ip_address) DO UPDATE SET updated_at = NOW()
RETURNING id`

	insertEventSQL = `
INSERT INTO syslog.events (
	id, source_id, source_ip, received_at, facility, severity,
	version, timestamp, hostname, app_name, proc_id, msg_id,
	structured_data, message, device_type, event_type, raw_message
) VALUES (
	$1, $2, $3::inet, $4, $5, $6, $7, $8, $9, $10,
	$11, $12, $13::jsonb, $14, $15, $16, $17
)`

	bumpSourceStatsSQL = `
UPDATE syslog.sources
SET events_received = events_received + $1,
    last_event_at = NOW()
WHERE id = $2`

	selectBufferSettingsSQL = `
SELECT max_size_bytes, cleanup_threshold_percent, retention_days
FROM syslog.buffer_settings
WHERE id = 1`

	eventsTableSizeSQL = `SELECT pg_total_relation_size('syslog.events')`

	recordBufferSizeSQL = `
UPDATE syslog.buffer_settings
SET current_size_bytes = $1, updated_at = NOW()
WHERE id = 1`

	purgeEventsSQL = `
DELETE FROM syslog.events
WHERE received_at < NOW() - make_interval(days => $1)
   OR id IN (
	SELECT id FROM syslog.events
	ORDER BY received_at ASC
	LIMIT $2
)`

	recordCleanupSQL = `
UPDATE syslog.buffer_settings
SET last_cleanup_at = NOW()
WHERE id = 1`
)

// Store persists syslog events and sources.
type Store struct {
	pool   *pgxpool.Pool
	logger logger.Logger
}

// NewStore returns a store backed by pool.
func NewStore(pool *pgxpool.Pool, log logger.Logger) *Store {
	return &Store{pool: pool, logger: log}
}

// EnsureSources resolves every distinct source IP in events to a source
// row id, auto-creating sources on first receipt. A created source is
// named after the sender's hostname when the event carries one, the bare
// IP otherwise.
func (s *Store) EnsureSources(ctx context.Context, events []models.SyslogEvent) (map[string]uuid.UUID, error) {
	ids := make(map[string]uuid.UUID)

	for i := range events {
		ev := &events[i]
		if _, ok := ids[ev.SourceIP]; ok {
			continue
		}

		var id uuid.UUID

		err := s.pool.QueryRow(ctx, selectSourceIDSQL, ev.SourceIP).Scan(&id)
		if err == nil {
			ids[ev.SourceIP] = id
			continue
		}

		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("look up syslog source %s: %w", ev.SourceIP, err)
		}

		name := ev.Hostname
		if name == "" {
			name = ev.SourceIP
		}

		if err := s.pool.QueryRow(ctx, upsertSourceSQL,
			name, ev.SourceIP, name, emptyToNil(ev.DeviceType)).Scan(&id); err != nil {
			return nil, fmt.Errorf("create syslog source %s: %w", ev.SourceIP, err)
		}

		s.logger.Info().
			Str("source_ip", ev.SourceIP).
			Str("name", name).
			Msg("Registered new syslog source")

		ids[ev.SourceIP] = id
	}

	return ids, nil
}

// InsertEvents appends the batch to syslog.events and bumps each
// source's receive counter and last-seen timestamp, all in one batch
// round-trip.
func (s *Store) InsertEvents(ctx context.Context, events []models.SyslogEvent, sources map[string]uuid.UUID) error {
	batch := &pgx.Batch{}
	perSource := make(map[uuid.UUID]int64)

	for i := range events {
		ev := &events[i]

		sourceID, ok := sources[ev.SourceIP]
		if !ok {
			return fmt.Errorf("no source id resolved for %s", ev.SourceIP)
		}

		batch.Queue(insertEventSQL,
			ev.ID, sourceID, ev.SourceIP, ev.ReceivedAt,
			ev.Facility, ev.Severity, ev.Version, ev.Timestamp,
			emptyToNil(ev.Hostname), emptyToNil(ev.AppName),
			emptyToNil(ev.ProcID), emptyToNil(ev.MsgID),
			structuredDataValue(ev.StructuredData), ev.Message,
			emptyToNil(ev.DeviceType), emptyToNil(ev.EventType),
			ev.RawMessage)

		perSource[sourceID]++
	}

	for id, n := range perSource {
		batch.Queue(bumpSourceStatsSQL, n, id)
	}

	return db.SendBatchExecAll(ctx, s.pool, batch, "insert syslog events")
}

// EnforceRetention measures the events table, records the size on the
// buffer settings row, and once past the cleanup threshold deletes
// events older than the retention window plus a slice of the oldest
// rows. Returns how many rows were deleted. A database without a
// settings row is left alone.
func (s *Store) EnforceRetention(ctx context.Context) (int64, error) {
	var settings models.BufferSettings

	err := s.pool.QueryRow(ctx, selectBufferSettingsSQL).
		Scan(&settings.MaxSizeBytes, &settings.CleanupThresholdPercent, &settings.RetentionDays)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}

	if err != nil {
		return 0, fmt.Errorf("load buffer settings: %w", err)
	}

	var size int64
	if err := s.pool.QueryRow(ctx, eventsTableSizeSQL).Scan(&size); err != nil {
		return 0, fmt.Errorf("measure events table: %w", err)
	}

	if _, err := s.pool.Exec(ctx, recordBufferSizeSQL, size); err != nil {
		return 0, fmt.Errorf("record buffer size: %w", err)
	}

	threshold := settings.MaxSizeBytes * int64(settings.CleanupThresholdPercent) / 100
	if size <= threshold {
		return 0, nil
	}

	s.logger.Warn().
		Int64("size_bytes", size).
		Int64("threshold_bytes", threshold).
		Msg("Event buffer over threshold, cleaning up")

	tag, err := s.pool.Exec(ctx, purgeEventsSQL, settings.RetentionDays, purgeOldestLimit)
	if err != nil {
		return 0, fmt.Errorf("purge syslog events: %w", err)
	}

	if _, err := s.pool.Exec(ctx, recordCleanupSQL); err != nil {
		return 0, fmt.Errorf("record cleanup time: %w", err)
	}

	return tag.RowsAffected(), nil
}

func emptyToNil(s string) any {
	if s == "" {
		return nil
	}

	return s
}

// structuredDataValue keeps absent structured data as SQL NULL rather
// than a JSON null.
func structuredDataValue(sd map[string]map[string]string) any {
	if sd == nil {
		return nil
	}

	return sd
}
