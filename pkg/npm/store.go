package npm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/netnynja/netnynja/pkg/db"
	"github.com/netnynja/netnynja/pkg/logger"
	"github.com/netnynja/netnynja/pkg/models"
)

// ErrDeviceNotFound is returned when a poll request names a device that is
// missing or inactive.
var ErrDeviceNotFound = errors.New("device not found or inactive")

// Devices are claimed oldest-poll-first so new devices (NULL last_poll) are
// picked up immediately. FOR UPDATE SKIP LOCKED plus the last_poll stamp in
// the same transaction lets multiple poller instances share the fleet
// without double-polling.
const claimDevicesSQL = `
SELECT
    d.id, d.name, d.ip_address::text, d.device_type, d.vendor,
    d.poll_icmp, d.poll_snmp, d.snmp_port, d.status,
    c.username, c.security_level, c.auth_protocol, c.auth_password_encrypted,
    c.priv_protocol, c.priv_password_encrypted, c.context_name
FROM npm.devices d
LEFT JOIN npm.snmpv3_credentials c ON d.snmpv3_credential_id = c.id
WHERE d.is_active = true
ORDER BY d.last_poll ASC NULLS FIRST
LIMIT $1
FOR UPDATE OF d SKIP LOCKED`

const claimDeviceByIDSQL = `
SELECT
    d.id, d.name, d.ip_address::text, d.device_type, d.vendor,
    d.poll_icmp, d.poll_snmp, d.snmp_port, d.status,
    c.username, c.security_level, c.auth_protocol, c.auth_password_encrypted,
    c.priv_protocol, c.priv_password_encrypted, c.context_name
FROM npm.devices d
LEFT JOIN npm.snmpv3_credentials c ON d.snmpv3_credential_id = c.id
WHERE d.id = $1 AND d.is_active = true`

const stampLastPollSQL = `UPDATE npm.devices SET last_poll = NOW() WHERE id = ANY($1)`

const insertDeviceMetricsSQL = `
INSERT INTO npm.device_metrics (
    device_id, collected_at,
    icmp_latency_ms, icmp_packet_loss_percent, icmp_reachable,
    cpu_utilization_percent, memory_utilization_percent,
    memory_total_bytes, memory_used_bytes, uptime_seconds,
    total_interfaces, interfaces_up, interfaces_down, is_available
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
)`

const upsertInterfaceSQL = `
INSERT INTO npm.interfaces (device_id, if_index, name, speed_mbps, admin_status, oper_status)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (device_id, if_index)
DO UPDATE SET
    name = COALESCE(EXCLUDED.name, npm.interfaces.name),
    speed_mbps = COALESCE(EXCLUDED.speed_mbps, npm.interfaces.speed_mbps),
    admin_status = COALESCE(EXCLUDED.admin_status, npm.interfaces.admin_status),
    oper_status = COALESCE(EXCLUDED.oper_status, npm.interfaces.oper_status),
    updated_at = NOW()
RETURNING id`

const insertInterfaceMetricsSQL = `
INSERT INTO npm.interface_metrics (
    interface_id, device_id, collected_at,
    admin_status, oper_status,
    in_octets, out_octets, in_errors, out_errors,
    in_discards, out_discards, speed_mbps,
    in_utilization_pct, out_utilization_pct
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
)`

const updateDeviceStatusSQL = `
UPDATE npm.devices
SET
    status = $2,
    icmp_status = $3,
    snmp_status = $4,
    last_poll = $5,
    last_icmp_poll = CASE WHEN $6 THEN $5 ELSE last_icmp_poll END,
    last_snmp_poll = CASE WHEN $7 THEN $5 ELSE last_snmp_poll END,
    updated_at = NOW()
WHERE id = $1`

// StatusUpdate carries the device row changes derived from one poll.
// The attempted flags gate the per-protocol poll timestamps.
type StatusUpdate struct {
	DeviceID      uuid.UUID
	Status        models.DeviceStatus
	ICMPStatus    string
	SNMPStatus    string
	PolledAt      time.Time
	ICMPAttempted bool
	SNMPAttempted bool
}

// Store persists devices, metrics, and interfaces in PostgreSQL.
type Store struct {
	pool   *pgxpool.Pool
	logger logger.Logger
}

// NewStore returns a Store bound to the given pool.
func NewStore(pool *pgxpool.Pool, log logger.Logger) *Store {
	return &Store{pool: pool, logger: log}
}

// ClaimBatch leases up to limit active devices for one poll cycle, oldest
// poll first, stamping last_poll before the claim transaction commits.
func (s *Store) ClaimBatch(ctx context.Context, limit int) ([]models.PollTarget, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("claim devices: begin: %w", err)
	}

	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, claimDevicesSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("claim devices: query: %w", err)
	}

	targets, err := scanPollTargets(rows)
	if err != nil {
		return nil, fmt.Errorf("claim devices: %w", err)
	}

	if len(targets) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, len(targets))
	for i := range targets {
		ids[i] = targets[i].ID
	}

	if _, err := tx.Exec(ctx, stampLastPollSQL, ids); err != nil {
		return nil, fmt.Errorf("claim devices: stamp last_poll: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("claim devices: commit: %w", err)
	}

	return targets, nil
}

// ClaimDevice fetches a single active device for an on-demand poll,
// bypassing the cadence ordering.
func (s *Store) ClaimDevice(ctx context.Context, deviceID uuid.UUID) (*models.PollTarget, error) {
	rows, err := s.pool.Query(ctx, claimDeviceByIDSQL, deviceID)
	if err != nil {
		return nil, fmt.Errorf("claim device %s: %w", deviceID, err)
	}

	targets, err := scanPollTargets(rows)
	if err != nil {
		return nil, fmt.Errorf("claim device %s: %w", deviceID, err)
	}

	if len(targets) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, deviceID)
	}

	return &targets[0], nil
}

// InsertDeviceMetrics appends one device_metrics row.
func (s *Store) InsertDeviceMetrics(ctx context.Context, m models.DeviceMetrics) error {
	_, err := s.pool.Exec(ctx, insertDeviceMetricsSQL,
		m.DeviceID,
		m.Timestamp,
		m.ICMPLatencyMs,
		m.ICMPPacketLossPercent,
		m.ICMPReachable,
		m.CPUUtilization,
		m.MemoryUtilization,
		m.MemoryTotalBytes,
		m.MemoryUsedBytes,
		m.UptimeSeconds,
		m.InterfaceCount,
		m.InterfaceUpCount,
		m.InterfaceDownCount,
		m.IsAvailable,
	)
	if err != nil {
		return fmt.Errorf("insert device metrics: %w", err)
	}

	return nil
}

// PersistInterfaces upserts the interface dimension rows by
// (device_id, if_index) and appends one interface_metrics row for each,
// returning the dimension row IDs in input order.
func (s *Store) PersistInterfaces(ctx context.Context, ifaces []models.InterfaceMetrics) ([]uuid.UUID, error) {
	if len(ifaces) == 0 {
		return nil, nil
	}

	upserts := &pgx.Batch{}
	for i := range ifaces {
		upserts.Queue(upsertInterfaceSQL,
			ifaces[i].DeviceID,
			ifaces[i].IfIndex,
			emptyToNil(ifaces[i].InterfaceName),
			ifaces[i].SpeedMbps,
			string(ifaces[i].AdminStatus),
			string(ifaces[i].OperStatus),
		)
	}

	ids, err := s.sendInterfaceUpserts(ctx, upserts, len(ifaces))
	if err != nil {
		return nil, err
	}

	metrics := &pgx.Batch{}
	for i := range ifaces {
		metrics.Queue(insertInterfaceMetricsSQL,
			ids[i],
			ifaces[i].DeviceID,
			ifaces[i].Timestamp,
			string(ifaces[i].AdminStatus),
			string(ifaces[i].OperStatus),
			ifaces[i].InOctets,
			ifaces[i].OutOctets,
			ifaces[i].InErrors,
			ifaces[i].OutErrors,
			ifaces[i].InDiscards,
			ifaces[i].OutDiscards,
			ifaces[i].SpeedMbps,
			zeroWhenNil(ifaces[i].InUtilization),
			zeroWhenNil(ifaces[i].OutUtilization),
		)
	}

	if err := db.SendBatchExecAll(ctx, s.pool, metrics, "interface metrics"); err != nil {
		return nil, err
	}

	return ids, nil
}

func (s *Store) sendInterfaceUpserts(ctx context.Context, batch *pgx.Batch, n int) (ids []uuid.UUID, err error) {
	br := s.pool.SendBatch(ctx, batch)
	defer func() {
		if closeErr := br.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("interface upsert batch close: %w", closeErr)
		}
	}()

	ids = make([]uuid.UUID, n)
	for i := 0; i < n; i++ {
		if err = br.QueryRow().Scan(&ids[i]); err != nil {
			return nil, fmt.Errorf("interface upsert (row %d): %w", i, err)
		}
	}

	return ids, nil
}

// UpdateDeviceStatus writes the post-poll device row. The per-protocol poll
// timestamps only move when that protocol was attempted this cycle.
func (s *Store) UpdateDeviceStatus(ctx context.Context, u StatusUpdate) error {
	_, err := s.pool.Exec(ctx, updateDeviceStatusSQL,
		u.DeviceID,
		string(u.Status),
		u.ICMPStatus,
		u.SNMPStatus,
		u.PolledAt,
		u.ICMPAttempted,
		u.SNMPAttempted,
	)
	if err != nil {
		return fmt.Errorf("update device status: %w", err)
	}

	return nil
}

func scanPollTargets(rows pgx.Rows) ([]models.PollTarget, error) {
	defer rows.Close()

	var targets []models.PollTarget

	for rows.Next() {
		var (
			t          models.PollTarget
			deviceType *string
			vendor     *string
			snmpPort   *int
			status     *string
			username   *string
			secLevel   *string
			authProto  *string
			authEnc    *string
			privProto  *string
			privEnc    *string
			contextNm  *string
		)

		if err := rows.Scan(
			&t.ID, &t.Name, &t.IPAddress, &deviceType, &vendor,
			&t.PollICMP, &t.PollSNMP, &snmpPort, &status,
			&username, &secLevel, &authProto, &authEnc,
			&privProto, &privEnc, &contextNm,
		); err != nil {
			return nil, fmt.Errorf("scan device row: %w", err)
		}

		t.IsActive = true
		t.DeviceType = stringOrEmpty(deviceType)
		t.Vendor = stringOrEmpty(vendor)
		t.Status = models.DeviceStatusUnknown

		if status != nil {
			t.Status = models.DeviceStatus(*status)
		}

		t.SNMPPort = 161
		if snmpPort != nil && *snmpPort > 0 {
			t.SNMPPort = *snmpPort
		}

		if username != nil && *username != "" {
			t.Credential = &models.SNMPCredential{
				Username:        *username,
				SecurityLevel:   models.SecurityLevel(stringOrEmpty(secLevel)),
				AuthProtocol:    stringOrEmpty(authProto),
				AuthPasswordEnc: stringOrEmpty(authEnc),
				PrivProtocol:    stringOrEmpty(privProto),
				PrivPasswordEnc: stringOrEmpty(privEnc),
				ContextName:     stringOrEmpty(contextNm),
			}
		}

		targets = append(targets, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read device rows: %w", err)
	}

	return targets, nil
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}

	return *s
}

func emptyToNil(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}

func zeroWhenNil(v *float64) float64 {
	if v == nil {
		return 0
	}

	return *v
}
