package stig

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

var (
	// ErrJobNotFound is returned when an audit job id has no row.
	ErrJobNotFound = errors.New("audit job not found")
	// ErrTargetNotFound is returned when an audit target id has no row.
	ErrTargetNotFound = errors.New("audit target not found")
	// ErrDefinitionNotFound is returned when a definition id has no row.
	ErrDefinitionNotFound = errors.New("stig definition not found")
)

const (
	selectJobSQL = `
SELECT id, target_id, definition_id, status, COALESCE(error_message, ''),
       created_at, started_at, completed_at
FROM stig.audit_jobs
WHERE id = $1`

	setJobStatusSQL = `
UPDATE stig.audit_jobs
SET status = $2,
    error_message = NULLIF($3, ''),
    started_at = CASE WHEN $2 = 'running' THEN NOW() ELSE started_at END,
    completed_at = CASE WHEN $2 IN ('completed', 'failed') THEN NOW() ELSE completed_at END
WHERE id = $1`

	selectTargetSQL = `
SELECT id, name, ip_address::text, platform, COALESCE(os_version, ''),
       COALESCE(config_text, ''), is_active, last_audit, created_at, updated_at
FROM stig.targets
WHERE id = $1`

	selectDefinitionSQL = `
SELECT id, stig_id, title, COALESCE(version, ''), rules_count, created_at, updated_at
FROM stig.definitions
WHERE id = $1`

	insertResultSQL = `
INSERT INTO stig.audit_results (job_id, vuln_id, rule_id, title, severity, status, finding_details)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	stampTargetAuditSQL = `
UPDATE stig.targets
SET last_audit = NOW(), updated_at = NOW()
WHERE id = $1`
)

// Store persists audit jobs, targets, and results.
type Store struct {
	pool   *pgxpool.Pool
	logger logger.Logger
}

// NewStore returns a store backed by pool.
func NewStore(pool *pgxpool.Pool, log logger.Logger) *Store {
	return &Store{pool: pool, logger: log}
}

// Job loads one audit job.
func (s *Store) Job(ctx context.Context, id uuid.UUID) (models.AuditJob, error) {
	var (
		job    models.AuditJob
		status string
	)

	err := s.pool.QueryRow(ctx, selectJobSQL, id).Scan(
		&job.ID, &job.TargetID, &job.DefinitionID, &status, &job.Error,
		&job.CreatedAt, &job.StartedAt, &job.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.AuditJob{}, ErrJobNotFound
	}

	if err != nil {
		return models.AuditJob{}, fmt.Errorf("load audit job %s: %w", id, err)
	}

	job.Status = models.AuditStatus(status)

	return job, nil
}

// Target loads one audit target, including its stored configuration text.
func (s *Store) Target(ctx context.Context, id uuid.UUID) (models.AuditTarget, error) {
	var (
		target   models.AuditTarget
		platform string
	)

	err := s.pool.QueryRow(ctx, selectTargetSQL, id).Scan(
		&target.ID, &target.Name, &target.IPAddress, &platform,
		&target.OSVersion, &target.ConfigText, &target.IsActive,
		&target.LastAudit, &target.CreatedAt, &target.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.AuditTarget{}, ErrTargetNotFound
	}

	if err != nil {
		return models.AuditTarget{}, fmt.Errorf("load audit target %s: %w", id, err)
	}

	target.Platform = models.Platform(platform)

	return target, nil
}

// Definition loads one imported benchmark definition.
func (s *Store) Definition(ctx context.Context, id uuid.UUID) (models.STIGDefinition, error) {
	var def models.STIGDefinition

	err := s.pool.QueryRow(ctx, selectDefinitionSQL, id).Scan(
		&def.ID, &def.BenchmarkID, &def.Title, &def.Version,
		&def.RulesCount, &def.CreatedAt, &def.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.STIGDefinition{}, ErrDefinitionNotFound
	}

	if err != nil {
		return models.STIGDefinition{}, fmt.Errorf("load stig definition %s: %w", id, err)
	}

	return def, nil
}

// SetJobStatus transitions a job, stamping started_at on running and
// completed_at on the terminal states. The message lands in error_message
// and empties to NULL.
func (s *Store) SetJobStatus(ctx context.Context, id uuid.UUID, status models.AuditStatus, message string) error {
	if _, err := s.pool.Exec(ctx, setJobStatusSQL, id, string(status), message); err != nil {
		return fmt.Errorf("set audit job %s status %s: %w", id, status, err)
	}

	return nil
}

// InsertResults bulk-inserts the finding rows for a job.
func (s *Store) InsertResults(ctx context.Context, results []models.AuditResult) error {
	if len(results) == 0 {
		return nil
	}

	batch := &pgx.Batch{}

	for i := range results {
		r := &results[i]
		batch.Queue(insertResultSQL,
			r.JobID, r.VulnID, r.RuleID, r.Title,
			string(r.Severity), string(r.Status), r.FindingDetails)
	}

	return db.SendBatchExecAll(ctx, s.pool, batch, "insert audit results")
}

// StampTargetAudit records that the target was just audited.
func (s *Store) StampTargetAudit(ctx context.Context, targetID uuid.UUID) error {
	if _, err := s.pool.Exec(ctx, stampTargetAuditSQL, targetID); err != nil {
		return fmt.Errorf("stamp target %s last audit: %w", targetID, err)
	}

	return nil
}
