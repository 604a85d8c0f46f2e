package stig

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/netnynja/netnynja/pkg/models"
)

const (
	jobSummarySQL = `
SELECT t.name, d.title, COALESCE(aj.completed_at, aj.created_at),
       COUNT(*),
       COUNT(CASE WHEN ar.status = 'pass' THEN 1 END),
       COUNT(CASE WHEN ar.status = 'fail' THEN 1 END),
       COUNT(CASE WHEN ar.status = 'not_applicable' THEN 1 END),
       COUNT(CASE WHEN ar.status = 'not_reviewed' THEN 1 END),
       COUNT(CASE WHEN ar.status = 'error' THEN 1 END)
FROM stig.audit_jobs aj
JOIN stig.targets t ON t.id = aj.target_id
JOIN stig.definitions d ON d.id = aj.definition_id
JOIN stig.audit_results ar ON ar.job_id = aj.id
WHERE aj.id = $1
GROUP BY aj.id, t.name, d.title`

	trendDailySQL = `
WITH daily_scores AS (
    SELECT
        DATE_TRUNC('day', aj.completed_at) AS audit_day,
        COUNT(CASE WHEN ar.status = 'pass' THEN 1 END)::float /
            NULLIF(COUNT(CASE WHEN ar.status IN ('pass', 'fail') THEN 1 END), 0) * 100 AS score
    FROM stig.audit_jobs aj
    JOIN stig.audit_results ar ON ar.job_id = aj.id
    WHERE aj.status = 'completed'
        AND aj.completed_at >= NOW() - make_interval(days => $1)
    GROUP BY DATE_TRUNC('day', aj.completed_at)
    ORDER BY audit_day ASC
)
SELECT audit_day, COALESCE(score, 0)
FROM daily_scores`

	worstFindingsSQL = `
SELECT ar.vuln_id, COALESCE(ar.title, ''), COALESCE(ar.severity, 'medium'),
       COUNT(DISTINCT aj.target_id) AS affected_targets
FROM stig.audit_results ar
JOIN stig.audit_jobs aj ON aj.id = ar.job_id
WHERE ar.status = 'fail'
    AND aj.status = 'completed'
    AND aj.id IN (
        SELECT DISTINCT ON (target_id) id
        FROM stig.audit_jobs
        WHERE status = 'completed'
        ORDER BY target_id, completed_at DESC
    )
GROUP BY ar.vuln_id, ar.title, ar.severity
ORDER BY
    CASE ar.severity
        WHEN 'high' THEN 1
        WHEN 'medium' THEN 2
        WHEN 'low' THEN 3
        ELSE 4
    END,
    affected_targets DESC
LIMIT $1`

	fleetComplianceSQL = `
WITH latest_jobs AS (
    SELECT DISTINCT ON (target_id) id, target_id
    FROM stig.audit_jobs
    WHERE status = 'completed'
    ORDER BY target_id, completed_at DESC
)
SELECT
    COUNT(*),
    COUNT(CASE WHEN ar.status = 'pass' THEN 1 END),
    COUNT(CASE WHEN ar.status = 'fail' THEN 1 END),
    COUNT(CASE WHEN ar.severity = 'high' AND ar.status = 'fail' THEN 1 END),
    COUNT(CASE WHEN ar.severity = 'medium' AND ar.status = 'fail' THEN 1 END),
    COUNT(CASE WHEN ar.severity = 'low' AND ar.status = 'fail' THEN 1 END),
    (SELECT COUNT(*) FROM stig.targets WHERE is_active = true)
FROM stig.audit_results ar
JOIN latest_jobs lj ON lj.id = ar.job_id`
)

// complianceScore is pass / (pass + fail) as a percentage rounded to two
// decimals. Not-applicable, not-reviewed, and error checks stay out of the
// denominator.
func complianceScore(passed, failed int) float64 {
	applicable := passed + failed
	if applicable == 0 {
		return 0
	}

	score := float64(passed) / float64(applicable) * 100

	return math.Round(score*100) / 100
}

// Summary aggregates the finding rows of one job.
func (s *Store) Summary(ctx context.Context, jobID uuid.UUID) (models.ComplianceSummary, error) {
	summary := models.ComplianceSummary{JobID: jobID}

	err := s.pool.QueryRow(ctx, jobSummarySQL, jobID).Scan(
		&summary.TargetName, &summary.STIGTitle, &summary.AuditDate,
		&summary.TotalChecks, &summary.Passed, &summary.Failed,
		&summary.NotApplicable, &summary.NotReviewed, &summary.Errors)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.ComplianceSummary{}, ErrJobNotFound
	}

	if err != nil {
		return models.ComplianceSummary{}, fmt.Errorf("summarize audit job %s: %w", jobID, err)
	}

	summary.ComplianceScore = complianceScore(summary.Passed, summary.Failed)

	return summary, nil
}

// TrendDaily returns the day-bucketed fleet compliance score over the last
// N days of completed jobs.
func (s *Store) TrendDaily(ctx context.Context, days int) ([]models.TrendPoint, error) {
	rows, err := s.pool.Query(ctx, trendDailySQL, days)
	if err != nil {
		return nil, fmt.Errorf("query compliance trend: %w", err)
	}
	defer rows.Close()

	var points []models.TrendPoint

	for rows.Next() {
		var p models.TrendPoint

		if err := rows.Scan(&p.Date, &p.Score); err != nil {
			return nil, fmt.Errorf("scan compliance trend row: %w", err)
		}

		p.Score = math.Round(p.Score*100) / 100
		points = append(points, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read compliance trend rows: %w", err)
	}

	return points, nil
}

// WorstFindings returns the failing rules affecting the most targets,
// counted over each target's latest completed job, worst severity first.
func (s *Store) WorstFindings(ctx context.Context, limit int) ([]models.WorstFinding, error) {
	rows, err := s.pool.Query(ctx, worstFindingsSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("query worst findings: %w", err)
	}
	defer rows.Close()

	var findings []models.WorstFinding

	for rows.Next() {
		var (
			f        models.WorstFinding
			severity string
		)

		if err := rows.Scan(&f.VulnID, &f.Title, &severity, &f.AffectedTargets); err != nil {
			return nil, fmt.Errorf("scan worst finding row: %w", err)
		}

		f.Severity = models.STIGSeverity(severity)
		findings = append(findings, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read worst finding rows: %w", err)
	}

	return findings, nil
}

// FleetCompliance aggregates pass/fail counts across every target's latest
// completed job.
func (s *Store) FleetCompliance(ctx context.Context) (models.FleetCompliance, error) {
	var fleet models.FleetCompliance

	err := s.pool.QueryRow(ctx, fleetComplianceSQL).Scan(
		&fleet.TotalChecks, &fleet.Passed, &fleet.Failed,
		&fleet.HighFailed, &fleet.MediumFailed, &fleet.LowFailed,
		&fleet.TotalTargets)
	if err != nil {
		return models.FleetCompliance{}, fmt.Errorf("query fleet compliance: %w", err)
	}

	fleet.ComplianceScore = complianceScore(fleet.Passed, fleet.Failed)

	return fleet, nil
}
