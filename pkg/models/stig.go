package models

import (
	"time"

	"github.com/google/uuid"
)

// STIGType distinguishes a Security Technical Implementation Guide from a
// Security Requirements Guide.
type STIGType string

const (
	STIGTypeSTIG STIGType = "stig"
	STIGTypeSRG  STIGType = "srg"
)

// Platform is the closed set of audit platforms a benchmark can apply to.
type Platform string

const (
	PlatformLinux         Platform = "linux"
	PlatformRedHat        Platform = "redhat"
	PlatformMacOS         Platform = "macos"
	PlatformWindows       Platform = "windows"
	PlatformCiscoIOS      Platform = "cisco_ios"
	PlatformCiscoNXOS     Platform = "cisco_nxos"
	PlatformAristaEOS     Platform = "arista_eos"
	PlatformHPEArubaCX    Platform = "hpe_aruba_cx"
	PlatformHPProcurve    Platform = "hp_procurve"
	PlatformMellanox      Platform = "mellanox"
	PlatformJuniperSRX    Platform = "juniper_srx"
	PlatformJuniperJunOS  Platform = "juniper_junos"
	PlatformPfSense       Platform = "pfsense"
	PlatformPaloAlto      Platform = "paloalto"
	PlatformFortinet      Platform = "fortinet"
	PlatformF5BigIP       Platform = "f5_bigip"
	PlatformVMwareESXi    Platform = "vmware_esxi"
	PlatformVMwareVCenter Platform = "vmware_vcenter"
)

// STIGSeverity is a rule severity as published by DISA.
type STIGSeverity string

const (
	SeverityHigh   STIGSeverity = "high"
	SeverityMedium STIGSeverity = "medium"
	SeverityLow    STIGSeverity = "low"
)

// STIGEntry describes one benchmark in the on-disk STIG library, extracted
// from the XCCDF XML inside its ZIP archive.
type STIGEntry struct {
	BenchmarkID string     `json:"benchmark_id"`
	Title       string     `json:"title"`
	Version     string     `json:"version"`
	Release     int        `json:"release"`
	ReleaseDate *time.Time `json:"release_date,omitempty"`
	ZipFilename string     `json:"zip_filename"`
	XCCDFPath   string     `json:"xccdf_path"`
	STIGType    STIGType   `json:"stig_type"`
	Status      string     `json:"status"`
	StatusDate  *time.Time `json:"status_date,omitempty"`
	Description string     `json:"description"`
	RulesCount  int        `json:"rules_count"`
	HighCount   int        `json:"high_count"`
	MediumCount int        `json:"medium_count"`
	LowCount    int        `json:"low_count"`
	Platforms   []Platform `json:"platforms"`
	Profiles    []string   `json:"profiles"`
	CCIs        []string   `json:"ccis"`
}

// STIGRule is one check inside a benchmark.
type STIGRule struct {
	VulnID       string       `json:"vuln_id"`
	RuleID       string       `json:"rule_id"`
	GroupID      string       `json:"group_id,omitempty"`
	Title        string       `json:"title"`
	Description  string       `json:"description,omitempty"`
	Severity     STIGSeverity `json:"severity"`
	CheckContent string       `json:"check_content"`
	FixContent   string       `json:"fix_content"`
	CCIs         []string     `json:"ccis,omitempty"`
}

// AuditStatus is the lifecycle state of an audit job.
type AuditStatus string

const (
	AuditPending   AuditStatus = "pending"
	AuditRunning   AuditStatus = "running"
	AuditCompleted AuditStatus = "completed"
	AuditFailed    AuditStatus = "failed"
)

// CheckStatus is the outcome of evaluating a single rule against a target.
type CheckStatus string

const (
	CheckPass          CheckStatus = "pass"
	CheckFail          CheckStatus = "fail"
	CheckNotApplicable CheckStatus = "not_applicable"
	CheckNotReviewed   CheckStatus = "not_reviewed"
	CheckError         CheckStatus = "error"
)

// STIGDefinition is a benchmark imported into the database so audit jobs
// can reference it by row ID. BenchmarkID keys back into the on-disk
// library for rule content.
type STIGDefinition struct {
	ID          uuid.UUID `json:"id"`
	BenchmarkID string    `json:"benchmark_id"`
	Title       string    `json:"title"`
	Version     string    `json:"version"`
	RulesCount  int       `json:"rules_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AuditTarget is an asset whose configuration is evaluated against STIG
// benchmarks.
type AuditTarget struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	IPAddress  string     `json:"ip_address"`
	Platform   Platform   `json:"platform"`
	OSVersion  string     `json:"os_version,omitempty"`
	ConfigText string     `json:"-"`
	IsActive   bool       `json:"is_active"`
	LastAudit  *time.Time `json:"last_audit,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// AuditJob tracks one evaluation of a target against a benchmark.
type AuditJob struct {
	ID           uuid.UUID   `json:"id"`
	TargetID     uuid.UUID   `json:"target_id"`
	DefinitionID uuid.UUID   `json:"definition_id"`
	Status       AuditStatus `json:"status"`
	Error        string      `json:"error,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	StartedAt    *time.Time  `json:"started_at,omitempty"`
	CompletedAt  *time.Time  `json:"completed_at,omitempty"`
}

// AuditResult is the finding for one rule within a job.
type AuditResult struct {
	JobID          uuid.UUID    `json:"job_id"`
	VulnID         string       `json:"vuln_id"`
	RuleID         string       `json:"rule_id"`
	Title          string       `json:"title"`
	Severity       STIGSeverity `json:"severity"`
	Status         CheckStatus  `json:"status"`
	FindingDetails string       `json:"finding_details"`
}

// ComplianceSummary aggregates the outcome of a completed job. The score
// counts only pass and fail: not_applicable, not_reviewed, and error rows
// are excluded from the denominator.
type ComplianceSummary struct {
	JobID           uuid.UUID `json:"job_id"`
	TargetName      string    `json:"target_name"`
	STIGTitle       string    `json:"stig_title"`
	AuditDate       time.Time `json:"audit_date"`
	TotalChecks     int       `json:"total_checks"`
	Passed          int       `json:"passed"`
	Failed          int       `json:"failed"`
	NotApplicable   int       `json:"not_applicable"`
	NotReviewed     int       `json:"not_reviewed"`
	Errors          int       `json:"errors"`
	ComplianceScore float64   `json:"compliance_score"`
}

// TrendPoint is one day of the fleet-wide compliance score series.
type TrendPoint struct {
	Date  time.Time `json:"date"`
	Score float64   `json:"score"`
}

// WorstFinding is a failing rule ranked by how many targets it affects in
// their latest completed audit.
type WorstFinding struct {
	VulnID          string       `json:"vuln_id"`
	Title           string       `json:"title"`
	Severity        STIGSeverity `json:"severity"`
	AffectedTargets int          `json:"affected_targets"`
}

// FleetCompliance aggregates check outcomes across every target's latest
// completed audit.
type FleetCompliance struct {
	TotalChecks     int     `json:"total_checks"`
	Passed          int     `json:"passed"`
	Failed          int     `json:"failed"`
	HighFailed      int     `json:"high_failed"`
	MediumFailed    int     `json:"medium_failed"`
	LowFailed       int     `json:"low_failed"`
	TotalTargets    int     `json:"total_targets"`
	ComplianceScore float64 `json:"compliance_score"`
}
