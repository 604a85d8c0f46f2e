package models

import (
	"time"

	"github.com/google/uuid"
)

// SyslogEvent is one parsed syslog message. Version 0 means the frame was
// RFC 3164 (BSD); 1 and above is the RFC 5424 VERSION field.
type SyslogEvent struct {
	ID             uuid.UUID                    `json:"id"`
	SourceIP       string                       `json:"source_ip"`
	ReceivedAt     time.Time                    `json:"received_at"`
	Facility       int                          `json:"facility"`
	Severity       int                          `json:"severity"`
	Version        int                          `json:"version"`
	Timestamp      *time.Time                   `json:"timestamp,omitempty"`
	Hostname       string                       `json:"hostname,omitempty"`
	AppName        string                       `json:"app_name,omitempty"`
	ProcID         string                       `json:"proc_id,omitempty"`
	MsgID          string                       `json:"msg_id,omitempty"`
	StructuredData map[string]map[string]string `json:"structured_data,omitempty"`
	Message        string                       `json:"message"`
	DeviceType     string                       `json:"device_type,omitempty"`
	EventType      string                       `json:"event_type,omitempty"`
	RawMessage     string                       `json:"raw_message"`
}

// SyslogSource is a sending device, auto-created on first receipt from a
// new IP.
type SyslogSource struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"name"`
	IPAddress      string     `json:"ip_address"`
	Hostname       string     `json:"hostname,omitempty"`
	DeviceType     string     `json:"device_type,omitempty"`
	EventsReceived int64      `json:"events_received"`
	LastEventAt    *time.Time `json:"last_event_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// BufferSettings is the singleton (id=1) row governing the syslog circular
// buffer: total byte quota, the fill percentage that triggers cleanup, and
// the age cap on retained events.
type BufferSettings struct {
	ID                      int        `json:"id"`
	MaxSizeBytes            int64      `json:"max_size_bytes"`
	CleanupThresholdPercent int        `json:"cleanup_threshold_percent"`
	RetentionDays           int        `json:"retention_days"`
	CurrentSizeBytes        int64      `json:"current_size_bytes"`
	LastCleanupAt           *time.Time `json:"last_cleanup_at,omitempty"`
}
