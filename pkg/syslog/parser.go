package syslog

import (
	"regexp"
	"strconv"
	"time"

	"github.com/netnynja/netnynja/pkg/models"
)

// Defaults applied when a frame carries no usable PRI field: facility
// user (1), severity informational (6).
const (
	defaultFacility = 1
	defaultSeverity = 6
)

var (
	// An RFC 5424 frame is "<PRI>VERSION ..." where VERSION is a digit.
	rfc5424Probe = regexp.MustCompile(`^<\d{1,3}>\d\s`)

	// <PRI>TIMESTAMP HOSTNAME REST
	rfc3164Frame = regexp.MustCompile(`^<(\d{1,3})>([A-Za-z]{3}\s+\d{1,2}\s+\d{2}:\d{2}:\d{2})\s+(\S+)\s+(.*)$`)

	// TAG[PID]: MESSAGE or TAG: MESSAGE
	rfc3164Tag = regexp.MustCompile(`^(\S+?)(?:\[(\d+)\])?:\s*(.*)$`)

	// Degraded frame with nothing but a PRI prefix.
	priOnlyFrame = regexp.MustCompile(`^<(\d{1,3})>(.*)$`)

	// <PRI>VERSION TIMESTAMP HOSTNAME APP-NAME PROCID MSGID STRUCTURED-DATA MSG
	rfc5424Frame = regexp.MustCompile(`^<(\d{1,3})>(\d+)\s+(\S+)\s+(\S+)\s+(\S+)\s+(\S+)\s+(\S+)\s+(-|\[.*?\](?:\s*\[.*?\])*)\s*(.*)$`)

	sdElement = regexp.MustCompile(`\[(\S+?)(?:\s+(.*?))?\]`)
	sdParam   = regexp.MustCompile(`(\S+?)="([^"]*)"`)
)

// ParsePriority splits a PRI field into facility (upper bits) and
// severity (lower three bits). Malformed input yields user/informational.
func ParsePriority(pri string) (facility, severity int) {
	n, err := strconv.Atoi(pri)
	if err != nil {
		return defaultFacility, defaultSeverity
	}

	return n >> 3, n & 0x07
}

// Parse decodes a single syslog frame. Frames announcing an RFC 5424
// VERSION digit go through the 5424 path and fall back to RFC 3164 when
// they turn out not to match; everything else is treated as BSD syslog.
// Parsing never fails: an unrecognizable frame becomes an event with
// default priority and the whole frame as the message.
//
// The identity fields (ID, SourceIP, ReceivedAt) are the caller's to
// fill in.
func Parse(raw string) models.SyslogEvent {
	if rfc5424Probe.MatchString(raw) {
		return parseRFC5424(raw)
	}

	return parseRFC3164(raw)
}

func parseRFC3164(raw string) models.SyslogEvent {
	if m := rfc3164Frame.FindStringSubmatch(raw); m != nil {
		facility, severity := ParsePriority(m[1])
		hostname := m[3]
		rest := m[4]

		var appName, procID, message string
		if tag := rfc3164Tag.FindStringSubmatch(rest); tag != nil {
			appName, procID, message = tag[1], tag[2], tag[3]
		} else {
			message = rest
		}

		return models.SyslogEvent{
			Facility:   facility,
			Severity:   severity,
			Timestamp:  parseBSDTimestamp(m[2]),
			Hostname:   hostname,
			AppName:    appName,
			ProcID:     procID,
			Message:    message,
			DeviceType: DetectDeviceType(message, hostname),
			EventType:  DetectEventType(message),
			RawMessage: raw,
		}
	}

	facility, severity := defaultFacility, defaultSeverity
	message := raw

	if m := priOnlyFrame.FindStringSubmatch(raw); m != nil {
		facility, severity = ParsePriority(m[1])
		message = m[2]
	}

	return models.SyslogEvent{
		Facility:   facility,
		Severity:   severity,
		Message:    message,
		DeviceType: DetectDeviceType(message, ""),
		EventType:  DetectEventType(message),
		RawMessage: raw,
	}
}

func parseRFC5424(raw string) models.SyslogEvent {
	m := rfc5424Frame.FindStringSubmatch(raw)
	if m == nil {
		return parseRFC3164(raw)
	}

	facility, severity := ParsePriority(m[1])
	version, _ := strconv.Atoi(m[2])
	hostname := nilValue(m[4])
	message := m[9]

	var sd map[string]map[string]string
	if m[8] != "" && m[8] != "-" {
		sd = parseStructuredData(m[8])
	}

	return models.SyslogEvent{
		Facility:       facility,
		Severity:       severity,
		Version:        version,
		Timestamp:      parseISOTimestamp(m[3]),
		Hostname:       hostname,
		AppName:        nilValue(m[5]),
		ProcID:         nilValue(m[6]),
		MsgID:          nilValue(m[7]),
		StructuredData: sd,
		Message:        message,
		DeviceType:     DetectDeviceType(message, hostname),
		EventType:      DetectEventType(message),
		RawMessage:     raw,
	}
}

// parseBSDTimestamp reads the year-less RFC 3164 timestamp, pinning it to
// the current year.
func parseBSDTimestamp(s string) *time.Time {
	t, err := time.Parse("2006 Jan 2 15:04:05", strconv.Itoa(time.Now().Year())+" "+s)
	if err != nil {
		return nil
	}

	return &t
}

func parseISOTimestamp(s string) *time.Time {
	if s == "-" {
		return nil
	}

	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		// Some senders omit the zone entirely.
		if t, err = time.Parse("2006-01-02T15:04:05.999999999", s); err != nil {
			return nil
		}
	}

	return &t
}

// nilValue maps the RFC 5424 NILVALUE ("-") to the empty string.
func nilValue(s string) string {
	if s == "-" {
		return ""
	}

	return s
}

// parseStructuredData decodes [SD-ID param="value" ...] elements into a
// two-level map. Malformed elements are simply skipped.
func parseStructuredData(s string) map[string]map[string]string {
	result := make(map[string]map[string]string)

	for _, elem := range sdElement.FindAllStringSubmatch(s, -1) {
		params := make(map[string]string)
		for _, p := range sdParam.FindAllStringSubmatch(elem[2], -1) {
			params[p[1]] = p[2]
		}

		result[elem[1]] = params
	}

	return result
}
