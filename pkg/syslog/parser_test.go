package syslog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePriority(t *testing.T) {
	tests := []struct {
		pri          string
		wantFacility int
		wantSeverity int
	}{
		{"34", 4, 2},
		{"0", 0, 0},
		{"13", 1, 5},
		{"191", 23, 7},
		{"165", 20, 5},
		{"abc", 1, 6},
		{"", 1, 6},
	}

	for _, tt := range tests {
		facility, severity := ParsePriority(tt.pri)
		assert.Equal(t, tt.wantFacility, facility, "facility for %q", tt.pri)
		assert.Equal(t, tt.wantSeverity, severity, "severity for %q", tt.pri)
	}
}

func TestParseRFC3164Classic(t *testing.T) {
	ev := Parse("<34>Oct 11 22:14:15 mymachine su: 'su root' failed for lonvick")

	assert.Equal(t, 4, ev.Facility)
	assert.Equal(t, 2, ev.Severity)
	assert.Equal(t, 0, ev.Version)
	assert.Equal(t, "mymachine", ev.Hostname)
	assert.Equal(t, "su", ev.AppName)
	assert.Empty(t, ev.ProcID)
	assert.Equal(t, "'su root' failed for lonvick", ev.Message)
	assert.Equal(t, "security_alert", ev.EventType)
	assert.Empty(t, ev.DeviceType)
	assert.Equal(t, "<34>Oct 11 22:14:15 mymachine su: 'su root' failed for lonvick", ev.RawMessage)

	require.NotNil(t, ev.Timestamp)
	assert.Equal(t, time.Now().Year(), ev.Timestamp.Year())
	assert.Equal(t, time.October, ev.Timestamp.Month())
	assert.Equal(t, 11, ev.Timestamp.Day())
	assert.Equal(t, 22, ev.Timestamp.Hour())
}

func TestParseRFC3164TagWithPID(t *testing.T) {
	ev := Parse("<13>Feb  5 17:32:18 bastion-01 sshd[4721]: Connection closed by 198.51.100.7")

	assert.Equal(t, 1, ev.Facility)
	assert.Equal(t, 5, ev.Severity)
	assert.Equal(t, "bastion-01", ev.Hostname)
	assert.Equal(t, "sshd", ev.AppName)
	assert.Equal(t, "4721", ev.ProcID)
	assert.Equal(t, "Connection closed by 198.51.100.7", ev.Message)

	// Single-digit day, double-space padded.
	require.NotNil(t, ev.Timestamp)
	assert.Equal(t, time.February, ev.Timestamp.Month())
	assert.Equal(t, 5, ev.Timestamp.Day())
}

func TestParseRFC3164WithoutTag(t *testing.T) {
	ev := Parse("<166>Jan  3 10:20:30 fw01 session opened for user admin")

	assert.Equal(t, 20, ev.Facility)
	assert.Equal(t, 6, ev.Severity)
	assert.Equal(t, "fw01", ev.Hostname)
	assert.Empty(t, ev.AppName)
	assert.Equal(t, "session opened for user admin", ev.Message)
	assert.Equal(t, "authentication", ev.EventType)
}

func TestParseRFC3164BadTimestampKeptAsNil(t *testing.T) {
	ev := Parse("<34>Xxx 11 22:14:15 mymachine su: test")

	assert.Nil(t, ev.Timestamp)
	assert.Equal(t, "mymachine", ev.Hostname)
	assert.Equal(t, "su", ev.AppName)
	assert.Equal(t, "test", ev.Message)
}

func TestParsePriorityOnlyFallback(t *testing.T) {
	ev := Parse("<191>no timestamp here")

	assert.Equal(t, 23, ev.Facility)
	assert.Equal(t, 7, ev.Severity)
	assert.Empty(t, ev.Hostname)
	assert.Nil(t, ev.Timestamp)
	assert.Equal(t, "no timestamp here", ev.Message)
}

func TestParseRawFallback(t *testing.T) {
	ev := Parse("plain text with no pri at all")

	assert.Equal(t, defaultFacility, ev.Facility)
	assert.Equal(t, defaultSeverity, ev.Severity)
	assert.Equal(t, "plain text with no pri at all", ev.Message)
	assert.Equal(t, "plain text with no pri at all", ev.RawMessage)
}

func TestParseRFC5424(t *testing.T) {
	ev := Parse("<34>1 2003-10-11T22:14:15.003Z mymachine.example.com su - ID47 - 'su root' failed for lonvick")

	assert.Equal(t, 4, ev.Facility)
	assert.Equal(t, 2, ev.Severity)
	assert.Equal(t, 1, ev.Version)
	assert.Equal(t, "mymachine.example.com", ev.Hostname)
	assert.Equal(t, "su", ev.AppName)
	assert.Empty(t, ev.ProcID)
	assert.Equal(t, "ID47", ev.MsgID)
	assert.Nil(t, ev.StructuredData)
	assert.Equal(t, "'su root' failed for lonvick", ev.Message)

	require.NotNil(t, ev.Timestamp)
	assert.True(t, ev.Timestamp.Equal(time.Date(2003, time.October, 11, 22, 14, 15, 3_000_000, time.UTC)))
}

func TestParseRFC5424StructuredData(t *testing.T) {
	ev := Parse(`<165>1 2003-10-11T22:14:15.003Z mymachine.example.com evntslog 1020 ID47 [exampleSDID@32473 iut="3" eventSource="Application" eventID="1011"][examplePriority@32473 class="high"] An application event log entry`)

	assert.Equal(t, 20, ev.Facility)
	assert.Equal(t, 5, ev.Severity)
	assert.Equal(t, "evntslog", ev.AppName)
	assert.Equal(t, "1020", ev.ProcID)
	assert.Equal(t, "An application event log entry", ev.Message)

	require.NotNil(t, ev.StructuredData)
	require.Contains(t, ev.StructuredData, "exampleSDID@32473")
	assert.Equal(t, map[string]string{
		"iut":         "3",
		"eventSource": "Application",
		"eventID":     "1011",
	}, ev.StructuredData["exampleSDID@32473"])
	assert.Equal(t, map[string]string{"class": "high"}, ev.StructuredData["examplePriority@32473"])
}

func TestParseRFC5424NilValues(t *testing.T) {
	ev := Parse("<34>1 - - - - - -")

	assert.Equal(t, 1, ev.Version)
	assert.Nil(t, ev.Timestamp)
	assert.Empty(t, ev.Hostname)
	assert.Empty(t, ev.AppName)
	assert.Empty(t, ev.ProcID)
	assert.Empty(t, ev.MsgID)
	assert.Nil(t, ev.StructuredData)
	assert.Empty(t, ev.Message)
}

func TestParseRFC5424BadTimestampKeptAsNil(t *testing.T) {
	ev := Parse("<34>1 not-a-timestamp host app 1 ID1 - oops")

	assert.Equal(t, 1, ev.Version)
	assert.Nil(t, ev.Timestamp)
	assert.Equal(t, "host", ev.Hostname)
	assert.Equal(t, "oops", ev.Message)
}

func TestParseRFC5424NaiveTimestamp(t *testing.T) {
	ev := Parse("<34>1 2024-06-01T08:30:00 host app - - - hello")

	require.NotNil(t, ev.Timestamp)
	assert.True(t, ev.Timestamp.Equal(time.Date(2024, time.June, 1, 8, 30, 0, 0, time.UTC)))
}

func TestParseRFC5424MalformedFallsBackToBSD(t *testing.T) {
	ev := Parse("<34>1 incomplete")

	// The VERSION digit got swallowed into the message by the fallback.
	assert.Equal(t, 4, ev.Facility)
	assert.Equal(t, 2, ev.Severity)
	assert.Equal(t, 0, ev.Version)
	assert.Equal(t, "1 incomplete", ev.Message)
}
