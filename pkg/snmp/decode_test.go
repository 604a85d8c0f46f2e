package snmp

import (
	"testing"

	"github.com/gosnmp/gosnmp"
	"github.com/stretchr/testify/assert"
)

func TestHasValue(t *testing.T) {
	assert.True(t, HasValue(gosnmp.SnmpPDU{Type: gosnmp.Integer, Value: 7}))
	assert.True(t, HasValue(gosnmp.SnmpPDU{Type: gosnmp.OctetString, Value: []byte("eth0")}))
	assert.False(t, HasValue(gosnmp.SnmpPDU{Type: gosnmp.NoSuchObject}))
	assert.False(t, HasValue(gosnmp.SnmpPDU{Type: gosnmp.NoSuchInstance}))
	assert.False(t, HasValue(gosnmp.SnmpPDU{Type: gosnmp.EndOfMibView}))
	assert.False(t, HasValue(gosnmp.SnmpPDU{Type: gosnmp.Null}))
	assert.False(t, HasValue(gosnmp.SnmpPDU{Type: gosnmp.Integer, Value: nil}))
}

func TestToInt64(t *testing.T) {
	tests := []struct {
		name   string
		pdu    gosnmp.SnmpPDU
		want   int64
		wantOK bool
	}{
		{name: "integer", pdu: gosnmp.SnmpPDU{Type: gosnmp.Integer, Value: 42}, want: 42, wantOK: true},
		{name: "counter64", pdu: gosnmp.SnmpPDU{Type: gosnmp.Counter64, Value: uint64(1048576)}, want: 1048576, wantOK: true},
		{name: "gauge32", pdu: gosnmp.SnmpPDU{Type: gosnmp.Gauge32, Value: uint(1000)}, want: 1000, wantOK: true},
		{name: "timeticks", pdu: gosnmp.SnmpPDU{Type: gosnmp.TimeTicks, Value: uint32(360000)}, want: 360000, wantOK: true},
		{name: "numeric octet string", pdu: gosnmp.SnmpPDU{Type: gosnmp.OctetString, Value: []byte(" 85 ")}, want: 85, wantOK: true},
		{name: "text octet string", pdu: gosnmp.SnmpPDU{Type: gosnmp.OctetString, Value: []byte("running")}, wantOK: false},
		{name: "no such object", pdu: gosnmp.SnmpPDU{Type: gosnmp.NoSuchObject}, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ToInt64(tt.pdu)
			assert.Equal(t, tt.wantOK, ok)

			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestToFloat64(t *testing.T) {
	got, ok := ToFloat64(gosnmp.SnmpPDU{Type: gosnmp.Integer, Value: 42})
	assert.True(t, ok)
	assert.InDelta(t, 42.0, got, 0.001)

	got, ok = ToFloat64(gosnmp.SnmpPDU{Type: gosnmp.OctetString, Value: []byte("17.5")})
	assert.True(t, ok)
	assert.InDelta(t, 17.5, got, 0.001)

	got, ok = ToFloat64(gosnmp.SnmpPDU{Type: gosnmp.OpaqueFloat, Value: float32(3.25)})
	assert.True(t, ok)
	assert.InDelta(t, 3.25, got, 0.001)

	_, ok = ToFloat64(gosnmp.SnmpPDU{Type: gosnmp.OctetString, Value: []byte("n/a")})
	assert.False(t, ok)
}

func TestToString(t *testing.T) {
	got, ok := ToString(gosnmp.SnmpPDU{Type: gosnmp.OctetString, Value: []byte("GigabitEthernet0/1")})
	assert.True(t, ok)
	assert.Equal(t, "GigabitEthernet0/1", got)

	_, ok = ToString(gosnmp.SnmpPDU{Type: gosnmp.Integer, Value: 1})
	assert.False(t, ok)
}
