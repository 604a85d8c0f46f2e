package snmp

import (
	"strconv"
	"strings"

	"github.com/gosnmp/gosnmp"
)

// HasValue reports whether a PDU carries a readable value rather than a
// NoSuchObject/NoSuchInstance/EndOfMibView marker.
func HasValue(pdu gosnmp.SnmpPDU) bool {
	switch pdu.Type {
	case gosnmp.NoSuchObject, gosnmp.NoSuchInstance, gosnmp.EndOfMibView, gosnmp.Null:
		return false
	default:
		return pdu.Value != nil
	}
}

// ToInt64 extracts an integer reading. Agents occasionally return numeric
// values as octet strings; those are parsed after trimming whitespace.
func ToInt64(pdu gosnmp.SnmpPDU) (int64, bool) {
	switch pdu.Type {
	case gosnmp.Integer, gosnmp.Counter32, gosnmp.Counter64, gosnmp.Gauge32,
		gosnmp.TimeTicks, gosnmp.Uinteger32:
		return gosnmp.ToBigInt(pdu.Value).Int64(), true
	case gosnmp.OctetString:
		raw, ok := pdu.Value.([]byte)
		if !ok {
			return 0, false
		}

		n, err := strconv.ParseInt(strings.TrimSpace(string(raw)), 10, 64)
		if err != nil {
			return 0, false
		}

		return n, true
	default:
		return 0, false
	}
}

// ToFloat64 extracts a float reading, accepting the same shapes as ToInt64
// plus decimal octet strings and opaque floats.
func ToFloat64(pdu gosnmp.SnmpPDU) (float64, bool) {
	switch pdu.Type {
	case gosnmp.OpaqueFloat:
		if v, ok := pdu.Value.(float32); ok {
			return float64(v), true
		}

		return 0, false
	case gosnmp.OpaqueDouble:
		if v, ok := pdu.Value.(float64); ok {
			return v, true
		}

		return 0, false
	case gosnmp.OctetString:
		raw, ok := pdu.Value.([]byte)
		if !ok {
			return 0, false
		}

		f, err := strconv.ParseFloat(strings.TrimSpace(string(raw)), 64)
		if err != nil {
			return 0, false
		}

		return f, true
	default:
		n, ok := ToInt64(pdu)
		if !ok {
			return 0, false
		}

		return float64(n), true
	}
}

// ToString extracts a text reading from an OctetString PDU.
func ToString(pdu gosnmp.SnmpPDU) (string, bool) {
	if pdu.Type != gosnmp.OctetString {
		return "", false
	}

	switch v := pdu.Value.(type) {
	case []byte:
		return string(v), true
	case string:
		return v, true
	default:
		return "", false
	}
}
