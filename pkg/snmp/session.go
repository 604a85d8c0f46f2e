// Package snmp wraps gosnmp with the session shape the device collector
// consumes: SNMPv3-only USM sessions, soft-failure scalar GETs, and
// row-capped subtree walks.
package snmp

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gosnmp/gosnmp"

	"github.com/netnynja/netnynja/pkg/logger"
	"github.com/netnynja/netnynja/pkg/models"
)

//go:generate mockgen -destination=mock_session.go -package=snmp github.com/netnynja/netnynja/pkg/snmp Session

const (
	defaultPort    = 161
	defaultTimeout = 5 * time.Second
	defaultRetries = 2

	maxBulkRepetitions = 10
)

// ErrUnknownSecurityLevel means the credential names a security level
// outside noAuthNoPriv/authNoPriv/authPriv.
var ErrUnknownSecurityLevel = errors.New("unknown SNMPv3 security level")

// errWalkTerminated aborts a BulkWalk early; it never escapes WalkSubtree.
var errWalkTerminated = errors.New("walk terminated")

// Config addresses one device conversation.
type Config struct {
	Target  string
	Port    uint16
	Timeout time.Duration
	Retries int
}

// Credential is the decrypted USM material for one session. It lives only
// inside the polling goroutine and is never persisted or logged.
type Credential struct {
	Username      string
	SecurityLevel models.SecurityLevel
	AuthProtocol  string
	AuthPassword  string
	PrivProtocol  string
	PrivPassword  string
	ContextName   string
}

// Session is one device conversation. GETs fail soft: a missing or
// unreadable value reports ok=false and the poll moves on. Sessions are
// single-goroutine; open one per poll task and Close when done.
type Session interface {
	Get(oid string) (gosnmp.SnmpPDU, bool)
	GetMany(oids []string) map[string]gosnmp.SnmpPDU
	WalkSubtree(root string, maxRows int) ([]gosnmp.SnmpPDU, error)
	Close()
}

// DialFunc matches Dial so tests can substitute fake sessions.
type DialFunc func(cfg Config, cred Credential, log logger.Logger) (Session, error)

type udpSession struct {
	conn   *gosnmp.GoSNMP
	logger logger.Logger
}

// Dial opens an SNMPv3 session to cfg.Target. The zero Config fields take
// the collector defaults: port 161, timeout 5s, 2 retries.
func Dial(cfg Config, cred Credential, log logger.Logger) (Session, error) {
	port := cfg.Port
	if port == 0 {
		port = defaultPort
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	retries := cfg.Retries
	if retries <= 0 {
		retries = defaultRetries
	}

	usm, flags, err := usmParams(cred)
	if err != nil {
		return nil, err
	}

	conn := &gosnmp.GoSNMP{
		Target:             cfg.Target,
		Port:               port,
		Version:            gosnmp.Version3,
		SecurityModel:      gosnmp.UserSecurityModel,
		SecurityParameters: usm,
		MsgFlags:           flags,
		ContextName:        cred.ContextName,
		Timeout:            timeout,
		Retries:            retries,
		MaxOids:            gosnmp.MaxOids,
		MaxRepetitions:     maxBulkRepetitions,
		ExponentialTimeout: true,
	}

	if err := conn.Connect(); err != nil {
		return nil, fmt.Errorf("snmp connect %s: %w", cfg.Target, err)
	}

	return &udpSession{conn: conn, logger: log}, nil
}

// usmParams maps the credential onto gosnmp USM parameters and message
// flags for the configured security level.
func usmParams(cred Credential) (*gosnmp.UsmSecurityParameters, gosnmp.SnmpV3MsgFlags, error) {
	usm := &gosnmp.UsmSecurityParameters{
		UserName: cred.Username,
	}

	switch cred.SecurityLevel {
	case models.SecurityNoAuthNoPriv:
		return usm, gosnmp.NoAuthNoPriv, nil
	case models.SecurityAuthNoPriv:
		configureAuthentication(usm, cred)
		return usm, gosnmp.AuthNoPriv, nil
	case models.SecurityAuthPriv:
		configureAuthentication(usm, cred)
		configurePrivacy(usm, cred)

		return usm, gosnmp.AuthPriv, nil
	default:
		return nil, 0, fmt.Errorf("%w: %q", ErrUnknownSecurityLevel, cred.SecurityLevel)
	}
}

// configureAuthentication sets up the authentication protocol. Protocol
// names tolerate both dashed ("SHA-256") and bare ("SHA256") spellings.
func configureAuthentication(usm *gosnmp.UsmSecurityParameters, cred Credential) {
	switch normalizeProtocol(cred.AuthProtocol) {
	case "SHA":
		usm.AuthenticationProtocol = gosnmp.SHA
	case "SHA224":
		usm.AuthenticationProtocol = gosnmp.SHA224
	case "SHA256":
		usm.AuthenticationProtocol = gosnmp.SHA256
	case "SHA384":
		usm.AuthenticationProtocol = gosnmp.SHA384
	case "SHA512":
		usm.AuthenticationProtocol = gosnmp.SHA512
	default:
		usm.AuthenticationProtocol = gosnmp.NoAuth
		return
	}

	usm.AuthenticationPassphrase = cred.AuthPassword
}

// configurePrivacy sets up the privacy protocol. AES variants only; DES is
// not accepted.
func configurePrivacy(usm *gosnmp.UsmSecurityParameters, cred Credential) {
	switch normalizeProtocol(cred.PrivProtocol) {
	case "AES", "AES128":
		usm.PrivacyProtocol = gosnmp.AES
	case "AES192":
		usm.PrivacyProtocol = gosnmp.AES192
	case "AES256":
		usm.PrivacyProtocol = gosnmp.AES256
	default:
		usm.PrivacyProtocol = gosnmp.NoPriv
		return
	}

	usm.PrivacyPassphrase = cred.PrivPassword
}

func normalizeProtocol(p string) string {
	return strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(p)), "-", "")
}

// Get reads one scalar. Any transport error, SNMP error status, or
// NoSuchObject-style response reports ok=false.
func (s *udpSession) Get(oid string) (gosnmp.SnmpPDU, bool) {
	packet, err := s.conn.Get([]string{oid})
	if err != nil {
		s.logger.Debug().Err(err).Str("target", s.conn.Target).Str("oid", oid).Msg("SNMP get failed")
		return gosnmp.SnmpPDU{}, false
	}

	if packet.Error != gosnmp.NoError {
		s.logger.Debug().
			Str("target", s.conn.Target).
			Str("oid", oid).
			Str("error_status", packet.Error.String()).
			Msg("SNMP get returned error status")

		return gosnmp.SnmpPDU{}, false
	}

	for _, pdu := range packet.Variables {
		if HasValue(pdu) {
			return pdu, true
		}
	}

	return gosnmp.SnmpPDU{}, false
}

// GetMany reads a set of scalars in MaxOids-sized request chunks and
// returns the readable ones keyed by the OID string used in the request.
func (s *udpSession) GetMany(oids []string) map[string]gosnmp.SnmpPDU {
	results := make(map[string]gosnmp.SnmpPDU, len(oids))

	for start := 0; start < len(oids); start += gosnmp.MaxOids {
		end := start + gosnmp.MaxOids
		if end > len(oids) {
			end = len(oids)
		}

		chunk := oids[start:end]

		packet, err := s.conn.Get(chunk)
		if err != nil {
			s.logger.Debug().Err(err).Str("target", s.conn.Target).Int("oids", len(chunk)).Msg("SNMP multi-get failed")
			continue
		}

		if packet.Error != gosnmp.NoError {
			continue
		}

		for i, pdu := range packet.Variables {
			if i >= len(chunk) || !HasValue(pdu) {
				continue
			}

			results[chunk[i]] = pdu
		}
	}

	return results
}

// WalkSubtree walks the subtree under root, stopping when the agent
// leaves the subtree or maxRows rows have been collected. maxRows <= 0
// means unbounded.
func (s *udpSession) WalkSubtree(root string, maxRows int) ([]gosnmp.SnmpPDU, error) {
	var rows []gosnmp.SnmpPDU

	err := s.conn.BulkWalk(root, func(pdu gosnmp.SnmpPDU) error {
		if !inSubtree(root, pdu.Name) {
			return errWalkTerminated
		}

		if HasValue(pdu) {
			rows = append(rows, pdu)
		}

		if maxRows > 0 && len(rows) >= maxRows {
			return errWalkTerminated
		}

		return nil
	})
	if err != nil && !errors.Is(err, errWalkTerminated) {
		return rows, fmt.Errorf("snmp walk %s: %w", root, err)
	}

	return rows, nil
}

func (s *udpSession) Close() {
	if s.conn.Conn != nil {
		_ = s.conn.Conn.Close()
	}
}

// inSubtree reports whether oid equals root or descends from it. Leading
// dots are ignored so agent-returned names compare against bare roots.
func inSubtree(root, oid string) bool {
	r := strings.TrimPrefix(root, ".")
	o := strings.TrimPrefix(oid, ".")

	return o == r || strings.HasPrefix(o, r+".")
}
