package natsutil

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
)

// ErrCAParsingFailed means the CA file was read but contained no usable PEM certificates.
var ErrCAParsingFailed = errors.New("failed to parse CA certificate")

// TLSSettings holds mutual-TLS material for the NATS connection.
type TLSSettings struct {
	CertFile   string `json:"cert_file"`
	KeyFile    string `json:"key_file"`
	CAFile     string `json:"ca_file"`
	ServerName string `json:"server_name,omitempty"`
}

// TLSConfig builds a tls.Config from the settings. The client certificate
// pair is required; the CA file is optional and extends the system pool.
func TLSConfig(sec *TLSSettings) (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(sec.CertFile, sec.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load client certificate: %w", err)
	}

	tlsConfig := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS13,
	}

	if sec.ServerName != "" {
		tlsConfig.ServerName = sec.ServerName
	}

	if sec.CAFile != "" {
		caPEM, err := os.ReadFile(sec.CAFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA certificate: %w", err)
		}

		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caPEM) {
			return nil, ErrCAParsingFailed
		}

		tlsConfig.RootCAs = pool
	}

	return tlsConfig, nil
}
