// Package natsutil wraps the NATS client with the connection, stream, and
// consumer plumbing shared by the poller, syslog, and STIG services.
package natsutil

import (
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/netnynja/netnynja/pkg/logger"
)

var errNATSURLRequired = errors.New("nats url is required")

// Config holds NATS connection settings.
type Config struct {
	URL    string       `json:"url"`
	Name   string       `json:"name,omitempty"`
	Domain string       `json:"domain,omitempty"`
	TLS    *TLSSettings `json:"tls,omitempty"`
}

// Validate implements config.Validator.
func (c *Config) Validate() error {
	if c.URL == "" {
		return errNATSURLRequired
	}

	return nil
}

// Connect dials NATS with reconnect handlers wired to the logger.
func Connect(cfg *Config, log logger.Logger) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.MaxReconnects(-1),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}

	if cfg.Name != "" {
		opts = append(opts, nats.Name(cfg.Name))
	}

	if cfg.TLS != nil {
		tlsConf, err := TLSConfig(cfg.TLS)
		if err != nil {
			return nil, fmt.Errorf("failed to build NATS TLS config: %w", err)
		}

		opts = append(opts, nats.Secure(tlsConf))
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return nc, nil
}

// NewJetStream creates a JetStream context, honoring an optional domain.
func NewJetStream(nc *nats.Conn, domain string) (jetstream.JetStream, error) {
	if domain != "" {
		js, err := jetstream.NewWithDomain(nc, domain)
		if err != nil {
			return nil, fmt.Errorf("failed to create JetStream context with domain %s: %w", domain, err)
		}

		return js, nil
	}

	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	return js, nil
}
