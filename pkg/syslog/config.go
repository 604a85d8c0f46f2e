package syslog

import (
	"errors"
	"time"

	"github.com/netnynja/netnynja/pkg/db"
	"github.com/netnynja/netnynja/pkg/logger"
	"github.com/netnynja/netnynja/pkg/natsutil"
)

var errUDPPortInvalid = errors.New("udp_port must be between 1 and 65535")

const (
	defaultUDPPort         = 514
	defaultBatchSize       = 100
	defaultFlushInterval   = 5 * time.Second
	defaultJanitorInterval = 5 * time.Minute
)

// Config represents syslog service configuration.
type Config struct {
	ListenAddress   string           `json:"listen_address,omitempty"`
	UDPPort         int              `json:"udp_port,omitempty"`
	BatchSize       int              `json:"batch_size,omitempty"`
	FlushInterval   logger.Duration  `json:"flush_interval,omitempty"`
	JanitorInterval logger.Duration  `json:"janitor_interval,omitempty"`
	Database        db.Config        `json:"database"`
	NATS            *natsutil.Config `json:"nats,omitempty"`
	Logging         *logger.Config   `json:"logging,omitempty"`
}

// Validate implements config.Validator and fills in defaults.
func (c *Config) Validate() error {
	if err := c.Database.Validate(); err != nil {
		return err
	}

	if c.NATS != nil {
		if err := c.NATS.Validate(); err != nil {
			return err
		}
	}

	if c.UDPPort == 0 {
		c.UDPPort = defaultUDPPort
	}

	if c.UDPPort < 0 || c.UDPPort > 65535 {
		return errUDPPortInvalid
	}

	if c.ListenAddress == "" {
		c.ListenAddress = "0.0.0.0"
	}

	if c.BatchSize <= 0 {
		c.BatchSize = defaultBatchSize
	}

	if time.Duration(c.FlushInterval) == 0 {
		c.FlushInterval = logger.Duration(defaultFlushInterval)
	}

	if time.Duration(c.JanitorInterval) == 0 {
		c.JanitorInterval = logger.Duration(defaultJanitorInterval)
	}

	return nil
}
