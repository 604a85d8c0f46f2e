package npm

import (
	"errors"
	"time"

	"github.com/netnynja/netnynja/pkg/db"
	"github.com/netnynja/netnynja/pkg/logger"
	"github.com/netnynja/netnynja/pkg/natsutil"
)

var errCredentialKeyRequired = errors.New("credential_key is required")

const (
	defaultPollInterval       = 60 * time.Second
	defaultBatchSize          = 100
	defaultMaxConcurrentPolls = 20
	defaultSNMPTimeout        = 5 * time.Second
	defaultSNMPRetries        = 2
	defaultPingCount          = 3
	defaultPingTimeout        = 2 * time.Second
)

// Config represents poller configuration.
type Config struct {
	PollInterval       logger.Duration  `json:"poll_interval,omitempty"`
	BatchSize          int              `json:"batch_size,omitempty"`
	MaxConcurrentPolls int              `json:"max_concurrent_polls,omitempty"`
	SNMPTimeout        logger.Duration  `json:"snmp_timeout,omitempty"`
	SNMPRetries        int              `json:"snmp_retries,omitempty"`
	PingCount          int              `json:"ping_count,omitempty"`
	PingTimeout        logger.Duration  `json:"ping_timeout,omitempty"`
	CredentialKey      string           `json:"credential_key"`
	TSDBURL            string           `json:"tsdb_url,omitempty"`
	Database           db.Config        `json:"database"`
	NATS               *natsutil.Config `json:"nats,omitempty"`
	Logging            *logger.Config   `json:"logging,omitempty"`
}

// Validate implements config.Validator and fills in defaults.
func (c *Config) Validate() error {
	if c.CredentialKey == "" {
		return errCredentialKeyRequired
	}

	if err := c.Database.Validate(); err != nil {
		return err
	}

	if c.NATS != nil {
		if err := c.NATS.Validate(); err != nil {
			return err
		}
	}

	if time.Duration(c.PollInterval) == 0 {
		c.PollInterval = logger.Duration(defaultPollInterval)
	}

	if c.BatchSize <= 0 {
		c.BatchSize = defaultBatchSize
	}

	if c.MaxConcurrentPolls <= 0 {
		c.MaxConcurrentPolls = defaultMaxConcurrentPolls
	}

	if time.Duration(c.SNMPTimeout) == 0 {
		c.SNMPTimeout = logger.Duration(defaultSNMPTimeout)
	}

	if c.SNMPRetries <= 0 {
		c.SNMPRetries = defaultSNMPRetries
	}

	if c.PingCount <= 0 {
		c.PingCount = defaultPingCount
	}

	if time.Duration(c.PingTimeout) == 0 {
		c.PingTimeout = logger.Duration(defaultPingTimeout)
	}

	return nil
}
