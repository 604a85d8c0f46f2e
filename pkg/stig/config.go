package stig

import (
	"errors"

	"github.com/netnynja/netnynja/pkg/db"
	"github.com/netnynja/netnynja/pkg/logger"
	"github.com/netnynja/netnynja/pkg/natsutil"
)

var errLibraryPathRequired = errors.New("library_path is required")

// Config represents stig engine configuration.
type Config struct {
	LibraryPath string           `json:"library_path"`
	Database    db.Config        `json:"database"`
	NATS        *natsutil.Config `json:"nats,omitempty"`
	Logging     *logger.Config   `json:"logging,omitempty"`
}

// Validate implements config.Validator.
func (c *Config) Validate() error {
	if c.LibraryPath == "" {
		return errLibraryPathRequired
	}

	if err := c.Database.Validate(); err != nil {
		return err
	}

	if c.NATS != nil {
		if err := c.NATS.Validate(); err != nil {
			return err
		}
	}

	return nil
}
