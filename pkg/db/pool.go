// Package db provides the PostgreSQL connection pool shared by the poller,
// syslog, and STIG services.
package db

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/netnynja/netnynja/pkg/logger"
)

// Config holds PostgreSQL connection settings.
type Config struct {
	Host              string            `json:"host"`
	Port              int               `json:"port"`
	Database          string            `json:"database"`
	Username          string            `json:"username"`
	Password          string            `json:"password"`
	SSLMode           string            `json:"sslmode,omitempty"`
	ApplicationName   string            `json:"application_name,omitempty"`
	MaxConnections    int32             `json:"max_connections,omitempty"`
	MinConnections    int32             `json:"min_connections,omitempty"`
	MaxConnLifetime   logger.Duration   `json:"max_conn_lifetime,omitempty"`
	HealthCheckPeriod logger.Duration   `json:"health_check_period,omitempty"`
	StatementTimeout  logger.Duration   `json:"statement_timeout,omitempty"`
	RuntimeParams     map[string]string `json:"runtime_params,omitempty"`
}

// Validate implements config.Validator.
func (c *Config) Validate() error {
	if c.Host == "" {
		return ErrHostRequired
	}

	if c.Database == "" {
		return ErrDatabaseRequired
	}

	return nil
}

// NewPool dials PostgreSQL and returns a pgx pool, verifying connectivity
// with a ping before handing it out.
func NewPool(ctx context.Context, cfg *Config, log logger.Logger) (*pgxpool.Pool, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}

	c := *cfg
	if c.Port == 0 {
		c.Port = 5432
	}

	connURL := url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   "/" + c.Database,
	}

	if c.Username != "" {
		if c.Password != "" {
			connURL.User = url.UserPassword(c.Username, c.Password)
		} else {
			connURL.User = url.User(c.Username)
		}
	}

	query := connURL.Query()

	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	query.Set("sslmode", sslMode)

	if c.ApplicationName != "" {
		query.Set("application_name", c.ApplicationName)
	}

	connURL.RawQuery = query.Encode()

	poolConfig, err := pgxpool.ParseConfig(connURL.String())
	if err != nil {
		return nil, fmt.Errorf("db: failed to parse connection string: %w", err)
	}

	if c.MaxConnections > 0 {
		poolConfig.MaxConns = c.MaxConnections
	}

	if c.MinConnections > 0 {
		poolConfig.MinConns = c.MinConnections
	}

	if c.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = time.Duration(c.MaxConnLifetime)
	}

	if c.HealthCheckPeriod > 0 {
		poolConfig.HealthCheckPeriod = time.Duration(c.HealthCheckPeriod)
	}

	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = make(map[string]string)
	}

	for k, v := range c.RuntimeParams {
		if k == "" {
			continue
		}

		poolConfig.ConnConfig.RuntimeParams[k] = v
	}

	if c.StatementTimeout > 0 {
		timeout := time.Duration(c.StatementTimeout) / time.Millisecond
		poolConfig.ConnConfig.RuntimeParams["statement_timeout"] = fmt.Sprintf("%d", timeout)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("db: failed to initialize pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db: ping failed: %w", err)
	}

	if log != nil {
		log.Info().
			Str("host", c.Host).
			Int("port", c.Port).
			Str("database", c.Database).
			Int32("max_conns", poolConfig.MaxConns).
			Msg("Connected to PostgreSQL")
	}

	return pool, nil
}
