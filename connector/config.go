package connector

import (
	"time"
)

// Config represents database connection configuration.
type Config struct {
	// Driver selects a registered provider: "pgx", "pgx-stdlib" or "pq".
	Driver         string            `json:"driver" koanf:"driver" validate:"required"`
	Host           string            `json:"host" koanf:"host" validate:"required"`
	Port           int               `json:"port" koanf:"port" validate:"min=1,max=65535"`
	Database       string            `json:"database" koanf:"database" validate:"required"`
	Username       string            `json:"username" koanf:"username"`
	Password       string            `json:"-" koanf:"password"`
	SSLMode        string            `json:"ssl_mode" koanf:"ssl_mode" validate:"omitempty,oneof=disable allow prefer require verify-ca verify-full"`
	Params         map[string]string `json:"params" koanf:"params"`
	ConnectTimeout time.Duration     `json:"connect_timeout" koanf:"connect_timeout" validate:"gte=0"`
	Pool           PoolConfig        `json:"pool" koanf:"pool"`
	Session        SessionConfig     `json:"session" koanf:"session"`
	Retry          RetryConfig       `json:"retry" koanf:"retry"`
}

// PoolConfig defines connection pool settings.
type PoolConfig struct {
	MinSize     int           `json:"min_size" koanf:"min_size" validate:"gte=0,ltefield=MaxSize"`
	MaxSize     int           `json:"max_size" koanf:"max_size" validate:"min=1"`
	MaxWait     time.Duration `json:"max_wait" koanf:"max_wait" validate:"gte=0"`
	MaxLifetime time.Duration `json:"max_lifetime" koanf:"max_lifetime" validate:"gte=0"`
	MaxIdleTime time.Duration `json:"max_idle_time" koanf:"max_idle_time" validate:"gte=0"`
}

// SessionConfig is applied once to every new session.
type SessionConfig struct {
	IsolationLevel   string        `json:"isolation_level" koanf:"isolation_level" validate:"omitempty,oneof=read_uncommitted read_committed repeatable_read serializable"`
	StatementTimeout time.Duration `json:"statement_timeout" koanf:"statement_timeout" validate:"gte=0"`
}

// RetryConfig defines connection retry behavior.
type RetryConfig struct {
	MaxRetries int           `json:"max_retries" koanf:"max_retries" validate:"gte=0"`
	BaseDelay  time.Duration `json:"base_delay" koanf:"base_delay" validate:"gte=0"`
	MaxDelay   time.Duration `json:"max_delay" koanf:"max_delay" validate:"gte=0"`
	Backoff    float64       `json:"backoff" koanf:"backoff" validate:"gte=0"`
}

// DefaultConfig returns a local Postgres configuration with a small pool.
func DefaultConfig() Config {
	return Config{
		Driver:         "pgx",
		Host:           "localhost",
		Port:           5432,
		Database:       "wintrades",
		SSLMode:        "prefer",
		ConnectTimeout: 10 * time.Second,
		Pool: PoolConfig{
			MinSize:     2,
			MaxSize:     10,
			MaxWait:     5 * time.Second,
			MaxLifetime: time.Hour,
			MaxIdleTime: 30 * time.Minute,
		},
		Session: SessionConfig{
			IsolationLevel:   "read_committed",
			StatementTimeout: 30 * time.Second,
		},
		Retry: RetryConfig{
			BaseDelay: 100 * time.Millisecond,
			MaxDelay:  2 * time.Second,
			Backoff:   2,
		},
	}
}

// DSN builds a postgres:// URL from the config.
func (c Config) DSN() string {
	return c.dsnBuilder().Build()
}

// RedactedDSN is DSN with the password masked.
func (c Config) RedactedDSN() string {
	return c.dsnBuilder().Redacted()
}

func (c Config) dsnBuilder() *DSNBuilder {
	b := NewDSNBuilder("postgres").
		Auth(c.Username, c.Password).
		Host(c.Host, c.Port).
		Database(c.Database).
		Param("sslmode", c.SSLMode).
		Params(c.Params)
	if c.ConnectTimeout > 0 {
		b.Param("connect_timeout", formatSeconds(c.ConnectTimeout))
	}
	return b
}
