// Package config provides configuration structures and validation for the
// application. It handles environment-based configuration for the HTTP
// server, the ledger file and operational parameters.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/oaif-format/oaif/internal/domain/lots"
)

// Config holds the complete application configuration. Each field represents
// one subsystem and is validated during startup.
type Config struct {
	Application ApplicationConfig
	Logging     LoggingConfig
	Server      ServerConfig
	Ledger      LedgerConfig
	WorkerPool  WorkerPoolConfig
}

// ApplicationConfig contains general application configuration
type ApplicationConfig struct {
	Env  string
	Name string
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string
	Format string // "json" or "text"
}

// ServerConfig contains HTTP server configuration settings
type ServerConfig struct {
	Port            int           // Port to listen on
	ShutdownTimeout time.Duration // Grace period for server shutdown
	ReadTimeout     time.Duration // Maximum duration for reading entire request
	WriteTimeout    time.Duration // Maximum duration for writing response
	IdleTimeout     time.Duration // Maximum duration to wait for next request
}

// LedgerConfig describes the ledger file the process serves and the rules
// applied when writing to it.
type LedgerConfig struct {
	Path                  string          // Ledger file path
	ReadOnly              bool            // Open without write access
	BalanceTolerance      decimal.Decimal // Zero-sum epsilon per transaction
	DefaultDisposalPolicy string          // Lot matching policy when none is requested
	CreatedBy             string          // Writer identity stamped into new files
	SourceSystem          string          // Source system stamped into new files
	CompanyName           string          // Company name stamped into new files
	BaseCurrency          string          // Base currency stamped into new files
}

// WorkerPoolConfig contains validation worker pool configuration
type WorkerPoolConfig struct {
	Size int // Maximum number of workers in the pool
}

// validate performs validation of all configuration values, ensuring they
// meet minimum requirements and logical constraints
func (c *Config) validate() error {
	var validationErrors []string

	// Validate Server config
	if c.Server.Port <= 0 {
		validationErrors = append(validationErrors, "SERVER_PORT must be greater than 0")
	}
	if c.Server.ShutdownTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_SHUTDOWN_TIMEOUT must be greater than 0")
	}
	if c.Server.ReadTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_READ_TIMEOUT must be greater than 0")
	}
	if c.Server.WriteTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_WRITE_TIMEOUT must be greater than 0")
	}
	if c.Server.IdleTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_IDLE_TIMEOUT must be greater than 0")
	}

	// Validate Ledger config
	if c.Ledger.Path == "" {
		validationErrors = append(validationErrors, "LEDGER_PATH is required")
	}
	if c.Ledger.BalanceTolerance.IsNegative() {
		validationErrors = append(validationErrors, "LEDGER_BALANCE_TOLERANCE cannot be negative")
	}
	if _, err := lots.ParseDisposalPolicy(c.Ledger.DefaultDisposalPolicy); err != nil {
		validationErrors = append(validationErrors, "LEDGER_DEFAULT_DISPOSAL_POLICY must be FIFO, LIFO or SPECIFIC_LOT")
	}
	if c.Ledger.BaseCurrency != "" && len(c.Ledger.BaseCurrency) != 3 {
		validationErrors = append(validationErrors, "LEDGER_BASE_CURRENCY must be a 3-letter code")
	}

	// Validate Logging config
	switch c.Logging.Format {
	case "json", "text":
	default:
		validationErrors = append(validationErrors, "LOG_FORMAT must be json or text")
	}

	// Validate WorkerPool config
	if c.WorkerPool.Size <= 0 {
		validationErrors = append(validationErrors, "WORKER_POOL_SIZE must be greater than 0")
	}

	if len(validationErrors) > 0 {
		return errors.New(strings.Join(validationErrors, ", "))
	}

	return nil
}
