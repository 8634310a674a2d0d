package config

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/oaif-format/oaif/internal/domain/lots"
	"github.com/oaif-format/oaif/internal/domain/shared"
)

// LoadConfigWithName loads configuration using the specified name,
// auto-detecting the file type.
func LoadConfigWithName(configName string) (*Config, error) {
	return loadConfig(configName, "")
}

// LoadConfigWithNameAndType loads configuration with explicit name and type
// specification, for when a specific format must be forced (e.g. "yaml").
func LoadConfigWithNameAndType(configName, configType string) (*Config, error) {
	return loadConfig(configName, configType)
}

// LoadConfig loads configuration from a .env file using the provided base
// name. This is the preferred entry point.
func LoadConfig(configName string) (*Config, error) {
	configFileName := fmt.Sprintf("%s.env", configName)
	return loadConfig(configFileName, "env")
}

// loadConfig layers configuration sources: defaults first, then a config
// file when one is found, then environment variables, and finally validates
// the result.
func loadConfig(configName, configType string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName(configName)
	if configType != "" {
		v.SetConfigType(configType)
	}

	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			fmt.Printf("INFO: No config file '%s' found, relying on environment variables and defaults.\n", configName)
		} else {
			fmt.Printf("WARNING: Error reading config file (%s): %v\n", v.ConfigFileUsed(), err)
		}
	} else {
		fmt.Printf("INFO: Config loaded from file: %s\n", v.ConfigFileUsed())
	}

	v.AutomaticEnv()

	tolerance, err := decimal.NewFromString(v.GetString("LEDGER_BALANCE_TOLERANCE"))
	if err != nil {
		return nil, fmt.Errorf("invalid LEDGER_BALANCE_TOLERANCE: %w", err)
	}

	config := &Config{
		Application: ApplicationConfig{
			Env:  v.GetString("APP_ENV"),
			Name: v.GetString("APP_NAME"),
		},
		Logging: LoggingConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Server: ServerConfig{
			Port:            v.GetInt("SERVER_PORT"),
			ShutdownTimeout: v.GetDuration("SERVER_SHUTDOWN_TIMEOUT"),
			ReadTimeout:     v.GetDuration("SERVER_READ_TIMEOUT"),
			WriteTimeout:    v.GetDuration("SERVER_WRITE_TIMEOUT"),
			IdleTimeout:     v.GetDuration("SERVER_IDLE_TIMEOUT"),
		},
		Ledger: LedgerConfig{
			Path:                  v.GetString("LEDGER_PATH"),
			ReadOnly:              v.GetBool("LEDGER_READ_ONLY"),
			BalanceTolerance:      tolerance,
			DefaultDisposalPolicy: v.GetString("LEDGER_DEFAULT_DISPOSAL_POLICY"),
			CreatedBy:             v.GetString("LEDGER_CREATED_BY"),
			SourceSystem:          v.GetString("LEDGER_SOURCE_SYSTEM"),
			CompanyName:           v.GetString("LEDGER_COMPANY_NAME"),
			BaseCurrency:          v.GetString("LEDGER_BASE_CURRENCY"),
		},
		WorkerPool: WorkerPoolConfig{
			Size: v.GetInt("WORKER_POOL_SIZE"),
		},
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults initializes configuration with sensible default values, used
// when no configuration file or environment variables are present.
func setDefaults(v *viper.Viper) {
	// HTTP server defaults - tuned for typical web application workloads
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", "30s")
	v.SetDefault("SERVER_READ_TIMEOUT", "30s")
	v.SetDefault("SERVER_WRITE_TIMEOUT", "30s")
	v.SetDefault("SERVER_IDLE_TIMEOUT", "120s")

	// Ledger defaults - the file path must come from the environment
	v.SetDefault("LEDGER_PATH", "")
	v.SetDefault("LEDGER_READ_ONLY", false)
	v.SetDefault("LEDGER_BALANCE_TOLERANCE", shared.DefaultBalanceTolerance)
	v.SetDefault("LEDGER_DEFAULT_DISPOSAL_POLICY", string(lots.FIFO))
	v.SetDefault("LEDGER_CREATED_BY", "oaif-server")
	v.SetDefault("LEDGER_SOURCE_SYSTEM", "oaif")
	v.SetDefault("LEDGER_COMPANY_NAME", "")
	v.SetDefault("LEDGER_BASE_CURRENCY", "USD")

	// Logging defaults - 'info' provides good balance of information vs noise
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	// Application defaults
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_NAME", "oaif-server")

	// Worker pool defaults - bounds full-file validation runs
	v.SetDefault("WORKER_POOL_SIZE", 4)
}
