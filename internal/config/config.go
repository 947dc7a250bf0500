package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/xeonarno/Alyra-blockquest/internal/model"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Storage       StorageConfig
	Database      DatabaseConfig
	JWT           JWTConfig
	Certification CertificationConfig
	Journal       JournalConfig
	Dice          DiceConfig
	Log           LogConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port           string        `env:"SERVER_PORT" envDefault:"8080"`
	Env            string        `env:"SERVER_ENV" envDefault:"development"`
	ReadTimeout    time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"15s"`
	AllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
}

// StorageConfig selects the ledger backend
type StorageConfig struct {
	Driver           string        `env:"STORAGE_DRIVER" envDefault:"memory"`
	SnapshotPath     string        `env:"STORAGE_SNAPSHOT_PATH"`
	SnapshotInterval time.Duration `env:"STORAGE_SNAPSHOT_INTERVAL" envDefault:"1m"`
}

// DatabaseConfig holds SurrealDB connection settings
type DatabaseConfig struct {
	Host      string `env:"DB_HOST" envDefault:"localhost"`
	Port      string `env:"DB_PORT" envDefault:"8000"`
	Namespace string `env:"DB_NAMESPACE" envDefault:"blockquest"`
	Database  string `env:"DB_DATABASE" envDefault:"main"`
	User      string `env:"DB_USER" envDefault:"root"`
	Password  string `env:"DB_PASSWORD" envDefault:"root"`
}

// JWTConfig holds JWT signing settings
type JWTConfig struct {
	PrivateKeyPath string `env:"JWT_PRIVATE_KEY_PATH" envDefault:"./keys/private.pem"`
	PublicKeyPath  string `env:"JWT_PUBLIC_KEY_PATH" envDefault:"./keys/public.pem"`
	ExpirationMins int    `env:"JWT_EXPIRATION_MINS" envDefault:"60"`
	Issuer         string `env:"JWT_ISSUER" envDefault:"blockquest"`
}

// CertificationConfig names the identities allowed to mint diplomas
type CertificationConfig struct {
	OwnerAddress  string `env:"CERT_OWNER_ADDRESS"`
	MinterAddress string `env:"CERT_MINTER_ADDRESS" envDefault:"0x000000000000000000000000000000000000b10c"`
}

// JournalConfig controls the SQLite event journal
type JournalConfig struct {
	Enabled bool   `env:"JOURNAL_ENABLED" envDefault:"false"`
	Path    string `env:"JOURNAL_PATH" envDefault:"./data/journal.db"`
}

// DiceConfig fixes the dice seed for reproducible runs. Zero means random.
type DiceConfig struct {
	Seed int64 `env:"DICE_SEED" envDefault:"0"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return Parse()
}

// Parse reads configuration from environment variables with defaults
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// Validate checks that all required configuration values are present and valid.
// It returns an error describing all validation failures, or nil if valid.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port == "" {
		errs = append(errs, errors.New("SERVER_PORT is required"))
	}
	if c.Server.Env != "development" && c.Server.Env != "production" && c.Server.Env != "test" {
		errs = append(errs, fmt.Errorf("SERVER_ENV must be 'development', 'production', or 'test', got '%s'", c.Server.Env))
	}
	if len(c.Server.AllowedOrigins) == 0 {
		errs = append(errs, errors.New("CORS_ALLOWED_ORIGINS must have at least one origin"))
	}

	switch c.Storage.Driver {
	case "memory":
		if c.Storage.SnapshotPath != "" && c.Storage.SnapshotInterval <= 0 {
			errs = append(errs, errors.New("STORAGE_SNAPSHOT_INTERVAL must be positive when STORAGE_SNAPSHOT_PATH is set"))
		}
	case "surrealdb":
		if c.Database.Host == "" {
			errs = append(errs, errors.New("DB_HOST is required"))
		}
		if c.Database.Port == "" {
			errs = append(errs, errors.New("DB_PORT is required"))
		}
		if c.Database.Namespace == "" {
			errs = append(errs, errors.New("DB_NAMESPACE is required"))
		}
		if c.Database.Database == "" {
			errs = append(errs, errors.New("DB_DATABASE is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORAGE_DRIVER must be 'memory' or 'surrealdb', got '%s'", c.Storage.Driver))
	}

	if c.IsProduction() {
		if c.JWT.PrivateKeyPath == "" {
			errs = append(errs, errors.New("JWT_PRIVATE_KEY_PATH is required in production"))
		}
		if c.JWT.PublicKeyPath == "" {
			errs = append(errs, errors.New("JWT_PUBLIC_KEY_PATH is required in production"))
		}
		if c.Certification.OwnerAddress == "" {
			errs = append(errs, errors.New("CERT_OWNER_ADDRESS is required in production"))
		}
	}
	if c.Certification.OwnerAddress != "" {
		if _, err := model.ParseAddress(c.Certification.OwnerAddress); err != nil {
			errs = append(errs, fmt.Errorf("CERT_OWNER_ADDRESS: %w", err))
		}
	}
	if _, err := model.ParseAddress(c.Certification.MinterAddress); err != nil {
		errs = append(errs, fmt.Errorf("CERT_MINTER_ADDRESS: %w", err))
	}
	if c.JWT.ExpirationMins <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRATION_MINS must be positive"))
	}

	if c.Journal.Enabled && c.Journal.Path == "" {
		errs = append(errs, errors.New("JOURNAL_PATH is required when JOURNAL_ENABLED is true"))
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error, got '%s'", c.Log.Level))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
