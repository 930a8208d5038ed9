package config

import (
	"fmt"

	"github.com/dmitrijs2005/encodex/internal/common"
	"github.com/dmitrijs2005/encodex/internal/cryptox"
	"github.com/dmitrijs2005/encodex/internal/logging"
	"github.com/dmitrijs2005/encodex/internal/storage"
)

// Config holds runtime settings for the encodex CLI.
type Config struct {
	StorageDriver string
	StorageDSN    string

	KDF           string
	KDFIterations int

	LogLevel  string
	LogFormat string

	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Prefix    string

	ShareBaseURL string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.StorageDriver = storage.DriverSQLite
	c.StorageDSN = "data/encodex.db"
	c.KDF = string(cryptox.KDFPBKDF2SHA256)
	c.KDFIterations = common.DefaultKDFIterations
	c.LogLevel = "info"
	c.LogFormat = "text"
	c.S3Region = "us-east-1"
	c.S3Prefix = "encodex/"
	c.ShareBaseURL = "encodex://open"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}

// Validate checks values that cannot be fixed up silently.
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case storage.DriverMemory, storage.DriverS3:
	case storage.DriverSQLite, storage.DriverPostgres, storage.DriverBolt:
		if c.StorageDSN == "" {
			return fmt.Errorf("%w: storage driver %s needs -d", common.ErrInvalidInput, c.StorageDriver)
		}
	default:
		return fmt.Errorf("%w: unknown storage driver %q", common.ErrInvalidInput, c.StorageDriver)
	}
	if c.StorageDriver == storage.DriverS3 && c.S3Bucket == "" {
		return fmt.Errorf("%w: s3 storage needs -b", common.ErrInvalidInput)
	}
	if err := c.KDFParams().Validate(); err != nil {
		return err
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", common.ErrInvalidInput, err)
	}
	return nil
}

// KDFParams returns the enrollment parameters for new users.
func (c *Config) KDFParams() cryptox.KDFParams {
	return cryptox.KDFParams{Algorithm: cryptox.KDFAlgorithm(c.KDF), Iterations: c.KDFIterations}
}

func (c *Config) StorageOptions() storage.Options {
	return storage.Options{
		Driver: c.StorageDriver,
		DSN:    c.StorageDSN,
		S3: storage.S3Options{
			Bucket:    c.S3Bucket,
			Region:    c.S3Region,
			Endpoint:  c.S3Endpoint,
			AccessKey: c.S3AccessKey,
			SecretKey: c.S3SecretKey,
			Prefix:    c.S3Prefix,
		},
	}
}

func (c *Config) LoggingOptions() logging.Options {
	return logging.Options{Level: c.LogLevel, Format: c.LogFormat}
}
