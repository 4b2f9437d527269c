// Package config handles configuration for the server component,
// including defaults, JSON overlay, and command-line flags.
package config

import (
	"fmt"

	"github.com/dmitrijs2005/minsend/internal/cryptox"
)

// Storage backends.
const (
	StorageLocal = "local"
	StorageS3    = "s3"
)

// Config holds runtime settings for the file server.
//
// Fields:
//   - ListenAddr: TCP bind address.
//   - DataRoot: directory of the local store.
//   - PinLength: digits in the pin of a temporary identity.
//   - KeyDerivation: "raw" or "hkdf"; clients must use the same.
//   - StorageBackend: "local" or "s3".
//   - DatabaseDSN: PostgreSQL DSN (pgx) for the transfer journal; empty keeps it in memory.
//   - S3RootUser / S3RootPassword: credentials for the S3-compatible backend.
//   - S3Bucket / S3Region / S3BaseEndpoint: object storage settings.
type Config struct {
	ListenAddr     string
	DataRoot       string
	PinLength      int
	KeyDerivation  string
	StorageBackend string
	DatabaseDSN    string
	S3RootUser     string
	S3RootPassword string
	S3Bucket       string
	S3Region       string
	S3BaseEndpoint string
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.ListenAddr = ":5050"
	c.DataRoot = "data"
	c.PinLength = 4
	c.KeyDerivation = string(cryptox.KeyDerivationRaw)
	c.StorageBackend = StorageLocal
	c.DatabaseDSN = ""
	c.S3RootUser = "admin"
	c.S3RootPassword = "secretpassword"
	c.S3Bucket = "files"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
}

// Validate reports the first setting the server cannot start with.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen address is empty")
	}
	if c.PinLength <= 0 {
		return fmt.Errorf("pin length must be positive, got %d", c.PinLength)
	}
	if _, err := cryptox.ParseKeyDerivation(c.KeyDerivation); err != nil {
		return err
	}
	switch c.StorageBackend {
	case StorageLocal:
		if c.DataRoot == "" {
			return fmt.Errorf("data root is empty")
		}
	case StorageS3:
		if c.S3Bucket == "" {
			return fmt.Errorf("s3 bucket is empty")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.StorageBackend)
	}
	return nil
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
