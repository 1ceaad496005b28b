package record

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// =====================================
// Core Types and Constants
// =====================================

// Config represents database connection configuration
type Config struct {
	// Connection details
	Driver        string `json:"driver" yaml:"driver"`
	ConnectionURL string `json:"connection_url" yaml:"connection_url"`
	Host          string `json:"host" yaml:"host"`
	Port          int    `json:"port" yaml:"port"`
	Database      string `json:"database" yaml:"database"`
	Username      string `json:"username" yaml:"username"`
	Password      string `json:"password" yaml:"password"`

	// Connection pool settings
	MaxOpenConns    int           `json:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns" yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime" yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `json:"conn_max_idle_time" yaml:"conn_max_idle_time"`

	// LogLevel configures the registry logger built by NewLogger
	LogLevel string `json:"log_level" yaml:"log_level"`

	// Additional options, keyed by adapter name ("bun", "gorm")
	Options map[string]interface{} `json:"options" yaml:"options"`

	// SSL/TLS configuration
	SSL SSLConfig `json:"ssl" yaml:"ssl"`
}

// SSLConfig represents SSL/TLS configuration
type SSLConfig struct {
	Enabled  bool   `json:"enabled" yaml:"enabled"`
	Mode     string `json:"mode" yaml:"mode"`
	CertFile string `json:"cert_file" yaml:"cert_file"`
	KeyFile  string `json:"key_file" yaml:"key_file"`
	CAFile   string `json:"ca_file" yaml:"ca_file"`
}

// LoadConfig reads a YAML configuration file.
func LoadConfig(path string) (Config, error) {
	var config Config

	data, err := os.ReadFile(path)
	if err != nil {
		return config, NewErrorWithCause(ErrorTypeInvalidArgument, fmt.Sprintf("failed to read config %s", path), err)
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return config, NewErrorWithCause(ErrorTypeInvalidArgument, fmt.Sprintf("failed to parse config %s", path), err)
	}
	return config, config.Validate()
}

// Validate checks that the configuration names a driver and a database to reach.
func (c Config) Validate() error {
	if c.Driver == "" {
		return NewError(ErrorTypeInvalidArgument, "config: driver is required")
	}
	if c.ConnectionURL == "" && c.Database == "" {
		return NewError(ErrorTypeInvalidArgument, "config: connection_url or database is required")
	}
	return nil
}

// AdapterOption returns Options[adapter][key], or nil when unset.
func (c Config) AdapterOption(adapter, key string) interface{} {
	options, ok := c.Options[adapter]
	if !ok {
		return nil
	}
	switch opts := options.(type) {
	case map[string]interface{}:
		return opts[key]
	case map[interface{}]interface{}:
		return opts[key]
	}
	return nil
}

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	ErrorTypeSchemaResolution ErrorType = "schema_resolution"
	ErrorTypeUnknownAttribute ErrorType = "unknown_attribute"
	ErrorTypeValidation       ErrorType = "validation"
	ErrorTypeNotFound         ErrorType = "not_found"
	ErrorTypeDatabase         ErrorType = "database"
	ErrorTypeDuplicate        ErrorType = "duplicate"
	ErrorTypeConnection       ErrorType = "connection"
	ErrorTypeTimeout          ErrorType = "timeout"
	ErrorTypeConstraint       ErrorType = "constraint"
	ErrorTypeUnsupported      ErrorType = "unsupported"
	ErrorTypeInternal         ErrorType = "internal"
	ErrorTypeInvalidArgument  ErrorType = "invalid_argument"
)
