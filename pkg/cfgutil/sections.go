package cfgutil

import (
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/psanodiya94/gocommon/pkg/errutil"
)

// Implementation selects the backend family of an adapter.
const (
	ImplementationCLI     = "cli"
	ImplementationLibrary = "library"
)

// DatabaseConfig is the typed `database` section.
type DatabaseConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Name           string `mapstructure:"name"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	Schema         string `mapstructure:"schema"`
	Timeout        int    `mapstructure:"timeout"`
	Implementation string `mapstructure:"implementation"`
	AutoFallback   bool   `mapstructure:"auto_fallback"`
}

// TimeoutDuration returns the operation timeout. Timeout is configured in
// seconds; zero or negative values fall back to the default.
func (c DatabaseConfig) TimeoutDuration() time.Duration {
	if c.Timeout <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Timeout) * time.Second
}

// MessagingConfig is the typed `messaging` section.
type MessagingConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	QueueManager   string `mapstructure:"queue_manager"`
	Channel        string `mapstructure:"channel"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	Timeout        int    `mapstructure:"timeout"`
	Implementation string `mapstructure:"implementation"`
	AutoFallback   bool   `mapstructure:"auto_fallback"`
}

func (c MessagingConfig) TimeoutDuration() time.Duration {
	if c.Timeout <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Timeout) * time.Second
}

// LoggingConfig is the typed `logging` section.
type LoggingConfig struct {
	Level       string `mapstructure:"level"`
	File        string `mapstructure:"file"`
	Dir         string `mapstructure:"dir"`
	Format      string `mapstructure:"format"`
	MaxSize     int    `mapstructure:"max_size"`
	BackupCount int    `mapstructure:"backup_count"`
	Colored     bool   `mapstructure:"colored"`
	JSONFormat  bool   `mapstructure:"json_format"`
	Console     bool   `mapstructure:"console"`
	GELFAddress string `mapstructure:"gelf_address"`
}

// DefaultDatabaseConfig returns the built-in database defaults.
func DefaultDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Host:           "localhost",
		Port:           50000,
		Name:           "testdb",
		User:           "db2inst1",
		Timeout:        30,
		Implementation: ImplementationCLI,
		AutoFallback:   true,
	}
}

// DefaultMessagingConfig returns the built-in messaging defaults.
func DefaultMessagingConfig() MessagingConfig {
	return MessagingConfig{
		Host:           "localhost",
		Port:           1414,
		QueueManager:   "QM1",
		Channel:        "SYSTEM.DEF.SVRCONN",
		User:           "mquser",
		Timeout:        30,
		Implementation: ImplementationCLI,
		AutoFallback:   true,
	}
}

// DefaultLoggingConfig returns the built-in logging defaults.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Level:       "INFO",
		File:        "app.log",
		Dir:         "log",
		MaxSize:     10 * 1024 * 1024,
		BackupCount: 5,
		Colored:     true,
		Console:     true,
	}
}

// Database decodes the `database` section over the defaults.
func (c *Config) Database() (DatabaseConfig, error) {
	out := DefaultDatabaseConfig()
	err := c.decodeSection("database", &out)
	return out, err
}

// Messaging decodes the `messaging` section over the defaults.
func (c *Config) Messaging() (MessagingConfig, error) {
	out := DefaultMessagingConfig()
	err := c.decodeSection("messaging", &out)
	return out, err
}

// Logging decodes the `logging` section over the defaults.
func (c *Config) Logging() (LoggingConfig, error) {
	out := DefaultLoggingConfig()
	err := c.decodeSection("logging", &out)
	return out, err
}

func (c *Config) decodeSection(name string, out any) error {
	section, ok := c.data[name].(map[string]any)
	if !ok {
		return nil
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return errutil.Wrap(errutil.Configuration, "build section decoder", err)
	}

	if err := dec.Decode(section); err != nil {
		return errutil.Wrap(errutil.Configuration, "decode config section", err,
			"section", name)
	}
	return nil
}
