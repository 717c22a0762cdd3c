// Package cfgutil provides centralized configuration management. Values come
// from three sources with fixed precedence: environment variables override
// the YAML configuration file, which overrides built-in defaults.
//
// Keys are addressed with dotted paths (`database.host`) and the well-known
// sections are exposed as typed structs via the accessors in sections.go.
package cfgutil

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"

	"github.com/psanodiya94/gocommon/pkg/errutil"
)

// envMappings is the fixed table of environment variable overrides. Each
// variable, when set, takes precedence over the corresponding file value.
var envMappings = []struct {
	Env  string
	Path string
}{
	{"DB2_HOST", "database.host"},
	{"DB2_PORT", "database.port"},
	{"DB2_DATABASE", "database.name"},
	{"DB2_USER", "database.user"},
	{"DB2_PASSWORD", "database.password"},
	{"MQ_HOST", "messaging.host"},
	{"MQ_PORT", "messaging.port"},
	{"MQ_QUEUE_MANAGER", "messaging.queue_manager"},
	{"MQ_CHANNEL", "messaging.channel"},
	{"LOG_LEVEL", "logging.level"},
	{"LOG_FILE", "logging.file"},
	{"LOG_FORMAT", "logging.format"},
}

// Config holds the merged configuration tree. It is not safe for concurrent
// mutation; the framework owns one instance per process.
type Config struct {
	data map[string]any
	path string
}

// New creates a configuration from defaults and environment variables only.
func New() *Config {
	c := &Config{data: map[string]any{}}
	c.applyEnv()
	return c
}

// Load reads the YAML file at path and overlays the environment variables.
// An empty path behaves like New. A missing or malformed file is a
// Configuration error; lookups of absent keys are not.
func Load(path string) (*Config, error) {
	if path == "" {
		return New(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errutil.Wrap(errutil.Configuration, "read config file", err,
			"path", path)
	}

	data := map[string]any{}
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, errutil.Wrap(errutil.Configuration, "parse config file", err,
			"path", path)
	}

	c := &Config{data: data, path: path}
	c.applyEnv()
	return c, nil
}

func (c *Config) applyEnv() {
	for _, m := range envMappings {
		value, ok := os.LookupEnv(m.Env)
		if !ok {
			continue
		}
		c.Set(m.Path, coerce(value))
	}
}

// coerce converts string values from the environment into the type they look
// like, so `DB2_PORT=50001` compares equal to a numeric file value.
func coerce(s string) any {
	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	}
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

// Get returns the value at the dotted key path, or def when any path element
// is missing.
func (c *Config) Get(key string, def any) any {
	current := any(c.data)
	for _, part := range strings.Split(key, ".") {
		node, ok := current.(map[string]any)
		if !ok {
			return def
		}
		current, ok = node[part]
		if !ok {
			return def
		}
	}
	if current == nil {
		return def
	}
	return current
}

// GetString returns the value at key converted to a string.
func (c *Config) GetString(key, def string) string {
	return cast.ToString(c.Get(key, def))
}

// GetInt returns the value at key converted to an int.
func (c *Config) GetInt(key string, def int) int {
	return cast.ToInt(c.Get(key, def))
}

// GetBool returns the value at key converted to a bool.
func (c *Config) GetBool(key string, def bool) bool {
	return cast.ToBool(c.Get(key, def))
}

// Require returns the value at key or a Configuration error when it is
// missing.
func (c *Config) Require(key string) (any, error) {
	marker := &struct{}{}
	v := c.Get(key, marker)
	if v == marker {
		return nil, errutil.New(errutil.Configuration, "required config key is missing").
			WithDetail("key", key)
	}
	return v, nil
}

// Set stores a value at the dotted key path, creating intermediate sections
// as needed. Setting a value never touches the file; use SaveTo for that.
func (c *Config) Set(key string, value any) {
	parts := strings.Split(key, ".")
	node := c.data
	for _, part := range parts[:len(parts)-1] {
		child, ok := node[part].(map[string]any)
		if !ok {
			child = map[string]any{}
			node[part] = child
		}
		node = child
	}
	node[parts[len(parts)-1]] = value
}

// Reload re-reads the configuration file (if any) and re-applies the
// environment overrides, discarding in-process Set calls.
func (c *Config) Reload() error {
	if c.path == "" {
		c.data = map[string]any{}
		c.applyEnv()
		return nil
	}

	fresh, err := Load(c.path)
	if err != nil {
		return err
	}
	c.data = fresh.data
	return nil
}

// Dump returns a deep copy of the merged configuration tree.
func (c *Config) Dump() map[string]any {
	return copyTree(c.data)
}

func copyTree(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		if child, ok := v.(map[string]any); ok {
			out[k] = copyTree(child)
			continue
		}
		out[k] = v
	}
	return out
}

// SaveTo writes the current configuration tree as YAML.
func (c *Config) SaveTo(path string) error {
	raw, err := yaml.Marshal(c.data)
	if err != nil {
		return errutil.Wrap(errutil.Configuration, "encode config", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errutil.Wrap(errutil.Configuration, "create config directory", err,
				"path", dir)
		}
	}

	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return errutil.Wrap(errutil.Configuration, "write config file", err,
			"path", path)
	}
	return nil
}

// Path returns the file this configuration was loaded from, if any.
func (c *Config) Path() string { return c.path }
