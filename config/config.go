// Package config handles the bridge's startup configuration.
//
// Precedence, lowest to highest: defaults, optional YAML file (at
// $XDG_CONFIG_HOME/cadbridge/config.yaml, falling back to
// /etc/cadbridge/config.yaml), environment variables, command-line flags.
// Everything is read once at startup.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables honored by Load.
const (
	EnvCadvisorURL = "CADVISOR_URL"
	EnvCommunity   = "SNMP_COMMUNITY"
	EnvCacheTTL    = "CADBRIDGE_CACHE_TTL"
	EnvTimeout     = "CADBRIDGE_TIMEOUT"
	EnvIndexDB     = "CADBRIDGE_INDEX_DB"
	EnvHealthAddr  = "CADBRIDGE_HEALTH_ADDR"
)

// Config is the bridge's startup configuration.
type Config struct {
	// CadvisorURL is the collector's base URL.
	CadvisorURL string `yaml:"cadvisor-url"`

	// Community is the SNMP community string, consumed by the snmpd.conf
	// rendering — the bridge itself never sees SNMP authentication.
	Community string `yaml:"community"`

	// CacheTTL bounds how often SNMP commands may trigger an upstream poll.
	CacheTTL Duration `yaml:"cache-ttl"`

	// Timeout bounds one upstream HTTP exchange.
	Timeout Duration `yaml:"timeout"`

	// IndexDB is the persistent index table path; empty disables
	// persistence.
	IndexDB string `yaml:"index-db"`

	// HealthAddr, when set, serves the persistent-mode liveness endpoint.
	HealthAddr string `yaml:"health-addr"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		CadvisorURL: "http://cadvisor:8080",
		Community:   "public",
		CacheTTL:    Duration(5 * time.Second),
		Timeout:     Duration(2 * time.Second),
	}
}

// Path returns the config file location: $XDG_CONFIG_HOME/cadbridge/config.yaml
// when XDG_CONFIG_HOME is set, /etc/cadbridge/config.yaml otherwise.
func Path() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "cadbridge", "config.yaml")
	}
	return filepath.Join("/etc", "cadbridge", "config.yaml")
}

// Load builds the effective configuration from defaults, the optional config
// file, and the environment. A missing file is not an error; an unparseable
// one is fatal.
func Load() (Config, error) {
	return load(Path())
}

func load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// Defaults apply.
	case err != nil:
		return Config{}, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvCadvisorURL); v != "" {
		c.CadvisorURL = v
	}
	if v := os.Getenv(EnvCommunity); v != "" {
		c.Community = v
	}
	if v := os.Getenv(EnvIndexDB); v != "" {
		c.IndexDB = v
	}
	if v := os.Getenv(EnvHealthAddr); v != "" {
		c.HealthAddr = v
	}
	if v := os.Getenv(EnvCacheTTL); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.CacheTTL = Duration(d)
		} else {
			slog.Warn("Ignoring unparseable duration.", "var", EnvCacheTTL, "value", v, "err", err)
		}
	}
	if v := os.Getenv(EnvTimeout); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Timeout = Duration(d)
		} else {
			slog.Warn("Ignoring unparseable duration.", "var", EnvTimeout, "value", v, "err", err)
		}
	}
}

// Validate rejects configurations the bridge cannot start with.
func (c Config) Validate() error {
	u, err := url.Parse(c.CadvisorURL)
	if err != nil {
		return fmt.Errorf("cadvisor URL %q: %w", c.CadvisorURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("cadvisor URL %q: unsupported scheme %q", c.CadvisorURL, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("cadvisor URL %q: missing host", c.CadvisorURL)
	}
	if c.Community == "" {
		return fmt.Errorf("community string must not be empty")
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("cache TTL must be positive")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}

// Duration is a time.Duration that unmarshals from YAML strings like "5s".
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}
