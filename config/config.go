// Package config provides YAML configuration parsing for NetShepherd.
//
// This package enables running NetShepherd as a standalone binary with a
// configuration file, as an alternative to the programmatic SDK approach.
//
// Example configuration:
//
//	title: Production Fleet
//	port: 5085
//	inventory: ./servers.json
//	max_concurrency: 10
//	pacing: 1s
//	auto_poll: 5m
//
//	probe:
//	  timeout: 5s
//
//	checker:
//	  mode: remote
//	  endpoint: ${CHECKER_URL:-http://localhost:5085}
//	  breaker:
//	    failures: 5
//	    cooldown: 30s
//
//	rate_limit:
//	  requests: 120
//	  window: 1m
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied by [Parse].
const (
	DefaultPort            = 5085
	DefaultMaxConcurrency  = 10
	DefaultPacing          = time.Second
	DefaultProbeTimeout    = 5 * time.Second
	DefaultCheckerTimeout  = 10 * time.Second
	DefaultBreakerFailures = 5
	DefaultBreakerCooldown = 30 * time.Second
	DefaultRateRequests    = 120
	DefaultRateWindow      = time.Minute
)

// minAutoPoll is the smallest allowed auto-poll interval. Every run already
// paces each probe, so shorter intervals only queue skipped ticks.
const minAutoPoll = 10 * time.Second

// Checker modes.
const (
	ModeLocal  = "local"
	ModeRemote = "remote"
)

// Config is the root configuration structure for NetShepherd.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// Title is the dashboard title. Defaults to "NetShepherd" if not set.
	Title string `yaml:"title"`

	// Port is the HTTP server port. Defaults to 5085.
	Port int `yaml:"port"`

	// Inventory is the path of the servers.json inventory file. Relative
	// paths are resolved against the config file's directory by [Load].
	// Supports environment variable substitution.
	Inventory string `yaml:"inventory"`

	// MaxConcurrency bounds the probes in flight during a run. Defaults to 10.
	MaxConcurrency int `yaml:"max_concurrency"`

	// Pacing is the delay before each probe. Defaults to 1s; "0s" disables it.
	Pacing *Duration `yaml:"pacing"`

	// AutoPoll is the interval of automatic all-servers runs. Zero disables.
	AutoPoll Duration `yaml:"auto_poll"`

	Probe     ProbeConfig     `yaml:"probe"`
	Checker   CheckerConfig   `yaml:"checker"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// ProbeConfig configures the in-process probe.
type ProbeConfig struct {
	// Timeout bounds each probe request. Defaults to 5s.
	Timeout Duration `yaml:"timeout"`

	// UserAgent is sent with every probe request.
	UserAgent string `yaml:"user_agent"`
}

// CheckerConfig selects where runs send their probes.
type CheckerConfig struct {
	// Mode is "local" (default) or "remote".
	Mode string `yaml:"mode"`

	// Endpoint is the base URL of the remote NetShepherd (mode: remote).
	// Supports environment variable substitution.
	Endpoint string `yaml:"endpoint"`

	// Timeout bounds each call to the remote endpoint. Defaults to 10s.
	Timeout Duration `yaml:"timeout"`

	Breaker BreakerConfig `yaml:"breaker"`
}

// BreakerConfig configures the remote checker's circuit breaker.
type BreakerConfig struct {
	// Failures is the consecutive failure count that opens the breaker. Defaults to 5.
	Failures int `yaml:"failures"`

	// Cooldown is how long the breaker stays open. Defaults to 30s.
	Cooldown Duration `yaml:"cooldown"`
}

// RateLimitConfig limits the probe endpoint per client IP.
type RateLimitConfig struct {
	// Requests per window. Defaults to 120; 0 disables the limit.
	Requests *int `yaml:"requests"`

	// Window defaults to 1m.
	Window Duration `yaml:"window"`
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// PacingDuration returns the effective pacing delay.
func (c *Config) PacingDuration() time.Duration {
	if c.Pacing == nil {
		return DefaultPacing
	}
	return c.Pacing.Duration()
}

// RateRequests returns the effective rate limit.
func (c *Config) RateRequests() int {
	if c.RateLimit.Requests == nil {
		return DefaultRateRequests
	}
	return *c.RateLimit.Requests
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML configuration file.
//
// A relative inventory path is resolved against the directory of path.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if !filepath.IsAbs(cfg.Inventory) {
		cfg.Inventory = filepath.Join(filepath.Dir(path), cfg.Inventory)
	}
	return cfg, nil
}

// Parse parses YAML configuration data, applies defaults, expands
// environment variables in inventory and checker.endpoint, and validates.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.MaxConcurrency == 0 {
		c.MaxConcurrency = DefaultMaxConcurrency
	}
	if c.Probe.Timeout == 0 {
		c.Probe.Timeout = Duration(DefaultProbeTimeout)
	}
	if c.Checker.Mode == "" {
		c.Checker.Mode = ModeLocal
	}
	if c.Checker.Timeout == 0 {
		c.Checker.Timeout = Duration(DefaultCheckerTimeout)
	}
	if c.Checker.Breaker.Failures == 0 {
		c.Checker.Breaker.Failures = DefaultBreakerFailures
	}
	if c.Checker.Breaker.Cooldown == 0 {
		c.Checker.Breaker.Cooldown = Duration(DefaultBreakerCooldown)
	}
	if c.RateLimit.Window == 0 {
		c.RateLimit.Window = Duration(DefaultRateWindow)
	}
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}

	if c.Inventory == "" {
		return errors.New("inventory is required")
	}
	expanded, err := expandEnvVars(c.Inventory)
	if err != nil {
		return fmt.Errorf("inventory: %w", err)
	}
	c.Inventory = expanded

	if c.MaxConcurrency < 0 {
		return fmt.Errorf("max_concurrency must be positive, got %d", c.MaxConcurrency)
	}
	if c.PacingDuration() < 0 {
		return fmt.Errorf("pacing cannot be negative, got %s", c.PacingDuration())
	}

	if d := c.AutoPoll.Duration(); d != 0 && d < minAutoPoll {
		return fmt.Errorf("auto_poll must be 0 or at least %s, got %s", minAutoPoll, d)
	}

	if d := c.Probe.Timeout.Duration(); d < time.Second {
		return fmt.Errorf("probe.timeout must be at least 1s, got %s", d)
	}

	if err := c.Checker.validate(); err != nil {
		return err
	}

	if c.RateRequests() < 0 {
		return fmt.Errorf("rate_limit.requests cannot be negative, got %d", c.RateRequests())
	}
	if c.RateLimit.Window.Duration() <= 0 {
		return fmt.Errorf("rate_limit.window must be positive, got %s", c.RateLimit.Window.Duration())
	}

	return nil
}

func (cc *CheckerConfig) validate() error {
	switch cc.Mode {
	case ModeLocal:
	case ModeRemote:
		if cc.Endpoint == "" {
			return errors.New("checker.endpoint is required when checker.mode is remote")
		}
		expanded, err := expandEnvVars(cc.Endpoint)
		if err != nil {
			return fmt.Errorf("checker.endpoint: %w", err)
		}
		cc.Endpoint = expanded

		u, err := url.Parse(cc.Endpoint)
		if err != nil {
			return fmt.Errorf("checker.endpoint: invalid url: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("checker.endpoint: url scheme must be http or https, got %q", u.Scheme)
		}
		if u.Host == "" {
			return errors.New("checker.endpoint: url must include a host")
		}
	default:
		return fmt.Errorf("checker.mode must be %q or %q, got %q", ModeLocal, ModeRemote, cc.Mode)
	}

	if d := cc.Timeout.Duration(); d < time.Second {
		return fmt.Errorf("checker.timeout must be at least 1s, got %s", d)
	}
	if cc.Breaker.Failures < 0 {
		return fmt.Errorf("checker.breaker.failures must be positive, got %d", cc.Breaker.Failures)
	}
	if d := cc.Breaker.Cooldown.Duration(); d < time.Second {
		return fmt.Errorf("checker.breaker.cooldown must be at least 1s, got %s", d)
	}
	return nil
}
