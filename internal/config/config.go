// Package config loads overlay settings from a YAML file, the environment
// and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

const DefaultFile = "netoverlay.yaml"

const (
	ModeTUI   = "tui"
	ModePlain = "plain"
)

var ErrInvalid = errors.New("invalid configuration")

// Config represents the complete overlay configuration
type Config struct {
	Sampling SamplingConfig `yaml:"sampling"`
	Latency  LatencyConfig  `yaml:"latency"`
	Display  DisplayConfig  `yaml:"display"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// SamplingConfig controls the bandwidth tick
type SamplingConfig struct {
	Interval   Duration `yaml:"interval"`
	Window     int      `yaml:"window"`
	Source     string   `yaml:"source"`
	Interfaces []string `yaml:"interfaces"`
}

// LatencyConfig controls the ping tick
type LatencyConfig struct {
	Host        string   `yaml:"host"`
	Interval    Duration `yaml:"interval"`
	Timeout     Duration `yaml:"timeout"`
	ThresholdMs uint32   `yaml:"threshold_ms"`
	Method      string   `yaml:"method"`
}

// DisplayConfig selects the sink and where the overlay position is kept
type DisplayConfig struct {
	Mode         string `yaml:"mode"`
	PositionFile string `yaml:"position_file"`
	Details      bool   `yaml:"details"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Duration accepts "500ms" style strings in YAML.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(node.Value))
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

// Default mirrors the latest overlay revision: 500ms ticks, a ten sample
// window and a 150ms ping alert against 8.8.8.8.
func Default() *Config {
	return &Config{
		Sampling: SamplingConfig{
			Interval: Duration(500 * time.Millisecond),
			Window:   10,
			Source:   "auto",
		},
		Latency: LatencyConfig{
			Host:        "8.8.8.8",
			Interval:    Duration(500 * time.Millisecond),
			Timeout:     Duration(time.Second),
			ThresholdMs: 150,
			Method:      "exec",
		},
		Display: DisplayConfig{
			Mode:         ModeTUI,
			PositionFile: "position.cfg",
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "netoverlay.log",
		},
	}
}

// Load reads filename over the defaults, then applies .env and NETOVERLAY_*
// variables. A missing file is not an error when optional is set.
func Load(filename string, optional bool) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case optional && errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	_ = godotenv.Load()
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from NETOVERLAY_* variables.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	var errs error
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	dur := func(key string, dst *Duration) {
		if v, ok := lookup(key); ok && v != "" {
			parsed, err := time.ParseDuration(strings.TrimSpace(v))
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = Duration(parsed)
		}
	}

	dur("NETOVERLAY_INTERVAL", &c.Sampling.Interval)
	if v, ok := lookup("NETOVERLAY_WINDOW"); ok && v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("NETOVERLAY_WINDOW: %w", err))
		} else {
			c.Sampling.Window = n
		}
	}
	str("NETOVERLAY_SOURCE", &c.Sampling.Source)
	if v, ok := lookup("NETOVERLAY_INTERFACES"); ok {
		c.Sampling.Interfaces = SplitList(v)
	}

	str("NETOVERLAY_PING_HOST", &c.Latency.Host)
	dur("NETOVERLAY_PING_INTERVAL", &c.Latency.Interval)
	dur("NETOVERLAY_PING_TIMEOUT", &c.Latency.Timeout)
	if v, ok := lookup("NETOVERLAY_PING_THRESHOLD"); ok && v != "" {
		n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 32)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("NETOVERLAY_PING_THRESHOLD: %w", err))
		} else {
			c.Latency.ThresholdMs = uint32(n)
		}
	}
	str("NETOVERLAY_PING_METHOD", &c.Latency.Method)

	str("NETOVERLAY_MODE", &c.Display.Mode)
	str("NETOVERLAY_POSITION_FILE", &c.Display.PositionFile)
	str("NETOVERLAY_LOG_LEVEL", &c.Logging.Level)
	if v, ok := lookup("NETOVERLAY_LOG_FILE"); ok {
		c.Logging.File = strings.TrimSpace(v)
	}

	if errs != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, errs)
	}
	return nil
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs error
	if c.Sampling.Interval <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("sampling.interval must be positive, got %s", c.Sampling.Interval))
	}
	if c.Sampling.Window < 0 {
		errs = multierr.Append(errs, fmt.Errorf("sampling.window must not be negative, got %d", c.Sampling.Window))
	}
	if !oneOf(c.Sampling.Source, "auto", "procfs", "gopsutil") {
		errs = multierr.Append(errs, fmt.Errorf("sampling.source %q is not one of auto, procfs, gopsutil", c.Sampling.Source))
	}
	if strings.TrimSpace(c.Latency.Host) == "" {
		errs = multierr.Append(errs, errors.New("latency.host must be set"))
	}
	if c.Latency.Interval <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("latency.interval must be positive, got %s", c.Latency.Interval))
	}
	if c.Latency.Timeout <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("latency.timeout must be positive, got %s", c.Latency.Timeout))
	}
	if !oneOf(c.Latency.Method, "exec", "icmp") {
		errs = multierr.Append(errs, fmt.Errorf("latency.method %q is not one of exec, icmp", c.Latency.Method))
	}
	if !oneOf(c.Display.Mode, ModeTUI, ModePlain) {
		errs = multierr.Append(errs, fmt.Errorf("display.mode %q is not one of tui, plain", c.Display.Mode))
	}
	if strings.TrimSpace(c.Display.PositionFile) == "" && c.Display.Mode == ModeTUI {
		errs = multierr.Append(errs, errors.New("display.position_file must be set in tui mode"))
	}
	if errs != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, errs)
	}
	return nil
}

// SplitList splits a comma separated list, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func oneOf(v string, allowed ...string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
