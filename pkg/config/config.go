// Package config loads benita settings from a YAML file, a .env file and
// the environment.
//
// Precedence, highest first: command-line arguments, environment
// variables, the config file, built-in defaults. Command-line handling
// lives in cmd/benita; this package covers the rest.
//
// Example file:
//
//	log_level: info
//	quiescence: 100ms
//	sensors:
//	  ph:
//	    req_url: tcp://sensors.local:5557
//	    rep_url: tcp://*:5557
//	    path: /dev/i2c-1
//	    address: "0x63"
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/benita-io/benita-go/pkg/sensor"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrMissing indicates a required setting that no source provided.
var ErrMissing = errors.New("missing setting")

// Endpoint holds the connection settings of one sensor kind.
type Endpoint struct {
	// ReqURL is the responder URL a requester connects to.
	ReqURL string `yaml:"req_url"`

	// RepURL is the URL a responder binds.
	RepURL string `yaml:"rep_url"`

	// Path is the device path (/dev/i2c-1, /dev/ttyUSB0, sim:ph).
	Path string `yaml:"path"`

	// Address is the I2C address or UART baud rate, decimal or 0x-hex.
	Address string `yaml:"address"`
}

// Config is the benita configuration.
type Config struct {
	LogLevel    string              `yaml:"log_level"`
	History     string              `yaml:"history"`
	ProtocolLog string              `yaml:"protocol_log"`
	MetricsAddr string              `yaml:"metrics_addr"`
	Advertise   bool                `yaml:"advertise"`
	Quiescence  time.Duration       `yaml:"quiescence"`
	Sensors     map[string]Endpoint `yaml:"sensors"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		LogLevel:   "info",
		Quiescence: 100 * time.Millisecond,
		Sensors:    make(map[string]Endpoint),
	}
}

// Parse decodes YAML over the defaults. Sensor sections must be named
// after a known kind.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Sensors == nil {
		cfg.Sensors = make(map[string]Endpoint)
	}

	normalized := make(map[string]Endpoint, len(cfg.Sensors))
	for name, ep := range cfg.Sensors {
		kind, err := sensor.ParseKind(name)
		if err != nil {
			return nil, fmt.Errorf("config sensors: %w", err)
		}
		normalized[kind.String()] = ep
	}
	cfg.Sensors = normalized

	if cfg.Quiescence < 0 {
		return nil, fmt.Errorf("config quiescence: negative duration %s", cfg.Quiescence)
	}
	return cfg, nil
}

// LoadFile reads the config file at path. An empty path yields the defaults.
func LoadFile(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadDotEnv loads environment variables from path. Missing files are
// ignored; variables already set are kept.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// LookupFunc looks up an environment variable. os.LookupEnv satisfies it.
type LookupFunc func(key string) (string, bool)

// Environment variable suffixes, prefixed with the kind, e.g. PH_REQ_URL.
const (
	EnvReqURL     = "REQ_URL"
	EnvRepURL     = "REP_URL"
	EnvRepPath    = "REP_PATH"
	EnvRepAddress = "REP_ADDRESS"
)

// EnvName returns the environment variable name of suffix for kind.
func EnvName(kind sensor.Kind, suffix string) string {
	return kind.EnvPrefix() + "_" + suffix
}

// ApplyEnv overrides sensor settings with non-empty environment variables.
func (c *Config) ApplyEnv(lookup LookupFunc) {
	for _, kind := range sensor.Kinds {
		ep := c.Sensors[kind.String()]
		set := func(field *string, suffix string) {
			if v, ok := lookup(EnvName(kind, suffix)); ok && strings.TrimSpace(v) != "" {
				*field = strings.TrimSpace(v)
			}
		}
		set(&ep.ReqURL, EnvReqURL)
		set(&ep.RepURL, EnvRepURL)
		set(&ep.Path, EnvRepPath)
		set(&ep.Address, EnvRepAddress)

		if ep != (Endpoint{}) {
			c.Sensors[kind.String()] = ep
		}
	}
}

// Endpoint returns the settings of kind (zero if none).
func (c *Config) Endpoint(kind sensor.Kind) Endpoint {
	return c.Sensors[kind.String()]
}

// Resolve returns arg if non-empty, otherwise fallback. It fails with
// ErrMissing naming the environment variable when both are empty.
func Resolve(arg, fallback string, kind sensor.Kind, suffix string) (string, error) {
	if arg != "" {
		return arg, nil
	}
	if fallback != "" {
		return fallback, nil
	}
	return "", fmt.Errorf("%w: pass it as an argument or set %s", ErrMissing, EnvName(kind, suffix))
}

// ParseAddress parses a device address or baud rate in decimal or
// 0x-prefixed hex. An empty string yields 0.
func ParseAddress(s string) (uint32, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q: %w", s, err)
	}
	return uint32(v), nil
}
