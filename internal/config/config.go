package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/relux/internal/logging"
	"gopkg.in/yaml.v3"
)

// DefaultPath is read when no --config flag is given.
const DefaultPath = "relux.yaml"

// Config is the CLI configuration file (relux.yaml or relux.json).
type Config struct {
	LogLevel string      `yaml:"log_level" json:"log_level"`
	HTTP     HTTPConfig  `yaml:"http" json:"http"`
	Metrics  bool        `yaml:"metrics" json:"metrics"`
	Redis    RedisConfig `yaml:"redis" json:"redis"`
	Demo     DemoConfig  `yaml:"demo" json:"demo"`
}

// HTTPConfig configures the inspector server.
type HTTPConfig struct {
	Addr string `yaml:"addr" json:"addr"`
}

// RedisConfig configures the optional snapshot mirror.
// An empty Addr disables it.
type RedisConfig struct {
	Addr     string   `yaml:"addr" json:"addr"`
	Password string   `yaml:"password" json:"password"`
	DB       int      `yaml:"db" json:"db"`
	Prefix   string   `yaml:"prefix" json:"prefix"`
	TTL      Duration `yaml:"ttl" json:"ttl"`
}

// DemoConfig configures the bundled demo module.
type DemoConfig struct {
	Tick  Duration `yaml:"tick" json:"tick"`
	Ticks int      `yaml:"ticks" json:"ticks"`
}

// Duration accepts Go duration strings ("250ms", "1m").
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	return d.parse(s)
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	return d.parse(s)
}

func (d *Duration) parse(s string) error {
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		LogLevel: "info",
		HTTP:     HTTPConfig{Addr: ":8080"},
		Metrics:  true,
		Redis:    RedisConfig{Prefix: "relux:snapshot:"},
		Demo:     DemoConfig{Tick: Duration(500 * time.Millisecond), Ticks: 10},
	}
}

// Load reads the file at path on top of the defaults. A missing file is not
// an error. Files ending in .json are parsed as JSON, anything else as YAML.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}
	return cfg, nil
}

// Level returns the configured log level.
func (c Config) Level() slog.Level {
	return logging.ParseLevel(c.LogLevel)
}
