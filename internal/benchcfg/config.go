// Package benchcfg defines the yaml configuration shared by the
// stripebench and stripestress commands.
package benchcfg

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/llxisdsh/stripemap"
)

// Default configuration values.
const (
	DefaultKeys      = 50000
	DefaultSleepMS   = 1
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// Config is the root configuration for the harness commands.
type Config struct {
	Bench  BenchSection  `yaml:"bench"`
	Stress StressSection `yaml:"stress"`
	Record RecordSection `yaml:"record"`
	Log    LogSection    `yaml:"log"`
}

// BenchSection configures the fixed benchmark workload and the table it
// runs against. Zero values defer to the table's own defaults.
type BenchSection struct {
	Keys          int     `yaml:"keys"`
	Capacity      int     `yaml:"capacity"`
	MaxLoadFactor float64 `yaml:"max_load_factor"`
	GrowthFactor  float64 `yaml:"growth_factor"`
	LockFactor    float64 `yaml:"lock_factor"`
}

// StressSection configures the multithreaded stress workload. A zero
// worker count means one worker per available hardware thread.
type StressSection struct {
	Workers  int `yaml:"workers"`
	Keyspace int `yaml:"keyspace"`
	SleepMS  int `yaml:"sleep_ms"`
}

// RecordSection configures where results go. An empty path disables the
// corresponding sink; "-" as the JSON path means stdout.
type RecordSection struct {
	JSONPath   string `yaml:"json_path"`
	SQLitePath string `yaml:"sqlite_path"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the default harness configuration.
func Default() *Config {
	return &Config{
		Bench: BenchSection{
			Keys:          DefaultKeys,
			Capacity:      stripemap.DefaultCapacity,
			MaxLoadFactor: stripemap.DefaultMaxLoadFactor,
			GrowthFactor:  stripemap.DefaultGrowthFactor,
		},
		Stress: StressSection{
			Keyspace: 2 * DefaultKeys,
			SleepMS:  DefaultSleepMS,
		},
		Record: RecordSection{
			JSONPath: "-",
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// Load reads the configuration at path on top of the defaults. A missing
// file (or an empty path) yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Verify(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Verify validates the configuration.
func (c *Config) Verify() error {
	if c.Bench.Keys <= 0 {
		return errors.New("bench.keys must be positive")
	}
	if c.Bench.Capacity < 0 {
		return errors.New("bench.capacity must not be negative")
	}
	if c.Bench.MaxLoadFactor < 0 {
		return errors.New("bench.max_load_factor must not be negative")
	}
	if c.Bench.GrowthFactor != 0 && c.Bench.GrowthFactor <= 1 {
		return errors.New("bench.growth_factor must be greater than 1")
	}
	// Zero defers to the table default; anything else below 1 would be
	// silently ignored downstream, so reject it here.
	if c.Bench.LockFactor != 0 && c.Bench.LockFactor < 1 {
		return errors.New("bench.lock_factor must be at least 1")
	}
	if c.Stress.Workers < 0 {
		return errors.New("stress.workers must not be negative")
	}
	if c.Stress.Keyspace <= 0 {
		return errors.New("stress.keyspace must be positive")
	}
	if c.Stress.SleepMS < 0 {
		return errors.New("stress.sleep_ms must not be negative")
	}
	return nil
}
