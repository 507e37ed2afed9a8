package main

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/JeremyLoy/config"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Run     RunConfig      `toml:"run" yaml:"run"`
	Logging LoggingConfig  `toml:"logging" yaml:"logging"`
	Systems []SystemConfig `toml:"systems" yaml:"systems"`
}

// RunConfig holds the knobs that can also be overridden from the environment.
type RunConfig struct {
	Duration       time.Duration `toml:"duration" yaml:"duration"`
	Interval       time.Duration `toml:"interval" yaml:"interval"` // 0 runs ticks back to back
	Entities       int           `toml:"entities" yaml:"entities" config:"ECS_STRESS_ENTITIES"`
	Tags           int           `toml:"tags" yaml:"tags" config:"ECS_STRESS_TAGS"`
	Seed           int64         `toml:"seed" yaml:"seed" config:"ECS_STRESS_SEED"`
	FreezeChance   float64       `toml:"freeze_chance" yaml:"freeze_chance" config:"ECS_STRESS_FREEZE_CHANCE"`
	Snapshot       bool          `toml:"snapshot" yaml:"snapshot" config:"ECS_STRESS_SNAPSHOT"`
	Profile        string        `toml:"profile" yaml:"profile" config:"ECS_STRESS_PROFILE"` // "", "cpu" or "mem"
	ProfilePath    string        `toml:"profile_path" yaml:"profile_path" config:"ECS_STRESS_PROFILE_PATH"`
	GCPauseMetrics bool          `toml:"gc_pause_metrics" yaml:"gc_pause_metrics" config:"ECS_STRESS_GC_PAUSE_METRICS"`
}

type LoggingConfig struct {
	Level  string `toml:"level" yaml:"level" config:"ECS_STRESS_LOG_LEVEL"`
	Format string `toml:"format" yaml:"format" config:"ECS_STRESS_LOG_FORMAT"` // "json" or "console"
}

// SystemConfig selects one system kind and the filter expression narrowing
// its query.
type SystemConfig struct {
	Kind   string `toml:"kind" yaml:"kind"`
	Filter string `toml:"filter" yaml:"filter"`
}

// Load reads a TOML or YAML file, chosen by extension, over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read config %s", path)
	}
	cfg := defaults()
	// Systems from the file replace the default list instead of merging into it
	cfg.Systems = nil
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		return nil, eris.Errorf("config %s: unsupported extension %q", path, filepath.Ext(path))
	}
	if err != nil {
		return nil, eris.Wrapf(err, "parse config %s", path)
	}
	if len(cfg.Systems) == 0 {
		cfg.Systems = defaults().Systems
	}
	return cfg, nil
}

// applyEnv overrides run and logging settings from ECS_STRESS_* variables.
func (c *Config) applyEnv() error {
	if err := config.FromEnv().To(&c.Run); err != nil {
		return eris.Wrap(err, "run config from environment")
	}
	if err := config.FromEnv().To(&c.Logging); err != nil {
		return eris.Wrap(err, "logging config from environment")
	}
	return nil
}

func (c *Config) validate() error {
	if c.Run.Duration <= 0 {
		return eris.Errorf("duration must be positive, got %s", c.Run.Duration)
	}
	if c.Run.Interval < 0 {
		return eris.Errorf("interval must not be negative, got %s", c.Run.Interval)
	}
	if c.Run.Entities < 0 {
		return eris.Errorf("entities must not be negative, got %d", c.Run.Entities)
	}
	if c.Run.Tags < 0 || c.Run.Tags > len(tagTypes) {
		return eris.Errorf("tags must be between 0 and %d, got %d", len(tagTypes), c.Run.Tags)
	}
	switch c.Run.Profile {
	case "", "cpu", "mem":
	default:
		return eris.Errorf("unknown profile mode %q", c.Run.Profile)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return eris.Errorf("unknown log format %q", c.Logging.Format)
	}
	for i, sys := range c.Systems {
		if _, ok := systemKinds[sys.Kind]; !ok {
			return eris.Errorf("systems[%d]: unknown kind %q", i, sys.Kind)
		}
	}
	return nil
}

func defaults() *Config {
	return &Config{
		Run: RunConfig{
			Duration:     10 * time.Second,
			Entities:     10000,
			Tags:         8,
			Seed:         1,
			FreezeChance: 0.01,
			ProfilePath:  ".",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Systems: []SystemConfig{
			{Kind: "movement", Filter: "~Frozen"},
			{Kind: "damage", Filter: "Tag0 | Tag1"},
			{Kind: "aging", Filter: "true"},
			{Kind: "freezer", Filter: "Tag2 & ~Tag3"},
			{Kind: "reaper", Filter: "true"},
		},
	}
}
