package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds application configuration.
type Config struct {
	Port         int
	DBPath       string
	FetchTimeout time.Duration

	// Simulated processing parameters.
	MinDimension int
	MaxDimension int
	MinDelay     time.Duration
	MaxDelay     time.Duration
}

// Default returns the stock configuration.
func Default() *Config {
	return &Config{
		Port:         8080,
		DBPath:       DefaultDBPath(),
		FetchTimeout: 30 * time.Second,
		MinDimension: 100,
		MaxDimension: 599,
		MinDelay:     100 * time.Millisecond,
		MaxDelay:     400 * time.Millisecond,
	}
}

// DefaultDBPath returns the default database path using XDG_CACHE_HOME.
func DefaultDBPath() string {
	cacheDir := os.Getenv("XDG_CACHE_HOME")
	if cacheDir == "" {
		home, _ := os.UserHomeDir()
		cacheDir = filepath.Join(home, ".cache")
	}
	return filepath.Join(cacheDir, "storevisits", "jobs.db")
}

// duration wraps time.Duration so TOML values like "250ms" parse.
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// fileConfig is the TOML file shape.
type fileConfig struct {
	Port         int      `toml:"port"`
	DBPath       string   `toml:"db_path"`
	FetchTimeout duration `toml:"fetch_timeout"`

	Processing struct {
		MinDimension int      `toml:"min_dimension"`
		MaxDimension int      `toml:"max_dimension"`
		MinDelay     duration `toml:"min_delay"`
		MaxDelay     duration `toml:"max_delay"`
	} `toml:"processing"`
}

// Load builds Config from defaults, an optional TOML file, flags and
// STOREVISITS_* environment overrides. Flags set explicitly on the
// command line win over file values.
func Load() (*Config, error) {
	cfg := Default()

	configPath := flag.String("config", "", "TOML config file path")
	flag.IntVar(&cfg.Port, "port", cfg.Port, "HTTP server port")
	flag.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite database path (empty for in-memory)")
	flag.DurationVar(&cfg.FetchTimeout, "fetch-timeout", cfg.FetchTimeout, "Image download timeout")
	flag.Parse()

	if *configPath != "" {
		explicit := make(map[string]bool)
		flag.Visit(func(f *flag.Flag) { explicit[f.Name] = true })
		if err := cfg.applyFile(*configPath, explicit); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyFile(path string, explicit map[string]bool) error {
	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	if fc.Port != 0 && !explicit["port"] {
		c.Port = fc.Port
	}
	if fc.DBPath != "" && !explicit["db"] {
		c.DBPath = fc.DBPath
	}
	if fc.FetchTimeout.Duration != 0 && !explicit["fetch-timeout"] {
		c.FetchTimeout = fc.FetchTimeout.Duration
	}
	if fc.Processing.MinDimension != 0 {
		c.MinDimension = fc.Processing.MinDimension
	}
	if fc.Processing.MaxDimension != 0 {
		c.MaxDimension = fc.Processing.MaxDimension
	}
	if fc.Processing.MinDelay.Duration != 0 {
		c.MinDelay = fc.Processing.MinDelay.Duration
	}
	if fc.Processing.MaxDelay.Duration != 0 {
		c.MaxDelay = fc.Processing.MaxDelay.Duration
	}
	return nil
}

func (c *Config) applyEnv() {
	if port := os.Getenv("STOREVISITS_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Port = p
		}
	}
	if db, ok := os.LookupEnv("STOREVISITS_DB"); ok {
		c.DBPath = db
	}
}

func (c *Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.MinDimension <= 0 || c.MaxDimension < c.MinDimension {
		return fmt.Errorf("invalid dimension range [%d, %d]", c.MinDimension, c.MaxDimension)
	}
	if c.MinDelay < 0 || c.MaxDelay < c.MinDelay {
		return fmt.Errorf("invalid delay range [%s, %s]", c.MinDelay, c.MaxDelay)
	}
	return nil
}
