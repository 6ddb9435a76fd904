// Package config loads the harness configuration: where the fixtures
// live, how to invoke the linter and the fixer, and the reference date
// handed to the fixer.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFile is the config file looked up in the working directory
// when no explicit path is given.
const DefaultFile = ".smelltest.yaml"

// DateLayout is the only reference date format the fixer accepts.
const DateLayout = "2006-01-02"

// Linter output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config is the full harness configuration.
type Config struct {
	// Root is the fixture root: one subdirectory per smell.
	Root string `yaml:"root"`

	// ReferenceDate is passed to the fixer for date-relative logic
	// (e.g. choosing the image tag that was current at that date).
	ReferenceDate string `yaml:"reference_date"`

	// Timeout bounds every single linter or fixer invocation.
	Timeout time.Duration `yaml:"timeout"`

	// LogLevel is the default level of the application logger.
	LogLevel string `yaml:"log_level"`

	Linter LinterConfig `yaml:"linter"`
	Fixer  FixerConfig  `yaml:"fixer"`
}

// LinterConfig describes the external linter. The fixture path is
// appended after Args.
type LinterConfig struct {
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`

	// Format is "text" (one finding per line, rule code in the
	// second field) or "json" (an array of objects with a "code").
	Format string `yaml:"format"`
}

// FixerConfig describes the external fixer.
type FixerConfig struct {
	// Name is how progress lines refer to the fixer. Empty uses the
	// command's base name.
	Name string `yaml:"name"`

	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`

	PathFlag string `yaml:"path_flag"`
	DateFlag string `yaml:"date_flag"`
	RuleFlag string `yaml:"rule_flag"`
}

// DefaultConfig returns the configuration used when no file is
// present: hadolint as the linter and dockleaner as the fixer.
func DefaultConfig() *Config {
	return &Config{
		Root:          "test",
		ReferenceDate: "2023-01-01",
		Timeout:       2 * time.Minute,
		LogLevel:      "info",
		Linter: LinterConfig{
			Command: "hadolint",
			Args:    []string{"--no-color"},
			Format:  FormatText,
		},
		Fixer: FixerConfig{
			Name:     "dockleaner",
			Command:  "python",
			Args:     []string{"dockleaner.py"},
			PathFlag: "-p",
			DateFlag: "-d",
			RuleFlag: "--rule",
		},
	}
}

// Load reads the YAML file at path over the defaults and applies
// environment overrides. An empty path loads DefaultFile if it exists.
// An explicitly named file that does not exist is an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %q: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("reading config %q: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("SMELLTEST_ROOT"); v != "" {
		c.Root = v
	}
	if v := os.Getenv("SMELLTEST_LINTER"); v != "" {
		c.Linter.Command = v
	}
	if v := os.Getenv("SMELLTEST_FIXER"); v != "" {
		c.Fixer.Command = v
	}
	if v := os.Getenv("SMELLTEST_REFERENCE_DATE"); v != "" {
		c.ReferenceDate = v
	}
	if v := os.Getenv("SMELLTEST_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("SMELLTEST_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SMELLTEST_TIMEOUT: %w", err)
		}
		c.Timeout = d
	}
	return nil
}

// Validate checks the values that would otherwise only fail deep
// inside a run.
func (c *Config) Validate() error {
	if c.Root == "" {
		return errors.New("root must not be empty")
	}
	if _, err := c.Date(); err != nil {
		return err
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.Linter.Command == "" {
		return errors.New("linter.command must not be empty")
	}
	if c.Fixer.Command == "" {
		return errors.New("fixer.command must not be empty")
	}
	switch c.Linter.Format {
	case FormatText, FormatJSON:
	default:
		return fmt.Errorf("invalid linter.format %q: must be 'text' or 'json'", c.Linter.Format)
	}
	return nil
}

// Date parses ReferenceDate.
func (c *Config) Date() (time.Time, error) {
	d, err := time.Parse(DateLayout, c.ReferenceDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid reference date %q (expected format YYYY-MM-DD)", c.ReferenceDate)
	}
	return d, nil
}
