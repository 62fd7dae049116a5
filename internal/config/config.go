// Package config loads the optional tide.yaml file that tunes the CLI.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileName is the name looked up by Discover.
const FileName = "tide.yaml"

// ColorMode selects when diagnostics are coloured.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// Config is the decoded configuration. Fields missing from the file keep
// their defaults.
type Config struct {
	Path string `yaml:"-"` // file the config came from, empty for defaults

	Repl ReplConfig `yaml:"repl"`
	Run  RunConfig  `yaml:"run"`
}

// ReplConfig configures `tide repl`.
type ReplConfig struct {
	Prompt      string    `yaml:"prompt"`
	HistoryFile string    `yaml:"history_file"`
	Color       ColorMode `yaml:"color"`
}

// RunConfig configures `tide run`.
type RunConfig struct {
	PrintResult bool `yaml:"print_result"`
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	return &Config{
		Repl: ReplConfig{
			Prompt:      "tide> ",
			HistoryFile: "~/.tide_history",
			Color:       ColorAuto,
		},
		Run: RunConfig{PrintResult: true},
	}
}

// ValidationError aggregates config validation failures.
type ValidationError struct {
	Path   string
	Issues []string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("config: ")
	b.WriteString(e.Path)
	b.WriteString(" is invalid:")
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}

// Load reads the config at path. Unknown keys are rejected; an empty file
// yields the defaults.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer file.Close()
	return decode(file, path)
}

func decode(r io.Reader, path string) (*Config, error) {
	cfg := Default()
	cfg.Path = path

	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	errs := ValidationError{Path: c.Path}
	switch c.Repl.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		errs.Issues = append(errs.Issues,
			fmt.Sprintf("repl.color must be auto, always or never, got %q", c.Repl.Color))
	}
	if c.Repl.Prompt == "" {
		errs.Issues = append(errs.Issues, "repl.prompt must not be empty")
	}
	if len(errs.Issues) > 0 {
		return &errs
	}
	return nil
}

// Discover loads tide.yaml from the working directory, falling back to the
// user config directory. Without either file it returns the defaults.
func Discover() (*Config, error) {
	var candidates []string
	if wd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(wd, FileName))
	}
	if dir, err := os.UserConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, "tide", FileName))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		return Load(path)
	}
	return Default(), nil
}

// HistoryPath returns the REPL history file with a leading ~ expanded.
// An empty setting disables history.
func (c *Config) HistoryPath() string {
	path := c.Repl.HistoryFile
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}

// UseColor reports whether output should be coloured given whether the
// destination is a terminal.
func (c *Config) UseColor(isTerminal bool) bool {
	switch c.Repl.Color {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	default:
		return isTerminal
	}
}
