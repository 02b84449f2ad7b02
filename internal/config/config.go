// Package config loads symdex settings from a YAML file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/phobologic/symdex/internal/dispatch"
	"github.com/phobologic/symdex/internal/extract"
)

// DefaultFile is read from the working directory when no file is named.
const DefaultFile = ".symdex.yaml"

// Config holds file-level settings. Command-line flags take precedence.
type Config struct {
	Ignore      []string      `yaml:"ignore"`
	MaxFileSize int64         `yaml:"max_file_size"`
	WriteLog    *bool         `yaml:"write_log"`
	Timeout     time.Duration `yaml:"timeout"`
	Database    string        `yaml:"database"`
	// Extractors overrides registry entries, keyed by language tag.
	Extractors map[string]Extractor `yaml:"extractors"`
}

// Extractor describes an external extractor command.
type Extractor struct {
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
	Log     string   `yaml:"log"`
	Dir     string   `yaml:"dir"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{MaxFileSize: extract.DefaultMaxFileSize}
}

// LogEnabled reports whether in-process scans write their log artifact.
func (c *Config) LogEnabled() bool {
	return c.WriteLog == nil || *c.WriteLog
}

// Parse decodes YAML settings. Unknown keys are rejected; an empty
// document yields the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads path. When optional is set a missing file yields the defaults.
func Load(path string, optional bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.MaxFileSize < 0 {
		return fmt.Errorf("max_file_size must not be negative, got %d", c.MaxFileSize)
	}
	if c.MaxFileSize == 0 {
		c.MaxFileSize = extract.DefaultMaxFileSize
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	}
	for tag, ex := range c.Extractors {
		if _, err := dispatch.ParseLanguage(tag); err != nil {
			return fmt.Errorf("extractors: %w", err)
		}
		if ex.Command == "" {
			return fmt.Errorf("extractors.%s: command must not be empty", tag)
		}
	}
	return nil
}

// Apply installs the extractor overrides into reg. Relative working
// directories are resolved against base.
func (c *Config) Apply(reg *dispatch.Registry, base string) error {
	for tag, ex := range c.Extractors {
		l, err := dispatch.ParseLanguage(tag)
		if err != nil {
			return fmt.Errorf("extractors: %w", err)
		}
		dir := ex.Dir
		if dir != "" && !filepath.IsAbs(dir) {
			dir = filepath.Join(base, dir)
		}
		cmd := dispatch.Command{Path: ex.Command, Args: ex.Args, Dir: dir}
		if err := reg.Override(l, cmd, ex.Log); err != nil {
			return fmt.Errorf("extractors.%s: %w", tag, err)
		}
	}
	return nil
}
