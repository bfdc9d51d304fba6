package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	maxConfigFileSize = 1024 * 1024 // 1MB

	envPrefix = "GEMINIVAULT_"
)

// defaultYAML is the lowest-precedence configuration layer. Keeping the
// defaults in the same format as the config file means boolean defaults
// like organize_by_date survive an explicit false in a higher layer.
var defaultYAML = []byte(`
default_tags:
  - ai/gemini/export
session_gap: 30m
max_keywords: 10
organize_by_date: true
`)

// Load loads configuration in precedence order (highest wins):
//
//  1. Environment variables (GEMINIVAULT_OUTPUT_DIR, ...)
//  2. YAML config file
//  3. Built-in defaults
//
// configPath selects the YAML file; when empty the default path
// ~/.config/geminivault/config.yaml is used and may be absent. Flag
// overrides are applied by the caller after Load. Validation is deferred
// to Config.Validate so callers can finish assembling the config first.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(rawbytes.Provider(defaultYAML), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	explicit := configPath != ""
	if !explicit {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home directory: %w", err)
		}
		configPath = filepath.Join(home, ".config", "geminivault", "config.yaml")
	}

	content, err := readConfigFile(configPath)
	switch {
	case err == nil:
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", configPath, err)
		}
	case os.IsNotExist(err) && !explicit:
		// Default config file is optional.
	default:
		return nil, err
	}

	// GEMINIVAULT_OUTPUT_DIR -> output_dir
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// readConfigFile reads the file through a single descriptor so the size
// check and the read cannot race against a replacement.
func readConfigFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat config file: %w", err)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return content, nil
}
