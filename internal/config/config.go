// Package config provides configuration loading for geminivault.
package config

import (
	"fmt"
	"path/filepath"
)

// Config is the full configuration surface of the converter.
type Config struct {
	// TakeoutRoot is the root of the unzipped Google Takeout folder.
	TakeoutRoot string `koanf:"takeout_root"`
	// OutputDir is the vault folder notes are written into.
	OutputDir string `koanf:"output_dir"`
	// DefaultTags are prepended to every note's tag list.
	DefaultTags []string `koanf:"default_tags"`
	// SessionGap is the inactivity duration that starts a new conversation.
	SessionGap Duration `koanf:"session_gap"`
	// MaxKeywords caps keyword-derived tags per note.
	MaxKeywords int `koanf:"max_keywords"`
	// OrganizeByDate nests notes under YYYY/MM subfolders.
	OrganizeByDate bool `koanf:"organize_by_date"`
	// DryRun performs the whole conversion without writing any files.
	DryRun bool `koanf:"dry_run"`
	// Verbose enables debug-level logging of skipped records.
	Verbose bool `koanf:"verbose"`
}

// ActivityPath is the location of the Gemini activity file inside a
// Takeout export. The relative path is fixed by the export format.
func (c *Config) ActivityPath() string {
	return filepath.Join(c.TakeoutRoot, "My Activity", "Gemini Apps", "MyActivity.json")
}

// AttachmentsDir is where relocated attachment files land.
func (c *Config) AttachmentsDir() string {
	return filepath.Join(c.OutputDir, "_attachments")
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.TakeoutRoot == "" {
		return fmt.Errorf("takeout_root is required")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output_dir is required")
	}
	if c.SessionGap.Duration() <= 0 {
		return fmt.Errorf("session_gap must be positive, got %s", c.SessionGap.Duration())
	}
	if c.MaxKeywords < 0 {
		return fmt.Errorf("max_keywords cannot be negative, got %d", c.MaxKeywords)
	}
	return nil
}
