package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		TakeoutRoot: "/takeout",
		OutputDir:   "/vault/imports",
		SessionGap:  Duration(30 * time.Minute),
		MaxKeywords: 10,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "missing takeout root",
			mutate:  func(c *Config) { c.TakeoutRoot = "" },
			wantErr: "takeout_root",
		},
		{
			name:    "missing output dir",
			mutate:  func(c *Config) { c.OutputDir = "" },
			wantErr: "output_dir",
		},
		{
			name:    "zero session gap",
			mutate:  func(c *Config) { c.SessionGap = 0 },
			wantErr: "session_gap",
		},
		{
			name:    "negative max keywords",
			mutate:  func(c *Config) { c.MaxKeywords = -1 },
			wantErr: "max_keywords",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "{}\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"ai/gemini/export"}, cfg.DefaultTags)
	assert.Equal(t, 30*time.Minute, cfg.SessionGap.Duration())
	assert.Equal(t, 10, cfg.MaxKeywords)
	assert.True(t, cfg.OrganizeByDate)
	assert.False(t, cfg.DryRun)
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
takeout_root: /data/Takeout
output_dir: /vault/Gemini Imports
session_gap: 45m
max_keywords: 5
organize_by_date: false
dry_run: true
default_tags:
  - imported
  - chat/gemini
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/data/Takeout", cfg.TakeoutRoot)
	assert.Equal(t, "/vault/Gemini Imports", cfg.OutputDir)
	assert.Equal(t, 45*time.Minute, cfg.SessionGap.Duration())
	assert.Equal(t, 5, cfg.MaxKeywords)
	assert.False(t, cfg.OrganizeByDate)
	assert.True(t, cfg.DryRun)
	assert.Equal(t, []string{"imported", "chat/gemini"}, cfg.DefaultTags)
	assert.NoError(t, cfg.Validate())
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "takeout_root: /from/file\n")
	t.Setenv("GEMINIVAULT_TAKEOUT_ROOT", "/from/env")
	t.Setenv("GEMINIVAULT_SESSION_GAP", "1h")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/from/env", cfg.TakeoutRoot)
	assert.Equal(t, time.Hour, cfg.SessionGap.Duration())
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadRejectsOversizeFile(t *testing.T) {
	big := make([]byte, maxConfigFileSize+1)
	for i := range big {
		big[i] = '#'
	}
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, big, 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too large")
}

func TestActivityPath(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t,
		filepath.Join("/takeout", "My Activity", "Gemini Apps", "MyActivity.json"),
		cfg.ActivityPath())
	assert.Equal(t, filepath.Join("/vault/imports", "_attachments"), cfg.AttachmentsDir())
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}
