// Package main implements the geminivault CLI, which converts a Google
// Takeout export of Gemini chat history into Obsidian markdown notes.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/geminivault/internal/config"
	"github.com/fyrsmithlabs/geminivault/internal/logging"
	"github.com/fyrsmithlabs/geminivault/internal/pipeline"
)

var (
	// version information
	version = "dev"

	configPath  string
	takeoutRoot string
	outputDir   string
	sessionGap  string
	maxKeywords int
	defaultTags []string
	byDate      bool
	dryRun      bool
	verbose     bool
	logFormat   string
	noProgress  bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "geminivault",
	Short: "Convert Gemini chat history from Google Takeout into Obsidian notes",
	Long: `geminivault converts a Google Takeout export of Gemini chat history into
individual markdown notes with YAML frontmatter, grouped into conversations
by inactivity gaps, with attachments relocated into the vault and keyword
tags extracted from the conversation text.

Examples:
  # Convert an export
  geminivault --takeout ~/Downloads/Takeout --output ~/vault/Gemini\ Imports

  # Preview without writing anything
  geminivault --takeout ~/Downloads/Takeout --output ~/vault/imports --dry-run

  # Use a config file and override one value
  geminivault --config ./geminivault.yaml --gap 45m`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
	RunE:          runConvert,
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVar(&configPath, "config", "", "path to YAML config file (default ~/.config/geminivault/config.yaml)")
	flags.StringVar(&takeoutRoot, "takeout", "", "root of the unzipped Google Takeout folder")
	flags.StringVar(&outputDir, "output", "", "vault folder to write notes into")
	flags.StringVar(&sessionGap, "gap", "", "inactivity gap that starts a new conversation (e.g. 30m)")
	flags.IntVar(&maxKeywords, "max-keywords", 0, "maximum keyword tags per note")
	flags.StringSliceVar(&defaultTags, "tag", nil, "default tag for every note (repeatable)")
	flags.BoolVar(&byDate, "by-date", true, "organize notes into YYYY/MM subfolders")
	flags.BoolVar(&dryRun, "dry-run", false, "simulate the conversion without writing files")
	flags.BoolVarP(&verbose, "verbose", "v", false, "log skipped records and other detail")
	flags.StringVar(&logFormat, "log-format", "console", "log output format (console or json)")
	flags.BoolVar(&noProgress, "no-progress", false, "disable progress bars")
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := applyFlags(cmd, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logCfg := logging.NewDefaultConfig()
	logCfg.Format = logFormat
	if cfg.Verbose {
		logCfg.Level = zapcore.DebugLevel
	}
	log, err := logging.NewLogger(logCfg)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	if cfg.DryRun {
		log.Info("dry run mode enabled: no files will be written")
	}

	summary, err := pipeline.New(cfg, log, !noProgress).Run()
	if err != nil {
		log.Error(err.Error())
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), summary.String())
	return nil
}

// applyFlags lets explicitly-set flags take precedence over the config
// file and environment.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("takeout") {
		cfg.TakeoutRoot = takeoutRoot
	}
	if flags.Changed("output") {
		cfg.OutputDir = outputDir
	}
	if flags.Changed("gap") {
		var d config.Duration
		if err := d.UnmarshalText([]byte(sessionGap)); err != nil {
			return fmt.Errorf("invalid --gap: %w", err)
		}
		cfg.SessionGap = d
	}
	if flags.Changed("max-keywords") {
		cfg.MaxKeywords = maxKeywords
	}
	if flags.Changed("tag") {
		cfg.DefaultTags = defaultTags
	}
	if flags.Changed("by-date") {
		cfg.OrganizeByDate = byDate
	}
	if flags.Changed("dry-run") {
		cfg.DryRun = dryRun
	}
	if flags.Changed("verbose") {
		cfg.Verbose = verbose
	}
	return nil
}
