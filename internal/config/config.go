// Package config holds the user-adjustable knobs for the agent.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Config captures the agent's runtime settings. Values come from defaults
// overlaid with OPERATOR_* environment variables and CLI flags.
type Config struct {
	// GameTitle is the window title substring the agent drives.
	GameTitle string

	Paths   PathsConfig
	Logging LoggingConfig
}

// PathsConfig controls filesystem locations for run bookkeeping.
type PathsConfig struct {
	ManualsDir      string
	JournalsDir     string
	RunSummariesDir string
	ScreenshotsDir  string
	MemoryFile      string
}

// LoggingConfig defines log verbosity and formatting.
type LoggingConfig struct {
	Level  string
	Format string
}

// Default returns the baseline configuration used when no overrides are
// supplied.
func Default() Config {
	return Config{
		GameTitle: "Darkest Dungeon",
		Paths: PathsConfig{
			ManualsDir:      "manuals",
			JournalsDir:     "journals",
			RunSummariesDir: filepath.Join("logs", "runs"),
			ScreenshotsDir:  "screenshots",
			MemoryFile:      "memory.md",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// FromEnv overlays OPERATOR_* environment variables onto defaults.
func FromEnv() Config {
	cfg := Default()
	if v := strings.TrimSpace(os.Getenv("OPERATOR_GAME_TITLE")); v != "" {
		cfg.GameTitle = v
	}
	if v := strings.TrimSpace(os.Getenv("OPERATOR_LOG_LEVEL")); v != "" {
		cfg.Logging.Level = v
	}
	if v := strings.TrimSpace(os.Getenv("OPERATOR_LOG_FORMAT")); v != "" {
		cfg.Logging.Format = v
	}
	return cfg
}

// ManualPath is the manual file for the configured game.
func (c Config) ManualPath() string {
	name := strings.ReplaceAll(c.GameTitle, " ", "_") + "_manual.md"
	return filepath.Join(c.Paths.ManualsDir, name)
}

// EnsureDirs creates the directories the agent writes into.
func (c Config) EnsureDirs() error {
	for _, dir := range []string{
		c.Paths.ManualsDir,
		c.Paths.JournalsDir,
		c.Paths.RunSummariesDir,
		c.Paths.ScreenshotsDir,
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}
