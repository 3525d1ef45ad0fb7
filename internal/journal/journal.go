// Package journal persists the agent's manual, journal entries, and
// per-loop run summaries, and reads back recent context for the planner.
package journal

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ratimics/operator/internal/action"
	"github.com/ratimics/operator/internal/config"
)

// Entry is one loop's worth of planner output to record.
type Entry struct {
	Narrative string
	Plan      string
	Analysis  string
	Actions   []action.Action
}

// Keeper owns the bookkeeping directories for one agent run.
type Keeper struct {
	journalsDir  string
	summariesDir string
	memoryFile   string
	log          *slog.Logger

	now func() time.Time
}

// NewKeeper builds a Keeper from the agent config.
func NewKeeper(cfg config.Config, log *slog.Logger) *Keeper {
	return &Keeper{
		journalsDir:  cfg.Paths.JournalsDir,
		summariesDir: cfg.Paths.RunSummariesDir,
		memoryFile:   cfg.Paths.MemoryFile,
		log:          log,
		now:          time.Now,
	}
}

// WriteManual regenerates the persistent manual for the given game: the
// discovered controls, gameplay basics, and standing advice the planner gets
// on every loop.
func WriteManual(path, gameTitle string) error {
	content := fmt.Sprintf(`# %s Automation Manual

## Controls (Discovered)
- Mouse: Used for most UI interactions, selecting units, abilities, and targets.
- Keyboard: Common keys include arrow keys, WASD for movement, 1-4 for skill selection, Enter/Space/Esc for confirmation or menus.

## Basic Gameplay (Discovered)
- Progression: Use mouse or keyboard to navigate menus, select campaign, and advance through tutorials.
- Combat: Select a unit, choose a skill (via mouse or number key), then click on an enemy to attack.
- Interactions: Click on objects (e.g. chests, doors) to interact.
- Tutorials: Pop-ups may block input; close with a mouse click on 'X' or Esc.

## Persistent Discoveries
- Some actions require explicit skill selection before targeting.
- If input is unresponsive, check for overlays or pop-ups.
- Keyboard shortcuts (1-4) can select skills directly.
- If stuck, try Esc, Enter, or Space to dismiss overlays.

(Manual is regenerated at the start of each run. See the run summaries directory for detailed run logs.)
`, gameTitle)
	return os.WriteFile(path, []byte(content), 0o644)
}

// WriteJournal saves a timestamped journal entry and returns its path.
func (k *Keeper) WriteJournal(e Entry) (string, error) {
	path := filepath.Join(k.journalsDir, fmt.Sprintf("journal_%d.md", k.now().Unix()))
	if err := os.WriteFile(path, []byte(k.render("Journal Entry", e)), 0o644); err != nil {
		return "", fmt.Errorf("save journal entry: %w", err)
	}
	return path, nil
}

// WriteRunSummary saves the per-loop summary file and returns its path.
func (k *Keeper) WriteRunSummary(e Entry) (string, error) {
	path := filepath.Join(k.summariesDir, fmt.Sprintf("run_%d.md", k.now().Unix()))
	if err := os.WriteFile(path, []byte(k.render("Run Summary", e)), 0o644); err != nil {
		return "", fmt.Errorf("save run summary: %w", err)
	}
	return path, nil
}

func (k *Keeper) render(title string, e Entry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s %s\n\n", title, k.now().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "## Narrative\n%s\n\n", e.Narrative)
	fmt.Fprintf(&b, "## Plan\n%s\n\n", e.Plan)
	fmt.Fprintf(&b, "## Analysis\n%s\n\n", e.Analysis)
	b.WriteString("## Actions\n")
	for _, act := range e.Actions {
		fmt.Fprintf(&b, "- %s", act.Type)
		if act.Key != "" {
			fmt.Fprintf(&b, " key=%s", act.Key)
		}
		if act.X != nil && act.Y != nil {
			fmt.Fprintf(&b, " at=(%d,%d)", *act.X, *act.Y)
		}
		if act.DurationMS > 0 {
			fmt.Fprintf(&b, " duration=%dms", act.DurationMS)
		}
		fmt.Fprintf(&b, " t=%dms\n", act.TimeOffsetMS)
	}
	b.WriteString("\n")
	return b.String()
}

// ReadMemory returns the contents of the memory file, or empty when absent.
func (k *Keeper) ReadMemory() string {
	data, err := os.ReadFile(k.memoryFile)
	if err != nil {
		if !os.IsNotExist(err) {
			k.log.Error("failed to read memory file", "path", k.memoryFile, "error", err)
		}
		return ""
	}
	return string(data)
}

// RecentJournals returns the contents of the newest journal entries, newest
// first, up to n.
func (k *Keeper) RecentJournals(n int) []string {
	matches, err := filepath.Glob(filepath.Join(k.journalsDir, "journal_*.md"))
	if err != nil {
		return nil
	}
	sort.Sort(sort.Reverse(sort.StringSlice(matches)))
	var out []string
	for _, path := range matches {
		if len(out) >= n {
			break
		}
		data, err := os.ReadFile(path)
		if err != nil {
			k.log.Error("failed to read journal", "path", path, "error", err)
			continue
		}
		out = append(out, string(data))
	}
	return out
}
