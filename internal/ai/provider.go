// Package ai asks a remote model what to do next, given recent screenshots
// and loop context, and returns a burst of timed input actions.
package ai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ratimics/operator/internal/action"
)

// Observation is everything the planner sees for one loop iteration.
// Screenshots are PNG-encoded, oldest first; when a pinned screenshot exists
// it leads the list.
type Observation struct {
	Screenshots  [][]byte
	ScreenWidth  int
	ScreenHeight int

	State         string
	Analysis      string
	PreviousPlan  string
	History       []HistoryEntry
	Memory        string
	LatestJournal string
}

// HistoryEntry is one prior loop's state snapshot.
type HistoryEntry struct {
	State    string `json:"state,omitempty"`
	Plan     string `json:"plan,omitempty"`
	Analysis string `json:"analysis,omitempty"`
}

// Plan is the model's decision for one loop: a short narrative, the plan
// text, a burst of timed actions for the next two seconds, and an analysis
// of the current state.
type Plan struct {
	Narrative        string          `json:"narrative"`
	Plan             string          `json:"plan"`
	Actions          []action.Action `json:"actions"`
	Analysis         string          `json:"analysis"`
	PinnedScreenshot *PinnedRef      `json:"pinned_screenshot,omitempty"`
}

// PinnedRef names a screenshot the model wants kept in view on future loops,
// either by history index or by filename.
type PinnedRef struct {
	Index int
	Name  string
	ByIdx bool
}

func (p *PinnedRef) UnmarshalJSON(data []byte) error {
	var idx int
	if err := json.Unmarshal(data, &idx); err == nil {
		p.Index = idx
		p.ByIdx = true
		return nil
	}
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		p.Name = name
		return nil
	}
	return fmt.Errorf("pinned_screenshot must be an index or a filename")
}

// Provider generates a plan from an observation.
type Provider interface {
	Plan(ctx context.Context, obs Observation) (*Plan, error)
}

// NewProvider creates a planner provider by name.
func NewProvider(name, model string) (Provider, error) {
	switch name {
	case "openrouter", "":
		return NewOpenRouterProvider(model)
	case "claude", "anthropic":
		return NewClaudeProvider(model)
	case "openai", "gpt":
		return NewOpenAIProvider(model)
	default:
		return nil, fmt.Errorf("unknown provider: %s (supported: openrouter, claude, openai)", name)
	}
}

// maxScreenshots caps how many frames are uploaded per call (plus the pinned
// frame, which leads the list when present).
const maxScreenshots = 3

func capScreenshots(frames [][]byte) [][]byte {
	if len(frames) > maxScreenshots {
		return frames[len(frames)-maxScreenshots:]
	}
	return frames
}
