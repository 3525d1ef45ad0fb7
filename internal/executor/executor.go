// Package executor replays timed action batches against the OS input queue.
//
// A batch is scoped to one call: offsets are milliseconds from batch start,
// dispatch is single-threaded and paced by real blocking sleeps on a
// monotonic clock, and every exit path force-releases all tracked inputs.
// The executor is not safe for concurrent batches; held keys and buttons are
// global OS state, so callers run one perceive-plan-act cycle at a time.
package executor

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/ratimics/operator/internal/action"
	"github.com/ratimics/operator/internal/input"
	"github.com/ratimics/operator/internal/window"
)

const (
	// WindowBoundMS caps how far into the batch an action may start. The
	// planner is only asked to plan two seconds ahead, so a larger offset
	// means a stale or malformed plan and is skipped rather than honored.
	WindowBoundMS = 2000

	// jitterFrac perturbs every sleep and hold by up to ±3% so the replay
	// does not look perfectly periodic.
	jitterFrac = 0.03

	// Directional pointer glides move stepSizePx total, one small hop every
	// stepIntervalMS, so the motion reads as continuous.
	stepSizePx     = 30
	stepIntervalMS = 20

	doubleClickPauseMS = 50
	defaultClickMS     = 100
)

// Rand supplies the jitter source. *rand.Rand satisfies it; tests inject a
// deterministic sequence.
type Rand interface {
	Float64() float64
}

// Options configures an Executor. Zero-value fields take defaults.
type Options struct {
	Log         *slog.Logger
	Rand        Rand
	Sleep       func(time.Duration)
	Windows     window.Provider
	WindowTitle string
}

// Executor owns the pacing loop and the safety reset for one input backend.
type Executor struct {
	backend input.Backend
	windows window.Provider
	title   string
	log     *slog.Logger
	rand    Rand
	sleep   func(time.Duration)

	lastX, lastY int
	hasPointer   bool
}

// New builds an Executor around the given backend.
func New(backend input.Backend, opts Options) *Executor {
	e := &Executor{
		backend: backend,
		windows: opts.Windows,
		title:   opts.WindowTitle,
		log:     opts.Log,
		rand:    opts.Rand,
		sleep:   opts.Sleep,
	}
	if e.log == nil {
		e.log = slog.Default()
	}
	if e.rand == nil {
		e.rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if e.sleep == nil {
		e.sleep = time.Sleep
	}
	if e.windows == nil {
		e.windows = window.New()
	}
	return e
}

// Execute replays one batch of actions. It never returns a value: validation
// problems, timing inconsistencies, and backend failures are logged and the
// batch continues. All tracked keys and buttons are released before Execute
// returns, on normal completion and on panic alike.
func (e *Executor) Execute(actions []action.Action) {
	batch := make([]action.Action, len(actions))
	copy(batch, actions)
	action.SortByOffset(batch)
	batch = action.Blend(batch)

	start := time.Now()
	currentOffsetMS := 0
	e.log.Debug("starting timed action sequence", "actions", len(batch))

	defer e.resetAllInputs()

	for _, act := range batch {
		targetOffsetMS := act.TimeOffsetMS
		if targetOffsetMS > WindowBoundMS {
			e.log.Warn("action offset exceeds window bound, skipping",
				"offset_ms", targetOffsetMS, "bound_ms", WindowBoundMS, "type", act.Type)
			continue
		}

		delayMS := targetOffsetMS - currentOffsetMS
		if delayMS > 0 {
			e.sleep(jittered(delayMS, e.jitter()))
			currentOffsetMS = targetOffsetMS
		} else if delayMS < 0 {
			e.log.Warn("negative delay computed, executing immediately",
				"delay_ms", delayMS, "type", act.Type)
			currentOffsetMS = targetOffsetMS
		}

		if act.Type == action.Sleep {
			if act.DurationMS > 0 {
				e.log.Debug("blend sleep", "duration_ms", act.DurationMS)
				e.sleep(jittered(act.DurationMS, e.jitter()))
				currentOffsetMS += act.DurationMS
			}
			continue
		}

		if err := e.dispatch(act); err != nil {
			e.log.Warn("action dispatch failed", "type", act.Type, "error", err)
			continue
		}

		// Hold-type dispatches block for their duration inside the backend
		// call; account for that time in the batch cursor.
		if act.DurationMS > 0 && (act.Type == action.KeyPress || act.Type == action.MousePress) {
			currentOffsetMS += int(float64(act.DurationMS) * e.jitter())
		}
	}

	e.log.Debug("finished action sequence", "elapsed", time.Since(start))
}

// LastPointer reports the screen position of the most recent absolute pointer
// action, if any batch has performed one. Used by session recording.
func (e *Executor) LastPointer() (x, y int, ok bool) {
	return e.lastX, e.lastY, e.hasPointer
}

// jitter draws a fresh multiplicative factor in [1-jitterFrac, 1+jitterFrac].
func (e *Executor) jitter() float64 {
	return 1 + (e.rand.Float64()*2-1)*jitterFrac
}

func jittered(ms int, factor float64) time.Duration {
	return time.Duration(float64(ms) * factor * float64(time.Millisecond))
}

func (e *Executor) dispatch(act action.Action) error {
	switch act.Type {
	case action.KeyPress:
		if act.Key == "" {
			return fmt.Errorf("key_press without key")
		}
		if err := e.backend.KeyDown(act.Key); err != nil {
			return err
		}
		if act.DurationMS > 0 {
			e.sleep(time.Duration(act.DurationMS) * time.Millisecond)
			return e.backend.KeyUp(act.Key)
		}
		return nil

	case action.KeyDown:
		if act.Key == "" {
			return fmt.Errorf("key_down without key")
		}
		return e.backend.KeyDown(act.Key)

	case action.KeyUp, action.KeyRelease:
		if act.Key == "" {
			return fmt.Errorf("%s without key", act.Type)
		}
		return e.backend.KeyUp(act.Key)

	case action.MouseMoveDirection:
		return e.glide(act.Direction, act.DurationMS)

	case action.MouseClick:
		return e.click(buttonOrDefault(act.Button), clickDuration(act.DurationMS), 1)

	case action.MouseDoubleClick:
		return e.click(buttonOrDefault(act.Button), clickDuration(act.DurationMS), 2)

	case action.MouseMove:
		if act.X == nil || act.Y == nil {
			return fmt.Errorf("mouse_move without coordinates")
		}
		x, y, err := e.toScreen(*act.X, *act.Y)
		if err != nil {
			return err
		}
		if err := e.backend.MoveTo(x, y); err != nil {
			return err
		}
		e.lastX, e.lastY, e.hasPointer = x, y, true
		return nil

	case action.MousePress:
		if act.X == nil || act.Y == nil {
			return fmt.Errorf("mouse_press without coordinates")
		}
		x, y, err := e.toScreen(*act.X, *act.Y)
		if err != nil {
			return err
		}
		btn := buttonOrDefault(act.Button)
		if err := e.backend.ButtonDownAt(btn, x, y); err != nil {
			return err
		}
		e.lastX, e.lastY, e.hasPointer = x, y, true
		e.sleep(time.Duration(clickDuration(act.DurationMS)) * time.Millisecond)
		return e.backend.ButtonUp(btn)

	default:
		e.log.Warn("unrecognized action type, skipping", "type", act.Type)
		return nil
	}
}

// glide moves the pointer stepSizePx in the given direction over durationMS,
// in small timed hops.
func (e *Executor) glide(direction string, durationMS int) error {
	dx, dy, ok := directionVector(direction)
	if !ok {
		return fmt.Errorf("unknown mouse move direction %q", direction)
	}
	if durationMS <= 0 {
		durationMS = defaultClickMS
	}
	steps := durationMS / stepIntervalMS
	if steps < 1 {
		steps = 1
	}
	stepSleep := time.Duration(durationMS/steps) * time.Millisecond
	moved := 0
	for i := 1; i <= steps; i++ {
		target := stepSizePx * i / steps
		hop := target - moved
		moved = target
		if err := e.backend.MoveRel(dx*hop, dy*hop); err != nil {
			return err
		}
		e.sleep(stepSleep)
	}
	return nil
}

// click presses and releases at the current pointer position, repeating for
// double clicks with a short fixed pause between repetitions.
func (e *Executor) click(btn action.Button, durationMS, times int) error {
	for i := 0; i < times; i++ {
		if err := e.backend.ButtonDown(btn); err != nil {
			return err
		}
		e.sleep(time.Duration(durationMS) * time.Millisecond)
		if err := e.backend.ButtonUp(btn); err != nil {
			return err
		}
		if i < times-1 {
			e.sleep(doubleClickPauseMS * time.Millisecond)
		}
	}
	return nil
}

// toScreen translates window-relative coordinates into screen-absolute ones
// using the current window origin.
func (e *Executor) toScreen(x, y int) (int, int, error) {
	rect, err := e.windows.Rect(e.title)
	if err != nil {
		return 0, 0, fmt.Errorf("window lookup: %w", err)
	}
	return rect.Left + x, rect.Top + y, nil
}

// resetAllInputs force-releases every tracked key and pointer button,
// whether or not the batch touched them. Each release is guarded on its own;
// one failure does not stop the rest.
func (e *Executor) resetAllInputs() {
	for _, key := range input.CommonKeys {
		if err := e.backend.KeyUp(key); err != nil {
			e.log.Debug("error releasing key", "key", key, "error", err)
		}
	}
	for _, btn := range input.Buttons {
		if err := e.backend.ButtonUp(btn); err != nil {
			e.log.Debug("error releasing mouse button", "button", btn, "error", err)
		}
	}
	e.log.Info("all inputs reset to prevent stuck keys and buttons")
}

func buttonOrDefault(btn action.Button) action.Button {
	if btn == "" {
		return action.ButtonLeft
	}
	return btn
}

func clickDuration(durationMS int) int {
	if durationMS <= 0 {
		return defaultClickMS
	}
	return durationMS
}

func directionVector(direction string) (dx, dy int, ok bool) {
	switch direction {
	case "w", "up":
		return 0, -1, true
	case "s", "down":
		return 0, 1, true
	case "a", "left":
		return -1, 0, true
	case "d", "right":
		return 1, 0, true
	}
	return 0, 0, false
}
