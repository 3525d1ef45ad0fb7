// Package input provides cross-platform keyboard and pointer injection
// primitives for the execution engine.
package input

import "github.com/ratimics/operator/internal/action"

// Backend is the set of primitive input operations the engine dispatches to.
// All calls are synchronous and individually fallible. Held keys and buttons
// are global OS state: they stay held until released explicitly.
type Backend interface {
	KeyDown(key string) error
	KeyUp(key string) error
	ButtonDown(btn action.Button) error
	ButtonDownAt(btn action.Button, x, y int) error
	ButtonUp(btn action.Button) error
	MoveRel(dx, dy int) error
	MoveTo(x, y int) error
}

// CommonKeys is the canonical set force-released at the end of every batch.
var CommonKeys = []string{
	"up", "down", "left", "right",
	"w", "a", "s", "d",
	"enter", "space", "shift", "ctrl", "alt",
}

// Buttons is the canonical pointer button set force-released at batch end.
var Buttons = []action.Button{action.ButtonLeft, action.ButtonMiddle, action.ButtonRight}

// New returns the injector for the current platform.
func New() Backend {
	return newInjector()
}
