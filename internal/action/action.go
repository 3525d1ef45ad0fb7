// Package action defines the timed input actions exchanged between the
// planner and the execution engine.
package action

import (
	"encoding/json"
	"strings"
)

// Kind identifies what an action does when dispatched.
type Kind string

const (
	// KeyPress holds a key down and, when a duration is present, releases it
	// after that many milliseconds. Without a duration the key stays held
	// until a later KeyUp or the end-of-batch reset.
	KeyPress   Kind = "key_press"
	KeyDown    Kind = "key_down"
	KeyUp      Kind = "key_up"
	KeyRelease Kind = "key_release"

	MouseMoveDirection Kind = "mouse_move_direction"
	MouseClick         Kind = "mouse_click"
	MouseDoubleClick   Kind = "mouse_double_click"
	MouseMove          Kind = "mouse_move"
	MousePress         Kind = "mouse_press"

	// Sleep is never produced by the planner. The blender inserts it to space
	// out repeated transitions on the same key.
	Sleep Kind = "sleep"
)

// Button identifies a pointer button.
type Button string

const (
	ButtonLeft   Button = "left"
	ButtonMiddle Button = "middle"
	ButtonRight  Button = "right"
)

// Action is a single timed instruction for the input backend.
//
// TimeOffsetMS is relative to the start of the batch the action arrived in,
// never to wall-clock time. A missing offset means 0.
type Action struct {
	Type         Kind   `json:"type"`
	Key          string `json:"key,omitempty"`
	Button       Button `json:"button,omitempty"`
	X            *int   `json:"x,omitempty"`
	Y            *int   `json:"y,omitempty"`
	Direction    string `json:"direction,omitempty"`
	DurationMS   int    `json:"duration_ms,omitempty"`
	TimeOffsetMS int    `json:"time_offset_ms,omitempty"`
}

// IsKeyKind reports whether k is a keyboard transition the blender tracks.
func IsKeyKind(k Kind) bool {
	switch k {
	case KeyPress, KeyRelease, KeyDown, KeyUp:
		return true
	}
	return false
}

// kindSynonyms maps planner variants onto canonical kind names.
var kindSynonyms = map[Kind]Kind{
	"press_key":   KeyPress,
	"release_key": KeyRelease,
	"keydown":     KeyPress,
	"keyup":       KeyRelease,
	"mouse_down":  MousePress,
	"mouse_up":    "mouse_release",
	"drag":        "mouse_drag",
}

// NormalizeKind maps synonyms and casing variants to canonical kind names.
// Unknown kinds pass through unchanged; the executor warns on them.
func NormalizeKind(k Kind) Kind {
	lowered := Kind(strings.ToLower(string(k)))
	if canonical, ok := kindSynonyms[lowered]; ok {
		return canonical
	}
	return lowered
}

// params mirrors the payload fields of Action for planners that nest them
// under a "parameters" object instead of inlining them.
type params struct {
	Key        string `json:"key,omitempty"`
	Button     Button `json:"button,omitempty"`
	X          *int   `json:"x,omitempty"`
	Y          *int   `json:"y,omitempty"`
	Direction  string `json:"direction,omitempty"`
	DurationMS int    `json:"duration_ms,omitempty"`
}

// UnmarshalJSON accepts both the flat action shape and the nested
// {"type": ..., "parameters": {...}, "time_offset_ms": ...} shape.
func (a *Action) UnmarshalJSON(data []byte) error {
	type flat Action
	aux := struct {
		*flat
		Parameters *params `json:"parameters,omitempty"`
	}{flat: (*flat)(a)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if p := aux.Parameters; p != nil {
		if a.Key == "" {
			a.Key = p.Key
		}
		if a.Button == "" {
			a.Button = p.Button
		}
		if a.X == nil {
			a.X = p.X
		}
		if a.Y == nil {
			a.Y = p.Y
		}
		if a.Direction == "" {
			a.Direction = p.Direction
		}
		if a.DurationMS == 0 {
			a.DurationMS = p.DurationMS
		}
	}
	a.Type = NormalizeKind(a.Type)
	return nil
}
