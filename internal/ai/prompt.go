package ai

import (
	"encoding/json"
	"fmt"
)

const systemPrompt = `You are an automation agent operating in a perception-action loop. Your job is to observe the environment, analyze the situation, plan, and act. You receive screenshots and context, and you must:
- Provide a brief narrative of your intent and reasoning.
- Propose a concise, step-by-step plan.
- Output a list of timed actions to execute within the next 2 seconds (2000ms). Each action specifies a type, parameters, and a start time offset in milliseconds.
- Analyze the outcome after acting and describe the new state.

Action types: key_press (hold a key, auto-release after duration_ms), key_down, key_up, mouse_move (window-relative x/y), mouse_press (press and release at x/y for duration_ms), mouse_click, mouse_double_click (at current pointer position), mouse_move_direction (direction: up/down/left/right or w/a/s/d, glides the pointer over duration_ms). Coordinates are relative to the game window's top-left corner. time_offset_ms is relative to the start of this 2-second burst; offsets beyond 2000ms are discarded.

You have access to a 'remember' tool: record important facts, discoveries, or strategies in your journal entries and they will be fed back to you as memory notes on later loops.

You are given up to 3 prior screenshots (plus a pinned screenshot if present), recent plans, analyses, and memory notes.

Respond only with a JSON object of the form:
{"narrative": string, "plan": string, "actions": [{"type": string, "key": string?, "x": int?, "y": int?, "button": "left"|"right"|"middle"?, "direction": string?, "duration_ms": int?, "time_offset_ms": int}], "analysis": string, "pinned_screenshot": string|int|null}`

// buildContext renders the loop state the model should consider alongside
// the screenshots.
func buildContext(obs Observation) string {
	ctx := fmt.Sprintf(`Screen resolution: {"width": %d, "height": %d}
Previous state: %s
Previous analysis: %s
Previous plan: %s
Recent history (last %d): %s
Memory notes: %s
`,
		obs.ScreenWidth, obs.ScreenHeight,
		asJSON(obs.State), asJSON(obs.Analysis), asJSON(obs.PreviousPlan),
		len(obs.History), asJSON(obs.History),
		obs.Memory)
	if obs.LatestJournal != "" {
		ctx += "\nLatest journal entry: " + obs.LatestJournal + "\n"
	}
	return ctx + "\nRespond only with the JSON object as described."
}

func asJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(data)
}

// planSchema is the strict response schema sent to providers that support
// schema-constrained decoding.
var planSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "narrative": {"type": "string", "description": "Narrative plan for this loop."},
    "plan": {"type": "string", "description": "Step-by-step plan for this loop."},
    "actions": {
      "type": "array",
      "description": "Timed actions to execute within 2000ms.",
      "items": {
        "type": "object",
        "properties": {
          "type": {
            "type": "string",
            "enum": ["key_press", "key_release", "key_down", "key_up", "mouse_move", "mouse_press", "mouse_click", "mouse_double_click", "mouse_move_direction"],
            "description": "The type of input action."
          },
          "key": {"type": "string", "description": "Key identifier (e.g. 'w', 'enter', 'shift'). Required for key actions."},
          "x": {"type": "integer", "description": "Window-relative X coordinate. Required for mouse_move and mouse_press."},
          "y": {"type": "integer", "description": "Window-relative Y coordinate. Required for mouse_move and mouse_press."},
          "button": {"type": "string", "enum": ["left", "right", "middle"], "description": "Mouse button."},
          "direction": {"type": "string", "description": "Direction for mouse_move_direction (w/a/s/d or up/down/left/right)."},
          "duration_ms": {"type": "integer", "description": "How long to hold the input, in milliseconds."},
          "time_offset_ms": {"type": "integer", "description": "Start time relative to batch start (0-2000)."}
        },
        "required": ["type", "time_offset_ms"],
        "additionalProperties": false
      }
    },
    "analysis": {"type": "string", "description": "Analysis of the outcome and current state."},
    "pinned_screenshot": {"type": ["string", "integer", "null"], "description": "Filename or index of a screenshot to pin."}
  },
  "required": ["narrative", "plan", "actions", "analysis"],
  "additionalProperties": false
}`)
