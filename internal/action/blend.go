package action

import "sort"

const (
	// BlendThresholdMS is how close two transitions on the same key may land
	// before the blender spaces them out.
	BlendThresholdMS = 300
	// BlendDelayMS is the length of the synthetic sleep inserted between them.
	BlendDelayMS = 150
)

// SortByOffset stable-sorts actions by time offset, preserving input order
// for equal offsets.
func SortByOffset(actions []Action) {
	sort.SliceStable(actions, func(i, j int) bool {
		return actions[i].TimeOffsetMS < actions[j].TimeOffsetMS
	})
}

// Blend rewrites an offset-ordered action list so that repeated transitions on
// the same key arriving within BlendThresholdMS are separated by a synthetic
// sleep of BlendDelayMS, with the repeated action (and therefore every later
// occurrence of that key) shifted forward by the same amount. Polling UIs
// coalesce or drop key transitions that land too close together; the inserted
// gap keeps both transitions visible.
//
// Blend is pure: it never mutates its input and returns a fresh slice. A
// sequence that already carries a synthetic sleep in front of a repeated
// transition is left alone, so blending an already-blended list is a no-op.
func Blend(actions []Action) []Action {
	out := make([]Action, 0, len(actions))
	type seen struct {
		offsetMS int
		kind     Kind
	}
	lastByKey := make(map[string]seen)
	prevWasSleep := false
	for _, act := range actions {
		if IsKeyKind(act.Type) && act.Key != "" {
			t := act.TimeOffsetMS
			if last, ok := lastByKey[act.Key]; ok && !prevWasSleep && t-last.offsetMS < BlendThresholdMS {
				out = append(out, Action{
					Type:         Sleep,
					DurationMS:   BlendDelayMS,
					TimeOffsetMS: t,
				})
				t += BlendDelayMS
				act.TimeOffsetMS = t
			}
			lastByKey[act.Key] = seen{offsetMS: t, kind: act.Type}
		}
		prevWasSleep = act.Type == Sleep
		out = append(out, act)
	}
	return out
}
