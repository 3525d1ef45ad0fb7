package executor

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ratimics/operator/internal/action"
	"github.com/ratimics/operator/internal/input"
	"github.com/ratimics/operator/internal/window"
)

type call struct {
	name string
	key  string
	btn  action.Button
	x, y int
}

// fakeBackend records every primitive call and can fail or panic on demand.
type fakeBackend struct {
	calls   []call
	failOn  map[string]error
	panicOn string
}

func (b *fakeBackend) record(c call) error {
	if b.panicOn == c.name {
		panic("backend blew up on " + c.name)
	}
	b.calls = append(b.calls, c)
	if err, ok := b.failOn[c.name]; ok {
		return err
	}
	return nil
}

func (b *fakeBackend) KeyDown(key string) error { return b.record(call{name: "KeyDown", key: key}) }
func (b *fakeBackend) KeyUp(key string) error   { return b.record(call{name: "KeyUp", key: key}) }
func (b *fakeBackend) ButtonDown(btn action.Button) error {
	return b.record(call{name: "ButtonDown", btn: btn})
}
func (b *fakeBackend) ButtonDownAt(btn action.Button, x, y int) error {
	return b.record(call{name: "ButtonDownAt", btn: btn, x: x, y: y})
}
func (b *fakeBackend) ButtonUp(btn action.Button) error {
	return b.record(call{name: "ButtonUp", btn: btn})
}
func (b *fakeBackend) MoveRel(dx, dy int) error {
	return b.record(call{name: "MoveRel", x: dx, y: dy})
}
func (b *fakeBackend) MoveTo(x, y int) error {
	return b.record(call{name: "MoveTo", x: x, y: y})
}

func (b *fakeBackend) named(name string) []call {
	var out []call
	for _, c := range b.calls {
		if c.name == name {
			out = append(out, c)
		}
	}
	return out
}

type fakeWindows struct {
	rect window.Rect
	err  error
}

func (w fakeWindows) Rect(string) (window.Rect, error) { return w.rect, w.err }

// seqRand cycles through a fixed value sequence.
type seqRand struct {
	vals []float64
	i    int
}

func (r *seqRand) Float64() float64 {
	if len(r.vals) == 0 {
		return 0.5
	}
	v := r.vals[r.i%len(r.vals)]
	r.i++
	return v
}

type sleepRecorder struct {
	slept []time.Duration
}

func (s *sleepRecorder) sleep(d time.Duration) {
	s.slept = append(s.slept, d)
}

func newTestExecutor(backend *fakeBackend, randVals ...float64) (*Executor, *sleepRecorder) {
	sleeps := &sleepRecorder{}
	e := New(backend, Options{
		Log:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		Rand:        &seqRand{vals: randVals},
		Sleep:       sleeps.sleep,
		Windows:     fakeWindows{rect: window.Rect{Left: 100, Top: 200, Width: 800, Height: 600}},
		WindowTitle: "Test Game",
	})
	return e, sleeps
}

// resetCalls is the number of backend releases one safety reset performs.
func resetCalls() int {
	return len(input.CommonKeys) + len(input.Buttons)
}

func countResets(b *fakeBackend) int {
	// "ctrl" is only released by the safety reset in these tests.
	n := 0
	for _, c := range b.named("KeyUp") {
		if c.key == "ctrl" {
			n++
		}
	}
	return n
}

func intPtr(v int) *int { return &v }

func TestEmptyBatchStillResets(t *testing.T) {
	backend := &fakeBackend{}
	e, _ := newTestExecutor(backend)

	e.Execute(nil)

	if got := countResets(backend); got != 1 {
		t.Fatalf("safety reset ran %d times, want 1", got)
	}
	if len(backend.calls) != resetCalls() {
		t.Fatalf("got %d calls, want only the %d reset releases", len(backend.calls), resetCalls())
	}
}

func TestResetRunsOnceAfterBackendErrors(t *testing.T) {
	backend := &fakeBackend{failOn: map[string]error{"KeyDown": errors.New("injection refused")}}
	e, _ := newTestExecutor(backend)

	e.Execute([]action.Action{
		{Type: action.KeyDown, Key: "w", TimeOffsetMS: 0},
		{Type: action.KeyDown, Key: "a", TimeOffsetMS: 400},
	})

	if got := countResets(backend); got != 1 {
		t.Fatalf("safety reset ran %d times, want 1", got)
	}
	// Both dispatches were attempted despite the first failing.
	if got := len(backend.named("KeyDown")); got != 2 {
		t.Fatalf("KeyDown attempted %d times, want 2", got)
	}
}

func TestResetRunsBeforePanicPropagates(t *testing.T) {
	backend := &fakeBackend{panicOn: "KeyDown"}
	e, _ := newTestExecutor(backend)

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected the panic to propagate")
		}
		if got := countResets(backend); got != 1 {
			t.Fatalf("safety reset ran %d times before propagation, want 1", got)
		}
	}()

	e.Execute([]action.Action{{Type: action.KeyDown, Key: "w", TimeOffsetMS: 0}})
}

func TestOffsetBeyondWindowBoundSkipped(t *testing.T) {
	backend := &fakeBackend{}
	e, sleeps := newTestExecutor(backend)

	e.Execute([]action.Action{
		{Type: action.KeyDown, Key: "w", TimeOffsetMS: 2500},
	})

	if got := len(backend.named("KeyDown")); got != 0 {
		t.Fatalf("skipped action was dispatched %d times", got)
	}
	if len(sleeps.slept) != 0 {
		t.Fatalf("skipped action advanced time: slept %v", sleeps.slept)
	}
}

func TestSkippedActionDoesNotAdvanceCursor(t *testing.T) {
	backend := &fakeBackend{}
	e, sleeps := newTestExecutor(backend, 0.5) // factor 1.0

	e.Execute([]action.Action{
		{Type: action.KeyDown, Key: "a", TimeOffsetMS: 2100},
		{Type: action.KeyDown, Key: "w", TimeOffsetMS: 400},
	})

	// The valid action comes first after sorting; its delay must be computed
	// from 0, unaffected by the out-of-window action.
	if len(sleeps.slept) == 0 || sleeps.slept[0] != 400*time.Millisecond {
		t.Fatalf("slept %v, want first sleep of 400ms", sleeps.slept)
	}
}

func TestJitterBounds(t *testing.T) {
	for _, tc := range []struct {
		randVal float64
		want    time.Duration
	}{
		{0, 970 * time.Millisecond},  // factor 0.97
		{1, 1030 * time.Millisecond}, // factor 1.03
	} {
		backend := &fakeBackend{}
		e, sleeps := newTestExecutor(backend, tc.randVal)

		e.Execute([]action.Action{{Type: action.KeyDown, Key: "w", TimeOffsetMS: 1000}})

		if len(sleeps.slept) != 1 || sleeps.slept[0].Round(time.Millisecond) != tc.want {
			t.Errorf("randVal %v: slept %v, want [%v]", tc.randVal, sleeps.slept, tc.want)
		}
	}
}

func TestJitterStaysWithinThreePercent(t *testing.T) {
	backend := &fakeBackend{}
	e, sleeps := newTestExecutor(backend) // constant 0.5 -> factor 1.0

	const delayMS = 700
	e.Execute([]action.Action{{Type: action.KeyDown, Key: "w", TimeOffsetMS: delayMS}})

	lo := time.Duration(float64(delayMS)*0.97) * time.Millisecond
	hi := time.Duration(float64(delayMS)*1.03) * time.Millisecond
	if len(sleeps.slept) != 1 || sleeps.slept[0] < lo || sleeps.slept[0] > hi {
		t.Fatalf("slept %v, want within [%v, %v]", sleeps.slept, lo, hi)
	}
}

func TestNegativeDelaySnapsWithoutSleeping(t *testing.T) {
	backend := &fakeBackend{}
	e, sleeps := newTestExecutor(backend, 0.5)

	// The 500ms hold pushes the cursor past the second action's offset.
	e.Execute([]action.Action{
		{Type: action.KeyPress, Key: "w", DurationMS: 500, TimeOffsetMS: 0},
		{Type: action.KeyDown, Key: "a", TimeOffsetMS: 100},
	})

	if got := len(backend.named("KeyDown")); got != 2 {
		t.Fatalf("KeyDown called %d times, want 2", got)
	}
	// Sleeps: the 500ms hold only. No sleep for the late action.
	if len(sleeps.slept) != 1 || sleeps.slept[0] != 500*time.Millisecond {
		t.Fatalf("slept %v, want only the 500ms hold", sleeps.slept)
	}
}

func TestUnrecognizedKindSkippedAndBatchContinues(t *testing.T) {
	backend := &fakeBackend{}
	e, _ := newTestExecutor(backend, 0.5)

	e.Execute([]action.Action{
		{Type: "mouse_drag", TimeOffsetMS: 0},
		{Type: action.KeyDown, Key: "w", TimeOffsetMS: 0},
	})

	if got := len(backend.named("KeyDown")); got != 1 {
		t.Fatalf("later action not dispatched: KeyDown called %d times", got)
	}
	if got := len(backend.calls); got != 1+resetCalls() {
		t.Fatalf("unrecognized kind reached the backend: %d calls", got)
	}
}

func TestKeyPressHoldsAndReleases(t *testing.T) {
	backend := &fakeBackend{}
	e, sleeps := newTestExecutor(backend, 0.5)

	e.Execute([]action.Action{{Type: action.KeyPress, Key: "space", DurationMS: 200, TimeOffsetMS: 0}})

	downs := backend.named("KeyDown")
	if len(downs) != 1 || downs[0].key != "space" {
		t.Fatalf("KeyDown calls: %+v", downs)
	}
	// First KeyUp is the hold release, before the reset.
	ups := backend.named("KeyUp")
	if len(ups) == 0 || ups[0].key != "space" {
		t.Fatalf("KeyUp calls: %+v", ups)
	}
	if len(sleeps.slept) != 1 || sleeps.slept[0] != 200*time.Millisecond {
		t.Fatalf("hold slept %v, want 200ms exactly", sleeps.slept)
	}
}

func TestKeyPressWithoutDurationStaysHeld(t *testing.T) {
	backend := &fakeBackend{}
	e, _ := newTestExecutor(backend, 0.5)

	e.Execute([]action.Action{{Type: action.KeyPress, Key: "shift", TimeOffsetMS: 0}})

	// No release before the safety reset.
	ups := backend.named("KeyUp")
	if len(ups) != len(input.CommonKeys) {
		t.Fatalf("KeyUp called %d times, want only the reset releases", len(ups))
	}
}

func TestMouseMoveTranslatesThroughWindowOrigin(t *testing.T) {
	backend := &fakeBackend{}
	e, _ := newTestExecutor(backend, 0.5)

	e.Execute([]action.Action{{
		Type: action.MouseMove, X: intPtr(10), Y: intPtr(20), TimeOffsetMS: 0,
	}})

	moves := backend.named("MoveTo")
	if len(moves) != 1 || moves[0].x != 110 || moves[0].y != 220 {
		t.Fatalf("MoveTo calls: %+v, want (110,220)", moves)
	}
	if x, y, ok := e.LastPointer(); !ok || x != 110 || y != 220 {
		t.Fatalf("LastPointer() = (%d,%d,%v)", x, y, ok)
	}
}

func TestMousePressPressesAndReleasesAtTarget(t *testing.T) {
	backend := &fakeBackend{}
	e, sleeps := newTestExecutor(backend, 0.5)

	e.Execute([]action.Action{{
		Type: action.MousePress, X: intPtr(5), Y: intPtr(5),
		Button: action.ButtonRight, DurationMS: 150, TimeOffsetMS: 0,
	}})

	downs := backend.named("ButtonDownAt")
	if len(downs) != 1 || downs[0].btn != action.ButtonRight || downs[0].x != 105 || downs[0].y != 205 {
		t.Fatalf("ButtonDownAt calls: %+v", downs)
	}
	ups := backend.named("ButtonUp")
	if len(ups) == 0 || ups[0].btn != action.ButtonRight {
		t.Fatalf("ButtonUp calls: %+v", ups)
	}
	if len(sleeps.slept) != 1 || sleeps.slept[0] != 150*time.Millisecond {
		t.Fatalf("hold slept %v", sleeps.slept)
	}
}

func TestMousePressWindowLookupFailureIsNonFatal(t *testing.T) {
	backend := &fakeBackend{}
	sleeps := &sleepRecorder{}
	e := New(backend, Options{
		Log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		Rand:    &seqRand{vals: []float64{0.5}},
		Sleep:   sleeps.sleep,
		Windows: fakeWindows{err: fmt.Errorf("window %q not found", "Test Game")},
	})

	e.Execute([]action.Action{
		{Type: action.MousePress, X: intPtr(5), Y: intPtr(5), TimeOffsetMS: 0},
		{Type: action.KeyDown, Key: "w", TimeOffsetMS: 0},
	})

	if got := len(backend.named("ButtonDownAt")); got != 0 {
		t.Fatalf("press dispatched despite lookup failure")
	}
	if got := len(backend.named("KeyDown")); got != 1 {
		t.Fatalf("batch did not continue: KeyDown called %d times", got)
	}
}

func TestDoubleClickRepeatsWithPause(t *testing.T) {
	backend := &fakeBackend{}
	e, sleeps := newTestExecutor(backend, 0.5)

	e.Execute([]action.Action{{Type: action.MouseDoubleClick, TimeOffsetMS: 0}})

	if got := len(backend.named("ButtonDown")); got != 2 {
		t.Fatalf("ButtonDown called %d times, want 2", got)
	}
	// hold, pause, hold
	want := []time.Duration{100 * time.Millisecond, 50 * time.Millisecond, 100 * time.Millisecond}
	if len(sleeps.slept) != len(want) {
		t.Fatalf("slept %v, want %v", sleeps.slept, want)
	}
	for i := range want {
		if sleeps.slept[i] != want[i] {
			t.Fatalf("slept %v, want %v", sleeps.slept, want)
		}
	}
}

func TestClickDefaultsToLeftButton(t *testing.T) {
	backend := &fakeBackend{}
	e, _ := newTestExecutor(backend, 0.5)

	e.Execute([]action.Action{{Type: action.MouseClick, TimeOffsetMS: 0}})

	downs := backend.named("ButtonDown")
	if len(downs) != 1 || downs[0].btn != action.ButtonLeft {
		t.Fatalf("ButtonDown calls: %+v", downs)
	}
}

func TestDirectionalGlideCoversFullStep(t *testing.T) {
	backend := &fakeBackend{}
	e, _ := newTestExecutor(backend, 0.5)

	e.Execute([]action.Action{{
		Type: action.MouseMoveDirection, Direction: "d", DurationMS: 100, TimeOffsetMS: 0,
	}})

	moves := backend.named("MoveRel")
	if len(moves) != 5 {
		t.Fatalf("glide made %d hops, want 5", len(moves))
	}
	totalX, totalY := 0, 0
	for _, m := range moves {
		totalX += m.x
		totalY += m.y
	}
	if totalX != 30 || totalY != 0 {
		t.Fatalf("glide moved (%d,%d), want (30,0)", totalX, totalY)
	}
}

func TestGlideUnknownDirectionSkipped(t *testing.T) {
	backend := &fakeBackend{}
	e, _ := newTestExecutor(backend, 0.5)

	e.Execute([]action.Action{{
		Type: action.MouseMoveDirection, Direction: "northwest", TimeOffsetMS: 0,
	}})

	if got := len(backend.named("MoveRel")); got != 0 {
		t.Fatalf("MoveRel called %d times for an unknown direction", got)
	}
}

func TestUnsortedBatchIsOrderedBeforeDispatch(t *testing.T) {
	backend := &fakeBackend{}
	e, _ := newTestExecutor(backend, 0.5)

	e.Execute([]action.Action{
		{Type: action.KeyDown, Key: "a", TimeOffsetMS: 800},
		{Type: action.KeyDown, Key: "w", TimeOffsetMS: 0},
	})

	downs := backend.named("KeyDown")
	if len(downs) != 2 || downs[0].key != "w" || downs[1].key != "a" {
		t.Fatalf("dispatch order: %+v, want w then a", downs)
	}
}

func TestEndToEndRepeatedKeyScenario(t *testing.T) {
	backend := &fakeBackend{}
	e, sleeps := newTestExecutor(backend, 0.5)

	e.Execute([]action.Action{
		{Type: action.KeyDown, Key: "w", TimeOffsetMS: 0},
		{Type: action.KeyDown, Key: "w", TimeOffsetMS: 50},
		{Type: action.KeyUp, Key: "w", TimeOffsetMS: 80, DurationMS: 100},
	})

	// Two holds and a release for w, in order, before the reset.
	var wCalls []string
	for _, c := range backend.calls[:3] {
		if c.key != "w" {
			t.Fatalf("unexpected early call %+v", c)
		}
		wCalls = append(wCalls, c.name)
	}
	want := []string{"KeyDown", "KeyDown", "KeyUp"}
	for i := range want {
		if wCalls[i] != want[i] {
			t.Fatalf("w call order %v, want %v", wCalls, want)
		}
	}

	// Blend sleeps of 150ms were injected for both rapid repeats.
	blendSleeps := 0
	for _, d := range sleeps.slept {
		if d == 150*time.Millisecond {
			blendSleeps++
		}
	}
	if blendSleeps != 2 {
		t.Fatalf("saw %d blend sleeps, want 2 (slept %v)", blendSleeps, sleeps.slept)
	}

	// Terminates with every tracked key released.
	if got := countResets(backend); got != 1 {
		t.Fatalf("safety reset ran %d times, want 1", got)
	}
	ups := backend.named("KeyUp")
	released := make(map[string]bool)
	for _, c := range ups {
		released[c.key] = true
	}
	for _, key := range input.CommonKeys {
		if !released[key] {
			t.Fatalf("key %q not released at batch end", key)
		}
	}
}
