package app

import (
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/dshills/controlmap/internal/button"
	"github.com/dshills/controlmap/internal/classify"
	"github.com/dshills/controlmap/internal/dispatch"
	"github.com/dshills/controlmap/internal/mapping"
	"github.com/dshills/controlmap/internal/motion"
	"github.com/dshills/controlmap/internal/policy"
)

// fakeSim records simulator calls as formatted strings.
type fakeSim struct {
	calls []string
}

func (s *fakeSim) PressKey(key mapping.KeyCode, mods mapping.Modifier) error {
	s.calls = append(s.calls, fmt.Sprintf("press %v mods=%d", key, mods))
	return nil
}
func (s *fakeSim) KeyDown(key mapping.KeyCode) error {
	s.calls = append(s.calls, fmt.Sprintf("down %v", key))
	return nil
}
func (s *fakeSim) KeyUp(key mapping.KeyCode) error {
	s.calls = append(s.calls, fmt.Sprintf("up %v", key))
	return nil
}
func (s *fakeSim) HoldModifier(mod mapping.Modifier) error {
	s.calls = append(s.calls, fmt.Sprintf("holdmod %d", mod))
	return nil
}
func (s *fakeSim) ReleaseModifier(mod mapping.Modifier) error {
	s.calls = append(s.calls, fmt.Sprintf("releasemod %d", mod))
	return nil
}
func (s *fakeSim) ReleaseAllModifiers() error {
	s.calls = append(s.calls, "releaseall")
	return nil
}
func (s *fakeSim) MoveMouse(dx, dy float64) error {
	s.calls = append(s.calls, fmt.Sprintf("move %.2f,%.2f", dx, dy))
	return nil
}
func (s *fakeSim) Scroll(dx, dy float64) error {
	s.calls = append(s.calls, fmt.Sprintf("scroll %.2f,%.2f", dx, dy))
	return nil
}
func (s *fakeSim) TypeText(text string) error {
	s.calls = append(s.calls, "type "+text)
	return nil
}

func (s *fakeSim) count(prefix string) int {
	n := 0
	for _, c := range s.calls {
		if len(c) >= len(prefix) && c[:len(prefix)] == prefix {
			n++
		}
	}
	return n
}

// fakeModes returns fixed flags.
type fakeModes struct {
	flags policy.ModeFlags
}

func (m *fakeModes) ModeFlags() policy.ModeFlags { return m.flags }

// fakeOverlays records intercepted presses.
type fakeOverlays struct {
	calls []string
}

func (o *fakeOverlays) Navigator(op policy.NavigatorOp, dir policy.Direction) {
	o.calls = append(o.calls, fmt.Sprintf("navigator %v %v", op, dir))
}
func (o *fakeOverlays) Swipe(op policy.SwipeOp, dir policy.Direction) {
	o.calls = append(o.calls, fmt.Sprintf("swipe %v %v", op, dir))
}
func (o *fakeOverlays) KeyboardNav(b button.Button, command string) {
	o.calls = append(o.calls, fmt.Sprintf("keyboardnav %v %s", b, command))
}
func (o *fakeOverlays) CursorNav(dir policy.Direction) {
	o.calls = append(o.calls, fmt.Sprintf("cursornav %v", dir))
}

func pipelineProfile() *mapping.Profile {
	p := mapping.NewProfile("bench")
	p.Buttons[button.A] = mapping.KeyMapping{Key: mapping.KeyA}
	p.Buttons[button.RightTrigger] = mapping.KeyMapping{Key: mapping.MouseLeft}
	p.Buttons[button.Guide] = mapping.KeyMapping{SystemCommand: mapping.SystemShowKeyboard}
	p.Gestures = []mapping.GestureMapping{
		{Kind: mapping.GestureTiltBack, Action: mapping.KeyMapping{Key: mapping.KeyF5}},
	}
	return p
}

func newTestPipeline(t *testing.T, profile *mapping.Profile, modes ModeProvider, overlays OverlayHandler) (*Pipeline, *fakeSim) {
	t.Helper()
	sim := &fakeSim{}
	d := dispatch.New(sim, dispatch.NewModifierLedger(sim), nil, nil, nil)
	p := NewPipeline(Options{
		Classifier: classify.DefaultConfig(),
		Pitch:      motion.DefaultPitchConfig(),
		Roll:       motion.DefaultRollConfig(),
		Modes:      modes,
		Overlays:   overlays,
		Logger:     NewLogger(LoggerConfig{Level: LogLevelError, Output: io.Discard}),
	}, d, profile)
	t.Cleanup(func() {
		p.Close()
		_ = d.Close()
	})
	return p, sim
}

func tapButton(p *Pipeline, b button.Button, at time.Time) {
	p.HandleButtonDown(button.PressEvent{Button: b, Time: at})
	p.HandleButtonUp(button.ReleaseEvent{
		Button:       b,
		HoldDuration: 10 * time.Millisecond,
		Time:         at.Add(10 * time.Millisecond),
	})
}

func TestPipelinePlainTap(t *testing.T) {
	p, sim := newTestPipeline(t, pipelineProfile(), nil, nil)
	p.Enable()

	tapButton(p, button.A, time.Unix(1000, 0))

	want := fmt.Sprintf("press %v mods=%d", mapping.KeyA, mapping.ModNone)
	if len(sim.calls) != 1 || sim.calls[0] != want {
		t.Fatalf("calls = %v, want [%s]", sim.calls, want)
	}
}

func TestPipelineDisabledDropsInput(t *testing.T) {
	p, sim := newTestPipeline(t, pipelineProfile(), nil, nil)

	tapButton(p, button.A, time.Unix(1000, 0))
	p.HandleMotion(button.MotionSample{PitchRate: 2.0, Time: time.Unix(1000, 0)})
	p.HandleTouchMove(button.TouchDelta{DX: 5, DY: 5})

	if len(sim.calls) != 0 {
		t.Fatalf("disabled pipeline injected input: %v", sim.calls)
	}
	if p.Enabled() {
		t.Error("pipeline enabled without Enable")
	}
}

func TestPipelineNavigatorInterception(t *testing.T) {
	modes := &fakeModes{flags: policy.ModeFlags{NavigatorVisible: true}}
	overlays := &fakeOverlays{}
	p, sim := newTestPipeline(t, pipelineProfile(), modes, overlays)
	p.Enable()

	tapButton(p, button.DPadUp, time.Unix(1000, 0))
	tapButton(p, button.A, time.Unix(1001, 0))

	if len(sim.calls) != 0 {
		t.Fatalf("intercepted presses reached the simulator: %v", sim.calls)
	}
	if len(overlays.calls) != 2 {
		t.Fatalf("overlay calls = %v", overlays.calls)
	}
	wantMove := fmt.Sprintf("navigator %v %v", policy.NavigatorMove, policy.DirUp)
	if overlays.calls[0] != wantMove {
		t.Errorf("call 0 = %q, want %q", overlays.calls[0], wantMove)
	}

	// Navigator gone: the same press maps again.
	modes.flags = policy.ModeFlags{}
	tapButton(p, button.A, time.Unix(1002, 0))
	if sim.count("press") != 1 {
		t.Errorf("mapping did not resume: %v", sim.calls)
	}
}

func TestPipelineOverlayToggleInterception(t *testing.T) {
	overlays := &fakeOverlays{}
	p, sim := newTestPipeline(t, pipelineProfile(), nil, overlays)
	p.Enable()

	tapButton(p, button.Guide, time.Unix(1000, 0))

	want := fmt.Sprintf("keyboardnav %v %s", button.Guide, mapping.SystemShowKeyboard)
	if len(overlays.calls) != 1 || overlays.calls[0] != want {
		t.Fatalf("overlay calls = %v, want [%s]", overlays.calls, want)
	}
	if len(sim.calls) != 0 {
		t.Errorf("toggle press reached the simulator: %v", sim.calls)
	}
}

func TestPipelineHoldTracking(t *testing.T) {
	p, sim := newTestPipeline(t, pipelineProfile(), nil, nil)
	p.Enable()

	p.HandleButtonDown(button.PressEvent{Button: button.RightTrigger, Time: time.Unix(1000, 0)})

	if want := fmt.Sprintf("down %v", mapping.MouseLeft); len(sim.calls) != 1 || sim.calls[0] != want {
		t.Fatalf("calls = %v, want [%s]", sim.calls, want)
	}
	snap := p.Snapshot()
	if len(snap.ActiveHolds) != 1 || snap.ActiveHolds[0] != button.RightTrigger {
		t.Fatalf("activeHolds = %v", snap.ActiveHolds)
	}

	p.HandleButtonUp(button.ReleaseEvent{Button: button.RightTrigger, Time: time.Unix(1001, 0)})
	if want := fmt.Sprintf("up %v", mapping.MouseLeft); sim.calls[len(sim.calls)-1] != want {
		t.Fatalf("calls = %v, want trailing %s", sim.calls, want)
	}
	if holds := p.Snapshot().ActiveHolds; len(holds) != 0 {
		t.Errorf("hold not cleared: %v", holds)
	}
}

func TestPipelineDisableClosesHolds(t *testing.T) {
	p, sim := newTestPipeline(t, pipelineProfile(), nil, nil)
	p.Enable()

	p.HandleButtonDown(button.PressEvent{Button: button.RightTrigger, Time: time.Unix(1000, 0)})
	p.Disable()

	if sim.count(fmt.Sprintf("up %v", mapping.MouseLeft)) != 1 {
		t.Fatalf("held button not released on disable: %v", sim.calls)
	}
	if p.Enabled() {
		t.Error("still enabled")
	}
	if holds := p.Snapshot().ActiveHolds; len(holds) != 0 {
		t.Errorf("holds survived disable: %v", holds)
	}

	// The orphaned release after re-enable is ignored.
	p.Enable()
	before := len(sim.calls)
	p.HandleButtonUp(button.ReleaseEvent{Button: button.RightTrigger, Time: time.Unix(1002, 0)})
	if len(sim.calls) != before {
		t.Errorf("orphaned release injected input: %v", sim.calls[before:])
	}
}

func TestPipelineMotionGesture(t *testing.T) {
	p, sim := newTestPipeline(t, pipelineProfile(), nil, nil)
	p.Enable()

	// A pitch flick: spike past the minimum peak, then decay.
	at := time.Unix(2000, 0)
	for _, v := range []float64{0.1, 1.0, 2.0, 2.0, 0.9, 0.1} {
		p.HandleMotion(button.MotionSample{PitchRate: v, Time: at})
		at = at.Add(10 * time.Millisecond)
	}

	want := fmt.Sprintf("press %v mods=%d", mapping.KeyF5, mapping.ModNone)
	if len(sim.calls) != 1 || sim.calls[0] != want {
		t.Fatalf("calls = %v, want [%s]", sim.calls, want)
	}
}

func TestPipelineSetProfile(t *testing.T) {
	p, sim := newTestPipeline(t, pipelineProfile(), nil, nil)
	p.Enable()

	next := mapping.NewProfile("travel")
	next.Buttons[button.A] = mapping.KeyMapping{Key: mapping.KeyB}
	p.SetProfile(next)

	if name := p.Snapshot().ProfileName; name != "travel" {
		t.Fatalf("profileName = %q", name)
	}

	tapButton(p, button.A, time.Unix(1000, 0))
	want := fmt.Sprintf("press %v mods=%d", mapping.KeyB, mapping.ModNone)
	if len(sim.calls) != 1 || sim.calls[0] != want {
		t.Fatalf("calls = %v, want [%s]", sim.calls, want)
	}
}

func TestPipelineStickDrivesPointer(t *testing.T) {
	p, sim := newTestPipeline(t, pipelineProfile(), nil, nil)
	p.Enable()

	p.HandleStickMove(button.StickSample{Axis: button.StickLeft, X: 1.0, Y: 0})
	p.analogTick(time.Unix(1000, 0))

	if sim.count("move") != 1 {
		t.Fatalf("calls = %v, want one move", sim.calls)
	}

	// Stick back to rest: no further movement.
	p.HandleStickMove(button.StickSample{Axis: button.StickLeft, X: 0, Y: 0})
	p.analogTick(time.Unix(1000, int64(8*time.Millisecond)))
	if sim.count("move") != 1 {
		t.Errorf("centered stick kept moving: %v", sim.calls)
	}
}

func TestPipelineRightStickScrolls(t *testing.T) {
	p, sim := newTestPipeline(t, pipelineProfile(), nil, nil)
	p.Enable()

	p.HandleStickMove(button.StickSample{Axis: button.StickRight, X: 0, Y: -1.0})
	p.analogTick(time.Unix(1000, 0))

	if sim.count("scroll") != 1 || sim.count("move") != 0 {
		t.Fatalf("calls = %v, want one scroll and no move", sim.calls)
	}
}

func TestPipelineTouchGestures(t *testing.T) {
	p, sim := newTestPipeline(t, pipelineProfile(), nil, nil)
	p.Enable()

	p.HandleTouchGesture(button.TouchGesture{Kind: button.TouchPan, DX: 0, DY: 3})
	if len(sim.calls) != 1 || sim.calls[0] != "scroll 0.00,3.00" {
		t.Fatalf("pan calls = %v", sim.calls)
	}

	sim.calls = nil
	p.HandleTouchGesture(button.TouchGesture{Kind: button.TouchPinch, Scale: 1.5})
	want := []string{
		fmt.Sprintf("holdmod %d", mapping.ModControl),
		"scroll 0.00,5.00",
		fmt.Sprintf("releasemod %d", mapping.ModControl),
	}
	if len(sim.calls) != len(want) {
		t.Fatalf("pinch calls = %v", sim.calls)
	}
	for i := range want {
		if sim.calls[i] != want[i] {
			t.Errorf("pinch call %d = %q, want %q", i, sim.calls[i], want[i])
		}
	}
}

func TestPipelineTouchFling(t *testing.T) {
	p, sim := newTestPipeline(t, pipelineProfile(), nil, nil)
	p.Enable()

	p.HandleTouchEnd(5.0, 0)
	p.analogTick(time.Unix(1000, 0))
	if sim.count("move") != 1 {
		t.Fatalf("fling tick missing: %v", sim.calls)
	}

	// A new touch stops the fling.
	p.HandleTouchMove(button.TouchDelta{DX: 2, DY: 0})
	moves := sim.count("move")
	p.analogTick(time.Unix(1000, int64(8*time.Millisecond)))
	if sim.count("move") != moves {
		t.Errorf("fling survived touch: %v", sim.calls)
	}
}
