package dispatch

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dshills/controlmap/internal/mapping"
)

// fakeSim records every simulator call for assertions.
type fakeSim struct {
	mu    sync.Mutex
	calls []string
}

func (s *fakeSim) add(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, fmt.Sprintf(format, args...))
}

func (s *fakeSim) recorded() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *fakeSim) PressKey(key mapping.KeyCode, mods mapping.Modifier) error {
	s.add("press %s mods=%d", key, mods)
	return nil
}
func (s *fakeSim) KeyDown(key mapping.KeyCode) error { s.add("down %s", key); return nil }
func (s *fakeSim) KeyUp(key mapping.KeyCode) error   { s.add("up %s", key); return nil }
func (s *fakeSim) HoldModifier(mod mapping.Modifier) error {
	s.add("holdmod %d", mod)
	return nil
}
func (s *fakeSim) ReleaseModifier(mod mapping.Modifier) error {
	s.add("releasemod %d", mod)
	return nil
}
func (s *fakeSim) ReleaseAllModifiers() error    { s.add("releaseall"); return nil }
func (s *fakeSim) MoveMouse(dx, dy float64) error { s.add("move"); return nil }
func (s *fakeSim) Scroll(dx, dy float64) error    { s.add("scroll"); return nil }
func (s *fakeSim) TypeText(text string) error     { s.add("type %s", text); return nil }

// recordingRunner records macro/script starts and signals completion.
type recordingRunner struct {
	mu    sync.Mutex
	ids   []string
	fired chan struct{}
}

func newRecordingRunner() *recordingRunner {
	return &recordingRunner{fired: make(chan struct{}, 16)}
}

func (r *recordingRunner) record(id string) {
	r.mu.Lock()
	r.ids = append(r.ids, id)
	r.mu.Unlock()
	r.fired <- struct{}{}
}

func (r *recordingRunner) started() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ids...)
}

func (r *recordingRunner) wait(t *testing.T) {
	t.Helper()
	select {
	case <-r.fired:
	case <-time.After(time.Second):
		t.Fatal("runner never started")
	}
}

func (r *recordingRunner) Play(ctx context.Context, m mapping.Macro) error {
	r.record(m.ID)
	return nil
}

func (r *recordingRunner) Run(ctx context.Context, s mapping.Script) error {
	r.record(s.ID)
	return nil
}

type recordingSystem struct {
	mu   sync.Mutex
	cmds []string
}

func (r *recordingSystem) Execute(cmd string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cmds = append(r.cmds, cmd)
	return nil
}

func dispatchProfile() *mapping.Profile {
	p := mapping.NewProfile("dispatch")
	p.Macros["m1"] = mapping.Macro{ID: "m1", Steps: []mapping.MacroStep{{Key: mapping.KeyA}}}
	p.Scripts["s1"] = mapping.Script{ID: "s1", Source: "pad.tap('a')"}
	return p
}

func TestExecutePriorityOrder(t *testing.T) {
	// A mapping carrying several action types runs exactly one, in
	// strict priority: system, macro, script, key.
	tests := []struct {
		name string
		m    mapping.KeyMapping
		kind ResultKind
	}{
		{
			name: "system beats macro",
			m:    mapping.KeyMapping{SystemCommand: "keyboard.show", Macro: "m1", Key: mapping.KeyA},
			kind: ResultSystem,
		},
		{
			name: "macro beats script",
			m:    mapping.KeyMapping{Macro: "m1", Script: "s1", Key: mapping.KeyA},
			kind: ResultMacro,
		},
		{
			name: "script beats key",
			m:    mapping.KeyMapping{Script: "s1", Key: mapping.KeyA},
			kind: ResultScript,
		},
		{
			name: "plain key",
			m:    mapping.KeyMapping{Key: mapping.KeyA},
			kind: ResultKey,
		},
		{
			name: "modifier tap",
			m:    mapping.KeyMapping{Modifiers: mapping.ModShift},
			kind: ResultModifierTap,
		},
		{
			name: "empty",
			m:    mapping.KeyMapping{},
			kind: ResultNoop,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := &fakeSim{}
			runner := newRecordingRunner()
			system := &recordingSystem{}
			d := New(sim, NewModifierLedger(sim), runner, runner, system)
			defer d.Close()

			res, err := d.Execute(tt.m, dispatchProfile())
			if err != nil {
				t.Fatalf("Execute: %v", err)
			}
			if res.Kind != tt.kind {
				t.Fatalf("kind = %v, want %v", res.Kind, tt.kind)
			}
		})
	}
}

func TestExecuteMissingMacroFallsBack(t *testing.T) {
	sim := &fakeSim{}
	runner := newRecordingRunner()
	d := New(sim, NewModifierLedger(sim), runner, runner, nil)
	defer d.Close()

	m := mapping.KeyMapping{Macro: "absent", Label: "Build Project"}
	res, err := d.Execute(m, dispatchProfile())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Kind != ResultNoop {
		t.Fatalf("kind = %v, want noop", res.Kind)
	}
	if res.Label != "Build Project" {
		t.Fatalf("label = %q, want the display label", res.Label)
	}
	if calls := sim.recorded(); len(calls) != 0 {
		t.Fatalf("missing macro still touched the simulator: %v", calls)
	}
}

func TestExecuteMacroRunsAsync(t *testing.T) {
	sim := &fakeSim{}
	runner := newRecordingRunner()
	d := New(sim, NewModifierLedger(sim), runner, runner, nil)
	defer d.Close()

	res, err := d.Execute(mapping.KeyMapping{Macro: "m1"}, dispatchProfile())
	if err != nil || res.Kind != ResultMacro {
		t.Fatalf("Execute = (%v, %v)", res, err)
	}
	runner.wait(t)
	if ids := runner.started(); len(ids) != 1 || ids[0] != "m1" {
		t.Fatalf("started = %v", ids)
	}
}

func TestExecuteMouseKeyClicks(t *testing.T) {
	sim := &fakeSim{}
	d := New(sim, NewModifierLedger(sim), nil, nil, nil)
	defer d.Close()

	res, err := d.Execute(mapping.KeyMapping{Key: mapping.MouseLeft}, dispatchProfile())
	if err != nil || res.Kind != ResultKey {
		t.Fatalf("Execute = (%v, %v)", res, err)
	}
	calls := sim.recorded()
	if len(calls) != 2 || calls[0] != "down "+mapping.MouseLeft.String() || calls[1] != "up "+mapping.MouseLeft.String() {
		t.Fatalf("mouse tap calls = %v", calls)
	}
}

func TestHoldPathKeepsKeyDown(t *testing.T) {
	sim := &fakeSim{}
	d := New(sim, NewModifierLedger(sim), nil, nil, nil)
	defer d.Close()

	m := mapping.KeyMapping{Key: mapping.MouseLeft}
	if err := d.StartHold(m); err != nil {
		t.Fatalf("StartHold: %v", err)
	}
	if calls := sim.recorded(); len(calls) != 1 || calls[0] != "down "+mapping.MouseLeft.String() {
		t.Fatalf("after StartHold: %v", calls)
	}
	if err := d.StopHold(m); err != nil {
		t.Fatalf("StopHold: %v", err)
	}
	if calls := sim.recorded(); len(calls) != 2 || calls[1] != "up "+mapping.MouseLeft.String() {
		t.Fatalf("after StopHold: %v", calls)
	}
}

func TestHoldModifiersJoinLedger(t *testing.T) {
	sim := &fakeSim{}
	mods := NewModifierLedger(sim)
	d := New(sim, mods, nil, nil, nil)
	defer d.Close()

	m := mapping.KeyMapping{Modifiers: mapping.ModShift, HoldModifiers: true}
	if err := d.StartHold(m); err != nil {
		t.Fatalf("StartHold: %v", err)
	}
	if mods.Held() != mapping.ModShift {
		t.Fatalf("held = %v, want shift", mods.Held())
	}
	if err := d.StopHold(m); err != nil {
		t.Fatalf("StopHold: %v", err)
	}
	if mods.Held() != mapping.ModNone {
		t.Fatalf("held after stop = %v", mods.Held())
	}
}

func TestHoldable(t *testing.T) {
	tests := []struct {
		name string
		m    mapping.KeyMapping
		want bool
	}{
		{"mouse", mapping.KeyMapping{Key: mapping.MouseLeft}, true},
		{"plain key", mapping.KeyMapping{Key: mapping.KeyA}, true},
		{"hold modifiers", mapping.KeyMapping{Modifiers: mapping.ModControl, HoldModifiers: true}, true},
		{"tap modifiers", mapping.KeyMapping{Modifiers: mapping.ModControl}, false},
		{"macro", mapping.KeyMapping{Macro: "m1"}, false},
		{"script", mapping.KeyMapping{Script: "s1"}, false},
		{"system", mapping.KeyMapping{SystemCommand: "keyboard.show"}, false},
		{"empty", mapping.KeyMapping{}, false},
	}
	for _, tt := range tests {
		if got := Holdable(tt.m); got != tt.want {
			t.Errorf("%s: Holdable = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestCloseReleasesEverything(t *testing.T) {
	sim := &fakeSim{}
	mods := NewModifierLedger(sim)
	d := New(sim, mods, nil, nil, nil)

	_ = d.StartHold(mapping.KeyMapping{Modifiers: mapping.ModCommand, HoldModifiers: true})
	if err := d.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if mods.Held() != mapping.ModNone {
		t.Fatalf("held after close = %v", mods.Held())
	}

	if _, err := d.Execute(mapping.KeyMapping{Key: mapping.KeyA}, dispatchProfile()); err != ErrClosed {
		t.Fatalf("Execute after close = %v, want ErrClosed", err)
	}
	// A second close is a safe no-op.
	if err := d.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
