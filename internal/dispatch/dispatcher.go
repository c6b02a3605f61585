package dispatch

import (
	"context"
	"errors"
	"sync"

	"github.com/dshills/controlmap/internal/mapping"
)

// ErrClosed is returned when dispatching after Close.
var ErrClosed = errors.New("dispatcher is closed")

// MacroRunner plays a macro to completion. Implementations block; the
// dispatcher supplies the goroutine.
type MacroRunner interface {
	Play(ctx context.Context, m mapping.Macro) error
}

// ScriptRunner executes a script to completion. Implementations block;
// the dispatcher supplies the goroutine.
type ScriptRunner interface {
	Run(ctx context.Context, s mapping.Script) error
}

// SystemRunner executes a built-in system command (overlay toggles,
// app switching and the like). Owned by the composition layer.
type SystemRunner interface {
	Execute(cmd string) error
}

// ResultKind says which path Execute took.
type ResultKind uint8

const (
	// ResultNoop means no input action was performed.
	ResultNoop ResultKind = iota
	// ResultSystem means a system command ran.
	ResultSystem
	// ResultMacro means a macro was started.
	ResultMacro
	// ResultScript means a script was started.
	ResultScript
	// ResultKey means a key or mouse tap was injected.
	ResultKey
	// ResultModifierTap means a modifier-only transient tap was
	// injected.
	ResultModifierTap
)

// Result describes what Execute did. Label is the display hint used
// when a referenced macro or script was missing; callers log it.
type Result struct {
	Kind  ResultKind
	Label string
}

// Dispatcher executes resolved mappings. Exactly one path runs per
// mapping, in strict priority: system command, then macro, then
// script, then direct key/modifier press. Macro and script execution
// is handed off to its own goroutine so the input queue never blocks.
type Dispatcher struct {
	sim     Simulator
	mods    *ModifierLedger
	macros  MacroRunner
	scripts ScriptRunner
	system  SystemRunner

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed bool
}

// New creates a dispatcher. macros, scripts and system may be nil;
// mappings referencing the missing facility fall back to their label.
func New(sim Simulator, mods *ModifierLedger, macros MacroRunner, scripts ScriptRunner, system SystemRunner) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		sim:     sim,
		mods:    mods,
		macros:  macros,
		scripts: scripts,
		system:  system,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Modifiers returns the shared modifier ledger.
func (d *Dispatcher) Modifiers() *ModifierLedger {
	return d.mods
}

// Simulator returns the underlying input simulator for callers that
// inject pointer and scroll deltas directly.
func (d *Dispatcher) Simulator() Simulator {
	return d.sim
}

// Execute performs the mapping's action with tap semantics. The
// profile supplies macro and script lookup; a missing reference is
// non-fatal and produces a labeled no-op result.
func (d *Dispatcher) Execute(m mapping.KeyMapping, p *mapping.Profile) (Result, error) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return Result{}, ErrClosed
	}
	d.mu.Unlock()

	switch {
	case m.SystemCommand != "":
		if d.system == nil {
			return Result{Kind: ResultNoop, Label: m.DisplayLabel()}, nil
		}
		if err := d.system.Execute(m.SystemCommand); err != nil {
			return Result{Kind: ResultSystem, Label: m.DisplayLabel()}, err
		}
		return Result{Kind: ResultSystem, Label: m.DisplayLabel()}, nil

	case m.Macro != "":
		macro, ok := p.MacroFor(m.Macro)
		if !ok || d.macros == nil {
			return Result{Kind: ResultNoop, Label: fallbackLabel(m)}, nil
		}
		d.async(func(ctx context.Context) { _ = d.macros.Play(ctx, macro) })
		return Result{Kind: ResultMacro, Label: m.DisplayLabel()}, nil

	case m.Script != "":
		script, ok := p.ScriptFor(m.Script)
		if !ok || d.scripts == nil {
			return Result{Kind: ResultNoop, Label: fallbackLabel(m)}, nil
		}
		d.async(func(ctx context.Context) { _ = d.scripts.Run(ctx, script) })
		return Result{Kind: ResultScript, Label: m.DisplayLabel()}, nil

	case m.Key != mapping.KeyNone:
		if m.Key.IsMouse() {
			// Tap semantics on a mouse code is a click.
			if err := d.sim.KeyDown(m.Key); err != nil {
				return Result{Kind: ResultKey}, err
			}
			return Result{Kind: ResultKey, Label: m.DisplayLabel()}, d.sim.KeyUp(m.Key)
		}
		return Result{Kind: ResultKey, Label: m.DisplayLabel()}, d.sim.PressKey(m.Key, m.Modifiers)

	case m.Modifiers != mapping.ModNone:
		// Modifier-only mapping: a transient hold-then-release tap.
		if err := d.mods.Hold(m.Modifiers); err != nil {
			return Result{Kind: ResultModifierTap}, err
		}
		return Result{Kind: ResultModifierTap, Label: m.DisplayLabel()}, d.mods.Release(m.Modifiers)

	default:
		return Result{Kind: ResultNoop, Label: "unmapped"}, nil
	}
}

// StartHold begins the hold path for a mapping: modifiers join the
// ledger, keys and mouse buttons go down and stay down until StopHold.
// Mappings whose action is a macro, script or system command have no
// hold semantics and are executed on StopHold instead (by the caller
// treating them as taps).
func (d *Dispatcher) StartHold(m mapping.KeyMapping) error {
	if m.HoldModifiers && m.Modifiers != mapping.ModNone {
		if err := d.mods.Hold(m.Modifiers); err != nil {
			return err
		}
	}
	if m.Key != mapping.KeyNone {
		return d.sim.KeyDown(m.Key)
	}
	return nil
}

// StopHold ends the hold path begun by StartHold. Over-releasing
// modifiers is a no-op via the ledger.
func (d *Dispatcher) StopHold(m mapping.KeyMapping) error {
	var firstErr error
	if m.Key != mapping.KeyNone {
		firstErr = d.sim.KeyUp(m.Key)
	}
	if m.HoldModifiers && m.Modifiers != mapping.ModNone {
		if err := d.mods.Release(m.Modifiers); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Holdable reports whether a mapping has hold semantics: mouse buttons
// always hold (click-and-drag), as do hold-modifier mappings and plain
// key mappings. Macro, script and system mappings are tap-only.
func Holdable(m mapping.KeyMapping) bool {
	if m.SystemCommand != "" || m.Macro != "" || m.Script != "" {
		return false
	}
	if m.Key.IsMouse() {
		return true
	}
	return m.Key != mapping.KeyNone || (m.HoldModifiers && m.Modifiers != mapping.ModNone)
}

// async runs fn on its own goroutine tied to the dispatcher lifetime.
func (d *Dispatcher) async(fn func(context.Context)) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		fn(d.ctx)
	}()
}

// Close cancels in-flight macros and scripts, waits for them to wind
// down and releases every held modifier.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.mu.Unlock()

	d.cancel()
	d.wg.Wait()
	return d.mods.ReleaseAll()
}

// fallbackLabel is the label reported when a referenced macro or
// script is absent from the profile.
func fallbackLabel(m mapping.KeyMapping) string {
	if m.Label != "" {
		return m.Label
	}
	return "unavailable"
}
