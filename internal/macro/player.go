// Package macro plays profile macros against the input simulator.
// Playback runs on the dispatcher's async goroutine, never on the
// input queue, and is cancellable between steps.
package macro

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dshills/controlmap/internal/dispatch"
	"github.com/dshills/controlmap/internal/mapping"
)

// Player executes macro step lists. One macro plays at a time; a
// second Play while one is in flight returns an error rather than
// interleaving injected input.
type Player struct {
	sim     dispatch.Simulator
	playing atomic.Bool

	// sleep is replaceable in tests so delay steps do not block.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewPlayer creates a player injecting through sim.
func NewPlayer(sim dispatch.Simulator) *Player {
	return &Player{
		sim:   sim,
		sleep: sleepCtx,
	}
}

// Playing reports whether a macro is currently in flight.
func (p *Player) Playing() bool {
	return p.playing.Load()
}

// Play executes every step of the macro in order, honoring per-step
// delays. It blocks until the macro completes or ctx is cancelled.
func (p *Player) Play(ctx context.Context, m mapping.Macro) error {
	if len(m.Steps) == 0 {
		return fmt.Errorf("macro %q has no steps", m.ID)
	}
	if !p.playing.CompareAndSwap(false, true) {
		return fmt.Errorf("macro %q: already playing", m.ID)
	}
	defer p.playing.Store(false)

	for i, step := range m.Steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.playStep(step); err != nil {
			return fmt.Errorf("macro %q step %d: %w", m.ID, i, err)
		}
		if step.Delay > 0 {
			if err := p.sleep(ctx, step.Delay); err != nil {
				return err
			}
		}
	}
	return nil
}

// playStep injects one step.
func (p *Player) playStep(step mapping.MacroStep) error {
	switch {
	case step.Text != "":
		return p.sim.TypeText(step.Text)
	case step.Key != mapping.KeyNone:
		return p.sim.PressKey(step.Key, step.Modifiers)
	case step.Modifiers != mapping.ModNone:
		// Modifier-only step taps each modifier bit.
		var firstErr error
		step.Modifiers.Each(func(mod mapping.Modifier) {
			if err := p.sim.HoldModifier(mod); err != nil && firstErr == nil {
				firstErr = err
			}
		})
		step.Modifiers.Each(func(mod mapping.Modifier) {
			if err := p.sim.ReleaseModifier(mod); err != nil && firstErr == nil {
				firstErr = err
			}
		})
		return firstErr
	default:
		// Pure delay step.
		return nil
	}
}

// sleepCtx sleeps for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
