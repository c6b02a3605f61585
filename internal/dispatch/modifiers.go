package dispatch

import (
	"sync"

	"github.com/dshills/controlmap/internal/mapping"
)

// ModifierLedger reference-counts held modifiers so that two buttons
// both holding the same modifier keep it down until the last holder
// releases. Over-releasing is a safe no-op. The ledger is the only
// component that forwards modifier holds to the simulator, which keeps
// the OS-side state consistent with the counts.
//
// Safe for concurrent use; overlay layers read held state while the
// input queue mutates it.
type ModifierLedger struct {
	mu     sync.Mutex
	sim    Simulator
	counts map[mapping.Modifier]int
}

// NewModifierLedger returns an empty ledger writing through sim.
func NewModifierLedger(sim Simulator) *ModifierLedger {
	return &ModifierLedger{
		sim:    sim,
		counts: make(map[mapping.Modifier]int),
	}
}

// Hold increments the count for each single modifier bit in mods,
// pressing a modifier on its first holder.
func (l *ModifierLedger) Hold(mods mapping.Modifier) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var firstErr error
	mods.Each(func(mod mapping.Modifier) {
		l.counts[mod]++
		if l.counts[mod] == 1 {
			if err := l.sim.HoldModifier(mod); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	})
	return firstErr
}

// Release decrements the count for each single modifier bit in mods,
// releasing a modifier when its last holder lets go. Releasing a
// modifier with no holders is a no-op.
func (l *ModifierLedger) Release(mods mapping.Modifier) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var firstErr error
	mods.Each(func(mod mapping.Modifier) {
		if l.counts[mod] == 0 {
			return
		}
		l.counts[mod]--
		if l.counts[mod] == 0 {
			if err := l.sim.ReleaseModifier(mod); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	})
	return firstErr
}

// ReleaseAll clears every count and releases all modifiers regardless
// of holders. Used on engine disable and reset.
func (l *ModifierLedger) ReleaseAll() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	clear(l.counts)
	return l.sim.ReleaseAllModifiers()
}

// Held returns the union of currently held modifiers.
func (l *ModifierLedger) Held() mapping.Modifier {
	l.mu.Lock()
	defer l.mu.Unlock()

	var held mapping.Modifier
	for mod, n := range l.counts {
		if n > 0 {
			held |= mod
		}
	}
	return held
}

// HolderCount returns the number of concurrent holders of a single
// modifier bit.
func (l *ModifierLedger) HolderCount(mod mapping.Modifier) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.counts[mod]
}
