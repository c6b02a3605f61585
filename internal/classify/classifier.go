// Package classify turns raw button press/release pairs into semantic
// actions: press, long-hold, double-tap, chord, sequence or the hold
// path. Disambiguation is timer-based with cross-cancellation; a
// monotonically increasing per-button epoch counter makes a timer
// firing after its state was superseded a guaranteed no-op.
package classify

import (
	"sync"
	"time"

	"github.com/dshills/controlmap/internal/button"
	"github.com/dshills/controlmap/internal/mapping"
)

// buttonState is the per-button slot in the classifier's state arena.
// Owned exclusively by the classifier; all access is under its lock.
type buttonState struct {
	// epoch invalidates scheduled timers: a timer only acts when the
	// epoch it captured still matches.
	epoch uint64

	pressed     bool
	pressTime   time.Time
	lastRelease time.Time

	// consumed marks a press whose action already fired (long-hold or
	// chord); the eventual release emits nothing further.
	consumed bool

	// noAction marks an unmapped press; its release is ignored.
	noAction bool

	// holdActive marks an open hold path.
	holdActive  bool
	holdMapping mapping.KeyMapping

	// inDouble marks the second press of a double-tap.
	inDouble bool

	longHoldTimer Timer
	tapTimer      Timer
}

// chordState tracks one open chord window.
type chordState struct {
	active     bool
	epoch      uint64
	set        button.Set
	order      []button.Button
	pressAt    map[button.Button]time.Time
	releasedAt map[button.Button]time.Time
	timer      Timer
}

// seqCursor is the progress into one configured sequence.
type seqCursor struct {
	index    int
	lastStep time.Time
}

// Classifier converts raw press/release events into semantic actions.
// All mutation happens under one lock so events and timer callbacks
// are processed strictly serialized, which is what makes the timer
// interleavings deterministic.
type Classifier struct {
	mu sync.Mutex

	cfg     Config
	profile *mapping.Profile
	emit    func(Action)

	now   func() time.Time
	after AfterFunc

	states [button.Count]buttonState
	chord  chordState
	seqs   []seqCursor

	enabled bool
}

// New creates a classifier emitting classified actions through emit.
// The emit callback runs on the classifier's serialization context and
// must not call back into the classifier.
func New(cfg Config, profile *mapping.Profile, emit func(Action)) *Classifier {
	c := &Classifier{
		cfg:   cfg.sanitized(),
		emit:  emit,
		now:   time.Now,
		after: realAfterFunc,
	}
	c.setProfileLocked(profile)
	return c
}

// Enable starts accepting events.
func (c *Classifier) Enable() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = true
}

// Disable stops accepting events, cancels every pending timer and
// clears per-button state without firing any action.
func (c *Classifier) Disable() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = false
	c.resetLocked()
}

// Enabled reports whether the classifier accepts events.
func (c *Classifier) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

// Reset cancels pending timers and clears all transient state.
func (c *Classifier) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
}

// SetProfile atomically swaps the configuration snapshot. Transient
// classification state resets; a half-typed sequence does not carry
// across profiles.
func (c *Classifier) SetProfile(p *mapping.Profile) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
	c.setProfileLocked(p)
}

func (c *Classifier) setProfileLocked(p *mapping.Profile) {
	if p == nil {
		p = mapping.NewProfile("")
	}
	c.profile = p
	c.seqs = make([]seqCursor, len(p.Sequences))
}

// resetLocked clears transient state. Epoch bumps turn any in-flight
// timer callback into a no-op.
func (c *Classifier) resetLocked() {
	for i := range c.states {
		st := &c.states[i]
		st.epoch++
		if st.longHoldTimer != nil {
			st.longHoldTimer.Stop()
		}
		if st.tapTimer != nil {
			st.tapTimer.Stop()
		}
		epoch := st.epoch
		*st = buttonState{epoch: epoch}
	}
	if c.chord.timer != nil {
		c.chord.timer.Stop()
	}
	epoch := c.chord.epoch + 1
	c.chord = chordState{epoch: epoch}
	for i := range c.seqs {
		c.seqs[i] = seqCursor{}
	}
}

// HandlePress processes a raw button-down event.
func (c *Classifier) HandlePress(ev button.PressEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.enabled || !ev.Button.Valid() {
		return
	}
	t := c.eventTime(ev.Time)
	st := c.state(ev.Button)
	if st.pressed {
		return
	}

	if c.chord.active {
		// Any press inside the window joins the candidate set.
		c.chord.set = c.chord.set.Add(ev.Button)
		c.chord.order = append(c.chord.order, ev.Button)
		c.chord.pressAt[ev.Button] = t
		st.epoch++
		st.pressed = true
		st.pressTime = t
		// Once the candidate set fits inside no configured chord, no
		// further press can produce an exact match; resolve now instead
		// of waiting out the window.
		if _, ok := c.profile.ChordFor(c.chord.set); !ok && !c.profile.ChordPrefix(c.chord.set) {
			c.resolveChordLocked(t)
		}
		return
	}

	if c.profile.ChordMember(ev.Button) {
		c.openChordWindow(ev.Button, t)
		return
	}

	c.pressLocked(ev.Button, t, true)
}

// HandleRelease processes a raw button-up event. Releases for buttons
// with no recorded press (e.g. after a reset) are ignored.
func (c *Classifier) HandleRelease(ev button.ReleaseEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.enabled || !ev.Button.Valid() {
		return
	}
	t := c.eventTime(ev.Time)

	if c.chord.active && c.chord.set.Contains(ev.Button) {
		// The first release resolves the window early.
		c.chord.releasedAt[ev.Button] = t
		c.resolveChordLocked(t)
		return
	}

	c.releaseLocked(ev.Button, t)
}

// openChordWindow starts a chord window seeded with b.
func (c *Classifier) openChordWindow(b button.Button, t time.Time) {
	st := c.state(b)
	st.epoch++
	st.pressed = true
	st.pressTime = t

	c.chord.active = true
	c.chord.epoch++
	c.chord.set = button.NewSet(b)
	c.chord.order = append(c.chord.order[:0], b)
	c.chord.pressAt = map[button.Button]time.Time{b: t}
	c.chord.releasedAt = make(map[button.Button]time.Time)

	epoch := c.chord.epoch
	c.chord.timer = c.after(c.cfg.ChordWindow, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if !c.enabled || !c.chord.active || c.chord.epoch != epoch {
			return
		}
		c.resolveChordLocked(c.now())
	})
}

// resolveChordLocked closes the chord window: an exact match fires the
// chord and suppresses every member's individual action; otherwise
// each candidate falls through to per-button classification in press
// order.
func (c *Classifier) resolveChordLocked(t time.Time) {
	if c.chord.timer != nil {
		c.chord.timer.Stop()
		c.chord.timer = nil
	}
	c.chord.active = false
	c.chord.epoch++

	set := c.chord.set
	order := c.chord.order
	pressAt := c.chord.pressAt
	releasedAt := c.chord.releasedAt

	if cm, ok := c.profile.ChordFor(set); ok {
		for _, b := range order {
			st := c.state(b)
			st.epoch++
			if rel, released := releasedAt[b]; released {
				st.pressed = false
				st.lastRelease = rel
			} else {
				// Still held: the eventual release emits nothing.
				st.consumed = true
			}
		}
		c.emit(Action{Kind: KindChord, Chord: cm, Mapping: cm.Action, Time: t})
		return
	}

	for _, b := range order {
		st := c.state(b)
		st.pressed = false
		// Chord members never enter the hold path; their identity was
		// only known at window expiry.
		c.pressLocked(b, pressAt[b], false)
		if rel, released := releasedAt[b]; released {
			c.releaseLocked(b, rel)
		}
	}
}

// pressLocked runs per-button press classification for a non-chord
// press recorded at time t. allowHold is false for chord fall-through
// presses, which are barred from the hold path.
func (c *Classifier) pressLocked(b button.Button, t time.Time, allowHold bool) {
	st := c.state(b)
	if st.pressed {
		return
	}
	st.epoch++
	epoch := st.epoch
	st.pressed = true
	st.pressTime = t
	st.consumed = false
	st.noAction = false
	st.holdActive = false
	st.inDouble = false

	m, hasMapping := c.profile.MappingFor(b)

	// A second press while the single-tap fallback is pending
	// supersedes it: the gesture becomes a double-tap.
	if st.tapTimer != nil && hasMapping && m.HasDoubleTap() &&
		t.Sub(st.lastRelease) <= c.cfg.DoubleTapThreshold {
		st.tapTimer.Stop()
		st.tapTimer = nil
		st.inDouble = true
	}

	if !hasMapping {
		if !c.sequenceObserves(b) {
			st.noAction = true
			c.emit(Action{Kind: KindUnmapped, Button: b, Time: t})
		}
		return
	}

	if m.HasLongHold() {
		delay := c.cfg.LongHoldThreshold - c.now().Sub(t)
		if delay < 0 {
			delay = 0
		}
		longHold := *m.LongHold
		st.longHoldTimer = c.after(delay, func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			st := c.state(b)
			if !c.enabled || st.epoch != epoch || !st.pressed || st.consumed {
				return
			}
			st.consumed = true
			st.inDouble = false
			st.longHoldTimer = nil
			c.emit(Action{Kind: KindLongHold, Button: b, Mapping: longHold, Time: c.now()})
		})
	}

	// The hold path only opens when no timer-based alternate could
	// still reinterpret this press.
	if allowHold && !st.inDouble && !m.HasLongHold() && !m.HasDoubleTap() && requiresHold(m) {
		st.holdActive = true
		st.holdMapping = m
		c.emit(Action{Kind: KindHoldStart, Button: b, Mapping: m, Time: t})
	}
}

// releaseLocked runs per-button release classification.
func (c *Classifier) releaseLocked(b button.Button, t time.Time) {
	st := c.state(b)
	if !st.pressed {
		return
	}
	st.pressed = false
	st.epoch++
	epoch := st.epoch
	if st.longHoldTimer != nil {
		st.longHoldTimer.Stop()
		st.longHoldTimer = nil
	}
	defer func() { st.lastRelease = t }()

	switch {
	case st.noAction:
		st.noAction = false
		return

	case st.holdActive:
		st.holdActive = false
		c.emit(Action{Kind: KindHoldEnd, Button: b, Mapping: st.holdMapping, Time: t})
		return

	case st.consumed:
		// Long-hold or chord already fired for this press.
		st.consumed = false
		return
	}

	m, hasMapping := c.profile.MappingFor(b)
	if !hasMapping {
		c.emitPressLocked(b, mapping.KeyMapping{}, t)
		return
	}

	if st.inDouble {
		st.inDouble = false
		c.emit(Action{Kind: KindDoubleTap, Button: b, Mapping: *m.DoubleTap, Time: t})
		return
	}

	if m.HasDoubleTap() {
		// Hold the single tap back long enough for a second press to
		// supersede it.
		st.tapTimer = c.after(c.cfg.DoubleTapThreshold, func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			st := c.state(b)
			if !c.enabled || st.epoch != epoch {
				return
			}
			st.tapTimer = nil
			c.emitPressLocked(b, m, c.now())
		})
		return
	}

	c.emitPressLocked(b, m, t)
}

// emitPressLocked emits a classified press, first offering it to the
// sequence cursors: a press that completes a sequence emits the
// sequence action instead of its own.
func (c *Classifier) emitPressLocked(b button.Button, m mapping.KeyMapping, t time.Time) {
	if sm, ok := c.advanceSequencesLocked(b, t); ok {
		c.emit(Action{Kind: KindSequence, Sequence: sm, Mapping: sm.Action, Time: t})
		return
	}
	c.emit(Action{Kind: KindPress, Button: b, Mapping: m, Time: t})
}

// advanceSequencesLocked advances every sequence cursor with a
// classified press. A press that is not the expected next step resets
// the cursor and is re-evaluated as a fresh first step.
func (c *Classifier) advanceSequencesLocked(b button.Button, t time.Time) (mapping.SequenceMapping, bool) {
	completed := -1
	for i := range c.profile.Sequences {
		sm := &c.profile.Sequences[i]
		if len(sm.Steps) == 0 {
			continue
		}
		cur := &c.seqs[i]
		timeout := sm.StepTimeout
		if timeout <= 0 {
			timeout = c.cfg.SequenceStepTimeout
		}
		if cur.index > 0 && t.Sub(cur.lastStep) > timeout {
			cur.index = 0
		}
		if sm.Steps[cur.index] == b {
			cur.index++
			cur.lastStep = t
			if cur.index == len(sm.Steps) && completed == -1 {
				completed = i
			}
		} else {
			cur.index = 0
			if sm.Steps[0] == b {
				cur.index = 1
				cur.lastStep = t
			}
		}
	}
	if completed >= 0 {
		for i := range c.seqs {
			c.seqs[i] = seqCursor{}
		}
		return c.profile.Sequences[completed], true
	}
	return mapping.SequenceMapping{}, false
}

// sequenceObserves reports whether b appears in any configured
// sequence, which keeps an otherwise-unmapped button from being
// reported as unmapped.
func (c *Classifier) sequenceObserves(b button.Button) bool {
	for i := range c.profile.Sequences {
		for _, step := range c.profile.Sequences[i].Steps {
			if step == b {
				return true
			}
		}
	}
	return false
}

// requiresHold reports whether the mapping must ride the hold path:
// mouse buttons (click-and-drag) and held modifiers.
func requiresHold(m mapping.KeyMapping) bool {
	return m.Key.IsMouse() || (m.HoldModifiers && m.Modifiers != mapping.ModNone)
}

// state returns the arena slot for b.
func (c *Classifier) state(b button.Button) *buttonState {
	return &c.states[b]
}

// eventTime prefers the hardware timestamp, falling back to the
// classifier clock.
func (c *Classifier) eventTime(t time.Time) time.Time {
	if t.IsZero() {
		return c.now()
	}
	return t
}
