package classify

import "time"

// Config carries the classifier timing constants. The defaults were
// tuned empirically; profiles may override the sequence step timeout
// per sequence.
type Config struct {
	// ChordWindow is how long the first press of a chord candidate
	// waits for the remaining members.
	ChordWindow time.Duration

	// LongHoldThreshold is the hold duration that turns a press into
	// a long-hold.
	LongHoldThreshold time.Duration

	// DoubleTapThreshold is the maximum gap between two releases that
	// still counts as a double-tap.
	DoubleTapThreshold time.Duration

	// SequenceStepTimeout is the default allowance between sequence
	// steps, used when a SequenceMapping does not set its own.
	SequenceStepTimeout time.Duration
}

// DefaultConfig returns the tuned defaults.
func DefaultConfig() Config {
	return Config{
		ChordWindow:         50 * time.Millisecond,
		LongHoldThreshold:   500 * time.Millisecond,
		DoubleTapThreshold:  300 * time.Millisecond,
		SequenceStepTimeout: 1000 * time.Millisecond,
	}
}

// sanitized fills zero fields with defaults so a partially populated
// config cannot produce degenerate timers.
func (c Config) sanitized() Config {
	def := DefaultConfig()
	if c.ChordWindow <= 0 {
		c.ChordWindow = def.ChordWindow
	}
	if c.LongHoldThreshold <= 0 {
		c.LongHoldThreshold = def.LongHoldThreshold
	}
	if c.DoubleTapThreshold <= 0 {
		c.DoubleTapThreshold = def.DoubleTapThreshold
	}
	if c.SequenceStepTimeout <= 0 {
		c.SequenceStepTimeout = def.SequenceStepTimeout
	}
	return c
}

// Timer is a cancellable pending callback. Satisfied by *time.Timer
// via timerAdapter; tests substitute manual timers.
type Timer interface {
	// Stop cancels the timer; it reports false when the callback
	// already fired or was stopped.
	Stop() bool
}

// AfterFunc schedules fn after d and returns its cancellation handle.
type AfterFunc func(d time.Duration, fn func()) Timer

// realTimer adapts *time.Timer to the Timer interface.
type realTimer struct{ t *time.Timer }

func (r realTimer) Stop() bool { return r.t.Stop() }

// realAfterFunc is the production AfterFunc.
func realAfterFunc(d time.Duration, fn func()) Timer {
	return realTimer{t: time.AfterFunc(d, fn)}
}
