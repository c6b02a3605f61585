// Package motion turns raw gyroscope rate samples into discrete
// motion gesture events. Two independent axis detectors (pitch and
// roll) each run a small velocity-phase state machine with cooldown
// suppression so controller wobble after a gesture cannot re-trigger.
package motion

import (
	"math"
	"time"

	"github.com/dshills/controlmap/internal/button"
	"github.com/dshills/controlmap/internal/mapping"
)

// AxisConfig tunes one axis detector. All velocities are in radians
// per second.
type AxisConfig struct {
	// ActivationThreshold is the speed that starts tracking.
	ActivationThreshold float64

	// MinPeakVelocity is the peak the gesture must reach to be
	// eligible to fire.
	MinPeakVelocity float64

	// CompletionRatio completes the gesture once velocity falls to
	// peak multiplied by this ratio.
	CompletionRatio float64

	// MaxDuration aborts the gesture if it has not completed in time.
	MaxDuration time.Duration

	// Cooldown suppresses a second fire in the same direction.
	Cooldown time.Duration

	// OppositeCooldown suppresses a fire in the opposite direction.
	// Longer than Cooldown because the rebound after a gesture swings
	// the opposite way.
	OppositeCooldown time.Duration

	// SettleThreshold is the speed below which the axis counts as at
	// rest; the axis must settle before tracking may begin again.
	SettleThreshold float64
}

// DefaultPitchConfig returns the tuned pitch axis defaults.
func DefaultPitchConfig() AxisConfig {
	return AxisConfig{
		ActivationThreshold: 0.8,
		MinPeakVelocity:     1.5,
		CompletionRatio:     0.5,
		MaxDuration:         500 * time.Millisecond,
		Cooldown:            300 * time.Millisecond,
		OppositeCooldown:    600 * time.Millisecond,
		SettleThreshold:     0.2,
	}
}

// DefaultRollConfig returns the tuned roll axis defaults. Roll needs a
// slightly higher activation threshold because steering wobble is
// larger than pitch wobble in normal handling.
func DefaultRollConfig() AxisConfig {
	cfg := DefaultPitchConfig()
	cfg.ActivationThreshold = 1.0
	return cfg
}

// Result is one completed gesture.
type Result struct {
	// Kind is the gesture direction.
	Kind mapping.GestureKind

	// Peak is the peak angular velocity the gesture reached.
	Peak float64

	// Duration is activation-to-completion elapsed time.
	Duration time.Duration
}

// phase is the axis state machine phase.
type phase uint8

const (
	phaseIdle phase = iota
	phaseTracking
	phasePeaked
)

// axisDetector is the per-axis state machine. positiveKind and
// negativeKind name the gestures for each direction sign.
type axisDetector struct {
	cfg          AxisConfig
	positiveKind mapping.GestureKind
	negativeKind mapping.GestureKind

	phase        phase
	direction    int // +1 or -1 while tracking
	peak         float64
	start        time.Time
	settled      bool
	lastFiredDir int
	sameDirUntil time.Time
	oppDirUntil  time.Time
}

func newAxisDetector(cfg AxisConfig, positive, negative mapping.GestureKind) axisDetector {
	return axisDetector{
		cfg:          cfg,
		positiveKind: positive,
		negativeKind: negative,
		settled:      true,
	}
}

// update advances the state machine with one velocity sample and
// returns a result if the gesture completed on this sample.
func (a *axisDetector) update(v float64, now time.Time) (Result, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Result{}, false
	}
	abs := math.Abs(v)

	if abs <= a.cfg.SettleThreshold {
		a.settled = true
	}

	switch a.phase {
	case phaseIdle:
		if !a.settled || abs <= a.cfg.ActivationThreshold {
			return Result{}, false
		}
		dir := 1
		if v < 0 {
			dir = -1
		}
		if a.inCooldown(dir, now) {
			return Result{}, false
		}
		a.phase = phaseTracking
		a.direction = dir
		a.peak = abs
		a.start = now
		return Result{}, false

	case phaseTracking, phasePeaked:
		if now.Sub(a.start) > a.cfg.MaxDuration {
			a.abort()
			return Result{}, false
		}
		// Velocity along the recorded direction; reversal reads as a
		// drop toward completion.
		along := v * float64(a.direction)
		if along > a.peak {
			a.peak = along
		}
		if a.phase == phaseTracking && a.peak >= a.cfg.MinPeakVelocity {
			a.phase = phasePeaked
		}
		if a.phase == phasePeaked && along <= a.peak*a.cfg.CompletionRatio {
			return a.fire(now), true
		}
		return Result{}, false
	}
	return Result{}, false
}

// inCooldown reports whether firing in direction dir is suppressed.
func (a *axisDetector) inCooldown(dir int, now time.Time) bool {
	if a.lastFiredDir == 0 {
		return false
	}
	if dir == a.lastFiredDir {
		return now.Before(a.sameDirUntil)
	}
	return now.Before(a.oppDirUntil)
}

// fire completes the gesture, arms both cooldown windows and requires
// a settle before the next tracking phase.
func (a *axisDetector) fire(now time.Time) Result {
	kind := a.positiveKind
	if a.direction < 0 {
		kind = a.negativeKind
	}
	res := Result{
		Kind:     kind,
		Peak:     a.peak,
		Duration: now.Sub(a.start),
	}
	a.lastFiredDir = a.direction
	a.sameDirUntil = now.Add(a.cfg.Cooldown)
	a.oppDirUntil = now.Add(a.cfg.OppositeCooldown)
	a.abort()
	return res
}

// abort returns to idle. The settle requirement stays so oscillation
// after an aborted or completed gesture cannot restart tracking.
func (a *axisDetector) abort() {
	a.phase = phaseIdle
	a.direction = 0
	a.peak = 0
	a.settled = false
}

// reset forces idle and clears cooldowns.
func (a *axisDetector) reset() {
	a.phase = phaseIdle
	a.direction = 0
	a.peak = 0
	a.settled = true
	a.lastFiredDir = 0
	a.sameDirUntil = time.Time{}
	a.oppDirUntil = time.Time{}
}

// Detector is the two-axis motion gesture detector. It is a plain
// state object with no internal locking; the caller serializes access.
type Detector struct {
	pitch axisDetector
	roll  axisDetector
}

// NewDetector builds a detector with the given axis configurations.
func NewDetector(pitch, roll AxisConfig) *Detector {
	return &Detector{
		pitch: newAxisDetector(pitch, mapping.GestureTiltBack, mapping.GestureTiltForward),
		roll:  newAxisDetector(roll, mapping.GestureSteerLeft, mapping.GestureSteerRight),
	}
}

// NewDefaultDetector builds a detector with the tuned defaults.
func NewDefaultDetector() *Detector {
	return NewDetector(DefaultPitchConfig(), DefaultRollConfig())
}

// Process feeds one sample and returns at most one completion, pitch
// before roll. When pitch completes, the roll axis skips the sample:
// a roll completion coinciding with a pitch one is deferred to the
// next sample instead of fired and dropped with its cooldowns armed.
func (d *Detector) Process(s button.MotionSample) (Result, bool) {
	if res, ok := d.pitch.update(s.PitchRate, s.Time); ok {
		return res, true
	}
	if res, ok := d.roll.update(s.RollRate, s.Time); ok {
		return res, true
	}
	return Result{}, false
}

// ProcessAll feeds one sample to both axes and returns every
// completion, pitch first.
func (d *Detector) ProcessAll(s button.MotionSample) []Result {
	var out []Result
	if res, ok := d.pitch.update(s.PitchRate, s.Time); ok {
		out = append(out, res)
	}
	if res, ok := d.roll.update(s.RollRate, s.Time); ok {
		out = append(out, res)
	}
	return out
}

// Reset forces both axes to idle and clears all cooldowns.
func (d *Detector) Reset() {
	d.pitch.reset()
	d.roll.reset()
}
