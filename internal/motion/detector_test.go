package motion

import (
	"testing"
	"time"

	"github.com/dshills/controlmap/internal/button"
	"github.com/dshills/controlmap/internal/mapping"
)

// feed runs a velocity trace through the detector at a fixed sample
// interval, collecting every completion.
func feed(d *Detector, start time.Time, step time.Duration, pitch []float64) ([]Result, time.Time) {
	var out []Result
	t := start
	for _, v := range pitch {
		out = append(out, d.ProcessAll(button.MotionSample{PitchRate: v, Time: t})...)
		t = t.Add(step)
	}
	return out, t
}

// flick is a canonical completing pitch gesture trace: spike past the
// minimum peak, then decay through the completion ratio.
var flick = []float64{0.1, 1.0, 2.0, 2.0, 0.9, 0.1}

func TestGestureFiresOnVelocityDecay(t *testing.T) {
	d := NewDefaultDetector()
	start := time.Unix(2000, 0)

	results, _ := feed(d, start, 10*time.Millisecond, flick)
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	res := results[0]
	if res.Kind != mapping.GestureTiltBack {
		t.Errorf("kind = %v, want tiltBack", res.Kind)
	}
	if res.Peak != 2.0 {
		t.Errorf("peak = %v, want 2.0", res.Peak)
	}
}

func TestNegativePitchIsTiltForward(t *testing.T) {
	d := NewDefaultDetector()
	start := time.Unix(2000, 0)

	trace := []float64{-0.1, -1.2, -2.5, -1.0, -0.1}
	results, _ := feed(d, start, 10*time.Millisecond, trace)
	if len(results) != 1 || results[0].Kind != mapping.GestureTiltForward {
		t.Fatalf("results = %v, want one tiltForward", results)
	}
}

func TestWeakPeakNeverFires(t *testing.T) {
	d := NewDefaultDetector()
	start := time.Unix(2000, 0)

	// Crosses activation (0.8) but never reaches the minimum peak (1.5).
	trace := []float64{0.1, 1.0, 1.2, 1.0, 0.5, 0.1}
	results, _ := feed(d, start, 10*time.Millisecond, trace)
	if len(results) != 0 {
		t.Fatalf("weak gesture fired: %v", results)
	}
}

func TestOverlongGestureAborts(t *testing.T) {
	d := NewDefaultDetector()
	start := time.Unix(2000, 0)

	// Velocity held high past MaxDuration, then decays: too slow to be
	// a flick.
	trace := make([]float64, 0, 60)
	trace = append(trace, 0.1)
	for i := 0; i < 55; i++ {
		trace = append(trace, 2.0)
	}
	trace = append(trace, 0.5, 0.1)
	results, _ := feed(d, start, 10*time.Millisecond, trace)
	if len(results) != 0 {
		t.Fatalf("overlong gesture fired: %v", results)
	}
}

func TestSameDirectionCooldown(t *testing.T) {
	d := NewDefaultDetector()
	start := time.Unix(2000, 0)

	results, next := feed(d, start, 10*time.Millisecond, flick)
	if len(results) != 1 {
		t.Fatalf("setup gesture did not fire: %v", results)
	}

	// Immediately repeat: inside the 300ms same-direction cooldown.
	results, next = feed(d, next, 10*time.Millisecond, flick)
	if len(results) != 0 {
		t.Fatalf("gesture fired inside cooldown: %v", results)
	}

	// After the cooldown it fires again.
	results, _ = feed(d, next.Add(400*time.Millisecond), 10*time.Millisecond, flick)
	if len(results) != 1 {
		t.Fatalf("gesture did not fire after cooldown: %v", results)
	}
}

func TestOppositeDirectionCooldownIsLonger(t *testing.T) {
	d := NewDefaultDetector()
	start := time.Unix(2000, 0)

	results, next := feed(d, start, 10*time.Millisecond, flick)
	if len(results) != 1 {
		t.Fatalf("setup gesture did not fire: %v", results)
	}

	negate := func(src []float64) []float64 {
		out := make([]float64, len(src))
		for i, v := range src {
			out[i] = -v
		}
		return out
	}

	// 400ms after firing: past the same-direction window but inside the
	// 600ms opposite-direction window — the rebound must not fire.
	results, _ = feed(d, next.Add(400*time.Millisecond), 10*time.Millisecond, negate(flick))
	if len(results) != 0 {
		t.Fatalf("rebound fired inside opposite cooldown: %v", results)
	}

	// Well past it, the opposite gesture is legitimate.
	results, _ = feed(d, next.Add(700*time.Millisecond), 10*time.Millisecond, negate(flick))
	if len(results) != 1 || results[0].Kind != mapping.GestureTiltForward {
		t.Fatalf("opposite gesture after cooldown: %v", results)
	}
}

func TestSettleRequiredBetweenGestures(t *testing.T) {
	d := NewDefaultDetector()
	start := time.Unix(2000, 0)

	// Complete a gesture but never drop below the settle threshold
	// afterwards; wait out both cooldowns with sustained wobble.
	results, next := feed(d, start, 10*time.Millisecond, []float64{0.1, 2.0, 2.0, 0.9})
	if len(results) != 1 {
		t.Fatalf("setup gesture did not fire: %v", results)
	}

	wobble := make([]float64, 80)
	for i := range wobble {
		wobble[i] = 0.9 // above settle (0.2) and activation (0.8)
	}
	results, _ = feed(d, next, 10*time.Millisecond, wobble)
	if len(results) != 0 {
		t.Fatalf("unsettled axis re-fired: %v", results)
	}
}

func TestRollAxisFiresSteerGestures(t *testing.T) {
	d := NewDefaultDetector()
	start := time.Unix(2000, 0)

	var out []Result
	tm := start
	for _, v := range []float64{0.1, 1.5, 2.5, 1.0, 0.1} {
		out = append(out, d.ProcessAll(button.MotionSample{RollRate: v, Time: tm})...)
		tm = tm.Add(10 * time.Millisecond)
	}
	if len(out) != 1 || out[0].Kind != mapping.GestureSteerLeft {
		t.Fatalf("roll results = %v, want one steerLeft", out)
	}
}

func TestPitchWinsSimultaneousCompletion(t *testing.T) {
	d := NewDefaultDetector()
	tm := time.Unix(2000, 0)

	// Drive both axes through identical traces so both complete on the
	// same sample.
	for _, v := range []float64{0.1, 2.0, 2.5, 2.5} {
		d.Process(button.MotionSample{PitchRate: v, RollRate: v, Time: tm})
		tm = tm.Add(10 * time.Millisecond)
	}
	res, ok := d.Process(button.MotionSample{PitchRate: 0.3, RollRate: 0.3, Time: tm})
	if !ok {
		t.Fatal("no completion on decay sample")
	}
	if res.Kind != mapping.GestureTiltBack {
		t.Fatalf("kind = %v, want pitch gesture first", res.Kind)
	}
}

func TestSimultaneousRollCompletionIsDeferred(t *testing.T) {
	d := NewDefaultDetector()
	tm := time.Unix(2000, 0)

	// Both axes complete on the same decay sample. Pitch wins that
	// sample; the roll gesture must surface on the next one rather
	// than vanish with its cooldowns armed.
	for _, v := range []float64{0.1, 1.2, 2.0, 2.0} {
		if _, ok := d.Process(button.MotionSample{PitchRate: v, RollRate: v, Time: tm}); ok {
			t.Fatal("completion before decay")
		}
		tm = tm.Add(10 * time.Millisecond)
	}

	res, ok := d.Process(button.MotionSample{PitchRate: 0.9, RollRate: 0.9, Time: tm})
	if !ok || res.Kind != mapping.GestureTiltBack {
		t.Fatalf("decay sample = (%v, %v), want tiltBack", res, ok)
	}
	tm = tm.Add(10 * time.Millisecond)

	res, ok = d.Process(button.MotionSample{PitchRate: 0.1, RollRate: 0.1, Time: tm})
	if !ok || res.Kind != mapping.GestureSteerLeft {
		t.Fatalf("follow-up sample = (%v, %v), want steerLeft", res, ok)
	}
	if res.Peak != 2.0 {
		t.Errorf("deferred roll peak = %v, want 2.0", res.Peak)
	}
}

func TestResetClearsCooldowns(t *testing.T) {
	d := NewDefaultDetector()
	start := time.Unix(2000, 0)

	results, next := feed(d, start, 10*time.Millisecond, flick)
	if len(results) != 1 {
		t.Fatalf("setup gesture did not fire: %v", results)
	}

	d.Reset()
	results, _ = feed(d, next, 10*time.Millisecond, flick)
	if len(results) != 1 {
		t.Fatalf("gesture after reset: %v", results)
	}
}

func TestMalformedSamplesIgnored(t *testing.T) {
	d := NewDefaultDetector()
	tm := time.Unix(2000, 0)

	for _, v := range []float64{0.1, nanValue(), 2.0, 2.0, 0.9, 0.1} {
		d.ProcessAll(button.MotionSample{PitchRate: v, Time: tm})
		tm = tm.Add(10 * time.Millisecond)
	}
	// No panic and the surrounding trace still behaves: a fresh flick
	// fires normally.
	results, _ := feed(d, tm.Add(time.Second), 10*time.Millisecond, flick)
	if len(results) != 1 {
		t.Fatalf("detector wedged after NaN: %v", results)
	}
}

func nanValue() float64 {
	var zero float64
	return zero / zero
}
