package analog

import "math"

// Minimum alpha for the touchpad EMA so the filter can never stall
// completely at high smoothing settings.
const touchpadMinAlpha = 0.05

// Stick low-pass cutoff bounds in Hz. The cutoff interpolates between
// them with input magnitude: slow, precise tracking near the center
// and fast tracking at full deflection.
const (
	stickCutoffMin = 1.0
	stickCutoffMax = 20.0
)

// StickFilter is the velocity-adaptive low-pass filter for stick
// vectors. One instance per stick; not safe for concurrent use.
type StickFilter struct {
	x, y   float64
	primed bool
}

// NewStickFilter returns a filter with no history.
func NewStickFilter() *StickFilter {
	return &StickFilter{}
}

// Apply filters one stick sample. magnitude is the normalized input
// magnitude in [0, 1] and dt the time since the previous sample in
// seconds. The first sample passes through unfiltered.
func (f *StickFilter) Apply(x, y, magnitude, dt float64) (float64, float64) {
	x = sanitize(x)
	y = sanitize(y)
	if !f.primed {
		f.x, f.y = x, y
		f.primed = true
		return x, y
	}
	cutoff := stickCutoffMin + (stickCutoffMax-stickCutoffMin)*Clamp01(magnitude)
	alpha := Clamp01(1 - math.Exp(-2*math.Pi*cutoff*sanitize(dt)))
	f.x += alpha * (x - f.x)
	f.y += alpha * (y - f.y)
	return f.x, f.y
}

// Reset clears the filter history.
func (f *StickFilter) Reset() {
	f.x, f.y = 0, 0
	f.primed = false
}

// TouchFilter is the exponential moving average for touchpad deltas.
// One instance per touchpad source; not safe for concurrent use.
type TouchFilter struct {
	dx, dy float64
	alpha  float64
	primed bool
}

// NewTouchFilter returns a filter for the given 0-1 smoothing setting.
// Zero smoothing yields alpha 1, i.e. no filtering; the alpha is
// otherwise clamped to touchpadMinAlpha from below.
func NewTouchFilter(smoothing float64) *TouchFilter {
	return &TouchFilter{alpha: TouchAlpha(smoothing)}
}

// TouchAlpha derives the EMA alpha from the 0-1 smoothing setting.
func TouchAlpha(smoothing float64) float64 {
	s := Clamp01(smoothing)
	if s == 0 {
		return 1
	}
	alpha := 1 - s
	if alpha < touchpadMinAlpha {
		alpha = touchpadMinAlpha
	}
	return alpha
}

// Apply filters one touchpad delta.
func (f *TouchFilter) Apply(dx, dy float64) (float64, float64) {
	dx = sanitize(dx)
	dy = sanitize(dy)
	if f.alpha >= 1 {
		return dx, dy
	}
	if !f.primed {
		f.dx, f.dy = dx, dy
		f.primed = true
		return dx, dy
	}
	f.dx += f.alpha * (dx - f.dx)
	f.dy += f.alpha * (dy - f.dy)
	return f.dx, f.dy
}

// Reset clears the filter history without changing the alpha.
func (f *TouchFilter) Reset() {
	f.dx, f.dy = 0, 0
	f.primed = false
}
