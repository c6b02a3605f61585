package analog

import "math"

// Coefficient ranges for the user-facing 0-1 settings. The endpoints
// were tuned empirically; changing them changes pointer feel for every
// profile.
const (
	mouseExponentMin = 1.0
	mouseExponentMax = 2.5

	scrollExponentMin = 1.0
	scrollExponentMax = 2.0

	mouseMultiplierMin = 0.2
	mouseMultiplierMax = 3.0

	scrollMultiplierMin = 0.1
	scrollMultiplierMax = 2.0
)

// Clamp01 limits v to [0, 1], mapping NaN to 0.
func Clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// sanitize maps NaN and infinities to 0 so malformed hardware samples
// cannot propagate through the math.
func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// CircularDeadzone applies a circular deadzone to a stick vector. It
// returns the raw magnitude and true when the vector lies strictly
// outside the deadzone circle, and (0, false) otherwise. Diagonal
// inputs whose per-axis components are each below the radius still
// pass when their combined magnitude exceeds it.
func CircularDeadzone(x, y, deadzone float64) (float64, bool) {
	x = sanitize(x)
	y = sanitize(y)
	deadzone = Clamp01(deadzone)
	sq := x*x + y*y
	if sq <= deadzone*deadzone {
		return 0, false
	}
	return math.Sqrt(sq), true
}

// NormalizedMagnitude remaps a raw magnitude linearly from
// [deadzone, 1] to [0, 1]. Input at the deadzone edge maps to 0 and
// full deflection to 1; results are clamped.
func NormalizedMagnitude(magnitude, deadzone float64) float64 {
	magnitude = sanitize(magnitude)
	deadzone = Clamp01(deadzone)
	if deadzone >= 1 {
		return 0
	}
	return Clamp01((magnitude - deadzone) / (1 - deadzone))
}

// MouseCurve applies the pointer acceleration curve: the normalized
// magnitude is raised to an exponent derived linearly from the 0-1
// acceleration setting, then scaled by the sensitivity multiplier.
func MouseCurve(normalized, acceleration, sensitivity float64) float64 {
	normalized = Clamp01(normalized)
	exponent := mouseExponentMin + (mouseExponentMax-mouseExponentMin)*Clamp01(acceleration)
	return math.Pow(normalized, exponent) * MouseMultiplier(sensitivity)
}

// ScrollCurve is the scroll-wheel analogue of MouseCurve with its own
// exponent and multiplier ranges.
func ScrollCurve(normalized, acceleration, sensitivity float64) float64 {
	normalized = Clamp01(normalized)
	exponent := scrollExponentMin + (scrollExponentMax-scrollExponentMin)*Clamp01(acceleration)
	return math.Pow(normalized, exponent) * ScrollMultiplier(sensitivity)
}

// MouseMultiplier maps the 0-1 sensitivity setting to the bounded
// pointer speed multiplier range. The cubic blend keeps the low end of
// the slider fine-grained while still reaching the full range.
func MouseMultiplier(sensitivity float64) float64 {
	s := Clamp01(sensitivity)
	shaped := 0.25*s + 0.75*s*s*s
	return mouseMultiplierMin + (mouseMultiplierMax-mouseMultiplierMin)*shaped
}

// ScrollMultiplier maps the 0-1 scroll sensitivity setting to the
// bounded scroll speed multiplier range.
func ScrollMultiplier(sensitivity float64) float64 {
	s := Clamp01(sensitivity)
	shaped := 0.25*s + 0.75*s*s*s
	return scrollMultiplierMin + (scrollMultiplierMax-scrollMultiplierMin)*shaped
}

// SuppressHorizontalScroll zeroes the horizontal scroll component when
// the vertical component dominates it by more than ratio, so diagonal
// jitter during a vertical scroll does not read as intentional
// horizontal scrolling. A ratio of zero or less disables suppression.
func SuppressHorizontalScroll(h, v, ratio float64) (float64, float64) {
	h = sanitize(h)
	v = sanitize(v)
	if ratio > 0 && math.Abs(v) > math.Abs(h)*ratio {
		return 0, v
	}
	return h, v
}
