package button

import "time"

// StickAxis identifies which analog stick produced a sample.
type StickAxis uint8

const (
	// StickLeft is the left analog stick.
	StickLeft StickAxis = iota
	// StickRight is the right analog stick.
	StickRight
)

// String returns a string representation of the stick axis.
func (a StickAxis) String() string {
	switch a {
	case StickLeft:
		return "leftStick"
	case StickRight:
		return "rightStick"
	default:
		return "unknownStick"
	}
}

// PressEvent is a raw button-down report from the hardware layer.
type PressEvent struct {
	// Button is the pressed control.
	Button Button

	// Time is when the hardware layer observed the press.
	Time time.Time
}

// ReleaseEvent is a raw button-up report from the hardware layer.
type ReleaseEvent struct {
	// Button is the released control.
	Button Button

	// HoldDuration is how long the button was down, as reported by the
	// hardware layer. Zero when the layer does not track it.
	HoldDuration time.Duration

	// Time is when the hardware layer observed the release.
	Time time.Time
}

// StickSample is one raw analog stick report. X and Y are in [-1, 1]
// with no deadzone applied.
type StickSample struct {
	Axis StickAxis
	X    float64
	Y    float64
}

// TouchDelta is one touchpad movement report in touchpad units.
type TouchDelta struct {
	DX float64
	DY float64
}

// TouchGestureKind identifies a multi-finger touchpad gesture.
type TouchGestureKind uint8

const (
	// TouchPan is a two-finger pan.
	TouchPan TouchGestureKind = iota
	// TouchPinch is a pinch (zoom) gesture.
	TouchPinch
)

// TouchGesture is one multi-finger touchpad gesture report. DX and DY
// carry the pan delta; Scale carries the pinch factor relative to 1.0.
type TouchGesture struct {
	Kind  TouchGestureKind
	DX    float64
	DY    float64
	Scale float64
}

// MotionSample is one gyroscope report. Rates are angular velocity in
// radians per second.
type MotionSample struct {
	// PitchRate is rotation about the pitch axis (tilt forward/back).
	PitchRate float64

	// RollRate is rotation about the roll axis (steer left/right).
	RollRate float64

	// Time is the sample timestamp from the hardware layer.
	Time time.Time
}
