package button

import (
	"fmt"
	"strings"
)

// Button identifies a physical control on the pad. The set is stable
// across controller families; presentation layers map display names per
// family (e.g. Cross/Circle vs A/B).
type Button uint8

const (
	// None is the zero value and never matches a mapping.
	None Button = iota

	// A is the bottom face button.
	A
	// B is the right face button.
	B
	// X is the left face button.
	X
	// Y is the top face button.
	Y

	// LeftBumper is the left shoulder button.
	LeftBumper
	// RightBumper is the right shoulder button.
	RightBumper
	// LeftTrigger is the left trigger treated as a digital button.
	LeftTrigger
	// RightTrigger is the right trigger treated as a digital button.
	RightTrigger

	// DPadUp is the directional pad up.
	DPadUp
	// DPadDown is the directional pad down.
	DPadDown
	// DPadLeft is the directional pad left.
	DPadLeft
	// DPadRight is the directional pad right.
	DPadRight

	// LeftThumb is the left stick pressed as a button.
	LeftThumb
	// RightThumb is the right stick pressed as a button.
	RightThumb

	// View is the left center button (Back/Share on some pads).
	View
	// Menu is the right center button (Start/Options on some pads).
	Menu
	// Guide is the vendor logo button.
	Guide

	// TouchpadClick is a full touchpad press.
	TouchpadClick
	// TouchpadLeft is a press on the left half of the touchpad.
	TouchpadLeft
	// TouchpadRight is a press on the right half of the touchpad.
	TouchpadRight

	// Paddle1 through Paddle4 are vendor-specific rear paddles.
	Paddle1
	Paddle2
	Paddle3
	Paddle4

	// buttonCount is the arena size for per-button state tables.
	buttonCount
)

// Count is the number of distinct buttons, usable to size arrays
// indexed by Button.
const Count = int(buttonCount)

// buttonNames maps buttons to their canonical lowercase names. These
// names are what profile files use; they are not display names.
var buttonNames = [...]string{
	None:          "none",
	A:             "a",
	B:             "b",
	X:             "x",
	Y:             "y",
	LeftBumper:    "leftBumper",
	RightBumper:   "rightBumper",
	LeftTrigger:   "leftTrigger",
	RightTrigger:  "rightTrigger",
	DPadUp:        "dpadUp",
	DPadDown:      "dpadDown",
	DPadLeft:      "dpadLeft",
	DPadRight:     "dpadRight",
	LeftThumb:     "leftThumb",
	RightThumb:    "rightThumb",
	View:          "view",
	Menu:          "menu",
	Guide:         "guide",
	TouchpadClick: "touchpadClick",
	TouchpadLeft:  "touchpadLeft",
	TouchpadRight: "touchpadRight",
	Paddle1:       "paddle1",
	Paddle2:       "paddle2",
	Paddle3:       "paddle3",
	Paddle4:       "paddle4",
}

// String returns the canonical name of the button.
func (b Button) String() string {
	if int(b) < len(buttonNames) {
		return buttonNames[b]
	}
	return fmt.Sprintf("button(%d)", uint8(b))
}

// Valid reports whether b identifies a real button.
func (b Button) Valid() bool {
	return b > None && b < buttonCount
}

// IsDPad reports whether the button is one of the four d-pad directions.
func (b Button) IsDPad() bool {
	return b >= DPadUp && b <= DPadRight
}

// IsFace reports whether the button is one of the four face buttons.
func (b Button) IsFace() bool {
	return b >= A && b <= Y
}

// IsTouchpad reports whether the button is a touchpad region press.
func (b Button) IsTouchpad() bool {
	return b >= TouchpadClick && b <= TouchpadRight
}

// Parse returns the button with the given canonical name. Matching is
// case-insensitive. It returns an error for unknown names so profile
// loaders can report the offending entry.
func Parse(name string) (Button, error) {
	for b, n := range buttonNames {
		if strings.EqualFold(n, name) {
			if bb := Button(b); bb.Valid() {
				return bb, nil
			}
		}
	}
	return None, fmt.Errorf("unknown button %q", name)
}

// MustParse parses a button name and panics on error. Use only for
// known-valid names in initialization code.
func MustParse(name string) Button {
	b, err := Parse(name)
	if err != nil {
		panic(err.Error())
	}
	return b
}

// All returns every valid button in declaration order.
func All() []Button {
	out := make([]Button, 0, Count-1)
	for b := A; b < buttonCount; b++ {
		out = append(out, b)
	}
	return out
}
