package mapping

import (
	"time"

	"github.com/dshills/controlmap/internal/button"
)

// Reserved system commands the orchestration policy recognizes before
// ordinary dispatch applies.
const (
	// SystemShowKeyboard toggles the on-screen keyboard overlay.
	SystemShowKeyboard = "keyboard.show"

	// SystemShowNavigator toggles the directory navigator overlay.
	SystemShowNavigator = "navigator.show"
)

// KeyMapping is the immutable configuration value bound to one button
// gesture. At most one of Macro, Script and SystemCommand is the
// dispatched action; Key plus Modifiers is the fallback. The zero
// value is the canonical unmapped mapping.
type KeyMapping struct {
	// Key is the bound key or mouse button, KeyNone when unbound.
	Key KeyCode

	// Modifiers are held around the key press, or tapped alone when
	// Key is KeyNone.
	Modifiers Modifier

	// HoldModifiers keeps Modifiers held for as long as the physical
	// button is held instead of tapping them.
	HoldModifiers bool

	// LongHold is the alternate action for holding the button past
	// the long-hold threshold.
	LongHold *KeyMapping

	// DoubleTap is the alternate action for two quick presses.
	DoubleTap *KeyMapping

	// Macro references a macro in the profile by id.
	Macro string

	// Script references a script in the profile by id.
	Script string

	// SystemCommand names a built-in command, e.g. SystemShowKeyboard.
	SystemCommand string

	// Label is an optional display hint for overlays and fallbacks.
	Label string
}

// IsEmpty reports whether the mapping carries no action of any kind.
// Empty mappings are treated as unmapped by the whole pipeline.
func (m KeyMapping) IsEmpty() bool {
	return m.Key == KeyNone &&
		m.Modifiers == ModNone &&
		m.Macro == "" &&
		m.Script == "" &&
		m.SystemCommand == "" &&
		m.LongHold == nil &&
		m.DoubleTap == nil
}

// HasLongHold reports whether a long-hold alternate is configured.
func (m KeyMapping) HasLongHold() bool {
	return m.LongHold != nil && !m.LongHold.IsEmpty()
}

// HasDoubleTap reports whether a double-tap alternate is configured.
func (m KeyMapping) HasDoubleTap() bool {
	return m.DoubleTap != nil && !m.DoubleTap.IsEmpty()
}

// DisplayLabel returns the label, falling back to a readable
// description of the bound action.
func (m KeyMapping) DisplayLabel() string {
	if m.Label != "" {
		return m.Label
	}
	switch {
	case m.SystemCommand != "":
		return m.SystemCommand
	case m.Macro != "":
		return "macro:" + m.Macro
	case m.Script != "":
		return "script:" + m.Script
	case m.Key != KeyNone && m.Modifiers != ModNone:
		return m.Modifiers.String() + "+" + m.Key.String()
	case m.Key != KeyNone:
		return m.Key.String()
	case m.Modifiers != ModNone:
		return m.Modifiers.String()
	default:
		return "unmapped"
	}
}

// ChordMapping binds an action to a set of two or more buttons pressed
// together within the chord window. Order of presses is irrelevant.
type ChordMapping struct {
	// Buttons is the full member set. Must have at least two members.
	Buttons button.Set

	// Action fires when the pressed set equals Buttons exactly.
	Action KeyMapping

	// Name is an optional display name.
	Name string
}

// SequenceMapping binds an action to an ordered series of single
// presses, each arriving within StepTimeout of the previous step.
type SequenceMapping struct {
	// Steps is the ordered button list. Must have at least two steps.
	Steps []button.Button

	// StepTimeout is the allowance between consecutive steps. Zero
	// means the engine default.
	StepTimeout time.Duration

	// Action fires when the final step lands.
	Action KeyMapping

	// Name is an optional display name.
	Name string
}

// GestureKind identifies a motion gesture direction.
type GestureKind uint8

const (
	// GestureNone is the zero value.
	GestureNone GestureKind = iota
	// GestureTiltForward is a quick forward pitch of the pad.
	GestureTiltForward
	// GestureTiltBack is a quick backward pitch of the pad.
	GestureTiltBack
	// GestureSteerLeft is a quick counterclockwise roll.
	GestureSteerLeft
	// GestureSteerRight is a quick clockwise roll.
	GestureSteerRight
)

// String returns the canonical name of the gesture kind.
func (g GestureKind) String() string {
	switch g {
	case GestureTiltForward:
		return "tiltForward"
	case GestureTiltBack:
		return "tiltBack"
	case GestureSteerLeft:
		return "steerLeft"
	case GestureSteerRight:
		return "steerRight"
	default:
		return "none"
	}
}

// ParseGestureKind returns the gesture kind with the given name.
func ParseGestureKind(name string) (GestureKind, bool) {
	switch name {
	case "tiltForward":
		return GestureTiltForward, true
	case "tiltBack":
		return GestureTiltBack, true
	case "steerLeft":
		return GestureSteerLeft, true
	case "steerRight":
		return GestureSteerRight, true
	default:
		return GestureNone, false
	}
}

// GestureMapping binds an action to a motion gesture.
type GestureMapping struct {
	// Kind is the gesture direction.
	Kind GestureKind

	// Action fires when the detector completes the gesture.
	Action KeyMapping
}

// MacroStep is one element of a macro. Exactly one of Key (with
// Modifiers) and Text is meaningful per step.
type MacroStep struct {
	// Key is tapped with Modifiers held.
	Key KeyCode

	// Modifiers are held around Key for this step.
	Modifiers Modifier

	// Text is typed verbatim instead of a key tap.
	Text string

	// Delay is waited after the step completes.
	Delay time.Duration
}

// Macro is a named list of steps played by the macro player.
type Macro struct {
	// ID is the profile-unique identifier mappings reference.
	ID string

	// Name is a display name.
	Name string

	// Steps run in order.
	Steps []MacroStep
}

// Script is a named Lua source executed by the script engine.
type Script struct {
	// ID is the profile-unique identifier mappings reference.
	ID string

	// Name is a display name.
	Name string

	// Source is the Lua source text.
	Source string
}
