// Package policy decides which overlay or mode, if any, intercepts a
// button press before its ordinary mapping applies. Resolve is a pure
// function: identical inputs always produce identical outcomes, which
// is what makes the interception rules testable in isolation.
package policy

import (
	"time"

	"github.com/dshills/controlmap/internal/button"
	"github.com/dshills/controlmap/internal/mapping"
)

// SwipeState is the swipe-typing engine phase, supplied by the swipe
// engine owner on every Resolve call.
type SwipeState uint8

const (
	// SwipeInactive means the swipe engine is not engaged.
	SwipeInactive SwipeState = iota
	// SwipeActive means the engine is engaged but no stroke is in
	// progress.
	SwipeActive
	// SwipeSwiping means a stroke is in progress.
	SwipeSwiping
	// SwipeShowingPredictions means candidate words are on screen.
	SwipeShowingPredictions
)

// engaged reports whether the swipe engine claims button input.
func (s SwipeState) engaged() bool {
	return s == SwipeActive || s == SwipeSwiping || s == SwipeShowingPredictions
}

// Direction is a four-way navigation direction.
type Direction uint8

const (
	// DirNone indicates no direction.
	DirNone Direction = iota
	// DirUp indicates upward navigation.
	DirUp
	// DirDown indicates downward navigation.
	DirDown
	// DirLeft indicates leftward navigation.
	DirLeft
	// DirRight indicates rightward navigation.
	DirRight
)

// String returns a string representation of the direction.
func (d Direction) String() string {
	switch d {
	case DirUp:
		return "up"
	case DirDown:
		return "down"
	case DirLeft:
		return "left"
	case DirRight:
		return "right"
	default:
		return "none"
	}
}

// dpadDirection maps a d-pad button to its direction.
func dpadDirection(b button.Button) Direction {
	switch b {
	case button.DPadUp:
		return DirUp
	case button.DPadDown:
		return DirDown
	case button.DPadLeft:
		return DirLeft
	case button.DPadRight:
		return DirRight
	default:
		return DirNone
	}
}

// OutcomeKind enumerates every way a press can resolve. The kinds are
// exhaustive: every press resolves to exactly one.
type OutcomeKind uint8

const (
	// OutcomeUnmapped means no rule intercepted and no mapping exists.
	OutcomeUnmapped OutcomeKind = iota

	// OutcomeNavigator means the directory navigator overlay consumed
	// the press.
	OutcomeNavigator

	// OutcomeSwipe means the swipe-typing engine consumed the press.
	OutcomeSwipe

	// OutcomeKeyboardNav means the on-screen keyboard consumed the
	// press for navigation or activation.
	OutcomeKeyboardNav

	// OutcomeCursorNav means a d-pad press drives cursor-style
	// navigation while the keyboard is visible without navigation
	// mode.
	OutcomeCursorNav

	// OutcomeMapping means no overlay intercepted; the mapping
	// context carries what ordinary dispatch needs.
	OutcomeMapping
)

// String returns the kind name.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeNavigator:
		return "navigator"
	case OutcomeSwipe:
		return "swipe"
	case OutcomeKeyboardNav:
		return "keyboardNav"
	case OutcomeCursorNav:
		return "cursorNav"
	case OutcomeMapping:
		return "mapping"
	default:
		return "unmapped"
	}
}

// NavigatorOp is what a navigator interception asks the overlay to do.
type NavigatorOp uint8

const (
	// NavigatorMove moves the selection in Outcome.Dir.
	NavigatorMove NavigatorOp = iota
	// NavigatorConfirm activates the selected entry.
	NavigatorConfirm
	// NavigatorDismiss closes the overlay.
	NavigatorDismiss
)

// SwipeOp is what a swipe interception asks the swipe engine to do.
type SwipeOp uint8

const (
	// SwipeCancel abandons the stroke or prediction list.
	SwipeCancel SwipeOp = iota
	// SwipeConfirm accepts the highlighted prediction.
	SwipeConfirm
	// SwipeCycle moves the prediction highlight in Outcome.Dir.
	SwipeCycle
)

// MappingContext is the payload of an OutcomeMapping: everything the
// caller's own press-type bookkeeping needs.
type MappingContext struct {
	// Mapping is the button's configured mapping.
	Mapping mapping.KeyMapping

	// LastTap is the caller-supplied previous release time of this
	// button, echoed back for double-tap bookkeeping.
	LastTap time.Time

	// ShouldTreatAsHold is true when the button may enter the hold
	// path. Chord members never hold: their identity is only known at
	// window expiry.
	ShouldTreatAsHold bool
}

// Outcome is the resolver's tagged result. Kind selects which payload
// fields are meaningful.
type Outcome struct {
	// Kind selects the variant.
	Kind OutcomeKind

	// Dir is set for NavigatorMove, SwipeCycle and OutcomeCursorNav.
	Dir Direction

	// NavOp is set for OutcomeNavigator.
	NavOp NavigatorOp

	// SwipeOp is set for OutcomeSwipe.
	SwipeOp SwipeOp

	// Command is set for OutcomeKeyboardNav triggered by a reserved
	// system-command marker mapping.
	Command string

	// Ctx is set for OutcomeMapping.
	Ctx MappingContext
}

// ModeFlags is the transient overlay/mode context supplied by the
// overlay owners on every Resolve call. The resolver only reads it.
type ModeFlags struct {
	// KeyboardVisible is true while the on-screen keyboard overlay is
	// shown.
	KeyboardVisible bool

	// NavigationActive is true while keyboard navigation mode is on.
	NavigationActive bool

	// NavigatorVisible is true while the directory navigator overlay
	// is shown.
	NavigatorVisible bool

	// Swipe is the swipe-typing engine phase.
	Swipe SwipeState
}

// Resolve decides the outcome for one button press. hasMapping is
// false when the button has no configured mapping; m is then ignored.
// isChordPart is true while the button may still belong to an
// in-progress chord. lastTap is the previous release time of the same
// button, echoed back in mapping outcomes.
//
// Rules apply highest priority first; the first match wins.
func Resolve(b button.Button, m mapping.KeyMapping, hasMapping bool, flags ModeFlags, isChordPart bool, lastTap time.Time) Outcome {
	// 1. Directory navigator overlay.
	if flags.NavigatorVisible {
		if out, ok := resolveNavigator(b); ok {
			return out
		}
	}

	// 2. Swipe typing.
	if flags.KeyboardVisible && flags.Swipe.engaged() {
		if out, ok := resolveSwipe(b, flags.Swipe); ok {
			return out
		}
	}

	// 3. Keyboard navigation/activation, plus the reserved overlay
	// toggle markers which intercept regardless of overlay state.
	if hasMapping && isOverlayMarker(m.SystemCommand) {
		return Outcome{Kind: OutcomeKeyboardNav, Command: m.SystemCommand}
	}
	if flags.KeyboardVisible && flags.NavigationActive {
		return Outcome{Kind: OutcomeKeyboardNav}
	}

	// 4. Plain d-pad cursor navigation under the visible keyboard.
	if flags.KeyboardVisible && b.IsDPad() {
		return Outcome{Kind: OutcomeCursorNav, Dir: dpadDirection(b)}
	}

	// 5. Ordinary mapping.
	if hasMapping {
		return Outcome{
			Kind: OutcomeMapping,
			Ctx: MappingContext{
				Mapping:           m,
				LastTap:           lastTap,
				ShouldTreatAsHold: !isChordPart,
			},
		}
	}

	// 6. Nothing claimed the press.
	return Outcome{Kind: OutcomeUnmapped}
}

// resolveNavigator applies the directory navigator rules. Buttons the
// navigator does not use pass through to lower-priority rules.
func resolveNavigator(b button.Button) (Outcome, bool) {
	switch {
	case b.IsDPad():
		return Outcome{Kind: OutcomeNavigator, NavOp: NavigatorMove, Dir: dpadDirection(b)}, true
	case b == button.A, b == button.B, b == button.X:
		return Outcome{Kind: OutcomeNavigator, NavOp: NavigatorConfirm}, true
	case b == button.Y:
		return Outcome{Kind: OutcomeNavigator, NavOp: NavigatorDismiss}, true
	default:
		return Outcome{}, false
	}
}

// resolveSwipe applies the swipe-typing rules. B always cancels; the
// prediction controls only exist while predictions are showing.
func resolveSwipe(b button.Button, state SwipeState) (Outcome, bool) {
	if b == button.B {
		return Outcome{Kind: OutcomeSwipe, SwipeOp: SwipeCancel}, true
	}
	if state != SwipeShowingPredictions {
		return Outcome{}, false
	}
	switch b {
	case button.A:
		return Outcome{Kind: OutcomeSwipe, SwipeOp: SwipeConfirm}, true
	case button.DPadLeft:
		return Outcome{Kind: OutcomeSwipe, SwipeOp: SwipeCycle, Dir: DirLeft}, true
	case button.DPadRight:
		return Outcome{Kind: OutcomeSwipe, SwipeOp: SwipeCycle, Dir: DirRight}, true
	default:
		return Outcome{}, false
	}
}

// isOverlayMarker reports whether a system command is one of the
// reserved overlay toggle markers.
func isOverlayMarker(cmd string) bool {
	return cmd == mapping.SystemShowKeyboard || cmd == mapping.SystemShowNavigator
}
