package classify

import (
	"time"

	"github.com/dshills/controlmap/internal/button"
	"github.com/dshills/controlmap/internal/mapping"
)

// Kind is the semantic classification of a physical gesture.
type Kind uint8

const (
	// KindPress is a plain tap.
	KindPress Kind = iota

	// KindLongHold is a hold past the long-hold threshold.
	KindLongHold

	// KindDoubleTap is two taps within the double-tap threshold.
	KindDoubleTap

	// KindChord is a completed multi-button chord.
	KindChord

	// KindSequence is a completed ordered button sequence.
	KindSequence

	// KindHoldStart opens the hold path: the mapping's key goes down
	// and stays down until the matching KindHoldEnd.
	KindHoldStart

	// KindHoldEnd closes the hold path.
	KindHoldEnd

	// KindUnmapped is a press with no mapping of any kind. It
	// produces no external effect and exists for observability.
	KindUnmapped
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindPress:
		return "press"
	case KindLongHold:
		return "longHold"
	case KindDoubleTap:
		return "doubleTap"
	case KindChord:
		return "chord"
	case KindSequence:
		return "sequence"
	case KindHoldStart:
		return "holdStart"
	case KindHoldEnd:
		return "holdEnd"
	default:
		return "unmapped"
	}
}

// Action is one classified semantic event. Exactly one Action fires
// per physical gesture.
type Action struct {
	// Kind is the classification.
	Kind Kind

	// Button is the originating button for per-button kinds; None for
	// chords and sequences.
	Button button.Button

	// Mapping is the action payload dispatch should execute. Empty
	// for KindUnmapped and for presses of buttons that only matter as
	// sequence steps.
	Mapping mapping.KeyMapping

	// Chord is set for KindChord.
	Chord mapping.ChordMapping

	// Sequence is set for KindSequence.
	Sequence mapping.SequenceMapping

	// Time is when the classification was decided.
	Time time.Time
}
