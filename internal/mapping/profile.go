package mapping

import (
	"errors"
	"fmt"

	"github.com/dshills/controlmap/internal/button"
)

// Validation errors.
var (
	// ErrChordTooSmall is returned for chords with fewer than two buttons.
	ErrChordTooSmall = errors.New("chord needs at least two buttons")

	// ErrDuplicateChord is returned when two chords share an identical
	// button set. Overlapping-but-unequal sets are permitted.
	ErrDuplicateChord = errors.New("duplicate chord button set")

	// ErrSequenceTooShort is returned for sequences with fewer than two steps.
	ErrSequenceTooShort = errors.New("sequence needs at least two steps")
)

// AnalogSettings carries the per-profile analog tuning the conditioner
// consumes. All 0-1 settings are user-facing slider values, not raw
// coefficients; the conditioner owns the coefficient mapping.
type AnalogSettings struct {
	// StickDeadzone is the circular deadzone radius in [0, 1).
	StickDeadzone float64

	// MouseSensitivity in [0, 1] scales stick-driven pointer speed.
	MouseSensitivity float64

	// MouseAcceleration in [0, 1] selects the pointer response curve.
	MouseAcceleration float64

	// ScrollSensitivity in [0, 1] scales stick-driven scroll speed.
	ScrollSensitivity float64

	// ScrollAcceleration in [0, 1] selects the scroll response curve.
	ScrollAcceleration float64

	// TouchpadSmoothing in [0, 1] sets the touchpad EMA strength.
	// Zero disables filtering entirely.
	TouchpadSmoothing float64

	// ScrollDominanceRatio suppresses horizontal scroll when the
	// vertical component exceeds the horizontal by this factor.
	ScrollDominanceRatio float64

	// MomentumDecay is the per-tick velocity retention factor in (0, 1).
	MomentumDecay float64

	// MomentumStopVelocity terminates momentum below this speed.
	MomentumStopVelocity float64

	// MomentumBoost scales initial momentum for fast flicks. 1 means
	// no boost.
	MomentumBoost float64
}

// DefaultAnalogSettings returns the tuned defaults.
func DefaultAnalogSettings() AnalogSettings {
	return AnalogSettings{
		StickDeadzone:        0.15,
		MouseSensitivity:     0.5,
		MouseAcceleration:    0.5,
		ScrollSensitivity:    0.5,
		ScrollAcceleration:   0.5,
		TouchpadSmoothing:    0.3,
		ScrollDominanceRatio: 2.0,
		MomentumDecay:        0.95,
		MomentumStopVelocity: 0.01,
		MomentumBoost:        1.5,
	}
}

// Profile is one immutable configuration snapshot: the full button
// mapping table plus chords, sequences, gestures, analog settings and
// the macro/script tables mappings reference. The pipeline swaps whole
// profiles atomically; nothing mutates a Profile after construction.
type Profile struct {
	// Name is the profile display name.
	Name string

	// Buttons maps each button to its mapping. Missing entries and
	// empty mappings both mean unmapped.
	Buttons map[button.Button]KeyMapping

	// Chords are the configured chord mappings.
	Chords []ChordMapping

	// Sequences are the configured sequence mappings.
	Sequences []SequenceMapping

	// Gestures are the configured motion gesture mappings.
	Gestures []GestureMapping

	// Analog is the analog tuning for this profile.
	Analog AnalogSettings

	// Macros indexes macros by id.
	Macros map[string]Macro

	// Scripts indexes scripts by id.
	Scripts map[string]Script
}

// NewProfile returns an empty profile with the given name and default
// analog settings.
func NewProfile(name string) *Profile {
	return &Profile{
		Name:    name,
		Buttons: make(map[button.Button]KeyMapping),
		Analog:  DefaultAnalogSettings(),
		Macros:  make(map[string]Macro),
		Scripts: make(map[string]Script),
	}
}

// MappingFor returns the mapping for a button. The second result is
// false when the button is unmapped (absent or empty).
func (p *Profile) MappingFor(b button.Button) (KeyMapping, bool) {
	if p == nil || p.Buttons == nil {
		return KeyMapping{}, false
	}
	m, ok := p.Buttons[b]
	if !ok || m.IsEmpty() {
		return KeyMapping{}, false
	}
	return m, true
}

// ChordFor returns the chord whose button set equals pressed exactly.
func (p *Profile) ChordFor(pressed button.Set) (ChordMapping, bool) {
	if p == nil {
		return ChordMapping{}, false
	}
	for _, c := range p.Chords {
		if c.Buttons == pressed {
			return c, true
		}
	}
	return ChordMapping{}, false
}

// ChordPrefix reports whether pressed is a strict subset of at least
// one configured chord, meaning more presses could still complete a
// chord within the window.
func (p *Profile) ChordPrefix(pressed button.Set) bool {
	if p == nil || pressed.IsEmpty() {
		return false
	}
	for _, c := range p.Chords {
		if c.Buttons != pressed && c.Buttons.ContainsAll(pressed) {
			return true
		}
	}
	return false
}

// ChordMember reports whether b participates in any configured chord.
func (p *Profile) ChordMember(b button.Button) bool {
	if p == nil {
		return false
	}
	for _, c := range p.Chords {
		if c.Buttons.Contains(b) {
			return true
		}
	}
	return false
}

// GestureFor returns the mapping for a motion gesture kind.
func (p *Profile) GestureFor(kind GestureKind) (GestureMapping, bool) {
	if p == nil {
		return GestureMapping{}, false
	}
	for _, g := range p.Gestures {
		if g.Kind == kind {
			return g, true
		}
	}
	return GestureMapping{}, false
}

// MacroFor returns the macro with the given id.
func (p *Profile) MacroFor(id string) (Macro, bool) {
	if p == nil || p.Macros == nil {
		return Macro{}, false
	}
	m, ok := p.Macros[id]
	return m, ok
}

// ScriptFor returns the script with the given id.
func (p *Profile) ScriptFor(id string) (Script, bool) {
	if p == nil || p.Scripts == nil {
		return Script{}, false
	}
	s, ok := p.Scripts[id]
	return s, ok
}

// Validate checks the structural invariants: chords have at least two
// members and pairwise distinct sets, sequences have at least two
// steps of valid buttons.
func (p *Profile) Validate() error {
	seen := make(map[button.Set]struct{}, len(p.Chords))
	for i, c := range p.Chords {
		if c.Buttons.Len() < 2 {
			return fmt.Errorf("chord %d (%s): %w", i, c.Name, ErrChordTooSmall)
		}
		if _, dup := seen[c.Buttons]; dup {
			return fmt.Errorf("chord %d (%s): %w", i, c.Name, ErrDuplicateChord)
		}
		seen[c.Buttons] = struct{}{}
	}
	for i, s := range p.Sequences {
		if len(s.Steps) < 2 {
			return fmt.Errorf("sequence %d (%s): %w", i, s.Name, ErrSequenceTooShort)
		}
		for _, b := range s.Steps {
			if !b.Valid() {
				return fmt.Errorf("sequence %d (%s): invalid step button", i, s.Name)
			}
		}
	}
	return nil
}
