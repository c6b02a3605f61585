package mapping

import (
	"errors"
	"fmt"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/dshills/controlmap/internal/button"
)

// ErrInvalidProfile is returned when the profile document is not valid JSON.
var ErrInvalidProfile = errors.New("invalid profile document")

// LoadProfile parses a profile JSON document into an immutable Profile.
// The document shape is owned by the profile-management subsystem; this
// reader is tolerant of missing sections but strict about unknown
// button, key and gesture names so broken profiles surface early.
func LoadProfile(doc []byte) (*Profile, error) {
	if !gjson.ValidBytes(doc) {
		return nil, ErrInvalidProfile
	}
	root := gjson.ParseBytes(doc)

	p := NewProfile(root.Get("name").String())

	var firstErr error
	saveErr := func(err error) {
		if firstErr == nil {
			firstErr = err
		}
	}

	root.Get("buttons").ForEach(func(key, value gjson.Result) bool {
		b, err := button.Parse(key.String())
		if err != nil {
			saveErr(fmt.Errorf("buttons: %w", err))
			return false
		}
		m, err := parseMapping(value)
		if err != nil {
			saveErr(fmt.Errorf("buttons.%s: %w", key.String(), err))
			return false
		}
		if !m.IsEmpty() {
			p.Buttons[b] = m
		}
		return true
	})

	for i, c := range root.Get("chords").Array() {
		var set button.Set
		for _, name := range c.Get("buttons").Array() {
			b, err := button.Parse(name.String())
			if err != nil {
				saveErr(fmt.Errorf("chords[%d]: %w", i, err))
				continue
			}
			set = set.Add(b)
		}
		action, err := parseMapping(c.Get("action"))
		if err != nil {
			saveErr(fmt.Errorf("chords[%d]: %w", i, err))
			continue
		}
		p.Chords = append(p.Chords, ChordMapping{
			Buttons: set,
			Action:  action,
			Name:    c.Get("name").String(),
		})
	}

	for i, s := range root.Get("sequences").Array() {
		var steps []button.Button
		for _, name := range s.Get("steps").Array() {
			b, err := button.Parse(name.String())
			if err != nil {
				saveErr(fmt.Errorf("sequences[%d]: %w", i, err))
				continue
			}
			steps = append(steps, b)
		}
		action, err := parseMapping(s.Get("action"))
		if err != nil {
			saveErr(fmt.Errorf("sequences[%d]: %w", i, err))
			continue
		}
		p.Sequences = append(p.Sequences, SequenceMapping{
			Steps:       steps,
			StepTimeout: time.Duration(s.Get("stepTimeoutMs").Int()) * time.Millisecond,
			Action:      action,
			Name:        s.Get("name").String(),
		})
	}

	for i, g := range root.Get("gestures").Array() {
		kind, ok := ParseGestureKind(g.Get("kind").String())
		if !ok {
			saveErr(fmt.Errorf("gestures[%d]: unknown gesture kind %q", i, g.Get("kind").String()))
			continue
		}
		action, err := parseMapping(g.Get("action"))
		if err != nil {
			saveErr(fmt.Errorf("gestures[%d]: %w", i, err))
			continue
		}
		p.Gestures = append(p.Gestures, GestureMapping{Kind: kind, Action: action})
	}

	if analog := root.Get("analog"); analog.Exists() {
		p.Analog = parseAnalog(analog, p.Analog)
	}

	for _, m := range root.Get("macros").Array() {
		macro := Macro{
			ID:   m.Get("id").String(),
			Name: m.Get("name").String(),
		}
		for _, st := range m.Get("steps").Array() {
			step := MacroStep{
				Text:  st.Get("text").String(),
				Delay: time.Duration(st.Get("delayMs").Int()) * time.Millisecond,
			}
			if name := st.Get("key").String(); name != "" {
				if code, ok := ParseKeyCode(name); ok {
					step.Key = code
				}
			}
			step.Modifiers = parseModifiers(st.Get("modifiers"))
			macro.Steps = append(macro.Steps, step)
		}
		if macro.ID != "" {
			p.Macros[macro.ID] = macro
		}
	}

	for _, s := range root.Get("scripts").Array() {
		script := Script{
			ID:     s.Get("id").String(),
			Name:   s.Get("name").String(),
			Source: s.Get("source").String(),
		}
		if script.ID != "" {
			p.Scripts[script.ID] = script
		}
	}

	if firstErr != nil {
		return nil, firstErr
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// parseMapping reads one KeyMapping object, recursing into the nested
// longHold and doubleTap alternates.
func parseMapping(v gjson.Result) (KeyMapping, error) {
	if !v.Exists() || v.Type == gjson.Null {
		return KeyMapping{}, nil
	}
	var m KeyMapping
	if name := v.Get("key").String(); name != "" {
		code, ok := ParseKeyCode(name)
		if !ok {
			return KeyMapping{}, fmt.Errorf("unknown key %q", name)
		}
		m.Key = code
	}
	m.Modifiers = parseModifiers(v.Get("modifiers"))
	m.HoldModifiers = v.Get("holdModifiers").Bool()
	m.Macro = v.Get("macro").String()
	m.Script = v.Get("script").String()
	m.SystemCommand = v.Get("systemCommand").String()
	m.Label = v.Get("label").String()

	if lh := v.Get("longHold"); lh.Exists() && lh.Type != gjson.Null {
		nested, err := parseMapping(lh)
		if err != nil {
			return KeyMapping{}, fmt.Errorf("longHold: %w", err)
		}
		if !nested.IsEmpty() {
			m.LongHold = &nested
		}
	}
	if dt := v.Get("doubleTap"); dt.Exists() && dt.Type != gjson.Null {
		nested, err := parseMapping(dt)
		if err != nil {
			return KeyMapping{}, fmt.Errorf("doubleTap: %w", err)
		}
		if !nested.IsEmpty() {
			m.DoubleTap = &nested
		}
	}
	return m, nil
}

func parseModifiers(v gjson.Result) Modifier {
	var mods Modifier
	for _, name := range v.Array() {
		if mod, ok := ParseModifier(name.String()); ok {
			mods |= mod
		}
	}
	return mods
}

// parseAnalog overlays any present analog fields on top of defaults so
// older profiles missing newer settings keep working.
func parseAnalog(v gjson.Result, defaults AnalogSettings) AnalogSettings {
	out := defaults
	read := func(name string, dst *float64) {
		if f := v.Get(name); f.Exists() {
			*dst = f.Float()
		}
	}
	read("stickDeadzone", &out.StickDeadzone)
	read("mouseSensitivity", &out.MouseSensitivity)
	read("mouseAcceleration", &out.MouseAcceleration)
	read("scrollSensitivity", &out.ScrollSensitivity)
	read("scrollAcceleration", &out.ScrollAcceleration)
	read("touchpadSmoothing", &out.TouchpadSmoothing)
	read("scrollDominanceRatio", &out.ScrollDominanceRatio)
	read("momentumDecay", &out.MomentumDecay)
	read("momentumStopVelocity", &out.MomentumStopVelocity)
	read("momentumBoost", &out.MomentumBoost)
	return out
}

// SetButtonMapping returns a copy of the profile document with one
// button's mapping replaced, leaving every other byte of the document
// untouched. Used by configuration tooling to patch a profile without
// re-marshalling it.
func SetButtonMapping(doc []byte, b button.Button, m KeyMapping) ([]byte, error) {
	if !gjson.ValidBytes(doc) {
		return nil, ErrInvalidProfile
	}
	if !b.Valid() {
		return nil, fmt.Errorf("invalid button %v", b)
	}
	path := "buttons." + b.String()
	if m.IsEmpty() {
		return sjson.DeleteBytes(doc, path)
	}
	return sjson.SetBytes(doc, path, mappingValue(m))
}

// mappingValue converts a KeyMapping to the profile-document shape.
func mappingValue(m KeyMapping) map[string]any {
	out := make(map[string]any)
	if m.Key != KeyNone {
		out["key"] = m.Key.String()
	}
	if m.Modifiers != ModNone {
		var names []string
		m.Modifiers.Each(func(mod Modifier) {
			names = append(names, mod.String())
		})
		out["modifiers"] = names
	}
	if m.HoldModifiers {
		out["holdModifiers"] = true
	}
	if m.Macro != "" {
		out["macro"] = m.Macro
	}
	if m.Script != "" {
		out["script"] = m.Script
	}
	if m.SystemCommand != "" {
		out["systemCommand"] = m.SystemCommand
	}
	if m.Label != "" {
		out["label"] = m.Label
	}
	if m.HasLongHold() {
		out["longHold"] = mappingValue(*m.LongHold)
	}
	if m.HasDoubleTap() {
		out["doubleTap"] = mappingValue(*m.DoubleTap)
	}
	return out
}
