// Package mapping defines the binding model: what each button, chord,
// button sequence and motion gesture does, plus per-profile analog
// settings, macros and scripts. A Profile is an immutable snapshot;
// swapping profiles replaces the whole pointer, never mutates one in
// place.
//
// Profiles load from JSON documents via LoadProfile and patch via
// SetButtonMapping, which rewrites a single button entry in the source
// document without disturbing the rest.
package mapping
