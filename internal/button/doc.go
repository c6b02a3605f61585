// Package button defines the controller's physical controls and the
// raw event types the hardware layer reports: press and release edges,
// analog stick samples, touchpad deltas and gyroscope samples.
//
// Button is a dense enumeration usable as an array index; Set is a
// bitmask value type for chord membership, order-free by construction.
package button
