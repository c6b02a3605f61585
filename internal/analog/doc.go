// Package analog conditions raw stick and touchpad values into pointer
// and scroll deltas: circular deadzone, response curves, low-pass
// filtering and touchpad fling momentum. All functions are pure or own
// their state; nothing here touches the OS.
package analog
