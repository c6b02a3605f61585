// Package hardware reads physical controller devices and translates
// raw device events into the pipeline's callbacks. The Linux joystick
// interface is the only real backend; other platforms get a stub.
package hardware

import (
	"errors"

	"github.com/dshills/controlmap/internal/button"
)

// ErrUnsupported is returned on platforms without a device backend.
var ErrUnsupported = errors.New("no controller backend for this platform")

// ErrNoDevice is returned when no controller device is present.
var ErrNoDevice = errors.New("no controller device found")

// Handler receives translated input. The pipeline implements it; all
// methods are called from the device reader goroutine.
type Handler interface {
	HandleButtonDown(ev button.PressEvent)
	HandleButtonUp(ev button.ReleaseEvent)
	HandleStickMove(s button.StickSample)
	HandleMotion(s button.MotionSample)
}

// DeviceInfo describes a connected controller.
type DeviceInfo struct {
	// Path is the device node path.
	Path string

	// Model is the device-reported name.
	Model string

	// Buttons and Axes are the device-reported control counts.
	Buttons int
	Axes    int
}
