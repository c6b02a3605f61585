//go:build linux

package hardware

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/dshills/controlmap/internal/button"
)

// Joystick ioctl request codes.
const (
	jsiocName    = 0x80006a13 + (128 << 16)
	jsiocAxes    = 0x80016a11
	jsiocButtons = 0x80016a12
)

// Joystick event types. The init flag marks synthetic events the
// kernel replays on open to describe current state.
const (
	jsEventButton = 0x01
	jsEventAxis   = 0x02
	jsEventInit   = 0x80
)

// jsEvent is the kernel's 8-byte joystick event record.
type jsEvent struct {
	Time   uint32
	Value  int16
	Type   uint8
	Number uint8
}

// Axis indices in the common xpad layout.
const (
	axisLeftX = iota
	axisLeftY
	axisLeftTrigger
	axisRightX
	axisRightY
	axisRightTrigger
	axisHatX
	axisHatY
)

// buttonIndex maps joystick button numbers (xpad layout) to controls.
// Paddles and the touchpad are not exposed by the joystick interface.
var buttonIndex = map[uint8]button.Button{
	0:  button.A,
	1:  button.B,
	2:  button.X,
	3:  button.Y,
	4:  button.LeftBumper,
	5:  button.RightBumper,
	6:  button.View,
	7:  button.Menu,
	8:  button.Guide,
	9:  button.LeftThumb,
	10: button.RightThumb,
}

// axisMax is the kernel's full-scale axis value.
const axisMax = 32767.0

// triggerThreshold is the normalized pull past which a trigger axis
// reports as a digital button.
const triggerThreshold = 0.5

// Device is one open joystick device. Run owns the file; the zero
// value is not usable.
type Device struct {
	file *os.File
	info DeviceInfo

	// Digital edge state synthesized from axes and buttons.
	pressAt  [button.Count]time.Time
	pressed  [button.Count]bool
	leftX    float64
	leftY    float64
	rightX   float64
	rightY   float64
	ltPulled bool
	rtPulled bool
	hatX     int
	hatY     int
}

// Open opens the joystick device at path and reads its identity.
func Open(path string) (*Device, error) {
	f, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	d := &Device{file: f, info: DeviceInfo{Path: path}}

	var name [128]byte
	if err := ioctl(f, jsiocName, unsafe.Pointer(&name[0])); err == nil {
		d.info.Model = cString(name[:])
	}
	var buttons, axes uint8
	if err := ioctl(f, jsiocButtons, unsafe.Pointer(&buttons)); err == nil {
		d.info.Buttons = int(buttons)
	}
	if err := ioctl(f, jsiocAxes, unsafe.Pointer(&axes)); err == nil {
		d.info.Axes = int(axes)
	}
	return d, nil
}

// OpenFirst opens the lowest-numbered joystick device present.
func OpenFirst() (*Device, error) {
	paths, err := filepath.Glob("/dev/input/js*")
	if err != nil || len(paths) == 0 {
		return nil, ErrNoDevice
	}
	sort.Strings(paths)
	return Open(paths[0])
}

// Info returns the device identity read at open time.
func (d *Device) Info() DeviceInfo {
	return d.info
}

// Close closes the device. A blocked Run read returns with an error
// afterwards.
func (d *Device) Close() error {
	return d.file.Close()
}

// Run reads device events and feeds the handler until the context is
// canceled or the device read fails (typically on unplug). It blocks;
// callers run it on its own goroutine.
func (d *Device) Run(ctx context.Context, h Handler) error {
	for {
		var e jsEvent
		if err := binary.Read(d.file, binary.LittleEndian, &e); err != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			return fmt.Errorf("reading %s: %w", d.info.Path, err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		d.translate(e, h, time.Now())
	}
}

// translate converts one kernel event into handler callbacks. Init
// events seed state without firing press edges so reopening a device
// with a held trigger cannot inject phantom input.
func (d *Device) translate(e jsEvent, h Handler, now time.Time) {
	init := e.Type&jsEventInit != 0
	switch e.Type &^ jsEventInit {
	case jsEventButton:
		b, ok := buttonIndex[e.Number]
		if !ok {
			return
		}
		d.setButton(b, e.Value != 0, h, now, init)

	case jsEventAxis:
		d.axis(e.Number, float64(e.Value)/axisMax, h, now, init)
	}
}

// setButton emits the press or release edge for a digital control.
func (d *Device) setButton(b button.Button, down bool, h Handler, now time.Time, init bool) {
	if d.pressed[b] == down {
		return
	}
	d.pressed[b] = down
	if init {
		if down {
			d.pressAt[b] = now
		}
		return
	}
	if down {
		d.pressAt[b] = now
		h.HandleButtonDown(button.PressEvent{Button: b, Time: now})
		return
	}
	var held time.Duration
	if !d.pressAt[b].IsZero() {
		held = now.Sub(d.pressAt[b])
	}
	h.HandleButtonUp(button.ReleaseEvent{Button: b, HoldDuration: held, Time: now})
}

// axis routes one axis sample: sticks to the analog path, triggers and
// the hat to synthesized digital edges.
func (d *Device) axis(number uint8, v float64, h Handler, now time.Time, init bool) {
	if !normOK(v) {
		return
	}
	switch number {
	case axisLeftX:
		d.leftX = v
		h.HandleStickMove(button.StickSample{Axis: button.StickLeft, X: d.leftX, Y: d.leftY})
	case axisLeftY:
		d.leftY = v
		h.HandleStickMove(button.StickSample{Axis: button.StickLeft, X: d.leftX, Y: d.leftY})
	case axisRightX:
		d.rightX = v
		h.HandleStickMove(button.StickSample{Axis: button.StickRight, X: d.rightX, Y: d.rightY})
	case axisRightY:
		d.rightY = v
		h.HandleStickMove(button.StickSample{Axis: button.StickRight, X: d.rightX, Y: d.rightY})

	case axisLeftTrigger:
		pulled := triggerPull(v) >= triggerThreshold
		if pulled != d.ltPulled {
			d.ltPulled = pulled
			d.setButton(button.LeftTrigger, pulled, h, now, init)
		}
	case axisRightTrigger:
		pulled := triggerPull(v) >= triggerThreshold
		if pulled != d.rtPulled {
			d.rtPulled = pulled
			d.setButton(button.RightTrigger, pulled, h, now, init)
		}

	case axisHatX:
		dir := hatDirection(v)
		if dir != d.hatX {
			d.setButton(button.DPadLeft, dir < 0, h, now, init)
			d.setButton(button.DPadRight, dir > 0, h, now, init)
			d.hatX = dir
		}
	case axisHatY:
		dir := hatDirection(v)
		if dir != d.hatY {
			d.setButton(button.DPadUp, dir < 0, h, now, init)
			d.setButton(button.DPadDown, dir > 0, h, now, init)
			d.hatY = dir
		}
	}
}

// triggerPull maps the trigger axis range [-1, 1] (rest to full pull)
// onto [0, 1].
func triggerPull(v float64) float64 {
	return (v + 1) / 2
}

// hatDirection quantizes a hat axis to -1, 0 or 1.
func hatDirection(v float64) int {
	switch {
	case v < -0.5:
		return -1
	case v > 0.5:
		return 1
	default:
		return 0
	}
}

// ioctl issues a read ioctl on the device file.
func ioctl(f *os.File, req uintptr, dest unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, f.Fd(), req, uintptr(dest))
	if errno != 0 {
		return fmt.Errorf("ioctl 0x%x: %w", req, errno)
	}
	return nil
}

// cString trims a NUL-terminated byte buffer.
func cString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

// normOK rejects out-of-range axis values from damaged devices.
func normOK(v float64) bool {
	return !math.IsNaN(v) && v >= -1.001 && v <= 1.001
}
