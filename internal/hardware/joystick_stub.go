//go:build !linux

package hardware

import "context"

// Device is a placeholder on platforms without a backend.
type Device struct{}

// Open always fails off Linux.
func Open(path string) (*Device, error) {
	return nil, ErrUnsupported
}

// OpenFirst always fails off Linux.
func OpenFirst() (*Device, error) {
	return nil, ErrUnsupported
}

// Info returns an empty identity.
func (d *Device) Info() DeviceInfo { return DeviceInfo{} }

// Close is a no-op.
func (d *Device) Close() error { return nil }

// Run always fails off Linux.
func (d *Device) Run(ctx context.Context, h Handler) error {
	return ErrUnsupported
}

// Watch always fails off Linux.
func Watch(ctx context.Context, onAttach func(path string)) error {
	return ErrUnsupported
}
