//go:build !linux || !cgo

package hotplug

import "context"

// Udev is unavailable without Linux and cgo.
type Udev struct{}

// NewUdev returns a source whose Events always fails with ErrUnsupported.
func NewUdev() Source {
	return Udev{}
}

// Events reports ErrUnsupported.
func (Udev) Events(ctx context.Context) (<-chan Event, error) {
	return nil, ErrUnsupported
}
