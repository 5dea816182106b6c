package hotplug

import (
	"context"
	"errors"
)

// Actions that may mean a disc was inserted.
const (
	ActionAdd    = "add"
	ActionChange = "change"
	ActionRemove = "remove"
)

// ErrUnsupported is returned where udev monitoring is not available.
var ErrUnsupported = errors.New("hotplug: udev monitoring not supported on this build")

// Event is a block-subsystem uevent.
type Event struct {
	Action  string
	Devnode string
	CDROM   bool
}

// Triggers reports whether the event should cause a re-identification.
func (e Event) Triggers() bool {
	return e.Action == ActionAdd || e.Action == ActionChange
}

// Source produces block device events until ctx is done.
type Source interface {
	Events(ctx context.Context) (<-chan Event, error)
}
