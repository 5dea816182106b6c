//go:build linux && cgo

package hotplug

import (
	"context"
	"fmt"

	"RaspCD/logger"

	"github.com/jochenvg/go-udev"
)

// Udev listens to the udev netlink socket for block devices.
type Udev struct{}

// NewUdev returns the udev-backed event source.
func NewUdev() Source {
	return Udev{}
}

// Events subscribes to block-subsystem uevents.
func (Udev) Events(ctx context.Context) (<-chan Event, error) {
	u := udev.Udev{}
	m := u.NewMonitorFromNetlink("udev")
	if m == nil {
		return nil, fmt.Errorf("open udev netlink monitor")
	}
	if err := m.FilterAddMatchSubsystem("block"); err != nil {
		return nil, fmt.Errorf("filter udev monitor: %w", err)
	}

	devices, errs, err := m.DeviceChan(ctx)
	if err != nil {
		return nil, fmt.Errorf("start udev monitor: %w", err)
	}

	out := make(chan Event)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-errs:
				if !ok {
					errs = nil
					continue
				}
				logger.Warn("udev monitor error", logger.ErrorField(err))
			case d, ok := <-devices:
				if !ok {
					return
				}
				ev := Event{
					Action:  d.Action(),
					Devnode: d.Devnode(),
					CDROM:   d.PropertyValue("ID_CDROM") == "1",
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
