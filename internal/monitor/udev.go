package monitor

import (
	"context"
	"fmt"
	"strings"

	udev "github.com/jochenvg/go-udev"
	log "github.com/sirupsen/logrus"
)

// DeviceSink receives hotplug notifications. The relay controller
// implements it; all matching decisions stay on its side.
type DeviceSink interface {
	AddDevice(path string)
	RemoveDevice(path string)
}

const inputEventPrefix = "/dev/input/event"

// UdevMonitor forwards kernel add/remove uevents for input event nodes to
// the relay controller.
type UdevMonitor struct {
	sink DeviceSink
}

// NewUdevMonitor builds a netlink-backed hotplug monitor.
func NewUdevMonitor(sink DeviceSink) *UdevMonitor {
	return &UdevMonitor{sink: sink}
}

// Run subscribes to the input subsystem and dispatches events until the
// context is cancelled.
func (m *UdevMonitor) Run(ctx context.Context) error {
	u := udev.Udev{}
	mon := u.NewMonitorFromNetlink("udev")
	if mon == nil {
		return fmt.Errorf("udev: cannot create netlink monitor")
	}
	if err := mon.FilterAddMatchSubsystem("input"); err != nil {
		return fmt.Errorf("udev: adding input subsystem filter: %w", err)
	}

	ch, err := mon.DeviceChan(ctx)
	if err != nil {
		return fmt.Errorf("udev: opening device channel: %w", err)
	}

	log.Debug("Udev hotplug monitor started")
	return m.pump(ctx, ch)
}

// pump dispatches events until the channel closes. A channel that closes
// while the context is still live is a monitor failure and must surface as an
// error, so the caller can fall back to the filesystem watcher instead of
// losing hotplug silently.
func (m *UdevMonitor) pump(ctx context.Context, ch <-chan *udev.Device) error {
	for device := range ch {
		m.handle(device)
	}
	if ctx.Err() != nil {
		log.Debug("Udev hotplug monitor stopped")
		return ctx.Err()
	}
	return fmt.Errorf("udev: netlink event channel closed")
}

func (m *UdevMonitor) handle(device *udev.Device) {
	node := device.Devnode()
	if !strings.HasPrefix(node, inputEventPrefix) {
		return
	}

	switch device.Action() {
	case "add":
		log.Debugf("Udev: added %s", node)
		m.sink.AddDevice(node)
	case "remove":
		log.Debugf("Udev: removed %s", node)
		m.sink.RemoveDevice(node)
	}
}
