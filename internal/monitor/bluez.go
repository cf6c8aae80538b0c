package monitor

import (
	"context"

	udev "github.com/jochenvg/go-udev"
	"github.com/muka/go-bluetooth/bluez/profile/adapter"
	log "github.com/sirupsen/logrus"
)

// BluezSink is the controller surface the disconnect sweep needs.
type BluezSink interface {
	RemoveDevicesByNamePrefix(prefix string)
}

// BluezMonitor reacts to bluetooth subsystem uevents by asking BlueZ which
// peers dropped their connection, then removes the matching relays by name.
// The kernel keeps a disconnected peer's input node around for a while, so
// without this sweep a vanished keyboard would stay grabbed until udev
// notices.
type BluezMonitor struct {
	adapterID string
	sink      BluezSink
}

// NewBluezMonitor watches the given adapter (e.g. "hci0").
func NewBluezMonitor(adapterID string, sink BluezSink) *BluezMonitor {
	return &BluezMonitor{adapterID: adapterID, sink: sink}
}

// Run subscribes to bluetooth uevents until the context is cancelled.
func (m *BluezMonitor) Run(ctx context.Context) error {
	u := udev.Udev{}
	mon := u.NewMonitorFromNetlink("udev")
	if err := mon.FilterAddMatchSubsystem("bluetooth"); err != nil {
		return err
	}
	ch, err := mon.DeviceChan(ctx)
	if err != nil {
		return err
	}

	log.Debugf("BlueZ disconnect monitor started on %s", m.adapterID)
	for device := range ch {
		if action := device.Action(); action != "add" && action != "remove" {
			continue
		}
		names, err := m.disconnectedDevices()
		if err != nil {
			log.Errorf("Error checking disconnected Bluetooth devices: %v", err)
			continue
		}
		for _, name := range names {
			m.sink.RemoveDevicesByNamePrefix(name)
		}
	}
	return ctx.Err()
}

// disconnectedDevices returns the names of known peers that are currently
// disconnected and not re-connected under the same name.
func (m *BluezMonitor) disconnectedDevices() ([]string, error) {
	a, err := adapter.GetAdapter(m.adapterID)
	if err != nil {
		return nil, err
	}

	devices, err := a.GetDevices()
	if err != nil {
		return nil, err
	}

	connected := make(map[string]bool)
	var disconnected []string
	for _, dev := range devices {
		name, err := dev.GetName()
		if err != nil || name == "" {
			continue
		}
		isConnected, err := dev.GetConnected()
		if err != nil {
			continue
		}
		if isConnected {
			connected[name] = true
		} else {
			disconnected = append(disconnected, name)
		}
	}

	var results []string
	seen := make(map[string]bool)
	for _, name := range disconnected {
		if connected[name] || seen[name] {
			continue
		}
		seen[name] = true
		results = append(results, name)
	}
	return results, nil
}
