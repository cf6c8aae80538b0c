// Package monitor contains the asynchronous signal sources feeding the
// relay controller: the UDC link-state poller, the udev hotplug monitor and
// its fsnotify fallback, and the optional BlueZ disconnect sweep.
package monitor

import (
	"context"
	"os"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/quaxalber/bluetooth-2-hid/internal/relay"
)

// UDC state file tokens. Anything that is not "configured" (including a
// missing file) counts as not attached.
const (
	udcStateConfigured  = "configured"
	udcStateNotAttached = "not_attached"
)

// UDCMonitor polls the USB Device Controller's state file and keeps the
// gate's host-ready component in sync with it.
type UDCMonitor struct {
	statePath string
	interval  time.Duration
	gate      *relay.Gate

	lastState string
}

// NewUDCMonitor builds a poller for the given state file.
func NewUDCMonitor(statePath string, interval time.Duration, gate *relay.Gate) *UDCMonitor {
	return &UDCMonitor{
		statePath: statePath,
		interval:  interval,
		gate:      gate,
	}
}

// Run polls until the context is cancelled. The first poll happens
// immediately so the gate does not stay stale for a full interval after
// startup.
func (m *UDCMonitor) Run(ctx context.Context) error {
	log.Debugf("UDC state monitor started on %s (every %v)", m.statePath, m.interval)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.poll()
	for {
		select {
		case <-ctx.Done():
			log.Debug("UDC state monitor stopped")
			return ctx.Err()
		case <-ticker.C:
			m.poll()
		}
	}
}

func (m *UDCMonitor) poll() {
	state := m.readState()
	if state == m.lastState {
		return
	}
	m.lastState = state

	if state == udcStateConfigured {
		if m.gate.Set(relay.GateHostReady) {
			log.Infof("USB host configured the gadget (%s)", m.statePath)
		}
		return
	}
	if m.gate.Clear(relay.GateHostReady) {
		log.Warnf("USB link state changed to %q: relaying paused", state)
	}
}

// readState reads the entire state file; a transiently absent file is
// treated as not attached, never as an error.
func (m *UDCMonitor) readState() string {
	content, err := os.ReadFile(m.statePath)
	if err != nil {
		return udcStateNotAttached
	}
	return strings.TrimSpace(string(content))
}
