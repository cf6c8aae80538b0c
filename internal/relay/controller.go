package relay

import (
	"context"
	"errors"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/quaxalber/bluetooth-2-hid/internal/hid"
)

// ControllerConfig selects which devices the controller relays and how.
// AutoDiscover and DeviceIdentifiers are mutually exclusive: with
// AutoDiscover every device is relayed except names starting with one of
// SkipNamePrefixes; otherwise a device must match one of the identifiers.
type ControllerConfig struct {
	DeviceIdentifiers []string
	AutoDiscover      bool
	SkipNamePrefixes  []string
	Relay             RelayOptions

	// Open and List default to the evdev implementations; tests substitute
	// fakes.
	Open OpenFunc
	List func() ([]string, error)
}

// Controller supervises the set of active device relays: it owns the
// tracked-device table, applies the matching rule, spawns and cancels relay
// tasks, and keeps the devices-present gate component current.
type Controller struct {
	ids          []Identifier
	autoDiscover bool
	skipPrefixes []string
	relayOpts    RelayOptions
	open         OpenFunc
	list         func() ([]string, error)

	outputs hid.OutputSet
	gate    *Gate
	toggler *ShortcutToggler

	mu      sync.Mutex
	tracked map[string]*trackedDevice
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

type trackedDevice struct {
	dev    InputDevice
	cancel context.CancelFunc
}

// NewController wires a controller to the shared gadget set, gate, and
// optional toggler.
func NewController(cfg ControllerConfig, outputs hid.OutputSet, gate *Gate, toggler *ShortcutToggler) *Controller {
	ids := make([]Identifier, 0, len(cfg.DeviceIdentifiers))
	for _, raw := range cfg.DeviceIdentifiers {
		ids = append(ids, NewIdentifier(raw))
	}

	open := cfg.Open
	if open == nil {
		open = OpenDevice
	}
	list := cfg.List
	if list == nil {
		list = ListDevicePaths
	}

	return &Controller{
		ids:          ids,
		autoDiscover: cfg.AutoDiscover,
		skipPrefixes: cfg.SkipNamePrefixes,
		relayOpts:    cfg.Relay,
		open:         open,
		list:         list,
		outputs:      outputs,
		gate:         gate,
		toggler:      toggler,
		tracked:      make(map[string]*trackedDevice),
	}
}

// Start binds the controller to its supervising context. Relays spawned
// afterwards are children of it.
func (c *Controller) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ctx, c.cancel = context.WithCancel(ctx)
}

// LoadInitialDevices enumerates the input nodes present at startup and adds
// each one that passes the matching rule.
func (c *Controller) LoadInitialDevices() error {
	paths, err := c.list()
	if err != nil {
		return err
	}
	for _, path := range paths {
		c.AddDevice(path)
	}
	return nil
}

// AddDevice opens the device and spawns a relay task for it. A path that
// vanished, fails to open, fails the matching rule, or is already tracked is
// a no-op.
func (c *Controller) AddDevice(path string) {
	c.mu.Lock()
	if c.ctx == nil {
		c.mu.Unlock()
		log.Warnf("Controller not started; ignoring %s", path)
		return
	}
	if _, ok := c.tracked[path]; ok {
		c.mu.Unlock()
		log.Debugf("Device %s is already active", path)
		return
	}
	c.mu.Unlock()

	dev, err := c.open(path)
	if err != nil {
		log.Debugf("%s vanished before it could be opened: %v", path, err)
		return
	}

	if !c.shouldRelay(dev) {
		log.Debugf("Not relaying %s (%s)", dev.Name(), path)
		dev.Close()
		return
	}

	rel := NewDeviceRelay(dev, c.outputs, c.gate, c.toggler, c.relayOpts)

	c.mu.Lock()
	if c.ctx == nil || c.ctx.Err() != nil {
		c.mu.Unlock()
		dev.Close()
		return
	}
	if _, ok := c.tracked[path]; ok {
		c.mu.Unlock()
		dev.Close()
		return
	}
	relayCtx, cancel := context.WithCancel(c.ctx)
	c.tracked[path] = &trackedDevice{dev: dev, cancel: cancel}
	c.wg.Add(1)
	c.mu.Unlock()

	c.updateDevicesPresent()
	log.Infof("Activated %s", rel)

	go func() {
		defer c.wg.Done()
		// Relays that end on their own remove themselves so the table
		// never holds stale entries.
		defer c.RemoveDevice(path)

		err := rel.Run(relayCtx)
		switch {
		case errors.Is(err, context.Canceled):
			log.Debugf("Relay cancelled for %s", path)
		case err != nil:
			log.Warnf("Lost connection to %s: %v", path, err)
		}
	}()
}

// RemoveDevice cancels the relay for the path and drops it from the table.
// Unknown paths are a no-op; calling it twice is safe.
func (c *Controller) RemoveDevice(path string) {
	c.mu.Lock()
	td, ok := c.tracked[path]
	if ok {
		delete(c.tracked, path)
	}
	c.mu.Unlock()

	if !ok {
		log.Debugf("No active relay for %s to remove", path)
		return
	}

	log.Debugf("Cancelling relay for %s", path)
	td.cancel()
	c.updateDevicesPresent()
}

// RemoveDevicesByNamePrefix cancels every relay whose device name starts
// with the prefix. Used when a Bluetooth peer drops its connection.
func (c *Controller) RemoveDevicesByNamePrefix(prefix string) {
	c.mu.Lock()
	var paths []string
	for path, td := range c.tracked {
		if strings.HasPrefix(td.dev.Name(), prefix) {
			paths = append(paths, path)
		}
	}
	c.mu.Unlock()

	for _, path := range paths {
		log.Infof("Bluetooth device %q disconnected, stopping relay for %s", prefix, path)
		c.RemoveDevice(path)
	}
}

// TrackedPaths returns a snapshot of the relayed device paths.
func (c *Controller) TrackedPaths() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	paths := make([]string, 0, len(c.tracked))
	for path := range c.tracked {
		paths = append(paths, path)
	}
	return paths
}

// Close cancels every relay and waits for all of them to unwind their
// grab/ungrab guards.
func (c *Controller) Close() {
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.wg.Wait()
}

// shouldRelay applies the matching rule: skip-prefix exclusion in
// auto-discovery mode, identifier matching in explicit mode.
func (c *Controller) shouldRelay(dev InputDevice) bool {
	if c.autoDiscover {
		name := strings.ToLower(dev.Name())
		for _, prefix := range c.skipPrefixes {
			if strings.HasPrefix(name, strings.ToLower(prefix)) {
				return false
			}
		}
		return true
	}

	for _, id := range c.ids {
		if id.Matches(dev) {
			return true
		}
	}
	return false
}

// updateDevicesPresent recomputes the devices-present gate component from
// whether the table is non-empty.
func (c *Controller) updateDevicesPresent() {
	c.mu.Lock()
	present := len(c.tracked) > 0
	c.mu.Unlock()

	if present {
		c.gate.Set(GateDevicesPresent)
	} else {
		c.gate.Clear(GateDevicesPresent)
	}
}
