package relay

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
)

// fakeDeviceTable backs the controller's open and list hooks with a fixed set
// of fake devices.
type fakeDeviceTable struct {
	mu      sync.Mutex
	devices map[string]*fakeDevice
}

func newFakeDeviceTable(devices ...*fakeDevice) *fakeDeviceTable {
	table := &fakeDeviceTable{devices: make(map[string]*fakeDevice)}
	for _, d := range devices {
		table.devices[d.path] = d
	}
	return table
}

func (t *fakeDeviceTable) open(path string) (InputDevice, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	dev, ok := t.devices[path]
	if !ok {
		return nil, errors.New("no such device")
	}
	return dev, nil
}

func (t *fakeDeviceTable) list() ([]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	paths := make([]string, 0, len(t.devices))
	for path := range t.devices {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths, nil
}

func newTestController(t *testing.T, cfg ControllerConfig, table *fakeDeviceTable, gate *Gate) *Controller {
	t.Helper()
	cfg.Open = table.open
	cfg.List = table.list
	c := NewController(cfg, newFakeOutputs(), gate, nil)
	c.Start(context.Background())
	t.Cleanup(c.Close)
	return c
}

func TestControllerMatchesExplicitIdentifiers(t *testing.T) {
	table := newFakeDeviceTable(
		newFakeDevice("/dev/input/event5", "Wireless Keyboard", "AA:BB:CC:DD:EE:FF"),
		newFakeDevice("/dev/input/event6", "Logitech Mouse", ""),
	)
	gate := NewGate(GateDevicesPresent)
	c := newTestController(t, ControllerConfig{
		DeviceIdentifiers: []string{"Wireless"},
	}, table, gate)

	if err := c.LoadInitialDevices(); err != nil {
		t.Fatalf("LoadInitialDevices: %v", err)
	}

	got := c.TrackedPaths()
	if len(got) != 1 || got[0] != "/dev/input/event5" {
		t.Errorf("tracked = %v, want [/dev/input/event5]", got)
	}
	if !gate.Get(GateDevicesPresent) {
		t.Error("devices-present component not set with an active relay")
	}
}

func TestControllerMatchesByMAC(t *testing.T) {
	table := newFakeDeviceTable(
		newFakeDevice("/dev/input/event2", "BT Keyboard", "aa:bb:cc:dd:ee:ff"),
		newFakeDevice("/dev/input/event3", "BT Mouse", "11:22:33:44:55:66"),
	)
	c := newTestController(t, ControllerConfig{
		DeviceIdentifiers: []string{"AA-BB-CC-DD-EE-FF"},
	}, table, NewGate())

	if err := c.LoadInitialDevices(); err != nil {
		t.Fatalf("LoadInitialDevices: %v", err)
	}
	got := c.TrackedPaths()
	if len(got) != 1 || got[0] != "/dev/input/event2" {
		t.Errorf("tracked = %v, want [/dev/input/event2]", got)
	}
}

func TestControllerAutoDiscoverSkipsPrefixes(t *testing.T) {
	table := newFakeDeviceTable(
		newFakeDevice("/dev/input/event0", "VC4-HDMI-0", ""),
		newFakeDevice("/dev/input/event1", "AceRK Keyboard", ""),
	)
	c := newTestController(t, ControllerConfig{
		AutoDiscover:     true,
		SkipNamePrefixes: []string{"vc4-hdmi"},
	}, table, NewGate())

	if err := c.LoadInitialDevices(); err != nil {
		t.Fatalf("LoadInitialDevices: %v", err)
	}
	got := c.TrackedPaths()
	if len(got) != 1 || got[0] != "/dev/input/event1" {
		t.Errorf("tracked = %v, want [/dev/input/event1]", got)
	}
}

func TestControllerAddBeforeStartIsIgnored(t *testing.T) {
	table := newFakeDeviceTable(newFakeDevice("/dev/input/event0", "Keyboard", ""))
	cfg := ControllerConfig{AutoDiscover: true, Open: table.open, List: table.list}
	c := NewController(cfg, newFakeOutputs(), NewGate(), nil)

	c.AddDevice("/dev/input/event0")
	if got := c.TrackedPaths(); len(got) != 0 {
		t.Errorf("tracked = %v before Start, want none", got)
	}
}

func TestControllerAcceptsHotplugOnlyAfterStart(t *testing.T) {
	table := newFakeDeviceTable(newFakeDevice("/dev/input/event7", "Keyboard", ""))
	cfg := ControllerConfig{AutoDiscover: true, Open: table.open, List: table.list}
	c := NewController(cfg, newFakeOutputs(), NewGate(), nil)

	// A hot-add delivered before Start is dropped, which is why the monitors
	// must not run until the controller accepts devices.
	c.AddDevice("/dev/input/event7")
	if got := c.TrackedPaths(); len(got) != 0 {
		t.Fatalf("tracked = %v before Start, want none", got)
	}

	c.Start(context.Background())
	t.Cleanup(c.Close)
	c.AddDevice("/dev/input/event7")
	if got := c.TrackedPaths(); len(got) != 1 {
		t.Errorf("tracked = %v after Start, want one entry", got)
	}
}

func TestControllerIgnoresDuplicateAdds(t *testing.T) {
	table := newFakeDeviceTable(newFakeDevice("/dev/input/event0", "Keyboard", ""))
	c := newTestController(t, ControllerConfig{AutoDiscover: true}, table, NewGate())

	c.AddDevice("/dev/input/event0")
	c.AddDevice("/dev/input/event0")
	if got := c.TrackedPaths(); len(got) != 1 {
		t.Errorf("tracked = %v, want exactly one entry", got)
	}
}

func TestControllerIgnoresVanishedDevices(t *testing.T) {
	table := newFakeDeviceTable()
	c := newTestController(t, ControllerConfig{AutoDiscover: true}, table, NewGate())

	c.AddDevice("/dev/input/event9")
	if got := c.TrackedPaths(); len(got) != 0 {
		t.Errorf("tracked = %v, want none", got)
	}
}

func TestControllerRemoveDevice(t *testing.T) {
	table := newFakeDeviceTable(newFakeDevice("/dev/input/event0", "Keyboard", ""))
	gate := NewGate(GateDevicesPresent)
	c := newTestController(t, ControllerConfig{AutoDiscover: true}, table, gate)

	c.AddDevice("/dev/input/event0")
	if !gate.Get(GateDevicesPresent) {
		t.Fatal("devices-present not set after add")
	}

	c.RemoveDevice("/dev/input/event0")
	if got := c.TrackedPaths(); len(got) != 0 {
		t.Errorf("tracked = %v after remove, want none", got)
	}
	if gate.Get(GateDevicesPresent) {
		t.Error("devices-present still set with no relays")
	}

	// A second remove of the same path is a no-op.
	c.RemoveDevice("/dev/input/event0")
}

func TestControllerRemoveByNamePrefix(t *testing.T) {
	table := newFakeDeviceTable(
		newFakeDevice("/dev/input/event0", "BT Keyboard", ""),
		newFakeDevice("/dev/input/event1", "BT Keyboard Consumer Control", ""),
		newFakeDevice("/dev/input/event2", "USB Mouse", ""),
	)
	c := newTestController(t, ControllerConfig{AutoDiscover: true}, table, NewGate())

	if err := c.LoadInitialDevices(); err != nil {
		t.Fatalf("LoadInitialDevices: %v", err)
	}
	c.RemoveDevicesByNamePrefix("BT Keyboard")

	got := c.TrackedPaths()
	if len(got) != 1 || got[0] != "/dev/input/event2" {
		t.Errorf("tracked = %v, want [/dev/input/event2]", got)
	}
}

func TestControllerCloseStopsAllRelays(t *testing.T) {
	table := newFakeDeviceTable(
		newFakeDevice("/dev/input/event0", "Keyboard", ""),
		newFakeDevice("/dev/input/event1", "Mouse", ""),
	)
	c := newTestController(t, ControllerConfig{AutoDiscover: true}, table, NewGate())

	if err := c.LoadInitialDevices(); err != nil {
		t.Fatalf("LoadInitialDevices: %v", err)
	}
	if got := c.TrackedPaths(); len(got) != 2 {
		t.Fatalf("tracked = %v, want two entries", got)
	}

	// Close blocks until every relay goroutine has unwound.
	c.Close()

	c.AddDevice("/dev/input/event0")
	waitFor(t, "table drained", func() bool { return len(c.TrackedPaths()) == 0 })
}
