package relay

import (
	"fmt"
	"sort"
	"strings"

	evdev "github.com/holoplot/go-evdev"
)

// InputDevice is the slice of an evdev device the relay engine needs.
type InputDevice interface {
	Path() string
	// Name is the device's display name.
	Name() string
	// UniqueID is the device's unique identifier; for Bluetooth devices
	// this is the peer's MAC address.
	UniqueID() string
	Grab() error
	Ungrab() error
	// ReadOne blocks until the kernel delivers the next event. Closing the
	// device unblocks it with an error.
	ReadOne() (*evdev.InputEvent, error)
	Close() error
}

// OpenFunc opens an input device by path. The controller takes one so tests
// can substitute fake devices.
type OpenFunc func(path string) (InputDevice, error)

type evdevDevice struct {
	dev  *evdev.InputDevice
	path string
	name string
	uniq string
}

// OpenDevice opens a /dev/input/event* node. Name and unique id are read
// once at open; devices that expose neither are still usable.
func OpenDevice(path string) (InputDevice, error) {
	dev, err := evdev.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	name, err := dev.Name()
	if err != nil {
		name = ""
	}
	uniq, err := dev.UniqueID()
	if err != nil {
		uniq = ""
	}

	return &evdevDevice{
		dev:  dev,
		path: path,
		name: strings.TrimSpace(name),
		uniq: strings.TrimSpace(uniq),
	}, nil
}

func (d *evdevDevice) Path() string     { return d.path }
func (d *evdevDevice) Name() string     { return d.name }
func (d *evdevDevice) UniqueID() string { return d.uniq }
func (d *evdevDevice) Grab() error      { return d.dev.Grab() }
func (d *evdevDevice) Ungrab() error    { return d.dev.Ungrab() }
func (d *evdevDevice) Close() error     { return d.dev.Close() }

func (d *evdevDevice) ReadOne() (*evdev.InputEvent, error) {
	return d.dev.ReadOne()
}

func (d *evdevDevice) String() string {
	if d.name != "" {
		return fmt.Sprintf("%s (%s)", d.name, d.path)
	}
	return d.path
}

// ListDevicePaths enumerates the currently present input event nodes.
func ListDevicePaths() ([]string, error) {
	devicePaths, err := evdev.ListDevicePaths()
	if err != nil {
		return nil, fmt.Errorf("listing input devices: %w", err)
	}
	paths := make([]string, 0, len(devicePaths))
	for _, p := range devicePaths {
		paths = append(paths, p.Path)
	}
	sort.Strings(paths)
	return paths, nil
}
