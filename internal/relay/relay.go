package relay

import (
	"context"
	"errors"
	"fmt"
	"time"

	evdev "github.com/holoplot/go-evdev"
	log "github.com/sirupsen/logrus"

	"github.com/quaxalber/bluetooth-2-hid/internal/hid"
	"github.com/quaxalber/bluetooth-2-hid/internal/translate"
)

// Outcome is the result of relaying one event to the gadget.
type Outcome int

const (
	// OutcomeDelivered means the report reached the host.
	OutcomeDelivered Outcome = iota
	// OutcomeDroppedBusy means the endpoint stayed busy through all allowed
	// attempts and the event was dropped.
	OutcomeDroppedBusy
	// OutcomeLinkLost means the endpoint pipe is gone; relaying pauses
	// until the UDC reports the host configured again.
	OutcomeLinkLost
	// OutcomeFailed means an unexpected write error, logged and skipped.
	OutcomeFailed
)

// RelayOptions tunes a single device relay.
type RelayOptions struct {
	// Grab requests exclusive access to the device while relaying is
	// active. Grab failures are non-fatal.
	Grab bool
	// Retries is the number of extra attempts after a busy write.
	Retries int
	// RetryDelay is the pause before each retry.
	RetryDelay time.Duration
}

// DeviceRelay owns one input device's read loop and forwards its events to
// the USB HID gadgets.
type DeviceRelay struct {
	dev     InputDevice
	outputs hid.OutputSet
	gate    *Gate
	toggler *ShortcutToggler
	opts    RelayOptions

	grabbed    bool
	grabWarned bool
}

// NewDeviceRelay binds a relay to an opened device. The toggler may be nil.
func NewDeviceRelay(dev InputDevice, outputs hid.OutputSet, gate *Gate, toggler *ShortcutToggler, opts RelayOptions) *DeviceRelay {
	return &DeviceRelay{
		dev:     dev,
		outputs: outputs,
		gate:    gate,
		toggler: toggler,
		opts:    opts,
	}
}

func (r *DeviceRelay) String() string {
	if name := r.dev.Name(); name != "" {
		return fmt.Sprintf("relay for %s (%s)", name, r.dev.Path())
	}
	return fmt.Sprintf("relay for %s", r.dev.Path())
}

// Run reads events until the context is cancelled or the device fails. The
// device is closed and ungrabbed on every exit path. Cancellation is
// returned as ctx.Err(); anything else is the read error.
func (r *DeviceRelay) Run(ctx context.Context) error {
	// Closing the device is the only way to unblock a pending ReadOne.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			r.dev.Close()
		case <-done:
		}
	}()

	defer r.dev.Close()
	defer r.ungrab()

	r.syncGrab(r.gate.Active())

	for {
		event, err := r.dev.ReadOne()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("reading from %s: %w", r.dev.Path(), err)
		}
		r.handleEvent(ctx, event)
	}
}

// handleEvent feeds the toggler, applies the gate, keeps the grab state in
// sync with it, and dispatches the event.
func (r *DeviceRelay) handleEvent(ctx context.Context, event *evdev.InputEvent) {
	// The toggler sees every key event before the gate so that the toggle
	// shortcut works while relaying is paused.
	if event.Type == evdev.EV_KEY && r.toggler != nil {
		r.toggler.HandleKey(event.Code, event.Value)
	}

	active := r.gate.Active()
	r.syncGrab(active)
	if !active {
		return
	}

	switch event.Type {
	case evdev.EV_REL:
		r.relayMotion(ctx, event)
	case evdev.EV_KEY:
		r.relayKey(ctx, event)
	}
}

func (r *DeviceRelay) relayMotion(ctx context.Context, event *evdev.InputEvent) {
	var dx, dy, wheel int32
	switch event.Code {
	case evdev.REL_X:
		dx = event.Value
	case evdev.REL_Y:
		dy = event.Value
	case evdev.REL_WHEEL:
		wheel = event.Value
	default:
		return
	}

	mouse, err := r.outputs.Mouse()
	if err != nil {
		log.Debugf("Mouse gadget unavailable: %v", err)
		return
	}
	r.send(ctx, func() error { return mouse.Move(dx, dy, wheel) })
}

func (r *DeviceRelay) relayKey(ctx context.Context, event *evdev.InputEvent) {
	// Key repeats never reach the host; USB HID hosts do their own
	// typematic.
	if event.Value != 1 && event.Value != 0 {
		return
	}

	class, code, ok := translate.Lookup(event.Code)
	if !ok {
		log.Debugf("No HID mapping for %s, dropping", evdev.CodeName(event.Type, event.Code))
		return
	}

	var sink hid.KeySink
	var err error
	switch class {
	case translate.ClassConsumer:
		sink, err = r.outputs.Consumer()
	case translate.ClassMouseButton:
		sink, err = r.outputs.Mouse()
	default:
		sink, err = r.outputs.Keyboard()
	}
	if err != nil {
		log.Debugf("%s gadget unavailable: %v", class, err)
		return
	}

	if event.Value == 1 {
		r.send(ctx, func() error { return sink.Press(code) })
	} else {
		r.send(ctx, func() error { return sink.Release(code) })
	}
}

// send delivers one report, retrying a bounded number of times when the
// endpoint is busy. A severed link clears the host-ready gate component so
// every relay pauses until the UDC monitor reports "configured" again.
func (r *DeviceRelay) send(ctx context.Context, write func() error) Outcome {
	for attempt := 0; ; attempt++ {
		err := write()
		switch {
		case err == nil:
			return OutcomeDelivered

		case errors.Is(err, hid.ErrWriteBusy):
			if attempt >= r.opts.Retries {
				log.Debugf("HID write blocked again, dropping event (%v)", err)
				return OutcomeDroppedBusy
			}
			log.Debug("HID write blocked, retrying...")
			select {
			case <-ctx.Done():
				return OutcomeDroppedBusy
			case <-time.After(r.opts.RetryDelay):
			}

		case errors.Is(err, hid.ErrLinkDown):
			if r.gate.Clear(GateHostReady) {
				log.Errorf("USB link severed (%v): relaying paused until the host reconnects", err)
			}
			return OutcomeLinkLost

		default:
			log.Warnf("Failed to relay event from %s: %v", r.dev.Path(), err)
			return OutcomeFailed
		}
	}
}

// syncGrab grabs or ungrabs the device to match the active state, so a
// paused relay leaves the device available to other consumers.
func (r *DeviceRelay) syncGrab(active bool) {
	if !r.opts.Grab || active == r.grabbed {
		return
	}
	if active {
		if err := r.dev.Grab(); err != nil {
			if !r.grabWarned {
				log.Warnf("Failed to grab %s, relaying ungrabbed: %v", r.dev.Path(), err)
				r.grabWarned = true
			}
			return
		}
		r.grabbed = true
		log.Debugf("Grabbed %s", r.dev.Path())
		return
	}
	r.ungrab()
}

func (r *DeviceRelay) ungrab() {
	if !r.grabbed {
		return
	}
	if err := r.dev.Ungrab(); err != nil {
		log.Debugf("Unable to ungrab %s: %v", r.dev.Path(), err)
	}
	r.grabbed = false
}
