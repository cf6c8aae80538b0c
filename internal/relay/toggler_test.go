package relay

import (
	"testing"

	evdev "github.com/holoplot/go-evdev"
)

func newTestToggler(outputs *fakeOutputs) (*ShortcutToggler, *Gate) {
	gate := NewGate()
	keys := []evdev.EvCode{evdev.KEY_LEFTSHIFT, evdev.KEY_F12}
	return NewShortcutToggler(keys, "Shift-F12", gate, outputs), gate
}

func TestTogglerEnablesManualComponent(t *testing.T) {
	_, gate := newTestToggler(newFakeOutputs())
	if !gate.Active() {
		t.Error("gate should start active with the manual component set")
	}
	gate.Toggle(GateManual)
	if gate.Active() {
		t.Error("manual component not part of the conjunction")
	}
}

func TestTogglerFiresWhenComboFullyPressed(t *testing.T) {
	outputs := newFakeOutputs()
	toggler, gate := newTestToggler(outputs)

	toggler.HandleKey(evdev.KEY_LEFTSHIFT, 1)
	if !gate.Active() {
		t.Fatal("gate toggled before the combination was complete")
	}
	toggler.HandleKey(evdev.KEY_F12, 1)
	if gate.Active() {
		t.Fatal("gate not toggled off by the full combination")
	}

	// Pausing must not leave keys stuck down on the host.
	if outputs.keyboard.releaseAllCount() != 1 {
		t.Error("keyboard not released on pause")
	}
	if outputs.mouse.releaseAllCount() != 1 {
		t.Error("mouse not released on pause")
	}
}

func TestTogglerFiresInAnyOrder(t *testing.T) {
	toggler, gate := newTestToggler(newFakeOutputs())

	toggler.HandleKey(evdev.KEY_F12, 1)
	toggler.HandleKey(evdev.KEY_LEFTSHIFT, 1)
	if gate.Active() {
		t.Error("gate not toggled when keys arrived in reverse order")
	}
}

func TestTogglerRequiresFullReleaseToRefire(t *testing.T) {
	toggler, gate := newTestToggler(newFakeOutputs())

	toggler.HandleKey(evdev.KEY_LEFTSHIFT, 1)
	toggler.HandleKey(evdev.KEY_F12, 1)
	if gate.Active() {
		t.Fatal("first activation did not toggle")
	}

	// Releasing and re-pressing only part of the combination keeps the
	// physically held remainder from re-firing.
	toggler.HandleKey(evdev.KEY_F12, 0)
	toggler.HandleKey(evdev.KEY_F12, 1)
	if gate.Active() {
		t.Error("partial re-press re-fired the toggle")
	}

	toggler.HandleKey(evdev.KEY_F12, 0)
	toggler.HandleKey(evdev.KEY_LEFTSHIFT, 0)
	toggler.HandleKey(evdev.KEY_LEFTSHIFT, 1)
	toggler.HandleKey(evdev.KEY_F12, 1)
	if !gate.Active() {
		t.Error("full release and re-press did not toggle back on")
	}
}

func TestTogglerIgnoresRepeatsAndOtherKeys(t *testing.T) {
	toggler, gate := newTestToggler(newFakeOutputs())

	toggler.HandleKey(evdev.KEY_LEFTSHIFT, 1)
	toggler.HandleKey(evdev.KEY_LEFTSHIFT, 2)
	toggler.HandleKey(evdev.KEY_A, 1)
	toggler.HandleKey(evdev.KEY_F12, 2)
	if !gate.Active() {
		t.Error("repeats or unrelated keys toggled the gate")
	}

	toggler.HandleKey(evdev.KEY_F12, 1)
	if gate.Active() {
		t.Error("combination did not toggle after noise events")
	}
}

func TestTogglerResumeDoesNotReleaseOutputs(t *testing.T) {
	outputs := newFakeOutputs()
	toggler, _ := newTestToggler(outputs)

	press := func() {
		toggler.HandleKey(evdev.KEY_LEFTSHIFT, 1)
		toggler.HandleKey(evdev.KEY_F12, 1)
		toggler.HandleKey(evdev.KEY_F12, 0)
		toggler.HandleKey(evdev.KEY_LEFTSHIFT, 0)
	}
	press() // pause
	press() // resume

	if got := outputs.keyboard.releaseAllCount(); got != 1 {
		t.Errorf("keyboard released %d times, want once (on pause only)", got)
	}
}
