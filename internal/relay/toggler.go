package relay

import (
	"sync"

	evdev "github.com/holoplot/go-evdev"
	log "github.com/sirupsen/logrus"

	"github.com/quaxalber/bluetooth-2-hid/internal/hid"
)

// ShortcutToggler watches every key event flowing through any relay and
// flips the gate's manual override when the configured combination is fully
// pressed. It performs no I/O of its own besides releasing the output
// gadgets when relaying turns off.
type ShortcutToggler struct {
	mu          sync.Mutex
	target      map[evdev.EvCode]struct{}
	pressed     map[evdev.EvCode]struct{}
	gate        *Gate
	outputs     hid.OutputSet
	description string
}

// NewShortcutToggler builds a toggler for the given target keys and enables
// the manual component on the gate.
func NewShortcutToggler(keys []evdev.EvCode, description string, gate *Gate, outputs hid.OutputSet) *ShortcutToggler {
	target := make(map[evdev.EvCode]struct{}, len(keys))
	for _, k := range keys {
		target[k] = struct{}{}
	}
	gate.Enable(GateManual)
	return &ShortcutToggler{
		target:      target,
		pressed:     make(map[evdev.EvCode]struct{}),
		gate:        gate,
		outputs:     outputs,
		description: description,
	}
}

// HandleKey updates the pressed set from a key event and toggles when the
// full combination is down. Key repeats (value 2) are ignored.
func (t *ShortcutToggler) HandleKey(code evdev.EvCode, value int32) {
	if len(t.target) == 0 {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	switch value {
	case 1:
		t.pressed[code] = struct{}{}
	case 0:
		delete(t.pressed, code)
	default:
		return
	}

	for k := range t.target {
		if _, ok := t.pressed[k]; !ok {
			return
		}
	}
	t.toggle()
}

// toggle flips the manual override. Clearing the pressed set on every flip
// means the combination cannot re-fire until it has been fully released and
// pressed again.
func (t *ShortcutToggler) toggle() {
	active := t.gate.Toggle(GateManual)
	t.pressed = make(map[evdev.EvCode]struct{})

	if active {
		log.Infof("Shortcut %s pressed: relaying resumed", t.description)
		return
	}

	log.Infof("Shortcut %s pressed: relaying paused", t.description)
	t.releaseOutputs()
}

// releaseOutputs force-releases keyboard and mouse so nothing stays stuck
// down on the host while relaying is paused.
func (t *ShortcutToggler) releaseOutputs() {
	if t.outputs == nil {
		return
	}
	if kb, err := t.outputs.Keyboard(); err == nil {
		if err := kb.ReleaseAll(); err != nil {
			log.Warnf("Failed releasing keyboard keys: %v", err)
		}
	}
	if mouse, err := t.outputs.Mouse(); err == nil {
		if err := mouse.ReleaseAll(); err != nil {
			log.Warnf("Failed releasing mouse buttons: %v", err)
		}
	}
}
