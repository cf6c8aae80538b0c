package hid

import (
	"fmt"
	"sync"
)

// KeySink is an output endpoint accepting press/release of HID codes.
type KeySink interface {
	Press(code uint16) error
	Release(code uint16) error
	ReleaseAll() error
}

// PointerSink is a KeySink that additionally moves a pointer.
type PointerSink interface {
	KeySink
	Move(dx, dy, wheel int32) error
}

// OutputSet exposes the three gadget functions to writers. Accessors fail
// with ErrNotReady until the set has been enabled.
type OutputSet interface {
	Keyboard() (KeySink, error)
	Mouse() (PointerSink, error)
	Consumer() (KeySink, error)
}

const (
	firstModifierUsage = 224 // LEFT_CONTROL .. RIGHT_GUI occupy 224-231
	lastModifierUsage  = 231
)

// Keyboard assembles 8-byte boot-protocol keyboard reports:
// [modifiers, reserved, key1..key6].
type Keyboard struct {
	mu     sync.Mutex
	w      reportWriter
	report [8]byte
}

func newKeyboard(w reportWriter) *Keyboard {
	return &Keyboard{w: w}
}

// Press adds the key to the report and sends it. Modifier usages set their
// bit in the first byte; regular keys take one of the six slots.
func (k *Keyboard) Press(code uint16) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if code >= firstModifierUsage && code <= lastModifierUsage {
		k.report[0] |= 1 << (code - firstModifierUsage)
		return k.w.WriteReport(k.report[:])
	}

	free := -1
	for i := 2; i < len(k.report); i++ {
		if k.report[i] == byte(code) {
			return k.w.WriteReport(k.report[:])
		}
		if free < 0 && k.report[i] == 0 {
			free = i
		}
	}
	if free < 0 {
		return fmt.Errorf("keyboard: no free slot for 0x%02X (6-key roll-over)", code)
	}
	k.report[free] = byte(code)
	return k.w.WriteReport(k.report[:])
}

// Release removes the key from the report and sends it.
func (k *Keyboard) Release(code uint16) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if code >= firstModifierUsage && code <= lastModifierUsage {
		k.report[0] &^= 1 << (code - firstModifierUsage)
		return k.w.WriteReport(k.report[:])
	}
	for i := 2; i < len(k.report); i++ {
		if k.report[i] == byte(code) {
			k.report[i] = 0
		}
	}
	return k.w.WriteReport(k.report[:])
}

// ReleaseAll sends an empty report so no key stays logically stuck down on
// the host.
func (k *Keyboard) ReleaseAll() error {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.report = [8]byte{}
	return k.w.WriteReport(k.report[:])
}
