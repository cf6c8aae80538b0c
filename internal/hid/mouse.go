package hid

import "sync"

// Mouse assembles 4-byte boot-protocol mouse reports:
// [buttons, dx, dy, wheel].
type Mouse struct {
	mu      sync.Mutex
	w       reportWriter
	buttons byte
}

func newMouse(w reportWriter) *Mouse {
	return &Mouse{w: w}
}

// Press sets the button bits given by code (a bitmask, not a usage).
func (m *Mouse) Press(code uint16) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.buttons |= byte(code)
	return m.w.WriteReport([]byte{m.buttons, 0, 0, 0})
}

// Release clears the button bits given by code.
func (m *Mouse) Release(code uint16) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.buttons &^= byte(code)
	return m.w.WriteReport([]byte{m.buttons, 0, 0, 0})
}

// ReleaseAll clears every button.
func (m *Mouse) ReleaseAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.buttons = 0
	return m.w.WriteReport([]byte{0, 0, 0, 0})
}

// Move sends a relative motion report. Deltas are clamped to the int8 range
// of the boot protocol.
func (m *Mouse) Move(dx, dy, wheel int32) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.w.WriteReport([]byte{m.buttons, clampInt8(dx), clampInt8(dy), clampInt8(wheel)})
}

func clampInt8(v int32) byte {
	if v > 127 {
		v = 127
	} else if v < -127 {
		v = -127
	}
	return byte(int8(v))
}
