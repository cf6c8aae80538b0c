package hid

import (
	"bytes"
	"testing"
)

// recordingWriter captures every report handed to it.
type recordingWriter struct {
	reports [][]byte
	err     error
}

func (w *recordingWriter) WriteReport(report []byte) error {
	if w.err != nil {
		return w.err
	}
	w.reports = append(w.reports, append([]byte(nil), report...))
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func (w *recordingWriter) last() []byte {
	if len(w.reports) == 0 {
		return nil
	}
	return w.reports[len(w.reports)-1]
}

func TestKeyboardReportLayout(t *testing.T) {
	w := &recordingWriter{}
	kb := newKeyboard(w)

	if err := kb.Press(224); err != nil { // left control
		t.Fatal(err)
	}
	if got := w.last(); !bytes.Equal(got, []byte{0x01, 0, 0, 0, 0, 0, 0, 0}) {
		t.Errorf("modifier report = %v", got)
	}

	if err := kb.Press(4); err != nil { // 'a'
		t.Fatal(err)
	}
	if got := w.last(); !bytes.Equal(got, []byte{0x01, 0, 4, 0, 0, 0, 0, 0}) {
		t.Errorf("key report = %v", got)
	}

	if err := kb.Release(224); err != nil {
		t.Fatal(err)
	}
	if got := w.last(); !bytes.Equal(got, []byte{0, 0, 4, 0, 0, 0, 0, 0}) {
		t.Errorf("report after modifier release = %v", got)
	}

	if err := kb.Release(4); err != nil {
		t.Fatal(err)
	}
	if got := w.last(); !bytes.Equal(got, []byte{0, 0, 0, 0, 0, 0, 0, 0}) {
		t.Errorf("report after key release = %v", got)
	}
}

func TestKeyboardDuplicatePressKeepsOneSlot(t *testing.T) {
	w := &recordingWriter{}
	kb := newKeyboard(w)

	kb.Press(4)
	kb.Press(4)
	if got := w.last(); !bytes.Equal(got, []byte{0, 0, 4, 0, 0, 0, 0, 0}) {
		t.Errorf("report = %v, want key 4 in one slot", got)
	}
}

func TestKeyboardRollOverLimit(t *testing.T) {
	w := &recordingWriter{}
	kb := newKeyboard(w)

	for code := uint16(4); code < 10; code++ {
		if err := kb.Press(code); err != nil {
			t.Fatalf("Press(%d): %v", code, err)
		}
	}
	if err := kb.Press(10); err == nil {
		t.Error("seventh key accepted past the 6-key roll-over")
	}

	// Modifiers are unaffected by slot exhaustion.
	if err := kb.Press(225); err != nil {
		t.Errorf("modifier rejected under roll-over: %v", err)
	}

	if err := kb.Release(4); err != nil {
		t.Fatal(err)
	}
	if err := kb.Press(10); err != nil {
		t.Errorf("key rejected after a slot freed up: %v", err)
	}
}

func TestKeyboardReleaseAll(t *testing.T) {
	w := &recordingWriter{}
	kb := newKeyboard(w)

	kb.Press(224)
	kb.Press(4)
	kb.Press(5)
	if err := kb.ReleaseAll(); err != nil {
		t.Fatal(err)
	}
	if got := w.last(); !bytes.Equal(got, make([]byte, 8)) {
		t.Errorf("report after ReleaseAll = %v, want all zero", got)
	}
}

func TestMouseButtonsAndMotion(t *testing.T) {
	w := &recordingWriter{}
	m := newMouse(w)

	m.Press(1 << 0)
	if got := w.last(); !bytes.Equal(got, []byte{0x01, 0, 0, 0}) {
		t.Errorf("left press report = %v", got)
	}

	m.Press(1 << 1)
	if got := w.last(); !bytes.Equal(got, []byte{0x03, 0, 0, 0}) {
		t.Errorf("two-button report = %v", got)
	}

	// Motion carries the held buttons.
	m.Move(5, -3, 1)
	if got := w.last(); !bytes.Equal(got, []byte{0x03, 5, 0xFD, 1}) {
		t.Errorf("motion report = %v", got)
	}

	m.Release(1 << 0)
	if got := w.last(); !bytes.Equal(got, []byte{0x02, 0, 0, 0}) {
		t.Errorf("report after left release = %v", got)
	}

	m.ReleaseAll()
	if got := w.last(); !bytes.Equal(got, []byte{0, 0, 0, 0}) {
		t.Errorf("report after ReleaseAll = %v", got)
	}
}

func TestMouseMotionClampsToInt8(t *testing.T) {
	tests := []struct {
		in   int32
		want byte
	}{
		{0, 0x00},
		{127, 0x7F},
		{128, 0x7F},
		{1000, 0x7F},
		{-1, 0xFF},
		{-127, 0x81},
		{-128, 0x81},
		{-1000, 0x81},
	}

	for _, tt := range tests {
		w := &recordingWriter{}
		m := newMouse(w)
		if err := m.Move(tt.in, 0, 0); err != nil {
			t.Fatal(err)
		}
		if got := w.last()[1]; got != tt.want {
			t.Errorf("Move(%d) dx byte = %#x, want %#x", tt.in, got, tt.want)
		}
	}
}

func TestConsumerEncodesUsageLittleEndian(t *testing.T) {
	w := &recordingWriter{}
	c := newConsumer(w)

	c.Press(0xE9) // volume up
	if got := w.last(); !bytes.Equal(got, []byte{0xE9, 0x00}) {
		t.Errorf("press report = %v", got)
	}

	c.Press(0x221) // web search
	if got := w.last(); !bytes.Equal(got, []byte{0x21, 0x02}) {
		t.Errorf("press report = %v", got)
	}

	c.Release(0x221)
	if got := w.last(); !bytes.Equal(got, []byte{0, 0}) {
		t.Errorf("release report = %v", got)
	}
}
