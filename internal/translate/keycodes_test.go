package translate

import (
	"testing"

	evdev "github.com/holoplot/go-evdev"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		name  string
		code  evdev.EvCode
		class Class
		hid   uint16
		ok    bool
	}{
		{"letter", evdev.KEY_A, ClassKeyboard, 4, true},
		{"digit", evdev.KEY_1, ClassKeyboard, 30, true},
		{"modifier", evdev.KEY_LEFTCTRL, ClassKeyboard, 224, true},
		{"left button", evdev.BTN_LEFT, ClassMouseButton, 1 << 0, true},
		{"extra button", evdev.BTN_EXTRA, ClassMouseButton, 1 << 4, true},
		{"volume up", evdev.KEY_VOLUMEUP, ClassConsumer, 0xE9, true},
		{"play/pause", evdev.KEY_PLAYPAUSE, ClassConsumer, 0xCD, true},
		{"web search", evdev.KEY_SEARCH, ClassConsumer, 0x221, true},
		{"unmapped", evdev.KEY_MICMUTE, ClassKeyboard, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			class, hid, ok := Lookup(tt.code)
			if ok != tt.ok {
				t.Fatalf("Lookup(%d) ok = %v, want %v", tt.code, ok, tt.ok)
			}
			if !ok {
				return
			}
			if class != tt.class {
				t.Errorf("Lookup(%d) class = %s, want %s", tt.code, class, tt.class)
			}
			if hid != tt.hid {
				t.Errorf("Lookup(%d) code = %#x, want %#x", tt.code, hid, tt.hid)
			}
		})
	}
}

func TestConsumerTakesPrecedenceOverKeyboard(t *testing.T) {
	// Media keys must reach the consumer gadget even when a keyboard usage
	// could be argued for them.
	for code := range consumerUsages {
		class, _, ok := Lookup(code)
		if !ok || class != ClassConsumer {
			t.Errorf("Lookup(%d) class = %s, want consumer", code, class)
		}
	}
}

func TestClassPredicates(t *testing.T) {
	if !IsMouseButton(evdev.BTN_RIGHT) {
		t.Error("BTN_RIGHT not recognized as a mouse button")
	}
	if IsMouseButton(evdev.KEY_A) {
		t.Error("KEY_A recognized as a mouse button")
	}
	if !IsConsumerKey(evdev.KEY_MUTE) {
		t.Error("KEY_MUTE not recognized as a consumer key")
	}
	if IsConsumerKey(evdev.KEY_ENTER) {
		t.Error("KEY_ENTER recognized as a consumer key")
	}
}

func TestClassString(t *testing.T) {
	if got := ClassKeyboard.String(); got != "keyboard" {
		t.Errorf("ClassKeyboard.String() = %q", got)
	}
	if got := ClassMouseButton.String(); got != "mouse-button" {
		t.Errorf("ClassMouseButton.String() = %q", got)
	}
	if got := ClassConsumer.String(); got != "consumer" {
		t.Errorf("ClassConsumer.String() = %q", got)
	}
}
