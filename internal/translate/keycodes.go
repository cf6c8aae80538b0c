// Package translate maps Linux evdev key codes to USB HID codes and decides
// which gadget function a key belongs to.
package translate

import (
	evdev "github.com/holoplot/go-evdev"
)

// Class is the output gadget a key event is dispatched to.
type Class int

const (
	ClassKeyboard Class = iota
	ClassMouseButton
	ClassConsumer
)

func (c Class) String() string {
	switch c {
	case ClassKeyboard:
		return "keyboard"
	case ClassMouseButton:
		return "mouse-button"
	case ClassConsumer:
		return "consumer"
	}
	return "unknown"
}

// Lookup translates an evdev key code into its output class and HID code.
// The boolean is false for keys without a mapping; those are dropped by the
// caller.
func Lookup(code evdev.EvCode) (Class, uint16, bool) {
	if usage, ok := consumerUsages[code]; ok {
		return ClassConsumer, usage, true
	}
	if mask, ok := mouseButtons[code]; ok {
		return ClassMouseButton, mask, true
	}
	if usage, ok := keyboardUsages[code]; ok {
		return ClassKeyboard, usage, true
	}
	return ClassKeyboard, 0, false
}

// IsConsumerKey reports whether the evdev code belongs on the consumer
// control gadget.
func IsConsumerKey(code evdev.EvCode) bool {
	_, ok := consumerUsages[code]
	return ok
}

// IsMouseButton reports whether the evdev code is a mouse button.
func IsMouseButton(code evdev.EvCode) bool {
	_, ok := mouseButtons[code]
	return ok
}

// Mouse buttons map to the button bitmask of the boot-protocol mouse report.
var mouseButtons = map[evdev.EvCode]uint16{
	evdev.BTN_LEFT:   1 << 0,
	evdev.BTN_RIGHT:  1 << 1,
	evdev.BTN_MIDDLE: 1 << 2,
	evdev.BTN_SIDE:   1 << 3,
	evdev.BTN_EXTRA:  1 << 4,
}

// Consumer keys map to usages on the HID consumer page (0x0C).
var consumerUsages = map[evdev.EvCode]uint16{
	evdev.KEY_MUTE:           0xE2,
	evdev.KEY_VOLUMEUP:       0xE9,
	evdev.KEY_VOLUMEDOWN:     0xEA,
	evdev.KEY_PLAYPAUSE:      0xCD,
	evdev.KEY_PLAYCD:         0xB0,
	evdev.KEY_PAUSECD:        0xB1,
	evdev.KEY_RECORD:         0xB2,
	evdev.KEY_FASTFORWARD:    0xB3,
	evdev.KEY_REWIND:         0xB4,
	evdev.KEY_NEXTSONG:       0xB5,
	evdev.KEY_PREVIOUSSONG:   0xB6,
	evdev.KEY_STOPCD:         0xB7,
	evdev.KEY_EJECTCD:        0xB8,
	evdev.KEY_MAIL:           0x18A,
	evdev.KEY_CALC:           0x192,
	evdev.KEY_SEARCH:         0x221,
	evdev.KEY_HOMEPAGE:       0x223,
	evdev.KEY_BACK:           0x224,
	evdev.KEY_FORWARD:        0x225,
	evdev.KEY_REFRESH:        0x227,
	evdev.KEY_BRIGHTNESSUP:   0x6F,
	evdev.KEY_BRIGHTNESSDOWN: 0x70,
}

// Keyboard keys map to usages on the HID keyboard page (0x07).
var keyboardUsages = map[evdev.EvCode]uint16{
	evdev.KEY_ESC:              41,
	evdev.KEY_1:                30,
	evdev.KEY_2:                31,
	evdev.KEY_3:                32,
	evdev.KEY_4:                33,
	evdev.KEY_5:                34,
	evdev.KEY_6:                35,
	evdev.KEY_7:                36,
	evdev.KEY_8:                37,
	evdev.KEY_9:                38,
	evdev.KEY_0:                39,
	evdev.KEY_MINUS:            45,
	evdev.KEY_EQUAL:            46,
	evdev.KEY_BACKSPACE:        42,
	evdev.KEY_TAB:              43,
	evdev.KEY_Q:                20,
	evdev.KEY_W:                26,
	evdev.KEY_E:                8,
	evdev.KEY_R:                21,
	evdev.KEY_T:                23,
	evdev.KEY_Y:                28,
	evdev.KEY_U:                24,
	evdev.KEY_I:                12,
	evdev.KEY_O:                18,
	evdev.KEY_P:                19,
	evdev.KEY_LEFTBRACE:        47,
	evdev.KEY_RIGHTBRACE:       48,
	evdev.KEY_ENTER:            40,
	evdev.KEY_LEFTCTRL:         224,
	evdev.KEY_A:                4,
	evdev.KEY_S:                22,
	evdev.KEY_D:                7,
	evdev.KEY_F:                9,
	evdev.KEY_G:                10,
	evdev.KEY_H:                11,
	evdev.KEY_J:                13,
	evdev.KEY_K:                14,
	evdev.KEY_L:                15,
	evdev.KEY_SEMICOLON:        51,
	evdev.KEY_APOSTROPHE:       52,
	evdev.KEY_GRAVE:            53,
	evdev.KEY_LEFTSHIFT:        225,
	evdev.KEY_BACKSLASH:        49,
	evdev.KEY_Z:                29,
	evdev.KEY_X:                27,
	evdev.KEY_C:                6,
	evdev.KEY_V:                25,
	evdev.KEY_B:                5,
	evdev.KEY_N:                17,
	evdev.KEY_M:                16,
	evdev.KEY_COMMA:            54,
	evdev.KEY_DOT:              55,
	evdev.KEY_SLASH:            56,
	evdev.KEY_RIGHTSHIFT:       229,
	evdev.KEY_KPASTERISK:       85,
	evdev.KEY_LEFTALT:          226,
	evdev.KEY_SPACE:            44,
	evdev.KEY_CAPSLOCK:         57,
	evdev.KEY_F1:               58,
	evdev.KEY_F2:               59,
	evdev.KEY_F3:               60,
	evdev.KEY_F4:               61,
	evdev.KEY_F5:               62,
	evdev.KEY_F6:               63,
	evdev.KEY_F7:               64,
	evdev.KEY_F8:               65,
	evdev.KEY_F9:               66,
	evdev.KEY_F10:              67,
	evdev.KEY_NUMLOCK:          83,
	evdev.KEY_SCROLLLOCK:       71,
	evdev.KEY_KP7:              95,
	evdev.KEY_KP8:              96,
	evdev.KEY_KP9:              97,
	evdev.KEY_KPMINUS:          86,
	evdev.KEY_KP4:              92,
	evdev.KEY_KP5:              93,
	evdev.KEY_KP6:              94,
	evdev.KEY_KPPLUS:           87,
	evdev.KEY_KP1:              89,
	evdev.KEY_KP2:              90,
	evdev.KEY_KP3:              91,
	evdev.KEY_KP0:              98,
	evdev.KEY_KPDOT:            99,
	evdev.KEY_ZENKAKUHANKAKU:   148,
	evdev.KEY_102ND:            100,
	evdev.KEY_F11:              68,
	evdev.KEY_F12:              69,
	evdev.KEY_RO:               135,
	evdev.KEY_KATAKANA:         146,
	evdev.KEY_HIRAGANA:         147,
	evdev.KEY_HENKAN:           138,
	evdev.KEY_KATAKANAHIRAGANA: 136,
	evdev.KEY_MUHENKAN:         139,
	evdev.KEY_KPJPCOMMA:        140,
	evdev.KEY_KPENTER:          88,
	evdev.KEY_RIGHTCTRL:        228,
	evdev.KEY_KPSLASH:          84,
	evdev.KEY_SYSRQ:            70,
	evdev.KEY_RIGHTALT:         230,
	evdev.KEY_HOME:             74,
	evdev.KEY_UP:               82,
	evdev.KEY_PAGEUP:           75,
	evdev.KEY_LEFT:             80,
	evdev.KEY_RIGHT:            79,
	evdev.KEY_END:              77,
	evdev.KEY_DOWN:             81,
	evdev.KEY_PAGEDOWN:         78,
	evdev.KEY_INSERT:           73,
	evdev.KEY_DELETE:           76,
	evdev.KEY_POWER:            102,
	evdev.KEY_KPEQUAL:          103,
	evdev.KEY_PAUSE:            72,
	evdev.KEY_KPCOMMA:          133,
	evdev.KEY_HANGEUL:          144,
	evdev.KEY_HANJA:            145,
	evdev.KEY_YEN:              137,
	evdev.KEY_LEFTMETA:         227,
	evdev.KEY_RIGHTMETA:        231,
	evdev.KEY_COMPOSE:          101,
	evdev.KEY_STOP:             120,
	evdev.KEY_AGAIN:            121,
	evdev.KEY_PROPS:            118,
	evdev.KEY_UNDO:             122,
	evdev.KEY_FRONT:            119,
	evdev.KEY_COPY:             124,
	evdev.KEY_OPEN:             116,
	evdev.KEY_PASTE:            125,
	evdev.KEY_FIND:             126,
	evdev.KEY_CUT:              123,
	evdev.KEY_HELP:             117,
	evdev.KEY_KPLEFTPAREN:      182,
	evdev.KEY_KPRIGHTPAREN:     183,
	evdev.KEY_F13:              104,
	evdev.KEY_F14:              105,
	evdev.KEY_F15:              106,
	evdev.KEY_F16:              107,
	evdev.KEY_F17:              108,
	evdev.KEY_F18:              109,
	evdev.KEY_F19:              110,
	evdev.KEY_F20:              111,
	evdev.KEY_F21:              112,
	evdev.KEY_F22:              113,
	evdev.KEY_F23:              114,
	evdev.KEY_F24:              115,
}
