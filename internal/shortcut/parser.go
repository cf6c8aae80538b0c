// Package shortcut parses human-readable key combinations like
// "CTRL+SHIFT+Q" or "meta-shift-pause" into evdev key codes.
package shortcut

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	evdev "github.com/holoplot/go-evdev"
)

// Shortcut is one parsed keycode combination with its canonical description.
type Shortcut struct {
	Codes       []evdev.EvCode
	Description string
}

// IsEmpty reports whether the shortcut contains no keys.
func (s Shortcut) IsEmpty() bool {
	return len(s.Codes) == 0
}

func (s Shortcut) String() string {
	return s.Description
}

// Splits a command into individual shortcuts.
var commandSplitRegex = regexp.MustCompile(`[,;\s]+`)

// Splits a shortcut into a series of key names.
var shortcutSplitRegex = regexp.MustCompile(`[-+]+`)

// Parser maps key names (including aliases) to evdev codes and back to the
// preferred display names.
type Parser struct {
	codes map[string]evdev.EvCode
	names map[evdev.EvCode]string
}

// NewParser builds the name tables.
func NewParser() *Parser {
	p := &Parser{
		codes: make(map[string]evdev.EvCode),
		names: make(map[evdev.EvCode]string),
	}

	for code, name := range preferredNames {
		p.codes[name] = code
		p.names[code] = name
	}

	// Base names fill in deterministically so that an alias never displaces
	// a preferred display name.
	baseSorted := make([]string, 0, len(baseNames))
	for name := range baseNames {
		baseSorted = append(baseSorted, name)
	}
	sort.Strings(baseSorted)
	for _, name := range baseSorted {
		code := baseNames[name]
		p.codes[name] = code
		if _, ok := p.names[code]; !ok {
			p.names[code] = name
		}
	}

	for alias, code := range aliases {
		p.codes[alias] = code
	}

	return p
}

// ParseCommand splits a command string into shortcuts. With strict set, an
// unknown key name fails the whole command; otherwise unparsable parts are
// skipped.
func (p *Parser) ParseCommand(command string, strict bool) ([]Shortcut, error) {
	var shortcuts []Shortcut
	for _, candidate := range commandSplitRegex.Split(command, -1) {
		if candidate == "" {
			continue
		}
		shortcut, err := p.ParseShortcut(candidate, strict)
		if err != nil {
			return nil, fmt.Errorf("cannot parse command %q: %w", command, err)
		}
		if shortcut != nil {
			shortcuts = append(shortcuts, *shortcut)
		}
	}
	return shortcuts, nil
}

// ParseShortcut parses a single key combination. Without strict, unknown key
// names are dropped and a shortcut with no known keys yields nil. With
// strict, a shortcut that yields no keys at all is an error.
func (p *Parser) ParseShortcut(shortcut string, strict bool) (*Shortcut, error) {
	var codes []evdev.EvCode
	var names []string
	for _, candidate := range shortcutSplitRegex.Split(strings.ToUpper(shortcut), -1) {
		if candidate == "" {
			continue
		}
		code, ok := p.codes[candidate]
		if !ok {
			if strict {
				return nil, fmt.Errorf("unknown key %q in shortcut %q", candidate, shortcut)
			}
			continue
		}
		codes = append(codes, code)
		names = append(names, capitalize(p.names[code]))
	}
	if len(codes) == 0 {
		if strict {
			return nil, fmt.Errorf("no keys in shortcut %q", shortcut)
		}
		return nil, nil
	}
	return &Shortcut{Codes: codes, Description: strings.Join(names, "-")}, nil
}

func capitalize(s string) string {
	if len(s) <= 1 {
		return s
	}
	return s[:1] + strings.ToLower(s[1:])
}

// Preferred display names, also accepted when parsing.
var preferredNames = map[evdev.EvCode]string{
	evdev.KEY_1:          "1",
	evdev.KEY_2:          "2",
	evdev.KEY_3:          "3",
	evdev.KEY_4:          "4",
	evdev.KEY_5:          "5",
	evdev.KEY_6:          "6",
	evdev.KEY_7:          "7",
	evdev.KEY_8:          "8",
	evdev.KEY_9:          "9",
	evdev.KEY_0:          "0",
	evdev.KEY_ESC:        "ESC",
	evdev.KEY_EQUAL:      "=",
	evdev.KEY_LEFTBRACE:  "[",
	evdev.KEY_RIGHTBRACE: "]",
	evdev.KEY_BACKSLASH:  `\`,
	evdev.KEY_APOSTROPHE: "'",
	evdev.KEY_GRAVE:      "`",
	evdev.KEY_DOT:        ".",
	evdev.KEY_SLASH:      "/",
	evdev.KEY_SYSRQ:      "PRTSCR",
	evdev.KEY_PAUSE:      "BREAK",
	evdev.KEY_INSERT:     "INS",
	evdev.KEY_PAGEUP:     "PGUP",
	evdev.KEY_DELETE:     "DEL",
	evdev.KEY_PAGEDOWN:   "PGDOWN",
	evdev.KEY_RIGHT:      "RIGHT",
	evdev.KEY_LEFT:       "LEFT",
	evdev.KEY_DOWN:       "DOWN",
	evdev.KEY_UP:         "UP",
	evdev.KEY_COMPOSE:    "APP",
	evdev.KEY_LEFTCTRL:   "CTRL",
	evdev.KEY_LEFTSHIFT:  "SHIFT",
	evdev.KEY_LEFTALT:    "ALT",
	evdev.KEY_LEFTMETA:   "WIN",
}

// Long-form names, mirroring the USB HID keycode vocabulary.
var baseNames = map[string]evdev.EvCode{
	"A": evdev.KEY_A, "B": evdev.KEY_B, "C": evdev.KEY_C, "D": evdev.KEY_D,
	"E": evdev.KEY_E, "F": evdev.KEY_F, "G": evdev.KEY_G, "H": evdev.KEY_H,
	"I": evdev.KEY_I, "J": evdev.KEY_J, "K": evdev.KEY_K, "L": evdev.KEY_L,
	"M": evdev.KEY_M, "N": evdev.KEY_N, "O": evdev.KEY_O, "P": evdev.KEY_P,
	"Q": evdev.KEY_Q, "R": evdev.KEY_R, "S": evdev.KEY_S, "T": evdev.KEY_T,
	"U": evdev.KEY_U, "V": evdev.KEY_V, "W": evdev.KEY_W, "X": evdev.KEY_X,
	"Y": evdev.KEY_Y, "Z": evdev.KEY_Z,

	"ONE": evdev.KEY_1, "TWO": evdev.KEY_2, "THREE": evdev.KEY_3,
	"FOUR": evdev.KEY_4, "FIVE": evdev.KEY_5, "SIX": evdev.KEY_6,
	"SEVEN": evdev.KEY_7, "EIGHT": evdev.KEY_8, "NINE": evdev.KEY_9,
	"ZERO": evdev.KEY_0,

	"ENTER":         evdev.KEY_ENTER,
	"RETURN":        evdev.KEY_ENTER,
	"ESCAPE":        evdev.KEY_ESC,
	"BACKSPACE":     evdev.KEY_BACKSPACE,
	"TAB":           evdev.KEY_TAB,
	"SPACE":         evdev.KEY_SPACE,
	"SPACEBAR":      evdev.KEY_SPACE,
	"MINUS":         evdev.KEY_MINUS,
	"EQUALS":        evdev.KEY_EQUAL,
	"SEMICOLON":     evdev.KEY_SEMICOLON,
	"COMMA":         evdev.KEY_COMMA,
	"PERIOD":        evdev.KEY_DOT,
	"QUOTE":         evdev.KEY_APOSTROPHE,
	"CAPS_LOCK":     evdev.KEY_CAPSLOCK,
	"PRINT_SCREEN":  evdev.KEY_SYSRQ,
	"SCROLL_LOCK":   evdev.KEY_SCROLLLOCK,
	"PAUSE":         evdev.KEY_PAUSE,
	"INSERT":        evdev.KEY_INSERT,
	"HOME":          evdev.KEY_HOME,
	"PAGE_UP":       evdev.KEY_PAGEUP,
	"DELETE":        evdev.KEY_DELETE,
	"END":           evdev.KEY_END,
	"PAGE_DOWN":     evdev.KEY_PAGEDOWN,
	"RIGHT_ARROW":   evdev.KEY_RIGHT,
	"LEFT_ARROW":    evdev.KEY_LEFT,
	"DOWN_ARROW":    evdev.KEY_DOWN,
	"UP_ARROW":      evdev.KEY_UP,
	"APPLICATION":   evdev.KEY_COMPOSE,
	"CONTROL":       evdev.KEY_LEFTCTRL,
	"SHIFT":         evdev.KEY_LEFTSHIFT,
	"ALT":           evdev.KEY_LEFTALT,
	"GUI":           evdev.KEY_LEFTMETA,
	"WINDOWS":       evdev.KEY_LEFTMETA,
	"LEFT_CONTROL":  evdev.KEY_LEFTCTRL,
	"RIGHT_CONTROL": evdev.KEY_RIGHTCTRL,
	"LEFT_SHIFT":    evdev.KEY_LEFTSHIFT,
	"RIGHT_SHIFT":   evdev.KEY_RIGHTSHIFT,
	"LEFT_ALT":      evdev.KEY_LEFTALT,
	"RIGHT_ALT":     evdev.KEY_RIGHTALT,
	"LEFT_GUI":      evdev.KEY_LEFTMETA,
	"RIGHT_GUI":     evdev.KEY_RIGHTMETA,

	"F1": evdev.KEY_F1, "F2": evdev.KEY_F2, "F3": evdev.KEY_F3,
	"F4": evdev.KEY_F4, "F5": evdev.KEY_F5, "F6": evdev.KEY_F6,
	"F7": evdev.KEY_F7, "F8": evdev.KEY_F8, "F9": evdev.KEY_F9,
	"F10": evdev.KEY_F10, "F11": evdev.KEY_F11, "F12": evdev.KEY_F12,
}

// Additional names accepted when parsing only.
var aliases = map[string]evdev.EvCode{
	"EQUAL":      evdev.KEY_EQUAL,
	"BACK":       evdev.KEY_BACKSPACE,
	"LEFTBRACE":  evdev.KEY_LEFTBRACE,
	"RBRACE":     evdev.KEY_RIGHTBRACE,
	"GRAVE":      evdev.KEY_GRAVE,
	"SLASH":      evdev.KEY_SLASH,
	"CAPSLOCK":   evdev.KEY_CAPSLOCK,
	"SCROLLLOCK": evdev.KEY_SCROLLLOCK,
	"PAGEUP":     evdev.KEY_PAGEUP,
	"PAGEDOWN":   evdev.KEY_PAGEDOWN,
	"COMPOSE":    evdev.KEY_COMPOSE,
	"PRTSC":      evdev.KEY_SYSRQ,
	"CTRL":       evdev.KEY_LEFTCTRL,
	"LCTRL":      evdev.KEY_LEFTCTRL,
	"RCTRL":      evdev.KEY_RIGHTCTRL,
	"LSHIFT":     evdev.KEY_LEFTSHIFT,
	"RSHIFT":     evdev.KEY_RIGHTSHIFT,
	"LALT":       evdev.KEY_LEFTALT,
	"RALT":       evdev.KEY_RIGHTALT,
	"LWIN":       evdev.KEY_LEFTMETA,
	"RWIN":       evdev.KEY_RIGHTMETA,
	"META":       evdev.KEY_LEFTMETA,
	"LMETA":      evdev.KEY_LEFTMETA,
	"RMETA":      evdev.KEY_RIGHTMETA,
}
