package core

import (
	"fmt"
	"strings"
)

// Key code definitions. Values follow the GLFW key tokens so the platform
// layer can convert without a lookup table.
type KeyCode int32

const (
	KEY_UNKNOWN   KeyCode = -1
	KEY_SPACE     KeyCode = 32
	KEY_A         KeyCode = 65
	KEY_B         KeyCode = 66
	KEY_Q         KeyCode = 81
	KEY_ESCAPE    KeyCode = 256
	KEY_ENTER     KeyCode = 257
	KEY_TAB       KeyCode = 258
	KEY_BACKSPACE KeyCode = 259
	KEY_F1        KeyCode = 290
	KEY_F12       KeyCode = 301
)

// Keymod is a bitmask of modifier keys held during a key event.
type Keymod uint16

const (
	KMOD_NONE  Keymod = 0
	KMOD_SHIFT Keymod = 1 << iota
	KMOD_CTRL
	KMOD_ALT
	KMOD_SUPER
	KMOD_CAPS
	KMOD_NUM
)

var keymodNames = []struct {
	mod  Keymod
	name string
}{
	{KMOD_NUM, "NUMLOCK"},
	{KMOD_CAPS, "CAPSLOCK"},
	{KMOD_CTRL, "CTRL"},
	{KMOD_SHIFT, "SHIFT"},
	{KMOD_ALT, "ALT"},
	{KMOD_SUPER, "SUPER"},
}

// String lists the held modifiers separated by spaces, or "None".
func (m Keymod) String() string {
	if m == KMOD_NONE {
		return "None"
	}
	names := make([]string, 0, len(keymodNames))
	for _, km := range keymodNames {
		if m&km.mod != 0 {
			names = append(names, km.name)
		}
	}
	return strings.Join(names, " ")
}

// KeyEvent describes a single key press or release.
type KeyEvent struct {
	KeyCode  KeyCode
	Scancode int
	// Layout-specific printable name, empty for keys without one.
	Name    string
	Pressed bool
	Mods    Keymod
}

// Describe formats the event for debug output, e.g.
// "Press:- Scancode: 0x26, Name: a, Modifiers: SHIFT".
func (ke *KeyEvent) Describe() string {
	action := "Release"
	if ke.Pressed {
		action = "Press"
	}
	name := ke.Name
	if name == "" {
		name = fmt.Sprintf("key(%d)", ke.KeyCode)
	}
	return fmt.Sprintf("%s:- Scancode: 0x%02X, Name: %s, Modifiers: %s", action, ke.Scancode, name, ke.Mods)
}
