package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeymodString(t *testing.T) {
	tests := []struct {
		mods Keymod
		want string
	}{
		{KMOD_NONE, "None"},
		{KMOD_SHIFT, "SHIFT"},
		{KMOD_CTRL | KMOD_SHIFT, "CTRL SHIFT"},
		{KMOD_NUM | KMOD_ALT, "NUMLOCK ALT"},
		{KMOD_SHIFT | KMOD_CTRL | KMOD_ALT | KMOD_SUPER | KMOD_CAPS | KMOD_NUM, "NUMLOCK CAPSLOCK CTRL SHIFT ALT SUPER"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.mods.String())
	}
}

func TestKeyEventDescribe(t *testing.T) {
	press := &KeyEvent{KeyCode: KEY_A, Scancode: 0x26, Name: "a", Pressed: true, Mods: KMOD_SHIFT}
	assert.Equal(t, "Press:- Scancode: 0x26, Name: a, Modifiers: SHIFT", press.Describe())

	release := &KeyEvent{KeyCode: KEY_ESCAPE, Scancode: 9}
	assert.Equal(t, "Release:- Scancode: 0x09, Name: key(256), Modifiers: None", release.Describe())
}
