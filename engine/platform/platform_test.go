package platform

import (
	"testing"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/stretchr/testify/assert"

	"github.com/spaghettifunk/ignis/engine/core"
)

func TestTranslateMods(t *testing.T) {
	tests := []struct {
		in   glfw.ModifierKey
		want core.Keymod
	}{
		{0, core.KMOD_NONE},
		{glfw.ModShift, core.KMOD_SHIFT},
		{glfw.ModControl | glfw.ModAlt, core.KMOD_CTRL | core.KMOD_ALT},
		{glfw.ModSuper | glfw.ModCapsLock | glfw.ModNumLock, core.KMOD_SUPER | core.KMOD_CAPS | core.KMOD_NUM},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, translateMods(tt.in))
	}
}

func TestKeyCallbackFiresEvents(t *testing.T) {
	events := core.NewEventSystem()
	p := New(events)
	p.keyName = func(key glfw.Key, scancode int) string { return "" }

	var got []*core.KeyEvent
	var codes []core.SystemEventCode
	onKey := func(code core.SystemEventCode, sender interface{}, listener interface{}, data core.EventContext) bool {
		codes = append(codes, code)
		got = append(got, data.Key)
		return true
	}
	events.Register(core.EVENT_CODE_KEY_PRESSED, t, onKey)
	events.Register(core.EVENT_CODE_KEY_RELEASED, t, onKey)

	p.keyCallback(nil, glfw.KeyEscape, 9, glfw.Press, glfw.ModShift)
	p.keyCallback(nil, glfw.KeyEscape, 9, glfw.Repeat, 0)
	p.keyCallback(nil, glfw.KeyEscape, 9, glfw.Release, 0)

	assert.Equal(t, []core.SystemEventCode{core.EVENT_CODE_KEY_PRESSED, core.EVENT_CODE_KEY_RELEASED}, codes)
	assert.Equal(t, core.KEY_ESCAPE, got[0].KeyCode)
	assert.True(t, got[0].Pressed)
	assert.Equal(t, core.KMOD_SHIFT, got[0].Mods)
	assert.False(t, got[1].Pressed)
}
