package platform

import (
	"runtime"
	"time"
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/spaghettifunk/ignis/engine/core"
)

func init() {
	// GLFW event handling must run on the main OS thread
	runtime.LockOSThread()
}

// Platform is the glfw window. Window callbacks are turned into engine
// events on the given event system while PumpMessages runs.
type Platform struct {
	Window *glfw.Window
	events *core.EventSystem
	// layout-aware printable key name lookup
	keyName func(key glfw.Key, scancode int) string
}

func New(events *core.EventSystem) *Platform {
	return &Platform{
		events:  events,
		keyName: glfw.GetKeyName,
	}
}

func (p *Platform) Startup(applicationName string, x uint32, y uint32, width uint32, height uint32) error {
	if err := glfw.Init(); err != nil {
		core.LogError("failed to initialize glfw: %s", err)
		return err
	}
	if !glfw.VulkanSupported() {
		glfw.Terminate()
		return errVulkanUnsupported
	}

	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI) // Required for Vulkan.

	window, err := glfw.CreateWindow(int(width), int(height), applicationName, nil, nil)
	if err != nil {
		core.LogError("failed to create window: %s", err)
		glfw.Terminate()
		return err
	}
	p.Window = window

	p.Window.SetKeyCallback(p.keyCallback)
	p.Window.SetFramebufferSizeCallback(p.framebufferSizeCallback)
	p.Window.SetIconifyCallback(p.iconifyCallback)
	p.Window.SetCloseCallback(p.closeCallback)
	p.Window.SetPos(int(x), int(y))
	p.Window.Show()

	return nil
}

func (p *Platform) Shutdown() error {
	if p.Window != nil {
		p.Window.Destroy()
		p.Window = nil
	}
	glfw.Terminate()
	return nil
}

// PumpMessages processes pending window events without blocking. It returns
// false once the window has been asked to close.
func (p *Platform) PumpMessages() bool {
	glfw.PollEvents()
	return !p.Window.ShouldClose()
}

func (p *Platform) FramebufferSize() (uint32, uint32) {
	w, h := p.Window.GetFramebufferSize()
	return uint32(w), uint32(h)
}

func (p *Platform) Sleep(d time.Duration) {
	time.Sleep(d)
}

func (p *Platform) GetInstanceProcAddress() unsafe.Pointer {
	return glfw.GetVulkanGetInstanceProcAddress()
}

func (p *Platform) GetRequiredExtensionNames() []string {
	return p.Window.GetRequiredInstanceExtensions()
}

func (p *Platform) CreateWindowSurface(instance interface{}) (uintptr, error) {
	return p.Window.CreateWindowSurface(instance, nil)
}

func (p *Platform) keyCallback(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	if action == glfw.Repeat {
		return
	}
	ke := &core.KeyEvent{
		KeyCode:  core.KeyCode(key),
		Scancode: scancode,
		Name:     p.keyName(key, scancode),
		Pressed:  action == glfw.Press,
		Mods:     translateMods(mods),
	}
	code := core.EVENT_CODE_KEY_RELEASED
	if ke.Pressed {
		code = core.EVENT_CODE_KEY_PRESSED
	}
	p.events.Fire(code, p, core.EventContext{Key: ke})
}

func (p *Platform) framebufferSizeCallback(w *glfw.Window, width, height int) {
	p.events.Fire(core.EVENT_CODE_RESIZED, p, core.EventContext{
		Width:  uint32(width),
		Height: uint32(height),
	})
}

func (p *Platform) iconifyCallback(w *glfw.Window, iconified bool) {
	if iconified {
		p.events.Fire(core.EVENT_CODE_MINIMIZED, p, core.EventContext{})
		return
	}
	p.events.Fire(core.EVENT_CODE_RESTORED, p, core.EventContext{})
}

func (p *Platform) closeCallback(w *glfw.Window) {
	p.events.Fire(core.EVENT_CODE_APPLICATION_QUIT, p, core.EventContext{})
}

func translateMods(mods glfw.ModifierKey) core.Keymod {
	out := core.KMOD_NONE
	if mods&glfw.ModShift != 0 {
		out |= core.KMOD_SHIFT
	}
	if mods&glfw.ModControl != 0 {
		out |= core.KMOD_CTRL
	}
	if mods&glfw.ModAlt != 0 {
		out |= core.KMOD_ALT
	}
	if mods&glfw.ModSuper != 0 {
		out |= core.KMOD_SUPER
	}
	if mods&glfw.ModCapsLock != 0 {
		out |= core.KMOD_CAPS
	}
	if mods&glfw.ModNumLock != 0 {
		out |= core.KMOD_NUM
	}
	return out
}
