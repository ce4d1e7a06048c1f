package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/ignis/engine/core"
	"github.com/spaghettifunk/ignis/engine/renderer/rendertest"
)

// fakeWindow runs hooks[i] during the i-th pump and reports a close after
// maxPumps pumps.
type fakeWindow struct {
	maxPumps int
	pumps    int
	hooks    map[int]func()
	sleeps   []time.Duration
	width    uint32
	height   uint32
}

func newFakeWindow(maxPumps int) *fakeWindow {
	return &fakeWindow{
		maxPumps: maxPumps,
		hooks:    make(map[int]func()),
		width:    1700,
		height:   900,
	}
}

func (w *fakeWindow) PumpMessages() bool {
	if w.pumps >= w.maxPumps {
		return false
	}
	if hook, ok := w.hooks[w.pumps]; ok {
		hook()
	}
	w.pumps++
	return true
}

func (w *fakeWindow) FramebufferSize() (uint32, uint32) { return w.width, w.height }

func (w *fakeWindow) Sleep(d time.Duration) { w.sleeps = append(w.sleeps, d) }

type harness struct {
	engine *Engine
	window *fakeWindow
	events *core.EventSystem
	device *rendertest.Device
}

func newHarness(t *testing.T, maxPumps int) *harness {
	t.Helper()
	config := DefaultConfig()
	config.LogLevel = "error"

	h := &harness{
		window: newFakeWindow(maxPumps),
		events: core.NewEventSystem(),
		device: rendertest.NewDevice(),
	}
	e, err := New(config, h.window, h.events, h.device)
	require.NoError(t, err)
	require.NoError(t, e.Initialize())
	h.engine = e
	t.Cleanup(func() { _ = e.Shutdown() })
	return h
}

func TestRunDrawsOncePerIteration(t *testing.T) {
	h := newHarness(t, 4)

	require.NoError(t, h.engine.Run())
	assert.Equal(t, uint64(4), h.engine.Renderer().FrameNumber())
	assert.Empty(t, h.window.sleeps)
}

func TestMinimizeSuspendsGPUWork(t *testing.T) {
	h := newHarness(t, 10)

	var callsWhileSuspended []string
	h.window.hooks[2] = func() {
		h.events.Fire(core.EVENT_CODE_MINIMIZED, h.window, core.EventContext{})
		h.device.ResetCalls()
	}
	h.window.hooks[7] = func() {
		callsWhileSuspended = h.device.Calls()
		h.events.Fire(core.EVENT_CODE_RESTORED, h.window, core.EventContext{})
	}

	require.NoError(t, h.engine.Run())

	// iterations 2..6 are suspended
	assert.Empty(t, callsWhileSuspended)
	require.Len(t, h.window.sleeps, 5)
	for _, d := range h.window.sleeps {
		assert.Equal(t, 100*time.Millisecond, d)
	}
	// 2 frames before the minimize, 3 after the restore
	assert.Equal(t, uint64(5), h.engine.Renderer().FrameNumber())
	assert.False(t, h.engine.IsSuspended())
}

func TestZeroSizeResizeSuspends(t *testing.T) {
	h := newHarness(t, 6)

	h.window.hooks[1] = func() {
		h.events.Fire(core.EVENT_CODE_RESIZED, h.window, core.EventContext{Width: 0, Height: 0})
	}
	h.window.hooks[3] = func() {
		h.events.Fire(core.EVENT_CODE_RESIZED, h.window, core.EventContext{Width: 800, Height: 600})
	}

	require.NoError(t, h.engine.Run())

	assert.Len(t, h.window.sleeps, 2)
	assert.Equal(t, uint64(4), h.engine.Renderer().FrameNumber())

	swapchains := h.device.Swapchains()
	require.Len(t, swapchains, 2)
	assert.Equal(t, uint32(800), swapchains[1].Request.Width)
	assert.Equal(t, uint32(600), swapchains[1].Request.Height)
	assert.True(t, swapchains[0].Destroyed)

	w, hgt := h.engine.GetFramebufferSize()
	assert.Equal(t, uint32(800), w)
	assert.Equal(t, uint32(600), hgt)
}

func TestQuitEventEndsLoopBeforeDrawing(t *testing.T) {
	h := newHarness(t, 100)
	h.window.hooks[3] = func() {
		h.events.Fire(core.EVENT_CODE_APPLICATION_QUIT, h.window, core.EventContext{})
	}

	require.NoError(t, h.engine.Run())
	assert.Equal(t, 4, h.window.pumps)
	assert.Equal(t, uint64(3), h.engine.Renderer().FrameNumber())
}

func TestEscapeRequestsQuit(t *testing.T) {
	h := newHarness(t, 100)
	h.window.hooks[1] = func() {
		h.events.Fire(core.EVENT_CODE_KEY_PRESSED, h.window, core.EventContext{
			Key: &core.KeyEvent{KeyCode: core.KEY_ESCAPE, Scancode: 0x09, Pressed: true},
		})
	}

	require.NoError(t, h.engine.Run())
	assert.Equal(t, 2, h.window.pumps)
	assert.Equal(t, uint64(1), h.engine.Renderer().FrameNumber())
}

func TestOtherKeysDoNotQuit(t *testing.T) {
	h := newHarness(t, 3)
	h.window.hooks[0] = func() {
		h.events.Fire(core.EVENT_CODE_KEY_PRESSED, h.window, core.EventContext{
			Key: &core.KeyEvent{KeyCode: core.KEY_A, Scancode: 0x26, Name: "a", Pressed: true},
		})
		h.events.Fire(core.EVENT_CODE_KEY_RELEASED, h.window, core.EventContext{
			Key: &core.KeyEvent{KeyCode: core.KEY_ESCAPE, Scancode: 0x09},
		})
	}

	require.NoError(t, h.engine.Run())
	assert.Equal(t, uint64(3), h.engine.Renderer().FrameNumber())
}

func TestRequestQuitStopsBetweenFrames(t *testing.T) {
	h := newHarness(t, 100)
	h.window.hooks[2] = h.engine.RequestQuit

	require.NoError(t, h.engine.Run())
	assert.Equal(t, uint64(2), h.engine.Renderer().FrameNumber())
}

func TestRunReturnsFatalDeviceErrors(t *testing.T) {
	h := newHarness(t, 10)
	h.device.AcquireResults = []error{nil, core.ErrDeviceLost}

	err := h.engine.Run()
	require.ErrorIs(t, err, core.ErrDeviceLost)
	assert.Equal(t, uint64(1), h.engine.Renderer().FrameNumber())
}

func TestShutdownAfterDeviceTimeoutSkipsGPUTeardown(t *testing.T) {
	h := newHarness(t, 10)
	h.device.HoldSubmissions = true

	// frame 2 reuses slot 0, whose submission never completes
	err := h.engine.Run()
	require.ErrorIs(t, err, core.ErrDeviceTimeout)

	h.device.ResetCalls()
	require.NoError(t, h.engine.Shutdown())
	assert.Empty(t, h.device.Calls())
	for _, f := range h.device.Fences() {
		assert.False(t, f.Destroyed)
	}
	assert.Nil(t, h.engine.Renderer())
}

func TestInitializeTwice(t *testing.T) {
	h := newHarness(t, 1)
	assert.ErrorIs(t, h.engine.Initialize(), core.ErrEngineInitialized)
}

func TestShutdownReleasesEverything(t *testing.T) {
	h := newHarness(t, 2)
	require.NoError(t, h.engine.Run())
	h.device.ResetCalls()

	require.NoError(t, h.engine.Shutdown())

	calls := h.device.Calls()
	require.NotEmpty(t, calls)
	assert.Equal(t, "device.wait_idle", calls[0])
	assert.Equal(t, "swapchain#0.destroy", calls[len(calls)-1])
	for _, f := range h.device.Fences() {
		assert.True(t, f.Destroyed)
	}

	// handlers are gone
	assert.False(t, h.events.Fire(core.EVENT_CODE_APPLICATION_QUIT, h.window, core.EventContext{}))
}

func TestConfigUpdatesAreAppliedBetweenFrames(t *testing.T) {
	h := newHarness(t, 2)

	updates := make(chan *ApplicationConfig, 1)
	reloaded := DefaultConfig()
	reloaded.LogLevel = "error"
	reloaded.ClearColor = "red"
	updates <- reloaded
	h.engine.WatchConfig(updates)

	require.NoError(t, h.engine.Run())

	recorders := h.device.Recorders()
	require.Len(t, recorders, 2)
	require.Len(t, recorders[1].Clears, 1)
	color := recorders[1].Clears[0].Color
	assert.Greater(t, color.R, float32(0))
	assert.Zero(t, color.B)
	assert.Equal(t, "red", h.engine.config.ClearColor)
}

func TestClosedConfigChannelDoesNotStallLoop(t *testing.T) {
	h := newHarness(t, 3)

	updates := make(chan *ApplicationConfig)
	close(updates)
	h.engine.WatchConfig(updates)

	done := make(chan error, 1)
	go func() { done <- h.engine.Run() }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("run loop stalled on a closed config channel")
	}
	assert.Equal(t, uint64(3), h.engine.Renderer().FrameNumber())
	assert.Nil(t, h.engine.configUpdates)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	config := DefaultConfig()
	config.FrameOverlap = 0

	_, err := New(config, newFakeWindow(1), core.NewEventSystem(), rendertest.NewDevice())
	assert.Error(t, err)
}
