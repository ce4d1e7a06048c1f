package engine

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/spaghettifunk/ignis/engine/core"
	"github.com/spaghettifunk/ignis/engine/renderer"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine completed boot process and is ready to be initialized
	EngineStageBootComplete
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

// Window is what the run loop needs from the platform layer.
type Window interface {
	// PumpMessages dispatches pending window events without blocking and
	// returns false once the window wants to close.
	PumpMessages() bool
	FramebufferSize() (uint32, uint32)
	Sleep(d time.Duration)
}

type Engine struct {
	sessionID    uuid.UUID
	currentStage Stage
	config       *ApplicationConfig

	window   Window
	events   *core.EventSystem
	device   renderer.Device
	renderer *renderer.Renderer

	configUpdates <-chan *ApplicationConfig
	quitRequested atomic.Bool
	isRunning     bool
	isSuspended   bool

	// set once a draw failed because the GPU stopped answering
	deviceFailed bool

	width    uint32
	height   uint32
	clock    *core.Clock
	metrics  *core.Metrics
	lastTime float64

	release core.DeletionQueue
}

func New(config *ApplicationConfig, window Window, events *core.EventSystem, device renderer.Device) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if err := core.SetLogLevel(config.LogLevel); err != nil {
		return nil, err
	}

	e := &Engine{
		sessionID:    uuid.New(),
		currentStage: EngineStageBootComplete,
		config:       config,
		window:       window,
		events:       events,
		device:       device,
		width:        config.StartWidth,
		height:       config.StartHeight,
		clock:        core.NewClock(),
		metrics:      core.NewMetrics(),
	}
	core.LogInfo("Engine session %s booted.", e.sessionID)
	return e, nil
}

// Initialize registers the engine's event handlers and builds the renderer.
func (e *Engine) Initialize() error {
	if e.currentStage >= EngineStageInitialized {
		return core.ErrEngineInitialized
	}

	// the framebuffer can differ from the requested window size on HiDPI displays
	if w, h := e.window.FramebufferSize(); w != 0 && h != 0 {
		e.width, e.height = w, h
	}

	handlers := []struct {
		code    core.SystemEventCode
		onEvent core.FnOnEvent
	}{
		{core.EVENT_CODE_APPLICATION_QUIT, e.onQuit},
		{core.EVENT_CODE_KEY_PRESSED, e.onKey},
		{core.EVENT_CODE_KEY_RELEASED, e.onKey},
		{core.EVENT_CODE_RESIZED, e.onResized},
		{core.EVENT_CODE_MINIMIZED, e.onMinimize},
		{core.EVENT_CODE_RESTORED, e.onMinimize},
	}
	for _, h := range handlers {
		code := h.code
		e.events.Register(code, e, h.onEvent)
		e.release.Push(func() { e.events.Unregister(code, e) })
	}

	rendererConfig := e.config.RendererConfig()
	rendererConfig.Width, rendererConfig.Height = e.width, e.height
	r, err := renderer.New(e.device, rendererConfig)
	if err != nil {
		e.release.Flush()
		return fmt.Errorf("failed to initialize renderer: %w", err)
	}
	e.renderer = r

	e.currentStage = EngineStageInitialized
	core.LogInfo("Engine session %s initialized.", e.sessionID)
	return nil
}

// WatchConfig makes the run loop apply configs received on updates between
// frames. Only the log level and clear color settings are picked up live.
func (e *Engine) WatchConfig(updates <-chan *ApplicationConfig) {
	e.configUpdates = updates
}

// Run drives the loop until the window closes or a quit is requested. Any
// error returned is fatal.
func (e *Engine) Run() error {
	if e.currentStage != EngineStageInitialized {
		return fmt.Errorf("engine cannot run in stage %d", e.currentStage)
	}
	e.currentStage = EngineStageRunning
	e.isRunning = true

	e.clock.Start()
	e.clock.Update()
	e.lastTime = e.clock.Elapsed()

	for e.isRunning {
		if !e.window.PumpMessages() {
			e.isRunning = false
		}
		if e.quitRequested.Load() {
			core.LogInfo("Quit requested, shutting down.")
			e.isRunning = false
		}
		if !e.isRunning {
			break
		}

		e.applyConfigUpdates()

		if e.isSuspended {
			// Nothing to present to; give the time back to the OS.
			e.window.Sleep(e.config.SuspendSleep())
			continue
		}

		e.clock.Update()
		currentTime := e.clock.Elapsed()
		delta := currentTime - e.lastTime

		if err := e.renderer.DrawFrame(); err != nil {
			e.deviceFailed = core.IsDeviceFatal(err)
			return fmt.Errorf("engine session %s: %w", e.sessionID, err)
		}

		if e.metrics.Update(delta) {
			core.LogDebug("FPS: %.0f, frame time: %.3fms", e.metrics.FramesPerSecond(), e.metrics.FrameTime())
		}
		e.lastTime = currentTime
	}

	return nil
}

// RequestQuit asks the run loop to stop before the next frame. Safe to call
// from any goroutine.
func (e *Engine) RequestQuit() {
	e.quitRequested.Store(true)
}

// Shutdown releases the renderer (after the device went idle) and the event
// registrations. After a timed out or lost device the GPU objects are left
// alone, since waiting for the device to go idle could block forever.
func (e *Engine) Shutdown() error {
	e.currentStage = EngineStageShuttingDown

	var err error
	if e.renderer != nil {
		if e.deviceFailed {
			core.LogError("Engine session %s: device failed, skipping GPU teardown.", e.sessionID)
		} else {
			err = e.renderer.Destroy()
		}
		e.renderer = nil
	}
	e.release.Flush()

	core.LogInfo("Engine session %s shut down.", e.sessionID)
	return err
}

func (e *Engine) Renderer() *renderer.Renderer {
	return e.renderer
}

func (e *Engine) IsSuspended() bool {
	return e.isSuspended
}

// GetFramebufferSize returns the width and height (in this order) of the
// last known framebuffer size.
func (e *Engine) GetFramebufferSize() (uint32, uint32) {
	return e.width, e.height
}

func (e *Engine) applyConfigUpdates() {
	if e.configUpdates == nil {
		return
	}
	for {
		select {
		case config, ok := <-e.configUpdates:
			if !ok {
				e.configUpdates = nil
				return
			}
			if config == nil {
				continue
			}
			if err := core.SetLogLevel(config.LogLevel); err != nil {
				core.LogWarn("ignoring log level %q: %s", config.LogLevel, err)
			}
			e.renderer.SetClearColor(config.ClearColorValue(), config.ClearColorPeriod)
			e.config.LogLevel = config.LogLevel
			e.config.ClearColor = config.ClearColor
			e.config.ClearColorPeriod = config.ClearColorPeriod
			core.LogInfo("Configuration reloaded.")
		default:
			return
		}
	}
}

func (e *Engine) onQuit(code core.SystemEventCode, sender interface{}, listener interface{}, data core.EventContext) bool {
	core.LogInfo("EVENT_CODE_APPLICATION_QUIT received, shutting down.")
	e.isRunning = false
	return true
}

func (e *Engine) onKey(code core.SystemEventCode, sender interface{}, listener interface{}, data core.EventContext) bool {
	ke := data.Key
	if ke == nil {
		core.LogError("no key attached to the event code `%d`", code)
		return false
	}

	core.LogDebug(ke.Describe())

	if code == core.EVENT_CODE_KEY_PRESSED && ke.KeyCode == core.KEY_ESCAPE {
		// NOTE: Technically firing an event to itself, but there may be other listeners.
		e.events.Fire(core.EVENT_CODE_APPLICATION_QUIT, e, core.EventContext{})
		// Block anything else from processing this.
		return true
	}
	return false
}

func (e *Engine) onResized(code core.SystemEventCode, sender interface{}, listener interface{}, data core.EventContext) bool {
	width, height := data.Width, data.Height

	// Check if different. If so, trigger a resize.
	if width == e.width && height == e.height {
		return false
	}
	e.width = width
	e.height = height
	core.LogDebug("Window resize: %d, %d", width, height)

	// Handle minimization
	if width == 0 || height == 0 {
		core.LogInfo("Window minimized, suspending application.")
		e.isSuspended = true
		return true
	}
	if e.isSuspended {
		core.LogInfo("Window restored, resuming application.")
		e.isSuspended = false
	}
	e.renderer.Resized(width, height)
	return true
}

func (e *Engine) onMinimize(code core.SystemEventCode, sender interface{}, listener interface{}, data core.EventContext) bool {
	switch code {
	case core.EVENT_CODE_MINIMIZED:
		if !e.isSuspended {
			core.LogInfo("Window minimized, suspending application.")
		}
		e.isSuspended = true
	case core.EVENT_CODE_RESTORED:
		if e.isSuspended {
			core.LogInfo("Window restored, resuming application.")
		}
		e.isSuspended = false
	}
	return true
}
