package renderer

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/spaghettifunk/ignis/engine/core"
)

type Config struct {
	// Initial framebuffer size.
	Width  uint32
	Height uint32
	// Number of frames that may be in flight. Defaults to FRAME_OVERLAP.
	FrameOverlap int
	// Bound on fence waits and image acquisition. Defaults to one second.
	FenceTimeout time.Duration
	// Base clear color, modulated over time by ClearPeriod.
	ClearColor Color
	// Frames per radian of the clear color oscillation. Defaults to 120.
	ClearPeriod float64
}

// Renderer drives the per-frame wait, acquire, record, submit and present
// sequence over a ring of frame slots.
type Renderer struct {
	device  Device
	queue   Queue
	surface *SwapchainSurface
	frames  *FrameRing

	// Incremented once per submitted frame.
	frameNumber  uint64
	fenceTimeout time.Duration
	clearColor   Color
	clearPeriod  float64

	// The framebuffer's current size.
	framebufferWidth  uint32
	framebufferHeight uint32
	// Current generation of framebuffer size. If it does not match
	// lastSizeGeneration the swapchain is rebuilt before the next frame.
	sizeGeneration     uint64
	lastSizeGeneration uint64

	release core.DeletionQueue
}

// New builds the swapchain surface and the frame ring on an already created
// device.
func New(device Device, config Config) (*Renderer, error) {
	if config.FrameOverlap == 0 {
		config.FrameOverlap = FRAME_OVERLAP
	}
	if config.FenceTimeout == 0 {
		config.FenceTimeout = time.Second
	}
	if config.ClearPeriod == 0 {
		config.ClearPeriod = 120
	}

	r := &Renderer{
		device:            device,
		queue:             device.GraphicsQueue(),
		fenceTimeout:      config.FenceTimeout,
		clearColor:        config.ClearColor,
		clearPeriod:       config.ClearPeriod,
		framebufferWidth:  config.Width,
		framebufferHeight: config.Height,
	}

	r.surface = NewSwapchainSurface(device)
	if err := r.surface.Build(config.Width, config.Height); err != nil {
		return nil, err
	}
	r.release.Push(r.surface.Destroy)

	frames, err := NewFrameRing(device, config.FrameOverlap)
	if err != nil {
		r.release.Flush()
		return nil, err
	}
	r.frames = frames
	r.release.Push(r.frames.Destroy)

	core.LogInfo("Renderer initialized successfully.")
	return r, nil
}

// DrawFrame renders and presents one frame. A stale swapchain is rebuilt
// and is never reported as an error; any error returned is fatal.
func (r *Renderer) DrawFrame() error {
	if r.sizeGeneration != r.lastSizeGeneration {
		if err := r.rebuildSwapchain(); err != nil {
			return err
		}
	}

	frame := r.frames.Slot(r.frameNumber)

	// Wait until the GPU finished the last submission that used this slot.
	if err := frame.RenderFence.Wait(r.fenceTimeout); err != nil {
		return fmt.Errorf("frame %d: render fence wait failed: %w", r.frameNumber, err)
	}

	imageIndex, err := r.surface.Acquire(r.fenceTimeout, frame.ImageAcquired)
	if errors.Is(err, core.ErrSwapchainOutOfDate) {
		// Nothing was drawn, so the frame number stays where it is and the
		// same frame is retried on the next iteration.
		core.LogDebug("Swapchain out of date at acquire on frame %d, rebuilding.", r.frameNumber)
		return r.rebuildSwapchain()
	}
	if err != nil {
		return fmt.Errorf("frame %d: failed to acquire swapchain image: %w", r.frameNumber, err)
	}

	// The fence is only reset once a submission that signals it is certain.
	if err := frame.RenderFence.Reset(); err != nil {
		return fmt.Errorf("frame %d: failed to reset render fence: %w", r.frameNumber, err)
	}
	if err := frame.Recorder.Reset(); err != nil {
		return fmt.Errorf("frame %d: failed to reset command recorder: %w", r.frameNumber, err)
	}

	if err := r.record(frame.Recorder, r.surface.Image(imageIndex)); err != nil {
		return fmt.Errorf("frame %d: %w", r.frameNumber, err)
	}

	if err := r.queue.Submit(Submission{
		Recorder:  frame.Recorder,
		Wait:      frame.ImageAcquired,
		WaitStage: StageColorAttachmentOutput,
		Signal:    frame.RenderComplete,
		Fence:     frame.RenderFence,
	}); err != nil {
		return fmt.Errorf("frame %d: queue submit failed: %w", r.frameNumber, err)
	}

	err = r.surface.Present(imageIndex, frame.RenderComplete)
	switch {
	case core.IsSwapchainStale(err):
		// Expected while resizing.
		if err := r.rebuildSwapchain(); err != nil {
			return err
		}
	case err != nil:
		return fmt.Errorf("frame %d: present failed: %w", r.frameNumber, err)
	}

	r.frameNumber++
	return nil
}

func (r *Renderer) record(cmd CommandRecorder, image Image) error {
	if err := cmd.Begin(true); err != nil {
		return fmt.Errorf("failed to begin command recorder: %w", err)
	}

	TransitionImage(cmd, image, LayoutUndefined, LayoutGeneral)
	cmd.ClearColorImage(image, LayoutGeneral, ClearColorFor(r.frameNumber, r.clearColor, r.clearPeriod))
	TransitionImage(cmd, image, LayoutGeneral, LayoutPresentSrc)

	if err := cmd.End(); err != nil {
		return fmt.Errorf("failed to end command recorder: %w", err)
	}
	return nil
}

func (r *Renderer) rebuildSwapchain() error {
	if err := r.surface.Rebuild(r.framebufferWidth, r.framebufferHeight); err != nil {
		return err
	}
	r.lastSizeGeneration = r.sizeGeneration
	return nil
}

// Resized records a new framebuffer size; the swapchain is rebuilt at the
// start of the next frame.
func (r *Renderer) Resized(width, height uint32) {
	r.framebufferWidth = width
	r.framebufferHeight = height
	r.sizeGeneration++

	core.LogInfo("Renderer resized: w/h/gen: %d/%d/%d", width, height, r.sizeGeneration)
}

// SetClearColor changes the base clear color and its oscillation period.
func (r *Renderer) SetClearColor(color Color, period float64) {
	r.clearColor = color
	if period > 0 {
		r.clearPeriod = period
	}
}

func (r *Renderer) FrameNumber() uint64 {
	return r.frameNumber
}

func (r *Renderer) FrameOverlap() int {
	return r.frames.Len()
}

func (r *Renderer) Surface() *SwapchainSurface {
	return r.surface
}

// Destroy waits for the device to go idle and releases the frame ring and
// the swapchain, in reverse order of creation.
func (r *Renderer) Destroy() error {
	if err := r.device.WaitIdle(); err != nil {
		return fmt.Errorf("failed to wait for device idle on shutdown: %w", err)
	}
	r.release.Flush()
	core.LogInfo("Renderer destroyed.")
	return nil
}

// ClearColorFor returns base scaled by |sin(frame/period)|, fully opaque.
func ClearColorFor(frame uint64, base Color, period float64) Color {
	flash := float32(math.Abs(math.Sin(float64(frame) / period)))
	return Color{
		R: base.R * flash,
		G: base.G * flash,
		B: base.B * flash,
		A: 1,
	}
}
