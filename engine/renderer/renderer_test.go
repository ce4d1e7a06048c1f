package renderer_test

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/ignis/engine/core"
	"github.com/spaghettifunk/ignis/engine/renderer"
	"github.com/spaghettifunk/ignis/engine/renderer/rendertest"
)

var blue = renderer.Color{B: 1, A: 1}

func newRenderer(t *testing.T, dev *rendertest.Device) *renderer.Renderer {
	t.Helper()
	r, err := renderer.New(dev, renderer.Config{
		Width:        1700,
		Height:       900,
		FenceTimeout: 10 * time.Millisecond,
		ClearColor:   blue,
	})
	require.NoError(t, err)
	return r
}

func TestRendererFramesRotateThroughSlots(t *testing.T) {
	dev := rendertest.NewDevice()
	r := newRenderer(t, dev)
	require.Equal(t, renderer.FRAME_OVERLAP, r.FrameOverlap())

	for i := 0; i < 6; i++ {
		require.NoError(t, r.DrawFrame())
	}

	fences := dev.Fences()
	require.Len(t, dev.Submissions(), 6)
	for i, s := range dev.Submissions() {
		assert.Same(t, fences[i%renderer.FRAME_OVERLAP], s.Fence, "frame %d", i)
	}
	assert.Equal(t, uint64(6), r.FrameNumber())
}

func TestRendererWaitsOnFenceBeforeResettingRecorder(t *testing.T) {
	dev := rendertest.NewDevice()
	r := newRenderer(t, dev)
	dev.ResetCalls()

	for i := 0; i < 4; i++ {
		require.NoError(t, r.DrawFrame())
	}

	// For every recorder reset, the same slot's fence was waited on (and the
	// wait succeeded) earlier in the same frame.
	calls := dev.Calls()
	resets := 0
	for i, c := range calls {
		if !strings.HasPrefix(c, "recorder#") || !strings.HasSuffix(c, ".reset") {
			continue
		}
		resets++
		slot := strings.TrimSuffix(strings.TrimPrefix(c, "recorder#"), ".reset")
		waited := false
		for _, prev := range calls[:i] {
			if prev == "fence#"+slot+".wait" {
				waited = true
			}
		}
		assert.True(t, waited, "call %d: %s without a prior fence wait", i, c)
	}
	assert.Equal(t, 4, resets)
}

func TestRendererFrameCallSequence(t *testing.T) {
	dev := rendertest.NewDevice()
	r := newRenderer(t, dev)
	dev.ResetCalls()

	require.NoError(t, r.DrawFrame())

	assert.Equal(t, []string{
		"fence#0.wait",
		"swapchain#0.acquire",
		"fence#0.reset",
		"recorder#0.reset",
		"recorder#0.begin",
		"recorder#0.barrier",
		"recorder#0.clear",
		"recorder#0.barrier",
		"recorder#0.end",
		"queue.submit",
		"swapchain#0.present",
	}, dev.Calls())
}

func TestRendererRecordsClearBetweenTransitions(t *testing.T) {
	dev := rendertest.NewDevice()
	r := newRenderer(t, dev)
	require.NoError(t, r.DrawFrame())

	rec := dev.Recorders()[0]
	require.Len(t, rec.Barriers, 2)
	assert.Equal(t, renderer.LayoutUndefined, rec.Barriers[0].OldLayout)
	assert.Equal(t, renderer.LayoutGeneral, rec.Barriers[0].NewLayout)
	assert.Equal(t, renderer.LayoutGeneral, rec.Barriers[1].OldLayout)
	assert.Equal(t, renderer.LayoutPresentSrc, rec.Barriers[1].NewLayout)

	require.Len(t, rec.Clears, 1)
	assert.Equal(t, renderer.LayoutGeneral, rec.Clears[0].Layout)
	assert.Equal(t, renderer.Color{A: 1}, rec.Clears[0].Color)

	sub := dev.Submissions()[0]
	assert.Equal(t, renderer.StageColorAttachmentOutput, sub.WaitStage)
	assert.Same(t, dev.Semaphores()[0], sub.Wait)
	assert.Same(t, dev.Semaphores()[1], sub.Signal)
}

func TestRendererRebuildsOnAcquireOutOfDate(t *testing.T) {
	dev := rendertest.NewDevice()
	r := newRenderer(t, dev)
	dev.AcquireResults = []error{nil, nil, core.ErrSwapchainOutOfDate}

	require.NoError(t, r.DrawFrame())
	require.NoError(t, r.DrawFrame())
	require.Equal(t, uint64(2), r.FrameNumber())

	// Nothing is submitted and the frame number holds.
	require.NoError(t, r.DrawFrame())
	assert.Equal(t, uint64(2), r.FrameNumber())
	assert.Len(t, dev.Submissions(), 2)
	require.Len(t, dev.Swapchains(), 2)
	assert.True(t, dev.Swapchains()[0].Destroyed)

	// The retried frame uses the rebuilt swapchain and the same slot.
	require.NoError(t, r.DrawFrame())
	assert.Equal(t, uint64(3), r.FrameNumber())
	require.Len(t, dev.Submissions(), 3)
	assert.Same(t, dev.Fences()[0], dev.Submissions()[2].Fence)
	assert.Len(t, dev.Swapchains()[1].Presented, 1)
}

func TestRendererRebuildsOnPresentSuboptimal(t *testing.T) {
	dev := rendertest.NewDevice()
	r := newRenderer(t, dev)
	dev.PresentResults = []error{core.ErrSwapchainSuboptimal}

	require.NoError(t, r.DrawFrame())

	assert.Equal(t, uint64(1), r.FrameNumber())
	require.Len(t, dev.Swapchains(), 2)
	assert.True(t, dev.Swapchains()[0].Destroyed)

	require.NoError(t, r.DrawFrame())
	assert.Len(t, dev.Swapchains()[1].Presented, 1)
}

func TestRendererRebuildsAfterResize(t *testing.T) {
	dev := rendertest.NewDevice()
	r := newRenderer(t, dev)
	require.NoError(t, r.DrawFrame())

	r.Resized(800, 600)
	require.NoError(t, r.DrawFrame())

	require.Len(t, dev.Swapchains(), 2)
	assert.Equal(t, uint32(800), dev.Swapchains()[1].Request.Width)
	assert.Equal(t, uint32(600), dev.Swapchains()[1].Request.Height)
	assert.Equal(t, renderer.Extent2D{Width: 800, Height: 600}, r.Surface().Extent())

	// A pending size is applied once.
	require.NoError(t, r.DrawFrame())
	assert.Len(t, dev.Swapchains(), 2)
}

func TestRendererFenceTimeoutIsFatal(t *testing.T) {
	dev := rendertest.NewDevice()
	dev.HoldSubmissions = true
	r := newRenderer(t, dev)

	require.NoError(t, r.DrawFrame())
	require.NoError(t, r.DrawFrame())

	// Slot 0 is still in flight.
	err := r.DrawFrame()
	require.ErrorIs(t, err, core.ErrDeviceTimeout)
	assert.Equal(t, uint64(2), r.FrameNumber())
	assert.Len(t, dev.CallsWithSuffix("recorder#0.reset"), 1)

	dev.CompleteSubmissions()
	require.NoError(t, r.DrawFrame())
	assert.Equal(t, uint64(3), r.FrameNumber())
}

func TestRendererAcquireFailureIsFatal(t *testing.T) {
	dev := rendertest.NewDevice()
	r := newRenderer(t, dev)
	dev.AcquireResults = []error{core.ErrDeviceLost}

	err := r.DrawFrame()
	require.ErrorIs(t, err, core.ErrDeviceLost)
	assert.Empty(t, dev.Submissions())
	// The fence was not reset, so the slot is still usable.
	assert.True(t, dev.Fences()[0].Signaled())
}

func TestRendererDestroy(t *testing.T) {
	dev := rendertest.NewDevice()
	r := newRenderer(t, dev)
	require.NoError(t, r.DrawFrame())

	dev.ResetCalls()
	require.NoError(t, r.Destroy())

	calls := dev.Calls()
	require.NotEmpty(t, calls)
	assert.Equal(t, "device.wait_idle", calls[0])
	assert.Equal(t, "swapchain#0.destroy", calls[len(calls)-1])
	for _, rec := range dev.Recorders() {
		assert.True(t, rec.Destroyed)
	}
	for _, f := range dev.Fences() {
		assert.True(t, f.Destroyed)
	}
	for _, s := range dev.Semaphores() {
		assert.True(t, s.Destroyed)
	}
}

func TestRendererRejectsInvalidOverlap(t *testing.T) {
	dev := rendertest.NewDevice()
	_, err := renderer.New(dev, renderer.Config{Width: 10, Height: 10, FrameOverlap: -1})
	require.ErrorIs(t, err, core.ErrInvalidFrameOverlap)
	// The swapchain built before the ring is released again.
	require.Len(t, dev.Swapchains(), 1)
	assert.True(t, dev.Swapchains()[0].Destroyed)
}

func TestClearColorFor(t *testing.T) {
	assert.Equal(t, renderer.Color{A: 1}, renderer.ClearColorFor(0, blue, 120))

	peak := renderer.ClearColorFor(uint64(math.Round(120*math.Pi/2)), blue, 120)
	assert.InDelta(t, 1.0, peak.B, 1e-4)
	assert.Zero(t, peak.R)
	assert.Zero(t, peak.G)
	assert.Equal(t, float32(1), peak.A)

	for frame := uint64(0); frame < 1000; frame += 37 {
		c := renderer.ClearColorFor(frame, renderer.Color{R: 1, G: 0.5, B: 0.25}, 60)
		assert.GreaterOrEqual(t, c.R, float32(0))
		assert.LessOrEqual(t, c.R, float32(1))
		assert.InDelta(t, c.R/2, c.G, 1e-6)
		assert.Equal(t, float32(1), c.A)
	}
}
