package renderer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/ignis/engine/core"
	"github.com/spaghettifunk/ignis/engine/renderer"
	"github.com/spaghettifunk/ignis/engine/renderer/rendertest"
)

func TestSwapchainSurfaceBuildRequestsFixedFormat(t *testing.T) {
	dev := rendertest.NewDevice()
	ss := renderer.NewSwapchainSurface(dev)
	require.NoError(t, ss.Build(1700, 900))

	require.Len(t, dev.Swapchains(), 1)
	req := dev.Swapchains()[0].Request
	assert.Equal(t, renderer.FormatB8G8R8A8Unorm, req.Format)
	assert.Equal(t, renderer.PresentModeFifo, req.PresentMode)
	assert.Equal(t, renderer.ImageUsageTransferDst|renderer.ImageUsageColorAttachment, req.Usage)
	assert.Equal(t, renderer.Extent2D{Width: 1700, Height: 900}, ss.Extent())
	assert.Equal(t, 3, ss.ImageCount())
}

func TestSwapchainSurfaceKeepsGrantedExtent(t *testing.T) {
	dev := rendertest.NewDevice()
	dev.GrantedExtent = &renderer.Extent2D{Width: 1280, Height: 720}
	ss := renderer.NewSwapchainSurface(dev)
	require.NoError(t, ss.Build(1700, 900))

	assert.Equal(t, renderer.Extent2D{Width: 1280, Height: 720}, ss.Extent())
	assert.Equal(t, renderer.Extent2D{Width: 1280, Height: 720}, ss.Image(0).Extent())
}

func TestSwapchainSurfaceUnsupportedFormat(t *testing.T) {
	dev := rendertest.NewDevice()
	dev.SupportedFormats = []renderer.Format{renderer.FormatB8G8R8A8Srgb}
	ss := renderer.NewSwapchainSurface(dev)

	err := ss.Build(1700, 900)
	require.ErrorIs(t, err, core.ErrUnsupportedFormat)
	assert.Zero(t, ss.ImageCount())
}

func TestSwapchainSurfaceRebuildIsIdempotent(t *testing.T) {
	dev := rendertest.NewDevice()
	ss := renderer.NewSwapchainSurface(dev)
	require.NoError(t, ss.Build(800, 600))
	count, format, extent := ss.ImageCount(), ss.Format(), ss.Extent()

	require.NoError(t, ss.Rebuild(800, 600))

	assert.Equal(t, count, ss.ImageCount())
	assert.Equal(t, format, ss.Format())
	assert.Equal(t, extent, ss.Extent())
	require.Len(t, dev.Swapchains(), 2)
	assert.True(t, dev.Swapchains()[0].Destroyed)
	assert.False(t, dev.Swapchains()[1].Destroyed)
}

func TestSwapchainSurfaceRebuildWaitsForIdleFirst(t *testing.T) {
	dev := rendertest.NewDevice()
	ss := renderer.NewSwapchainSurface(dev)
	require.NoError(t, ss.Build(800, 600))

	dev.ResetCalls()
	require.NoError(t, ss.Rebuild(1024, 768))

	assert.Equal(t, []string{
		"device.wait_idle",
		"swapchain#0.destroy",
		"swapchain#1.create",
	}, dev.Calls())
	assert.Equal(t, renderer.Extent2D{Width: 1024, Height: 768}, ss.Extent())
}

func TestSwapchainSurfaceRebuildSkipsZeroSize(t *testing.T) {
	dev := rendertest.NewDevice()
	ss := renderer.NewSwapchainSurface(dev)
	require.NoError(t, ss.Build(800, 600))

	dev.ResetCalls()
	require.NoError(t, ss.Rebuild(0, 600))
	require.NoError(t, ss.Rebuild(800, 0))

	assert.Empty(t, dev.Calls())
	assert.Equal(t, renderer.Extent2D{Width: 800, Height: 600}, ss.Extent())
}

func TestSwapchainSurfaceDestroyIsSafeTwice(t *testing.T) {
	dev := rendertest.NewDevice()
	ss := renderer.NewSwapchainSurface(dev)
	require.NoError(t, ss.Build(800, 600))

	ss.Destroy()
	ss.Destroy()

	assert.Len(t, dev.CallsWithSuffix(".destroy"), 1)
	assert.Equal(t, renderer.FormatUndefined, ss.Format())
}
