package renderer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/ignis/engine/renderer"
	"github.com/spaghettifunk/ignis/engine/renderer/rendertest"
)

var allLayouts = []renderer.ImageLayout{
	renderer.LayoutUndefined,
	renderer.LayoutGeneral,
	renderer.LayoutColorAttachment,
	renderer.LayoutDepthAttachment,
	renderer.LayoutTransferDst,
	renderer.LayoutPresentSrc,
}

func newRecorder(t *testing.T) (*rendertest.Recorder, renderer.Image) {
	t.Helper()
	dev := rendertest.NewDevice()
	cmd, err := dev.NewCommandRecorder(0)
	require.NoError(t, err)
	sc, err := dev.CreateSwapchain(renderer.SwapchainRequest{
		Width: 64, Height: 64, Format: renderer.FormatB8G8R8A8Unorm,
	})
	require.NoError(t, err)
	return cmd.(*rendertest.Recorder), sc.Images()[0]
}

func TestTransitionImageAspect(t *testing.T) {
	for _, oldLayout := range allLayouts {
		for _, newLayout := range allLayouts {
			t.Run(oldLayout.String()+"->"+newLayout.String(), func(t *testing.T) {
				cmd, image := newRecorder(t)
				renderer.TransitionImage(cmd, image, oldLayout, newLayout)

				require.Len(t, cmd.Barriers, 1)
				b := cmd.Barriers[0]
				assert.Equal(t, oldLayout, b.OldLayout)
				assert.Equal(t, newLayout, b.NewLayout)
				if newLayout == renderer.LayoutDepthAttachment {
					assert.Equal(t, renderer.AspectDepth, b.Range.Aspect)
				} else {
					assert.Equal(t, renderer.AspectColor, b.Range.Aspect)
				}
			})
		}
	}
}

func TestTransitionImageCoversWholeImageWithFullScope(t *testing.T) {
	cmd, image := newRecorder(t)
	renderer.TransitionImage(cmd, image, renderer.LayoutUndefined, renderer.LayoutGeneral)

	require.Len(t, cmd.Barriers, 1)
	b := cmd.Barriers[0]
	assert.Same(t, image, b.Image)
	assert.Equal(t, renderer.StageAllCommands, b.SrcStage)
	assert.Equal(t, renderer.StageAllCommands, b.DstStage)
	assert.Equal(t, renderer.AccessMemoryWrite, b.SrcAccess)
	assert.Equal(t, renderer.AccessMemoryWrite|renderer.AccessMemoryRead, b.DstAccess)

	// Zero counts select every remaining level and layer.
	assert.Zero(t, b.Range.BaseMipLevel)
	assert.Zero(t, b.Range.LevelCount)
	assert.Zero(t, b.Range.BaseArrayLayer)
	assert.Zero(t, b.Range.LayerCount)
}
