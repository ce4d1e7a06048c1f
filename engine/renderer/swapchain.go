package renderer

import (
	"fmt"
	"time"

	"github.com/spaghettifunk/ignis/engine/core"
)

const (
	// SWAPCHAIN_FORMAT is the fixed pixel format of the presentable images.
	SWAPCHAIN_FORMAT = FormatB8G8R8A8Unorm
	// SWAPCHAIN_PRESENT_MODE caps presentation to the display refresh rate.
	SWAPCHAIN_PRESENT_MODE = PresentModeFifo
	// The clear path writes images as a transfer destination.
	SWAPCHAIN_USAGE = ImageUsageTransferDst | ImageUsageColorAttachment
)

// SwapchainSurface owns the presentable image set and rebuilds it when the
// window changes size or the surface goes stale.
type SwapchainSurface struct {
	device    Device
	swapchain Swapchain
}

func NewSwapchainSurface(device Device) *SwapchainSurface {
	return &SwapchainSurface{device: device}
}

// Build creates the swapchain for the requested size. The granted extent,
// available through Extent, may differ from the request.
func (ss *SwapchainSurface) Build(width, height uint32) error {
	sc, err := ss.device.CreateSwapchain(SwapchainRequest{
		Width:       width,
		Height:      height,
		Format:      SWAPCHAIN_FORMAT,
		PresentMode: SWAPCHAIN_PRESENT_MODE,
		Usage:       SWAPCHAIN_USAGE,
	})
	if err != nil {
		return fmt.Errorf("failed to create swapchain %dx%d: %w", width, height, err)
	}
	ss.swapchain = sc

	extent := sc.Extent()
	core.LogInfo("Swapchain built: %d images, requested %dx%d, granted %dx%d.",
		len(sc.Images()), width, height, extent.Width, extent.Height)
	return nil
}

// Destroy releases the views and the swapchain. The images go with the
// swapchain and are never freed on their own.
func (ss *SwapchainSurface) Destroy() {
	if ss.swapchain == nil {
		return
	}
	ss.swapchain.Destroy()
	ss.swapchain = nil
}

// Rebuild waits for the device to go idle, then destroys and builds the
// swapchain again. A zero dimension leaves the current swapchain in place
// since there is nothing to present to.
func (ss *SwapchainSurface) Rebuild(width, height uint32) error {
	if width == 0 || height == 0 {
		core.LogDebug("Swapchain rebuild requested with a zero dimension (%dx%d), skipping.", width, height)
		return nil
	}
	if err := ss.device.WaitIdle(); err != nil {
		return fmt.Errorf("failed to wait for device idle before rebuild: %w", err)
	}
	ss.Destroy()
	return ss.Build(width, height)
}

// Acquire returns the next presentable image index.
func (ss *SwapchainSurface) Acquire(timeout time.Duration, signal Semaphore) (uint32, error) {
	return ss.swapchain.AcquireNextImage(timeout, signal)
}

func (ss *SwapchainSurface) Present(imageIndex uint32, wait Semaphore) error {
	return ss.swapchain.Present(imageIndex, wait)
}

func (ss *SwapchainSurface) Image(index uint32) Image {
	return ss.swapchain.Images()[index]
}

func (ss *SwapchainSurface) ImageCount() int {
	if ss.swapchain == nil {
		return 0
	}
	return len(ss.swapchain.Images())
}

func (ss *SwapchainSurface) Format() Format {
	if ss.swapchain == nil {
		return FormatUndefined
	}
	return ss.swapchain.Format()
}

func (ss *SwapchainSurface) Extent() Extent2D {
	if ss.swapchain == nil {
		return Extent2D{}
	}
	return ss.swapchain.Extent()
}
