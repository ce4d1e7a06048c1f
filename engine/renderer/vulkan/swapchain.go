package vulkan

import (
	"fmt"
	"math"
	"time"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/ignis/engine/core"
	"github.com/spaghettifunk/ignis/engine/renderer"
)

// VulkanSwapchain implements renderer.Swapchain.
type VulkanSwapchain struct {
	device      *VulkanDevice
	Handle      vk.Swapchain
	ImageFormat vk.SurfaceFormat
	PresentMode vk.PresentMode
	ImageExtent vk.Extent2D
	images      []*VulkanImage
}

// CreateSwapchain negotiates the swapchain with the surface: the requested
// format must be offered, FIFO is the fallback present mode, the extent is
// the surface's current extent when it dictates one, and the image count is
// one above the minimum, capped at the maximum.
func (vd *VulkanDevice) CreateSwapchain(request renderer.SwapchainRequest) (renderer.Swapchain, error) {
	support, err := DeviceQuerySwapchainSupport(vd.PhysicalDevice, vd.context.Surface)
	if err != nil {
		return nil, err
	}
	caps := support.Capabilities

	swapchain := &VulkanSwapchain{device: vd}

	wanted := toVkFormat(request.Format)
	found := false
	for _, format := range support.Formats {
		if format.Format == wanted && format.ColorSpace == vk.ColorSpaceSrgbNonlinear {
			swapchain.ImageFormat = format
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: format %d with sRGB non-linear color space", core.ErrUnsupportedFormat, request.Format)
	}

	swapchain.PresentMode = vk.PresentModeFifo
	for _, mode := range support.PresentModes {
		if mode == toVkPresentMode(request.PresentMode) {
			swapchain.PresentMode = mode
			break
		}
	}

	swapchain.ImageExtent = vk.Extent2D{Width: request.Width, Height: request.Height}
	if caps.CurrentExtent.Width != math.MaxUint32 {
		swapchain.ImageExtent = caps.CurrentExtent
	}
	// Clamp to the value allowed by the GPU.
	swapchain.ImageExtent.Width = clamp(swapchain.ImageExtent.Width, caps.MinImageExtent.Width, caps.MaxImageExtent.Width)
	swapchain.ImageExtent.Height = clamp(swapchain.ImageExtent.Height, caps.MinImageExtent.Height, caps.MaxImageExtent.Height)

	imageCount := caps.MinImageCount + 1
	if caps.MaxImageCount > 0 && imageCount > caps.MaxImageCount {
		imageCount = caps.MaxImageCount
	}

	usage := toVkImageUsage(request.Usage)
	if caps.SupportedUsageFlags&usage != usage {
		core.LogWarn("Surface does not report support for every requested image usage.")
	}

	swapchainCreateInfo := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          vd.context.Surface,
		MinImageCount:    imageCount,
		ImageFormat:      swapchain.ImageFormat.Format,
		ImageColorSpace:  swapchain.ImageFormat.ColorSpace,
		ImageExtent:      swapchain.ImageExtent,
		ImageArrayLayers: 1,
		ImageUsage:       usage,
		PreTransform:     caps.CurrentTransform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      swapchain.PresentMode,
		Clipped:          vk.True,
	}
	if vd.GraphicsQueueIndex != vd.PresentQueueIndex {
		swapchainCreateInfo.ImageSharingMode = vk.SharingModeConcurrent
		swapchainCreateInfo.QueueFamilyIndexCount = 2
		swapchainCreateInfo.PQueueFamilyIndices = []uint32{vd.GraphicsQueueIndex, vd.PresentQueueIndex}
	} else {
		swapchainCreateInfo.ImageSharingMode = vk.SharingModeExclusive
	}

	var handle vk.Swapchain
	if res := vk.CreateSwapchain(vd.LogicalDevice, &swapchainCreateInfo, vd.context.Allocator, &handle); res != vk.Success {
		return nil, vulkanError("vkCreateSwapchainKHR", res)
	}
	swapchain.Handle = handle

	if err := swapchain.createImageViews(); err != nil {
		swapchain.Destroy()
		return nil, err
	}

	core.LogDebug("Vulkan swapchain created: %d images, %dx%d.", len(swapchain.images), swapchain.ImageExtent.Width, swapchain.ImageExtent.Height)
	return swapchain, nil
}

func (vs *VulkanSwapchain) createImageViews() error {
	device := vs.device

	var imageCount uint32
	if res := vk.GetSwapchainImages(device.LogicalDevice, vs.Handle, &imageCount, nil); res != vk.Success {
		return vulkanError("vkGetSwapchainImagesKHR", res)
	}
	handles := make([]vk.Image, imageCount)
	if res := vk.GetSwapchainImages(device.LogicalDevice, vs.Handle, &imageCount, handles); res != vk.Success {
		return vulkanError("vkGetSwapchainImagesKHR", res)
	}

	for _, handle := range handles {
		image := &VulkanImage{
			Handle: handle,
			Width:  vs.ImageExtent.Width,
			Height: vs.ImageExtent.Height,
			format: vs.ImageFormat.Format,
		}
		viewInfo := vk.ImageViewCreateInfo{
			SType:    vk.StructureTypeImageViewCreateInfo,
			Image:    handle,
			ViewType: vk.ImageViewType2d,
			Format:   vs.ImageFormat.Format,
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
				BaseMipLevel:   0,
				LevelCount:     1,
				BaseArrayLayer: 0,
				LayerCount:     1,
			},
		}
		if res := vk.CreateImageView(device.LogicalDevice, &viewInfo, device.context.Allocator, &image.View); res != vk.Success {
			return vulkanError("vkCreateImageView", res)
		}
		vs.images = append(vs.images, image)
	}
	return nil
}

func (vs *VulkanSwapchain) Images() []renderer.Image {
	images := make([]renderer.Image, len(vs.images))
	for i, image := range vs.images {
		images[i] = image
	}
	return images
}

func (vs *VulkanSwapchain) Format() renderer.Format {
	return fromVkFormat(vs.ImageFormat.Format)
}

func (vs *VulkanSwapchain) Extent() renderer.Extent2D {
	return renderer.Extent2D{Width: vs.ImageExtent.Width, Height: vs.ImageExtent.Height}
}

// AcquireNextImage returns the next presentable image index. A suboptimal
// swapchain still hands out an image and is reported at present time.
func (vs *VulkanSwapchain) AcquireNextImage(timeout time.Duration, signal renderer.Semaphore) (uint32, error) {
	var imageIndex uint32
	result := vk.AcquireNextImage(vs.device.LogicalDevice, vs.Handle, uint64(timeout.Nanoseconds()), semaphoreHandle(signal), vk.NullFence, &imageIndex)
	switch result {
	case vk.Success, vk.Suboptimal:
		return imageIndex, nil
	default:
		return 0, vulkanError("vkAcquireNextImageKHR", result)
	}
}

// Present returns the image to the presentation engine once wait is
// signaled. Out-of-date and suboptimal results come back as the matching
// core sentinels.
func (vs *VulkanSwapchain) Present(imageIndex uint32, wait renderer.Semaphore) error {
	presentInfo := vk.PresentInfo{
		SType:          vk.StructureTypePresentInfo,
		SwapchainCount: 1,
		PSwapchains:    []vk.Swapchain{vs.Handle},
		PImageIndices:  []uint32{imageIndex},
	}
	if handle := semaphoreHandle(wait); handle != vk.NullSemaphore {
		presentInfo.WaitSemaphoreCount = 1
		presentInfo.PWaitSemaphores = []vk.Semaphore{handle}
	}

	queue := vs.device.presentQueue
	return vs.device.locks.SafeQueueCall(queue.familyIndex, func() error {
		return vulkanError("vkQueuePresentKHR", vk.QueuePresent(queue.Handle, &presentInfo))
	})
}

// Destroy frees the views and then the swapchain. The images themselves go
// with the swapchain.
func (vs *VulkanSwapchain) Destroy() {
	for _, image := range vs.images {
		image.destroyView(vs.device)
	}
	vs.images = nil

	if vs.Handle != vk.NullSwapchain {
		vk.DestroySwapchain(vs.device.LogicalDevice, vs.Handle, vs.device.context.Allocator)
		vs.Handle = vk.NullSwapchain
	}
}
