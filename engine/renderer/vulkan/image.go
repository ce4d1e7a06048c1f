package vulkan

import (
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/ignis/engine/renderer"
)

// VulkanImage is a swapchain image with its view. The image handle belongs
// to the swapchain; only the view is owned here.
type VulkanImage struct {
	Handle vk.Image
	View   vk.ImageView
	Width  uint32
	Height uint32
	format vk.Format
}

func (vi *VulkanImage) Format() renderer.Format {
	return fromVkFormat(vi.format)
}

func (vi *VulkanImage) Extent() renderer.Extent2D {
	return renderer.Extent2D{Width: vi.Width, Height: vi.Height}
}

func (vi *VulkanImage) destroyView(device *VulkanDevice) {
	if vi.View != vk.NullImageView {
		vk.DestroyImageView(device.LogicalDevice, vi.View, device.context.Allocator)
		vi.View = vk.NullImageView
	}
}
