package vulkan

import (
	"fmt"
	"time"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/ignis/engine/core"
)

type VulkanFence struct {
	device     *VulkanDevice
	Handle     vk.Fence
	IsSignaled bool
}

func (vd *VulkanDevice) newFence(createSignaled bool) (*VulkanFence, error) {
	fence := &VulkanFence{
		device: vd,
		// Make sure to signal the fence if required.
		IsSignaled: createSignaled,
	}

	fenceCreateInfo := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	if fence.IsSignaled {
		fenceCreateInfo.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}

	var handle vk.Fence
	if res := vk.CreateFence(vd.LogicalDevice, &fenceCreateInfo, vd.context.Allocator, &handle); res != vk.Success {
		return nil, vulkanError("vkCreateFence", res)
	}
	fence.Handle = handle
	return fence, nil
}

// Wait blocks until the fence is signaled. A fence already known to be
// signaled returns at once without calling into the driver.
func (vf *VulkanFence) Wait(timeout time.Duration) error {
	if vf.IsSignaled {
		return nil
	}
	result := vk.WaitForFences(vf.device.LogicalDevice, 1, []vk.Fence{vf.Handle}, vk.True, uint64(timeout.Nanoseconds()))
	switch result {
	case vk.Success:
		vf.IsSignaled = true
		return nil
	case vk.Timeout:
		core.LogWarn("vk_fence_wait - Timed out after %s", timeout)
	case vk.ErrorDeviceLost:
		core.LogError("vk_fence_wait - VK_ERROR_DEVICE_LOST.")
	default:
		core.LogError("vk_fence_wait - %s.", VulkanResultString(result))
	}
	return vulkanError("vkWaitForFences", result)
}

func (vf *VulkanFence) Reset() error {
	if res := vk.ResetFences(vf.device.LogicalDevice, 1, []vk.Fence{vf.Handle}); res != vk.Success {
		return fmt.Errorf("failed to reset fence: %w", vulkanError("vkResetFences", res))
	}
	vf.IsSignaled = false
	return nil
}

func (vf *VulkanFence) Destroy() {
	if vf.Handle != vk.NullFence {
		vk.DestroyFence(vf.device.LogicalDevice, vf.Handle, vf.device.context.Allocator)
		vf.Handle = vk.NullFence
	}
	vf.IsSignaled = false
}

type VulkanSemaphore struct {
	device *VulkanDevice
	Handle vk.Semaphore
}

func (vd *VulkanDevice) newSemaphore() (*VulkanSemaphore, error) {
	semaphoreCreateInfo := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	var handle vk.Semaphore
	if res := vk.CreateSemaphore(vd.LogicalDevice, &semaphoreCreateInfo, vd.context.Allocator, &handle); res != vk.Success {
		return nil, vulkanError("vkCreateSemaphore", res)
	}
	return &VulkanSemaphore{device: vd, Handle: handle}, nil
}

func (vs *VulkanSemaphore) Destroy() {
	if vs.Handle != vk.NullSemaphore {
		vk.DestroySemaphore(vs.device.LogicalDevice, vs.Handle, vs.device.context.Allocator)
		vs.Handle = vk.NullSemaphore
	}
}
