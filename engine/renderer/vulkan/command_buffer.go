package vulkan

import (
	"errors"
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/ignis/engine/core"
	"github.com/spaghettifunk/ignis/engine/renderer"
)

type VulkanCommandBufferState int

const (
	COMMAND_BUFFER_STATE_READY VulkanCommandBufferState = iota
	COMMAND_BUFFER_STATE_RECORDING
	COMMAND_BUFFER_STATE_RECORDING_ENDED
	COMMAND_BUFFER_STATE_SUBMITTED
	COMMAND_BUFFER_STATE_NOT_ALLOCATED
)

var errCommandBufferState = errors.New("command buffer in wrong state")

// VulkanCommandBuffer is a command pool owning a single primary buffer. The
// pool is created with the reset-command-buffer flag so the buffer can be
// reset on its own every frame.
type VulkanCommandBuffer struct {
	device *VulkanDevice
	Pool   vk.CommandPool
	Handle vk.CommandBuffer
	// Command buffer state.
	State VulkanCommandBufferState
}

// expect fails unless the buffer is in the given state, so a buffer is never
// recorded while the GPU may still be reading it.
func (v *VulkanCommandBuffer) expect(op string, state VulkanCommandBufferState) error {
	if v.State != state {
		return fmt.Errorf("%s: %w: is %d, want %d", op, errCommandBufferState, v.State, state)
	}
	return nil
}

func (vd *VulkanDevice) newCommandBuffer(queueFamily uint32) (*VulkanCommandBuffer, error) {
	cb := &VulkanCommandBuffer{
		device: vd,
		State:  COMMAND_BUFFER_STATE_NOT_ALLOCATED,
	}

	poolCreateInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: queueFamily,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}
	if res := vk.CreateCommandPool(vd.LogicalDevice, &poolCreateInfo, vd.context.Allocator, &cb.Pool); res != vk.Success {
		return nil, vulkanError("vkCreateCommandPool", res)
	}

	allocateInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        cb.Pool,
		CommandBufferCount: 1,
		Level:              vk.CommandBufferLevelPrimary,
	}
	buffers := make([]vk.CommandBuffer, 1)
	if res := vk.AllocateCommandBuffers(vd.LogicalDevice, &allocateInfo, buffers); res != vk.Success {
		vk.DestroyCommandPool(vd.LogicalDevice, cb.Pool, vd.context.Allocator)
		return nil, vulkanError("vkAllocateCommandBuffers", res)
	}
	cb.Handle = buffers[0]
	cb.State = COMMAND_BUFFER_STATE_READY

	return cb, nil
}

// Reset returns the buffer to the initial state. The caller guarantees the
// GPU is done with it.
func (v *VulkanCommandBuffer) Reset() error {
	if v.State == COMMAND_BUFFER_STATE_NOT_ALLOCATED {
		return fmt.Errorf("reset: %w: not allocated", errCommandBufferState)
	}
	if res := vk.ResetCommandBuffer(v.Handle, 0); res != vk.Success {
		return vulkanError("vkResetCommandBuffer", res)
	}
	v.State = COMMAND_BUFFER_STATE_READY
	return nil
}

func (v *VulkanCommandBuffer) Begin(oneTimeSubmit bool) error {
	if err := v.expect("begin", COMMAND_BUFFER_STATE_READY); err != nil {
		return err
	}
	beginInfo := &vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
	}
	if oneTimeSubmit {
		beginInfo.Flags |= vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit)
	}

	if res := vk.BeginCommandBuffer(v.Handle, beginInfo); res != vk.Success {
		return fmt.Errorf("failed to begin command buffer: %w", vulkanError("vkBeginCommandBuffer", res))
	}
	v.State = COMMAND_BUFFER_STATE_RECORDING
	return nil
}

func (v *VulkanCommandBuffer) PipelineBarrier(barrier renderer.ImageBarrier) {
	image, ok := barrier.Image.(*VulkanImage)
	if !ok {
		core.LogError("pipeline barrier on a non-Vulkan image %T", barrier.Image)
		return
	}

	imageBarrier := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		SrcAccessMask:       toVkAccess(barrier.SrcAccess),
		DstAccessMask:       toVkAccess(barrier.DstAccess),
		OldLayout:           toVkImageLayout(barrier.OldLayout),
		NewLayout:           toVkImageLayout(barrier.NewLayout),
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               image.Handle,
		SubresourceRange:    toVkSubresourceRange(barrier.Range),
	}
	vk.CmdPipelineBarrier(
		v.Handle,
		toVkStage(barrier.SrcStage),
		toVkStage(barrier.DstStage),
		0,
		0, nil,
		0, nil,
		1, []vk.ImageMemoryBarrier{imageBarrier},
	)
}

func (v *VulkanCommandBuffer) ClearColorImage(img renderer.Image, layout renderer.ImageLayout, color renderer.Color) {
	image, ok := img.(*VulkanImage)
	if !ok {
		core.LogError("clear on a non-Vulkan image %T", img)
		return
	}

	clearValue := vk.ClearColorValue{}
	floats := (*[4]float32)(unsafe.Pointer(&clearValue))
	floats[0] = color.R
	floats[1] = color.G
	floats[2] = color.B
	floats[3] = color.A

	clearRange := toVkSubresourceRange(renderer.SubresourceRange{Aspect: renderer.AspectColor})
	vk.CmdClearColorImage(
		v.Handle,
		image.Handle,
		toVkImageLayout(layout),
		&clearValue,
		1,
		[]vk.ImageSubresourceRange{clearRange},
	)
}

func (v *VulkanCommandBuffer) End() error {
	if err := v.expect("end", COMMAND_BUFFER_STATE_RECORDING); err != nil {
		return err
	}
	if res := vk.EndCommandBuffer(v.Handle); res != vk.Success {
		return fmt.Errorf("failed to end command buffer: %w", vulkanError("vkEndCommandBuffer", res))
	}
	v.State = COMMAND_BUFFER_STATE_RECORDING_ENDED
	return nil
}

func (v *VulkanCommandBuffer) UpdateSubmitted() {
	v.State = COMMAND_BUFFER_STATE_SUBMITTED
}

// Destroy frees the pool, which frees the buffer with it.
func (v *VulkanCommandBuffer) Destroy() {
	if v.Pool != vk.NullCommandPool {
		vk.DestroyCommandPool(v.device.LogicalDevice, v.Pool, v.device.context.Allocator)
		v.Pool = vk.NullCommandPool
	}
	v.Handle = nil
	v.State = COMMAND_BUFFER_STATE_NOT_ALLOCATED
}
