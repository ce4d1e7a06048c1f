package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/ignis/engine/renderer"
)

type VulkanQueue struct {
	device      *VulkanDevice
	Handle      vk.Queue
	familyIndex uint32
}

func (vq *VulkanQueue) FamilyIndex() uint32 {
	return vq.familyIndex
}

// Submit hands one command buffer to the queue. Wait, Signal and Fence are
// optional.
func (vq *VulkanQueue) Submit(submission renderer.Submission) error {
	cb, ok := submission.Recorder.(*VulkanCommandBuffer)
	if !ok {
		return fmt.Errorf("cannot submit recorder of type %T", submission.Recorder)
	}
	if err := cb.expect("submit", COMMAND_BUFFER_STATE_RECORDING_ENDED); err != nil {
		return err
	}

	submitInfo := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{cb.Handle},
	}

	// The wait semaphore keeps color writes from starting until the image
	// has been handed back by the presentation engine.
	if wait := semaphoreHandle(submission.Wait); wait != vk.NullSemaphore {
		submitInfo.WaitSemaphoreCount = 1
		submitInfo.PWaitSemaphores = []vk.Semaphore{wait}
		submitInfo.PWaitDstStageMask = []vk.PipelineStageFlags{toVkStage(submission.WaitStage)}
	}
	if signal := semaphoreHandle(submission.Signal); signal != vk.NullSemaphore {
		submitInfo.SignalSemaphoreCount = 1
		submitInfo.PSignalSemaphores = []vk.Semaphore{signal}
	}

	fence := vk.NullFence
	if f, ok := submission.Fence.(*VulkanFence); ok && f != nil {
		fence = f.Handle
	}

	err := vq.device.locks.SafeQueueCall(vq.familyIndex, func() error {
		return vulkanError("vkQueueSubmit", vk.QueueSubmit(vq.Handle, 1, []vk.SubmitInfo{submitInfo}, fence))
	})
	if err != nil {
		return err
	}
	cb.UpdateSubmitted()
	return nil
}

func semaphoreHandle(s renderer.Semaphore) vk.Semaphore {
	if vs, ok := s.(*VulkanSemaphore); ok && vs != nil {
		return vs.Handle
	}
	return vk.NullSemaphore
}
