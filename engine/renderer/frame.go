package renderer

import (
	"fmt"

	"github.com/spaghettifunk/ignis/engine/core"
)

// FRAME_OVERLAP is the default number of frames that may be in flight at once.
const FRAME_OVERLAP = 2

// FrameSlot owns the resources needed to record and synchronize one frame.
// The recorder must not be reset while RenderFence is unsignaled.
type FrameSlot struct {
	Recorder CommandRecorder
	// Signaled when the GPU finished the slot's last submission. Created
	// signaled so the first wait returns immediately.
	RenderFence Fence
	// Signaled when the swapchain handed back an image for this slot.
	ImageAcquired Semaphore
	// Signaled when the slot's commands finished; gates presentation.
	RenderComplete Semaphore

	release core.DeletionQueue
}

func newFrameSlot(device Device, queueFamily uint32) (*FrameSlot, error) {
	slot := &FrameSlot{}

	fence, err := device.NewFence(true)
	if err != nil {
		slot.destroy()
		return nil, fmt.Errorf("failed to create render fence: %w", err)
	}
	slot.RenderFence = fence
	slot.release.Push(fence.Destroy)

	acquired, err := device.NewSemaphore()
	if err != nil {
		slot.destroy()
		return nil, fmt.Errorf("failed to create image acquired semaphore: %w", err)
	}
	slot.ImageAcquired = acquired
	slot.release.Push(acquired.Destroy)

	complete, err := device.NewSemaphore()
	if err != nil {
		slot.destroy()
		return nil, fmt.Errorf("failed to create render complete semaphore: %w", err)
	}
	slot.RenderComplete = complete
	slot.release.Push(complete.Destroy)

	// Created last so it is released first.
	recorder, err := device.NewCommandRecorder(queueFamily)
	if err != nil {
		slot.destroy()
		return nil, fmt.Errorf("failed to create command recorder: %w", err)
	}
	slot.Recorder = recorder
	slot.release.Push(recorder.Destroy)

	return slot, nil
}

func (fs *FrameSlot) destroy() {
	fs.release.Flush()
	fs.Recorder = nil
	fs.RenderFence = nil
	fs.ImageAcquired = nil
	fs.RenderComplete = nil
}

// FrameRing is a fixed set of frame slots selected round-robin by frame index.
type FrameRing struct {
	slots []*FrameSlot
}

// NewFrameRing allocates overlap slots bound to the device's graphics queue
// family. overlap must be at least 1.
func NewFrameRing(device Device, overlap int) (*FrameRing, error) {
	if overlap < 1 {
		return nil, fmt.Errorf("%w: got %d", core.ErrInvalidFrameOverlap, overlap)
	}
	queueFamily := device.GraphicsQueue().FamilyIndex()

	ring := &FrameRing{
		slots: make([]*FrameSlot, 0, overlap),
	}
	for i := 0; i < overlap; i++ {
		slot, err := newFrameSlot(device, queueFamily)
		if err != nil {
			ring.Destroy()
			return nil, fmt.Errorf("frame slot %d: %w", i, err)
		}
		ring.slots = append(ring.slots, slot)
	}
	core.LogDebug("Frame ring created with %d slots.", overlap)
	return ring, nil
}

// Slot returns the slot for frameIndex mod N. The slot is exclusively the
// caller's until the next call.
func (fr *FrameRing) Slot(frameIndex uint64) *FrameSlot {
	return fr.slots[frameIndex%uint64(len(fr.slots))]
}

// Len returns the overlap count N.
func (fr *FrameRing) Len() int {
	return len(fr.slots)
}

// Destroy releases every slot. The device must be idle.
func (fr *FrameRing) Destroy() {
	for _, slot := range fr.slots {
		slot.destroy()
	}
	fr.slots = nil
}
