package renderer

import "time"

// ImageLayout is the access layout an image is kept in between uses.
type ImageLayout uint8

const (
	LayoutUndefined ImageLayout = iota
	LayoutGeneral
	LayoutColorAttachment
	LayoutDepthAttachment
	LayoutTransferDst
	LayoutPresentSrc
)

func (l ImageLayout) String() string {
	switch l {
	case LayoutUndefined:
		return "undefined"
	case LayoutGeneral:
		return "general"
	case LayoutColorAttachment:
		return "color-attachment"
	case LayoutDepthAttachment:
		return "depth-attachment"
	case LayoutTransferDst:
		return "transfer-dst"
	case LayoutPresentSrc:
		return "present-src"
	default:
		return "unknown"
	}
}

type ImageAspect uint8

const (
	AspectColor ImageAspect = 1 << iota
	AspectDepth
)

type PipelineStage uint32

const (
	StageColorAttachmentOutput PipelineStage = 1 << iota
	StageAllGraphics
	StageAllCommands
)

type Access uint32

const (
	AccessMemoryRead Access = 1 << iota
	AccessMemoryWrite
)

type Format uint32

const (
	FormatUndefined Format = iota
	FormatB8G8R8A8Unorm
	FormatB8G8R8A8Srgb
)

type PresentMode uint8

const (
	// Vertical sync: capped to display refresh, no tearing.
	PresentModeFifo PresentMode = iota
	PresentModeMailbox
	PresentModeImmediate
)

type ImageUsage uint32

const (
	ImageUsageTransferDst ImageUsage = 1 << iota
	ImageUsageColorAttachment
)

type Extent2D struct {
	Width  uint32
	Height uint32
}

// Color is a linear RGBA clear value.
type Color struct {
	R, G, B, A float32
}

// SubresourceRange selects mips and array layers of an image. Zero counts
// mean "all remaining".
type SubresourceRange struct {
	Aspect         ImageAspect
	BaseMipLevel   uint32
	LevelCount     uint32
	BaseArrayLayer uint32
	LayerCount     uint32
}

// ImageBarrier is a single image memory barrier with its execution scope.
type ImageBarrier struct {
	Image     Image
	OldLayout ImageLayout
	NewLayout ImageLayout
	SrcStage  PipelineStage
	SrcAccess Access
	DstStage  PipelineStage
	DstAccess Access
	Range     SubresourceRange
}

// Image is a backend-owned GPU image.
type Image interface {
	Format() Format
	Extent() Extent2D
}

// Fence is a GPU to CPU signal.
type Fence interface {
	// Wait blocks until the fence is signaled or the timeout expires.
	// Expiry is reported as core.ErrDeviceTimeout.
	Wait(timeout time.Duration) error
	Reset() error
	Destroy()
}

// Semaphore orders queue operations on the GPU.
type Semaphore interface {
	Destroy()
}

// CommandRecorder is a command pool with one primary command buffer.
type CommandRecorder interface {
	Reset() error
	Begin(oneTimeSubmit bool) error
	PipelineBarrier(barrier ImageBarrier)
	ClearColorImage(image Image, layout ImageLayout, color Color)
	End() error
	Destroy()
}

// Submission describes one batch handed to a queue.
type Submission struct {
	Recorder CommandRecorder
	// Optional semaphore waited on before WaitStage work starts.
	Wait      Semaphore
	WaitStage PipelineStage
	// Optional semaphore signaled once all submitted work completes.
	Signal Semaphore
	// Optional fence signaled when the submission fully retires.
	Fence Fence
}

type Queue interface {
	Submit(submission Submission) error
	FamilyIndex() uint32
}

// SwapchainRequest is what the surface asks the backend for.
type SwapchainRequest struct {
	Width       uint32
	Height      uint32
	Format      Format
	PresentMode PresentMode
	Usage       ImageUsage
}

// Swapchain is the presentable image set. Images belong to the presentation
// engine; Destroy releases the views and then the swapchain itself.
type Swapchain interface {
	Images() []Image
	Format() Format
	// Extent is the granted size, which may differ from the request.
	Extent() Extent2D
	// AcquireNextImage returns the index of the next presentable image and
	// signals the semaphore once it is ready. core.ErrSwapchainOutOfDate
	// means nothing was acquired.
	AcquireNextImage(timeout time.Duration, signal Semaphore) (uint32, error)
	// Present queues the image for display after wait is signaled.
	// core.ErrSwapchainOutOfDate and core.ErrSwapchainSuboptimal are
	// returned after the present was processed.
	Present(imageIndex uint32, wait Semaphore) error
	Destroy()
}

// Device is everything the frame core needs from a created GPU device.
type Device interface {
	GraphicsQueue() Queue
	NewFence(signaled bool) (Fence, error)
	NewSemaphore() (Semaphore, error)
	NewCommandRecorder(queueFamily uint32) (CommandRecorder, error)
	CreateSwapchain(request SwapchainRequest) (Swapchain, error)
	WaitIdle() error
}
