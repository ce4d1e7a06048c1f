package vulkan

import (
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/ignis/engine/core"
)

// WindowSurface is what the backend needs from the windowing layer to bring
// up Vulkan and render into a window.
type WindowSurface interface {
	// Address of vkGetInstanceProcAddr as loaded by the windowing library.
	GetInstanceProcAddress() unsafe.Pointer
	// Instance extensions needed to create a surface for the window.
	GetRequiredExtensionNames() []string
	// CreateWindowSurface creates a VkSurfaceKHR for the window and returns
	// its raw handle.
	CreateWindowSurface(instance interface{}) (uintptr, error)
}

// VulkanContext owns the instance, debug callback, surface and device, and
// releases them in reverse order of creation.
type VulkanContext struct {
	Instance  vk.Instance
	Allocator *vk.AllocationCallbacks
	Surface   vk.Surface
	Device    *VulkanDevice

	validation     bool
	debugMessenger vk.DebugReportCallback

	release core.DeletionQueue
}

// NewContext creates everything a renderer.Device needs: the instance (with
// validation layers and a debug report callback when validation is true),
// the window surface and the logical device.
func NewContext(appName string, window WindowSurface, validation bool) (*VulkanContext, error) {
	context := &VulkanContext{
		Allocator:  nil,
		validation: validation,
	}

	if err := context.createInstance(appName, window); err != nil {
		return nil, err
	}
	context.release.Push(func() {
		core.LogDebug("Destroying Vulkan instance...")
		vk.DestroyInstance(context.Instance, context.Allocator)
	})

	if context.validation {
		if err := context.createDebugCallback(); err != nil {
			context.Destroy()
			return nil, err
		}
		context.release.Push(func() {
			core.LogDebug("Destroying Vulkan debugger...")
			vk.DestroyDebugReportCallback(context.Instance, context.debugMessenger, context.Allocator)
			context.debugMessenger = vk.NullDebugReportCallback
		})
	}

	core.LogDebug("Creating Vulkan surface...")
	surface, err := window.CreateWindowSurface(context.Instance)
	if err != nil {
		core.LogError("Failed to create platform surface!")
		context.Destroy()
		return nil, err
	}
	context.Surface = vk.SurfaceFromPointer(surface)
	context.release.Push(func() {
		core.LogDebug("Destroying Vulkan surface...")
		vk.DestroySurface(context.Instance, context.Surface, context.Allocator)
		context.Surface = vk.NullSurface
	})
	core.LogDebug("Vulkan surface created.")

	device, err := DeviceCreate(context)
	if err != nil {
		core.LogError("Failed to create device!")
		context.Destroy()
		return nil, err
	}
	context.Device = device
	context.release.Push(device.Destroy)

	core.LogInfo("Vulkan context initialized successfully.")
	return context, nil
}

// Destroy tears down the device, surface, debug callback and instance. Every
// object created from the device must already be released.
func (vc *VulkanContext) Destroy() {
	vc.release.Flush()
	vc.Device = nil
}
