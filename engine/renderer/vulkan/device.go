package vulkan

import (
	"errors"
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/ignis/engine/core"
	"github.com/spaghettifunk/ignis/engine/renderer"
)

const portabilitySubsetExtensionName = "VK_KHR_portability_subset"

// VulkanDevice is the selected physical device, its logical device and the
// queues the frame core submits and presents on. It implements
// renderer.Device.
type VulkanDevice struct {
	context *VulkanContext

	PhysicalDevice     vk.PhysicalDevice
	LogicalDevice      vk.Device
	Properties         vk.PhysicalDeviceProperties
	GraphicsQueueIndex uint32
	PresentQueueIndex  uint32

	graphicsQueue *VulkanQueue
	presentQueue  *VulkanQueue
	locks         *VulkanLockPool
}

type VulkanPhysicalDeviceRequirements struct {
	Graphics             bool
	Present              bool
	DeviceExtensionNames []string
	DiscreteGPU          bool
}

type VulkanPhysicalDeviceQueueFamilyInfo struct {
	// -1 when the device has no such family.
	GraphicsFamilyIndex int32
	PresentFamilyIndex  int32
}

type VulkanSwapchainSupportInfo struct {
	Capabilities vk.SurfaceCapabilities
	Formats      []vk.SurfaceFormat
	PresentModes []vk.PresentMode
}

var errNoSuitableDevice = errors.New("no physical devices were found which meet the requirements")

// DeviceCreate selects a physical device able to render and present to the
// context's surface and creates the logical device on it.
func DeviceCreate(context *VulkanContext) (*VulkanDevice, error) {
	device := &VulkanDevice{
		context: context,
		locks:   NewVulkanLockPool(),
	}
	if err := device.selectPhysicalDevice(); err != nil {
		return nil, err
	}

	core.LogInfo("Creating logical device...")

	// Do not create additional queues for shared indices.
	indices := []uint32{device.GraphicsQueueIndex}
	if device.PresentQueueIndex != device.GraphicsQueueIndex {
		indices = append(indices, device.PresentQueueIndex)
	}

	queueCreateInfos := make([]vk.DeviceQueueCreateInfo, len(indices))
	for i, index := range indices {
		queueCreateInfos[i] = vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: index,
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		}
	}

	available, err := deviceExtensionNames(device.PhysicalDevice)
	if err != nil {
		return nil, err
	}
	extensionNames := []string{vk.KhrSwapchainExtensionName}
	if contains(available, portabilitySubsetExtensionName) {
		core.LogInfo("Adding required extension '%s'.", portabilitySubsetExtensionName)
		extensionNames = append(extensionNames, portabilitySubsetExtensionName)
	}

	deviceCreateInfo := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueCreateInfos)),
		PQueueCreateInfos:       queueCreateInfos,
		EnabledExtensionCount:   uint32(len(extensionNames)),
		PpEnabledExtensionNames: VulkanSafeStrings(extensionNames),
	}

	var logicalDevice vk.Device
	if res := vk.CreateDevice(device.PhysicalDevice, &deviceCreateInfo, context.Allocator, &logicalDevice); res != vk.Success {
		return nil, vulkanError("vkCreateDevice", res)
	}
	device.LogicalDevice = logicalDevice
	core.LogInfo("Logical device created.")

	var graphics, present vk.Queue
	vk.GetDeviceQueue(device.LogicalDevice, device.GraphicsQueueIndex, 0, &graphics)
	vk.GetDeviceQueue(device.LogicalDevice, device.PresentQueueIndex, 0, &present)
	device.graphicsQueue = &VulkanQueue{device: device, Handle: graphics, familyIndex: device.GraphicsQueueIndex}
	device.presentQueue = &VulkanQueue{device: device, Handle: present, familyIndex: device.PresentQueueIndex}
	core.LogInfo("Queues obtained.")

	return device, nil
}

// Destroy releases the logical device. Everything created from it must be
// gone already.
func (vd *VulkanDevice) Destroy() {
	vd.graphicsQueue = nil
	vd.presentQueue = nil

	core.LogInfo("Destroying logical device...")
	if vd.LogicalDevice != nil {
		vk.DestroyDevice(vd.LogicalDevice, vd.context.Allocator)
		vd.LogicalDevice = nil
	}

	// Physical devices are not destroyed.
	vd.PhysicalDevice = nil
}

func (vd *VulkanDevice) GraphicsQueue() renderer.Queue {
	return vd.graphicsQueue
}

func (vd *VulkanDevice) NewFence(signaled bool) (renderer.Fence, error) {
	return vd.newFence(signaled)
}

func (vd *VulkanDevice) NewSemaphore() (renderer.Semaphore, error) {
	return vd.newSemaphore()
}

func (vd *VulkanDevice) NewCommandRecorder(queueFamily uint32) (renderer.CommandRecorder, error) {
	return vd.newCommandBuffer(queueFamily)
}

func (vd *VulkanDevice) WaitIdle() error {
	return vulkanError("vkDeviceWaitIdle", vk.DeviceWaitIdle(vd.LogicalDevice))
}

func (vd *VulkanDevice) selectPhysicalDevice() error {
	var physicalDeviceCount uint32
	if res := vk.EnumeratePhysicalDevices(vd.context.Instance, &physicalDeviceCount, nil); res != vk.Success {
		return vulkanError("vkEnumeratePhysicalDevices", res)
	}
	if physicalDeviceCount == 0 {
		return fmt.Errorf("no devices which support Vulkan were found")
	}
	physicalDevices := make([]vk.PhysicalDevice, physicalDeviceCount)
	if res := vk.EnumeratePhysicalDevices(vd.context.Instance, &physicalDeviceCount, physicalDevices); res != vk.Success {
		return vulkanError("vkEnumeratePhysicalDevices", res)
	}

	// A discrete GPU is preferred; anything else that can draw and present
	// is accepted when none is found.
	for _, discrete := range []bool{true, false} {
		requirements := VulkanPhysicalDeviceRequirements{
			Graphics:             true,
			Present:              true,
			DiscreteGPU:          discrete,
			DeviceExtensionNames: []string{vk.KhrSwapchainExtensionName},
		}
		for _, physicalDevice := range physicalDevices {
			var properties vk.PhysicalDeviceProperties
			vk.GetPhysicalDeviceProperties(physicalDevice, &properties)
			properties.Deref()

			queueInfo, ok := PhysicalDeviceMeetsRequirements(physicalDevice, vd.context.Surface, &properties, &requirements)
			if !ok {
				continue
			}

			core.LogInfo("Selected device: '%s'.", vk.ToString(properties.DeviceName[:]))
			switch properties.DeviceType {
			case vk.PhysicalDeviceTypeIntegratedGpu:
				core.LogInfo("GPU type is Integrated.")
			case vk.PhysicalDeviceTypeDiscreteGpu:
				core.LogInfo("GPU type is Discrete.")
			case vk.PhysicalDeviceTypeVirtualGpu:
				core.LogInfo("GPU type is Virtual.")
			case vk.PhysicalDeviceTypeCpu:
				core.LogInfo("GPU type is CPU.")
			default:
				core.LogInfo("GPU type is Unknown.")
			}
			core.LogInfo(
				"Vulkan API version: %d.%d.%d",
				vk.Version(properties.ApiVersion).Major(),
				vk.Version(properties.ApiVersion).Minor(),
				vk.Version(properties.ApiVersion).Patch(),
			)

			vd.PhysicalDevice = physicalDevice
			vd.Properties = properties
			vd.GraphicsQueueIndex = uint32(queueInfo.GraphicsFamilyIndex)
			vd.PresentQueueIndex = uint32(queueInfo.PresentFamilyIndex)
			core.LogInfo("Physical device selected.")
			return nil
		}
	}

	return errNoSuitableDevice
}

// PhysicalDeviceMeetsRequirements reports whether device can serve as the
// engine's GPU and, if so, which queue families to use. A family that can
// both draw and present is preferred over two separate ones.
func PhysicalDeviceMeetsRequirements(device vk.PhysicalDevice, surface vk.Surface, properties *vk.PhysicalDeviceProperties, requirements *VulkanPhysicalDeviceRequirements) (VulkanPhysicalDeviceQueueFamilyInfo, bool) {
	queueInfo := VulkanPhysicalDeviceQueueFamilyInfo{
		GraphicsFamilyIndex: -1,
		PresentFamilyIndex:  -1,
	}
	name := vk.ToString(properties.DeviceName[:])

	if requirements.DiscreteGPU && properties.DeviceType != vk.PhysicalDeviceTypeDiscreteGpu {
		core.LogDebug("Device '%s' is not a discrete GPU, and one is required. Skipping.", name)
		return queueInfo, false
	}

	var queueFamilyCount uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &queueFamilyCount, nil)
	queueFamilies := make([]vk.QueueFamilyProperties, queueFamilyCount)
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &queueFamilyCount, queueFamilies)

	for i := range queueFamilies {
		queueFamilies[i].Deref()
		graphics := vk.QueueFlagBits(queueFamilies[i].QueueFlags)&vk.QueueGraphicsBit != 0

		var supportsPresent vk.Bool32 = vk.False
		if res := vk.GetPhysicalDeviceSurfaceSupport(device, uint32(i), surface, &supportsPresent); res != vk.Success {
			return queueInfo, false
		}
		present := supportsPresent == vk.True

		if graphics && present {
			queueInfo.GraphicsFamilyIndex = int32(i)
			queueInfo.PresentFamilyIndex = int32(i)
			break
		}
		if graphics && queueInfo.GraphicsFamilyIndex < 0 {
			queueInfo.GraphicsFamilyIndex = int32(i)
		}
		if present && queueInfo.PresentFamilyIndex < 0 {
			queueInfo.PresentFamilyIndex = int32(i)
		}
	}

	core.LogDebug("Device '%s': graphics family %d, present family %d", name, queueInfo.GraphicsFamilyIndex, queueInfo.PresentFamilyIndex)

	if requirements.Graphics && queueInfo.GraphicsFamilyIndex < 0 {
		return queueInfo, false
	}
	if requirements.Present && queueInfo.PresentFamilyIndex < 0 {
		return queueInfo, false
	}

	support, err := DeviceQuerySwapchainSupport(device, surface)
	if err != nil || len(support.Formats) == 0 || len(support.PresentModes) == 0 {
		core.LogDebug("Required swapchain support not present, skipping device '%s'.", name)
		return queueInfo, false
	}

	available, err := deviceExtensionNames(device)
	if err != nil {
		return queueInfo, false
	}
	for _, required := range requirements.DeviceExtensionNames {
		if !contains(available, required) {
			core.LogDebug("Required extension not found: '%s', skipping device '%s'.", required, name)
			return queueInfo, false
		}
	}

	return queueInfo, true
}

func DeviceQuerySwapchainSupport(physicalDevice vk.PhysicalDevice, surface vk.Surface) (*VulkanSwapchainSupportInfo, error) {
	support := &VulkanSwapchainSupportInfo{}

	if res := vk.GetPhysicalDeviceSurfaceCapabilities(physicalDevice, surface, &support.Capabilities); res != vk.Success {
		return nil, vulkanError("vkGetPhysicalDeviceSurfaceCapabilitiesKHR", res)
	}
	support.Capabilities.Deref()
	support.Capabilities.CurrentExtent.Deref()
	support.Capabilities.MinImageExtent.Deref()
	support.Capabilities.MaxImageExtent.Deref()

	var formatCount uint32
	if res := vk.GetPhysicalDeviceSurfaceFormats(physicalDevice, surface, &formatCount, nil); res != vk.Success {
		return nil, vulkanError("vkGetPhysicalDeviceSurfaceFormatsKHR", res)
	}
	if formatCount != 0 {
		support.Formats = make([]vk.SurfaceFormat, formatCount)
		if res := vk.GetPhysicalDeviceSurfaceFormats(physicalDevice, surface, &formatCount, support.Formats); res != vk.Success {
			return nil, vulkanError("vkGetPhysicalDeviceSurfaceFormatsKHR", res)
		}
		for i := range support.Formats {
			support.Formats[i].Deref()
		}
	}

	var presentModeCount uint32
	if res := vk.GetPhysicalDeviceSurfacePresentModes(physicalDevice, surface, &presentModeCount, nil); res != vk.Success {
		return nil, vulkanError("vkGetPhysicalDeviceSurfacePresentModesKHR", res)
	}
	if presentModeCount != 0 {
		support.PresentModes = make([]vk.PresentMode, presentModeCount)
		if res := vk.GetPhysicalDeviceSurfacePresentModes(physicalDevice, surface, &presentModeCount, support.PresentModes); res != vk.Success {
			return nil, vulkanError("vkGetPhysicalDeviceSurfacePresentModesKHR", res)
		}
	}
	return support, nil
}

func deviceExtensionNames(device vk.PhysicalDevice) ([]string, error) {
	var count uint32
	if res := vk.EnumerateDeviceExtensionProperties(device, "", &count, nil); res != vk.Success {
		return nil, vulkanError("vkEnumerateDeviceExtensionProperties", res)
	}
	if count == 0 {
		return nil, nil
	}
	extensions := make([]vk.ExtensionProperties, count)
	if res := vk.EnumerateDeviceExtensionProperties(device, "", &count, extensions); res != vk.Success {
		return nil, vulkanError("vkEnumerateDeviceExtensionProperties", res)
	}
	names := make([]string, 0, count)
	for i := range extensions {
		extensions[i].Deref()
		names = append(names, vk.ToString(extensions[i].ExtensionName[:]))
	}
	return names, nil
}
