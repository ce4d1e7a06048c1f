package vulkan

import (
	"fmt"
	"runtime"
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/ignis/engine/core"
)

const (
	validationLayerName = "VK_LAYER_KHRONOS_validation"
	engineName          = "Ignis Engine"
)

func (vc *VulkanContext) createInstance(appName string, window WindowSurface) error {
	procAddr := window.GetInstanceProcAddress()
	if procAddr == nil {
		return fmt.Errorf("GetInstanceProcAddress is nil")
	}
	vk.SetGetInstanceProcAddr(procAddr)

	if err := vk.Init(); err != nil {
		return fmt.Errorf("failed to initialize vk: %w", err)
	}

	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(vk.MakeVersion(1, 1, 0)),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   VulkanSafeString(appName),
		PEngineName:        VulkanSafeString(engineName),
	}

	createInfo := vk.InstanceCreateInfo{
		SType:            vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: appInfo,
	}

	// Obtain a list of required extensions
	requiredExtensions := []string{}
	for _, name := range append([]string{"VK_KHR_surface"}, window.GetRequiredExtensionNames()...) {
		if !contains(requiredExtensions, name) {
			requiredExtensions = append(requiredExtensions, name)
		}
	}
	if runtime.GOOS == "darwin" {
		requiredExtensions = append(requiredExtensions,
			"VK_KHR_portability_enumeration",
			"VK_KHR_get_physical_device_properties2",
		)
		// VK_INSTANCE_CREATE_ENUMERATE_PORTABILITY_BIT_KHR
		createInfo.Flags |= 1
	}

	// Validation layers should only be enabled on non-release builds.
	requiredLayers := []string{}
	if vc.validation {
		available, err := instanceLayerNames()
		if err != nil {
			return err
		}
		if contains(available, validationLayerName) {
			requiredLayers = append(requiredLayers, validationLayerName)
			requiredExtensions = append(requiredExtensions, vk.ExtDebugReportExtensionName)
			core.LogInfo("Validation layers enabled.")
		} else {
			core.LogWarn("Validation layer %s is missing, continuing without validation.", validationLayerName)
			vc.validation = false
		}
	}

	core.LogDebug("Required extensions: %v", requiredExtensions)

	createInfo.EnabledExtensionCount = uint32(len(requiredExtensions))
	createInfo.PpEnabledExtensionNames = VulkanSafeStrings(requiredExtensions)
	createInfo.EnabledLayerCount = uint32(len(requiredLayers))
	createInfo.PpEnabledLayerNames = VulkanSafeStrings(requiredLayers)

	var instance vk.Instance
	if res := vk.CreateInstance(&createInfo, vc.Allocator, &instance); res != vk.Success {
		return fmt.Errorf("failed in creating the Vulkan Instance: %w", vulkanError("vkCreateInstance", res))
	}
	vc.Instance = instance
	if err := vk.InitInstance(vc.Instance); err != nil {
		vk.DestroyInstance(vc.Instance, vc.Allocator)
		return err
	}

	core.LogInfo("Vulkan Instance created.")
	return nil
}

func instanceLayerNames() ([]string, error) {
	var count uint32
	if res := vk.EnumerateInstanceLayerProperties(&count, nil); res != vk.Success {
		return nil, vulkanError("vkEnumerateInstanceLayerProperties", res)
	}
	layers := make([]vk.LayerProperties, count)
	if res := vk.EnumerateInstanceLayerProperties(&count, layers); res != vk.Success {
		return nil, vulkanError("vkEnumerateInstanceLayerProperties", res)
	}
	names := make([]string, 0, count)
	for i := range layers {
		layers[i].Deref()
		names = append(names, vk.ToString(layers[i].LayerName[:]))
	}
	return names, nil
}

func (vc *VulkanContext) createDebugCallback() error {
	core.LogDebug("Creating Vulkan debugger...")

	debugCreateInfo := vk.DebugReportCallbackCreateInfo{
		SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
		Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit | vk.DebugReportPerformanceWarningBit),
		PfnCallback: dbgCallbackFunc,
	}

	var dbg vk.DebugReportCallback
	if err := vk.Error(vk.CreateDebugReportCallback(vc.Instance, &debugCreateInfo, vc.Allocator, &dbg)); err != nil {
		return fmt.Errorf("vk.CreateDebugReportCallback failed with %w", err)
	}
	vc.debugMessenger = dbg

	core.LogDebug("Vulkan debugger created.")
	return nil
}

func dbgCallbackFunc(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType, object uint64, location uint64, messageCode int32, pLayerPrefix string, pMessage string, pUserData unsafe.Pointer) vk.Bool32 {
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		core.LogError("ERROR: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		core.LogWarn("WARNING: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0:
		core.LogWarn("PERFORMANCE WARNING: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	default:
		core.LogDebug("[%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	}
	return vk.Bool32(vk.False)
}
