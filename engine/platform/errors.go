package platform

import "errors"

var errVulkanUnsupported = errors.New("glfw reports no Vulkan loader on this system")
