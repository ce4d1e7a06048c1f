package vulkan

import (
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/ignis/engine/renderer"
)

func toVkImageLayout(layout renderer.ImageLayout) vk.ImageLayout {
	switch layout {
	case renderer.LayoutGeneral:
		return vk.ImageLayoutGeneral
	case renderer.LayoutColorAttachment:
		return vk.ImageLayoutColorAttachmentOptimal
	case renderer.LayoutDepthAttachment:
		return vk.ImageLayoutDepthStencilAttachmentOptimal
	case renderer.LayoutTransferDst:
		return vk.ImageLayoutTransferDstOptimal
	case renderer.LayoutPresentSrc:
		return vk.ImageLayoutPresentSrc
	default:
		return vk.ImageLayoutUndefined
	}
}

func toVkAspect(aspect renderer.ImageAspect) vk.ImageAspectFlags {
	var flags vk.ImageAspectFlags
	if aspect&renderer.AspectColor != 0 {
		flags |= vk.ImageAspectFlags(vk.ImageAspectColorBit)
	}
	if aspect&renderer.AspectDepth != 0 {
		flags |= vk.ImageAspectFlags(vk.ImageAspectDepthBit)
	}
	return flags
}

func toVkStage(stage renderer.PipelineStage) vk.PipelineStageFlags {
	var flags vk.PipelineStageFlags
	if stage&renderer.StageColorAttachmentOutput != 0 {
		flags |= vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)
	}
	if stage&renderer.StageAllGraphics != 0 {
		flags |= vk.PipelineStageFlags(vk.PipelineStageAllGraphicsBit)
	}
	if stage&renderer.StageAllCommands != 0 {
		flags |= vk.PipelineStageFlags(vk.PipelineStageAllCommandsBit)
	}
	return flags
}

func toVkAccess(access renderer.Access) vk.AccessFlags {
	var flags vk.AccessFlags
	if access&renderer.AccessMemoryRead != 0 {
		flags |= vk.AccessFlags(vk.AccessMemoryReadBit)
	}
	if access&renderer.AccessMemoryWrite != 0 {
		flags |= vk.AccessFlags(vk.AccessMemoryWriteBit)
	}
	return flags
}

func toVkFormat(format renderer.Format) vk.Format {
	switch format {
	case renderer.FormatB8G8R8A8Unorm:
		return vk.FormatB8g8r8a8Unorm
	case renderer.FormatB8G8R8A8Srgb:
		return vk.FormatB8g8r8a8Srgb
	default:
		return vk.FormatUndefined
	}
}

func fromVkFormat(format vk.Format) renderer.Format {
	switch format {
	case vk.FormatB8g8r8a8Unorm:
		return renderer.FormatB8G8R8A8Unorm
	case vk.FormatB8g8r8a8Srgb:
		return renderer.FormatB8G8R8A8Srgb
	default:
		return renderer.FormatUndefined
	}
}

func toVkPresentMode(mode renderer.PresentMode) vk.PresentMode {
	switch mode {
	case renderer.PresentModeMailbox:
		return vk.PresentModeMailbox
	case renderer.PresentModeImmediate:
		return vk.PresentModeImmediate
	default:
		return vk.PresentModeFifo
	}
}

func toVkImageUsage(usage renderer.ImageUsage) vk.ImageUsageFlags {
	var flags vk.ImageUsageFlags
	if usage&renderer.ImageUsageTransferDst != 0 {
		flags |= vk.ImageUsageFlags(vk.ImageUsageTransferDstBit)
	}
	if usage&renderer.ImageUsageColorAttachment != 0 {
		flags |= vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit)
	}
	return flags
}

// toVkSubresourceRange maps zero counts to "all remaining".
func toVkSubresourceRange(r renderer.SubresourceRange) vk.ImageSubresourceRange {
	levels := r.LevelCount
	if levels == 0 {
		levels = vk.RemainingMipLevels
	}
	layers := r.LayerCount
	if layers == 0 {
		layers = vk.RemainingArrayLayers
	}
	return vk.ImageSubresourceRange{
		AspectMask:     toVkAspect(r.Aspect),
		BaseMipLevel:   r.BaseMipLevel,
		LevelCount:     levels,
		BaseArrayLayer: r.BaseArrayLayer,
		LayerCount:     layers,
	}
}
