package microvulkan

import (
	vk "github.com/vulkan-go/vulkan"
)

// Ordinals bounding the depth and stencil formats in the core format enumeration
const (
	formatE5b9g9r9UfloatPack32 vk.Format = 123
	formatS8Uint               vk.Format = 127
	formatBc1RgbUnormBlock     vk.Format = 131
)

// Separate depth and stencil layouts from VK_KHR_separate_depth_stencil_layouts, core in 1.2
const (
	imageLayoutDepthAttachmentOptimal   vk.ImageLayout = 1000241000
	imageLayoutStencilAttachmentOptimal vk.ImageLayout = 1000241002
)

// FormatClass is the attachment category of a format
type FormatClass int

const (
	ColorFormat FormatClass = iota
	DepthFormat
	StencilFormat
	DepthStencilFormat
)

func (c FormatClass) String() string {
	switch c {
	case DepthFormat:
		return "depth"
	case StencilFormat:
		return "stencil"
	case DepthStencilFormat:
		return "depth-stencil"
	}
	return "color"
}

// ClassifyFormat derives the attachment class from the format's position in the enumeration:
// D16_UNORM, X8_D24_UNORM_PACK32 and D32_SFLOAT are depth, S8_UINT is stencil, the three
// combined formats following it are depth-stencil and everything else is color.
func ClassifyFormat(format vk.Format) FormatClass {
	switch {
	case format > formatE5b9g9r9UfloatPack32 && format < formatS8Uint:
		return DepthFormat
	case format == formatS8Uint:
		return StencilFormat
	case format > formatS8Uint && format < formatBc1RgbUnormBlock:
		return DepthStencilFormat
	}
	return ColorFormat
}

// AttachmentLayout is the optimal layout for an attachment of the given format
func AttachmentLayout(format vk.Format) vk.ImageLayout {
	switch ClassifyFormat(format) {
	case DepthFormat:
		return imageLayoutDepthAttachmentOptimal
	case StencilFormat:
		return imageLayoutStencilAttachmentOptimal
	case DepthStencilFormat:
		return vk.ImageLayoutDepthStencilAttachmentOptimal
	}
	return vk.ImageLayoutColorAttachmentOptimal
}

// AttachmentAspect is the aspect mask views of the given format are bound with
func AttachmentAspect(format vk.Format) vk.ImageAspectFlags {
	switch ClassifyFormat(format) {
	case DepthFormat:
		return vk.ImageAspectFlags(vk.ImageAspectDepthBit)
	case StencilFormat:
		return vk.ImageAspectFlags(vk.ImageAspectStencilBit)
	case DepthStencilFormat:
		return vk.ImageAspectFlags(vk.ImageAspectDepthBit | vk.ImageAspectStencilBit)
	}
	return vk.ImageAspectFlags(vk.ImageAspectColorBit)
}

// AttachmentUsage is always sampled, plus depth-stencil or color attachment usage
func AttachmentUsage(format vk.Format) vk.ImageUsageFlags {
	usage := vk.ImageUsageSampledBit
	if ClassifyFormat(format) == ColorFormat {
		usage |= vk.ImageUsageColorAttachmentBit
	} else {
		usage |= vk.ImageUsageDepthStencilAttachmentBit
	}
	return vk.ImageUsageFlags(usage)
}

// attachmentTextureSpec builds the spec of an owned attachment texture
func attachmentTextureSpec(format vk.Format, extent vk.Extent2D) TextureSpec {
	return TextureSpec{
		Format: format,
		Extent: extent,
		Usage:  AttachmentUsage(format),
		Aspect: AttachmentAspect(format),
	}
}
