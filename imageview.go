package microvulkan

import (
	vk "github.com/vulkan-go/vulkan"
)

// CreateImageView creates a 2D identity swizzled view over the first mip level and layer
func (d *VulkanDriver) CreateImageView(image vk.Image, format vk.Format, aspect vk.ImageAspectFlags) (vk.ImageView, error) {
	createImage := &vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    image,
		ViewType: vk.ImageViewType2d,
		Format:   format,
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleR,
			G: vk.ComponentSwizzleG,
			B: vk.ComponentSwizzleB,
			A: vk.ComponentSwizzleA,
		},
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: aspect,
			LevelCount: 1,
			LayerCount: 1,
		},
	}

	var view vk.ImageView

	err := vk.Error(vk.CreateImageView(d.VKDevice, createImage, d.Allocator, &view))
	if err != nil {
		return vk.NullImageView, err
	}
	return view, nil
}

func (d *VulkanDriver) DestroyImageView(view vk.ImageView) {
	vk.DestroyImageView(d.VKDevice, view, d.Allocator)
}
