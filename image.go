package microvulkan

import (
	units "github.com/docker/go-units"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

func (d *VulkanDriver) createImage(spec TextureSpec) (vk.Image, error) {
	var imageInfo = vk.ImageCreateInfo{}
	imageInfo.SType = vk.StructureTypeImageCreateInfo
	imageInfo.ImageType = vk.ImageType2d
	imageInfo.Extent.Width = spec.Extent.Width
	imageInfo.Extent.Height = spec.Extent.Height
	imageInfo.Extent.Depth = 1
	imageInfo.MipLevels = 1
	imageInfo.ArrayLayers = 1
	imageInfo.Format = spec.Format
	imageInfo.Tiling = vk.ImageTilingOptimal
	imageInfo.InitialLayout = vk.ImageLayoutUndefined
	imageInfo.Usage = spec.Usage
	imageInfo.Samples = vk.SampleCount1Bit
	imageInfo.SharingMode = vk.SharingModeExclusive

	var image vk.Image

	err := vk.Error(vk.CreateImage(d.VKDevice, &imageInfo, d.Allocator, &image))
	if err != nil {
		return nil, err
	}
	return image, nil
}

// CreateTexture creates a device local image for an attachment along with its view and a nearest
// filtering, clamp to border sampler
func (d *VulkanDriver) CreateTexture(spec TextureSpec) (Texture, error) {
	var ret Texture
	var err error

	if ret.Image, err = d.createImage(spec); err != nil {
		return ret, errors.Wrap(err, "create image")
	}

	var mr vk.MemoryRequirements
	vk.GetImageMemoryRequirements(d.VKDevice, ret.Image, &mr)
	mr.Deref()

	ret.Memory, err = d.allocate(uint64(mr.Size), mr.MemoryTypeBits, vk.MemoryPropertyDeviceLocalBit)
	if err != nil {
		d.DestroyTexture(ret)
		return Texture{}, errors.Wrap(err, "allocate image memory")
	}
	ret.Size = uint64(mr.Size)

	if err = vk.Error(vk.BindImageMemory(d.VKDevice, ret.Image, ret.Memory, 0)); err != nil {
		d.DestroyTexture(ret)
		return Texture{}, errors.Wrap(err, "bind image memory")
	}

	if ret.View, err = d.CreateImageView(ret.Image, spec.Format, spec.Aspect); err != nil {
		d.DestroyTexture(ret)
		return Texture{}, errors.Wrap(err, "create image view")
	}

	if ret.Sampler, err = d.createSampler(); err != nil {
		d.DestroyTexture(ret)
		return Texture{}, errors.Wrap(err, "create sampler")
	}

	Logger().Debug("attachment texture created",
		"format", spec.Format,
		"width", spec.Extent.Width,
		"height", spec.Extent.Height,
		"size", units.BytesSize(float64(ret.Size)))

	return ret, nil
}

func (d *VulkanDriver) createSampler() (vk.Sampler, error) {
	samplerInfo := vk.SamplerCreateInfo{
		SType:                   vk.StructureTypeSamplerCreateInfo,
		MagFilter:               vk.FilterNearest,
		MinFilter:               vk.FilterNearest,
		MipmapMode:              vk.SamplerMipmapModeNearest,
		AddressModeU:            vk.SamplerAddressModeClampToBorder,
		AddressModeV:            vk.SamplerAddressModeClampToBorder,
		AddressModeW:            vk.SamplerAddressModeClampToBorder,
		AnisotropyEnable:        vk.False,
		MaxAnisotropy:           1,
		CompareEnable:           vk.False,
		CompareOp:               vk.CompareOpNever,
		MinLod:                  0,
		MaxLod:                  0.25,
		BorderColor:             vk.BorderColorIntTransparentBlack,
		UnnormalizedCoordinates: vk.False,
	}

	var sampler vk.Sampler

	err := vk.Error(vk.CreateSampler(d.VKDevice, &samplerInfo, d.Allocator, &sampler))
	if err != nil {
		return nil, err
	}
	return sampler, nil
}

// DestroyTexture destroys whatever parts of the texture were created
func (d *VulkanDriver) DestroyTexture(t Texture) {
	if t.Sampler != nil {
		vk.DestroySampler(d.VKDevice, t.Sampler, d.Allocator)
	}
	if t.View != nil {
		vk.DestroyImageView(d.VKDevice, t.View, d.Allocator)
	}
	if t.Image != nil {
		vk.DestroyImage(d.VKDevice, t.Image, d.Allocator)
	}
	if t.Memory != nil {
		vk.FreeMemory(d.VKDevice, t.Memory, d.Allocator)
	}
}
