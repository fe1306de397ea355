package microvulkan

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// SurfaceSupport queries the capabilities, formats and present modes of the driver's surface
func (d *VulkanDriver) SurfaceSupport() (SurfaceSupport, error) {
	var ret SurfaceSupport

	caps, err := d.PhysicalDevice.GetSurfaceCapabilities(d.Surface)
	if err != nil {
		return ret, errors.Wrap(err, "surface capabilities")
	}
	caps.Deref()
	caps.CurrentExtent.Deref()
	caps.MinImageExtent.Deref()
	caps.MaxImageExtent.Deref()
	ret.Capabilities = *caps

	formats, err := d.PhysicalDevice.GetSurfaceFormats(d.Surface)
	if err != nil {
		return ret, errors.Wrap(err, "surface formats")
	}
	for i := range formats {
		formats[i].Deref()
	}
	ret.Formats = formats

	modes, err := d.PhysicalDevice.GetSurfacePresentModes(d.Surface)
	if err != nil {
		return ret, errors.Wrap(err, "surface present modes")
	}
	ret.PresentModes = modes

	return ret, nil
}

func (d *VulkanDriver) CreateSwapchain(config SwapchainConfig, old vk.Swapchain) (vk.Swapchain, error) {
	var swapchain vk.Swapchain

	createInfo := &vk.SwapchainCreateInfo{
		SType:           vk.StructureTypeSwapchainCreateInfo,
		Surface:         d.Surface,
		MinImageCount:   config.ImageCount,
		ImageFormat:     config.Format.Format,
		ImageColorSpace: config.Format.ColorSpace,
		ImageExtent: vk.Extent2D{
			Width:  config.Extent.Width,
			Height: config.Extent.Height,
		},
		PresentMode:      config.PresentMode,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		ImageArrayLayers: 1,
		ImageSharingMode: vk.SharingModeExclusive,
		Clipped:          vk.True,
		PreTransform:     config.Transform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		OldSwapchain:     old,
	}

	err := vk.Error(vk.CreateSwapchain(d.VKDevice, createInfo, d.Allocator, &swapchain))
	if err != nil {
		return vk.NullSwapchain, err
	}
	return swapchain, nil
}

func (d *VulkanDriver) DestroySwapchain(swapchain vk.Swapchain) {
	vk.DestroySwapchain(d.VKDevice, swapchain, d.Allocator)
}

func (d *VulkanDriver) GetSwapchainImages(swapchain vk.Swapchain) ([]vk.Image, error) {
	var imageCount uint32
	err := vk.Error(vk.GetSwapchainImages(d.VKDevice, swapchain, &imageCount, nil))
	if err != nil {
		return nil, err
	}

	images := make([]vk.Image, imageCount)
	err = vk.Error(vk.GetSwapchainImages(d.VKDevice, swapchain, &imageCount, images))
	if err != nil {
		return nil, err
	}
	return images[:imageCount], nil
}

// AcquireNextImage requests the next presentable image, signal is signaled once it is available
func (d *VulkanDriver) AcquireNextImage(swapchain vk.Swapchain, timeout uint64, signal vk.Semaphore) (uint32, vk.Result) {
	var index uint32
	res := vk.AcquireNextImage(d.VKDevice, swapchain, timeout, signal, vk.NullFence, &index)
	return index, res
}

func (d *VulkanDriver) QueuePresent(queue vk.Queue, request PresentRequest) vk.Result {
	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{request.Wait},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{request.Swapchain},
		PImageIndices:      []uint32{request.Image},
	}
	return vk.QueuePresent(queue, &presentInfo)
}
