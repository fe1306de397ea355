package microvulkan

import (
	"unsafe"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

func (d *VulkanDriver) CreateRenderPass(spec *RenderPassSpec) (vk.RenderPass, error) {
	renderPassInfo := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(spec.Attachments)),
		PAttachments:    spec.Attachments,
		SubpassCount:    uint32(len(spec.Subpasses)),
		PSubpasses:      spec.Subpasses,
		DependencyCount: uint32(len(spec.Dependencies)),
		PDependencies:   spec.Dependencies,
	}

	var renderPass vk.RenderPass

	err := vk.Error(vk.CreateRenderPass(d.VKDevice, &renderPassInfo, d.Allocator, &renderPass))
	if err != nil {
		return nil, err
	}
	return renderPass, nil
}

func (d *VulkanDriver) DestroyRenderPass(pass vk.RenderPass) {
	vk.DestroyRenderPass(d.VKDevice, pass, d.Allocator)
}

func (d *VulkanDriver) CreateFramebuffer(pass vk.RenderPass, views []vk.ImageView, extent vk.Extent2D) (vk.Framebuffer, error) {
	framebufferCreateInfo := vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      pass,
		AttachmentCount: uint32(len(views)),
		PAttachments:    views,
		Width:           extent.Width,
		Height:          extent.Height,
		Layers:          1,
	}

	var framebuffer vk.Framebuffer

	err := vk.Error(vk.CreateFramebuffer(d.VKDevice, &framebufferCreateInfo, d.Allocator, &framebuffer))
	if err != nil {
		return nil, err
	}
	return framebuffer, nil
}

func (d *VulkanDriver) DestroyFramebuffer(framebuffer vk.Framebuffer) {
	vk.DestroyFramebuffer(d.VKDevice, framebuffer, d.Allocator)
}

// CreatePipelineCache creates a pipeline cache seeded with initial, which may be empty
func (d *VulkanDriver) CreatePipelineCache(initial []byte) (vk.PipelineCache, error) {
	var pipelineCacheCreate = vk.PipelineCacheCreateInfo{}
	pipelineCacheCreate.SType = vk.StructureTypePipelineCacheCreateInfo
	if len(initial) > 0 {
		pipelineCacheCreate.InitialDataSize = uint(len(initial))
		pipelineCacheCreate.PInitialData = unsafe.Pointer(&initial[0])
	}

	var pipelineCache vk.PipelineCache

	err := vk.Error(vk.CreatePipelineCache(d.VKDevice, &pipelineCacheCreate, d.Allocator, &pipelineCache))
	if err != nil {
		return nil, err
	}
	return pipelineCache, nil
}

func (d *VulkanDriver) GetPipelineCacheData(cache vk.PipelineCache) ([]byte, error) {
	var size uint
	err := vk.Error(vk.GetPipelineCacheData(d.VKDevice, cache, &size, nil))
	if err != nil {
		return nil, errors.Wrap(err, "pipeline cache size")
	}
	if size == 0 {
		return nil, nil
	}

	data := make([]byte, size)
	err = vk.Error(vk.GetPipelineCacheData(d.VKDevice, cache, &size, unsafe.Pointer(&data[0])))
	if err != nil {
		return nil, errors.Wrap(err, "pipeline cache data")
	}
	return data[:size], nil
}

func (d *VulkanDriver) DestroyPipelineCache(cache vk.PipelineCache) {
	vk.DestroyPipelineCache(d.VKDevice, cache, d.Allocator)
}
