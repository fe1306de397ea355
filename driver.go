package microvulkan

import (
	vk "github.com/vulkan-go/vulkan"
)

// Driver is the set of native calls the frame layer makes against a logical device. VulkanDriver
// implements it over vulkan-go; anything else implementing it (a recording fake, a tracing
// wrapper) can stand in for the device.
type Driver interface {
	Specification() DeviceSpecification

	GetQueue(family, index uint32) vk.Queue
	DeviceWaitIdle() error

	CreateCommandPool(family uint32) (vk.CommandPool, error)
	DestroyCommandPool(pool vk.CommandPool)
	AllocateCommandBuffers(pool vk.CommandPool, level vk.CommandBufferLevel, count int) ([]vk.CommandBuffer, error)
	FreeCommandBuffers(pool vk.CommandPool, buffers []vk.CommandBuffer)

	CreateSemaphore() (vk.Semaphore, error)
	DestroySemaphore(semaphore vk.Semaphore)
	CreateFence(signaled bool) (vk.Fence, error)
	DestroyFence(fence vk.Fence)
	WaitForFence(fence vk.Fence, timeout uint64) vk.Result
	ResetFence(fence vk.Fence) error

	SurfaceSupport() (SurfaceSupport, error)
	CreateSwapchain(config SwapchainConfig, old vk.Swapchain) (vk.Swapchain, error)
	DestroySwapchain(swapchain vk.Swapchain)
	GetSwapchainImages(swapchain vk.Swapchain) ([]vk.Image, error)
	CreateImageView(image vk.Image, format vk.Format, aspect vk.ImageAspectFlags) (vk.ImageView, error)
	DestroyImageView(view vk.ImageView)

	CreateRenderPass(spec *RenderPassSpec) (vk.RenderPass, error)
	DestroyRenderPass(pass vk.RenderPass)
	CreateFramebuffer(pass vk.RenderPass, views []vk.ImageView, extent vk.Extent2D) (vk.Framebuffer, error)
	DestroyFramebuffer(framebuffer vk.Framebuffer)
	CreateTexture(spec TextureSpec) (Texture, error)
	DestroyTexture(texture Texture)

	CreatePipelineCache(initial []byte) (vk.PipelineCache, error)
	GetPipelineCacheData(cache vk.PipelineCache) ([]byte, error)
	DestroyPipelineCache(cache vk.PipelineCache)

	AcquireNextImage(swapchain vk.Swapchain, timeout uint64, signal vk.Semaphore) (uint32, vk.Result)
	QueueSubmit(queue vk.Queue, batch SubmitBatch, fence vk.Fence) vk.Result
	QueuePresent(queue vk.Queue, request PresentRequest) vk.Result

	Recorder
}

// Recorder covers the command recording calls used by RenderContext.
type Recorder interface {
	ResetCommandBuffer(buffer vk.CommandBuffer) error
	BeginCommandBuffer(buffer vk.CommandBuffer, flags vk.CommandBufferUsageFlags) error
	EndCommandBuffer(buffer vk.CommandBuffer) error
	CmdBeginRenderPass(buffer vk.CommandBuffer, info RenderPassInfo, contents vk.SubpassContents)
	CmdNextSubpass(buffer vk.CommandBuffer, contents vk.SubpassContents)
	CmdEndRenderPass(buffer vk.CommandBuffer)
	CmdExecuteCommands(buffer vk.CommandBuffer, secondaries []vk.CommandBuffer)
	CmdSetViewport(buffer vk.CommandBuffer, viewport vk.Viewport)
	CmdSetScissor(buffer vk.CommandBuffer, scissor vk.Rect2D)
}

// QueueFamilyInfo is the queue family index and number of queues used for one role
type QueueFamilyInfo struct {
	Family uint32
	Count  uint32
}

// DeviceSpecification is what the bootstrap layer hands to the frame layer: queue families per
// role and the identity of the adapter.
type DeviceSpecification struct {
	Queues   [queueRoleCount]QueueFamilyInfo
	VendorID uint32
	DeviceID uint32
	Name     string
	Limits   DescriptorLimits
}

// Queue returns the family info for the role
func (d DeviceSpecification) Queue(role QueueRole) QueueFamilyInfo {
	return d.Queues[role]
}

type SurfaceSupport struct {
	Capabilities vk.SurfaceCapabilities
	Formats      []vk.SurfaceFormat
	PresentModes []vk.PresentMode
}

// SwapchainConfig is the resolved set of choices used to build a swapchain
type SwapchainConfig struct {
	ImageCount  uint32
	Format      vk.SurfaceFormat
	Extent      vk.Extent2D
	PresentMode vk.PresentMode
	Transform   vk.SurfaceTransformFlagBits
}

// TextureSpec describes an attachment texture owned by a framebuffer
type TextureSpec struct {
	Format vk.Format
	Extent vk.Extent2D
	Usage  vk.ImageUsageFlags
	Aspect vk.ImageAspectFlags
}

// Texture is an image bound to device memory along with its view and sampler
type Texture struct {
	Image   vk.Image
	Memory  vk.DeviceMemory
	View    vk.ImageView
	Sampler vk.Sampler
	Size    uint64
}

type SubmitBatch struct {
	Wait      vk.Semaphore
	WaitStage vk.PipelineStageFlags
	Signal    vk.Semaphore
	Buffers   []vk.CommandBuffer
}

type PresentRequest struct {
	Wait      vk.Semaphore
	Swapchain vk.Swapchain
	Image     uint32
}
