package microvulkan

import (
	vk "github.com/vulkan-go/vulkan"
)

// CreateCommandPool creates a pool whose buffers can be reset individually and are expected to be
// short lived
func (d *VulkanDriver) CreateCommandPool(family uint32) (vk.CommandPool, error) {
	var commandPoolCreateInfo = vk.CommandPoolCreateInfo{}
	commandPoolCreateInfo.SType = vk.StructureTypeCommandPoolCreateInfo
	commandPoolCreateInfo.Flags = vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit | vk.CommandPoolCreateTransientBit)
	commandPoolCreateInfo.QueueFamilyIndex = family

	var commandPool vk.CommandPool

	err := vk.Error(vk.CreateCommandPool(d.VKDevice, &commandPoolCreateInfo, d.Allocator, &commandPool))
	if err != nil {
		return nil, err
	}
	return commandPool, nil
}

func (d *VulkanDriver) DestroyCommandPool(pool vk.CommandPool) {
	vk.DestroyCommandPool(d.VKDevice, pool, d.Allocator)
}

func (d *VulkanDriver) AllocateCommandBuffers(pool vk.CommandPool, level vk.CommandBufferLevel, count int) ([]vk.CommandBuffer, error) {
	var commandBufferAllocateInfo = vk.CommandBufferAllocateInfo{}
	commandBufferAllocateInfo.SType = vk.StructureTypeCommandBufferAllocateInfo
	commandBufferAllocateInfo.CommandPool = pool
	commandBufferAllocateInfo.Level = level
	commandBufferAllocateInfo.CommandBufferCount = uint32(count)

	cmdBuffers := make([]vk.CommandBuffer, count)

	err := vk.Error(vk.AllocateCommandBuffers(d.VKDevice, &commandBufferAllocateInfo, cmdBuffers))
	if err != nil {
		return nil, err
	}
	return cmdBuffers, nil
}

func (d *VulkanDriver) FreeCommandBuffers(pool vk.CommandPool, buffers []vk.CommandBuffer) {
	vk.FreeCommandBuffers(d.VKDevice, pool, uint32(len(buffers)), buffers)
}

// QueueSubmit submits a single batch, fence is signaled once the batch completes
func (d *VulkanDriver) QueueSubmit(queue vk.Queue, batch SubmitBatch, fence vk.Fence) vk.Result {
	var submitInfo = vk.SubmitInfo{}
	submitInfo.SType = vk.StructureTypeSubmitInfo
	if batch.Wait != nil {
		submitInfo.WaitSemaphoreCount = 1
		submitInfo.PWaitSemaphores = []vk.Semaphore{batch.Wait}
		submitInfo.PWaitDstStageMask = []vk.PipelineStageFlags{batch.WaitStage}
	}
	submitInfo.CommandBufferCount = uint32(len(batch.Buffers))
	submitInfo.PCommandBuffers = batch.Buffers
	if batch.Signal != nil {
		submitInfo.SignalSemaphoreCount = 1
		submitInfo.PSignalSemaphores = []vk.Semaphore{batch.Signal}
	}

	return vk.QueueSubmit(queue, 1, []vk.SubmitInfo{submitInfo}, fence)
}

// ResetCommandBuffer resets the buffer keeping its resources
func (d *VulkanDriver) ResetCommandBuffer(buffer vk.CommandBuffer) error {
	return vk.Error(vk.ResetCommandBuffer(buffer, 0))
}

func (d *VulkanDriver) BeginCommandBuffer(buffer vk.CommandBuffer, flags vk.CommandBufferUsageFlags) error {
	var beginInfo = vk.CommandBufferBeginInfo{}
	beginInfo.SType = vk.StructureTypeCommandBufferBeginInfo
	beginInfo.Flags = flags
	return vk.Error(vk.BeginCommandBuffer(buffer, &beginInfo))
}

func (d *VulkanDriver) EndCommandBuffer(buffer vk.CommandBuffer) error {
	return vk.Error(vk.EndCommandBuffer(buffer))
}

func (d *VulkanDriver) CmdBeginRenderPass(buffer vk.CommandBuffer, info RenderPassInfo, contents vk.SubpassContents) {
	vk.CmdBeginRenderPass(buffer, &info.Begin, contents)
}

func (d *VulkanDriver) CmdNextSubpass(buffer vk.CommandBuffer, contents vk.SubpassContents) {
	vk.CmdNextSubpass(buffer, contents)
}

func (d *VulkanDriver) CmdEndRenderPass(buffer vk.CommandBuffer) {
	vk.CmdEndRenderPass(buffer)
}

func (d *VulkanDriver) CmdExecuteCommands(buffer vk.CommandBuffer, secondaries []vk.CommandBuffer) {
	vk.CmdExecuteCommands(buffer, uint32(len(secondaries)), secondaries)
}

func (d *VulkanDriver) CmdSetViewport(buffer vk.CommandBuffer, viewport vk.Viewport) {
	vk.CmdSetViewport(buffer, 0, 1, []vk.Viewport{viewport})
}

func (d *VulkanDriver) CmdSetScissor(buffer vk.CommandBuffer, scissor vk.Rect2D) {
	vk.CmdSetScissor(buffer, 0, 1, []vk.Rect2D{scissor})
}
