package microvulkan

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// RenderContext is the state of the frame currently being recorded. It is handed out by
// Orchestrator.Acquire and stays valid until the matching Present.
type RenderContext struct {
	FrameID       uint32
	ImageID       uint32
	Queue         QueueHandle
	CommandBuffer CommandHandle

	owner *Orchestrator
	// set when the wait after submit timed out, the GPU may still use the command buffer
	pending bool
}

// Sync returns the frame slot this context synchronizes with
func (r *RenderContext) Sync() *FrameSlot {
	return r.owner.sync.Acquire(r.FrameID)
}

// BeginRecord resets the command buffer and begins a one time submit recording
func (r *RenderContext) BeginRecord() error {
	if !r.CommandBuffer.Valid() {
		return errors.Wrap(ErrInvalidState, "begin record without a command buffer")
	}
	d := r.owner.driver
	if err := d.ResetCommandBuffer(r.CommandBuffer.Buffer); err != nil {
		return errors.Wrap(err, "reset command buffer")
	}
	err := d.BeginCommandBuffer(r.CommandBuffer.Buffer, vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit))
	return errors.Wrap(err, "begin command buffer")
}

// BeginRenderPass begins the render pass on this frame's target. Inline passes also get the
// full target viewport and scissor.
func (r *RenderContext) BeginRenderPass(pass int, contents vk.SubpassContents) RenderPassInfo {
	info := r.owner.framebuffers.RenderPassInfo(pass, r.ImageID)
	if !r.CommandBuffer.Valid() {
		return info
	}
	d := r.owner.driver
	d.CmdBeginRenderPass(r.CommandBuffer.Buffer, info, contents)
	if contents == vk.SubpassContentsInline {
		d.CmdSetViewport(r.CommandBuffer.Buffer, info.Viewport)
		d.CmdSetScissor(r.CommandBuffer.Buffer, info.Scissor)
	}
	return info
}

func (r *RenderContext) NextSubpass(contents vk.SubpassContents) {
	if r.CommandBuffer.Valid() {
		r.owner.driver.CmdNextSubpass(r.CommandBuffer.Buffer, contents)
	}
}

// Execute records the secondary command buffers into the primary one
func (r *RenderContext) Execute(secondaries ...vk.CommandBuffer) {
	if len(secondaries) > 0 && r.CommandBuffer.Valid() {
		r.owner.driver.CmdExecuteCommands(r.CommandBuffer.Buffer, secondaries)
	}
}

func (r *RenderContext) EndRenderPass() {
	if r.CommandBuffer.Valid() {
		r.owner.driver.CmdEndRenderPass(r.CommandBuffer.Buffer)
	}
}

func (r *RenderContext) EndRecord() error {
	if !r.CommandBuffer.Valid() {
		return errors.Wrap(ErrInvalidState, "end record without a command buffer")
	}
	return errors.Wrap(r.owner.driver.EndCommandBuffer(r.CommandBuffer.Buffer), "end command buffer")
}
