/*
Package microvulkan drives the frame loop of a Vulkan renderer. It owns the swapchain, the per frame
synchronization objects, pools of queues and command buffers, the render passes and their
framebuffers, and rebuilds all of the surface dependent parts when the window changes size.

Frame cycle

A frame goes through Acquire, recording, Submit and Present on an Orchestrator:

	rc, ok, err := o.Acquire(window, &resize)
	if err != nil {
		// ErrPoolExhausted and ErrFenceTimeout are recoverable, retry on the next frame
	}
	if !ok {
		// the swapchain was rebuilt, nothing to draw this time
	}
	rc.BeginRecord()
	rc.BeginRenderPass(0, vk.SubpassContentsInline)
	...
	rc.EndRenderPass()
	rc.EndRecord()
	o.Submit(rc)
	o.Present(window, rc, &resize)

Acquire waits on the frame slot's fence, lends a graphics queue and a primary command buffer and
acquires the next swapchain image. Present hands the queue and command buffer back and advances the
frame id, which cycles through 0 to FrameCount-1. Calls out of this order return ErrInvalidState.
A Submit that returns ErrFenceTimeout has still queued the frame, Present must follow it.

Every frame slot has an image available semaphore, a render finished semaphore and a fence created
signaled. By default Submit waits for the fence so only one frame is on the GPU at a time, setting
Options.OverlapFrames moves that wait to the next Acquire of the slot.

Surface changes

An out of date or suboptimal swapchain, reported either by the acquire or by the present, or a
resize flagged by the caller, triggers Recreate: the device is drained, the swapchain is rebuilt
from the old one, the framebuffers are rebuilt at the new extent and the frame is skipped. A window
with no area (minimized) leaves the swapchain stale until it has one again.

Drivers

Every native call goes through the Driver interface. VulkanDriver implements it on a logical device
created with the bootstrap helpers (App, Instance, PhysicalDevice), other implementations can wrap
or replace it.

Logging

Nothing is logged unless SetLogger or Options.Logger provide a *slog.Logger.
*/
package microvulkan
