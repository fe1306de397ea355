package microvulkan

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
	"golang.org/x/time/rate"
)

// Window is the surface owner the orchestrator renders to
type Window interface {
	// Extent is the current drawable size in pixels
	Extent() vk.Extent2D
}

// FrameState is the position of the orchestrator in the frame cycle
type FrameState int

const (
	StateIdle FrameState = iota
	StateAcquiring
	StateRecording
	StateSubmitted
	StatePresenting
	StateRecreating
)

func (s FrameState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAcquiring:
		return "acquiring"
	case StateRecording:
		return "recording"
	case StateSubmitted:
		return "submitted"
	case StatePresenting:
		return "presenting"
	case StateRecreating:
		return "recreating"
	}
	return fmt.Sprintf("FrameState(%d)", int(s))
}

// Orchestrator drives the Acquire, Record, Submit, Present cycle over a swapchain and rebuilds
// the swapchain and framebuffers when the surface goes out of date. It is not safe for concurrent
// use.
type Orchestrator struct {
	driver  Driver
	options Options
	log     *slog.Logger

	queues       *QueuePool
	commands     *CommandPool
	swapchain    *Swapchain
	sync         *FrameSynchronization
	passes       *RenderPasses
	framebuffers *Framebuffers
	cache        *PipelineCache

	frameID     uint32
	state       FrameState
	stale       bool
	recreations int
	context     RenderContext
	// command buffers still executing on the GPU, indexed by frame slot
	inflight []CommandHandle

	recreateLog rate.Sometimes
}

// NewOrchestrator builds the queue and command pools, swapchain, frame synchronization, render
// passes, framebuffers and the optional pipeline cache.
func NewOrchestrator(driver Driver, window Window, options Options) (*Orchestrator, error) {
	options = options.withDefaults()
	o := &Orchestrator{
		driver:      driver,
		options:     options,
		log:         options.Logger,
		recreateLog: rate.Sometimes{First: 3, Interval: time.Second},
	}
	if err := o.create(window); err != nil {
		o.Destroy()
		return nil, err
	}
	return o, nil
}

func (o *Orchestrator) create(window Window) error {
	spec := o.driver.Specification()
	var err error

	if o.queues, err = NewQueuePool(o.driver, spec); err != nil {
		return errors.Wrap(err, "create queue pool")
	}
	if o.swapchain, err = NewSwapchain(o.driver, window.Extent(), o.options); err != nil {
		return err
	}
	imageCount := o.swapchain.ImageCount()
	o.log.Info("swapchain created",
		"images", imageCount,
		"format", o.swapchain.Format(),
		"presentMode", o.swapchain.PresentMode(),
		"width", o.swapchain.Extent().Width,
		"height", o.swapchain.Extent().Height)

	if o.commands, err = NewCommandPool(o.driver, spec, uint32(imageCount), o.options.CommandPoolSizes); err != nil {
		return errors.Wrap(err, "create command pool")
	}
	if o.sync, err = NewFrameSynchronization(o.driver, imageCount); err != nil {
		return errors.Wrap(err, "create frame synchronization")
	}
	o.inflight = make([]CommandHandle, imageCount)
	if o.passes, err = NewRenderPasses(o.driver, presentingSpecs(o.options.RenderPasses, o.swapchain.Format())); err != nil {
		return err
	}
	if o.framebuffers, err = NewFramebuffers(o.driver, o.swapchain, o.passes); err != nil {
		return errors.Wrap(err, "create framebuffers")
	}
	if o.options.PipelineCachePath != "" {
		if o.cache, err = LoadPipelineCache(o.driver, o.options.PipelineCachePath, o.log); err != nil {
			return err
		}
	}
	return nil
}

// Acquire starts a frame. It lends a graphics queue and a primary command buffer, waits until the
// GPU is done with the frame slot and acquires the next swapchain image.
//
// When needResize is set, or the swapchain turns out to be out of date, the swapchain is rebuilt,
// needResize is cleared and false is returned: nothing must be rendered for this frame. Errors
// are fatal except ErrPoolExhausted and ErrFenceTimeout, which leave the orchestrator idle with
// the handles released.
func (o *Orchestrator) Acquire(window Window, needResize *bool) (*RenderContext, bool, error) {
	if o.state != StateIdle {
		return nil, false, errors.Wrapf(ErrInvalidState, "acquire while %s", o.state)
	}
	o.state = StateAcquiring

	rc := &o.context
	*rc = RenderContext{FrameID: o.frameID, owner: o}
	slot := o.sync.Acquire(o.frameID)

	var ok bool
	if rc.Queue, ok = o.queues.Acquire(Graphics); !ok {
		return nil, false, o.abort(rc, errors.Wrap(ErrPoolExhausted, "acquire graphics queue"))
	}

	if err := resultError(o.driver.WaitForFence(slot.FrameSignal, o.options.timeout()), "wait for frame fence"); err != nil {
		return nil, false, o.abort(rc, err)
	}
	// the slot's previous command buffer is known to be complete now
	o.commands.Release(&o.inflight[o.frameID])

	if rc.CommandBuffer, ok = o.commands.Acquire(Graphics, Primary); !ok {
		return nil, false, o.abort(rc, errors.Wrap(ErrPoolExhausted, "acquire primary command buffer"))
	}

	if o.stale || (needResize != nil && *needResize) {
		o.releaseContext(rc, false)
		return nil, false, o.recreateFrom(window, needResize)
	}

	image, res := o.driver.AcquireNextImage(o.swapchain.Handle(), o.options.timeout(), slot.ImageAvailable)
	switch res {
	case vk.Success, vk.Suboptimal:
		if err := o.driver.ResetFence(slot.FrameSignal); err != nil {
			return nil, false, o.abort(rc, errors.Wrap(err, "reset frame fence"))
		}
		rc.ImageID = image
		o.state = StateRecording
		o.log.Debug("frame acquired", "frame", rc.FrameID, "image", rc.ImageID,
			"queue", rc.Queue.Slot, "commandBuffer", rc.CommandBuffer.Slot)
		return rc, true, nil
	case vk.ErrorOutOfDate:
		o.releaseContext(rc, false)
		return nil, false, o.recreateFrom(window, needResize)
	}
	return nil, false, o.abort(rc, resultError(res, "acquire next image"))
}

// Submit submits the context's command buffer. The batch waits for the image to be available
// before writing color output, signals render finished and the frame fence. Unless OverlapFrames
// is set it then blocks until the fence signals.
//
// A failed submit returns to idle with the frame slot ready for the next Acquire. When the wait
// after a successful submit returns ErrFenceTimeout the frame is still submitted and Present must
// follow; the command buffer is then kept until the slot's fence signals.
func (o *Orchestrator) Submit(rc *RenderContext) error {
	if o.state != StateRecording || rc != &o.context {
		return errors.Wrapf(ErrInvalidState, "submit while %s", o.state)
	}
	slot := rc.Sync()
	batch := SubmitBatch{
		Wait:      slot.ImageAvailable,
		WaitStage: vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		Signal:    slot.RenderFinished,
		Buffers:   []vk.CommandBuffer{rc.CommandBuffer.Buffer},
	}
	if err := resultError(o.driver.QueueSubmit(rc.Queue.Queue, batch, slot.FrameSignal), "queue submit"); err != nil {
		// the fence was reset by Acquire and nothing will signal it now
		if rerr := o.sync.RenewFence(rc.FrameID); rerr != nil {
			o.log.Error("frame slot unusable", "frame", rc.FrameID, "err", rerr)
		}
		return o.abort(rc, err)
	}
	o.state = StateSubmitted

	if o.options.OverlapFrames {
		return nil
	}
	err := resultError(o.driver.WaitForFence(slot.FrameSignal, o.options.timeout()), "wait for submitted frame")
	if err != nil {
		rc.pending = true
	}
	return err
}

// Present queues the context's image for presentation once rendering finished and hands the
// context's queue and command buffer back. An out of date or suboptimal swapchain, or a set
// needResize, rebuilds the swapchain and clears needResize; otherwise the frame id advances.
func (o *Orchestrator) Present(window Window, rc *RenderContext, needResize *bool) error {
	if o.state != StateSubmitted || rc != &o.context {
		return errors.Wrapf(ErrInvalidState, "present while %s", o.state)
	}
	o.state = StatePresenting

	request := PresentRequest{
		Wait:      rc.Sync().RenderFinished,
		Swapchain: o.swapchain.Handle(),
		Image:     rc.ImageID,
	}
	res := o.driver.QueuePresent(rc.Queue.Queue, request)
	o.releaseContext(rc, true)

	if res == vk.ErrorOutOfDate || res == vk.Suboptimal || (needResize != nil && *needResize) {
		return o.recreateFrom(window, needResize)
	}
	if res != vk.Success {
		o.state = StateIdle
		return resultError(res, "queue present")
	}
	o.frameID = (o.frameID + 1) % uint32(o.sync.Count())
	o.state = StateIdle
	return nil
}

// Recreate waits for the device to go idle, rebuilds the swapchain and framebuffers at the
// window's current extent and waits idle again. The render passes are rebuilt too when the
// surface format chosen for the swapchain changed. A window with no area marks the swapchain stale,
// the next Acquire retries.
func (o *Orchestrator) Recreate(window Window) error {
	switch o.state {
	case StateIdle, StateAcquiring, StatePresenting:
	default:
		return errors.Wrapf(ErrInvalidState, "recreate while %s", o.state)
	}
	o.state = StateRecreating
	defer func() { o.state = StateIdle }()

	o.stale = true
	extent := window.Extent()
	if extent.Width == 0 || extent.Height == 0 {
		return nil
	}

	if err := o.driver.DeviceWaitIdle(); err != nil {
		return errors.Wrap(err, "wait idle before recreate")
	}
	format := o.swapchain.Format()
	if err := o.swapchain.Recreate(extent); err != nil {
		return errors.Wrap(err, "recreate swapchain")
	}
	if o.swapchain.Format() != format {
		o.framebuffers.destroyTargets()
		if err := o.passes.Recreate(o.swapchain.Format()); err != nil {
			return errors.Wrap(err, "recreate render passes")
		}
		o.log.Info("render passes rebuilt", "format", o.swapchain.Format())
	}
	if err := o.framebuffers.Recreate(o.swapchain); err != nil {
		return errors.Wrap(err, "recreate framebuffers")
	}
	if err := o.driver.DeviceWaitIdle(); err != nil {
		return errors.Wrap(err, "wait idle after recreate")
	}
	o.stale = false
	o.recreations++

	o.recreateLog.Do(func() {
		o.log.Info("swapchain recreated",
			"width", o.swapchain.Extent().Width,
			"height", o.swapchain.Extent().Height,
			"images", o.swapchain.ImageCount(),
			"recreations", o.recreations)
	})
	return nil
}

func (o *Orchestrator) recreateFrom(window Window, needResize *bool) error {
	err := o.Recreate(window)
	if needResize != nil {
		*needResize = false
	}
	return err
}

// abort gives back whatever the context holds and returns to idle
func (o *Orchestrator) abort(rc *RenderContext, err error) error {
	o.releaseContext(rc, false)
	o.state = StateIdle
	if errors.Is(err, ErrPoolExhausted) {
		o.log.Warn("frame dropped", "frame", rc.FrameID, "err", err)
	}
	return err
}

// releaseContext returns the context's handles to their pools. A submitted command buffer the
// GPU may still be running is parked until its frame slot's fence is next waited on.
func (o *Orchestrator) releaseContext(rc *RenderContext, submitted bool) {
	o.queues.Release(&rc.Queue)
	if submitted && (o.options.OverlapFrames || rc.pending) && rc.CommandBuffer.Valid() {
		o.inflight[rc.FrameID] = rc.CommandBuffer
		rc.CommandBuffer = CommandHandle{}
		return
	}
	o.commands.Release(&rc.CommandBuffer)
}

// RenderPassInfo returns the begin info of a render pass targeting the context's image
func (o *Orchestrator) RenderPassInfo(rc *RenderContext, pass int) RenderPassInfo {
	return o.framebuffers.RenderPassInfo(pass, rc.ImageID)
}

// FrameID is the frame slot the next Acquire uses
func (o *Orchestrator) FrameID() uint32 {
	return o.frameID
}

// FrameCount is the number of frames that may be in flight
func (o *Orchestrator) FrameCount() int {
	return o.sync.Count()
}

func (o *Orchestrator) State() FrameState {
	return o.state
}

// Recreations counts successful swapchain rebuilds
func (o *Orchestrator) Recreations() int {
	return o.recreations
}

func (o *Orchestrator) Swapchain() *Swapchain {
	return o.swapchain
}

func (o *Orchestrator) Framebuffers() *Framebuffers {
	return o.framebuffers
}

func (o *Orchestrator) RenderPasses() *RenderPasses {
	return o.passes
}

func (o *Orchestrator) Queues() *QueuePool {
	return o.queues
}

func (o *Orchestrator) Commands() *CommandPool {
	return o.commands
}

func (o *Orchestrator) Synchronization() *FrameSynchronization {
	return o.sync
}

// PipelineCache is nil unless Options.PipelineCachePath was set
func (o *Orchestrator) PipelineCache() *PipelineCache {
	return o.cache
}

// Destroy waits for the device, saves the pipeline cache and destroys every component in
// reverse creation order.
func (o *Orchestrator) Destroy() {
	if err := o.driver.DeviceWaitIdle(); err != nil {
		o.log.Warn("wait idle before destroy", "err", err)
	}
	if o.cache != nil {
		if err := o.cache.Save(); err != nil {
			o.log.Warn("pipeline cache not saved", "path", o.options.PipelineCachePath, "err", err)
		}
		o.cache.Destroy()
		o.cache = nil
	}
	if o.framebuffers != nil {
		o.framebuffers.Destroy()
		o.framebuffers = nil
	}
	if o.passes != nil {
		o.passes.Destroy()
		o.passes = nil
	}
	if o.sync != nil {
		o.sync.Destroy()
		o.sync = nil
	}
	if o.commands != nil {
		o.commands.Destroy()
		o.commands = nil
	}
	o.inflight = nil
	if o.swapchain != nil {
		o.swapchain.Destroy()
		o.swapchain = nil
	}
	if o.queues != nil {
		o.queues.Destroy()
		o.queues = nil
	}
	o.state = StateIdle
}
