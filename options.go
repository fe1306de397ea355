package microvulkan

import (
	"log/slog"
	"time"

	vk "github.com/vulkan-go/vulkan"
)

const defaultImageCount = 3

// Options configures an Orchestrator
type Options struct {
	// FenceTimeout bounds every fence wait and image acquire, zero waits forever
	FenceTimeout time.Duration
	// OverlapFrames skips the fence wait at the end of Submit, the next Acquire on the same frame
	// slot waits instead which lets the CPU run up to FrameCount frames ahead
	OverlapFrames bool
	// ImageCount is the preferred number of swapchain images, zero means triple buffering
	ImageCount uint32
	// PresentModes in order of preference, FIFO is always used as the last resort
	PresentModes []vk.PresentMode
	// SurfaceFormat is the preferred swapchain format, paired with the sRGB non linear color space
	SurfaceFormat vk.Format
	// CommandPoolSizes overrides the default number of command buffers per queue role
	CommandPoolSizes map[QueueRole]CommandPoolSize
	RenderPasses     []RenderPassSpec
	// PipelineCachePath enables the on-disk pipeline cache when set
	PipelineCachePath string
	Logger            *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.ImageCount == 0 {
		o.ImageCount = defaultImageCount
	}
	if len(o.PresentModes) == 0 {
		o.PresentModes = []vk.PresentMode{vk.PresentModeMailbox, vk.PresentModeFifo}
	}
	if o.SurfaceFormat == vk.FormatUndefined {
		o.SurfaceFormat = vk.FormatB8g8r8a8Unorm
	}
	if o.Logger == nil {
		o.Logger = Logger()
	}
	return o
}

// timeout converts FenceTimeout into the nanosecond value native waits expect
func (o Options) timeout() uint64 {
	if o.FenceTimeout <= 0 {
		return vk.MaxUint64
	}
	return uint64(o.FenceTimeout.Nanoseconds())
}
