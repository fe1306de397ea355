package microvulkan

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// SwapchainImage is a presentable image and the view created for it. The image belongs to the
// presentation engine, only the view is owned by the swapchain.
type SwapchainImage struct {
	Image vk.Image
	View  vk.ImageView
}

// Swapchain owns the presentable surface object and a view for each of its images. It is rebuilt
// in place by Recreate whenever the surface changes.
type Swapchain struct {
	driver  Driver
	options Options
	config  SwapchainConfig
	handle  vk.Swapchain
	images  []SwapchainImage
}

// NewSwapchain queries the surface and builds a swapchain at the requested extent
func NewSwapchain(driver Driver, extent vk.Extent2D, options Options) (*Swapchain, error) {
	ret := &Swapchain{driver: driver, options: options.withDefaults()}
	if err := ret.build(extent, vk.NullSwapchain); err != nil {
		return nil, err
	}
	return ret, nil
}

// Recreate destroys the image views, builds a new swapchain with the current one as the
// recreation hint, then destroys the old swapchain and rebuilds the views.
func (s *Swapchain) Recreate(extent vk.Extent2D) error {
	s.destroyViews()
	old := s.handle
	s.handle = vk.NullSwapchain

	err := s.build(extent, old)
	// the old swapchain is retired by the create call even when it fails
	if old != vk.NullSwapchain {
		s.driver.DestroySwapchain(old)
	}
	return err
}

func (s *Swapchain) build(extent vk.Extent2D, old vk.Swapchain) error {
	support, err := s.driver.SurfaceSupport()
	if err != nil {
		return errors.Wrap(err, "query surface support")
	}
	config, err := chooseSwapchainConfig(support, extent, s.options)
	if err != nil {
		return err
	}

	handle, err := s.driver.CreateSwapchain(config, old)
	if err != nil {
		return errors.Wrap(err, "create swapchain")
	}

	images, err := s.driver.GetSwapchainImages(handle)
	if err != nil {
		s.driver.DestroySwapchain(handle)
		return errors.Wrap(err, "get swapchain images")
	}

	s.handle = handle
	s.config = config
	s.images = make([]SwapchainImage, 0, len(images))
	for i, img := range images {
		view, err := s.driver.CreateImageView(img, config.Format.Format, vk.ImageAspectFlags(vk.ImageAspectColorBit))
		if err != nil {
			s.Destroy()
			return errors.Wrapf(err, "create swapchain image view %d", i)
		}
		s.images = append(s.images, SwapchainImage{Image: img, View: view})
	}
	return nil
}

func (s *Swapchain) destroyViews() {
	for _, img := range s.images {
		s.driver.DestroyImageView(img.View)
	}
	s.images = nil
}

// Images returns the current image and view list, valid until the next Recreate
func (s *Swapchain) Images() []SwapchainImage {
	return s.images
}

func (s *Swapchain) ImageCount() int {
	return len(s.images)
}

func (s *Swapchain) Handle() vk.Swapchain {
	return s.handle
}

func (s *Swapchain) Format() vk.Format {
	return s.config.Format.Format
}

func (s *Swapchain) Extent() vk.Extent2D {
	return s.config.Extent
}

func (s *Swapchain) PresentMode() vk.PresentMode {
	return s.config.PresentMode
}

func (s *Swapchain) Destroy() {
	s.destroyViews()
	if s.handle != vk.NullSwapchain {
		s.driver.DestroySwapchain(s.handle)
		s.handle = vk.NullSwapchain
	}
}

func chooseSwapchainConfig(support SurfaceSupport, extent vk.Extent2D, options Options) (SwapchainConfig, error) {
	format, err := chooseSurfaceFormat(support.Formats, options.SurfaceFormat)
	if err != nil {
		return SwapchainConfig{}, err
	}
	caps := support.Capabilities
	return SwapchainConfig{
		ImageCount:  chooseImageCount(caps, options.ImageCount),
		Format:      format,
		Extent:      chooseExtent(caps, extent),
		PresentMode: choosePresentMode(support.PresentModes, options.PresentModes),
		Transform:   caps.CurrentTransform,
	}, nil
}

// chooseImageCount clamps the wanted count into the range the surface supports, a maximum of
// zero means there is no upper limit.
func chooseImageCount(caps vk.SurfaceCapabilities, want uint32) uint32 {
	if want < caps.MinImageCount {
		want = caps.MinImageCount
	}
	if caps.MaxImageCount > 0 && want > caps.MaxImageCount {
		want = caps.MaxImageCount
	}
	return want
}

// choosePresentMode picks the first preference the surface supports, FIFO is always available
func choosePresentMode(supported, preferred []vk.PresentMode) vk.PresentMode {
	for _, want := range preferred {
		for _, m := range supported {
			if m == want {
				return m
			}
		}
	}
	return vk.PresentModeFifo
}

func chooseSurfaceFormat(formats []vk.SurfaceFormat, preferred vk.Format) (vk.SurfaceFormat, error) {
	if len(formats) == 0 {
		return vk.SurfaceFormat{}, ErrNoSurfaceFormat
	}
	if len(formats) == 1 && formats[0].Format == vk.FormatUndefined {
		return vk.SurfaceFormat{Format: preferred, ColorSpace: vk.ColorSpaceSrgbNonlinear}, nil
	}
	for _, f := range formats {
		if f.Format == preferred && f.ColorSpace == vk.ColorSpaceSrgbNonlinear {
			return f, nil
		}
	}
	return formats[0], nil
}

// chooseExtent uses the surface's current extent when it reports one, otherwise the requested
// extent clamped to the supported range
func chooseExtent(caps vk.SurfaceCapabilities, requested vk.Extent2D) vk.Extent2D {
	if caps.CurrentExtent.Width != vk.MaxUint32 {
		return vk.Extent2D{Width: caps.CurrentExtent.Width, Height: caps.CurrentExtent.Height}
	}
	return vk.Extent2D{
		Width:  clamp(requested.Width, caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: clamp(requested.Height, caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

func clamp(v, lo, hi uint32) uint32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
