package microvulkan

import (
	"testing"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

func TestChooseImageCount(t *testing.T) {
	tests := []struct {
		min, max, want, expected uint32
	}{
		{2, 8, 3, 3},
		{4, 8, 3, 4},
		{1, 2, 3, 2},
		{2, 0, 3, 3},
		{2, 0, 16, 16},
		{1, 1, 3, 1},
	}
	for _, tt := range tests {
		caps := vk.SurfaceCapabilities{MinImageCount: tt.min, MaxImageCount: tt.max}
		if got := chooseImageCount(caps, tt.want); got != tt.expected {
			t.Errorf("chooseImageCount(min %d, max %d, %d) = %d, want %d", tt.min, tt.max, tt.want, got, tt.expected)
		}
	}
}

func TestChoosePresentMode(t *testing.T) {
	preferred := []vk.PresentMode{vk.PresentModeMailbox, vk.PresentModeFifo}
	tests := []struct {
		supported []vk.PresentMode
		want      vk.PresentMode
	}{
		{[]vk.PresentMode{vk.PresentModeFifo, vk.PresentModeMailbox}, vk.PresentModeMailbox},
		{[]vk.PresentMode{vk.PresentModeImmediate, vk.PresentModeFifo}, vk.PresentModeFifo},
		{[]vk.PresentMode{vk.PresentModeImmediate}, vk.PresentModeFifo},
		{nil, vk.PresentModeFifo},
	}
	for _, tt := range tests {
		if got := choosePresentMode(tt.supported, preferred); got != tt.want {
			t.Errorf("choosePresentMode(%v) = %v, want %v", tt.supported, got, tt.want)
		}
	}
}

func TestChooseSurfaceFormat(t *testing.T) {
	preferred := vk.FormatB8g8r8a8Unorm
	srgb := vk.SurfaceFormat{Format: vk.FormatB8g8r8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear}
	other := vk.SurfaceFormat{Format: vk.FormatR8g8b8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear}

	if _, err := chooseSurfaceFormat(nil, preferred); !errors.Is(err, ErrNoSurfaceFormat) {
		t.Errorf("no formats: err = %v, want ErrNoSurfaceFormat", err)
	}
	got, _ := chooseSurfaceFormat([]vk.SurfaceFormat{{Format: vk.FormatUndefined}}, preferred)
	if got != srgb {
		t.Errorf("undefined format: got %v, want %v", got, srgb)
	}
	got, _ = chooseSurfaceFormat([]vk.SurfaceFormat{other, srgb}, preferred)
	if got != srgb {
		t.Errorf("preferred available: got %v, want %v", got, srgb)
	}
	got, _ = chooseSurfaceFormat([]vk.SurfaceFormat{other}, preferred)
	if got != other {
		t.Errorf("preferred missing: got %v, want first format %v", got, other)
	}
}

func TestChooseExtent(t *testing.T) {
	caps := vk.SurfaceCapabilities{
		CurrentExtent:  vk.Extent2D{Width: 800, Height: 600},
		MinImageExtent: vk.Extent2D{Width: 1, Height: 1},
		MaxImageExtent: vk.Extent2D{Width: 1024, Height: 1024},
	}
	if got := chooseExtent(caps, vk.Extent2D{Width: 10, Height: 10}); got.Width != 800 || got.Height != 600 {
		t.Errorf("current extent ignored: %v", got)
	}
	caps.CurrentExtent = vk.Extent2D{Width: vk.MaxUint32, Height: vk.MaxUint32}
	if got := chooseExtent(caps, vk.Extent2D{Width: 2000, Height: 0}); got.Width != 1024 || got.Height != 1 {
		t.Errorf("requested extent not clamped: %v", got)
	}
}

func TestSwapchainRecreate(t *testing.T) {
	driver := newFakeDriver(t)
	swapchain, err := NewSwapchain(driver, vk.Extent2D{Width: 640, Height: 480}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if swapchain.ImageCount() != 3 || driver.count("imageView") != 3 {
		t.Fatalf("%d images and %d views, want 3", swapchain.ImageCount(), driver.count("imageView"))
	}
	if swapchain.Extent().Width != 640 || swapchain.Format() != vk.FormatB8g8r8a8Unorm {
		t.Errorf("unexpected config %+v", driver.swapchainConfigs[0])
	}
	old := swapchain.Handle()

	driver.calls = nil
	if err := swapchain.Recreate(vk.Extent2D{Width: 800, Height: 600}); err != nil {
		t.Fatal(err)
	}
	order := []string{"destroyImageView", "createSwapchain", "destroySwapchain"}
	next := 0
	for _, c := range driver.calls {
		if next < len(order) && c == order[next] {
			next++
		}
		if c == "destroyImageView" && next > 1 {
			t.Errorf("views destroyed after the swapchain was created: %v", driver.calls)
			break
		}
	}
	if next != len(order) {
		t.Errorf("recreate order %v, want views, create, destroy old", driver.calls)
	}
	if swapchain.Handle() == old {
		t.Error("handle not replaced")
	}
	if swapchain.Extent().Width != 800 {
		t.Errorf("extent = %v, want 800 wide", swapchain.Extent())
	}
	if driver.count("swapchain") != 1 || driver.count("imageView") != 3 {
		t.Errorf("after recreate: %v", driver.leaks())
	}

	swapchain.Destroy()
	if leaks := driver.leaks(); len(leaks) != 0 {
		t.Errorf("leaked %v", leaks)
	}
}

func TestSwapchainRecreateFailure(t *testing.T) {
	driver := newFakeDriver(t)
	swapchain, err := NewSwapchain(driver, vk.Extent2D{Width: 640, Height: 480}, Options{})
	if err != nil {
		t.Fatal(err)
	}

	driver.failCreateSwapchain = true
	if err := swapchain.Recreate(vk.Extent2D{Width: 800, Height: 600}); err == nil {
		t.Fatal("recreate succeeded")
	}
	if swapchain.Handle() != vk.NullSwapchain || swapchain.ImageCount() != 0 {
		t.Error("failed recreate left a handle behind")
	}
	swapchain.Destroy()
	if leaks := driver.leaks(); len(leaks) != 0 {
		t.Errorf("leaked %v", leaks)
	}
}
