// Package glfwwindow adapts a glfw window to the frame orchestrator: it reports the drawable
// extent, creates the presentation surface and tracks framebuffer resizes.
package glfwwindow

import (
	"unsafe"

	"github.com/pkg/errors"
	"github.com/vulkan-go/glfw/v3.3/glfw"
	vk "github.com/vulkan-go/vulkan"
)

// Init initializes glfw and checks for a Vulkan loader. It must run on the main thread.
func Init() error {
	if err := glfw.Init(); err != nil {
		return errors.Wrap(err, "init glfw")
	}
	if !glfw.VulkanSupported() {
		glfw.Terminate()
		return errors.New("vulkan is not supported")
	}
	return nil
}

// Terminate releases glfw, every window must have been destroyed
func Terminate() {
	glfw.Terminate()
}

// ProcAddr returns vkGetInstanceProcAddr as resolved by glfw
func ProcAddr() unsafe.Pointer {
	return glfw.GetVulkanGetInstanceProcAddress()
}

// PollEvents processes pending window events, firing resize callbacks
func PollEvents() {
	glfw.PollEvents()
}

type Window struct {
	*glfw.Window
	resized bool
}

// New creates a window without a client API, ready for a Vulkan surface
func New(width, height int, title string) (*Window, error) {
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.True)

	native, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		return nil, errors.Wrap(err, "create window")
	}

	w := &Window{Window: native}
	native.SetFramebufferSizeCallback(func(_ *glfw.Window, _, _ int) {
		w.resized = true
	})
	return w, nil
}

// Extent returns the framebuffer size in pixels, zero while minimized
func (w *Window) Extent() vk.Extent2D {
	width, height := w.GetFramebufferSize()
	return vk.Extent2D{Width: uint32(width), Height: uint32(height)}
}

// Resized reports whether the framebuffer changed size since the last call
func (w *Window) Resized() bool {
	r := w.resized
	w.resized = false
	return r
}

// RequiredExtensions lists the instance extensions needed to present to this window
func (w *Window) RequiredExtensions() []string {
	return w.GetRequiredInstanceExtensions()
}

func (w *Window) CreateSurface(instance vk.Instance) (vk.Surface, error) {
	surface, err := w.CreateWindowSurface(instance, nil)
	if err != nil {
		return vk.NullSurface, errors.Wrap(err, "create window surface")
	}
	return vk.SurfaceFromPointer(surface), nil
}

func (w *Window) Destroy() {
	w.Window.Destroy()
}
