package microvulkan

import (
	"fmt"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// FrameTargetTexture is one attachment of a frame target. Textures that alias a swapchain image
// are not owned and never destroyed by Framebuffers.
type FrameTargetTexture struct {
	Texture
	Format vk.Format
	Owned  bool
}

// FrameTarget is the framebuffer of one render pass for one swapchain image
type FrameTarget struct {
	Framebuffer vk.Framebuffer
	Textures    []FrameTargetTexture
}

// RenderPassInfo is a ready to use begin info with a matching viewport and scissor
type RenderPassInfo struct {
	Begin    vk.RenderPassBeginInfo
	Viewport vk.Viewport
	Scissor  vk.Rect2D
}

type passTargets struct {
	clears  []vk.ClearValue
	targets []FrameTarget
}

// Framebuffers owns one FrameTarget per render pass and swapchain image
type Framebuffers struct {
	driver Driver
	passes *RenderPasses
	extent vk.Extent2D
	frames []passTargets
}

// NewFramebuffers builds the frame targets of every render pass against the swapchain's images
func NewFramebuffers(driver Driver, swapchain *Swapchain, passes *RenderPasses) (*Framebuffers, error) {
	ret := &Framebuffers{driver: driver, passes: passes}
	ret.frames = make([]passTargets, passes.Count())
	for p := range ret.frames {
		spec := passes.Spec(p)
		ret.frames[p].clears = append([]vk.ClearValue(nil), spec.ClearValues...)
	}
	if err := ret.build(swapchain); err != nil {
		ret.Destroy()
		return nil, err
	}
	return ret, nil
}

// Recreate destroys the owned textures and framebuffers and rebuilds them against the
// swapchain's current images and extent. Clear values are kept.
func (f *Framebuffers) Recreate(swapchain *Swapchain) error {
	f.destroyTargets()
	if err := f.build(swapchain); err != nil {
		f.destroyTargets()
		return err
	}
	return nil
}

func (f *Framebuffers) build(swapchain *Swapchain) error {
	f.extent = swapchain.Extent()
	images := swapchain.Images()
	for p := range f.frames {
		f.frames[p].targets = make([]FrameTarget, 0, len(images))
		for i := range images {
			target, err := f.buildTarget(p, images[i])
			f.frames[p].targets = append(f.frames[p].targets, target)
			if err != nil {
				return errors.Wrapf(err, "render pass %d image %d", p, i)
			}
		}
	}
	return nil
}

// buildTarget always returns what it created so a failed build can be cleaned up
func (f *Framebuffers) buildTarget(pass int, image SwapchainImage) (FrameTarget, error) {
	var ret FrameTarget
	spec := f.passes.Spec(pass)
	views := make([]vk.ImageView, len(spec.Attachments))

	for a, attachment := range spec.Attachments {
		if a == 0 && pass == f.passes.PresentPass() {
			ret.Textures = append(ret.Textures, FrameTargetTexture{
				Texture: Texture{Image: image.Image, View: image.View},
				Format:  attachment.Format,
			})
			views[a] = image.View
			continue
		}
		tex, err := f.driver.CreateTexture(attachmentTextureSpec(attachment.Format, f.extent))
		if err != nil {
			return ret, errors.Wrapf(err, "create attachment %d", a)
		}
		ret.Textures = append(ret.Textures, FrameTargetTexture{Texture: tex, Format: attachment.Format, Owned: true})
		views[a] = tex.View
	}

	fb, err := f.driver.CreateFramebuffer(f.passes.Get(pass), views, f.extent)
	if err != nil {
		return ret, errors.Wrap(err, "create framebuffer")
	}
	ret.Framebuffer = fb
	return ret, nil
}

func (f *Framebuffers) destroyTargets() {
	for p := range f.frames {
		for _, target := range f.frames[p].targets {
			for _, tex := range target.Textures {
				if tex.Owned {
					f.driver.DestroyTexture(tex.Texture)
				}
			}
			if target.Framebuffer != nil {
				f.driver.DestroyFramebuffer(target.Framebuffer)
			}
		}
		f.frames[p].targets = nil
	}
}

// SetClearValue replaces the clear value of one attachment of a render pass
func (f *Framebuffers) SetClearValue(pass, attachment int, value vk.ClearValue) {
	f.checkPass(pass)
	clears := f.frames[pass].clears
	if attachment < 0 || attachment >= len(clears) {
		panic(fmt.Sprintf("microvulkan: clear value %d out of range [0, %d) for render pass %d", attachment, len(clears), pass))
	}
	clears[attachment] = value
}

// SetClearValues replaces the leading clear values of a render pass
func (f *Framebuffers) SetClearValues(pass int, values []vk.ClearValue) {
	f.checkPass(pass)
	clears := f.frames[pass].clears
	if len(values) > len(clears) {
		panic(fmt.Sprintf("microvulkan: %d clear values for render pass %d with %d attachments", len(values), pass, len(clears)))
	}
	copy(clears, values)
}

// RenderPassInfo returns the begin info for the pass targeting the given swapchain image
func (f *Framebuffers) RenderPassInfo(pass int, image uint32) RenderPassInfo {
	target := f.Target(pass, image)
	area := vk.Rect2D{
		Offset: vk.Offset2D{X: 0, Y: 0},
		Extent: vk.Extent2D{Width: f.extent.Width, Height: f.extent.Height},
	}
	clears := f.frames[pass].clears
	return RenderPassInfo{
		Begin: vk.RenderPassBeginInfo{
			SType:           vk.StructureTypeRenderPassBeginInfo,
			RenderPass:      f.passes.Get(pass),
			Framebuffer:     target.Framebuffer,
			RenderArea:      area,
			ClearValueCount: uint32(len(clears)),
			PClearValues:    clears,
		},
		Viewport: vk.Viewport{
			Width:    float32(f.extent.Width),
			Height:   float32(f.extent.Height),
			MinDepth: 0,
			MaxDepth: 1,
		},
		Scissor: area,
	}
}

// Dimensions is the extent every target was built at
func (f *Framebuffers) Dimensions() vk.Extent2D {
	return f.extent
}

// Count is the number of targets per render pass
func (f *Framebuffers) Count(pass int) int {
	f.checkPass(pass)
	return len(f.frames[pass].targets)
}

func (f *Framebuffers) Targets(pass int) []FrameTarget {
	f.checkPass(pass)
	return f.frames[pass].targets
}

func (f *Framebuffers) Target(pass int, image uint32) *FrameTarget {
	f.checkPass(pass)
	targets := f.frames[pass].targets
	if int(image) >= len(targets) {
		panic(fmt.Sprintf("microvulkan: image %d out of range [0, %d) for render pass %d", image, len(targets), pass))
	}
	return &targets[image]
}

func (f *Framebuffers) checkPass(pass int) {
	if pass < 0 || pass >= len(f.frames) {
		panic(fmt.Sprintf("microvulkan: render pass %d out of range [0, %d)", pass, len(f.frames)))
	}
}

func (f *Framebuffers) Destroy() {
	f.destroyTargets()
	f.frames = nil
}
