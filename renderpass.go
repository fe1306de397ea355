package microvulkan

import (
	"fmt"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// RenderPassSpec declares a render pass and its attachments. Attachment formats drive the
// textures Framebuffers allocates; ClearValues holds one value per attachment.
type RenderPassSpec struct {
	Attachments  []vk.AttachmentDescription
	Subpasses    []vk.SubpassDescription
	Dependencies []vk.SubpassDependency
	ClearValues  []vk.ClearValue
	// Present marks the pass rendering into the swapchain, its first attachment aliases the
	// swapchain image. When no pass is marked the first one presents.
	Present bool
}

// RenderPasses owns one native render pass per spec
type RenderPasses struct {
	driver  Driver
	specs   []RenderPassSpec
	passes  []vk.RenderPass
	present int
}

func NewRenderPasses(driver Driver, specs []RenderPassSpec) (*RenderPasses, error) {
	ret := &RenderPasses{driver: driver, specs: specs, present: presentIndex(specs)}
	if len(specs) > 0 && len(specs[ret.present].Attachments) == 0 {
		return nil, errors.Errorf("presenting render pass %d has no attachments", ret.present)
	}
	if err := ret.create(); err != nil {
		return nil, err
	}
	return ret, nil
}

func (r *RenderPasses) create() error {
	for i := range r.specs {
		pass, err := r.driver.CreateRenderPass(&r.specs[i])
		if err != nil {
			r.Destroy()
			return errors.Wrapf(err, "create render pass %d", i)
		}
		r.passes = append(r.passes, pass)
	}
	return nil
}

// Recreate rebuilds every native render pass with the presenting attachment in format. Frame
// targets built against the old passes must be destroyed first.
func (r *RenderPasses) Recreate(format vk.Format) error {
	r.Destroy()
	r.specs = presentingSpecs(r.specs, format)
	return r.create()
}

// presentingSpecs copies specs with the first attachment of the presenting pass set to the
// swapchain format
func presentingSpecs(specs []RenderPassSpec, format vk.Format) []RenderPassSpec {
	ret := append([]RenderPassSpec(nil), specs...)
	present := presentIndex(ret)
	if present < len(ret) && len(ret[present].Attachments) > 0 {
		ret[present].Attachments = append([]vk.AttachmentDescription(nil), ret[present].Attachments...)
		ret[present].Attachments[0].Format = format
	}
	return ret
}

// presentIndex is the first pass marked Present, else 0
func presentIndex(specs []RenderPassSpec) int {
	for i := range specs {
		if specs[i].Present {
			return i
		}
	}
	return 0
}

// Get returns the native render pass, panics when id is out of range
func (r *RenderPasses) Get(id int) vk.RenderPass {
	r.check(id)
	return r.passes[id]
}

func (r *RenderPasses) Spec(id int) *RenderPassSpec {
	r.check(id)
	return &r.specs[id]
}

// PresentPass is the index of the pass rendering into the swapchain
func (r *RenderPasses) PresentPass() int {
	return r.present
}

func (r *RenderPasses) Count() int {
	return len(r.passes)
}

func (r *RenderPasses) check(id int) {
	if id < 0 || id >= len(r.passes) {
		panic(fmt.Sprintf("microvulkan: render pass %d out of range [0, %d)", id, len(r.passes)))
	}
}

func (r *RenderPasses) Destroy() {
	for _, p := range r.passes {
		r.driver.DestroyRenderPass(p)
	}
	r.passes = nil
}
