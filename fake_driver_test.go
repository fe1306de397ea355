package microvulkan

import (
	"fmt"
	"sort"
	"testing"
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
)

// fakeDriver hands out unique heap backed handles, tracks which ones are alive and records the
// calls made against it. Results of acquire, submit, present and fence waits can be queued up
// front.
type fakeDriver struct {
	t *testing.T

	spec    DeviceSpecification
	support SurfaceSupport

	live    map[unsafe.Pointer]string
	fences  map[unsafe.Pointer]bool
	queues  map[[2]uint32]vk.Queue
	images  map[unsafe.Pointer][]vk.Image
	nextImg map[unsafe.Pointer]uint32
	calls   []string

	acquireResults []vk.Result
	presentResults []vk.Result
	waitResults    []vk.Result
	submitResults  []vk.Result

	failCreateSwapchain bool
	submits             []SubmitBatch
	presents            []PresentRequest
	swapchainConfigs    []SwapchainConfig
	textures            []TextureSpec
	waitIdle            int
	cacheData           []byte
	cacheInitial        []byte
}

var _ Driver = (*fakeDriver)(nil)

func newFakeDriver(t *testing.T) *fakeDriver {
	return &fakeDriver{
		t: t,
		spec: DeviceSpecification{
			Queues: [queueRoleCount]QueueFamilyInfo{
				Graphics: {Family: 0, Count: 1},
				Transfer: {Family: 1, Count: 1},
				Compute:  {Family: 2, Count: 1},
			},
			VendorID: 0x10de,
			DeviceID: 0x2204,
			Name:     "fake",
		},
		support: SurfaceSupport{
			Capabilities: vk.SurfaceCapabilities{
				MinImageCount:  2,
				MaxImageCount:  8,
				CurrentExtent:  vk.Extent2D{Width: vk.MaxUint32, Height: vk.MaxUint32},
				MinImageExtent: vk.Extent2D{Width: 1, Height: 1},
				MaxImageExtent: vk.Extent2D{Width: 4096, Height: 4096},
			},
			Formats: []vk.SurfaceFormat{
				{Format: vk.FormatB8g8r8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear},
			},
			PresentModes: []vk.PresentMode{vk.PresentModeFifo},
		},
		live:    make(map[unsafe.Pointer]string),
		fences:  make(map[unsafe.Pointer]bool),
		queues:  make(map[[2]uint32]vk.Queue),
		images:  make(map[unsafe.Pointer][]vk.Image),
		nextImg: make(map[unsafe.Pointer]uint32),
	}
}

func (f *fakeDriver) create(kind string) unsafe.Pointer {
	p := unsafe.Pointer(new([8]byte))
	f.live[p] = kind
	return p
}

func (f *fakeDriver) destroy(kind string, p unsafe.Pointer) {
	if p == nil {
		return
	}
	got, ok := f.live[p]
	if !ok {
		f.t.Errorf("destroy of unknown or already destroyed %s", kind)
		return
	}
	if got != kind {
		f.t.Errorf("destroy %s called on a %s", kind, got)
	}
	delete(f.live, p)
}

// count returns the number of live objects of kind
func (f *fakeDriver) count(kind string) int {
	n := 0
	for _, k := range f.live {
		if k == kind {
			n++
		}
	}
	return n
}

// leaks describes every live object, empty when everything was destroyed
func (f *fakeDriver) leaks() []string {
	counts := make(map[string]int)
	for _, k := range f.live {
		counts[k]++
	}
	var ret []string
	for k, n := range counts {
		ret = append(ret, fmt.Sprintf("%d %s", n, k))
	}
	sort.Strings(ret)
	return ret
}

func (f *fakeDriver) callCount(name string) int {
	n := 0
	for _, c := range f.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (f *fakeDriver) record(name string) {
	f.calls = append(f.calls, name)
}

func pop(results *[]vk.Result) (vk.Result, bool) {
	if len(*results) == 0 {
		return vk.Success, false
	}
	r := (*results)[0]
	*results = (*results)[1:]
	return r, true
}

func (f *fakeDriver) Specification() DeviceSpecification {
	return f.spec
}

func (f *fakeDriver) GetQueue(family, index uint32) vk.Queue {
	key := [2]uint32{family, index}
	if q, ok := f.queues[key]; ok {
		return q
	}
	q := vk.Queue(unsafe.Pointer(new([8]byte)))
	f.queues[key] = q
	return q
}

func (f *fakeDriver) DeviceWaitIdle() error {
	f.waitIdle++
	f.record("waitIdle")
	return nil
}

func (f *fakeDriver) CreateCommandPool(family uint32) (vk.CommandPool, error) {
	return vk.CommandPool(f.create("commandPool")), nil
}

func (f *fakeDriver) DestroyCommandPool(pool vk.CommandPool) {
	f.destroy("commandPool", unsafe.Pointer(pool))
}

func (f *fakeDriver) AllocateCommandBuffers(pool vk.CommandPool, level vk.CommandBufferLevel, count int) ([]vk.CommandBuffer, error) {
	kind := "primaryCommandBuffer"
	if level == vk.CommandBufferLevelSecondary {
		kind = "secondaryCommandBuffer"
	}
	ret := make([]vk.CommandBuffer, count)
	for i := range ret {
		ret[i] = vk.CommandBuffer(f.create(kind))
	}
	return ret, nil
}

func (f *fakeDriver) FreeCommandBuffers(pool vk.CommandPool, buffers []vk.CommandBuffer) {
	for _, b := range buffers {
		kind := f.live[unsafe.Pointer(b)]
		f.destroy(kind, unsafe.Pointer(b))
	}
}

func (f *fakeDriver) CreateSemaphore() (vk.Semaphore, error) {
	return vk.Semaphore(f.create("semaphore")), nil
}

func (f *fakeDriver) DestroySemaphore(semaphore vk.Semaphore) {
	f.destroy("semaphore", unsafe.Pointer(semaphore))
}

func (f *fakeDriver) CreateFence(signaled bool) (vk.Fence, error) {
	p := f.create("fence")
	f.fences[p] = signaled
	return vk.Fence(p), nil
}

func (f *fakeDriver) DestroyFence(fence vk.Fence) {
	delete(f.fences, unsafe.Pointer(fence))
	f.destroy("fence", unsafe.Pointer(fence))
}

// WaitForFence times out on an unsignaled fence since nothing would ever signal it
func (f *fakeDriver) WaitForFence(fence vk.Fence, timeout uint64) vk.Result {
	f.record("waitFence")
	if r, ok := pop(&f.waitResults); ok {
		return r
	}
	if !f.fences[unsafe.Pointer(fence)] {
		return vk.Timeout
	}
	return vk.Success
}

func (f *fakeDriver) ResetFence(fence vk.Fence) error {
	f.record("resetFence")
	f.fences[unsafe.Pointer(fence)] = false
	return nil
}

func (f *fakeDriver) SurfaceSupport() (SurfaceSupport, error) {
	return f.support, nil
}

func (f *fakeDriver) CreateSwapchain(config SwapchainConfig, old vk.Swapchain) (vk.Swapchain, error) {
	f.record("createSwapchain")
	if old != vk.NullSwapchain {
		if _, ok := f.live[unsafe.Pointer(old)]; !ok {
			f.t.Errorf("swapchain recreated from a destroyed swapchain")
		}
	}
	if f.failCreateSwapchain {
		return vk.NullSwapchain, vk.Error(vk.ErrorOutOfDate)
	}
	f.swapchainConfigs = append(f.swapchainConfigs, config)
	p := f.create("swapchain")
	images := make([]vk.Image, config.ImageCount)
	for i := range images {
		images[i] = vk.Image(unsafe.Pointer(new([8]byte)))
	}
	f.images[p] = images
	return vk.Swapchain(p), nil
}

func (f *fakeDriver) DestroySwapchain(swapchain vk.Swapchain) {
	f.record("destroySwapchain")
	delete(f.images, unsafe.Pointer(swapchain))
	delete(f.nextImg, unsafe.Pointer(swapchain))
	f.destroy("swapchain", unsafe.Pointer(swapchain))
}

func (f *fakeDriver) GetSwapchainImages(swapchain vk.Swapchain) ([]vk.Image, error) {
	return f.images[unsafe.Pointer(swapchain)], nil
}

func (f *fakeDriver) CreateImageView(image vk.Image, format vk.Format, aspect vk.ImageAspectFlags) (vk.ImageView, error) {
	return vk.ImageView(f.create("imageView")), nil
}

func (f *fakeDriver) DestroyImageView(view vk.ImageView) {
	f.record("destroyImageView")
	f.destroy("imageView", unsafe.Pointer(view))
}

func (f *fakeDriver) CreateRenderPass(spec *RenderPassSpec) (vk.RenderPass, error) {
	return vk.RenderPass(f.create("renderPass")), nil
}

func (f *fakeDriver) DestroyRenderPass(pass vk.RenderPass) {
	f.destroy("renderPass", unsafe.Pointer(pass))
}

func (f *fakeDriver) CreateFramebuffer(pass vk.RenderPass, views []vk.ImageView, extent vk.Extent2D) (vk.Framebuffer, error) {
	for i, v := range views {
		if v == nil {
			f.t.Errorf("framebuffer attachment %d has no view", i)
		}
	}
	return vk.Framebuffer(f.create("framebuffer")), nil
}

func (f *fakeDriver) DestroyFramebuffer(framebuffer vk.Framebuffer) {
	f.destroy("framebuffer", unsafe.Pointer(framebuffer))
}

func (f *fakeDriver) CreateTexture(spec TextureSpec) (Texture, error) {
	f.textures = append(f.textures, spec)
	return Texture{
		Image:   vk.Image(f.create("image")),
		Memory:  vk.DeviceMemory(f.create("memory")),
		View:    vk.ImageView(f.create("imageView")),
		Sampler: vk.Sampler(f.create("sampler")),
		Size:    uint64(spec.Extent.Width) * uint64(spec.Extent.Height) * 4,
	}, nil
}

func (f *fakeDriver) DestroyTexture(texture Texture) {
	f.destroy("sampler", unsafe.Pointer(texture.Sampler))
	f.destroy("imageView", unsafe.Pointer(texture.View))
	f.destroy("image", unsafe.Pointer(texture.Image))
	f.destroy("memory", unsafe.Pointer(texture.Memory))
}

func (f *fakeDriver) CreatePipelineCache(initial []byte) (vk.PipelineCache, error) {
	f.cacheInitial = append([]byte(nil), initial...)
	return vk.PipelineCache(f.create("pipelineCache")), nil
}

func (f *fakeDriver) GetPipelineCacheData(cache vk.PipelineCache) ([]byte, error) {
	return f.cacheData, nil
}

func (f *fakeDriver) DestroyPipelineCache(cache vk.PipelineCache) {
	f.destroy("pipelineCache", unsafe.Pointer(cache))
}

func (f *fakeDriver) AcquireNextImage(swapchain vk.Swapchain, timeout uint64, signal vk.Semaphore) (uint32, vk.Result) {
	f.record("acquireImage")
	r, _ := pop(&f.acquireResults)
	if r != vk.Success && r != vk.Suboptimal {
		return 0, r
	}
	p := unsafe.Pointer(swapchain)
	images := f.images[p]
	if len(images) == 0 {
		f.t.Errorf("acquire on a swapchain without images")
		return 0, vk.ErrorOutOfDate
	}
	image := f.nextImg[p]
	f.nextImg[p] = (image + 1) % uint32(len(images))
	return image, r
}

// QueueSubmit completes the work at once, signaling the fence. A queued failure leaves the fence
// untouched.
func (f *fakeDriver) QueueSubmit(queue vk.Queue, batch SubmitBatch, fence vk.Fence) vk.Result {
	f.record("submit")
	if r, ok := pop(&f.submitResults); ok && r != vk.Success {
		return r
	}
	f.submits = append(f.submits, batch)
	if fence != nil {
		f.fences[unsafe.Pointer(fence)] = true
	}
	return vk.Success
}

func (f *fakeDriver) QueuePresent(queue vk.Queue, request PresentRequest) vk.Result {
	f.record("present")
	f.presents = append(f.presents, request)
	r, _ := pop(&f.presentResults)
	return r
}

func (f *fakeDriver) ResetCommandBuffer(buffer vk.CommandBuffer) error {
	f.record("resetCommandBuffer")
	return nil
}

func (f *fakeDriver) BeginCommandBuffer(buffer vk.CommandBuffer, flags vk.CommandBufferUsageFlags) error {
	f.record("beginCommandBuffer")
	return nil
}

func (f *fakeDriver) EndCommandBuffer(buffer vk.CommandBuffer) error {
	f.record("endCommandBuffer")
	return nil
}

func (f *fakeDriver) CmdBeginRenderPass(buffer vk.CommandBuffer, info RenderPassInfo, contents vk.SubpassContents) {
	f.record("beginRenderPass")
}

func (f *fakeDriver) CmdNextSubpass(buffer vk.CommandBuffer, contents vk.SubpassContents) {
	f.record("nextSubpass")
}

func (f *fakeDriver) CmdEndRenderPass(buffer vk.CommandBuffer) {
	f.record("endRenderPass")
}

func (f *fakeDriver) CmdExecuteCommands(buffer vk.CommandBuffer, secondaries []vk.CommandBuffer) {
	f.record("executeCommands")
}

func (f *fakeDriver) CmdSetViewport(buffer vk.CommandBuffer, viewport vk.Viewport) {
	f.record("setViewport")
}

func (f *fakeDriver) CmdSetScissor(buffer vk.CommandBuffer, scissor vk.Rect2D) {
	f.record("setScissor")
}

type fakeWindow struct {
	extent vk.Extent2D
}

func (w *fakeWindow) Extent() vk.Extent2D {
	return w.extent
}

// colorDepthPass is a presenting pass with a color and a depth attachment
func colorDepthPass() RenderPassSpec {
	return RenderPassSpec{
		Attachments: []vk.AttachmentDescription{
			{Format: vk.FormatB8g8r8a8Unorm},
			{Format: vk.FormatD32Sfloat},
		},
		Subpasses:   []vk.SubpassDescription{{PipelineBindPoint: vk.PipelineBindPointGraphics}},
		ClearValues: make([]vk.ClearValue, 2),
		Present:     true,
	}
}

func newTestOrchestrator(t *testing.T, driver *fakeDriver, options Options) (*Orchestrator, *fakeWindow) {
	t.Helper()
	window := &fakeWindow{extent: vk.Extent2D{Width: 640, Height: 480}}
	o, err := NewOrchestrator(driver, window, options)
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}
	return o, window
}
