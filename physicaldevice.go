package microvulkan

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

type PhysicalDevice struct {
	DeviceName                 string
	VKPhysicalDevice           vk.PhysicalDevice
	VKPhysicalDeviceProperties vk.PhysicalDeviceProperties
}

func (p *PhysicalDevice) String() string {
	return p.DeviceName
}

func (p *PhysicalDevice) GetSurfacePresentModes(surface vk.Surface) ([]vk.PresentMode, error) {
	var count uint32
	err := vk.Error(vk.GetPhysicalDeviceSurfacePresentModes(p.VKPhysicalDevice, surface, &count, nil))
	if err != nil {
		return nil, err
	}

	f := make([]vk.PresentMode, count)
	err = vk.Error(vk.GetPhysicalDeviceSurfacePresentModes(p.VKPhysicalDevice, surface, &count, f))
	if err != nil {
		return nil, err
	}
	return f[:count], nil
}

func (p *PhysicalDevice) GetSurfaceFormats(surface vk.Surface) ([]vk.SurfaceFormat, error) {
	var count uint32
	err := vk.Error(vk.GetPhysicalDeviceSurfaceFormats(p.VKPhysicalDevice, surface, &count, nil))
	if err != nil {
		return nil, err
	}

	f := make([]vk.SurfaceFormat, count)
	err = vk.Error(vk.GetPhysicalDeviceSurfaceFormats(p.VKPhysicalDevice, surface, &count, f))
	if err != nil {
		return nil, err
	}
	return f[:count], nil
}

func (p *PhysicalDevice) GetSurfaceCapabilities(surface vk.Surface) (*vk.SurfaceCapabilities, error) {
	var caps vk.SurfaceCapabilities
	err := vk.Error(vk.GetPhysicalDeviceSurfaceCapabilities(p.VKPhysicalDevice, surface, &caps))
	if err != nil {
		return nil, err
	}
	return &caps, nil
}

func (p *PhysicalDevice) QueueFamilies() QueueFamilySlice {
	var count uint32

	vk.GetPhysicalDeviceQueueFamilyProperties(p.VKPhysicalDevice, &count, nil)
	if count == 0 {
		return nil
	}

	queues := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(p.VKPhysicalDevice, &count, queues)

	ret := make(QueueFamilySlice, count)
	for i, queue := range queues {
		queue.Deref()
		ret[i] = &QueueFamily{
			Index:          i,
			Flags:          queue.QueueFlags,
			QueueCount:     queue.QueueCount,
			PhysicalDevice: p,
		}
	}
	return ret
}

// Properties returns the adapter properties with their limits dereferenced
func (p *PhysicalDevice) Properties() vk.PhysicalDeviceProperties {
	return p.VKPhysicalDeviceProperties
}

// SelectQueueFamilies describes the adapter and picks a queue family per role for the surface
func (p *PhysicalDevice) SelectQueueFamilies(surface vk.Surface) (DeviceSpecification, error) {
	props := p.Properties()
	spec := DeviceSpecification{
		VendorID: props.VendorID,
		DeviceID: props.DeviceID,
		Name:     p.DeviceName,
		Limits:   p.Limits(),
	}

	queues, err := p.QueueFamilies().Select(func(q *QueueFamily) bool {
		return q.SupportsPresent(surface)
	})
	if err != nil {
		return spec, errors.Wrapf(err, "device %s", p.DeviceName)
	}
	spec.Queues = queues
	return spec, nil
}

// Limits are the per descriptor set limits of the adapter
func (p *PhysicalDevice) Limits() DescriptorLimits {
	l := p.VKPhysicalDeviceProperties.Limits
	return DescriptorLimits{
		Samplers:              l.MaxDescriptorSetSamplers,
		SampledImages:         l.MaxDescriptorSetSampledImages,
		StorageImages:         l.MaxDescriptorSetStorageImages,
		UniformBuffers:        l.MaxDescriptorSetUniformBuffers,
		UniformBuffersDynamic: l.MaxDescriptorSetUniformBuffersDynamic,
		StorageBuffers:        l.MaxDescriptorSetStorageBuffers,
		StorageBuffersDynamic: l.MaxDescriptorSetStorageBuffersDynamic,
		InputAttachments:      l.MaxDescriptorSetInputAttachments,
	}
}

// CreateDeviceOptions lists the extra device extensions and layers to enable
type CreateDeviceOptions struct {
	EnabledExtensions []string
	EnabledLayers     []string
}

// CreateLogicalDevice creates a device exposing every queue the specification asks for. Roles
// sharing a family share its queues.
func (p *PhysicalDevice) CreateLogicalDevice(spec DeviceSpecification, options *CreateDeviceOptions) (vk.Device, error) {
	counts := make(map[uint32]uint32)
	order := make([]uint32, 0, queueRoleCount)
	for _, role := range queueRoles {
		q := spec.Queue(role)
		if _, ok := counts[q.Family]; !ok {
			order = append(order, q.Family)
		}
		if q.Count > counts[q.Family] {
			counts[q.Family] = q.Count
		}
	}

	queueCreateInfos := make([]vk.DeviceQueueCreateInfo, 0, len(order))
	for _, family := range order {
		priorities := make([]float32, counts[family])
		for i := range priorities {
			priorities[i] = 1.0
		}
		queueCreateInfos = append(queueCreateInfos, vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: family,
			QueueCount:       counts[family],
			PQueuePriorities: priorities,
		})
	}

	var deviceFeatures vk.PhysicalDeviceFeatures
	vk.GetPhysicalDeviceFeatures(p.VKPhysicalDevice, &deviceFeatures)

	extensions := []string{"VK_KHR_swapchain"}
	var layers []string
	if options != nil {
		extensions = append(extensions, options.EnabledExtensions...)
		layers = options.EnabledLayers
	}
	extensions = safeStrings(extensions)
	layers = safeStrings(layers)

	deviceCreateInfo := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueCreateInfos)),
		PQueueCreateInfos:       queueCreateInfos,
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{deviceFeatures},
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     layers,
	}

	var device vk.Device

	err := vk.Error(vk.CreateDevice(p.VKPhysicalDevice, &deviceCreateInfo, nil, &device))
	if err != nil {
		return nil, errors.Wrap(err, "create device")
	}
	return device, nil
}

func (p *PhysicalDevice) memoryProperties() vk.PhysicalDeviceMemoryProperties {
	var memoryProperties vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(p.VKPhysicalDevice, &memoryProperties)
	memoryProperties.Deref()
	return memoryProperties
}

// MemoryHeaps lists the memory heaps of the adapter
func (p *PhysicalDevice) MemoryHeaps() []vk.MemoryHeap {
	mp := p.memoryProperties()
	ret := make([]vk.MemoryHeap, 0, mp.MemoryHeapCount)
	for i := uint32(0); i < mp.MemoryHeapCount; i++ {
		heap := mp.MemoryHeaps[i]
		heap.Deref()
		ret = append(ret, heap)
	}
	return ret
}

// FindMemoryType returns the first memory type allowed by memoryTypeBits having every requested
// property. See VkPhysicalDeviceMemoryProperties for how memoryTypeBits is laid out.
func (p *PhysicalDevice) FindMemoryType(memoryTypeBits uint32, properties vk.MemoryPropertyFlagBits) (uint32, error) {
	mp := p.memoryProperties()

	for i := uint32(0); i < mp.MemoryTypeCount; i++ {
		mt := mp.MemoryTypes[i]
		mt.Deref()
		if memoryTypeBits&(1<<i) != 0 &&
			vk.MemoryPropertyFlagBits(mt.PropertyFlags)&properties == properties {
			return i, nil
		}
	}
	return 0, errors.New("no matching memory type found")
}
