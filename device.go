package microvulkan

import (
	"fmt"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

var _ Driver = (*VulkanDriver)(nil)

// VulkanDriver implements Driver over a vulkan-go logical device
type VulkanDriver struct {
	PhysicalDevice *PhysicalDevice
	VKDevice       vk.Device
	Surface        vk.Surface
	// Allocator is passed to every create and destroy call, nil uses the driver's allocator
	Allocator *vk.AllocationCallbacks
	Spec      DeviceSpecification
}

// NewVulkanDriver wraps an already created logical device
func NewVulkanDriver(pd *PhysicalDevice, device vk.Device, surface vk.Surface, spec DeviceSpecification) *VulkanDriver {
	return &VulkanDriver{
		PhysicalDevice: pd,
		VKDevice:       device,
		Surface:        surface,
		Spec:           spec,
	}
}

func (d *VulkanDriver) Specification() DeviceSpecification {
	return d.Spec
}

func (d *VulkanDriver) String() string {
	return fmt.Sprintf("{ PhysicalDevice: %s }", d.PhysicalDevice)
}

func (d *VulkanDriver) GetQueue(family, index uint32) vk.Queue {
	var queue vk.Queue
	vk.GetDeviceQueue(d.VKDevice, family, index, &queue)
	return queue
}

func (d *VulkanDriver) DeviceWaitIdle() error {
	return errors.Wrap(vk.Error(vk.DeviceWaitIdle(d.VKDevice)), "device wait idle")
}

// Destroy destroys the logical device, everything created from it must be gone
func (d *VulkanDriver) Destroy() {
	vk.DestroyDevice(d.VKDevice, d.Allocator)
}
