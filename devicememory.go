package microvulkan

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// allocate allocates device memory from the first memory type allowed by memoryTypeBits that has
// all the requested properties
func (d *VulkanDriver) allocate(sizeInBytes uint64, memoryTypeBits uint32, memoryProperties vk.MemoryPropertyFlagBits) (vk.DeviceMemory, error) {
	var allocateInfo = vk.MemoryAllocateInfo{}
	allocateInfo.SType = vk.StructureTypeMemoryAllocateInfo
	allocateInfo.AllocationSize = vk.DeviceSize(sizeInBytes)

	var err error

	allocateInfo.MemoryTypeIndex, err = d.PhysicalDevice.FindMemoryType(memoryTypeBits, memoryProperties)
	if err != nil {
		return nil, err
	}

	var deviceMemory vk.DeviceMemory

	err = vk.Error(vk.AllocateMemory(d.VKDevice, &allocateInfo, d.Allocator, &deviceMemory))
	if err != nil {
		return nil, errors.Wrapf(err, "allocate %d bytes", sizeInBytes)
	}
	return deviceMemory, nil
}
