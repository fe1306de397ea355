package microvulkan

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// CreateSemaphore creates a binary semaphore
func (d *VulkanDriver) CreateSemaphore() (vk.Semaphore, error) {
	semaphoreCreateInfo := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}

	var sema vk.Semaphore

	err := vk.Error(vk.CreateSemaphore(d.VKDevice, &semaphoreCreateInfo, d.Allocator, &sema))

	return sema, errors.Wrap(err, "create semaphore")
}

func (d *VulkanDriver) DestroySemaphore(s vk.Semaphore) {
	vk.DestroySemaphore(d.VKDevice, s, d.Allocator)
}
