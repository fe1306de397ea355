package microvulkan

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

func (d *VulkanDriver) CreateFence(signaled bool) (vk.Fence, error) {
	var fence vk.Fence
	var fenceCreateInfo = vk.FenceCreateInfo{}
	fenceCreateInfo.SType = vk.StructureTypeFenceCreateInfo
	if signaled {
		fenceCreateInfo.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}
	err := vk.Error(vk.CreateFence(d.VKDevice, &fenceCreateInfo, d.Allocator, &fence))
	if err != nil {
		return nil, errors.Wrap(err, "create fence")
	}
	return fence, nil
}

func (d *VulkanDriver) DestroyFence(f vk.Fence) {
	vk.DestroyFence(d.VKDevice, f, d.Allocator)
}

// WaitForFence blocks until the fence signals or timeout nanoseconds pass, returning vk.Timeout
// in the latter case
func (d *VulkanDriver) WaitForFence(f vk.Fence, timeout uint64) vk.Result {
	return vk.WaitForFences(d.VKDevice, 1, []vk.Fence{f}, vk.True, timeout)
}

func (d *VulkanDriver) ResetFence(f vk.Fence) error {
	return errors.Wrap(vk.Error(vk.ResetFences(d.VKDevice, 1, []vk.Fence{f})), "reset fence")
}
