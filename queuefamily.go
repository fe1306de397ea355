package microvulkan

import (
	"fmt"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

type QueueFamilySlice []*QueueFamily

func (ql QueueFamilySlice) Filter(f func(q *QueueFamily) bool) QueueFamilySlice {
	ret := make(QueueFamilySlice, 0)
	for _, q := range ql {
		if f(q) {
			ret = append(ret, q)
		}
	}
	return ret
}

func (ql QueueFamilySlice) FilterGraphics() QueueFamilySlice {
	return ql.Filter((*QueueFamily).IsGraphics)
}

func (ql QueueFamilySlice) FilterCompute() QueueFamilySlice {
	return ql.Filter((*QueueFamily).IsCompute)
}

func (ql QueueFamilySlice) FilterTransfer() QueueFamilySlice {
	return ql.Filter((*QueueFamily).IsTransfer)
}

// Select picks a family per role. Graphics must be able to present, checked with presents.
// Transfer and compute prefer families dedicated to them and fall back to the graphics family.
func (ql QueueFamilySlice) Select(presents func(q *QueueFamily) bool) ([queueRoleCount]QueueFamilyInfo, error) {
	var ret [queueRoleCount]QueueFamilyInfo

	graphics := ql.FilterGraphics().Filter(presents)
	if len(graphics) == 0 {
		return ret, errors.New("no graphics queue family able to present")
	}
	g := graphics[0]
	ret[Graphics] = g.info()
	ret[Transfer] = ql.dedicated((*QueueFamily).IsTransfer, g).info()
	ret[Compute] = ql.dedicated((*QueueFamily).IsCompute, g).info()
	return ret, nil
}

// dedicated returns the first family matching want without graphics support, else fallback
func (ql QueueFamilySlice) dedicated(want func(q *QueueFamily) bool, fallback *QueueFamily) *QueueFamily {
	for _, q := range ql.Filter(want) {
		if !q.IsGraphics() {
			return q
		}
	}
	return fallback
}

type QueueFamily struct {
	Index          int
	Flags          vk.QueueFlags
	QueueCount     uint32
	PhysicalDevice *PhysicalDevice
}

func (q *QueueFamily) info() QueueFamilyInfo {
	return QueueFamilyInfo{Family: uint32(q.Index), Count: q.QueueCount}
}

func (q *QueueFamily) has(bit vk.QueueFlagBits) bool {
	return q.Flags&vk.QueueFlags(bit) == vk.QueueFlags(bit)
}

func (q *QueueFamily) IsCompute() bool {
	return q.has(vk.QueueComputeBit)
}

func (q *QueueFamily) IsGraphics() bool {
	return q.has(vk.QueueGraphicsBit)
}

// IsTransfer reports explicit transfer support, graphics and compute families support transfers
// implicitly
func (q *QueueFamily) IsTransfer() bool {
	return q.has(vk.QueueTransferBit)
}

func (q *QueueFamily) SupportsPresent(surface vk.Surface) bool {
	var supportsPresent vk.Bool32
	vk.GetPhysicalDeviceSurfaceSupport(q.PhysicalDevice.VKPhysicalDevice, uint32(q.Index), surface, &supportsPresent)
	return supportsPresent == vk.True
}

func (q *QueueFamily) String() string {
	return fmt.Sprintf("{ Index: %d Queues: %d Compute: %v Graphics: %v Transfer: %v }",
		q.Index, q.QueueCount, q.IsCompute(), q.IsGraphics(), q.IsTransfer())
}
