package microvulkan

import (
	"fmt"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// CommandPoolSize is the number of primary and secondary buffers allocated for a role
type CommandPoolSize struct {
	Primary   uint32
	Secondary uint32
}

// defaultCommandPoolSize sizes the graphics pool with one primary buffer per swapchain image and
// hands any extra queues secondary buffers, other roles get one primary buffer per queue.
func defaultCommandPoolSize(role QueueRole, queueCount, imageCount uint32) CommandPoolSize {
	if role != Graphics {
		return CommandPoolSize{Primary: queueCount}
	}
	ret := CommandPoolSize{Primary: imageCount}
	if imageCount < queueCount {
		ret.Secondary = queueCount - imageCount
	}
	return ret
}

// CommandHandle is a lent command buffer. The zero value is invalid.
type CommandHandle struct {
	Role   QueueRole
	Level  Level
	Slot   int
	Buffer vk.CommandBuffer

	generation uint32
}

// Valid reports whether the handle references a lent slot
func (c *CommandHandle) Valid() bool {
	return c.generation != 0 && c.Buffer != nil
}

func (c *CommandHandle) String() string {
	if !c.Valid() {
		return "{CommandBuffer: invalid}"
	}
	return fmt.Sprintf("{Role: %s Level: %s Slot: %d}", c.Role, c.Level, c.Slot)
}

// CommandPool owns one native command pool per queue role along with its pre-allocated buffers.
// Primary buffers occupy the first slots of a role, secondary buffers follow.
type CommandPool struct {
	driver  Driver
	native  [queueRoleCount]vk.CommandPool
	buffers [queueRoleCount]pool[vk.CommandBuffer]
}

// NewCommandPool creates the native pools and allocates their buffers. sizes may be nil, roles
// missing from it use defaultCommandPoolSize.
func NewCommandPool(driver Driver, spec DeviceSpecification, imageCount uint32, sizes map[QueueRole]CommandPoolSize) (*CommandPool, error) {
	ret := &CommandPool{driver: driver}
	for _, role := range queueRoles {
		info := spec.Queue(role)
		size, ok := sizes[role]
		if !ok {
			size = defaultCommandPoolSize(role, info.Count, imageCount)
		}
		if size.Primary+size.Secondary == 0 {
			continue
		}
		if err := ret.create(role, info.Family, size); err != nil {
			ret.Destroy()
			return nil, err
		}
	}
	return ret, nil
}

func (c *CommandPool) create(role QueueRole, family uint32, size CommandPoolSize) error {
	native, err := c.driver.CreateCommandPool(family)
	if err != nil {
		return errors.Wrapf(err, "create %s command pool", role)
	}
	c.native[role] = native

	if size.Primary > 0 {
		primary, err := c.driver.AllocateCommandBuffers(native, vk.CommandBufferLevelPrimary, int(size.Primary))
		if err != nil {
			return errors.Wrapf(err, "allocate %s primary command buffers", role)
		}
		c.buffers[role].append(primary, Primary)
	}
	if size.Secondary > 0 {
		secondary, err := c.driver.AllocateCommandBuffers(native, vk.CommandBufferLevelSecondary, int(size.Secondary))
		if err != nil {
			return errors.Wrapf(err, "allocate %s secondary command buffers", role)
		}
		c.buffers[role].append(secondary, Secondary)
	}
	return nil
}

// Acquire lends the first free buffer of the role and level, false when none is free
func (c *CommandPool) Acquire(role QueueRole, level Level) (CommandHandle, bool) {
	slot, gen, ok := c.buffers[role].acquire(level)
	if !ok {
		return CommandHandle{}, false
	}
	return CommandHandle{
		Role:       role,
		Level:      level,
		Slot:       slot,
		Buffer:     c.buffers[role].handle(slot),
		generation: gen,
	}, true
}

// Release returns the buffer to the pool and zeroes the handle. Invalid or stale handles are
// ignored.
func (c *CommandPool) Release(h *CommandHandle) {
	if h == nil || !h.Valid() {
		return
	}
	c.buffers[h.Role].release(h.Slot, h.generation)
	*h = CommandHandle{}
}

// Native returns the native command pool backing the role, nil when the role has no buffers
func (c *CommandPool) Native(role QueueRole) vk.CommandPool {
	return c.native[role]
}

func (c *CommandPool) Capacity(role QueueRole, level Level) int {
	return c.buffers[role].capacity(level)
}

func (c *CommandPool) InUse(role QueueRole) int {
	return c.buffers[role].inUse()
}

func (c *CommandPool) Destroy() {
	for _, role := range queueRoles {
		if c.native[role] == nil {
			continue
		}
		if buffers := c.buffers[role].handles(); len(buffers) > 0 {
			c.driver.FreeCommandBuffers(c.native[role], buffers)
		}
		c.driver.DestroyCommandPool(c.native[role])
		c.native[role] = nil
		c.buffers[role].reset()
	}
}
