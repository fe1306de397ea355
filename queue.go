package microvulkan

import (
	"fmt"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// QueueRole selects which family a queue or command buffer is taken from
type QueueRole int

const (
	Graphics QueueRole = iota
	Transfer
	Compute

	queueRoleCount = 3
)

var queueRoles = [queueRoleCount]QueueRole{Graphics, Transfer, Compute}

func (r QueueRole) String() string {
	switch r {
	case Graphics:
		return "graphics"
	case Transfer:
		return "transfer"
	case Compute:
		return "compute"
	}
	return fmt.Sprintf("QueueRole(%d)", int(r))
}

// QueueHandle is a lent queue. Holding a valid handle means exclusive use of the queue until it is
// passed back to QueuePool.Release. The zero value is invalid.
type QueueHandle struct {
	Role  QueueRole
	Slot  int
	Queue vk.Queue

	generation uint32
}

// Valid reports whether the handle references a lent slot
func (q *QueueHandle) Valid() bool {
	return q.generation != 0 && q.Queue != nil
}

func (q *QueueHandle) String() string {
	if !q.Valid() {
		return "{Queue: invalid}"
	}
	return fmt.Sprintf("{Role: %s Slot: %d}", q.Role, q.Slot)
}

// QueuePool owns the logical queues of every role and lends them out one at a time
type QueuePool struct {
	families [queueRoleCount]QueueFamilyInfo
	pools    [queueRoleCount]pool[vk.Queue]
}

// NewQueuePool fetches every queue the device specification declares
func NewQueuePool(driver Driver, spec DeviceSpecification) (*QueuePool, error) {
	var ret QueuePool
	for _, role := range queueRoles {
		info := spec.Queue(role)
		queues := make([]vk.Queue, info.Count)
		for i := range queues {
			queues[i] = driver.GetQueue(info.Family, uint32(i))
			if queues[i] == nil {
				return nil, errors.Errorf("no %s queue %d in family %d", role, i, info.Family)
			}
		}
		ret.families[role] = info
		ret.pools[role] = newPool(queues, Primary)
	}
	return &ret, nil
}

// Acquire lends the first free queue of the role, false when every queue is in use
func (q *QueuePool) Acquire(role QueueRole) (QueueHandle, bool) {
	slot, gen, ok := q.pools[role].acquire(Primary)
	if !ok {
		return QueueHandle{}, false
	}
	return QueueHandle{
		Role:       role,
		Slot:       slot,
		Queue:      q.pools[role].handle(slot),
		generation: gen,
	}, true
}

// Release returns the queue to the pool and zeroes the handle. Releasing an invalid or already
// released handle does nothing.
func (q *QueuePool) Release(h *QueueHandle) {
	if h == nil || !h.Valid() {
		return
	}
	q.pools[h.Role].release(h.Slot, h.generation)
	*h = QueueHandle{}
}

// Family returns the queue family index used for the role
func (q *QueuePool) Family(role QueueRole) uint32 {
	return q.families[role].Family
}

func (q *QueuePool) Capacity(role QueueRole) int {
	return q.pools[role].capacity(Primary)
}

func (q *QueuePool) InUse(role QueueRole) int {
	return q.pools[role].inUse()
}

// Destroy forgets the queues, they are owned by the logical device
func (q *QueuePool) Destroy() {
	for i := range q.pools {
		q.pools[i].reset()
	}
}
