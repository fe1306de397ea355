package microvulkan

import (
	"fmt"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// FrameSlot is the synchronization state of one frame in flight. The slot may only be reused once
// FrameSignal has been observed signaled.
type FrameSlot struct {
	ImageAvailable vk.Semaphore
	RenderFinished vk.Semaphore
	FrameSignal    vk.Fence
}

// FrameSynchronization owns one FrameSlot per frame in flight
type FrameSynchronization struct {
	driver Driver
	slots  []FrameSlot
}

// NewFrameSynchronization creates count slots. Fences start signaled so the first wait on each
// slot returns immediately.
func NewFrameSynchronization(driver Driver, count int) (*FrameSynchronization, error) {
	if count <= 0 {
		return nil, errors.Errorf("invalid frame count %d", count)
	}
	ret := &FrameSynchronization{driver: driver}
	for i := 0; i < count; i++ {
		slot, err := ret.createSlot()
		if err != nil {
			ret.Destroy()
			return nil, errors.Wrapf(err, "frame slot %d", i)
		}
		ret.slots = append(ret.slots, slot)
	}
	return ret, nil
}

func (f *FrameSynchronization) createSlot() (FrameSlot, error) {
	var ret FrameSlot
	var err error

	if ret.ImageAvailable, err = f.driver.CreateSemaphore(); err != nil {
		return ret, err
	}
	if ret.RenderFinished, err = f.driver.CreateSemaphore(); err != nil {
		f.driver.DestroySemaphore(ret.ImageAvailable)
		return ret, err
	}
	if ret.FrameSignal, err = f.driver.CreateFence(true); err != nil {
		f.driver.DestroySemaphore(ret.ImageAvailable)
		f.driver.DestroySemaphore(ret.RenderFinished)
		return ret, err
	}
	return ret, nil
}

// Acquire returns the slot for frameID. Frame ids are produced internally, an out of range id is
// a programming error and panics.
func (f *FrameSynchronization) Acquire(frameID uint32) *FrameSlot {
	if int(frameID) >= len(f.slots) {
		panic(fmt.Sprintf("microvulkan: frame id %d out of range [0, %d)", frameID, len(f.slots)))
	}
	return &f.slots[frameID]
}

// RenewFence replaces the fence of frameID's slot with a new signaled one. It is used when a
// reset fence will never be signaled, such as after a failed submit.
func (f *FrameSynchronization) RenewFence(frameID uint32) error {
	slot := f.Acquire(frameID)
	fence, err := f.driver.CreateFence(true)
	if err != nil {
		return errors.Wrapf(err, "renew fence of frame slot %d", frameID)
	}
	f.driver.DestroyFence(slot.FrameSignal)
	slot.FrameSignal = fence
	return nil
}

// Count is the number of frame slots
func (f *FrameSynchronization) Count() int {
	return len(f.slots)
}

func (f *FrameSynchronization) Destroy() {
	for _, s := range f.slots {
		f.driver.DestroySemaphore(s.ImageAvailable)
		f.driver.DestroySemaphore(s.RenderFinished)
		f.driver.DestroyFence(s.FrameSignal)
	}
	f.slots = nil
}
