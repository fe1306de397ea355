package microvulkan

import (
	"testing"
	"unsafe"
)

func TestFrameSynchronization(t *testing.T) {
	driver := newFakeDriver(t)
	sync, err := NewFrameSynchronization(driver, 3)
	if err != nil {
		t.Fatal(err)
	}
	if sync.Count() != 3 {
		t.Fatalf("count = %d, want 3", sync.Count())
	}
	if driver.count("semaphore") != 6 || driver.count("fence") != 3 {
		t.Errorf("created %d semaphores and %d fences, want 6 and 3",
			driver.count("semaphore"), driver.count("fence"))
	}
	for i := uint32(0); i < 3; i++ {
		slot := sync.Acquire(i)
		if !driver.fences[unsafe.Pointer(slot.FrameSignal)] {
			t.Errorf("fence of slot %d not created signaled", i)
		}
		if slot.ImageAvailable == slot.RenderFinished {
			t.Errorf("slot %d shares its semaphores", i)
		}
	}

	sync.Destroy()
	if leaks := driver.leaks(); len(leaks) != 0 {
		t.Errorf("leaked %v", leaks)
	}
}

func TestFrameSynchronizationOutOfRange(t *testing.T) {
	driver := newFakeDriver(t)
	sync, err := NewFrameSynchronization(driver, 2)
	if err != nil {
		t.Fatal(err)
	}
	defer sync.Destroy()

	defer func() {
		if recover() == nil {
			t.Error("out of range frame id did not panic")
		}
	}()
	sync.Acquire(2)
}

func TestFrameSynchronizationInvalidCount(t *testing.T) {
	if _, err := NewFrameSynchronization(newFakeDriver(t), 0); err == nil {
		t.Error("zero frames accepted")
	}
}

func TestFrameSynchronizationRenewFence(t *testing.T) {
	driver := newFakeDriver(t)
	sync, err := NewFrameSynchronization(driver, 2)
	if err != nil {
		t.Fatal(err)
	}
	old := sync.Acquire(1).FrameSignal
	if err := driver.ResetFence(old); err != nil {
		t.Fatal(err)
	}

	if err := sync.RenewFence(1); err != nil {
		t.Fatal(err)
	}
	fence := sync.Acquire(1).FrameSignal
	if fence == old {
		t.Fatal("fence not replaced")
	}
	if !driver.fences[unsafe.Pointer(fence)] {
		t.Error("renewed fence not signaled")
	}
	if driver.count("fence") != 2 {
		t.Errorf("%d fences alive, want 2", driver.count("fence"))
	}

	sync.Destroy()
	if leaks := driver.leaks(); len(leaks) != 0 {
		t.Errorf("leaked %v", leaks)
	}
}
