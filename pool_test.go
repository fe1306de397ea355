package microvulkan

import (
	"math/rand"
	"testing"
)

func TestPoolExclusive(t *testing.T) {
	p := newPool([]int{10, 11, 12}, Primary)

	seen := make(map[int]bool)
	for i := 0; i < 3; i++ {
		idx, gen, ok := p.acquire(Primary)
		if !ok {
			t.Fatalf("acquire %d failed", i)
		}
		if gen == 0 {
			t.Errorf("slot %d lent with generation 0", idx)
		}
		if seen[idx] {
			t.Errorf("slot %d lent twice", idx)
		}
		seen[idx] = true
	}
	if _, _, ok := p.acquire(Primary); ok {
		t.Error("acquire succeeded on a full pool")
	}
	if p.inUse() != 3 {
		t.Errorf("inUse = %d, want 3", p.inUse())
	}
}

func TestPoolRandomInterleaving(t *testing.T) {
	const capacity = 4
	p := newPool([]int{1, 2, 3, 4}, Primary)
	rng := rand.New(rand.NewSource(42))

	type lent struct {
		index      int
		generation uint32
	}
	live := make(map[int]uint32)
	var released []lent

	for step := 0; step < 5000; step++ {
		switch op := rng.Intn(3); {
		case op == 0:
			idx, gen, ok := p.acquire(Primary)
			if ok != (len(live) < capacity) {
				t.Fatalf("step %d: acquire ok=%v with %d live", step, ok, len(live))
			}
			if !ok {
				break
			}
			if _, dup := live[idx]; dup {
				t.Fatalf("step %d: slot %d lent twice", step, idx)
			}
			live[idx] = gen
		case op == 1 && len(live) > 0:
			var idx int
			n := rng.Intn(len(live))
			for i := range live {
				if n == 0 {
					idx = i
					break
				}
				n--
			}
			if !p.release(idx, live[idx]) {
				t.Fatalf("step %d: release of live slot %d failed", step, idx)
			}
			released = append(released, lent{idx, live[idx]})
			delete(live, idx)
		case op == 2 && len(released) > 0:
			old := released[rng.Intn(len(released))]
			if p.release(old.index, old.generation) {
				t.Fatalf("step %d: stale release of slot %d succeeded", step, old.index)
			}
		}

		if len(live) > capacity {
			t.Fatalf("step %d: %d live handles", step, len(live))
		}
		if p.inUse() != len(live) {
			t.Fatalf("step %d: inUse = %d, want %d", step, p.inUse(), len(live))
		}
	}
}

func TestPoolLevels(t *testing.T) {
	p := newPool([]int{1, 2}, Primary)
	p.append([]int{3}, Secondary)

	if p.capacity(Primary) != 2 || p.capacity(Secondary) != 1 {
		t.Fatalf("capacity = %d/%d, want 2/1", p.capacity(Primary), p.capacity(Secondary))
	}
	idx, _, ok := p.acquire(Secondary)
	if !ok || idx != 2 || p.handle(idx) != 3 {
		t.Errorf("secondary acquire = %d %v, want slot 2", idx, ok)
	}
	if _, _, ok := p.acquire(Secondary); ok {
		t.Error("second secondary acquire succeeded")
	}
}

func TestPoolReleaseIdempotent(t *testing.T) {
	p := newPool([]int{1}, Primary)

	idx, gen, _ := p.acquire(Primary)
	if !p.release(idx, gen) {
		t.Fatal("first release failed")
	}
	if p.release(idx, gen) {
		t.Error("second release of the same handle succeeded")
	}
	if p.inUse() != 0 {
		t.Errorf("inUse = %d after double release", p.inUse())
	}
	if p.release(-1, 1) || p.release(5, 1) {
		t.Error("release of out of range slot succeeded")
	}
}

func TestPoolStaleRelease(t *testing.T) {
	p := newPool([]int{1}, Primary)

	idx, stale, _ := p.acquire(Primary)
	p.release(idx, stale)

	idx2, gen, ok := p.acquire(Primary)
	if !ok || idx2 != idx {
		t.Fatalf("reacquire = %d %v, want slot %d", idx2, ok, idx)
	}
	if p.release(idx, stale) {
		t.Error("stale copy released the slot of a newer holder")
	}
	if p.inUse() != 1 {
		t.Errorf("inUse = %d, want 1", p.inUse())
	}
	if !p.release(idx2, gen) {
		t.Error("current holder could not release")
	}
}

func TestPoolGenerationWraps(t *testing.T) {
	p := newPool([]int{1}, Primary)
	p.slots[0].generation = ^uint32(0)

	_, gen, ok := p.acquire(Primary)
	if !ok || gen == 0 {
		t.Errorf("generation after wrap = %d, want non zero", gen)
	}
}
