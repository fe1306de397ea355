package microvulkan

// Level distinguishes primary from secondary slots in a command buffer pool. Queue slots are
// always Primary.
type Level int

const (
	Primary Level = iota
	Secondary
)

func (l Level) String() string {
	if l == Secondary {
		return "secondary"
	}
	return "primary"
}

// pooledResource is one lendable slot. The handle stays valid for the life of the pool, only
// inUse toggles. generation increments on each acquire so stale handle copies can be detected.
type pooledResource[T any] struct {
	inUse      bool
	level      Level
	generation uint32
	handle     T
}

// pool is a fixed capacity array of slots handed out by linear scan
type pool[T any] struct {
	slots []pooledResource[T]
	used  int
}

func newPool[T any](handles []T, level Level) pool[T] {
	var p pool[T]
	p.append(handles, level)
	return p
}

func (p *pool[T]) append(handles []T, level Level) {
	for _, h := range handles {
		p.slots = append(p.slots, pooledResource[T]{level: level, handle: h})
	}
}

// acquire marks the first free slot of the given level in use, returning its index and generation
func (p *pool[T]) acquire(level Level) (int, uint32, bool) {
	for i := range p.slots {
		s := &p.slots[i]
		if s.inUse || s.level != level {
			continue
		}
		s.inUse = true
		s.generation++
		if s.generation == 0 {
			s.generation = 1
		}
		p.used++
		return i, s.generation, true
	}
	return -1, 0, false
}

// release frees the slot if it is still held under the given generation
func (p *pool[T]) release(index int, generation uint32) bool {
	if index < 0 || index >= len(p.slots) {
		return false
	}
	s := &p.slots[index]
	if !s.inUse || s.generation != generation {
		return false
	}
	s.inUse = false
	p.used--
	return true
}

func (p *pool[T]) handle(index int) T {
	return p.slots[index].handle
}

func (p *pool[T]) handles() []T {
	ret := make([]T, len(p.slots))
	for i := range p.slots {
		ret[i] = p.slots[i].handle
	}
	return ret
}

func (p *pool[T]) capacity(level Level) int {
	n := 0
	for i := range p.slots {
		if p.slots[i].level == level {
			n++
		}
	}
	return n
}

func (p *pool[T]) inUse() int {
	return p.used
}

func (p *pool[T]) reset() {
	p.slots = nil
	p.used = 0
}
