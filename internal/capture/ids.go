package capture

import (
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// IDAllocator hands out sensor template slots in [1, capacity).
// Slots are allocated round-robin from a cursor and never reissued while
// held, so rapid repeated enrollments cannot collide. With a slots file the
// held set and cursor survive restarts.
type IDAllocator struct {
	mu   sync.Mutex
	next int
	max  int
	used map[int]bool
	path string
}

// slotsFile is the on-disk form of an allocator
type slotsFile struct {
	Next  int   `yaml:"next"`
	Slots []int `yaml:"slots"`
}

// NewIDAllocator creates an allocator for a sensor with the given number of
// template slots. start seeds the cursor; out-of-range values start at 1.
func NewIDAllocator(capacity, start int) *IDAllocator {
	if capacity < 2 {
		capacity = 2
	}
	if start < 1 || start >= capacity {
		start = 1
	}
	return &IDAllocator{
		next: start,
		max:  capacity,
		used: make(map[int]bool),
	}
}

// LoadIDAllocator restores an allocator from path and keeps it in sync with
// the file from then on. A missing file yields a fresh allocator seeded at
// start.
func LoadIDAllocator(path string, capacity, start int) (*IDAllocator, error) {
	a := NewIDAllocator(capacity, start)
	a.path = path

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return a, nil
	}
	if err != nil {
		return a, fmt.Errorf("read slots file: %w", err)
	}

	var f slotsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return a, fmt.Errorf("parse slots file %s: %w", path, err)
	}
	for _, id := range f.Slots {
		if id >= 1 && id < a.max {
			a.used[id] = true
		}
	}
	if f.Next >= 1 && f.Next < a.max {
		a.next = f.Next
	}
	return a, nil
}

// Next returns the next free slot
func (a *IDAllocator) Next() (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for i := 1; i < a.max; i++ {
		id := a.next
		a.next++
		if a.next >= a.max {
			a.next = 1
		}
		if !a.used[id] {
			a.used[id] = true
			a.persistLocked()
			return id, nil
		}
	}
	return 0, ErrIDSpaceExhausted
}

// Reserve marks a slot as taken, e.g. one the device already reported
func (a *IDAllocator) Reserve(id int) {
	if id < 1 || id >= a.max {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.used[id] {
		a.used[id] = true
		a.persistLocked()
	}
}

// Release frees a slot after a failed enrollment
func (a *IDAllocator) Release(id int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.used[id] {
		delete(a.used, id)
		a.persistLocked()
	}
}

// InUse reports whether a slot is held
func (a *IDAllocator) InUse(id int) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.used[id]
}

// Held returns the held slots in ascending order
func (a *IDAllocator) Held() []int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.heldLocked()
}

func (a *IDAllocator) heldLocked() []int {
	ids := make([]int, 0, len(a.used))
	for id := range a.used {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// persistLocked writes the allocator to its slots file. Failures are logged;
// the in-memory state stays authoritative.
func (a *IDAllocator) persistLocked() {
	if a.path == "" {
		return
	}
	data, err := yaml.Marshal(slotsFile{Next: a.next, Slots: a.heldLocked()})
	if err == nil {
		err = os.WriteFile(a.path, data, 0644)
	}
	if err != nil {
		log.Printf("Warning: could not save fingerprint slots to %s: %v", a.path, err)
	}
}
