package api

// ring is a fixed-size circular store. It is not safe for concurrent use;
// owners hold their own lock.
type ring[T any] struct {
	items []T
	head  int // index of the oldest item
	size  int
}

func newRing[T any](capacity int) ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return ring[T]{items: make([]T, capacity)}
}

// push stores v, overwriting the oldest item when full
func (r *ring[T]) push(v T) {
	n := len(r.items)
	if r.size < n {
		r.items[(r.head+r.size)%n] = v
		r.size++
		return
	}
	r.items[r.head] = v
	r.head = (r.head + 1) % n
}

// at returns the i-th oldest item
func (r *ring[T]) at(i int) T {
	return r.items[(r.head+i)%len(r.items)]
}

func (r *ring[T]) len() int {
	return r.size
}

func (r *ring[T]) reset() {
	var zero T
	for i := range r.items {
		r.items[i] = zero
	}
	r.head, r.size = 0, 0
}
