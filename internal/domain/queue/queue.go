// Package queue provides a generic capacity-bounded FIFO.
package queue

// Bounded is a FIFO with a fixed maximum size, backed by a ring buffer.
// Pushing at capacity silently evicts the oldest entry. Not safe for
// concurrent use; callers serialize access.
type Bounded[T any] struct {
	items []T
	head  int
	count int
}

// NewBounded creates a queue holding at most capacity entries.
// Panics if capacity is not positive.
func NewBounded[T any](capacity int) *Bounded[T] {
	if capacity <= 0 {
		panic("queue: capacity must be positive")
	}
	return &Bounded[T]{items: make([]T, capacity)}
}

// Push appends v to the queue, evicting the oldest entry when full.
func (q *Bounded[T]) Push(v T) {
	q.items[(q.head+q.count)%len(q.items)] = v
	if q.count == len(q.items) {
		q.head = (q.head + 1) % len(q.items)
		return
	}
	q.count++
}

// Pop removes and returns the oldest entry. The second return value is
// false when the queue is empty.
func (q *Bounded[T]) Pop() (T, bool) {
	var zero T
	if q.count == 0 {
		return zero, false
	}
	v := q.items[q.head]
	q.items[q.head] = zero
	q.head = (q.head + 1) % len(q.items)
	q.count--
	return v, true
}

// Items returns a copy of the entries in order, oldest first.
func (q *Bounded[T]) Items() []T {
	out := make([]T, q.count)
	for i := 0; i < q.count; i++ {
		out[i] = q.items[(q.head+i)%len(q.items)]
	}
	return out
}

// Len returns the number of entries currently held.
func (q *Bounded[T]) Len() int {
	return q.count
}

// Cap returns the maximum number of entries.
func (q *Bounded[T]) Cap() int {
	return len(q.items)
}

// Clear removes all entries.
func (q *Bounded[T]) Clear() {
	q.items = make([]T, len(q.items))
	q.head = 0
	q.count = 0
}
