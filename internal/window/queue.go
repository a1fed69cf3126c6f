package window

// BoundedQueue is a fixed-capacity FIFO that evicts its oldest element when
// a push would overflow.
type BoundedQueue[T any] struct {
	items []T
	head  int // index of the oldest element
	count int
}

func NewBoundedQueue[T any](capacity int) (*BoundedQueue[T], error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	return &BoundedQueue[T]{items: make([]T, capacity)}, nil
}

// Push appends v. When the queue was full the evicted element is returned
// with ok set.
func (q *BoundedQueue[T]) Push(v T) (evicted T, ok bool) {
	if q.count < len(q.items) {
		q.items[(q.head+q.count)%len(q.items)] = v
		q.count++
		return evicted, false
	}
	evicted = q.items[q.head]
	q.items[q.head] = v
	q.head = (q.head + 1) % len(q.items)
	return evicted, true
}

// At returns the element at index i counted from the oldest.
func (q *BoundedQueue[T]) At(i int) T {
	return q.items[(q.head+i)%len(q.items)]
}

// Latest returns the element at index i counted from the newest.
func (q *BoundedQueue[T]) Latest(i int) T {
	return q.At(q.count - 1 - i)
}

func (q *BoundedQueue[T]) Len() int { return q.count }

func (q *BoundedQueue[T]) Cap() int { return len(q.items) }

func (q *BoundedQueue[T]) Full() bool { return q.count == len(q.items) }

func (q *BoundedQueue[T]) Reset() {
	var zero T
	for i := range q.items {
		q.items[i] = zero
	}
	q.head, q.count = 0, 0
}
