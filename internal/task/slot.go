package task

// Result carries a task outcome: a value or an error, never both meaningful.
type Result[T any] struct {
	Value T
	Err   error
}

// Slot tracks one logical background operation for a poll loop. At most one
// task is in flight at a time; its result parks in a one-element channel
// until the loop polls it. Submit and Poll must be called from the same
// goroutine (the loop); the completion send happens on a pool worker.
type Slot[T any] struct {
	results chan Result[T]
	busy    bool
}

// NewSlot returns an idle slot.
func NewSlot[T any]() *Slot[T] {
	return &Slot[T]{results: make(chan Result[T], 1)}
}

// Submit starts work on the pool unless a task is already in flight or the
// pool rejects the job. Returns whether the task was accepted.
func (s *Slot[T]) Submit(pool *Pool, work func() (T, error)) bool {
	if s.busy {
		return false
	}
	accepted := pool.Submit(func() {
		value, err := work()
		s.results <- Result[T]{Value: value, Err: err}
	})
	if accepted {
		s.busy = true
	}
	return accepted
}

// Busy reports whether a task is in flight or a result is waiting.
func (s *Slot[T]) Busy() bool { return s.busy }

// Poll returns the parked result, if any, without blocking. A result is
// delivered exactly once; afterwards the slot is idle again.
func (s *Slot[T]) Poll() (Result[T], bool) {
	select {
	case r := <-s.results:
		s.busy = false
		return r, true
	default:
		return Result[T]{}, false
	}
}
