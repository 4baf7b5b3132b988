package pool

import "sync/atomic"

// Steal is the result of one attempt to take a task from the queue.
type Steal int

const (
	// Success means a task was taken.
	Success Steal = iota
	// Retry means the attempt collided with another producer or
	// consumer. Nothing is wrong; try again shortly.
	Retry
	// Empty means there was nothing to take at the time of the attempt.
	Empty
)

func (s Steal) String() string {
	switch s {
	case Success:
		return "success"
	case Retry:
		return "retry"
	default:
		return "empty"
	}
}

type node struct {
	task Task
	next atomic.Pointer[node]
}

// Injector is an unbounded multi-producer, multi-consumer FIFO queue
// without locks (Michael and Scott). head always points at a sentinel
// whose successor is the oldest task.
type Injector struct {
	head atomic.Pointer[node]
	tail atomic.Pointer[node]
}

func NewInjector() *Injector {
	q := &Injector{}
	sentinel := &node{}
	q.head.Store(sentinel)
	q.tail.Store(sentinel)
	return q
}

// Push appends t. It never fails; collisions are retried internally.
func (q *Injector) Push(t Task) {
	n := &node{task: t}
	for {
		tail := q.tail.Load()
		next := tail.next.Load()
		if tail != q.tail.Load() {
			continue
		}
		if next != nil {
			// Tail is lagging; help it along.
			q.tail.CompareAndSwap(tail, next)
			continue
		}
		if tail.next.CompareAndSwap(nil, n) {
			q.tail.CompareAndSwap(tail, n)
			return
		}
	}
}

// Steal makes a single attempt to remove the oldest task.
func (q *Injector) Steal() (Task, Steal) {
	head := q.head.Load()
	tail := q.tail.Load()
	next := head.next.Load()

	if head != q.head.Load() {
		return Task{}, Retry
	}
	if next == nil {
		return Task{}, Empty
	}
	if head == tail {
		q.tail.CompareAndSwap(tail, next)
		return Task{}, Retry
	}
	if !q.head.CompareAndSwap(head, next) {
		return Task{}, Retry
	}

	// next is the new sentinel; only the winner of the CAS reads it.
	t := next.task
	next.task = Task{}
	return t, Success
}

// IsEmpty reports whether no task was queued at the time of the call.
func (q *Injector) IsEmpty() bool {
	return q.head.Load().next.Load() == nil
}
