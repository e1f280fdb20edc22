package mesh

import (
	"runtime"
	"sync/atomic"
)

type forkTask[T any] struct {
	claimed int32
	fn      func() T
	done    chan T
}

// claim marks the task as taken and reports whether the caller won it.
func (t *forkTask[T]) claim() bool {
	return atomic.SwapInt32(&t.claimed, 1) == 0
}

// A forkJoin schedules the two halves of a recursive bounding volume
// traversal on a fixed pool of workers.
//
// The root traversal is started with Run. Any task may call Fork to evaluate
// two sub-traversals, the second of which may be stolen by an idle worker.
// Calling Stop abandons work which has not started yet; Fork then returns
// zero values for skipped halves.
type forkJoin[T any] struct {
	tasks   chan *forkTask[T]
	stopped int32
}

func newForkJoin[T any](workers int) *forkJoin[T] {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	res := &forkJoin[T]{tasks: make(chan *forkTask[T], workers*256)}
	for i := 0; i < workers; i++ {
		go res.work()
	}
	return res
}

// Run evaluates the root task and shuts down the workers.
func (f *forkJoin[T]) Run(root func() T) T {
	defer close(f.tasks)
	task := &forkTask[T]{fn: root, done: make(chan T, 1)}
	f.tasks <- task
	return <-task.done
}

// Stop abandons all tasks which have not started.
func (f *forkJoin[T]) Stop() {
	atomic.StoreInt32(&f.stopped, 1)
}

func (f *forkJoin[T]) Stopped() bool {
	return atomic.LoadInt32(&f.stopped) != 0
}

func (f *forkJoin[T]) Fork(first, second func() T) (r1, r2 T) {
	if f.Stopped() {
		return
	}
	task := &forkTask[T]{fn: second, done: make(chan T, 1)}
	select {
	case f.tasks <- task:
	default:
		// No room in the queue; keep the work on this goroutine.
		task.claimed = 1
		task.done <- task.fn()
	}
	r1 = first()
	if task.claim() {
		if !f.Stopped() {
			r2 = second()
		}
	} else {
		r2 = <-task.done
	}
	return
}

func (f *forkJoin[T]) work() {
	for task := range f.tasks {
		if !task.claim() {
			continue
		}
		var res T
		if !f.Stopped() {
			res = task.fn()
		}
		task.done <- res
	}
}
