package component

import "sync"

// Scheduler defers a task until the owner reaches its next checkpoint.
type Scheduler interface {
	Schedule(task func())
}

// Microtasks is a FIFO task queue drained explicitly with Flush. Schedule is
// safe to call from any goroutine; Flush must run on the goroutine that owns
// the Runtime.
type Microtasks struct {
	mu    sync.Mutex
	queue []func()
}

// NewMicrotasks creates an empty queue.
func NewMicrotasks() *Microtasks {
	return &Microtasks{}
}

// Schedule implements Scheduler.
func (m *Microtasks) Schedule(task func()) {
	m.mu.Lock()
	m.queue = append(m.queue, task)
	m.mu.Unlock()
}

// Pending returns the number of queued tasks.
func (m *Microtasks) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// Flush runs queued tasks until the queue is empty, including tasks
// scheduled by the tasks themselves. It returns how many ran.
func (m *Microtasks) Flush() int {
	ran := 0
	for {
		m.mu.Lock()
		batch := m.queue
		m.queue = nil
		m.mu.Unlock()

		if len(batch) == 0 {
			return ran
		}
		for _, task := range batch {
			task()
			ran++
		}
	}
}
