package watch

import (
	"sync"
)

// queue collects pending tasks between runs. ready holds at most one
// signal, so any number of changes during a run cause one follow-up.
type queue struct {
	mu      sync.Mutex
	pending []string
	seen    map[string]bool
	ready   chan struct{}
}

func newQueue() *queue {
	return &queue{
		seen:  make(map[string]bool),
		ready: make(chan struct{}, 1),
	}
}

// add appends tasks not already pending
func (q *queue) add(tasks []string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, t := range tasks {
		if !q.seen[t] {
			q.seen[t] = true
			q.pending = append(q.pending, t)
		}
	}
}

// signal wakes the worker unless a wake-up is already pending
func (q *queue) signal() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// take returns the pending tasks and clears them
func (q *queue) take() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	tasks := q.pending
	q.pending = nil
	q.seen = make(map[string]bool)
	return tasks
}
