// Package worker provides a fixed-size task group used to fan out adapter
// fetches. Each submitted task is independent; a task's failure is its own
// business (captured by the closure), never the group's.
package worker

import (
	"context"
	"sync"
)

// Task is one unit of work. It receives the group's context and must return
// promptly once that context is cancelled.
type Task func(ctx context.Context)

type Group struct {
	numWorkers int
	tasks      chan Task
	wg         sync.WaitGroup
}

func NewGroup(numWorkers int, bufferSize int) *Group {
	if numWorkers < 1 {
		numWorkers = 1
	}
	return &Group{
		numWorkers: numWorkers,
		tasks:      make(chan Task, bufferSize),
	}
}

func (g *Group) Start(ctx context.Context) {
	for i := 0; i < g.numWorkers; i++ {
		g.wg.Add(1)
		go g.worker(ctx)
	}
}

func (g *Group) worker(ctx context.Context) {
	defer g.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case task, ok := <-g.tasks:
			if !ok {
				return
			}
			task(ctx)
		}
	}
}

func (g *Group) Submit(task Task) {
	g.tasks <- task
}

// Join closes the queue and blocks until every queued task has run (or the
// group's context was cancelled). The group cannot be reused afterwards.
func (g *Group) Join() {
	close(g.tasks)
	g.wg.Wait()
}
