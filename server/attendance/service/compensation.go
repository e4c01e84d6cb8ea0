package service

import (
	"context"
	"sync"

	"attendance_server/server/common/log"
)

type compensationStep struct {
	name string
	fn   func(ctx context.Context) error
}

// Compensator collects undo steps while a multi-resource operation makes
// progress. Rollback runs every step unless Commit was called first.
type Compensator struct {
	operation string

	mu        sync.Mutex
	steps     []compensationStep
	committed bool
}

func NewCompensator(operation string) *Compensator {
	return &Compensator{operation: operation}
}

func (c *Compensator) Add(name string, fn func(ctx context.Context) error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.steps = append(c.steps, compensationStep{name: name, fn: fn})
}

func (c *Compensator) Commit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.committed = true
	c.steps = nil
}

// Rollback runs all pending steps concurrently and waits for them. A step
// failure is logged and does not stop the others. Steps survive the
// cancellation of ctx so a timed out request still cleans up.
func (c *Compensator) Rollback(ctx context.Context) {
	c.mu.Lock()
	if c.committed || len(c.steps) == 0 {
		c.mu.Unlock()
		return
	}
	steps := c.steps
	c.steps = nil
	c.mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	var wg sync.WaitGroup
	for _, step := range steps {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := step.fn(ctx)
			compensationStepsTotal.WithLabelValues(c.operation, result(err)).Inc()
			if err != nil {
				log.Exceptionf("%s rollback step %s failed: %v", c.operation, step.name, err)
				return
			}
			log.Debugf("%s rollback step %s done", c.operation, step.name)
		}()
	}
	wg.Wait()
}
