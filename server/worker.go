package server

import (
	"fmt"

	"github.com/chazu/totem/om"
)

// runtimeRequest represents a unit of work to be executed on the runtime
// goroutine.
type runtimeRequest struct {
	fn   func(*om.Runtime) any
	done chan runtimeResult
}

// runtimeResult holds the return value from a runtime operation.
type runtimeResult struct {
	value any
	err   error
}

// Worker serializes all runtime access through a single goroutine.
// The object model is single-mutator; all connect handlers must go
// through the worker to avoid data races.
type Worker struct {
	rt       *om.Runtime
	requests chan runtimeRequest
	quit     chan struct{}
}

// NewWorker creates a Worker and starts the processing goroutine.
func NewWorker(rt *om.Runtime) *Worker {
	w := &Worker{
		rt:       rt,
		requests: make(chan runtimeRequest, 64),
		quit:     make(chan struct{}),
	}
	go w.loop()
	return w
}

// loop processes runtime requests sequentially on a dedicated goroutine.
func (w *Worker) loop() {
	for {
		select {
		case req := <-w.requests:
			result := w.execute(req.fn)
			req.done <- result
		case <-w.quit:
			return
		}
	}
}

// execute runs a function on the runtime, recovering from panics.
func (w *Worker) execute(fn func(*om.Runtime) any) runtimeResult {
	var result runtimeResult
	func() {
		defer func() {
			if r := recover(); r != nil {
				result.err = fmt.Errorf("%v", r)
			}
		}()
		result.value = fn(w.rt)
	}()
	return result
}

// Do submits a function for execution on the runtime goroutine and blocks
// until it completes. Returns the result and any error (including panics).
func (w *Worker) Do(fn func(*om.Runtime) any) (any, error) {
	req := runtimeRequest{
		fn:   fn,
		done: make(chan runtimeResult, 1),
	}
	w.requests <- req
	result := <-req.done
	return result.value, result.err
}

// Stop shuts down the worker goroutine.
func (w *Worker) Stop() {
	close(w.quit)
}

// Runtime returns the underlying runtime (for read-only metadata access
// that doesn't touch registry or instance state).
func (w *Worker) Runtime() *om.Runtime {
	return w.rt
}
