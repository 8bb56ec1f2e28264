// Package fake provides an in-process stand-in for a pool of worker nodes.
package fake

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/twitter/heft/scheduler/cost"
	"github.com/twitter/heft/scheduler/domain"
	"github.com/twitter/heft/worker/client"
)

var ErrInjected = errors.New("injected failure")

// SimExecutor executes tasks by sleeping for the cost model's estimate, scaled
// to wall time by unit. Individual tasks can be made to fail. It also records
// how many calls were in flight per processor so tests can check concurrency
// limits.
type SimExecutor struct {
	scale float64
	unit  time.Duration

	mu          sync.Mutex
	failures    map[int]error
	inFlight    map[int]int
	maxInFlight map[int]int
	started     []int
	finished    []int
}

func NewSimExecutor(scale float64, unit time.Duration) *SimExecutor {
	return &SimExecutor{
		scale:       scale,
		unit:        unit,
		failures:    map[int]error{},
		inFlight:    map[int]int{},
		maxInFlight: map[int]int{},
	}
}

// FailTask makes every execution of taskID fail after its simulated run.
func (e *SimExecutor) FailTask(taskID int) *SimExecutor {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failures[taskID] = ErrInjected
	return e
}

func (e *SimExecutor) Execute(ctx context.Context, p domain.Processor, req client.Request) (*client.Response, error) {
	d := time.Duration(cost.ComputationCost(req.Value, p.Cores, e.scale) * float64(e.unit))

	e.mu.Lock()
	e.inFlight[p.ID]++
	if e.inFlight[p.ID] > e.maxInFlight[p.ID] {
		e.maxInFlight[p.ID] = e.inFlight[p.ID]
	}
	e.started = append(e.started, req.TaskID)
	failure := e.failures[req.TaskID]
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.inFlight[p.ID]--
		e.finished = append(e.finished, req.TaskID)
		e.mu.Unlock()
	}()

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil, &domain.RemoteExecutionError{TaskID: req.TaskID, ProcessorID: p.ID, Err: ctx.Err()}
	case <-timer.C:
	}

	if failure != nil {
		return nil, &domain.RemoteExecutionError{
			TaskID: req.TaskID, ProcessorID: p.ID, StatusCode: 500, Err: failure,
		}
	}
	return &client.Response{
		Value:         req.Value,
		Result:        int64(req.Value) * int64(req.Value),
		ExecutionTime: d.Seconds(),
	}, nil
}

// MaxInFlight is the highest number of concurrent calls seen on a processor.
func (e *SimExecutor) MaxInFlight(processorID int) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.maxInFlight[processorID]
}

// Started lists task ids in the order their executions began.
func (e *SimExecutor) Started() []int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]int(nil), e.started...)
}

// Finished lists task ids in the order their executions returned.
func (e *SimExecutor) Finished() []int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]int(nil), e.finished...)
}
