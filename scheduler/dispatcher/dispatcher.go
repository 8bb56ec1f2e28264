// Package dispatcher executes a Schedule against remote worker nodes.
//
// Every task gets its own goroutine and a done channel that is closed however
// the task ends. A task first waits on the done channels of its predecessors,
// then on a slot of its processor's semaphore, then on the optional rate
// limiter, and only then calls the worker. A failed predecessor still closes
// its channel, so failures never block the rest of the batch.
package dispatcher

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/twitter/heft/common/stats"
	"github.com/twitter/heft/scheduler/domain"
	"github.com/twitter/heft/scheduler/graph"
	"github.com/twitter/heft/worker/client"
)

const DefaultTaskTimeout = 30 * time.Second

type Config struct {
	// Per remote call. Zero means DefaultTaskTimeout.
	TaskTimeout time.Duration

	// Max dispatches per second across all processors, 0 for unlimited.
	RateLimit float64

	// Dispatches allowed in a burst when RateLimit is set. Defaults to 1.
	RateBurst int
}

type Dispatcher struct {
	exec    client.Executor
	config  Config
	limiter *rate.Limiter
	stat    stats.StatsReceiver

	inFlight int64
}

func New(exec client.Executor, config Config, stat stats.StatsReceiver) *Dispatcher {
	if config.TaskTimeout <= 0 {
		config.TaskTimeout = DefaultTaskTimeout
	}
	if stat == nil {
		stat = stats.NilStatsReceiver()
	}
	d := &Dispatcher{exec: exec, config: config, stat: stat}
	if config.RateLimit > 0 {
		burst := config.RateBurst
		if burst < 1 {
			burst = 1
		}
		d.limiter = rate.NewLimiter(rate.Limit(config.RateLimit), burst)
	}
	return d
}

// Dispatch runs every task in the schedule and returns one result per task,
// indexed by task id. It returns once every task has succeeded or failed.
// Cancelling ctx fails the tasks still waiting; tasks already executing are
// bounded by their own timeout.
func (d *Dispatcher) Dispatch(ctx context.Context, schedule *domain.Schedule, g *graph.TaskGraph, processors []domain.Processor) []domain.ExecutionResult {
	n := g.Len()
	results := make([]domain.ExecutionResult, n)
	done := make([]chan struct{}, n)
	for i := range done {
		done[i] = make(chan struct{})
	}

	byID := map[int]domain.Processor{}
	slots := map[int]*semaphore.Weighted{}
	for _, p := range processors {
		capacity := p.Capacity
		if capacity < 1 {
			capacity = 1
		}
		byID[p.ID] = p
		slots[p.ID] = semaphore.NewWeighted(int64(capacity))
	}

	log.WithFields(
		log.Fields{
			"tasks":       n,
			"processors":  len(processors),
			"taskTimeout": d.config.TaskTimeout,
			"rateLimit":   d.config.RateLimit,
		}).Info("Dispatching schedule")

	if len(schedule.Assignments) != n {
		err := fmt.Errorf("schedule has %d assignments for %d tasks", len(schedule.Assignments), n)
		for id := range results {
			results[id] = domain.ExecutionResult{TaskID: id, Status: domain.Failed, Err: err}
		}
		return results
	}

	epoch := time.Now()
	for id := 0; id < n; id++ {
		go d.runTask(ctx, epoch, g.Tasks[id], schedule.Assignments[id], byID, slots, done, &results[id])
	}
	for _, ch := range done {
		<-ch
	}
	return results
}

// runTask owns results[task.ID] and done[task.ID]; nothing else writes either.
func (d *Dispatcher) runTask(ctx context.Context, epoch time.Time, task *domain.Task, a domain.Assignment,
	processors map[int]domain.Processor, slots map[int]*semaphore.Weighted, done []chan struct{}, result *domain.ExecutionResult) {
	defer close(done[task.ID])

	*result = domain.ExecutionResult{TaskID: task.ID, ProcessorID: a.ProcessorID}
	fail := func(err error) {
		result.Status = domain.Failed
		result.FailedAt = time.Since(epoch)
		result.Err = err
		d.stat.Counter(stats.DispatcherTasksFailedCounter).Inc(1)
		log.WithFields(
			log.Fields{
				"task":      task.ID,
				"processor": a.ProcessorID,
				"err":       err,
			}).Error("Task failed")
	}

	for _, p := range task.Predecessors {
		select {
		case <-done[p]:
		case <-ctx.Done():
			fail(errors.Wrapf(ctx.Err(), "waiting for task %d", p))
			return
		}
	}

	proc, ok := processors[a.ProcessorID]
	if !ok {
		fail(fmt.Errorf("task %d assigned to unknown processor %d", task.ID, a.ProcessorID))
		return
	}

	waitStart := time.Now()
	slot := slots[proc.ID]
	if err := slot.Acquire(ctx, 1); err != nil {
		fail(errors.Wrap(err, "waiting for processor slot"))
		return
	}
	defer slot.Release(1)
	d.stat.Latency(stats.DispatcherSlotWaitLatency_ms).Record(time.Since(waitStart))

	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			fail(errors.Wrap(err, "waiting for dispatch rate limit"))
			return
		}
	}

	if err := ctx.Err(); err != nil {
		fail(errors.Wrap(err, "run cancelled before dispatch"))
		return
	}

	taskCtx, cancel := context.WithTimeout(ctx, d.config.TaskTimeout)
	defer cancel()

	d.stat.Counter(stats.DispatcherTasksDispatchedCounter).Inc(1)
	d.stat.Gauge(stats.DispatcherInFlightGauge).Update(atomic.AddInt64(&d.inFlight, 1))
	log.Debugf("Dispatching task %d to processor %d (%s)", task.ID, proc.ID, proc.Endpoint)

	result.Sent = true
	result.ActualStart = time.Since(epoch)
	resp, err := d.exec.Execute(taskCtx, proc, client.Request{TaskID: task.ID, Value: task.Index})
	now := time.Since(epoch)
	d.stat.Gauge(stats.DispatcherInFlightGauge).Update(atomic.AddInt64(&d.inFlight, -1))
	d.stat.Scope(fmt.Sprintf("processor%d", proc.ID)).Latency(stats.DispatcherTaskLatency_ms).Record(now - result.ActualStart)

	if err != nil {
		fail(err)
		result.FailedAt = now
		return
	}
	result.Status = domain.Succeeded
	result.ActualFinish = now
	result.RemoteDuration = resp.Duration()
	d.stat.Counter(stats.DispatcherTasksSucceededCounter).Inc(1)
	log.WithFields(
		log.Fields{
			"task":      task.ID,
			"processor": proc.ID,
			"elapsed":   now - result.ActualStart,
			"remote":    result.RemoteDuration,
		}).Info("Task completed")
}
