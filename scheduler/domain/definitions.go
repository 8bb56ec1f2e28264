// Package domain provides the definitions shared by every stage of a heft run:
// the tasks and processors that come in, the Schedule the planner hands to the
// dispatcher, and the ExecutionResults that come back from the worker nodes.
package domain

import (
	"fmt"
	"net"
	"sort"
	"strconv"
	"time"
)

// Task is one unit of work in the precedence graph.
type Task struct {
	ID    int
	Index int // the dataset value; drives computation cost
	Chain int

	Predecessors []int
	Successors   []int

	// processor id -> computation cost in cost units
	Costs map[int]float64
}

func (t *Task) String() string {
	return fmt.Sprintf("task:%d(index:%d, chain:%d, preds:%v, succs:%v)", t.ID, t.Index, t.Chain, t.Predecessors, t.Successors)
}

// Endpoint is the network address of a worker node.
type Endpoint struct {
	Host string
	Port int
}

func (e Endpoint) String() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// Processor is one heterogeneous compute node.
type Processor struct {
	ID       int
	Cores    int
	Endpoint Endpoint

	// Max concurrently in-flight remote calls. Defaults to 1 so requests to a node are serialized.
	Capacity int
}

func (p Processor) String() string {
	return fmt.Sprintf("processor:%d(cores:%d, capacity:%d, endpoint:%s)", p.ID, p.Cores, p.Capacity, p.Endpoint)
}

// SortProcessors orders processors by ascending id, which is also the EFT tie-break order.
func SortProcessors(procs []Processor) []Processor {
	sorted := append([]Processor(nil), procs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	return sorted
}

// Assignment places one task on one processor, in cost units.
type Assignment struct {
	TaskID      int
	ProcessorID int
	Start       float64
	Finish      float64
}

func (a Assignment) Duration() float64 {
	return a.Finish - a.Start
}

// Schedule is the finalized plan produced by a planning algorithm. Nothing
// mutates it after the algorithm returns.
type Schedule struct {
	Algorithm string

	// indexed by task id
	Assignments []Assignment

	// task ids in the order the algorithm committed them
	Order []int
}

// Makespan is the latest scheduled finish.
func (s *Schedule) Makespan() float64 {
	max := 0.0
	for _, a := range s.Assignments {
		if a.Finish > max {
			max = a.Finish
		}
	}
	return max
}

// ProcessorLoads groups assignments by processor id, each list ordered by start time.
func (s *Schedule) ProcessorLoads() map[int][]Assignment {
	loads := map[int][]Assignment{}
	for _, a := range s.Assignments {
		loads[a.ProcessorID] = append(loads[a.ProcessorID], a)
	}
	for _, l := range loads {
		sort.Slice(l, func(i, j int) bool {
			if l[i].Start != l[j].Start {
				return l[i].Start < l[j].Start
			}
			return l[i].TaskID < l[j].TaskID
		})
	}
	return loads
}

// Status of a dispatched task.
type Status int

const (
	// No outcome recorded yet
	NotStarted Status = iota

	// Remote call returned a 2xx response
	Succeeded

	// Remote call timed out, failed to connect or returned a non-2xx response
	Failed
)

func (s Status) String() string {
	asString := [3]string{"NotStarted", "Succeeded", "Failed"}
	return asString[s]
}

// ExecutionResult is what the dispatcher learned about one task. Times are
// offsets from the dispatch epoch.
type ExecutionResult struct {
	TaskID      int
	ProcessorID int
	Status      Status

	// the remote call was issued; false when the task failed while still waiting
	Sent bool

	ActualStart  time.Duration
	ActualFinish time.Duration // zero unless Status == Succeeded
	FailedAt     time.Duration // zero unless Status == Failed

	// execution time as measured by the worker itself
	RemoteDuration time.Duration

	Err error
}

func (r ExecutionResult) Dispatched() bool {
	return r.Sent
}

func (r ExecutionResult) HasFinish() bool {
	return r.Status == Succeeded
}

// Elapsed is the dispatcher-observed execution time of a successful task.
func (r ExecutionResult) Elapsed() time.Duration {
	if !r.HasFinish() {
		return 0
	}
	return r.ActualFinish - r.ActualStart
}
