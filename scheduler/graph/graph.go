// Package graph builds the task precedence DAG a batch is planned over.
//
// The batch builder splits N tasks into K independent chains: task i joins
// chain i mod K and depends on the previous task of its chain. Every chain head
// is ready at time zero, so the planner can spread work across processors from
// the start. TaskGraph itself accepts arbitrary DAGs; the ranker and the
// dispatcher do not assume the chain shape.
package graph

import (
	"sort"

	"github.com/twitter/heft/scheduler/cost"
	"github.com/twitter/heft/scheduler/domain"
)

// TaskGraph is a directed graph of tasks indexed by task id (0..N-1).
type TaskGraph struct {
	Tasks []*domain.Task
}

// New wraps tasks whose ids must equal their position in the slice.
func New(tasks []*domain.Task) (*TaskGraph, error) {
	for i, t := range tasks {
		if t == nil || t.ID != i {
			return nil, domain.NewConfigurationError("task at position %d has mismatched id", i)
		}
	}
	return &TaskGraph{Tasks: tasks}, nil
}

// Build creates one task per dataset value and links them into chains.
// Fewer tasks than chains leaves some chains empty, which is fine.
func Build(values []int, chains int, model *cost.Model) (*TaskGraph, error) {
	if chains <= 0 {
		return nil, domain.NewConfigurationError("chain count must be positive, got %d", chains)
	}
	tasks := make([]*domain.Task, len(values))
	lastInChain := make([]int, chains)
	for c := range lastInChain {
		lastInChain[c] = -1
	}

	for i, v := range values {
		if v <= 0 {
			return nil, domain.NewConfigurationError("task %d has non-positive value %d", i, v)
		}
		t := &domain.Task{
			ID:    i,
			Index: v,
			Chain: i % chains,
			Costs: model.Costs(v),
		}
		tasks[i] = t
		if prev := lastInChain[t.Chain]; prev >= 0 {
			linkTasks(tasks[prev], t)
		}
		lastInChain[t.Chain] = i
	}
	return &TaskGraph{Tasks: tasks}, nil
}

// AddEdge makes 'to' depend on 'from'. Duplicate edges are ignored.
func (g *TaskGraph) AddEdge(from, to int) error {
	if from < 0 || from >= len(g.Tasks) || to < 0 || to >= len(g.Tasks) {
		return domain.NewConfigurationError("edge %d->%d references an unknown task", from, to)
	}
	for _, s := range g.Tasks[from].Successors {
		if s == to {
			return nil
		}
	}
	linkTasks(g.Tasks[from], g.Tasks[to])
	return nil
}

func linkTasks(from, to *domain.Task) {
	from.Successors = append(from.Successors, to.ID)
	to.Predecessors = append(to.Predecessors, from.ID)
}

func (g *TaskGraph) Len() int {
	return len(g.Tasks)
}

// Sources are tasks with no predecessors, in id order.
func (g *TaskGraph) Sources() []int {
	var ids []int
	for _, t := range g.Tasks {
		if len(t.Predecessors) == 0 {
			ids = append(ids, t.ID)
		}
	}
	return ids
}

// Sinks are tasks with no successors, in id order.
func (g *TaskGraph) Sinks() []int {
	var ids []int
	for _, t := range g.Tasks {
		if len(t.Successors) == 0 {
			ids = append(ids, t.ID)
		}
	}
	return ids
}

// Chains groups task ids by chain, each group in id order. Only meaningful for
// graphs produced by Build.
func (g *TaskGraph) Chains() map[int][]int {
	chains := map[int][]int{}
	for _, t := range g.Tasks {
		chains[t.Chain] = append(chains[t.Chain], t.ID)
	}
	return chains
}

// TopologicalOrder runs Kahn's algorithm, picking the lowest ready id first so
// the order is deterministic.
func (g *TaskGraph) TopologicalOrder() ([]int, error) {
	inDegree := make([]int, len(g.Tasks))
	for _, t := range g.Tasks {
		inDegree[t.ID] = len(t.Predecessors)
	}

	ready := g.Sources()
	order := make([]int, 0, len(g.Tasks))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)

		var newReady []int
		for _, s := range g.Tasks[id].Successors {
			inDegree[s]--
			if inDegree[s] == 0 {
				newReady = append(newReady, s)
			}
		}
		if len(newReady) > 0 {
			ready = append(ready, newReady...)
			sort.Ints(ready)
		}
	}

	if len(order) != len(g.Tasks) {
		var stuck []int
		for id, d := range inDegree {
			if d > 0 {
				stuck = append(stuck, id)
			}
		}
		return nil, domain.NewCycleDetectedError(stuck)
	}
	return order, nil
}
