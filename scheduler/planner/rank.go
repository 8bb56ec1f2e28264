package planner

import (
	"sort"

	"github.com/twitter/heft/scheduler/cost"
	"github.com/twitter/heft/scheduler/domain"
	"github.com/twitter/heft/scheduler/graph"
)

// Ranks holds the upward rank of each task, indexed by task id.
type Ranks []float64

// Rank computes upward ranks:
//
//	rank(t) = avgComp(t)                                    t is a sink
//	rank(t) = avgComp(t) + max over s of (avgComm + rank(s)) otherwise
//
// Tasks are finalized in reverse topological order: a task becomes ready once
// all of its successors are finalized. Anything left unfinalized sits on or
// behind a cycle and is reported as such.
func Rank(g *graph.TaskGraph, model *cost.Model) (Ranks, error) {
	n := g.Len()
	ranks := make(Ranks, n)
	finalized := make([]bool, n)
	pending := make([]int, n)
	avgComm := model.AverageCommunicationCost()

	var ready []int
	for _, t := range g.Tasks {
		pending[t.ID] = len(t.Successors)
		if pending[t.ID] == 0 {
			ready = append(ready, t.ID)
		}
	}

	for len(ready) > 0 {
		id := ready[len(ready)-1]
		ready = ready[:len(ready)-1]
		t := g.Tasks[id]

		longest := 0.0
		for _, s := range t.Successors {
			if v := avgComm + ranks[s]; v > longest {
				longest = v
			}
		}
		ranks[id] = model.AverageComputationCost(t) + longest
		finalized[id] = true

		for _, p := range t.Predecessors {
			pending[p]--
			if pending[p] == 0 {
				ready = append(ready, p)
			}
		}
	}

	var unranked []int
	for id, done := range finalized {
		if !done {
			unranked = append(unranked, id)
		}
	}
	if len(unranked) > 0 {
		return nil, domain.NewCycleDetectedError(unranked)
	}
	return ranks, nil
}

// PriorityOrder lists task ids by descending rank, ties broken by ascending id.
func PriorityOrder(ranks Ranks) []int {
	order := make([]int, len(ranks))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if ranks[a] != ranks[b] {
			return ranks[a] > ranks[b]
		}
		return a < b
	})
	return order
}
