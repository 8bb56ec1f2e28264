package planner

import (
	log "github.com/sirupsen/logrus"

	"github.com/twitter/heft/common/stats"
	"github.com/twitter/heft/scheduler/cost"
	"github.com/twitter/heft/scheduler/domain"
	"github.com/twitter/heft/scheduler/graph"
)

// HEFTAlg assigns tasks in upward-rank order, each to the processor giving the
// earliest finish time, inserting into idle gaps where the task fits.
type HEFTAlg struct {
	stat stats.StatsReceiver
}

func NewHEFTAlg(stat stats.StatsReceiver) *HEFTAlg {
	if stat == nil {
		stat = stats.NilStatsReceiver()
	}
	return &HEFTAlg{stat: stat}
}

func (h *HEFTAlg) Name() string {
	return "heft"
}

func (h *HEFTAlg) Plan(g *graph.TaskGraph, model *cost.Model) (*domain.Schedule, error) {
	ranks, err := Rank(g, model)
	if err != nil {
		return nil, err
	}
	return h.Assign(g, model, PriorityOrder(ranks))
}

// Assign places tasks in the given priority order. Ties on EFT go to the
// lowest processor id since processors are scanned in ascending id order and
// only a strictly smaller EFT replaces the current best.
func (h *HEFTAlg) Assign(g *graph.TaskGraph, model *cost.Model, order []int) (*domain.Schedule, error) {
	n := g.Len()
	processors := model.Processors()
	tls := newTimelines(processors)
	assigned := make([]domain.Assignment, n)
	placed := make([]bool, n)

	for _, id := range order {
		t := g.Tasks[id]
		var best domain.Assignment
		bestGap := false
		found := false

		for _, p := range processors {
			ready, err := readyTime(t, p.ID, assigned, placed, model)
			if err != nil {
				return nil, err
			}
			c := model.TaskCost(t, p.ID)
			est, gap := tls[p.ID].earliestStart(ready, c)
			eft := est + c
			if !found || eft < best.Finish {
				best = domain.Assignment{TaskID: id, ProcessorID: p.ID, Start: est, Finish: eft}
				bestGap = gap
				found = true
			}
		}

		tls[best.ProcessorID].commit(id, best.Start, best.Finish)
		assigned[id] = best
		placed[id] = true
		if bestGap {
			h.stat.Counter(stats.PlannerInsertedIntoGapCounter).Inc(1)
		}
		log.Debugf("heft: task %d -> processor %d [%v, %v] gap:%t", id, best.ProcessorID, best.Start, best.Finish, bestGap)
	}

	return &domain.Schedule{Algorithm: h.Name(), Assignments: assigned, Order: append([]int(nil), order...)}, nil
}
