package planner

import (
	"github.com/twitter/heft/scheduler/cost"
	"github.com/twitter/heft/scheduler/domain"
	"github.com/twitter/heft/scheduler/graph"
)

// FCFSAlg hands each task, in arrival order, to whichever processor frees up first.
type FCFSAlg struct{}

func NewFCFSAlg() *FCFSAlg {
	return &FCFSAlg{}
}

func (f *FCFSAlg) Name() string {
	return "fcfs"
}

func (f *FCFSAlg) Plan(g *graph.TaskGraph, model *cost.Model) (*domain.Schedule, error) {
	order, err := g.TopologicalOrder()
	if err != nil {
		return nil, err
	}
	processors := model.Processors()
	return appendSchedule(f.Name(), g, model, order, func(_ int, _ *domain.Task, avail map[int]float64) int {
		pid := processors[0].ID
		for _, p := range processors[1:] {
			if avail[p.ID] < avail[pid] {
				pid = p.ID
			}
		}
		return pid
	})
}
