package planner

import (
	"github.com/twitter/heft/scheduler/cost"
	"github.com/twitter/heft/scheduler/domain"
	"github.com/twitter/heft/scheduler/graph"
)

// RoundRobinAlg cycles through processors in id order regardless of cost.
type RoundRobinAlg struct{}

func NewRoundRobinAlg() *RoundRobinAlg {
	return &RoundRobinAlg{}
}

func (r *RoundRobinAlg) Name() string {
	return "rr"
}

func (r *RoundRobinAlg) Plan(g *graph.TaskGraph, model *cost.Model) (*domain.Schedule, error) {
	order, err := g.TopologicalOrder()
	if err != nil {
		return nil, err
	}
	processors := model.Processors()
	return appendSchedule(r.Name(), g, model, order, func(pos int, _ *domain.Task, _ map[int]float64) int {
		return processors[pos%len(processors)].ID
	})
}
