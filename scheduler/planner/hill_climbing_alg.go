package planner

import (
	"math/rand"

	log "github.com/sirupsen/logrus"

	"github.com/twitter/heft/scheduler/cost"
	"github.com/twitter/heft/scheduler/domain"
	"github.com/twitter/heft/scheduler/graph"
)

const (
	DefaultMaxIterations = 1000
	DefaultSeed          = 1
)

// HillClimbingAlg starts from a random task->processor assignment and
// repeatedly moves one random task to a random processor, keeping the move
// when the makespan does not get worse. Results are reproducible for a seed.
type HillClimbingAlg struct {
	MaxIterations int
	Seed          int64
}

func NewHillClimbingAlg(maxIterations int, seed int64) *HillClimbingAlg {
	if maxIterations < 0 {
		maxIterations = 0
	}
	return &HillClimbingAlg{MaxIterations: maxIterations, Seed: seed}
}

func (h *HillClimbingAlg) Name() string {
	return "shc"
}

func (h *HillClimbingAlg) Plan(g *graph.TaskGraph, model *cost.Model) (*domain.Schedule, error) {
	order, err := g.TopologicalOrder()
	if err != nil {
		return nil, err
	}
	processors := model.Processors()
	rng := rand.New(rand.NewSource(h.Seed))

	evaluate := func(choice []int) (*domain.Schedule, error) {
		return appendSchedule(h.Name(), g, model, order, func(_ int, t *domain.Task, _ map[int]float64) int {
			return choice[t.ID]
		})
	}

	current := make([]int, g.Len())
	for i := range current {
		current[i] = processors[rng.Intn(len(processors))].ID
	}
	currentSched, err := evaluate(current)
	if err != nil {
		return nil, err
	}
	best := currentSched
	if g.Len() == 0 {
		return best, nil
	}

	accepted := 0
	for i := 0; i < h.MaxIterations; i++ {
		neighbour := append([]int(nil), current...)
		neighbour[rng.Intn(len(neighbour))] = processors[rng.Intn(len(processors))].ID

		s, err := evaluate(neighbour)
		if err != nil {
			return nil, err
		}
		if s.Makespan() <= currentSched.Makespan() {
			current, currentSched = neighbour, s
			accepted++
			if s.Makespan() < best.Makespan() {
				best = s
			}
		}
	}
	log.Debugf("shc: %d of %d moves accepted, makespan %v", accepted, h.MaxIterations, best.Makespan())
	return best, nil
}
