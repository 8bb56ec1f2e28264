// Package planner turns a task graph into a static Schedule.
//
// HEFT is the primary algorithm. FCFS, round robin and stochastic hill
// climbing are kept as baselines for comparison runs; every algorithm yields
// schedules that honour task precedence and communication delays so any of
// them can be dispatched.
package planner

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/twitter/heft/common/stats"
	"github.com/twitter/heft/scheduler/cost"
	"github.com/twitter/heft/scheduler/domain"
	"github.com/twitter/heft/scheduler/graph"
)

// A predecessor had no committed assignment when its successor was placed.
// Unreachable when every task cost is positive.
var ErrUnscheduledPredecessor = errors.New("predecessor not yet scheduled")

type Algorithm interface {
	Name() string
	Plan(g *graph.TaskGraph, model *cost.Model) (*domain.Schedule, error)
}

// AlgorithmNames is the order comparison runs report algorithms in.
var AlgorithmNames = []string{"heft", "fcfs", "rr", "shc"}

// Algorithms constructs each registered algorithm by name.
var Algorithms = map[string]func(stat stats.StatsReceiver) Algorithm{
	"heft": func(stat stats.StatsReceiver) Algorithm { return NewHEFTAlg(stat) },
	"fcfs": func(stats.StatsReceiver) Algorithm { return NewFCFSAlg() },
	"rr":   func(stats.StatsReceiver) Algorithm { return NewRoundRobinAlg() },
	"shc": func(stats.StatsReceiver) Algorithm {
		return NewHillClimbingAlg(DefaultMaxIterations, DefaultSeed)
	},
}

// NewAlgorithm looks up an algorithm by name.
func NewAlgorithm(name string, stat stats.StatsReceiver) (Algorithm, error) {
	ctor, ok := Algorithms[strings.ToLower(name)]
	if !ok {
		return nil, domain.NewConfigurationError("unknown algorithm %q, expected one of %v", name, AlgorithmNames)
	}
	if stat == nil {
		stat = stats.NilStatsReceiver()
	}
	return ctor(stat), nil
}

// Plan runs alg and records planning stats under the algorithm's scope.
func Plan(alg Algorithm, g *graph.TaskGraph, model *cost.Model, stat stats.StatsReceiver) (*domain.Schedule, error) {
	if stat == nil {
		stat = stats.NilStatsReceiver()
	}
	stat = stat.Scope(alg.Name())
	defer stat.Latency(stats.PlannerPlanLatency_ms).Time().Stop()

	s, err := alg.Plan(g, model)
	if err != nil {
		return nil, errors.Wrapf(err, "%s planning failed", alg.Name())
	}
	stat.Counter(stats.PlannerTasksPlacedCounter).Inc(int64(len(s.Assignments)))
	stat.GaugeFloat(stats.PlannerScheduledMakespanGauge).Update(s.Makespan())
	log.WithFields(
		log.Fields{
			"algorithm": alg.Name(),
			"tasks":     len(s.Assignments),
			"makespan":  s.Makespan(),
		}).Info("Planned schedule")
	return s, nil
}

// readyTime is the earliest moment every predecessor's output can be on
// processorID: each predecessor's finish plus the communication cost from
// where it ran, zero when it ran on the same processor.
func readyTime(t *domain.Task, processorID int, assigned []domain.Assignment, placed []bool, model *cost.Model) (float64, error) {
	ready := 0.0
	for _, p := range t.Predecessors {
		if !placed[p] {
			return 0, errors.Wrap(ErrUnscheduledPredecessor, fmt.Sprintf("task %d waiting on task %d", t.ID, p))
		}
		a := assigned[p]
		if v := a.Finish + model.CommunicationCost(a.ProcessorID, processorID); v > ready {
			ready = v
		}
	}
	return ready, nil
}

// appendSchedule places tasks in the given order, each after the last task
// already on its processor, using the processor chosen by pick. Baselines
// share it so their plans respect precedence the same way HEFT's do.
func appendSchedule(name string, g *graph.TaskGraph, model *cost.Model, order []int,
	pick func(pos int, t *domain.Task, avail map[int]float64) int) (*domain.Schedule, error) {
	n := g.Len()
	assigned := make([]domain.Assignment, n)
	placed := make([]bool, n)
	avail := map[int]float64{}
	for _, p := range model.Processors() {
		avail[p.ID] = 0
	}

	for pos, id := range order {
		t := g.Tasks[id]
		pid := pick(pos, t, avail)
		ready, err := readyTime(t, pid, assigned, placed, model)
		if err != nil {
			return nil, err
		}
		start := avail[pid]
		if ready > start {
			start = ready
		}
		finish := start + model.TaskCost(t, pid)
		assigned[id] = domain.Assignment{TaskID: id, ProcessorID: pid, Start: start, Finish: finish}
		placed[id] = true
		avail[pid] = finish
	}
	return &domain.Schedule{Algorithm: name, Assignments: assigned, Order: append([]int(nil), order...)}, nil
}
