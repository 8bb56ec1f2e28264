// Package engine wires a heft run together: dataset values become a task
// graph, the graph is ranked and planned, and the plan is optionally probed,
// dispatched and measured.
package engine

import (
	"context"
	"io"
	"io/ioutil"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/twitter/heft/common"
	"github.com/twitter/heft/common/stats"
	"github.com/twitter/heft/scheduler/config"
	"github.com/twitter/heft/scheduler/cost"
	"github.com/twitter/heft/scheduler/dispatcher"
	"github.com/twitter/heft/scheduler/domain"
	"github.com/twitter/heft/scheduler/graph"
	"github.com/twitter/heft/scheduler/metrics"
	"github.com/twitter/heft/scheduler/planner"
	"github.com/twitter/heft/scheduler/report"
	"github.com/twitter/heft/worker/client"
)

// Returned, wrapped, when RequireLive is set and a processor fails its probe.
var ErrProcessorsUnavailable = errors.New("processors unavailable")

// Prober reports liveness per processor id; a nil error means live.
type Prober interface {
	Probe(ctx context.Context, processors []domain.Processor) map[int]error
}

type Options struct {
	// Number of chains; zero means one per processor.
	Chains int

	// Fail the run when any processor is down instead of dispatching anyway.
	RequireLive bool

	// Where console tables go. Nil discards them.
	Console io.Writer
}

type Engine struct {
	config *config.Config
	model  *cost.Model
	exec   client.Executor
	prober Prober
	opts   Options
	stat   stats.StatsReceiver
}

// New validates the config. exec may be nil for plan-only use, prober may be
// nil to skip liveness checks.
func New(cfg *config.Config, exec client.Executor, prober Prober, opts Options, stat stats.StatsReceiver) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	model, err := cfg.Model()
	if err != nil {
		return nil, err
	}
	if opts.Console == nil {
		opts.Console = ioutil.Discard
	}
	if stat == nil {
		stat = stats.NilStatsReceiver()
	}
	return &Engine{config: cfg, model: model, exec: exec, prober: prober, opts: opts, stat: stat}, nil
}

// Batch is a ranked task graph ready to be planned by any algorithm.
type Batch struct {
	ID    string
	Graph *graph.TaskGraph
	Ranks planner.Ranks
}

// Prepare builds and ranks the graph for values.
func (e *Engine) Prepare(values []int) (*Batch, error) {
	chains := e.opts.Chains
	if chains <= 0 {
		chains = len(e.config.Processors)
	}
	g, err := graph.Build(values, chains, e.model)
	if err != nil {
		return nil, err
	}
	ranks, err := planner.Rank(g, e.model)
	if err != nil {
		return nil, err
	}
	id := common.GenUUID()
	log.WithFields(
		log.Fields{
			"batch":      id,
			"tasks":      g.Len(),
			"chains":     chains,
			"processors": len(e.config.Processors),
		}).Info("Prepared batch")
	report.PrintRanks(e.opts.Console, g, ranks)
	return &Batch{ID: id, Graph: g, Ranks: ranks}, nil
}

// Plan schedules the batch without executing it. Metrics are those of the
// plan itself.
func (e *Engine) Plan(b *Batch, algorithm string) (*report.Run, error) {
	s, err := e.schedule(b, algorithm)
	if err != nil {
		return nil, err
	}
	run := &report.Run{
		Graph:    b.Graph,
		Schedule: s,
		Metrics:  metrics.FromPlan(s, e.config.Processors, e.config.CostUnit),
		CostUnit: e.config.CostUnit,
	}
	report.PrintMetrics(e.opts.Console, run.Metrics)
	return run, nil
}

// Execute plans the batch and dispatches it. Task failures are reported in
// the run, not returned; the error covers planning, probing and a missing
// executor.
func (e *Engine) Execute(ctx context.Context, b *Batch, algorithm string) (*report.Run, error) {
	if e.exec == nil {
		return nil, errors.New("no executor configured")
	}
	s, err := e.schedule(b, algorithm)
	if err != nil {
		return nil, err
	}
	if err := e.probe(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	d := dispatcher.New(e.exec, e.config.DispatcherConfig(), e.stat.Scope("dispatcher"))
	results := d.Dispatch(ctx, s, b.Graph, e.config.Processors)

	m := metrics.Compute(s, results, e.config.Processors, e.config.CostUnit)
	m.Publish(e.stat.Scope("run"))
	log.WithFields(
		log.Fields{
			"batch":     b.ID,
			"algorithm": s.Algorithm,
			"elapsed":   time.Since(start),
			"makespan":  m.Makespan,
			"succeeded": m.Succeeded,
			"failed":    m.Failed,
		}).Info("Run finished")

	report.PrintResults(e.opts.Console, results)
	report.PrintMetrics(e.opts.Console, m)
	return &report.Run{
		Graph:    b.Graph,
		Schedule: s,
		Results:  results,
		Metrics:  m,
		CostUnit: e.config.CostUnit,
	}, nil
}

// Compare plans, and when execute is set runs, the batch with every
// registered algorithm in turn.
func (e *Engine) Compare(ctx context.Context, b *Batch, execute bool) (report.Comparison, error) {
	var c report.Comparison
	for _, name := range planner.AlgorithmNames {
		var run *report.Run
		var err error
		if execute {
			run, err = e.Execute(ctx, b, name)
		} else {
			run, err = e.Plan(b, name)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "comparing %s", name)
		}
		c = append(c, report.ComparisonRow{Algorithm: name, Metrics: run.Metrics})
	}
	c.Print(e.opts.Console)
	return c, nil
}

func (e *Engine) schedule(b *Batch, algorithm string) (*domain.Schedule, error) {
	stat := e.stat.Scope("planner")
	alg, err := planner.NewAlgorithm(algorithm, stat.Scope(algorithm))
	if err != nil {
		return nil, err
	}
	s, err := planner.Plan(alg, b.Graph, e.model, stat)
	if err != nil {
		return nil, err
	}
	report.PrintSchedule(e.opts.Console, b.Graph, s, e.config.CostUnit)
	report.PrintLoads(e.opts.Console, s, e.config.Processors)
	return s, nil
}

func (e *Engine) probe(ctx context.Context) error {
	if e.prober == nil {
		return nil
	}
	probed := e.prober.Probe(ctx, e.config.Processors)
	live := 0
	var down []int
	for _, p := range domain.SortProcessors(e.config.Processors) {
		if probed[p.ID] == nil {
			live++
		} else {
			down = append(down, p.ID)
		}
	}
	e.stat.Scope("run").Gauge(stats.RunLiveProcessorsGauge).Update(int64(live))
	if len(down) == 0 {
		return nil
	}
	if e.opts.RequireLive {
		return errors.Wrapf(ErrProcessorsUnavailable, "processors %v failed the liveness probe", down)
	}
	log.Warnf("Dispatching with %d of %d processors live, tasks on %v will fail", live, len(e.config.Processors), down)
	return nil
}
