package engine

import (
	"bytes"
	"context"
	"errors"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/twitter/heft/common/stats"
	"github.com/twitter/heft/scheduler/config"
	"github.com/twitter/heft/scheduler/domain"
	"github.com/twitter/heft/scheduler/planner"
	"github.com/twitter/heft/worker/fake"
)

// A value-1 task on one core costs 1000 units, 1ms of simulated time.
func testConfig() *config.Config {
	c := config.Simulated(2)
	c.CostScale = 1000
	return c
}

type stubProber map[int]error

func (s stubProber) Probe(ctx context.Context, processors []domain.Processor) map[int]error {
	return s
}

func TestPlanOnly(t *testing.T) {
	console := &bytes.Buffer{}
	e, err := New(testConfig(), nil, nil, Options{Console: console}, nil)
	if err != nil {
		t.Fatal(err)
	}
	b, err := e.Prepare([]int{1, 2, 3, 4})
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, 4, b.Graph.Len())
	assert.Len(t, b.Graph.Chains(), 2)
	assert.NotEmpty(t, b.ID)

	run, err := e.Plan(b, "heft")
	assert.Nil(t, err)
	assert.Nil(t, run.Results)
	assert.Len(t, run.Schedule.Assignments, 4)
	assert.Equal(t, 4, run.Metrics.Succeeded)
	assert.Equal(t, run.Metrics.ScheduledMakespan, run.Metrics.Makespan)

	assert.Contains(t, console.String(), "Upward ranks")
	assert.Contains(t, console.String(), "Schedule (heft)")

	_, err = e.Execute(context.Background(), b, "heft")
	assert.Error(t, err)
}

func TestChainsOption(t *testing.T) {
	e, _ := New(testConfig(), nil, nil, Options{Chains: 1}, nil)
	b, err := e.Prepare([]int{1, 2, 3})
	assert.Nil(t, err)
	assert.Len(t, b.Graph.Sources(), 1)
}

func TestUnknownAlgorithm(t *testing.T) {
	e, _ := New(testConfig(), nil, nil, Options{}, nil)
	b, _ := e.Prepare([]int{1})
	_, err := e.Plan(b, "lottery")
	assert.True(t, domain.IsConfigurationError(err))
}

func TestNewRejectsEmptyConfig(t *testing.T) {
	_, err := New(config.Default(), nil, nil, Options{}, nil)
	assert.True(t, domain.IsConfigurationError(err))
}

func TestExecuteSimulated(t *testing.T) {
	cfg := testConfig()
	stat := stats.DefaultStatsReceiver()
	exec := fake.NewSimExecutor(cfg.CostScale, cfg.CostUnit).FailTask(3)
	e, _ := New(cfg, exec, stubProber{}, Options{}, stat)
	b, _ := e.Prepare([]int{1, 2, 3, 4, 5})

	run, err := e.Execute(context.Background(), b, "heft")
	if assert.Nil(t, err) {
		assert.Len(t, run.Results, 5)
		assert.Equal(t, 4, run.Metrics.Succeeded)
		assert.Equal(t, 1, run.Metrics.Failed)
		assert.Equal(t, domain.Failed, run.Results[3].Status)
		assert.True(t, run.Metrics.Makespan > 0)
	}
	assert.Equal(t, int64(2), stat.Gauge("run", stats.RunLiveProcessorsGauge).Value())
	assert.Equal(t, int64(5), stat.Counter("dispatcher", stats.DispatcherTasksDispatchedCounter).Count())
	assert.Equal(t, int64(5), stat.Counter("planner", "heft", stats.PlannerTasksPlacedCounter).Count())
}

func TestProbeFailure(t *testing.T) {
	cfg := testConfig()
	stat := stats.DefaultStatsReceiver()
	exec := fake.NewSimExecutor(cfg.CostScale, cfg.CostUnit)
	prober := stubProber{1: nil, 2: errors.New("connection refused")}

	e, _ := New(cfg, exec, prober, Options{RequireLive: true}, stat)
	b, _ := e.Prepare([]int{1, 2})
	_, err := e.Execute(context.Background(), b, "heft")
	if assert.Error(t, err) {
		assert.Equal(t, ErrProcessorsUnavailable, pkgerrors.Cause(err))
		assert.Contains(t, err.Error(), "[2]")
	}
	assert.Equal(t, int64(1), stat.Gauge("run", stats.RunLiveProcessorsGauge).Value())
	assert.Empty(t, exec.Started())

	// without RequireLive the run goes ahead
	e, _ = New(cfg, exec, prober, Options{}, stat)
	run, err := e.Execute(context.Background(), b, "heft")
	assert.Nil(t, err)
	assert.Equal(t, 2, run.Metrics.Succeeded)
}

func TestCompare(t *testing.T) {
	cfg := testConfig()
	console := &bytes.Buffer{}
	e, _ := New(cfg, fake.NewSimExecutor(cfg.CostScale, cfg.CostUnit), nil, Options{Console: console}, nil)
	b, _ := e.Prepare([]int{3, 1, 4, 1, 5, 2})

	c, err := e.Compare(context.Background(), b, false)
	assert.Nil(t, err)
	if assert.Len(t, c, len(planner.AlgorithmNames)) {
		for i, name := range planner.AlgorithmNames {
			assert.Equal(t, name, c[i].Algorithm)
			assert.Equal(t, 6, c[i].Metrics.Succeeded)
		}
	}
	assert.Contains(t, console.String(), "Algorithm comparison")

	c, err = e.Compare(context.Background(), b, true)
	assert.Nil(t, err)
	for _, row := range c {
		assert.Equal(t, 6, row.Metrics.Succeeded, row.Algorithm)
		assert.Equal(t, 0, row.Metrics.Failed, row.Algorithm)
	}
}
