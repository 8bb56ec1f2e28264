package metrics

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/twitter/heft/common/stats"
	"github.com/twitter/heft/scheduler/domain"
)

var twoProcs = []domain.Processor{{ID: 2, Cores: 2, Capacity: 1}, {ID: 1, Cores: 1, Capacity: 1}}

func ok(task, proc int, start, finish time.Duration) domain.ExecutionResult {
	return domain.ExecutionResult{
		TaskID: task, ProcessorID: proc, Status: domain.Succeeded, Sent: true,
		ActualStart: start, ActualFinish: finish,
	}
}

func Test_Compute_Utilization(t *testing.T) {
	// planned in microseconds
	s := &domain.Schedule{Assignments: []domain.Assignment{
		{TaskID: 0, ProcessorID: 1, Start: 0, Finish: 4000},
		{TaskID: 1, ProcessorID: 2, Start: 0, Finish: 2000},
		{TaskID: 2, ProcessorID: 2, Start: 2000, Finish: 6000},
	}}
	results := []domain.ExecutionResult{
		ok(0, 1, 1*time.Millisecond, 5*time.Millisecond),
		ok(1, 2, 1*time.Millisecond, 3*time.Millisecond),
		ok(2, 2, 3*time.Millisecond, 9*time.Millisecond),
	}

	m := Compute(s, results, twoProcs, time.Microsecond)

	assert.Equal(t, 8*time.Millisecond, m.Makespan)
	assert.Equal(t, 6*time.Millisecond, m.ScheduledMakespan)
	assert.Equal(t, 2*time.Millisecond, m.Deviation)
	assert.Equal(t, 12*time.Millisecond, m.TotalCPUTime)
	assert.Equal(t, 4*time.Millisecond, m.AvgExecTime)
	// 1ms + 1ms + 1ms late
	assert.Equal(t, 3*time.Millisecond, m.TotalWaitTime)
	// 12 / (2 × 8) × 100
	assert.InDelta(t, 75.0, m.ResourceUtilization, 1e-9)
	assert.InDelta(t, 3/0.008, m.Throughput, 1e-9)
	// busy 4ms and 8ms: mean 6, stddev 2
	assert.InDelta(t, 2.0/6.0, m.ImbalanceDegree, 1e-9)

	assert.Equal(t, []ProcessorMetrics{
		{ID: 1, Tasks: 1, Succeeded: 1, Busy: 4 * time.Millisecond},
		{ID: 2, Tasks: 2, Succeeded: 2, Busy: 8 * time.Millisecond},
	}, m.Processors)
}

func Test_Compute_FailedTasksExcludedFromTimes(t *testing.T) {
	s := &domain.Schedule{Assignments: []domain.Assignment{
		{TaskID: 0, ProcessorID: 1, Start: 0, Finish: 1000},
		{TaskID: 1, ProcessorID: 2, Start: 0, Finish: 1000},
	}}
	results := []domain.ExecutionResult{
		{TaskID: 0, ProcessorID: 1, Status: domain.Failed, Sent: true, ActualStart: 2 * time.Millisecond, FailedAt: 30 * time.Millisecond},
		ok(1, 2, 0, 2*time.Millisecond),
	}

	m := Compute(s, results, twoProcs, time.Microsecond)
	assert.Equal(t, 1, m.Succeeded)
	assert.Equal(t, 1, m.Failed)
	assert.Equal(t, 2*time.Millisecond, m.Makespan)
	assert.Equal(t, 2*time.Millisecond, m.TotalCPUTime)
	assert.Equal(t, 2*time.Millisecond, m.TotalWaitTime)
	assert.Equal(t, 1, m.Processors[0].Failed)
	assert.Equal(t, time.Duration(0), m.Processors[0].Busy)
	// one idle processor: mean 1ms, stddev 1ms
	assert.InDelta(t, 1.0, m.ImbalanceDegree, 1e-9)
}

func Test_Compute_NothingSucceeded(t *testing.T) {
	s := &domain.Schedule{Assignments: []domain.Assignment{{TaskID: 0, ProcessorID: 1, Start: 0, Finish: 10}}}
	results := []domain.ExecutionResult{{TaskID: 0, ProcessorID: 1, Status: domain.Failed}}

	m := Compute(s, results, twoProcs, time.Microsecond)
	assert.Equal(t, time.Duration(0), m.Makespan)
	assert.Equal(t, 0.0, m.Throughput)
	assert.Equal(t, 0.0, m.ResourceUtilization)
	assert.Equal(t, 0.0, m.ImbalanceDegree)
	assert.False(t, math.IsNaN(m.ImbalanceDegree))
}

func Test_FromPlan(t *testing.T) {
	s := &domain.Schedule{Assignments: []domain.Assignment{
		{TaskID: 0, ProcessorID: 1, Start: 0, Finish: 100},
		{TaskID: 1, ProcessorID: 2, Start: 0, Finish: 100},
	}}
	m := FromPlan(s, twoProcs, time.Millisecond)
	assert.Equal(t, 100*time.Millisecond, m.Makespan)
	assert.Equal(t, time.Duration(0), m.Deviation)
	assert.InDelta(t, 100.0, m.ResourceUtilization, 1e-9)
	assert.Equal(t, 0.0, m.ImbalanceDegree)
}

func Test_Publish(t *testing.T) {
	stat := stats.NewStatsReceiver(stats.NewFinagleStatsRegistry())
	m := Metrics{Makespan: 1500 * time.Millisecond, Deviation: -20 * time.Millisecond, ResourceUtilization: 42}
	m.Publish(stat)
	assert.Equal(t, int64(1500), stat.Gauge(stats.RunMakespanGauge_ms).Value())
	assert.Equal(t, int64(-20), stat.Gauge(stats.RunDeviationGauge_ms).Value())
	assert.Equal(t, 42.0, stat.GaugeFloat(stats.RunResourceUtilizationGauge).Value())
}
