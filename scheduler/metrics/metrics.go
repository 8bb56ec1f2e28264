// Package metrics reconciles a Schedule with the ExecutionResults of running
// it. Everything here is a pure function of its inputs.
package metrics

import (
	"math"
	"time"

	"github.com/twitter/heft/common/stats"
	"github.com/twitter/heft/scheduler/domain"
)

// ProcessorMetrics is the share of a run that landed on one processor.
type ProcessorMetrics struct {
	ID        int
	Tasks     int
	Succeeded int
	Failed    int

	// sum of successful task durations
	Busy time.Duration
}

type Metrics struct {
	Makespan          time.Duration
	ScheduledMakespan time.Duration
	Deviation         time.Duration

	Throughput          float64 // successful tasks per second
	TotalCPUTime        time.Duration
	TotalWaitTime       time.Duration
	AvgExecTime         time.Duration
	ImbalanceDegree     float64
	ResourceUtilization float64 // percent

	Succeeded int
	Failed    int

	// ascending processor id
	Processors []ProcessorMetrics
}

// ToDuration converts cost units to wall time.
func ToDuration(costUnits float64, unit time.Duration) time.Duration {
	return time.Duration(costUnits * float64(unit))
}

// Compute derives run metrics from actual timings. Failed tasks count toward
// Failed and per-processor task counts but have no finish, so they are left out
// of every time-based figure except wait time, which covers every task whose
// remote call was issued.
func Compute(schedule *domain.Schedule, results []domain.ExecutionResult, processors []domain.Processor, unit time.Duration) Metrics {
	m := Metrics{ScheduledMakespan: ToDuration(schedule.Makespan(), unit)}
	perProc, index := newProcessorMetrics(processors)

	var first, last time.Duration
	seen := false
	for _, r := range results {
		pm := lookup(perProc, index, r.ProcessorID)
		if pm != nil {
			pm.Tasks++
		}

		if r.Dispatched() && r.TaskID >= 0 && r.TaskID < len(schedule.Assignments) {
			if wait := r.ActualStart - ToDuration(schedule.Assignments[r.TaskID].Start, unit); wait > 0 {
				m.TotalWaitTime += wait
			}
		}

		if !r.HasFinish() {
			m.Failed++
			if pm != nil {
				pm.Failed++
			}
			continue
		}

		m.Succeeded++
		elapsed := r.Elapsed()
		m.TotalCPUTime += elapsed
		if pm != nil {
			pm.Succeeded++
			pm.Busy += elapsed
		}
		if !seen || r.ActualStart < first {
			first = r.ActualStart
		}
		if !seen || r.ActualFinish > last {
			last = r.ActualFinish
		}
		seen = true
	}

	if seen {
		m.Makespan = last - first
	}
	m.Processors = perProc
	m.finish()
	return m
}

// FromPlan computes the same figures over the plan alone, as if every task ran
// exactly as scheduled.
func FromPlan(schedule *domain.Schedule, processors []domain.Processor, unit time.Duration) Metrics {
	m := Metrics{ScheduledMakespan: ToDuration(schedule.Makespan(), unit)}
	m.Makespan = m.ScheduledMakespan
	perProc, index := newProcessorMetrics(processors)

	for _, a := range schedule.Assignments {
		d := ToDuration(a.Duration(), unit)
		m.Succeeded++
		m.TotalCPUTime += d
		if pm := lookup(perProc, index, a.ProcessorID); pm != nil {
			pm.Tasks++
			pm.Succeeded++
			pm.Busy += d
		}
	}
	m.Processors = perProc
	m.finish()
	return m
}

func (m *Metrics) finish() {
	m.Deviation = m.Makespan - m.ScheduledMakespan
	if m.Makespan > 0 {
		m.Throughput = float64(m.Succeeded) / m.Makespan.Seconds()
	}
	if m.Succeeded > 0 {
		m.AvgExecTime = m.TotalCPUTime / time.Duration(m.Succeeded)
	}
	if n := len(m.Processors); n > 0 && m.Makespan > 0 {
		m.ResourceUtilization = float64(m.TotalCPUTime) / (float64(n) * float64(m.Makespan)) * 100
	}
	m.ImbalanceDegree = imbalance(m.Processors)
}

// imbalance is the population standard deviation of per-processor busy time
// divided by its mean. Idle processors count as zero.
func imbalance(procs []ProcessorMetrics) float64 {
	if len(procs) == 0 {
		return 0
	}
	mean := 0.0
	for _, p := range procs {
		mean += float64(p.Busy)
	}
	mean /= float64(len(procs))
	if mean == 0 {
		return 0
	}
	variance := 0.0
	for _, p := range procs {
		d := float64(p.Busy) - mean
		variance += d * d
	}
	variance /= float64(len(procs))
	return math.Sqrt(variance) / mean
}

func newProcessorMetrics(processors []domain.Processor) ([]ProcessorMetrics, map[int]int) {
	sorted := domain.SortProcessors(processors)
	perProc := make([]ProcessorMetrics, len(sorted))
	index := make(map[int]int, len(sorted))
	for i, p := range sorted {
		perProc[i] = ProcessorMetrics{ID: p.ID}
		index[p.ID] = i
	}
	return perProc, index
}

func lookup(perProc []ProcessorMetrics, index map[int]int, id int) *ProcessorMetrics {
	i, ok := index[id]
	if !ok {
		return nil
	}
	return &perProc[i]
}

// Publish records the metrics as gauges on stat.
func (m Metrics) Publish(stat stats.StatsReceiver) {
	stat.Gauge(stats.RunMakespanGauge_ms).Update(int64(m.Makespan / time.Millisecond))
	stat.Gauge(stats.RunDeviationGauge_ms).Update(int64(m.Deviation / time.Millisecond))
	stat.GaugeFloat(stats.RunThroughputGauge).Update(m.Throughput)
	stat.GaugeFloat(stats.RunResourceUtilizationGauge).Update(m.ResourceUtilization)
	stat.GaugeFloat(stats.RunImbalanceDegreeGauge).Update(m.ImbalanceDegree)
}
