package report

import (
	"bytes"
	"encoding/csv"
	"errors"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"github.com/twitter/heft/scheduler/domain"
	"github.com/twitter/heft/scheduler/graph"
	"github.com/twitter/heft/scheduler/metrics"
	"github.com/twitter/heft/scheduler/planner"
)

func init() {
	color.NoColor = true
}

func testRun(t *testing.T) Run {
	tasks := []*domain.Task{{ID: 0, Index: 3}, {ID: 1, Index: 5}}
	g, err := graph.New(tasks)
	if err != nil {
		t.Fatal(err)
	}
	s := &domain.Schedule{
		Algorithm: "heft",
		Order:     []int{1, 0},
		Assignments: []domain.Assignment{
			{TaskID: 0, ProcessorID: 1, Start: 0, Finish: 500000},
			{TaskID: 1, ProcessorID: 2, Start: 0, Finish: 1250000},
		},
	}
	results := []domain.ExecutionResult{
		{TaskID: 0, ProcessorID: 1, Status: domain.Failed, Sent: true, ActualStart: 10 * time.Millisecond, FailedAt: time.Second, Err: errors.New("boom")},
		{TaskID: 1, ProcessorID: 2, Status: domain.Succeeded, Sent: true, ActualStart: 20 * time.Millisecond, ActualFinish: 1270 * time.Millisecond},
	}
	return Run{
		Graph:    g,
		Schedule: s,
		Results:  results,
		Metrics:  metrics.Metrics{Makespan: 1250 * time.Millisecond},
		CostUnit: time.Microsecond,
	}
}

func TestWriteCSV(t *testing.T) {
	buf := &bytes.Buffer{}
	assert.Nil(t, WriteCSV(buf, testRun(t)))

	rows, err := csv.NewReader(buf).ReadAll()
	assert.Nil(t, err)
	if assert.Len(t, rows, 3) {
		assert.Equal(t, ResultHeader, rows[0])
		assert.Equal(t, []string{"0", "3", "1", "0.0000", "0.5000", "0.0100", "", "", "Failed", "1.2500"}, rows[1])
		assert.Equal(t, []string{"1", "5", "2", "0.0000", "1.2500", "0.0200", "1.2700", "1.2500", "Succeeded", "1.2500"}, rows[2])
	}
}

func TestWriteCSVPlanOnly(t *testing.T) {
	run := testRun(t)
	run.Results = nil
	buf := &bytes.Buffer{}
	assert.Nil(t, WriteCSV(buf, run))

	rows, _ := csv.NewReader(buf).ReadAll()
	assert.Equal(t, "Planned", rows[1][8])
	assert.Equal(t, "", rows[1][5])
}

func TestConsole(t *testing.T) {
	run := testRun(t)
	buf := &bytes.Buffer{}
	PrintRanks(buf, run.Graph, planner.Ranks{10, 20})
	PrintSchedule(buf, run.Graph, run.Schedule, run.CostUnit)
	PrintLoads(buf, run.Schedule, []domain.Processor{{ID: 2, Cores: 2}, {ID: 1, Cores: 1}})
	PrintResults(buf, run.Results)
	PrintMetrics(buf, metrics.Compute(run.Schedule, run.Results, []domain.Processor{{ID: 1}, {ID: 2}}, run.CostUnit))

	out := buf.String()
	assert.Contains(t, out, "Upward ranks")
	assert.Contains(t, out, "Schedule (heft)")
	assert.Contains(t, out, "Processor loads")
	assert.Contains(t, out, "FAILED task 0")
	assert.Contains(t, out, "Resource utilization")
	assert.Regexp(t, `Succeeded / failed\s+1 / 1`, out)
}

func TestComparison(t *testing.T) {
	c := Comparison{
		{Algorithm: "heft", Metrics: metrics.Metrics{Makespan: 2 * time.Second, Succeeded: 4}},
		{Algorithm: "rr", Metrics: metrics.Metrics{Makespan: 3 * time.Second, Succeeded: 4}},
		{Algorithm: "fcfs", Metrics: metrics.Metrics{Makespan: 2 * time.Second, Succeeded: 4}},
	}
	assert.Equal(t, "heft", c.Best())
	assert.Equal(t, "", Comparison{}.Best())

	buf := &bytes.Buffer{}
	assert.Nil(t, c.WriteCSV(buf))
	rows, err := csv.NewReader(buf).ReadAll()
	assert.Nil(t, err)
	assert.Len(t, rows, 4)
	assert.Equal(t, "rr", rows[2][0])
	assert.Equal(t, "3.0000", rows[2][1])

	buf.Reset()
	c.Print(buf)
	assert.Contains(t, buf.String(), "heft *")
}
