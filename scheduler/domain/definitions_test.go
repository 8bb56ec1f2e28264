package domain

import (
	"fmt"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func Test_Schedule_MakespanAndLoads(t *testing.T) {
	s := &Schedule{
		Assignments: []Assignment{
			{TaskID: 0, ProcessorID: 2, Start: 5, Finish: 9},
			{TaskID: 1, ProcessorID: 1, Start: 0, Finish: 12},
			{TaskID: 2, ProcessorID: 2, Start: 0, Finish: 5},
		},
	}
	assert.Equal(t, 12.0, s.Makespan())

	loads := s.ProcessorLoads()
	assert.Len(t, loads[1], 1)
	if assert.Len(t, loads[2], 2) {
		assert.Equal(t, 2, loads[2][0].TaskID, "loads should be ordered by start time")
		assert.Equal(t, 0, loads[2][1].TaskID)
	}
}

func Test_ExecutionResult_FailedHasNoFinish(t *testing.T) {
	r := ExecutionResult{Status: Failed, Sent: true, ActualStart: time.Second, FailedAt: 2 * time.Second}
	assert.True(t, r.Dispatched())
	assert.False(t, r.HasFinish())
	assert.Equal(t, time.Duration(0), r.Elapsed())

	r = ExecutionResult{Status: Succeeded, ActualStart: time.Second, ActualFinish: 3 * time.Second}
	assert.Equal(t, 2*time.Second, r.Elapsed())
}

func Test_ErrorClassification(t *testing.T) {
	cfgErr := errors.Wrap(NewConfigurationError("no processors configured"), "loading cluster")
	assert.True(t, IsConfigurationError(cfgErr))
	assert.False(t, IsCycleDetectedError(cfgErr))
	assert.Contains(t, cfgErr.Error(), "no processors configured")

	cycleErr := NewCycleDetectedError([]int{3, 4})
	assert.True(t, IsCycleDetectedError(cycleErr))
	assert.Contains(t, cycleErr.Error(), "[3,4]")

	assert.False(t, IsConfigurationError(fmt.Errorf("plain")))
}

func Test_SortProcessors(t *testing.T) {
	procs := []Processor{{ID: 3}, {ID: 1}, {ID: 2}}
	sorted := SortProcessors(procs)
	assert.Equal(t, []int{1, 2, 3}, []int{sorted[0].ID, sorted[1].ID, sorted[2].ID})
	assert.Equal(t, 3, procs[0].ID, "input should not be reordered")
}
