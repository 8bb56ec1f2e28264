package domain

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ConfigurationError is fatal and raised before any scheduling begins: a
// missing or malformed dataset, no processors, an invalid environment.
type ConfigurationError struct {
	msg string
}

func NewConfigurationError(format string, args ...interface{}) error {
	return errors.WithStack(&ConfigurationError{msg: fmt.Sprintf(format, args...)})
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.msg
}

// CycleDetectedError means the task graph handed to the planner is not acyclic.
type CycleDetectedError struct {
	TaskIDs []int // tasks that could not be ordered
}

func NewCycleDetectedError(taskIDs []int) error {
	return errors.WithStack(&CycleDetectedError{TaskIDs: taskIDs})
}

func (e *CycleDetectedError) Error() string {
	ids := make([]string, len(e.TaskIDs))
	for i, id := range e.TaskIDs {
		ids[i] = fmt.Sprint(id)
	}
	return fmt.Sprintf("cycle detected in task graph, unordered tasks: [%s]", strings.Join(ids, ","))
}

// RemoteExecutionError is scoped to a single task and never aborts a run.
type RemoteExecutionError struct {
	TaskID      int
	ProcessorID int
	StatusCode  int // 0 for transport errors and timeouts
	Err         error
}

func (e *RemoteExecutionError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("task %d on processor %d: worker responded %d: %v", e.TaskID, e.ProcessorID, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("task %d on processor %d: %v", e.TaskID, e.ProcessorID, e.Err)
}

func IsConfigurationError(err error) bool {
	_, ok := errors.Cause(err).(*ConfigurationError)
	return ok
}

func IsCycleDetectedError(err error) bool {
	_, ok := errors.Cause(err).(*CycleDetectedError)
	return ok
}
