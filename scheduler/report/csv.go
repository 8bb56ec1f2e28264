// Package report renders schedules, execution results and metrics as CSV files
// and console tables.
package report

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/twitter/heft/scheduler/domain"
	"github.com/twitter/heft/scheduler/graph"
	"github.com/twitter/heft/scheduler/metrics"
)

const DefaultResultFile = "result.csv"
const DefaultComparisonFile = "comparison_summary.csv"

var ResultHeader = []string{
	"Task ID", "Task Value", "Processor ID",
	"Scheduled Start", "Scheduled Finish",
	"Actual Start", "Actual Finish", "Execution Time",
	"Status", "Makespan",
}

// Run is one planned, and possibly executed, batch.
type Run struct {
	Graph    *graph.TaskGraph
	Schedule *domain.Schedule
	Results  []domain.ExecutionResult // nil when the schedule was only planned
	Metrics  metrics.Metrics
	CostUnit time.Duration
}

func seconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 4, 64)
}

// WriteCSV writes one row per task. Times are seconds: scheduled times are
// converted from cost units, actual times are offsets from the dispatch epoch.
// Failed tasks leave the finish and execution time empty.
func WriteCSV(w io.Writer, run Run) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ResultHeader); err != nil {
		return err
	}
	makespan := seconds(run.Metrics.Makespan)

	for _, a := range run.Schedule.Assignments {
		value := ""
		if a.TaskID < run.Graph.Len() {
			value = strconv.Itoa(run.Graph.Tasks[a.TaskID].Index)
		}
		row := []string{
			strconv.Itoa(a.TaskID), value, strconv.Itoa(a.ProcessorID),
			seconds(metrics.ToDuration(a.Start, run.CostUnit)),
			seconds(metrics.ToDuration(a.Finish, run.CostUnit)),
			"", "", "", "Planned", makespan,
		}
		if run.Results != nil && a.TaskID < len(run.Results) {
			r := run.Results[a.TaskID]
			row[8] = r.Status.String()
			if r.Dispatched() {
				row[5] = seconds(r.ActualStart)
			}
			if r.HasFinish() {
				row[6] = seconds(r.ActualFinish)
				row[7] = seconds(r.Elapsed())
			}
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveCSV writes the run to path, replacing any existing file.
func SaveCSV(path string, run Run) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	if err := WriteCSV(f, run); err != nil {
		f.Close()
		return errors.Wrapf(err, "writing %s", path)
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(err, "closing %s", path)
	}
	log.Infof("Results saved to %s", path)
	return nil
}
