package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/twitter/heft/scheduler/metrics"
)

var ComparisonHeader = []string{
	"Algorithm", "Makespan", "Scheduled Makespan", "Deviation", "Throughput",
	"Total CPU Time", "Total Wait Time", "Imbalance Degree", "Resource Utilization",
	"Succeeded", "Failed",
}

// Comparison is one row per algorithm, in the order they ran.
type Comparison []ComparisonRow

type ComparisonRow struct {
	Algorithm string
	Metrics   metrics.Metrics
}

// Best returns the algorithm with the smallest makespan, first one on ties.
func (c Comparison) Best() string {
	best := -1
	for i, row := range c {
		if best < 0 || row.Metrics.Makespan < c[best].Metrics.Makespan {
			best = i
		}
	}
	if best < 0 {
		return ""
	}
	return c[best].Algorithm
}

func (c Comparison) row(r ComparisonRow) []string {
	m := r.Metrics
	return []string{
		r.Algorithm,
		seconds(m.Makespan), seconds(m.ScheduledMakespan), seconds(m.Deviation),
		strconv.FormatFloat(m.Throughput, 'f', 4, 64),
		seconds(m.TotalCPUTime), seconds(m.TotalWaitTime),
		strconv.FormatFloat(m.ImbalanceDegree, 'f', 4, 64),
		strconv.FormatFloat(m.ResourceUtilization, 'f', 2, 64),
		strconv.Itoa(m.Succeeded), strconv.Itoa(m.Failed),
	}
}

func (c Comparison) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ComparisonHeader); err != nil {
		return err
	}
	for _, r := range c {
		if err := cw.Write(c.row(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (c Comparison) SaveCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	if err := c.WriteCSV(f); err != nil {
		f.Close()
		return errors.Wrapf(err, "writing %s", path)
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(err, "closing %s", path)
	}
	log.Infof("Comparison saved to %s", path)
	return nil
}

// Print renders the comparison as a table, the best makespan highlighted.
func (c Comparison) Print(w io.Writer) {
	section(w, "Algorithm comparison")
	best := c.Best()
	tw := table(w)
	fmt.Fprintln(tw, "Algorithm\tMakespan (s)\tThroughput\tImbalance\tUtilization (%)\tFailed")
	for _, r := range c {
		name := r.Algorithm
		if name == best {
			name = good(name + " *")
		}
		m := r.Metrics
		fmt.Fprintf(tw, "%s\t%s\t%.4f\t%.4f\t%.2f\t%d\n", name, seconds(m.Makespan), m.Throughput,
			m.ImbalanceDegree, m.ResourceUtilization, m.Failed)
	}
	tw.Flush()
}
