package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"github.com/twitter/heft/scheduler/domain"
	"github.com/twitter/heft/scheduler/graph"
	"github.com/twitter/heft/scheduler/metrics"
	"github.com/twitter/heft/scheduler/planner"
)

var (
	header = color.New(color.Bold, color.FgCyan).SprintFunc()
	good   = color.New(color.FgGreen).SprintFunc()
	bad    = color.New(color.Bold, color.FgRed).SprintFunc()
	dim    = color.New(color.Faint).SprintFunc()
)

func section(w io.Writer, title string) {
	fmt.Fprintf(w, "\n%s\n%s\n", header(title), dim(strings.Repeat("-", len(title))))
}

func table(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

// PrintRanks lists tasks in priority order.
func PrintRanks(w io.Writer, g *graph.TaskGraph, ranks planner.Ranks) {
	section(w, "Upward ranks")
	tw := table(w)
	fmt.Fprintln(tw, "Task\tValue\tChain\tRank")
	for _, id := range planner.PriorityOrder(ranks) {
		t := g.Tasks[id]
		fmt.Fprintf(tw, "%d\t%d\t%d\t%.2f\n", t.ID, t.Index, t.Chain, ranks[id])
	}
	tw.Flush()
}

// PrintSchedule lists assignments in commit order with times in seconds.
func PrintSchedule(w io.Writer, g *graph.TaskGraph, s *domain.Schedule, unit time.Duration) {
	section(w, fmt.Sprintf("Schedule (%s)", s.Algorithm))
	tw := table(w)
	fmt.Fprintln(tw, "Task\tValue\tProcessor\tStart\tFinish")
	order := s.Order
	if len(order) != len(s.Assignments) {
		order = make([]int, len(s.Assignments))
		for i := range order {
			order[i] = i
		}
	}
	for _, id := range order {
		a := s.Assignments[id]
		fmt.Fprintf(tw, "%d\t%d\t%d\t%s\t%s\n", a.TaskID, g.Tasks[id].Index, a.ProcessorID,
			seconds(metrics.ToDuration(a.Start, unit)), seconds(metrics.ToDuration(a.Finish, unit)))
	}
	tw.Flush()
}

// PrintLoads shows which tasks each processor runs, in start order.
func PrintLoads(w io.Writer, s *domain.Schedule, processors []domain.Processor) {
	section(w, "Processor loads")
	loads := s.ProcessorLoads()
	tw := table(w)
	fmt.Fprintln(tw, "Processor\tCores\tTasks\tTask IDs")
	for _, p := range domain.SortProcessors(processors) {
		ids := make([]string, len(loads[p.ID]))
		for i, a := range loads[p.ID] {
			ids[i] = fmt.Sprint(a.TaskID)
		}
		fmt.Fprintf(tw, "%d\t%d\t%d\t%s\n", p.ID, p.Cores, len(ids), strings.Join(ids, ","))
	}
	tw.Flush()
}

// PrintResults lists execution outcomes, failures flagged.
func PrintResults(w io.Writer, results []domain.ExecutionResult) {
	section(w, "Execution")
	tw := table(w)
	fmt.Fprintln(tw, "Task\tProcessor\tStatus\tStart\tFinish\tElapsed")
	for _, r := range results {
		status := good(r.Status.String())
		finish, elapsed := "-", "-"
		if r.HasFinish() {
			finish, elapsed = seconds(r.ActualFinish), seconds(r.Elapsed())
		} else {
			status = bad(r.Status.String())
		}
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\t%s\n", r.TaskID, r.ProcessorID, status, seconds(r.ActualStart), finish, elapsed)
	}
	tw.Flush()
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(w, "%s task %d: %v\n", bad("FAILED"), r.TaskID, r.Err)
		}
	}
}

// PrintMetrics prints the run metrics and a per-processor breakdown.
func PrintMetrics(w io.Writer, m metrics.Metrics) {
	section(w, "Metrics")
	tw := table(w)
	fmt.Fprintf(tw, "Makespan\t%s s\n", seconds(m.Makespan))
	fmt.Fprintf(tw, "Scheduled makespan\t%s s\n", seconds(m.ScheduledMakespan))
	fmt.Fprintf(tw, "Deviation\t%s s\n", seconds(m.Deviation))
	fmt.Fprintf(tw, "Throughput\t%.4f tasks/s\n", m.Throughput)
	fmt.Fprintf(tw, "Total CPU time\t%s s\n", seconds(m.TotalCPUTime))
	fmt.Fprintf(tw, "Total wait time\t%s s\n", seconds(m.TotalWaitTime))
	fmt.Fprintf(tw, "Average execution time\t%s s\n", seconds(m.AvgExecTime))
	fmt.Fprintf(tw, "Imbalance degree\t%.4f\n", m.ImbalanceDegree)
	fmt.Fprintf(tw, "Resource utilization\t%.2f %%\n", m.ResourceUtilization)
	failed := fmt.Sprint(m.Failed)
	if m.Failed > 0 {
		failed = bad(failed)
	}
	fmt.Fprintf(tw, "Succeeded / failed\t%d / %s\n", m.Succeeded, failed)
	tw.Flush()

	procs := append([]metrics.ProcessorMetrics(nil), m.Processors...)
	sort.Slice(procs, func(i, j int) bool { return procs[i].ID < procs[j].ID })
	tw = table(w)
	fmt.Fprintln(tw, "\nProcessor\tTasks\tFailed\tBusy")
	for _, p := range procs {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%s s\n", p.ID, p.Tasks, p.Failed, seconds(p.Busy))
	}
	tw.Flush()
}
