package cli

/**
implements the command line entry for the run command
*/

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/twitter/heft/common/client"
	"github.com/twitter/heft/scheduler/report"
)

type runCmd struct {
	batchFlags
	algorithm   string
	out         string
	requireLive bool
}

func (c *runCmd) RegisterFlags() *cobra.Command {
	r := &cobra.Command{
		Use:   "run",
		Short: "Schedule the dataset and execute it on the worker nodes",
	}
	c.register(r)
	r.Flags().StringVar(&c.algorithm, "algo", "heft", "Scheduling algorithm (heft|fcfs|rr|shc)")
	r.Flags().StringVar(&c.out, "out", report.DefaultResultFile, "CSV file for per-task results")
	r.Flags().BoolVar(&c.requireLive, "require_live", false, "Abort before dispatch if any node fails its liveness probe")
	return r
}

func (c *runCmd) Run(cl *client.SimpleClient, cmd *cobra.Command, args []string) error {
	e, b, err := c.newEngine(cl, cmd.OutOrStdout(), true, c.requireLive)
	if err != nil {
		return err
	}
	ctx, stop := interruptible()
	defer stop()

	run, err := e.Execute(ctx, b, c.algorithm)
	if err != nil {
		return err
	}
	if run.Metrics.Failed > 0 {
		log.Warnf("%d of %d tasks failed", run.Metrics.Failed, len(run.Results))
	}
	return cantCreate(report.SaveCSV(c.out, *run))
}
