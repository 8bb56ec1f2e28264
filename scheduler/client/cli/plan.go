package cli

/**
implements the command line entry for the plan command
*/

import (
	"github.com/spf13/cobra"

	"github.com/twitter/heft/common/client"
	"github.com/twitter/heft/scheduler/report"
)

type planCmd struct {
	batchFlags
	algorithm string
	out       string
}

func (c *planCmd) RegisterFlags() *cobra.Command {
	r := &cobra.Command{
		Use:   "plan",
		Short: "Rank and schedule the dataset without executing it",
	}
	c.register(r)
	r.Flags().StringVar(&c.algorithm, "algo", "heft", "Scheduling algorithm (heft|fcfs|rr|shc)")
	r.Flags().StringVar(&c.out, "out", "", "Also write the planned schedule as CSV to this file")
	return r
}

func (c *planCmd) Run(cl *client.SimpleClient, cmd *cobra.Command, args []string) error {
	e, b, err := c.newEngine(cl, cmd.OutOrStdout(), false, false)
	if err != nil {
		return err
	}
	run, err := e.Plan(b, c.algorithm)
	if err != nil {
		return err
	}
	if c.out != "" {
		return cantCreate(report.SaveCSV(c.out, *run))
	}
	return nil
}
