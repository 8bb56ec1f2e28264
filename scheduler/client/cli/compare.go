package cli

/**
implements the command line entry for the compare command
*/

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/twitter/heft/common/client"
	"github.com/twitter/heft/scheduler/report"
)

type compareCmd struct {
	batchFlags
	execute bool
	out     string
}

func (c *compareCmd) RegisterFlags() *cobra.Command {
	r := &cobra.Command{
		Use:   "compare",
		Short: "Plan the dataset with every algorithm and compare the results",
	}
	c.register(r)
	r.Flags().BoolVar(&c.execute, "execute", false, "Execute each schedule instead of comparing the plans alone")
	r.Flags().StringVar(&c.out, "out", report.DefaultComparisonFile, "CSV file for the comparison summary")
	return r
}

func (c *compareCmd) Run(cl *client.SimpleClient, cmd *cobra.Command, args []string) error {
	e, b, err := c.newEngine(cl, cmd.OutOrStdout(), c.execute, false)
	if err != nil {
		return err
	}
	ctx, stop := interruptible()
	defer stop()

	comparison, err := e.Compare(ctx, b, c.execute)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\nBest makespan: %s\n", comparison.Best())
	return cantCreate(comparison.SaveCSV(c.out))
}
