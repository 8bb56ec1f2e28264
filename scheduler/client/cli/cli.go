package cli

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	commoncli "github.com/twitter/heft/common/client"
	"github.com/twitter/heft/common/endpoints"
	exitcodes "github.com/twitter/heft/common/errors"
	"github.com/twitter/heft/common/stats"
	"github.com/twitter/heft/scheduler/config"
	"github.com/twitter/heft/scheduler/dataset"
	"github.com/twitter/heft/scheduler/domain"
	"github.com/twitter/heft/scheduler/engine"
	"github.com/twitter/heft/worker/client"
	"github.com/twitter/heft/worker/fake"
)

// Processors used by --simulate when no nodes are configured.
const DefaultSimulatedProcessors = 4

// HeftCLIClient includes fields required for CLI client handling
type HeftCLIClient struct {
	commoncli.SimpleClient
}

func (c *HeftCLIClient) Exec() error {
	return c.RootCmd.Execute()
}

func NewSimpleCLIClient() (commoncli.CLIClient, error) {
	c := &HeftCLIClient{}
	c.Stat = stats.DefaultStatsReceiver()

	c.RootCmd = &cobra.Command{
		Use:               "heft",
		Short:             "heft plans a batch of chained tasks onto heterogeneous nodes and runs it",
		PersistentPreRunE: c.Init,
		SilenceUsage:      true,
		Run:               func(*cobra.Command, []string) {},
	}
	c.RootCmd.PersistentFlags().StringVar(&c.ConfigFile, "config", "", "JSON cluster config. If unset, nodes come from the environment")
	c.RootCmd.PersistentFlags().StringVar(&c.EnvFile, "env_file", config.DefaultEnvFile, "File of KEY=value lines layered under the process environment")
	c.RootCmd.PersistentFlags().StringVar(&c.LogLevel, "log_level", "info", "Log everything at this level and above (error|info|debug)")
	c.RootCmd.PersistentFlags().StringVar(&c.HttpAddr, "http_addr", "", "Serve /health and /admin/metrics.json on this address during the run")

	c.addCmd(&planCmd{})
	c.addCmd(&runCmd{})
	c.addCmd(&compareCmd{})

	return c, nil
}

// Can only be called from cobra command run or hook
func (c *HeftCLIClient) Init(cmd *cobra.Command, args []string) error {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		log.Error(err)
		return err
	}
	log.SetLevel(level)

	if c.HttpAddr != "" {
		server := endpoints.NewTwitterServer(endpoints.Addr(c.HttpAddr), c.Stat)
		go func() {
			if err := server.Serve(); err != nil && err != http.ErrServerClosed {
				log.Errorf("Admin server stopped: %v", err)
			}
		}()
	}
	return nil
}

func (c *HeftCLIClient) addCmd(cmd commoncli.Cmd) {
	cobraCmd := cmd.RegisterFlags()
	cobraCmd.RunE = func(innerCmd *cobra.Command, args []string) error {
		return cmd.Run(&c.SimpleClient, innerCmd, args)
	}
	c.RootCmd.AddCommand(cobraCmd)
}

// batchFlags are shared by every command that plans a dataset.
type batchFlags struct {
	datasetPath string
	chains      int
	simulate    bool
}

func (f *batchFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.datasetPath, "dataset", dataset.DefaultPath, "File of positive task values, one per line")
	cmd.Flags().IntVar(&f.chains, "chains", 0, "Number of task chains. Defaults to one per processor")
	cmd.Flags().BoolVar(&f.simulate, "simulate", false, "Execute against in-process simulated nodes instead of remote workers")
}

// loadConfig reads the cluster config. When simulating, a missing node list
// falls back to a local simulated cluster.
func (f *batchFlags) loadConfig(cl *commoncli.SimpleClient) (*config.Config, error) {
	cfg, err := config.Load(cl.ConfigFile, cl.EnvFile)
	if err == nil {
		return cfg, nil
	}
	if f.simulate && domain.IsConfigurationError(err) {
		log.Infof("No usable node config (%v), simulating %d processors", err, DefaultSimulatedProcessors)
		return config.Simulated(DefaultSimulatedProcessors), nil
	}
	return nil, err
}

// newEngine loads the config and dataset and prepares a ranked batch. With
// execute unset the engine has no executor and can only plan.
func (f *batchFlags) newEngine(cl *commoncli.SimpleClient, out io.Writer, execute, requireLive bool) (*engine.Engine, *engine.Batch, error) {
	cfg, err := f.loadConfig(cl)
	if err != nil {
		return nil, nil, err
	}
	values, err := dataset.Load(f.datasetPath)
	if err != nil {
		return nil, nil, err
	}

	var exec client.Executor
	var prober engine.Prober
	if execute {
		if f.simulate {
			exec = fake.NewSimExecutor(cfg.CostScale, cfg.CostUnit)
		} else {
			exec = client.NewHTTPExecutor(client.MakePesterClient(client.DefaultHttpTries))
			prober = client.NewProber(nil, client.DefaultProbeTries)
		}
	}

	e, err := engine.New(cfg, exec, prober, engine.Options{
		Chains:      f.chains,
		RequireLive: requireLive,
		Console:     out,
	}, cl.Stat)
	if err != nil {
		return nil, nil, err
	}
	b, err := e.Prepare(values)
	if err != nil {
		return nil, nil, err
	}
	return e, b, nil
}

// interruptible returns a context cancelled by SIGINT, so an interrupted run
// fails the tasks still waiting and still writes its report.
func interruptible() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

// ExitCode maps a command error onto the process exit code.
func ExitCode(err error) exitcodes.ExitCode {
	if err == nil {
		return 0
	}
	if e, ok := err.(*exitcodes.ExitCodeError); ok {
		return e.GetExitCode()
	}
	switch cause := errors.Cause(err); {
	case domain.IsConfigurationError(err):
		return exitcodes.ConfigurationExitCode
	case domain.IsCycleDetectedError(err):
		return exitcodes.DataErrorExitCode
	case cause == engine.ErrProcessorsUnavailable:
		return exitcodes.UnavailableExitCode
	}
	return exitcodes.GenericFailureExitCode
}

func cantCreate(err error) error {
	if err == nil {
		return nil
	}
	return exitcodes.NewError(err, exitcodes.CantCreateExitCode)
}
