// Package client holds the pieces shared by heft command-line clients: the
// root command's persistent settings and the interface each subcommand
// implements.
package client

import (
	"github.com/spf13/cobra"

	"github.com/twitter/heft/common/stats"
)

// Client interface that includes CLI handling
type CLIClient interface {
	Exec() error
}

// SimpleClient includes base fields required for implementing client
type SimpleClient struct {
	RootCmd    *cobra.Command
	ConfigFile string
	EnvFile    string
	LogLevel   string
	HttpAddr   string
	Stat       stats.StatsReceiver
}

// Command interface used to run client commands
type Cmd interface {
	RegisterFlags() *cobra.Command
	Run(cl *SimpleClient, cmd *cobra.Command, args []string) error
}
