package main

import (
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/twitter/heft/common/log/hooks"
	"github.com/twitter/heft/scheduler/client/cli"
)

// CLI binary to plan and run a task batch
//	Supported commands: (see "-h" for all options)
//		plan     rank and schedule the dataset
//		run      schedule and execute on the worker nodes
//		compare  every algorithm side by side
//	Global flags:
//		--config [<path> of a JSON cluster config]
//		--env_file [<path> of a .env file, default .env]
//		--log_level [<error|info|debug> level and above should be logged]
//		--http_addr [<host:port> to serve /health and /admin/metrics.json on]

func main() {
	log.AddHook(hooks.NewContextHook())

	cl, err := cli.NewSimpleCLIClient()
	if err != nil {
		log.Fatal("Failed to create heft CLI client: ", err)
	}

	if err := cl.Exec(); err != nil {
		log.Errorf("Error running heft: %v", err)
		os.Exit(int(cli.ExitCode(err)))
	}
}
