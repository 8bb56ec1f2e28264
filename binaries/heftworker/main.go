package main

import (
	"flag"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/twitter/heft/common/endpoints"
	"github.com/twitter/heft/common/log/hooks"
	"github.com/twitter/heft/common/stats"
	"github.com/twitter/heft/worker/server"
)

var port = flag.Int("port", server.DefaultPort, "port to serve task execution on")
var cores = flag.Int("cores", 0, "cores to compute with, 0 for every cpu on the host")
var maxConns = flag.Int("max_conns", 0, "max simultaneous connections, 0 for unlimited")
var httpAddr = flag.String("http_addr", "", "serve /admin/metrics.json on this address")
var logLevel = flag.String("log_level", "info", "Log everything at this level and above (error|info|debug)")

func main() {
	log.AddHook(hooks.NewContextHook())
	flag.Parse()

	level, err := log.ParseLevel(*logLevel)
	if err != nil {
		log.Fatal(err)
	}
	log.SetLevel(level)

	stat := stats.DefaultStatsReceiver().Precision(time.Millisecond)
	if *httpAddr != "" {
		go func() {
			log.Error(endpoints.NewTwitterServer(endpoints.Addr(*httpAddr), stat).Serve())
		}()
	}

	s := server.NewServer(server.Config{
		Addr:     fmt.Sprintf(":%d", *port),
		Cores:    *cores,
		MaxConns: *maxConns,
	}, stat)
	if err := s.Serve(); err != nil {
		log.Fatal("Error serving worker: ", err)
	}
}
