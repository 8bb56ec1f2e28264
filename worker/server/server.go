// Package server is the worker node service: it burns CPU proportional to a
// task's value and reports how long that took.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/load"
	"github.com/shirou/gopsutil/mem"
	log "github.com/sirupsen/logrus"
	"golang.org/x/net/netutil"
	"golang.org/x/sync/errgroup"

	"github.com/twitter/heft/common"
	"github.com/twitter/heft/common/stats"
	"github.com/twitter/heft/worker/client"
)

const DefaultPort = common.DefaultWorkerPort
const StatsPath = "/stats"

// Iterations per unit of value², matching the planner's default cost scale.
const DefaultScale = 10000

const checkEvery = 1 << 16
const checksumModulus = 1000003

// Config for one worker node. Zero Cores means every logical CPU gopsutil can
// see; zero MaxConns means an unlimited listener.
type Config struct {
	Addr     string
	Cores    int
	MaxConns int
	Scale    int64
}

type Server struct {
	Router *mux.Router

	config  Config
	stat    stats.StatsReceiver
	running int64
}

func NewServer(config Config, stat stats.StatsReceiver) *Server {
	if config.Cores <= 0 {
		config.Cores = DetectCores()
	}
	if config.Scale <= 0 {
		config.Scale = DefaultScale
	}
	s := &Server{
		Router: mux.NewRouter(),
		config: config,
		stat:   stat.Scope("worker"),
	}
	s.Router.HandleFunc(client.ExecutePath, s.executeHandler).Methods(http.MethodPost)
	s.Router.HandleFunc(client.HealthPath, healthHandler).Methods(http.MethodGet)
	s.Router.HandleFunc(StatsPath, s.statsHandler).Methods(http.MethodGet)
	return s
}

// Cores is the parallelism the server computes with.
func (s *Server) Cores() int {
	return s.config.Cores
}

// DetectCores asks gopsutil for the logical CPU count, falling back to the Go
// runtime's view.
func DetectCores() int {
	n, err := cpu.Counts(true)
	if err != nil || n <= 0 {
		log.Infof("Could not count cpus (%v), using GOMAXPROCS", err)
		return runtime.GOMAXPROCS(0)
	}
	return n
}

// NewListener binds the configured address, limiting simultaneous connections
// if MaxConns is set.
func (c Config) NewListener() (net.Listener, error) {
	listener, err := net.Listen("tcp", c.Addr)
	if err != nil {
		return nil, err
	}
	if c.MaxConns > 0 {
		log.Infof("Creating LimitListener with max: %d", c.MaxConns)
		return netutil.LimitListener(listener, c.MaxConns), nil
	}
	return listener, nil
}

// Serve blocks until the listener fails.
func (s *Server) Serve() error {
	listener, err := s.config.NewListener()
	if err != nil {
		return err
	}
	log.Infof("Worker serving on %s with %d cores", listener.Addr(), s.config.Cores)
	return http.Serve(listener, s.Router)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Errorf("Failed writing response: %v", err)
	}
}

func (s *Server) executeHandler(w http.ResponseWriter, r *http.Request) {
	s.stat.Counter(stats.WorkerExecuteRequestCounter).Inc(1)

	req := client.Request{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.stat.Counter(stats.WorkerBadRequestCounter).Inc(1)
		writeJSON(w, http.StatusBadRequest, errorResponse{fmt.Sprintf("decoding body: %v", err)})
		return
	}
	if req.Value <= 0 {
		s.stat.Counter(stats.WorkerBadRequestCounter).Inc(1)
		writeJSON(w, http.StatusBadRequest, errorResponse{fmt.Sprintf("value must be positive, got %d", req.Value)})
		return
	}

	s.stat.Gauge(stats.WorkerRunningGauge).Update(atomic.AddInt64(&s.running, 1))
	defer func() { s.stat.Gauge(stats.WorkerRunningGauge).Update(atomic.AddInt64(&s.running, -1)) }()

	log.Debugf("Executing task %d with value %d", req.TaskID, req.Value)
	start := time.Now()
	result, err := Burn(r.Context(), int64(req.Value)*int64(req.Value)*s.config.Scale, s.config.Cores)
	elapsed := time.Since(start)
	s.stat.Latency(stats.WorkerExecuteLatency_ms).Record(elapsed)
	if err != nil {
		log.Infof("Task %d abandoned after %v: %v", req.TaskID, elapsed, err)
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, client.Response{
		Value:         req.Value,
		Result:        result,
		ExecutionTime: elapsed.Seconds(),
	})
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	fmt.Fprintf(w, "ok")
}

// NodeStats is served on /stats.
type NodeStats struct {
	Cores       int     `json:"cores"`
	Load1       float64 `json:"load1"`
	MemoryTotal uint64  `json:"memory_total"`
	MemoryUsed  float64 `json:"memory_used_percent"`
}

func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	ns := NodeStats{Cores: s.config.Cores}
	if avg, err := load.Avg(); err == nil {
		ns.Load1 = avg.Load1
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		ns.MemoryTotal = vm.Total
		ns.MemoryUsed = vm.UsedPercent
	}
	writeJSON(w, http.StatusOK, ns)
}

// Burn runs n iterations split across workers goroutines and returns a
// checksum that does not depend on the split. It stops early when ctx is done.
func Burn(ctx context.Context, n int64, workers int) (int64, error) {
	if workers <= 0 {
		workers = 1
	}
	if int64(workers) > n {
		workers = int(n)
	}
	if n <= 0 {
		return 0, nil
	}

	sums := make([]int64, workers)
	g, ctx := errgroup.WithContext(ctx)
	chunk := n / int64(workers)
	for i := 0; i < workers; i++ {
		i := i
		from := int64(i) * chunk
		to := from + chunk
		if i == workers-1 {
			to = n
		}
		g.Go(func() error {
			var sum int64
			for j := from; j < to; j++ {
				sum = (sum + (j%checksumModulus)*(j%checksumModulus)) % checksumModulus
				if j%checkEvery == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
			}
			sums[i] = sum
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	var total int64
	for _, sum := range sums {
		total = (total + sum) % checksumModulus
	}
	return total, nil
}
