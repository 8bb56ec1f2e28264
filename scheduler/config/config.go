// Package config loads the processor set and run tunables.
//
// Configuration comes from the environment, optionally seeded from a .env
// file, or from a JSON file. Environment variables:
//
//	VM<n>_IP        host of processor n (n = 1..64); processors without one are skipped
//	VM<n>_PORT      port of processor n, defaults to VM_PORT
//	VM<n>_CORES     core count of processor n, default 1
//	VM<n>_CAPACITY  concurrent in-flight calls to processor n, default 1
//	VM_PORT         default worker port, 5000
//	COMM_COST       communication cost between distinct processors, 1.0
//	COST_SCALE      computation cost scale, 10000
//	TASK_TIMEOUT    per-task remote call timeout, 30s (a bare number is seconds)
//	COST_UNIT       wall time of one cost unit, 1us
//	RATE_LIMIT      max dispatches per second, 0 for unlimited
package config

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/twitter/heft/common"
	"github.com/twitter/heft/scheduler/cost"
	"github.com/twitter/heft/scheduler/dispatcher"
	"github.com/twitter/heft/scheduler/domain"
)

const MaxProcessors = 64
const DefaultPort = common.DefaultWorkerPort
const DefaultCostUnit = time.Microsecond
const DefaultEnvFile = ".env"

// CommOverride sets the cost of sending output from one processor to another.
type CommOverride struct {
	From int
	To   int
	Cost float64
}

// Config is everything a run needs besides the dataset.
type Config struct {
	Processors    []domain.Processor
	CommCost      float64
	CommOverrides []CommOverride
	CostScale     float64
	TaskTimeout   time.Duration
	CostUnit      time.Duration
	RateLimit     float64
}

func Default() *Config {
	return &Config{
		CommCost:    cost.DefaultCommCost,
		CostScale:   cost.DefaultScale,
		TaskTimeout: dispatcher.DefaultTaskTimeout,
		CostUnit:    DefaultCostUnit,
	}
}

// CommMatrix builds the communication matrix from the default cost and overrides.
func (c *Config) CommMatrix() *cost.CommMatrix {
	m := cost.NewCommMatrix(c.CommCost)
	for _, o := range c.CommOverrides {
		m.Set(o.From, o.To, o.Cost)
	}
	return m
}

// Model validates the processors and builds the cost model.
func (c *Config) Model() (*cost.Model, error) {
	return cost.NewModel(c.Processors, c.CostScale, c.CommMatrix())
}

func (c *Config) DispatcherConfig() dispatcher.Config {
	return dispatcher.Config{TaskTimeout: c.TaskTimeout, RateLimit: c.RateLimit}
}

func (c *Config) Validate() error {
	if len(c.Processors) == 0 {
		return domain.NewConfigurationError("no processors configured")
	}
	if c.CostUnit <= 0 {
		return domain.NewConfigurationError("cost unit must be positive, got %v", c.CostUnit)
	}
	if c.TaskTimeout <= 0 {
		return domain.NewConfigurationError("task timeout must be positive, got %v", c.TaskTimeout)
	}
	if c.RateLimit < 0 {
		return domain.NewConfigurationError("rate limit must not be negative, got %v", c.RateLimit)
	}
	_, err := c.Model()
	return err
}

// Load reads configFile when given, otherwise the environment layered over
// envFile. A missing envFile is fine; a missing configFile is not.
func Load(configFile, envFile string) (*Config, error) {
	var c *Config
	var err error
	if configFile != "" {
		data, readErr := ioutil.ReadFile(configFile)
		if readErr != nil {
			return nil, domain.NewConfigurationError("reading config %s: %v", configFile, readErr)
		}
		c, err = FromJSON(data)
	} else {
		var dotEnv map[string]string
		dotEnv, err = readEnvFile(envFile)
		if err != nil {
			return nil, err
		}
		c, err = FromEnv(func(key string) (string, bool) {
			if v, ok := os.LookupEnv(key); ok {
				return v, true
			}
			v, ok := dotEnv[key]
			return v, ok
		})
	}
	if err != nil {
		return nil, err
	}
	log.Debugf("Loaded configuration: %s", spew.Sdump(c))
	return c, nil
}

func readEnvFile(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	} else if err != nil {
		return nil, domain.NewConfigurationError("opening %s: %v", path, err)
	}
	defer f.Close()
	env, err := godotenv.Parse(f)
	if err != nil {
		return nil, domain.NewConfigurationError("parsing %s: %v", path, err)
	}
	log.Infof("Read %d variables from %s", len(env), path)
	return env, nil
}

// FromEnv reads configuration through lookup, normally os.LookupEnv.
func FromEnv(lookup func(string) (string, bool)) (*Config, error) {
	c := Default()
	p := &envParser{lookup: lookup}

	defaultPort := p.int("VM_PORT", DefaultPort)
	for n := 1; n <= MaxProcessors; n++ {
		host, ok := lookup(fmt.Sprintf("VM%d_IP", n))
		if !ok || strings.TrimSpace(host) == "" {
			continue
		}
		c.Processors = append(c.Processors, domain.Processor{
			ID:       n,
			Cores:    p.int(fmt.Sprintf("VM%d_CORES", n), 1),
			Capacity: p.int(fmt.Sprintf("VM%d_CAPACITY", n), 1),
			Endpoint: domain.Endpoint{
				Host: strings.TrimSpace(host),
				Port: p.int(fmt.Sprintf("VM%d_PORT", n), defaultPort),
			},
		})
	}
	c.CommCost = p.float("COMM_COST", c.CommCost)
	c.CostScale = p.float("COST_SCALE", c.CostScale)
	c.TaskTimeout = p.duration("TASK_TIMEOUT", c.TaskTimeout)
	c.CostUnit = p.duration("COST_UNIT", c.CostUnit)
	c.RateLimit = p.float("RATE_LIMIT", c.RateLimit)

	if p.err != nil {
		return nil, p.err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// envParser keeps the first parse error so callers can read every variable
// and check once.
type envParser struct {
	lookup func(string) (string, bool)
	err    error
}

func (p *envParser) get(key string) (string, bool) {
	v, ok := p.lookup(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (p *envParser) fail(key, value, kind string) {
	if p.err == nil {
		p.err = domain.NewConfigurationError("%s=%q is not a valid %s", key, value, kind)
	}
}

func (p *envParser) int(key string, def int) int {
	v, ok := p.get(key)
	if !ok {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		p.fail(key, v, "integer")
		return def
	}
	return i
}

func (p *envParser) float(key string, def float64) float64 {
	v, ok := p.get(key)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.fail(key, v, "number")
		return def
	}
	return f
}

func (p *envParser) duration(key string, def time.Duration) time.Duration {
	v, ok := p.get(key)
	if !ok {
		return def
	}
	d, err := parseDuration(v)
	if err != nil {
		p.fail(key, v, "duration")
		return def
	}
	return d
}

// parseDuration accepts Go durations ("1500ms") and bare seconds ("1.5").
func parseDuration(v string) (time.Duration, error) {
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	return time.ParseDuration(v)
}

// fileConfig is the JSON layout of a config file.
type fileConfig struct {
	Nodes []struct {
		ID       int
		Host     string
		Port     int
		Cores    int
		Capacity int
	}
	CommCost      *float64
	CommOverrides []CommOverride
	CostScale     *float64
	TaskTimeout   string
	CostUnit      string
	RateLimit     float64
}

// FromJSON parses a config file, e.g.
//
//	{
//	  "Nodes": [{"ID": 1, "Host": "10.0.0.1", "Cores": 1}, {"ID": 2, "Host": "10.0.0.2", "Cores": 4}],
//	  "CommCost": 1.0,
//	  "CommOverrides": [{"From": 1, "To": 2, "Cost": 3.5}],
//	  "TaskTimeout": "30s",
//	  "CostUnit": "1us"
//	}
func FromJSON(data []byte) (*Config, error) {
	fc := fileConfig{}
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, domain.NewConfigurationError("parsing config: %v", err)
	}

	c := Default()
	for i, n := range fc.Nodes {
		id := n.ID
		if id == 0 {
			id = i + 1
		}
		port, cores, capacity := n.Port, n.Cores, n.Capacity
		if port == 0 {
			port = DefaultPort
		}
		if cores == 0 {
			cores = 1
		}
		if capacity == 0 {
			capacity = 1
		}
		c.Processors = append(c.Processors, domain.Processor{
			ID:       id,
			Cores:    cores,
			Capacity: capacity,
			Endpoint: domain.Endpoint{Host: n.Host, Port: port},
		})
	}
	if fc.CommCost != nil {
		c.CommCost = *fc.CommCost
	}
	if fc.CostScale != nil {
		c.CostScale = *fc.CostScale
	}
	c.CommOverrides = fc.CommOverrides
	c.RateLimit = fc.RateLimit

	var err error
	if fc.TaskTimeout != "" {
		if c.TaskTimeout, err = parseDuration(fc.TaskTimeout); err != nil {
			return nil, domain.NewConfigurationError("TaskTimeout %q: %v", fc.TaskTimeout, err)
		}
	}
	if fc.CostUnit != "" {
		if c.CostUnit, err = parseDuration(fc.CostUnit); err != nil {
			return nil, domain.NewConfigurationError("CostUnit %q: %v", fc.CostUnit, err)
		}
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Simulated returns a config of n local processors with 1, 2, 4... cores, used
// when no real nodes are involved.
func Simulated(n int) *Config {
	c := Default()
	for i := 1; i <= n; i++ {
		c.Processors = append(c.Processors, domain.Processor{
			ID:       i,
			Cores:    1 << uint((i-1)%4),
			Capacity: 1,
			Endpoint: domain.Endpoint{Host: "127.0.0.1", Port: DefaultPort + i - 1},
		})
	}
	return c
}
