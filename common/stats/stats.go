// Package stats provides a small set of instrument interfaces backed by
// go-metrics. A StatsReceiver is passed down the call tree of a run and scoped
// at each level, so the dispatcher, the planner and the worker server all record
// into one registry that the admin endpoint can render.
//
// Names are stored with a '/' path separator. Variadic name elements containing
// '/' have it replaced with "_SLASH_" rather than failing, since some names are
// built from processor ids or algorithm names at runtime.
package stats

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/rcrowley/go-metrics"
	log "github.com/sirupsen/logrus"
)

// Overridable for tests.
var Time Clock = systemClock{}

// Clock defines the calls we make to the stdlib time package.
type Clock interface {
	Now() time.Time
	Since(t time.Time) time.Duration
}

type systemClock struct{}

func (systemClock) Now() time.Time                  { return time.Now() }
func (systemClock) Since(t time.Time) time.Duration { return time.Since(t) }

// FixedClock returns a Clock that always reports now and a fixed elapsed duration.
func FixedClock(now time.Time, since time.Duration) Clock {
	return fixedClock{now, since}
}

type fixedClock struct {
	now   time.Time
	since time.Duration
}

func (c fixedClock) Now() time.Time                { return c.now }
func (c fixedClock) Since(time.Time) time.Duration { return c.since }

// MarshalerPretty is implemented by registries that can indent their output.
type MarshalerPretty interface {
	MarshalJSONPretty() ([]byte, error)
}

// StatsRegistry is the subset of the go-metrics registry we rely on.
type StatsRegistry interface {
	// Gets an existing metric or registers the given one.
	GetOrRegister(string, interface{}) interface{}
	Unregister(string)
	Each(func(string, interface{}))
}

type StatsReceiver interface {
	// Return a stats receiver that will namespace elements with the given scope.
	//
	//   stat.Scope("dispatcher", "proc_1").Counter("failed")  // is equivalent to
	//   stat.Counter("dispatcher", "proc_1", "failed")
	//
	Scope(scope ...string) StatsReceiver

	// Returns a copy whose Latency instruments render in the given precision.
	// Captured data is always nanoseconds. Durations <= 1ns default to ns.
	Precision(time.Duration) StatsReceiver

	Counter(name ...string) Counter
	Latency(name ...string) Latency
	Gauge(name ...string) Gauge
	GaugeFloat(name ...string) GaugeFloat

	Remove(name ...string)

	// Construct a JSON document of every registered instrument.
	Render(pretty bool) []byte
}

// DefaultStatsReceiver returns a receiver backed by a fresh finagle-style registry.
func DefaultStatsReceiver() StatsReceiver {
	return NewStatsReceiver(NewFinagleStatsRegistry())
}

func NewStatsReceiver(reg StatsRegistry) StatsReceiver {
	if reg == nil {
		reg = NewFinagleStatsRegistry()
	}
	return &defaultStatsReceiver{registry: reg, precision: time.Nanosecond}
}

type defaultStatsReceiver struct {
	registry  StatsRegistry
	precision time.Duration
	scope     []string
}

func (s *defaultStatsReceiver) Scope(scope ...string) StatsReceiver {
	return &defaultStatsReceiver{s.registry, s.precision, s.scoped(scope...)}
}

func (s *defaultStatsReceiver) Precision(precision time.Duration) StatsReceiver {
	if precision < 1 {
		precision = 1
	}
	return &defaultStatsReceiver{s.registry, precision, s.scope}
}

func (s *defaultStatsReceiver) Counter(name ...string) Counter {
	return s.registry.GetOrRegister(s.scopedName(name...), newMetricCounter).(Counter)
}

func (s *defaultStatsReceiver) Gauge(name ...string) Gauge {
	return s.registry.GetOrRegister(s.scopedName(name...), newMetricGauge).(Gauge)
}

func (s *defaultStatsReceiver) GaugeFloat(name ...string) GaugeFloat {
	return s.registry.GetOrRegister(s.scopedName(name...), newMetricGaugeFloat).(GaugeFloat)
}

func (s *defaultStatsReceiver) Latency(name ...string) Latency {
	// metrics.Registry can't cast a factory's return value to our interface, so no lazy instantiation here.
	return s.registry.GetOrRegister(s.scopedName(name...), newLatency().Precision(s.precision)).(Latency)
}

func (s *defaultStatsReceiver) Remove(name ...string) {
	s.registry.Unregister(s.scopedName(name...))
}

func (s *defaultStatsReceiver) Render(pretty bool) []byte {
	var err error
	var bytes []byte
	if mp, ok := s.registry.(MarshalerPretty); ok && pretty {
		bytes, err = mp.MarshalJSONPretty()
	} else {
		bytes, err = json.Marshal(s.registry)
	}
	if err != nil {
		log.Errorf("Couldn't render stats registry: %v", err)
		return []byte("{}")
	}
	return bytes
}

// Append to existing scope and scrub slashes.
func (s *defaultStatsReceiver) scoped(scope ...string) []string {
	out := make([]string, 0, len(s.scope)+len(scope))
	out = append(out, s.scope...)
	for _, e := range scope {
		out = append(out, strings.Replace(e, "/", "_SLASH_", -1))
	}
	return out
}

func (s *defaultStatsReceiver) scopedName(scope ...string) string {
	return strings.Join(s.scoped(scope...), "/")
}

// NilStatsReceiver ignores all stats operations.
func NilStatsReceiver(scope ...string) StatsReceiver {
	return &nilStatsReceiver{}
}

type nilStatsReceiver struct{}

func (s *nilStatsReceiver) Scope(scope ...string) StatsReceiver             { return s }
func (s *nilStatsReceiver) Precision(precision time.Duration) StatsReceiver { return s }
func (s *nilStatsReceiver) Counter(name ...string) Counter {
	return &metricCounter{&metrics.NilCounter{}}
}
func (s *nilStatsReceiver) Gauge(name ...string) Gauge {
	return &metricGauge{&metrics.NilGauge{}}
}
func (s *nilStatsReceiver) GaugeFloat(name ...string) GaugeFloat {
	return &metricGaugeFloat{&metrics.NilGaugeFloat64{}}
}
func (s *nilStatsReceiver) Latency(name ...string) Latency { return &nilLatency{} }
func (s *nilStatsReceiver) Remove(name ...string)          {}
func (s *nilStatsReceiver) Render(pretty bool) []byte      { return []byte("{}") }

// Counter
type Counter interface {
	Count() int64
	Inc(int64)
}
type metricCounter struct{ metrics.Counter }

func newMetricCounter() Counter { return &metricCounter{metrics.NewCounter()} }

// Gauge
type Gauge interface {
	Update(int64)
	Value() int64
}
type metricGauge struct{ metrics.Gauge }

func newMetricGauge() Gauge { return &metricGauge{metrics.NewGauge()} }

// GaugeFloat
type GaugeFloat interface {
	Update(float64)
	Value() float64
}
type metricGaugeFloat struct{ metrics.GaugeFloat64 }

func newMetricGaugeFloat() GaugeFloat { return &metricGaugeFloat{metrics.NewGaugeFloat64()} }

// HistogramView is the read side of a latency instrument.
type HistogramView interface {
	Mean() float64
	Count() int64
	Max() int64
	Min() int64
	Sum() int64
	Percentiles(ps []float64) []float64
}

// Latency records callsite durations into a uniform-sample histogram.
//
//   defer stat.Latency(stats.DispatchTaskLatency_ms).Time().Stop()
//
type Latency interface {
	Time() Latency // returns self.
	Stop()
	Record(time.Duration)
	GetPrecision() time.Duration
	Precision(time.Duration) Latency // returns self.
}

type metricLatency struct {
	metrics.Histogram
	start     time.Time
	precision time.Duration
}

func newLatency() Latency {
	return &metricLatency{Histogram: metrics.NewHistogram(metrics.NewUniformSample(1000)), precision: time.Nanosecond}
}

func (l *metricLatency) Time() Latency              { l.start = Time.Now(); return l }
func (l *metricLatency) Stop()                      { l.Update(Time.Since(l.start).Nanoseconds()) }
func (l *metricLatency) Record(d time.Duration)     { l.Update(d.Nanoseconds()) }
func (l *metricLatency) GetPrecision() time.Duration { return l.precision }
func (l *metricLatency) Precision(p time.Duration) Latency {
	if p < 1 {
		p = 1
	}
	l.precision = p
	return l
}

type nilLatency struct{}

func (l *nilLatency) Time() Latency                   { return l }
func (l *nilLatency) Stop()                           {}
func (l *nilLatency) Record(time.Duration)            {}
func (l *nilLatency) GetPrecision() time.Duration     { return 0 }
func (l *nilLatency) Precision(time.Duration) Latency { return l }

//
// Twitter/Finagle style rendering: histograms flatten into name.avg, name.p99 etc.
//
type finagleStatsRegistry struct {
	metrics.Registry
}

func NewFinagleStatsRegistry() StatsRegistry {
	return &finagleStatsRegistry{metrics.NewRegistry()}
}

type jsonMap map[string]interface{}

func (r *finagleStatsRegistry) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.MarshalAll())
}

func (r *finagleStatsRegistry) MarshalJSONPretty() ([]byte, error) {
	return json.MarshalIndent(r.MarshalAll(), "", "  ")
}

func (r *finagleStatsRegistry) MarshalAll() jsonMap {
	data := make(jsonMap)
	r.Each(func(name string, i interface{}) {
		switch stat := i.(type) {
		case Counter:
			data[name] = stat.Count()
		case Gauge:
			data[name] = stat.Value()
		case GaugeFloat:
			data[name] = stat.Value()
		case *metricLatency:
			marshalHistogram(data, name, stat.Histogram.Snapshot(), stat.GetPrecision())
		default:
			log.Info("Unrecognized marshal instrument: ", name, i)
		}
	})
	return data
}

func marshalHistogram(data jsonMap, name string, hist HistogramView, precision time.Duration) {
	f64p := float64(precision)
	i64p := int64(precision)
	data[name+".avg"] = hist.Mean() / f64p
	data[name+".count"] = hist.Count()
	data[name+".max"] = hist.Max() / i64p
	data[name+".min"] = hist.Min() / i64p
	data[name+".sum"] = hist.Sum() / i64p

	pctls := hist.Percentiles(defaultPercentiles)
	for i, pctl := range pctls {
		data[name+"."+defaultPercentileLabels[i]] = pctl / f64p
	}
}

var defaultPercentiles = []float64{0.5, 0.9, 0.99}
var defaultPercentileLabels = []string{"p50", "p90", "p99"}
