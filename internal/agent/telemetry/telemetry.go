package telemetry

import (
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Telemetry tracks research run and operation metrics.
type Telemetry struct {
	mu      sync.RWMutex
	logger  *log.Logger
	enabled bool

	runs       int64
	runErrors  int64
	opCalls    map[string]int64
	opErrors   map[string]int64
	opDuration map[string]time.Duration

	stopCh chan struct{}
}

var (
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketscout_research_runs_total",
		Help: "Total research runs processed, by outcome.",
	}, []string{"outcome"})
	operationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketscout_operations_total",
		Help: "Total operation executions, by operation and outcome.",
	}, []string{"operation", "outcome"})
	operationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "marketscout_operation_duration_seconds",
		Help:    "Operation execution latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	runSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "marketscout_research_run_duration_seconds",
		Help:    "End to end research run latency.",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
	})
)

// NewTelemetry creates a telemetry tracker. When periodicLogs is true a
// background goroutine logs a metrics summary every minute until Stop.
func NewTelemetry(enabled bool, periodicLogs bool, logger *log.Logger) *Telemetry {
	if logger == nil {
		logger = log.New(log.Writer(), "[TELEMETRY] ", log.LstdFlags)
	}
	t := &Telemetry{
		logger:     logger,
		enabled:    enabled,
		opCalls:    map[string]int64{},
		opErrors:   map[string]int64{},
		opDuration: map[string]time.Duration{},
		stopCh:     make(chan struct{}),
	}
	if enabled && periodicLogs {
		go t.periodicLog()
	}
	return t
}

func (t *Telemetry) periodicLog() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-t.stopCh:
			return
		case <-ticker.C:
			s := t.Snapshot()
			t.logger.Printf("runs=%d errors=%d operations=%d", s.Runs, s.RunErrors, s.OperationCalls)
		}
	}
}

// RecordRun records a completed research run.
func (t *Telemetry) RecordRun(duration time.Duration, success bool) {
	if !t.enabled {
		return
	}
	t.mu.Lock()
	t.runs++
	if !success {
		t.runErrors++
	}
	t.mu.Unlock()

	outcome := "success"
	if !success {
		outcome = "error"
	}
	runsTotal.WithLabelValues(outcome).Inc()
	runSeconds.Observe(duration.Seconds())
}

// RecordOperation records a single operation execution within a run.
func (t *Telemetry) RecordOperation(name string, duration time.Duration, success bool) {
	if !t.enabled {
		return
	}
	t.mu.Lock()
	t.opCalls[name]++
	t.opDuration[name] += duration
	if !success {
		t.opErrors[name]++
	}
	t.mu.Unlock()

	outcome := "success"
	if !success {
		outcome = "error"
	}
	operationsTotal.WithLabelValues(name, outcome).Inc()
	operationSeconds.WithLabelValues(name).Observe(duration.Seconds())
}

// Snapshot is a point in time view of the collected counters.
type Snapshot struct {
	Runs           int64                    `json:"runs"`
	RunErrors      int64                    `json:"run_errors"`
	OperationCalls int64                    `json:"operation_calls"`
	PerOperation   map[string]OperationStat `json:"per_operation"`
}

// OperationStat aggregates stats for one operation.
type OperationStat struct {
	Calls       int64         `json:"calls"`
	Errors      int64         `json:"errors"`
	TotalTime   time.Duration `json:"total_time"`
	AverageTime time.Duration `json:"average_time"`
}

// Snapshot returns a copy of the current counters.
func (t *Telemetry) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s := Snapshot{
		Runs:         t.runs,
		RunErrors:    t.runErrors,
		PerOperation: make(map[string]OperationStat, len(t.opCalls)),
	}
	for name, calls := range t.opCalls {
		stat := OperationStat{
			Calls:     calls,
			Errors:    t.opErrors[name],
			TotalTime: t.opDuration[name],
		}
		if calls > 0 {
			stat.AverageTime = stat.TotalTime / time.Duration(calls)
		}
		s.PerOperation[name] = stat
		s.OperationCalls += calls
	}
	return s
}

// Stop terminates the periodic log goroutine, if running.
func (t *Telemetry) Stop() {
	close(t.stopCh)
}
