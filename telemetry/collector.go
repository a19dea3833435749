// Package telemetry exposes the shell's own activity as Prometheus
// metrics, collected on each /metrics scrape rather than pushed.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const namespace = "trifecta"

// ScanOperations and PartitionErrorKinds enumerate the label values each
// counter is pre-initialized with at construction time, per testable
// property 13: Describe/Collect yield a stable descriptor set whether or
// not any scan has run.
var (
	ScanOperations      = []string{"count", "find_one", "find_next", "find_many", "observe"}
	PartitionErrorKinds = []string{"transport", "kafka_code"}
	JobStatuses         = []string{"completed", "cancelled", "failed"}
)

// Collector is a prometheus.Collector exposing scan throughput, partition
// errors, job outcomes and ZK session health. It wraps plain CounterVecs/a
// Gauge rather than computing constant metrics on each scrape, matching the
// logging package's existing promauto-counter idiom rather than introducing
// a second style.
type Collector struct {
	scanMessages     *prometheus.CounterVec
	partitionErrors  *prometheus.CounterVec
	jobs             *prometheus.CounterVec
	zkSessionUp      prometheus.Gauge
	zkSessionUpFunc  func() bool
}

// NewCollector builds a Collector with every counter label value
// pre-initialized to zero. zkSessionUp is sampled via sessionUpFunc on each
// Collect call.
func NewCollector(sessionUpFunc func() bool) *Collector {
	c := &Collector{
		scanMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scan_messages_total",
			Help:      "Messages evaluated by the scan engine, by operation.",
		}, []string{"operation"}),
		partitionErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scan_partition_errors_total",
			Help:      "Partition scan aborts, by error kind.",
		}, []string{"kind"}),
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_total",
			Help:      "Job manager jobs reaching a terminal status.",
		}, []string{"status"}),
		zkSessionUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "zk_session_up",
			Help:      "1 while the ZooKeeper handle reports an established session.",
		}),
		zkSessionUpFunc: sessionUpFunc,
	}

	for _, op := range ScanOperations {
		c.scanMessages.WithLabelValues(op)
	}
	for _, kind := range PartitionErrorKinds {
		c.partitionErrors.WithLabelValues(kind)
	}
	for _, status := range JobStatuses {
		c.jobs.WithLabelValues(status)
	}

	return c
}

// ObserveScanMessages bumps the per-operation scan message counter.
func (c *Collector) ObserveScanMessages(operation string, n int) {
	c.scanMessages.WithLabelValues(operation).Add(float64(n))
}

// ObservePartitionError bumps the per-kind partition error counter.
func (c *Collector) ObservePartitionError(kind string) {
	c.partitionErrors.WithLabelValues(kind).Inc()
}

// ObserveJob bumps the per-status job counter.
func (c *Collector) ObserveJob(status string) {
	c.jobs.WithLabelValues(status).Inc()
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.scanMessages.Describe(ch)
	c.partitionErrors.Describe(ch)
	c.jobs.Describe(ch)
	c.zkSessionUp.Describe(ch)
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	if c.zkSessionUpFunc != nil {
		if c.zkSessionUpFunc() {
			c.zkSessionUp.Set(1)
		} else {
			c.zkSessionUp.Set(0)
		}
	}

	c.scanMessages.Collect(ch)
	c.partitionErrors.Collect(ch)
	c.jobs.Collect(ch)
	c.zkSessionUp.Collect(ch)
}

// Serve does nothing when addr is empty. Otherwise it registers c with the
// default registry (where logging.NewLogger's log-level counters already
// live) and starts the /metrics HTTP server in its own goroutine.
func Serve(addr string, c *Collector, logger *zap.Logger) error {
	if addr == "" {
		return nil
	}
	if err := prometheus.Register(c); err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error("metrics server stopped", zap.Error(err))
		}
	}()
	return nil
}
