package prometheus

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/fluxorio/threadpool/pkg/core/concurrency"
)

var (
	// DefaultRegistry is the default Prometheus registry
	DefaultRegistry = prometheus.NewRegistry()

	// DefaultRegisterer is the default Prometheus registerer
	DefaultRegisterer = prometheus.WrapRegistererWith(prometheus.Labels{"service": "threadpool"}, DefaultRegistry)

	// Metrics collection
	metricsOnce sync.Once
	metrics     *PoolMetrics
)

var _ concurrency.MetricsRecorder = (*PoolMetrics)(nil)

// PoolMetrics holds the Prometheus metrics of a thread pool. It implements
// concurrency.MetricsRecorder so it can be passed to concurrency.WithMetrics.
type PoolMetrics struct {
	TasksSubmitted prometheus.Counter
	TasksRejected  prometheus.Counter
	TasksFinished  *prometheus.CounterVec   // outcome
	TaskDuration   *prometheus.HistogramVec // outcome
	WorkerTasks    *prometheus.CounterVec   // worker
	QueuedTasks    prometheus.Gauge
	BusyWorkers    prometheus.Gauge
}

// GetMetrics returns the global metrics instance registered on DefaultRegisterer
func GetMetrics() *PoolMetrics {
	metricsOnce.Do(func() {
		metrics = NewPoolMetrics(DefaultRegisterer)
	})
	return metrics
}

// NewPoolMetrics creates the pool metrics on registerer. Registering twice
// on the same registerer panics, as with any promauto collector.
func NewPoolMetrics(registerer prometheus.Registerer) *PoolMetrics {
	if registerer == nil {
		registerer = DefaultRegisterer
	}
	factory := promauto.With(registerer)

	return &PoolMetrics{
		TasksSubmitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "threadpool_tasks_submitted_total",
			Help: "Total number of work items accepted by the pool",
		}),
		TasksRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "threadpool_tasks_rejected_total",
			Help: "Total number of submissions refused because the pool was stopping",
		}),
		TasksFinished: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "threadpool_tasks_finished_total",
			Help: "Total number of work items finished, by outcome",
		}, []string{"outcome"}),
		TaskDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "threadpool_task_duration_seconds",
			Help:    "Work item execution time in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8), // 1ms to ~16s
		}, []string{"outcome"}),
		WorkerTasks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "threadpool_worker_tasks_total",
			Help: "Work items executed per worker",
		}, []string{"worker"}),
		QueuedTasks: factory.NewGauge(prometheus.GaugeOpts{
			Name: "threadpool_queue_depth",
			Help: "Work items in the queue, running ones included",
		}),
		BusyWorkers: factory.NewGauge(prometheus.GaugeOpts{
			Name: "threadpool_busy_workers",
			Help: "Workers currently executing a work item",
		}),
	}
}

// ItemSubmitted implements concurrency.MetricsRecorder
func (m *PoolMetrics) ItemSubmitted() {
	m.TasksSubmitted.Inc()
}

// ItemRejected implements concurrency.MetricsRecorder
func (m *PoolMetrics) ItemRejected() {
	m.TasksRejected.Inc()
}

// ItemStarted implements concurrency.MetricsRecorder
func (m *PoolMetrics) ItemStarted(workerID int) {
	m.BusyWorkers.Inc()
	m.WorkerTasks.WithLabelValues(strconv.Itoa(workerID)).Inc()
}

// ItemFinished implements concurrency.MetricsRecorder
func (m *PoolMetrics) ItemFinished(_ int, outcome concurrency.Outcome, duration time.Duration) {
	m.BusyWorkers.Dec()
	m.TasksFinished.WithLabelValues(string(outcome)).Inc()
	m.TaskDuration.WithLabelValues(string(outcome)).Observe(duration.Seconds())
}

// QueueDepth implements concurrency.MetricsRecorder
func (m *PoolMetrics) QueueDepth(size int) {
	m.QueuedTasks.Set(float64(size))
}
