package services

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/push"

	"jilai-deployer/internal/models"
)

// Registry holds every deployer metric; served on /metrics and pushed to the pushgateway.
var Registry = prometheus.NewRegistry()

var (
	modulesDeployed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deployer_modules_deployed_total",
			Help: "Modules created on chain",
		},
		[]string{"module"},
	)

	moduleFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deployer_module_failures_total",
			Help: "Module creations that failed",
		},
		[]string{"module"},
	)

	createDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "deployer_module_create_duration_seconds",
			Help:    "Duration of module creation calls, including confirmation waits",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
		},
		[]string{"module"},
	)

	runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deployer_runs_total",
			Help: "Deployment runs by network and final state",
		},
		[]string{"network", "state"},
	)

	requestCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deployer_http_requests_total",
			Help: "Total status API requests",
		},
		[]string{"path"},
	)

	requestErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deployer_http_request_errors_total",
			Help: "Status API requests answered with status >= 400",
		},
		[]string{"path"},
	)

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "deployer_http_request_duration_seconds",
			Help:    "Duration of status API requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path"},
	)
)

// prometheus 不方便读回计数值，本地再维护一份
var (
	totalRequests int64
	totalErrors   int64
)

func init() {
	Registry.MustRegister(modulesDeployed, moduleFailures, createDuration, runsTotal)
	Registry.MustRegister(requestCount, requestErrors, requestDuration)
	Registry.MustRegister(collectors.NewGoCollector())
}

func ObserveModuleCreate(module string, d time.Duration, err error) {
	createDuration.WithLabelValues(module).Observe(d.Seconds())
	if err != nil {
		moduleFailures.WithLabelValues(module).Inc()
		return
	}
	modulesDeployed.WithLabelValues(module).Inc()
}

func ObserveRun(network string, st models.RunState) {
	runsTotal.WithLabelValues(network, string(st)).Inc()
}

func IncrementRequestCount(path string) {
	requestCount.WithLabelValues(path).Inc()
	atomic.AddInt64(&totalRequests, 1)
}

func IncrementErrorCount(path string) {
	requestErrors.WithLabelValues(path).Inc()
	atomic.AddInt64(&totalErrors, 1)
}

func RecordRequestDuration(path string, seconds float64) {
	requestDuration.WithLabelValues(path).Observe(seconds)
}

func GetTotalRequestCount() int64 {
	return atomic.LoadInt64(&totalRequests)
}

func GetTotalErrorCount() int64 {
	return atomic.LoadInt64(&totalErrors)
}

/**
 * Push the deployer metrics to a Prometheus pushgateway
 * @param {string} addr - Pushgateway URL
 * @param {string} job - Job label
 * @param {string} network - Grouping label so runs on different networks do not overwrite each other
 * @returns {error} Push failure
 */
func PushMetrics(addr, job, network string) error {
	if addr == "" {
		return nil
	}
	err := push.New(addr, job).
		Gatherer(Registry).
		Grouping("network", network).
		Push()
	if err != nil {
		return fmt.Errorf("push metrics to %s: %w", addr, err)
	}
	return nil
}
