package prometheus

import (
	"strconv"
	"time"

	"github.com/turtacn/MolDescriptor/internal/domain/descriptor"
	"github.com/turtacn/MolDescriptor/pkg/errors"
)

// AppMetrics holds all application metrics.
type AppMetrics struct {
	// HTTP
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPActiveRequests  GaugeVec

	// gRPC
	GRPCRequestsTotal   CounterVec
	GRPCRequestDuration HistogramVec

	// Descriptor engine
	DescriptorCalculationsTotal   CounterVec
	DescriptorCalculationDuration HistogramVec
	DescriptorCacheEventsTotal    CounterVec

	// Batch layer
	MoleculeSessionsTotal CounterVec
	BatchDuration         HistogramVec
	BatchSize             HistogramVec

	// Infrastructure
	ResultCacheTotal       CounterVec
	DBQueryDuration        HistogramVec
	MessageProcessDuration HistogramVec
	MessagesTotal          CounterVec

	// System
	HealthCheckStatus GaugeVec
	ErrorsTotal       CounterVec
}

var (
	DefaultHTTPDurationBuckets       = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultDescriptorDurationBuckets = []float64{.00001, .0001, .0005, .001, .005, .01, .05, .1, .5, 1}
	DefaultBatchDurationBuckets      = []float64{.01, .05, .1, .5, 1, 5, 10, 30, 60, 300}
	DefaultBatchSizeBuckets          = []float64{1, 10, 100, 1000, 10000}
	DefaultDBDurationBuckets         = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 5}
)

// NewAppMetrics registers all metrics on collector.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "path")
	m.HTTPActiveRequests = collector.RegisterGauge("http_active_requests", "Active HTTP requests", "method")

	m.GRPCRequestsTotal = collector.RegisterCounter("grpc_requests_total", "Total gRPC requests", "service", "method", "code")
	m.GRPCRequestDuration = collector.RegisterHistogram("grpc_request_duration_seconds", "gRPC request duration", DefaultHTTPDurationBuckets, "service", "method")

	m.DescriptorCalculationsTotal = collector.RegisterCounter("descriptor_calculations_total", "Descriptor Calculate invocations", "descriptor", "status")
	m.DescriptorCalculationDuration = collector.RegisterHistogram("descriptor_calculation_duration_seconds", "Descriptor Calculate duration", DefaultDescriptorDurationBuckets, "descriptor")
	m.DescriptorCacheEventsTotal = collector.RegisterCounter("descriptor_cache_events_total", "Per-molecule cache hits and misses", "event")

	m.MoleculeSessionsTotal = collector.RegisterCounter("molecule_sessions_total", "Molecules calculated", "status")
	m.BatchDuration = collector.RegisterHistogram("batch_duration_seconds", "Batch calculation duration", DefaultBatchDurationBuckets)
	m.BatchSize = collector.RegisterHistogram("batch_size_molecules", "Molecules per batch", DefaultBatchSizeBuckets)

	m.ResultCacheTotal = collector.RegisterCounter("result_cache_total", "Result cache lookups", "result")
	m.DBQueryDuration = collector.RegisterHistogram("db_query_duration_seconds", "Database query duration", DefaultDBDurationBuckets, "operation")
	m.MessageProcessDuration = collector.RegisterHistogram("mq_process_duration_seconds", "Message processing duration", DefaultBatchDurationBuckets, "topic")
	m.MessagesTotal = collector.RegisterCounter("mq_messages_total", "Messages handled", "topic", "status")

	m.HealthCheckStatus = collector.RegisterGauge("health_check_status", "Health check status (1=up, 0=down)", "component")
	m.ErrorsTotal = collector.RegisterCounter("errors_total", "Total errors", "component", "code")

	return m
}

// DescriptorObserver feeds resolver events into m. Labels use the descriptor
// kind so parameterised instances share a series.
func DescriptorObserver(m *AppMetrics) descriptor.Observer {
	return descriptor.Observer{
		OnHit:  func(descriptor.Key) { m.DescriptorCacheEventsTotal.WithLabelValues("hit").Inc() },
		OnMiss: func(descriptor.Key) { m.DescriptorCacheEventsTotal.WithLabelValues("miss").Inc() },
		OnCalculate: func(k descriptor.Key, elapsed time.Duration, err error) {
			m.DescriptorCalculationDuration.WithLabelValues(k.Kind).Observe(elapsed.Seconds())
			m.DescriptorCalculationsTotal.WithLabelValues(k.Kind, status(err)).Inc()
		},
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func RecordHTTPRequest(m *AppMetrics, method, path string, statusCode int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func RecordGRPCRequest(m *AppMetrics, service, method, code string, duration time.Duration) {
	m.GRPCRequestsTotal.WithLabelValues(service, method, code).Inc()
	m.GRPCRequestDuration.WithLabelValues(service, method).Observe(duration.Seconds())
}

// RecordMolecule counts one molecule session by outcome.
func RecordMolecule(m *AppMetrics, err error) {
	m.MoleculeSessionsTotal.WithLabelValues(status(err)).Inc()
	if err != nil {
		RecordError(m, "calculator", err)
	}
}

func RecordBatch(m *AppMetrics, molecules int, duration time.Duration) {
	m.BatchSize.WithLabelValues().Observe(float64(molecules))
	m.BatchDuration.WithLabelValues().Observe(duration.Seconds())
}

func RecordResultCache(m *AppMetrics, hit bool) {
	if hit {
		m.ResultCacheTotal.WithLabelValues("hit").Inc()
		return
	}
	m.ResultCacheTotal.WithLabelValues("miss").Inc()
}

func RecordDBQuery(m *AppMetrics, operation string, duration time.Duration, err error) {
	m.DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		RecordError(m, "postgres", err)
	}
}

func RecordMessage(m *AppMetrics, topic string, duration time.Duration, err error) {
	m.MessageProcessDuration.WithLabelValues(topic).Observe(duration.Seconds())
	m.MessagesTotal.WithLabelValues(topic, status(err)).Inc()
}

// RecordError counts err under its AppError code.
func RecordError(m *AppMetrics, component string, err error) {
	m.ErrorsTotal.WithLabelValues(component, string(errors.GetCode(err))).Inc()
}

func SetHealth(m *AppMetrics, component string, up bool) {
	v := 0.0
	if up {
		v = 1
	}
	m.HealthCheckStatus.WithLabelValues(component).Set(v)
}

//Personal.AI order the ending
