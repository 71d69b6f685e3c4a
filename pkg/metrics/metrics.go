// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-sss.
//
// go-sss is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package metrics provides Prometheus instrumentation for go-sss operations.
// It exposes split/combine counters, latency histograms, error counters, and
// resource gauges for the sss-server process.
package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Namespace is the Prometheus namespace for all go-sss metrics
	Namespace = "sss"

	// Label names
	LabelOperation  = "operation"
	LabelSource     = "source"
	LabelStatus     = "status"
	LabelErrorType  = "error_type"
	LabelProtocol   = "protocol"
	LabelMethod     = "method"
	LabelStatusCode = "status_code"
	LabelFormat     = "format"
	LabelRoute      = "route"
	LabelAlgorithm  = "algorithm"
	LabelProbe      = "probe"

	// Status values
	StatusSuccess = "success"
	StatusError   = "error"

	// Operation names
	OpSplit   = "split"
	OpCombine = "combine"
	OpVerify  = "verify"
	OpEncode  = "encode"
	OpDecode  = "decode"
	OpEncrypt = "encrypt"
	OpDecrypt = "decrypt"
	OpStore   = "store"
	OpLoad    = "load"

	// Source values identify the surface that invoked an operation
	SourceLibrary = "library"
	SourceCLI     = "cli"
	SourceREST    = "rest"
)

var (
	// OperationsTotal tracks the total number of operations by type, source, and status.
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "operations_total",
			Help:      "Total number of secret sharing operations by type, source, and status",
		},
		[]string{LabelOperation, LabelSource, LabelStatus},
	)

	// OperationDuration tracks the duration of operations in seconds.
	// Split and combine are CPU bound and finish in microseconds for typical
	// key-sized secrets.
	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of secret sharing operations in seconds",
			Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		},
		[]string{LabelOperation, LabelSource},
	)

	// ErrorsTotal tracks errors by operation, source, and error type.
	// Error types are short identifiers such as "validation" or "random".
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "errors_total",
			Help:      "Total number of errors by operation, source, and error type",
		},
		[]string{LabelOperation, LabelSource, LabelErrorType},
	)

	// SecretBytesTotal counts secret bytes split or recovered.
	SecretBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "secret_bytes_total",
			Help:      "Total number of secret bytes processed by operation",
		},
		[]string{LabelOperation},
	)

	// SharesTotal counts shares produced by split or consumed by combine.
	SharesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "shares_total",
			Help:      "Total number of shares produced or consumed by operation",
		},
		[]string{LabelOperation},
	)

	// CodecOperationsTotal counts share encode/decode calls by format.
	CodecOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "codec_operations_total",
			Help:      "Total number of share encode and decode calls by format and status",
		},
		[]string{LabelOperation, LabelFormat, LabelStatus},
	)

	// ActiveConnections tracks the number of in-flight requests by protocol.
	ActiveConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "active_connections",
			Help:      "Number of active connections by protocol",
		},
		[]string{LabelProtocol},
	)

	// HTTPRequestsTotal tracks HTTP requests by method, route pattern, and
	// status code. Unmatched requests carry the route "unmatched".
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, route, and status code",
		},
		[]string{LabelMethod, LabelRoute, LabelStatusCode},
	)

	// HTTPRequestDuration tracks the duration of HTTP requests in seconds.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{LabelMethod, LabelRoute},
	)

	// HTTPResponseBytes counts response body bytes by route.
	HTTPResponseBytes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "http",
			Name:      "response_bytes_total",
			Help:      "Total number of HTTP response body bytes by route",
		},
		[]string{LabelRoute},
	)

	// CipherEncryptedBytes is the plaintext volume sealed under the share key.
	CipherEncryptedBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "cipher",
			Name:      "encrypted_bytes",
			Help:      "Plaintext bytes encrypted under the configured share key",
		},
		[]string{LabelAlgorithm},
	)

	// CipherRemainingBytes is the plaintext volume left before the share key
	// reaches its usage limit.
	CipherRemainingBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "cipher",
			Name:      "remaining_bytes",
			Help:      "Plaintext bytes left before the share key usage limit",
		},
		[]string{LabelAlgorithm},
	)

	// CollectorErrorsTotal counts failed collector probes.
	CollectorErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "collector",
			Name:      "errors_total",
			Help:      "Total number of failed collector probes",
		},
		[]string{LabelProbe},
	)

	// StoredShareSets tracks the number of share sets held by the storage backend.
	StoredShareSets = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "stored_share_sets",
			Help:      "Number of share sets persisted in each storage backend",
		},
		[]string{"backend"},
	)

	// Goroutines tracks the current number of goroutines.
	// Updated periodically by the resource collector.
	Goroutines = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "goroutines",
			Help:      "Current number of goroutines",
		},
	)

	// MemoryAllocBytes tracks the current bytes of allocated heap objects.
	MemoryAllocBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "memory_alloc_bytes",
			Help:      "Current bytes of allocated heap objects",
		},
	)

	// ServerUptime tracks the server uptime in seconds since startup.
	ServerUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "server_uptime_seconds",
			Help:      "Server uptime in seconds since startup",
		},
	)

	enabled atomic.Bool
)

func init() {
	enabled.Store(true)
}

// RecordOperation records an operation with its duration and status.
//
// Example:
//
//	start := time.Now()
//	shares, err := secretsharing.Split(secret, cfg)
//	status := metrics.StatusSuccess
//	if err != nil {
//	    status = metrics.StatusError
//	}
//	metrics.RecordOperation(metrics.OpSplit, metrics.SourceCLI, status, time.Since(start).Seconds())
func RecordOperation(operation, source, status string, duration float64) {
	if !enabled.Load() {
		return
	}
	OperationsTotal.WithLabelValues(operation, source, status).Inc()
	OperationDuration.WithLabelValues(operation, source).Observe(duration)
}

// RecordError records an error event with context about where it occurred.
func RecordError(operation, source, errorType string) {
	if !enabled.Load() {
		return
	}
	ErrorsTotal.WithLabelValues(operation, source, errorType).Inc()
}

// RecordVolume adds the secret length and share count of one operation.
func RecordVolume(operation string, secretBytes, shares int) {
	if !enabled.Load() {
		return
	}
	SecretBytesTotal.WithLabelValues(operation).Add(float64(secretBytes))
	SharesTotal.WithLabelValues(operation).Add(float64(shares))
}

// RecordCodec records a share encode or decode call.
func RecordCodec(operation, format, status string) {
	if !enabled.Load() {
		return
	}
	CodecOperationsTotal.WithLabelValues(operation, format, status).Inc()
}

// RecordHTTPRequest records an HTTP request with its route pattern, status,
// response size, and duration.
func RecordHTTPRequest(method, route, statusCode string, bytes int, duration float64) {
	if !enabled.Load() {
		return
	}
	HTTPRequestsTotal.WithLabelValues(method, route, statusCode).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration)
	if bytes > 0 {
		HTTPResponseBytes.WithLabelValues(route).Add(float64(bytes))
	}
}

// IncrementActiveConnections increments the active connection count for a protocol.
func IncrementActiveConnections(protocol string) {
	if !enabled.Load() {
		return
	}
	ActiveConnections.WithLabelValues(protocol).Inc()
}

// DecrementActiveConnections decrements the active connection count for a protocol.
func DecrementActiveConnections(protocol string) {
	if !enabled.Load() {
		return
	}
	ActiveConnections.WithLabelValues(protocol).Dec()
}

// SetStoredShareSets sets the number of share sets held by a storage backend.
func SetStoredShareSets(backend string, count int) {
	if !enabled.Load() {
		return
	}
	StoredShareSets.WithLabelValues(backend).Set(float64(count))
}

// SetCipherUsage publishes the share key usage of a cipher.
func SetCipherUsage(algorithm string, encrypted, remaining int64) {
	if !enabled.Load() {
		return
	}
	CipherEncryptedBytes.WithLabelValues(algorithm).Set(float64(encrypted))
	CipherRemainingBytes.WithLabelValues(algorithm).Set(float64(remaining))
}

// Enable enables metrics collection.
func Enable() {
	enabled.Store(true)
}

// Disable disables metrics collection.
// Useful for testing or when metrics are not desired.
func Disable() {
	enabled.Store(false)
}

// IsEnabled returns whether metrics collection is currently enabled.
func IsEnabled() bool {
	return enabled.Load()
}
