package observability

// NoopLogger discards all log output. Used in tests and as a safe default.
type NoopLogger struct{}

// NewNoopLogger creates a logger that discards everything
func NewNoopLogger() Logger {
	return &NoopLogger{}
}

// Debug is a no-op
func (l *NoopLogger) Debug(msg string, fields map[string]interface{}) {}

// Info is a no-op
func (l *NoopLogger) Info(msg string, fields map[string]interface{}) {}

// Warn is a no-op
func (l *NoopLogger) Warn(msg string, fields map[string]interface{}) {}

// Error is a no-op
func (l *NoopLogger) Error(msg string, fields map[string]interface{}) {}

// WithPrefix returns the same no-op logger
func (l *NoopLogger) WithPrefix(prefix string) Logger { return l }

// NoopMetricsClient discards all metrics
type NoopMetricsClient struct{}

// NewNoopMetricsClient creates a metrics client that discards everything
func NewNoopMetricsClient() MetricsClient {
	return &NoopMetricsClient{}
}

// IncrementCounterWithLabels is a no-op
func (m *NoopMetricsClient) IncrementCounterWithLabels(name string, value float64, labels map[string]string) {
}

// RecordHistogram is a no-op
func (m *NoopMetricsClient) RecordHistogram(name string, value float64, labels map[string]string) {}

// RecordCacheOperation is a no-op
func (m *NoopMetricsClient) RecordCacheOperation(operation string, success bool, durationSeconds float64) {
}

// Close is a no-op
func (m *NoopMetricsClient) Close() error { return nil }
