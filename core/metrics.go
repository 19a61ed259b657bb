package core

import "context"

const (
	MetricAttemptTotal    = "llmconn.rpc.attempt.total"
	MetricAttemptDuration = "llmconn.rpc.attempt.duration_ms"
)

// OperationMetricNames returns the counter and histogram names recorded for
// a client operation.
func OperationMetricNames(operation string) (counter string, histogram string) {
	operation = normalizeOperation(operation)
	if operation == "" {
		operation = "unknown"
	}
	return "llmconn." + operation + ".total", "llmconn." + operation + ".duration_ms"
}

type NopMetricsRecorder struct{}

func (NopMetricsRecorder) IncCounter(context.Context, string, int64, map[string]string) {}

func (NopMetricsRecorder) ObserveHistogram(context.Context, string, float64, map[string]string) {}

func cloneTags(tags map[string]string) map[string]string {
	copied := make(map[string]string, len(tags))
	for key, value := range tags {
		copied[key] = value
	}
	return copied
}
