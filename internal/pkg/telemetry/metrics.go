package telemetry

// SLI metric names used for instrumentation.
const (
	// Latency
	MetricAPILatencyP50 = "api.latency.p50"
	MetricAPILatencyP95 = "api.latency.p95"
	MetricAPILatencyP99 = "api.latency.p99"

	// Throughput
	MetricRequestsPerSec = "api.requests_per_second"

	// Plan pipeline
	MetricPlanTimeToReady = "plans.time_to_ready_seconds"
	MetricPollLatency     = "plans.poll_latency"

	// Availability
	MetricUptime = "service.uptime_percentage"

	// Business
	MetricPlansGenerated   = "business.plans_generated"
	MetricMarkersProjected = "business.markers_projected"
)
