package grpc

import (
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// NewHealth registers the standard health service on s. The portal reports
// NOT_SERVING until the first backend probe succeeds.
func NewHealth(s grpc.ServiceRegistrar) *health.Server {
	h := health.NewServer()
	h.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	h.SetServingStatus(queryServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(s, h)
	return h
}

// BackendReporter turns backend probe results into health status.
func BackendReporter(h *health.Server) func(healthy bool) {
	return func(healthy bool) {
		status := healthpb.HealthCheckResponse_NOT_SERVING
		if healthy {
			status = healthpb.HealthCheckResponse_SERVING
		}
		h.SetServingStatus("", status)
		h.SetServingStatus(queryServiceName, status)
	}
}
