package backend

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "portal",
	Subsystem: "backend",
	Name:      "requests_total",
	Help:      "ERP backend requests by operation and outcome.",
}, []string{"op", "outcome"})

func observe(op string, kind Kind) {
	outcome := "ok"
	if kind != "" {
		outcome = string(kind)
	}
	requestsTotal.WithLabelValues(op, outcome).Inc()
}
