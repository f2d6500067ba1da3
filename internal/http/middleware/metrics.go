package middleware

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RLRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limiter_requests_total",
			Help: "Total requests seen by the rate limiter",
		},
		[]string{"endpoint"},
	)
	RLBlocked = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limiter_blocked_total",
			Help: "Total requests blocked by the rate limiter",
		},
		[]string{"endpoint"},
	)
	EconomyOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "economy_operations_total",
			Help: "Economy operations by name and outcome",
		},
		[]string{"op", "outcome"},
	)
	LandsClaimed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lands_claimed_total",
			Help: "Total land cells claimed",
		},
	)
)

func init() {
	prometheus.MustRegister(RLRequests)
	prometheus.MustRegister(RLBlocked)
	prometheus.MustRegister(EconomyOps)
	prometheus.MustRegister(LandsClaimed)
}
