// Package metrics expone los contadores Prometheus del servicio.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TokensIssued cuenta los tokens emitidos, por tenant y canal.
	TokensIssued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "otpgate_tokens_issued_total",
		Help: "OTP tokens issued, by tenant and delivery channel.",
	}, []string{"tenant", "channel"})

	// TokensValidated cuenta los intentos de validación por resultado:
	// valid | invalid | error.
	TokensValidated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "otpgate_tokens_validated_total",
		Help: "OTP validation attempts, by tenant and result.",
	}, []string{"tenant", "result"})

	// SendFailures cuenta los envíos (email/text) fallidos.
	SendFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "otpgate_send_failures_total",
		Help: "Token delivery failures, by channel.",
	}, []string{"channel"})

	// ReaperCycles cuenta los ciclos del reaper por resultado: ok | error.
	ReaperCycles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "otpgate_reaper_cycles_total",
		Help: "Reaper cleaning cycles, by result.",
	}, []string{"result"})

	// RateLimited cuenta requests rechazados por rate limiting.
	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "otpgate_rate_limited_total",
		Help: "Requests rejected by the send rate limiter.",
	})
)
