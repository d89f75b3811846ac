package observability

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

var (
	// Global logger instance
	Logger *zap.Logger

	handlerInvocationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "handler_invocations_total",
			Help: "Total number of handler invocations",
		},
		[]string{"module", "mode"},
	)

	handlerErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "handler_errors_total",
			Help: "Total number of handler invocations that failed",
		},
		[]string{"module"},
	)

	dispatchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dispatch_duration_seconds",
			Help:    "Time spent inside a single handler invocation",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"module"},
	)
)

func Init(ctx context.Context, metricsAddr string) error {
	var err error
	Logger, err = zap.NewProduction()
	if err != nil {
		return err
	}

	prometheus.MustRegister(handlerInvocationsTotal)
	prometheus.MustRegister(handlerErrorsTotal)
	prometheus.MustRegister(dispatchDuration)

	tp := trace.NewTracerProvider()
	otel.SetTracerProvider(tp)

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(metricsAddr, mux); err != nil {
			log.WithError(err).Error("metrics server failed")
		}
	}()

	return nil
}

// ObserveDispatch records one handler invocation as seen from the dispatcher
// boundary.
func ObserveDispatch(module, mode string, elapsed time.Duration, err error) {
	handlerInvocationsTotal.WithLabelValues(module, mode).Inc()
	dispatchDuration.WithLabelValues(module).Observe(elapsed.Seconds())
	if err != nil {
		handlerErrorsTotal.WithLabelValues(module).Inc()
	}
}
