package indexgate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Call outcomes that are not server error codes.
const (
	outcomeOK       = "ok"
	outcomeTimeout  = "timeout"
	outcomeCanceled = "canceled"
	outcomeNetwork  = "network"
)

// callStats counts calls per server route by outcome. The outcome is "ok",
// the error code the server answered with, or a client-side failure class.
type callStats struct {
	calls   *prometheus.CounterVec
	latency *prometheus.HistogramVec
}

func newCallStats(reg prometheus.Registerer) (*callStats, error) {
	calls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "indexgate",
		Subsystem: "client",
		Name:      "calls_total",
		Help:      "Calls made to the indexgate server by call and outcome.",
	}, []string{"call", "outcome"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "indexgate",
		Subsystem: "client",
		Name:      "call_seconds",
		Help:      "Round trip time of indexgate server calls.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"call"})

	c, err := adopt(reg, calls)
	if err != nil {
		return nil, err
	}
	l, err := adopt(reg, latency)
	if err != nil {
		return nil, err
	}
	return &callStats{calls: c, latency: l}, nil
}

// adopt registers v, or returns the collector another client already
// registered under the same name.
func adopt[V prometheus.Collector](reg prometheus.Registerer, v V) (V, error) {
	err := reg.Register(v)
	if err == nil {
		return v, nil
	}
	var dup prometheus.AlreadyRegisteredError
	if !errors.As(err, &dup) {
		return v, fmt.Errorf("indexgate: register client metrics: %w", err)
	}
	existing, ok := dup.ExistingCollector.(V)
	if !ok {
		return v, fmt.Errorf("indexgate: client metric taken by a %T", dup.ExistingCollector)
	}
	return existing, nil
}

// tracker records every finished call. A nil tracker records nothing.
type tracker struct {
	logger *slog.Logger
	stats  *callStats
}

func newTracker(logger *slog.Logger, reg prometheus.Registerer) (*tracker, error) {
	t := &tracker{logger: logger}
	if reg == nil {
		return t, nil
	}
	stats, err := newCallStats(reg)
	if err != nil {
		return nil, err
	}
	t.stats = stats
	return t, nil
}

func (t *tracker) done(call string, start time.Time, err error) {
	if t == nil {
		return
	}
	elapsed := time.Since(start)
	outcome, status := classify(err)

	if t.stats != nil {
		t.stats.calls.WithLabelValues(call, outcome).Inc()
		t.stats.latency.WithLabelValues(call).Observe(elapsed.Seconds())
	}
	if t.logger == nil {
		return
	}
	if err == nil {
		t.logger.Debug("indexgate call", "call", call, "elapsed", elapsed)
		return
	}
	attrs := []any{"call", call, "outcome", outcome, "elapsed", elapsed, "error", err}
	if status != 0 {
		attrs = append(attrs, "status", status)
	}
	t.logger.Warn("indexgate call failed", attrs...)
}

// classify maps a call error to its outcome label and HTTP status, if any.
func classify(err error) (string, int) {
	var apiErr *APIError
	switch {
	case err == nil:
		return outcomeOK, 0
	case errors.As(err, &apiErr):
		if apiErr.Code != "" {
			return apiErr.Code, apiErr.Status
		}
		return "http_" + strconv.Itoa(apiErr.Status), apiErr.Status
	case errors.Is(err, context.DeadlineExceeded):
		return outcomeTimeout, 0
	case errors.Is(err, context.Canceled):
		return outcomeCanceled, 0
	default:
		return outcomeNetwork, 0
	}
}
