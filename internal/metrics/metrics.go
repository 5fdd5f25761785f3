// Package metrics exposes Prometheus collectors for loops, tools, fan-outs and HTTP requests.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/m-mizutani/sentinell"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sentinell"

// Metrics holds the collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	loopOutcomes   *prometheus.CounterVec
	loopTurns      *prometheus.HistogramVec
	toolCalls      *prometheus.CounterVec
	fanOutDuration prometheus.Histogram
	subTaskResults *prometheus.CounterVec
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		loopOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loop_outcomes_total",
			Help:      "Reasoning loop runs by terminal outcome.",
		}, []string{"loop", "outcome"}),
		loopTurns: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "loop_turns",
			Help:      "Model round trips used per reasoning loop run.",
			Buckets:   []float64{1, 2, 3, 4, 5, 8, 13},
		}, []string{"loop"}),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Tool executions by tool and status.",
		}, []string{"tool", "status"}),
		fanOutDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fan_out_duration_seconds",
			Help:      "Wall clock time of supervisor fan-outs.",
			Buckets:   prometheus.DefBuckets,
		}),
		subTaskResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sub_task_results_total",
			Help:      "Supervisor sub-task results by label and status.",
		}, []string{"label", "status"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	m.registry.MustRegister(
		m.loopOutcomes,
		m.loopTurns,
		m.toolCalls,
		m.fanOutDuration,
		m.subTaskResults,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// LoopOptions returns hooks recording outcomes, turns and tool calls of a loop.
func (m *Metrics) LoopOptions(loopName string) []sentinell.LoopOption {
	return []sentinell.LoopOption{
		sentinell.WithToolResultHook(func(ctx context.Context, call sentinell.ToolCall, result sentinell.ToolResult) error {
			status := "ok"
			if result.IsError {
				status = "error"
			}
			m.toolCalls.WithLabelValues(call.Name, status).Inc()
			return nil
		}),
		sentinell.WithOutcomeHook(func(ctx context.Context, outcome *sentinell.Outcome) {
			m.loopOutcomes.WithLabelValues(loopName, outcome.Kind.String()).Inc()
			m.loopTurns.WithLabelValues(loopName).Observe(float64(outcome.Turns))
		}),
	}
}

// ObserveFanOut records the duration and per sub-task status of a fan-out.
func (m *Metrics) ObserveFanOut(report *sentinell.FanOutReport) {
	m.fanOutDuration.Observe(report.Elapsed.Seconds())
	for _, entry := range report.Entries {
		status := "ok"
		if entry.Failed() {
			status = "error"
		}
		m.subTaskResults.WithLabelValues(entry.Label, status).Inc()
	}
}

// Middleware records request counts and latency. Routes are labelled by their pattern.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			code := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				code = he.Code
			} else if err != nil {
				code = http.StatusInternalServerError
			}

			method := c.Request().Method
			m.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
			m.httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}
