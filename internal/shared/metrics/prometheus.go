package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusCollector records tool activity on its own registry so tests and
// embedders never collide with the global one.
type PrometheusCollector struct {
	ToolCallsTotal     *prometheus.CounterVec
	ToolCallDuration   *prometheus.HistogramVec
	ConversionsTotal   *prometheus.CounterVec
	UnmappedEntities   *prometheus.CounterVec
	ValidationFindings *prometheus.CounterVec
	TemplateEditsTotal *prometheus.CounterVec

	registry *prometheus.Registry
}

func NewPrometheusCollector() *PrometheusCollector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	c := &PrometheusCollector{registry: reg}

	c.ToolCallsTotal = promauto.With(reg).NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowbridge_tool_calls_total",
			Help: "Total number of MCP tool calls",
		},
		[]string{"tool", "status"},
	)

	c.ToolCallDuration = promauto.With(reg).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "flowbridge_tool_call_duration_seconds",
			Help:    "MCP tool call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"tool"},
	)

	c.ConversionsTotal = promauto.With(reg).NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowbridge_conversions_total",
			Help: "Total number of workflow conversions",
		},
		[]string{"direction"},
	)

	c.UnmappedEntities = promauto.With(reg).NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowbridge_conversion_unmapped_total",
			Help: "Entities left behind by conversions",
		},
		[]string{"direction"},
	)

	c.ValidationFindings = promauto.With(reg).NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowbridge_validation_findings_total",
			Help: "Validation findings by severity",
		},
		[]string{"severity"},
	)

	c.TemplateEditsTotal = promauto.With(reg).NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowbridge_template_edits_total",
			Help: "Literals rewritten by template application",
		},
		[]string{"kind"},
	)

	return c
}

func (c *PrometheusCollector) RecordToolExecution(ctx context.Context, toolName string, duration time.Duration, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	c.ToolCallsTotal.WithLabelValues(toolName, status).Inc()
	c.ToolCallDuration.WithLabelValues(toolName).Observe(duration.Seconds())
}

func (c *PrometheusCollector) RecordConversion(ctx context.Context, direction string, unmapped int) {
	c.ConversionsTotal.WithLabelValues(direction).Inc()
	c.UnmappedEntities.WithLabelValues(direction).Add(float64(unmapped))
}

func (c *PrometheusCollector) RecordFindings(ctx context.Context, severity string, count int) {
	c.ValidationFindings.WithLabelValues(severity).Add(float64(count))
}

func (c *PrometheusCollector) RecordEdits(ctx context.Context, kind string, count int) {
	c.TemplateEditsTotal.WithLabelValues(kind).Add(float64(count))
}

func (c *PrometheusCollector) Close() error {
	return nil
}

// Registry returns the underlying Prometheus registry.
func (c *PrometheusCollector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *PrometheusCollector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
