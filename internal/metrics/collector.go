// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// =============================================================================
// 📊 指标收集器
// =============================================================================

// Collector 工作流指标收集器。所有方法对 nil 接收者安全，
// 未配置指标时引擎可以直接透传 nil。
type Collector struct {
	stepsTotal       *prometheus.CounterVec
	stepDuration     *prometheus.HistogramVec
	suspensionsTotal *prometheus.CounterVec
	outcomesTotal    *prometheus.CounterVec
	failuresTotal    *prometheus.CounterVec

	logger *zap.Logger
}

// NewCollector 创建指标收集器并注册到给定 registerer。
// registerer 为 nil 时使用 prometheus.DefaultRegisterer。
func NewCollector(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := func(c prometheus.Collector) {
		reg.MustRegister(c)
	}

	col := &Collector{logger: logger.With(zap.String("component", "metrics"))}

	col.stepsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflow_steps_total",
			Help:      "Total number of step executions by node and result",
		},
		[]string{"node", "result"},
	)
	factory(col.stepsTotal)

	col.stepDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "workflow_step_duration_seconds",
			Help:      "Step execution duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node"},
	)
	factory(col.stepDuration)

	col.suspensionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflow_suspensions_total",
			Help:      "Total number of interrupt-point suspensions by pending node",
		},
		[]string{"node"},
	)
	factory(col.suspensionsTotal)

	col.outcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflow_instances_total",
			Help:      "Total number of completed instances by terminal outcome",
		},
		[]string{"outcome"},
	)
	factory(col.outcomesTotal)

	col.failuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflow_failures_total",
			Help:      "Total number of fatal instance failures by error code",
		},
		[]string{"code"},
	)
	factory(col.failuresTotal)

	return col
}

// ObserveStep 记录一次步骤执行。
func (c *Collector) ObserveStep(node, result string, d time.Duration) {
	if c == nil {
		return
	}
	c.stepsTotal.WithLabelValues(node, result).Inc()
	c.stepDuration.WithLabelValues(node).Observe(d.Seconds())
}

// RecordSuspension 记录一次中断点挂起。
func (c *Collector) RecordSuspension(node string) {
	if c == nil {
		return
	}
	c.suspensionsTotal.WithLabelValues(node).Inc()
}

// RecordOutcome 记录一次实例终止。
func (c *Collector) RecordOutcome(outcome string) {
	if c == nil {
		return
	}
	c.outcomesTotal.WithLabelValues(outcome).Inc()
}

// RecordFailure 记录一次致命失败。
func (c *Collector) RecordFailure(code string) {
	if c == nil {
		return
	}
	if code == "" {
		code = "unknown"
	}
	c.failuresTotal.WithLabelValues(code).Inc()
}
