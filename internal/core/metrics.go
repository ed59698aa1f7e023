package core

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 服务端指标, 每个实例使用独立的Registry
type Metrics struct {
	registry *prometheus.Registry

	TasksStarted   prometheus.Counter
	LaunchFailures *prometheus.CounterVec
	StatusQueries  *prometheus.CounterVec
	TasksSwept     prometheus.Counter
}

// NewMetrics 创建并注册全部指标
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	m := &Metrics{
		registry: registry,
		TasksStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "teocruel_tasks_started_total",
			Help: "已启动的后台爬取进程数",
		}),
		LaunchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "teocruel_task_launch_failures_total",
			Help: "启动任务失败次数",
		}, []string{"reason"}),
		StatusQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "teocruel_status_queries_total",
			Help: "任务状态查询次数",
		}, []string{"status"}),
		TasksSwept: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "teocruel_tasks_swept_total",
			Help: "保留策略清理的任务数",
		}),
	}
	registry.MustRegister(m.TasksStarted, m.LaunchFailures, m.StatusQueries, m.TasksSwept)
	return m
}

// Handler 返回 /metrics 处理器
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
