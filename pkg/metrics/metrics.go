package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector 指标收集器
type Collector struct {
	// HTTP 指标
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// 数据库连接池
	dbConnectionsInUse prometheus.Gauge
	dbConnectionsIdle  prometheus.Gauge
	dbWaitCount        prometheus.Gauge

	// 点赞/订阅切换
	togglesTotal *prometheus.CounterVec

	// 级联删除
	cascadeDeletesTotal  *prometheus.CounterVec
	cascadeFailuresTotal *prometheus.CounterVec
	cascadeRowsDeleted   *prometheus.CounterVec

	// 补偿任务
	cleanupTasksTotal *prometheus.CounterVec
	orphansSwept      *prometheus.CounterVec
}

// NewCollector 在指定 registerer 上注册指标，传入 nil 时使用默认 registry
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Collector{
		httpRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		httpRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		dbConnectionsInUse: f.NewGauge(prometheus.GaugeOpts{
			Name: "db_connections_in_use",
			Help: "Number of database connections currently in use",
		}),
		dbConnectionsIdle: f.NewGauge(prometheus.GaugeOpts{
			Name: "db_connections_idle",
			Help: "Number of idle database connections",
		}),
		dbWaitCount: f.NewGauge(prometheus.GaugeOpts{
			Name: "db_connections_wait_total",
			Help: "Total number of connections waited for",
		}),
		togglesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "toggles_total",
				Help: "Like and subscription toggles by target kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		cascadeDeletesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cascade_deletes_total",
				Help: "Primary deletes that triggered a cascade, by parent kind",
			},
			[]string{"kind"},
		),
		cascadeFailuresTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cascade_step_failures_total",
				Help: "Cascade sub-steps that failed and were left for reconciliation",
			},
			[]string{"kind", "step"},
		),
		cascadeRowsDeleted: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cascade_rows_deleted_total",
				Help: "Dependent rows removed by cascades",
			},
			[]string{"entity"},
		),
		cleanupTasksTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cleanup_tasks_total",
				Help: "Reconciliation tasks by result",
			},
			[]string{"result"},
		),
		orphansSwept: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orphans_swept_total",
				Help: "Orphaned rows removed by the periodic sweep",
			},
			[]string{"entity"},
		),
	}
}

// RecordHTTPRequest 记录 HTTP 请求
func (m *Collector) RecordHTTPRequest(method, endpoint, status string, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	m.httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// UpdateDBConnections 更新连接池指标
func (m *Collector) UpdateDBConnections(inUse, idle int, waitCount int64) {
	m.dbConnectionsInUse.Set(float64(inUse))
	m.dbConnectionsIdle.Set(float64(idle))
	m.dbWaitCount.Set(float64(waitCount))
}

// RecordToggle outcome 为 created 或 removed
func (m *Collector) RecordToggle(kind, outcome string) {
	m.togglesTotal.WithLabelValues(kind, outcome).Inc()
}

// RecordCascade 记录一次主删除
func (m *Collector) RecordCascade(kind string) {
	m.cascadeDeletesTotal.WithLabelValues(kind).Inc()
}

// RecordCascadeFailure 记录失败的级联子步骤
func (m *Collector) RecordCascadeFailure(kind, step string) {
	m.cascadeFailuresTotal.WithLabelValues(kind, step).Inc()
}

// RecordCascadeRows 记录级联删除的行数
func (m *Collector) RecordCascadeRows(entity string, n int64) {
	if n > 0 {
		m.cascadeRowsDeleted.WithLabelValues(entity).Add(float64(n))
	}
}

// RecordCleanupTask result 为 done、retry 或 dead
func (m *Collector) RecordCleanupTask(result string) {
	m.cleanupTasksTotal.WithLabelValues(result).Inc()
}

// RecordOrphansSwept 记录清扫删除的孤儿行
func (m *Collector) RecordOrphansSwept(entity string, n int64) {
	if n > 0 {
		m.orphansSwept.WithLabelValues(entity).Add(float64(n))
	}
}
