package database

import (
	"context"
	"database/sql"
	"time"

	"vidtube/pkg/metrics"
)

// StatsSource 连接池统计来源，*sql.DB 满足该接口
type StatsSource interface {
	Stats() sql.DBStats
}

// PoolMonitor 连接池监控器，定期把 sql.DBStats 写入 prometheus
type PoolMonitor struct {
	db        StatsSource
	collector *metrics.Collector
	interval  time.Duration
}

// NewPoolMonitor 创建连接池监控器
func NewPoolMonitor(db StatsSource, collector *metrics.Collector, interval time.Duration) *PoolMonitor {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &PoolMonitor{db: db, collector: collector, interval: interval}
}

// Run 阻塞运行直到 ctx 结束
func (pm *PoolMonitor) Run(ctx context.Context) {
	ticker := time.NewTicker(pm.interval)
	defer ticker.Stop()

	pm.Collect()
	for {
		select {
		case <-ticker.C:
			pm.Collect()
		case <-ctx.Done():
			return
		}
	}
}

// Collect 采集一次
func (pm *PoolMonitor) Collect() {
	stats := pm.db.Stats()
	pm.collector.UpdateDBConnections(stats.InUse, stats.Idle, stats.WaitCount)
}
