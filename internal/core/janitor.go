package core

import (
	"context"
	"time"

	"github.com/RecoveryAshes/teocruel/internal/store"
	"github.com/rs/zerolog/log"
)

// Janitor 按保留期限定期清理过期任务
type Janitor struct {
	store     *store.TaskStore
	retention time.Duration
	interval  time.Duration
	metrics   *Metrics
	now       func() time.Time
}

// NewJanitor 创建清理器, metrics可以为nil
func NewJanitor(taskStore *store.TaskStore, cfg TasksConfig, metrics *Metrics) *Janitor {
	return &Janitor{
		store:     taskStore,
		retention: cfg.Retention,
		interval:  cfg.SweepInterval,
		metrics:   metrics,
		now:       time.Now,
	}
}

// SweepOnce 执行一次清理, 返回删除的任务数
func (j *Janitor) SweepOnce() int {
	removed, err := j.store.Sweep(j.now(), j.retention)
	if err != nil {
		log.Warn().Err(err).Int("removed", removed).Msg("清理过期任务时出现错误")
	}
	if removed > 0 {
		log.Info().Int("removed", removed).Dur("retention", j.retention).Msg("🧹 已清理过期任务")
		if j.metrics != nil {
			j.metrics.TasksSwept.Add(float64(removed))
		}
	}
	return removed
}

// Run 启动时清理一次, 之后每个interval清理一次, 直到ctx取消
// retention或interval<=0时直接返回
func (j *Janitor) Run(ctx context.Context) {
	if j.retention <= 0 || j.interval <= 0 {
		log.Debug().Msg("任务保留策略未启用")
		return
	}

	j.SweepOnce()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.SweepOnce()
		}
	}
}
