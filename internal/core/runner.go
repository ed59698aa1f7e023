package core

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/RecoveryAshes/teocruel/internal/crawlers"
	"github.com/RecoveryAshes/teocruel/internal/models"
	"github.com/RecoveryAshes/teocruel/internal/store"
	"github.com/RecoveryAshes/teocruel/internal/utils"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
)

// PageSource 产出爬取记录, 由 crawlers.PageCrawler 实现
type PageSource interface {
	Crawl(ctx context.Context, seedURL string, emit func(models.CrawlRecord) error) (crawlers.Stats, error)
}

// Runner 后台爬虫进程的主体: 驱动爬取、写结果文件、维护状态文件
type Runner struct {
	source   PageSource
	progress io.Writer
	now      func() time.Time
}

// NewRunner 创建Runner, progress为nil时不显示进度条
func NewRunner(source PageSource, progress io.Writer) *Runner {
	return &Runner{
		source:   source,
		progress: progress,
		now:      time.Now,
	}
}

// Run 执行一次爬取
// 提供TaskID和TaskDir时状态依次写入 running → completed/failed, 结束状态附带爬取统计
func (r *Runner) Run(ctx context.Context, args CrawlArgs) (int, error) {
	taskStore := args.taskStore()
	logger := log.With().Str("task_id", args.TaskID).Str("url", args.URL).Logger()

	r.saveState(taskStore, models.StateRecord{TaskID: args.TaskID, State: models.TaskStateRunning})

	count, stats, err := r.run(ctx, args)
	if err != nil {
		logger.Error().Err(err).Int("items", count).Msg("❌ 爬取失败")
		r.saveState(taskStore, models.StateRecord{
			TaskID: args.TaskID,
			State:  models.TaskStateFailed,
			Items:  count,
			Error:  err.Error(),
			Stats:  stats,
		})
		return count, err
	}

	logger.Info().Int("items", count).Str("output", args.OutputPath).Msg("✅ 爬取结果已写入")
	r.saveState(taskStore, models.StateRecord{
		TaskID: args.TaskID,
		State:  models.TaskStateCompleted,
		Items:  count,
		Stats:  stats,
	})
	return count, nil
}

// MarkCrawlFailed 在爬取开始前失败时写入failed状态
// 未提供TaskID或TaskDir时什么也不做
func MarkCrawlFailed(args CrawlArgs, cause error) error {
	taskStore := args.taskStore()
	if taskStore == nil || !store.ValidTaskID(args.TaskID) {
		return nil
	}
	return taskStore.SaveState(models.StateRecord{
		TaskID:    args.TaskID,
		State:     models.TaskStateFailed,
		Error:     cause.Error(),
		UpdatedAt: time.Now(),
	})
}

func (r *Runner) run(ctx context.Context, args CrawlArgs) (int, *models.CrawlStats, error) {
	if args.OutputPath == "" {
		return 0, nil, &models.ValidationError{Field: "output", Reason: "输出文件路径不能为空"}
	}
	dir := filepath.Dir(args.OutputPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, nil, &models.IOError{Op: "创建输出目录", Path: dir, Err: err}
	}

	writer, err := store.NewResultsWriter(args.OutputPath)
	if err != nil {
		return 0, nil, err
	}

	var bar *progressbar.ProgressBar
	if r.progress != nil {
		bar = utils.NewProgressBar(r.progress, args.MaxItems, "爬取页面")
	}

	stats, err := r.source.Crawl(ctx, args.URL, func(rec models.CrawlRecord) error {
		if err := writer.Write(rec); err != nil {
			return &models.IOError{Op: "写入结果文件", Path: args.OutputPath, Err: err}
		}
		if bar != nil {
			_ = bar.Add(1)
		}
		return nil
	})
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		writer.Abort()
		return writer.Count(), &stats, fmt.Errorf("爬取失败: %w", err)
	}

	if err := writer.Commit(); err != nil {
		writer.Abort()
		return writer.Count(), &stats, err
	}

	utils.Debugf("爬取统计: 请求 %d, 记录 %d, 失败 %d, 跳过 %d, 耗时 %.2f秒",
		stats.Requests, stats.Records, stats.Errors, stats.Skipped, stats.Duration)
	return writer.Count(), &stats, nil
}

// saveState 写状态文件, 失败只记录日志
func (r *Runner) saveState(taskStore *store.TaskStore, rec models.StateRecord) {
	if taskStore == nil {
		return
	}
	rec.UpdatedAt = r.now()
	if err := taskStore.SaveState(rec); err != nil {
		utils.Warnf("写入任务状态失败 [%s]: %v", rec.State, err)
	}
}
