package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/RecoveryAshes/teocruel/internal/core"
	"github.com/RecoveryAshes/teocruel/internal/crawlers"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// crawl子命令参数
var (
	crawlURL      string
	crawlDepth    int
	crawlMaxItems int
	crawlOutput   string
	crawlTaskID   string
	crawlTaskDir  string
	crawlHeaders  []string
	showProgress  bool
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "执行单个爬取任务并把结果写入JSON文件",
	Long: `执行单个爬取任务并把结果写入JSON文件。

serve 收到请求后以此子命令启动后台进程; 提供 --task-id 和 --task-dir 时
会在任务目录中维护状态文件, 供状态接口区分运行中和失败。`,
	RunE: runCrawl,
}

func init() {
	flags := crawlCmd.Flags()
	flags.StringVarP(&crawlURL, "url", "u", "", "起始URL")
	flags.IntVarP(&crawlDepth, "depth", "d", 1, "最大链接深度")
	flags.IntVarP(&crawlMaxItems, "max-items", "m", 100, "最多记录的页面数")
	flags.StringVarP(&crawlOutput, "output", "o", "", "结果JSON文件路径")
	flags.StringVar(&crawlTaskID, "task-id", "", "任务ID")
	flags.StringVar(&crawlTaskDir, "task-dir", "", "任务配置目录")
	flags.StringArrayVarP(&crawlHeaders, "header", "H", nil, "自定义HTTP请求头, 格式 'Name: Value', 可重复")
	flags.BoolVar(&showProgress, "progress", false, "在终端显示进度条")
}

func runCrawl(cmd *cobra.Command, args []string) error {
	crawlArgs := core.CrawlArgs{
		URL:        crawlURL,
		Depth:      crawlDepth,
		MaxItems:   crawlMaxItems,
		OutputPath: crawlOutput,
		TaskID:     crawlTaskID,
		TaskDir:    crawlTaskDir,
	}

	if err := ValidateCrawlFlags(crawlURL, crawlDepth, crawlMaxItems, crawlOutput, crawlTaskID, crawlTaskDir); err != nil {
		return markCrawlFailed(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	headerManager, err := core.NewHeaderManager(appConfig.Crawl, crawlHeaders)
	if err != nil {
		return markCrawlFailed(fmt.Errorf("创建HTTP头部管理器失败: %w", err))
	}
	if err := headerManager.Validate(); err != nil {
		return markCrawlFailed(fmt.Errorf("HTTP头部验证失败: %w", err))
	}

	var progress io.Writer
	if showProgress {
		progress = cmd.ErrOrStderr()
	}

	source := crawlers.NewPageCrawler(appConfig.CrawlerConfig(crawlDepth, crawlMaxItems), headerManager)
	runner := core.NewRunner(source, progress)

	_, err = runner.Run(ctx, crawlArgs)
	return err
}

// markCrawlFailed 爬取开始前出错时写入failed状态, 避免任务一直显示处理中
func markCrawlFailed(cause error) error {
	args := core.CrawlArgs{TaskID: crawlTaskID, TaskDir: crawlTaskDir}
	if err := core.MarkCrawlFailed(args, cause); err != nil {
		log.Warn().Err(err).Str("task_id", crawlTaskID).Msg("写入失败状态出错")
	}
	return cause
}
