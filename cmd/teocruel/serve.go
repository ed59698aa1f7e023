package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/RecoveryAshes/teocruel/internal/api"
	"github.com/RecoveryAshes/teocruel/internal/core"
	"github.com/RecoveryAshes/teocruel/internal/crawlers"
	"github.com/RecoveryAshes/teocruel/internal/i18n"
	"github.com/RecoveryAshes/teocruel/internal/store"
	"github.com/RecoveryAshes/teocruel/internal/utils"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动Web服务",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "监听地址(覆盖 server.addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := appConfig
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	localizer, err := i18n.New(cfg.I18n.Supported, cfg.I18n.Default)
	if err != nil {
		return fmt.Errorf("初始化界面语言失败: %w", err)
	}

	taskStore := store.NewTaskStore(cfg.Storage.TaskDir)
	if err := taskStore.EnsureDir(); err != nil {
		return fmt.Errorf("创建任务目录失败: %w", err)
	}

	monitor := crawlers.NewResourceMonitor(cfg.ResourceMonitorConfig())
	monitor.StartMonitoring(ctx, cfg.Resource.SampleInterval)
	defer monitor.StopMonitoring()

	metrics := core.NewMetrics()

	// 子进程沿用同一份配置和日志级别
	starter := &core.ExecStarter{}
	if f := cfg.ConfigFile(); f != "" {
		starter.ExtraArgs = append(starter.ExtraArgs, "--config", f)
	}
	if logLevel != "" {
		starter.ExtraArgs = append(starter.ExtraArgs, "--log-level", logLevel)
	}

	handler := api.NewHandler(api.Options{
		Launcher:         core.NewLauncher(taskStore, starter, monitor, metrics, cfg.Storage.OutputDir),
		Status:           core.NewStatusService(taskStore, metrics),
		Localizer:        localizer,
		Metrics:          metrics.Handler(),
		Resources:        monitor,
		DefaultDepth:     cfg.Crawl.Depth,
		DefaultMaxItems:  cfg.Crawl.MaxItems,
		DefaultOutputDir: cfg.Storage.OutputDir,
		Version:          Version,
	})

	srv := api.NewServer(cfg.Server, handler.Routes())
	ln, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("监听 %s 失败: %w", cfg.Server.Addr, err)
	}

	utils.Infof("🚀 teocruel %s 已启动, 访问 http://%s", Version, ln.Addr())

	janitor := core.NewJanitor(taskStore, cfg.Tasks, metrics)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return api.Serve(gctx, srv, ln, cfg.Server.ShutdownTimeout)
	})
	g.Go(func() error {
		janitor.Run(gctx)
		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("HTTP服务异常退出: %w", err)
	}
	utils.Info("👋 服务已退出")
	return nil
}
