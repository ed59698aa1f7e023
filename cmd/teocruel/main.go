package main

import (
	"fmt"
	"os"

	"github.com/RecoveryAshes/teocruel/internal/core"
	"github.com/RecoveryAshes/teocruel/internal/utils"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

// 全局参数
var (
	configFile string
	verbose    bool
	logLevel   string

	// appConfig 在PersistentPreRunE中加载
	appConfig *core.Config
)

var rootCmd = &cobra.Command{
	Use:   "teocruel",
	Short: "网页爬虫服务",
	Long: `teocruel - 通过网页表单触发的网页爬虫

  • serve  启动Web服务, 接收爬取请求并查询任务状态
  • crawl  在后台执行单个爬取任务(由serve自动调用, 也可手动运行)

示例:
  teocruel serve --addr :5000
  teocruel crawl --url https://example.com --depth 2 --max-items 50 --output result.json --progress

版本: ` + Version + `
构建时间: ` + BuildTime,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == versionCmd.Name() {
			return nil
		}

		isCrawl := cmd.Name() == crawlCmd.Name()

		config, err := core.LoadConfig(configFile)
		if err != nil {
			err = fmt.Errorf("加载配置失败: %w", err)
			if isCrawl {
				return markCrawlFailed(err)
			}
			return err
		}
		appConfig = config

		logConfig := config.LogConfig()
		if logLevel != "" {
			logConfig.Level = logLevel
		}
		if verbose {
			logConfig.Level = "debug"
		}
		// 后台爬虫进程的标准输出被丢弃, 日志单独写文件
		if isCrawl {
			logConfig.FileName = "teocruel_crawl"
			logConfig.NoConsole = true
		}

		if err := utils.InitLogger(logConfig); err != nil {
			err = fmt.Errorf("初始化日志系统失败: %w", err)
			if isCrawl {
				return markCrawlFailed(err)
			}
			return err
		}

		if config.ConfigFile() != "" {
			utils.Debugf("使用配置文件: %s", config.ConfigFile())
		}
		if verbose {
			utils.Info("详细模式已启用")
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "配置文件路径(默认查找 ./configs/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "详细输出")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "日志级别(debug, info, warn, error)")

	rootCmd.AddCommand(serveCmd, crawlCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}
