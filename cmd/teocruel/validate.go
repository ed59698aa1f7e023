package main

import (
	"fmt"
	"path/filepath"

	"github.com/RecoveryAshes/teocruel/internal/models"
	"github.com/RecoveryAshes/teocruel/internal/store"
)

// ValidateCrawlFlags 验证crawl子命令参数
func ValidateCrawlFlags(targetURL string, depth, maxItems int, output, taskID, taskDir string) error {
	if targetURL == "" {
		return fmt.Errorf("必须提供 --url")
	}
	if err := models.ValidateURL(targetURL); err != nil {
		return fmt.Errorf("无效的目标URL: %w", err)
	}

	if depth < 0 {
		return fmt.Errorf("爬取深度不能为负数,当前值: %d", depth)
	}
	if maxItems < 0 {
		return fmt.Errorf("最大页面数不能为负数,当前值: %d", maxItems)
	}

	if output == "" {
		return fmt.Errorf("必须提供 --output")
	}
	if filepath.Ext(output) != ".json" {
		return fmt.Errorf("结果文件必须为.json文件: %s", output)
	}

	// task-id和task-dir必须同时提供
	if (taskID == "") != (taskDir == "") {
		return fmt.Errorf("--task-id 和 --task-dir 必须同时提供")
	}
	if taskID != "" && !store.ValidTaskID(taskID) {
		return fmt.Errorf("无效的任务ID: %s", taskID)
	}

	return nil
}
