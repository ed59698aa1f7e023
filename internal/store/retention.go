package store

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/RecoveryAshes/teocruel/internal/utils"
)

// Sweep 删除创建时间早于 now-ttl 的任务及其结果文件,返回删除的任务数
// ttl<=0 时不做任何事
func (s *TaskStore) Sweep(now time.Time, ttl time.Duration) (int, error) {
	if ttl <= 0 {
		return 0, nil
	}

	entries, err := os.ReadDir(s.taskDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}

	cutoff := now.Add(-ttl)
	removed := 0
	var errs []error

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, configSuffix) {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}

		taskID := strings.TrimSuffix(name, configSuffix)
		if err := s.removeTask(taskID); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
	}

	// 没有配置文件的孤立状态文件
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasSuffix(name, stateSuffix) {
			continue
		}
		taskID := strings.TrimSuffix(name, stateSuffix)
		if s.TaskExists(taskID) {
			continue
		}
		if info, err := entry.Info(); err == nil && info.ModTime().Before(cutoff) {
			removeIfExists(filepath.Join(s.taskDir, name), &errs)
		}
	}

	return removed, errors.Join(errs...)
}

// removeTask 删除单个任务的全部文件
func (s *TaskStore) removeTask(taskID string) error {
	var errs []error

	if task, err := s.LoadTask(taskID); err == nil {
		removeIfExists(ResultsPath(task.OutputDir, taskID), &errs)
		removeIfExists(ResultsPath(task.OutputDir, taskID)+".part", &errs)
	} else {
		utils.Debugf("清理任务时无法读取配置 [%s]: %v", taskID, err)
	}
	removeIfExists(s.StatePath(taskID), &errs)
	removeIfExists(s.ConfigPath(taskID), &errs)

	return errors.Join(errs...)
}

func removeIfExists(path string, errs *[]error) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		*errs = append(*errs, err)
	}
}
