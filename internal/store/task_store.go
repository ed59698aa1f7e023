// Package store 以平面文件保存任务配置、爬虫状态和爬取结果
//
// 文件布局:
//
//	<task_dir>/<task_id>_config.json    任务配置,创建后不再修改
//	<task_dir>/<task_id>_state.json     爬虫进程维护的状态
//	<output_dir>/<task_id>_results.json 爬取结果(JSON数组)
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/RecoveryAshes/teocruel/internal/models"
)

const (
	configSuffix  = "_config.json"
	stateSuffix   = "_state.json"
	resultsSuffix = "_results.json"
)

// TaskStore 任务文件存储
type TaskStore struct {
	taskDir string
}

// NewTaskStore 创建任务存储, taskDir为任务元数据目录
func NewTaskStore(taskDir string) *TaskStore {
	return &TaskStore{taskDir: taskDir}
}

// TaskDir 返回任务元数据目录
func (s *TaskStore) TaskDir() string {
	return s.taskDir
}

// EnsureDir 确保任务元数据目录存在
func (s *TaskStore) EnsureDir() error {
	if err := os.MkdirAll(s.taskDir, 0755); err != nil {
		return &models.IOError{Op: "创建任务目录", Path: s.taskDir, Err: err}
	}
	return nil
}

// ConfigPath 任务配置文件路径
func (s *TaskStore) ConfigPath(taskID string) string {
	return filepath.Join(s.taskDir, taskID+configSuffix)
}

// StatePath 任务状态文件路径
func (s *TaskStore) StatePath(taskID string) string {
	return filepath.Join(s.taskDir, taskID+stateSuffix)
}

// ResultsPath 结果文件路径
func ResultsPath(outputDir, taskID string) string {
	return filepath.Join(outputDir, taskID+resultsSuffix)
}

// ValidTaskID 任务ID只能是普通文件名片段
func ValidTaskID(taskID string) bool {
	if taskID == "" || taskID == "." || taskID == ".." {
		return false
	}
	return !strings.ContainsAny(taskID, `/\`)
}

// SaveTask 写入任务配置
func (s *TaskStore) SaveTask(task *models.Task) error {
	data, err := task.ToJSON()
	if err != nil {
		return fmt.Errorf("序列化任务配置失败: %w", err)
	}
	path := s.ConfigPath(task.TaskID)
	if err := writeFileAtomic(path, data); err != nil {
		return &models.IOError{Op: "写入任务配置", Path: path, Err: err}
	}
	return nil
}

// LoadTask 读取任务配置,不存在时返回 models.ErrTaskNotFound
func (s *TaskStore) LoadTask(taskID string) (*models.Task, error) {
	if !ValidTaskID(taskID) {
		return nil, models.ErrTaskNotFound
	}

	path := s.ConfigPath(taskID)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, models.ErrTaskNotFound
		}
		return nil, &models.IOError{Op: "读取任务配置", Path: path, Err: err}
	}

	var task models.Task
	if err := task.FromJSON(data); err != nil {
		return nil, fmt.Errorf("解析任务配置失败 [%s]: %w", path, err)
	}
	return &task, nil
}

// TaskExists 任务配置文件是否存在
func (s *TaskStore) TaskExists(taskID string) bool {
	if !ValidTaskID(taskID) {
		return false
	}
	_, err := os.Stat(s.ConfigPath(taskID))
	return err == nil
}

// SaveState 原子写入状态文件
func (s *TaskStore) SaveState(rec models.StateRecord) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化任务状态失败: %w", err)
	}
	path := s.StatePath(rec.TaskID)
	if err := writeFileAtomic(path, data); err != nil {
		return &models.IOError{Op: "写入任务状态", Path: path, Err: err}
	}
	return nil
}

// LoadState 读取状态文件, ok为false表示状态文件不存在
func (s *TaskStore) LoadState(taskID string) (rec models.StateRecord, ok bool, err error) {
	if !ValidTaskID(taskID) {
		return rec, false, nil
	}

	path := s.StatePath(taskID)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return rec, false, nil
		}
		return rec, false, &models.IOError{Op: "读取任务状态", Path: path, Err: err}
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, false, fmt.Errorf("解析任务状态失败 [%s]: %w", path, err)
	}
	return rec, true, nil
}

// ReadResults 读取结果文件
//
// 文件不存在时返回的错误满足 errors.Is(err, fs.ErrNotExist);
// 内容不是完整JSON时返回 models.ErrResultsIncomplete。
func ReadResults(path string) ([]models.CrawlRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		return nil, &models.IOError{Op: "读取结果文件", Path: path, Err: err}
	}

	records := []models.CrawlRecord{}
	if err := json.Unmarshal(data, &records); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return nil, models.ErrResultsIncomplete
		}
		return nil, fmt.Errorf("结果文件格式错误 [%s]: %w", path, err)
	}
	return records, nil
}

// writeFileAtomic 先写临时文件再重命名,读者不会看到写了一半的文件
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}
