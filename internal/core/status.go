package core

import (
	"errors"
	"io/fs"

	"github.com/RecoveryAshes/teocruel/internal/models"
	"github.com/RecoveryAshes/teocruel/internal/store"
	"github.com/rs/zerolog/log"
)

// StatusService 查询任务状态
type StatusService struct {
	store   *store.TaskStore
	metrics *Metrics
}

// NewStatusService 创建状态查询服务, metrics可以为nil
func NewStatusService(taskStore *store.TaskStore, metrics *Metrics) *StatusService {
	return &StatusService{store: taskStore, metrics: metrics}
}

// Query 查询任务状态
//
//   - 任务配置不存在: 返回 models.ErrTaskNotFound
//   - 结果文件不存在或尚不是完整JSON: processing
//   - 结果文件可以解析: completed, 附带全部记录
//   - 爬虫进程报告失败且没有结果: error
//   - 其它读取失败: 返回错误
func (s *StatusService) Query(taskID string) (models.TaskStatus, error) {
	status, err := s.query(taskID)
	if s.metrics != nil {
		label := string(status.Kind)
		switch {
		case errors.Is(err, models.ErrTaskNotFound):
			label = "not_found"
		case err != nil:
			label = string(models.StatusError)
		}
		s.metrics.StatusQueries.WithLabelValues(label).Inc()
	}
	return status, err
}

func (s *StatusService) query(taskID string) (models.TaskStatus, error) {
	task, err := s.store.LoadTask(taskID)
	if err != nil {
		return models.TaskStatus{}, err
	}

	// 状态文件只作参考, 读取失败不影响结果判断
	state, hasState, err := s.store.LoadState(taskID)
	if err != nil {
		log.Warn().Err(err).Str("task_id", taskID).Msg("读取任务状态失败")
	}
	status := models.TaskStatus{}
	if hasState {
		status.State = state.State
		status.Stats = state.Stats
	}

	// 爬虫进程已结束(失败, 或完成后结果文件被删除)时不再显示处理中
	finished := hasState && state.State.IsTerminal()

	records, err := store.ReadResults(store.ResultsPath(task.OutputDir, taskID))
	switch {
	case err == nil:
		status.Kind = models.StatusCompleted
		status.Results = records
		return status, nil

	case errors.Is(err, fs.ErrNotExist), errors.Is(err, models.ErrResultsIncomplete):
		if finished {
			status.Kind = models.StatusError
			status.Error = state.Error
			if status.Error == "" {
				status.Error = "结果文件不存在"
			}
			return status, nil
		}
		status.Kind = models.StatusProcessing
		return status, nil

	default:
		return status, err
	}
}
