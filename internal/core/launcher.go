package core

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/RecoveryAshes/teocruel/internal/models"
	"github.com/RecoveryAshes/teocruel/internal/store"
	"github.com/RecoveryAshes/teocruel/internal/utils"
	"github.com/rs/zerolog/log"
)

// LaunchRequest 启动爬取任务的请求参数
type LaunchRequest struct {
	URL         string
	Depth       int
	MaxItems    int
	Description string
	OutputDir   string // 为空时使用默认输出目录
}

// CrawlArgs 传给后台爬虫进程的参数
type CrawlArgs struct {
	URL        string
	Depth      int
	MaxItems   int
	OutputPath string
	TaskID     string
	TaskDir    string
}

// Args 转换为 crawl 子命令的命令行参数
func (a CrawlArgs) Args() []string {
	return []string{
		"crawl",
		"--url", a.URL,
		"--depth", strconv.Itoa(a.Depth),
		"--max-items", strconv.Itoa(a.MaxItems),
		"--output", a.OutputPath,
		"--task-id", a.TaskID,
		"--task-dir", a.TaskDir,
	}
}

// taskStore 提供TaskID和TaskDir时返回任务目录的TaskStore, 否则为nil
func (a CrawlArgs) taskStore() *store.TaskStore {
	if a.TaskID == "" || a.TaskDir == "" {
		return nil
	}
	return store.NewTaskStore(a.TaskDir)
}

// ProcessStarter 启动后台爬虫进程, 不等待其结束
type ProcessStarter interface {
	Start(args CrawlArgs) error
}

// ResourceGuard 判断是否还能启动新的爬虫进程
type ResourceGuard interface {
	CheckResourceAvailability() (ok bool, reason string)
}

// ExecStarter 以 crawl 子命令重新执行当前程序
type ExecStarter struct {
	// Executable 可执行文件路径, 为空时使用 os.Executable()
	Executable string

	// ExtraArgs 追加到子命令后的参数, 如 --config
	ExtraArgs []string
}

// Start 启动子进程并立即返回
// 子进程在独立goroutine中回收, 退出状态只记录调试日志
func (s *ExecStarter) Start(args CrawlArgs) error {
	exe := s.Executable
	if exe == "" {
		path, err := os.Executable()
		if err != nil {
			return fmt.Errorf("获取可执行文件路径失败: %w", err)
		}
		exe = path
	}

	cmdArgs := append(args.Args(), s.ExtraArgs...)
	cmd := exec.Command(exe, cmdArgs...)
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	detach(cmd)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("启动爬虫进程失败: %w", err)
	}

	pid := cmd.Process.Pid
	log.Debug().Str("task_id", args.TaskID).Int("pid", pid).Msg("爬虫进程已启动")

	go func() {
		err := cmd.Wait()
		log.Debug().Str("task_id", args.TaskID).Int("pid", pid).AnErr("exit", err).Msg("爬虫进程已退出")
	}()
	return nil
}

// Launcher 任务启动器
type Launcher struct {
	store            *store.TaskStore
	starter          ProcessStarter
	guard            ResourceGuard
	metrics          *Metrics
	defaultOutputDir string
	now              func() time.Time
}

// NewLauncher 创建任务启动器, guard和metrics可以为nil
func NewLauncher(taskStore *store.TaskStore, starter ProcessStarter, guard ResourceGuard, metrics *Metrics, defaultOutputDir string) *Launcher {
	return &Launcher{
		store:            taskStore,
		starter:          starter,
		guard:            guard,
		metrics:          metrics,
		defaultOutputDir: defaultOutputDir,
		now:              time.Now,
	}
}

// Launch 校验参数、写入任务配置并启动后台爬虫进程
//
// 返回的错误类型:
//   - *models.ValidationError: 参数不合法
//   - *models.ResourceError: 系统资源不足
//   - *models.IOError: 目录或文件创建失败
//
// 任务配置文件总是在进程启动之前写入。爬取本身的失败不会反映到返回值中。
func (l *Launcher) Launch(req LaunchRequest) (*models.Task, error) {
	task, err := l.launch(req)
	if err != nil {
		l.recordFailure(err)
		return nil, err
	}
	if l.metrics != nil {
		l.metrics.TasksStarted.Inc()
	}
	return task, nil
}

func (l *Launcher) launch(req LaunchRequest) (*models.Task, error) {
	rawURL := strings.TrimSpace(req.URL)
	if rawURL == "" {
		return nil, &models.ValidationError{Field: "url", Reason: models.ErrURLRequired.Error(), Err: models.ErrURLRequired}
	}
	if req.Depth < 0 {
		return nil, &models.ValidationError{Field: "depth", Reason: "深度不能为负数"}
	}
	if req.MaxItems < 0 {
		return nil, &models.ValidationError{Field: "max_items", Reason: "最大记录数不能为负数"}
	}

	seedURL := models.EnsureScheme(rawURL)
	if err := models.ValidateURL(seedURL); err != nil {
		return nil, &models.ValidationError{Field: "url", Reason: err.Error()}
	}

	if l.guard != nil {
		if ok, reason := l.guard.CheckResourceAvailability(); !ok {
			return nil, &models.ResourceError{Reason: reason}
		}
	}

	outputDir := strings.TrimSpace(req.OutputDir)
	if outputDir == "" {
		outputDir = l.defaultOutputDir
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, &models.IOError{Op: "创建输出目录", Path: outputDir, Err: err}
	}
	if err := l.store.EnsureDir(); err != nil {
		return nil, err
	}

	task := models.NewTask(seedURL, req.Depth, req.MaxItems, req.Description, outputDir, l.now())
	if err := l.store.SaveTask(task); err != nil {
		return nil, err
	}
	if err := l.store.SaveState(models.StateRecord{
		TaskID:    task.TaskID,
		State:     models.TaskStatePending,
		UpdatedAt: l.now(),
	}); err != nil {
		return nil, err
	}

	args := CrawlArgs{
		URL:        task.URL,
		Depth:      task.Depth,
		MaxItems:   task.MaxItems,
		OutputPath: store.ResultsPath(outputDir, task.TaskID),
		TaskID:     task.TaskID,
		TaskDir:    l.store.TaskDir(),
	}
	if err := l.starter.Start(args); err != nil {
		// 进程没有启动, 直接标记失败, 避免任务永远停留在processing
		if stateErr := l.store.SaveState(models.StateRecord{
			TaskID:    task.TaskID,
			State:     models.TaskStateFailed,
			Error:     err.Error(),
			UpdatedAt: l.now(),
		}); stateErr != nil {
			utils.Warnf("写入失败状态出错: %v", stateErr)
		}
		return nil, &models.IOError{Op: "启动爬虫进程", Path: args.OutputPath, Err: err}
	}

	log.Info().
		Str("task_id", task.TaskID).
		Str("url", task.URL).
		Int("depth", task.Depth).
		Int("max_items", task.MaxItems).
		Str("output", args.OutputPath).
		Msg("🚀 爬取任务已启动")

	return task, nil
}

func (l *Launcher) recordFailure(err error) {
	if l.metrics == nil {
		return
	}
	var (
		validationErr *models.ValidationError
		resourceErr   *models.ResourceError
	)
	reason := "io"
	switch {
	case errors.As(err, &validationErr):
		reason = "validation"
	case errors.As(err, &resourceErr):
		reason = "resource"
	}
	l.metrics.LaunchFailures.WithLabelValues(reason).Inc()
}
