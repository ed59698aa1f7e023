package models

import (
	"encoding/json"
	"time"
)

// StartTimeLayout 任务创建时间格式
const StartTimeLayout = "2006-01-02 15:04:05"

// Task 一次爬取任务的配置,写入后不再修改
type Task struct {
	URL         string `json:"url"`         // 种子URL(已补全协议)
	Depth       int    `json:"depth"`       // 最大爬取深度
	MaxItems    int    `json:"max_items"`   // 最大记录数
	Description string `json:"description"` // 任务描述
	OutputDir   string `json:"output_dir"`  // 结果输出目录
	TaskID      string `json:"task_id"`     // 任务唯一ID (UUID)
	StartTime   string `json:"start_time"`  // 创建时间, StartTimeLayout格式
}

// NewTask 创建新任务
func NewTask(rawURL string, depth, maxItems int, description, outputDir string, now time.Time) *Task {
	return &Task{
		URL:         rawURL,
		Depth:       depth,
		MaxItems:    maxItems,
		Description: description,
		OutputDir:   outputDir,
		TaskID:      generateID(),
		StartTime:   now.Format(StartTimeLayout),
	}
}

// ToJSON 序列化为JSON
func (t *Task) ToJSON() ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}

// FromJSON 从JSON反序列化
func (t *Task) FromJSON(data []byte) error {
	return json.Unmarshal(data, t)
}

// TaskState 爬虫进程自行维护的任务状态
type TaskState string

const (
	TaskStatePending   TaskState = "pending"   // 已创建,进程尚未启动
	TaskStateRunning   TaskState = "running"   // 爬取中
	TaskStateCompleted TaskState = "completed" // 已完成
	TaskStateFailed    TaskState = "failed"    // 失败
)

// IsTerminal 是否为终态
func (s TaskState) IsTerminal() bool {
	return s == TaskStateCompleted || s == TaskStateFailed
}

// StateRecord 状态文件内容
type StateRecord struct {
	TaskID    string      `json:"task_id"`
	State     TaskState   `json:"state"`
	Items     int         `json:"items"`
	Error     string      `json:"error,omitempty"`
	Stats     *CrawlStats `json:"stats,omitempty"` // 爬取结束后写入
	UpdatedAt time.Time   `json:"updated_at"`
}

// CrawlStats 单次爬取统计
type CrawlStats struct {
	Requests int     `json:"requests"` // 发出的请求数
	Records  int     `json:"records"`  // 产出的记录数
	Errors   int     `json:"errors"`   // 失败的请求数
	Skipped  int     `json:"skipped"`  // 重定向到已访问URL而跳过的页面数
	Visited  int     `json:"visited"`  // 加入已访问集合的URL数
	Duration float64 `json:"duration"` // 总耗时(秒)
}

// StatusKind 状态接口返回的status字段
type StatusKind string

const (
	StatusProcessing StatusKind = "processing"
	StatusCompleted  StatusKind = "completed"
	StatusError      StatusKind = "error"
)

// TaskStatus 状态查询结果
type TaskStatus struct {
	Kind    StatusKind
	State   TaskState // 状态文件中的状态,可能为空
	Results []CrawlRecord
	Error   string      // 爬虫进程报告的错误
	Stats   *CrawlStats // 爬虫进程结束时写入的统计
}
