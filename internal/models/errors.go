package models

import (
	"errors"
	"fmt"
)

var (
	// ErrTaskNotFound 任务配置文件不存在
	ErrTaskNotFound = errors.New("任务不存在")

	// ErrResultsIncomplete 结果文件存在但尚不是合法JSON(爬虫仍在写入)
	ErrResultsIncomplete = errors.New("结果文件尚未写完")

	// ErrURLRequired 请求没有提供URL
	ErrURLRequired = errors.New("URL不能为空")
)

// ValidationError 请求参数验证错误
type ValidationError struct {
	// Field 出错的字段
	Field string

	// Reason 错误原因
	Reason string

	// Err 对应的哨兵错误, 可以为nil
	Err error
}

// Error 实现error接口
func (e *ValidationError) Error() string {
	return fmt.Sprintf("参数验证失败 [%s]: %s", e.Field, e.Reason)
}

// Unwrap 返回哨兵错误
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// IOError 文件或目录操作失败
type IOError struct {
	Op   string // 操作, 如 "创建目录"
	Path string
	Err  error
}

// Error 实现error接口
func (e *IOError) Error() string {
	return fmt.Sprintf("%s失败 [%s]: %v", e.Op, e.Path, e.Err)
}

// Unwrap 支持errors.Unwrap
func (e *IOError) Unwrap() error {
	return e.Err
}

// ResourceError 系统资源不足,拒绝启动新任务
type ResourceError struct {
	Reason string
}

// Error 实现error接口
func (e *ResourceError) Error() string {
	return "系统资源不足: " + e.Reason
}

// ConfigError 配置文件错误
type ConfigError struct {
	// FilePath 配置文件路径
	FilePath string

	// Cause 底层错误 (如viper.ConfigParseError)
	Cause error
}

// Error 实现error接口
func (e *ConfigError) Error() string {
	return fmt.Sprintf("配置文件错误 [%s]: %v", e.FilePath, e.Cause)
}

// Unwrap 支持errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Cause
}
