package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func testLogConfig(dir, level string) LogConfig {
	return LogConfig{
		Level:      level,
		LogDir:     dir,
		FileName:   "test",
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   false,
		NoConsole:  true,
	}
}

func TestInitLogger(t *testing.T) {
	tempDir := filepath.Join(t.TempDir(), "logs")

	if err := InitLogger(testLogConfig(tempDir, "debug")); err != nil {
		t.Fatalf("初始化日志器失败: %v", err)
	}

	if _, err := os.Stat(tempDir); os.IsNotExist(err) {
		t.Errorf("日志目录未创建: %s", tempDir)
	}

	Info("测试信息日志")
	Debug("测试调试日志")

	time.Sleep(50 * time.Millisecond)

	mainLogPath := filepath.Join(tempDir, "test.log")
	content, err := os.ReadFile(mainLogPath)
	if err != nil {
		t.Fatalf("读取日志文件失败: %v", err)
	}
	if !strings.Contains(string(content), "测试调试日志") {
		t.Error("debug级别下应写入调试日志")
	}
}

func TestErrorLogOnlyReceivesErrors(t *testing.T) {
	tempDir := t.TempDir()

	if err := InitLogger(testLogConfig(tempDir, "info")); err != nil {
		t.Fatalf("初始化日志器失败: %v", err)
	}

	Warnf("警告日志: %d", 123)
	Errorf("错误日志: %s", "磁盘已满")

	time.Sleep(50 * time.Millisecond)

	content, err := os.ReadFile(filepath.Join(tempDir, "test_error.log"))
	if err != nil {
		t.Fatalf("读取错误日志失败: %v", err)
	}
	if strings.Contains(string(content), "警告日志") {
		t.Error("错误日志不应包含警告级别日志")
	}
	if !strings.Contains(string(content), "磁盘已满") {
		t.Error("错误日志应包含错误级别日志")
	}
}

func TestDefaultLogConfig(t *testing.T) {
	config := DefaultLogConfig()

	if config.Level != "info" {
		t.Errorf("默认日志级别错误: 期望 'info', 得到 '%s'", config.Level)
	}
	if config.LogDir != "logs" {
		t.Errorf("默认日志目录错误: 期望 'logs', 得到 '%s'", config.LogDir)
	}
	if config.FileName != "teocruel" {
		t.Errorf("默认日志文件名错误: %s", config.FileName)
	}
	if config.MaxSize != 10 || config.MaxBackups != 5 {
		t.Errorf("默认轮转配置错误: %+v", config)
	}
}
