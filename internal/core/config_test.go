package core

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/RecoveryAshes/teocruel/internal/models"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("写入配置文件失败: %v", err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Storage.TaskDir != "temp" || cfg.Storage.OutputDir != "temp" {
		t.Errorf("storage = %+v", cfg.Storage)
	}
	if cfg.Crawl.Depth != 1 || cfg.Crawl.MaxItems != 100 {
		t.Errorf("crawl depth/max_items = %d/%d", cfg.Crawl.Depth, cfg.Crawl.MaxItems)
	}
	if cfg.Crawl.RequestTimeout != 30*time.Second {
		t.Errorf("request_timeout = %v", cfg.Crawl.RequestTimeout)
	}
	if cfg.Tasks.Retention != 168*time.Hour {
		t.Errorf("retention = %v", cfg.Tasks.Retention)
	}
	if cfg.I18n.Default != "zh" || len(cfg.I18n.Supported) != 5 {
		t.Errorf("i18n = %+v", cfg.I18n)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("默认配置应合法: %v", err)
	}
}

func TestLoadConfig(t *testing.T) {
	t.Run("读取配置文件", func(t *testing.T) {
		path := writeConfig(t, `
server:
  addr: ":8080"
storage:
  task_dir: tasks
crawl:
  request_timeout: 5s
  headers:
    X-Token: abc
resource:
  min_available_memory: 256
i18n:
  default: en
`)
		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}
		if cfg.Server.Addr != ":8080" {
			t.Errorf("server.addr = %q", cfg.Server.Addr)
		}
		if cfg.Storage.TaskDir != "tasks" || cfg.Storage.OutputDir != "temp" {
			t.Errorf("storage = %+v", cfg.Storage)
		}
		if cfg.Crawl.RequestTimeout != 5*time.Second {
			t.Errorf("request_timeout = %v", cfg.Crawl.RequestTimeout)
		}
		if cfg.Crawl.Headers["x-token"] != "abc" {
			t.Errorf("headers = %v", cfg.Crawl.Headers)
		}
		if got := cfg.ResourceMonitorConfig().MinAvailableMemory; got != 256*1024*1024 {
			t.Errorf("MinAvailableMemory = %d", got)
		}
		if cfg.ConfigFile() != path {
			t.Errorf("ConfigFile() = %q", cfg.ConfigFile())
		}
	})

	t.Run("环境变量覆盖配置文件", func(t *testing.T) {
		path := writeConfig(t, "server:\n  addr: \":8080\"\n")
		t.Setenv("TEOCRUEL_SERVER_ADDR", ":9090")
		t.Setenv("TEOCRUEL_CRAWL_MAX_ITEMS", "7")

		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}
		if cfg.Server.Addr != ":9090" {
			t.Errorf("server.addr = %q, 期望 :9090", cfg.Server.Addr)
		}
		if cfg.Crawl.MaxItems != 7 {
			t.Errorf("crawl.max_items = %d, 期望 7", cfg.Crawl.MaxItems)
		}
	})

	t.Run("YAML格式错误", func(t *testing.T) {
		path := writeConfig(t, "server: [unclosed\n")
		_, err := LoadConfig(path)
		var configErr *models.ConfigError
		if !errors.As(err, &configErr) {
			t.Errorf("期望ConfigError, 实际 %v", err)
		}
	})

	t.Run("非法头部在加载时报错", func(t *testing.T) {
		path := writeConfig(t, "crawl:\n  headers:\n    \"Bad Name\": x\n")
		_, err := LoadConfig(path)
		var configErr *models.ConfigError
		if !errors.As(err, &configErr) {
			t.Errorf("期望ConfigError, 实际 %v", err)
		}
	})

	t.Run("取值非法", func(t *testing.T) {
		path := writeConfig(t, "i18n:\n  default: de\n")
		if _, err := LoadConfig(path); err == nil {
			t.Error("默认语言不在支持列表中时应返回错误")
		}
	})
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
	}{
		{"任务目录为空", func(c *Config) { c.Storage.TaskDir = "" }},
		{"深度为负", func(c *Config) { c.Crawl.Depth = -1 }},
		{"最大记录数为负", func(c *Config) { c.Crawl.MaxItems = -1 }},
		{"保留时间为负", func(c *Config) { c.Tasks.Retention = -time.Hour }},
		{"清理间隔为0", func(c *Config) { c.Tasks.SweepInterval = 0 }},
		{"CPU阈值超过100", func(c *Config) { c.Resource.CPULoadThreshold = 150 }},
		{"支持语言为空", func(c *Config) { c.I18n.Supported = nil }},
		{"头部名称非法", func(c *Config) { c.Crawl.Headers = map[string]string{"Bad Name": "x"} }},
		{"头部由客户端管理", func(c *Config) { c.Crawl.Headers = map[string]string{"Host": "a"} }},
		{"User-Agent含控制字符", func(c *Config) { c.Crawl.UserAgent = "bot\n" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("期望验证失败")
			}
		})
	}
}
