package core

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/RecoveryAshes/teocruel/internal/crawlers"
	"github.com/RecoveryAshes/teocruel/internal/models"
	"github.com/RecoveryAshes/teocruel/internal/utils"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix 环境变量前缀, 如 TEOCRUEL_SERVER_ADDR
const EnvPrefix = "TEOCRUEL"

// Config 应用程序配置
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Tasks    TasksConfig    `mapstructure:"tasks"`
	Crawl    CrawlConfig    `mapstructure:"crawl"`
	Resource ResourceConfig `mapstructure:"resource"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	I18n     I18nConfig     `mapstructure:"i18n"`

	// configFile 实际读取的配置文件, 未找到时为空
	configFile string
}

// ServerConfig HTTP服务配置
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// StorageConfig 文件存储配置
type StorageConfig struct {
	TaskDir   string `mapstructure:"task_dir"`   // 任务配置和状态文件目录
	OutputDir string `mapstructure:"output_dir"` // 请求未指定output_dir时的结果目录
}

// TasksConfig 任务保留策略
type TasksConfig struct {
	Retention     time.Duration `mapstructure:"retention"` // 0表示永久保留
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// CrawlConfig 爬取配置
type CrawlConfig struct {
	Depth              int               `mapstructure:"depth"`
	MaxItems           int               `mapstructure:"max_items"`
	RequestTimeout     time.Duration     `mapstructure:"request_timeout"`
	UserAgent          string            `mapstructure:"user_agent"`
	Headers            map[string]string `mapstructure:"headers"`
	InsecureSkipVerify bool              `mapstructure:"insecure_skip_verify"`
}

// ResourceConfig 启动新任务前的资源检查, 0表示不检查
type ResourceConfig struct {
	MinAvailableMemory uint64        `mapstructure:"min_available_memory"` // MB
	CPULoadThreshold   float64       `mapstructure:"cpu_load_threshold"`   // %
	SampleInterval     time.Duration `mapstructure:"sample_interval"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level    string         `mapstructure:"level"`
	LogDir   string         `mapstructure:"log_dir"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig 日志轮转配置
type RotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"`
	Compress   bool `mapstructure:"compress"`
}

// I18nConfig 界面语言配置
type I18nConfig struct {
	Default   string   `mapstructure:"default"`
	Supported []string `mapstructure:"supported"`
}

// LoadConfig 加载配置文件
// 优先级: 环境变量 > 配置文件 > 默认值; .env 中的变量在读取前注入环境
func LoadConfig(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("加载.env失败: %w", err)
	}

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".teocruel"))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, &models.ConfigError{FilePath: configPath, Cause: err}
		}
		// 配置文件不存在,使用默认值
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, &models.ConfigError{FilePath: v.ConfigFileUsed(), Cause: err}
	}
	config.configFile = v.ConfigFileUsed()

	if err := config.Validate(); err != nil {
		return nil, &models.ConfigError{FilePath: config.configFile, Cause: err}
	}

	return &config, nil
}

// DefaultConfig 返回全部使用默认值的配置
func DefaultConfig() *Config {
	v := viper.New()
	setDefaults(v)

	var config Config
	// 默认值总能解析
	_ = v.Unmarshal(&config)
	return &config
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":5000")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("storage.task_dir", "temp")
	v.SetDefault("storage.output_dir", "temp")

	v.SetDefault("tasks.retention", "168h")
	v.SetDefault("tasks.sweep_interval", "1h")

	v.SetDefault("crawl.depth", 1)
	v.SetDefault("crawl.max_items", 100)
	v.SetDefault("crawl.request_timeout", "30s")
	v.SetDefault("crawl.user_agent", DefaultUserAgent)
	v.SetDefault("crawl.headers", map[string]string{})
	v.SetDefault("crawl.insecure_skip_verify", false)

	v.SetDefault("resource.min_available_memory", 0)
	v.SetDefault("resource.cpu_load_threshold", 0)
	v.SetDefault("resource.sample_interval", "5s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.log_dir", "logs")
	v.SetDefault("logging.rotation.max_size", 10)
	v.SetDefault("logging.rotation.max_backups", 5)
	v.SetDefault("logging.rotation.max_age", 28)
	v.SetDefault("logging.rotation.compress", true)

	v.SetDefault("i18n.default", "zh")
	v.SetDefault("i18n.supported", []string{"zh", "en", "ja", "fr", "es"})
}

// Validate 检查配置取值
func (c *Config) Validate() error {
	if c.Storage.TaskDir == "" {
		return fmt.Errorf("storage.task_dir 不能为空")
	}
	if c.Storage.OutputDir == "" {
		return fmt.Errorf("storage.output_dir 不能为空")
	}
	if c.Crawl.Depth < 0 {
		return fmt.Errorf("crawl.depth 不能为负数: %d", c.Crawl.Depth)
	}
	if c.Crawl.MaxItems < 0 {
		return fmt.Errorf("crawl.max_items 不能为负数: %d", c.Crawl.MaxItems)
	}
	for name, value := range c.Crawl.Headers {
		if err := utils.ValidateHeader(name, value); err != nil {
			return fmt.Errorf("crawl.headers: %w", err)
		}
	}
	if c.Crawl.UserAgent != "" {
		if err := utils.ValidateHeader("User-Agent", c.Crawl.UserAgent); err != nil {
			return fmt.Errorf("crawl.user_agent: %w", err)
		}
	}
	if c.Tasks.Retention < 0 {
		return fmt.Errorf("tasks.retention 不能为负数")
	}
	if c.Tasks.Retention > 0 && c.Tasks.SweepInterval <= 0 {
		return fmt.Errorf("启用保留策略时 tasks.sweep_interval 必须大于0")
	}
	if c.Resource.CPULoadThreshold < 0 || c.Resource.CPULoadThreshold > 100 {
		return fmt.Errorf("resource.cpu_load_threshold 必须在0-100之间: %.1f", c.Resource.CPULoadThreshold)
	}
	if len(c.I18n.Supported) == 0 {
		return fmt.Errorf("i18n.supported 不能为空")
	}
	found := false
	for _, lang := range c.I18n.Supported {
		if lang == c.I18n.Default {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("i18n.default %q 不在支持列表中", c.I18n.Default)
	}
	return nil
}

// ConfigFile 返回实际读取的配置文件路径
func (c *Config) ConfigFile() string {
	return c.configFile
}

// LogConfig 转换为日志配置
func (c *Config) LogConfig() utils.LogConfig {
	lc := utils.DefaultLogConfig()
	lc.Level = c.Logging.Level
	lc.LogDir = c.Logging.LogDir
	lc.MaxSize = c.Logging.Rotation.MaxSize
	lc.MaxBackups = c.Logging.Rotation.MaxBackups
	lc.MaxAge = c.Logging.Rotation.MaxAge
	lc.Compress = c.Logging.Rotation.Compress
	return lc
}

// CrawlerConfig 转换为页面爬取配置, depth和maxItems来自任务
func (c *Config) CrawlerConfig(depth, maxItems int) crawlers.Config {
	return crawlers.Config{
		Depth:              depth,
		MaxItems:           maxItems,
		RequestTimeout:     c.Crawl.RequestTimeout,
		InsecureSkipVerify: c.Crawl.InsecureSkipVerify,
	}
}

// ResourceMonitorConfig 转换为资源监控配置
func (c *Config) ResourceMonitorConfig() crawlers.ResourceMonitorConfig {
	return crawlers.ResourceMonitorConfig{
		MinAvailableMemory: c.Resource.MinAvailableMemory * 1024 * 1024,
		CPULoadThreshold:   c.Resource.CPULoadThreshold,
	}
}
