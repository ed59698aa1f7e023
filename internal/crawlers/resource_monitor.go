package crawlers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// ResourceMonitorConfig 资源监控配置, 阈值为0时不检查对应资源
type ResourceMonitorConfig struct {
	MinAvailableMemory uint64  // 启动新爬虫所需的最小可用内存(字节)
	CPULoadThreshold   float64 // CPU负载上限(%)
}

// ResourceSnapshot 最近一次采样结果
type ResourceSnapshot struct {
	TotalMemory     uint64    `json:"total_memory"`
	AvailableMemory uint64    `json:"available_memory"`
	CPUPercent      float64   `json:"cpu_percent"`
	SampledAt       time.Time `json:"sampled_at"`
}

// ResourceMonitor 系统资源监控器
// 职责: 判断当前主机是否还能承受一个新的后台爬虫进程
type ResourceMonitor struct {
	config ResourceMonitorConfig

	// 采样函数,测试时可替换
	sampleMemory func() (total, available uint64, err error)
	sampleCPU    func(interval time.Duration) (float64, error)

	mu       sync.RWMutex
	lastCPU  float64
	lastTime time.Time
	running  bool
	cancel   context.CancelFunc
}

// NewResourceMonitor 创建资源监控器实例
func NewResourceMonitor(config ResourceMonitorConfig) *ResourceMonitor {
	return &ResourceMonitor{
		config:       config,
		sampleMemory: virtualMemory,
		sampleCPU:    cpuPercent,
	}
}

func virtualMemory() (uint64, uint64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, 0, err
	}
	return vm.Total, vm.Available, nil
}

func cpuPercent(interval time.Duration) (float64, error) {
	percentages, err := cpu.Percent(interval, false)
	if err != nil {
		return 0, err
	}
	if len(percentages) == 0 {
		return 0, fmt.Errorf("CPU使用率数据为空")
	}
	return percentages[0], nil
}

// StartMonitoring 启动后台CPU采样, 重复调用无效果
// cpu.Percent会阻塞一个采样周期,因此放在后台执行
func (rm *ResourceMonitor) StartMonitoring(ctx context.Context, interval time.Duration) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if rm.running || rm.config.CPULoadThreshold <= 0 {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	rm.cancel = cancel
	rm.running = true

	go rm.monitoringLoop(ctx, interval)
}

func (rm *ResourceMonitor) monitoringLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			usage, err := rm.sampleCPU(100 * time.Millisecond)
			if err != nil {
				log.Warn().Err(err).Msg("获取CPU使用率失败")
				continue
			}
			rm.mu.Lock()
			rm.lastCPU = usage
			rm.lastTime = time.Now()
			rm.mu.Unlock()
		}
	}
}

// StopMonitoring 停止后台采样
func (rm *ResourceMonitor) StopMonitoring() {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if rm.running && rm.cancel != nil {
		rm.cancel()
		rm.running = false
		rm.cancel = nil
	}
}

// CheckResourceAvailability 检查是否允许启动新的爬虫进程
// 返回ok和不允许时的原因
func (rm *ResourceMonitor) CheckResourceAvailability() (ok bool, reason string) {
	if rm.config.MinAvailableMemory > 0 {
		_, available, err := rm.sampleMemory()
		if err != nil {
			// 无法采样时不阻止任务
			log.Warn().Err(err).Msg("获取系统内存失败,跳过内存检查")
		} else if available < rm.config.MinAvailableMemory {
			availableMB := available / (1024 * 1024)
			log.Warn().Msgf("可用内存不足(当前%dMB),拒绝启动新爬虫", availableMB)
			return false, fmt.Sprintf("内存不足(当前%dMB)", availableMB)
		}
	}

	if rm.config.CPULoadThreshold > 0 {
		rm.mu.RLock()
		usage := rm.lastCPU
		rm.mu.RUnlock()

		if usage > rm.config.CPULoadThreshold {
			return false, fmt.Sprintf("CPU负载过高(当前%.1f%%)", usage)
		}
	}

	return true, ""
}

// Snapshot 返回当前资源状态
func (rm *ResourceMonitor) Snapshot() ResourceSnapshot {
	total, available, err := rm.sampleMemory()
	if err != nil {
		log.Warn().Err(err).Msg("获取系统内存失败")
	}

	rm.mu.RLock()
	defer rm.mu.RUnlock()

	return ResourceSnapshot{
		TotalMemory:     total,
		AvailableMemory: available,
		CPUPercent:      rm.lastCPU,
		SampledAt:       rm.lastTime,
	}
}
