package api

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// ServerMetrics снимает показатели процесса для /api/server
type ServerMetrics struct {
	StartTime time.Time
	proc      *process.Process
}

// ServerInfo снимок состояния процесса
type ServerInfo struct {
	Name         string  `json:"name"`
	Version      string  `json:"version"`
	WorldVersion string  `json:"world_version"`
	Uptime       string  `json:"uptime"`
	MemoryMB     float64 `json:"memory_mb"`
	RSSMB        float64 `json:"rss_mb,omitempty"`
	CPUPercent   float64 `json:"cpu_percent"`
	Goroutines   int     `json:"goroutines"`
	NumGC        uint32  `json:"num_gc"`
}

// NewServerMetrics создает новый экземпляр метрик
func NewServerMetrics() *ServerMetrics {
	sm := &ServerMetrics{StartTime: time.Now()}
	// ошибка означает, что платформа не поддерживается: CPU и RSS останутся нулевыми
	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		sm.proc = p
	}
	return sm
}

// Uptime возвращает время работы сервера
func (sm *ServerMetrics) Uptime() string {
	uptime := time.Since(sm.StartTime)

	days := int(uptime.Hours()) / 24
	hours := int(uptime.Hours()) % 24
	minutes := int(uptime.Minutes()) % 60
	seconds := int(uptime.Seconds()) % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dд %dч %dм %dс", days, hours, minutes, seconds)
	case hours > 0:
		return fmt.Sprintf("%dч %dм %dс", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dм %dс", minutes, seconds)
	default:
		return fmt.Sprintf("%dс", seconds)
	}
}

// Snapshot собирает текущие показатели
func (sm *ServerMetrics) Snapshot() ServerInfo {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	info := ServerInfo{
		Name:       "aetherlink",
		Version:    Version,
		Uptime:     sm.Uptime(),
		MemoryMB:   float64(m.Alloc) / 1024 / 1024,
		Goroutines: runtime.NumGoroutine(),
		NumGC:      m.NumGC,
	}
	if sm.proc != nil {
		if cpu, err := sm.proc.CPUPercent(); err == nil {
			info.CPUPercent = cpu
		}
		if mem, err := sm.proc.MemoryInfo(); err == nil && mem != nil {
			info.RSSMB = float64(mem.RSS) / 1024 / 1024
		}
	}
	return info
}
