// Package monitoring samples host-level stats for the admin dashboard.
package monitoring

import (
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

type SystemStats struct {
	CPUPercent  float64 `json:"cpu_percent"`
	MemUsedMB   float64 `json:"mem_used_mb"`
	MemTotalMB  float64 `json:"mem_total_mb"`
	DiskUsedGB  float64 `json:"disk_used_gb"`
	DiskTotalGB float64 `json:"disk_total_gb"`
}

// CollectSystem samples CPU, memory and root-disk usage. The CPU sample
// blocks for its measurement interval.
func CollectSystem() (*SystemStats, error) {
	stats := &SystemStats{}

	cpuPercents, err := cpu.Percent(200*time.Millisecond, false)
	if err != nil {
		return nil, err
	}
	if len(cpuPercents) > 0 {
		stats.CPUPercent = cpuPercents[0]
	}

	memStats, err := mem.VirtualMemory()
	if err != nil {
		return nil, err
	}
	stats.MemUsedMB = float64(memStats.Used) / 1024 / 1024
	stats.MemTotalMB = float64(memStats.Total) / 1024 / 1024

	diskStats, err := disk.Usage("/")
	if err != nil {
		return nil, err
	}
	stats.DiskUsedGB = float64(diskStats.Used) / 1024 / 1024 / 1024
	stats.DiskTotalGB = float64(diskStats.Total) / 1024 / 1024 / 1024

	return stats, nil
}
