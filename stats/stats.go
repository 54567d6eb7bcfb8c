// Package stats reports the control plane's own host utilization for
// the /stats endpoint. Node utilization is the node agents' business;
// this is only for watching the panel machine itself.
package stats

import (
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/disk"
	"github.com/shirou/gopsutil/load"
	"github.com/shirou/gopsutil/mem"
)

type Stats struct {
	MemStats  *mem.VirtualMemoryStat `json:"memory"`
	DiskStats *disk.UsageStat        `json:"disk"`
	CpuStats  []cpu.TimesStat        `json:"cpu"`
	LoadStats *load.AvgStat          `json:"load"`
}

func (s *Stats) MemTotal() uint64 {
	return s.MemStats.Total
}

func (s *Stats) MemAvailable() uint64 {
	return s.MemStats.Available
}

func (s *Stats) MemUsedPercent() float64 {
	return s.MemStats.UsedPercent
}

func (s *Stats) DiskTotal() uint64 {
	return s.DiskStats.Total
}

func (s *Stats) DiskFree() uint64 {
	return s.DiskStats.Free
}

func GetStats() *Stats {
	memStats, _ := mem.VirtualMemory()
	diskStats, _ := disk.Usage("/")
	cpuStats, _ := cpu.Times(true)
	loadAvgStats, _ := load.Avg()
	return &Stats{
		MemStats:  memStats,
		DiskStats: diskStats,
		CpuStats:  cpuStats,
		LoadStats: loadAvgStats,
	}
}
