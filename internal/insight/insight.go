// Package insight turns a snapshot into an ordered list of observations by
// comparing it against configured thresholds.
package insight

import (
	"fmt"

	"github.com/rileyhilliard/sysinsight/internal/config"
	"github.com/rileyhilliard/sysinsight/internal/snapshot"
)

// Severity ranks an insight.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Rule identifiers, listed in evaluation order.
const (
	RuleCPUHigh             = "cpu-high"
	RuleMemoryLow           = "memory-low"
	RuleSwapHigh            = "swap-high"
	RuleDiskFull            = "disk-full"
	RuleLoadHigh            = "load-high"
	RuleTemperatureHigh     = "temperature-high"
	RuleGPUHot              = "gpu-hot"
	RuleCategoryUnavailable = "category-unavailable"
)

// diskCriticalPercent escalates disk-full regardless of the configured limit.
const diskCriticalPercent = 98.0

// Insight is one observation derived from a snapshot.
type Insight struct {
	Rule     string   `json:"rule"`
	Category string   `json:"category"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

type rule func(s *snapshot.Snapshot, th config.Thresholds) []Insight

// rules run in this order; every rule is evaluated regardless of what the
// others produced.
var rules = []rule{
	cpuHigh,
	memoryLow,
	swapHigh,
	diskFull,
	loadHigh,
	temperatureHigh,
	gpuHot,
	categoryUnavailable,
}

// Generate evaluates every rule against s. The result is never nil and is
// identical for identical input.
func Generate(s *snapshot.Snapshot, th config.Thresholds) []Insight {
	out := []Insight{}
	if s == nil {
		return out
	}
	for _, r := range rules {
		out = append(out, r(s, th)...)
	}
	return out
}

func cpuHigh(s *snapshot.Snapshot, th config.Thresholds) []Insight {
	if !s.CPU.OK() || s.CPU.Data.UsagePercent <= th.CPUPercent {
		return nil
	}
	return []Insight{{
		Rule:     RuleCPUHigh,
		Category: config.CategoryCPU,
		Severity: SeverityWarning,
		Message:  fmt.Sprintf("High CPU usage detected: %.1f%%", s.CPU.Data.UsagePercent),
	}}
}

func memoryLow(s *snapshot.Snapshot, th config.Thresholds) []Insight {
	if !s.Memory.OK() || s.Memory.Data.Total == 0 {
		return nil
	}
	free := s.Memory.Data.AvailablePercent
	if free >= th.MemoryFreePercent {
		return nil
	}
	sev := SeverityWarning
	if free < th.MemoryFreePercent/2 {
		sev = SeverityCritical
	}
	return []Insight{{
		Rule:     RuleMemoryLow,
		Category: config.CategoryMemory,
		Severity: sev,
		Message:  fmt.Sprintf("Free memory is low: %.1f%% available", free),
	}}
}

func swapHigh(s *snapshot.Snapshot, th config.Thresholds) []Insight {
	if !s.Memory.OK() || s.Memory.Data.SwapTotal == 0 || s.Memory.Data.SwapUsedPercent <= th.SwapPercent {
		return nil
	}
	return []Insight{{
		Rule:     RuleSwapHigh,
		Category: config.CategoryMemory,
		Severity: SeverityWarning,
		Message:  fmt.Sprintf("Swap usage is high at %.1f%%", s.Memory.Data.SwapUsedPercent),
	}}
}

func diskFull(s *snapshot.Snapshot, th config.Thresholds) []Insight {
	if !s.Disk.OK() || s.Disk.Data.UsedPercent <= th.DiskPercent {
		return nil
	}
	sev := SeverityWarning
	if s.Disk.Data.UsedPercent >= diskCriticalPercent {
		sev = SeverityCritical
	}
	return []Insight{{
		Rule:     RuleDiskFull,
		Category: config.CategoryDisk,
		Severity: sev,
		Message:  fmt.Sprintf("Disk almost full: %.1f%% used on %s", s.Disk.Data.UsedPercent, s.Disk.Data.Path),
	}}
}

func loadHigh(s *snapshot.Snapshot, th config.Thresholds) []Insight {
	if !s.CPU.OK() || s.CPU.Data.LogicalCores <= 0 {
		return nil
	}
	perCore := s.CPU.Data.Load1 / float64(s.CPU.Data.LogicalCores)
	if perCore <= th.LoadPerCore {
		return nil
	}
	return []Insight{{
		Rule:     RuleLoadHigh,
		Category: config.CategoryCPU,
		Severity: SeverityWarning,
		Message: fmt.Sprintf("Load average %.2f is %.2f per core across %d cores",
			s.CPU.Data.Load1, perCore, s.CPU.Data.LogicalCores),
	}}
}

func temperatureHigh(s *snapshot.Snapshot, th config.Thresholds) []Insight {
	if !s.Sensors.OK() {
		return nil
	}
	hot, ok := s.Sensors.Data.Hottest()
	if !ok || hot.Celsius <= th.TemperatureCelsius {
		return nil
	}
	return []Insight{{
		Rule:     RuleTemperatureHigh,
		Category: config.CategorySensors,
		Severity: SeverityWarning,
		Message:  fmt.Sprintf("Sensor %s is running hot at %.1f°C", hot.Key, hot.Celsius),
	}}
}

func gpuHot(s *snapshot.Snapshot, th config.Thresholds) []Insight {
	if !s.GPU.OK() {
		return nil
	}
	var out []Insight
	for _, d := range s.GPU.Data.Devices {
		if d.TemperatureC == nil || *d.TemperatureC <= th.GPUTemperatureCelsius {
			continue
		}
		out = append(out, Insight{
			Rule:     RuleGPUHot,
			Category: config.CategoryGPU,
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("GPU %d (%s) is running hot at %.0f°C", d.Index, d.Name, *d.TemperatureC),
		})
	}
	return out
}

func categoryUnavailable(s *snapshot.Snapshot, _ config.Thresholds) []Insight {
	var out []Insight
	for _, c := range s.Categories() {
		if c.Status != snapshot.StatusUnavailable {
			continue
		}
		out = append(out, Insight{
			Rule:     RuleCategoryUnavailable,
			Category: c.Name,
			Severity: SeverityInfo,
			Message:  fmt.Sprintf("%s metrics unavailable: %s", c.Name, c.Error),
		})
	}
	return out
}
