package insight

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/sysinsight/internal/config"
	"github.com/rileyhilliard/sysinsight/internal/snapshot"
)

func thresholds() config.Thresholds {
	return config.DefaultConfig().Thresholds
}

func f64(v float64) *float64 { return &v }

func healthy() *snapshot.Snapshot {
	s := snapshot.New(time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC))
	s.CPU = snapshot.Available(snapshot.CPU{UsagePercent: 20, LogicalCores: 8, Load1: 1.5})
	s.Memory = snapshot.Available(snapshot.Memory{Total: 16 << 30, AvailablePercent: 60, SwapTotal: 4 << 30, SwapUsedPercent: 5})
	s.Disk = snapshot.Available(snapshot.Disk{Path: "/", UsedPercent: 40})
	s.Sensors = snapshot.Available(snapshot.Sensors{Temperatures: []snapshot.Temperature{{Key: "cpu", Celsius: 50}}})
	s.GPU = snapshot.Available(snapshot.GPU{Devices: []snapshot.GPUDevice{{Index: 0, Name: "RTX", TemperatureC: f64(60)}}})
	return s
}

func rulesOf(ins []Insight) []string {
	out := make([]string, len(ins))
	for i, in := range ins {
		out[i] = in.Rule
	}
	return out
}

func TestGenerate_HighCPUOnly(t *testing.T) {
	s := snapshot.New(time.Now())
	s.CPU = snapshot.Available(snapshot.CPU{UsagePercent: 95, LogicalCores: 4})
	s.Memory = snapshot.Available(snapshot.Memory{Total: 8 << 30, AvailablePercent: 50})

	ins := Generate(s, thresholds())

	require.Len(t, ins, 1)
	assert.Equal(t, RuleCPUHigh, ins[0].Rule)
	assert.Equal(t, SeverityWarning, ins[0].Severity)
	assert.Contains(t, ins[0].Message, "95.0%")
}

func TestGenerate_Healthy(t *testing.T) {
	assert.Empty(t, Generate(healthy(), thresholds()))
	assert.NotNil(t, Generate(healthy(), thresholds()))
}

func TestGenerate_NilSnapshot(t *testing.T) {
	assert.Empty(t, Generate(nil, thresholds()))
}

func TestGenerate_Rules(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(s *snapshot.Snapshot)
		wantRule string
		wantSev  Severity
	}{
		{"cpu at threshold is fine", func(s *snapshot.Snapshot) { s.CPU.Data.UsagePercent = 90 }, "", ""},
		{"cpu high", func(s *snapshot.Snapshot) { s.CPU.Data.UsagePercent = 90.1 }, RuleCPUHigh, SeverityWarning},
		{"memory low warning", func(s *snapshot.Snapshot) { s.Memory.Data.AvailablePercent = 8 }, RuleMemoryLow, SeverityWarning},
		{"memory low critical", func(s *snapshot.Snapshot) { s.Memory.Data.AvailablePercent = 3 }, RuleMemoryLow, SeverityCritical},
		{"swap high", func(s *snapshot.Snapshot) { s.Memory.Data.SwapUsedPercent = 85 }, RuleSwapHigh, SeverityWarning},
		{"no swap configured", func(s *snapshot.Snapshot) {
			s.Memory.Data.SwapTotal = 0
			s.Memory.Data.SwapUsedPercent = 100
		}, "", ""},
		{"disk warning", func(s *snapshot.Snapshot) { s.Disk.Data.UsedPercent = 93 }, RuleDiskFull, SeverityWarning},
		{"disk critical", func(s *snapshot.Snapshot) { s.Disk.Data.UsedPercent = 98 }, RuleDiskFull, SeverityCritical},
		{"load high", func(s *snapshot.Snapshot) { s.CPU.Data.Load1 = 17 }, RuleLoadHigh, SeverityWarning},
		{"load without core count", func(s *snapshot.Snapshot) {
			s.CPU.Data.Load1 = 17
			s.CPU.Data.LogicalCores = 0
		}, "", ""},
		{"sensor hot", func(s *snapshot.Snapshot) {
			s.Sensors.Data.Temperatures = append(s.Sensors.Data.Temperatures, snapshot.Temperature{Key: "nvme", Celsius: 91})
		}, RuleTemperatureHigh, SeverityWarning},
		{"gpu hot", func(s *snapshot.Snapshot) { s.GPU.Data.Devices[0].TemperatureC = f64(88) }, RuleGPUHot, SeverityWarning},
		{"gpu without temperature", func(s *snapshot.Snapshot) { s.GPU.Data.Devices[0].TemperatureC = nil }, "", ""},
		{"category unavailable", func(s *snapshot.Snapshot) {
			s.Sensors = snapshot.Unavailable[snapshot.Sensors]("not supported")
		}, RuleCategoryUnavailable, SeverityInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := healthy()
			tt.mutate(s)
			ins := Generate(s, thresholds())
			if tt.wantRule == "" {
				assert.Empty(t, ins)
				return
			}
			require.Len(t, ins, 1)
			assert.Equal(t, tt.wantRule, ins[0].Rule)
			assert.Equal(t, tt.wantSev, ins[0].Severity)
			assert.NotEmpty(t, ins[0].Message)
		})
	}
}

func TestGenerate_FixedPriorityOrder(t *testing.T) {
	s := healthy()
	s.Network = snapshot.Unavailable[snapshot.Network]("no counters")
	s.GPU = snapshot.Available(snapshot.GPU{Devices: []snapshot.GPUDevice{
		{Index: 0, Name: "a", TemperatureC: f64(90)},
		{Index: 1, Name: "b", TemperatureC: f64(95)},
	}})
	s.Sensors.Data.Temperatures[0].Celsius = 99
	s.Disk.Data.UsedPercent = 99
	s.Memory.Data.AvailablePercent = 1
	s.Memory.Data.SwapUsedPercent = 90
	s.CPU.Data.UsagePercent = 99
	s.CPU.Data.Load1 = 40
	s.Host = snapshot.Unavailable[snapshot.Host]("no host info")

	ins := Generate(s, thresholds())

	assert.Equal(t, []string{
		RuleCPUHigh,
		RuleMemoryLow,
		RuleSwapHigh,
		RuleDiskFull,
		RuleLoadHigh,
		RuleTemperatureHigh,
		RuleGPUHot,
		RuleGPUHot,
		RuleCategoryUnavailable,
		RuleCategoryUnavailable,
	}, rulesOf(ins))
	assert.Equal(t, config.CategoryNetwork, ins[8].Category)
	assert.Equal(t, config.CategoryHost, ins[9].Category)
}

func TestGenerate_Deterministic(t *testing.T) {
	s := healthy()
	s.CPU.Data.UsagePercent = 99
	s.Disk = snapshot.Unavailable[snapshot.Disk]("permission denied")

	first := Generate(s, thresholds())
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Generate(s, thresholds()))
	}
}

func TestGenerate_CustomThresholds(t *testing.T) {
	th := thresholds()
	th.CPUPercent = 10

	ins := Generate(healthy(), th)
	assert.Equal(t, []string{RuleCPUHigh}, rulesOf(ins))
}
