package collect

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/distatus/battery"
	"github.com/shirou/gopsutil/v4/process"

	"github.com/rileyhilliard/sysinsight/internal/snapshot"
)

// ProcessLister returns every running process with its CPU and memory use.
// Name, user and status may be left empty; fillProcess completes them for
// the processes that are kept.
type ProcessLister func(ctx context.Context) ([]snapshot.Process, error)

// BatteryReader returns every battery the machine reports.
type BatteryReader func() ([]*battery.Battery, error)

func gopsutilProcesses(ctx context.Context) ([]snapshot.Process, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]snapshot.Process, 0, len(procs))
	for _, p := range procs {
		// Processes that exit mid-listing keep zero values.
		rec := snapshot.Process{PID: p.Pid}
		if pct, err := p.CPUPercentWithContext(ctx); err == nil {
			rec.CPUPercent = round1(pct)
		}
		if mi, err := p.MemoryInfoWithContext(ctx); err == nil && mi != nil {
			rec.MemoryRSS = mi.RSS
		}
		out = append(out, rec)
	}
	return out, nil
}

// topProcesses lists the busiest processes, or an empty list when the
// listing is turned off or fails.
func (s *System) topProcesses(ctx context.Context) []snapshot.Process {
	if s.cfg.TopProcesses <= 0 {
		return []snapshot.Process{}
	}
	procs, err := s.processes(ctx)
	if err != nil {
		s.log.Debug("host: processes: %v", err)
		return []snapshot.Process{}
	}
	top := rankProcesses(procs, s.cfg.TopProcesses)
	for i := range top {
		s.describe(ctx, &top[i])
	}
	return top
}

// readBattery reads the battery, or nil when there is none.
func (s *System) readBattery() *snapshot.Battery {
	bats, err := s.batteries()
	if err != nil {
		// Partial errors still come with the batteries that could be read.
		s.log.Debug("host: battery: %v", err)
	}
	return combineBatteries(bats)
}

// fillProcess looks up the descriptive fields of one process.
func fillProcess(ctx context.Context, rec *snapshot.Process) {
	p, err := process.NewProcessWithContext(ctx, rec.PID)
	if err != nil {
		return
	}
	if name, err := p.NameWithContext(ctx); err == nil {
		rec.Name = name
	}
	if user, err := p.UsernameWithContext(ctx); err == nil {
		rec.Username = user
	}
	if status, err := p.StatusWithContext(ctx); err == nil {
		rec.Status = strings.Join(status, ",")
	}
}

// rankProcesses orders procs by CPU, then resident memory, then PID, and
// keeps the first n.
func rankProcesses(procs []snapshot.Process, n int) []snapshot.Process {
	sorted := append([]snapshot.Process(nil), procs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.CPUPercent != b.CPUPercent {
			return a.CPUPercent > b.CPUPercent
		}
		if a.MemoryRSS != b.MemoryRSS {
			return a.MemoryRSS > b.MemoryRSS
		}
		return a.PID < b.PID
	})
	if n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}

// combineBatteries merges every battery into one reading. It returns nil
// when no battery reports a usable capacity.
func combineBatteries(bats []*battery.Battery) *snapshot.Battery {
	var current, full, rate float64
	discharging, found := false, false
	state := ""
	for _, b := range bats {
		if b == nil || b.Full <= 0 {
			continue
		}
		found = true
		current += b.Current
		full += b.Full
		rate += b.ChargeRate
		if b.State.Raw == battery.Discharging {
			discharging = true
		}
		if state == "" || b.State.Raw == battery.Discharging {
			state = b.State.String()
		}
	}
	if !found {
		return nil
	}

	rec := &snapshot.Battery{
		Percent:      round1(math.Min(current/full*100, 100)),
		State:        state,
		PowerPlugged: !discharging,
	}
	if discharging && rate > 0 {
		left := current / rate * 3600
		rec.SecondsLeft = &left
	}
	return rec
}
