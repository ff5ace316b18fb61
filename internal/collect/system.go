package collect

import (
	"context"
	"math"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/distatus/battery"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
	psnet "github.com/shirou/gopsutil/v4/net"
	"github.com/shirou/gopsutil/v4/sensors"

	"github.com/rileyhilliard/sysinsight/internal/config"
	"github.com/rileyhilliard/sysinsight/internal/errors"
	"github.com/rileyhilliard/sysinsight/internal/logger"
	"github.com/rileyhilliard/sysinsight/internal/snapshot"
)

// System reads metrics from the local machine through gopsutil, ghw and
// nvidia-smi.
type System struct {
	cfg config.CollectorConfig
	log logger.Logger

	// run executes an external command; swapped out in tests.
	run CommandRunner
	// gpuInventory lists PCI graphics cards; swapped out in tests.
	gpuInventory func() ([]PCIGraphicsCard, error)
	// processes, describe and batteries are swapped out in tests.
	processes ProcessLister
	describe  func(ctx context.Context, rec *snapshot.Process)
	batteries BatteryReader
}

// NewSystem creates the real Source.
func NewSystem(cfg config.CollectorConfig, log logger.Logger) *System {
	if log == nil {
		log = logger.Noop()
	}
	return &System{
		cfg:          cfg,
		log:          log,
		run:          execRunner,
		gpuInventory: ghwInventory,
		processes:    gopsutilProcesses,
		describe:     fillProcess,
		batteries:    battery.GetAll,
	}
}

// CPU samples utilisation over the configured interval. Identity, times and
// scheduler counters are best effort: only the utilisation sample is required.
func (s *System) CPU(ctx context.Context) (snapshot.CPU, error) {
	perCore, err := cpu.PercentWithContext(ctx, s.cfg.CPUSample, true)
	if err != nil {
		return snapshot.CPU{}, errors.Wrap(err, "Couldn't sample CPU usage")
	}
	if len(perCore) == 0 {
		return snapshot.CPU{}, errors.New(errors.ErrCollect, "CPU usage sample was empty", "")
	}

	rec := snapshot.CPU{
		PerCore:      roundAll(perCore),
		UsagePercent: round1(mean(perCore)),
		LogicalCores: len(perCore),
	}

	if n, err := cpu.CountsWithContext(ctx, false); err == nil {
		rec.PhysicalCores = n
	} else {
		s.log.Debug("cpu: physical core count: %v", err)
	}
	if n, err := cpu.CountsWithContext(ctx, true); err == nil && n > 0 {
		rec.LogicalCores = n
	}
	if infos, err := cpu.InfoWithContext(ctx); err == nil && len(infos) > 0 {
		rec.ModelName = strings.TrimSpace(infos[0].ModelName)
		rec.MHz = infos[0].Mhz
	} else if err != nil {
		s.log.Debug("cpu: info: %v", err)
	}
	if times, err := cpu.TimesWithContext(ctx, false); err == nil && len(times) > 0 {
		rec.UserSeconds = times[0].User
		rec.SystemSeconds = times[0].System
		rec.IdleSeconds = times[0].Idle
	} else if err != nil {
		s.log.Debug("cpu: times: %v", err)
	}
	if avg, err := load.AvgWithContext(ctx); err == nil {
		rec.Load1, rec.Load5, rec.Load15 = avg.Load1, avg.Load5, avg.Load15
	} else {
		s.log.Debug("cpu: load average: %v", err)
	}
	if misc, err := load.MiscWithContext(ctx); err == nil {
		rec.CtxSwitches = uint64(misc.Ctxt)
		rec.ProcsRunning = misc.ProcsRunning
		rec.ProcsBlocked = misc.ProcsBlocked
	} else {
		s.log.Debug("cpu: scheduler counters: %v", err)
	}

	return rec, nil
}

// Memory reads physical memory and swap.
func (s *System) Memory(ctx context.Context) (snapshot.Memory, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return snapshot.Memory{}, errors.Wrap(err, "Couldn't read memory statistics")
	}

	rec := snapshot.Memory{
		Total:       vm.Total,
		Available:   vm.Available,
		Used:        vm.Used,
		Free:        vm.Free,
		UsedPercent: round1(vm.UsedPercent),
	}
	if vm.Total > 0 {
		rec.AvailablePercent = round1(float64(vm.Available) / float64(vm.Total) * 100)
	}

	if sw, err := mem.SwapMemoryWithContext(ctx); err == nil {
		rec.SwapTotal = sw.Total
		rec.SwapUsed = sw.Used
		rec.SwapFree = sw.Free
		rec.SwapUsedPercent = round1(sw.UsedPercent)
	} else {
		s.log.Debug("memory: swap: %v", err)
	}

	return rec, nil
}

// Disk reads usage of the configured path, every real partition, and
// aggregate I/O counters.
func (s *System) Disk(ctx context.Context) (snapshot.Disk, error) {
	path := s.cfg.DiskPath
	if path == "" {
		path = "/"
	}
	usage, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return snapshot.Disk{}, errors.Wrap(err, "Couldn't read disk usage for "+path)
	}

	rec := snapshot.Disk{
		Path:        path,
		Total:       usage.Total,
		Used:        usage.Used,
		Free:        usage.Free,
		UsedPercent: round1(usage.UsedPercent),
		Partitions:  []snapshot.Partition{},
	}

	parts, err := disk.PartitionsWithContext(ctx, false)
	if err != nil {
		s.log.Debug("disk: partitions: %v", err)
	}
	seen := make(map[string]bool)
	for _, p := range parts {
		if isVirtualFS(p.Fstype) || seen[p.Mountpoint] {
			continue
		}
		seen[p.Mountpoint] = true
		u, err := disk.UsageWithContext(ctx, p.Mountpoint)
		if err != nil || u.Total == 0 {
			continue
		}
		rec.Partitions = append(rec.Partitions, snapshot.Partition{
			Device:      p.Device,
			Mountpoint:  p.Mountpoint,
			FSType:      p.Fstype,
			Total:       u.Total,
			Used:        u.Used,
			UsedPercent: round1(u.UsedPercent),
		})
	}
	sort.Slice(rec.Partitions, func(i, j int) bool {
		return rec.Partitions[i].Mountpoint < rec.Partitions[j].Mountpoint
	})

	if counters, err := disk.IOCountersWithContext(ctx); err == nil {
		for _, c := range counters {
			rec.IO.ReadBytes += c.ReadBytes
			rec.IO.WriteBytes += c.WriteBytes
			rec.IO.ReadCount += c.ReadCount
			rec.IO.WriteCount += c.WriteCount
		}
	} else {
		s.log.Debug("disk: io counters: %v", err)
	}

	return rec, nil
}

// Network reads per-interface counters, addresses, and a count of inet
// connections by TCP state.
func (s *System) Network(ctx context.Context) (snapshot.Network, error) {
	counters, err := psnet.IOCountersWithContext(ctx, true)
	if err != nil {
		return snapshot.Network{}, errors.Wrap(err, "Couldn't read network counters")
	}

	byName := make(map[string]*snapshot.Interface, len(counters))
	rec := snapshot.Network{Interfaces: []snapshot.Interface{}, Connections: []snapshot.ConnState{}}
	for _, c := range counters {
		rec.BytesSent += c.BytesSent
		rec.BytesRecv += c.BytesRecv
		byName[c.Name] = &snapshot.Interface{
			Name:        c.Name,
			Kind:        classifyNIC(c.Name, runtime.GOOS),
			Addrs:       []string{},
			BytesSent:   c.BytesSent,
			BytesRecv:   c.BytesRecv,
			PacketsSent: c.PacketsSent,
			PacketsRecv: c.PacketsRecv,
			Errin:       c.Errin,
			Errout:      c.Errout,
		}
	}

	if ifaces, err := psnet.InterfacesWithContext(ctx); err == nil {
		for _, iface := range ifaces {
			entry, ok := byName[iface.Name]
			if !ok {
				entry = &snapshot.Interface{Name: iface.Name, Kind: classifyNIC(iface.Name, runtime.GOOS), Addrs: []string{}}
				byName[iface.Name] = entry
			}
			entry.MAC = iface.HardwareAddr
			entry.Up = hasFlag(iface.Flags, "up")
			for _, a := range iface.Addrs {
				entry.Addrs = append(entry.Addrs, a.Addr)
			}
		}
	} else {
		s.log.Debug("network: interfaces: %v", err)
	}

	for _, entry := range byName {
		rec.Interfaces = append(rec.Interfaces, *entry)
	}
	sort.Slice(rec.Interfaces, func(i, j int) bool {
		return rec.Interfaces[i].Name < rec.Interfaces[j].Name
	})

	if conns, err := psnet.ConnectionsWithContext(ctx, "inet"); err == nil {
		rec.Connections = countStates(conns)
	} else {
		s.log.Debug("network: connections: %v", err)
	}

	return rec, nil
}

// Sensors reads hardware temperatures. Platforms without sensor support, or
// hosts that report no positive readings, are unavailable.
func (s *System) Sensors(ctx context.Context) (snapshot.Sensors, error) {
	temps, err := sensors.TemperaturesWithContext(ctx)
	if err != nil && len(temps) == 0 {
		return snapshot.Sensors{}, errors.Wrap(err, "Couldn't read temperature sensors")
	}
	if err != nil {
		s.log.Debug("sensors: partial read: %v", err)
	}

	rec := snapshot.Sensors{Temperatures: make([]snapshot.Temperature, 0, len(temps))}
	for _, t := range temps {
		if t.Temperature <= 0 || math.IsNaN(t.Temperature) {
			continue
		}
		rec.Temperatures = append(rec.Temperatures, snapshot.Temperature{
			Key:      t.SensorKey,
			Celsius:  round1(t.Temperature),
			High:     t.High,
			Critical: t.Critical,
		})
	}
	if len(rec.Temperatures) == 0 {
		return snapshot.Sensors{}, errors.New(errors.ErrCollect, "No temperature sensors found", "")
	}
	sort.Slice(rec.Temperatures, func(i, j int) bool {
		return rec.Temperatures[i].Key < rec.Temperatures[j].Key
	})
	return rec, nil
}

// GPU lists graphics adapters, enriched with live metrics where nvidia-smi
// is installed.
func (s *System) GPU(ctx context.Context) (snapshot.GPU, error) {
	cards, err := s.gpuInventory()
	if err != nil {
		s.log.Debug("gpu: pci inventory: %v", err)
	}

	timeout := s.cfg.GPUTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	smiCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var nvidia []snapshot.GPUDevice
	out, smiErr := s.run(smiCtx, nvidiaSMI, nvidiaSMIArgs...)
	if smiErr == nil {
		nvidia, smiErr = ParseNvidiaSMI(string(out))
	}
	if smiErr != nil {
		s.log.Debug("gpu: nvidia-smi: %v", smiErr)
	}

	devices := mergeGPUs(cards, nvidia)
	if len(devices) == 0 {
		return snapshot.GPU{}, errors.New(errors.ErrCollect, "No GPU found", "")
	}
	return snapshot.GPU{Devices: devices}, nil
}

// Host reads identity, uptime, logged-in users, container detection, the
// busiest processes, and the battery.
func (s *System) Host(ctx context.Context) (snapshot.Host, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return snapshot.Host{}, errors.Wrap(err, "Couldn't read host information")
	}

	rec := snapshot.Host{
		Hostname:        info.Hostname,
		OS:              info.OS,
		Platform:        info.Platform,
		PlatformVersion: info.PlatformVersion,
		KernelVersion:   info.KernelVersion,
		KernelArch:      info.KernelArch,
		UptimeSeconds:   info.Uptime,
		BootTime:        time.Unix(int64(info.BootTime), 0).UTC(),
		Procs:           info.Procs,
		Users:           []string{},
		Container:       detectContainer(),
	}

	if users, err := host.UsersWithContext(ctx); err == nil {
		seen := make(map[string]bool)
		for _, u := range users {
			if u.User == "" || seen[u.User] {
				continue
			}
			seen[u.User] = true
			rec.Users = append(rec.Users, u.User)
		}
		sort.Strings(rec.Users)
	} else {
		s.log.Debug("host: users: %v", err)
	}

	rec.Processes = s.topProcesses(ctx)
	rec.Battery = s.readBattery()
	return rec, nil
}

// isVirtualFS returns true for filesystem types that do not represent real
// storage and should be skipped during enumeration.
func isVirtualFS(fstype string) bool {
	switch fstype {
	case "devfs", "devtmpfs", "tmpfs", "sysfs", "proc", "cgroup", "cgroup2",
		"autofs", "mqueue", "hugetlbfs", "debugfs", "tracefs", "securityfs",
		"pstore", "bpf", "fusectl", "configfs", "ramfs", "rpc_pipefs",
		"nfsd", "map", "devpts", "squashfs", "overlay", "nsfs":
		return true
	}
	return false
}

func countStates(conns []psnet.ConnectionStat) []snapshot.ConnState {
	counts := make(map[string]int)
	for _, c := range conns {
		state := c.Status
		if state == "" || state == "NONE" {
			continue
		}
		counts[state]++
	}
	out := make([]snapshot.ConnState, 0, len(counts))
	for state, n := range counts {
		out = append(out, snapshot.ConnState{State: state, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].State < out[j].State
	})
	return out
}

func hasFlag(flags []string, want string) bool {
	for _, f := range flags {
		if strings.EqualFold(f, want) {
			return true
		}
	}
	return false
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func roundAll(vals []float64) []float64 {
	out := make([]float64, len(vals))
	for i, v := range vals {
		out[i] = round1(v)
	}
	return out
}
