package snapshot

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// CPU holds processor identity, utilisation, and scheduler counters.
type CPU struct {
	ModelName     string    `json:"model_name"`
	PhysicalCores int       `json:"physical_cores"`
	LogicalCores  int       `json:"logical_cores"`
	MHz           float64   `json:"mhz"`
	UsagePercent  float64   `json:"usage_percent"`
	PerCore       []float64 `json:"per_core"`
	UserSeconds   float64   `json:"user_seconds"`
	SystemSeconds float64   `json:"system_seconds"`
	IdleSeconds   float64   `json:"idle_seconds"`
	Load1         float64   `json:"load1"`
	Load5         float64   `json:"load5"`
	Load15        float64   `json:"load15"`
	CtxSwitches   uint64    `json:"ctx_switches"`
	ProcsRunning  int       `json:"procs_running"`
	ProcsBlocked  int       `json:"procs_blocked"`
}

// Measurements implements Record.
func (c CPU) Measurements() []Measurement {
	ms := []Measurement{
		M("model", c.ModelName, UnitNone),
		M("physical_cores", c.PhysicalCores, UnitNone),
		M("logical_cores", c.LogicalCores, UnitNone),
		M("frequency", c.MHz, UnitMHz),
		M("usage", c.UsagePercent, UnitPercent),
	}
	for i, p := range c.PerCore {
		ms = append(ms, M(fmt.Sprintf("core%d_usage", i), p, UnitPercent))
	}
	return append(ms,
		M("user_time", c.UserSeconds, UnitSeconds),
		M("system_time", c.SystemSeconds, UnitSeconds),
		M("idle_time", c.IdleSeconds, UnitSeconds),
		M("load1", c.Load1, UnitNone),
		M("load5", c.Load5, UnitNone),
		M("load15", c.Load15, UnitNone),
		M("ctx_switches", c.CtxSwitches, UnitCount),
		M("procs_running", c.ProcsRunning, UnitNone),
		M("procs_blocked", c.ProcsBlocked, UnitNone),
	)
}

// Memory holds physical and swap memory statistics.
type Memory struct {
	Total            uint64  `json:"total"`
	Available        uint64  `json:"available"`
	Used             uint64  `json:"used"`
	Free             uint64  `json:"free"`
	UsedPercent      float64 `json:"used_percent"`
	AvailablePercent float64 `json:"available_percent"`
	SwapTotal        uint64  `json:"swap_total"`
	SwapUsed         uint64  `json:"swap_used"`
	SwapFree         uint64  `json:"swap_free"`
	SwapUsedPercent  float64 `json:"swap_used_percent"`
}

// Measurements implements Record.
func (m Memory) Measurements() []Measurement {
	return []Measurement{
		M("total", m.Total, UnitBytes),
		M("available", m.Available, UnitBytes),
		M("used", m.Used, UnitBytes),
		M("free", m.Free, UnitBytes),
		M("used_percent", m.UsedPercent, UnitPercent),
		M("available_percent", m.AvailablePercent, UnitPercent),
		M("swap_total", m.SwapTotal, UnitBytes),
		M("swap_used", m.SwapUsed, UnitBytes),
		M("swap_free", m.SwapFree, UnitBytes),
		M("swap_used_percent", m.SwapUsedPercent, UnitPercent),
	}
}

// Partition is one mounted filesystem.
type Partition struct {
	Device      string  `json:"device"`
	Mountpoint  string  `json:"mountpoint"`
	FSType      string  `json:"fstype"`
	Total       uint64  `json:"total"`
	Used        uint64  `json:"used"`
	UsedPercent float64 `json:"used_percent"`
}

// DiskIO aggregates read/write counters across block devices.
type DiskIO struct {
	ReadBytes  uint64 `json:"read_bytes"`
	WriteBytes uint64 `json:"write_bytes"`
	ReadCount  uint64 `json:"read_count"`
	WriteCount uint64 `json:"write_count"`
}

// Disk holds usage of the configured root path plus all real partitions.
type Disk struct {
	Path        string      `json:"path"`
	Total       uint64      `json:"total"`
	Used        uint64      `json:"used"`
	Free        uint64      `json:"free"`
	UsedPercent float64     `json:"used_percent"`
	Partitions  []Partition `json:"partitions"`
	IO          DiskIO      `json:"io"`
}

// Measurements implements Record.
func (d Disk) Measurements() []Measurement {
	ms := []Measurement{
		M("path", d.Path, UnitNone),
		M("total", d.Total, UnitBytes),
		M("used", d.Used, UnitBytes),
		M("free", d.Free, UnitBytes),
		M("used_percent", d.UsedPercent, UnitPercent),
	}
	for _, p := range d.Partitions {
		if p.Mountpoint == d.Path {
			continue
		}
		ms = append(ms, M(p.Mountpoint+"_used_percent", p.UsedPercent, UnitPercent))
	}
	return append(ms,
		M("read_bytes", d.IO.ReadBytes, UnitBytes),
		M("write_bytes", d.IO.WriteBytes, UnitBytes),
		M("read_count", d.IO.ReadCount, UnitCount),
		M("write_count", d.IO.WriteCount, UnitCount),
	)
}

// Interface is one network interface with its counters.
type Interface struct {
	Name        string   `json:"name"`
	Kind        string   `json:"kind"`
	MAC         string   `json:"mac"`
	Up          bool     `json:"up"`
	Addrs       []string `json:"addrs"`
	BytesSent   uint64   `json:"bytes_sent"`
	BytesRecv   uint64   `json:"bytes_recv"`
	PacketsSent uint64   `json:"packets_sent"`
	PacketsRecv uint64   `json:"packets_recv"`
	Errin       uint64   `json:"errin"`
	Errout      uint64   `json:"errout"`
}

// ConnState counts inet connections in one TCP state.
type ConnState struct {
	State string `json:"state"`
	Count int    `json:"count"`
}

// Network holds interface counters and a connection summary.
type Network struct {
	BytesSent   uint64      `json:"bytes_sent"`
	BytesRecv   uint64      `json:"bytes_recv"`
	Interfaces  []Interface `json:"interfaces"`
	Connections []ConnState `json:"connections"`
}

// Measurements implements Record.
func (n Network) Measurements() []Measurement {
	ms := []Measurement{
		M("bytes_sent", n.BytesSent, UnitBytes),
		M("bytes_recv", n.BytesRecv, UnitBytes),
	}
	for _, i := range n.Interfaces {
		if !i.Up || i.Kind == "loopback" {
			continue
		}
		ms = append(ms,
			M(i.Name+"_addrs", i.Addrs, UnitNone),
			M(i.Name+"_sent", i.BytesSent, UnitBytes),
			M(i.Name+"_recv", i.BytesRecv, UnitBytes),
		)
	}
	for _, c := range n.Connections {
		ms = append(ms, M("conn_"+c.State, c.Count, UnitNone))
	}
	return ms
}

// Temperature is a single sensor reading.
type Temperature struct {
	Key      string  `json:"key"`
	Celsius  float64 `json:"celsius"`
	High     float64 `json:"high"`
	Critical float64 `json:"critical"`
}

// Sensors holds temperature readings.
type Sensors struct {
	Temperatures []Temperature `json:"temperatures"`
}

// Measurements implements Record.
func (s Sensors) Measurements() []Measurement {
	ms := make([]Measurement, 0, len(s.Temperatures))
	for _, t := range s.Temperatures {
		ms = append(ms, M(t.Key, t.Celsius, UnitCelsius))
	}
	return ms
}

// Hottest returns the highest reading, or false when there are none.
func (s Sensors) Hottest() (Temperature, bool) {
	var best Temperature
	found := false
	for _, t := range s.Temperatures {
		if !found || t.Celsius > best.Celsius {
			best = t
			found = true
		}
	}
	return best, found
}

// GPUDevice is one graphics adapter. Pointer fields are nil when the
// platform doesn't report them (non-NVIDIA cards have PCI metadata only).
type GPUDevice struct {
	Index              int      `json:"index"`
	Name               string   `json:"name"`
	Vendor             string   `json:"vendor"`
	Driver             string   `json:"driver"`
	UtilizationPercent *float64 `json:"utilization_percent,omitempty"`
	MemoryUsed         *uint64  `json:"memory_used,omitempty"`
	MemoryTotal        *uint64  `json:"memory_total,omitempty"`
	TemperatureC       *float64 `json:"temperature_c,omitempty"`
	PowerWatts         *float64 `json:"power_watts,omitempty"`
}

// GPU holds every detected graphics adapter.
type GPU struct {
	Devices []GPUDevice `json:"devices"`
}

// Measurements implements Record.
func (g GPU) Measurements() []Measurement {
	var ms []Measurement
	for _, d := range g.Devices {
		p := fmt.Sprintf("gpu%d_", d.Index)
		ms = append(ms, M(p+"name", d.Name, UnitNone))
		if d.Vendor != "" {
			ms = append(ms, M(p+"vendor", d.Vendor, UnitNone))
		}
		if d.UtilizationPercent != nil {
			ms = append(ms, M(p+"utilization", *d.UtilizationPercent, UnitPercent))
		}
		if d.MemoryUsed != nil {
			ms = append(ms, M(p+"memory_used", *d.MemoryUsed, UnitBytes))
		}
		if d.MemoryTotal != nil {
			ms = append(ms, M(p+"memory_total", *d.MemoryTotal, UnitBytes))
		}
		if d.TemperatureC != nil {
			ms = append(ms, M(p+"temperature", *d.TemperatureC, UnitCelsius))
		}
		if d.PowerWatts != nil {
			ms = append(ms, M(p+"power", *d.PowerWatts, UnitWatts))
		}
	}
	return ms
}

// Host holds identity and session information for the machine.
type Host struct {
	Hostname        string    `json:"hostname"`
	OS              string    `json:"os"`
	Platform        string    `json:"platform"`
	PlatformVersion string    `json:"platform_version"`
	KernelVersion   string    `json:"kernel_version"`
	KernelArch      string    `json:"kernel_arch"`
	UptimeSeconds   uint64    `json:"uptime_seconds"`
	BootTime        time.Time `json:"boot_time"`
	Procs           uint64    `json:"procs"`
	Users           []string  `json:"users"`
	Container       string    `json:"container"`

	// Processes lists the busiest processes, highest CPU first.
	Processes []Process `json:"processes"`
	// Battery is nil on machines without one.
	Battery *Battery `json:"battery,omitempty"`
}

// Process is one running process.
type Process struct {
	PID        int32   `json:"pid"`
	Name       string  `json:"name"`
	Username   string  `json:"username"`
	Status     string  `json:"status"`
	CPUPercent float64 `json:"cpu_percent"`
	MemoryRSS  uint64  `json:"memory_rss"`
}

// String is the one-line form used in the report and the prompt.
func (p Process) String() string {
	s := fmt.Sprintf("%s (%.1f%% cpu, %s)", p.Name, p.CPUPercent, humanize.IBytes(p.MemoryRSS))
	if p.Username != "" {
		s += " " + p.Username
	}
	if p.Status != "" {
		s += " " + p.Status
	}
	return s
}

// Battery is the combined charge of every battery in the machine.
type Battery struct {
	Percent      float64 `json:"percent"`
	State        string  `json:"state"`
	PowerPlugged bool    `json:"power_plugged"`
	// SecondsLeft is set only while discharging at a known rate.
	SecondsLeft *float64 `json:"seconds_left,omitempty"`
}

// Measurements implements Record.
func (h Host) Measurements() []Measurement {
	ms := []Measurement{
		M("hostname", h.Hostname, UnitNone),
		M("os", fmt.Sprintf("%s %s", h.Platform, h.PlatformVersion), UnitNone),
		M("kernel", fmt.Sprintf("%s (%s)", h.KernelVersion, h.KernelArch), UnitNone),
		M("uptime", h.UptimeSeconds, UnitSeconds),
		M("boot_time", h.BootTime.Format(time.RFC3339), UnitNone),
		M("procs", h.Procs, UnitCount),
		M("users", h.Users, UnitNone),
	}
	if h.Container != "" {
		ms = append(ms, M("container", h.Container, UnitNone))
	}
	if b := h.Battery; b != nil {
		ms = append(ms,
			M("battery", b.Percent, UnitPercent),
			M("battery_state", b.State, UnitNone),
			M("power_plugged", b.PowerPlugged, UnitNone),
		)
		if b.SecondsLeft != nil {
			ms = append(ms, M("battery_left", *b.SecondsLeft, UnitSeconds))
		}
	}
	for _, p := range h.Processes {
		ms = append(ms, M(fmt.Sprintf("pid %d", p.PID), p.String(), UnitNone))
	}
	return ms
}

// HostRecord is one address found by a subnet scan.
type HostRecord struct {
	IP      string        `json:"ip"`
	Alive   bool          `json:"alive"`
	Latency time.Duration `json:"latency"`
	Port    int           `json:"port"`
	MAC     string        `json:"mac,omitempty"`
}
