package collect

import (
	"context"
	"fmt"
	"math"
	"os/exec"
	"sort"
	"strconv"
	"strings"

	"github.com/jaypipes/ghw"

	"github.com/rileyhilliard/sysinsight/internal/snapshot"
)

const nvidiaSMI = "nvidia-smi"

var nvidiaSMIArgs = []string{
	"--query-gpu=index,name,utilization.gpu,memory.used,memory.total,temperature.gpu,power.draw",
	"--format=csv,noheader,nounits",
}

// CommandRunner runs an external program and returns its stdout.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return nil, err
	}
	out, err := exec.CommandContext(ctx, path, args...).Output()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

// PCIGraphicsCard is the subset of PCI inventory used to describe a GPU.
type PCIGraphicsCard struct {
	Index  int
	Vendor string
	Name   string
	Driver string
}

func ghwInventory() ([]PCIGraphicsCard, error) {
	info, err := ghw.GPU(ghw.WithDisableWarnings())
	if err != nil {
		return nil, err
	}
	cards := make([]PCIGraphicsCard, 0, len(info.GraphicsCards))
	for _, card := range info.GraphicsCards {
		c := PCIGraphicsCard{Index: card.Index}
		if card.DeviceInfo != nil {
			c.Driver = strings.TrimSpace(card.DeviceInfo.Driver)
			if card.DeviceInfo.Vendor != nil {
				c.Vendor = strings.TrimSpace(card.DeviceInfo.Vendor.Name)
			}
			if card.DeviceInfo.Product != nil {
				c.Name = strings.TrimSpace(card.DeviceInfo.Product.Name)
			}
		}
		if c.Name == "" {
			c.Name = c.Vendor
		}
		cards = append(cards, c)
	}
	sort.Slice(cards, func(i, j int) bool { return cards[i].Index < cards[j].Index })
	return cards, nil
}

// ParseNvidiaSMI parses one device per line of nvidia-smi CSV output.
// Expected input is from:
// nvidia-smi --query-gpu=index,name,utilization.gpu,memory.used,memory.total,temperature.gpu,power.draw --format=csv,noheader,nounits
//
// Fields reported as "[N/A]" are left nil. Returns nil, nil when nvidia-smi
// printed nothing or reported that no devices are present.
func ParseNvidiaSMI(output string) ([]snapshot.GPUDevice, error) {
	output = strings.TrimSpace(output)
	if output == "" {
		return nil, nil
	}

	lower := strings.ToLower(output)
	if strings.Contains(lower, "no devices") ||
		strings.Contains(lower, "has failed") ||
		strings.Contains(lower, "couldn't communicate") {
		return nil, nil
	}

	var devices []snapshot.GPUDevice
	for lineNo, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Split(line, ",")
		if len(fields) < 7 {
			return nil, fmt.Errorf("nvidia-smi line %d has insufficient fields: expected 7, got %d", lineNo+1, len(fields))
		}
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}

		idx, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("failed to parse GPU index '%s': %w", fields[0], err)
		}
		dev := snapshot.GPUDevice{Index: idx, Name: fields[1], Vendor: "NVIDIA"}

		if dev.UtilizationPercent, err = optFloat(fields[2]); err != nil {
			return nil, fmt.Errorf("failed to parse GPU utilization '%s': %w", fields[2], err)
		}
		if dev.MemoryUsed, err = optMiB(fields[3]); err != nil {
			return nil, fmt.Errorf("failed to parse GPU memory used '%s': %w", fields[3], err)
		}
		if dev.MemoryTotal, err = optMiB(fields[4]); err != nil {
			return nil, fmt.Errorf("failed to parse GPU memory total '%s': %w", fields[4], err)
		}
		if dev.TemperatureC, err = optFloat(fields[5]); err != nil {
			return nil, fmt.Errorf("failed to parse GPU temperature '%s': %w", fields[5], err)
		}
		if dev.PowerWatts, err = optFloat(fields[6]); err != nil {
			return nil, fmt.Errorf("failed to parse GPU power '%s': %w", fields[6], err)
		}
		devices = append(devices, dev)
	}
	return devices, nil
}

func notAvailable(s string) bool {
	return s == "" || s == "[N/A]" || strings.EqualFold(s, "N/A") || strings.HasPrefix(s, "[Not Supported")
}

// optFloat parses a reading. NaN and Inf are treated as missing since they
// cannot be encoded as JSON.
func optFloat(s string) (*float64, error) {
	if notAvailable(s) {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, nil
	}
	return &v, nil
}

func optMiB(s string) (*uint64, error) {
	p, err := optFloat(s)
	if p == nil || err != nil {
		return nil, err
	}
	v := *p
	if v < 0 {
		return nil, nil
	}
	// Convert MiB to bytes
	b := uint64(v * 1024 * 1024)
	return &b, nil
}

// mergeGPUs lays nvidia-smi metrics over the PCI inventory. NVIDIA cards are
// matched in order; metrics with no matching card become devices of their
// own so a host without PCI access still reports its GPUs.
func mergeGPUs(cards []PCIGraphicsCard, nvidia []snapshot.GPUDevice) []snapshot.GPUDevice {
	devices := make([]snapshot.GPUDevice, 0, len(cards)+len(nvidia))
	var nvidiaSlots []int
	for _, c := range cards {
		if strings.Contains(strings.ToLower(c.Vendor), "nvidia") {
			nvidiaSlots = append(nvidiaSlots, len(devices))
		}
		devices = append(devices, snapshot.GPUDevice{
			Index:  c.Index,
			Name:   c.Name,
			Vendor: c.Vendor,
			Driver: c.Driver,
		})
	}

	for i, m := range nvidia {
		if i < len(nvidiaSlots) {
			d := &devices[nvidiaSlots[i]]
			if m.Name != "" {
				d.Name = m.Name
			}
			d.UtilizationPercent = m.UtilizationPercent
			d.MemoryUsed = m.MemoryUsed
			d.MemoryTotal = m.MemoryTotal
			d.TemperatureC = m.TemperatureC
			d.PowerWatts = m.PowerWatts
			continue
		}
		m.Index = len(devices)
		devices = append(devices, m)
	}
	return devices
}
