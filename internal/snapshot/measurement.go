package snapshot

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Unit says how a measurement's value should be displayed.
type Unit int

const (
	UnitNone Unit = iota
	UnitPercent
	UnitBytes
	UnitCelsius
	UnitMHz
	UnitSeconds
	UnitWatts
	UnitCount
)

// Measurement is one named value in a record's flattened view.
// Value is a float64, uint64, int, bool, or string.
type Measurement struct {
	Name  string
	Value any
	Unit  Unit
}

// M is shorthand for building a Measurement.
func M(name string, value any, unit Unit) Measurement {
	return Measurement{Name: name, Value: value, Unit: unit}
}

// Format renders the value for humans: bytes are IEC-scaled, percentages
// and temperatures get one decimal, durations are spelled out.
func (m Measurement) Format() string {
	switch m.Unit {
	case UnitPercent:
		return fmt.Sprintf("%.1f%%", toFloat(m.Value))
	case UnitBytes:
		return humanize.IBytes(toUint(m.Value))
	case UnitCelsius:
		return fmt.Sprintf("%.1f°C", toFloat(m.Value))
	case UnitMHz:
		return fmt.Sprintf("%.0f MHz", toFloat(m.Value))
	case UnitSeconds:
		return formatUptime(time.Duration(toFloat(m.Value) * float64(time.Second)))
	case UnitWatts:
		return fmt.Sprintf("%.1f W", toFloat(m.Value))
	case UnitCount:
		return humanize.Comma(int64(toUint(m.Value)))
	}

	switch v := m.Value.(type) {
	case float64:
		return humanize.FtoaWithDigits(v, 2)
	case []string:
		return strings.Join(v, ", ")
	default:
		return fmt.Sprint(v)
	}
}

func formatUptime(d time.Duration) string {
	d = d.Round(time.Second)
	days := int(d.Hours()) / 24
	if days > 0 {
		return fmt.Sprintf("%dd %s", days, (d - time.Duration(days)*24*time.Hour).String())
	}
	return d.String()
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case uint64:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case int32:
		return float64(n)
	case uint32:
		return float64(n)
	}
	return 0
}

func toUint(v any) uint64 {
	switch n := v.(type) {
	case uint64:
		return n
	case int:
		if n > 0 {
			return uint64(n)
		}
	case int64:
		if n > 0 {
			return uint64(n)
		}
	case int32:
		if n > 0 {
			return uint64(n)
		}
	case uint32:
		return uint64(n)
	case float64:
		if n > 0 {
			return uint64(n)
		}
	}
	return 0
}
