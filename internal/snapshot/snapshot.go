// Package snapshot defines the data collected in a single sysinsight run:
// one typed record per metric category, each wrapped in a Section that says
// whether the category was collected, and if so whether it succeeded.
package snapshot

import (
	"encoding/json"
	"time"
)

// Status tags a Section.
type Status string

const (
	// StatusNone means the category was not collected this run.
	StatusNone Status = ""
	// StatusOK means Data holds the collected record.
	StatusOK Status = "ok"
	// StatusUnavailable means collection failed; Error holds the reason.
	StatusUnavailable Status = "unavailable"
)

// Record is implemented by every per-category record type.
type Record interface {
	Measurements() []Measurement
}

// Section is the tagged union stored for each category: either a record,
// an unavailable marker with a reason, or nothing at all.
type Section[T Record] struct {
	Status Status `json:"status"`
	Error  string `json:"error,omitempty"`
	Data   *T     `json:"data,omitempty"`
}

// Available wraps a successfully collected record.
func Available[T Record](data T) Section[T] {
	return Section[T]{Status: StatusOK, Data: &data}
}

// Unavailable marks a category whose collection failed.
func Unavailable[T Record](reason string) Section[T] {
	return Section[T]{Status: StatusUnavailable, Error: reason}
}

// OK reports whether the section holds data.
func (s Section[T]) OK() bool {
	return s.Status == StatusOK && s.Data != nil
}

// Collected reports whether collection was attempted.
func (s Section[T]) Collected() bool {
	return s.Status != StatusNone
}

type sectionWire[T Record] struct {
	Status Status `json:"status"`
	Error  string `json:"error,omitempty"`
	Data   *T     `json:"data,omitempty"`
}

// MarshalJSON encodes an uncollected section as null.
func (s Section[T]) MarshalJSON() ([]byte, error) {
	if !s.Collected() {
		return []byte("null"), nil
	}
	return json.Marshal(sectionWire[T](s))
}

// UnmarshalJSON decodes null back into an uncollected section.
func (s *Section[T]) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = Section[T]{}
		return nil
	}
	var w sectionWire[T]
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*s = Section[T](w)
	return nil
}

// Snapshot is everything collected about the local machine in one run.
// It is built once by the collectors and treated as read-only afterwards.
type Snapshot struct {
	CollectedAt time.Time `json:"collected_at"`

	CPU     Section[CPU]     `json:"cpu"`
	Memory  Section[Memory]  `json:"memory"`
	Disk    Section[Disk]    `json:"disk"`
	Network Section[Network] `json:"network"`
	Sensors Section[Sensors] `json:"sensors"`
	GPU     Section[GPU]     `json:"gpu"`
	Host    Section[Host]    `json:"host"`
}

// New returns an empty snapshot stamped with t. The timestamp is stored in
// UTC without a monotonic reading so it survives a JSON round trip unchanged.
func New(t time.Time) *Snapshot {
	return &Snapshot{CollectedAt: t.UTC().Round(0)}
}

// Category is a flattened, render-ready view of one section.
type Category struct {
	Name         string
	Status       Status
	Error        string
	Measurements []Measurement
}

// Categories returns a view of every category in fixed report order,
// including ones that weren't collected.
func (s *Snapshot) Categories() []Category {
	return []Category{
		view("cpu", s.CPU),
		view("memory", s.Memory),
		view("disk", s.Disk),
		view("network", s.Network),
		view("sensors", s.Sensors),
		view("gpu", s.GPU),
		view("host", s.Host),
	}
}

func view[T Record](name string, sec Section[T]) Category {
	c := Category{Name: name, Status: sec.Status, Error: sec.Error}
	if sec.OK() {
		c.Measurements = (*sec.Data).Measurements()
	}
	return c
}

// AllUnavailable reports whether at least one category was attempted and
// every attempted category failed.
func (s *Snapshot) AllUnavailable() bool {
	attempted := 0
	for _, c := range s.Categories() {
		switch c.Status {
		case StatusOK:
			return false
		case StatusUnavailable:
			attempted++
		}
	}
	return attempted > 0
}
