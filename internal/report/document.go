// Package report turns a collected snapshot into something a person or a
// program can read: a terminal table with an insight panel, or an export
// document written as JSON (optionally zstd-compressed).
package report

import (
	"github.com/rileyhilliard/sysinsight/internal/insight"
	"github.com/rileyhilliard/sysinsight/internal/snapshot"
)

// Document is the exported form of a run. The snapshot's categories sit at
// the top level next to the derived data.
type Document struct {
	snapshot.Snapshot

	Insights []insight.Insight `json:"insights"`

	// Subnet is set when a scan ran; Hosts lists the addresses that answered.
	Subnet string                `json:"subnet,omitempty"`
	Hosts  []snapshot.HostRecord `json:"hosts,omitempty"`

	Version string `json:"version,omitempty"`

	// Answer is set when --json and --query are combined.
	Answer *Answer `json:"answer,omitempty"`
}

// Answer is a question put to the assistant and its reply.
type Answer struct {
	Question string `json:"question"`
	Text     string `json:"text"`
}

// NewDocument builds a document from a copy of s. The snapshot itself is
// never modified.
func NewDocument(s *snapshot.Snapshot, insights []insight.Insight, version string) Document {
	if insights == nil {
		insights = []insight.Insight{}
	}
	doc := Document{Insights: insights, Version: version}
	if s != nil {
		doc.Snapshot = *s
	}
	return doc
}

// WithScan records the result of a subnet scan.
func (d Document) WithScan(subnet string, hosts []snapshot.HostRecord) Document {
	d.Subnet = subnet
	d.Hosts = hosts
	return d
}

// WithAnswer records the assistant's reply to question.
func (d Document) WithAnswer(question, text string) Document {
	d.Answer = &Answer{Question: question, Text: text}
	return d
}

// Scanned reports whether the document carries a scan result.
func (d Document) Scanned() bool {
	return d.Subnet != ""
}
