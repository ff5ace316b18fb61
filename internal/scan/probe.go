package scan

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"strconv"
	"strings"
	"time"
)

// ProbeError represents a failed probe with categorized failure reason.
type ProbeError struct {
	Address string
	Reason  ProbeFailReason
	Cause   error
}

// ProbeFailReason categorizes why a probe failed.
type ProbeFailReason int

const (
	ProbeFailUnknown ProbeFailReason = iota
	ProbeFailTimeout
	ProbeFailRefused
	ProbeFailUnreachable
)

// String returns a human-readable description of the failure reason.
func (r ProbeFailReason) String() string {
	switch r {
	case ProbeFailTimeout:
		return "connection timed out"
	case ProbeFailRefused:
		return "connection refused"
	case ProbeFailUnreachable:
		return "host unreachable"
	default:
		return "unknown error"
	}
}

func (e *ProbeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("probe %s failed: %s (%v)", e.Address, e.Reason, e.Cause)
	}
	return fmt.Sprintf("probe %s failed: %s", e.Address, e.Reason)
}

func (e *ProbeError) Unwrap() error {
	return e.Cause
}

// Result is the outcome of probing one address.
type Result struct {
	Alive   bool
	Port    int
	Latency time.Duration
}

// Prober decides whether a single address is alive. Implementations must
// return once ctx is done.
type Prober interface {
	Probe(ctx context.Context, addr netip.Addr) Result
}

// ProberFunc adapts a function to the Prober interface.
type ProberFunc func(ctx context.Context, addr netip.Addr) Result

// Probe implements Prober.
func (f ProberFunc) Probe(ctx context.Context, addr netip.Addr) Result {
	return f(ctx, addr)
}

// TCPProber tries a TCP connect on each port in turn. A completed handshake
// or an active refusal both prove something answered at the address.
type TCPProber struct {
	Ports []int

	// dial is swapped out in tests.
	dial func(ctx context.Context, network, address string) (net.Conn, error)
}

// NewTCPProber creates a prober for the given ports.
func NewTCPProber(ports []int) *TCPProber {
	d := &net.Dialer{}
	return &TCPProber{Ports: ports, dial: d.DialContext}
}

// Probe implements Prober.
func (p *TCPProber) Probe(ctx context.Context, addr netip.Addr) Result {
	for _, port := range p.Ports {
		if ctx.Err() != nil {
			break
		}
		latency, err := p.probeTCP(ctx, netip.AddrPortFrom(addr, uint16(port)).String())
		if err == nil {
			return Result{Alive: true, Port: port, Latency: latency}
		}
		if pe, ok := err.(*ProbeError); ok && pe.Reason == ProbeFailRefused {
			return Result{Alive: true, Port: port, Latency: latency}
		}
	}
	return Result{}
}

// probeTCP performs a single TCP connection test. The latency is reported
// for refusals too, since a RST is still an answer.
func (p *TCPProber) probeTCP(ctx context.Context, address string) (time.Duration, error) {
	start := time.Now()

	conn, err := p.dial(ctx, "tcp", address)
	latency := time.Since(start)
	if err != nil {
		return latency, categorizeProbeError(address, err)
	}
	defer conn.Close()

	return latency, nil
}

// categorizeProbeError converts a dial error into a ProbeError with a
// categorized failure reason.
func categorizeProbeError(address string, err error) *ProbeError {
	if err == nil {
		return nil
	}

	probeErr := &ProbeError{
		Address: address,
		Reason:  ProbeFailUnknown,
		Cause:   err,
	}

	errStr := strings.ToLower(err.Error())

	switch {
	case strings.Contains(errStr, "timeout"), strings.Contains(errStr, "deadline exceeded"):
		probeErr.Reason = ProbeFailTimeout
	case strings.Contains(errStr, "connection refused"), strings.Contains(errStr, "actively refused"):
		probeErr.Reason = ProbeFailRefused
	case strings.Contains(errStr, "no route to host"),
		strings.Contains(errStr, "network is unreachable"),
		strings.Contains(errStr, "host is down"):
		probeErr.Reason = ProbeFailUnreachable
	}

	return probeErr
}

func portList(ports []int) string {
	parts := make([]string, len(ports))
	for i, p := range ports {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ",")
}
