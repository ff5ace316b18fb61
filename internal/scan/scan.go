// Package scan finds live hosts in a subnet by probing every address
// through a bounded worker pool.
package scan

import (
	"context"
	"fmt"
	"net/netip"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rileyhilliard/sysinsight/internal/config"
	"github.com/rileyhilliard/sysinsight/internal/errors"
	"github.com/rileyhilliard/sysinsight/internal/logger"
	"github.com/rileyhilliard/sysinsight/internal/snapshot"
)

// Options control a scan. Zero values fall back to the config defaults.
type Options struct {
	Timeout     time.Duration
	Concurrency int
	Ports       []int
	MaxHosts    int
	ResolveMAC  bool

	// Prober overrides the TCP prober built from Ports.
	Prober Prober

	// OnProbe is called after every probe with the number finished so far.
	// Calls may come from any worker goroutine.
	OnProbe func(done, total int)

	Log logger.Logger

	// neighbours overrides the ARP table reader.
	neighbours func() map[string]string
}

// OptionsFor builds Options from the loaded configuration.
func OptionsFor(cfg config.ScanConfig, log logger.Logger) Options {
	return Options{
		Timeout:     cfg.Timeout,
		Concurrency: cfg.Concurrency,
		Ports:       cfg.Ports,
		MaxHosts:    cfg.MaxHosts,
		ResolveMAC:  cfg.ResolveMAC,
		Log:         log,
	}
}

func (o *Options) applyDefaults() {
	def := config.DefaultConfig().Scan
	if o.Timeout <= 0 {
		o.Timeout = def.Timeout
	}
	if o.Concurrency <= 0 {
		o.Concurrency = def.Concurrency
	}
	if len(o.Ports) == 0 {
		o.Ports = def.Ports
	}
	if o.MaxHosts <= 0 {
		o.MaxHosts = def.MaxHosts
	}
	if o.Prober == nil {
		o.Prober = NewTCPProber(o.Ports)
	}
	if o.Log == nil {
		o.Log = logger.Noop()
	}
	if o.neighbours == nil {
		o.neighbours = readARPTable
	}
}

// Scan probes every host address in cidr and returns the ones that
// answered, sorted by address. An unreachable subnet yields an empty slice.
// Malformed or oversized ranges fail with a CONFIG error before any probe.
func Scan(ctx context.Context, cidr string, opts Options) ([]snapshot.HostRecord, error) {
	opts.applyDefaults()

	addrs, err := Hosts(cidr, opts.MaxHosts)
	if err != nil {
		return nil, err
	}
	opts.Log.Debug("scan: probing %d addresses in %s (ports %s, concurrency %d, timeout %s)",
		len(addrs), cidr, portList(opts.Ports), opts.Concurrency, opts.Timeout)

	var (
		mu    sync.Mutex
		found []snapshot.HostRecord
		done  int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)
	for _, addr := range addrs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			probeCtx, cancel := context.WithTimeout(gctx, opts.Timeout)
			res := opts.Prober.Probe(probeCtx, addr)
			cancel()

			mu.Lock()
			defer mu.Unlock()
			done++
			if res.Alive {
				found = append(found, snapshot.HostRecord{
					IP:      addr.String(),
					Alive:   true,
					Latency: res.Latency,
					Port:    res.Port,
				})
			}
			if opts.OnProbe != nil {
				opts.OnProbe(done, len(addrs))
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrCollect, "Subnet scan cancelled", "")
	}

	sort.Slice(found, func(i, j int) bool {
		a, _ := netip.ParseAddr(found[i].IP)
		b, _ := netip.ParseAddr(found[j].IP)
		return a.Less(b)
	})

	if opts.ResolveMAC && len(found) > 0 {
		macs := opts.neighbours()
		for i := range found {
			found[i].MAC = macs[found[i].IP]
		}
	}

	opts.Log.Debug("scan: %d of %d addresses answered", len(found), len(addrs))
	if found == nil {
		found = []snapshot.HostRecord{}
	}
	return found, nil
}

// Hosts expands cidr into its probe targets. IPv4 prefixes shorter than /31
// exclude the network and broadcast addresses. A bare address is treated as
// a single-host prefix.
func Hosts(cidr string, maxHosts int) ([]netip.Addr, error) {
	cidr = strings.TrimSpace(cidr)
	prefix, err := parsePrefix(cidr)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("'%s' is not a valid subnet", cidr),
			"Use CIDR notation, like 192.168.1.0/24")
	}
	prefix = prefix.Masked()

	hostBits := prefix.Addr().BitLen() - prefix.Bits()
	if maxHosts > 0 && (hostBits >= 63 || uint64(1)<<hostBits > uint64(maxHosts)+2) {
		return nil, errors.New(errors.ErrConfig,
			fmt.Sprintf("Subnet %s is too large to scan", prefix),
			fmt.Sprintf("Pick a narrower range or raise scan.max_hosts (currently %d)", maxHosts))
	}

	var addrs []netip.Addr
	for a := prefix.Addr(); a.IsValid() && prefix.Contains(a); a = a.Next() {
		addrs = append(addrs, a)
	}

	if prefix.Addr().Is4() && prefix.Bits() < 31 && len(addrs) >= 2 {
		addrs = addrs[1 : len(addrs)-1]
	}
	if maxHosts > 0 && len(addrs) > maxHosts {
		return nil, errors.New(errors.ErrConfig,
			fmt.Sprintf("Subnet %s is too large to scan", prefix),
			fmt.Sprintf("Pick a narrower range or raise scan.max_hosts (currently %d)", maxHosts))
	}
	return addrs, nil
}

func parsePrefix(s string) (netip.Prefix, error) {
	if s == "" {
		return netip.Prefix{}, fmt.Errorf("empty subnet")
	}
	if !strings.Contains(s, "/") {
		addr, err := netip.ParseAddr(s)
		if err != nil {
			return netip.Prefix{}, err
		}
		return netip.PrefixFrom(addr, addr.BitLen()), nil
	}
	return netip.ParsePrefix(s)
}
