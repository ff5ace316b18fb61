// Package collect gathers the per-category metric records that make up a
// Snapshot. Each category is collected independently: a failure is recorded
// as an unavailable section and the remaining categories still run.
package collect

import (
	"context"
	"time"

	"github.com/rileyhilliard/sysinsight/internal/config"
	"github.com/rileyhilliard/sysinsight/internal/errors"
	"github.com/rileyhilliard/sysinsight/internal/logger"
	"github.com/rileyhilliard/sysinsight/internal/snapshot"
)

// Source queries the operating system for one category at a time.
// System is the real implementation; tests substitute fakes.
type Source interface {
	CPU(ctx context.Context) (snapshot.CPU, error)
	Memory(ctx context.Context) (snapshot.Memory, error)
	Disk(ctx context.Context) (snapshot.Disk, error)
	Network(ctx context.Context) (snapshot.Network, error)
	Sensors(ctx context.Context) (snapshot.Sensors, error)
	GPU(ctx context.Context) (snapshot.GPU, error)
	Host(ctx context.Context) (snapshot.Host, error)
}

// Options tune a Gather call.
type Options struct {
	// Enabled filters categories. Nil collects everything.
	Enabled func(category string) bool

	// OnStart is called before each enabled category is collected.
	OnStart func(category string)

	// OnDone is called after each category finishes, successfully or not.
	OnDone func(category string, elapsed time.Duration, err error)

	Log logger.Logger

	// Now stamps the snapshot. Nil uses time.Now.
	Now func() time.Time
}

// OptionsFor builds Options from the loaded configuration.
func OptionsFor(cfg *config.Config, log logger.Logger) Options {
	return Options{
		Enabled: cfg.CategoryEnabled,
		Log:     log,
	}
}

// Gather runs every enabled collector in category order and returns the
// resulting snapshot. It never fails as a whole; callers check
// Snapshot.AllUnavailable to decide whether the run produced anything.
func Gather(ctx context.Context, src Source, opts Options) *snapshot.Snapshot {
	if opts.Log == nil {
		opts.Log = logger.Noop()
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	snap := snapshot.New(now())
	g := &gatherer{opts: opts}

	snap.CPU = collectOne(ctx, g, config.CategoryCPU, src.CPU)
	snap.Memory = collectOne(ctx, g, config.CategoryMemory, src.Memory)
	snap.Disk = collectOne(ctx, g, config.CategoryDisk, src.Disk)
	snap.Network = collectOne(ctx, g, config.CategoryNetwork, src.Network)
	snap.Sensors = collectOne(ctx, g, config.CategorySensors, src.Sensors)
	snap.GPU = collectOne(ctx, g, config.CategoryGPU, src.GPU)
	snap.Host = collectOne(ctx, g, config.CategoryHost, src.Host)

	return snap
}

type gatherer struct {
	opts Options
}

func (g *gatherer) enabled(category string) bool {
	return g.opts.Enabled == nil || g.opts.Enabled(category)
}

func collectOne[T snapshot.Record](ctx context.Context, g *gatherer, category string, fn func(context.Context) (T, error)) snapshot.Section[T] {
	if !g.enabled(category) {
		return snapshot.Section[T]{}
	}

	if g.opts.OnStart != nil {
		g.opts.OnStart(category)
	}

	start := time.Now()
	var (
		rec T
		err error
	)
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = errors.WrapWithCode(ctxErr, errors.ErrCollect, "Collection cancelled", "")
	} else {
		rec, err = fn(ctx)
	}
	elapsed := time.Since(start)

	if g.opts.OnDone != nil {
		g.opts.OnDone(category, elapsed, err)
	}

	if err != nil {
		g.opts.Log.Debug("%s unavailable: %v", category, Reason(err))
		return snapshot.Unavailable[T](Reason(err))
	}
	g.opts.Log.Debug("%s collected in %s", category, elapsed.Round(time.Millisecond))
	return snapshot.Available(rec)
}

// Reason condenses an error into the single line stored in an unavailable
// section.
func Reason(err error) string {
	if siErr, ok := errors.AsError(err); ok {
		if siErr.Cause != nil {
			return siErr.Message + ": " + siErr.Cause.Error()
		}
		return siErr.Message
	}
	return err.Error()
}
