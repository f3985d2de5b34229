// Package registry owns the set of tracked light sources and drives the
// per-tick rebuild of the light engine and of the lit chunk sections.
package registry

import (
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/go-theft-craft/dynlights/internal/dynlight/engine"
	"github.com/go-theft-craft/dynlights/internal/dynlight/metrics"
	"github.com/go-theft-craft/dynlights/internal/dynlight/section"
	"github.com/go-theft-craft/dynlights/internal/dynlight/source"
)

// Scheduler receives chunk section rebuild requests. Requests are
// idempotent; a section is requested at most once per tick.
type Scheduler interface {
	ScheduleChunkRebuild(x, y, z int)
}

// SchedulerFunc adapts a function to a Scheduler.
type SchedulerFunc func(x, y, z int)

func (f SchedulerFunc) ScheduleChunkRebuild(x, y, z int) { f(x, y, z) }

// TickReport summarises one tick.
type TickReport struct {
	Sources  int
	Removed  int
	Updated  int
	Sections int
	Diffed   bool
	Rebuild  engine.RebuildStats
}

// Registry tracks light sources. Mutations take effect on the next Tick.
type Registry struct {
	engine    *engine.Engine
	differ    *section.Differ
	scheduler Scheduler
	log       *slog.Logger
	metrics   *metrics.Metrics

	mu      sync.Mutex
	sources []source.Source
	index   map[any]int
	toAdd   map[any]struct{}
	toClear []source.Source
	mode    Mode
	limiter *rate.Limiter
	refresh bool
	updates int
}

// Option configures a Registry.
type Option func(*Registry)

func WithLogger(log *slog.Logger) Option {
	return func(r *Registry) { r.log = log }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Registry) { r.metrics = m }
}

// WithMode sets the initial mode. The default is ModeFancy.
func WithMode(m Mode) Option {
	return func(r *Registry) { r.mode = m }
}

// New creates a Registry feeding eng and reporting sections to scheduler.
func New(eng *engine.Engine, differ *section.Differ, scheduler Scheduler, opts ...Option) *Registry {
	r := &Registry{
		engine:    eng,
		differ:    differ,
		scheduler: scheduler,
		log:       slog.New(slog.DiscardHandler),
		index:     make(map[any]int),
		toAdd:     make(map[any]struct{}),
		mode:      ModeFancy,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.limiter = rate.NewLimiter(r.mode.limit(), 1)
	return r
}

// Add starts tracking src. It returns false if a source with the same
// identity is already tracked.
func (r *Registry) Add(src source.Source) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := src.Identity()
	if _, ok := r.index[id]; ok {
		return false
	}
	r.index[id] = len(r.sources)
	r.sources = append(r.sources, src)
	r.toAdd[id] = struct{}{}
	return true
}

// AddBehavior tracks a custom behavior.
func (r *Registry) AddBehavior(b source.Behavior) bool {
	return r.Add(source.NewDeferred(b))
}

// Remove stops tracking src. The sections it lit are rebuilt on the next tick.
func (r *Registry) Remove(src source.Source) bool {
	return r.removeIdentity(src.Identity())
}

// RemoveBehavior stops tracking the source wrapping b.
func (r *Registry) RemoveBehavior(b source.Behavior) bool {
	return r.removeIdentity(b)
}

func (r *Registry) removeIdentity(id any) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, ok := r.index[id]
	if !ok {
		return false
	}
	r.toClear = append(r.toClear, r.sources[i])
	r.sources = slices.Delete(r.sources, i, i+1)
	delete(r.index, id)
	delete(r.toAdd, id)
	r.reindex(i)
	return true
}

// RemoveWhere removes every source matching pred and returns how many were
// removed. pred must not call back into the registry.
func (r *Registry) RemoveWhere(pred func(source.Source) bool) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.filter(func(src source.Source) bool { return !pred(src) })
}

// Clear removes every source.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, src := range r.sources {
		r.differ.Reset(src)
		r.toClear = append(r.toClear, src)
	}
	clear(r.sources)
	r.sources = r.sources[:0]
	clear(r.index)
	clear(r.toAdd)
}

// Count returns the number of tracked sources.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sources)
}

// Contains reports whether a source with the identity of src is tracked.
func (r *Registry) Contains(src source.Source) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.index[src.Identity()]
	return ok
}

// ForEach calls fn for every tracked source, in insertion order. fn runs on
// a snapshot and may call back into the registry.
func (r *Registry) ForEach(fn func(source.Source)) {
	r.mu.Lock()
	snapshot := make([]source.Source, len(r.sources))
	copy(snapshot, r.sources)
	r.mu.Unlock()

	for _, src := range snapshot {
		fn(src)
	}
}

// Mode returns the current mode.
func (r *Registry) Mode() Mode {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mode
}

// SetMode changes the mode and forces every source to refresh its sections
// on the next tick. Turning lights off erases all of them.
func (r *Registry) SetMode(m Mode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m == r.mode {
		return
	}
	r.log.Info("dynamic lights mode changed", "from", r.mode, "to", m)
	r.mode = m
	r.limiter.SetLimit(m.limit())
	r.refresh = true
}

// LastUpdateCount returns how many sources requested section rebuilds during
// the last refresh.
func (r *Registry) LastUpdateCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.updates
}

// Tick runs one light update: tickers, removal polling, the engine rebuild
// and section invalidation.
func (r *Registry) Tick(now time.Time) TickReport {
	report, sections := r.tick(now)

	for _, p := range sections {
		r.scheduler.ScheduleChunkRebuild(int(p.X), int(p.Y), int(p.Z))
	}

	r.metrics.ObserveTick(report.Sources, report.Removed, report.Updated, report.Sections)
	if report.Removed > 0 {
		r.log.Debug("removed light sources", "count", report.Removed)
	}
	return report
}

func (r *Registry) tick(now time.Time) (TickReport, []section.Pos) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var report TickReport

	for _, src := range r.sources {
		source.Tick(src)
	}

	report.Removed = r.filter(func(src source.Source) bool { return !src.IsRemoved() })
	report.Sources = len(r.sources)

	if r.mode.Enabled() {
		report.Rebuild = r.engine.Rebuild(r.sources)
	} else {
		report.Rebuild = r.engine.Rebuild(nil)
	}

	var dirty section.Set
	merge := func(s section.Set) {
		if len(s) == 0 {
			return
		}
		if dirty == nil {
			dirty = make(section.Set, len(s))
		}
		dirty.Merge(s)
	}

	for _, src := range r.toClear {
		merge(r.differ.Flush(src))
	}
	clear(r.toClear)
	r.toClear = r.toClear[:0]

	if !r.mode.Enabled() {
		for _, src := range r.sources {
			merge(r.differ.Flush(src))
			r.toAdd[src.Identity()] = struct{}{}
		}
		r.refresh = false
	} else if r.refresh || r.limiter.AllowN(now, 1) {
		updates := 0
		for _, src := range r.sources {
			_, added := r.toAdd[src.Identity()]
			if s := r.differ.ChunksToRebuild(src, r.refresh || added); s != nil {
				updates++
				merge(s)
			}
		}
		clear(r.toAdd)
		r.refresh = false
		r.updates = updates
		report.Updated = updates
		report.Diffed = true
	}

	report.Sections = len(dirty)
	if dirty == nil {
		return report, nil
	}
	return report, dirty.Sorted()
}

// filter keeps the sources for which keep returns true and queues the others
// for a final flush. It returns how many were dropped.
func (r *Registry) filter(keep func(source.Source) bool) int {
	kept := r.sources[:0]
	dropped := 0
	for _, src := range r.sources {
		if keep(src) {
			kept = append(kept, src)
			continue
		}
		id := src.Identity()
		delete(r.index, id)
		delete(r.toAdd, id)
		r.toClear = append(r.toClear, src)
		dropped++
	}
	clear(r.sources[len(kept):])
	r.sources = kept
	if dropped > 0 {
		r.reindex(0)
	}
	return dropped
}

func (r *Registry) reindex(from int) {
	for i := from; i < len(r.sources); i++ {
		r.index[r.sources[i].Identity()] = i
	}
}
