package engine

import (
	"cmp"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/go-theft-craft/dynlights/internal/dynlight/metrics"
	"github.com/go-theft-craft/dynlights/internal/dynlight/source"
)

// overflowFactor bounds how many fragments a rebuild collects before it
// starts dropping them, as a multiple of the capacity.
const overflowFactor = 4

const noEntry int32 = -1

// table is one generation of the spatial lookup. entries is sorted by key and
// startIndices maps a key to its first entry, or noEntry.
type table struct {
	entries      []entry
	startIndices []int32
}

func newTable(capacity int) *table {
	t := &table{
		entries:      make([]entry, 0, capacity),
		startIndices: make([]int32, capacity),
	}
	t.reset()
	return t
}

func (t *table) reset() {
	clear(t.entries[:cap(t.entries)])
	t.entries = t.entries[:0]
	for i := range t.startIndices {
		t.startIndices[i] = noEntry
	}
}

type cachedCollection struct {
	entries []entry
	gen     uint64
}

// RebuildStats describes one rebuild.
type RebuildStats struct {
	Sources   int
	Fragments int
	Dropped   int
	Duration  time.Duration
}

// Engine is the spatial hash grid answering "brightest dynamic light at
// this point". Rebuild is called by the tick goroutine; QueryMax may be
// called from any number of goroutines at the same time.
type Engine struct {
	capacity int
	log      *slog.Logger
	metrics  *metrics.Metrics
	focus    func() (mgl64.Vec3, bool)

	// Guarded by rebuildMu.
	rebuildMu   sync.Mutex
	back        *table
	collections map[*source.Collection]*cachedCollection
	gen         uint64
	saturated   bool

	mu    sync.RWMutex
	front *table
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used to report saturation.
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithMetrics records rebuild statistics into m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithFocus sets where the viewer is. When a rebuild has more fragments than
// the table can hold, the fragments closest to the focus are kept. Without a
// focus the first fragments in source order are kept.
func WithFocus(focus func() (mgl64.Vec3, bool)) Option {
	return func(e *Engine) { e.focus = focus }
}

// New creates an Engine with the given table capacity, rounded up to a
// power of two.
func New(capacity int, opts ...Option) *Engine {
	capacity = RoundCapacity(capacity)
	e := &Engine{
		capacity:    capacity,
		log:         slog.New(slog.DiscardHandler),
		collections: make(map[*source.Collection]*cachedCollection),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.front = newTable(capacity)
	e.back = newTable(capacity)
	return e
}

// Capacity returns the number of table slots.
func (e *Engine) Capacity() int { return e.capacity }

// Rebuild replaces the lookup with the fragments of sources. Sources with a
// luminance of 0 are skipped. Fragments beyond the capacity are dropped.
func (e *Engine) Rebuild(sources []source.Source) RebuildStats {
	start := time.Now()

	e.rebuildMu.Lock()
	defer e.rebuildMu.Unlock()

	e.gen++
	t := e.back
	t.reset()

	limit := e.capacity * overflowFactor
	total := 0
	for _, src := range sources {
		if src.Luminance() <= 0 {
			continue
		}
		switch s := src.(type) {
		case *source.Point:
			total++
			pos := s.Position()
			cx, cy, cz := CellOf(pos)
			t.entries = appendLimited(t.entries, limit, entry{
				key:       HashCell(cx, cy, cz, e.capacity),
				cx:        cx,
				cy:        cy,
				cz:        cz,
				kind:      entryPoint,
				pos:       pos,
				luminance: float64(s.Luminance()),
			})
		case *source.Collection:
			frags := e.collectionEntries(s)
			total += len(frags)
			for _, f := range frags {
				t.entries = appendLimited(t.entries, limit, f)
			}
		case *source.Deferred:
			total += e.appendDeferred(t, limit, s)
		}
	}

	if len(t.entries) > e.capacity {
		if pos, ok := e.focusPos(); ok {
			slices.SortStableFunc(t.entries, func(a, b entry) int {
				return cmp.Compare(a.cellCentre().Sub(pos).LenSqr(), b.cellCentre().Sub(pos).LenSqr())
			})
		}
		clear(t.entries[e.capacity:])
		t.entries = t.entries[:e.capacity]
	}

	slices.SortStableFunc(t.entries, func(a, b entry) int {
		return cmp.Compare(a.key, b.key)
	})
	for i := range t.entries {
		key := t.entries[i].key
		if i == 0 || key != t.entries[i-1].key {
			t.startIndices[key] = int32(i)
		}
	}

	for c, cached := range e.collections {
		if cached.gen != e.gen {
			delete(e.collections, c)
		}
	}

	e.mu.Lock()
	e.front, e.back = t, e.front
	e.mu.Unlock()

	stats := RebuildStats{
		Sources:   len(sources),
		Fragments: len(t.entries),
		Dropped:   total - len(t.entries),
		Duration:  time.Since(start),
	}
	e.reportSaturation(stats)
	e.metrics.ObserveRebuild(stats.Duration, stats.Fragments, stats.Dropped)
	return stats
}

func appendLimited(entries []entry, limit int, f entry) []entry {
	if len(entries) >= limit {
		return entries
	}
	return append(entries, f)
}

func (e *Engine) focusPos() (mgl64.Vec3, bool) {
	if e.focus == nil {
		return mgl64.Vec3{}, false
	}
	return e.focus()
}

// appendDeferred adds one fragment per cell overlapped by the behavior's
// bounding box and returns how many cells that is.
func (e *Engine) appendDeferred(t *table, limit int, d *source.Deferred) int {
	box := d.BoundingBox()
	x0, x1 := PositionToCell(box.StartX), PositionToCell(box.EndX)
	y0, y1 := PositionToCell(box.StartY), PositionToCell(box.EndY)
	z0, z1 := PositionToCell(box.StartZ), PositionToCell(box.EndZ)
	n := int(x1-x0+1) * int(y1-y0+1) * int(z1-z0+1)

	b := d.Behavior()
	for cx := x0; cx <= x1; cx++ {
		for cy := y0; cy <= y1; cy++ {
			for cz := z0; cz <= z1; cz++ {
				if len(t.entries) >= limit {
					return n
				}
				t.entries = append(t.entries, entry{
					key:      HashCell(cx, cy, cz, e.capacity),
					cx:       cx,
					cy:       cy,
					cz:       cz,
					kind:     entryDeferred,
					behavior: b,
				})
			}
		}
	}
	return n
}

// collectionEntries splits a collection into one fragment per cell, in the
// order cells are first seen. The split is cached for as long as the
// collection keeps being rebuilt.
func (e *Engine) collectionEntries(c *source.Collection) []entry {
	if cached, ok := e.collections[c]; ok {
		cached.gen = e.gen
		return cached.entries
	}

	type cell struct{ x, y, z int32 }
	index := make(map[cell]int)
	var frags []entry
	for _, p := range c.Points() {
		if p.Luminance <= 0 {
			continue
		}
		k := cell{PositionToCell(p.X), PositionToCell(p.Y), PositionToCell(p.Z)}
		i, ok := index[k]
		if !ok {
			i = len(frags)
			index[k] = i
			frags = append(frags, entry{
				key:  HashCell(k.x, k.y, k.z, e.capacity),
				cx:   k.x,
				cy:   k.y,
				cz:   k.z,
				kind: entryCollection,
			})
		}
		f := &frags[i]
		f.points = append(f.points, mgl64.Vec3{float64(p.X) + 0.5, float64(p.Y) + 0.5, float64(p.Z) + 0.5})
		f.levels = append(f.levels, uint8(p.Luminance))
	}

	e.collections[c] = &cachedCollection{entries: frags, gen: e.gen}
	return frags
}

func (e *Engine) reportSaturation(stats RebuildStats) {
	switch {
	case stats.Dropped > 0 && !e.saturated:
		e.saturated = true
		e.log.Warn("light lookup saturated",
			"capacity", e.capacity,
			"fragments", stats.Fragments+stats.Dropped,
			"dropped", stats.Dropped,
		)
	case stats.Dropped == 0 && e.saturated:
		e.saturated = false
		e.log.Info("light lookup no longer saturated", "fragments", stats.Fragments)
	}
}

// QueryMax returns the brightest dynamic light level at pos, in [0, 15].
func (e *Engine) QueryMax(pos mgl64.Vec3) float64 {
	cx, cy, cz := CellOf(pos)

	e.mu.RLock()
	defer e.mu.RUnlock()

	t := e.front
	var result float64
	for dx := int32(-1); dx <= 1; dx++ {
		for dy := int32(-1); dy <= 1; dy++ {
			for dz := int32(-1); dz <= 1; dz++ {
				key := HashCell(cx+dx, cy+dy, cz+dz, e.capacity)
				start := t.startIndices[key]
				if start == noEntry {
					continue
				}
				for i := int(start); i < len(t.entries) && t.entries[i].key == key; i++ {
					if l := t.entries[i].lightAt(pos); l > result {
						result = l
					}
				}
			}
		}
	}
	return min(result, source.MaxLuminance)
}

// LightAtBlock returns the dynamic light level at the centre of a block.
func (e *Engine) LightAtBlock(x, y, z int) float64 {
	return e.QueryMax(mgl64.Vec3{float64(x) + 0.5, float64(y) + 0.5, float64(z) + 0.5})
}

// Fragments returns the number of fragments in the current lookup.
func (e *Engine) Fragments() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.front.entries)
}
