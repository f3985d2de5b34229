package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "dynlights"

// Metrics holds the Prometheus collectors of the lighting engine. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	rebuildDuration  prometheus.Histogram
	fragments        prometheus.Gauge
	droppedFragments prometheus.Counter
	sources          prometheus.Gauge
	removedSources   prometheus.Counter
	sourceUpdates    prometheus.Counter
	chunkRebuilds    prometheus.Counter
	queries          prometheus.Counter
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		rebuildDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "rebuild_duration_seconds",
			Help:      "Time spent rebuilding the spatial lookup table",
			Buckets:   []float64{0.00001, 0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01},
		}),
		fragments: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "fragments",
			Help:      "Fragments indexed by the last rebuild",
		}),
		droppedFragments: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "dropped_fragments_total",
			Help:      "Fragments dropped because the lookup table was full",
		}),
		sources: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "sources",
			Help:      "Tracked light sources",
		}),
		removedSources: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "polled_removals_total",
			Help:      "Light sources dropped because they reported themselves removed",
		}),
		sourceUpdates: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "source_updates_total",
			Help:      "Light sources that requested chunk rebuilds",
		}),
		chunkRebuilds: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "chunk_rebuilds_total",
			Help:      "Chunk section rebuilds handed to the scheduler",
		}),
		queries: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "queries_total",
			Help:      "Light level queries answered",
		}),
	}
}

// ObserveRebuild records one rebuild of the lookup table.
func (m *Metrics) ObserveRebuild(d time.Duration, fragments, dropped int) {
	if m == nil {
		return
	}
	m.rebuildDuration.Observe(d.Seconds())
	m.fragments.Set(float64(fragments))
	if dropped > 0 {
		m.droppedFragments.Add(float64(dropped))
	}
}

// ObserveTick records the outcome of one registry tick.
func (m *Metrics) ObserveTick(sources, removed, updates, chunks int) {
	if m == nil {
		return
	}
	m.sources.Set(float64(sources))
	m.removedSources.Add(float64(removed))
	m.sourceUpdates.Add(float64(updates))
	m.chunkRebuilds.Add(float64(chunks))
}

// AddQueries counts n answered queries. Callers batch this per frame to keep
// the query path free of shared writes.
func (m *Metrics) AddQueries(n int) {
	if m == nil {
		return
	}
	m.queries.Add(float64(n))
}
