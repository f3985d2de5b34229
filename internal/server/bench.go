package server

import (
	"log/slog"
	"math"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/stat"

	"github.com/go-theft-craft/dynlights/internal/dynlight/engine"
	"github.com/go-theft-craft/dynlights/internal/dynlight/luminance"
	"github.com/go-theft-craft/dynlights/internal/dynlight/registry"
	"github.com/go-theft-craft/dynlights/internal/dynlight/section"
	"github.com/go-theft-craft/dynlights/internal/dynlight/sim"
)

// queriesPerTick is how many random light queries each bench tick times.
const queriesPerTick = 2048

// BenchOptions configures Bench.
type BenchOptions struct {
	Capacity int
	Entities int
	Ticks    int
	Seed     int64
}

// Summary describes a sample of durations.
type Summary struct {
	Mean   time.Duration
	StdDev time.Duration
	P50    time.Duration
	P99    time.Duration
	Max    time.Duration
}

// BenchResult holds the timings of a Bench run.
type BenchResult struct {
	Sources   int
	Fragments int
	Dropped   int
	Sections  int
	Tick      Summary // registry tick including the engine rebuild
	Rebuild   Summary
	Query     Summary // per query
}

// Bench runs the simulation for opts.Ticks ticks and times the registry
// ticks, engine rebuilds and light queries.
func Bench(opts BenchOptions) BenchResult {
	eng := engine.New(opts.Capacity)
	queue := sim.NewRebuildQueue()
	reg := registry.New(eng, section.NewDiffer(), queue)
	rules := &luminance.Rules{
		Table:               luminance.Default(),
		WaterSensitiveCheck: true,
		EntitiesLightSource: true,
		SelfLightSource:     true,
	}
	world := sim.DefaultWorld()
	mgr := sim.NewManager(world, rules, reg, opts.Seed, slog.New(slog.DiscardHandler))
	mgr.Populate(opts.Entities)

	rng := rand.New(rand.NewPCG(uint64(opts.Seed), 1))
	ticks := make([]float64, 0, opts.Ticks)
	rebuilds := make([]float64, 0, opts.Ticks)
	queries := make([]float64, 0, opts.Ticks)

	var res BenchResult
	now := time.Unix(0, 0)
	for range opts.Ticks {
		now = now.Add(50 * time.Millisecond)
		mgr.Tick()

		start := time.Now()
		report := reg.Tick(now)
		ticks = append(ticks, float64(time.Since(start)))
		rebuilds = append(rebuilds, float64(report.Rebuild.Duration))

		res.Dropped = max(res.Dropped, report.Rebuild.Dropped)
		res.Sections += report.Sections
		queue.Drain()

		start = time.Now()
		for range queriesPerTick {
			eng.QueryMax(mgl64.Vec3{
				(rng.Float64()*2 - 1) * world.Radius,
				world.SeaLevel - 4 + rng.Float64()*14,
				(rng.Float64()*2 - 1) * world.Radius,
			})
		}
		queries = append(queries, float64(time.Since(start))/queriesPerTick)
	}

	res.Sources = reg.Count()
	res.Fragments = eng.Fragments()
	res.Tick = summarize(ticks)
	res.Rebuild = summarize(rebuilds)
	res.Query = summarize(queries)
	return res
}

func summarize(xs []float64) Summary {
	if len(xs) == 0 {
		return Summary{}
	}
	slices.Sort(xs)
	mean, std := stat.MeanStdDev(xs, nil)
	if math.IsNaN(std) {
		std = 0
	}
	return Summary{
		Mean:   time.Duration(mean),
		StdDev: time.Duration(std),
		P50:    time.Duration(stat.Quantile(0.5, stat.Empirical, xs, nil)),
		P99:    time.Duration(stat.Quantile(0.99, stat.Empirical, xs, nil)),
		Max:    time.Duration(xs[len(xs)-1]),
	}
}
