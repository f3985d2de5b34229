package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/go-theft-craft/dynlights/internal/dynlight/config"
	"github.com/go-theft-craft/dynlights/internal/dynlight/engine"
	"github.com/go-theft-craft/dynlights/internal/dynlight/luminance"
	"github.com/go-theft-craft/dynlights/internal/dynlight/metrics"
	"github.com/go-theft-craft/dynlights/internal/dynlight/registry"
	"github.com/go-theft-craft/dynlights/internal/dynlight/section"
	"github.com/go-theft-craft/dynlights/internal/dynlight/sim"
)

const (
	frameRate = 60
	// renderRadius is how many blocks around the viewer a frame samples.
	renderRadius = 6
	// staticLightmap is full sky light and no block light.
	staticLightmap = uint32(15) << 20
	statusEvery    = 5 * time.Second
)

// Server runs the light simulation: a tick actor driving entities and the
// light registry, and a render actor querying light around the viewer.
type Server struct {
	cfg      *config.Config
	log      *slog.Logger
	promReg  *prometheus.Registry
	metrics  *metrics.Metrics
	table    *luminance.Table
	engine   *engine.Engine
	registry *registry.Registry
	entities *sim.Manager
	queue    *sim.RebuildQueue

	frames      atomic.Int64
	rebuilt     atomic.Int64
	litCount    atomic.Int64
	metricsAddr atomic.Pointer[net.Addr]
}

// New creates a new Server with the given config and logger.
func New(cfg *config.Config, log *slog.Logger) (*Server, error) {
	table := luminance.Default()
	if cfg.LuminanceTable != "" {
		var err error
		if table, err = luminance.LoadFile(cfg.LuminanceTable); err != nil {
			return nil, err
		}
	}

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(promReg)

	s := &Server{
		cfg:     cfg,
		log:     log,
		promReg: promReg,
		metrics: m,
		table:   table,
		queue:   sim.NewRebuildQueue(),
	}

	s.engine = engine.New(cfg.TableCapacity,
		engine.WithLogger(log.With("component", "engine")),
		engine.WithMetrics(m),
		engine.WithFocus(func() (mgl64.Vec3, bool) { return s.entities.Viewer() }),
	)
	s.registry = registry.New(s.engine, section.NewDiffer(), s.queue,
		registry.WithLogger(log.With("component", "registry")),
		registry.WithMetrics(m),
		registry.WithMode(cfg.Mode),
	)
	rules := &luminance.Rules{
		Table:               table,
		WaterSensitiveCheck: cfg.WaterSensitiveCheck,
		EntitiesLightSource: cfg.EntitiesLightSource,
		SelfLightSource:     cfg.SelfLightSource,
	}
	s.entities = sim.NewManager(sim.DefaultWorld(), rules, s.registry, cfg.Seed, log.With("component", "sim"))
	return s, nil
}

// Engine returns the light engine.
func (s *Server) Engine() *engine.Engine { return s.engine }

// Registry returns the light source registry.
func (s *Server) Registry() *registry.Registry { return s.registry }

// MetricsAddr returns the address the metrics endpoint listens on, or nil
// before it is up.
func (s *Server) MetricsAddr() net.Addr {
	if a := s.metricsAddr.Load(); a != nil {
		return *a
	}
	return nil
}

// Start populates the world and runs until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.entities.Populate(s.cfg.Entities)

	s.log.Info("server started",
		"tickRate", s.cfg.TickRate,
		"mode", s.cfg.Mode,
		"tableCapacity", s.engine.Capacity(),
		"entities", s.cfg.Entities,
		"seed", s.cfg.Seed,
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.tickLoop(ctx) })
	g.Go(func() error { return s.renderLoop(ctx) })
	if s.cfg.MetricsAddr != "" {
		g.Go(func() error { return s.serveMetrics(ctx) })
	}
	if s.cfg.LuminanceTable != "" {
		g.Go(func() error { return luminance.Watch(ctx, s.cfg.LuminanceTable, s.table, s.log) })
	}

	err := g.Wait()
	s.log.Info("server shutting down", "frames", s.frames.Load())
	return err
}

func (s *Server) tickLoop(ctx context.Context) error {
	ticker := time.NewTicker(time.Second / time.Duration(s.cfg.TickRate))
	defer ticker.Stop()

	lastStatus := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			s.entities.Tick()
			s.registry.Tick(now)

			if now.Sub(lastStatus) >= statusEvery {
				lastStatus = now
				s.log.Info("light status",
					"sources", s.registry.Count(),
					"fragments", s.engine.Fragments(),
					"lastUpdates", s.registry.LastUpdateCount(),
					"rebuiltSections", s.rebuilt.Load(),
					"litBlocks", s.litCount.Load(),
				)
			}
		}
	}
}

func (s *Server) renderLoop(ctx context.Context) error {
	ticker := time.NewTicker(time.Second / frameRate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.renderFrame()
		}
	}
}

// renderFrame rebuilds the queued sections and lights the blocks around the
// viewer, the way a renderer merges dynamic light into its lightmap.
func (s *Server) renderFrame() {
	s.frames.Add(1)
	s.rebuilt.Add(int64(len(s.queue.Drain())))

	viewer, ok := s.entities.Viewer()
	if !ok {
		return
	}
	vx, vy, vz := engine.BlockPos(viewer)

	lit, queries := 0, 0
	for x := vx - renderRadius; x <= vx+renderRadius; x++ {
		for y := vy - renderRadius; y <= vy+renderRadius; y++ {
			for z := vz - renderRadius; z <= vz+renderRadius; z++ {
				level := s.engine.LightAtBlock(x, y, z)
				queries++
				if engine.MergeLightmap(level, staticLightmap) != staticLightmap {
					lit++
				}
			}
		}
	}
	s.litCount.Store(int64(lit))
	s.metrics.AddQueries(queries)
}

func (s *Server) serveMetrics(ctx context.Context) error {
	lc := net.ListenConfig{}
	listener, err := lc.Listen(ctx, "tcp", s.cfg.MetricsAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.MetricsAddr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.promReg, promhttp.HandlerOpts{Registry: s.promReg}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	// Shut the server down when context is cancelled.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	addr := listener.Addr()
	s.metricsAddr.Store(&addr)
	s.log.Info("metrics listening", "addr", addr.String())
	if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve metrics: %w", err)
	}
	return nil
}
