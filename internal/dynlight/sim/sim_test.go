package sim

import (
	"log/slog"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-theft-craft/dynlights/internal/dynlight/engine"
	"github.com/go-theft-craft/dynlights/internal/dynlight/luminance"
	"github.com/go-theft-craft/dynlights/internal/dynlight/registry"
	"github.com/go-theft-craft/dynlights/internal/dynlight/section"
)

func testRules() *luminance.Rules {
	return &luminance.Rules{
		Table:               luminance.Default(),
		WaterSensitiveCheck: true,
		EntitiesLightSource: true,
		SelfLightSource:     true,
	}
}

type harness struct {
	eng   *engine.Engine
	queue *RebuildQueue
	reg   *registry.Registry
	mgr   *Manager
	now   time.Time
}

func newHarness(seed int64) *harness {
	h := &harness{
		eng:   engine.New(engine.DefaultCapacity),
		queue: NewRebuildQueue(),
		now:   time.Unix(0, 0),
	}
	h.reg = registry.New(h.eng, section.NewDiffer(), h.queue)
	h.mgr = NewManager(DefaultWorld(), testRules(), h.reg, seed, slog.New(slog.DiscardHandler))
	return h
}

func (h *harness) tick() registry.TickReport {
	h.now = h.now.Add(50 * time.Millisecond)
	h.mgr.Tick()
	return h.reg.Tick(h.now)
}

func TestEntityLuminance(t *testing.T) {
	e := NewEntity(1, "steve", Position{X: 0.5, Y: 70, Z: 0.5}, testRules(), "torch")
	assert.Equal(t, 0, e.Luminance(), "luminance is computed on tick")

	e.DynamicLightTick()
	assert.Equal(t, 14, e.Luminance())

	e.SetSubmerged(true)
	e.DynamicLightTick()
	assert.Equal(t, 0, e.Luminance())

	e.SetSubmerged(false)
	e.SetEquipped("dirt")
	e.Ignite(3)
	e.DynamicLightTick()
	assert.Equal(t, 15, e.Luminance())

	e.Remove()
	e.DynamicLightTick()
	assert.Equal(t, 0, e.Luminance())
	assert.True(t, e.IsRemoved())
}

func TestSubmergingPutsOutFire(t *testing.T) {
	e := NewEntity(1, "zombie", Position{}, testRules())
	e.Ignite(100)
	e.SetSubmerged(true)
	e.SetSubmerged(false)
	e.DynamicLightTick()
	assert.Equal(t, 0, e.Luminance())
}

func TestEntityPosition(t *testing.T) {
	e := NewEntity(1, "steve", Position{X: 17, Y: 64, Z: -3}, testRules())
	assert.Equal(t, mgl64.Vec3{17, 64 + EyeHeight, -3}, e.Position())
	assert.Equal(t, 1, e.ChunkX())
	assert.Equal(t, -1, e.ChunkZ())
}

func TestSpawnLightsTheWorld(t *testing.T) {
	h := newHarness(1)
	e := h.mgr.Spawn("steve", Position{X: 0.5, Y: 70, Z: 0.5}, "lantern")
	assert.Equal(t, 1, h.reg.Count())

	h.reg.Tick(h.now)
	assert.Equal(t, 15.0, h.eng.QueryMax(e.Position()))
	assert.Equal(t, 8, h.queue.Pending())

	got, ok := h.mgr.GetByUUID(e.UUID)
	require.True(t, ok)
	assert.Same(t, e, got)
}

func TestDespawnIsPolled(t *testing.T) {
	h := newHarness(1)
	e := h.mgr.Spawn("steve", Position{X: 0.5, Y: 70, Z: 0.5}, "torch")
	h.reg.Tick(h.now)
	pos := e.Position()
	h.queue.Drain()

	require.True(t, h.mgr.Despawn(e.EntityID))
	assert.False(t, h.mgr.Despawn(e.EntityID))
	_, ok := h.mgr.Get(e.EntityID)
	assert.False(t, ok)

	report := h.reg.Tick(h.now.Add(time.Second))
	assert.Equal(t, 1, report.Removed)
	assert.Zero(t, h.reg.Count())
	assert.Equal(t, 0.0, h.eng.QueryMax(pos))
	assert.Len(t, h.queue.Drain(), 8)
}

func TestPopulate(t *testing.T) {
	h := newHarness(42)
	h.mgr.Populate(10)

	assert.Equal(t, 11, h.mgr.Count())
	assert.Equal(t, 13, h.reg.Count(), "entities, beacon and cuboid")

	viewer, ok := h.mgr.Viewer()
	require.True(t, ok)
	h.tick()
	assert.Equal(t, 15.0, h.eng.QueryMax(viewer))
}

func TestSimulationIsDeterministic(t *testing.T) {
	run := func() []Position {
		h := newHarness(7)
		h.mgr.Populate(20)
		for range 250 {
			h.tick()
		}
		var out []Position
		for id := int32(1); id <= h.mgr.nextEntityID.Load(); id++ {
			if e, ok := h.mgr.Get(id); ok {
				out = append(out, e.GetPosition())
			}
		}
		return out
	}
	assert.Equal(t, run(), run())
}

func TestEntitiesStayInWorld(t *testing.T) {
	h := newHarness(3)
	h.mgr.Populate(30)
	for range 500 {
		h.tick()
	}
	w := DefaultWorld()
	for id := int32(1); id <= h.mgr.nextEntityID.Load(); id++ {
		if e, ok := h.mgr.Get(id); ok {
			p := e.GetPosition()
			assert.LessOrEqual(t, p.X, w.Radius)
			assert.GreaterOrEqual(t, p.X, -w.Radius)
			assert.LessOrEqual(t, p.Z, w.Radius)
			assert.GreaterOrEqual(t, p.Z, -w.Radius)
		}
	}
}

func TestWorldClamp(t *testing.T) {
	w := World{Radius: 10, SeaLevel: 5, Bottom: 0, Top: 20}

	p, hitX, hitZ := w.Clamp(Position{X: 12, Y: -3, Z: 4})
	assert.Equal(t, Position{X: 10, Y: 0, Z: 4}, p)
	assert.True(t, hitX)
	assert.False(t, hitZ)

	assert.True(t, w.Submerged(Position{Y: 4.9}))
	assert.False(t, w.Submerged(Position{Y: 5}))
}

func TestRebuildQueue(t *testing.T) {
	q := NewRebuildQueue()
	q.ScheduleChunkRebuild(1, 2, 3)
	q.ScheduleChunkRebuild(0, 0, 0)
	q.ScheduleChunkRebuild(1, 2, 3)

	assert.Equal(t, 2, q.Pending())
	assert.Equal(t, 3, q.Total())
	assert.Equal(t, []section.Pos{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 2, Z: 3}}, q.Drain())
	assert.Zero(t, q.Pending())
	assert.Empty(t, q.Drain())
}
