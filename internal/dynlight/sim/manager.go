// Package sim is a small host world for the light engine: entities that
// wander around carrying torches, catch fire and fall into water, plus a
// few static lights.
package sim

import (
	"cmp"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"github.com/go-theft-craft/dynlights/internal/dynlight/luminance"
	"github.com/go-theft-craft/dynlights/internal/dynlight/registry"
	"github.com/go-theft-craft/dynlights/internal/dynlight/source"
)

const (
	maxSpeed     = 0.4
	igniteChance = 1.0 / 400
	burnTicks    = 100
	respawnTicks = 200
)

var carried = []string{"torch", "lantern", "soul_torch", "redstone_torch", "glowstone_dust", "blaze_rod", "dirt"}

// Manager tracks simulated entities and keeps the light registry in sync
// with them.
type Manager struct {
	mu           sync.RWMutex
	entities     map[int32]*Entity // entityID → Entity
	byUUID       map[uuid.UUID]int32
	nextEntityID atomic.Int32
	currentTick  atomic.Int64

	world World
	rules *luminance.Rules
	reg   *registry.Registry
	rng   *rand.Rand
	log   *slog.Logger
}

// NewManager creates a manager registering its lights with reg. seed makes
// the simulation reproducible.
func NewManager(world World, rules *luminance.Rules, reg *registry.Registry, seed int64, log *slog.Logger) *Manager {
	return &Manager{
		entities: make(map[int32]*Entity),
		byUUID:   make(map[uuid.UUID]int32),
		world:    world,
		rules:    rules,
		reg:      reg,
		rng:      rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15)),
		log:      log,
	}
}

// AllocateEntityID returns the next unique entity ID.
func (m *Manager) AllocateEntityID() int32 {
	return m.nextEntityID.Add(1)
}

// Spawn creates an entity at pos and starts tracking its light.
func (m *Manager) Spawn(name string, pos Position, equipped ...string) *Entity {
	return m.add(NewEntity(m.AllocateEntityID(), name, pos, m.rules, equipped...))
}

// SpawnViewer creates the entity the world is seen from.
func (m *Manager) SpawnViewer(pos Position, equipped ...string) *Entity {
	e := NewEntity(m.AllocateEntityID(), "viewer", pos, m.rules, equipped...)
	e.Self = true
	return m.add(e)
}

func (m *Manager) add(e *Entity) *Entity {
	m.mu.Lock()
	m.entities[e.EntityID] = e
	m.byUUID[e.UUID] = e.EntityID
	m.mu.Unlock()

	m.reg.Add(source.NewPoint(e))
	return e
}

// Despawn marks an entity as removed. Its light disappears on the next
// registry tick, found by polling.
func (m *Manager) Despawn(entityID int32) bool {
	m.mu.Lock()
	e, ok := m.entities[entityID]
	if ok {
		delete(m.entities, entityID)
		delete(m.byUUID, e.UUID)
	}
	m.mu.Unlock()

	if ok {
		e.Remove()
	}
	return ok
}

// Get returns an entity by ID.
func (m *Manager) Get(entityID int32) (*Entity, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entities[entityID]
	return e, ok
}

// GetByUUID returns an entity by UUID.
func (m *Manager) GetByUUID(id uuid.UUID) (*Entity, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	eid, ok := m.byUUID[id]
	if !ok {
		return nil, false
	}
	return m.entities[eid], true
}

// Count returns the number of live entities.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entities)
}

// Viewer returns the eye position of the first self entity, if any.
func (m *Manager) Viewer() (mgl64.Vec3, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.entities {
		if e.Self {
			return e.Position(), true
		}
	}
	return mgl64.Vec3{}, false
}

// Populate spawns n wandering entities at random positions, a beacon at the
// origin and a lit cuboid.
func (m *Manager) Populate(n int) {
	for i := range n {
		pos := Position{
			X: (m.rng.Float64()*2 - 1) * m.world.Radius,
			Y: m.world.SeaLevel - 4 + m.rng.Float64()*12,
			Z: (m.rng.Float64()*2 - 1) * m.world.Radius,
		}
		m.Spawn(fmt.Sprintf("wanderer-%d", i), pos, carried[m.rng.IntN(len(carried))])
	}
	m.SpawnViewer(Position{X: 0.5, Y: m.world.SeaLevel + 2, Z: 0.5}, "lantern")

	m.reg.AddBehavior(source.NewBeaconBehavior(0, 0, 15, m.world.Bottom, m.world.Top).StartingAt(int(m.world.SeaLevel)))
	m.reg.Add(source.Cuboid(16, int(m.world.SeaLevel), 16, 19, int(m.world.SeaLevel)+2, 19, 12))
	m.log.Info("populated world", "entities", n)
}

// Tick advances every entity by one tick: movement, water and fire. Every
// respawnTicks one random entity is despawned and a fresh one spawned.
func (m *Manager) Tick() {
	tick := m.currentTick.Add(1)

	m.mu.RLock()
	entities := make([]*Entity, 0, len(m.entities))
	for _, e := range m.entities {
		entities = append(entities, e)
	}
	m.mu.RUnlock()

	// Sorted so a given seed always produces the same run.
	slices.SortFunc(entities, func(a, b *Entity) int { return cmp.Compare(a.EntityID, b.EntityID) })

	for _, e := range entities {
		if !e.Self {
			m.steer(e)
		}
		e.step()

		pos, hitX, hitZ := m.world.Clamp(e.GetPosition())
		e.SetPosition(pos.X, pos.Y, pos.Z)
		if hitX || hitZ {
			e.mu.Lock()
			if hitX {
				e.velocity[0] = -e.velocity[0]
			}
			if hitZ {
				e.velocity[2] = -e.velocity[2]
			}
			e.mu.Unlock()
		}
		e.SetSubmerged(m.world.Submerged(pos))

		if m.rng.Float64() < igniteChance {
			e.Ignite(burnTicks)
		}
	}

	if tick%respawnTicks == 0 && len(entities) > 1 {
		victim := entities[m.rng.IntN(len(entities))]
		if !victim.Self {
			m.Despawn(victim.EntityID)
			m.Spawn(victim.Name, Position{X: 0.5, Y: m.world.SeaLevel + 1, Z: 0.5}, carried[m.rng.IntN(len(carried))])
			m.log.Debug("respawned entity", "name", victim.Name, "old_id", victim.EntityID)
		}
	}
}

// steer nudges the velocity randomly, keeping it under maxSpeed.
func (m *Manager) steer(e *Entity) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.velocity[0] += (m.rng.Float64() - 0.5) * 0.1
	e.velocity[2] += (m.rng.Float64() - 0.5) * 0.1
	e.velocity[1] = 0
	if l := e.velocity.Len(); l > maxSpeed {
		e.velocity = e.velocity.Mul(maxSpeed / l)
	}
}
