package sim

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"github.com/go-theft-craft/dynlights/internal/dynlight/luminance"
)

// EyeHeight is where an entity's light comes from, above its feet.
const EyeHeight = 1.62

// Position holds an entity's feet position.
type Position struct {
	X, Y, Z float64
}

// Entity is a simulated mob or player carrying light. It is a light source
// emitter: the registry ticks it, reads its position and luminance, and
// polls it for removal.
type Entity struct {
	mu       sync.RWMutex
	EntityID int32
	UUID     uuid.UUID
	Name     string
	Self     bool

	pos       Position
	velocity  mgl64.Vec3
	equipped  []string
	fireTicks int
	submerged bool
	luminance int

	rules   *luminance.Rules
	removed atomic.Bool
}

// NewEntity creates an entity at pos holding the given items.
func NewEntity(entityID int32, name string, pos Position, rules *luminance.Rules, equipped ...string) *Entity {
	return &Entity{
		EntityID: entityID,
		UUID:     uuid.New(),
		Name:     name,
		pos:      pos,
		equipped: equipped,
		rules:    rules,
	}
}

// GetPosition returns a copy of the entity's current position.
func (e *Entity) GetPosition() Position {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.pos
}

// SetPosition moves the entity.
func (e *Entity) SetPosition(x, y, z float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pos = Position{X: x, Y: y, Z: z}
}

// ChunkX returns the chunk X coordinate for the entity's current position.
func (e *Entity) ChunkX() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return int(math.Floor(e.pos.X)) >> 4
}

// ChunkZ returns the chunk Z coordinate for the entity's current position.
func (e *Entity) ChunkZ() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return int(math.Floor(e.pos.Z)) >> 4
}

// SetEquipped replaces the items the entity holds or wears.
func (e *Entity) SetEquipped(items ...string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.equipped = items
}

// Ignite sets the entity on fire for the given number of ticks.
func (e *Entity) Ignite(ticks int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fireTicks = max(e.fireTicks, ticks)
}

// SetSubmerged records whether the entity is under water. Water puts out
// fire.
func (e *Entity) SetSubmerged(submerged bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.submerged = submerged
	if submerged {
		e.fireTicks = 0
	}
}

// Remove despawns the entity. The registry notices on its next tick.
func (e *Entity) Remove() { e.removed.Store(true) }

// Position returns the eye position.
func (e *Entity) Position() mgl64.Vec3 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return mgl64.Vec3{e.pos.X, e.pos.Y + EyeHeight, e.pos.Z}
}

// Luminance returns the level computed by the last DynamicLightTick.
func (e *Entity) Luminance() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.luminance
}

func (e *Entity) IsRemoved() bool { return e.removed.Load() }

// DynamicLightTick recomputes the luminance from the entity's state.
func (e *Entity) DynamicLightTick() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed.Load() {
		e.luminance = 0
		return
	}
	e.luminance = e.rules.EntityLuminance(luminance.EntityState{
		OnFire:    e.fireTicks > 0,
		Submerged: e.submerged,
		Equipped:  e.equipped,
		Self:      e.Self,
	})
}

// step advances movement and burning by one tick.
func (e *Entity) step() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pos.X += e.velocity[0]
	e.pos.Y += e.velocity[1]
	e.pos.Z += e.velocity[2]
	if e.fireTicks > 0 {
		e.fireTicks--
	}
}
