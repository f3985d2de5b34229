package source

import (
	"math"
	"sync/atomic"
)

// BeaconBehavior is a vertical beam of light rising from a block column up
// to the top of the world.
type BeaconBehavior struct {
	X, Z  int
	Level int

	// StartY is where the beam starts. When HasStart is false the beam
	// starts at WorldBottom.
	StartY   int
	HasStart bool

	WorldBottom int
	WorldTop    int

	removed atomic.Bool
}

// NewBeaconBehavior creates a beam at column (x, z) spanning the whole world height.
func NewBeaconBehavior(x, z, luminance, worldBottom, worldTop int) *BeaconBehavior {
	return &BeaconBehavior{
		X:           x,
		Z:           z,
		Level:       ClampLuminance(luminance),
		WorldBottom: worldBottom,
		WorldTop:    worldTop,
	}
}

// StartingAt returns b with the beam starting at y instead of the world bottom.
func (b *BeaconBehavior) StartingAt(y int) *BeaconBehavior {
	b.StartY = y
	b.HasStart = true
	return b
}

func (b *BeaconBehavior) Luminance() int  { return b.Level }
func (b *BeaconBehavior) IsRemoved() bool { return b.removed.Load() }

// Remove marks the beam as removed; the registry drops it on its next tick.
func (b *BeaconBehavior) Remove() { b.removed.Store(true) }

// HasChanged is always false: a beam is fixed for its whole life.
func (b *BeaconBehavior) HasChanged() bool { return false }

func (b *BeaconBehavior) bottom() int {
	if b.HasStart {
		return b.StartY
	}
	return b.WorldBottom
}

func (b *BeaconBehavior) BoundingBox() BoundingBox {
	return NewBoundingBox(b.X, b.bottom(), b.Z, b.X+1, b.WorldTop, b.Z+1)
}

// LightAt measures the horizontal distance to the beam axis, plus the
// vertical distance when below the beam start.
func (b *BeaconBehavior) LightAt(x, y, z, falloff float64) float64 {
	dx := x - (float64(b.X) + 0.5)
	dz := z - (float64(b.Z) + 0.5)
	distanceSquared := dx*dx + dz*dz

	if start := float64(b.bottom()); y < start {
		dy := y - start
		distanceSquared += dy * dy
	}
	return float64(b.Level) - math.Sqrt(distanceSquared)*falloff
}
