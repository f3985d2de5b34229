package engine

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/go-theft-craft/dynlights/internal/dynlight/source"
)

type entryKind uint8

const (
	entryPoint entryKind = iota
	entryCollection
	entryDeferred
)

// entry is one cell-local fragment of a light source.
type entry struct {
	key        int
	cx, cy, cz int32
	kind       entryKind

	// entryPoint, captured at rebuild time.
	pos       mgl64.Vec3
	luminance float64

	// entryCollection: block centres and their luminance, shared with the
	// collection cache and never mutated.
	points []mgl64.Vec3
	levels []uint8

	// entryDeferred
	behavior source.Behavior
}

func (e *entry) lightAt(p mgl64.Vec3) float64 {
	switch e.kind {
	case entryPoint:
		return pointLight(e.pos, e.luminance, p)
	case entryCollection:
		var best float64
		for i, pt := range e.points {
			if l := pointLight(pt, float64(e.levels[i]), p); l > best {
				best = l
			}
		}
		return best
	case entryDeferred:
		return max(e.behavior.LightAt(p[0], p[1], p[2], FalloffRatio), 0)
	}
	return 0
}

// pointLight is luminance minus the distance scaled by FalloffRatio, and zero
// past MaxRadius.
func pointLight(src mgl64.Vec3, luminance float64, p mgl64.Vec3) float64 {
	d := p.Sub(src).Len()
	if d > MaxRadius {
		return 0
	}
	return max(luminance-d*FalloffRatio, 0)
}

func (e *entry) cellCentre() mgl64.Vec3 {
	const half = CellSize / 2
	return mgl64.Vec3{
		float64(e.cx)*CellSize + half,
		float64(e.cy)*CellSize + half,
		float64(e.cz)*CellSize + half,
	}
}
