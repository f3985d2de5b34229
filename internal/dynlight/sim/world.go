package sim

import "math"

// World is the flat test world entities roam in: a square of Radius blocks
// around the origin with water below SeaLevel.
type World struct {
	Radius   float64
	SeaLevel float64
	Bottom   int
	Top      int
}

// DefaultWorld returns a 128 block radius world with the sea at y=62.
func DefaultWorld() World {
	return World{Radius: 128, SeaLevel: 62, Bottom: 0, Top: 255}
}

// Submerged reports whether an entity with its feet at pos is under water.
func (w World) Submerged(pos Position) bool {
	return pos.Y < w.SeaLevel
}

// Clamp keeps pos inside the world and returns the axes that hit the
// border.
func (w World) Clamp(pos Position) (Position, bool, bool) {
	hitX, hitZ := math.Abs(pos.X) > w.Radius, math.Abs(pos.Z) > w.Radius
	pos.X = max(-w.Radius, min(w.Radius, pos.X))
	pos.Z = max(-w.Radius, min(w.Radius, pos.Z))
	pos.Y = max(float64(w.Bottom), min(float64(w.Top), pos.Y))
	return pos, hitX, hitZ
}
