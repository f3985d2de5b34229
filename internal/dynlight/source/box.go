package source

import "math"

// BoundingBox is an integer block-aligned volume. Start is always the
// minimum corner and End the maximum corner.
type BoundingBox struct {
	StartX, StartY, StartZ int
	EndX, EndY, EndZ       int
}

// NewBoundingBox builds a box from two arbitrary corners.
func NewBoundingBox(x1, y1, z1, x2, y2, z2 int) BoundingBox {
	return BoundingBox{
		StartX: min(x1, x2),
		StartY: min(y1, y2),
		StartZ: min(z1, z2),
		EndX:   max(x1, x2),
		EndY:   max(y1, y2),
		EndZ:   max(z1, z2),
	}
}

// Contains reports whether the block (x, y, z) lies inside the box, inclusive.
func (b BoundingBox) Contains(x, y, z int) bool {
	return x >= b.StartX && x <= b.EndX &&
		y >= b.StartY && y <= b.EndY &&
		z >= b.StartZ && z <= b.EndZ
}

// Union returns the smallest box containing both b and o.
func (b BoundingBox) Union(o BoundingBox) BoundingBox {
	return BoundingBox{
		StartX: min(b.StartX, o.StartX),
		StartY: min(b.StartY, o.StartY),
		StartZ: min(b.StartZ, o.StartZ),
		EndX:   max(b.EndX, o.EndX),
		EndY:   max(b.EndY, o.EndY),
		EndZ:   max(b.EndZ, o.EndZ),
	}
}

func floorInt(v float64) int { return int(math.Floor(v)) }
func ceilInt(v float64) int  { return int(math.Ceil(v)) }
