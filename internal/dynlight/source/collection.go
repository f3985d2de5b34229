package source

import "sync/atomic"

// BlockLight is a single static light point of a Collection.
type BlockLight struct {
	X, Y, Z   int
	Luminance int
}

// Collection is a static set of block lights, for example a lit area that
// does not move. Its points are fixed at construction.
type Collection struct {
	points    []BlockLight
	box       BoundingBox
	luminance int
	dirty     atomic.Bool
	removed   atomic.Bool
}

// NewCollection copies points into a new Collection. Luminance values are
// clamped to [0, 15].
func NewCollection(points []BlockLight) *Collection {
	c := &Collection{points: make([]BlockLight, len(points))}
	for i, p := range points {
		p.Luminance = ClampLuminance(p.Luminance)
		c.points[i] = p
		c.luminance = max(c.luminance, p.Luminance)

		pb := BoundingBox{p.X, p.Y, p.Z, p.X, p.Y, p.Z}
		if i == 0 {
			c.box = pb
		} else {
			c.box = c.box.Union(pb)
		}
	}
	c.dirty.Store(true)
	return c
}

// Cuboid fills the box between the two corners (inclusive) with lights of
// the given luminance.
func Cuboid(x1, y1, z1, x2, y2, z2, luminance int) *Collection {
	b := NewBoundingBox(x1, y1, z1, x2, y2, z2)
	points := make([]BlockLight, 0, (b.EndX-b.StartX+1)*(b.EndY-b.StartY+1)*(b.EndZ-b.StartZ+1))
	for x := b.StartX; x <= b.EndX; x++ {
		for y := b.StartY; y <= b.EndY; y++ {
			for z := b.StartZ; z <= b.EndZ; z++ {
				points = append(points, BlockLight{X: x, Y: y, Z: z, Luminance: luminance})
			}
		}
	}
	return NewCollection(points)
}

// Points returns the collection's lights. The slice must not be modified.
func (c *Collection) Points() []BlockLight { return c.points }

// BoundingBox returns the box enclosing every point.
func (c *Collection) BoundingBox() BoundingBox { return c.box }

// Luminance returns the brightest point of the collection.
func (c *Collection) Luminance() int { return c.luminance }

// HasChanged is true exactly once, after construction.
func (c *Collection) HasChanged() bool { return c.dirty.Swap(false) }

// Remove marks the collection as removed; the registry drops it on its next tick.
func (c *Collection) Remove() { c.removed.Store(true) }

func (c *Collection) IsRemoved() bool { return c.removed.Load() }
func (c *Collection) Kind() Kind      { return KindCollection }
func (c *Collection) Identity() any   { return c }
func (c *Collection) sealed()         {}
