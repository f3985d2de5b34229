// Package section computes which chunk sections must be rebuilt when dynamic
// lights appear, move, change or disappear.
package section

import (
	"cmp"
	"math"
	"slices"

	"github.com/go-theft-craft/dynlights/internal/dynlight/source"
)

// Pos is a chunk section coordinate: a 16x16x16 block cube.
type Pos struct {
	X, Y, Z int32
}

// BlockToSection converts a world coordinate to a section coordinate,
// rounding towards negative infinity.
func BlockToSection(coord float64) int32 {
	return int32(int(math.Floor(coord)) >> 4)
}

// Long packs p into 64 bits: 22 bits of X, 22 bits of Z, 20 bits of Y.
func (p Pos) Long() int64 {
	return (int64(p.X)&0x3FFFFF)<<42 | (int64(p.Z)&0x3FFFFF)<<20 | int64(p.Y)&0xFFFFF
}

// FromLong unpacks a value produced by Pos.Long.
func FromLong(v int64) Pos {
	return Pos{
		X: int32(v >> 42),
		Y: int32(v << 44 >> 44),
		Z: int32(v << 22 >> 42),
	}
}

func (p Pos) Compare(o Pos) int {
	if c := cmp.Compare(p.X, o.X); c != 0 {
		return c
	}
	if c := cmp.Compare(p.Y, o.Y); c != 0 {
		return c
	}
	return cmp.Compare(p.Z, o.Z)
}

// Set is a set of sections. The zero value is an empty set that must be
// initialised with make before Add.
type Set map[Pos]struct{}

func (s Set) Add(p Pos)           { s[p] = struct{}{} }
func (s Set) Contains(p Pos) bool { _, ok := s[p]; return ok }

// Merge adds every section of o to s.
func (s Set) Merge(o Set) {
	for p := range o {
		s[p] = struct{}{}
	}
}

// Sorted returns the sections ordered by X, then Y, then Z.
func (s Set) Sorted() []Pos {
	out := make([]Pos, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	slices.SortFunc(out, Pos.Compare)
	return out
}

// direction picks the neighbouring section on the side of the section the
// coordinate is closest to.
func direction(coord float64) int32 {
	if int(math.Floor(coord))&15 >= 8 {
		return 1
	}
	return -1
}

// ClosestChunks adds the section containing (x, y, z) and the 7 sections
// completing the 2x2x2 block on the octant the position lies in.
func ClosestChunks(set Set, x, y, z float64) {
	sx, sy, sz := BlockToSection(x), BlockToSection(y), BlockToSection(z)
	dx, dy, dz := direction(x), direction(y), direction(z)
	for _, ox := range [2]int32{0, dx} {
		for _, oy := range [2]int32{0, dy} {
			for _, oz := range [2]int32{0, dz} {
				set.Add(Pos{sx + ox, sy + oy, sz + oz})
			}
		}
	}
}

func startSection(coord int) int32 {
	s := int32(coord >> 4)
	if coord&15 < 8 {
		s--
	}
	return s
}

func endSection(coord int) int32 {
	s := int32(coord >> 4)
	if coord&15 >= 8 {
		s++
	}
	return s
}

// BoxChunks adds every section overlapped by box, widened by one section on
// each side where the box edge sits in the nearer half of its section.
func BoxChunks(set Set, box source.BoundingBox) {
	x0, x1 := startSection(box.StartX), endSection(box.EndX)
	y0, y1 := startSection(box.StartY), endSection(box.EndY)
	z0, z1 := startSection(box.StartZ), endSection(box.EndZ)
	for x := x0; x <= x1; x++ {
		for y := y0; y <= y1; y++ {
			for z := z0; z <= z1; z++ {
				set.Add(Pos{x, y, z})
			}
		}
	}
}
