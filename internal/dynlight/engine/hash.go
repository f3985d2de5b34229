package engine

import (
	"math"
	"math/bits"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/go-theft-craft/dynlights/internal/dynlight/source"
)

const (
	// MaxRadius is how far a light reaches, in blocks. It is kept below the
	// usual block light range of 15 so a moving light only dirties the chunk
	// sections right around it.
	MaxRadius = 7.75

	// FalloffRatio converts a distance in blocks into light levels.
	FalloffRatio = source.MaxLuminance / MaxRadius

	// CellSize is the edge of a grid cell in blocks, ceil(MaxRadius). A light
	// can only reach points in its own cell or an adjacent one.
	CellSize  = 8
	cellShift = 3

	// DefaultCapacity is the default number of lookup table slots.
	DefaultCapacity = 1024
)

// PositionToCell converts a block coordinate to a cell coordinate, rounding
// towards negative infinity.
func PositionToCell(coord int) int32 {
	return int32(coord >> cellShift)
}

// HashCell maps a cell coordinate to a table slot in [0, capacity).
// capacity must be a power of two. Rebuild and query both go through this
// function.
func HashCell(cx, cy, cz int32, capacity int) int {
	h := cx*751 + cy*86399 + cz*284593
	if h < 0 {
		h = -h
	}
	return int(uint32(h) & uint32(capacity-1))
}

// BlockPos floors a world position to block coordinates.
func BlockPos(pos mgl64.Vec3) (x, y, z int) {
	return int(math.Floor(pos[0])), int(math.Floor(pos[1])), int(math.Floor(pos[2]))
}

// CellOf returns the cell containing a world position.
func CellOf(pos mgl64.Vec3) (cx, cy, cz int32) {
	x, y, z := BlockPos(pos)
	return PositionToCell(x), PositionToCell(y), PositionToCell(z)
}

// RoundCapacity rounds n up to a power of two. Non-positive values yield
// DefaultCapacity.
func RoundCapacity(n int) int {
	if n <= 0 {
		return DefaultCapacity
	}
	return 1 << bits.Len(uint(n-1))
}
