package source

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

// LineBehavior emits light along a segment, for example a guardian beam.
type LineBehavior struct {
	mu        sync.RWMutex
	start     mgl64.Vec3
	end       mgl64.Vec3
	luminance int
	removed   bool

	polled        bool
	prevStart     mgl64.Vec3
	prevEnd       mgl64.Vec3
	prevLuminance int
}

// NewLineBehavior creates a line of light between start and end.
func NewLineBehavior(start, end mgl64.Vec3, luminance int) *LineBehavior {
	return &LineBehavior{start: start, end: end, luminance: ClampLuminance(luminance)}
}

// Points returns the start and end points.
func (l *LineBehavior) Points() (start, end mgl64.Vec3) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.start, l.end
}

// SetPoints moves the line.
func (l *LineBehavior) SetPoints(start, end mgl64.Vec3) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.start = start
	l.end = end
}

// SetLuminance changes the light output.
func (l *LineBehavior) SetLuminance(luminance int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.luminance = ClampLuminance(luminance)
}

// Remove marks the line as removed; the registry drops it on its next tick.
func (l *LineBehavior) Remove() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.removed = true
}

func (l *LineBehavior) Luminance() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.luminance
}

func (l *LineBehavior) IsRemoved() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.removed
}

// LightAt uses the distance to the closest point of the segment.
func (l *LineBehavior) LightAt(x, y, z, falloff float64) float64 {
	l.mu.RLock()
	start, end, luminance := l.start, l.end, float64(l.luminance)
	l.mu.RUnlock()

	p := mgl64.Vec3{x, y, z}
	line := end.Sub(start)
	toStart := p.Sub(start)
	if toStart.Dot(line) <= 0 {
		return luminance - toStart.Len()*falloff
	}
	toEnd := p.Sub(end)
	if toEnd.Dot(line) >= 0 {
		return luminance - toEnd.Len()*falloff
	}
	// |line x toStart| / |line|
	distance := line.Cross(toStart).Len() / line.Len()
	return luminance - distance*falloff
}

func (l *LineBehavior) BoundingBox() BoundingBox {
	l.mu.RLock()
	defer l.mu.RUnlock()
	lo := mgl64.Vec3{min(l.start[0], l.end[0]), min(l.start[1], l.end[1]), min(l.start[2], l.end[2])}
	hi := mgl64.Vec3{max(l.start[0], l.end[0]), max(l.start[1], l.end[1]), max(l.start[2], l.end[2])}
	return NewBoundingBox(
		floorInt(lo[0]), floorInt(lo[1]), floorInt(lo[2]),
		ceilInt(hi[0]), ceilInt(hi[1]), ceilInt(hi[2]),
	)
}

func (l *LineBehavior) HasChanged() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.polled && l.start == l.prevStart && l.end == l.prevEnd && l.luminance == l.prevLuminance {
		return false
	}
	l.polled = true
	l.prevStart = l.start
	l.prevEnd = l.end
	l.prevLuminance = l.luminance
	return true
}
