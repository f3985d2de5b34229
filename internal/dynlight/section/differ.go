package section

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/go-theft-craft/dynlights/internal/dynlight/source"
)

// MoveThreshold is how far a point light must move on one axis before its
// sections are recomputed.
const MoveThreshold = 0.1

type state struct {
	pos       mgl64.Vec3
	luminance int
	seen      bool
	tracked   Set
}

// Differ remembers, per source, where its light was last seen and which
// sections it lit. It is not safe for concurrent use.
type Differ struct {
	states map[any]*state
}

// NewDiffer returns a Differ tracking no sources.
func NewDiffer() *Differ {
	return &Differ{states: make(map[any]*state)}
}

// Len returns the number of sources with recorded state.
func (d *Differ) Len() int { return len(d.states) }

// Tracked returns the sections src currently lights. The set must not be
// modified.
func (d *Differ) Tracked(src source.Source) Set {
	if st, ok := d.states[src.Identity()]; ok {
		return st.tracked
	}
	return nil
}

// ChunksToRebuild returns the sections to rebuild for src, or nil when
// nothing visible changed. The result is the union of the sections lit
// before and after the change, so stale light is erased and new light shown.
func (d *Differ) ChunksToRebuild(src source.Source, forced bool) Set {
	id := src.Identity()
	st, ok := d.states[id]
	if !ok {
		st = &state{}
		d.states[id] = st
	}

	luminance := src.Luminance()
	var next Set

	switch s := src.(type) {
	case *source.Point:
		pos := s.Position()
		if !forced && st.seen && luminance == st.luminance && !moved(st.pos, pos) {
			return nil
		}
		st.pos = pos
		next = make(Set, 8)
		if luminance > 0 {
			ClosestChunks(next, pos[0], pos[1], pos[2])
		}

	case *source.Collection:
		changed := s.HasChanged()
		if !forced && !changed && st.seen && luminance == st.luminance {
			return nil
		}
		next = make(Set)
		if luminance > 0 {
			for _, p := range s.Points() {
				ClosestChunks(next, float64(p.X), float64(p.Y), float64(p.Z))
			}
		}

	case *source.Deferred:
		changed := s.HasChanged()
		if !forced && !changed && st.seen && luminance == st.luminance {
			return nil
		}
		next = make(Set)
		if luminance > 0 {
			BoxChunks(next, s.BoundingBox())
		}
	}

	st.seen = true
	st.luminance = luminance

	result := make(Set, len(st.tracked)+len(next))
	result.Merge(st.tracked)
	result.Merge(next)
	st.tracked = next
	return result
}

func moved(prev, pos mgl64.Vec3) bool {
	for i := range 3 {
		if math.Abs(pos[i]-prev[i]) > MoveThreshold {
			return true
		}
	}
	return false
}

// Flush forgets src and returns the sections it last lit, so they can be
// rebuilt without its light. A second call returns nil.
func (d *Differ) Flush(src source.Source) Set {
	id := src.Identity()
	st, ok := d.states[id]
	if !ok {
		return nil
	}
	delete(d.states, id)
	return st.tracked
}

// Reset zeroes the recorded luminance of src, so the next ChunksToRebuild
// call recomputes its sections.
func (d *Differ) Reset(src source.Source) {
	if st, ok := d.states[src.Identity()]; ok {
		st.luminance = 0
		st.seen = false
	}
}
