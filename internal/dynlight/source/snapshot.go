package source

import "github.com/go-gl/mathgl/mgl64"

// Snapshot gives an emitter single-consumer change detection over its
// position and luminance. The zero value reports a change on first use.
type Snapshot struct {
	pos       mgl64.Vec3
	luminance int
	valid     bool
}

// Changed reports whether pos or luminance differ from the values passed to
// the previous call, and records them.
func (s *Snapshot) Changed(pos mgl64.Vec3, luminance int) bool {
	if s.valid && s.pos == pos && s.luminance == luminance {
		return false
	}
	s.pos = pos
	s.luminance = luminance
	s.valid = true
	return true
}
