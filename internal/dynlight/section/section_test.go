package section

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-theft-craft/dynlights/internal/dynlight/source"
)

type testEmitter struct {
	pos       mgl64.Vec3
	luminance int
}

func (e *testEmitter) Position() mgl64.Vec3 { return e.pos }
func (e *testEmitter) Luminance() int       { return e.luminance }
func (e *testEmitter) IsRemoved() bool      { return false }

func setOf(ps ...Pos) Set {
	s := make(Set, len(ps))
	for _, p := range ps {
		s.Add(p)
	}
	return s
}

var sortPos = cmpopts.SortSlices(func(a, b Pos) bool { return a.Compare(b) < 0 })

func TestBlockToSection(t *testing.T) {
	tests := []struct {
		coord float64
		want  int32
	}{
		{0, 0},
		{15.99, 0},
		{16, 1},
		{-0.01, -1},
		{-16, -1},
		{-16.5, -2},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BlockToSection(tt.coord), "coord %v", tt.coord)
	}
}

func TestLongRoundTrip(t *testing.T) {
	for _, p := range []Pos{
		{0, 0, 0},
		{1, 2, 3},
		{-1, -1, -1},
		{1875000, -4, -1875000},
		{-2097152, 524287, 2097151},
	} {
		assert.Equal(t, p, FromLong(p.Long()), "%v", p)
	}
	assert.NotEqual(t, Pos{1, 0, 0}.Long(), Pos{0, 0, 1}.Long())
}

func TestClosestChunks(t *testing.T) {
	s := make(Set)
	ClosestChunks(s, 3.5, 20, 12)

	want := []Pos{
		{0, 1, 0}, {0, 1, 1}, {0, 0, 0}, {0, 0, 1},
		{-1, 1, 0}, {-1, 1, 1}, {-1, 0, 0}, {-1, 0, 1},
	}
	if diff := cmp.Diff(want, s.Sorted(), sortPos); diff != "" {
		t.Errorf("ClosestChunks mismatch (-want +got):\n%s", diff)
	}
}

func TestClosestChunksNegative(t *testing.T) {
	s := make(Set)
	ClosestChunks(s, -0.5, -0.5, -9)

	// -1 & 15 = 15 and -9 & 15 = 7.
	want := []Pos{
		{-1, -1, -1}, {-1, -1, -2},
		{-1, 0, -1}, {-1, 0, -2},
		{0, -1, -1}, {0, -1, -2},
		{0, 0, -1}, {0, 0, -2},
	}
	if diff := cmp.Diff(want, s.Sorted(), sortPos); diff != "" {
		t.Errorf("ClosestChunks mismatch (-want +got):\n%s", diff)
	}
}

func TestBoxChunks(t *testing.T) {
	s := make(Set)
	BoxChunks(s, source.NewBoundingBox(2, 10, 20, 30, 10, 20))

	// x: 2 is in the low half (-1), 30 is in the high half (+1).
	// y: 10 is in the high half, so the start is not widened but the end is.
	// z: 20 is in the low half of section 1, so only the start is widened.
	var want []Pos
	for x := int32(-1); x <= 2; x++ {
		for y := int32(0); y <= 1; y++ {
			for z := int32(0); z <= 1; z++ {
				want = append(want, Pos{x, y, z})
			}
		}
	}
	if diff := cmp.Diff(want, s.Sorted(), sortPos); diff != "" {
		t.Errorf("BoxChunks mismatch (-want +got):\n%s", diff)
	}
}

func TestDifferFirstCallTracks(t *testing.T) {
	d := NewDiffer()
	src := source.NewPoint(&testEmitter{pos: mgl64.Vec3{3.5, 20, 12}, luminance: 10})

	got := d.ChunksToRebuild(src, false)
	assert.Len(t, got, 8)
	assert.Equal(t, got, d.Tracked(src))
	assert.Equal(t, 1, d.Len())
}

func TestDifferMinimality(t *testing.T) {
	d := NewDiffer()
	em := &testEmitter{pos: mgl64.Vec3{3.5, 20, 12}, luminance: 10}
	src := source.NewPoint(em)
	require.NotEmpty(t, d.ChunksToRebuild(src, false))

	assert.Nil(t, d.ChunksToRebuild(src, false))

	em.pos = em.pos.Add(mgl64.Vec3{0.05, -0.05, 0.05})
	assert.Nil(t, d.ChunksToRebuild(src, false), "movement below the threshold is ignored")

	assert.NotEmpty(t, d.ChunksToRebuild(src, true), "forced always recomputes")

	allocs := testing.AllocsPerRun(100, func() {
		d.ChunksToRebuild(src, false)
	})
	assert.Zero(t, allocs)
}

func TestDifferCompleteness(t *testing.T) {
	d := NewDiffer()
	em := &testEmitter{pos: mgl64.Vec3{40.2, 64, -3}, luminance: 10}
	src := source.NewPoint(em)
	before := d.ChunksToRebuild(src, false)
	tracked := setOf(d.Tracked(src).Sorted()...)

	em.luminance = 0
	got := d.ChunksToRebuild(src, false)

	if diff := cmp.Diff(tracked.Sorted(), got.Sorted()); diff != "" {
		t.Errorf("erasure mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, before, got)
	assert.Empty(t, d.Tracked(src))

	assert.Nil(t, d.ChunksToRebuild(src, false))
}

func TestDifferZeroLuminanceNeverTracks(t *testing.T) {
	d := NewDiffer()
	em := &testEmitter{pos: mgl64.Vec3{1, 1, 1}, luminance: 0}
	src := source.NewPoint(em)

	assert.Empty(t, d.ChunksToRebuild(src, true))
	em.pos = mgl64.Vec3{100, 1, 1}
	assert.Empty(t, d.ChunksToRebuild(src, false))
	assert.Empty(t, d.Tracked(src))
}

func TestDifferOctantBoundaryCrossing(t *testing.T) {
	d := NewDiffer()
	em := &testEmitter{pos: mgl64.Vec3{7.9, 0.5, 0.5}, luminance: 12}
	src := source.NewPoint(em)
	d.ChunksToRebuild(src, false)

	// Same section, other half: the -X neighbours are dropped and the +X
	// ones added. Both sides are rebuilt.
	em.pos = mgl64.Vec3{8.1, 0.5, 0.5}
	got := d.ChunksToRebuild(src, false)

	var want []Pos
	for x := int32(-1); x <= 1; x++ {
		for y := int32(-1); y <= 0; y++ {
			for z := int32(-1); z <= 0; z++ {
				want = append(want, Pos{x, y, z})
			}
		}
	}
	if diff := cmp.Diff(want, got.Sorted(), sortPos); diff != "" {
		t.Errorf("boundary crossing mismatch (-want +got):\n%s", diff)
	}
	assert.False(t, d.Tracked(src).Contains(Pos{-1, 0, 0}))
	assert.True(t, d.Tracked(src).Contains(Pos{1, 0, 0}))
}

func TestDifferMoveAcrossSections(t *testing.T) {
	d := NewDiffer()
	em := &testEmitter{pos: mgl64.Vec3{4, 4, 4}, luminance: 15}
	src := source.NewPoint(em)
	d.ChunksToRebuild(src, false)

	em.pos = mgl64.Vec3{100, 4, 4}
	got := d.ChunksToRebuild(src, false)
	assert.Len(t, got, 16)
	assert.Len(t, d.Tracked(src), 8)
}

func TestDifferFlush(t *testing.T) {
	d := NewDiffer()
	src := source.NewPoint(&testEmitter{pos: mgl64.Vec3{0, 0, 0}, luminance: 7})
	tracked := d.ChunksToRebuild(src, false)

	assert.Equal(t, tracked, d.Flush(src))
	assert.Nil(t, d.Flush(src))
	assert.Zero(t, d.Len())
}

func TestDifferReset(t *testing.T) {
	d := NewDiffer()
	src := source.NewPoint(&testEmitter{pos: mgl64.Vec3{0, 0, 0}, luminance: 7})
	d.ChunksToRebuild(src, false)
	require.Nil(t, d.ChunksToRebuild(src, false))

	d.Reset(src)
	assert.Len(t, d.ChunksToRebuild(src, false), 8)
}

func TestDifferCollection(t *testing.T) {
	d := NewDiffer()
	c := source.Cuboid(0, 0, 0, 1, 1, 1, 9)

	got := d.ChunksToRebuild(c, false)
	assert.Len(t, got, 8)
	assert.Nil(t, d.ChunksToRebuild(c, false), "a collection changes once")
	assert.Len(t, d.ChunksToRebuild(c, true), 8)
}

func TestDifferDeferred(t *testing.T) {
	d := NewDiffer()
	line := source.NewLineBehavior(mgl64.Vec3{2, 2, 2}, mgl64.Vec3{20, 2, 2}, 10)
	src := source.NewDeferred(line)

	first := d.ChunksToRebuild(src, false)
	require.NotEmpty(t, first)
	assert.Nil(t, d.ChunksToRebuild(src, false))

	line.SetPoints(mgl64.Vec3{2, 40, 2}, mgl64.Vec3{20, 40, 2})
	moved := d.ChunksToRebuild(src, false)
	for p := range first {
		assert.True(t, moved.Contains(p), "old section %v is rebuilt", p)
	}
	assert.True(t, moved.Contains(Pos{0, 2, 0}))

	line.SetLuminance(0)
	off := d.ChunksToRebuild(src, false)
	assert.Empty(t, d.Tracked(src))
	assert.NotContains(t, off, Pos{0, 0, 0})
}
