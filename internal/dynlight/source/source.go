package source

import "github.com/go-gl/mathgl/mgl64"

// MaxLuminance is the brightest light level any emitter can report.
const MaxLuminance = 15

// Emitter is implemented by everything that emits dynamic light.
type Emitter interface {
	// Luminance returns the current light output in [0, 15]. Zero means the
	// emitter is dark and is skipped by the grid.
	Luminance() int
	// IsRemoved reports whether the owning condition ended without an
	// explicit removal. The registry polls it once per tick.
	IsRemoved() bool
}

// PointEmitter is an emitter located at a single point, usually an entity.
type PointEmitter interface {
	Emitter
	Position() mgl64.Vec3
}

// Behavior is a custom light shape (lines, beams, volumes).
//
// LightAt is called from the query path and must be safe to call
// concurrently with the owner mutating the behavior. The returned value uses
// the same scale as point lights: luminance minus distance times falloff.
type Behavior interface {
	Emitter
	BoundingBox() BoundingBox
	LightAt(x, y, z, falloff float64) float64
	// HasChanged returns true once per state change, false otherwise.
	HasChanged() bool
}

// Ticker is implemented by emitters that refresh their own state at the
// start of every light tick.
type Ticker interface {
	DynamicLightTick()
}

// Kind names the shape variant of a Source.
type Kind uint8

const (
	KindPoint Kind = iota
	KindCollection
	KindDeferred
)

func (k Kind) String() string {
	switch k {
	case KindPoint:
		return "point"
	case KindCollection:
		return "collection"
	case KindDeferred:
		return "deferred"
	default:
		return "unknown"
	}
}

// Source is the closed set of light shapes the engine can index: *Point,
// *Collection and *Deferred.
type Source interface {
	Emitter
	Kind() Kind
	// Identity is the value two sources are considered equal by. For wrapped
	// emitters and behaviors it is the wrapped value, so wrapping the same
	// entity twice yields the same identity.
	Identity() any
	sealed()
}

// ClampLuminance clamps l into [0, MaxLuminance].
func ClampLuminance(l int) int {
	if l < 0 {
		return 0
	}
	if l > MaxLuminance {
		return MaxLuminance
	}
	return l
}

// Point is a source backed by a single PointEmitter.
type Point struct {
	e PointEmitter
}

// NewPoint wraps e. The emitter must be a comparable value (typically a pointer).
func NewPoint(e PointEmitter) *Point {
	return &Point{e: e}
}

func (p *Point) Emitter() PointEmitter { return p.e }
func (p *Point) Position() mgl64.Vec3  { return p.e.Position() }
func (p *Point) Luminance() int        { return ClampLuminance(p.e.Luminance()) }
func (p *Point) IsRemoved() bool       { return p.e.IsRemoved() }
func (p *Point) Kind() Kind            { return KindPoint }
func (p *Point) Identity() any         { return p.e }
func (p *Point) sealed()               {}

// Deferred is a source whose light is computed by a Behavior.
type Deferred struct {
	b Behavior
}

// NewDeferred wraps b. The behavior must be a comparable value.
func NewDeferred(b Behavior) *Deferred {
	return &Deferred{b: b}
}

func (d *Deferred) Behavior() Behavior       { return d.b }
func (d *Deferred) BoundingBox() BoundingBox { return d.b.BoundingBox() }
func (d *Deferred) Luminance() int           { return ClampLuminance(d.b.Luminance()) }
func (d *Deferred) IsRemoved() bool          { return d.b.IsRemoved() }
func (d *Deferred) HasChanged() bool         { return d.b.HasChanged() }
func (d *Deferred) Kind() Kind               { return KindDeferred }
func (d *Deferred) Identity() any            { return d.b }
func (d *Deferred) sealed()                  {}

// Tick calls DynamicLightTick on the wrapped emitter of src if it
// implements Ticker.
func Tick(src Source) {
	var v any
	switch s := src.(type) {
	case *Point:
		v = s.e
	case *Deferred:
		v = s.b
	default:
		v = src
	}
	if t, ok := v.(Ticker); ok {
		t.DynamicLightTick()
	}
}
