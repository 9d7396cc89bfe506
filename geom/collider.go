package geom

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// Kind tags the collider variant.
type Kind int

const (
	KindBox Kind = iota
	KindPolygon
	KindSegment
)

func (k Kind) String() string {
	switch k {
	case KindBox:
		return "box"
	case KindPolygon:
		return "polygon"
	case KindSegment:
		return "segment"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// DefaultSegmentThickness is used when a segment is built with a
// non-positive thickness.
const DefaultSegmentThickness = 0.1

// Collider is a closed variant over an axis-aligned box, a convex polygon and
// a thick line segment. Each variant keeps its local shape data and derives
// its world geometry from the owner's pose in SetPose.
type Collider struct {
	kind Kind

	// Box: min corner offset from the owner and size. Boxes ignore rotation.
	offset mgl64.Vec2
	size   mgl64.Vec2

	// Polygon: vertex ring relative to the owner.
	local []mgl64.Vec2
	world []mgl64.Vec2

	// Segment: endpoints relative to the owner and the wall thickness.
	a, b       mgl64.Vec2
	start, end mgl64.Vec2
	thickness  float64

	position mgl64.Vec2
	rotation float64
}

// NewBox builds an axis-aligned box whose min corner sits at offset from the
// owner position.
func NewBox(offset, size mgl64.Vec2) *Collider {
	c := &Collider{kind: KindBox, offset: offset, size: size}
	c.SetPose(mgl64.Vec2{}, 0)
	return c
}

// NewCenteredBox builds a box of the given size centred on the owner.
func NewCenteredBox(size mgl64.Vec2) *Collider {
	return NewBox(size.Mul(-0.5), size)
}

// NewPolygon builds a convex polygon from a vertex ring relative to the owner.
func NewPolygon(vertices []mgl64.Vec2) *Collider {
	local := make([]mgl64.Vec2, len(vertices))
	copy(local, vertices)
	c := &Collider{
		kind:  KindPolygon,
		local: local,
		world: make([]mgl64.Vec2, len(vertices)),
	}
	c.SetPose(mgl64.Vec2{}, 0)
	return c
}

// NewRectPolygon builds a w x h rectangle polygon centred on the owner, so it
// turns with the owner's heading.
func NewRectPolygon(w, h float64) *Collider {
	hw, hh := w/2, h/2
	return NewPolygon([]mgl64.Vec2{
		{-hw, -hh},
		{hw, -hh},
		{hw, hh},
		{-hw, hh},
	})
}

// NewSegment builds a thick segment between two points relative to the owner.
func NewSegment(start, end mgl64.Vec2, thickness float64) *Collider {
	if thickness <= 0 {
		thickness = DefaultSegmentThickness
	}
	c := &Collider{kind: KindSegment, a: start, b: end, thickness: thickness}
	c.SetPose(mgl64.Vec2{}, 0)
	return c
}

func (c *Collider) Kind() Kind { return c.kind }

// SetPose re-derives the world geometry from the owner's position and heading.
func (c *Collider) SetPose(position mgl64.Vec2, rotation float64) {
	c.position = position
	c.rotation = rotation
	switch c.kind {
	case KindPolygon:
		for i, v := range c.local {
			c.world[i] = position.Add(Rotate(v, rotation))
		}
	case KindSegment:
		c.start = position.Add(Rotate(c.a, rotation))
		c.end = position.Add(Rotate(c.b, rotation))
	}
}

// SetEndpoints moves a segment to the given world endpoints directly.
func (c *Collider) SetEndpoints(start, end mgl64.Vec2) {
	if c.kind != KindSegment {
		return
	}
	c.a, c.b = start, end
	c.SetPose(mgl64.Vec2{}, 0)
}

// Vertices returns the world-space outline: the polygon ring, the four box
// corners, or the segment strip.
func (c *Collider) Vertices() []mgl64.Vec2 {
	switch c.kind {
	case KindPolygon:
		out := make([]mgl64.Vec2, len(c.world))
		copy(out, c.world)
		return out
	case KindBox:
		return c.boxRect().Corners()
	default:
		return c.strip()
	}
}

// Endpoints returns the world endpoints of a segment.
func (c *Collider) Endpoints() (mgl64.Vec2, mgl64.Vec2) {
	return c.start, c.end
}

func (c *Collider) Thickness() float64 { return c.thickness }

// Bounds is the world-space bounding rectangle.
func (c *Collider) Bounds() Rect {
	switch c.kind {
	case KindBox:
		return c.boxRect()
	case KindPolygon:
		return RectAround(c.world...)
	default:
		return RectAround(c.start, c.end).Expand(c.thickness)
	}
}

// Center is the centre of the bounding rectangle.
func (c *Collider) Center() mgl64.Vec2 {
	return c.Bounds().Center()
}

// Centroid is the vertex average of the outline.
func (c *Collider) Centroid() mgl64.Vec2 {
	verts := c.Vertices()
	if len(verts) == 0 {
		return c.position
	}
	var sum mgl64.Vec2
	for _, v := range verts {
		sum = sum.Add(v)
	}
	return sum.Mul(1 / float64(len(verts)))
}

// ContainsPoint reports whether p lies inside the shape.
func (c *Collider) ContainsPoint(p mgl64.Vec2) bool {
	switch c.kind {
	case KindBox:
		return c.boxRect().ContainsPoint(p)
	case KindPolygon:
		return pointInRing(c.world, p)
	default:
		if c.start == c.end {
			return false
		}
		return pointInRing(c.strip(), p)
	}
}

func (c *Collider) boxRect() Rect {
	min := c.position.Add(c.offset)
	return Rect{Min: min, Max: min.Add(c.size)}
}

// strip is the segment widened by half its thickness on both sides.
func (c *Collider) strip() []mgl64.Vec2 {
	dir, err := Normalize(c.end.Sub(c.start))
	if err != nil {
		return []mgl64.Vec2{c.start, c.end}
	}
	off := Perp(dir).Mul(c.thickness / 2)
	return []mgl64.Vec2{
		c.start.Add(off),
		c.end.Add(off),
		c.end.Sub(off),
		c.start.Sub(off),
	}
}

// ring returns the shape as a vertex ring for SAT; boxes become polygons.
func (c *Collider) ring() []mgl64.Vec2 {
	if c.kind == KindBox {
		return c.boxRect().Corners()
	}
	return c.world
}

func pointInRing(ring []mgl64.Vec2, p mgl64.Vec2) bool {
	inside := false
	for i, j := 0, len(ring)-1; i < len(ring); j, i = i, i+1 {
		vi, vj := ring[i], ring[j]
		if (vi[1] > p[1]) != (vj[1] > p[1]) &&
			p[0] < (vj[0]-vi[0])*(p[1]-vi[1])/(vj[1]-vi[1])+vi[0] {
			inside = !inside
		}
	}
	return inside
}
