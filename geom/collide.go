package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Contact describes an overlap between two colliders. MTV is the smallest
// displacement separating them and always points from the first collider
// toward the second. Segment pairs report contact points without an MTV.
type Contact struct {
	Points []mgl64.Vec2
	MTV    mgl64.Vec2
}

// Collide runs the narrow phase for any pair of collider variants. Shapes
// that merely touch are not colliding.
func Collide(a, b *Collider) (Contact, bool) {
	if a == nil || b == nil {
		return Contact{}, false
	}
	switch {
	case a.kind == KindBox && b.kind == KindBox:
		return collideBoxes(a, b)
	case a.kind == KindSegment && b.kind == KindSegment:
		return collideSegments(a, b)
	case a.kind == KindSegment:
		c, ok := collideSegmentShape(a, b)
		c.MTV = c.MTV.Mul(-1)
		return c, ok
	case b.kind == KindSegment:
		return collideSegmentShape(b, a)
	default:
		return collideRings(a, b)
	}
}

func collideBoxes(a, b *Collider) (Contact, bool) {
	ra, rb := a.boxRect(), b.boxRect()
	ox := math.Min(ra.Max[0], rb.Max[0]) - math.Max(ra.Min[0], rb.Min[0])
	oy := math.Min(ra.Max[1], rb.Max[1]) - math.Max(ra.Min[1], rb.Min[1])
	if ox <= 0 || oy <= 0 {
		return Contact{}, false
	}

	d := rb.Center().Sub(ra.Center())
	var mtv mgl64.Vec2
	if ox < oy {
		mtv = mgl64.Vec2{Sign(d[0]) * ox, 0}
	} else {
		mtv = mgl64.Vec2{0, Sign(d[1]) * oy}
	}
	return Contact{Points: containedPoints(a, b), MTV: mtv}, true
}

// collideRings is the separating axis test over both shapes' edge normals.
func collideRings(a, b *Collider) (Contact, bool) {
	ra, rb := a.ring(), b.ring()
	axes := append(edgeNormals(ra), edgeNormals(rb)...)
	if len(axes) == 0 {
		return Contact{}, false
	}

	overlap := math.Inf(1)
	var axis mgl64.Vec2
	for _, ax := range axes {
		minA, maxA := project(ra, ax)
		minB, maxB := project(rb, ax)
		o := math.Min(maxA, maxB) - math.Max(minA, minB)
		if o <= 0 {
			return Contact{}, false
		}
		if o < overlap {
			overlap = o
			axis = ax
		}
	}

	if b.Center().Sub(a.Center()).Dot(axis) < 0 {
		axis = axis.Mul(-1)
	}
	return Contact{Points: containedPoints(a, b), MTV: axis.Mul(overlap)}, true
}

// collideSegmentShape finds where the segment first crosses the shape's
// outline. The reported normal is perpendicular to the segment, points away
// from the shape's centroid and is scaled by the segment thickness.
func collideSegmentShape(seg, shape *Collider) (Contact, bool) {
	ring := shape.ring()
	best := math.Inf(1)
	var nearest mgl64.Vec2
	hit := false
	for i := range ring {
		p, ok := SegmentIntersection(seg.start, seg.end, ring[i], ring[(i+1)%len(ring)])
		if !ok {
			continue
		}
		if d := p.Sub(seg.start).Len(); d < best {
			best = d
			nearest = p
			hit = true
		}
	}
	if !hit {
		return Contact{}, false
	}

	normal := NormalizeOrZero(Perp(seg.end.Sub(seg.start)))
	if normal.Dot(shape.Centroid().Sub(nearest)) > 0 {
		normal = normal.Mul(-1)
	}
	return Contact{
		Points: []mgl64.Vec2{nearest},
		MTV:    normal.Mul(seg.thickness),
	}, true
}

func collideSegments(a, b *Collider) (Contact, bool) {
	p, ok := SegmentIntersection(a.start, a.end, b.start, b.end)
	if !ok {
		return Contact{}, false
	}
	return Contact{Points: []mgl64.Vec2{p}}, true
}

// SegmentIntersection returns the crossing point of segments a1-a2 and b1-b2.
// Parallel or collinear segments never intersect.
func SegmentIntersection(a1, a2, b1, b2 mgl64.Vec2) (mgl64.Vec2, bool) {
	den := (b2[1]-b1[1])*(a2[0]-a1[0]) - (b2[0]-b1[0])*(a2[1]-a1[1])
	if den == 0 {
		return mgl64.Vec2{}, false
	}
	ua := ((b2[0]-b1[0])*(a1[1]-b1[1]) - (b2[1]-b1[1])*(a1[0]-b1[0])) / den
	ub := ((a2[0]-a1[0])*(a1[1]-b1[1]) - (a2[1]-a1[1])*(a1[0]-b1[0])) / den
	if ua < 0 || ua > 1 || ub < 0 || ub > 1 {
		return mgl64.Vec2{}, false
	}
	return a1.Add(a2.Sub(a1).Mul(ua)), true
}

func edgeNormals(ring []mgl64.Vec2) []mgl64.Vec2 {
	axes := make([]mgl64.Vec2, 0, len(ring))
	for i := range ring {
		edge := ring[(i+1)%len(ring)].Sub(ring[i])
		n, err := Normalize(Perp(edge))
		if err != nil {
			continue
		}
		axes = append(axes, n)
	}
	return axes
}

func project(ring []mgl64.Vec2, axis mgl64.Vec2) (float64, float64) {
	min, max := math.Inf(1), math.Inf(-1)
	for _, v := range ring {
		d := v.Dot(axis)
		min = math.Min(min, d)
		max = math.Max(max, d)
	}
	return min, max
}

// containedPoints lists the vertices of each shape that lie inside the other.
func containedPoints(a, b *Collider) []mgl64.Vec2 {
	var pts []mgl64.Vec2
	for _, v := range b.ring() {
		if a.ContainsPoint(v) {
			pts = append(pts, v)
		}
	}
	for _, v := range a.ring() {
		if b.ContainsPoint(v) {
			pts = append(pts, v)
		}
	}
	return pts
}
