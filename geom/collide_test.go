package geom

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func box(x0, y0, x1, y1 float64) *Collider {
	return NewBox(Vec(x0, y0), Vec(x1-x0, y1-y0))
}

func square(cx, cy, half float64) *Collider {
	c := NewRectPolygon(2*half, 2*half)
	c.SetPose(Vec(cx, cy), 0)
	return c
}

func TestCollide_BoxScenarios(t *testing.T) {
	_, ok := Collide(box(0, 0, 10, 10), box(5, 5, 15, 15))
	assert.True(t, ok)

	_, ok = Collide(box(0, 0, 10, 10), box(20, 20, 30, 30))
	assert.False(t, ok)
}

func TestCollide_OverlappingBoxesHaveMTV(t *testing.T) {
	tests := []struct {
		name string
		a, b *Collider
		want mgl64.Vec2
	}{
		{"right", box(0, 0, 10, 10), box(8, 0, 18, 10), Vec(2, 0)},
		{"left", box(0, 0, 10, 10), box(-8, 0, 2, 10), Vec(-2, 0)},
		{"up", box(0, 0, 10, 10), box(0, 7, 10, 17), Vec(0, 3)},
		{"down", box(0, 0, 10, 10), box(0, -9, 10, 1), Vec(0, -1)},
		{"same centre", box(0, 0, 10, 10), box(0, 0, 10, 10), Vec(0, 10)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, ok := Collide(tt.a, tt.b)
			require.True(t, ok)
			assert.Greater(t, c.MTV.Len(), 0.0)
			assert.True(t, tt.want.ApproxEqual(c.MTV), "got %v", c.MTV)
		})
	}
}

func TestCollide_TouchingIsNotColliding(t *testing.T) {
	_, ok := Collide(box(0, 0, 10, 10), box(10, 0, 20, 10))
	assert.False(t, ok)

	_, ok = Collide(square(0, 0, 1), square(2, 0, 1))
	assert.False(t, ok)
}

func TestCollide_SeparatedPolygons(t *testing.T) {
	tri := NewPolygon([]mgl64.Vec2{{0, 0}, {4, 0}, {0, 4}})
	tests := []struct {
		name string
		b    *Collider
	}{
		{"beyond hypotenuse", NewPolygon([]mgl64.Vec2{{3, 3}, {5, 3}, {5, 5}, {3, 5}})},
		{"far right", square(10, 0, 1)},
		{"below", square(1, -3, 1)},
		{"box", box(-5, -5, -1, -1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := Collide(tri, tt.b)
			assert.False(t, ok)
			_, ok = Collide(tt.b, tri)
			assert.False(t, ok, "symmetry")
		})
	}
}

func TestCollide_PolygonMTVPointsFromAToB(t *testing.T) {
	a := square(0, 0, 1)
	b := square(1.5, 0.2, 1)

	c, ok := Collide(a, b)
	require.True(t, ok)
	assert.InDelta(t, 0.5, c.MTV.Len(), 1e-9)
	assert.Greater(t, c.MTV.Dot(Vec(1, 0)), 0.0)

	c, ok = Collide(b, a)
	require.True(t, ok)
	assert.Less(t, c.MTV.Dot(Vec(1, 0)), 0.0)
}

func TestCollide_RotatedPolygon(t *testing.T) {
	car := NewRectPolygon(1.5, 3)
	car.SetPose(Vec(0, 0), math.Pi/2)

	// Rotated a quarter turn the car is 3 wide and 1.5 tall.
	b := car.Bounds()
	assert.InDelta(t, 3.0, b.Width(), 1e-9)
	assert.InDelta(t, 1.5, b.Height(), 1e-9)

	_, ok := Collide(car, square(2, 0, 0.6))
	assert.True(t, ok)
	_, ok = Collide(car, square(0, 1.5, 0.6))
	assert.False(t, ok)
}

func TestCollide_BoxAgainstPolygon(t *testing.T) {
	c, ok := Collide(box(0, 0, 2, 2), square(2.5, 1, 1))
	require.True(t, ok)
	assert.True(t, Vec(0.5, 0).ApproxEqual(c.MTV), "got %v", c.MTV)
}

func TestCollide_SegmentAgainstPolygon(t *testing.T) {
	wall := NewSegment(Vec(-5, 2), Vec(5, 2), 0.5)
	car := square(0, 1.5, 1)

	c, ok := Collide(car, wall)
	require.True(t, ok)
	require.Len(t, c.Points, 1)
	assert.InDelta(t, 2.0, c.Points[0].Y(), 1e-9)
	assert.InDelta(t, 0.5, c.MTV.Len(), 1e-9)
	// Car below the wall: MTV points from the car toward the wall.
	assert.Greater(t, c.MTV.Y(), 0.0)

	c, ok = Collide(wall, car)
	require.True(t, ok)
	assert.Less(t, c.MTV.Y(), 0.0)

	_, ok = Collide(wall, square(0, -3, 1))
	assert.False(t, ok)
}

func TestCollide_RayReportsNearestHit(t *testing.T) {
	ray := NewSegment(Vec(0, 0), Vec(0, 40), 0.1)
	c, ok := Collide(ray, box(-1, 10, 1, 12))
	require.True(t, ok)
	assert.True(t, Vec(0, 10).ApproxEqual(c.Points[0]), "got %v", c.Points[0])
}

func TestCollide_Segments(t *testing.T) {
	c, ok := Collide(NewSegment(Vec(0, 0), Vec(2, 2), 0.1), NewSegment(Vec(0, 2), Vec(2, 0), 0.1))
	require.True(t, ok)
	assert.True(t, Vec(1, 1).ApproxEqual(c.Points[0]))

	_, ok = Collide(NewSegment(Vec(0, 0), Vec(2, 0), 0.1), NewSegment(Vec(0, 1), Vec(2, 1), 0.1))
	assert.False(t, ok, "parallel segments never intersect")
}

func TestSegmentIntersection_ZeroDenominator(t *testing.T) {
	_, ok := SegmentIntersection(Vec(0, 0), Vec(1, 1), Vec(2, 2), Vec(3, 3))
	assert.False(t, ok)
}

func TestContainsPoint_WithinBounds(t *testing.T) {
	shapes := map[string]*Collider{
		"box":     box(-2, -1, 3, 4),
		"polygon": NewPolygon([]mgl64.Vec2{{0, 0}, {4, 1}, {3, 5}, {-1, 3}}),
		"segment": NewSegment(Vec(-3, -3), Vec(4, 2), 1),
	}
	for name, c := range shapes {
		t.Run(name, func(t *testing.T) {
			bounds := c.Bounds()
			for x := -6.0; x <= 6; x += 0.25 {
				for y := -6.0; y <= 6; y += 0.25 {
					p := Vec(x, y)
					if c.ContainsPoint(p) {
						assert.True(t, bounds.ContainsPoint(p), "%v contained but outside bounds", p)
					}
				}
			}
		})
	}
}

func TestContainsPoint_SegmentStrip(t *testing.T) {
	seg := NewSegment(Vec(0, 0), Vec(10, 0), 1)
	assert.True(t, seg.ContainsPoint(Vec(5, 0.4)))
	assert.False(t, seg.ContainsPoint(Vec(5, 0.6)))
	assert.False(t, NewSegment(Vec(1, 1), Vec(1, 1), 1).ContainsPoint(Vec(1, 1)))
}

func TestCollider_SetPoseRederivesGeometry(t *testing.T) {
	c := NewRectPolygon(2, 2)
	c.SetPose(Vec(10, 10), 0.3)
	c.SetPose(Vec(10, 10), 0.3)
	c.SetPose(Vec(0, 0), 0)

	assert.True(t, Vec(-1, -1).ApproxEqual(c.Bounds().Min))
	assert.True(t, Vec(1, 1).ApproxEqual(c.Bounds().Max))
}
