package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Rect is an axis-aligned rectangle given by its min and max corners.
type Rect struct {
	Min mgl64.Vec2
	Max mgl64.Vec2
}

// RectXYWH builds a rectangle from its min corner and size.
func RectXYWH(x, y, w, h float64) Rect {
	return Rect{Min: mgl64.Vec2{x, y}, Max: mgl64.Vec2{x + w, y + h}}
}

// RectAround builds the bounding rectangle of the given points.
func RectAround(points ...mgl64.Vec2) Rect {
	if len(points) == 0 {
		return Rect{}
	}
	r := Rect{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		r.Min[0] = math.Min(r.Min[0], p[0])
		r.Min[1] = math.Min(r.Min[1], p[1])
		r.Max[0] = math.Max(r.Max[0], p[0])
		r.Max[1] = math.Max(r.Max[1], p[1])
	}
	return r
}

func (r Rect) Width() float64  { return r.Max[0] - r.Min[0] }
func (r Rect) Height() float64 { return r.Max[1] - r.Min[1] }

func (r Rect) Center() mgl64.Vec2 {
	return r.Min.Add(r.Max).Mul(0.5)
}

// Intersects reports whether r and o share any point, edges included.
func (r Rect) Intersects(o Rect) bool {
	return !(o.Min[0] > r.Max[0] ||
		o.Max[0] < r.Min[0] ||
		o.Min[1] > r.Max[1] ||
		o.Max[1] < r.Min[1])
}

// Contains reports whether o lies entirely inside r.
func (r Rect) Contains(o Rect) bool {
	return o.Min[0] >= r.Min[0] &&
		o.Max[0] <= r.Max[0] &&
		o.Min[1] >= r.Min[1] &&
		o.Max[1] <= r.Max[1]
}

// ContainsPoint reports whether p lies inside r, edges included.
func (r Rect) ContainsPoint(p mgl64.Vec2) bool {
	return p[0] >= r.Min[0] && p[0] <= r.Max[0] &&
		p[1] >= r.Min[1] && p[1] <= r.Max[1]
}

// Expand grows r by d on every side.
func (r Rect) Expand(d float64) Rect {
	return Rect{
		Min: mgl64.Vec2{r.Min[0] - d, r.Min[1] - d},
		Max: mgl64.Vec2{r.Max[0] + d, r.Max[1] + d},
	}
}

// Corners lists the four corners counter-clockwise from Min.
func (r Rect) Corners() []mgl64.Vec2 {
	return []mgl64.Vec2{
		r.Min,
		{r.Max[0], r.Min[1]},
		r.Max,
		{r.Min[0], r.Max[1]},
	}
}

// Quadrants splits r into its four equal children.
func (r Rect) Quadrants() [4]Rect {
	w, h := r.Width()/2, r.Height()/2
	x, y := r.Min[0], r.Min[1]
	return [4]Rect{
		RectXYWH(x, y, w, h),
		RectXYWH(x+w, y, w, h),
		RectXYWH(x, y+h, w, h),
		RectXYWH(x+w, y+h, w, h),
	}
}
