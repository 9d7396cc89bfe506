package track

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/kajakengine/kajak"
	"github.com/kajakengine/kajak/geom"
)

var DefaultGridSpacing = mgl64.Vec2{4, 3}

const DefaultCarsPerRow = 3

// GridConfig lays cars out in rows of PerRow, Spacing apart, with every odd
// row shifted by half a column. Angle rotates the grid about Start.
type GridConfig struct {
	Start   mgl64.Vec2
	Spacing mgl64.Vec2
	PerRow  int
	Angle   float64
}

// GridPositions returns n starting slots.
func GridPositions(cfg GridConfig, n int) []mgl64.Vec2 {
	if cfg.Spacing == (mgl64.Vec2{}) {
		cfg.Spacing = DefaultGridSpacing
	}
	if cfg.PerRow <= 0 {
		cfg.PerRow = DefaultCarsPerRow
	}
	sin, cos := math.Sincos(cfg.Angle)

	out := make([]mgl64.Vec2, n)
	for i := range n {
		row, col := i/cfg.PerRow, i%cfg.PerRow
		x := float64(col) * cfg.Spacing.X()
		y := float64(row) * cfg.Spacing.Y()
		if row%2 == 1 {
			x += cfg.Spacing.X() / 2
		}
		out[i] = cfg.Start.Add(mgl64.Vec2{x*cos - y*sin, x*sin + y*cos})
	}
	return out
}

// ValidStartPositions reports whether no two cars overlap.
func ValidStartPositions(cars []*kajak.Entity) bool {
	for i, a := range cars {
		a.SyncCollider()
		for _, b := range cars[i+1:] {
			b.SyncCollider()
			if _, hit := geom.Collide(a.Collider, b.Collider); hit {
				return false
			}
		}
	}
	return true
}
