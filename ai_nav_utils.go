package kajak

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/kajakengine/kajak/geom"
)

// SteerSeek returns a velocity vector to move from current to target.
func SteerSeek(currentPos, targetPos mgl64.Vec2, maxSpeed float64) mgl64.Vec2 {
	desired := targetPos.Sub(currentPos)
	if desired.Len() < 0.001 {
		return mgl64.Vec2{0, 0}
	}
	return desired.Normalize().Mul(maxSpeed)
}

// LOSProbe checks if there is direct line of sight between two points.
// Entities with id ignore are see-through.
func LOSProbe(obstacles []*Entity, start, end mgl64.Vec2, ignore EntityID) bool {
	diff := end.Sub(start)
	if diff.Len() < 0.001 {
		return true
	}
	probe := geom.NewSegment(start, end, rayThickness)
	for _, e := range obstacles {
		if e.ID == ignore || e.Collider == nil {
			continue
		}
		if _, hit := geom.Collide(probe, e.Collider); hit {
			return false
		}
	}
	return true
}
