package kajak

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/kajakengine/kajak/geom"
)

// CheckpointSprite is the rotation sheet of checkpoint gates.
var CheckpointSprite = Sprite{Count: 48, Offset: 47}

// Checkpoint is a gate cars must cross in Order. The finish line is the gate
// with IsFinish set and the highest order.
type Checkpoint struct {
	Order    int
	IsFinish bool
	// Highlighted marks the gate the player has to reach next.
	Highlighted bool

	activated bool
}

// Activate records that the player crossed the gate this lap. It reports
// false for AI cars and for gates already activated.
func (c *Checkpoint) Activate(v *Vehicle) bool {
	if v == nil || !v.IsPlayer || c.activated {
		return false
	}
	c.activated = true
	return true
}

func (c *Checkpoint) Activated() bool { return c.activated }

func (c *Checkpoint) rearm() { c.activated = false }

// NewCheckpointEntity builds a gate whose box trigger sits at offset from the
// gate position. Rotation is in radians and only affects the sprite.
func NewCheckpointEntity(order int, finish bool, position mgl64.Vec2, rotation float64, size, offset, triggerSize mgl64.Vec2) *Entity {
	return &Entity{
		Kind:       KindCheckpoint,
		Position:   position,
		Rotation:   rotation,
		Size:       size,
		Sprite:     CheckpointSprite,
		Collider:   geom.NewBox(offset, triggerSize),
		Body:       Body{Mass: 1},
		Checkpoint: &Checkpoint{Order: order, IsFinish: finish},
	}
}
