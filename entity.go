package kajak

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/kajakengine/kajak/geom"
)

type EntityID int

type Kind int

const (
	KindVehicle Kind = iota
	KindCheckpoint
	KindBarrier
	KindObstacle
	KindMovingBarrier
	KindNitroBonus
	KindItemPickup
	KindBananaPeel
	KindPuddle
)

var kindNames = [...]string{
	KindVehicle:       "vehicle",
	KindCheckpoint:    "checkpoint",
	KindBarrier:       "barrier",
	KindObstacle:      "obstacle",
	KindMovingBarrier: "moving-barrier",
	KindNitroBonus:    "nitro-bonus",
	KindItemPickup:    "item-pickup",
	KindBananaPeel:    "banana-peel",
	KindPuddle:        "puddle",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Sprite describes a rotation sheet: Count frames evenly covering a full turn,
// with Offset frames added before wrapping.
type Sprite struct {
	Count  int
	Offset float64
}

// Body holds the rigid-body state used by impulse resolution.
type Body struct {
	Velocity        mgl64.Vec2
	AngularVelocity float64
	Mass            float64
	Inertia         float64
}

// Entity is anything placed in a scene. Exactly the component pointers that
// apply to its Kind are set.
type Entity struct {
	ID       EntityID
	Kind     Kind
	Position mgl64.Vec2
	Rotation float64
	Size     mgl64.Vec2
	Movable  bool
	Sprite   Sprite
	Collider *geom.Collider
	Body     Body

	Vehicle       *Vehicle
	Checkpoint    *Checkpoint
	NitroBonus    *NitroBonus
	ItemPickup    *ItemPickup
	BananaPeel    *BananaPeel
	Puddle        *Puddle
	MovingBarrier *MovingBarrier
	Lifetime      *Lifetime
}

// SyncCollider re-derives the collider's world geometry from the entity pose.
func (e *Entity) SyncCollider() {
	if e.Collider != nil {
		e.Collider.SetPose(e.Position, e.Rotation)
	}
}

func (e *Entity) Forward() mgl64.Vec2 { return geom.Forward(e.Rotation) }

func (e *Entity) Speed() float64 { return e.Body.Velocity.Len() }

// VisualIndex picks the sprite frame for the current heading.
func (e *Entity) VisualIndex() int {
	n := e.Sprite.Count
	if n <= 0 {
		return 0
	}
	deg := math.Mod(mgl64.RadToDeg(e.Rotation), 360)
	if deg < 0 {
		deg += 360
	}
	idx := int(math.Floor(deg/(360/float64(n)) + e.Sprite.Offset))
	idx %= n
	if idx < 0 {
		idx += n
	}
	return idx
}

// AIDetectable reports whether AI sensors see the entity as an obstacle.
// Things a car should drive through are invisible to them.
func (e *Entity) AIDetectable() bool {
	switch e.Kind {
	case KindCheckpoint, KindItemPickup, KindNitroBonus, KindPuddle:
		return false
	}
	return e.Collider != nil
}

// Solid reports whether cars bounce off the entity.
func (e *Entity) Solid() bool {
	switch e.Kind {
	case KindVehicle, KindBarrier, KindObstacle, KindMovingBarrier:
		return e.Collider != nil
	}
	return false
}
