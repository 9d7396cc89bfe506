package kajak

import (
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/kajakengine/kajak/geom"
)

type BarrierState int

const (
	BarrierClosed BarrierState = iota
	BarrierOpening
	BarrierOpen
	BarrierClosing
)

func (s BarrierState) String() string {
	switch s {
	case BarrierClosed:
		return "CLOSED"
	case BarrierOpening:
		return "OPENING"
	case BarrierOpen:
		return "OPEN"
	case BarrierClosing:
		return "CLOSING"
	}
	return fmt.Sprintf("BarrierState(%d)", int(s))
}

type MovingBarrierConfig struct {
	MovementTime   time.Duration
	ClosedWaitTime time.Duration
	OpenWaitTime   time.Duration
	// Distance is how far the gate slides along X; Direction is its sign.
	Distance  float64
	Direction float64
}

func DefaultMovingBarrierConfig() MovingBarrierConfig {
	return MovingBarrierConfig{
		MovementTime:   2 * time.Second,
		ClosedWaitTime: 3 * time.Second,
		OpenWaitTime:   3 * time.Second,
		Distance:       2,
		Direction:      -1,
	}
}

func (c MovingBarrierConfig) withDefaults() MovingBarrierConfig {
	d := DefaultMovingBarrierConfig()
	if c.MovementTime <= 0 {
		c.MovementTime = d.MovementTime
	}
	if c.ClosedWaitTime <= 0 {
		c.ClosedWaitTime = d.ClosedWaitTime
	}
	if c.OpenWaitTime <= 0 {
		c.OpenWaitTime = d.OpenWaitTime
	}
	if c.Distance == 0 {
		c.Distance = d.Distance
	}
	if c.Direction == 0 {
		c.Direction = d.Direction
	}
	return c
}

// MovingBarrier is a gate that slides open and shut on a fixed cycle.
type MovingBarrier struct {
	Config  MovingBarrierConfig
	Initial mgl64.Vec2
	state   BarrierState
	elapsed time.Duration
}

func (b *MovingBarrier) State() BarrierState { return b.state }

// NewMovingBarrierEntity builds a closed gate of the given size at position.
func NewMovingBarrierEntity(position, size mgl64.Vec2, cfg MovingBarrierConfig) *Entity {
	if size.X() <= 0 || size.Y() <= 0 {
		size = geom.Vec(4, 1)
	}
	return &Entity{
		Kind:     KindMovingBarrier,
		Position: position,
		Size:     size,
		Collider: geom.NewCenteredBox(size),
		Body:     Body{Mass: MovingBarrierMass},
		MovingBarrier: &MovingBarrier{
			Config:  cfg.withDefaults(),
			Initial: position,
		},
	}
}

// Update advances the cycle and moves e along it.
func (b *MovingBarrier) Update(e *Entity, dt time.Duration) {
	b.elapsed += dt
	c := b.Config
	offset := func(progress float64) mgl64.Vec2 {
		return b.Initial.Add(geom.Vec(c.Distance*c.Direction*progress, 0))
	}

	switch b.state {
	case BarrierClosed:
		if b.elapsed >= c.ClosedWaitTime {
			b.enter(BarrierOpening)
		}
	case BarrierOpening:
		if b.elapsed >= c.MovementTime {
			b.enter(BarrierOpen)
			e.Position = offset(1)
		} else {
			e.Position = offset(float64(b.elapsed) / float64(c.MovementTime))
		}
	case BarrierOpen:
		if b.elapsed >= c.OpenWaitTime {
			b.enter(BarrierClosing)
		}
	case BarrierClosing:
		if b.elapsed >= c.MovementTime {
			b.enter(BarrierClosed)
			e.Position = b.Initial
		} else {
			e.Position = offset(1 - float64(b.elapsed)/float64(c.MovementTime))
		}
	}
}

func (b *MovingBarrier) enter(s BarrierState) {
	b.state = s
	b.elapsed = 0
}

// Reset closes the gate immediately.
func (b *MovingBarrier) Reset(e *Entity) {
	b.enter(BarrierClosed)
	e.Position = b.Initial
}

// NewBarrierEntity builds one static wall segment of a track outline.
func NewBarrierEntity(start, end mgl64.Vec2, thickness float64) *Entity {
	return &Entity{
		Kind:     KindBarrier,
		Collider: geom.NewSegment(start, end, thickness),
		Body:     Body{Mass: BarrierMass},
	}
}

// NewObstacleEntity builds a static convex obstacle such as a tree.
func NewObstacleEntity(position, size mgl64.Vec2, vertices []mgl64.Vec2) *Entity {
	return &Entity{
		Kind:     KindObstacle,
		Position: position,
		Size:     size,
		Sprite:   Sprite{Count: 48},
		Collider: geom.NewPolygon(vertices),
		Body:     Body{Mass: ObstacleMass},
	}
}
