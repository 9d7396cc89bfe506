package kajak

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kajakengine/kajak/geom"
)

func TestMovingBarrier_Cycle(t *testing.T) {
	e := NewMovingBarrierEntity(geom.Vec(10, 5), geom.Vec(4, 1), MovingBarrierConfig{
		MovementTime:   time.Second,
		ClosedWaitTime: time.Second,
		OpenWaitTime:   time.Second,
		Distance:       4,
		Direction:      1,
	})
	b := e.MovingBarrier
	require.Equal(t, BarrierClosed, b.State())

	b.Update(e, time.Second)
	assert.Equal(t, BarrierOpening, b.State())
	assert.Equal(t, geom.Vec(10, 5), e.Position)

	b.Update(e, 500*time.Millisecond)
	assert.InDelta(t, 12, e.Position.X(), 1e-9)
	assert.Equal(t, 5.0, e.Position.Y())

	b.Update(e, 500*time.Millisecond)
	assert.Equal(t, BarrierOpen, b.State())
	assert.Equal(t, geom.Vec(14, 5), e.Position)

	b.Update(e, time.Second)
	assert.Equal(t, BarrierClosing, b.State())

	b.Update(e, 250*time.Millisecond)
	assert.InDelta(t, 13, e.Position.X(), 1e-9)

	b.Update(e, 750*time.Millisecond)
	assert.Equal(t, BarrierClosed, b.State())
	assert.Equal(t, geom.Vec(10, 5), e.Position)
}

func TestMovingBarrier_DefaultsAndReset(t *testing.T) {
	e := NewMovingBarrierEntity(geom.Vec(0, 0), geom.Vec(0, 0), MovingBarrierConfig{})
	assert.Equal(t, DefaultMovingBarrierConfig(), e.MovingBarrier.Config)
	assert.Equal(t, geom.Vec(4, 1), e.Size)

	e.MovingBarrier.Update(e, 3*time.Second)
	e.MovingBarrier.Update(e, time.Second)
	assert.InDelta(t, -1, e.Position.X(), 1e-9, "slides left by default")

	e.MovingBarrier.Reset(e)
	assert.Equal(t, BarrierClosed, e.MovingBarrier.State())
	assert.Equal(t, geom.Vec(0, 0), e.Position)
}

func TestMovingBarrier_BlocksCarsInScene(t *testing.T) {
	s := newTestScene(t)
	car := addCar(s, "p1", true, 0, 0, 0)
	gate := NewMovingBarrierEntity(geom.Vec(0, 6), geom.Vec(10, 1), MovingBarrierConfig{ClosedWaitTime: time.Hour})
	s.AddSolid(gate)
	car.Body.Velocity = geom.Vec(0, 15)

	tickFor(s, time.Second)

	assert.Less(t, car.Position.Y(), 6.0)
	assert.Equal(t, geom.Vec(0, 6), gate.Position, "gates are immovable")
}

func TestBarrierState_String(t *testing.T) {
	assert.Equal(t, "OPENING", BarrierOpening.String())
	assert.Equal(t, "BarrierState(9)", BarrierState(9).String())
}
