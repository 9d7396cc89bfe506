package kajak

import (
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kajakengine/kajak/geom"
)

func newCar(rot float64) (*Entity, *Vehicle) {
	v := NewVehicle("car", false)
	return NewVehicleEntity(v, geom.Vec(0, 0), rot), v
}

func forwardSpeed(e *Entity) float64 {
	return e.Body.Velocity.Dot(e.Forward())
}

func TestVehicle_ThrottleFromRest(t *testing.T) {
	e, v := newCar(0)
	v.SetThrottle(45)

	v.Step(e, Asphalt.Properties(), 16*time.Millisecond)

	assert.Greater(t, forwardSpeed(e), 0.0)
	assert.Greater(t, e.Position.Y(), 0.0)
	assert.InDelta(t, 0, e.Position.X(), 1e-12)
}

func TestVehicle_ThrottleFollowsHeading(t *testing.T) {
	e, v := newCar(math.Pi / 2)
	v.SetThrottle(100)

	v.Step(e, Neutral, 16*time.Millisecond)

	assert.Greater(t, e.Body.Velocity.X(), 0.0)
	assert.InDelta(t, 0, e.Body.Velocity.Y(), 1e-9)
}

func TestVehicle_SteeringRightTurnsClockwise(t *testing.T) {
	e, v := newCar(0)
	e.Body.Velocity = geom.Vec(0, 10)
	v.SetThrottle(50)
	v.SetSteerAngle(0.3)

	for range 30 {
		v.Step(e, Neutral, 16*time.Millisecond)
	}

	assert.Greater(t, e.Rotation, 0.0)
	assert.Greater(t, e.Position.X(), 0.0)
}

func TestVehicle_SteeringIsClamped(t *testing.T) {
	_, v := newCar(0)

	v.SetSteerAngle(2)
	assert.Equal(t, MaxSteerAngle, v.SteerAngle())

	v.SetSteerAngle(-2)
	assert.Equal(t, -MaxSteerAngle, v.SteerAngle())
}

func TestVehicle_BrakeSlowsDown(t *testing.T) {
	coast, cv := newCar(0)
	brake, bv := newCar(0)
	coast.Body.Velocity = geom.Vec(0, 10)
	brake.Body.Velocity = geom.Vec(0, 10)
	bv.SetBrake(100)

	for range 10 {
		cv.Step(coast, Neutral, 16*time.Millisecond)
		bv.Step(brake, Neutral, 16*time.Millisecond)
	}

	assert.Less(t, forwardSpeed(brake), forwardSpeed(coast))
}

func TestVehicle_SurfaceDragSlowsDown(t *testing.T) {
	road, rv := newCar(0)
	mud, mv := newCar(0)
	road.Body.Velocity = geom.Vec(0, 10)
	mud.Body.Velocity = geom.Vec(0, 10)

	for range 10 {
		rv.Step(road, Asphalt.Properties(), 16*time.Millisecond)
		mv.Step(mud, Mud.Properties(), 16*time.Millisecond)
	}

	assert.Less(t, forwardSpeed(mud), forwardSpeed(road))
}

func TestVehicle_StepGuardsDegenerateBodies(t *testing.T) {
	e, v := newCar(0)
	e.Body.Mass = 0
	v.SetThrottle(100)

	v.Step(e, Neutral, 16*time.Millisecond)

	assert.Zero(t, e.Body.Velocity)
	assert.Zero(t, e.Position)
}

func TestVehicle_NitroDrainsThenDeactivates(t *testing.T) {
	e, v := newCar(0)
	assert.False(t, v.ActivateNitro(), "empty tank")

	v.RefillNitro(500)
	require.Equal(t, v.MaxNitro, v.Nitro())
	require.True(t, v.ActivateNitro())
	assert.False(t, v.ActivateNitro(), "already running")

	prev := v.Nitro()
	ticks := 0
	for v.NitroActive() {
		v.Step(e, Neutral, 16*time.Millisecond)
		assert.LessOrEqual(t, v.Nitro(), prev)
		prev = v.Nitro()
		ticks++
		require.Less(t, ticks, 1000)
	}

	assert.InDelta(t, 0, v.Nitro(), 1e-6)
	assert.InDelta(t, int(NitroDuration/(16*time.Millisecond)), ticks, 1)
}

func TestVehicle_NitroStopsWhenDurationElapses(t *testing.T) {
	e, v := newCar(0)
	v.MaxNitro = 100
	v.RefillNitro(100)
	v.MaxNitro = 50
	require.True(t, v.ActivateNitro())

	v.Step(e, Neutral, NitroDuration)

	assert.False(t, v.NitroActive())
	assert.InDelta(t, 50, v.Nitro(), 1e-6)
}

func TestVehicle_RefillWaitsForBoostToEnd(t *testing.T) {
	e, v := newCar(0)
	v.RefillNitro(100)
	require.True(t, v.ActivateNitro())
	v.Step(e, Neutral, 500*time.Millisecond)
	during := v.Nitro()
	require.Less(t, during, v.MaxNitro)

	assert.False(t, v.RefillNitro(100))
	assert.Equal(t, during, v.Nitro())

	v.Step(e, Neutral, NitroDuration)
	require.False(t, v.NitroActive())
	assert.True(t, v.RefillNitro(100))
	assert.Equal(t, v.MaxNitro, v.Nitro())
}

func TestVehicle_NitroBoostsTraction(t *testing.T) {
	plain, pv := newCar(0)
	boosted, bv := newCar(0)
	pv.SetThrottle(100)
	bv.SetThrottle(100)
	bv.RefillNitro(100)
	bv.ActivateNitro()

	pv.Step(plain, Neutral, 16*time.Millisecond)
	bv.Step(boosted, Neutral, 16*time.Millisecond)

	assert.InDelta(t, DefaultNitroStrength, forwardSpeed(boosted)/forwardSpeed(plain), 1e-6)
}

func TestVehicle_BananaPeelCharges(t *testing.T) {
	_, v := newCar(0)

	assert.False(t, v.UseBananaPeel())
	for range DefaultMaxBananaPeels {
		assert.True(t, v.CollectBananaPeel())
	}
	assert.False(t, v.CollectBananaPeel())
	assert.Equal(t, DefaultMaxBananaPeels, v.BananaPeels())

	assert.True(t, v.UseBananaPeel())
	assert.Equal(t, DefaultMaxBananaPeels-1, v.BananaPeels())
}

func TestVehicle_TemporarySurfaceEffectExpires(t *testing.T) {
	e, v := newCar(0)
	v.ApplyTemporarySurfaceEffect(SurfaceProperties{Grip: 0.4, Drag: 1.1}, 100*time.Millisecond)
	v.ApplyTemporarySurfaceEffect(SurfaceProperties{Grip: 0.7, Drag: 1.2}, 0)
	require.Equal(t, 2, v.ActiveEffects())

	for range 8 {
		v.Step(e, Neutral, 16*time.Millisecond)
	}
	assert.Equal(t, 1, v.ActiveEffects())

	for range 30 {
		v.Step(e, Neutral, 16*time.Millisecond)
	}
	assert.Zero(t, v.ActiveEffects())
}

func TestVehicle_ApplySlip(t *testing.T) {
	e, v := newCar(0)
	e.Body.Velocity = geom.Vec(0, 10)

	v.ApplySlip(e, rand.New(rand.NewPCG(3, 4)))

	assert.InDelta(t, 100, math.Abs(e.Body.AngularVelocity), 1e-9)
	assert.Equal(t, geom.Vec(0, 5), e.Body.Velocity)
}

func TestEntity_VisualIndex(t *testing.T) {
	tests := []struct {
		name     string
		sprite   Sprite
		rotation float64
		want     int
	}{
		{"no sheet", Sprite{}, 1, 0},
		{"car facing up", VehicleSprite, 0, 36},
		{"car quarter turn", VehicleSprite, math.Pi/2 + 0.01, 0},
		{"car negative", VehicleSprite, -math.Pi/2 + 0.01, 24},
		{"eight frames", Sprite{Count: 8}, math.Pi + 0.01, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &Entity{Sprite: tt.sprite, Rotation: tt.rotation}
			assert.Equal(t, tt.want, e.VisualIndex())
		})
	}
}
