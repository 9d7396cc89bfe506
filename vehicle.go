package kajak

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/kajakengine/kajak/geom"
)

const (
	VehicleMass       = 900.0
	VehicleMaxGrip    = 10.0
	VehicleWheelBase  = 4.5
	VehicleDrag       = 25.0
	VehicleResistance = 20.0
	VehicleCaFront    = -5.0
	VehicleCaRear     = -5.2
	Gravity           = 9.81

	MaxSteerAngle = math.Pi / 4

	DefaultMaxNitro      = 100.0
	DefaultNitroStrength = 1.5
	NitroDuration        = 1500 * time.Millisecond

	DefaultMaxBananaPeels = 3

	// DefaultEffectDuration is how long a puddle or ice patch keeps acting on a car.
	DefaultEffectDuration = 500 * time.Millisecond
)

// VehicleSprite is the rotation sheet shared by all car sprites.
var VehicleSprite = Sprite{Count: 48, Offset: 36}

type surfaceEffect struct {
	props     SurfaceProperties
	remaining time.Duration
}

// Vehicle is the slip-angle car model plus the consumables a car carries.
type Vehicle struct {
	CarID    string
	IsPlayer bool

	MaxGrip       float64
	WheelBase     float64
	FrontAxleToCG float64
	RearAxleToCG  float64
	Drag          float64
	Resistance    float64
	CaFront       float64
	CaRear        float64
	// Drivetrain blends rear (0) and front (1) wheel drive.
	Drivetrain float64

	steer    float64
	throttle float64
	brake    float64

	MaxNitro      float64
	NitroStrength float64
	nitro         float64
	nitroActive   bool
	nitroElapsed  time.Duration

	MaxBananaPeels int
	bananas        int

	effects []surfaceEffect
}

// NewVehicle returns a car with the stock tuning and an empty nitro tank.
func NewVehicle(carID string, isPlayer bool) *Vehicle {
	return &Vehicle{
		CarID:          carID,
		IsPlayer:       isPlayer,
		MaxGrip:        VehicleMaxGrip,
		WheelBase:      VehicleWheelBase,
		FrontAxleToCG:  VehicleWheelBase / 2,
		RearAxleToCG:   VehicleWheelBase / 2,
		Drag:           VehicleDrag,
		Resistance:     VehicleResistance,
		CaFront:        VehicleCaFront,
		CaRear:         VehicleCaRear,
		MaxNitro:       DefaultMaxNitro,
		NitroStrength:  DefaultNitroStrength,
		MaxBananaPeels: DefaultMaxBananaPeels,
	}
}

// NewVehicleEntity builds a 1.5 x 3 car entity around v.
func NewVehicleEntity(v *Vehicle, position mgl64.Vec2, rotation float64) *Entity {
	return &Entity{
		Kind:     KindVehicle,
		Position: position,
		Rotation: rotation,
		Size:     geom.Vec(1.5, 3),
		Movable:  true,
		Sprite:   VehicleSprite,
		Collider: geom.NewRectPolygon(1.5, 3),
		Body: Body{
			Mass:    VehicleMass,
			Inertia: VehicleMass / 2,
		},
		Vehicle: v,
	}
}

func (v *Vehicle) SteerAngle() float64 { return v.steer }
func (v *Vehicle) Throttle() float64   { return v.throttle }
func (v *Vehicle) Brake() float64      { return v.brake }

// SetSteerAngle sets the front wheel angle, clamped to ±π/4.
func (v *Vehicle) SetSteerAngle(angle float64) {
	v.steer = geom.Clamp(angle, -MaxSteerAngle, MaxSteerAngle)
}

func (v *Vehicle) SetThrottle(value float64) { v.throttle = value }
func (v *Vehicle) SetBrake(value float64)    { v.brake = value }

func (v *Vehicle) Nitro() float64    { return v.nitro }
func (v *Vehicle) NitroActive() bool { return v.nitroActive }

// RefillNitro adds n to the tank, up to MaxNitro. The tank is left alone
// while a boost is running.
func (v *Vehicle) RefillNitro(n float64) bool {
	if v.nitroActive {
		return false
	}
	v.nitro = math.Min(v.MaxNitro, v.nitro+n)
	return true
}

// ActivateNitro starts a boost if there is fuel and none is running.
func (v *Vehicle) ActivateNitro() bool {
	if v.nitro <= 0 || v.nitroActive {
		return false
	}
	v.nitroActive = true
	v.nitroElapsed = 0
	return true
}

func (v *Vehicle) updateNitro(dt time.Duration) {
	if !v.nitroActive {
		return
	}
	v.nitroElapsed += dt
	rate := v.MaxNitro / float64(NitroDuration)
	v.nitro = math.Max(0, v.nitro-rate*float64(dt))
	if v.nitro <= 0 || v.nitroElapsed >= NitroDuration {
		v.nitroActive = false
	}
}

func (v *Vehicle) BananaPeels() int { return v.bananas }

// CollectBananaPeel adds a charge unless the car is full.
func (v *Vehicle) CollectBananaPeel() bool {
	if v.bananas >= v.MaxBananaPeels {
		return false
	}
	v.bananas++
	return true
}

// UseBananaPeel spends a charge if there is one.
func (v *Vehicle) UseBananaPeel() bool {
	if v.bananas <= 0 {
		return false
	}
	v.bananas--
	return true
}

// ApplyTemporarySurfaceEffect multiplies the surface under the car by props
// for d. Overlapping effects stack.
func (v *Vehicle) ApplyTemporarySurfaceEffect(props SurfaceProperties, d time.Duration) {
	if d <= 0 {
		d = DefaultEffectDuration
	}
	v.effects = append(v.effects, surfaceEffect{props: props, remaining: d})
}

// ActiveEffects counts temporary surface effects still running.
func (v *Vehicle) ActiveEffects() int { return len(v.effects) }

func (v *Vehicle) effectMultiplier(dt time.Duration) SurfaceProperties {
	combined := Neutral
	kept := v.effects[:0]
	for _, eff := range v.effects {
		if eff.remaining <= 0 {
			continue
		}
		combined = combined.Mul(eff.props)
		eff.remaining -= dt
		kept = append(kept, eff)
	}
	v.effects = kept
	return combined
}

// ApplySlip spins the car out: yaw rate ±speed·10 and half the speed.
func (v *Vehicle) ApplySlip(e *Entity, rng *rand.Rand) {
	dir := 1.0
	if rng.Float64() <= 0.5 {
		dir = -1
	}
	e.Body.AngularVelocity = dir * e.Speed() * 10
	e.Body.Velocity = e.Body.Velocity.Mul(0.5)
}

// Step advances the car by dt on the given surface.
func (v *Vehicle) Step(e *Entity, surface SurfaceProperties, dt time.Duration) {
	if e.Body.Mass <= 0 || e.Body.Inertia <= 0 || v.WheelBase <= 0 {
		return
	}
	v.updateNitro(dt)
	nitroMul := 1.0
	if v.nitroActive {
		nitroMul = v.NitroStrength
	}

	props := surface.Mul(v.effectMultiplier(dt))
	sec := dt.Seconds()
	sin, cos := math.Sincos(e.Rotation)
	vel := e.Body.Velocity

	fwd := vel[0]*sin + vel[1]*cos
	right := vel[0]*cos - vel[1]*sin

	weight := e.Body.Mass * Gravity
	rearLoad := v.RearAxleToCG / v.WheelBase * weight
	frontLoad := v.FrontAxleToCG / v.WheelBase * weight

	dirSign := 1.0
	if fwd < 0 {
		dirSign = -1
	}

	var frontSlip, rearSlip float64
	if speed := math.Abs(fwd); speed != 0 {
		frontSlip = math.Atan2(right+e.Body.AngularVelocity*v.FrontAxleToCG, speed) - v.steer*dirSign
		rearSlip = math.Atan2(right-e.Body.AngularVelocity*v.RearAxleToCG, speed)
	}

	frontLat := geom.Clamp(v.CaFront*frontSlip, -v.MaxGrip, v.MaxGrip) * frontLoad * props.Grip
	rearLat := geom.Clamp(v.CaRear*rearSlip, -v.MaxGrip, v.MaxGrip) * rearLoad * props.Grip

	dr := 0.5 * v.Drivetrain
	traction := 100 * (v.throttle*(1-dr+dr*math.Cos(v.steer)) - v.brake*dirSign) * nitroMul
	turn := 100 * v.throttle * dr * math.Sin(v.steer)

	resist := -(v.Resistance*fwd + v.Drag*fwd*math.Abs(fwd)) * props.Drag
	lateral := -(v.Resistance*right + v.Drag*right*math.Abs(right)) * props.Drag

	accFwd := (traction + resist) / e.Body.Mass
	accRight := (turn + lateral + rearLat + frontLat*math.Cos(v.steer)) / e.Body.Mass

	vel[0] += (accFwd*sin + accRight*cos) * sec
	vel[1] += (accFwd*cos - accRight*sin) * sec
	e.Body.Velocity = vel
	e.Position = e.Position.Add(vel.Mul(sec))

	torque := (-rearLat*v.RearAxleToCG + frontLat*v.FrontAxleToCG) / e.Body.Inertia
	e.Body.AngularVelocity += torque * sec
	e.Rotation += e.Body.AngularVelocity * sec
}
