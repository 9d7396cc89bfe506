package kajak

import (
	"math"
	"slices"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/kajakengine/kajak/geom"
)

const (
	DefaultRayCount  = 28
	DefaultRayLength = 40.0
	DefaultRaySpread = math.Pi / 2
	rayThickness     = 0.1

	// MaxAIThrottle is the throttle an AI applies at 100%.
	MaxAIThrottle = 200.0

	checkpointWeight = 0.22
	pathWeight       = 1 - checkpointWeight

	StuckCheckInterval = 2 * time.Second
	stuckDistance      = 1.0
	stuckSpeed         = 1.0
	stuckKickSpeed     = 5.0
)

// RayHit is the nearest thing one sensor ray touched. A ray that hit nothing
// reports its full length and its end point.
type RayHit struct {
	Distance float64
	Point    mgl64.Vec2
	Normal   mgl64.Vec2
	Entity   EntityID
}

// Sensor is a fan of rays spread symmetrically around a car's heading. Ray 0
// is the leftmost.
type Sensor struct {
	Count  int
	Length float64
	Spread float64
	rays   []*geom.Collider
}

func NewSensor(count int, length, spread float64) *Sensor {
	if count < 2 {
		count = DefaultRayCount
	}
	if length <= 0 {
		length = DefaultRayLength
	}
	if spread <= 0 {
		spread = DefaultRaySpread
	}
	s := &Sensor{Count: count, Length: length, Spread: spread}
	for range count {
		s.rays = append(s.rays, geom.NewSegment(mgl64.Vec2{}, mgl64.Vec2{}, rayThickness))
	}
	return s
}

// Aim places every ray at origin, fanned around heading.
func (s *Sensor) Aim(origin mgl64.Vec2, heading float64) {
	step := s.Spread / float64(s.Count-1)
	for i, ray := range s.rays {
		angle := heading - s.Spread/2 + step*float64(i)
		ray.SetEndpoints(origin, origin.Add(geom.Forward(angle).Mul(s.Length)))
	}
}

// Rays exposes the current ray segments.
func (s *Sensor) Rays() []*geom.Collider { return s.rays }

// Reach is the rectangle every ray lies in.
func (s *Sensor) Reach() geom.Rect {
	points := make([]mgl64.Vec2, 0, 2*len(s.rays))
	for _, ray := range s.rays {
		a, b := ray.Endpoints()
		points = append(points, a, b)
	}
	return geom.RectAround(points...)
}

// Cast reports the nearest hit of every ray against candidates.
func (s *Sensor) Cast(candidates []*Entity) []RayHit {
	hits := make([]RayHit, len(s.rays))
	for i, ray := range s.rays {
		start, end := ray.Endpoints()
		hits[i] = RayHit{Distance: s.Length, Point: end}
		for _, e := range candidates {
			contact, ok := geom.Collide(ray, e.Collider)
			if !ok || len(contact.Points) == 0 {
				continue
			}
			p := contact.Points[0]
			if d := p.Sub(start).Len(); d < hits[i].Distance {
				hits[i] = RayHit{
					Distance: d,
					Point:    p,
					Normal:   geom.NormalizeOrZero(contact.MTV),
					Entity:   e.ID,
				}
			}
		}
	}
	return hits
}

// RoadAnalysis summarises a sensor sweep split into left, centre and right
// thirds. BestPath is -1 for left, 1 for right and 0 for straight on.
type RoadAnalysis struct {
	Min       float64
	Left      float64
	Center    float64
	Right     float64
	TurnAhead bool
	BestPath  int
}

func AnalyzeRoad(hits []RayHit, rayLength float64) RoadAnalysis {
	if len(hits) == 0 {
		return RoadAnalysis{Min: rayLength, Left: rayLength, Center: rayLength, Right: rayLength}
	}
	n := len(hits)
	avg := func(part []RayHit) float64 {
		if len(part) == 0 {
			return rayLength
		}
		sum := 0.0
		for _, h := range part {
			sum += h.Distance
		}
		return sum / float64(len(part))
	}
	a := RoadAnalysis{
		Min:    slices.MinFunc(hits, func(x, y RayHit) int { return cmpFloat(x.Distance, y.Distance) }).Distance,
		Left:   avg(hits[:n/3]),
		Center: avg(hits[n/3 : 2*n/3]),
		Right:  avg(hits[2*n/3:]),
	}
	a.TurnAhead = a.Center < rayLength*0.8
	switch {
	case a.Left > a.Center && a.Left > a.Right:
		a.BestPath = -1
	case a.Right > a.Center && a.Right > a.Left:
		a.BestPath = 1
	}
	return a
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Perception is everything a Driver may base its decision on.
type Perception struct {
	Self      *Entity
	Road      RoadAnalysis
	Hits      []RayHit
	RayLength float64
	// Target is the next checkpoint of the car.
	Target mgl64.Vec2
	// Player is nil when the race has no player or Self is the player.
	Player        *Entity
	PlayerLap     int
	PlayerVisible bool
	TotalLaps     int
	Now           time.Duration
}

// Command is a driver's decision for one tick.
type Command struct {
	Steer    float64
	Throttle float64
	Nitro    bool
}

type Driver interface {
	Drive(p Perception) Command
}

// SteerToward blends the heading error toward target with the clearance
// based path correction and clamps the result to the wheel lock.
func SteerToward(p Perception, target mgl64.Vec2) float64 {
	desired := SteerSeek(p.Self.Position, target, 1)
	var toTarget float64
	if desired.Len() > 0 {
		toTarget = geom.WrapAngle(geom.Heading(desired) - p.Self.Rotation)
	}
	steer := toTarget*checkpointWeight + pathSteering(p.Road, p.RayLength)*pathWeight
	return geom.Clamp(steer, -MaxSteerAngle, MaxSteerAngle)
}

func pathSteering(a RoadAnalysis, rayLength float64) float64 {
	if a.Min < rayLength*0.3 {
		if a.Left > a.Right {
			return -math.Pi / 6
		}
		return math.Pi / 6
	}
	if a.BestPath != 0 {
		return float64(a.BestPath) * math.Pi / 8
	}
	return (a.Right - a.Left) * 0.03
}

// AIController drives one car with a Driver.
type AIController struct {
	CarID    string
	Behavior Behavior
	Driver   Driver
	Sensor   *Sensor

	lastHits  []RayHit
	lastCheck time.Duration
	lastPos   mgl64.Vec2
	checked   bool
	kicks     int
}

// Hits returns the sensor readings of the last tick.
func (c *AIController) Hits() []RayHit { return c.lastHits }

// StuckKicks counts how often the watchdog had to nudge the car.
func (c *AIController) StuckKicks() int { return c.kicks }

// DriverRoster holds the controller of every computer driven car.
type DriverRoster struct {
	RayCount  int
	RayLength float64

	controllers []*AIController
	logger      Logger
}

func (r *DriverRoster) SetLogger(l Logger) { r.logger = l }

// Assign hands carID to a driver of the given behavior.
func (r *DriverRoster) Assign(carID string, b Behavior) *AIController {
	return r.AssignDriver(carID, b, b.Driver())
}

// AssignDriver hands carID to a custom driver, replacing any previous one.
func (r *DriverRoster) AssignDriver(carID string, b Behavior, d Driver) *AIController {
	r.Release(carID)
	c := &AIController{
		CarID:    carID,
		Behavior: b,
		Driver:   d,
		Sensor:   NewSensor(r.RayCount, r.RayLength, DefaultRaySpread),
	}
	r.controllers = append(r.controllers, c)
	return c
}

func (r *DriverRoster) Release(carID string) {
	r.controllers = slices.DeleteFunc(r.controllers, func(c *AIController) bool { return c.CarID == carID })
}

func (r *DriverRoster) Controller(carID string) (*AIController, bool) {
	for _, c := range r.controllers {
		if c.CarID == carID {
			return c, true
		}
	}
	return nil, false
}

func (r *DriverRoster) Controllers() []*AIController { return r.controllers }

func (r *DriverRoster) log() Logger {
	if r.logger == nil {
		return NewNopLogger()
	}
	return r.logger
}

type AIModule struct {
	RayCount  int
	RayLength float64
}

func (m AIModule) Install(s *Scene, cmd *Commands) {
	cmd.AddResources(&DriverRoster{RayCount: m.RayCount, RayLength: m.RayLength})
	cmd.UseSystem(System(aiSystem).InStage(Think))
}

// aiSystem runs before the broad phase is rebuilt, so drivers see the
// world as it was at the end of the previous tick.
func aiSystem(s *Scene, roster *DriverRoster, t *Time, tree *QuadTree, race *RaceManager) {
	for _, c := range roster.controllers {
		car := s.VehicleByCarID(c.CarID)
		if car == nil {
			continue
		}
		if roster.watchStuck(s, c, car, t.Now) {
			continue
		}

		p, ok := perceive(s, c, car, tree, race, t.Now)
		if !ok {
			continue
		}
		cmd := c.Driver.Drive(p)
		car.Vehicle.SetSteerAngle(cmd.Steer)
		car.Vehicle.SetThrottle(cmd.Throttle)
		if cmd.Nitro {
			car.Vehicle.ActivateNitro()
		}
	}
}

func perceive(s *Scene, c *AIController, car *Entity, tree *QuadTree, race *RaceManager, now time.Duration) (Perception, bool) {
	c.Sensor.Aim(car.Position, car.Rotation)
	var candidates []*Entity
	for _, id := range tree.Query(c.Sensor.Reach(), now) {
		e, ok := s.Entity(id)
		if !ok || e == car || !e.AIDetectable() {
			continue
		}
		candidates = append(candidates, e)
	}
	c.lastHits = c.Sensor.Cast(candidates)

	cps := race.Checkpoints()
	progress, ok := race.Progress(c.CarID)
	if len(cps) == 0 || !ok {
		return Perception{}, false
	}
	next := cps[(progress.LastCheckpoint+1)%len(cps)]

	p := Perception{
		Self:      car,
		Road:      AnalyzeRoad(c.lastHits, c.Sensor.Length),
		Hits:      c.lastHits,
		RayLength: c.Sensor.Length,
		Target:    next.Position,
		TotalLaps: race.Config.TotalLaps,
		Now:       now,
	}
	if player := s.Player(); player != nil && player != car {
		p.Player = player
		if pp, ok := race.Progress(player.Vehicle.CarID); ok {
			p.PlayerLap = pp.CurrentLap
		}
		p.PlayerVisible = LOSProbe(candidates, car.Position, player.Position, player.ID)
	}
	return p, true
}

// watchStuck reports whether it kicked the car this tick. It nudges a car along its heading when it has barely moved since
// the previous check.
func (r *DriverRoster) watchStuck(s *Scene, c *AIController, car *Entity, now time.Duration) bool {
	if !c.checked {
		c.checked = true
		c.lastCheck = now
		c.lastPos = car.Position
		return false
	}
	if now-c.lastCheck <= StuckCheckInterval {
		return false
	}
	kicked := false
	moved := car.Position.Sub(c.lastPos).Len()
	if moved < stuckDistance && car.Speed() < stuckSpeed {
		car.Body.Velocity = car.Forward().Mul(stuckKickSpeed)
		car.Vehicle.SetSteerAngle((s.Rand().Float64()*2 - 1) * MaxSteerAngle)
		c.kicks++
		kicked = true
		r.log().Infof("car %s stuck, kicking it loose", c.CarID)
	}
	c.lastPos = car.Position
	c.lastCheck = now
	return kicked
}
