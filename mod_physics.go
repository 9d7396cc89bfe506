package kajak

import (
	"time"

	"github.com/kajakengine/kajak/geom"
)

// MaxStep is the longest tick the integrator accepts. Longer ticks (a paused
// process, a debugger stop) are skipped rather than integrated.
const MaxStep = time.Second

type PhysicsModule struct {
	Surfaces *SurfaceMap
}

func (m PhysicsModule) Install(s *Scene, cmd *Commands) {
	surfaces := m.Surfaces
	if surfaces == nil {
		surfaces = NewSurfaceMap()
	}
	cmd.AddResources(surfaces)
	cmd.UseSystem(System(integrateSystem).InStage(Integrate))
}

func integrateSystem(s *Scene, t *Time, surfaces *SurfaceMap) {
	dt := t.Dt
	if dt <= 0 || dt > MaxStep {
		return
	}
	for _, e := range s.Entities() {
		e.SyncCollider()
		switch {
		case e.Vehicle != nil:
			e.Vehicle.Step(e, surfaces.At(e.Position), dt)
		case e.MovingBarrier != nil:
			e.MovingBarrier.Update(e, dt)
		}
		e.SyncCollider()
	}
}

// CollisionReaction bounces two solids off each other.
func CollisionReaction(a, b *Entity, contact *geom.Contact) {
	ResolveContact(a, b, contact, DefaultRestitution)
	a.SyncCollider()
	b.SyncCollider()
}

// AddCollision makes a and b bounce off each other from now on.
func (s *Scene) AddCollision(a, b EntityID) *Interaction {
	return s.Interactions().Add(a, b, CollisionReaction, WithGeometry())
}

// AddSolid registers a static or moving obstacle and pairs it with every
// vehicle already in the scene.
func (s *Scene) AddSolid(e *Entity) EntityID {
	id := s.Add(e)
	for _, car := range s.Vehicles() {
		s.AddCollision(car.ID, id)
	}
	return id
}

// AddVehicle registers a car and pairs it with every solid, every other car
// and every pickup already in the scene.
func (s *Scene) AddVehicle(e *Entity) EntityID {
	others := s.Entities()
	id := s.Add(e)
	for _, o := range others {
		if o.Solid() {
			s.AddCollision(id, o.ID)
		} else if react := s.itemReaction(o); react != nil {
			s.Interactions().Add(id, o.ID, react)
		}
	}
	return id
}
