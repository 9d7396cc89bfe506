package kajak

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/kajakengine/kajak/geom"
)

const (
	// DefaultRestitution is the bounciness of every car contact.
	DefaultRestitution = 0.3
	// ContactCorrection is the share of the MTV undone positionally per contact.
	ContactCorrection = 0.1
	// ContactTorqueScale damps the spin a contact impulse produces.
	ContactTorqueScale = 0.01

	BarrierMass       = 1e6
	ObstacleMass      = 1500.0
	MovingBarrierMass = 100000.0
)

// canReceive reports whether an impulse may change the body's velocity.
func (e *Entity) canReceive() bool {
	return e.Movable && e.Body.Mass > 0
}

// ApplyImpulse changes the linear velocity by impulse/mass.
func (b *Body) ApplyImpulse(impulse mgl64.Vec2) {
	if b.Mass > 0 {
		b.Velocity = b.Velocity.Add(impulse.Mul(1.0 / b.Mass))
	}
}

// ApplyAngularImpulse changes the yaw rate by torque/inertia.
func (b *Body) ApplyAngularImpulse(torque float64) {
	if b.Inertia > 0 {
		b.AngularVelocity += torque / b.Inertia
	}
}

// ResolveContact applies an impulse along the contact normal while the two
// bodies approach each other, then pushes them apart by a fraction of the MTV.
// The MTV points from a toward b.
func ResolveContact(a, b *Entity, contact *geom.Contact, restitution float64) {
	if contact == nil {
		return
	}
	n, err := geom.Normalize(contact.MTV)
	if err != nil {
		return
	}

	rel := a.Body.Velocity.Sub(b.Body.Velocity)
	approach := rel.Dot(n)
	if approach > 0 {
		var invMass float64
		if a.Body.Mass > 0 {
			invMass += 1 / a.Body.Mass
		}
		if b.Body.Mass > 0 {
			invMass += 1 / b.Body.Mass
		}
		if invMass > 0 {
			j := -(1 + restitution) * approach / invMass
			impulse := n.Mul(j)

			if a.canReceive() {
				a.Body.ApplyImpulse(impulse)
				r := contactPoint(contact, a.Position).Sub(a.Position)
				a.Body.ApplyAngularImpulse(geom.Cross(r, impulse) * ContactTorqueScale)
			}
			if b.canReceive() {
				b.Body.ApplyImpulse(impulse.Mul(-1))
			}
		}
	}

	sep := contact.MTV.Mul(ContactCorrection)
	if a.Movable {
		a.Position = a.Position.Sub(sep)
	}
	if b.Movable {
		b.Position = b.Position.Add(sep)
	}
}

// contactPoint averages the reported contact points, falling back to the
// body's own position (no lever arm) when there are none.
func contactPoint(c *geom.Contact, fallback mgl64.Vec2) mgl64.Vec2 {
	if len(c.Points) == 0 {
		return fallback
	}
	var sum mgl64.Vec2
	for _, p := range c.Points {
		sum = sum.Add(p)
	}
	return sum.Mul(1 / float64(len(c.Points)))
}
