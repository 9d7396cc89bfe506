package kajak

import (
	"slices"

	"github.com/kajakengine/kajak/geom"
)

// Reaction runs when the two entities of an interaction overlap. Contact is
// nil unless the interaction was added WithGeometry.
type Reaction func(a, b *Entity, contact *geom.Contact)

type InteractionID int

// Interaction pairs two entities with a reaction to their overlap.
type Interaction struct {
	ID       InteractionID
	A, B     EntityID
	react    Reaction
	once     bool
	geometry bool
	enabled  bool
	consumed bool
}

type InteractionOption func(*Interaction)

// FireOnce consumes the interaction the first time it fires.
func FireOnce() InteractionOption {
	return func(i *Interaction) { i.once = true }
}

// WithGeometry passes the contact to the reaction.
func WithGeometry() InteractionOption {
	return func(i *Interaction) { i.geometry = true }
}

// Disabled adds the interaction switched off.
func Disabled() InteractionOption {
	return func(i *Interaction) { i.enabled = false }
}

func (i *Interaction) Enabled() bool     { return i.enabled }
func (i *Interaction) Consumed() bool    { return i.consumed }
func (i *Interaction) SetEnabled(v bool) { i.enabled = v }

// InteractionTable is the only place where overlaps cause side effects.
type InteractionTable struct {
	items  []*Interaction
	nextID InteractionID
	fired  func(a, b *Entity)
}

func NewInteractionTable() *InteractionTable {
	return &InteractionTable{nextID: 1}
}

func (t *InteractionTable) Add(a, b EntityID, react Reaction, opts ...InteractionOption) *Interaction {
	i := &Interaction{
		ID:      t.nextID,
		A:       a,
		B:       b,
		react:   react,
		enabled: true,
	}
	for _, opt := range opts {
		opt(i)
	}
	t.nextID++
	t.items = append(t.items, i)
	return i
}

func (t *InteractionTable) Remove(id InteractionID) {
	t.items = slices.DeleteFunc(t.items, func(i *Interaction) bool { return i.ID == id })
}

// PurgeEntity drops every interaction that references id.
func (t *InteractionTable) PurgeEntity(id EntityID) {
	t.items = slices.DeleteFunc(t.items, func(i *Interaction) bool { return i.A == id || i.B == id })
}

func (t *InteractionTable) Len() int { return len(t.items) }

// Involving lists the interactions that reference id.
func (t *InteractionTable) Involving(id EntityID) []*Interaction {
	var out []*Interaction
	for _, i := range t.items {
		if i.A == id || i.B == id {
			out = append(out, i)
		}
	}
	return out
}

// OnFired registers a hook called after every reaction.
func (t *InteractionTable) OnFired(fn func(a, b *Entity)) {
	t.fired = fn
}

// Process runs the narrow phase for every armed interaction and fires the
// reactions of those that overlap. Interactions added or removed by a
// reaction take effect on the next call.
func (t *InteractionTable) Process(lookup func(EntityID) (*Entity, bool)) int {
	fired := 0
	for _, i := range slices.Clone(t.items) {
		if !i.enabled || i.consumed {
			continue
		}
		a, okA := lookup(i.A)
		b, okB := lookup(i.B)
		if !okA || !okB || a.Collider == nil || b.Collider == nil {
			continue
		}
		contact, hit := geom.Collide(a.Collider, b.Collider)
		if !hit {
			continue
		}
		if i.geometry {
			i.react(a, b, &contact)
		} else {
			i.react(a, b, nil)
		}
		if i.once {
			i.consumed = true
		}
		fired++
		if t.fired != nil {
			t.fired(a, b)
		}
	}
	return fired
}

type InteractionModule struct{}

func (m InteractionModule) Install(s *Scene, cmd *Commands) {
	cmd.AddResources(NewInteractionTable())
	cmd.UseSystem(System(interactionSystem).InStage(Resolve))
}

func interactionSystem(s *Scene, table *InteractionTable) {
	table.Process(s.Entity)
}
