package kajak

import (
	"fmt"
	"math/rand/v2"
	"reflect"
	"runtime"
	"slices"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

type systemFn any

// Scene owns every entity of a race and advances them on a fixed stage order.
// Only Tick mutates simulation state; the scene is not safe for concurrent use.
type Scene struct {
	id        uuid.UUID
	modules   []Module
	stages    []Stage
	systems   map[string][]systemFn
	resources map[reflect.Type]any
	logger    Logger

	entities map[EntityID]*Entity
	ordered  []*Entity
	nextID   EntityID

	// Command Buffering
	pendingAdditions []*Entity
	pendingRemovals  []EntityID
}

func newScene() *Scene {
	s := &Scene{
		id:        uuid.New(),
		systems:   make(map[string][]systemFn),
		resources: make(map[reflect.Type]any),
		entities:  make(map[EntityID]*Entity),
		nextID:    1,
	}
	for _, st := range defaultStages() {
		s.stages = append(s.stages, st)
		s.systems[st.Name] = make([]systemFn, 0)
	}
	return s
}

func (s *Scene) ID() uuid.UUID { return s.id }

func (s *Scene) Commands() *Commands {
	return &Commands{
		scene: s,
	}
}

// Tick advances the simulation clock by dt and runs every stage once.
func (s *Scene) Tick(dt time.Duration) {
	if t := s.Time(); t != nil {
		t.Dt = dt
	}
	s.callSystems()
}

func (s *Scene) callSystems() {
	for _, stage := range s.stages {
		for _, system := range s.systems[stage.Name] {
			s.callSystemInternal(system)
		}
		s.FlushCommands()
	}
}

func (s *Scene) addResources(resources ...any) *Scene {
	for _, resource := range resources {
		resourceType := reflect.TypeOf(resource)
		if _, ok := s.resources[resourceType.Elem()]; ok {
			panic(fmt.Sprintf("%s is already in resources", resourceType))
		}

		s.resources[resourceType.Elem()] = resource
		if ls, ok := resource.(loggerSetter); ok && s.logger != nil {
			ls.SetLogger(s.logger)
		}
	}
	return s
}

// Resource looks up a registered resource by type.
func Resource[T any](s *Scene) (*T, bool) {
	r, ok := s.resources[reflect.TypeFor[T]()]
	if !ok {
		return nil, false
	}
	return r.(*T), true
}

func resourceOrNil[T any](s *Scene) *T {
	r, _ := Resource[T](s)
	return r
}

func (s *Scene) Time() *Time                     { return resourceOrNil[Time](s) }
func (s *Scene) Spatial() *QuadTree              { return resourceOrNil[QuadTree](s) }
func (s *Scene) Interactions() *InteractionTable { return resourceOrNil[InteractionTable](s) }
func (s *Scene) Surfaces() *SurfaceMap           { return resourceOrNil[SurfaceMap](s) }
func (s *Scene) Race() *RaceManager              { return resourceOrNil[RaceManager](s) }
func (s *Scene) Drivers() *DriverRoster          { return resourceOrNil[DriverRoster](s) }
func (s *Scene) Items() *ItemManager             { return resourceOrNil[ItemManager](s) }
func (s *Scene) Bananas() *BananaManager         { return resourceOrNil[BananaManager](s) }
func (s *Scene) Weather() *Weather               { return resourceOrNil[Weather](s) }
func (s *Scene) Rand() *rand.Rand                { return resourceOrNil[rand.Rand](s) }

var (
	typeOfCommands = reflect.TypeOf(Commands{})
	typeOfScene    = reflect.TypeOf(Scene{})
)

func (s *Scene) callSystemInternal(system systemFn) {
	systemType := reflect.TypeOf(system)
	systemValue := reflect.ValueOf(system)

	args := make([]reflect.Value, systemType.NumIn())

	for i := 0; i < systemType.NumIn(); i++ {
		argType := systemType.In(i)
		if argType.Kind() != reflect.Pointer {
			s.unresolved(systemValue, systemType, argType)
		}
		underlyingType := argType.Elem()

		if underlyingType == typeOfCommands {
			args[i] = reflect.ValueOf(&Commands{scene: s})
		} else if underlyingType == typeOfScene {
			args[i] = reflect.ValueOf(s)
		} else if resource, argIsResource := s.resources[underlyingType]; argIsResource {
			args[i] = reflect.ValueOf(resource)
		} else {
			s.unresolved(systemValue, systemType, argType)
		}
	}
	systemValue.Call(args)
}

func (s *Scene) unresolved(systemValue reflect.Value, systemType, argType reflect.Type) {
	msg := fmt.Sprintf("Unable to resolve System dependency.\nSystem: %s\nSystem type: %s\nDependency: %s",
		runtime.FuncForPC(systemValue.Pointer()).Name(),
		fmt.Sprint(systemType),
		fmt.Sprint(argType),
	)
	s.Logger().Errorf("%s", msg)
	panic(msg)
}

func (s *Scene) FlushCommands() {
	if len(s.pendingAdditions) == 0 && len(s.pendingRemovals) == 0 {
		return
	}

	// 1. Process Removals first (so we don't add to dead entities)
	for _, id := range s.pendingRemovals {
		n := len(s.pendingAdditions)
		s.pendingAdditions = slices.DeleteFunc(s.pendingAdditions, func(e *Entity) bool {
			return e.ID == id
		})
		if len(s.pendingAdditions) < n {
			// never registered, but interactions may already point at it
			if it := s.Interactions(); it != nil {
				it.PurgeEntity(id)
			}
			continue
		}
		s.Remove(id)
	}
	s.pendingRemovals = s.pendingRemovals[:0]

	// 2. Process Additions
	for _, e := range s.pendingAdditions {
		s.register(e)
	}
	s.pendingAdditions = s.pendingAdditions[:0]
}

func (s *Scene) reserveID() EntityID {
	id := s.nextID
	s.nextID++
	return id
}

// Add registers an entity immediately and returns its id. Vehicles get a race
// progress record and checkpoints join the race's ordered list.
func (s *Scene) Add(e *Entity) EntityID {
	e.ID = s.reserveID()
	s.register(e)
	return e.ID
}

func (s *Scene) register(e *Entity) {
	e.SyncCollider()
	s.entities[e.ID] = e
	s.ordered = append(s.ordered, e)

	if race := s.Race(); race != nil {
		if e.Vehicle != nil {
			race.AddCar(e)
		}
		if e.Checkpoint != nil {
			race.AddCheckpoint(e)
		}
	}
	s.Logger().Debugf("registered %s entity %d at (%.1f, %.1f)", e.Kind, e.ID, e.Position.X(), e.Position.Y())
}

// Remove unregisters an entity and drops every interaction that references it.
func (s *Scene) Remove(id EntityID) bool {
	e, ok := s.entities[id]
	if !ok {
		return false
	}
	delete(s.entities, id)
	if race := s.Race(); race != nil && e.Vehicle != nil {
		race.RemoveCar(e.Vehicle.CarID)
	}
	s.ordered = slices.DeleteFunc(s.ordered, func(e *Entity) bool { return e.ID == id })
	if it := s.Interactions(); it != nil {
		it.PurgeEntity(id)
	}
	return true
}

func (s *Scene) Entity(id EntityID) (*Entity, bool) {
	e, ok := s.entities[id]
	return e, ok
}

// Entities lists live entities in registration order. The slice is shared;
// callers must not hold it across a flush.
func (s *Scene) Entities() []*Entity {
	return s.ordered
}

// Vehicles lists live vehicle entities in registration order.
func (s *Scene) Vehicles() []*Entity {
	var out []*Entity
	for _, e := range s.ordered {
		if e.Vehicle != nil {
			out = append(out, e)
		}
	}
	return out
}

// Player returns the first player-controlled vehicle, or nil.
func (s *Scene) Player() *Entity {
	for _, e := range s.ordered {
		if e.Vehicle != nil && e.Vehicle.IsPlayer {
			return e
		}
	}
	return nil
}

// VehicleByCarID finds a vehicle by its race key.
func (s *Scene) VehicleByCarID(carID string) *Entity {
	for _, e := range s.ordered {
		if e.Vehicle != nil && e.Vehicle.CarID == carID {
			return e
		}
	}
	return nil
}

type EntitySnapshot struct {
	ID          EntityID
	Kind        Kind
	Position    mgl64.Vec2
	Rotation    float64
	VisualIndex int
}

// Snapshot copies what a presentation layer needs to draw the scene.
func (s *Scene) Snapshot() []EntitySnapshot {
	out := make([]EntitySnapshot, 0, len(s.ordered))
	for _, e := range s.ordered {
		out = append(out, EntitySnapshot{
			ID:          e.ID,
			Kind:        e.Kind,
			Position:    e.Position,
			Rotation:    e.Rotation,
			VisualIndex: e.VisualIndex(),
		})
	}
	return out
}
