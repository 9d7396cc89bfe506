package kajak

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/kajakengine/kajak/geom"
)

const (
	NitroRespawnTime     = 30 * time.Second
	ItemRespawnTime      = 15 * time.Second
	ItemSpawnInterval    = 10 * time.Second
	DefaultMaxItems      = 5
	InitialItems         = 3
	DefaultMaxBananas    = 10
	BananaLifespan       = 20 * time.Second
	BananaDropDistance   = 3.0
	checkpointItemJitter = 6.0
)

// respawner deactivates on pickup and comes back after a delay. A one-shot
// respawner stays down and only tracks how long it has been inactive.
type respawner struct {
	RespawnTime time.Duration
	oneShot     bool
	inactive    bool
	since       time.Duration
}

func (r *respawner) Active() bool { return !r.inactive }

func (r *respawner) deactivate() {
	r.inactive = true
	r.since = 0
}

func (r *respawner) update(dt time.Duration) {
	if !r.inactive {
		return
	}
	r.since += dt
	if !r.oneShot && r.since > r.RespawnTime {
		r.inactive = false
	}
}

// NitroBonus refills the nitro tank of the car that drives over it.
type NitroBonus struct {
	respawner
	// Amount is added to the tank; zero fills it.
	Amount float64
}

func NewNitroBonusEntity(position, size mgl64.Vec2, respawn time.Duration) *Entity {
	if size.X() <= 0 || size.Y() <= 0 {
		size = geom.Vec(2, 2)
	}
	if respawn <= 0 {
		respawn = NitroRespawnTime
	}
	return &Entity{
		Kind:       KindNitroBonus,
		Position:   position,
		Size:       size,
		Sprite:     Sprite{Count: 8},
		Collider:   geom.NewCenteredBox(size),
		NitroBonus: &NitroBonus{respawner: respawner{RespawnTime: respawn}},
	}
}

type ItemType string

const BananaItem ItemType = "bananaPeel"

func ParseItemType(s string) (ItemType, error) {
	switch s {
	case "banana", "bananaPeel", "":
		return BananaItem, nil
	}
	return "", fmt.Errorf("unknown item type %q", s)
}

// ItemPickup is a lucky box that hands out one item charge.
type ItemPickup struct {
	respawner
	Type ItemType
}

func NewItemPickupEntity(position mgl64.Vec2, t ItemType, respawn time.Duration) *Entity {
	if respawn <= 0 {
		respawn = ItemRespawnTime
	}
	size := geom.Vec(2, 2)
	return &Entity{
		Kind:       KindItemPickup,
		Position:   position,
		Size:       size,
		Sprite:     Sprite{Count: 8},
		Collider:   geom.NewCenteredBox(size),
		ItemPickup: &ItemPickup{respawner: respawner{RespawnTime: respawn}, Type: t},
	}
}

// BananaPeel spins out any car other than the one that dropped it.
type BananaPeel struct {
	Owner  string
	active bool
}

func (b *BananaPeel) Active() bool { return b.active }

func NewBananaPeelEntity(position mgl64.Vec2, owner string, lifespan time.Duration) *Entity {
	size := geom.Vec(1.5, 1.5)
	e := &Entity{
		Kind:       KindBananaPeel,
		Position:   position,
		Size:       size,
		Sprite:     Sprite{Count: 4},
		Collider:   geom.NewCenteredBox(size),
		Body:       Body{Mass: 1},
		BananaPeel: &BananaPeel{Owner: owner, active: true},
	}
	if lifespan > 0 {
		e.Lifetime = &Lifetime{Remaining: lifespan}
	}
	return e
}

func nitroReaction(car, item *Entity, _ *geom.Contact) {
	v, bonus := car.Vehicle, item.NitroBonus
	if v == nil || bonus == nil || !bonus.Active() {
		return
	}
	amount := bonus.Amount
	if amount <= 0 {
		amount = v.MaxNitro
	}
	if v.RefillNitro(amount) {
		bonus.deactivate()
	}
}

func pickupReaction(car, item *Entity, _ *geom.Contact) {
	v, box := car.Vehicle, item.ItemPickup
	if v == nil || box == nil || !box.Active() {
		return
	}
	collected := false
	switch box.Type {
	case BananaItem:
		collected = v.CollectBananaPeel()
	}
	if collected {
		box.deactivate()
	}
}

func (s *Scene) bananaReaction(car, item *Entity, _ *geom.Contact) {
	v, peel := car.Vehicle, item.BananaPeel
	if v == nil || peel == nil || !peel.active || v.CarID == peel.Owner {
		return
	}
	v.ApplySlip(car, s.Rand())
	peel.active = false
	s.Logger().Infof("car %s slipped on a banana peel", v.CarID)
}

func (s *Scene) puddleReaction(car, item *Entity, _ *geom.Contact) {
	if car.Vehicle == nil || item.Puddle == nil {
		return
	}
	item.Puddle.Apply(car, s.Time().Now)
}

// itemReaction picks the reaction a car has to a collectible or hazard.
func (s *Scene) itemReaction(item *Entity) Reaction {
	switch {
	case item.NitroBonus != nil:
		return nitroReaction
	case item.ItemPickup != nil:
		return pickupReaction
	case item.BananaPeel != nil:
		return s.bananaReaction
	case item.Puddle != nil:
		return s.puddleReaction
	}
	return nil
}

func (s *Scene) pairWithVehicles(item *Entity) {
	react := s.itemReaction(item)
	if react == nil {
		return
	}
	for _, car := range s.Vehicles() {
		s.Interactions().Add(car.ID, item.ID, react)
	}
}

// AddPickup registers a collectible or hazard and pairs it with every car.
func (s *Scene) AddPickup(e *Entity) EntityID {
	id := s.Add(e)
	s.pairWithVehicles(e)
	return id
}

func (cmd *Commands) spawnPickup(e *Entity) EntityID {
	id := cmd.Spawn(e)
	cmd.scene.pairWithVehicles(e)
	return id
}

type ItemSpawnPoint struct {
	Position mgl64.Vec2
	Types    []ItemType
	// Chance is the probability the point is eligible on a spawn attempt.
	Chance float64
}

type ItemManagerConfig struct {
	MaxItems      int
	RespawnTime   time.Duration
	SpawnInterval time.Duration
}

func DefaultItemManagerConfig() ItemManagerConfig {
	return ItemManagerConfig{
		MaxItems:      DefaultMaxItems,
		RespawnTime:   ItemRespawnTime,
		SpawnInterval: ItemSpawnInterval,
	}
}

// ItemManager scatters lucky boxes over the track while the race runs.
type ItemManager struct {
	Config  ItemManagerConfig
	points  []ItemSpawnPoint
	items   []*Entity
	started bool
	timer   time.Duration
	scene   *Scene
}

func (m *ItemManager) AddSpawnPoint(p ItemSpawnPoint) {
	m.points = append(m.points, p)
}

func (m *ItemManager) Started() bool { return m.started }

// Start drops the initial boxes and begins periodic spawning.
func (m *ItemManager) Start() {
	if m.started {
		return
	}
	m.started = true
	cmd := m.scene.Commands()
	for range min(InitialItems, m.Config.MaxItems) {
		m.spawnRandom(cmd)
	}
	m.scene.FlushCommands()
}

func (m *ItemManager) Stop() { m.started = false }

// ActiveCount counts boxes that can currently be collected.
func (m *ItemManager) ActiveCount() int {
	n := 0
	for _, e := range m.items {
		if e.ItemPickup.Active() {
			n++
		}
	}
	return n
}

func (m *ItemManager) spawnRandom(cmd *Commands) bool {
	if m.ActiveCount() >= m.Config.MaxItems {
		return false
	}
	rng := m.scene.Rand()
	point, ok := m.pickPoint(rng)
	if !ok {
		return false
	}
	t := BananaItem
	if len(point.Types) > 0 {
		t = point.Types[rng.IntN(len(point.Types))]
	}
	e := NewItemPickupEntity(point.Position, t, m.Config.RespawnTime)
	e.ItemPickup.oneShot = true
	cmd.spawnPickup(e)
	m.items = append(m.items, e)
	return true
}

func (m *ItemManager) pickPoint(rng *rand.Rand) (ItemSpawnPoint, bool) {
	if len(m.points) == 0 {
		return m.pointNearCheckpoint(rng)
	}
	var eligible []ItemSpawnPoint
	for _, p := range m.points {
		if rng.Float64() <= p.Chance {
			eligible = append(eligible, p)
		}
	}
	if len(eligible) == 0 {
		return ItemSpawnPoint{}, false
	}
	return eligible[rng.IntN(len(eligible))], true
}

func (m *ItemManager) pointNearCheckpoint(rng *rand.Rand) (ItemSpawnPoint, bool) {
	race := m.scene.Race()
	if race == nil || len(race.Checkpoints()) == 0 {
		return ItemSpawnPoint{}, false
	}
	cps := race.Checkpoints()
	cp := cps[rng.IntN(len(cps))]
	jitter := geom.Vec((rng.Float64()-0.5)*checkpointItemJitter, (rng.Float64()-0.5)*checkpointItemJitter)
	return ItemSpawnPoint{Position: cp.Position.Add(jitter), Chance: 1}, true
}

func (m *ItemManager) update(dt time.Duration, cmd *Commands) {
	if !m.started {
		return
	}
	m.timer += dt
	if m.timer >= m.Config.SpawnInterval {
		m.timer = 0
		m.spawnRandom(cmd)
	}
	// Collected boxes stay down and are cleared once stale; the interval
	// spawner replaces them.
	stale := m.Config.RespawnTime * 3 / 2
	m.items = slices.DeleteFunc(m.items, func(e *Entity) bool {
		box := e.ItemPickup
		if box.Active() || box.since <= stale {
			return false
		}
		cmd.Remove(e.ID)
		return true
	})
}

// BananaManager owns the peels lying on the track.
type BananaManager struct {
	MaxActive int
	Lifespan  time.Duration
	peels     []*Entity
	scene     *Scene
}

// ActiveCount counts peels still able to spin a car out.
func (m *BananaManager) ActiveCount() int {
	n := 0
	for _, e := range m.peels {
		if e.BananaPeel.active {
			n++
		}
	}
	return n
}

// Drop spends one of the car's charges and leaves a peel behind it.
func (m *BananaManager) Drop(cmd *Commands, car *Entity) (EntityID, bool) {
	if car.Vehicle == nil || !car.Vehicle.UseBananaPeel() {
		return 0, false
	}
	pos := car.Position.Sub(car.Forward().Mul(BananaDropDistance))
	return m.Place(cmd, pos, car.Vehicle.CarID), true
}

// Place puts a peel at pos, removing the oldest active one when full.
func (m *BananaManager) Place(cmd *Commands, pos mgl64.Vec2, owner string) EntityID {
	if m.ActiveCount() >= m.MaxActive {
		m.removeOldest(cmd)
	}
	e := NewBananaPeelEntity(pos, owner, m.Lifespan)
	id := cmd.spawnPickup(e)
	m.peels = append(m.peels, e)
	return id
}

func (m *BananaManager) removeOldest(cmd *Commands) {
	for i, e := range m.peels {
		if e.BananaPeel.active {
			e.BananaPeel.active = false
			cmd.Remove(e.ID)
			m.peels = slices.Delete(m.peels, i, i+1)
			return
		}
	}
}

func (m *BananaManager) update(cmd *Commands) {
	m.peels = slices.DeleteFunc(m.peels, func(e *Entity) bool {
		expired := e.Lifetime != nil && e.Lifetime.Remaining <= 0
		if e.BananaPeel.active && !expired {
			return false
		}
		cmd.Remove(e.ID)
		return true
	})
}

// DropBananaPeel makes the car with carID drop a peel if it has one.
func (s *Scene) DropBananaPeel(carID string) (EntityID, bool) {
	car := s.VehicleByCarID(carID)
	bananas := s.Bananas()
	if car == nil || bananas == nil {
		return 0, false
	}
	id, ok := bananas.Drop(s.Commands(), car)
	s.FlushCommands()
	return id, ok
}

type ItemsModule struct {
	Items ItemManagerConfig
}

func (m ItemsModule) Install(s *Scene, cmd *Commands) {
	cfg := m.Items
	def := DefaultItemManagerConfig()
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = def.MaxItems
	}
	if cfg.RespawnTime <= 0 {
		cfg.RespawnTime = def.RespawnTime
	}
	if cfg.SpawnInterval <= 0 {
		cfg.SpawnInterval = def.SpawnInterval
	}
	cmd.AddResources(
		&ItemManager{Config: cfg, scene: s},
		&BananaManager{MaxActive: DefaultMaxBananas, Lifespan: BananaLifespan, scene: s},
	)
	cmd.UseSystem(System(itemsSystem).InStage(Ambient))
}

func itemsSystem(s *Scene, t *Time, items *ItemManager, bananas *BananaManager, cmd *Commands) {
	for _, e := range s.Entities() {
		switch {
		case e.NitroBonus != nil:
			e.NitroBonus.update(t.Dt)
		case e.ItemPickup != nil:
			e.ItemPickup.update(t.Dt)
		}
	}
	items.update(t.Dt, cmd)
	bananas.update(cmd)
}
