package track

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/kajakengine/kajak"
)

const DefaultPlayerID = "player"

type Options struct {
	// PlayerID names the player car; DefaultPlayerID when empty.
	PlayerID string
	// UseGrid lines cars up with GridPositions instead of the per-car start
	// offsets of the file.
	UseGrid bool
}

// Populated lists the cars placed on the track.
type Populated struct {
	Player *kajak.Entity
	AI     []*kajak.Entity
}

// Populate registers the whole track on s. The scene must carry the default
// module stack.
func Populate(s *kajak.Scene, d *Description, opts Options) (*Populated, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if opts.PlayerID == "" {
		opts.PlayerID = DefaultPlayerID
	}
	log := s.Logger()

	surfaces := s.Surfaces()
	for i, seg := range d.Surfaces.Segments {
		t, _ := kajak.ParseSurfaceType(seg.Type)
		if err := surfaces.AddSegment(seg.Start.Vec(), seg.End.Vec(), seg.Width, t); err != nil {
			return nil, fmt.Errorf("surface %d: %w", i, err)
		}
	}

	for _, b := range d.MovingBarriers {
		s.AddSolid(kajak.NewMovingBarrierEntity(b.Position.Vec(), b.Size.Vec(), kajak.MovingBarrierConfig{
			MovementTime:   b.MovementTime,
			ClosedWaitTime: b.ClosedWaitTime,
			OpenWaitTime:   b.OpenWaitTime,
			Distance:       b.MovementDistance,
			Direction:      b.Direction,
		}))
	}

	for _, cp := range d.Checkpoints {
		s.Add(kajak.NewCheckpointEntity(cp.Order, cp.IsFinishLine, cp.Position.Vec(),
			mgl64.DegToRad(cp.Rotation), cp.Size.Vec(), cp.Collider.Offset.Vec(), cp.Collider.Size.Vec()))
	}

	for _, seg := range d.Barriers.Segments {
		s.AddSolid(kajak.NewBarrierEntity(seg.Start.Vec(), seg.End.Vec(), d.Barriers.Thickness))
	}

	for _, o := range d.Obstacles {
		vertices := make([]mgl64.Vec2, len(o.Vertices))
		for i, v := range o.Vertices {
			vertices[i] = v.Vec()
		}
		s.AddSolid(kajak.NewObstacleEntity(o.Position.Vec(), o.Size.Vec(), vertices))
	}

	out := &Populated{}
	rotation := mgl64.DegToRad(d.StartRotation)
	start := d.StartPosition.Vec()
	positions := make([]mgl64.Vec2, len(d.AICars)+1)
	if opts.UseGrid {
		positions = GridPositions(GridConfig{Start: start, Angle: rotation}, len(positions))
	} else {
		positions[0] = start
		for i, car := range d.AICars {
			positions[i+1] = start.Add(car.StartOffset.Vec())
		}
	}

	out.Player = kajak.NewVehicleEntity(kajak.NewVehicle(opts.PlayerID, true), positions[0], rotation)
	s.AddVehicle(out.Player)

	roster := s.Drivers()
	for i, car := range d.AICars {
		b, _ := kajak.ParseBehavior(car.Type)
		id := fmt.Sprintf("ai-%d", i+1)
		e := kajak.NewVehicleEntity(kajak.NewVehicle(id, false), positions[i+1], rotation)
		s.AddVehicle(e)
		roster.Assign(id, b)
		out.AI = append(out.AI, e)
	}

	for _, n := range d.NitroBonuses {
		s.AddPickup(kajak.NewNitroBonusEntity(n.Position.Vec(), n.Size.Vec(), n.Respawn))
	}

	if it := d.Items; it != nil {
		items := s.Items()
		if it.MaxItems > 0 {
			items.Config.MaxItems = it.MaxItems
		}
		if it.RespawnTime > 0 {
			items.Config.RespawnTime = it.RespawnTime
		}
		if it.SpawnInterval > 0 {
			items.Config.SpawnInterval = it.SpawnInterval
		}
		for _, p := range it.SpawnPoints {
			items.AddSpawnPoint(itemSpawnPoint(p))
		}
	}

	if w := d.Weather; w != nil {
		s.Weather().Configure(weatherConfig(w))
	}

	log.Infof("track %q loaded: %d checkpoints, %d barriers, %d ai cars",
		d.Name, len(d.Checkpoints), len(d.Barriers.Segments), len(d.AICars))
	return out, nil
}

func itemSpawnPoint(p ItemSpawnPoint) kajak.ItemSpawnPoint {
	out := kajak.ItemSpawnPoint{Position: p.Position.Vec(), Chance: p.Chance}
	// An omitted chance means the point is always eligible.
	if out.Chance == 0 {
		out.Chance = 1
	}
	for _, t := range p.Types {
		it, _ := kajak.ParseItemType(t)
		out.Types = append(out.Types, it)
	}
	return out
}

func weatherConfig(w *Weather) kajak.WeatherConfig {
	cfg := kajak.WeatherConfig{
		MinDuration: w.MinDuration,
		MaxDuration: w.MaxDuration,
	}
	if w.InitialWeather != "" {
		t, _ := kajak.ParseWeatherType(w.InitialWeather)
		cfg.Initial = &t
	}
	for _, a := range w.Allowed {
		t, _ := kajak.ParseWeatherType(a)
		cfg.Allowed = append(cfg.Allowed, t)
	}
	for _, p := range w.PuddleSpawnPoints {
		t, _ := parsePuddleType(p.Type)
		cfg.SpawnPoints = append(cfg.SpawnPoints, kajak.PuddleSpawnPoint{Position: p.Position.Vec(), Size: p.Size.Vec(), Type: t})
	}
	return cfg
}
