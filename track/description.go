package track

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/kajakengine/kajak/geom"
)

// Point is a 2D position in track units.
type Point struct {
	X float64 `json:"x" mapstructure:"x"`
	Y float64 `json:"y" mapstructure:"y"`
}

func (p Point) Vec() mgl64.Vec2 { return mgl64.Vec2{p.X, p.Y} }

type Bounds struct {
	X      float64 `json:"x" mapstructure:"x"`
	Y      float64 `json:"y" mapstructure:"y"`
	Width  float64 `json:"width" mapstructure:"width"`
	Height float64 `json:"height" mapstructure:"height"`
}

type CheckpointCollider struct {
	Offset Point `json:"offset" mapstructure:"offset"`
	Size   Point `json:"size" mapstructure:"size"`
}

type Checkpoint struct {
	Position Point `json:"position" mapstructure:"position"`
	Size     Point `json:"size" mapstructure:"size"`
	// Rotation is in degrees.
	Rotation     float64            `json:"rotation" mapstructure:"rotation"`
	Order        int                `json:"order" mapstructure:"order"`
	IsFinishLine bool               `json:"isFinishLine" mapstructure:"isFinishLine"`
	Collider     CheckpointCollider `json:"collider" mapstructure:"collider"`
}

type Segment struct {
	Start Point `json:"start" mapstructure:"start"`
	End   Point `json:"end" mapstructure:"end"`
}

type Barriers struct {
	Thickness float64   `json:"thickness" mapstructure:"thickness"`
	Segments  []Segment `json:"segments" mapstructure:"segments"`
}

type AICar struct {
	// Type is a driver behaviour name such as "steady-middle".
	Type        string `json:"type" mapstructure:"type"`
	StartOffset Point  `json:"startOffset" mapstructure:"startOffset"`
}

type Obstacle struct {
	Position Point   `json:"position" mapstructure:"position"`
	Size     Point   `json:"size" mapstructure:"size"`
	Vertices []Point `json:"vertices" mapstructure:"vertices"`
}

type SurfaceSegment struct {
	Start Point   `json:"start" mapstructure:"start"`
	End   Point   `json:"end" mapstructure:"end"`
	Width float64 `json:"width" mapstructure:"width"`
	Type  string  `json:"type" mapstructure:"type"`
}

type Surfaces struct {
	Segments []SurfaceSegment `json:"segments" mapstructure:"segments"`
}

type MovingBarrier struct {
	Position         Point         `json:"position" mapstructure:"position"`
	Size             Point         `json:"size" mapstructure:"size"`
	MovementTime     time.Duration `json:"movementTime" mapstructure:"movementTime"`
	ClosedWaitTime   time.Duration `json:"closedWaitTime" mapstructure:"closedWaitTime"`
	OpenWaitTime     time.Duration `json:"openWaitTime" mapstructure:"openWaitTime"`
	MovementDistance float64       `json:"movementDistance" mapstructure:"movementDistance"`
	Direction        float64       `json:"direction" mapstructure:"direction"`
}

type PuddleSpawnPoint struct {
	Position Point `json:"position" mapstructure:"position"`
	Size     Point `json:"size" mapstructure:"size"`
	// Type is "puddle", "ice" or empty for either.
	Type string `json:"type" mapstructure:"type"`
}

type Weather struct {
	InitialWeather    string             `json:"initialWeather" mapstructure:"initialWeather"`
	MinDuration       time.Duration      `json:"minDuration" mapstructure:"minDuration"`
	MaxDuration       time.Duration      `json:"maxDuration" mapstructure:"maxDuration"`
	Allowed           []string           `json:"allowed" mapstructure:"allowed"`
	PuddleSpawnPoints []PuddleSpawnPoint `json:"puddleSpawnPoints" mapstructure:"puddleSpawnPoints"`
}

type NitroBonus struct {
	Position Point         `json:"position" mapstructure:"position"`
	Size     Point         `json:"size" mapstructure:"size"`
	Respawn  time.Duration `json:"respawn" mapstructure:"respawn"`
}

type ItemSpawnPoint struct {
	Position Point    `json:"position" mapstructure:"position"`
	Types    []string `json:"types" mapstructure:"types"`
	Chance   float64  `json:"chance" mapstructure:"chance"`
}

type Items struct {
	MaxItems      int              `json:"maxItems" mapstructure:"maxItems"`
	RespawnTime   time.Duration    `json:"respawnTime" mapstructure:"respawnTime"`
	SpawnInterval time.Duration    `json:"spawnInterval" mapstructure:"spawnInterval"`
	SpawnPoints   []ItemSpawnPoint `json:"spawnPoints" mapstructure:"spawnPoints"`
}

// Description is a track file: the static layout plus everything that is
// spawned on it when a race is set up.
type Description struct {
	Name          string `json:"name" mapstructure:"name"`
	WorldBounds   Bounds `json:"worldBounds" mapstructure:"worldBounds"`
	StartPosition Point  `json:"startPosition" mapstructure:"startPosition"`
	// StartRotation is in degrees.
	StartRotation  float64         `json:"startRotation" mapstructure:"startRotation"`
	Checkpoints    []Checkpoint    `json:"checkpoints" mapstructure:"checkpoints"`
	Barriers       Barriers        `json:"barriers" mapstructure:"barriers"`
	AICars         []AICar         `json:"aiCars" mapstructure:"aiCars"`
	Obstacles      []Obstacle      `json:"obstacles" mapstructure:"obstacles"`
	Surfaces       Surfaces        `json:"surfaces" mapstructure:"surfaces"`
	MovingBarriers []MovingBarrier `json:"movingBarriers" mapstructure:"movingBarriers"`
	Weather        *Weather        `json:"weather" mapstructure:"weather"`
	NitroBonuses   []NitroBonus    `json:"nitroBonuses" mapstructure:"nitroBonuses"`
	Items          *Items          `json:"items" mapstructure:"items"`
}

// World is the spatial index boundary; zero when the file does not set one.
func (d *Description) World() geom.Rect {
	b := d.WorldBounds
	if b.Width <= 0 || b.Height <= 0 {
		return geom.Rect{}
	}
	return geom.RectXYWH(b.X, b.Y, b.Width, b.Height)
}
