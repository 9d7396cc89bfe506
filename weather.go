package kajak

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/kajakengine/kajak/geom"
)

const (
	DefaultWeatherMinDuration = 30 * time.Second
	DefaultWeatherMaxDuration = 120 * time.Second
	PuddleCooldown            = 500 * time.Millisecond
	// PuddleCoverage is the share of matching spawn points that get a patch.
	PuddleCoverage = 0.7
)

type WeatherType int

const (
	WeatherClear WeatherType = iota
	WeatherRain
	WeatherSnow
)

func (w WeatherType) String() string {
	switch w {
	case WeatherClear:
		return "CLEAR"
	case WeatherRain:
		return "RAIN"
	case WeatherSnow:
		return "SNOW"
	}
	return fmt.Sprintf("WeatherType(%d)", int(w))
}

func ParseWeatherType(s string) (WeatherType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CLEAR":
		return WeatherClear, nil
	case "RAIN":
		return WeatherRain, nil
	case "SNOW":
		return WeatherSnow, nil
	}
	return WeatherClear, fmt.Errorf("unknown weather type %q", s)
}

type PuddleType string

const (
	PuddleWater PuddleType = "puddle"
	PuddleIce   PuddleType = "ice"
)

func (t PuddleType) effect() SurfaceProperties {
	if t == PuddleIce {
		return SurfaceProperties{Grip: 0.4, Drag: 1.1}
	}
	return SurfaceProperties{Grip: 0.7, Drag: 1.2}
}

// Puddle is a weather patch that briefly worsens the grip of cars crossing it.
type Puddle struct {
	Type    PuddleType
	lastHit map[string]time.Duration
}

func NewPuddleEntity(position, size mgl64.Vec2, t PuddleType) *Entity {
	if size.X() <= 0 || size.Y() <= 0 {
		size = geom.Vec(4, 4)
	}
	return &Entity{
		Kind:     KindPuddle,
		Position: position,
		Size:     size,
		Sprite:   Sprite{Count: 1},
		Collider: geom.NewCenteredBox(size),
		Puddle:   &Puddle{Type: t, lastHit: make(map[string]time.Duration)},
	}
}

// Apply hands the car a temporary surface effect unless this patch already
// did so within PuddleCooldown.
func (p *Puddle) Apply(car *Entity, now time.Duration) bool {
	id := car.Vehicle.CarID
	if last, ok := p.lastHit[id]; ok && now-last < PuddleCooldown {
		return false
	}
	car.Vehicle.ApplyTemporarySurfaceEffect(p.Type.effect(), DefaultEffectDuration)
	p.lastHit[id] = now
	return true
}

type PuddleSpawnPoint struct {
	Position mgl64.Vec2
	Size     mgl64.Vec2
	// Type restricts the point to one patch type; empty accepts both.
	Type PuddleType
}

type WeatherConfig struct {
	// Initial is used for the first period; nil picks one at random.
	Initial     *WeatherType
	MinDuration time.Duration
	MaxDuration time.Duration
	Allowed     []WeatherType
	SpawnPoints []PuddleSpawnPoint
}

// Weather cycles the track through its allowed conditions and keeps the
// matching puddles or ice patches on the ground.
type Weather struct {
	configured bool
	current    WeatherType
	allowed    []WeatherType
	minDur     time.Duration
	maxDur     time.Duration
	timer      time.Duration
	duration   time.Duration
	points     []PuddleSpawnPoint
	puddles    []EntityID
	listeners  []func(WeatherType)

	scene  *Scene
	logger Logger
}

func (w *Weather) SetLogger(l Logger) { w.logger = l }

func (w *Weather) Current() WeatherType { return w.current }

func (w *Weather) Configured() bool { return w.configured }

// Remaining is the time left before the next change.
func (w *Weather) Remaining() time.Duration { return max(0, w.duration-w.timer) }

func (w *Weather) Allowed() []WeatherType { return slices.Clone(w.allowed) }

// Puddles lists the patches currently on the track.
func (w *Weather) Puddles() []EntityID { return slices.Clone(w.puddles) }

// OnChange registers fn to run whenever the weather changes.
func (w *Weather) OnChange(fn func(WeatherType)) {
	w.listeners = append(w.listeners, fn)
}

// Configure enables the weather cycle for the current track.
func (w *Weather) Configure(cfg WeatherConfig) {
	w.configured = true
	w.minDur = cfg.MinDuration
	if w.minDur <= 0 {
		w.minDur = DefaultWeatherMinDuration
	}
	w.maxDur = cfg.MaxDuration
	if w.maxDur <= 0 {
		w.maxDur = DefaultWeatherMaxDuration
	}
	if w.maxDur < w.minDur {
		w.maxDur = w.minDur
	}
	w.points = slices.Clone(cfg.SpawnPoints)
	w.SetAllowed(cfg.Allowed)

	if cfg.Initial != nil {
		w.timer = 0
		w.duration = w.randomDuration()
		w.apply(*cfg.Initial)
	} else {
		w.randomize()
	}
	w.scene.FlushCommands()
}

// SetAllowed replaces the allowed types. CLEAR is always allowed.
func (w *Weather) SetAllowed(types []WeatherType) {
	if len(types) == 0 {
		w.allowed = []WeatherType{WeatherClear, WeatherRain, WeatherSnow}
		return
	}
	w.allowed = slices.Clone(types)
	if !slices.Contains(w.allowed, WeatherClear) {
		w.allowed = append([]WeatherType{WeatherClear}, w.allowed...)
	}
}

// SetWeather forces a type for a full MaxDuration. Disallowed types fall
// back to CLEAR.
func (w *Weather) SetWeather(t WeatherType) WeatherType {
	if !slices.Contains(w.allowed, t) {
		w.log().Warnf("weather %s is not allowed on this track, using CLEAR", t)
		t = WeatherClear
	}
	w.timer = 0
	w.duration = w.maxDur
	w.apply(t)
	w.scene.FlushCommands()
	return t
}

func (w *Weather) randomDuration() time.Duration {
	span := float64(w.maxDur - w.minDur)
	return w.minDur + time.Duration(w.scene.Rand().Float64()*span)
}

func (w *Weather) randomize() {
	options := slices.DeleteFunc(slices.Clone(w.allowed), func(t WeatherType) bool { return t == w.current })
	if len(options) == 0 {
		w.apply(WeatherClear)
		return
	}
	next := options[w.scene.Rand().IntN(len(options))]
	w.duration = w.randomDuration()
	w.timer = 0
	w.log().Infof("weather changing to %s for %s", next, w.duration.Round(time.Second))
	w.apply(next)
}

func (w *Weather) apply(t WeatherType) {
	changed := w.current != t
	w.current = t
	switch t {
	case WeatherRain:
		w.createPuddles(PuddleWater)
	case WeatherSnow:
		w.createPuddles(PuddleIce)
	default:
		w.removePuddles()
	}
	if changed {
		for _, fn := range w.listeners {
			fn(t)
		}
	}
}

func (w *Weather) removePuddles() {
	cmd := w.scene.Commands()
	for _, id := range w.puddles {
		cmd.Remove(id)
	}
	w.puddles = w.puddles[:0]
}

func (w *Weather) createPuddles(t PuddleType) {
	w.removePuddles()
	available := slices.DeleteFunc(slices.Clone(w.points), func(p PuddleSpawnPoint) bool {
		return p.Type != "" && p.Type != t
	})
	if len(available) == 0 {
		return
	}
	rng := w.scene.Rand()
	rng.Shuffle(len(available), func(i, j int) { available[i], available[j] = available[j], available[i] })
	n := int(math.Ceil(float64(len(available)) * PuddleCoverage))

	cmd := w.scene.Commands()
	for _, p := range available[:n] {
		w.puddles = append(w.puddles, cmd.spawnPickup(NewPuddleEntity(p.Position, p.Size, t)))
	}
	w.log().Debugf("created %d %s patches", n, t)
}

func (w *Weather) update(dt time.Duration) {
	if !w.configured {
		return
	}
	w.timer += dt
	if w.timer >= w.duration {
		w.randomize()
	}
}

func (w *Weather) log() Logger {
	if w.logger == nil {
		return NewNopLogger()
	}
	return w.logger
}

type WeatherModule struct{}

func (m WeatherModule) Install(s *Scene, cmd *Commands) {
	w := &Weather{scene: s}
	w.SetAllowed(nil)
	cmd.AddResources(w)
	cmd.UseSystem(System(weatherSystem).InStage(Ambient))
}

func weatherSystem(t *Time, w *Weather) {
	w.update(t.Dt)
}
