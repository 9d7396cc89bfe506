package kajak

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kajakengine/kajak/geom"
)

func puddlePoints(n int, t PuddleType) []PuddleSpawnPoint {
	out := make([]PuddleSpawnPoint, n)
	for i := range n {
		out[i] = PuddleSpawnPoint{Position: geom.Vec(float64(i)*10, 100), Size: geom.Vec(4, 4), Type: t}
	}
	return out
}

func countKind(s *Scene, k Kind) int {
	n := 0
	for _, e := range s.Entities() {
		if e.Kind == k {
			n++
		}
	}
	return n
}

func TestWeather_InactiveUntilConfigured(t *testing.T) {
	s := newTestScene(t)
	w := s.Weather()

	tickFor(s, time.Second)

	assert.False(t, w.Configured())
	assert.Equal(t, WeatherClear, w.Current())
	assert.Equal(t, []WeatherType{WeatherClear, WeatherRain, WeatherSnow}, w.Allowed())
}

func TestWeather_ConfigureWithInitialType(t *testing.T) {
	s := newTestScene(t)
	w := s.Weather()
	rain := WeatherRain

	w.Configure(WeatherConfig{
		Initial:     &rain,
		MinDuration: 10 * time.Second,
		MaxDuration: 20 * time.Second,
		SpawnPoints: puddlePoints(10, ""),
	})

	assert.Equal(t, WeatherRain, w.Current())
	assert.GreaterOrEqual(t, w.Remaining(), 10*time.Second)
	assert.LessOrEqual(t, w.Remaining(), 20*time.Second)
	assert.Len(t, w.Puddles(), 7)
	assert.Equal(t, 7, countKind(s, KindPuddle))
	for _, id := range w.Puddles() {
		e, ok := s.Entity(id)
		require.True(t, ok)
		assert.Equal(t, PuddleWater, e.Puddle.Type)
	}
}

func TestWeather_PatchTypesFollowSpawnPoints(t *testing.T) {
	s := newTestScene(t)
	w := s.Weather()
	snow := WeatherSnow
	points := append(puddlePoints(3, PuddleWater), puddlePoints(5, PuddleIce)...)

	w.Configure(WeatherConfig{Initial: &snow, SpawnPoints: points})

	assert.Len(t, w.Puddles(), 4, "ceil(0.7 * 5)")
	for _, id := range w.Puddles() {
		e, _ := s.Entity(id)
		assert.Equal(t, PuddleIce, e.Puddle.Type)
	}

	assert.Equal(t, WeatherClear, w.SetWeather(WeatherClear))
	assert.Empty(t, w.Puddles())
	assert.Zero(t, countKind(s, KindPuddle))
}

func TestWeather_SetWeatherFallsBackToClear(t *testing.T) {
	s := newTestScene(t)
	w := s.Weather()
	rain := WeatherRain
	w.Configure(WeatherConfig{
		Initial:     &rain,
		MaxDuration: time.Minute,
		Allowed:     []WeatherType{WeatherRain},
	})
	assert.Equal(t, []WeatherType{WeatherClear, WeatherRain}, w.Allowed())

	var changes []WeatherType
	w.OnChange(func(t WeatherType) { changes = append(changes, t) })

	assert.Equal(t, WeatherClear, w.SetWeather(WeatherSnow))
	assert.Equal(t, WeatherClear, w.Current())
	assert.Equal(t, time.Minute, w.Remaining())
	assert.Equal(t, []WeatherType{WeatherClear}, changes)
}

func TestWeather_CyclesWhenPeriodEnds(t *testing.T) {
	s := newTestScene(t)
	w := s.Weather()
	clear := WeatherClear
	w.Configure(WeatherConfig{
		Initial:     &clear,
		MinDuration: 100 * time.Millisecond,
		MaxDuration: 100 * time.Millisecond,
		SpawnPoints: puddlePoints(4, ""),
	})

	var changes []WeatherType
	w.OnChange(func(t WeatherType) { changes = append(changes, t) })
	tickFor(s, 120*time.Millisecond)

	require.Len(t, changes, 1)
	assert.NotEqual(t, WeatherClear, changes[0])
	assert.Equal(t, changes[0], w.Current())
	assert.Equal(t, 3, countKind(s, KindPuddle))
}

func TestPuddle_SlowsCarsWithCooldown(t *testing.T) {
	car, v := newCar(0)
	puddle := NewPuddleEntity(geom.Vec(0, 0), geom.Vec(0, 0), PuddleIce)
	require.Equal(t, geom.Vec(4, 4), puddle.Size)

	assert.True(t, puddle.Puddle.Apply(car, 0))
	assert.False(t, puddle.Puddle.Apply(car, PuddleCooldown-time.Millisecond))
	assert.Equal(t, 1, v.ActiveEffects())
	assert.True(t, puddle.Puddle.Apply(car, PuddleCooldown))
	assert.Equal(t, 2, v.ActiveEffects())
}

func TestPuddle_AppliesInScene(t *testing.T) {
	s := newTestScene(t)
	car := addCar(s, "p1", true, 0, 0, 0)
	s.AddPickup(NewPuddleEntity(geom.Vec(0, 0), geom.Vec(4, 4), PuddleWater))

	s.Tick(tick)
	assert.Equal(t, 1, car.Vehicle.ActiveEffects())

	s.Tick(tick)
	assert.Equal(t, 1, car.Vehicle.ActiveEffects(), "cooldown")
}

func TestParseWeatherType(t *testing.T) {
	got, err := ParseWeatherType(" snow ")
	require.NoError(t, err)
	assert.Equal(t, WeatherSnow, got)
	assert.Equal(t, "SNOW", got.String())

	_, err = ParseWeatherType("fog")
	assert.Error(t, err)
}
