package kajak

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kajakengine/kajak/geom"
)

func newConsoleScene(t *testing.T) (*Scene, *Console, *Entity) {
	t.Helper()
	s := newTestScene(t)
	player := addCar(s, "p1", true, 0, 0, 0)
	return s, NewConsole(s), player
}

func TestConsole_Teleport(t *testing.T) {
	_, c, player := newConsoleScene(t)

	out := c.Execute("tp 10 5")

	assert.Equal(t, "Teleported player to (10, 5)", out)
	assert.Equal(t, geom.Vec(10, 5), player.Position)
	assert.True(t, player.Collider.ContainsPoint(geom.Vec(10, 5)))
}

func TestConsole_Errors(t *testing.T) {
	_, c, player := newConsoleScene(t)

	tests := map[string]string{
		"warp 1 2":   "unknown command",
		"tp 1":       "usage: tp x y",
		"tp a 1":     "x must be a number",
		"tp NaN 0":   "x must be a number",
		"tp 0 +Inf":  "y must be a number",
		"nitro Inf":  "amount must be a number",
		"nitro -5":   "must not be negative",
		"banana 0":   "positive integer",
		"weather hm": "unknown weather type",
		"spawn tank": "unknown item",
		"drop":       "no banana peels",
		"debug hmm":  "usage: debug",
	}
	for line, want := range tests {
		out := c.Execute(line)
		assert.True(t, strings.HasPrefix(out, "Error: "), line)
		assert.Contains(t, out, want, line)
	}
	assert.Equal(t, geom.Vec(0, 0), player.Position)
	assert.Empty(t, c.Execute("   "))
}

func TestConsole_NeedsPlayer(t *testing.T) {
	c := NewConsole(newTestScene(t))
	assert.Equal(t, "Error: no player car in the scene", c.Execute("tp 1 1"))
}

func TestConsole_NitroAndBananas(t *testing.T) {
	_, c, player := newConsoleScene(t)

	assert.Equal(t, "Nitro set to 100/100", c.Execute("nitro"))
	assert.Equal(t, "Nitro set to 40/100", c.Execute("NITRO 40"))
	assert.InDelta(t, 40, player.Vehicle.Nitro(), 1e-9)
	require.True(t, player.Vehicle.ActivateNitro())
	assert.Equal(t, "Error: nitro is active", c.Execute("nitro"))
	assert.InDelta(t, 40, player.Vehicle.Nitro(), 1e-9)

	assert.Equal(t, "Gave 3 banana peel(s), player has 3", c.Execute("banana 5"))
	out := c.Execute("drop")
	assert.True(t, strings.HasPrefix(out, "Dropped banana peel"), out)
	assert.Equal(t, 2, player.Vehicle.BananaPeels())
}

func TestConsole_Weather(t *testing.T) {
	s, c, _ := newConsoleScene(t)

	assert.Equal(t, "Current weather: CLEAR", c.Execute("weather"))
	assert.Equal(t, "Weather set to RAIN", c.Execute("weather rain"))
	assert.Equal(t, WeatherRain, s.Weather().Current())
}

func TestConsole_Spawn(t *testing.T) {
	s, c, player := newConsoleScene(t)

	for _, what := range []string{"nitro", "item", "banana", "puddle", "ice"} {
		out := c.Execute("spawn " + what)
		assert.True(t, strings.HasPrefix(out, "Spawned"), out)
	}

	assert.Equal(t, 1, countKind(s, KindNitroBonus))
	assert.Equal(t, 1, countKind(s, KindItemPickup))
	assert.Equal(t, 1, countKind(s, KindBananaPeel))
	assert.Equal(t, 2, countKind(s, KindPuddle))
	assert.Len(t, s.Interactions().Involving(player.ID), 5)
	for _, e := range s.Entities() {
		if e != player {
			assert.Equal(t, geom.Vec(0, spawnAheadDistance), e.Position)
		}
	}
}

func TestConsole_StatsAndDebug(t *testing.T) {
	s, c, _ := newConsoleScene(t)
	s.SetLogger(newLoggerTo(&strings.Builder{}, "", false))

	out := c.Execute("stats")
	assert.Equal(t, "Position 1 | Lap 1/3 | Best 0.00s | Last 0.00s | Nitro 0/100 | Bananas 0", out)

	assert.Equal(t, "Debug mode on", c.Execute("debug"))
	assert.True(t, s.Logger().DebugEnabled())
	assert.Equal(t, "Debug mode off", c.Execute("debug off"))
	assert.False(t, s.Logger().DebugEnabled())
}

func TestConsole_Help(t *testing.T) {
	_, c, _ := newConsoleScene(t)

	lines := strings.Split(c.Execute("help"), "\n")

	require.Len(t, lines, len(c.commands))
	assert.Equal(t, "banana [count] - give the player banana peels", lines[0])
}
