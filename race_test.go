package kajak

import (
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kajakengine/kajak/geom"
)

// gates builds n checkpoints 20 units apart along +Y; the last one is the
// finish line.
func gates(n int) []*Entity {
	out := make([]*Entity, n)
	for i := range n {
		e := NewCheckpointEntity(i, i == n-1, geom.Vec(0, float64(i)*20), 0,
			geom.Vec(4, 1), geom.Vec(-2, -2), geom.Vec(4, 4))
		e.SyncCollider()
		out[i] = e
	}
	return out
}

type raceRig struct {
	race  *RaceManager
	gates []*Entity
	now   time.Duration
}

func newRaceRig(cfg RaceConfig, n int) *raceRig {
	r := &raceRig{race: NewRaceManager(cfg), gates: gates(n)}
	for _, g := range r.gates {
		r.race.AddCheckpoint(g)
	}
	return r
}

func (r *raceRig) car(id string, player bool) *Entity {
	e := NewVehicleEntity(NewVehicle(id, player), geom.Vec(50, 0), 0)
	e.SyncCollider()
	r.race.AddCar(e)
	return e
}

func (r *raceRig) place(e *Entity, p mgl64.Vec2) {
	e.Position = p
	e.SyncCollider()
}

func (r *raceRig) step() {
	r.now += tick
	r.race.Update(r.now)
}

// cross drives e over the gates with the given indices, one tick per gate.
func (r *raceRig) cross(e *Entity, indices ...int) {
	for _, i := range indices {
		r.place(e, r.gates[i].Position)
		r.step()
	}
	r.place(e, geom.Vec(50, 0))
}

func (r *raceRig) lap(e *Entity) {
	for i := range r.gates {
		r.cross(e, i)
	}
}

func TestRaceManager_FullRaceYieldsOneResult(t *testing.T) {
	rig := newRaceRig(RaceConfig{TotalLaps: 3}, 7)
	player := rig.car("p1", true)

	var laps []int
	rig.race.OnLap(func(ev LapEvent) { laps = append(laps, ev.Lap) })
	var finished []RaceResult
	rig.race.OnFinish(func(res RaceResult) { finished = append(finished, res) })

	for range 3 {
		assert.False(t, rig.race.Finished())
		rig.lap(player)
	}

	assert.True(t, rig.race.Finished())
	assert.Equal(t, []int{1, 2, 3}, laps)
	results := rig.race.Results()
	require.Len(t, results, 1)
	assert.Equal(t, finished, results)
	assert.Equal(t, RaceResult{
		Position: 1,
		CarID:    "p1",
		IsPlayer: true,
		Time:     21 * tick,
		Laps:     3,
		BestLap:  7 * tick,
	}, results[0])

	// A finished car is no longer tracked.
	rig.lap(player)
	assert.Len(t, rig.race.Results(), 1)
	p, _ := rig.race.Progress("p1")
	assert.Equal(t, 3, p.CurrentLap)
	assert.Len(t, p.LapTimes, 3)
}

func TestRaceManager_GatesMustBeTakenInOrder(t *testing.T) {
	rig := newRaceRig(RaceConfig{TotalLaps: 1}, 4)
	car := rig.car("p1", true)

	rig.cross(car, 1, 2, 3)
	p, _ := rig.race.Progress("p1")
	assert.Equal(t, -1, p.LastCheckpoint)

	rig.cross(car, 0, 2)
	p, _ = rig.race.Progress("p1")
	assert.Equal(t, 0, p.LastCheckpoint)

	rig.cross(car, 1, 2, 3)
	p, _ = rig.race.Progress("p1")
	assert.Equal(t, 1, p.CurrentLap)
	assert.True(t, p.Finished)
}

func TestRaceManager_LapTimesAndBest(t *testing.T) {
	rig := newRaceRig(RaceConfig{TotalLaps: 3}, 3)
	car := rig.car("p1", true)

	rig.lap(car)
	rig.now += time.Second
	rig.lap(car)

	p, ok := rig.race.Progress("p1")
	require.True(t, ok)
	assert.Equal(t, []time.Duration{3 * tick, 3*tick + time.Second}, p.LapTimes)
	assert.Equal(t, 3*tick, p.BestLap)
	assert.Equal(t, 2, p.CurrentLap)

	p.LapTimes[0] = 0
	again, _ := rig.race.Progress("p1")
	assert.Equal(t, 3*tick, again.LapTimes[0], "progress is a copy")
}

func TestRaceManager_CheckpointActivationIsPlayerOnly(t *testing.T) {
	rig := newRaceRig(RaceConfig{TotalLaps: 2}, 3)
	ai := rig.car("ai-1", false)
	player := rig.car("p1", true)

	rig.cross(ai, 0)
	assert.False(t, rig.gates[0].Checkpoint.Activated())

	rig.cross(player, 0, 1)
	assert.True(t, rig.gates[0].Checkpoint.Activated())
	assert.True(t, rig.gates[1].Checkpoint.Activated())
	assert.False(t, rig.gates[0].Checkpoint.Activate(player.Vehicle), "already activated")

	rig.cross(player, 2)
	for _, g := range rig.gates {
		assert.False(t, g.Checkpoint.Activated(), "rearmed after the lap")
	}
}

func TestRaceManager_HighlightsPlayersNextGate(t *testing.T) {
	rig := newRaceRig(RaceConfig{TotalLaps: 1}, 3)
	player := rig.car("p1", true)

	rig.step()
	assert.True(t, rig.gates[0].Checkpoint.Highlighted)

	rig.cross(player, 0)
	rig.step()
	assert.False(t, rig.gates[0].Checkpoint.Highlighted)
	assert.True(t, rig.gates[1].Checkpoint.Highlighted)
}

func TestRaceManager_StalledCarIsResetToLastGate(t *testing.T) {
	rig := newRaceRig(RaceConfig{TotalLaps: 1, CheckpointTimeout: time.Second}, 3)
	car := rig.car("ai-1", false)

	var stalls []StallEvent
	rig.race.OnStallReset(func(ev StallEvent) { stalls = append(stalls, ev) })

	rig.cross(car, 0)
	rig.place(car, geom.Vec(30, 5))
	car.Rotation = 2
	car.Body.Velocity = geom.Vec(4, 4)
	car.Body.AngularVelocity = 1

	rig.now += time.Second
	rig.step()

	assert.Equal(t, []StallEvent{{CarID: "ai-1", Checkpoint: 0}}, stalls)
	assert.Equal(t, rig.gates[0].Position, car.Position)
	assert.Zero(t, car.Body.Velocity)
	assert.Zero(t, car.Body.AngularVelocity)
	assert.InDelta(t, 0, car.Rotation, 1e-9, "faces the next gate")

	p, _ := rig.race.Progress("ai-1")
	assert.Equal(t, rig.now, p.LastCheckpointTime)
	assert.Equal(t, 0, p.LastCheckpoint)
}

func TestRaceManager_StallBeforeFirstGate(t *testing.T) {
	rig := newRaceRig(RaceConfig{TotalLaps: 1, CheckpointTimeout: time.Second}, 3)
	car := rig.car("ai-1", false)
	rig.race.Start(0)

	rig.now = time.Second
	rig.race.Update(rig.now)
	assert.Equal(t, geom.Vec(50, 0), car.Position, "timeout is strict")

	rig.step()
	assert.Equal(t, rig.gates[0].Position, car.Position)
}

func TestRaceManager_LeaderboardAndStats(t *testing.T) {
	rig := newRaceRig(RaceConfig{TotalLaps: 2}, 3)
	player := rig.car("p1", true)
	ai := rig.car("ai-1", false)
	player.Vehicle.RefillNitro(40)
	player.Vehicle.CollectBananaPeel()

	rig.cross(player, 0)
	rig.lap(ai)

	board := rig.race.Leaderboard()
	require.Len(t, board, 2)
	assert.Equal(t, "ai-1", board[0].CarID)
	assert.Equal(t, 1, board[0].Rank)
	assert.Equal(t, 1, board[0].Lap)
	assert.Equal(t, "p1", board[1].CarID)
	assert.Equal(t, 2, board[1].Rank)

	st, ok := rig.race.Stats("p1")
	require.True(t, ok)
	assert.Equal(t, CarStats{
		Rank:      2,
		Lap:       1,
		TotalLaps: 2,
		Nitro:     40,
		MaxNitro:  DefaultMaxNitro,
		Bananas:   1,
	}, st)

	st, _ = rig.race.Stats("ai-1")
	assert.Equal(t, 2, st.Lap)
	assert.Equal(t, 4*tick, st.LastLap, "first lap counts from the race start")

	_, ok = rig.race.Stats("ghost")
	assert.False(t, ok)
}

func TestRaceManager_FinishingOrder(t *testing.T) {
	rig := newRaceRig(RaceConfig{TotalLaps: 1}, 3)
	player := rig.car("p1", true)
	ai := rig.car("ai-1", false)

	rig.lap(ai)
	assert.False(t, rig.race.Finished(), "only the player ends the race")
	rig.lap(player)

	results := rig.race.Results()
	require.Len(t, results, 2)
	assert.Equal(t, "ai-1", results[0].CarID)
	assert.Equal(t, 1, results[0].Position)
	assert.Equal(t, "p1", results[1].CarID)
	assert.Equal(t, 2, results[1].Position)
	assert.True(t, rig.race.Finished())
}

func TestRaceManager_Defaults(t *testing.T) {
	race := NewRaceManager(RaceConfig{})
	assert.Equal(t, DefaultRaceConfig(), race.Config)

	race.Update(time.Hour)
	assert.Empty(t, race.Results())
}

func TestRaceManager_SceneRegistersCarsAndGates(t *testing.T) {
	s := newTestScene(t)
	for _, g := range gates(4) {
		s.Add(g)
	}
	car := addCar(s, "p1", true, 50, 0, 0)
	require.Len(t, s.Race().Checkpoints(), 4)

	for i := range 4 {
		car.Position = geom.Vec(0, float64(i)*20)
		s.Tick(tick)
	}
	p, ok := s.Race().Progress("p1")
	require.True(t, ok)
	assert.Equal(t, 1, p.CurrentLap)

	s.Remove(car.ID)
	assert.Empty(t, s.Race().Leaderboard())
}
