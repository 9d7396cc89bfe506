package kajak

import (
	"cmp"
	"slices"
	"time"

	"github.com/kajakengine/kajak/geom"
)

type RaceConfig struct {
	TotalLaps int
	// CheckpointTimeout is how long a car may go without reaching its next
	// checkpoint before it is put back on the track.
	CheckpointTimeout time.Duration
}

func DefaultRaceConfig() RaceConfig {
	return RaceConfig{TotalLaps: 3, CheckpointTimeout: 20 * time.Second}
}

// CarProgress is one car's standing in the race. LastCheckpoint is -1 until
// the first gate is crossed. BestLap is zero until a lap is completed.
type CarProgress struct {
	LastCheckpoint     int
	CurrentLap         int
	LapStart           time.Duration
	BestLap            time.Duration
	LapTimes           []time.Duration
	LastCheckpointTime time.Duration
	Finished           bool
}

type RaceResult struct {
	Position int
	CarID    string
	IsPlayer bool
	// Time is measured from the race start.
	Time    time.Duration
	Laps    int
	BestLap time.Duration
}

type LapEvent struct {
	CarID    string
	IsPlayer bool
	Lap      int
	LapTime  time.Duration
	BestLap  time.Duration
}

type StallEvent struct {
	CarID      string
	Checkpoint int
}

type Standing struct {
	Rank           int
	CarID          string
	IsPlayer       bool
	Lap            int
	LastCheckpoint int
	BestLap        time.Duration
}

// CarStats is what a HUD shows for one car.
type CarStats struct {
	Rank      int
	Lap       int
	TotalLaps int
	BestLap   time.Duration
	LastLap   time.Duration
	Nitro     float64
	MaxNitro  float64
	Bananas   int
}

// RaceManager tracks checkpoints, laps and finishing order.
type RaceManager struct {
	Config RaceConfig

	checkpoints []*Entity
	cars        []*Entity
	progress    map[string]*CarProgress
	results     []RaceResult
	finished    bool
	start       time.Duration
	logger      Logger

	onLap    []func(LapEvent)
	onFinish []func(RaceResult)
	onStall  []func(StallEvent)
}

func NewRaceManager(cfg RaceConfig) *RaceManager {
	if cfg.TotalLaps <= 0 {
		cfg.TotalLaps = DefaultRaceConfig().TotalLaps
	}
	if cfg.CheckpointTimeout <= 0 {
		cfg.CheckpointTimeout = DefaultRaceConfig().CheckpointTimeout
	}
	return &RaceManager{
		Config:   cfg,
		progress: make(map[string]*CarProgress),
		logger:   NewNopLogger(),
	}
}

// AddCheckpoint registers a gate, keeping gates sorted by order.
func (r *RaceManager) AddCheckpoint(e *Entity) {
	if e.Checkpoint == nil {
		return
	}
	r.checkpoints = append(r.checkpoints, e)
	slices.SortStableFunc(r.checkpoints, func(a, b *Entity) int {
		return cmp.Compare(a.Checkpoint.Order, b.Checkpoint.Order)
	})
}

// AddCar registers a vehicle and starts its progress record.
func (r *RaceManager) AddCar(e *Entity) {
	if e.Vehicle == nil {
		return
	}
	id := e.Vehicle.CarID
	if _, ok := r.progress[id]; !ok {
		r.cars = append(r.cars, e)
	}
	r.progress[id] = &CarProgress{
		LastCheckpoint:     -1,
		LapStart:           r.start,
		LastCheckpointTime: r.start,
	}
}

// RemoveCar stops tracking a vehicle. Its progress stays readable.
func (r *RaceManager) RemoveCar(carID string) {
	r.cars = slices.DeleteFunc(r.cars, func(e *Entity) bool { return e.Vehicle.CarID == carID })
}

// Start restarts every car's clocks at now.
func (r *RaceManager) Start(now time.Duration) {
	r.start = now
	for _, p := range r.progress {
		p.LapStart = now
		p.LastCheckpointTime = now
	}
}

func (r *RaceManager) Checkpoints() []*Entity { return r.checkpoints }

func (r *RaceManager) SetLogger(l Logger) { r.logger = l }

func (r *RaceManager) OnLap(fn func(LapEvent))          { r.onLap = append(r.onLap, fn) }
func (r *RaceManager) OnFinish(fn func(RaceResult))     { r.onFinish = append(r.onFinish, fn) }
func (r *RaceManager) OnStallReset(fn func(StallEvent)) { r.onStall = append(r.onStall, fn) }

// Finished reports whether the player has completed the race.
func (r *RaceManager) Finished() bool { return r.finished }

func (r *RaceManager) Results() []RaceResult {
	return slices.Clone(r.results)
}

// Progress returns a copy of a car's progress record.
func (r *RaceManager) Progress(carID string) (CarProgress, bool) {
	p, ok := r.progress[carID]
	if !ok {
		return CarProgress{}, false
	}
	out := *p
	out.LapTimes = slices.Clone(p.LapTimes)
	return out, true
}

// Update advances every unfinished car's progress at simulation time now.
func (r *RaceManager) Update(now time.Duration) {
	if len(r.checkpoints) == 0 {
		return
	}
	for _, car := range r.cars {
		p := r.progress[car.Vehicle.CarID]
		if p == nil || p.Finished {
			continue
		}
		if now-p.LastCheckpointTime > r.Config.CheckpointTimeout {
			r.resetToLastCheckpoint(car, p, now)
			continue
		}
		r.processCheckpoints(car, p, now)
	}
}

func (r *RaceManager) nextIndex(p *CarProgress) int {
	return (p.LastCheckpoint + 1) % len(r.checkpoints)
}

func (r *RaceManager) processCheckpoints(car *Entity, p *CarProgress, now time.Duration) {
	idx := r.nextIndex(p)
	next := r.checkpoints[idx]
	if car.Vehicle.IsPlayer {
		r.highlight(next)
	}

	if _, hit := geom.Collide(car.Collider, next.Collider); !hit {
		return
	}
	p.LastCheckpoint = idx
	p.LastCheckpointTime = now
	if next.Checkpoint.Activate(car.Vehicle) {
		r.logger.Debugf("checkpoint %d activated", next.Checkpoint.Order)
	}

	if next.Checkpoint.IsFinish && idx == len(r.checkpoints)-1 {
		r.completeLap(car, p, now)
	}
}

func (r *RaceManager) completeLap(car *Entity, p *CarProgress, now time.Duration) {
	lap := now - p.LapStart
	p.LapTimes = append(p.LapTimes, lap)
	if p.BestLap == 0 || lap < p.BestLap {
		p.BestLap = lap
	}
	p.CurrentLap++
	p.LapStart = now

	v := car.Vehicle
	if v.IsPlayer {
		for _, cp := range r.checkpoints {
			cp.Checkpoint.rearm()
		}
		r.logger.Infof("lap %d/%d completed in %.2fs (best %.2fs)",
			len(p.LapTimes), r.Config.TotalLaps, lap.Seconds(), p.BestLap.Seconds())
	}

	ev := LapEvent{CarID: v.CarID, IsPlayer: v.IsPlayer, Lap: p.CurrentLap, LapTime: lap, BestLap: p.BestLap}
	for _, fn := range r.onLap {
		fn(ev)
	}

	if p.CurrentLap >= r.Config.TotalLaps {
		r.finish(car, p, now)
	}
}

func (r *RaceManager) finish(car *Entity, p *CarProgress, now time.Duration) {
	p.Finished = true
	res := RaceResult{
		Position: len(r.results) + 1,
		CarID:    car.Vehicle.CarID,
		IsPlayer: car.Vehicle.IsPlayer,
		Time:     now - r.start,
		Laps:     p.CurrentLap,
		BestLap:  p.BestLap,
	}
	r.results = append(r.results, res)
	if res.IsPlayer {
		r.finished = true
	}
	r.logger.Infof("car %s finished in position %d after %.2fs", res.CarID, res.Position, res.Time.Seconds())
	for _, fn := range r.onFinish {
		fn(res)
	}
}

// resetToLastCheckpoint puts a stalled car on its last gate, facing the next.
func (r *RaceManager) resetToLastCheckpoint(car *Entity, p *CarProgress, now time.Duration) {
	last := r.checkpoints[max(0, p.LastCheckpoint)]
	next := r.checkpoints[r.nextIndex(p)]

	car.Position = last.Position
	car.Body.Velocity = geom.Vec(0, 0)
	car.Body.AngularVelocity = 0
	car.Rotation = geom.Heading(next.Position.Sub(last.Position))
	car.SyncCollider()
	p.LastCheckpointTime = now

	if car.Vehicle.IsPlayer {
		r.highlight(next)
	}
	r.logger.Infof("car %s stalled, reset to checkpoint %d", car.Vehicle.CarID, last.Checkpoint.Order)
	ev := StallEvent{CarID: car.Vehicle.CarID, Checkpoint: max(0, p.LastCheckpoint)}
	for _, fn := range r.onStall {
		fn(ev)
	}
}

func (r *RaceManager) highlight(next *Entity) {
	for _, cp := range r.checkpoints {
		cp.Checkpoint.Highlighted = cp == next
	}
}

// Leaderboard ranks cars by completed gates, laps first.
func (r *RaceManager) Leaderboard() []Standing {
	n := len(r.checkpoints)
	type row struct {
		car  *Entity
		p    *CarProgress
		dist int
	}
	rows := make([]row, 0, len(r.cars))
	for _, car := range r.cars {
		p := r.progress[car.Vehicle.CarID]
		rows = append(rows, row{car: car, p: p, dist: p.CurrentLap*n + p.LastCheckpoint})
	}
	slices.SortStableFunc(rows, func(a, b row) int {
		return cmp.Compare(b.dist, a.dist)
	})

	out := make([]Standing, len(rows))
	for i, rw := range rows {
		out[i] = Standing{
			Rank:           i + 1,
			CarID:          rw.car.Vehicle.CarID,
			IsPlayer:       rw.car.Vehicle.IsPlayer,
			Lap:            rw.p.CurrentLap,
			LastCheckpoint: rw.p.LastCheckpoint,
			BestLap:        rw.p.BestLap,
		}
	}
	return out
}

// Stats summarises one car for display.
func (r *RaceManager) Stats(carID string) (CarStats, bool) {
	p, ok := r.progress[carID]
	if !ok {
		return CarStats{}, false
	}
	st := CarStats{
		Lap:       min(p.CurrentLap+1, r.Config.TotalLaps),
		TotalLaps: r.Config.TotalLaps,
		BestLap:   p.BestLap,
	}
	if len(p.LapTimes) > 0 {
		st.LastLap = p.LapTimes[len(p.LapTimes)-1]
	}
	for _, s := range r.Leaderboard() {
		if s.CarID == carID {
			st.Rank = s.Rank
		}
	}
	for _, car := range r.cars {
		if car.Vehicle.CarID == carID {
			st.Nitro = car.Vehicle.Nitro()
			st.MaxNitro = car.Vehicle.MaxNitro
			st.Bananas = car.Vehicle.BananaPeels()
		}
	}
	return st, true
}

type RaceModule struct {
	Config RaceConfig
}

func (m RaceModule) Install(s *Scene, cmd *Commands) {
	cmd.AddResources(NewRaceManager(m.Config))
	cmd.UseSystem(System(raceSystem).InStage(Progress))
}

func raceSystem(race *RaceManager, t *Time) {
	race.Update(t.Now)
}
