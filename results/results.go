// Package results persists race sessions, lap times and finishing orders to
// a sqlite database.
package results

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/kajakengine/kajak"
)

// ErrNoSession is returned when recording without an open session.
var ErrNoSession = errors.New("no race session in progress")

// Session is one race from start to finish.
type Session struct {
	ID         uuid.UUID  `json:"id" gorm:"type:text;primaryKey"`
	SceneID    uuid.UUID  `json:"sceneId" gorm:"type:text"`
	Track      string     `json:"track" gorm:"size:200"`
	TotalLaps  int        `json:"totalLaps"`
	Seed       int64      `json:"seed"`
	StartedAt  time.Time  `json:"startedAt" gorm:"index:idx_session_start"`
	FinishedAt *time.Time `json:"finishedAt"`

	Laps     []Lap    `json:"laps" gorm:"foreignKey:SessionID"`
	Finishes []Finish `json:"finishes" gorm:"foreignKey:SessionID"`
}

type Lap struct {
	ID        uint          `json:"-" gorm:"primaryKey"`
	SessionID uuid.UUID     `json:"-" gorm:"type:text;index:idx_lap_session"`
	CarID     string        `json:"carId" gorm:"size:64"`
	IsPlayer  bool          `json:"isPlayer"`
	Lap       int           `json:"lap"`
	LapTime   time.Duration `json:"lapTime"`
	BestLap   time.Duration `json:"bestLap"`
}

type Finish struct {
	ID        uint          `json:"-" gorm:"primaryKey"`
	SessionID uuid.UUID     `json:"-" gorm:"type:text;index:idx_finish_session"`
	Position  int           `json:"position"`
	CarID     string        `json:"carId" gorm:"size:64"`
	IsPlayer  bool          `json:"isPlayer"`
	Time      time.Duration `json:"time"`
	Laps      int           `json:"laps"`
	BestLap   time.Duration `json:"bestLap"`
}

// Models lists every table the recorder owns.
var Models = []any{
	&Session{},
	&Lap{},
	&Finish{},
}

// SessionInfo describes a race about to start.
type SessionInfo struct {
	Track     string
	TotalLaps int
	Seed      uint64
	SceneID   uuid.UUID
}

// Recorder writes race events for one session at a time.
type Recorder struct {
	db  *gorm.DB
	log zerolog.Logger

	mu      sync.Mutex
	session *Session
}

const memoryPath = ":memory:"

// Open connects to the sqlite file at path, or to a private in-memory
// database when path is empty or ":memory:", and migrates the schema.
func Open(path string, log zerolog.Logger) (*Recorder, error) {
	dsn := path
	if dsn == "" {
		dsn = memoryPath
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening results db %s: %w", dsn, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access sql interface: %w", err)
	}
	if dsn == memoryPath {
		// every pooled connection would otherwise see its own empty database
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(Models...); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrating results schema: %w", err)
	}
	log.Info().Str("path", dsn).Msg("Results database ready")
	return &Recorder{db: db, log: log}, nil
}

func (r *Recorder) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Begin opens a new session, closing any previous one.
func (r *Recorder) Begin(info SessionInfo) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.session != nil {
		if err := r.endLocked(); err != nil {
			return uuid.Nil, err
		}
	}
	s := &Session{
		ID:        uuid.New(),
		SceneID:   info.SceneID,
		Track:     info.Track,
		TotalLaps: info.TotalLaps,
		Seed:      int64(info.Seed),
		StartedAt: time.Now().UTC(),
	}
	if err := r.db.Create(s).Error; err != nil {
		return uuid.Nil, fmt.Errorf("creating session: %w", err)
	}
	r.session = s
	r.log.Debug().Str("session", s.ID.String()).Str("track", s.Track).Msg("Race session started")
	return s.ID, nil
}

func (r *Recorder) RecordLap(ev kajak.LapEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil {
		return ErrNoSession
	}
	lap := Lap{
		SessionID: r.session.ID,
		CarID:     ev.CarID,
		IsPlayer:  ev.IsPlayer,
		Lap:       ev.Lap,
		LapTime:   ev.LapTime,
		BestLap:   ev.BestLap,
	}
	if err := r.db.Create(&lap).Error; err != nil {
		return fmt.Errorf("recording lap %d of %s: %w", ev.Lap, ev.CarID, err)
	}
	return nil
}

func (r *Recorder) RecordFinish(res kajak.RaceResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil {
		return ErrNoSession
	}
	f := Finish{
		SessionID: r.session.ID,
		Position:  res.Position,
		CarID:     res.CarID,
		IsPlayer:  res.IsPlayer,
		Time:      res.Time,
		Laps:      res.Laps,
		BestLap:   res.BestLap,
	}
	if err := r.db.Create(&f).Error; err != nil {
		return fmt.Errorf("recording finish of %s: %w", res.CarID, err)
	}
	return nil
}

// End stamps the open session as finished.
func (r *Recorder) End() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil {
		return ErrNoSession
	}
	return r.endLocked()
}

func (r *Recorder) endLocked() error {
	now := time.Now().UTC()
	err := r.db.Model(r.session).Update("finished_at", now).Error
	if err != nil {
		return fmt.Errorf("closing session %s: %w", r.session.ID, err)
	}
	r.log.Debug().Str("session", r.session.ID.String()).Msg("Race session ended")
	r.session = nil
	return nil
}

// Attach records every lap and finish reported by race into the open
// session. Write failures are logged.
func (r *Recorder) Attach(race *kajak.RaceManager) {
	race.OnLap(func(ev kajak.LapEvent) {
		if err := r.RecordLap(ev); err != nil {
			r.log.Error().Err(err).Msg("Failed to record lap")
		}
	})
	race.OnFinish(func(res kajak.RaceResult) {
		if err := r.RecordFinish(res); err != nil {
			r.log.Error().Err(err).Msg("Failed to record finish")
		}
	})
}

// Session loads a session with its laps in order and its finishing order.
func (r *Recorder) Session(id uuid.UUID) (Session, error) {
	var s Session
	err := r.db.
		Preload("Laps", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Finishes", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		First(&s, "id = ?", id).Error
	if err != nil {
		return Session{}, fmt.Errorf("loading session %s: %w", id, err)
	}
	return s, nil
}

// Sessions lists sessions newest first, without their laps.
func (r *Recorder) Sessions(limit int) ([]Session, error) {
	var out []Session
	q := r.db.Order("started_at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	return out, nil
}

// BestLaps returns the fastest laps recorded on track.
func (r *Recorder) BestLaps(track string, limit int) ([]Lap, error) {
	var out []Lap
	q := r.db.
		Select("laps.*").
		Joins("JOIN sessions ON sessions.id = laps.session_id").
		Where("sessions.track = ?", track).
		Order("laps.lap_time asc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("listing best laps on %s: %w", track, err)
	}
	return out, nil
}
