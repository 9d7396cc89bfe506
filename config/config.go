package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/kajakengine/kajak"
	"github.com/kajakengine/kajak/geom"
)

const FileName = "kajak"

type RaceSettings struct {
	TotalLaps         int           `json:"totalLaps" mapstructure:"totalLaps"`
	CheckpointTimeout time.Duration `json:"checkpointTimeout" mapstructure:"checkpointTimeout"`
}

type AISettings struct {
	RayCount  int     `json:"rayCount" mapstructure:"rayCount"`
	RayLength float64 `json:"rayLength" mapstructure:"rayLength"`
}

type SpatialSettings struct {
	Capacity int `json:"capacity" mapstructure:"capacity"`
	MaxDepth int `json:"maxDepth" mapstructure:"maxDepth"`
}

// SimSettings drive the headless runner. MaxTicks of zero runs until the
// race is over.
type SimSettings struct {
	TickRate int `json:"tickRate" mapstructure:"tickRate"`
	MaxTicks int `json:"maxTicks" mapstructure:"maxTicks"`
	// Realtime paces ticks against the wall clock.
	Realtime bool `json:"realtime" mapstructure:"realtime"`
}

type LogSettings struct {
	Level string `json:"level" mapstructure:"level"`
}

type ResultsSettings struct {
	// Path of the sqlite file; empty disables recording, ":memory:" keeps
	// results for the lifetime of the process.
	Path string `json:"path" mapstructure:"path"`
}

type TrackSettings struct {
	Path string `json:"path" mapstructure:"path"`
}

// Settings is the typed view of the engine configuration.
type Settings struct {
	Seed    uint64          `json:"seed" mapstructure:"seed"`
	Race    RaceSettings    `json:"race" mapstructure:"race"`
	AI      AISettings      `json:"ai" mapstructure:"ai"`
	Spatial SpatialSettings `json:"spatial" mapstructure:"spatial"`
	Sim     SimSettings     `json:"sim" mapstructure:"sim"`
	Log     LogSettings     `json:"log" mapstructure:"log"`
	Results ResultsSettings `json:"results" mapstructure:"results"`
	Track   TrackSettings   `json:"track" mapstructure:"track"`
}

// SetDefaults registers the default value of every key.
func SetDefaults() {
	viper.SetDefault("seed", 0)

	race := kajak.DefaultRaceConfig()
	viper.SetDefault("race.totalLaps", race.TotalLaps)
	viper.SetDefault("race.checkpointTimeout", race.CheckpointTimeout)

	viper.SetDefault("ai.rayCount", kajak.DefaultRayCount)
	viper.SetDefault("ai.rayLength", kajak.DefaultRayLength)

	viper.SetDefault("spatial.capacity", kajak.DefaultQuadCapacity)
	viper.SetDefault("spatial.maxDepth", kajak.DefaultQuadMaxDepth)

	viper.SetDefault("sim.tickRate", 60)
	viper.SetDefault("sim.maxTicks", 0)
	viper.SetDefault("sim.realtime", false)

	viper.SetDefault("log.level", "info")

	viper.SetDefault("results.path", "")

	viper.SetDefault("track.path", "tracks/oval.yaml")
}

// Load reads kajak.yaml (or .json/.toml) from configDir on top of the
// defaults. A missing file is not an error.
func Load(configDir string) (Settings, error) {
	SetDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Settings{}, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return Current()
}

// Current decodes whatever viper holds right now, including bound flags.
func Current() (Settings, error) {
	var s Settings
	if err := viper.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("decoding settings: %w", err)
	}
	if s.Sim.TickRate <= 0 {
		return Settings{}, fmt.Errorf("sim.tickRate must be positive, got %d", s.Sim.TickRate)
	}
	if s.Race.TotalLaps <= 0 {
		return Settings{}, fmt.Errorf("race.totalLaps must be positive, got %d", s.Race.TotalLaps)
	}
	return s, nil
}

// TickDuration is the fixed simulation step.
func (s Settings) TickDuration() time.Duration {
	return time.Second / time.Duration(s.Sim.TickRate)
}

func (s Settings) RaceConfig() kajak.RaceConfig {
	return kajak.RaceConfig{
		TotalLaps:         s.Race.TotalLaps,
		CheckpointTimeout: s.Race.CheckpointTimeout,
	}
}

// Modules is the default simulation stack tuned by these settings. A zero
// world falls back to the spatial index default.
func (s Settings) Modules(world geom.Rect) []kajak.Module {
	modules := kajak.DefaultModules()
	for i, m := range modules {
		switch m.(type) {
		case kajak.SpatialModule:
			modules[i] = kajak.SpatialModule{World: world, Capacity: s.Spatial.Capacity, MaxDepth: s.Spatial.MaxDepth}
		case kajak.RaceModule:
			modules[i] = kajak.RaceModule{Config: s.RaceConfig()}
		case kajak.AIModule:
			modules[i] = kajak.AIModule{RayCount: s.AI.RayCount, RayLength: s.AI.RayLength}
		}
	}
	return modules
}

func GetString(key string) string {
	return viper.GetString(key)
}

func GetInt(key string) int {
	return viper.GetInt(key)
}
