package track

import (
	"errors"
	"fmt"
	"slices"

	"github.com/spf13/viper"

	"github.com/kajakengine/kajak"
)

var ErrInvalidTrack = errors.New("invalid track")

// Load reads a track description from a YAML, JSON or TOML file and
// validates it.
func Load(path string) (*Description, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading track %s: %w", path, err)
	}

	var d Description
	if err := v.Unmarshal(&d); err != nil {
		return nil, fmt.Errorf("decoding track %s: %w", path, err)
	}
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("track %s: %w", path, err)
	}
	return &d, nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidTrack, fmt.Sprintf(format, args...))
}

// Validate reports every problem in the description at once. Each error
// wraps ErrInvalidTrack.
func (d *Description) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, invalid(format, args...))
	}

	if b := d.WorldBounds; (b.Width != 0 || b.Height != 0) && (b.Width <= 0 || b.Height <= 0) {
		add("world bounds must have a positive size")
	}

	if len(d.Checkpoints) == 0 {
		add("at least one checkpoint is required")
	} else {
		orders := make([]int, len(d.Checkpoints))
		finishes := 0
		for i, cp := range d.Checkpoints {
			orders[i] = cp.Order
			if cp.IsFinishLine {
				finishes++
				if cp.Order != len(d.Checkpoints)-1 {
					add("finish line must be the last checkpoint, got order %d", cp.Order)
				}
			}
			if cp.Collider.Size.X <= 0 || cp.Collider.Size.Y <= 0 {
				add("checkpoint %d: collider size must be positive", cp.Order)
			}
		}
		slices.Sort(orders)
		for i, o := range orders {
			if o != i {
				add("checkpoint orders must run 0..%d without gaps", len(orders)-1)
				break
			}
		}
		if finishes != 1 {
			add("exactly one finish line is required, got %d", finishes)
		}
	}

	if len(d.Barriers.Segments) > 0 && d.Barriers.Thickness <= 0 {
		add("barrier thickness must be positive")
	}

	for i, car := range d.AICars {
		if _, err := kajak.ParseBehavior(car.Type); err != nil {
			add("ai car %d: %v", i, err)
		}
	}

	for i, o := range d.Obstacles {
		if len(o.Vertices) < 3 {
			add("obstacle %d: needs at least 3 vertices", i)
		}
	}

	for i, s := range d.Surfaces.Segments {
		if _, err := kajak.ParseSurfaceType(s.Type); err != nil {
			add("surface %d: %v", i, err)
		}
		if s.Width <= 0 {
			add("surface %d: width must be positive", i)
		}
		if s.Start == s.End {
			add("surface %d: start and end coincide", i)
		}
	}

	for i, b := range d.MovingBarriers {
		if b.Direction != 0 && b.Direction != 1 && b.Direction != -1 {
			add("moving barrier %d: direction must be 1 or -1", i)
		}
	}

	if w := d.Weather; w != nil {
		if w.InitialWeather != "" {
			if _, err := kajak.ParseWeatherType(w.InitialWeather); err != nil {
				add("weather: %v", err)
			}
		}
		for _, a := range w.Allowed {
			if _, err := kajak.ParseWeatherType(a); err != nil {
				add("weather: %v", err)
			}
		}
		if w.MinDuration < 0 || w.MaxDuration < 0 {
			add("weather: durations must not be negative")
		}
		if w.MinDuration > 0 && w.MaxDuration > 0 && w.MinDuration > w.MaxDuration {
			add("weather: minDuration exceeds maxDuration")
		}
		for i, p := range w.PuddleSpawnPoints {
			if _, err := parsePuddleType(p.Type); err != nil {
				add("puddle spawn point %d: %v", i, err)
			}
		}
	}

	if it := d.Items; it != nil {
		for i, p := range it.SpawnPoints {
			if p.Chance < 0 || p.Chance > 1 {
				add("item spawn point %d: chance must be within [0, 1]", i)
			}
			for _, t := range p.Types {
				if _, err := kajak.ParseItemType(t); err != nil {
					add("item spawn point %d: %v", i, err)
				}
			}
		}
	}

	return errors.Join(errs...)
}

func parsePuddleType(s string) (kajak.PuddleType, error) {
	switch kajak.PuddleType(s) {
	case "":
		return "", nil
	case kajak.PuddleWater, kajak.PuddleIce:
		return kajak.PuddleType(s), nil
	}
	return "", fmt.Errorf("unknown puddle type %q", s)
}
