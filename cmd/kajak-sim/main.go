// Command kajak-sim runs a race headlessly: the player car is driven by the
// autopilot, AI opponents by their track behaviours, and the final standings
// are printed and optionally stored.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/kajakengine/kajak"
	"github.com/kajakengine/kajak/config"
	"github.com/kajakengine/kajak/results"
	"github.com/kajakengine/kajak/track"
)

// simLimit caps runs without sim.maxTicks so a car that never finishes does
// not keep the process alive forever.
const simLimit = 30 * time.Minute

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "kajak-sim:", err)
		os.Exit(1)
	}
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("kajak-sim", pflag.ContinueOnError)
	fs.String("config-dir", ".", "directory holding kajak.yaml")
	fs.String("track", "", "track description file")
	fs.Int("laps", 0, "laps per race")
	fs.Uint64("seed", 0, "random seed, 0 picks one")
	fs.Int("tick-rate", 0, "simulation ticks per second")
	fs.Int("max-ticks", 0, "stop after this many ticks, 0 runs until the race ends")
	fs.Bool("realtime", false, "pace ticks against the wall clock")
	fs.String("results", "", "sqlite file to record results into")
	fs.String("log-level", "", "trace, debug, info, warn or error")
	fs.StringArray("console", nil, "console command to run before the start, repeatable")
	return fs
}

// flagKeys maps flags onto configuration keys.
var flagKeys = map[string]string{
	"track":     "track.path",
	"laps":      "race.totalLaps",
	"seed":      "seed",
	"tick-rate": "sim.tickRate",
	"max-ticks": "sim.maxTicks",
	"realtime":  "sim.realtime",
	"results":   "results.path",
	"log-level": "log.level",
}

func loadSettings(fs *pflag.FlagSet, args []string) (config.Settings, error) {
	if err := fs.Parse(args); err != nil {
		return config.Settings{}, err
	}
	for name, key := range flagKeys {
		if err := viper.BindPFlag(key, fs.Lookup(name)); err != nil {
			return config.Settings{}, fmt.Errorf("binding flag %s: %w", name, err)
		}
	}
	dir, _ := fs.GetString("config-dir")
	return config.Load(dir)
}

func newLogger(w io.Writer, level string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("log level: %w", err)
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}).
		Level(lvl).
		With().Timestamp().
		Logger(), nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet()
	fs.SetOutput(stderr)
	settings, err := loadSettings(fs, args)
	if err != nil {
		return err
	}
	log, err := newLogger(stderr, settings.Log.Level)
	if err != nil {
		return err
	}

	desc, err := track.Load(settings.Track.Path)
	if err != nil {
		return err
	}

	seed := settings.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	log.Info().Str("track", desc.Name).Uint64("seed", seed).Int("laps", settings.Race.TotalLaps).Msg("Setting up race")

	scene := kajak.NewSceneBuilder().
		WithSeed(seed).
		UseModule(settings.Modules(desc.World())...).
		Build()
	scene.SetLogger(kajak.NewZerologLogger(
		log.With().Str("component", "scene").Logger(),
		log.GetLevel() <= zerolog.DebugLevel,
	))

	cars, err := track.Populate(scene, desc, track.Options{})
	if err != nil {
		return err
	}
	scene.Drivers().AssignDriver(cars.Player.Vehicle.CarID, kajak.BehaviorStraightLine, kajak.Autopilot{})

	if settings.Results.Path != "" {
		rec, err := results.Open(settings.Results.Path, log.With().Str("component", "results").Logger())
		if err != nil {
			return err
		}
		defer rec.Close()
		if _, err := rec.Begin(results.SessionInfo{
			Track:     desc.Name,
			TotalLaps: settings.Race.TotalLaps,
			Seed:      seed,
			SceneID:   scene.ID(),
		}); err != nil {
			return err
		}
		defer func() {
			if err := rec.End(); err != nil && !errors.Is(err, results.ErrNoSession) {
				log.Error().Err(err).Msg("Failed to close results session")
			}
		}()
		rec.Attach(scene.Race())
	}

	console := kajak.NewConsole(scene)
	commands, _ := fs.GetStringArray("console")
	for _, line := range commands {
		log.Info().Str("command", line).Msg(console.Execute(line))
	}

	ticks, interrupted := simulate(ctx, scene, settings)
	log.Info().
		Uint64("ticks", ticks).
		Dur("simTime", scene.Time().Now).
		Bool("finished", scene.Race().Finished()).
		Msg("Simulation stopped")

	printStandings(stdout, scene, interrupted)
	return nil
}

// simulate ticks scene until the player finishes, the tick budget runs out
// or ctx is cancelled.
func simulate(ctx context.Context, scene *kajak.Scene, settings config.Settings) (uint64, bool) {
	dt := settings.TickDuration()
	limit := uint64(settings.Sim.MaxTicks)
	if limit == 0 {
		limit = uint64(simLimit / dt)
	}

	var pace <-chan time.Time
	if settings.Sim.Realtime {
		ticker := time.NewTicker(dt)
		defer ticker.Stop()
		pace = ticker.C
	}

	race := scene.Race()
	race.Start(scene.Time().Now)
	scene.Items().Start()

	var n uint64
	for n < limit && !race.Finished() {
		select {
		case <-ctx.Done():
			return n, true
		default:
		}
		if pace != nil {
			select {
			case <-ctx.Done():
				return n, true
			case <-pace:
			}
		}
		scene.Tick(dt)
		n++
	}
	return n, false
}

func printStandings(w io.Writer, scene *kajak.Scene, interrupted bool) {
	race := scene.Race()
	switch {
	case interrupted:
		fmt.Fprintln(w, "Race interrupted")
	case !race.Finished():
		fmt.Fprintln(w, "Race stopped before the player finished")
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Standings")
	fmt.Fprintln(tw, "POS\tCAR\tLAPS\tBEST\tTIME")
	finished := map[string]kajak.RaceResult{}
	for _, res := range race.Results() {
		finished[res.CarID] = res
	}
	for _, st := range race.Leaderboard() {
		total := "-"
		if res, ok := finished[st.CarID]; ok {
			total = fmt.Sprintf("%.2fs", res.Time.Seconds())
		}
		car := st.CarID
		if st.IsPlayer {
			car += " (you)"
		}
		fmt.Fprintf(tw, "%d\t%s\t%d/%d\t%.2fs\t%s\n",
			st.Rank, car, st.Lap, race.Config.TotalLaps, st.BestLap.Seconds(), total)
	}
	tw.Flush()
}
