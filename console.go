package kajak

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/kajakengine/kajak/geom"
)

const spawnAheadDistance = 5.0

type consoleCommand struct {
	usage string
	run   func(c *Console, args []string) (string, error)
}

// Console is the debug command interpreter. Every command acts on the player
// car or on a scene resource; failures come back as text, never as panics.
type Console struct {
	scene    *Scene
	commands map[string]consoleCommand
}

func NewConsole(s *Scene) *Console {
	return &Console{
		scene: s,
		commands: map[string]consoleCommand{
			"help":    {"help", (*Console).help},
			"tp":      {"tp x y - teleport the player", (*Console).teleport},
			"nitro":   {"nitro [amount] - set the player's nitro, full by default", (*Console).nitro},
			"weather": {"weather [clear|rain|snow] - show or change the weather", (*Console).weather},
			"banana":  {"banana [count] - give the player banana peels", (*Console).banana},
			"spawn":   {"spawn [nitro|item|banana|puddle|ice] - place something ahead of the player", (*Console).spawn},
			"drop":    {"drop - drop one of the player's banana peels", (*Console).drop},
			"stats":   {"stats - show the player's race stats", (*Console).stats},
			"debug":   {"debug [on|off] - toggle debug logging", (*Console).debug},
		},
	}
}

// Execute runs one command line and returns its human readable result.
func (c *Console) Execute(line string) string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ""
	}
	name := strings.ToLower(fields[0])
	cmd, ok := c.commands[name]
	if !ok {
		return fmt.Sprintf("Error: unknown command %q, try help", fields[0])
	}
	out, err := cmd.run(c, fields[1:])
	if err != nil {
		return "Error: " + err.Error()
	}
	c.scene.Logger().Debugf("console: %s -> %s", line, out)
	return out
}

func (c *Console) player() (*Entity, error) {
	p := c.scene.Player()
	if p == nil {
		return nil, fmt.Errorf("no player car in the scene")
	}
	return p, nil
}

func parseFloat(name, s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%s must be a number, got %q", name, s)
	}
	return v, nil
}

func (c *Console) help(args []string) (string, error) {
	names := make([]string, 0, len(c.commands))
	for name := range c.commands {
		names = append(names, name)
	}
	slices.Sort(names)
	lines := make([]string, len(names))
	for i, name := range names {
		lines[i] = c.commands[name].usage
	}
	return strings.Join(lines, "\n"), nil
}

func (c *Console) teleport(args []string) (string, error) {
	if len(args) != 2 {
		return "", fmt.Errorf("usage: tp x y")
	}
	x, err := parseFloat("x", args[0])
	if err != nil {
		return "", err
	}
	y, err := parseFloat("y", args[1])
	if err != nil {
		return "", err
	}
	p, err := c.player()
	if err != nil {
		return "", err
	}
	p.Position[0], p.Position[1] = x, y
	p.SyncCollider()
	return fmt.Sprintf("Teleported player to (%g, %g)", x, y), nil
}

func (c *Console) nitro(args []string) (string, error) {
	p, err := c.player()
	if err != nil {
		return "", err
	}
	v := p.Vehicle
	amount := v.MaxNitro
	if len(args) > 0 {
		if amount, err = parseFloat("amount", args[0]); err != nil {
			return "", err
		}
		if amount < 0 {
			return "", fmt.Errorf("amount must not be negative")
		}
	}
	if !v.RefillNitro(amount - v.Nitro()) {
		return "", fmt.Errorf("nitro is active")
	}
	return fmt.Sprintf("Nitro set to %.0f/%.0f", v.Nitro(), v.MaxNitro), nil
}

func (c *Console) weather(args []string) (string, error) {
	w := c.scene.Weather()
	if w == nil {
		return "", fmt.Errorf("weather is not enabled")
	}
	if len(args) == 0 {
		return fmt.Sprintf("Current weather: %s", w.Current()), nil
	}
	t, err := ParseWeatherType(args[0])
	if err != nil {
		return "", err
	}
	got := w.SetWeather(t)
	return fmt.Sprintf("Weather set to %s", got), nil
}

func (c *Console) banana(args []string) (string, error) {
	p, err := c.player()
	if err != nil {
		return "", err
	}
	n := 1
	if len(args) > 0 {
		if n, err = strconv.Atoi(args[0]); err != nil || n < 1 {
			return "", fmt.Errorf("count must be a positive integer, got %q", args[0])
		}
	}
	given := 0
	for range n {
		if !p.Vehicle.CollectBananaPeel() {
			break
		}
		given++
	}
	return fmt.Sprintf("Gave %d banana peel(s), player has %d", given, p.Vehicle.BananaPeels()), nil
}

func (c *Console) spawn(args []string) (string, error) {
	p, err := c.player()
	if err != nil {
		return "", err
	}
	what := "item"
	if len(args) > 0 {
		what = strings.ToLower(args[0])
	}
	pos := p.Position.Add(p.Forward().Mul(spawnAheadDistance))

	var e *Entity
	switch what {
	case "nitro":
		e = NewNitroBonusEntity(pos, geom.Vec(2, 2), 0)
	case "item", "box":
		e = NewItemPickupEntity(pos, BananaItem, 0)
	case "banana":
		bananas := c.scene.Bananas()
		if bananas == nil {
			return "", fmt.Errorf("items are not enabled")
		}
		id := bananas.Place(c.scene.Commands(), pos, "")
		c.scene.FlushCommands()
		return fmt.Sprintf("Spawned banana peel %d at (%.1f, %.1f)", id, pos.X(), pos.Y()), nil
	case "puddle", "ice":
		e = NewPuddleEntity(pos, geom.Vec(4, 4), PuddleType(what))
	default:
		return "", fmt.Errorf("unknown item %q", what)
	}
	id := c.scene.AddPickup(e)
	return fmt.Sprintf("Spawned %s %d at (%.1f, %.1f)", e.Kind, id, pos.X(), pos.Y()), nil
}

func (c *Console) drop(args []string) (string, error) {
	p, err := c.player()
	if err != nil {
		return "", err
	}
	id, ok := c.scene.DropBananaPeel(p.Vehicle.CarID)
	if !ok {
		return "", fmt.Errorf("player has no banana peels")
	}
	return fmt.Sprintf("Dropped banana peel %d", id), nil
}

func (c *Console) stats(args []string) (string, error) {
	p, err := c.player()
	if err != nil {
		return "", err
	}
	race := c.scene.Race()
	if race == nil {
		return "", fmt.Errorf("no race in the scene")
	}
	st, ok := race.Stats(p.Vehicle.CarID)
	if !ok {
		return "", fmt.Errorf("player is not racing")
	}
	return fmt.Sprintf("Position %d | Lap %d/%d | Best %.2fs | Last %.2fs | Nitro %.0f/%.0f | Bananas %d",
		st.Rank, st.Lap, st.TotalLaps, st.BestLap.Seconds(), st.LastLap.Seconds(),
		st.Nitro, st.MaxNitro, st.Bananas), nil
}

func (c *Console) debug(args []string) (string, error) {
	l := c.scene.Logger()
	on := !l.DebugEnabled()
	if len(args) > 0 {
		switch strings.ToLower(args[0]) {
		case "on", "true", "1":
			on = true
		case "off", "false", "0":
			on = false
		default:
			return "", fmt.Errorf("usage: debug [on|off]")
		}
	}
	l.SetDebug(on)
	if on {
		return "Debug mode on", nil
	}
	return "Debug mode off", nil
}
