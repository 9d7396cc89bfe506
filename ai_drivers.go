package kajak

import (
	"fmt"
	"math"
	"strings"
)

type Behavior int

const (
	BehaviorStraightLine Behavior = iota
	BehaviorSteadyMiddle
	BehaviorAggressiveChaser
	BehaviorTacticalBlocker
)

func (b Behavior) String() string {
	switch b {
	case BehaviorStraightLine:
		return "straight-line"
	case BehaviorSteadyMiddle:
		return "steady-middle"
	case BehaviorAggressiveChaser:
		return "aggressive-chaser"
	case BehaviorTacticalBlocker:
		return "tactical-blocker"
	}
	return fmt.Sprintf("Behavior(%d)", int(b))
}

// ParseBehavior accepts the kebab-case names as well as the upper-case
// track file tags (STRAIGHT_LINE_MASTER and friends).
func ParseBehavior(s string) (Behavior, error) {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "_", "-")) {
	case "straight-line", "straight-line-master", "straight":
		return BehaviorStraightLine, nil
	case "steady-middle", "steady":
		return BehaviorSteadyMiddle, nil
	case "aggressive-chaser", "aggressive", "chaser":
		return BehaviorAggressiveChaser, nil
	case "tactical-blocker", "tactical", "blocker":
		return BehaviorTacticalBlocker, nil
	}
	return 0, fmt.Errorf("unknown AI behavior %q", s)
}

// Driver returns the stock driver for the behavior.
func (b Behavior) Driver() Driver {
	switch b {
	case BehaviorSteadyMiddle:
		return SteadyMiddle{}
	case BehaviorAggressiveChaser:
		return AggressiveChaser{}
	case BehaviorTacticalBlocker:
		return TacticalBlocker{}
	}
	return StraightLine{}
}

// StraightLine floors it everywhere except before turns and fires nitro on
// open road.
type StraightLine struct{}

func (StraightLine) Drive(p Perception) Command {
	pct := 1.0
	switch {
	case p.Road.TurnAhead:
		pct = 0.3
	case p.Road.Min < p.RayLength*0.5:
		pct = 0.5
	}
	return Command{
		Steer:    SteerToward(p, p.Target),
		Throttle: MaxAIThrottle * pct,
		Nitro:    !p.Road.TurnAhead && p.Road.Min > p.RayLength*0.8 && p.Self.Vehicle.Nitro() > 50,
	}
}

// SteadyMiddle backs off early and never uses nitro.
type SteadyMiddle struct{}

func (SteadyMiddle) Drive(p Perception) Command {
	pct := 1.0
	switch {
	case p.Road.TurnAhead:
		pct = 0.4
	case p.Road.Min < p.RayLength*0.5:
		pct = 0.3
	}
	return Command{
		Steer:    SteerToward(p, p.Target),
		Throttle: MaxAIThrottle * pct,
	}
}

const (
	chaseRadius       = 20.0
	chaseFullThrottle = 15.0
	chaseNitroMin     = 10.0
	chaseNitroMax     = 30.0
)

// AggressiveChaser bends its line toward a nearby player and boosts when it
// has a clear shot at them.
type AggressiveChaser struct{}

func (AggressiveChaser) Drive(p Perception) Command {
	target := p.Target
	if p.Player == nil {
		return StraightLine{}.Drive(p)
	}
	toPlayer := p.Player.Position.Sub(p.Self.Position)
	dist := toPlayer.Len()
	if dist < chaseRadius {
		w := math.Max(0, (chaseRadius-dist)/chaseRadius)
		target = p.Target.Mul(1 - w).Add(p.Player.Position.Mul(w))
	}

	pct := 1.0
	switch {
	case dist < chaseFullThrottle && p.Road.Min > p.RayLength*0.5:
		pct = 1.0
	case p.Road.TurnAhead:
		pct = 0.5
	case p.Road.Min < p.RayLength*0.3:
		pct = 0.4
	}

	ahead := toPlayer.Dot(p.Self.Forward()) > 0
	return Command{
		Steer:    SteerToward(p, target),
		Throttle: MaxAIThrottle * pct,
		Nitro: ahead && p.PlayerVisible &&
			dist < chaseNitroMax && dist > chaseNitroMin &&
			p.Road.Min > p.RayLength*0.6 &&
			p.Self.Vehicle.Nitro() > 30,
	}
}

const (
	blockerEngage = 30.0
	blockerWeave  = 15.0
)

// TacticalBlocker idles along its line until the player comes close or
// reaches the final lap, then either races or weaves in front of them.
type TacticalBlocker struct{}

func (TacticalBlocker) Drive(p Perception) Command {
	if p.Player == nil {
		return SteadyMiddle{}.Drive(p)
	}
	toPlayer := p.Player.Position.Sub(p.Self.Position)
	dist := toPlayer.Len()
	lastLap := p.PlayerLap >= p.TotalLaps-1
	behind := toPlayer.Dot(p.Self.Forward()) < 0

	switch {
	case dist > blockerEngage && !lastLap:
		return Command{Steer: SteerToward(p, p.Target), Throttle: MaxAIThrottle * 0.2}
	case behind && dist < blockerWeave:
		return Command{Steer: weave(p), Throttle: MaxAIThrottle * 0.4}
	}

	pct := 1.0
	switch {
	case p.Road.TurnAhead:
		pct = 0.6
	case p.Road.Min < p.RayLength*0.4:
		pct = 0.5
	}
	return Command{Steer: SteerToward(p, p.Target), Throttle: MaxAIThrottle * pct}
}

func weave(p Perception) float64 {
	return math.Sin(p.Now.Seconds()) * math.Pi / 8
}

// Autopilot follows checkpoints the way StraightLine does but without
// nitro. The headless runner uses it for the player car.
type Autopilot struct{}

func (Autopilot) Drive(p Perception) Command {
	c := StraightLine{}.Drive(p)
	c.Nitro = false
	return c
}
