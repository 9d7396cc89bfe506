package kajak

import (
	"time"
)

// Time is the simulation clock. It only moves when the scene ticks.
type Time struct {
	Now   time.Duration
	Dt    time.Duration
	Ticks uint64
}

// Seconds is Now expressed in seconds.
func (t *Time) Seconds() float64 { return t.Now.Seconds() }

// DtSeconds is Dt expressed in seconds.
func (t *Time) DtSeconds() float64 { return t.Dt.Seconds() }

type TimeModule struct {
}

func (mod TimeModule) Install(s *Scene, cmd *Commands) {
	cmd.AddResources(&Time{})
	cmd.UseSystem(System(timeSystem).InStage(Prelude))
}

func timeSystem(timeResource *Time) {
	timeResource.Now += timeResource.Dt
	timeResource.Ticks++
}
