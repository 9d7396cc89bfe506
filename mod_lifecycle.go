package kajak

import (
	"time"
)

// Lifetime removes its entity from the scene once Remaining runs out.
type Lifetime struct {
	Remaining time.Duration
}

type LifecycleModule struct{}

func (mod LifecycleModule) Install(s *Scene, cmd *Commands) {
	cmd.UseSystem(System(lifetimeSystem).InStage(Ambient))
}

func lifetimeSystem(s *Scene, t *Time, cmd *Commands) {
	dt := t.Dt
	if dt <= 0 {
		return
	}
	for _, e := range s.Entities() {
		if e.Lifetime == nil {
			continue
		}
		e.Lifetime.Remaining -= dt
		if e.Lifetime.Remaining <= 0 {
			s.Logger().Debugf("lifetime of %s entity %d expired", e.Kind, e.ID)
			cmd.Remove(e.ID)
		}
	}
}
