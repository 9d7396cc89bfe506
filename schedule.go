package kajak

import (
	"fmt"
	"slices"
)

type Stage struct {
	Name string
}

// Stages run in this order on every tick. Commands are flushed after each.
var (
	Prelude    = Stage{Name: "Prelude"}
	Think      = Stage{Name: "Think"}
	Broadphase = Stage{Name: "Broadphase"}
	Integrate  = Stage{Name: "Integrate"}
	Ambient    = Stage{Name: "Ambient"}
	Progress   = Stage{Name: "Progress"}
	Resolve    = Stage{Name: "Resolve"}
	Finale     = Stage{Name: "Finale"}
)

func defaultStages() []Stage {
	return []Stage{Prelude, Think, Broadphase, Integrate, Ambient, Progress, Resolve, Finale}
}

type systemScheduleBuilder struct {
	inStage Stage
	system  systemFn
}

func (sched systemScheduleBuilder) InStage(s Stage) systemScheduleBuilder {
	return systemScheduleBuilder{
		system:  sched.system,
		inStage: s,
	}
}

// System wraps a function whose parameters are resolved from the scene:
// *Commands, *Scene, or a pointer to any registered resource.
func System(system systemFn) systemScheduleBuilder {
	return systemScheduleBuilder{
		system:  system,
		inStage: Integrate,
	}
}

type stagePosition int

const (
	stageBefore stagePosition = iota
	stageAfter
)

type stagePositionBuilder struct {
	position stagePosition
	target   Stage
}

func BeforeStage(s Stage) stagePositionBuilder {
	return stagePositionBuilder{
		position: stageBefore,
		target:   s,
	}
}

func AfterStage(s Stage) stagePositionBuilder {
	return stagePositionBuilder{
		position: stageAfter,
		target:   s,
	}
}

func (s *Scene) UseStage(stage Stage, where stagePositionBuilder) *Scene {
	var stageIdx int = -1
	for i, st := range s.stages {
		if st.Name == where.target.Name {
			stageIdx = i
			break
		}
	}
	if -1 == stageIdx {
		panic(fmt.Sprintf("Stage %v not found", where.target.Name))
	}

	var insertAt int
	if stageBefore == where.position {
		insertAt = stageIdx
	} else {
		insertAt = stageIdx + 1
	}

	s.stages = slices.Insert(s.stages, insertAt, stage)
	s.systems[stage.Name] = make([]systemFn, 0)

	return s
}

func (s *Scene) UseSystem(system systemScheduleBuilder) *Scene {
	if _, ok := s.systems[system.inStage.Name]; ok {
		s.systems[system.inStage.Name] = append(s.systems[system.inStage.Name], system.system)
		return s
	}
	panic(fmt.Sprintf("Stage %v doesn't exist", system.inStage.Name))
}
