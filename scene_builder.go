package kajak

import (
	"math/rand/v2"
)

type Module interface {
	Install(s *Scene, cmd *Commands)
}

type SceneBuilder struct {
	scene   *Scene
	modules []Module
	rng     *rand.Rand
}

func NewSceneBuilder() *SceneBuilder {
	return &SceneBuilder{scene: newScene()}
}

// WithRand injects the random source used by weather, items, slips and AI.
func (b *SceneBuilder) WithRand(rng *rand.Rand) *SceneBuilder {
	b.rng = rng
	return b
}

// WithSeed is WithRand over a PCG source seeded with seed.
func (b *SceneBuilder) WithSeed(seed uint64) *SceneBuilder {
	return b.WithRand(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

func (b *SceneBuilder) WithLogger(l Logger) *SceneBuilder {
	b.scene.logger = l
	return b
}

func (b *SceneBuilder) UseModule(modules ...Module) *SceneBuilder {
	b.modules = append(b.modules, modules...)

	return b
}

func (b *SceneBuilder) Build() *Scene {
	s := b.scene
	commands := &Commands{scene: s}

	rng := b.rng
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	s.addResources(rng)

	for _, module := range b.modules {
		module.Install(s, commands)
	}
	s.modules = b.modules
	s.Logger().Debugf("scene %s built with %d modules", s.id, len(b.modules))

	return s
}

// DefaultModules is the full simulation stack in installation order.
func DefaultModules() []Module {
	return []Module{
		TimeModule{},
		SpatialModule{},
		PhysicsModule{},
		InteractionModule{},
		RaceModule{Config: DefaultRaceConfig()},
		AIModule{},
		ItemsModule{},
		WeatherModule{},
		LifecycleModule{},
		MetricsModule{},
	}
}

// NewScene builds a scene with DefaultModules followed by extra.
func NewScene(extra ...Module) *Scene {
	return NewSceneBuilder().
		UseModule(DefaultModules()...).
		UseModule(extra...).
		Build()
}
