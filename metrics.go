package kajak

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const instrumentationName = "github.com/kajakengine/kajak"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

// Metrics reports simulation counters through the global OTel meter
// (no-op if not configured).
type Metrics struct {
	ticks        metric.Int64Counter
	tickDuration metric.Float64Histogram
	interactions metric.Int64Counter
	laps         metric.Int64Counter
	stallResets  metric.Int64Counter

	tickStart time.Time
}

func NewMetrics(m metric.Meter) (*Metrics, error) {
	var (
		mt  Metrics
		err error
	)
	mt.ticks, err = m.Int64Counter(
		"kajak.scene.ticks",
		metric.WithDescription("Simulation ticks run"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating tick counter: %w", err)
	}

	mt.tickDuration, err = m.Float64Histogram(
		"kajak.scene.tick.duration",
		metric.WithDescription("Wall time spent in one tick"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating tick duration histogram: %w", err)
	}

	mt.interactions, err = m.Int64Counter(
		"kajak.interactions.fired",
		metric.WithDescription("Interaction reactions fired"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating interaction counter: %w", err)
	}

	mt.laps, err = m.Int64Counter(
		"kajak.race.laps",
		metric.WithDescription("Laps completed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating lap counter: %w", err)
	}

	mt.stallResets, err = m.Int64Counter(
		"kajak.race.stall_resets",
		metric.WithDescription("Cars put back on track after stalling"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stall counter: %w", err)
	}
	return &mt, nil
}

func (m *Metrics) watch(s *Scene) {
	ctx := context.Background()
	if table := s.Interactions(); table != nil {
		table.OnFired(func(a, b *Entity) {
			m.interactions.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", b.Kind.String())))
		})
	}
	if race := s.Race(); race != nil {
		race.OnLap(func(ev LapEvent) {
			m.laps.Add(ctx, 1, metric.WithAttributes(attribute.Bool("player", ev.IsPlayer)))
		})
		race.OnStallReset(func(StallEvent) {
			m.stallResets.Add(ctx, 1)
		})
	}
}

// MetricsModule must be installed after the interaction and race modules.
type MetricsModule struct {
	Meter metric.Meter
}

func (mod MetricsModule) Install(s *Scene, cmd *Commands) {
	m := mod.Meter
	if m == nil {
		m = meter()
	}
	mt, err := NewMetrics(m)
	if err != nil {
		s.Logger().Warnf("metrics disabled: %v", err)
		mt, _ = NewMetrics(noop.NewMeterProvider().Meter(instrumentationName))
	}
	mt.watch(s)
	cmd.AddResources(mt)
	cmd.UseSystem(System(tickStartSystem).InStage(Prelude))
	cmd.UseSystem(System(metricsSystem).InStage(Finale))
}

func tickStartSystem(m *Metrics) {
	m.tickStart = time.Now()
}

func metricsSystem(m *Metrics) {
	ctx := context.Background()
	m.ticks.Add(ctx, 1)
	if !m.tickStart.IsZero() {
		m.tickDuration.Record(ctx, float64(time.Since(m.tickStart).Microseconds())/1000)
	}
}
