package sim

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/particlesim/internal/attr"
	"github.com/san-kum/particlesim/internal/particles"
)

func TestStepWithoutEventsAppliesFullOffset(t *testing.T) {
	s, err := New(&StepDescription{Types: []*ParticleType{movingType("p")}}, WithBlockSize(4))
	require.NoError(t, err)
	seed(s, "p", 6, attr.Float3{X: 1, Y: 2})

	stats := s.Step(0.5)

	assert.Equal(t, 6, stats.Particles())
	assert.InDelta(t, 0.5, s.Time(), 1e-6)
	assert.Equal(t, 1, s.StepIndex())
	for _, p := range positions(s) {
		assert.InDelta(t, 0.5, p.X, 1e-6)
		assert.InDelta(t, 1.0, p.Y, 1e-6)
	}
}

func TestEventSeesStateAtTriggerTime(t *testing.T) {
	// Given a particle moving at (0,1,0) for a step of 2 seconds
	// When an event fires at half of its remaining duration
	// Then the event sees the particle at (0,1,0) with 1 second left.
	var seen recorder[attr.Float3]
	var remaining, current recorder[float32]
	ev := &funcEvent{
		filter: triggerAll(0.5),
		execute: func(x *EventExecuteInterface) {
			pos := x.Attributes().Float3(AttrPosition)
			for _, i := range x.Particles().Indices() {
				seen.add(pos[i])
				remaining.add(x.RemainingDurations()[i])
				current.add(x.CurrentTimes()[i])
			}
		},
	}
	s, err := New(&StepDescription{Types: []*ParticleType{movingType("p", ev)}})
	require.NoError(t, err)
	seed(s, "p", 1, attr.Float3{Y: 1})

	s.Step(2)

	require.Len(t, seen.all(), 1)
	assert.InDelta(t, 1.0, seen.all()[0].Y, 1e-6)
	assert.InDelta(t, 1.0, remaining.all()[0], 1e-6)
	assert.InDelta(t, 1.0, current.all()[0], 1e-6)

	// the remaining second is integrated after the last iteration
	assert.InDelta(t, 2.0, positions(s)[0].Y, 1e-6)
}

func TestEventIterations(t *testing.T) {
	var hits recorder[float32]
	ev := &funcEvent{
		filter: triggerAll(0.5),
		execute: func(x *EventExecuteInterface) {
			for _, i := range x.Particles().Indices() {
				hits.add(x.CurrentTimes()[i])
			}
		},
	}
	desc := &StepDescription{Types: []*ParticleType{movingType("p", ev)}, MaxEventIterations: 3}
	s, err := New(desc)
	require.NoError(t, err)
	seed(s, "p", 1, attr.Float3{X: 1})

	s.Step(2)

	got := hits.all()
	require.Len(t, got, 3)
	assert.InDelta(t, 1.0, got[0], 1e-6)
	assert.InDelta(t, 1.5, got[1], 1e-6)
	assert.InDelta(t, 1.75, got[2], 1e-6)
	assert.InDelta(t, 2.0, positions(s)[0].X, 1e-5)
}

func TestEarliestEventWins(t *testing.T) {
	var late, early recorder[int]
	lateEv := &funcEvent{filter: triggerAll(0.8), execute: func(x *EventExecuteInterface) { late.add(x.Particles().Indices()...) }}
	earlyEv := &funcEvent{filter: triggerAll(0.3), execute: func(x *EventExecuteInterface) { early.add(x.Particles().Indices()...) }}
	s, err := New(&StepDescription{Types: []*ParticleType{movingType("p", lateEv, earlyEv)}})
	require.NoError(t, err)
	seed(s, "p", 3, attr.Float3{})

	s.Step(1)

	assert.Empty(t, late.all())
	assert.ElementsMatch(t, []int{0, 1, 2}, early.all())
}

func TestEventTieGoesToFirstRegistered(t *testing.T) {
	var first, second recorder[int]
	a := &funcEvent{filter: triggerAll(0.5), execute: func(x *EventExecuteInterface) { first.add(x.Particles().Indices()...) }}
	b := &funcEvent{filter: triggerAll(0.5), execute: func(x *EventExecuteInterface) { second.add(x.Particles().Indices()...) }}
	s, err := New(&StepDescription{Types: []*ParticleType{movingType("p", a, b)}})
	require.NoError(t, err)
	seed(s, "p", 2, attr.Float3{})

	s.Step(1)

	assert.Len(t, first.all(), 2)
	assert.Empty(t, second.all())
}

func TestKnownMinTimeFactor(t *testing.T) {
	var known recorder[float32]
	a := &funcEvent{filter: triggerAll(0.25)}
	b := &funcEvent{filter: func(f *EventFilterInterface) {
		for _, i := range f.Particles().Indices() {
			known.add(f.KnownMinTimeFactor(i))
		}
	}}
	s, err := New(&StepDescription{Types: []*ParticleType{movingType("p", a, b)}})
	require.NoError(t, err)
	seed(s, "p", 1, attr.Float3{})

	s.Step(1)

	assert.Equal(t, []float32{0.25}, known.all())
}

func TestEventStoragePayload(t *testing.T) {
	var got recorder[byte]
	ev := &funcEvent{
		size: 2,
		filter: func(f *EventFilterInterface) {
			for _, i := range f.Particles().Indices() {
				p := f.TriggerParticle(i, 0.5)
				p[0], p[1] = byte(i), 0xAB
			}
		},
		execute: func(x *EventExecuteInterface) {
			for _, i := range x.Particles().Indices() {
				got.add(x.Storage(i)...)
			}
		},
	}
	s, err := New(&StepDescription{Types: []*ParticleType{movingType("p", ev)}}, WithWorkers(1))
	require.NoError(t, err)
	seed(s, "p", 2, attr.Float3{})

	s.Step(1)

	assert.Equal(t, []byte{0, 0xAB, 1, 0xAB}, got.all())
}

func TestKilledParticlesAreRemovedAndBlocksCompacted(t *testing.T) {
	ev := &funcEvent{
		filter: triggerAll(0),
		execute: func(x *EventExecuteInterface) {
			ids := x.Attributes().Int32(AttrID)
			for _, i := range x.Particles().Indices() {
				if ids[i]%2 == 0 {
					x.Kill(i)
				}
			}
		},
	}
	s, err := New(&StepDescription{Types: []*ParticleType{movingType("p", ev)}}, WithBlockSize(4))
	require.NoError(t, err)
	seed(s, "p", 10, attr.Float3{})
	require.Equal(t, 3, s.State().MustContainer("p").Len())

	stats := s.Step(1)

	assert.Equal(t, 5, stats.Killed)
	assert.Equal(t, 5, s.KindCount("p"))
	assert.Equal(t, 1, stats.Released)
	require.Len(t, stats.Kinds, 1)
	assert.Equal(t, 2, stats.Kinds[0].Blocks)

	ids, ok := s.State().MustContainer("p").Flatten(AttrID)
	require.True(t, ok)
	assert.ElementsMatch(t, []int32{1, 3, 5, 7, 9}, attr.Data[int32](ids))
}

func TestEmittedParticlesSimulatedFromBirth(t *testing.T) {
	em := funcEmitter(func(e *EmitterInterface) {
		if e.StepIndex() > 0 {
			return
		}
		sets := e.Allocator().Request("p", 3)
		particles.FillAll(sets, AttrVelocity, attr.Float3{X: 1})
		particles.FillAll(sets, AttrBirthTime, e.TimeSpan().Interpolate(0.5))
	})
	s, err := New(&StepDescription{Types: []*ParticleType{movingType("p")}, Emitters: []Emitter{em}})
	require.NoError(t, err)

	stats := s.Step(1)

	assert.Equal(t, 3, stats.Emitted)
	assert.Equal(t, 1, stats.Generations)
	for _, p := range positions(s) {
		assert.InDelta(t, 0.5, p.X, 1e-6)
	}

	// a full step for the same particles on the next call
	stats = s.Step(1)
	assert.Zero(t, stats.Emitted)
	require.Equal(t, 3, s.ParticleCount())
	for _, p := range positions(s) {
		assert.InDelta(t, 1.5, p.X, 1e-6)
	}
}

func TestBirthOutsideStepIsClamped(t *testing.T) {
	em := funcEmitter(func(e *EmitterInterface) {
		sets := e.Allocator().Request("p", 2)
		particles.FillAll(sets, AttrVelocity, attr.Float3{X: 1})
		particles.Fill(sets, AttrBirthTime, []float32{-5, 5})
	})
	s, err := New(&StepDescription{Types: []*ParticleType{movingType("p")}, Emitters: []Emitter{em}}, WithWorkers(1))
	require.NoError(t, err)

	s.Step(1)

	xs := []float32{}
	for _, p := range positions(s) {
		xs = append(xs, p.X)
	}
	assert.ElementsMatch(t, []float32{1, 0}, xs)
}

func TestSpawnedParticlesFinishTheStep(t *testing.T) {
	// Given shells that burst halfway through a 2 second step
	// When each burst spawns two sparks at the burst time
	// Then the sparks move for the remaining second in the same step.
	burst := &funcEvent{
		filter: triggerAll(0.5),
		execute: func(x *EventExecuteInterface) {
			rows := x.Particles().Indices()
			sparks := x.Spawn("spark", rows, 2)
			particles.FillAll(sparks, AttrBirthTime, x.CurrentTimes()[rows[0]])
			particles.FillAll(sparks, AttrVelocity, attr.Float3{Y: 1})
			for _, i := range rows {
				x.Kill(i)
			}
		},
	}
	desc := &StepDescription{Types: []*ParticleType{movingType("shell", burst), movingType("spark")}}
	s, err := New(desc)
	require.NoError(t, err)
	seed(s, "shell", 3, attr.Float3{})

	stats := s.Step(2)

	assert.Equal(t, 0, s.KindCount("shell"))
	assert.Equal(t, 6, s.KindCount("spark"))
	assert.Equal(t, 6, stats.Emitted)
	assert.Equal(t, 3, stats.Killed)
	for _, p := range positions(s) {
		assert.InDelta(t, 1.0, p.Y, 1e-6)
	}
}

func TestSpawnSamplesBirthInRemainingInterval(t *testing.T) {
	var births recorder[float32]
	ev := &funcEvent{
		filter: triggerAll(0.5),
		execute: func(x *EventExecuteInterface) {
			sets := x.Spawn("child", x.Particles().Indices(), 4)
			for _, set := range sets.Sets() {
				bt := set.Attributes().Float(AttrBirthTime)
				for _, i := range set.Indices() {
					births.add(bt[i])
				}
			}
		},
	}
	s, err := New(&StepDescription{Types: []*ParticleType{movingType("p", ev), movingType("child")}})
	require.NoError(t, err)
	seed(s, "p", 5, attr.Float3{})

	s.Step(2)

	require.Len(t, births.all(), 20)
	for _, b := range births.all() {
		assert.GreaterOrEqual(t, b, float32(1))
		assert.LessOrEqual(t, b, float32(2))
	}
}

func TestSpawnGenerationLimit(t *testing.T) {
	// every particle immediately replaces itself with a child
	chain := &funcEvent{
		filter: triggerAll(0),
		execute: func(x *EventExecuteInterface) {
			rows := x.Particles().Indices()
			x.Spawn("chain", rows, 1)
			for _, i := range rows {
				x.Kill(i)
			}
		},
	}
	em := funcEmitter(func(e *EmitterInterface) { e.Allocator().Request("chain", 1) })
	desc := &StepDescription{
		Types:               []*ParticleType{movingType("chain", chain)},
		Emitters:            []Emitter{em},
		MaxSpawnGenerations: 3,
	}
	s, err := New(desc)
	require.NoError(t, err)

	stats := s.Step(1)

	assert.Equal(t, 3, stats.Generations)
	assert.Equal(t, 3, stats.Killed)
	assert.Equal(t, 1, s.ParticleCount())
}

func TestListenerSeesFactorsBeforeDurationUpdate(t *testing.T) {
	type call struct{ factor, duration float32 }
	var calls recorder[call]
	pt := movingType("p", &funcEvent{filter: triggerAll(0.5)})
	pt.Listeners = []ForwardingListener{funcListener(func(f *ForwardingInterface) {
		for _, i := range f.Particles().Indices() {
			calls.add(call{f.TimeFactors()[i], f.Durations()[i]})
		}
	})}
	s, err := New(&StepDescription{Types: []*ParticleType{pt}})
	require.NoError(t, err)
	seed(s, "p", 1, attr.Float3{})

	s.Step(2)

	assert.Equal(t, []call{{0.5, 2}, {1, 1}}, calls.all())
}

func TestZeroStepIsNoop(t *testing.T) {
	var execs recorder[int]
	ev := &funcEvent{filter: triggerAll(0), execute: func(x *EventExecuteInterface) { execs.add(1) }}
	s, err := New(&StepDescription{Types: []*ParticleType{movingType("p", ev)}})
	require.NoError(t, err)
	seed(s, "p", 2, attr.Float3{X: 1})

	stats := s.Step(0)

	assert.Equal(t, 2, stats.Particles())
	assert.Zero(t, s.StepIndex())
	assert.Empty(t, execs.all())
	assert.Panics(t, func() { s.Step(-1) })
}

func TestRun(t *testing.T) {
	var steps recorder[StepStats]
	s, err := New(&StepDescription{Types: []*ParticleType{movingType("p")}},
		WithObserver(ObserverFunc(func(st StepStats) { steps.add(st) })))
	require.NoError(t, err)

	require.NoError(t, s.Run(context.Background(), 4, 0.25))
	assert.Len(t, steps.all(), 4)
	assert.InDelta(t, 1.0, s.Time(), 1e-6)

	assert.ErrorIs(t, s.Run(context.Background(), 1, 0), ErrNonPositiveStep)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Run(ctx, 3, 0.1), context.Canceled)
	assert.Len(t, steps.all(), 4)
}

func TestSetDescriptionMigratesAttributes(t *testing.T) {
	s, err := New(&StepDescription{Types: []*ParticleType{movingType("p")}})
	require.NoError(t, err)
	seed(s, "p", 2, attr.Float3{X: 1})
	s.Step(1)

	extra := attr.NewDeclaration()
	extra.AddFloat("Temperature", 300)
	pt := movingType("p")
	pt.Attributes = extra
	require.NoError(t, s.SetDescription(&StepDescription{Types: []*ParticleType{pt}}))

	c := s.State().MustContainer("p")
	temp, ok := c.Flatten("Temperature")
	require.True(t, ok)
	assert.Equal(t, []float32{300, 300}, attr.Data[float32](temp))
	for _, p := range positions(s) {
		assert.InDelta(t, 1.0, p.X, 1e-6)
	}
}

func TestDescriptionValidation(t *testing.T) {
	bad := attr.NewDeclaration()
	bad.AddFloat3("Spin", attr.Float3{})
	spin := &velocityIntegrator{offsets: bad.Freeze()}
	clash := attr.NewDeclaration()
	clash.AddFloat3(AttrSize, attr.Float3{})
	sized := &velocityIntegrator{offsets: clash.Freeze()}

	tests := []struct {
		name string
		desc *StepDescription
		want error
	}{
		{"empty", &StepDescription{}, ErrNoParticleTypes},
		{"duplicate", &StepDescription{Types: []*ParticleType{movingType("a"), movingType("a")}}, ErrDuplicateType},
		{"no integrator", &StepDescription{Types: []*ParticleType{{Name: "a"}}}, ErrMissingIntegrator},
		{"storage", &StepDescription{Types: []*ParticleType{movingType("a", &funcEvent{size: MaxEventStorage + 1})}}, ErrEventStorage},
		{"offset clashes with builtin", &StepDescription{Types: []*ParticleType{{Name: "a", Integrator: sized}}}, ErrInvalidOffset},
		{"offset declared by integrator", &StepDescription{Types: []*ParticleType{{Name: "a", Integrator: spin}}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.desc.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := New(&StepDescription{Types: []*ParticleType{movingType("a")}}, WithBlockSize(0))
	assert.ErrorIs(t, err, ErrInvalidBlockSize)
}

func TestBuiltinAttributes(t *testing.T) {
	schemas := (&StepDescription{Types: []*ParticleType{movingType("p")}}).Schemas()
	s := schemas["p"]
	for name, typ := range map[string]attr.Type{
		AttrID:        attr.TypeInt32,
		AttrKillState: attr.TypeByte,
		AttrBirthTime: attr.TypeFloat,
		AttrPosition:  attr.TypeFloat3,
		AttrVelocity:  attr.TypeFloat3,
		AttrSize:      attr.TypeFloat,
		AttrColor:     attr.TypeColorFloat,
	} {
		assert.True(t, s.Has(name, typ), name)
	}
}

func TestTimeSpan(t *testing.T) {
	span := TimeSpan{Start: 1, Duration: 2}
	assert.Equal(t, float32(3), span.End())
	assert.Equal(t, float32(2), span.Interpolate(0.5))
	assert.Equal(t, float32(0.25), span.Factor(1.5))
	assert.Equal(t, float32(3), span.Clamp(10))
	assert.Equal(t, float32(0), TimeSpan{Start: 1}.Factor(4))
}

func BenchmarkStep(b *testing.B) {
	s, err := New(&StepDescription{Types: []*ParticleType{movingType("p", &funcEvent{filter: triggerAll(0.5)})}})
	require.NoError(b, err)
	seed(s, "p", 100_000, attr.Float3{X: 1})
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Step(0.01)
	}
}
