package sim

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/particlesim/internal/attr"
	"github.com/san-kum/particlesim/internal/compute"
	"github.com/san-kum/particlesim/internal/particles"
)

const DefaultBlockSize = 1000

type options struct {
	blockSize int
	workers   int
	seed      uint64
	log       *logrus.Entry
	observers []Observer
}

type Option func(*options)

func WithBlockSize(n int) Option          { return func(o *options) { o.blockSize = n } }
func WithWorkers(n int) Option            { return func(o *options) { o.workers = n } }
func WithSeed(seed uint64) Option         { return func(o *options) { o.seed = seed } }
func WithLogger(log *logrus.Entry) Option { return func(o *options) { o.log = log } }

func WithObserver(obs Observer) Option {
	return func(o *options) { o.observers = append(o.observers, obs) }
}

// Simulation owns the particle state and advances it with a StepDescription.
type Simulation struct {
	desc      *StepDescription
	schemas   map[string]*attr.Schema
	state     *particles.State
	solver    *Solver
	observers []Observer
	log       *logrus.Entry

	time float32
	step int
}

func New(desc *StepDescription, opts ...Option) (*Simulation, error) {
	o := options{blockSize: DefaultBlockSize, seed: 1}
	for _, opt := range opts {
		opt(&o)
	}
	if o.blockSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBlockSize, o.blockSize)
	}
	if o.log == nil {
		o.log = logrus.WithField("component", "sim")
	}
	s := &Simulation{
		state:     particles.NewState(o.blockSize),
		solver:    NewSolver(compute.NewPool(o.workers), o.seed, o.log.WithField("component", "solver")),
		observers: o.observers,
		log:       o.log,
	}
	if err := s.SetDescription(desc); err != nil {
		return nil, err
	}
	return s, nil
}

// SetDescription replaces the behaviors. Existing particles keep the
// attributes the new schemas retain.
func (s *Simulation) SetDescription(desc *StepDescription) error {
	if err := desc.Validate(); err != nil {
		return err
	}
	s.desc = desc
	s.schemas = desc.Schemas()
	for _, t := range desc.Types {
		c := s.state.Ensure(t.Name, s.schemas[t.Name])
		c.SetLogger(s.log.WithFields(logrus.Fields{"component": "block", "kind": t.Name}))
	}
	s.log.WithField("types", len(desc.Types)).Debug("description applied")
	return nil
}

func (s *Simulation) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulation) Description() *StepDescription { return s.desc }
func (s *Simulation) State() *particles.State        { return s.state }
func (s *Simulation) Time() float32                  { return s.time }
func (s *Simulation) StepIndex() int                 { return s.step }
func (s *Simulation) Workers() int                   { return s.solver.pool.Workers() }

// Step advances the simulation by elapsed seconds. A zero step does nothing.
func (s *Simulation) Step(elapsed float32) StepStats {
	if elapsed < 0 {
		panic(fmt.Sprintf("sim: negative step %v", elapsed))
	}
	if elapsed == 0 {
		return StepStats{Step: s.step, Start: s.time, Kinds: s.kindStats()}
	}
	began := time.Now()
	span := TimeSpan{Start: s.time, Duration: elapsed}
	stats, err := s.solver.Step(context.Background(), s.state, s.desc, span, s.step)
	if err != nil {
		panic(fmt.Sprintf("sim: step %d: %v", s.step, err))
	}
	stats.Elapsed = time.Since(began)

	s.time = span.End()
	s.step++

	s.log.WithFields(logrus.Fields{
		"step":      stats.Step,
		"particles": stats.Particles(),
		"emitted":   stats.Emitted,
		"killed":    stats.Killed,
		"elapsed":   stats.Elapsed,
	}).Debug("step")
	for _, o := range s.observers {
		o.OnStep(stats)
	}
	return stats
}

// Run performs steps of dt seconds, checking ctx between steps.
func (s *Simulation) Run(ctx context.Context, steps int, dt float32) error {
	if dt <= 0 {
		return fmt.Errorf("%w: %v", ErrNonPositiveStep, dt)
	}
	for i := 0; i < steps; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.Step(dt)
	}
	return nil
}

func (s *Simulation) ParticleCount() int { return s.state.ParticleCount() }

// KindCount returns the population of one particle type.
func (s *Simulation) KindCount(kind string) int {
	c, ok := s.state.Container(kind)
	if !ok {
		return 0
	}
	return c.CountActive()
}

// Positions copies the positions of all particles into dst and returns how
// many were written.
func (s *Simulation) Positions(dst []attr.Float3) int { return s.state.Positions(dst) }

func (s *Simulation) kindStats() []KindStats {
	out := make([]KindStats, 0, len(s.desc.Types))
	for _, t := range s.desc.Types {
		c := s.state.MustContainer(t.Name)
		out = append(out, KindStats{Kind: t.Name, Particles: c.CountActive(), Blocks: c.Len()})
	}
	return out
}
