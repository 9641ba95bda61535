package experiment

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/particlesim/internal/attr"
	"github.com/san-kum/particlesim/internal/config"
	"github.com/san-kum/particlesim/internal/metrics"
	"github.com/san-kum/particlesim/internal/sim"
	"github.com/san-kum/particlesim/internal/storage"
)

// Result is what a finished run produced.
type Result struct {
	Steps     []sim.StepStats
	Metrics   map[string]float64
	Positions []attr.Float3
	Elapsed   time.Duration
}

type Experiment struct {
	cfg        *config.Config
	registry   *Registry
	simulation *sim.Simulation
	history    *metrics.History
	observer   *metrics.Observer
	log        *logrus.Entry
}

func New(cfg *config.Config, log *logrus.Entry) *Experiment {
	if log == nil {
		log = logrus.WithField("component", "experiment")
	}
	return &Experiment{cfg: cfg, registry: NewRegistry(), log: log}
}

func (e *Experiment) Config() *config.Config { return e.cfg }

// Setup validates the config and builds the simulation. Extra observers see
// every step after the built in history and metrics.
func (e *Experiment) Setup(observers ...sim.Observer) error {
	if err := e.cfg.Validate(); err != nil {
		return err
	}
	desc, err := e.registry.Build(e.cfg)
	if err != nil {
		return err
	}
	e.history = metrics.NewHistory(0)
	e.observer = metrics.NewObserver(metrics.Defaults()...)

	opts := []sim.Option{
		sim.WithBlockSize(e.cfg.BlockSize),
		sim.WithWorkers(e.cfg.Workers),
		sim.WithSeed(e.cfg.Seed),
		sim.WithLogger(e.log.WithField("component", "sim")),
		sim.WithObserver(e.history),
		sim.WithObserver(e.observer),
	}
	for _, em := range desc.Emitters {
		if o, ok := em.(sim.Observer); ok {
			opts = append(opts, sim.WithObserver(o))
		}
	}
	for _, o := range observers {
		opts = append(opts, sim.WithObserver(o))
	}
	e.simulation, err = sim.New(desc, opts...)
	if err != nil {
		return err
	}
	e.log.WithFields(logrus.Fields{
		"name":     e.cfg.Name,
		"kinds":    len(desc.Types),
		"emitters": len(desc.Emitters),
		"workers":  e.simulation.Workers(),
	}).Info("experiment ready")
	return nil
}

func (e *Experiment) Run(ctx context.Context) (*Result, error) {
	if e.simulation == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	began := time.Now()
	err := e.simulation.Run(ctx, e.cfg.Steps, float32(e.cfg.Dt))
	res := e.Result()
	res.Elapsed = time.Since(began)
	if err != nil {
		return res, err
	}
	e.log.WithFields(logrus.Fields{
		"steps":     len(res.Steps),
		"particles": len(res.Positions),
		"elapsed":   res.Elapsed,
	}).Info("experiment finished")
	return res, nil
}

// Result snapshots the run so far.
func (e *Experiment) Result() *Result {
	pos := make([]attr.Float3, e.simulation.ParticleCount())
	n := e.simulation.Positions(pos)
	return &Result{
		Steps:     e.history.Steps(),
		Metrics:   e.observer.Values(),
		Positions: pos[:n],
	}
}

// Simulation returns the underlying simulation for stepping it directly.
func (e *Experiment) Simulation() *sim.Simulation { return e.simulation }

func (e *Experiment) History() *metrics.History { return e.history }

// Record converts a result into a storable run.
func (e *Experiment) Record(res *Result) *storage.Run {
	kinds := make([]string, 0, len(e.cfg.Kinds))
	for _, k := range e.cfg.Kinds {
		kinds = append(kinds, k.Name)
	}
	return &storage.Run{
		Meta: storage.RunMetadata{
			Name:      e.cfg.Name,
			Seed:      e.cfg.Seed,
			Dt:        e.cfg.Dt,
			Steps:     len(res.Steps),
			BlockSize: e.cfg.BlockSize,
			Workers:   e.simulation.Workers(),
			Kinds:     kinds,
			Metrics:   res.Metrics,
		},
		Stats:     res.Steps,
		Positions: res.Positions,
	}
}
