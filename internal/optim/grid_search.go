package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/particlesim/internal/config"
	"github.com/san-kum/particlesim/internal/experiment"
)

var ErrNoTrials = errors.New("optim: no trial completed")

// Trial is one evaluated grid point.
type Trial struct {
	Params map[string]float64
	Value  float64
	Err    error
}

type GridSearch struct {
	// Maximize selects the largest metric value instead of the smallest.
	Maximize bool

	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Search runs one experiment per grid point and returns the best parameters
// by metricName along with every trial in grid order. Failed trials are kept
// with their error.
func (g *GridSearch) Search(
	ctx context.Context,
	buildExperiment func(params map[string]float64) (*experiment.Experiment, error),
	metricName string,
) (map[string]float64, float64, []Trial, error) {
	if len(g.paramNames) != len(g.ranges) {
		return nil, 0, nil, fmt.Errorf("optim: %d params but %d ranges", len(g.paramNames), len(g.ranges))
	}

	best := math.Inf(1)
	if g.Maximize {
		best = math.Inf(-1)
	}
	var bestParams map[string]float64
	var trials []Trial

	err := g.searchRecursive(ctx, 0, map[string]float64{}, func(params map[string]float64) {
		trial := Trial{Params: params}
		defer func() { trials = append(trials, trial) }()

		exp, err := buildExperiment(params)
		if err != nil {
			trial.Err = err
			return
		}
		result, err := exp.Run(ctx)
		if err != nil {
			trial.Err = err
			return
		}
		val, ok := result.Metrics[metricName]
		if !ok {
			trial.Err = fmt.Errorf("optim: unknown metric %q", metricName)
			return
		}
		trial.Value = val
		if g.better(val, best) {
			best = val
			bestParams = params
		}
	})
	if err != nil {
		return bestParams, best, trials, err
	}
	if bestParams == nil {
		return nil, 0, trials, ErrNoTrials
	}
	return bestParams, best, trials, nil
}

func (g *GridSearch) better(v, best float64) bool {
	if g.Maximize {
		return v > best
	}
	return v < best
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	visit func(map[string]float64),
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if depth == len(g.paramNames) {
		visit(current)
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64, len(current)+1)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, visit); err != nil {
			return err
		}
	}
	return nil
}

var tunables = map[string]func(*config.Config, float64){
	"workers":               func(c *config.Config, v float64) { c.Workers = int(v) },
	"block_size":            func(c *config.Config, v float64) { c.BlockSize = int(v) },
	"max_event_iterations":  func(c *config.Config, v float64) { c.MaxEventIterations = int(v) },
	"max_spawn_generations": func(c *config.Config, v float64) { c.MaxSpawnGenerations = int(v) },
	"dt":                    func(c *config.Config, v float64) { c.Dt = v },
	"seed":                  func(c *config.Config, v float64) { c.Seed = uint64(v) },
}

// Tunables lists the parameter names ApplyParams understands.
func Tunables() []string {
	names := make([]string, 0, len(tunables))
	for k := range tunables {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// ApplyParams returns a copy of base with params set.
func ApplyParams(base *config.Config, params map[string]float64) (*config.Config, error) {
	cfg := *base
	for name, v := range params {
		set, ok := tunables[name]
		if !ok {
			return nil, fmt.Errorf("optim: unknown parameter %q", name)
		}
		set(&cfg, v)
	}
	return &cfg, nil
}

// ConfigBuilder builds set up experiments from base with grid params applied.
func ConfigBuilder(base *config.Config, log *logrus.Entry) func(map[string]float64) (*experiment.Experiment, error) {
	return func(params map[string]float64) (*experiment.Experiment, error) {
		cfg, err := ApplyParams(base, params)
		if err != nil {
			return nil, err
		}
		exp := experiment.New(cfg, log)
		if err := exp.Setup(); err != nil {
			return nil, err
		}
		return exp, nil
	}
}
