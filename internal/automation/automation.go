// Package automation runs scripted batches of simulations from YAML.
package automation

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/particlesim/internal/config"
	"github.com/san-kum/particlesim/internal/experiment"
	"github.com/san-kum/particlesim/internal/storage"
)

// Scenario is a named sequence of runs.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep picks a preset or a config file and optionally overrides a
// few of its values. Zero values keep the base config.
type ScenarioStep struct {
	Preset    string  `yaml:"preset"`
	Config    string  `yaml:"config"`
	Steps     int     `yaml:"steps"`
	Dt        float64 `yaml:"dt"`
	Workers   int     `yaml:"workers"`
	Seed      uint64  `yaml:"seed"`
	BlockSize int     `yaml:"block_size"`
	SaveAs    string  `yaml:"save_as"`
}

// StepResult reports one finished scenario step.
type StepResult struct {
	Name   string
	RunID  string
	Result *experiment.Result
}

// LoadScenario reads a scenario file. Relative config paths in its steps are
// resolved against the file's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	for i := range scenario.Steps {
		if c := scenario.Steps[i].Config; c != "" && !filepath.IsAbs(c) {
			scenario.Steps[i].Config = filepath.Join(filepath.Dir(path), c)
		}
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %q has no steps", scenario.Name)
	}
	return &scenario, nil
}

// Resolve builds the effective config of a step.
func (s ScenarioStep) Resolve() (*config.Config, error) {
	var cfg *config.Config
	switch {
	case s.Config != "":
		var err error
		if cfg, err = config.Load(s.Config); err != nil {
			return nil, err
		}
	case s.Preset != "":
		if cfg = config.GetPreset(s.Preset); cfg == nil {
			return nil, fmt.Errorf("unknown preset %q", s.Preset)
		}
	default:
		return nil, fmt.Errorf("step needs a preset or a config")
	}

	if s.Steps > 0 {
		cfg.Steps = s.Steps
	}
	if s.Dt > 0 {
		cfg.Dt = s.Dt
	}
	if s.Workers > 0 {
		cfg.Workers = s.Workers
	}
	if s.Seed > 0 {
		cfg.Seed = s.Seed
	}
	if s.BlockSize > 0 {
		cfg.BlockSize = s.BlockSize
	}
	if s.SaveAs != "" {
		cfg.Name = s.SaveAs
	}
	return cfg, nil
}

// RunScenario executes every step in order. Steps with SaveAs are stored
// when store is not nil. It stops at the first failing step.
func RunScenario(ctx context.Context, scenario *Scenario, store *storage.Store, log *logrus.Entry) ([]StepResult, error) {
	if log == nil {
		log = logrus.WithField("component", "scenario")
	}
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		cfg, err := step.Resolve()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		log.WithFields(logrus.Fields{
			"scenario": scenario.Name,
			"step":     i + 1,
			"of":       len(scenario.Steps),
			"name":     cfg.Name,
		}).Info("running scenario step")

		exp := experiment.New(cfg, log.WithField("run", cfg.Name))
		if err := exp.Setup(); err != nil {
			return results, fmt.Errorf("step %d setup: %w", i+1, err)
		}
		res, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		sr := StepResult{Name: cfg.Name, Result: res}
		if step.SaveAs != "" && store != nil {
			if sr.RunID, err = store.Save(exp.Record(res)); err != nil {
				return results, fmt.Errorf("step %d save: %w", i+1, err)
			}
		}
		results = append(results, sr)
	}
	return results, nil
}
