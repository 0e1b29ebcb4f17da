package reinforcement

import (
	"fmt"
	"path/filepath"

	"pursuit/models"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// OuterConfig is the envelope of a config file: a kind tag and its definition.
type OuterConfig struct {
	Kind string      `mapstructure:"kind"`
	Def  interface{} `mapstructure:"def"`
}

// The only config kind understood by FromYaml.
const EXPERIMENT_KIND = "PursuitExperiment"

// TrainingConfig holds everything needed to run an experiment: the hyper params for value
// iteration, the game setup, the agent policies and the run loop parameters.
// Tags are lowercase since viper lowercases every key it reads; files may use any case.
type TrainingConfig struct {
	// HyperParams is a key-val pair of param names and their value.
	HyperParams []HyperParameter `yaml:"hyperparams"`
	Game        GameConfig       `yaml:"game"`
	Policies    PolicyConfig     `yaml:"policies"`
	Experiment  ExperimentConfig `yaml:"experiment"`
}

type HyperParameter struct {
	Key string  `yaml:"key"`
	Val float64 `yaml:"val"`
}

// GameConfig is the grid size and the agents' starting cells for every game.
type GameConfig struct {
	Rows          int             `yaml:"rows"`
	Cols          int             `yaml:"cols"`
	PredatorStart models.Location `yaml:"predatorstart"`
	PreyStart     models.Location `yaml:"preystart"`
}

// PolicyConfig maps action names to probabilities per agent. An empty map selects the
// agent's canonical policy.
type PolicyConfig struct {
	Predator map[string]float64 `yaml:"predator"`
	Prey     map[string]float64 `yaml:"prey"`
}

// ExperimentConfig describes the run loop.
type ExperimentConfig struct {
	// Runs is the number of games played.
	Runs int `yaml:"runs"`
	// Workers is the number of concurrent game loops, each with its own agents.
	Workers int `yaml:"workers"`
	// Seed for the random sources; zero selects a time based seed.
	Seed int64 `yaml:"seed"`
	// Verbosity: 0 silent, 1 print on capture, 2 print every turn.
	Verbosity int `yaml:"verbosity"`
	// MaxSteps caps a single game; zero is unbounded.
	MaxSteps int `yaml:"maxsteps"`
}

// Hyper param keys and defaults.
const (
	DISCOUNT_PARAM   = "discount"
	LOOPS_PARAM      = "loops"
	DEFAULT_DISCOUNT = 0.9
	DEFAULT_LOOPS    = 3
)

// DefaultGameConfig is the classic 11x11 setup with the predator in a corner and the prey
// in the middle.
func DefaultGameConfig() GameConfig {
	return GameConfig{
		Rows:          11,
		Cols:          11,
		PredatorStart: models.Location{Row: 0, Col: 0},
		PreyStart:     models.Location{Row: 5, Col: 5},
	}
}

// DefaultTrainingConfig returns the config used when no file is given.
func DefaultTrainingConfig() *TrainingConfig {
	return &TrainingConfig{
		HyperParams: []HyperParameter{
			{Key: DISCOUNT_PARAM, Val: DEFAULT_DISCOUNT},
			{Key: LOOPS_PARAM, Val: DEFAULT_LOOPS},
		},
		Game: DefaultGameConfig(),
		Experiment: ExperimentConfig{
			Runs:      1,
			Workers:   1,
			Verbosity: 2,
		},
	}
}

func (cfg *TrainingConfig) GetHyperParamOrDefault(param string, defaultVal float64) float64 {
	for _, kvp := range cfg.HyperParams {
		if kvp.Key == param {
			return kvp.Val
		}
	}
	return defaultVal
}

// SetHyperParam overwrites or appends a hyper param.
func (cfg *TrainingConfig) SetHyperParam(param string, val float64) {
	for i := range cfg.HyperParams {
		if cfg.HyperParams[i].Key == param {
			cfg.HyperParams[i].Val = val
			return
		}
	}
	cfg.HyperParams = append(cfg.HyperParams, HyperParameter{Key: param, Val: val})
}

// Discount is the value iteration discount factor.
func (cfg *TrainingConfig) Discount() float64 {
	return cfg.GetHyperParamOrDefault(DISCOUNT_PARAM, DEFAULT_DISCOUNT)
}

// Loops is the number of value iteration sweeps.
func (cfg *TrainingConfig) Loops() int {
	return int(cfg.GetHyperParamOrDefault(LOOPS_PARAM, DEFAULT_LOOPS))
}

// ResolvePolicies returns the predator and prey policies, falling back to the canonical ones.
func (cfg *TrainingConfig) ResolvePolicies() (predator, prey models.Policy, err error) {
	predator, prey = models.PredatorPolicy(), models.PreyPolicy()
	if len(cfg.Policies.Predator) > 0 {
		if predator, err = models.PolicyFromNames(cfg.Policies.Predator); err != nil {
			return predator, prey, fmt.Errorf("predator policy: %w", err)
		}
	}
	if len(cfg.Policies.Prey) > 0 {
		if prey, err = models.PolicyFromNames(cfg.Policies.Prey); err != nil {
			return predator, prey, fmt.Errorf("prey policy: %w", err)
		}
	}
	return
}

// Validate checks the whole config, returning models.ErrConfiguration or
// models.ErrInvalidPolicyState wrapped with the offending field.
func (cfg *TrainingConfig) Validate() error {
	if err := cfg.Game.Validate(); err != nil {
		return err
	}
	if _, _, err := cfg.ResolvePolicies(); err != nil {
		return err
	}
	exp := cfg.Experiment
	if exp.Runs < 1 {
		return fmt.Errorf("runs must be positive, got %d: %w", exp.Runs, models.ErrConfiguration)
	}
	if exp.Workers < 1 {
		return fmt.Errorf("workers must be positive, got %d: %w", exp.Workers, models.ErrConfiguration)
	}
	if exp.Verbosity < 0 || exp.Verbosity > 2 {
		return fmt.Errorf("verbosity must be 0, 1 or 2, got %d: %w", exp.Verbosity, models.ErrConfiguration)
	}
	if exp.MaxSteps < 0 {
		return fmt.Errorf("maxSteps must not be negative, got %d: %w", exp.MaxSteps, models.ErrConfiguration)
	}
	if cfg.Loops() < 0 {
		return fmt.Errorf("loops must not be negative, got %d: %w", cfg.Loops(), models.ErrConfiguration)
	}
	return nil
}

// Validate rejects non-positive grid sizes and start cells off the grid. Start cells are
// not wrapped onto the grid, since that would hide a typo in the config.
func (gc GameConfig) Validate() error {
	if gc.Rows <= 0 || gc.Cols <= 0 {
		return fmt.Errorf("grid size %dx%d: %w", gc.Rows, gc.Cols, models.ErrConfiguration)
	}
	inBounds := func(loc models.Location) bool {
		return loc.Row >= 0 && loc.Row < gc.Rows && loc.Col >= 0 && loc.Col < gc.Cols
	}
	if !inBounds(gc.PredatorStart) {
		return fmt.Errorf("predator start %v outside %dx%d grid: %w",
			gc.PredatorStart, gc.Rows, gc.Cols, models.ErrConfiguration)
	}
	if !inBounds(gc.PreyStart) {
		return fmt.Errorf("prey start %v outside %dx%d grid: %w",
			gc.PreyStart, gc.Rows, gc.Cols, models.ErrConfiguration)
	}
	return nil
}

// FromYaml reads a TrainingConfig from a yaml file of the form:
//
//	kind: PursuitExperiment
//	def:
//	  hyperParams: ...
//
// Fields missing from the file keep their DefaultTrainingConfig values.
func FromYaml(path string) (*TrainingConfig, error) {
	vp := viper.New()
	vp.SetConfigFile(path)
	vp.SetConfigType("yaml")
	vp.AddConfigPath(filepath.Dir(path))
	var err error
	if err = vp.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	outerConfig := &OuterConfig{}
	if err = vp.Unmarshal(outerConfig); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	if outerConfig.Kind != EXPERIMENT_KIND {
		return nil, fmt.Errorf("config %s has kind %q, expected %q: %w",
			path, outerConfig.Kind, EXPERIMENT_KIND, models.ErrConfiguration)
	}

	var spec []byte
	if spec, err = yaml.Marshal(outerConfig.Def); err != nil {
		return nil, err
	}

	innerConfig := DefaultTrainingConfig()
	if err = yaml.Unmarshal(spec, innerConfig); err != nil {
		return nil, fmt.Errorf("decode config %s def: %w", path, err)
	}

	return innerConfig, nil
}
