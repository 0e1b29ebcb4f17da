package reinforcement

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"pursuit/atomic_float"
	"pursuit/models"

	"github.com/google/uuid"
	channerics "github.com/niceyeti/channerics/channels"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// RunResult is the outcome of a single game.
type RunResult struct {
	// Run is the zero-based index of the game within the experiment.
	Run    int
	Worker int
	Steps  int
	// CumulativeReward is the worker's predator reward after this game. A worker reuses its
	// predator for all of its games, so the reward keeps growing.
	CumulativeReward int
}

// Summary is the steps-to-capture statistics over all runs. StdDev is the population
// standard deviation.
type Summary struct {
	Runs     int
	Mean     float64
	StdDev   float64
	Min, Max int
}

// ExperimentResult holds every run, ordered by run index, and their summary.
type ExperimentResult struct {
	ID      string
	Seed    int64
	Results []RunResult
	Summary Summary
}

// ExperimentOptions are the non-config knobs of RunExperiment.
type ExperimentOptions struct {
	// Logger defaults to a disabled logger when nil.
	Logger *zerolog.Logger
	// OnTurn is passed to every game; calls are serialized across workers.
	OnTurn TurnFunc
	// ProgressInterval is how often progress is logged; zero selects a default.
	ProgressInterval time.Duration
}

const defaultProgressInterval = 2 * time.Second

// progress is the running tally shared by the workers.
type progress struct {
	games *atomic_float.AtomicFloat64
	steps *atomic_float.AtomicFloat64
}

func (p *progress) record(steps int) {
	p.steps.Add(float64(steps))
	p.games.Add(1)
}

// RunExperiment plays cfg.Experiment.Runs games and summarizes how many turns each took.
// Run r is played by worker r % workers. Each worker owns one predator/prey pair, reused
// across its games, and its own random source seeded with seed+worker, so the results for
// a given seed and worker count are reproducible. With one worker the experiment is the
// plain sequential loop over shared agents.
func RunExperiment(
	ctx context.Context,
	cfg *TrainingConfig,
	opts ExperimentOptions,
) (*ExperimentResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	predatorPolicy, preyPolicy, err := cfg.ResolvePolicies()
	if err != nil {
		return nil, err
	}

	exp := cfg.Experiment
	seed := exp.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	id := uuid.NewString()
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = opts.Logger.With().Str("experiment", id).Logger()
	}
	logger.Info().
		Int("runs", exp.Runs).
		Int("workers", exp.Workers).
		Int64("seed", seed).
		Msg("starting experiment")

	onTurn := opts.OnTurn
	if onTurn != nil && exp.Workers > 1 {
		var mu sync.Mutex
		inner := onTurn
		onTurn = func(g *Game) {
			mu.Lock()
			defer mu.Unlock()
			inner(g)
		}
	}

	tally := &progress{
		games: atomic_float.NewAtomicFloat64(0),
		steps: atomic_float.NewAtomicFloat64(0),
	}

	group, groupCtx := errgroup.WithContext(ctx)
	outputs := make([]<-chan RunResult, exp.Workers)
	for w := 0; w < exp.Workers; w++ {
		worker := w
		results := make(chan RunResult)
		outputs[worker] = results
		group.Go(func() error {
			defer close(results)
			predator := models.NewPredator(cfg.Game.PredatorStart, predatorPolicy)
			prey := models.NewPrey(cfg.Game.PreyStart, preyPolicy)
			rng := rand.New(rand.NewSource(seed + int64(worker)))
			gameOpts := []GameOption{
				WithLogger(logger.With().Int("worker", worker).Logger()),
				WithMaxSteps(exp.MaxSteps),
			}
			if onTurn != nil {
				gameOpts = append(gameOpts, WithTurnFunc(onTurn))
			}

			for run := worker; run < exp.Runs; run += exp.Workers {
				select {
				case <-groupCtx.Done():
					return groupCtx.Err()
				default:
				}

				game, err := NewGame(cfg.Game, predator, prey, rng, gameOpts...)
				if err != nil {
					return err
				}
				steps, err := game.UntilCaught()
				if err != nil {
					return fmt.Errorf("run %d: %w", run+1, err)
				}
				tally.record(steps)

				select {
				case results <- RunResult{
					Run:              run,
					Worker:           worker,
					Steps:            steps,
					CumulativeReward: predator.Reward(),
				}:
				case <-groupCtx.Done():
					return groupCtx.Err()
				}
			}
			return nil
		})
	}

	interval := opts.ProgressInterval
	if interval <= 0 {
		interval = defaultProgressInterval
	}
	progressCtx, stopProgress := context.WithCancel(groupCtx)
	defer stopProgress()
	go reportProgress(progressCtx, logger, tally, exp.Runs, interval)

	results := make([]RunResult, exp.Runs)
	collected := 0
	for result := range channerics.Merge(groupCtx.Done(), outputs...) {
		results[result.Run] = result
		collected++
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	if collected < exp.Runs {
		return nil, fmt.Errorf("experiment %s stopped after %d of %d runs: %w",
			id, collected, exp.Runs, ctx.Err())
	}
	stopProgress()

	summary := Summarize(results)
	logger.Info().
		Int("runs", summary.Runs).
		Float64("mean", summary.Mean).
		Float64("stddev", summary.StdDev).
		Msg("finished experiment")

	return &ExperimentResult{
		ID:      id,
		Seed:    seed,
		Results: results,
		Summary: summary,
	}, nil
}

// reportProgress logs the running tally until @ctx is cancelled.
func reportProgress(
	ctx context.Context,
	logger zerolog.Logger,
	tally *progress,
	runs int,
	interval time.Duration,
) {
	for range channerics.NewTicker(ctx.Done(), interval) {
		games := tally.games.AtomicRead()
		if games == 0 {
			continue
		}
		logger.Info().
			Float64("games", games).
			Int("runs", runs).
			Float64("meanSteps", tally.steps.AtomicRead()/games).
			Msg("progress")
	}
}

// Summarize computes the mean and population standard deviation of steps-to-capture.
func Summarize(results []RunResult) Summary {
	if len(results) == 0 {
		return Summary{}
	}

	steps := make([]float64, len(results))
	for i, result := range results {
		steps[i] = float64(result.Steps)
	}
	mean, stddev := stat.PopMeanStdDev(steps, nil)
	return Summary{
		Runs:   len(results),
		Mean:   mean,
		StdDev: stddev,
		Min:    int(floats.Min(steps)),
		Max:    int(floats.Max(steps)),
	}
}
