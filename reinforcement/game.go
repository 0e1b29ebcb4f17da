package reinforcement

import (
	"errors"
	"fmt"

	"pursuit/models"

	"github.com/rs/zerolog"
)

// GameState is either Running or the terminal Caught.
type GameState int

const (
	Running GameState = iota
	Caught
)

func (gs GameState) String() string {
	if gs == Caught {
		return "Caught"
	}
	return "Running"
}

// Rewards
const (
	CAPTURE_REWARD = 10
	STEP_REWARD    = 0
)

// ErrStepLimit is returned by UntilCaught when a game exceeds its step cap.
var ErrStepLimit error = errors.New("step limit reached before capture")

// TurnFunc is a hook called synchronously after every turn, e.g. to render the grid.
// It should complete quickly; the game does not advance until it returns.
type TurnFunc func(*Game)

// Game plays one predator against one prey on a fresh environment until capture.
// The agents are borrowed from the caller and may be reused by later games, but two games
// must never run on the same agents at once.
type Game struct {
	env      *models.Environment
	predator *models.Predator
	prey     *models.Prey
	rng      models.Rand
	state    GameState
	steps    int
	maxSteps int
	onTurn   TurnFunc
	logger   zerolog.Logger
}

// GameOption configures optional Game behavior.
type GameOption func(*Game)

// WithTurnFunc registers a hook called after every turn.
func WithTurnFunc(fn TurnFunc) GameOption {
	return func(g *Game) {
		g.onTurn = fn
	}
}

// WithLogger sets the game's logger; by default nothing is logged.
func WithLogger(logger zerolog.Logger) GameOption {
	return func(g *Game) {
		g.logger = logger
	}
}

// WithMaxSteps caps the number of turns UntilCaught will play; zero is unbounded.
func WithMaxSteps(maxSteps int) GameOption {
	return func(g *Game) {
		g.maxSteps = maxSteps
	}
}

// NewGame validates @cfg, builds a fresh environment and moves the agents to their
// configured start cells. Nil agents are replaced by new ones with the canonical policies.
// The agents' policies and the predator's reward are left as they are.
func NewGame(
	cfg GameConfig,
	predator *models.Predator,
	prey *models.Prey,
	rng models.Rand,
	opts ...GameOption,
) (*Game, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, fmt.Errorf("nil random source: %w", models.ErrConfiguration)
	}

	env, err := models.NewEnvironment(cfg.Rows, cfg.Cols)
	if err != nil {
		return nil, err
	}

	if predator == nil {
		predator = models.NewPredator(cfg.PredatorStart, models.PredatorPolicy())
	}
	if prey == nil {
		prey = models.NewPrey(cfg.PreyStart, models.PreyPolicy())
	}
	predator.SetLocation(cfg.PredatorStart)
	prey.SetLocation(cfg.PreyStart)
	env.Place(&prey.Agent, prey.Location())
	env.Place(&predator.Agent, predator.Location())

	game := &Game{
		env:      env,
		predator: predator,
		prey:     prey,
		rng:      rng,
		state:    Running,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(game)
	}
	return game, nil
}

func (g *Game) Environment() *models.Environment {
	return g.env
}

func (g *Game) Predator() *models.Predator {
	return g.predator
}

func (g *Game) Prey() *models.Prey {
	return g.prey
}

func (g *Game) State() GameState {
	return g.state
}

// Steps is the number of turns played so far.
func (g *Game) Steps() int {
	return g.steps
}

// Turn plays a single turn: the prey moves, then the predator, then capture is checked.
// It returns true once the prey is caught; turns after capture do nothing.
func (g *Game) Turn() (caught bool, err error) {
	if g.state == Caught {
		return true, nil
	}

	// Prey first. The predator has not moved yet, so its location is this turn's obstacle.
	preyFrom := g.prey.Location()
	g.vacate(&g.prey.Agent)
	move, action, err := g.prey.ChooseAction(g.rng)
	if err != nil {
		return false, err
	}
	preyTo := g.env.ToToroidal(preyFrom, move)
	if preyTo == g.predator.Location() {
		// The prey will not step onto the predator: resample once without that action and
		// accept whatever comes out.
		blocked := action
		if move, action, err = g.prey.ChooseAction(g.rng, blocked); err != nil {
			return false, err
		}
		preyTo = g.env.ToToroidal(preyFrom, move)
		g.logger.Debug().
			Int("step", g.steps+1).
			Str("prey", g.prey.State()).
			Stringer("blocked", blocked).
			Stringer("action", action).
			Msg("prey avoided predator")
	}
	g.env.Place(&g.prey.Agent, preyTo)
	g.prey.SetLocation(preyTo)

	// Predator, never restricted.
	predatorFrom := g.predator.Location()
	g.vacate(&g.predator.Agent)
	move, _, err = g.predator.ChooseAction(g.rng)
	if err != nil {
		return false, err
	}
	predatorTo := g.env.ToToroidal(predatorFrom, move)
	g.env.Place(&g.predator.Agent, predatorTo)
	g.predator.SetLocation(predatorTo)

	g.steps++
	caught = g.predator.Location() == g.prey.Location()
	if caught {
		g.predator.AccumulateReward(CAPTURE_REWARD)
		g.state = Caught
	} else {
		g.predator.AccumulateReward(STEP_REWARD)
	}

	g.logger.Debug().
		Int("step", g.steps).
		Str("predator", g.predator.State()).
		Str("prey", g.prey.State()).
		Stringer("state", g.state).
		Msg("turn")

	if g.onTurn != nil {
		g.onTurn(g)
	}
	return
}

// vacate clears the agent's cell, unless the other agent has since been placed there.
func (g *Game) vacate(ag *models.Agent) {
	if g.env.Occupant(ag.Location()) == ag {
		g.env.Remove(ag.Location())
	}
}

// UntilCaught plays turns until capture and returns the number of turns taken.
func (g *Game) UntilCaught() (steps int, err error) {
	for g.state != Caught {
		if g.maxSteps > 0 && g.steps >= g.maxSteps {
			return g.steps, fmt.Errorf("%d turns, predator %s prey %s: %w",
				g.steps, g.predator.State(), g.prey.State(), ErrStepLimit)
		}
		if _, err = g.Turn(); err != nil {
			return g.steps, err
		}
	}

	g.logger.Debug().
		Int("steps", g.steps).
		Int("reward", g.predator.Reward()).
		Msg("caught prey")
	return g.steps, nil
}
