package reinforcement

import (
	"fmt"
	"math"

	"pursuit/models"
)

// ValueIteration estimates the value of each cell for a predator hunting a prey that never
// leaves @goal. It runs exactly @loops sweeps; no convergence check is made, so the caller
// picks the horizon. Each sweep computes, for every cell, the maximum over the predator's
// actions of
//
//	sum over the five neighbors n of T(cell, n, goal, a) * (R(n, goal) + discount * V(cell))
//
// from the previous sweep's values. The actions considered are those the policy gives
// positive probability. With zero loops the all-zero grid is returned.
func ValueIteration(
	cfg GameConfig,
	policy models.Policy,
	goal models.Location,
	discount float64,
	loops int,
) (models.ValueGrid, error) {
	if loops < 0 {
		return nil, fmt.Errorf("negative loop count %d: %w", loops, models.ErrConfiguration)
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	// The synthetic environment holds only the prey, fixed at the goal.
	goalCfg := cfg
	goalCfg.PreyStart = goal
	if err := goalCfg.Validate(); err != nil {
		return nil, err
	}
	env, err := models.NewEnvironment(cfg.Rows, cfg.Cols)
	if err != nil {
		return nil, err
	}
	prey := models.NewPrey(goal, models.Policy{models.Wait: 1.0})
	env.Place(&prey.Agent, prey.Location())

	actions := []models.Action{}
	for _, a := range models.Actions() {
		if policy[a] > 0 {
			actions = append(actions, a)
		}
	}

	values := models.NewValueGrid(cfg.Rows, cfg.Cols)
	for i := 0; i < loops; i++ {
		values = sweep(env, values, actions, prey.Location(), discount)
	}
	return values, nil
}

// sweep performs one Bellman backup of every cell, returning a new grid.
func sweep(
	env *models.Environment,
	old models.ValueGrid,
	actions []models.Action,
	goal models.Location,
	discount float64,
) models.ValueGrid {
	rows, cols := env.Size()
	next := models.NewValueGrid(rows, cols)
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			cell := models.Location{Row: row, Col: col}
			best := -math.MaxFloat64
			for _, action := range actions {
				total := 0.0
				for _, move := range models.Actions() {
					neighbor := env.ToToroidal(cell, move.Displacement())
					total += transition(cell, neighbor, goal, action) *
						(reward(neighbor, goal) + discount*old.At(cell))
				}
				best = math.Max(best, total)
			}
			next[row][col] = best
		}
	}
	return next
}

// transition is a deterministic indicator rather than a probability. Every successor of the
// goal is reachable; otherwise a pairing is impossible when Wait changes the cell or a
// move leaves it unchanged.
func transition(from, to, goal models.Location, action models.Action) float64 {
	if from == goal {
		return 1
	}
	moved := from != to
	if action == models.Wait && moved {
		return 0
	}
	if action != models.Wait && !moved {
		return 0
	}
	return 1
}

// reward pays for reaching the goal.
func reward(to, goal models.Location) float64 {
	if to == goal {
		return CAPTURE_REWARD
	}
	return STEP_REWARD
}
