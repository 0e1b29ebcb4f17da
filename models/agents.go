package models

import "fmt"

// Kind distinguishes the two agent variants; Empty marks an unoccupied cell.
type Kind int

const (
	Empty Kind = iota
	PredatorKind
	PreyKind
)

func (k Kind) String() string {
	switch k {
	case PredatorKind:
		return "Predator"
	case PreyKind:
		return "Prey"
	default:
		return "Empty"
	}
}

// Symbol is the three-character glyph used when printing a grid cell.
func (k Kind) Symbol() string {
	switch k {
	case PredatorKind:
		return " X "
	case PreyKind:
		return " O "
	default:
		return "   "
	}
}

// Agent is the state shared by the predator and the prey: where it is and how it moves.
// An agent outlives any single game; callers reset its location between games.
type Agent struct {
	kind     Kind
	location Location
	policy   Policy
}

func (ag *Agent) Kind() Kind {
	return ag.kind
}

func (ag *Agent) Location() Location {
	return ag.location
}

func (ag *Agent) SetLocation(loc Location) {
	ag.location = loc
}

// Policy returns a copy of the agent's policy.
func (ag *Agent) Policy() Policy {
	return ag.policy
}

// State is a display label such as "Predator(3,4)". It is never used for comparisons;
// game logic compares Locations.
func (ag *Agent) State() string {
	return fmt.Sprintf("%v(%d,%d)", ag.kind, ag.location.Row, ag.location.Col)
}

func (ag *Agent) String() string {
	return ag.kind.Symbol()
}

// ChooseAction samples the agent's next action, excluding any @restricted actions, and
// returns it along with its displacement.
func (ag *Agent) ChooseAction(rng Rand, restricted ...Action) (Displacement, Action, error) {
	if len(restricted) == 0 {
		action := ag.policy.Sample(rng)
		return action.Displacement(), action, nil
	}

	action, err := ag.policy.SampleRestricted(rng, restricted...)
	if err != nil {
		return Displacement{}, action, fmt.Errorf("%s choose action: %w", ag.State(), err)
	}
	return action.Displacement(), action, nil
}

// Predator is an agent that also accumulates reward. Reward carries over between games
// until ResetReward is called.
type Predator struct {
	Agent
	reward int
}

func NewPredator(loc Location, policy Policy) *Predator {
	return &Predator{
		Agent: Agent{
			kind:     PredatorKind,
			location: loc,
			policy:   policy,
		},
	}
}

// AccumulateReward adds a non-negative @amount to the predator's reward.
func (pred *Predator) AccumulateReward(amount int) {
	if amount < 0 {
		panic(fmt.Sprintf("negative reward %d for %s", amount, pred.State()))
	}
	pred.reward += amount
}

func (pred *Predator) Reward() int {
	return pred.reward
}

func (pred *Predator) ResetReward() {
	pred.reward = 0
}

// Prey is the agent being chased.
type Prey struct {
	Agent
}

func NewPrey(loc Location, policy Policy) *Prey {
	return &Prey{
		Agent: Agent{
			kind:     PreyKind,
			location: loc,
			policy:   policy,
		},
	}
}
