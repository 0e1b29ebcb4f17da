package models

import (
	"fmt"
	"strings"
)

// Action is one of the five discrete moves available to an agent each turn.
// The declaration order is the fixed order in which a policy's probability mass is laid
// out over [0,1) when sampling.
type Action int

const (
	North Action = iota
	East
	South
	West
	Wait

	NUM_ACTIONS = 5
)

// Displacement is the row/column change an action applies to a location.
// North is toward row zero.
type Displacement struct {
	DRow, DCol int
}

var (
	actionNames = [NUM_ACTIONS]string{"North", "East", "South", "West", "Wait"}

	displacements = [NUM_ACTIONS]Displacement{
		North: {DRow: -1, DCol: 0},
		East:  {DRow: 0, DCol: 1},
		South: {DRow: 1, DCol: 0},
		West:  {DRow: 0, DCol: -1},
		Wait:  {DRow: 0, DCol: 0},
	}
)

// Actions returns every action in sampling order.
func Actions() []Action {
	return []Action{North, East, South, West, Wait}
}

func (a Action) String() string {
	if !a.valid() {
		return fmt.Sprintf("Action(%d)", int(a))
	}
	return actionNames[a]
}

// Displacement returns the fixed move vector for the action.
func (a Action) Displacement() Displacement {
	if !a.valid() {
		return Displacement{}
	}
	return displacements[a]
}

func (a Action) valid() bool {
	return a >= North && a <= Wait
}

// ParseAction converts an action name such as "north" or "Wait" to its Action.
func ParseAction(name string) (Action, error) {
	for _, a := range Actions() {
		if strings.EqualFold(strings.TrimSpace(name), actionNames[a]) {
			return a, nil
		}
	}
	return Wait, fmt.Errorf("unknown action %q: %w", name, ErrInvalidPolicyState)
}
