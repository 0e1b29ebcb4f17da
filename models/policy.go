package models

import (
	"fmt"
	"math"
)

// Rand is the random source consumed by policy sampling. *rand.Rand satisfies it; passing
// a seeded instance makes games reproducible.
type Rand interface {
	Float64() float64
}

// Policy is a probability distribution over the actions, indexed by Action.
// Policies are values: restricting one yields a new Policy and never alters the original,
// so an agent's stored policy cannot be changed by sampling.
type Policy [NUM_ACTIONS]float64

// Tolerance for a policy's probabilities summing to one.
const PROB_TOLERANCE = 1e-9

// PredatorPolicy is the canonical predator policy: uniform over all five actions.
func PredatorPolicy() Policy {
	return Policy{
		North: 0.2,
		East:  0.2,
		South: 0.2,
		West:  0.2,
		Wait:  0.2,
	}
}

// PreyPolicy is the canonical prey policy, which mostly waits.
func PreyPolicy() Policy {
	return Policy{
		North: 0.05,
		East:  0.05,
		South: 0.05,
		West:  0.05,
		Wait:  0.8,
	}
}

// NewPolicy builds a policy from per-action probabilities. Actions missing from @probs
// receive zero probability. The result must be a valid distribution.
func NewPolicy(probs map[Action]float64) (policy Policy, err error) {
	for a, p := range probs {
		if !a.valid() {
			return Policy{}, fmt.Errorf("policy references %v: %w", a, ErrInvalidPolicyState)
		}
		policy[a] = p
	}
	err = policy.Validate()
	return
}

// PolicyFromNames builds a policy keyed by action names, as found in config files.
func PolicyFromNames(probs map[string]float64) (Policy, error) {
	byAction := make(map[Action]float64, len(probs))
	for name, p := range probs {
		a, err := ParseAction(name)
		if err != nil {
			return Policy{}, err
		}
		byAction[a] += p
	}
	return NewPolicy(byAction)
}

// Sum returns the total probability mass.
func (p Policy) Sum() (total float64) {
	for _, prob := range p {
		total += prob
	}
	return
}

// Validate checks that every probability is non-negative and that they sum to one.
func (p Policy) Validate() error {
	for a, prob := range p {
		if prob < 0 || math.IsNaN(prob) {
			return fmt.Errorf("probability %v for %v: %w", prob, Action(a), ErrInvalidPolicyState)
		}
	}
	if total := p.Sum(); math.Abs(total-1.0) > PROB_TOLERANCE {
		return fmt.Errorf("probabilities sum to %v: %w", total, ErrInvalidPolicyState)
	}
	return nil
}

// Restrict returns a copy of the policy with the @excluded actions removed. Their combined
// mass is split equally and added to each remaining action, rather than renormalizing
// proportionally, so a remaining action's share grows by the same amount regardless of its
// own weight. Excluding every action is ErrInvalidPolicyState.
func (p Policy) Restrict(excluded ...Action) (restricted Policy, err error) {
	var blocked [NUM_ACTIONS]bool
	for _, a := range excluded {
		if !a.valid() {
			return Policy{}, fmt.Errorf("cannot exclude %v: %w", a, ErrInvalidPolicyState)
		}
		blocked[a] = true
	}

	removed := 0.0
	remaining := 0
	for a := range p {
		if blocked[a] {
			removed += p[a]
		} else {
			remaining++
		}
	}
	if remaining == 0 {
		return Policy{}, fmt.Errorf("all %d actions excluded: %w", NUM_ACTIONS, ErrInvalidPolicyState)
	}

	share := removed / float64(remaining)
	for a := range p {
		if !blocked[a] {
			restricted[a] = p[a] + share
		}
	}
	return
}

// Sample draws one action with probability equal to its policy weight. The draw u in [0,1)
// falls into consecutive sub-intervals sized by each action's probability, in Action order.
// If rounding leaves u beyond the final boundary, the last action with positive mass is
// returned. The zero Policy always yields Wait.
func (p Policy) Sample(rng Rand) Action {
	u := rng.Float64()
	cumulative := 0.0
	last := Wait
	for _, a := range Actions() {
		if p[a] <= 0 {
			continue
		}
		last = a
		cumulative += p[a]
		if u < cumulative {
			return a
		}
	}
	return last
}

// SampleRestricted samples from the policy with the @excluded actions removed per Restrict.
// It never returns an excluded action.
func (p Policy) SampleRestricted(rng Rand, excluded ...Action) (Action, error) {
	restricted, err := p.Restrict(excluded...)
	if err != nil {
		return Wait, err
	}
	return restricted.Sample(rng), nil
}

func (p Policy) String() string {
	return fmt.Sprintf("{North:%.2f East:%.2f South:%.2f West:%.2f Wait:%.2f}",
		p[North], p[East], p[South], p[West], p[Wait])
}
