package models

import (
	"errors"
	"math/rand"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

// fixedRand replays a fixed sequence of draws.
type fixedRand struct {
	draws []float64
	i     int
}

func (fr *fixedRand) Float64() float64 {
	u := fr.draws[fr.i%len(fr.draws)]
	fr.i++
	return u
}

func frequencies(policy Policy, rng Rand, trials int, excluded ...Action) (freqs [NUM_ACTIONS]float64) {
	for i := 0; i < trials; i++ {
		var a Action
		if len(excluded) == 0 {
			a = policy.Sample(rng)
		} else {
			var err error
			if a, err = policy.SampleRestricted(rng, excluded...); err != nil {
				panic(err)
			}
		}
		freqs[a]++
	}
	for a := range freqs {
		freqs[a] /= float64(trials)
	}
	return
}

func TestPolicySample(t *testing.T) {
	Convey("When sampling a policy", t, func() {
		Convey("The canonical policies are valid distributions", func() {
			So(PredatorPolicy().Validate(), ShouldBeNil)
			So(PreyPolicy().Validate(), ShouldBeNil)
			So(PreyPolicy()[Wait], ShouldEqual, 0.8)
		})

		Convey("Each draw falls in the sub-interval of its action, in action order", func() {
			policy := PredatorPolicy()
			rng := &fixedRand{draws: []float64{0.0, 0.19, 0.21, 0.5, 0.7, 0.99}}
			So(policy.Sample(rng), ShouldEqual, North)
			So(policy.Sample(rng), ShouldEqual, North)
			So(policy.Sample(rng), ShouldEqual, East)
			So(policy.Sample(rng), ShouldEqual, South)
			So(policy.Sample(rng), ShouldEqual, West)
			So(policy.Sample(rng), ShouldEqual, Wait)
		})

		Convey("Zero-probability actions are never chosen", func() {
			policy := Policy{East: 0.5, Wait: 0.5}
			rng := &fixedRand{draws: []float64{0.0, 0.4999, 0.5, 0.9999999}}
			So(policy.Sample(rng), ShouldEqual, East)
			So(policy.Sample(rng), ShouldEqual, East)
			So(policy.Sample(rng), ShouldEqual, Wait)
			So(policy.Sample(rng), ShouldEqual, Wait)
		})

		Convey("The uniform predator policy yields each action within 0.02 of 0.2", func() {
			freqs := frequencies(PredatorPolicy(), rand.New(rand.NewSource(42)), 10000)
			for _, a := range Actions() {
				So(freqs[a], ShouldAlmostEqual, 0.2, 0.02)
			}
		})

		Convey("The prey policy converges to its declared weights", func() {
			policy := PreyPolicy()
			freqs := frequencies(policy, rand.New(rand.NewSource(7)), 50000)
			for _, a := range Actions() {
				So(freqs[a], ShouldAlmostEqual, policy[a], 0.01)
			}
		})
	})
}

func TestPolicyRestrict(t *testing.T) {
	Convey("When restricting a policy", t, func() {
		Convey("Excluded mass is split equally and added to the remaining actions", func() {
			policy := PreyPolicy()
			restricted, err := policy.Restrict(Wait)
			So(err, ShouldBeNil)
			So(restricted[Wait], ShouldEqual, 0.0)
			for _, a := range []Action{North, East, South, West} {
				So(restricted[a], ShouldAlmostEqual, 0.05+0.2, PROB_TOLERANCE)
			}
			So(restricted.Sum(), ShouldAlmostEqual, 1.0, PROB_TOLERANCE)
		})

		Convey("The split is additive rather than proportional", func() {
			policy, err := NewPolicy(map[Action]float64{North: 0.5, East: 0.3, Wait: 0.2})
			So(err, ShouldBeNil)
			restricted, err := policy.Restrict(North)
			So(err, ShouldBeNil)
			So(restricted[East], ShouldAlmostEqual, 0.3+0.125, PROB_TOLERANCE)
			So(restricted[South], ShouldAlmostEqual, 0.125, PROB_TOLERANCE)
			So(restricted[Wait], ShouldAlmostEqual, 0.2+0.125, PROB_TOLERANCE)
			So(restricted.Validate(), ShouldBeNil)
		})

		Convey("The original policy is left untouched", func() {
			policy := PreyPolicy()
			_, err := policy.Restrict(Wait, North)
			So(err, ShouldBeNil)
			So(policy, ShouldResemble, PreyPolicy())
		})

		Convey("Every subset short of all actions keeps a valid distribution", func() {
			policy := PreyPolicy()
			for mask := 0; mask < (1<<NUM_ACTIONS)-1; mask++ {
				excluded := []Action{}
				for _, a := range Actions() {
					if mask&(1<<int(a)) != 0 {
						excluded = append(excluded, a)
					}
				}
				restricted, err := policy.Restrict(excluded...)
				So(err, ShouldBeNil)
				So(restricted.Sum(), ShouldAlmostEqual, 1.0, PROB_TOLERANCE)
				for _, a := range excluded {
					So(restricted[a], ShouldEqual, 0.0)
				}
			}
		})

		Convey("Restricted sampling never returns an excluded action", func() {
			freqs := frequencies(PreyPolicy(), rand.New(rand.NewSource(3)), 20000, Wait, East)
			So(freqs[Wait], ShouldEqual, 0.0)
			So(freqs[East], ShouldEqual, 0.0)
			for _, a := range []Action{North, South, West} {
				So(freqs[a], ShouldAlmostEqual, 1.0/3.0, 0.02)
			}
		})

		Convey("Excluding every action is an invalid policy state", func() {
			_, err := PredatorPolicy().Restrict(Actions()...)
			So(errors.Is(err, ErrInvalidPolicyState), ShouldBeTrue)

			_, err = PredatorPolicy().SampleRestricted(rand.New(rand.NewSource(1)), Actions()...)
			So(errors.Is(err, ErrInvalidPolicyState), ShouldBeTrue)
		})
	})
}

func TestNewPolicy(t *testing.T) {
	Convey("When building policies", t, func() {
		Convey("Probabilities must sum to one", func() {
			_, err := NewPolicy(map[Action]float64{North: 0.5, Wait: 0.4})
			So(errors.Is(err, ErrInvalidPolicyState), ShouldBeTrue)
		})

		Convey("Probabilities must be non-negative", func() {
			_, err := NewPolicy(map[Action]float64{North: 1.5, Wait: -0.5})
			So(errors.Is(err, ErrInvalidPolicyState), ShouldBeTrue)
		})

		Convey("Action names are case-insensitive", func() {
			policy, err := PolicyFromNames(map[string]float64{"north": 0.25, "WAIT": 0.75})
			So(err, ShouldBeNil)
			So(policy[North], ShouldEqual, 0.25)
			So(policy[Wait], ShouldEqual, 0.75)
		})

		Convey("Unknown action names are rejected", func() {
			_, err := PolicyFromNames(map[string]float64{"Up": 1.0})
			So(errors.Is(err, ErrInvalidPolicyState), ShouldBeTrue)
		})
	})
}
