// Package sim provides small reference collaborators for the trainer: a
// seeded contextual bandit, a linear softmax policy, a REINFORCE agent and
// the RMSprop optimizer. They make a peer runnable end to end without an
// external simulator.
package sim

import (
	"math/rand"

	"github.com/seehuhn/mt19937"
)

// newRand returns a Mersenne Twister stream seeded with seed.
func newRand(seed int64) *rand.Rand {
	mt := mt19937.New()
	mt.Seed(seed)
	return rand.New(mt)
}
