package sim

import (
	"errors"
	"math"
	"math/rand"

	"github.com/replicasync/replicasync/tensor"
	"github.com/replicasync/replicasync/trainer"
)

type sample struct {
	obs    []float32
	action int
	reward float64
}

// Agent is a REINFORCE learner with a mean reward baseline.
type Agent struct {
	network *Network
	rng     *rand.Rand
	rollout int
	// observation the last actions were taken on
	acted   trainer.Observation
	steps   int
	samples []sample
}

var _ trainer.Agent = (*Agent)(nil)

// NewAgent creates an agent that learns every rollout environment steps.
// Actions are sampled from a stream seeded with seed.
func NewAgent(network *Network, rollout int, seed int64) *Agent {
	if rollout < 1 {
		rollout = 1
	}
	return &Agent{network: network, rng: newRand(seed), rollout: rollout}
}

// Act implements trainer.Agent.
func (a *Agent) Act(obs trainer.Observation, internals trainer.Internals) (trainer.Actions, trainer.Internals, error) {
	probs := a.network.Probs(obs)
	actions := make(trainer.Actions, len(obs))
	for i, p := range probs {
		u := a.rng.Float64()
		actions[i] = len(p) - 1
		for j, pj := range p {
			if u < pj {
				actions[i] = j
				break
			}
			u -= pj
		}
	}
	a.acted = obs
	return actions, internals, nil
}

// Observe implements trainer.Agent.
func (a *Agent) Observe(actions trainer.Actions, tr trainer.Transition) bool {
	for i, act := range actions {
		s := sample{action: act, reward: float64(tr.Rewards[i])}
		if i < len(a.acted) {
			s.obs = a.acted[i]
		}
		a.samples = append(a.samples, s)
	}
	a.steps++
	return a.steps >= a.rollout
}

// Gradients implements trainer.Agent.
func (a *Agent) Gradients() (tensor.ParameterSet, trainer.Stats, error) {
	if len(a.samples) == 0 {
		return tensor.ParameterSet{}, trainer.Stats{}, errors.New("empty rollout")
	}
	defer func() {
		a.samples = a.samples[:0]
		a.steps = 0
	}()
	var baseline float64
	for _, s := range a.samples {
		baseline += s.reward
	}
	baseline /= float64(len(a.samples))

	features, actions := a.network.features, a.network.actions
	gw := make([]float32, features*actions)
	gb := make([]float32, actions)
	var loss float64
	for _, s := range a.samples {
		if s.obs == nil {
			continue
		}
		p := a.network.Probs(trainer.Observation{s.obs})[0]
		adv := s.reward - baseline
		loss -= math.Log(math.Max(p[s.action], 1e-12)) * adv
		for j := range p {
			g := p[j]
			if j == s.action {
				g -= 1
			}
			g *= adv / float64(len(a.samples))
			gb[j] += float32(g)
			for f, x := range s.obs {
				gw[f*actions+j] += float32(g) * x
			}
		}
	}
	weights := tensor.New("linear.weight.grad", tensor.Float32, features, actions)
	bias := tensor.New("linear.bias.grad", tensor.Float32, actions)
	if err := weights.SetFloat32s(gw); err != nil {
		return tensor.ParameterSet{}, trainer.Stats{}, err
	}
	if err := bias.SetFloat32s(gb); err != nil {
		return tensor.ParameterSet{}, trainer.Stats{}, err
	}
	return tensor.NewParameterSet(weights, bias), trainer.Stats{Loss: loss / float64(len(a.samples))}, nil
}
