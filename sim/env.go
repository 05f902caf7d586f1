package sim

import (
	"fmt"
	"math/rand"

	"github.com/replicasync/replicasync/trainer"
)

// EnvConfig describes the bandit task.
type EnvConfig struct {
	NumEnvs int `mapstructure:"nb-env"`
	// Features is the dimension of the context vector.
	Features int `mapstructure:"features"`
	Arms     int `mapstructure:"arms"`
	// EpisodeLength is the number of steps of an episode.
	EpisodeLength int `mapstructure:"episode-length"`
	// TaskSeed selects the hidden arm weights. It is the same on every peer,
	// so that all peers train on the same task.
	TaskSeed int64 `mapstructure:"task-seed"`
}

// DefaultEnvConfig config.
func DefaultEnvConfig() EnvConfig {
	return EnvConfig{
		NumEnvs:       8,
		Features:      6,
		Arms:          4,
		EpisodeLength: 32,
		TaskSeed:      1,
	}
}

type instance struct {
	rng     *rand.Rand
	context []float32
	step    int
}

// Env runs NumEnvs contextual bandit instances. The best arm for a context
// is the one with the largest hidden linear score.
type Env struct {
	cfg       EnvConfig
	weights   [][]float32
	instances []*instance
}

var _ trainer.Environment = (*Env)(nil)

// NewEnv creates the instances. Instance i is seeded with seed+i.
func NewEnv(cfg EnvConfig, seed int64) (*Env, error) {
	if cfg.NumEnvs < 1 || cfg.Features < 1 || cfg.Arms < 2 || cfg.EpisodeLength < 1 {
		return nil, fmt.Errorf("invalid bandit config %+v", cfg)
	}
	task := newRand(cfg.TaskSeed)
	weights := make([][]float32, cfg.Arms)
	for a := range weights {
		weights[a] = make([]float32, cfg.Features)
		for f := range weights[a] {
			weights[a][f] = float32(task.NormFloat64())
		}
	}
	env := &Env{cfg: cfg, weights: weights}
	for i := 0; i < cfg.NumEnvs; i++ {
		env.instances = append(env.instances, &instance{
			rng:     newRand(seed + int64(i)),
			context: make([]float32, cfg.Features),
		})
	}
	return env, nil
}

// Spaces implements trainer.Environment.
func (e *Env) Spaces() trainer.Spaces {
	return trainer.Spaces{Observation: e.cfg.Features, Actions: e.cfg.Arms}
}

func (e *Env) draw(inst *instance) []float32 {
	for f := range inst.context {
		inst.context[f] = float32(inst.rng.NormFloat64())
	}
	return append([]float32(nil), inst.context...)
}

// Reset implements trainer.Environment.
func (e *Env) Reset() trainer.Observation {
	obs := make(trainer.Observation, len(e.instances))
	for i, inst := range e.instances {
		inst.step = 0
		obs[i] = e.draw(inst)
	}
	return obs
}

// Best returns the optimal arm for a context.
func (e *Env) Best(context []float32) int {
	best, score := 0, float32(0)
	for a, w := range e.weights {
		var s float32
		for f, x := range context {
			s += w[f] * x
		}
		if a == 0 || s > score {
			best, score = a, s
		}
	}
	return best
}

// Step implements trainer.Environment. The optimal arm pays 1, any other
// arm pays nothing.
func (e *Env) Step(actions trainer.Actions) (trainer.Transition, error) {
	if len(actions) != len(e.instances) {
		return trainer.Transition{}, fmt.Errorf("%d actions for %d instances", len(actions), len(e.instances))
	}
	tr := trainer.Transition{
		Observation: make(trainer.Observation, len(e.instances)),
		Rewards:     make([]float32, len(e.instances)),
		Done:        make([]bool, len(e.instances)),
	}
	for i, inst := range e.instances {
		a := actions[i]
		if a < 0 || a >= e.cfg.Arms {
			return trainer.Transition{}, fmt.Errorf("instance %d: arm %d out of range", i, a)
		}
		if a == e.Best(inst.context) {
			tr.Rewards[i] = 1
		}
		inst.step++
		if inst.step == e.cfg.EpisodeLength {
			tr.Done[i] = true
			inst.step = 0
		}
		tr.Observation[i] = e.draw(inst)
	}
	return tr, nil
}
