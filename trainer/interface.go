package trainer

import (
	"context"

	"github.com/replicasync/replicasync/group"
	"github.com/replicasync/replicasync/tensor"
)

//go:generate mockgen -typed -package=trainer -destination=./mocks.go -source=./interface.go

// Observation holds one observation vector per environment instance.
type Observation [][]float32

// Actions holds one discrete action per environment instance.
type Actions []int

// Transition is the result of stepping every environment instance once.
type Transition struct {
	Observation Observation
	Rewards     []float32
	// Done marks instances whose episode ended. They were reset and
	// Observation holds the first observation of the next episode.
	Done []bool
}

// Spaces describes observations and actions of an environment.
type Spaces struct {
	Observation int
	Actions     int
}

// Internals is the recurrent state of a network, ordered like the buffers
// the network created it with.
type Internals = tensor.ParameterSet

// Stats summarize one learning update.
type Stats struct {
	Loss float64
}

// Environment runs a fixed number of seeded environment instances.
type Environment interface {
	Reset() Observation
	Step(actions Actions) (Transition, error)
	Spaces() Spaces
}

// Network owns the parameters of the model.
type Network interface {
	// Parameters returns the trainable buffers in a fixed order.
	Parameters() tensor.ParameterSet
	// NewInternals creates recurrent state for batch instances.
	NewInternals(batch int) Internals
}

// Agent acts with the network and accumulates rollouts.
type Agent interface {
	Act(obs Observation, internals Internals) (Actions, Internals, error)
	// Observe records a transition and reports whether the rollout is
	// complete.
	Observe(actions Actions, tr Transition) bool
	// Gradients computes gradients over the complete rollout, ordered like
	// the network parameters, and starts a new rollout.
	Gradients() (tensor.ParameterSet, Stats, error)
}

// Optimizer updates the network parameters in place.
type Optimizer interface {
	Step(grads tensor.ParameterSet) error
	// State returns the internal buffers of the optimizer in a fixed order.
	State() tensor.ParameterSet
}

// Syncer replicates buffers from a source peer.
type Syncer interface {
	SyncParameters(ctx context.Context, ps tensor.ParameterSet, src int, async bool) ([]group.Work, error)
	Sync(ctx context.Context, params, state tensor.ParameterSet, src int, shareOptimizer, async bool) ([]group.Work, error)
	Verify(ctx context.Context, ps tensor.ParameterSet, src int) error
}
