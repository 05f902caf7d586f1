package sim

import (
	"math"

	"github.com/replicasync/replicasync/tensor"
	"github.com/replicasync/replicasync/trainer"
)

// Network is a linear softmax policy over the arms.
type Network struct {
	features, actions int
	weights           *tensor.Tensor
	bias              *tensor.Tensor
	params            tensor.ParameterSet
}

var _ trainer.Network = (*Network)(nil)

// NewNetwork initializes the weights from seed. Peers pass the shared seed,
// so their networks start identical even before the initial sync.
func NewNetwork(spaces trainer.Spaces, seed int64) *Network {
	n := &Network{
		features: spaces.Observation,
		actions:  spaces.Actions,
		weights:  tensor.New("linear.weight", tensor.Float32, spaces.Observation, spaces.Actions),
		bias:     tensor.New("linear.bias", tensor.Float32, spaces.Actions),
	}
	rng := newRand(seed)
	w := make([]float32, n.weights.NumElements())
	scale := 1 / math.Sqrt(float64(n.features))
	for i := range w {
		w[i] = float32(rng.NormFloat64() * scale)
	}
	if err := n.weights.SetFloat32s(w); err != nil {
		panic(err)
	}
	n.params = tensor.NewParameterSet(n.weights, n.bias)
	return n
}

// Parameters implements trainer.Network.
func (n *Network) Parameters() tensor.ParameterSet {
	return n.params
}

// NewInternals implements trainer.Network. The linear policy has no
// recurrent state.
func (n *Network) NewInternals(int) trainer.Internals {
	return tensor.NewParameterSet()
}

// Probs computes the action distribution for every observation.
func (n *Network) Probs(obs trainer.Observation) [][]float64 {
	w := n.weights.Float32s()
	b := n.bias.Float32s()
	probs := make([][]float64, len(obs))
	for i, x := range obs {
		logits := make([]float64, n.actions)
		for a := range logits {
			logits[a] = float64(b[a])
			for f, v := range x {
				logits[a] += float64(v) * float64(w[f*n.actions+a])
			}
		}
		probs[i] = softmax(logits)
	}
	return probs
}

func softmax(logits []float64) []float64 {
	peak := math.Inf(-1)
	for _, l := range logits {
		peak = math.Max(peak, l)
	}
	var sum float64
	out := make([]float64, len(logits))
	for i, l := range logits {
		out[i] = math.Exp(l - peak)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
