package sim

import (
	"fmt"
	"math"

	"github.com/replicasync/replicasync/tensor"
	"github.com/replicasync/replicasync/trainer"
)

const (
	defaultAlpha = 0.99
	defaultEps   = 1e-5
)

// RMSprop keeps a running average of squared gradients per parameter.
type RMSprop struct {
	lr, alpha, eps float64
	params         tensor.ParameterSet
	state          tensor.ParameterSet
}

var _ trainer.Optimizer = (*RMSprop)(nil)

// NewRMSprop creates the optimizer for params. Only float32 parameters are
// supported.
func NewRMSprop(params tensor.ParameterSet, lr float64) (*RMSprop, error) {
	avgs := make([]*tensor.Tensor, 0, params.Len())
	err := params.Each(func(_ int, t *tensor.Tensor) error {
		if t.DType != tensor.Float32 {
			return fmt.Errorf("%w: %s is %s", tensor.ErrDType, t.Name, t.DType)
		}
		avgs = append(avgs, tensor.New(t.Name+".square_avg", tensor.Float32, t.Shape...))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &RMSprop{
		lr:     lr,
		alpha:  defaultAlpha,
		eps:    defaultEps,
		params: params,
		state:  tensor.NewParameterSet(avgs...),
	}, nil
}

// State implements trainer.Optimizer.
func (o *RMSprop) State() tensor.ParameterSet {
	return o.state
}

// Step implements trainer.Optimizer.
func (o *RMSprop) Step(grads tensor.ParameterSet) error {
	if grads.Len() != o.params.Len() {
		return fmt.Errorf("%d gradients for %d parameters", grads.Len(), o.params.Len())
	}
	return o.params.Each(func(i int, p *tensor.Tensor) error {
		g := grads.At(i)
		if g.NumElements() != p.NumElements() || g.DType != tensor.Float32 {
			return fmt.Errorf("gradient %d (%s) does not match parameter %s", i, g.Name, p.Name)
		}
		values, grad, avg := p.Float32s(), g.Float32s(), o.state.At(i).Float32s()
		for j := range values {
			gj := float64(grad[j])
			a := o.alpha*float64(avg[j]) + (1-o.alpha)*gj*gj
			avg[j] = float32(a)
			values[j] -= float32(o.lr * gj / (math.Sqrt(a) + o.eps))
		}
		if err := o.state.At(i).SetFloat32s(avg); err != nil {
			return err
		}
		return p.SetFloat32s(values)
	})
}
