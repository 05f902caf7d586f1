package paramsync

import (
	"fmt"

	"github.com/spacemeshos/go-scale"

	"github.com/replicasync/replicasync/tensor"
)

const maxRank = 16

// SetKind tells parameter buffers from optimizer state buffers.
type SetKind uint8

const (
	// Parameters are the trainable buffers of the model.
	Parameters SetKind = iota + 1
	// OptimizerState are the internal buffers of the optimizer.
	OptimizerState
)

func (k SetKind) String() string {
	switch k {
	case Parameters:
		return "parameters"
	case OptimizerState:
		return "optimizer"
	default:
		return fmt.Sprintf("set(%d)", uint8(k))
	}
}

// Descriptor is sent as the header of every buffer broadcast. Receivers
// compare it with their own descriptor at the same position, so a peer with
// a different topology fails instead of receiving into the wrong buffer.
// Names are not part of it: buffers are paired by position.
type Descriptor struct {
	Set      SetKind
	Position uint32
	DType    tensor.DType
	Shape    []uint32
}

// Describe returns the descriptor of t at position i of a set.
func Describe(set SetKind, i int, t *tensor.Tensor) *Descriptor {
	shape := make([]uint32, len(t.Shape))
	for j, d := range t.Shape {
		shape[j] = uint32(d)
	}
	return &Descriptor{Set: set, Position: uint32(i), DType: t.DType, Shape: shape}
}

// EncodeScale implements scale codec interface.
func (d *Descriptor) EncodeScale(enc *scale.Encoder) (total int, err error) {
	{
		n, err := scale.EncodeCompact8(enc, uint8(d.Set))
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := scale.EncodeCompact32(enc, d.Position)
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := scale.EncodeCompact8(enc, uint8(d.DType))
		if err != nil {
			return total, err
		}
		total += n
	}
	if len(d.Shape) > maxRank {
		return total, fmt.Errorf("shape of rank %d exceeds %d", len(d.Shape), maxRank)
	}
	{
		n, err := scale.EncodeCompact32(enc, uint32(len(d.Shape)))
		if err != nil {
			return total, err
		}
		total += n
	}
	for _, dim := range d.Shape {
		n, err := scale.EncodeCompact32(enc, dim)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// DecodeScale implements scale codec interface.
func (d *Descriptor) DecodeScale(dec *scale.Decoder) (total int, err error) {
	{
		field, n, err := scale.DecodeCompact8(dec)
		if err != nil {
			return total, err
		}
		total += n
		d.Set = SetKind(field)
	}
	{
		field, n, err := scale.DecodeCompact32(dec)
		if err != nil {
			return total, err
		}
		total += n
		d.Position = field
	}
	{
		field, n, err := scale.DecodeCompact8(dec)
		if err != nil {
			return total, err
		}
		total += n
		d.DType = tensor.DType(field)
	}
	length, n, err := scale.DecodeCompact32(dec)
	if err != nil {
		return total, err
	}
	total += n
	if length > maxRank {
		return total, fmt.Errorf("shape of rank %d exceeds %d", length, maxRank)
	}
	d.Shape = make([]uint32, length)
	for i := range d.Shape {
		field, n, err := scale.DecodeCompact32(dec)
		if err != nil {
			return total, err
		}
		total += n
		d.Shape[i] = field
	}
	return total, nil
}
