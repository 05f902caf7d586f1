package tensor

import (
	"github.com/multiformats/go-varint"

	"github.com/replicasync/replicasync/hash"
)

// ParameterSet is an ordered sequence of tensors built once when a model is
// constructed. Every peer enumerates it in the same order; the position of a
// tensor is its identity on the wire.
type ParameterSet struct {
	tensors []*Tensor
}

// NewParameterSet fixes the order of tensors. The set references the tensors,
// it does not copy them.
func NewParameterSet(tensors ...*Tensor) ParameterSet {
	return ParameterSet{tensors: append([]*Tensor(nil), tensors...)}
}

// Len returns the number of tensors.
func (ps ParameterSet) Len() int {
	return len(ps.tensors)
}

// At returns the tensor at position i.
func (ps ParameterSet) At(i int) *Tensor {
	return ps.tensors[i]
}

// Each calls fn for every tensor in order and stops on the first error.
func (ps ParameterSet) Each(fn func(i int, t *Tensor) error) error {
	for i, t := range ps.tensors {
		if err := fn(i, t); err != nil {
			return err
		}
	}
	return nil
}

// Bytes returns the total size of all buffers.
func (ps ParameterSet) Bytes() int {
	total := 0
	for _, t := range ps.tensors {
		total += len(t.Data)
	}
	return total
}

// NumElements returns the number of scalar parameters.
func (ps ParameterSet) NumElements() int {
	total := 0
	for _, t := range ps.tensors {
		total += t.NumElements()
	}
	return total
}

// Clone returns a deep copy with the same order.
func (ps ParameterSet) Clone() ParameterSet {
	rst := ParameterSet{tensors: make([]*Tensor, len(ps.tensors))}
	for i, t := range ps.tensors {
		rst.tensors[i] = t.Clone()
	}
	return rst
}

// Fingerprint is a blake3 digest over the dtype, shape and contents of every
// tensor in order. Two sets with equal fingerprints are bit-identical.
func (ps ParameterSet) Fingerprint() hash.Hash32 {
	hasher := hash.Borrow()
	defer hash.Release(hasher)
	var scratch [varint.MaxLenUvarint63]byte
	for _, t := range ps.tensors {
		hasher.Write([]byte{byte(t.DType)})
		n := varint.PutUvarint(scratch[:], uint64(len(t.Shape)))
		hasher.Write(scratch[:n])
		for _, d := range t.Shape {
			n = varint.PutUvarint(scratch[:], uint64(d))
			hasher.Write(scratch[:n])
		}
		hasher.Write(t.Data)
	}
	var rst hash.Hash32
	hasher.Sum(rst[:0])
	return rst
}
