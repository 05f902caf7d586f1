// Package tensor holds the numeric buffers exchanged by the synchronization
// protocol. Buffers are raw little-endian bytes so that they are transmitted
// byte for byte at their native precision.
package tensor

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"slices"

	"go.uber.org/zap/zapcore"
)

// DType is the element type of a tensor.
type DType uint8

const (
	Float32 DType = iota + 1
	Float64
	Int32
	Int64
	Uint8
)

// ErrDType is returned when a typed accessor does not match the tensor dtype.
var ErrDType = errors.New("tensor dtype mismatch")

// Size returns the width of one element in bytes.
func (d DType) Size() int {
	switch d {
	case Float32, Int32:
		return 4
	case Float64, Int64:
		return 8
	case Uint8:
		return 1
	default:
		return 0
	}
}

func (d DType) String() string {
	switch d {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Uint8:
		return "uint8"
	default:
		return fmt.Sprintf("dtype(%d)", uint8(d))
	}
}

// Tensor is a named, fixed-shape numeric buffer.
type Tensor struct {
	Name  string
	DType DType
	Shape []int
	Data  []byte
}

// New allocates a zeroed tensor.
func New(name string, dtype DType, shape ...int) *Tensor {
	if dtype.Size() == 0 {
		panic(fmt.Sprintf("tensor %s: unsupported %s", name, dtype))
	}
	t := &Tensor{Name: name, DType: dtype, Shape: slices.Clone(shape)}
	t.Data = make([]byte, t.NumElements()*dtype.Size())
	return t
}

// NumElements returns the product of the shape.
func (t *Tensor) NumElements() int {
	n := 1
	for _, d := range t.Shape {
		n *= d
	}
	return n
}

// Clone returns a deep copy.
func (t *Tensor) Clone() *Tensor {
	return &Tensor{
		Name:  t.Name,
		DType: t.DType,
		Shape: slices.Clone(t.Shape),
		Data:  slices.Clone(t.Data),
	}
}

// Float32s decodes the buffer. It panics if the tensor is not Float32.
func (t *Tensor) Float32s() []float32 {
	t.mustBe(Float32)
	rst := make([]float32, t.NumElements())
	for i := range rst {
		rst[i] = math.Float32frombits(binary.LittleEndian.Uint32(t.Data[i*4:]))
	}
	return rst
}

// SetFloat32s overwrites the buffer in place.
func (t *Tensor) SetFloat32s(values []float32) error {
	if t.DType != Float32 {
		return fmt.Errorf("%w: %s is %s", ErrDType, t.Name, t.DType)
	}
	if len(values) != t.NumElements() {
		return fmt.Errorf("tensor %s: %d values for %d elements", t.Name, len(values), t.NumElements())
	}
	for i, v := range values {
		binary.LittleEndian.PutUint32(t.Data[i*4:], math.Float32bits(v))
	}
	return nil
}

// Float64s decodes the buffer. It panics if the tensor is not Float64.
func (t *Tensor) Float64s() []float64 {
	t.mustBe(Float64)
	rst := make([]float64, t.NumElements())
	for i := range rst {
		rst[i] = math.Float64frombits(binary.LittleEndian.Uint64(t.Data[i*8:]))
	}
	return rst
}

// SetFloat64s overwrites the buffer in place.
func (t *Tensor) SetFloat64s(values []float64) error {
	if t.DType != Float64 {
		return fmt.Errorf("%w: %s is %s", ErrDType, t.Name, t.DType)
	}
	if len(values) != t.NumElements() {
		return fmt.Errorf("tensor %s: %d values for %d elements", t.Name, len(values), t.NumElements())
	}
	for i, v := range values {
		binary.LittleEndian.PutUint64(t.Data[i*8:], math.Float64bits(v))
	}
	return nil
}

func (t *Tensor) mustBe(dtype DType) {
	if t.DType != dtype {
		panic(fmt.Sprintf("%v: %s is %s, not %s", ErrDType, t.Name, t.DType, dtype))
	}
}

// MarshalLogObject implements logging interface.
func (t *Tensor) MarshalLogObject(encoder zapcore.ObjectEncoder) error {
	encoder.AddString("name", t.Name)
	encoder.AddString("dtype", t.DType.String())
	encoder.AddString("shape", fmt.Sprint(t.Shape))
	encoder.AddInt("bytes", len(t.Data))
	return nil
}
