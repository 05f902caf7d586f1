package tensor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTensorFloat32(t *testing.T) {
	w := New("w", Float32, 2, 3)
	require.Equal(t, 6, w.NumElements())
	require.Len(t, w.Data, 24)

	values := []float32{1, -2, 3.5, 0, 1e-7, 42}
	require.NoError(t, w.SetFloat32s(values))
	require.Equal(t, values, w.Float32s())

	require.Error(t, w.SetFloat32s(values[:2]))
	require.ErrorIs(t, w.SetFloat64s([]float64{1}), ErrDType)
	require.Panics(t, func() { w.Float64s() })
}

func TestTensorFloat64(t *testing.T) {
	b := New("b", Float64, 2)
	require.NoError(t, b.SetFloat64s([]float64{0.25, -8}))
	require.Equal(t, []float64{0.25, -8}, b.Float64s())
}

func TestTensorClone(t *testing.T) {
	w := New("w", Float32, 2)
	require.NoError(t, w.SetFloat32s([]float32{1, 2}))
	c := w.Clone()
	require.NoError(t, c.SetFloat32s([]float32{3, 4}))
	require.Equal(t, []float32{1, 2}, w.Float32s())
	c.Shape[0] = 5
	require.Equal(t, []int{2}, w.Shape)
}

func TestDType(t *testing.T) {
	require.Equal(t, 4, Float32.Size())
	require.Equal(t, 8, Int64.Size())
	require.Equal(t, 1, Uint8.Size())
	require.Zero(t, DType(0).Size())
	require.Equal(t, "float64", Float64.String())
	require.Panics(t, func() { New("bad", DType(99), 1) })
}

func TestParameterSetFingerprint(t *testing.T) {
	build := func(v float32) ParameterSet {
		w := New("w", Float32, 2, 2)
		b := New("b", Float32, 2)
		require.NoError(t, w.SetFloat32s([]float32{v, v, v, v}))
		require.NoError(t, b.SetFloat32s([]float32{v, 0}))
		return NewParameterSet(w, b)
	}
	a, b := build(1), build(1)
	require.Equal(t, a.Fingerprint(), b.Fingerprint())
	require.NotEqual(t, a.Fingerprint(), build(2).Fingerprint())

	require.Equal(t, 2, a.Len())
	require.Equal(t, 6, a.NumElements())
	require.Equal(t, 24, a.Bytes())

	// same bytes, different shape
	reshaped := NewParameterSet(a.At(0).Clone(), a.At(1).Clone())
	reshaped.At(0).Shape = []int{4}
	require.NotEqual(t, a.Fingerprint(), reshaped.Fingerprint())

	clone := a.Clone()
	require.Equal(t, a.Fingerprint(), clone.Fingerprint())
	require.NoError(t, clone.At(1).SetFloat32s([]float32{9, 9}))
	require.NotEqual(t, a.Fingerprint(), clone.Fingerprint())
}

func TestParameterSetEach(t *testing.T) {
	ps := NewParameterSet(New("a", Uint8, 1), New("b", Uint8, 1), New("c", Uint8, 1))
	var names []string
	require.NoError(t, ps.Each(func(i int, t *Tensor) error {
		names = append(names, t.Name)
		return nil
	}))
	require.Equal(t, []string{"a", "b", "c"}, names)
}
