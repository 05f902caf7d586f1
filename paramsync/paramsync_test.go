package paramsync

import (
	"context"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replicasync/replicasync/codec"
	"github.com/replicasync/replicasync/group"
	"github.com/replicasync/replicasync/group/local"
	"github.com/replicasync/replicasync/log/logtest"
	"github.com/replicasync/replicasync/tensor"
)

type replica struct {
	params tensor.ParameterSet
	state  tensor.ParameterSet
}

func randomize(rng *rand.Rand, ps tensor.ParameterSet) {
	ps.Each(func(_ int, t *tensor.Tensor) error {
		for i := range t.Data {
			t.Data[i] = byte(rng.Uint32())
		}
		return nil
	})
}

// newReplica builds the same topology on every rank with rank specific
// contents.
func newReplica(rank int) *replica {
	rng := rand.New(rand.NewPCG(uint64(rank), 1))
	r := &replica{
		params: tensor.NewParameterSet(
			tensor.New("w", tensor.Float32, 4, 3),
			tensor.New("b", tensor.Float32, 3),
			tensor.New("count", tensor.Int64, 1),
		),
		state: tensor.NewParameterSet(
			tensor.New("w.square_avg", tensor.Float32, 4, 3),
			tensor.New("b.square_avg", tensor.Float32, 3),
			tensor.New("count.square_avg", tensor.Int64, 1),
		),
	}
	randomize(rng, r.params)
	randomize(rng, r.state)
	return r
}

// runAll runs f on every rank concurrently and returns per-rank errors.
func runAll(t *testing.T, size int, f func(ctx context.Context, s *Syncer) error) []error {
	t.Helper()
	members, err := local.New(t.Name(), size, local.WithDelay(func(int, int) time.Duration {
		return time.Duration(rand.IntN(500)) * time.Microsecond
	}))
	require.NoError(t, err)
	t.Cleanup(func() { local.Close(members) })
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	errs := make([]error, size)
	var wg sync.WaitGroup
	for _, g := range members {
		wg.Add(1)
		go func(g group.Group) {
			defer wg.Done()
			errs[g.Rank()] = f(ctx, New(g, WithLogger(logtest.New(t))))
		}(g)
	}
	wg.Wait()
	return errs
}

func TestSyncParameters(t *testing.T) {
	for _, tc := range []struct {
		desc  string
		size  int
		src   int
		async bool
	}{
		{desc: "blocking", size: 3, src: 0},
		{desc: "async", size: 3, src: 0, async: true},
		{desc: "non zero source", size: 4, src: 2},
		{desc: "single peer", size: 1, src: 0},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			replicas := make([]*replica, tc.size)
			for r := range replicas {
				replicas[r] = newReplica(r)
			}
			expected := replicas[tc.src].params.Clone()
			errs := runAll(t, tc.size, func(ctx context.Context, s *Syncer) error {
				works, err := s.SyncParameters(ctx, replicas[s.group.Rank()].params, tc.src, tc.async)
				if err != nil {
					return err
				}
				if !tc.async {
					assert.Empty(t, works)
					return nil
				}
				assert.Len(t, works, expected.Len())
				return group.WaitAll(ctx, works)
			})
			for _, err := range errs {
				require.NoError(t, err)
			}
			for r, rep := range replicas {
				require.Equal(t, expected.Fingerprint(), rep.params.Fingerprint(), "rank %d", r)
				for i := 0; i < expected.Len(); i++ {
					require.Equal(t, expected.At(i).Data, rep.params.At(i).Data)
				}
			}
		})
	}
}

func TestSyncOptimizer(t *testing.T) {
	for _, share := range []bool{false, true} {
		replicas := []*replica{newReplica(0), newReplica(1)}
		before := replicas[1].state.Fingerprint()
		errs := runAll(t, 2, func(ctx context.Context, s *Syncer) error {
			rep := replicas[s.group.Rank()]
			works, err := s.Sync(ctx, rep.params, rep.state, 0, share, true)
			if err != nil {
				return err
			}
			expected := rep.params.Len()
			if share {
				expected += rep.state.Len()
			}
			assert.Len(t, works, expected)
			return group.WaitAll(ctx, works)
		})
		require.NoError(t, errs[0])
		require.NoError(t, errs[1])
		require.Equal(t, replicas[0].params.Fingerprint(), replicas[1].params.Fingerprint())
		if share {
			require.Equal(t, replicas[0].state.Fingerprint(), replicas[1].state.Fingerprint())
		} else {
			require.Equal(t, before, replicas[1].state.Fingerprint())
		}
	}
}

func TestTopologyMismatch(t *testing.T) {
	for _, tc := range []struct {
		desc   string
		mutate func(*replica)
		err    error
	}{
		{
			desc: "shape",
			mutate: func(r *replica) {
				r.params = tensor.NewParameterSet(
					tensor.New("w", tensor.Float32, 3, 4),
					r.params.At(1),
					r.params.At(2),
				)
			},
			err: group.ErrHeaderMismatch,
		},
		{
			desc: "dtype",
			mutate: func(r *replica) {
				r.params = tensor.NewParameterSet(
					r.params.At(0),
					r.params.At(1),
					tensor.New("count", tensor.Float64, 1),
				)
			},
			err: group.ErrHeaderMismatch,
		},
		{
			desc: "order",
			mutate: func(r *replica) {
				r.params = tensor.NewParameterSet(r.params.At(1), r.params.At(0), r.params.At(2))
			},
			err: group.ErrHeaderMismatch,
		},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			replicas := []*replica{newReplica(0), newReplica(1), newReplica(2)}
			tc.mutate(replicas[1])
			errs := runAll(t, 3, func(ctx context.Context, s *Syncer) error {
				_, err := s.SyncParameters(ctx, replicas[s.group.Rank()].params, 0, false)
				return err
			})
			require.NoError(t, errs[0])
			require.ErrorIs(t, errs[1], tc.err)
			require.NoError(t, errs[2])
		})
	}
}

func TestVerify(t *testing.T) {
	replicas := []*replica{newReplica(0), newReplica(1), newReplica(2)}
	errs := runAll(t, 3, func(ctx context.Context, s *Syncer) error {
		rep := replicas[s.group.Rank()]
		if _, err := s.SyncParameters(ctx, rep.params, 0, false); err != nil {
			return err
		}
		if err := s.Verify(ctx, rep.params, 0); err != nil {
			return err
		}
		if s.group.Rank() == 2 {
			rep.params.At(1).Data[0]++
		}
		return s.Verify(ctx, rep.params, 0)
	})
	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	require.ErrorIs(t, errs[2], ErrDiverged)
}

func TestDescriptorCodec(t *testing.T) {
	d := Describe(OptimizerState, 3, tensor.New("w", tensor.Float64, 2, 5, 7))
	require.Equal(t, []uint32{2, 5, 7}, d.Shape)
	buf, err := codec.Encode(d)
	require.NoError(t, err)
	var decoded Descriptor
	require.NoError(t, codec.Decode(buf, &decoded))
	require.Equal(t, *d, decoded)

	_, err = codec.Encode(&Descriptor{Shape: make([]uint32, maxRank+1)})
	require.Error(t, err)
}
