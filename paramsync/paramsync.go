// Package paramsync replicates parameter buffers from a source peer to every
// peer of a group.
//
// Buffers are broadcast one by one in the fixed order of the parameter set,
// transmitted byte for byte and overwritten in place at the receivers. There
// is no averaging: after a sync every peer holds the exact buffers of the
// source.
package paramsync

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/replicasync/replicasync/codec"
	"github.com/replicasync/replicasync/group"
	"github.com/replicasync/replicasync/log"
	"github.com/replicasync/replicasync/tensor"
)

// ErrDiverged is returned by Verify when local buffers differ from the
// buffers of the source.
var ErrDiverged = errors.New("replica diverged from source")

// Opt for configuring Syncer.
type Opt func(*Syncer)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Opt {
	return func(s *Syncer) {
		s.logger = logger
	}
}

// Syncer synchronizes buffers over a group.
type Syncer struct {
	logger *zap.Logger
	group  group.Group
}

// New creates a Syncer for g.
func New(g group.Group, opts ...Opt) *Syncer {
	s := &Syncer{
		logger: zap.NewNop(),
		group:  g,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SyncParameters broadcasts every buffer of ps from src.
//
// Blocking calls return once all buffers are synchronized, with no handles.
// With async the handles of the pending broadcasts are returned and the
// buffers of ps must not be used until every handle was waited for.
func (s *Syncer) SyncParameters(ctx context.Context, ps tensor.ParameterSet, src int, async bool) ([]group.Work, error) {
	return s.syncSet(ctx, Parameters, ps, src, async)
}

// SyncOptimizer is SyncParameters for the optimizer state.
func (s *Syncer) SyncOptimizer(ctx context.Context, state tensor.ParameterSet, src int, async bool) ([]group.Work, error) {
	return s.syncSet(ctx, OptimizerState, state, src, async)
}

// Sync broadcasts params and, with shareOptimizer, the optimizer state after
// them.
func (s *Syncer) Sync(
	ctx context.Context,
	params, state tensor.ParameterSet,
	src int,
	shareOptimizer, async bool,
) ([]group.Work, error) {
	works, err := s.SyncParameters(ctx, params, src, async)
	if err != nil {
		return works, err
	}
	if !shareOptimizer {
		return works, nil
	}
	more, err := s.SyncOptimizer(ctx, state, src, async)
	return append(works, more...), err
}

func (s *Syncer) syncSet(ctx context.Context, set SetKind, ps tensor.ParameterSet, src int, async bool) ([]group.Work, error) {
	start := time.Now()
	isSource := s.group.Rank() == src
	var works []group.Work
	if async {
		works = make([]group.Work, 0, ps.Len())
	}
	err := ps.Each(func(i int, t *tensor.Tensor) error {
		header, err := codec.Encode(Describe(set, i, t))
		if err != nil {
			return fmt.Errorf("encode descriptor of %s: %w", t.Name, err)
		}
		w, err := s.group.Broadcast(ctx, &group.Message{Header: header, Data: t.Data}, src, async)
		if err != nil {
			return fmt.Errorf("%s %d (%s): %w", set, i, t.Name, err)
		}
		if async {
			works = append(works, w)
		}
		return nil
	})
	if err != nil {
		return works, err
	}
	buffers.WithLabelValues(set.String()).Add(float64(ps.Len()))
	if isSource {
		sourceBytes.Add(float64(ps.Bytes()))
	} else {
		receiverBytes.Add(float64(ps.Bytes()))
	}
	fields := append(log.Context(ctx),
		zap.Stringer("set", set),
		zap.Int("source", src),
		zap.Int("buffers", ps.Len()),
		zap.Int("bytes", ps.Bytes()),
		zap.Bool("async", async),
	)
	if !async {
		elapsed := time.Since(start)
		syncDuration.WithLabelValues(set.String()).Observe(elapsed.Seconds())
		fields = append(fields, zap.Duration("duration", elapsed))
	}
	s.logger.Debug("buffers synchronized", fields...)
	return works, nil
}

// Verify checks that ps matches the buffers of src by broadcasting the
// fingerprint of the source. Every peer must call it.
func (s *Syncer) Verify(ctx context.Context, ps tensor.ParameterSet, src int) error {
	local := ps.Fingerprint()
	remote := local
	msg := &group.Message{Header: []byte("fingerprint"), Data: remote[:]}
	if _, err := s.group.Broadcast(ctx, msg, src, false); err != nil {
		return fmt.Errorf("broadcast fingerprint: %w", err)
	}
	if !bytes.Equal(local[:], remote[:]) {
		verifyDiverged.Inc()
		return fmt.Errorf("%w: rank %d has %s, rank %d has %s",
			ErrDiverged, s.group.Rank(), local.ShortString(), src, remote.ShortString())
	}
	verifyOk.Inc()
	return nil
}
