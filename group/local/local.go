// Package local connects the peers of a group inside one process. It backs
// single-host runs and the tests of every component built on group.Group.
package local

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/replicasync/replicasync/group"
)

// Opt for configuring a local group.
type Opt func(*hub)

// WithLogger sets the logger used by the transport and the collectives.
func WithLogger(logger *zap.Logger) Opt {
	return func(h *hub) {
		h.logger = logger
	}
}

// WithDelay delays delivery of every frame by the returned duration. It is
// used to reorder frames across peers in tests.
func WithDelay(delay func(from, to int) time.Duration) Opt {
	return func(h *hub) {
		h.delay = delay
	}
}

type hub struct {
	logger  *zap.Logger
	delay   func(from, to int) time.Duration
	members []*group.Collective
}

type transport struct {
	hub  *hub
	rank int
}

func (t *transport) Send(ctx context.Context, to int, frame *group.Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if to < 0 || to >= len(t.hub.members) {
		return fmt.Errorf("%w: %d", group.ErrInvalidRank, to)
	}
	// receivers must not observe later writes to the source buffers
	cp := &group.Frame{
		Seq:     frame.Seq,
		Kind:    frame.Kind,
		From:    frame.From,
		Header:  append([]byte(nil), frame.Header...),
		Payload: append([]byte(nil), frame.Payload...),
	}
	deliver := func() {
		if err := t.hub.members[to].Deliver(cp); err != nil && !errors.Is(err, group.ErrClosed) {
			t.hub.logger.Error("failed to deliver frame",
				zap.Int("from", t.rank),
				zap.Int("to", to),
				zap.Stringer("kind", cp.Kind),
				zap.Error(err),
			)
		}
	}
	if t.hub.delay != nil {
		if d := t.hub.delay(t.rank, to); d > 0 {
			time.AfterFunc(d, deliver)
			return nil
		}
	}
	deliver()
	return nil
}

// New creates size connected peers of the group name. Element i of the
// result has rank i.
func New(name string, size int, opts ...Opt) ([]*group.Collective, error) {
	if size < 1 {
		return nil, fmt.Errorf("local group %q: size must be positive, got %d", name, size)
	}
	h := &hub{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(h)
	}
	h.members = make([]*group.Collective, size)
	for rank := range h.members {
		c, err := group.New(name, rank, size, &transport{hub: h, rank: rank}, group.WithLogger(h.logger))
		if err != nil {
			return nil, err
		}
		h.members[rank] = c
	}
	return h.members, nil
}

// Spawn runs f for every peer in its own goroutine and returns the first
// error. The context passed to f is canceled once any peer fails.
func Spawn(ctx context.Context, members []*group.Collective, f func(ctx context.Context, g group.Group) error) error {
	eg, ctx := errgroup.WithContext(ctx)
	for _, member := range members {
		eg.Go(func() error {
			if err := f(ctx, member); err != nil {
				return fmt.Errorf("rank %d: %w", member.Rank(), err)
			}
			return nil
		})
	}
	return eg.Wait()
}

// Close closes every peer.
func Close(members []*group.Collective) {
	for _, member := range members {
		member.Close()
	}
}
