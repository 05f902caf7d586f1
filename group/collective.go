package group

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Transport moves frames between peers of one group.
type Transport interface {
	// Send delivers frame to the peer with rank to. It returns once the
	// frame was handed to the underlying medium.
	Send(ctx context.Context, to int, frame *Frame) error
}

// Opt for configuring Collective.
type Opt func(*Collective)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Opt {
	return func(c *Collective) {
		c.logger = logger
	}
}

type mailKey struct {
	seq  uint64
	kind FrameKind
	from int
}

// Collective implements Group on top of a Transport. Frames received by the
// transport are handed to Deliver.
type Collective struct {
	logger    *zap.Logger
	name      string
	rank      int
	size      int
	transport Transport

	seq atomic.Uint64

	mu      sync.Mutex
	mailbox map[mailKey]chan *Frame

	closeOnce sync.Once
	closed    chan struct{}
}

var _ Group = (*Collective)(nil)

// New creates the local handle of a group of size peers.
func New(name string, rank, size int, transport Transport, opts ...Opt) (*Collective, error) {
	if size < 1 {
		return nil, fmt.Errorf("group %q: size must be positive, got %d", name, size)
	}
	if rank < 0 || rank >= size {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrInvalidRank, rank, size)
	}
	c := &Collective{
		logger:    zap.NewNop(),
		name:      name,
		rank:      rank,
		size:      size,
		transport: transport,
		mailbox:   make(map[mailKey]chan *Frame),
		closed:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(zap.String("group", name), zap.Int("rank", rank))
	return c, nil
}

// Rank of the local peer.
func (c *Collective) Rank() int { return c.rank }

// Size of the group.
func (c *Collective) Size() int { return c.size }

// Name of the group.
func (c *Collective) Name() string { return c.name }

// Close fails pending and future collectives with ErrClosed.
func (c *Collective) Close() {
	c.closeOnce.Do(func() {
		close(c.closed)
	})
}

func (c *Collective) next() uint64 {
	return c.seq.Add(1)
}

// Broadcast implements Group.
func (c *Collective) Broadcast(ctx context.Context, msg *Message, src int, async bool) (Work, error) {
	if src < 0 || src >= c.size {
		return nil, fmt.Errorf("%w: source %d not in [0, %d)", ErrInvalidRank, src, c.size)
	}
	select {
	case <-c.closed:
		return nil, ErrClosed
	default:
	}
	seq := c.next()
	var run func(context.Context) error
	if src == c.rank {
		broadcastSource.Inc()
		frame := &Frame{
			Seq:     seq,
			Kind:    KindBroadcast,
			From:    uint32(c.rank),
			Header:  msg.Header,
			Payload: msg.Data,
		}
		run = func(ctx context.Context) error {
			if err := c.sendAll(ctx, frame); err != nil {
				return err
			}
			bytesSent.Add(float64(len(msg.Data) * (c.size - 1)))
			return nil
		}
	} else {
		broadcastReceiver.Inc()
		key := mailKey{seq: seq, kind: KindBroadcast, from: src}
		run = func(ctx context.Context) error {
			frame, err := c.receive(ctx, key)
			if err != nil {
				return err
			}
			if err := msg.apply(frame.Header, frame.Payload); err != nil {
				return fmt.Errorf("broadcast %d from rank %d: %w", seq, src, err)
			}
			bytesReceived.Add(float64(len(frame.Payload)))
			return nil
		}
	}
	observed := func(ctx context.Context) error {
		start := time.Now()
		err := run(ctx)
		broadcastLatency.Observe(time.Since(start).Seconds())
		if err != nil {
			collectiveErrors.WithLabelValues(opBroadcast).Inc()
			c.logger.Debug("broadcast failed",
				zap.Uint64("seq", seq),
				zap.Int("source", src),
				zap.Error(err),
			)
		}
		return err
	}
	if !async {
		if err := observed(ctx); err != nil {
			return nil, err
		}
		return doneWork{}, nil
	}
	w := newAsyncWork()
	go func() {
		w.finish(observed(ctx))
	}()
	return w, nil
}

// Barrier implements Group. Rank 0 gathers an arrival from every other peer
// and then releases them.
func (c *Collective) Barrier(ctx context.Context) error {
	select {
	case <-c.closed:
		return ErrClosed
	default:
	}
	seq := c.next()
	barrierCount.Inc()
	start := time.Now()
	err := c.barrier(ctx, seq)
	barrierLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		collectiveErrors.WithLabelValues(opBarrier).Inc()
		return fmt.Errorf("barrier %d: %w", seq, err)
	}
	return nil
}

func (c *Collective) barrier(ctx context.Context, seq uint64) error {
	if c.size == 1 {
		return nil
	}
	if c.rank == 0 {
		for r := 1; r < c.size; r++ {
			if _, err := c.receive(ctx, mailKey{seq: seq, kind: KindArrive, from: r}); err != nil {
				return err
			}
		}
		return c.sendAll(ctx, &Frame{Seq: seq, Kind: KindRelease})
	}
	if err := c.transport.Send(ctx, 0, &Frame{Seq: seq, Kind: KindArrive, From: uint32(c.rank)}); err != nil {
		return fmt.Errorf("send arrival: %w", err)
	}
	_, err := c.receive(ctx, mailKey{seq: seq, kind: KindRelease, from: 0})
	return err
}

func (c *Collective) sendAll(ctx context.Context, frame *Frame) error {
	var eg errgroup.Group
	for r := 0; r < c.size; r++ {
		if r == c.rank {
			continue
		}
		eg.Go(func() error {
			if err := c.transport.Send(ctx, r, frame); err != nil {
				return fmt.Errorf("send %s to rank %d: %w", frame.Kind, r, err)
			}
			return nil
		})
	}
	return eg.Wait()
}

func (c *Collective) slot(key mailKey) chan *Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch, ok := c.mailbox[key]
	if !ok {
		ch = make(chan *Frame, 1)
		c.mailbox[key] = ch
	}
	return ch
}

func (c *Collective) receive(ctx context.Context, key mailKey) (*Frame, error) {
	ch := c.slot(key)
	select {
	case frame := <-ch:
		c.mu.Lock()
		delete(c.mailbox, key)
		c.mu.Unlock()
		return frame, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.closed:
		return nil, ErrClosed
	}
}

// Deliver hands a frame received by the transport to the pending or future
// collective it belongs to.
func (c *Collective) Deliver(frame *Frame) error {
	from := int(frame.From)
	if from < 0 || from >= c.size || from == c.rank {
		return fmt.Errorf("%w: frame from %d", ErrInvalidRank, from)
	}
	switch frame.Kind {
	case KindBroadcast, KindArrive, KindRelease:
	default:
		return fmt.Errorf("unknown frame kind %d", frame.Kind)
	}
	select {
	case <-c.closed:
		return ErrClosed
	default:
	}
	key := mailKey{seq: frame.Seq, kind: frame.Kind, from: from}
	select {
	case c.slot(key) <- frame:
		return nil
	default:
		return fmt.Errorf("duplicate %s frame %d from rank %d", frame.Kind, frame.Seq, from)
	}
}
