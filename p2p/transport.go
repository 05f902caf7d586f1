package p2p

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/core/protocol"
	"github.com/libp2p/go-msgio"
	"go.uber.org/zap"

	"github.com/replicasync/replicasync/codec"
	"github.com/replicasync/replicasync/group"
)

const protocolPrefix = "/replicasync/collective/1.0.0/"

var (
	// ErrNotMember is returned when the local identity is not in the peer list.
	ErrNotMember = errors.New("local peer is not a group member")

	errStreamReset = errors.New("stream reset")
)

// ProtocolID for the collective frames of the named group.
func ProtocolID(name string) protocol.ID {
	return protocol.ID(protocolPrefix + name)
}

// TransportOpt for configuring Transport.
type TransportOpt func(*Transport)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) TransportOpt {
	return func(t *Transport) {
		t.logger = logger
	}
}

// WithMaxMessageSize bounds the size of a single frame.
func WithMaxMessageSize(size int) TransportOpt {
	return func(t *Transport) {
		t.maxMessageSize = size
	}
}

// WithDial configures how long and how often Join dials unreachable peers.
func WithDial(timeout, interval time.Duration) TransportOpt {
	return func(t *Transport) {
		t.dialTimeout = timeout
		t.dialInterval = interval
	}
}

type outbound struct {
	mu     sync.Mutex
	stream network.Stream
	writer msgio.WriteCloser
}

// Transport carries group frames over one persistent libp2p stream per
// ordered pair of peers.
type Transport struct {
	logger         *zap.Logger
	host           host.Host
	name           string
	protocol       protocol.ID
	peers          []peer.AddrInfo
	ranks          map[peer.ID]int
	rank           int
	maxMessageSize int
	dialTimeout    time.Duration
	dialInterval   time.Duration

	mu         sync.Mutex
	outbound   map[int]*outbound
	collective *group.Collective
}

// NewTransport resolves the local rank from the position of the host
// identity in peers.
func NewTransport(h host.Host, name string, peers []peer.AddrInfo, opts ...TransportOpt) (*Transport, error) {
	t := &Transport{
		logger:         zap.NewNop(),
		host:           h,
		name:           name,
		protocol:       ProtocolID(name),
		peers:          peers,
		ranks:          make(map[peer.ID]int, len(peers)),
		rank:           -1,
		maxMessageSize: DefaultConfig().MaxMessageSize,
		dialTimeout:    DefaultConfig().DialTimeout,
		dialInterval:   DefaultConfig().DialInterval,
		outbound:       make(map[int]*outbound),
	}
	for _, opt := range opts {
		opt(t)
	}
	for rank, info := range peers {
		if prev, ok := t.ranks[info.ID]; ok {
			return nil, fmt.Errorf("peer %s listed as rank %d and %d", info.ID, prev, rank)
		}
		t.ranks[info.ID] = rank
		if info.ID == h.ID() {
			t.rank = rank
		}
	}
	if t.rank < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotMember, h.ID())
	}
	t.logger = t.logger.With(zap.String("group", name), zap.Int("rank", t.rank))
	return t, nil
}

// Rank of the local peer.
func (t *Transport) Rank() int {
	return t.rank
}

// Join forms the group: it registers the frame handler, connects to every
// peer and waits in a barrier until all of them joined.
func (t *Transport) Join(ctx context.Context) (*group.Collective, error) {
	c, err := group.New(t.name, t.rank, len(t.peers), t, group.WithLogger(t.logger))
	if err != nil {
		return nil, err
	}
	t.mu.Lock()
	t.collective = c
	t.mu.Unlock()
	t.host.SetStreamHandler(t.protocol, t.handle)
	if err := t.connect(ctx); err != nil {
		t.Close()
		return nil, err
	}
	if err := c.Barrier(ctx); err != nil {
		t.Close()
		return nil, fmt.Errorf("join barrier: %w", err)
	}
	t.logger.Info("joined group", zap.Int("size", len(t.peers)))
	return c, nil
}

func (t *Transport) connect(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, t.dialTimeout)
	defer cancel()
	for rank, info := range t.peers {
		if rank == t.rank {
			continue
		}
		t.host.ConnManager().Protect(info.ID, t.name)
		for {
			err := t.host.Connect(ctx, info)
			if err == nil {
				break
			}
			t.logger.Debug("peer not reachable yet",
				zap.Int("peer_rank", rank),
				zap.Stringer("peer", info.ID),
				zap.Error(err),
			)
			select {
			case <-ctx.Done():
				return fmt.Errorf("connect to rank %d (%s): %w", rank, info.ID, err)
			case <-time.After(t.dialInterval):
			}
		}
	}
	return nil
}

// Send implements group.Transport.
func (t *Transport) Send(ctx context.Context, to int, frame *group.Frame) error {
	if to < 0 || to >= len(t.peers) || to == t.rank {
		return fmt.Errorf("%w: %d", group.ErrInvalidRank, to)
	}
	buf, err := codec.Encode(frame)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	if len(buf) > t.maxMessageSize {
		return fmt.Errorf("frame of %d bytes exceeds limit %d", len(buf), t.maxMessageSize)
	}
	// a stream broken by a previous failure is replaced once
	for attempt := 0; ; attempt++ {
		out, err := t.stream(ctx, to)
		if err != nil {
			return err
		}
		out.mu.Lock()
		if out.writer == nil {
			err = errStreamReset
		} else {
			err = out.writer.WriteMsg(buf)
		}
		out.mu.Unlock()
		if err == nil {
			framesSent.Inc()
			return nil
		}
		t.drop(out)
		if attempt > 0 || ctx.Err() != nil {
			return fmt.Errorf("write frame to rank %d: %w", to, err)
		}
		t.logger.Debug("reopening stream", zap.Int("peer_rank", to), zap.Error(err))
	}
}

func (t *Transport) stream(ctx context.Context, to int) (*outbound, error) {
	t.mu.Lock()
	out, ok := t.outbound[to]
	if !ok {
		out = &outbound{}
		t.outbound[to] = out
	}
	t.mu.Unlock()

	out.mu.Lock()
	defer out.mu.Unlock()
	if out.stream != nil {
		return out, nil
	}
	// the peer may not have registered the protocol handler yet
	for {
		s, err := t.host.NewStream(ctx, t.peers[to].ID, t.protocol)
		if err == nil {
			streamsOpened.Inc()
			out.stream = s
			out.writer = msgio.NewVarintWriter(s)
			return out, nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("open stream to rank %d: %w", to, err)
		case <-time.After(t.dialInterval):
		}
	}
}

func (t *Transport) drop(out *outbound) {
	out.mu.Lock()
	if out.stream != nil {
		out.stream.Reset()
		out.stream = nil
		out.writer = nil
	}
	out.mu.Unlock()
}

func (t *Transport) handle(s network.Stream) {
	remote := s.Conn().RemotePeer()
	rank, ok := t.ranks[remote]
	if !ok || rank == t.rank {
		t.logger.Warn("rejecting stream from non member", zap.Stringer("peer", remote))
		s.Reset()
		return
	}
	t.mu.Lock()
	c := t.collective
	t.mu.Unlock()
	reader := msgio.NewVarintReaderSize(s, t.maxMessageSize)
	defer reader.Close()
	for {
		buf, err := reader.ReadMsg()
		if err != nil {
			if !errors.Is(err, network.ErrReset) {
				t.logger.Debug("stream closed", zap.Int("peer_rank", rank), zap.Error(err))
			}
			return
		}
		var frame group.Frame
		if err := codec.Decode(buf, &frame); err != nil {
			t.logger.Warn("malformed frame", zap.Int("peer_rank", rank), zap.Error(err))
			s.Reset()
			return
		}
		if int(frame.From) != rank {
			t.logger.Warn("frame sender does not match stream",
				zap.Int("peer_rank", rank),
				zap.Uint32("from", frame.From),
			)
			s.Reset()
			return
		}
		framesReceived.Inc()
		if err := c.Deliver(&frame); err != nil {
			if errors.Is(err, group.ErrClosed) {
				s.Reset()
				return
			}
			t.logger.Warn("failed to deliver frame", zap.Int("peer_rank", rank), zap.Error(err))
		}
	}
}

// Close stops handling frames, resets the streams and closes the collective.
func (t *Transport) Close() {
	t.host.RemoveStreamHandler(t.protocol)
	t.mu.Lock()
	outs := t.outbound
	t.outbound = make(map[int]*outbound)
	c := t.collective
	t.mu.Unlock()
	for _, out := range outs {
		t.drop(out)
	}
	for _, info := range t.peers {
		t.host.ConnManager().Unprotect(info.ID, t.name)
	}
	if c != nil {
		c.Close()
	}
}
