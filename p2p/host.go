// Package p2p connects the peers of a process group over libp2p.
package p2p

import (
	"context"
	"fmt"

	lp2plog "github.com/ipfs/go-log/v2"
	"github.com/libp2p/go-libp2p"
	"github.com/libp2p/go-libp2p/core/crypto"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/metrics"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/protocol"
	"github.com/libp2p/go-libp2p/core/transport"
	"github.com/libp2p/go-libp2p/p2p/host/peerstore/pstoremem"
	"github.com/libp2p/go-libp2p/p2p/muxer/yamux"
	"github.com/libp2p/go-libp2p/p2p/net/connmgr"
	tptu "github.com/libp2p/go-libp2p/p2p/net/upgrader"
	"github.com/libp2p/go-libp2p/p2p/security/noise"
	"github.com/libp2p/go-libp2p/p2p/transport/tcp"
	"go.uber.org/zap"
)

// Host wraps the libp2p host of a peer.
type Host struct {
	host.Host
	cfg       Config
	logger    *zap.Logger
	bandwidth *metrics.BandwidthCounter
}

// Config the host was created with.
func (h *Host) Config() Config {
	return h.cfg
}

// Bandwidth returns the totals of traffic exchanged with other peers.
func (h *Host) Bandwidth() metrics.Stats {
	if h.bandwidth == nil {
		return metrics.Stats{}
	}
	return h.bandwidth.GetBandwidthTotals()
}

// New initializes a libp2p host for the group. Only peers that use the same
// prologue complete the noise handshake, so hosts of different groups never
// connect.
func New(_ context.Context, logger *zap.Logger, cfg Config, prologue []byte) (*Host, error) {
	logger.Info("starting libp2p host",
		zap.String("listen", cfg.Listen),
		zap.Strings("peers", cfg.Peers),
	)
	key, err := EnsureIdentity(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	lp2plog.SetPrimaryCore(logger.Core())
	lp2plog.SetAllLoggers(lp2plog.LogLevel(cfg.LogLevel))
	cm, err := connmgr.NewConnManager(cfg.LowPeers, cfg.HighPeers, connmgr.WithGracePeriod(cfg.GracePeersShutdown))
	if err != nil {
		return nil, fmt.Errorf("p2p create conn mgr: %w", err)
	}
	ps, err := pstoremem.NewPeerstore()
	if err != nil {
		return nil, fmt.Errorf("can't create peer store: %w", err)
	}
	streamer := *yamux.DefaultTransport
	bandwidth := metrics.NewBandwidthCounter()
	lopts := []libp2p.Option{
		libp2p.Identity(key),
		libp2p.ListenAddrStrings(cfg.Listen),
		libp2p.UserAgent("replicasync"),
		libp2p.Transport(func(upgrader transport.Upgrader, rcmgr network.ResourceManager) (transport.Transport, error) {
			opts := []tcp.Option{}
			if cfg.DisableReusePort {
				opts = append(opts, tcp.DisableReuseport())
			}
			return tcp.NewTCPTransport(upgrader, rcmgr, opts...)
		}),
		libp2p.Security(noise.ID, func(id protocol.ID, privkey crypto.PrivKey, muxers []tptu.StreamMuxer) (*noise.SessionTransport, error) {
			tp, err := noise.New(id, privkey, muxers)
			if err != nil {
				return nil, err
			}
			return tp.WithSessionOptions(noise.Prologue(prologue))
		}),
		libp2p.Muxer(yamux.ID, &streamer),
		libp2p.ConnectionManager(cm),
		libp2p.Peerstore(ps),
		libp2p.BandwidthReporter(bandwidth),
		libp2p.DisableRelay(),
	}
	h, err := libp2p.New(lopts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize libp2p host: %w", err)
	}
	logger.Info("local node identity",
		zap.Stringer("identity", h.ID()),
		zap.Any("addresses", h.Addrs()),
	)
	return &Host{Host: h, cfg: cfg, logger: logger, bandwidth: bandwidth}, nil
}

// Stop releases the libp2p host.
func (h *Host) Stop() error {
	if err := h.Host.Close(); err != nil {
		return fmt.Errorf("failed to close libp2p host: %w", err)
	}
	return nil
}
