package p2p

import (
	"fmt"
	"time"

	"github.com/libp2p/go-libp2p/core/peer"
	ma "github.com/multiformats/go-multiaddr"
	"go.uber.org/zap/zapcore"
)

// DefaultConfig config.
func DefaultConfig() Config {
	return Config{
		Listen:             "/ip4/0.0.0.0/tcp/7600",
		LogLevel:           zapcore.WarnLevel,
		LowPeers:           16,
		HighPeers:          64,
		GracePeersShutdown: 30 * time.Second,
		MaxMessageSize:     1 << 30,
		DialTimeout:        2 * time.Minute,
		DialInterval:       time.Second,
	}
}

// Config for the libp2p transport of a process group.
type Config struct {
	DataDir  string        `mapstructure:"-"`
	LogLevel zapcore.Level `mapstructure:"p2p-log-level"`

	Listen string `mapstructure:"listen"`
	// Peers lists every member of the group in rank order as multiaddrs
	// ending with /p2p/<peer id>. The local rank is the position of the
	// local identity in this list.
	Peers []string `mapstructure:"peers"`

	// see https://lwn.net/Articles/542629/ for reuseport explanation
	DisableReusePort   bool          `mapstructure:"disable-reuseport"`
	LowPeers           int           `mapstructure:"low-peers"`
	HighPeers          int           `mapstructure:"high-peers"`
	GracePeersShutdown time.Duration `mapstructure:"grace-peers-shutdown"`
	MaxMessageSize     int           `mapstructure:"max-message-size"`
	DialTimeout        time.Duration `mapstructure:"dial-timeout"`
	DialInterval       time.Duration `mapstructure:"dial-interval"`
}

// Validate checks addresses and limits.
func (c *Config) Validate() error {
	if _, err := ma.NewMultiaddr(c.Listen); err != nil {
		return fmt.Errorf("invalid listen address %q: %w", c.Listen, err)
	}
	if _, err := ParsePeers(c.Peers); err != nil {
		return err
	}
	if c.MaxMessageSize <= 0 {
		return fmt.Errorf("max-message-size must be positive, got %d", c.MaxMessageSize)
	}
	if c.DialInterval <= 0 {
		return fmt.Errorf("dial-interval must be positive, got %s", c.DialInterval)
	}
	return nil
}

// ParsePeers parses the rank ordered member list. Every peer may appear only
// once.
func ParsePeers(addrs []string) ([]peer.AddrInfo, error) {
	infos := make([]peer.AddrInfo, 0, len(addrs))
	seen := make(map[peer.ID]int, len(addrs))
	for rank, addr := range addrs {
		maddr, err := ma.NewMultiaddr(addr)
		if err != nil {
			return nil, fmt.Errorf("parse peer %d %q: %w", rank, addr, err)
		}
		info, err := peer.AddrInfoFromP2pAddr(maddr)
		if err != nil {
			return nil, fmt.Errorf("parse peer %d %q: %w", rank, addr, err)
		}
		if prev, ok := seen[info.ID]; ok {
			return nil, fmt.Errorf("peer %s listed as rank %d and %d", info.ID, prev, rank)
		}
		seen[info.ID] = rank
		infos = append(infos, *info)
	}
	return infos, nil
}
