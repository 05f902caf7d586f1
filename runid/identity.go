package runid

import (
	"path/filepath"
	"strings"

	"go.uber.org/zap/zapcore"

	"github.com/replicasync/replicasync/common/types"
)

// TimestampFormat of the run timestamp minted by rank 0.
const TimestampFormat = "2006-01-02_15-04-05"

// Config names a run. Every peer must be started with the same values.
type Config struct {
	LogDir  string `mapstructure:"log-dir"`
	EnvID   string `mapstructure:"env-id"`
	Tag     string `mapstructure:"tag"`
	Mode    string `mapstructure:"mode"`
	Agent   string `mapstructure:"agent"`
	Network string `mapstructure:"network"`
}

// DefaultConfig for a run.
func DefaultConfig() Config {
	return Config{
		LogDir:  "logs",
		EnvID:   "bandit",
		Mode:    "P2P",
		Agent:   "Reinforce",
		Network: "Linear",
	}
}

// Identity of a run as seen by one peer.
type Identity struct {
	Rank      types.Rank
	Timestamp string
	LogID     string
	// RootDir is shared by all peers of the run.
	RootDir string
	// RankDir is the subdirectory owned by the local peer.
	RankDir string
}

// MarshalLogObject implements logging encoder for Identity.
func (i Identity) MarshalLogObject(encoder zapcore.ObjectEncoder) error {
	encoder.AddString("timestamp", i.Timestamp)
	encoder.AddString("log_id", i.LogID)
	encoder.AddString("root_dir", i.RootDir)
	encoder.AddString("rank_dir", i.RankDir)
	return nil
}

// LogID composes the run label from the config and the shared timestamp.
func LogID(cfg Config, timestamp string) string {
	parts := []string{cfg.Mode, cfg.Agent, cfg.Network, timestamp}
	if cfg.Tag != "" {
		parts = append([]string{cfg.Tag}, parts...)
	}
	return strings.Join(parts, "_")
}

// Derive computes the identity of rank from data shared by every peer. It
// does not touch the filesystem.
func Derive(cfg Config, timestamp string, rank types.Rank) Identity {
	logID := LogID(cfg, timestamp)
	root := filepath.Join(cfg.LogDir, cfg.EnvID, logID)
	return Identity{
		Rank:      rank,
		Timestamp: timestamp,
		LogID:     logID,
		RootDir:   root,
		RankDir:   filepath.Join(root, rank.String()),
	}
}
