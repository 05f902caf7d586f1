// Package config contains replicasync peer configuration definitions.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/replicasync/replicasync/metrics"
	"github.com/replicasync/replicasync/p2p"
	"github.com/replicasync/replicasync/runid"
	"github.com/replicasync/replicasync/sim"
	"github.com/replicasync/replicasync/trainer"
)

const (
	defaultDataDirName = ".replicasync"
	defaultPushPeriod  = time.Minute
)

var (
	// ErrInvalidSize is returned when the group size is not positive.
	ErrInvalidSize = errors.New("group size must be at least 1")
	// ErrInvalidEnvCount is returned when a peer would run no environments.
	ErrInvalidEnvCount = errors.New("nb-env must be at least 1")
	// ErrPeersMismatch is returned when the peer list does not describe the whole group.
	ErrPeersMismatch = errors.New("peers list does not match group size")
	// ErrInvalidTraining is returned for unusable training parameters.
	ErrInvalidTraining = errors.New("invalid training parameters")
)

// Config defines the top level configuration for a replicasync peer.
type Config struct {
	BaseConfig `mapstructure:"main"`
	Preset     string             `mapstructure:"preset"`
	Group      GroupConfig        `mapstructure:"group"`
	P2P        p2p.Config         `mapstructure:"p2p"`
	Run        runid.Config       `mapstructure:"run"`
	Train      TrainConfig        `mapstructure:"train"`
	Env        sim.EnvConfig      `mapstructure:"env"`
	Push       metrics.PushConfig `mapstructure:"push"`
	LOGGING    LoggerConfig       `mapstructure:"logging"`
}

// BaseConfig defines the process wide options.
type BaseConfig struct {
	DataDir    string `mapstructure:"data-dir"`
	ConfigFile string `mapstructure:"config"`

	CollectMetrics bool `mapstructure:"metrics"`
	MetricsPort    int  `mapstructure:"metrics-port"`

	ProfilerName string `mapstructure:"profiler-name"`
	ProfilerURL  string `mapstructure:"profiler-url"`
}

// GroupConfig describes the process group this peer joins.
type GroupConfig struct {
	// Name isolates groups sharing a network: it is the stream protocol
	// suffix and the handshake prologue.
	Name string `mapstructure:"name"`
	// Size is the number of peers. With size 1 the group is formed in
	// process and the p2p section is ignored.
	Size int `mapstructure:"size"`
}

// TrainConfig holds the options of the training loop on every peer.
type TrainConfig struct {
	// Seed is the base seed shared by the group.
	Seed int64 `mapstructure:"seed"`
	// SyncInterval is the number of local steps between periodic
	// synchronizations. Zero disables periodic synchronization.
	SyncInterval uint64 `mapstructure:"synchronize-step-interval"`
	// MaxSteps bounds the number of local steps. Zero runs until interrupted.
	MaxSteps     uint64  `mapstructure:"max-steps"`
	LearningRate float64 `mapstructure:"learning-rate"`
	// Rollout is the number of environment steps per optimizer update.
	Rollout int `mapstructure:"rollout"`

	trainer.Config `mapstructure:",squash"`
}

// DefaultConfig returns the default configuration for a replicasync peer.
func DefaultConfig() Config {
	return Config{
		BaseConfig: defaultBaseConfig(),
		Group: GroupConfig{
			Name: "replicasync",
			Size: 1,
		},
		P2P:     p2p.DefaultConfig(),
		Run:     runid.DefaultConfig(),
		Train:   defaultTrainConfig(),
		Env:     sim.DefaultEnvConfig(),
		Push:    metrics.PushConfig{Period: defaultPushPeriod},
		LOGGING: defaultLoggingConfig(),
	}
}

func defaultBaseConfig() BaseConfig {
	return BaseConfig{
		DataDir:      defaultDataDirName,
		MetricsPort:  1010,
		ProfilerName: "replicasync",
	}
}

func defaultTrainConfig() TrainConfig {
	return TrainConfig{
		Seed:         1,
		LearningRate: 7e-4,
		Rollout:      5,
		Config:       trainer.DefaultConfig(),
	}
}

// P2PDataDir is the directory holding the libp2p identity.
func (cfg *Config) P2PDataDir() string {
	return filepath.Join(cfg.DataDir, "p2p")
}

// Validate rejects configurations no group can run with.
func (cfg *Config) Validate() error {
	if cfg.Group.Size < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidSize, cfg.Group.Size)
	}
	if cfg.Env.NumEnvs < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidEnvCount, cfg.Env.NumEnvs)
	}
	if cfg.Train.Rollout < 1 {
		return fmt.Errorf("%w: rollout %d", ErrInvalidTraining, cfg.Train.Rollout)
	}
	if cfg.Train.LearningRate <= 0 {
		return fmt.Errorf("%w: learning rate %v", ErrInvalidTraining, cfg.Train.LearningRate)
	}
	if cfg.Group.Size == 1 {
		return nil
	}
	if len(cfg.P2P.Peers) != cfg.Group.Size {
		return fmt.Errorf("%w: %d peers for size %d", ErrPeersMismatch, len(cfg.P2P.Peers), cfg.Group.Size)
	}
	if err := cfg.P2P.Validate(); err != nil {
		return fmt.Errorf("p2p: %w", err)
	}
	return nil
}

// LoadConfig reads the config file into vip. An empty location loads nothing.
func LoadConfig(fileLocation string, vip *viper.Viper) error {
	if fileLocation == "" {
		return nil
	}
	vip.SetConfigFile(fileLocation)
	if err := vip.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file %s: %w", fileLocation, err)
	}
	return nil
}
