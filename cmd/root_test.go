package cmd

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/replicasync/replicasync/config"
)

func TestOverridesSurviveReload(t *testing.T) {
	cfg := config.DefaultConfig()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	path := AddFlags(fs, &cfg)

	require.NoError(t, fs.Parse([]string{
		"--config", "peer.toml",
		"--seed", "42",
		"--synchronize-step-interval=100",
		"--peers", "/ip4/127.0.0.1/tcp/1,/ip4/127.0.0.1/tcp/2",
		"-n", "3",
	}))
	require.Equal(t, "peer.toml", *path)
	overrides := ChangedFlags(fs)
	require.Len(t, overrides, 5)

	// a config file replaces everything
	cfg = config.DefaultConfig()
	cfg.Train.Seed = 7
	cfg.Train.Rollout = 9
	require.NoError(t, overrides.Apply(fs))

	require.EqualValues(t, 42, cfg.Train.Seed)
	require.EqualValues(t, 100, cfg.Train.SyncInterval)
	require.Equal(t, 3, cfg.Env.NumEnvs)
	require.Equal(t, []string{"/ip4/127.0.0.1/tcp/1", "/ip4/127.0.0.1/tcp/2"}, cfg.P2P.Peers)
	require.Equal(t, 9, cfg.Train.Rollout)
}

func TestOverridesUnknownFlag(t *testing.T) {
	cfg := config.DefaultConfig()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	AddFlags(fs, &cfg)
	require.ErrorContains(t, Overrides{"hare-committee-size": {"800"}}.Apply(fs), "unknown flag")
}
