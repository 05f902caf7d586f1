package trainer_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/replicasync/replicasync/common/types"
	"github.com/replicasync/replicasync/group"
	"github.com/replicasync/replicasync/group/local"
	"github.com/replicasync/replicasync/log/logtest"
	"github.com/replicasync/replicasync/paramsync"
	"github.com/replicasync/replicasync/policy"
	"github.com/replicasync/replicasync/seed"
	"github.com/replicasync/replicasync/sim"
	"github.com/replicasync/replicasync/tensor"
	"github.com/replicasync/replicasync/trainer"
)

type peer struct {
	network   *sim.Network
	optimizer *sim.RMSprop
	events    []types.SyncEvent
	// parameters right after the initial sync
	initial tensor.ParameterSet
}

func runGroup(t *testing.T, size int, interval, steps uint64, cfg trainer.Config) []*peer {
	t.Helper()
	members, err := local.New(t.Name(), size)
	require.NoError(t, err)
	t.Cleanup(func() { local.Close(members) })
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	envCfg := sim.DefaultEnvConfig()
	envCfg.NumEnvs = 2
	peers := make([]*peer, size)
	err = local.Spawn(ctx, members, func(ctx context.Context, g group.Group) error {
		rank := types.Rank(g.Rank())
		seeds, err := seed.ForRank(42, envCfg.NumEnvs, rank, g.Size())
		if err != nil {
			return err
		}
		env, err := sim.NewEnv(envCfg, seeds.PerRank)
		if err != nil {
			return err
		}
		// rank specific initialization, so that only the sync makes replicas agree
		network := sim.NewNetwork(env.Spaces(), seeds.PerRank)
		optimizer, err := sim.NewRMSprop(network.Parameters(), 0.01)
		if err != nil {
			return err
		}
		p := &peer{network: network, optimizer: optimizer}
		peers[rank] = p
		c := trainer.New(
			types.PeerContext{Rank: rank, Size: g.Size()},
			paramsync.New(g),
			policy.New(interval),
			env,
			network,
			sim.NewAgent(network, 4, seeds.PerRank),
			optimizer,
			trainer.WithLogger(logtest.New(t)),
			trainer.WithConfig(cfg),
			trainer.WithSyncHook(func(ev types.SyncEvent) {
				if ev.Kind == types.SyncInitial {
					p.initial = network.Parameters().Clone()
				}
				p.events = append(p.events, ev)
			}),
		)
		return c.Run(ctx, steps)
	})
	require.NoError(t, err)
	return peers
}

func TestInitialConvergence(t *testing.T) {
	peers := runGroup(t, 3, 0, 20, trainer.DefaultConfig())
	for _, p := range peers {
		require.Equal(t, peers[0].initial.Fingerprint(), p.initial.Fingerprint())
		require.Len(t, p.events, 1)
	}
	// replicas train independently after the initial sync
	require.NotEqual(t, peers[0].network.Parameters().Fingerprint(), peers[1].network.Parameters().Fingerprint())
}

func TestPeriodicConvergence(t *testing.T) {
	cfg := trainer.DefaultConfig()
	cfg.ShareOptimizer = true
	cfg.Verify = true
	peers := runGroup(t, 2, 5, 20, cfg)
	for _, p := range peers {
		// the last step is a multiple of the interval, so replicas end synced
		require.Equal(t, peers[0].network.Parameters().Fingerprint(), p.network.Parameters().Fingerprint())
		require.Equal(t, peers[0].optimizer.State().Fingerprint(), p.optimizer.State().Fingerprint())
		steps := make([]uint64, 0, len(p.events))
		for _, ev := range p.events {
			steps = append(steps, ev.Step)
		}
		require.Equal(t, []uint64{0, 5, 10, 15, 20}, steps)
	}
}
