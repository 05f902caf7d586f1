package policy

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/replicasync/replicasync/common/types"
)

func TestDue(t *testing.T) {
	for _, tc := range []struct {
		interval, steps uint64
		due             bool
	}{
		{interval: 0, steps: 0},
		{interval: 0, steps: 100},
		{interval: 100, steps: 0, due: true},
		{interval: 100, steps: 99},
		{interval: 100, steps: 100, due: true},
		{interval: 100, steps: 101},
		{interval: 100, steps: 200, due: true},
		{interval: 1, steps: 7, due: true},
	} {
		require.Equal(t, tc.due, Due(tc.interval, tc.steps), "interval %d steps %d", tc.interval, tc.steps)
	}
}

// run drives a policy through steps local steps and returns the steps at
// which it synchronized.
func run(t *testing.T, p *Policy, steps uint64) []uint64 {
	t.Helper()
	peer := &types.PeerContext{Rank: 1, Size: 2}
	ev, err := p.Initial(peer)
	require.NoError(t, err)
	require.Equal(t, types.SyncEvent{Source: 0, Step: 0, Kind: types.SyncInitial}, ev)
	require.Equal(t, Synced, p.State())

	synced := []uint64{ev.Step}
	for peer.Steps < steps {
		require.NoError(t, p.Trained(peer))
		peer.Steps++
		ev, ok, err := p.Check(peer)
		require.NoError(t, err)
		if ok {
			require.Equal(t, types.SyncPeriodic, ev.Kind)
			require.Equal(t, peer.Steps, ev.Step)
			require.Equal(t, PeriodicSync, p.State())
			synced = append(synced, ev.Step)
			require.NoError(t, p.Done())
		}
		require.Equal(t, Training, p.State())
	}
	return synced
}

func TestPeriodic(t *testing.T) {
	p := New(100)
	require.Equal(t, []uint64{0, 100, 200, 300}, run(t, p, 350))
	require.Equal(t, 1, p.Syncs(types.SyncInitial))
	require.Equal(t, 3, p.Syncs(types.SyncPeriodic))
}

func TestNoPeriodicByDefault(t *testing.T) {
	p := New(0)
	require.Equal(t, []uint64{0}, run(t, p, 1000))
	require.Equal(t, 1, p.Syncs(types.SyncInitial))
	require.Zero(t, p.Syncs(types.SyncPeriodic))
}

func TestIllegalTransitions(t *testing.T) {
	p := New(2)
	peer := &types.PeerContext{}
	require.Equal(t, AwaitingInitialSync, p.State())
	require.ErrorIs(t, p.Trained(peer), ErrIllegalTransition)
	_, _, err := p.Check(peer)
	require.ErrorIs(t, err, ErrIllegalTransition)
	require.ErrorIs(t, p.Done(), ErrIllegalTransition)

	_, err = p.Initial(peer)
	require.NoError(t, err)
	_, err = p.Initial(peer)
	require.ErrorIs(t, err, ErrIllegalTransition)
	_, _, err = p.Check(peer)
	require.ErrorIs(t, err, ErrIllegalTransition, "check before any step")

	require.NoError(t, p.Trained(peer))
	peer.Steps = 2
	_, ok, err := p.Check(peer)
	require.NoError(t, err)
	require.True(t, ok)
	require.ErrorIs(t, p.Trained(peer), ErrIllegalTransition, "step during periodic sync")
	require.NoError(t, p.Done())
	require.ErrorIs(t, p.Done(), ErrIllegalTransition)
}

func TestInitialAfterSteps(t *testing.T) {
	p := New(0)
	_, err := p.Initial(&types.PeerContext{Steps: 3})
	require.ErrorIs(t, err, ErrIllegalTransition)
	require.Equal(t, AwaitingInitialSync, p.State())
}
