package runid

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/replicasync/replicasync/common/types"
	"github.com/replicasync/replicasync/group"
	"github.com/replicasync/replicasync/group/local"
	"github.com/replicasync/replicasync/log/logtest"
)

var start = time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.LogDir = "/logs"
	return cfg
}

// bootstrapAll runs the bootstrap on every peer and returns per-rank results.
func bootstrapAll(t *testing.T, size int, fs afero.Fs, out io.Writer) ([]Identity, []error) {
	t.Helper()
	return bootstrapEach(t, size, func(int) afero.Fs { return fs }, out)
}

// bootstrapEach is bootstrapAll with a filesystem per rank.
func bootstrapEach(t *testing.T, size int, fsFor func(rank int) afero.Fs, out io.Writer) ([]Identity, []error) {
	t.Helper()
	members, err := local.New(t.Name(), size)
	require.NoError(t, err)
	t.Cleanup(func() { local.Close(members) })

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	ids := make([]Identity, size)
	errs := make([]error, size)
	var wg sync.WaitGroup
	for _, g := range members {
		wg.Add(1)
		go func(g group.Group) {
			defer wg.Done()
			b := New(g, testConfig(),
				WithLogger(logtest.New(t)),
				WithFs(fsFor(g.Rank())),
				WithClock(clockwork.NewFakeClockAt(start.Add(time.Duration(g.Rank())*time.Hour))),
				WithBanner(out),
				WithArgs(map[string]any{"seed": 42}),
			)
			ids[g.Rank()], errs[g.Rank()] = b.Bootstrap(ctx)
		}(g)
	}
	wg.Wait()
	return ids, errs
}

func TestBootstrap(t *testing.T) {
	fs := afero.NewMemMapFs()
	var out bytes.Buffer
	ids, errs := bootstrapAll(t, 3, fs, &out)
	for _, err := range errs {
		require.NoError(t, err)
	}
	for r, id := range ids {
		require.Equal(t, "2024-03-09_14-05-07", id.Timestamp)
		require.Equal(t, "P2P_Reinforce_Linear_2024-03-09_14-05-07", id.LogID)
		require.Equal(t, ids[0].RootDir, id.RootDir)
		require.Equal(t, filepath.Join(id.RootDir, types.Rank(r).String()), id.RankDir)
		exists, err := afero.DirExists(fs, id.RankDir)
		require.NoError(t, err)
		require.True(t, exists)
	}
	require.Equal(t, 1, strings.Count(out.String(), banner))

	data, err := afero.ReadFile(fs, filepath.Join(ids[0].RootDir, ArgsFile))
	require.NoError(t, err)
	require.JSONEq(t, `{"seed": 42}`, string(data))
}

func TestBootstrapSinglePeer(t *testing.T) {
	fs := afero.NewMemMapFs()
	ids, errs := bootstrapAll(t, 1, fs, nil)
	require.NoError(t, errs[0])
	require.Equal(t, "/logs/bandit/P2P_Reinforce_Linear_2024-03-09_14-05-07/rank0", ids[0].RankDir)
}

func TestBootstrapRootFailure(t *testing.T) {
	t.Run("exists", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		id := Derive(testConfig(), start.Format(TimestampFormat), 0)
		require.NoError(t, fs.MkdirAll(id.RootDir, 0o755))

		_, errs := bootstrapAll(t, 3, fs, nil)
		require.ErrorIs(t, errs[0], ErrRunExists)
		for _, err := range errs {
			require.ErrorIs(t, err, ErrBootstrapFailed)
		}
	})
	t.Run("read only", func(t *testing.T) {
		fs := afero.NewReadOnlyFs(afero.NewMemMapFs())
		_, errs := bootstrapAll(t, 3, fs, nil)
		for r, err := range errs {
			require.ErrorIs(t, err, ErrBootstrapFailed, "rank %d", r)
		}
		exists, err := afero.DirExists(fs, "/logs")
		require.NoError(t, err)
		require.False(t, exists)
	})
}

func TestBootstrapRankDirFailure(t *testing.T) {
	base := afero.NewMemMapFs()
	readOnly := afero.NewReadOnlyFs(base)
	ids, errs := bootstrapEach(t, 3, func(rank int) afero.Fs {
		if rank == 2 {
			return readOnly
		}
		return base
	}, nil)
	for r, err := range errs {
		require.ErrorIs(t, err, ErrBootstrapFailed, "rank %d", r)
		require.Equal(t, Identity{}, ids[r])
	}
	require.ErrorContains(t, errs[0], "missing at ranks [2]")
	require.ErrorContains(t, errs[1], "missing at ranks [2]")
	require.ErrorContains(t, errs[2], "create rank directory")
}

func TestTruncate(t *testing.T) {
	require.Equal(t, "short", truncate("short", 10))
	require.Equal(t, "abc", truncate("abcdef", 3))
	// "é" is two bytes, cutting inside it drops the rune
	require.Equal(t, "ab", truncate("abé", 3))
	require.Equal(t, "abé", truncate("abé", 4))
	require.Equal(t, "", truncate("é", 1))
}

func TestLogID(t *testing.T) {
	cfg := testConfig()
	require.Equal(t, "P2P_Reinforce_Linear_ts", LogID(cfg, "ts"))
	cfg.Tag = "exp1"
	require.Equal(t, "exp1_P2P_Reinforce_Linear_ts", LogID(cfg, "ts"))

	id := Derive(cfg, "ts", 2)
	require.Equal(t, "/logs/bandit/exp1_P2P_Reinforce_Linear_ts", id.RootDir)
	require.Equal(t, "/logs/bandit/exp1_P2P_Reinforce_Linear_ts/rank2", id.RankDir)
}
