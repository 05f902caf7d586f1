package node

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/sync/errgroup"

	"github.com/replicasync/replicasync/cmd"
	"github.com/replicasync/replicasync/config"
	"github.com/replicasync/replicasync/group/local"
	"github.com/replicasync/replicasync/log"
	"github.com/replicasync/replicasync/log/logtest"
	"github.com/replicasync/replicasync/runid"
)

func testConfig(tb testing.TB, logDir string) *config.Config {
	tb.Helper()
	cfg := config.DefaultConfig()
	cfg.DataDir = tb.TempDir()
	cfg.Run.LogDir = logDir
	cfg.Env.NumEnvs = 2
	cfg.Train.MaxSteps = 20
	cfg.Train.SyncInterval = 5
	cfg.Train.Rollout = 2
	return &cfg
}

func TestLoadConfig(t *testing.T) {
	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		require.NoError(t, os.WriteFile(path, []byte(`
[main]
data-dir = "/var/lib/replicasync"

[group]
size = 2

[p2p]
peers = "/ip4/10.0.0.1/tcp/7600,/ip4/10.0.0.2/tcp/7600"
dial-timeout = "10s"
p2p-log-level = "debug"

[train]
seed = 3
synchronize-step-interval = 50
share-optimizer-params = true
summary-rate = "2s"
`), 0o600))
		cfg := config.DefaultConfig()
		require.NoError(t, loadConfig(&cfg, "", path))
		require.Equal(t, "/var/lib/replicasync", cfg.DataDir)
		require.Equal(t, 2, cfg.Group.Size)
		require.Equal(t, []string{"/ip4/10.0.0.1/tcp/7600", "/ip4/10.0.0.2/tcp/7600"}, cfg.P2P.Peers)
		require.Equal(t, 10*time.Second, cfg.P2P.DialTimeout)
		require.Equal(t, "debug", cfg.P2P.LogLevel.String())
		require.EqualValues(t, 3, cfg.Train.Seed)
		require.EqualValues(t, 50, cfg.Train.SyncInterval)
		require.True(t, cfg.Train.ShareOptimizer)
		require.Equal(t, 2*time.Second, cfg.Train.SummaryRate)
		// untouched sections keep defaults
		require.Equal(t, config.DefaultConfig().Env, cfg.Env)
	})
	t.Run("preset from file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		require.NoError(t, os.WriteFile(path, []byte(`
preset = "debug"

[train]
seed = 9
`), 0o600))
		cfg := config.DefaultConfig()
		require.NoError(t, loadConfig(&cfg, "", path))
		require.Equal(t, "debug", cfg.Preset)
		require.Equal(t, 3, cfg.Env.NumEnvs)
		require.EqualValues(t, 9, cfg.Train.Seed)
	})
	t.Run("unknown key", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		require.NoError(t, os.WriteFile(path, []byte(`
[hare]
committee-size = 800
`), 0o600))
		cfg := config.DefaultConfig()
		require.ErrorContains(t, loadConfig(&cfg, "", path), "unmarshal config")
	})
	t.Run("unknown preset", func(t *testing.T) {
		cfg := config.DefaultConfig()
		require.ErrorContains(t, loadConfig(&cfg, "mainnet", ""), "not registered")
	})
}

func TestAppSinglePeer(t *testing.T) {
	cfg := testConfig(t, t.TempDir())
	app := New(WithConfig(cfg), WithLog(logtest.New(t)))
	require.NoError(t, app.Lock())
	t.Cleanup(app.Unlock)
	require.NoError(t, app.Initialize())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	require.NoError(t, app.Start(ctx))
	app.Cleanup(ctx)

	require.EqualValues(t, 20, app.Container().Peer().Steps)
	id := app.Identity()
	require.DirExists(t, id.RankDir)
	require.FileExists(t, filepath.Join(id.RootDir, runid.ArgsFile))
	require.FileExists(t, filepath.Join(id.RootDir, log.RankFileName(0)))
}

func TestAppLogsParameterCount(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	app := New(WithConfig(testConfig(t, t.TempDir())), WithLog(zap.New(core)))
	require.NoError(t, app.Initialize())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	require.NoError(t, app.Start(ctx))
	app.Cleanup(ctx)

	entries := logs.FilterMessage("network parameter count").All()
	require.Len(t, entries, 1)
	count, ok := entries[0].ContextMap()["parameters"].(int64)
	require.True(t, ok)
	require.Positive(t, count)
}

func TestAppGroup(t *testing.T) {
	const size = 3
	members, err := local.New(t.Name(), size)
	require.NoError(t, err)
	t.Cleanup(func() { local.Close(members) })

	logDir := t.TempDir()
	apps := make([]*App, size)
	for i := range apps {
		cfg := testConfig(t, logDir)
		apps[i] = New(WithConfig(cfg), WithLog(logtest.New(t)), WithGroup(members[i]))
		require.NoError(t, apps[i].Initialize())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	var eg errgroup.Group
	for _, app := range apps {
		eg.Go(func() error {
			defer app.Cleanup(ctx)
			defer app.Unlock()
			return app.Start(ctx)
		})
	}
	require.NoError(t, eg.Wait())

	root := apps[0].Identity().RootDir
	for i, app := range apps {
		id := app.Identity()
		require.EqualValues(t, i, id.Rank)
		require.Equal(t, root, id.RootDir)
		require.DirExists(t, id.RankDir)
		require.FileExists(t, filepath.Join(root, log.RankFileName(i)))
		require.EqualValues(t, 20, app.Container().Peer().Steps)
	}
}

func TestAppBootstrapFailure(t *testing.T) {
	logDir := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(logDir, nil, 0o600))
	app := New(WithConfig(testConfig(t, logDir)), WithLog(logtest.New(t)))
	require.NoError(t, app.Initialize())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := app.Start(ctx)
	require.ErrorIs(t, err, runid.ErrBootstrapFailed)
	var fatal *log.FatalError
	require.ErrorAs(t, err, &fatal)
	require.Equal(t, "ERR_BOOTSTRAP", fatal.Code)
	app.Cleanup(ctx)
}

func TestAppInterrupted(t *testing.T) {
	cfg := testConfig(t, t.TempDir())
	cfg.Train.MaxSteps = 0
	app := New(WithConfig(cfg), WithLog(logtest.New(t)))
	require.NoError(t, app.Initialize())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- app.Start(ctx) }()
	select {
	case <-app.Started():
	case <-time.After(10 * time.Second):
		require.FailNow(t, "app did not start")
	}
	cancel()
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		require.FailNow(t, "app did not stop")
	}
	app.Cleanup(context.Background())
}

func TestLock(t *testing.T) {
	cfg := testConfig(t, t.TempDir())
	first := New(WithConfig(cfg))
	require.NoError(t, first.Lock())
	second := New(WithConfig(cfg))
	require.ErrorContains(t, second.Lock(), "only one replicasync peer")
	first.Unlock()
	require.NoError(t, second.Lock())
	second.Unlock()
}

func TestInitializeRejectsConfig(t *testing.T) {
	cfg := testConfig(t, t.TempDir())
	cfg.Group.Size = 2
	app := New(WithConfig(cfg))
	err := app.Initialize()
	require.ErrorIs(t, err, config.ErrPeersMismatch)

	cfg = testConfig(t, t.TempDir())
	cfg.LOGGING.TrainerLoggerLevel = "chatty"
	require.ErrorContains(t, New(WithConfig(cfg)).Initialize(), "trainer")
}

func TestSetLogLevel(t *testing.T) {
	cfg := testConfig(t, t.TempDir())
	app := New(WithConfig(cfg), WithLog(logtest.New(t, zapcore.DebugLevel)))
	logger := app.addLogger(TrainerLogger, app.log)
	require.NotNil(t, logger)
	require.NoError(t, app.SetLogLevel(TrainerLogger, "warn"))
	require.Equal(t, "warn", app.getLevel(TrainerLogger).String())
	require.Error(t, app.SetLogLevel("hare", "warn"))
}

func TestCommands(t *testing.T) {
	t.Run("version", func(t *testing.T) {
		cmd.Version = "v0.1.0"
		c := GetCommand()
		var out bytes.Buffer
		c.SetOut(&out)
		c.SetArgs([]string{"version"})
		require.NoError(t, c.Execute())
		require.Equal(t, "v0.1.0\n", out.String())
	})
	t.Run("identity", func(t *testing.T) {
		dir := t.TempDir()
		c := GetCommand()
		var out bytes.Buffer
		c.SetOut(&out)
		c.SetArgs([]string{"identity", "-d", dir, "--listen", "/ip4/127.0.0.1/tcp/7700"})
		require.NoError(t, c.Execute())
		require.Contains(t, out.String(), "/ip4/127.0.0.1/tcp/7700/p2p/12D3Koo")
		require.FileExists(t, filepath.Join(dir, "p2p", "p2p.key"))

		// the identity is stable
		first := out.String()
		out.Reset()
		c = GetCommand()
		c.SetOut(&out)
		c.SetArgs([]string{"identity", "-d", dir, "--listen", "/ip4/127.0.0.1/tcp/7700"})
		require.NoError(t, c.Execute())
		require.Equal(t, first, out.String())
	})
}
