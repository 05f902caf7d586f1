// Package node wires the replicasync components into a runnable peer.
package node

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	pyroscope "github.com/grafana/pyroscope-go"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/replicasync/replicasync/cmd"
	"github.com/replicasync/replicasync/common/types"
	"github.com/replicasync/replicasync/config"
	"github.com/replicasync/replicasync/config/presets"
	"github.com/replicasync/replicasync/group"
	"github.com/replicasync/replicasync/group/local"
	"github.com/replicasync/replicasync/log"
	"github.com/replicasync/replicasync/metrics"
	"github.com/replicasync/replicasync/p2p"
	"github.com/replicasync/replicasync/paramsync"
	"github.com/replicasync/replicasync/policy"
	"github.com/replicasync/replicasync/runid"
	"github.com/replicasync/replicasync/seed"
	"github.com/replicasync/replicasync/sim"
	"github.com/replicasync/replicasync/trainer"
)

const (
	lockFile = "LOCK"

	cleanupTimeout = 30 * time.Second
)

// Logger names.
const (
	AppLogger       = "app"
	P2PLogger       = "p2p"
	GroupLogger     = "group"
	RunIDLogger     = "runid"
	ParamSyncLogger = "paramsync"
	TrainerLogger   = "trainer"
	MetricsLogger   = "metrics"
)

// GetCommand returns the replicasync root command.
func GetCommand() *cobra.Command {
	conf := config.DefaultConfig()
	var configPath *string
	c := &cobra.Command{
		Use:   "replicasync",
		Short: "train a replica and keep it synchronized with the group",
		RunE: func(c *cobra.Command, args []string) error {
			if err := configure(c, *configPath, &conf); err != nil {
				return err
			}
			app := New(
				WithConfig(&conf),
				// child loggers can only raise the level, the root logs everything
				WithLog(log.NewWithLevel("replicasync", zap.NewAtomicLevelAt(zap.DebugLevel))),
			)

			// os.Interrupt for all systems, especially windows, syscall.SIGTERM is mainly for docker.
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			if err := os.MkdirAll(app.Config.DataDir, 0o700); err != nil {
				return log.ErrEnsureDataDir(err)
			}
			if err := app.Lock(); err != nil {
				return fmt.Errorf("getting exclusive file lock: %w", err)
			}
			defer app.Unlock()

			if err := app.Initialize(); err != nil {
				return fmt.Errorf("initializing app: %w", err)
			}

			// Don't print usage on error from this point forward
			c.SilenceUsage = true

			err := app.Start(ctx)
			cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), cleanupTimeout)
			defer cleanupCancel()
			done := make(chan struct{})
			go func() {
				app.Cleanup(cleanupCtx)
				close(done)
			}()
			select {
			case <-done:
			case <-cleanupCtx.Done():
				app.log.Error("app failed to clean up in time")
			}
			return err
		},
	}

	configPath = cmd.AddFlags(c.PersistentFlags(), &conf)

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version info",
		Run: func(c *cobra.Command, args []string) {
			fmt.Fprintln(c.OutOrStdout(), cmd.Version)
		},
	}
	c.AddCommand(versionCmd)

	identityCmd := &cobra.Command{
		Use:          "identity",
		Short:        "Create the p2p identity and print the address other peers list",
		SilenceUsage: true,
		RunE: func(c *cobra.Command, args []string) error {
			if err := configure(c, *configPath, &conf); err != nil {
				return err
			}
			addr, err := identityAddr(&conf)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.OutOrStdout(), addr)
			return nil
		},
	}
	c.AddCommand(identityCmd)

	return c
}

// configure loads preset and config file, then applies the command line
// flags again so that they win.
func configure(c *cobra.Command, configPath string, conf *config.Config) error {
	flags := c.Flags()
	overrides := cmd.ChangedFlags(flags)
	if err := loadConfig(conf, conf.Preset, configPath); err != nil {
		return log.ErrMalformedConfig(err)
	}
	if err := overrides.Apply(flags); err != nil {
		return log.ErrBadFlags(err)
	}
	if conf.LOGGING.Encoder == config.JSONLogEncoder {
		log.JSONLog(true)
	}
	return nil
}

// loadConfig loads config and preset (if provided) into the provided config.
// It first loads the preset and then overrides it with values from the config file.
func loadConfig(cfg *config.Config, preset, path string) error {
	v := viper.New()
	if err := config.LoadConfig(path, v); err != nil {
		return err
	}

	if len(preset) == 0 && v.IsSet("preset") {
		preset = v.GetString("preset")
	}
	if len(preset) > 0 {
		p, err := presets.Get(preset)
		if err != nil {
			return err
		}
		*cfg = p
	}

	hook := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		mapstructure.TextUnmarshallerHookFunc(),
	)

	opts := []viper.DecoderConfigOption{
		viper.DecodeHook(hook),
		WithIgnoreUntagged(),
		WithErrorUnused(),
	}

	if err := v.Unmarshal(cfg, opts...); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	return nil
}

func WithIgnoreUntagged() viper.DecoderConfigOption {
	return func(cfg *mapstructure.DecoderConfig) {
		cfg.IgnoreUntaggedFields = true
	}
}

func WithErrorUnused() viper.DecoderConfigOption {
	return func(cfg *mapstructure.DecoderConfig) {
		cfg.ErrorUnused = true
	}
}

func identityAddr(conf *config.Config) (string, error) {
	id, err := p2p.IdentityID(conf.P2PDataDir())
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/p2p/%s", conf.P2P.Listen, id), nil
}

// Option to modify an App instance.
type Option func(app *App)

// WithLog enables logger for an App.
func WithLog(logger *zap.Logger) Option {
	return func(app *App) {
		app.log = logger
	}
}

// WithConfig overwrites default App config.
func WithConfig(conf *config.Config) Option {
	return func(app *App) {
		app.Config = conf
	}
}

// WithGroup makes the App train in an already formed group instead of
// forming one from the configuration.
func WithGroup(g group.Group) Option {
	return func(app *App) {
		app.group = g
	}
}

// New creates an instance of the replicasync app.
func New(opts ...Option) *App {
	defaultConfig := config.DefaultConfig()
	app := &App{
		Config:  &defaultConfig,
		log:     log.NewNop(),
		loggers: make(map[string]*zap.AtomicLevel),
		started: make(chan struct{}),
		eg:      &errgroup.Group{},
	}
	for _, opt := range opts {
		opt(app)
	}
	lvl := zap.NewAtomicLevelAt(zap.InfoLevel)
	log.SetupGlobal(app.log.WithOptions(zap.IncreaseLevel(lvl)))
	return app
}

// App is one peer of a training run.
type App struct {
	Config *config.Config

	log     *zap.Logger
	loggers map[string]*zap.AtomicLevel

	fileLock *flock.Flock
	runLock  *flock.Flock

	host      *p2p.Host
	transport *p2p.Transport
	members   []*group.Collective
	group     group.Group

	identity  runid.Identity
	container *trainer.Container
	logFile   io.Closer

	profilerService *pyroscope.Profiler
	stopServices    context.CancelFunc

	started chan struct{} // closed once training started
	eg      *errgroup.Group
}

// Started is closed once the peer joined the group and training started.
func (app *App) Started() <-chan struct{} {
	return app.started
}

// Identity of the run, valid after Started is closed.
func (app *App) Identity() runid.Identity {
	return app.identity
}

// Container trains the local replica, valid after Started is closed.
func (app *App) Container() *trainer.Container {
	return app.container
}

// Lock locks the data directory for exclusive use. It returns an error if
// another peer already uses it.
func (app *App) Lock() error {
	fl, err := lockDir(app.Config.DataDir)
	if err != nil {
		return err
	}
	app.fileLock = fl
	return nil
}

func lockDir(dir string) (*flock.Flock, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating dir %s for lock: %w", dir, err)
	}
	fl := flock.New(filepath.Join(dir, lockFile))
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("flock %s: %w", fl.Path(), err)
	} else if !locked {
		return nil, fmt.Errorf("only one replicasync peer should be running (locking file %s)", fl.Path())
	}
	return fl, nil
}

// Unlock unlocks the app. It is a no-op if the app is not locked.
func (app *App) Unlock() {
	for _, fl := range []*flock.Flock{app.runLock, app.fileLock} {
		if fl == nil {
			continue
		}
		if err := fl.Unlock(); err != nil {
			app.log.Error("failed to unlock file",
				zap.String("path", fl.Path()),
				zap.Error(err),
			)
		}
	}
}

// Initialize validates the configuration and sets up logging.
func (app *App) Initialize() error {
	if err := app.Config.Validate(); err != nil {
		return log.ErrMalformedConfig(err)
	}
	for _, name := range []string{
		AppLogger, P2PLogger, GroupLogger, RunIDLogger,
		ParamSyncLogger, TrainerLogger, MetricsLogger,
	} {
		if _, err := decodeLoggerLevel(app.Config, name); err != nil {
			return log.ErrMalformedConfig(err)
		}
	}
	app.log.Info(app.getAppInfo())
	return nil
}

func (app *App) getAppInfo() string {
	return fmt.Sprintf(
		"App version: %s. Git: %s - %s . Go Version: %s. OS: %s-%s . Group %s of %d",
		cmd.Version,
		cmd.Branch,
		cmd.Commit,
		runtime.Version(),
		runtime.GOOS,
		runtime.GOARCH,
		app.Config.Group.Name,
		app.Config.Group.Size,
	)
}

// Wrap the top-level logger to add context info and set the level for a
// specific module. Calling this method and will create a new logger every time
// and not re-use an existing logger with the same name.
//
// This method is not safe to be called concurrently.
func (app *App) addLogger(name string, logger *zap.Logger) *zap.Logger {
	lvl, err := decodeLoggerLevel(app.Config, name)
	if err != nil {
		app.log.Panic("unable to decode loggers into map[string]string", zap.Error(err))
	}
	if logger.Core().Enabled(lvl.Level()) {
		app.loggers[name] = &lvl
		logger = logger.WithOptions(zap.IncreaseLevel(lvl))
	}
	return logger.Named(name)
}

func (app *App) getLevel(name string) zap.AtomicLevel {
	alvl, exist := app.loggers[name]
	if !exist {
		return zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return *alvl
}

// SetLogLevel updates the log level of an existing logger.
func (app *App) SetLogLevel(name, loglevel string) error {
	lvl, ok := app.loggers[name]
	if !ok {
		return fmt.Errorf("cannot find logger %v", name)
	}
	if err := lvl.UnmarshalText([]byte(loglevel)); err != nil {
		return fmt.Errorf("unmarshal text: %w", err)
	}
	return nil
}

// Start joins the group, establishes the run identity and trains until the
// configured number of steps was reached or ctx is done.
func (app *App) Start(ctx context.Context) error {
	if err := app.startSynchronous(ctx); err != nil {
		app.log.Error("failed to start App", zap.Error(err))
		return err
	}
	maxSteps := app.Config.Train.MaxSteps
	if maxSteps == 0 {
		maxSteps = math.MaxUint64
	}
	err := app.container.Run(ctx, maxSteps)
	switch {
	case err == nil:
		app.log.Info("training completed", zap.Uint64("steps", app.container.Peer().Steps))
		return nil
	case ctx.Err() != nil && errors.Is(err, ctx.Err()):
		app.log.Info("training interrupted", zap.Uint64("steps", app.container.Peer().Steps))
		return nil
	default:
		return fmt.Errorf("training: %w", err)
	}
}

func (app *App) startSynchronous(ctx context.Context) error {
	ctx = log.WithNewSessionID(ctx, zap.String("stage", "startup"))
	logger := app.addLogger(AppLogger, app.log)
	hostname, err := os.Hostname()
	if err != nil {
		return fmt.Errorf("error reading hostname: %w", err)
	}
	logger.Info("starting replicasync", append(log.Context(ctx),
		zap.String("data-dir", app.Config.DataDir),
		zap.String("hostname", hostname),
	)...)

	svcCtx, cancel := context.WithCancel(context.Background())
	app.stopServices = cancel

	if app.Config.ProfilerURL != "" {
		app.profilerService, err = pyroscope.Start(pyroscope.Config{
			ApplicationName: app.Config.ProfilerName,
			// app.Config.ProfilerURL should be the pyroscope server address
			ServerAddress: app.Config.ProfilerURL,
		})
		if err != nil {
			return log.ErrStartProfiling(err)
		}
	}
	if app.Config.CollectMetrics {
		srv := metrics.NewServer(app.addLogger(MetricsLogger, app.log), app.Config.MetricsPort)
		app.eg.Go(func() error {
			return srv.Run(svcCtx)
		})
	}

	g, err := app.joinGroup(ctx)
	if err != nil {
		return log.ErrJoinGroup(err)
	}
	rank := types.Rank(g.Rank())
	app.log = app.log.With(zap.Int("rank", int(rank)))

	bootstrapper := runid.New(g, app.Config.Run,
		runid.WithLogger(app.addLogger(RunIDLogger, app.log)),
		runid.WithArgs(app.Config),
	)
	app.identity, err = bootstrapper.Bootstrap(ctx)
	if err != nil {
		return log.ErrBootstrap(err)
	}
	app.runLock, err = lockDir(app.identity.RankDir)
	if err != nil {
		return err
	}
	tee, closer, err := log.TeeToFile(app.log, filepath.Join(app.identity.RootDir, log.RankFileName(int(rank))), zap.DebugLevel)
	if err != nil {
		return err
	}
	app.log, app.logFile = tee, closer
	logger = app.addLogger(AppLogger, app.log)

	if app.Config.Push.URL != "" {
		pusher := metrics.NewPusher(app.addLogger(MetricsLogger, app.log), app.Config.Push, app.identity.LogID, int(rank))
		app.eg.Go(func() error {
			return pusher.Run(svcCtx)
		})
	}

	app.container, err = app.buildContainer(g)
	if err != nil {
		return err
	}
	logger.Info("app started", append(log.Context(ctx), zap.Inline(app.identity))...)
	close(app.started)
	return nil
}

// joinGroup forms the process group: in process for a single peer,
// otherwise over libp2p with the configured members.
func (app *App) joinGroup(ctx context.Context) (group.Group, error) {
	if app.group != nil {
		return app.group, nil
	}
	glog := app.addLogger(GroupLogger, app.log)
	if app.Config.Group.Size == 1 {
		members, err := local.New(app.Config.Group.Name, 1, local.WithLogger(glog))
		if err != nil {
			return nil, err
		}
		app.members = members
		app.group = members[0]
		return app.group, nil
	}

	cfg := app.Config.P2P
	cfg.DataDir = app.Config.P2PDataDir()
	p2plog := app.addLogger(P2PLogger, app.log)
	cfg.LogLevel = app.getLevel(P2PLogger).Level()
	peers, err := p2p.ParsePeers(cfg.Peers)
	if err != nil {
		return nil, err
	}
	app.host, err = p2p.New(ctx, p2plog, cfg, []byte(app.Config.Group.Name))
	if err != nil {
		return nil, fmt.Errorf("initialize p2p host: %w", err)
	}
	app.transport, err = p2p.NewTransport(app.host, app.Config.Group.Name, peers,
		p2p.WithLogger(glog),
		p2p.WithMaxMessageSize(cfg.MaxMessageSize),
		p2p.WithDial(cfg.DialTimeout, cfg.DialInterval),
	)
	if err != nil {
		return nil, err
	}
	c, err := app.transport.Join(ctx)
	if err != nil {
		return nil, err
	}
	app.group = c
	return c, nil
}

// buildContainer creates the collaborators of the local replica. The model
// is initialized from the shared seed, the environments from the seed of
// the rank.
func (app *App) buildContainer(g group.Group) (*trainer.Container, error) {
	rank := types.Rank(g.Rank())
	seeds, err := seed.ForRank(app.Config.Train.Seed, app.Config.Env.NumEnvs, rank, g.Size())
	if err != nil {
		return nil, err
	}
	app.log.Info("seeds assigned", zap.Inline(seeds))
	env, err := sim.NewEnv(app.Config.Env, seeds.PerRank)
	if err != nil {
		return nil, err
	}
	network := sim.NewNetwork(env.Spaces(), seed.Shared(app.Config.Train.Seed))
	if rank == types.SourceRank {
		app.log.Info("network parameter count", zap.Int("parameters", network.Parameters().NumElements()))
	}
	optimizer, err := sim.NewRMSprop(network.Parameters(), app.Config.Train.LearningRate)
	if err != nil {
		return nil, err
	}
	syncer := paramsync.New(g, paramsync.WithLogger(app.addLogger(ParamSyncLogger, app.log)))
	return trainer.New(
		types.PeerContext{Rank: rank, Size: g.Size()},
		syncer,
		policy.New(app.Config.Train.SyncInterval),
		env,
		network,
		sim.NewAgent(network, app.Config.Train.Rollout, seeds.PerRank),
		optimizer,
		trainer.WithLogger(app.addLogger(TrainerLogger, app.log)),
		trainer.WithConfig(app.Config.Train.Config),
	), nil
}

// Cleanup stops all app services.
func (app *App) Cleanup(ctx context.Context) {
	app.log.Info("app cleanup starting...")
	if app.stopServices != nil {
		app.stopServices()
	}
	if err := app.eg.Wait(); err != nil {
		app.log.Warn("service failed", zap.Error(err))
	}
	if app.transport != nil {
		app.transport.Close()
	}
	local.Close(app.members)
	if app.host != nil {
		traffic := app.host.Bandwidth()
		app.log.Info("p2p traffic",
			zap.Int64("bytes_in", traffic.TotalIn),
			zap.Int64("bytes_out", traffic.TotalOut),
		)
		if err := app.host.Stop(); err != nil {
			app.log.Warn("failed to stop p2p host", zap.Error(err))
		}
	}
	if app.profilerService != nil {
		if err := app.profilerService.Stop(); err != nil {
			app.log.Warn("failed to stop profiler", zap.Error(err))
		}
	}
	app.log.Info("app cleanup completed")
	if app.logFile != nil {
		app.log.Sync()
		app.logFile.Close()
	}
}

func decodeLoggerLevel(cfg *config.Config, name string) (zap.AtomicLevel, error) {
	loggers := map[string]string{}
	if err := mapstructure.Decode(cfg.LOGGING, &loggers); err != nil {
		return zap.AtomicLevel{}, fmt.Errorf("error decoding mapstructure: %w", err)
	}
	lvl, err := log.ParseLevel(loggers[name], zap.InfoLevel)
	if err != nil {
		return zap.AtomicLevel{}, fmt.Errorf("cannot parse logging for %v: %w", name, err)
	}
	return lvl, nil
}
