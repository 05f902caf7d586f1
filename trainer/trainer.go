// Package trainer drives the local training loop of a peer and synchronizes
// its replica with the group when the policy asks for it.
package trainer

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/replicasync/replicasync/common/types"
	"github.com/replicasync/replicasync/log"
	"github.com/replicasync/replicasync/policy"
)

// Config of the training loop.
type Config struct {
	// SummaryFrequency is the number of local steps between summaries.
	SummaryFrequency uint64 `mapstructure:"summary-frequency"`
	// SummaryRate bounds how often summaries are logged.
	SummaryRate time.Duration `mapstructure:"summary-rate"`
	// ShareOptimizer includes the optimizer state in periodic syncs.
	ShareOptimizer bool `mapstructure:"share-optimizer-params"`
	// Verify compares fingerprints with the source after every sync.
	Verify bool `mapstructure:"verify-sync"`
}

// DefaultConfig for the training loop.
func DefaultConfig() Config {
	return Config{
		SummaryFrequency: 100,
		SummaryRate:      time.Second,
	}
}

// Opt for configuring Container.
type Opt func(*Container)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Opt {
	return func(c *Container) {
		c.logger = logger
	}
}

// WithConfig sets the config.
func WithConfig(cfg Config) Opt {
	return func(c *Container) {
		c.cfg = cfg
	}
}

// WithClock sets the clock used to measure throughput.
func WithClock(clock clockwork.Clock) Opt {
	return func(c *Container) {
		c.clock = clock
	}
}

// WithSyncHook registers a function called after every completed sync.
func WithSyncHook(hook func(types.SyncEvent)) Opt {
	return func(c *Container) {
		c.hook = hook
	}
}

// Container plugs the collaborators of a peer together.
type Container struct {
	logger *zap.Logger
	cfg    Config
	clock  clockwork.Clock
	hook   func(types.SyncEvent)

	peer      types.PeerContext
	syncer    Syncer
	policy    *policy.Policy
	env       Environment
	network   Network
	agent     Agent
	optimizer Optimizer

	limiter *rate.Limiter

	// running reward of every environment instance
	rewards  []float64
	episodes int
	finished float64
}

// New creates a container for the peer.
func New(
	peer types.PeerContext,
	syncer Syncer,
	pol *policy.Policy,
	env Environment,
	network Network,
	agent Agent,
	optimizer Optimizer,
	opts ...Opt,
) *Container {
	c := &Container{
		logger:    zap.NewNop(),
		cfg:       DefaultConfig(),
		clock:     clockwork.NewRealClock(),
		peer:      peer,
		syncer:    syncer,
		policy:    pol,
		env:       env,
		network:   network,
		agent:     agent,
		optimizer: optimizer,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.limiter = rate.NewLimiter(rate.Every(c.cfg.SummaryRate), 1)
	c.logger = c.logger.With(zap.Int("rank", int(peer.Rank)))
	return c
}

// Peer returns the peer context with the current step count.
func (c *Container) Peer() types.PeerContext {
	return c.peer
}

// Run synchronizes the replica with rank 0 and trains until maxSteps local
// steps were applied or ctx is done.
func (c *Container) Run(ctx context.Context, maxSteps uint64) error {
	ev, err := c.policy.Initial(&c.peer)
	if err != nil {
		return err
	}
	if err := c.sync(ctx, ev); err != nil {
		return err
	}
	obs := c.env.Reset()
	internals := c.network.NewInternals(len(obs))
	c.rewards = make([]float64, len(obs))
	start := c.clock.Now()
	for c.peer.Steps < maxSteps {
		if err := ctx.Err(); err != nil {
			return err
		}
		actions, next, err := c.agent.Act(obs, internals)
		if err != nil {
			return fmt.Errorf("act at step %d: %w", c.peer.Steps, err)
		}
		internals = next
		tr, err := c.env.Step(actions)
		if err != nil {
			return fmt.Errorf("environment step %d: %w", c.peer.Steps, err)
		}
		c.record(tr)
		obs = tr.Observation
		if !c.agent.Observe(actions, tr) {
			continue
		}
		if err := c.learn(); err != nil {
			return err
		}
		ev, due, err := c.policy.Check(&c.peer)
		if err != nil {
			return err
		}
		if due {
			if err := c.sync(ctx, ev); err != nil {
				return err
			}
			if err := c.policy.Done(); err != nil {
				return err
			}
		}
		if c.cfg.SummaryFrequency > 0 && c.peer.Steps%c.cfg.SummaryFrequency == 0 {
			c.summary(start)
		}
	}
	c.logger.Info("training finished",
		zap.Uint64("steps", c.peer.Steps),
		zap.Int("episodes", c.episodes),
		zap.Int("periodic_syncs", c.policy.Syncs(types.SyncPeriodic)),
	)
	return nil
}

func (c *Container) learn() error {
	grads, stats, err := c.agent.Gradients()
	if err != nil {
		return fmt.Errorf("gradients at step %d: %w", c.peer.Steps, err)
	}
	if err := c.optimizer.Step(grads); err != nil {
		return fmt.Errorf("optimizer step %d: %w", c.peer.Steps, err)
	}
	if err := c.policy.Trained(&c.peer); err != nil {
		return err
	}
	c.peer.Steps++
	localSteps.Set(float64(c.peer.Steps))
	loss.Set(stats.Loss)
	return nil
}

// sync runs the collectives of ev. Every peer issues the same calls,
// regardless of its rank.
func (c *Container) sync(ctx context.Context, ev types.SyncEvent) error {
	ctx = log.WithSessionID(ctx, fmt.Sprintf("%s-%d", ev.Kind, ev.Step), zap.Inline(ev))
	start := c.clock.Now()
	var err error
	switch ev.Kind {
	case types.SyncInitial:
		_, err = c.syncer.SyncParameters(ctx, c.network.Parameters(), int(ev.Source), false)
	default:
		_, err = c.syncer.Sync(ctx, c.network.Parameters(), c.optimizer.State(), int(ev.Source), c.cfg.ShareOptimizer, false)
	}
	if err != nil {
		return fmt.Errorf("%s sync at step %d: %w", ev.Kind, ev.Step, err)
	}
	if c.cfg.Verify {
		if err := c.syncer.Verify(ctx, c.network.Parameters(), int(ev.Source)); err != nil {
			return fmt.Errorf("verify %s sync at step %d: %w", ev.Kind, ev.Step, err)
		}
	}
	syncEvents.WithLabelValues(ev.Kind.String()).Inc()
	c.logger.Info("replica synchronized",
		append(log.Context(ctx), zap.Duration("duration", c.clock.Since(start)))...,
	)
	if c.hook != nil {
		c.hook(ev)
	}
	return nil
}

func (c *Container) record(tr Transition) {
	for i, r := range tr.Rewards {
		c.rewards[i] += float64(r)
		if i < len(tr.Done) && tr.Done[i] {
			c.finished += c.rewards[i]
			c.episodes++
			c.rewards[i] = 0
		}
	}
}

func (c *Container) summary(start time.Time) {
	if c.episodes > 0 {
		episodeReward.Set(c.finished / float64(c.episodes))
	}
	if !c.limiter.Allow() {
		return
	}
	elapsed := c.clock.Since(start)
	fields := []zap.Field{
		zap.Uint64("steps", c.peer.Steps),
		zap.Int("episodes", c.episodes),
		zap.Duration("elapsed", elapsed),
	}
	if c.episodes > 0 {
		fields = append(fields, zap.Float64("mean_episode_reward", c.finished/float64(c.episodes)))
	}
	if elapsed > 0 {
		fields = append(fields, zap.Float64("steps_per_second", float64(c.peer.Steps)/elapsed.Seconds()))
	}
	c.logger.Info("training progress", fields...)
}
