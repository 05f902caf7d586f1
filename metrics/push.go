package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"go.uber.org/zap"
)

// PushConfig configures pushing to a prometheus pushgateway. Training peers
// are batch jobs, scraping them is not always possible.
type PushConfig struct {
	URL      string        `mapstructure:"metrics-push"`
	Period   time.Duration `mapstructure:"metrics-push-period"`
	User     string        `mapstructure:"metrics-push-user"`
	Password string        `mapstructure:"metrics-push-password"`
}

// Pusher pushes the default registry, grouped by run and rank.
type Pusher struct {
	logger *zap.Logger
	period time.Duration
	pusher *push.Pusher
}

// NewPusher creates a pusher for one peer of a run.
func NewPusher(logger *zap.Logger, cfg PushConfig, runID string, rank int) *Pusher {
	pusher := push.New(cfg.URL, Namespace).
		Gatherer(prometheus.DefaultGatherer).
		Grouping("run", runID).
		Grouping("rank", strconv.Itoa(rank))
	if cfg.User != "" && cfg.Password != "" {
		pusher = pusher.BasicAuth(cfg.User, cfg.Password)
	}
	return &Pusher{logger: logger, period: cfg.Period, pusher: pusher}
}

// Run pushes every period until ctx is done, then pushes one last time.
func (p *Pusher) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			if err := p.pusher.Push(); err != nil {
				p.logger.Warn("failed to push final metrics", zap.Error(err))
			}
			return nil
		case <-ticker.C:
			if err := p.pusher.Push(); err != nil {
				p.logger.Warn("failed to push metrics", zap.Error(err))
			}
		}
	}
}
