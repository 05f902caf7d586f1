package trainer

import (
	"github.com/replicasync/replicasync/metrics"
)

const namespace = "trainer"

var (
	localSteps = metrics.NewGauge(
		"local_steps",
		namespace,
		"number of local training steps",
		[]string{},
	).WithLabelValues()

	syncEvents = metrics.NewCounter(
		"sync_events",
		namespace,
		"number of synchronization events by kind",
		[]string{"kind"},
	)

	episodeReward = metrics.NewGauge(
		"episode_reward",
		namespace,
		"mean reward of the finished episodes",
		[]string{},
	).WithLabelValues()

	loss = metrics.NewGauge(
		"loss",
		namespace,
		"loss of the last learning update",
		[]string{},
	).WithLabelValues()
)
