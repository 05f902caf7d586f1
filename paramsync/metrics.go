package paramsync

import (
	"github.com/replicasync/replicasync/metrics"
)

const namespace = "paramsync"

var (
	buffers = metrics.NewCounter(
		"buffers",
		namespace,
		"number of buffers broadcast by set",
		[]string{"set"},
	)

	syncBytes = metrics.NewCounter(
		"bytes",
		namespace,
		"bytes of buffers synchronized by role",
		[]string{"role"},
	)
	sourceBytes   = syncBytes.WithLabelValues("source")
	receiverBytes = syncBytes.WithLabelValues("receiver")

	syncDuration = metrics.NewHistogramWithBuckets(
		"duration_seconds",
		namespace,
		"duration of blocking synchronizations",
		[]string{"set"},
		[]float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
	)

	verifications = metrics.NewCounter(
		"verifications",
		namespace,
		"number of fingerprint verifications by outcome",
		[]string{"outcome"},
	)
	verifyOk       = verifications.WithLabelValues("ok")
	verifyDiverged = verifications.WithLabelValues("diverged")
)
