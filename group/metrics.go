package group

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/replicasync/replicasync/metrics"
)

const (
	namespace = "group"

	opBroadcast = "broadcast"
	opBarrier   = "barrier"

	roleSource   = "source"
	roleReceiver = "receiver"
)

var (
	collectiveCount = metrics.NewCounter(
		"collectives",
		namespace,
		"number of collective calls issued by this peer",
		[]string{"op", "role"},
	)
	broadcastSource   = collectiveCount.WithLabelValues(opBroadcast, roleSource)
	broadcastReceiver = collectiveCount.WithLabelValues(opBroadcast, roleReceiver)
	barrierCount      = collectiveCount.WithLabelValues(opBarrier, "")

	collectiveErrors = metrics.NewCounter(
		"collective_errors",
		namespace,
		"number of failed collective calls",
		[]string{"op"},
	)

	payloadBytes = metrics.NewCounter(
		"payload_bytes",
		namespace,
		"bytes of broadcast payload",
		[]string{"direction"},
	)
	bytesSent     = payloadBytes.WithLabelValues("sent")
	bytesReceived = payloadBytes.WithLabelValues("received")

	collectiveLatency = metrics.NewHistogramWithBuckets(
		"collective_seconds",
		namespace,
		"duration of collective calls",
		[]string{"op"},
		prometheus.ExponentialBuckets(0.0005, 2, 16),
	)
	broadcastLatency = collectiveLatency.WithLabelValues(opBroadcast)
	barrierLatency   = collectiveLatency.WithLabelValues(opBarrier)
)
