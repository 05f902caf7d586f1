package p2p

import "github.com/replicasync/replicasync/metrics"

const namespace = "p2p"

var (
	frames = metrics.NewCounter(
		"frames",
		namespace,
		"number of collective frames exchanged with peers",
		[]string{"direction"},
	)
	framesSent     = frames.WithLabelValues("sent")
	framesReceived = frames.WithLabelValues("received")

	streamsOpened = metrics.NewCounter(
		"streams_opened",
		namespace,
		"number of outbound streams opened to group peers",
		[]string{},
	).WithLabelValues()
)
