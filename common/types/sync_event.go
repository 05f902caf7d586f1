package types

import "go.uber.org/zap/zapcore"

// SyncKind tells why a synchronization happened.
type SyncKind uint8

const (
	// SyncInitial is the unconditional synchronization before the first
	// local training step.
	SyncInitial SyncKind = iota + 1
	// SyncPeriodic is a synchronization triggered by the step interval.
	SyncPeriodic
)

func (k SyncKind) String() string {
	switch k {
	case SyncInitial:
		return "initial"
	case SyncPeriodic:
		return "periodic"
	default:
		return "unknown"
	}
}

// SyncEvent is a single synchronization of a peer's replica. It is not
// persisted.
type SyncEvent struct {
	Source Rank
	Step   uint64
	Kind   SyncKind
}

// MarshalLogObject implements logging interface.
func (e SyncEvent) MarshalLogObject(encoder zapcore.ObjectEncoder) error {
	encoder.AddInt("source", int(e.Source))
	encoder.AddUint64("step", e.Step)
	encoder.AddString("kind", e.Kind.String())
	return nil
}
