package types

import (
	"fmt"

	"go.uber.org/zap/zapcore"
)

// Rank identifies a peer in a process group. It is immutable for the
// lifetime of the process.
type Rank int

// SourceRank is the bootstrap authority of a group: it mints the run identity
// and is the source of the initial parameter broadcast.
const SourceRank Rank = 0

// Valid reports whether r addresses a peer in a group of the given size.
func (r Rank) Valid(size int) bool {
	return r >= 0 && int(r) < size
}

func (r Rank) String() string {
	return fmt.Sprintf("rank%d", int(r))
}

// PeerContext is the explicit per-process state threaded through the
// policy and the trainer.
type PeerContext struct {
	Rank Rank
	Size int
	// Steps is the number of local training steps applied so far.
	Steps uint64
}

// IsSource reports whether the peer is the bootstrap authority.
func (p *PeerContext) IsSource() bool {
	return p.Rank == SourceRank
}

// MarshalLogObject implements logging interface.
func (p *PeerContext) MarshalLogObject(encoder zapcore.ObjectEncoder) error {
	encoder.AddInt("rank", int(p.Rank))
	encoder.AddInt("size", p.Size)
	encoder.AddUint64("steps", p.Steps)
	return nil
}
