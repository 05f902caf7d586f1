// Package policy decides when peers synchronize their parameters.
//
// A peer synchronizes once before its first local step, unconditionally.
// After that it synchronizes whenever its local step count is a multiple of
// the configured interval, or never again when no interval is configured.
// The decision is a pure function of the step count, so peers that step at
// the same rate reach it at the same collective call. Peers whose step counts
// drift apart are not reconciled.
package policy

import (
	"errors"
	"fmt"

	"github.com/replicasync/replicasync/common/types"
)

// ErrIllegalTransition is returned when an operation is not allowed in the
// current state.
var ErrIllegalTransition = errors.New("illegal policy transition")

// State of the synchronization policy.
type State uint8

const (
	AwaitingInitialSync State = iota
	Synced
	Training
	PeriodicSync
)

func (s State) String() string {
	switch s {
	case AwaitingInitialSync:
		return "awaiting_initial_sync"
	case Synced:
		return "synced"
	case Training:
		return "training"
	case PeriodicSync:
		return "periodic_sync"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// Due reports whether a peer with steps local steps synchronizes, given the
// interval. Zero interval disables periodic synchronization.
func Due(interval, steps uint64) bool {
	return interval > 0 && steps%interval == 0
}

// Policy tracks the synchronization state of one peer.
type Policy struct {
	interval uint64
	state    State
	syncs    map[types.SyncKind]int
}

// New creates a policy with the periodic interval. Zero disables periodic
// synchronization.
func New(interval uint64) *Policy {
	return &Policy{
		interval: interval,
		syncs:    make(map[types.SyncKind]int, 2),
	}
}

// Interval between periodic synchronizations.
func (p *Policy) Interval() uint64 {
	return p.interval
}

// State returns the current state.
func (p *Policy) State() State {
	return p.state
}

// Syncs returns how many synchronizations of kind started.
func (p *Policy) Syncs(kind types.SyncKind) int {
	return p.syncs[kind]
}

func (p *Policy) illegal(op string) error {
	return fmt.Errorf("%w: %s in state %s", ErrIllegalTransition, op, p.state)
}

// Initial returns the initial synchronization event. It is legal exactly
// once, before any local step.
func (p *Policy) Initial(peer *types.PeerContext) (types.SyncEvent, error) {
	if p.state != AwaitingInitialSync {
		return types.SyncEvent{}, p.illegal("initial sync")
	}
	if peer.Steps != 0 {
		return types.SyncEvent{}, fmt.Errorf("%w: initial sync after %d local steps", ErrIllegalTransition, peer.Steps)
	}
	p.state = Synced
	p.syncs[types.SyncInitial]++
	return types.SyncEvent{Source: types.SourceRank, Step: peer.Steps, Kind: types.SyncInitial}, nil
}

// Trained records a local step. Steps are only legal once the initial sync
// happened and while no periodic sync is in progress.
func (p *Policy) Trained(peer *types.PeerContext) error {
	switch p.state {
	case Synced, Training:
		p.state = Training
		return nil
	default:
		return p.illegal(fmt.Sprintf("local step %d", peer.Steps))
	}
}

// Check decides whether the peer synchronizes now. When it does, the policy
// moves to PeriodicSync until Done is called.
func (p *Policy) Check(peer *types.PeerContext) (types.SyncEvent, bool, error) {
	if p.state != Training {
		return types.SyncEvent{}, false, p.illegal("check")
	}
	if !Due(p.interval, peer.Steps) {
		return types.SyncEvent{}, false, nil
	}
	p.state = PeriodicSync
	p.syncs[types.SyncPeriodic]++
	return types.SyncEvent{Source: types.SourceRank, Step: peer.Steps, Kind: types.SyncPeriodic}, true, nil
}

// Done completes a periodic synchronization.
func (p *Policy) Done() error {
	if p.state != PeriodicSync {
		return p.illegal("done")
	}
	p.state = Training
	return nil
}
