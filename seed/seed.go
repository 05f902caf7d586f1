// Package seed derives the random seeds of the peers from one base seed.
//
// The base seed comes from configuration and is identical on every peer
// without communication. Rank 0 keeps it unmodified so it stays usable
// wherever peers need bit identical randomness, such as initializing the
// model before the initial sync. Every other rank is offset by a multiple of
// the number of environments it runs, so the seeds of the environments of
// different ranks never overlap.
package seed

import (
	"errors"
	"fmt"

	"go.uber.org/zap/zapcore"

	"github.com/replicasync/replicasync/common/types"
)

var (
	// ErrInvalidEnvCount is returned when a peer runs no environments.
	ErrInvalidEnvCount = errors.New("number of environments must be positive")
	// ErrInvalidRank is returned for ranks outside the group.
	ErrInvalidRank = errors.New("rank outside group")
)

// Assignment of seeds to one peer.
type Assignment struct {
	Rank types.Rank
	// Base is the shared seed, identical on every peer.
	Base int64
	// PerRank seeds the local environments. Environment i of the peer uses
	// PerRank+i.
	PerRank int64
}

// MarshalLogObject implements logging encoder for Assignment.
func (a Assignment) MarshalLogObject(encoder zapcore.ObjectEncoder) error {
	encoder.AddInt("rank", int(a.Rank))
	encoder.AddInt64("base_seed", a.Base)
	encoder.AddInt64("rank_seed", a.PerRank)
	return nil
}

// Shared returns the seed used for randomness that must agree across peers.
func Shared(base int64) int64 {
	return base
}

// Offset is the distance of the seed of rank from the base seed.
func Offset(nbEnv int, rank types.Rank) int64 {
	return int64(nbEnv) * int64(rank)
}

// ForRank computes the assignment of rank in a group of size peers.
func ForRank(base int64, nbEnv int, rank types.Rank, size int) (Assignment, error) {
	if nbEnv < 1 {
		return Assignment{}, fmt.Errorf("%w: %d", ErrInvalidEnvCount, nbEnv)
	}
	if !rank.Valid(size) {
		return Assignment{}, fmt.Errorf("%w: %s of %d", ErrInvalidRank, rank, size)
	}
	return Assignment{
		Rank:    rank,
		Base:    base,
		PerRank: base + Offset(nbEnv, rank),
	}, nil
}

// Table computes the assignment of every rank in a group of size peers.
func Table(base int64, nbEnv, size int) ([]Assignment, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: empty group", ErrInvalidRank)
	}
	table := make([]Assignment, size)
	for r := range table {
		a, err := ForRank(base, nbEnv, types.Rank(r), size)
		if err != nil {
			return nil, err
		}
		table[r] = a
	}
	return table, nil
}
