// Package group implements the process group handle consumed by the
// synchronization layer: a fixed set of peers addressed by rank that issue
// collective broadcasts and barriers.
//
// Every peer must issue the same collective calls in the same order. The
// implementation numbers calls as they are made and pairs them across peers
// by that number, so a peer that skips or reorders a call deadlocks the
// group or pairs mismatched operations.
package group

import (
	"bytes"
	"context"
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned by collectives on a closed group.
	ErrClosed = errors.New("group closed")
	// ErrInvalidRank is returned when a source rank is outside the group.
	ErrInvalidRank = errors.New("invalid rank")
	// ErrHeaderMismatch is returned at a receiver when the header sent by
	// the source differs from the local header.
	ErrHeaderMismatch = errors.New("broadcast header mismatch")
	// ErrSizeMismatch is returned at a receiver when the payload does not
	// fit the local buffer exactly.
	ErrSizeMismatch = errors.New("broadcast size mismatch")
)

// Group is a formed set of peers supporting collective operations.
type Group interface {
	// Rank of the local peer in [0, Size()).
	Rank() int
	// Size is the number of peers.
	Size() int
	// Name identifies the group.
	Name() string
	// Broadcast replicates msg.Data from src to every peer. At the source the
	// buffer is the payload, elsewhere it is overwritten in place.
	//
	// With async the call returns immediately and the buffer must not be read
	// or written until Wait on the returned Work returns. Without async the
	// returned Work is already complete.
	Broadcast(ctx context.Context, msg *Message, src int, async bool) (Work, error)
	// Barrier returns once every peer has entered it.
	Barrier(ctx context.Context) error
}

// Message is the local side of one broadcast.
type Message struct {
	// Header describes the payload. It is sent by the source and compared
	// byte for byte at every receiver.
	Header []byte
	// Data is transmitted byte for byte.
	Data []byte
}

func (m *Message) apply(header, payload []byte) error {
	if !bytes.Equal(header, m.Header) {
		return fmt.Errorf("%w: got %x, local %x", ErrHeaderMismatch, header, m.Header)
	}
	if len(payload) != len(m.Data) {
		return fmt.Errorf("%w: got %d bytes, local buffer %d", ErrSizeMismatch, len(payload), len(m.Data))
	}
	copy(m.Data, payload)
	return nil
}

// Work is a pending collective operation.
type Work interface {
	// Wait blocks until the operation completes and returns its error.
	Wait(ctx context.Context) error
}

// WaitAll waits for every handle and returns the first error.
func WaitAll(ctx context.Context, works []Work) error {
	var first error
	for _, w := range works {
		if err := w.Wait(ctx); err != nil && first == nil {
			first = err
		}
	}
	return first
}

type doneWork struct {
	err error
}

func (w doneWork) Wait(context.Context) error {
	return w.err
}

type asyncWork struct {
	done chan struct{}
	err  error
}

func newAsyncWork() *asyncWork {
	return &asyncWork{done: make(chan struct{})}
}

func (w *asyncWork) finish(err error) {
	w.err = err
	close(w.done)
}

func (w *asyncWork) Wait(ctx context.Context) error {
	select {
	case <-w.done:
		return w.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
