package group

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/replicasync/replicasync/codec"
)

// BroadcastBytes replicates a byte slice whose length is only known at the
// source. The length is broadcast first, then the payload.
func BroadcastBytes(ctx context.Context, g Group, data []byte, src int) ([]byte, error) {
	var size [8]byte
	if g.Rank() == src {
		binary.LittleEndian.PutUint64(size[:], uint64(len(data)))
	}
	if _, err := g.Broadcast(ctx, &Message{Data: size[:]}, src, false); err != nil {
		return nil, fmt.Errorf("broadcast length: %w", err)
	}
	n := binary.LittleEndian.Uint64(size[:])
	if n > MaxPayload {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit", ErrSizeMismatch, n)
	}
	buf := data
	if g.Rank() != src {
		buf = make([]byte, n)
	}
	if _, err := g.Broadcast(ctx, &Message{Data: buf}, src, false); err != nil {
		return nil, fmt.Errorf("broadcast payload: %w", err)
	}
	return buf, nil
}

// Value is a scale encoded value that can be broadcast.
type Value interface {
	codec.Encodable
	codec.Decodable
}

// BroadcastValue replicates value from src. At every other peer value is
// overwritten with the decoded copy.
func BroadcastValue(ctx context.Context, g Group, value Value, src int) error {
	var data []byte
	if g.Rank() == src {
		var err error
		data, err = codec.Encode(value)
		if err != nil {
			return fmt.Errorf("encode %T: %w", value, err)
		}
	}
	data, err := BroadcastBytes(ctx, g, data, src)
	if err != nil {
		return err
	}
	if g.Rank() == src {
		return nil
	}
	if err := codec.Decode(data, value); err != nil {
		return fmt.Errorf("decode %T: %w", value, err)
	}
	return nil
}

var readyHeader = []byte("ready")

// AllReady shares a readiness flag: every peer broadcasts its own flag once,
// in rank order. It returns the ranks that reported not ready, identical at
// every peer.
func AllReady(ctx context.Context, g Group, ready bool) ([]int, error) {
	var missing []int
	for src := 0; src < g.Size(); src++ {
		flag := []byte{0}
		if src == g.Rank() && ready {
			flag[0] = 1
		}
		if _, err := g.Broadcast(ctx, &Message{Header: readyHeader, Data: flag}, src, false); err != nil {
			return nil, fmt.Errorf("readiness of rank %d: %w", src, err)
		}
		if flag[0] == 0 {
			missing = append(missing, src)
		}
	}
	return missing, nil
}
