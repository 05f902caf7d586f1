package group

import (
	"github.com/spacemeshos/go-scale"
)

const (
	// MaxHeader is the largest header accepted on the wire.
	MaxHeader = 4096
	// MaxPayload is the largest payload accepted on the wire.
	MaxPayload = 1 << 30
)

// FrameKind is the role of a frame in a collective.
type FrameKind uint8

const (
	// KindBroadcast carries a broadcast payload from the source.
	KindBroadcast FrameKind = iota + 1
	// KindArrive announces that a peer entered a barrier.
	KindArrive
	// KindRelease lets peers leave a barrier.
	KindRelease
)

func (k FrameKind) String() string {
	switch k {
	case KindBroadcast:
		return "broadcast"
	case KindArrive:
		return "arrive"
	case KindRelease:
		return "release"
	default:
		return "unknown"
	}
}

// Frame is the unit exchanged by transports.
type Frame struct {
	// Seq is the number of the collective call on the sender.
	Seq     uint64
	Kind    FrameKind
	From    uint32
	Header  []byte
	Payload []byte
}

// EncodeScale implements scale codec interface.
func (f *Frame) EncodeScale(enc *scale.Encoder) (total int, err error) {
	{
		n, err := scale.EncodeCompact64(enc, f.Seq)
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := scale.EncodeCompact8(enc, uint8(f.Kind))
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := scale.EncodeCompact32(enc, f.From)
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := scale.EncodeByteSliceWithLimit(enc, f.Header, MaxHeader)
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := scale.EncodeByteSliceWithLimit(enc, f.Payload, MaxPayload)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// DecodeScale implements scale codec interface.
func (f *Frame) DecodeScale(dec *scale.Decoder) (total int, err error) {
	{
		field, n, err := scale.DecodeCompact64(dec)
		if err != nil {
			return total, err
		}
		total += n
		f.Seq = field
	}
	{
		field, n, err := scale.DecodeCompact8(dec)
		if err != nil {
			return total, err
		}
		total += n
		f.Kind = FrameKind(field)
	}
	{
		field, n, err := scale.DecodeCompact32(dec)
		if err != nil {
			return total, err
		}
		total += n
		f.From = field
	}
	{
		field, n, err := scale.DecodeByteSliceWithLimit(dec, MaxHeader)
		if err != nil {
			return total, err
		}
		total += n
		f.Header = field
	}
	{
		field, n, err := scale.DecodeByteSliceWithLimit(dec, MaxPayload)
		if err != nil {
			return total, err
		}
		total += n
		f.Payload = field
	}
	return total, nil
}
