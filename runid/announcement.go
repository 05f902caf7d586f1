package runid

import (
	"github.com/spacemeshos/go-scale"
)

const maxField = 1024

// Announcement is broadcast by rank 0 once it attempted to create the run
// directory.
type Announcement struct {
	Timestamp string
	// OK is false when rank 0 could not create the run directory.
	OK     bool
	Reason string
}

// EncodeScale implements scale codec interface.
func (a *Announcement) EncodeScale(enc *scale.Encoder) (total int, err error) {
	{
		n, err := scale.EncodeByteSliceWithLimit(enc, []byte(a.Timestamp), maxField)
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := scale.EncodeBool(enc, a.OK)
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := scale.EncodeByteSliceWithLimit(enc, []byte(a.Reason), maxField)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// DecodeScale implements scale codec interface.
func (a *Announcement) DecodeScale(dec *scale.Decoder) (total int, err error) {
	{
		field, n, err := scale.DecodeByteSliceWithLimit(dec, maxField)
		if err != nil {
			return total, err
		}
		total += n
		a.Timestamp = string(field)
	}
	{
		field, n, err := scale.DecodeBool(dec)
		if err != nil {
			return total, err
		}
		total += n
		a.OK = field
	}
	{
		field, n, err := scale.DecodeByteSliceWithLimit(dec, maxField)
		if err != nil {
			return total, err
		}
		total += n
		a.Reason = string(field)
	}
	return total, nil
}
