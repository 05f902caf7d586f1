// Package hash computes blake3 digests used to fingerprint parameter sets.
package hash

import (
	"encoding/hex"
	"sync"

	"github.com/zeebo/blake3"
)

// Size of a digest produced by Sum.
const Size = 32

// Hash32 is a blake3 digest.
type Hash32 [Size]byte

// String returns the hex form of the digest.
func (h Hash32) String() string {
	return hex.EncodeToString(h[:])
}

// ShortString returns the first five bytes of the digest in hex, for logs.
func (h Hash32) ShortString() string {
	return hex.EncodeToString(h[:5])
}

var hashers = sync.Pool{
	New: func() any {
		return blake3.New()
	},
}

// Borrow takes a hasher from the shared pool. It is in the reset state and
// must be handed back with Release once the digest was read.
func Borrow() *blake3.Hasher {
	return hashers.Get().(*blake3.Hasher)
}

// Release resets hasher and makes it available to the next Borrow.
func Release(hasher *blake3.Hasher) {
	hasher.Reset()
	hashers.Put(hasher)
}

// Sum computes the blake3 digest of the concatenation of chunks.
func Sum(chunks ...[]byte) (rst Hash32) {
	hasher := Borrow()
	defer Release(hasher)
	for _, chunk := range chunks {
		hasher.Write(chunk)
	}
	hasher.Sum(rst[:0])
	return rst
}
