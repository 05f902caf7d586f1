package p2p

import (
	"bytes"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/libp2p/go-libp2p/core/crypto"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/natefinch/atomic"
)

const keyFilename = "p2p.key"

type identityInfo struct {
	Key []byte
	ID  peer.ID
}

func genIdentity() (crypto.PrivKey, error) {
	pk, _, err := crypto.GenerateEd25519Key(rand.Reader)
	return pk, err
}

// IdentityPath is the location of the identity file in dir.
func IdentityPath(dir string) string {
	return filepath.Join(dir, keyFilename)
}

// EnsureIdentity loads the identity from dir or creates and persists a new
// one.
func EnsureIdentity(dir string) (crypto.PrivKey, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("ensure that directory %s exists: %w", dir, err)
	}
	path := IdentityPath(dir)
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var info identityInfo
		if err := json.Unmarshal(data, &info); err != nil {
			return nil, fmt.Errorf("unmarshal identity from %s: %w", path, err)
		}
		key, err := crypto.UnmarshalPrivateKey(info.Key)
		if err != nil {
			return nil, fmt.Errorf("unmarshal private key from %s: %w", path, err)
		}
		return key, nil
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read identity %s: %w", path, err)
	}
	key, err := genIdentity()
	if err != nil {
		return nil, fmt.Errorf("generate identity: %w", err)
	}
	id, err := peer.IDFromPrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("derive peer id: %w", err)
	}
	raw, err := crypto.MarshalPrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("marshal private key: %w", err)
	}
	data, err = json.Marshal(identityInfo{Key: raw, ID: id})
	if err != nil {
		return nil, fmt.Errorf("marshal identity: %w", err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("write identity to %s: %w", path, err)
	}
	return key, nil
}

// IdentityID returns the peer id of the identity stored in dir, creating it
// if necessary.
func IdentityID(dir string) (peer.ID, error) {
	key, err := EnsureIdentity(dir)
	if err != nil {
		return "", err
	}
	return peer.IDFromPrivateKey(key)
}
