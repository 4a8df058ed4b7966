package core

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"io"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Short returns the first 12 hex characters, enough to eyeball equality in logs
func (h Hash) Short() string {
	if len(h) <= 12 {
		return string(h)
	}
	return string(h[:12])
}

// Hasher accumulates fingerprint input incrementally.
type Hasher struct {
	h hash.Hash
}

// NewHasher starts an empty fingerprint
func NewHasher() *Hasher {
	return &Hasher{h: sha256.New()}
}

// Add writes parts to the fingerprint, each terminated by a separator byte
func (x *Hasher) Add(parts ...string) *Hasher {
	for _, p := range parts {
		io.WriteString(x.h, p)
		x.h.Write([]byte{0x1f})
	}
	return x
}

// Sum finalizes the fingerprint
func (x *Hasher) Sum() Hash {
	return Hash(hex.EncodeToString(x.h.Sum(nil)))
}
