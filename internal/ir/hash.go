package ir

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"hash"
)

// Domain prefixes for hashing.
// Version suffix enables future algorithm migration.
const (
	DomainTreeNode = "qtopt/tree-node/v1"
	DomainTree     = "qtopt/tree/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte (0x00) separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// TreeID computes the content-addressed ID of an encoded query tree.
// doc is the document form produced by querytree.Encode; two trees with the
// same shape and literals always share an ID.
func TreeID(doc any) (string, error) {
	canonical, err := MarshalCanonical(doc)
	if err != nil {
		return "", fmt.Errorf("TreeID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainTree, canonical), nil
}

// MustTreeID is like TreeID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustTreeID(doc any) string {
	id, err := TreeID(doc)
	if err != nil {
		panic(err)
	}
	return id
}

// Hasher accumulates a structural digest of a tree node.
//
// Every write is length- or tag-prefixed so that distinct field sequences
// never produce the same byte stream ("ab","c" vs "a","bc").
// The zero value is not usable; call NewHasher.
type Hasher struct {
	h   hash.Hash
	buf [8]byte
}

// NewHasher returns a Hasher seeded with DomainTreeNode.
func NewHasher() *Hasher {
	h := sha256.New()
	h.Write([]byte(DomainTreeNode))
	h.Write([]byte{0x00})
	return &Hasher{h: h}
}

// Tag writes a single discriminator byte (node kind, field marker).
func (hs *Hasher) Tag(b byte) {
	hs.h.Write([]byte{b})
}

// String writes a length-prefixed string.
func (hs *Hasher) String(s string) {
	hs.Int(int64(len(s)))
	hs.h.Write([]byte(s))
}

// Int writes a fixed-width integer.
func (hs *Hasher) Int(n int64) {
	binary.BigEndian.PutUint64(hs.buf[:], uint64(n))
	hs.h.Write(hs.buf[:])
}

// Bool writes a boolean as one byte.
func (hs *Hasher) Bool(b bool) {
	if b {
		hs.Tag(1)
		return
	}
	hs.Tag(0)
}

// Uint64 writes a child digest.
func (hs *Hasher) Uint64(n uint64) {
	binary.BigEndian.PutUint64(hs.buf[:], n)
	hs.h.Write(hs.buf[:])
}

// Value writes a literal using its canonical JSON form.
// Returns an error only for values MarshalCanonical rejects.
func (hs *Hasher) Value(v IRValue) error {
	data, err := MarshalCanonical(v)
	if err != nil {
		return err
	}
	hs.h.Write(data)
	hs.Tag(0x00)
	return nil
}

// Sum64 returns the first 8 bytes of the digest.
func (hs *Hasher) Sum64() uint64 {
	return binary.BigEndian.Uint64(hs.h.Sum(nil)[:8])
}
