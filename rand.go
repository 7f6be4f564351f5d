// rand.go - CSPRNG abstraction for the masked integer module (C3)
//
// Masking needs fresh random words at every share generation and gadget
// call. RandSource abstracts that behind an interface so production code
// draws from crypto/rand while tests substitute a deterministic generator.
package aesblake

import (
	"crypto/rand"
	"encoding/binary"
	"io"
	mrand "math/rand/v2"
)

// RandSource supplies fresh random words for mask generation and for the
// DOM-independent AND/MUL gadget's blinding terms.
type RandSource interface {
	// NextWord returns bits random bits (8, 32, or 64) as a uint64, with
	// any bits above the requested width left zero.
	NextWord(bits int) uint64
}

// CryptoRandSource backs RandSource with crypto/rand.Reader, the default
// for every masked cipher construction.
type CryptoRandSource struct {
	reader io.Reader
}

// NewCryptoRandSource returns a RandSource backed by crypto/rand.Reader.
func NewCryptoRandSource() *CryptoRandSource {
	return &CryptoRandSource{reader: rand.Reader}
}

// NextWord implements RandSource.
func (s *CryptoRandSource) NextWord(bits int) uint64 {
	var buf [8]byte
	n := (bits + 7) / 8
	if n > 8 {
		n = 8
	}
	if _, err := io.ReadFull(s.reader, buf[:n]); err != nil {
		// crypto/rand.Reader does not fail under normal operation; a
		// failure here means the OS entropy source is broken, which is
		// not recoverable by retrying.
		panic("aesblake: crypto/rand read failed: " + err.Error())
	}
	v := binary.BigEndian.Uint64(append(make([]byte, 8-n), buf[:n]...))
	return maskToBits(v, bits)
}

// DeterministicRandSource is a seeded, reproducible RandSource for tests
// that need to assert on exact masked values (e.g. reference-vector style
// checks of the masking gadget itself). It must never be used to mask real
// key material.
type DeterministicRandSource struct {
	rng *mrand.ChaCha8
}

// NewDeterministicRandSource returns a RandSource seeded from seed,
// expanded to the 32-byte key math/rand/v2's ChaCha8 source requires.
func NewDeterministicRandSource(seed uint64) *DeterministicRandSource {
	var key [32]byte
	binary.BigEndian.PutUint64(key[0:8], seed)
	binary.BigEndian.PutUint64(key[8:16], seed^0x9E3779B97F4A7C15)
	binary.BigEndian.PutUint64(key[16:24], ^seed)
	binary.BigEndian.PutUint64(key[24:32], seed*0xD6E8FEB86659FD93)
	return &DeterministicRandSource{rng: mrand.NewChaCha8(key)}
}

// NextWord implements RandSource.
func (s *DeterministicRandSource) NextWord(bits int) uint64 {
	return maskToBits(s.rng.Uint64(), bits)
}

func maskToBits(v uint64, bits int) uint64 {
	if bits >= 64 {
		return v
	}
	return v & ((uint64(1) << uint(bits)) - 1)
}
