// word.go - fixed-width word algebra (C1)
//
// BLAKE-style mixing needs wrapping add/xor and rotate-right on 32- and
// 64-bit words; AES's MixColumns needs branchless GF(2^8) doubling on
// bytes. Go's builtin uint32/uint64 already wrap on overflow, so this file
// only supplies the rotate and xtime operations the language doesn't.
package aesblake

import "golang.org/x/exp/constraints"

// word is the set of unsigned integer types BLAKE's state words and AES's
// byte algebra are built from.
type word interface {
	constraints.Unsigned
}

// rotr32 rotates a 32-bit word right by n bits, n taken modulo 32.
func rotr32(x uint32, n uint) uint32 {
	n &= 31
	if n == 0 {
		return x
	}
	return (x >> n) | (x << (32 - n))
}

// rotl32 rotates a 32-bit word left by n bits.
func rotl32(x uint32, n uint) uint32 {
	return rotr32(x, 32-(n&31))
}

// rotr64 rotates a 64-bit word right by n bits, n taken modulo 64.
func rotr64(x uint64, n uint) uint64 {
	n &= 63
	if n == 0 {
		return x
	}
	return (x >> n) | (x << (64 - n))
}

// rotl64 rotates a 64-bit word left by n bits.
func rotl64(x uint64, n uint) uint64 {
	return rotr64(x, 64-(n&63))
}

// rotl8 rotates a byte left by n bits, n taken modulo 8. Used by the S-box's
// affine transforms, masked and plain.
func rotl8(x byte, n uint) byte {
	n &= 7
	if n == 0 {
		return x
	}
	return (x << n) | (x >> (8 - n))
}

// xtime doubles a in GF(2^8) under the AES reduction polynomial
// x^8+x^4+x^3+x+1 (0x11B), branchlessly: xtime(a) = ((a<<1)&0xFF) ^
// ((-(a>>7))&0x1B).
func xtime(a byte) byte {
	hi := a >> 7
	return (a << 1) ^ (-hi & 0x1B)
}

// gfMul multiplies two GF(2^8) elements via the shift-and-add ladder used
// throughout AES (MixColumns' coefficients, and the masked inversion's
// constant-time multiplier in aes_block_masked.go).
func gfMul(x, y byte) byte {
	var out byte
	for i := 0; i < 8; i++ {
		if y&1 != 0 {
			out ^= x
		}
		hiBit := x & 0x80
		x <<= 1
		if hiBit != 0 {
			x ^= 0x1B
		}
		y >>= 1
	}
	return out
}

// beBytes32 writes x to a freshly allocated 4-byte big-endian buffer, the
// byte order used throughout the KDF and every AES-lane conversion in this
// package.
func beBytes32(x uint32) [4]byte {
	return [4]byte{byte(x >> 24), byte(x >> 16), byte(x >> 8), byte(x)}
}

// beBytes64 writes x to a freshly allocated 8-byte big-endian buffer.
func beBytes64(x uint64) [8]byte {
	return [8]byte{
		byte(x >> 56), byte(x >> 48), byte(x >> 40), byte(x >> 32),
		byte(x >> 24), byte(x >> 16), byte(x >> 8), byte(x),
	}
}

// beUint32 reads a big-endian uint32 from the first 4 bytes of b,
// right-zero-padding short input.
func beUint32(b []byte) uint32 {
	var buf [4]byte
	copy(buf[:], b)
	return uint32(buf[0])<<24 | uint32(buf[1])<<16 | uint32(buf[2])<<8 | uint32(buf[3])
}

// beUint64 reads a big-endian uint64 from the first 8 bytes of b,
// right-zero-padding short input.
func beUint64(b []byte) uint64 {
	var buf [8]byte
	copy(buf[:], b)
	var x uint64
	for _, c := range buf {
		x = x<<8 | uint64(c)
	}
	return x
}

// chunkWordsBE32 (and chunkWordsBE64 below) splits data into n big-endian
// 4-byte (8-byte) words, right-zero-padding the final chunk and
// truncating any excess — the
// padding/truncation rule the constructor uses to turn an arbitrary-length
// key, nonce, or context string into a fixed-size word vector.
func chunkWordsBE32(data []byte, n int) []uint32 {
	out := make([]uint32, n)
	for i := 0; i < n; i++ {
		lo := i * 4
		hi := lo + 4
		if lo >= len(data) {
			continue
		}
		if hi > len(data) {
			hi = len(data)
		}
		out[i] = beUint32(data[lo:hi])
	}
	return out
}

func chunkWordsBE64(data []byte, n int) []uint64 {
	out := make([]uint64, n)
	for i := 0; i < n; i++ {
		lo := i * 8
		hi := lo + 8
		if lo >= len(data) {
			continue
		}
		if hi > len(data) {
			hi = len(data)
		}
		out[i] = beUint64(data[lo:hi])
	}
	return out
}
