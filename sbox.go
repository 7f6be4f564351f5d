// sbox.go - AES S-box tables (C2)
//
// ENC and DEC are generated once from the canonical AES affine-over-GF(2^8)
// inverse construction rather than hand-transcribed, so the plain S-box and
// the masked variant's affine(gfInv(x)) decomposition in aes_block_masked.go
// share one source of truth.
package aesblake

// ENC is the forward AES S-box: ENC[x] = affine(inverse(x)) in GF(2^8).
var ENC [256]byte

// DEC is the inverse AES S-box: DEC[ENC[x]] == x for all x.
var DEC [256]byte

func init() {
	for x := 0; x < 256; x++ {
		ENC[x] = sboxForward(byte(x))
	}
	for x := 0; x < 256; x++ {
		DEC[ENC[x]] = byte(x)
	}
}

// gfInverse returns a^254 in GF(2^8) (a^-1 for a != 0; 0 maps to 0), using
// the same addition-chain shape as the masked variant's constant-time
// inversion in aes_block_masked.go — spelled out here over plain bytes.
func gfInverse(a byte) byte {
	if a == 0 {
		return 0
	}
	a2 := gfMul(a, a)
	a4 := gfMul(a2, a2)
	a8 := gfMul(a4, a4)
	a16 := gfMul(a8, a8)
	a32 := gfMul(a16, a16)
	a64 := gfMul(a32, a32)
	a128 := gfMul(a64, a64)
	a192 := gfMul(a128, a64)
	a224 := gfMul(a192, a32)
	a240 := gfMul(a224, a16)
	a248 := gfMul(a240, a8)
	a252 := gfMul(a248, a4)
	a254 := gfMul(a252, a2)
	return a254
}

// sboxAffine applies the AES forward affine transform:
// y = x ^ rotl(x,1) ^ rotl(x,2) ^ rotl(x,3) ^ rotl(x,4) ^ 0x63.
func sboxAffine(x byte) byte {
	return x ^ rotl8(x, 1) ^ rotl8(x, 2) ^ rotl8(x, 3) ^ rotl8(x, 4) ^ 0x63
}

// sboxForward computes the forward AES S-box entry for x.
func sboxForward(x byte) byte {
	return sboxAffine(gfInverse(x))
}

// sub(sbox, b) looks up byte b through the given 256-entry table, shared by
// every tier's AES round engine.
func sub(sbox *[256]byte, b byte) byte {
	return sbox[b]
}
