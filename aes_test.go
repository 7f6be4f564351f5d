package aesblake

import (
	"bytes"
	"encoding/hex"
	"testing"
)

// TestAESFIPS197Vector checks the internal AES round engine against the
// standard FIPS-197 Appendix B test vector, independent of the rest of the
// AES-Blake construction: key schedule supplied externally as if it had
// been computed by the textbook AES-128 key expansion.
func TestAESFIPS197Vector(t *testing.T) {
	key, _ := hex.DecodeString("2b7e151628aed2a6abf7158809cf4f3c")
	plaintext, _ := hex.DecodeString("3243f6a8885a308d313198a2e0370734")
	want, _ := hex.DecodeString("3925841d02dc09fbdc118597196a0b32")

	roundKeys := fips197KeySchedule(key)
	blk := NewBlock(roundKeys)
	blk.Load([16]byte(plaintext))
	for !blk.Done() {
		blk.Step()
	}
	got := blk.State()
	if !bytes.Equal(got[:], want) {
		t.Fatalf("AES block mismatch:\ngot:  %x\nwant: %x", got, want)
	}
}

// fips197KeySchedule expands a 16-byte AES-128 key into the 11 round keys
// FIPS-197 defines, independently of derive_keys, purely to exercise C5's
// round engine against the standard in isolation.
func fips197KeySchedule(key []byte) [aesRounds][16]byte {
	var w [44][4]byte
	for i := 0; i < 4; i++ {
		copy(w[i][:], key[4*i:4*i+4])
	}
	rcon := []byte{0x01, 0x02, 0x04, 0x08, 0x10, 0x20, 0x40, 0x80, 0x1B, 0x36}
	for i := 4; i < 44; i++ {
		temp := w[i-1]
		if i%4 == 0 {
			temp = [4]byte{temp[1], temp[2], temp[3], temp[0]}
			for j := range temp {
				temp[j] = ENC[temp[j]]
			}
			temp[0] ^= rcon[i/4-1]
		}
		for j := range temp {
			w[i][j] = w[i-4][j] ^ temp[j]
		}
	}
	var out [aesRounds][16]byte
	for r := 0; r < aesRounds; r++ {
		for c := 0; c < 4; c++ {
			copy(out[r][4*c:4*c+4], w[4*r+c][:])
		}
	}
	return out
}

func TestSBoxInverse(t *testing.T) {
	for x := 0; x < 256; x++ {
		if DEC[ENC[x]] != byte(x) {
			t.Fatalf("DEC[ENC[%d]] = %d, want %d", x, DEC[ENC[x]], x)
		}
	}
}

func TestMixColumnsRoundTrip(t *testing.T) {
	state := [16]byte{0xd4, 0xe0, 0xb8, 0x1e, 0xbf, 0xb4, 0x41, 0x27, 0x5d, 0x52, 0x11, 0x98, 0x30, 0xae, 0xf1, 0xe5}
	orig := state
	mixColumns(&state)
	invMixColumns(&state)
	if state != orig {
		t.Fatalf("mix/inv-mix round trip failed: got %x, want %x", state, orig)
	}
}

func TestShiftRowsRoundTrip(t *testing.T) {
	var state [16]byte
	for i := range state {
		state[i] = byte(i)
	}
	orig := state
	shiftRows(&state)
	invShiftRows(&state)
	if state != orig {
		t.Fatalf("shift/inv-shift round trip failed: got %x, want %x", state, orig)
	}
}

func TestXtimeKnownValues(t *testing.T) {
	cases := []struct{ in, want byte }{
		{0x00, 0x00},
		{0x01, 0x02},
		{0x80, 0x1B},
		{0x53, 0xA6},
	}
	for _, c := range cases {
		if got := xtime(c.in); got != c.want {
			t.Errorf("xtime(%#x) = %#x, want %#x", c.in, got, c.want)
		}
	}
}
