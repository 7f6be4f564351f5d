package aesblake

import (
	"bytes"
	"testing"
)

func detRand(seed uint64) RandSource { return NewDeterministicRandSource(seed) }

// TestMaskUnmaskRoundTrip reproduces reference vector V6: for boolean and
// arithmetic domains, every order 1..10, unmask(construct(v)) == v, and the
// value survives RefreshMasks.
func TestMaskUnmaskRoundTrip(t *testing.T) {
	rnd := detRand(1)
	widths := []int{8, 32, 64}
	domains := []MaskDomain{MaskBoolean, MaskArithmetic}

	for _, bits := range widths {
		for _, domain := range domains {
			for order := 1; order <= 10; order++ {
				v := maskToBits(0xDEADBEEFCAFEBABE, bits)
				m := NewMaskedUint[uint64](v, domain, order, bits, rnd)
				if got := m.Unmask(); got != v {
					t.Fatalf("bits=%d domain=%v order=%d: unmask = %#x, want %#x", bits, domain, order, got, v)
				}
				m.RefreshMasks(rnd)
				if got := m.Unmask(); got != v {
					t.Fatalf("bits=%d domain=%v order=%d: unmask after refresh = %#x, want %#x", bits, domain, order, got, v)
				}
			}
		}
	}
}

// TestBtoaPreservesValueAndFlipsDomain checks that btoa preserves the
// unmasked value and switches the stored domain to arithmetic, the
// contract §4.3 requires (since atob's exact algorithm is left open).
func TestBtoaPreservesValueAndFlipsDomain(t *testing.T) {
	rnd := detRand(2)
	for order := 1; order <= 5; order++ {
		m := NewMaskedUint[uint32](0x1234, MaskBoolean, order, 32, rnd)
		a, err := m.btoa(rnd)
		if err != nil {
			t.Fatalf("btoa: %v", err)
		}
		if a.Domain != MaskArithmetic {
			t.Errorf("order %d: domain after btoa = %v, want arithmetic", order, a.Domain)
		}
		if a.Unmask() != m.Unmask() {
			t.Errorf("order %d: unmask after btoa = %#x, want %#x", order, a.Unmask(), m.Unmask())
		}
	}
}

func TestAtobPreservesValueAndFlipsDomain(t *testing.T) {
	rnd := detRand(3)
	for order := 1; order <= 5; order++ {
		m := NewMaskedUint[uint32](0x5678, MaskArithmetic, order, 32, rnd)
		b, err := m.atob(rnd)
		if err != nil {
			t.Fatalf("atob: %v", err)
		}
		if b.Domain != MaskBoolean {
			t.Errorf("order %d: domain after atob = %v, want boolean", order, b.Domain)
		}
		if b.Unmask() != m.Unmask() {
			t.Errorf("order %d: unmask after atob = %#x, want %#x", order, b.Unmask(), m.Unmask())
		}
	}
}

// TestMaskedXORDistributes checks unmask(x^y) == unmask(x)^unmask(y).
func TestMaskedXORDistributes(t *testing.T) {
	rnd := detRand(4)
	a := NewMaskedUint[uint32](0xAAAA5555, MaskBoolean, 3, 32, rnd)
	b := NewMaskedUint[uint32](0x0F0F0F0F, MaskBoolean, 3, 32, rnd)
	out, err := a.XOR(b)
	if err != nil {
		t.Fatalf("XOR: %v", err)
	}
	if want := a.Unmask() ^ b.Unmask(); out.Unmask() != want {
		t.Errorf("unmask(a^b) = %#x, want %#x", out.Unmask(), want)
	}
}

// TestMaskedANDDistributes checks unmask(x&y) == unmask(x)&unmask(y) via
// the DOM-independent gadget.
func TestMaskedANDDistributes(t *testing.T) {
	rnd := detRand(5)
	for order := 1; order <= 4; order++ {
		a := NewMaskedUint[uint32](0xAAAA5555, MaskBoolean, order, 32, rnd)
		b := NewMaskedUint[uint32](0x0F0F0F0F, MaskBoolean, order, 32, rnd)
		out, err := a.And(b, rnd)
		if err != nil {
			t.Fatalf("order %d: And: %v", order, err)
		}
		if want := a.Unmask() & b.Unmask(); out.Unmask() != want {
			t.Errorf("order %d: unmask(a&b) = %#x, want %#x", order, out.Unmask(), want)
		}
	}
}

func TestMaskedORDistributes(t *testing.T) {
	rnd := detRand(6)
	a := NewMaskedUint[uint32](0xAAAA5555, MaskBoolean, 2, 32, rnd)
	b := NewMaskedUint[uint32](0x0F0F0F0F, MaskBoolean, 2, 32, rnd)
	out, err := a.Or(b, rnd)
	if err != nil {
		t.Fatalf("Or: %v", err)
	}
	if want := a.Unmask() | b.Unmask(); out.Unmask() != want {
		t.Errorf("unmask(a|b) = %#x, want %#x", out.Unmask(), want)
	}
}

func TestMaskedArithmeticAddSubMul(t *testing.T) {
	rnd := detRand(7)
	a := NewMaskedUint[uint32](123456789, MaskArithmetic, 2, 32, rnd)
	b := NewMaskedUint[uint32](987654321, MaskArithmetic, 2, 32, rnd)

	sum, err := a.Add(b)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if want := a.Unmask() + b.Unmask(); sum.Unmask() != want {
		t.Errorf("unmask(a+b) = %d, want %d", sum.Unmask(), want)
	}

	diff, err := a.Sub(b)
	if err != nil {
		t.Fatalf("Sub: %v", err)
	}
	if want := a.Unmask() - b.Unmask(); diff.Unmask() != want {
		t.Errorf("unmask(a-b) = %d, want %d", diff.Unmask(), want)
	}

	prod, err := a.Mul(b, rnd)
	if err != nil {
		t.Fatalf("Mul: %v", err)
	}
	if want := a.Unmask() * b.Unmask(); prod.Unmask() != want {
		t.Errorf("unmask(a*b) = %d, want %d", prod.Unmask(), want)
	}
}

func TestMaskedIncompatibleOperandsRejected(t *testing.T) {
	rnd := detRand(8)
	bOrder1 := NewMaskedUint[uint32](1, MaskBoolean, 1, 32, rnd)
	bOrder2 := NewMaskedUint[uint32](1, MaskBoolean, 2, 32, rnd)
	if _, err := bOrder1.XOR(bOrder2); err == nil {
		t.Error("expected MaskingOrderMismatch for differing orders")
	}

	aArith := NewMaskedUint[uint32](1, MaskArithmetic, 1, 32, rnd)
	if _, err := bOrder1.XOR(aArith); err == nil {
		t.Error("expected MaskingDomainMismatch for boolean/arithmetic mix")
	}

	b8 := NewMaskedUint[uint32](1, MaskBoolean, 1, 8, rnd)
	if _, err := bOrder1.XOR(b8); err == nil {
		t.Error("expected MaskingWidthMismatch for differing bit widths")
	}
}

// TestMaskedAESBlockMatchesPlain checks that the masked AES round engine
// computes the exact same 16-byte output as the plain engine for matching
// inputs and round keys, across every order.
func TestMaskedAESBlockMatchesPlain(t *testing.T) {
	var keys [aesRounds][16]byte
	for r := range keys {
		for i := range keys[r] {
			keys[r][i] = byte(r*16 + i)
		}
	}
	var in [16]byte
	for i := range in {
		in[i] = byte(200 + i)
	}

	plainBlk := NewBlock(keys)
	plainBlk.Load(in)
	for !plainBlk.Done() {
		plainBlk.Step()
	}
	want := plainBlk.State()

	for order := 1; order <= 3; order++ {
		rnd := detRand(uint64(100 + order))
		var maskedKeys [aesRounds][16]MaskedUint[byte]
		for r := range keys {
			maskedKeys[r] = maskBytes(keys[r], order, rnd)
		}
		blk := NewMaskedBlock(maskedKeys)
		blk.Load(in, order, rnd)
		for !blk.Done() {
			if _, err := blk.Step(rnd); err != nil {
				t.Fatalf("order %d: Step: %v", order, err)
			}
		}
		got := blk.State()
		if got != want {
			t.Errorf("order %d: masked AES output = %X, want %X", order, got, want)
		}
	}
}

// TestMaskedCipherMatchesPlainCipher checks that the masked AEAD variant
// produces byte-identical ciphertext and tag to the plain variant under
// the same key material, since masking changes only the representation,
// never the value, of every intermediate byte.
func TestMaskedCipherMatchesPlainCipher(t *testing.T) {
	key, nonce, context := testKNC(Tier256)
	plaintext := rangeBytes(0, 64, 1)
	header := rangeBytes(0, 64, 1)

	plain := New256(key, nonce, context)
	wantCT, wantTag, err := plain.Encrypt(plaintext, header)
	if err != nil {
		t.Fatalf("plain Encrypt: %v", err)
	}

	masked := New256Masked(key, nonce, context, 2, detRand(42))
	gotCT, gotTag, err := masked.Encrypt(plaintext, header)
	if err != nil {
		t.Fatalf("masked Encrypt: %v", err)
	}

	if !bytes.Equal(gotCT, wantCT) {
		t.Errorf("masked ciphertext differs from plain: got %X, want %X", gotCT, wantCT)
	}
	if !bytes.Equal(gotTag, wantTag) {
		t.Errorf("masked tag differs from plain: got %X, want %X", gotTag, wantTag)
	}

	recovered, err := masked.Decrypt(gotCT, header, gotTag)
	if err != nil {
		t.Fatalf("masked Decrypt: %v", err)
	}
	if !bytes.Equal(recovered, plaintext) {
		t.Error("masked round trip did not recover plaintext")
	}
}
