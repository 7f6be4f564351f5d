package aesblake

import (
	"bytes"
	"encoding/hex"
	"testing"
)

func rangeBytes(start, end, step int) []byte {
	out := make([]byte, 0, (end-start+step-1)/step)
	for i := start; i < end; i += step {
		out = append(out, byte(i))
	}
	return out
}

// TestAESBlake256ReferenceVector reproduces reference vector V1: the
// ciphertext's leading bytes and the full authentication tag must match
// the specification's seeded values exactly.
func TestAESBlake256ReferenceVector(t *testing.T) {
	key, _ := hex.DecodeString("3ACCABE8119ECD4FBF8550CCC48B67FD43B36240C924B4CCB2AC237647AC4A8E")
	nonce, _ := hex.DecodeString("69B9A59EF9FB34254EF734654B5CBAA4ED361722FF3D2F854779D7E12EB0A63C")
	context := rangeBytes(64, 192, 2)
	plaintext := rangeBytes(0, 128, 1)
	header := rangeBytes(128, 256, 1)

	c := New256(key, nonce, context)
	ciphertext, tag, err := c.Encrypt(plaintext, header)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	wantPrefix, _ := hex.DecodeString("FCB906CAA6DAAD1A")
	if !bytes.Equal(ciphertext[:len(wantPrefix)], wantPrefix) {
		t.Errorf("ciphertext prefix: got %X, want %X", ciphertext[:len(wantPrefix)], wantPrefix)
	}

	wantTag, _ := hex.DecodeString("743A5EFC11572DCBCC011607E4F1C1CEF26B0062C38667D757FE5034786E0A31")
	if !bytes.Equal(tag, wantTag) {
		t.Errorf("auth tag: got %X, want %X", tag, wantTag)
	}

	recovered, err := c.Decrypt(ciphertext, header, tag)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if !bytes.Equal(recovered, plaintext) {
		t.Errorf("round trip: got %X, want %X", recovered, plaintext)
	}
}

func testKNC(tier TierName) (key, nonce, context []byte) {
	key = bytes.Repeat([]byte{0x11}, 32)
	nonce = bytes.Repeat([]byte{0x22}, 32)
	context = bytes.Repeat([]byte{0x33}, 64)
	if tier == Tier512 {
		key = bytes.Repeat([]byte{0x11}, 64)
		nonce = bytes.Repeat([]byte{0x22}, 64)
		context = bytes.Repeat([]byte{0x33}, 128)
	}
	return key, nonce, context
}

func newCipher(t *testing.T, tier TierName) *Cipher {
	t.Helper()
	key, nonce, context := testKNC(tier)
	if tier == Tier256 {
		return New256(key, nonce, context)
	}
	return New512(key, nonce, context)
}

// TestRoundTrip checks testable property #1 across both tiers and several
// input sizes.
func TestRoundTrip(t *testing.T) {
	for _, tier := range []TierName{Tier256, Tier512} {
		t.Run(tier.String(), func(t *testing.T) {
			c := newCipher(t, tier)
			groupBytes := tier.GroupBytes()
			for _, groups := range []int{1, 2, 5} {
				plaintext := rangeBytes(0, groups*groupBytes, 1)
				header := rangeBytes(1, groups*groupBytes+1, 1)
				ciphertext, tag, err := c.Encrypt(plaintext, header)
				if err != nil {
					t.Fatalf("Encrypt: %v", err)
				}
				if len(ciphertext) != len(plaintext) {
					t.Errorf("length preservation: got %d, want %d", len(ciphertext), len(plaintext))
				}
				if len(tag) != tier.TagBytes() {
					t.Errorf("tag length: got %d, want %d", len(tag), tier.TagBytes())
				}
				recovered, err := c.Decrypt(ciphertext, header, tag)
				if err != nil {
					t.Fatalf("Decrypt: %v", err)
				}
				if !bytes.Equal(recovered, plaintext) {
					t.Errorf("round trip mismatch for %d groups", groups)
				}
			}
		})
	}
}

// TestTagSensitivity checks testable property #2: flipping the low bit of
// the first byte of the ciphertext, header, tag, key, nonce, or context
// must make decryption fail.
func TestTagSensitivity(t *testing.T) {
	c := newCipher(t, Tier256)
	plaintext := rangeBytes(0, 64, 1)
	header := rangeBytes(0, 32, 1)
	ciphertext, tag, err := c.Encrypt(plaintext, header)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	flip := func(b []byte, i int) []byte {
		out := append([]byte(nil), b...)
		out[i] ^= 0x01
		return out
	}

	if _, err := c.Decrypt(flip(ciphertext, 0), header, tag); err == nil {
		t.Error("flipped ciphertext byte did not cause AuthFailure")
	}
	if _, err := c.Decrypt(ciphertext, flip(header, 0), tag); err == nil {
		t.Error("flipped header byte did not cause AuthFailure")
	}
	if _, err := c.Decrypt(ciphertext, header, flip(tag, 0)); err == nil {
		t.Error("flipped tag byte did not cause AuthFailure")
	}

	key, nonce, context := testKNC(Tier256)
	flippedKeyCipher := New256(flip(key, 0), nonce, context)
	if _, err := flippedKeyCipher.Decrypt(ciphertext, header, tag); err == nil {
		t.Error("flipped key did not cause AuthFailure")
	}
	flippedNonceCipher := New256(key, flip(nonce, 0), context)
	if _, err := flippedNonceCipher.Decrypt(ciphertext, header, tag); err == nil {
		t.Error("flipped nonce did not cause AuthFailure")
	}
	flippedContextCipher := New256(key, nonce, flip(context, 0))
	if _, err := flippedContextCipher.Decrypt(ciphertext, header, tag); err == nil {
		t.Error("flipped context did not cause AuthFailure")
	}
}

// TestPlaintextNotReturnedOnAuthFailure checks §7: a failed decryption
// must not leak the partially reconstructed plaintext.
func TestPlaintextNotReturnedOnAuthFailure(t *testing.T) {
	c := newCipher(t, Tier256)
	plaintext := rangeBytes(0, 32, 1)
	header := rangeBytes(0, 32, 1)
	ciphertext, tag, err := c.Encrypt(plaintext, header)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	tag[0] ^= 0xFF
	got, err := c.Decrypt(ciphertext, header, tag)
	if err == nil {
		t.Fatal("expected AuthFailure, got nil error")
	}
	if got != nil {
		t.Errorf("plaintext leaked on auth failure: %X", got)
	}
}

// TestInvalidInputLengths checks that non-multiple-of-T lengths are
// rejected with InvalidInput rather than silently padded.
func TestInvalidInputLengths(t *testing.T) {
	c := newCipher(t, Tier256)
	if _, _, err := c.Encrypt(make([]byte, 31), make([]byte, 32)); err == nil {
		t.Error("expected InvalidInput for misaligned plaintext")
	}
	if _, _, err := c.Encrypt(make([]byte, 32), make([]byte, 33)); err == nil {
		t.Error("expected InvalidInput for misaligned header")
	}
}

// TestBlockCounterResetsAfterCall checks testable property #4 indirectly:
// two consecutive Encrypt calls on the same cipher must produce identical
// ciphertext/tag for identical inputs, which only holds if block_counter
// is reset to zero at the end of every call.
func TestBlockCounterResetsAfterCall(t *testing.T) {
	c := newCipher(t, Tier512)
	plaintext := rangeBytes(0, 128, 1)
	header := rangeBytes(0, 64, 1)

	ct1, tag1, err := c.Encrypt(plaintext, header)
	if err != nil {
		t.Fatalf("Encrypt #1: %v", err)
	}
	ct2, tag2, err := c.Encrypt(plaintext, header)
	if err != nil {
		t.Fatalf("Encrypt #2: %v", err)
	}
	if !bytes.Equal(ct1, ct2) {
		t.Error("ciphertext differs between calls; block_counter was not reset")
	}
	if !bytes.Equal(tag1, tag2) {
		t.Error("tag differs between calls; block_counter was not reset")
	}
}

// TestEncryptParallelMatchesSequential checks that the worker-pool group
// loop produces byte-identical output to the sequential path.
func TestEncryptParallelMatchesSequential(t *testing.T) {
	c := newCipher(t, Tier256)
	plaintext := rangeBytes(0, 32*8, 1)
	header := rangeBytes(0, 32*8, 1)

	seqCT, seqTag, err := c.Encrypt(plaintext, header)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	cfg := DefaultParallelConfig()
	cfg.MinGroupsForParallel = 1
	parCT, parTag, err := c.EncryptParallel(plaintext, header, cfg)
	if err != nil {
		t.Fatalf("EncryptParallel: %v", err)
	}
	if !bytes.Equal(seqCT, parCT) {
		t.Error("parallel ciphertext differs from sequential")
	}
	if !bytes.Equal(seqTag, parTag) {
		t.Error("parallel tag differs from sequential")
	}

	plain, err := c.DecryptParallel(parCT, header, parTag, cfg)
	if err != nil {
		t.Fatalf("DecryptParallel: %v", err)
	}
	if !bytes.Equal(plain, plaintext) {
		t.Error("parallel decrypt did not recover plaintext")
	}
}
