package aesblake

import (
	"bytes"
	"testing"
)

func TestMultiContextCipherFallbackDecrypt(t *testing.T) {
	key1, nonce1, context1 := testKNC(Tier256)
	key2, nonce2, context2 := bytes.Repeat([]byte{0x44}, 32), bytes.Repeat([]byte{0x55}, 32), bytes.Repeat([]byte{0x66}, 64)

	oldCipher := New256(key1, nonce1, context1)
	newCipher := New256(key2, nonce2, context2)

	plaintext := rangeBytes(0, 32, 1)
	header := rangeBytes(0, 32, 1)
	ciphertext, tag, err := oldCipher.Encrypt(plaintext, header)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	m, err := NewMultiContextCipher(newCipher, oldCipher)
	if err != nil {
		t.Fatalf("NewMultiContextCipher: %v", err)
	}

	recovered, err := m.Decrypt(ciphertext, header, tag)
	if err != nil {
		t.Fatalf("fallback Decrypt: %v", err)
	}
	if !bytes.Equal(recovered, plaintext) {
		t.Error("fallback decrypt did not recover plaintext encrypted under the non-primary cipher")
	}
}

func TestMultiContextCipherRotate(t *testing.T) {
	key1, nonce1, context1 := testKNC(Tier256)
	key2, nonce2, context2 := bytes.Repeat([]byte{0x77}, 32), bytes.Repeat([]byte{0x88}, 32), bytes.Repeat([]byte{0x99}, 64)

	oldCipher := New256(key1, nonce1, context1)
	newCipher := New256(key2, nonce2, context2)

	plaintext := rangeBytes(0, 32, 1)
	header := rangeBytes(0, 32, 1)
	ciphertext, tag, err := oldCipher.Encrypt(plaintext, header)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	m, err := NewMultiContextCipher(oldCipher)
	if err != nil {
		t.Fatalf("NewMultiContextCipher: %v", err)
	}

	var logged []string
	opts := RotationOptions{
		NewCipher: newCipher,
		Verbose:   true,
		Log: func(format string, args ...any) {
			logged = append(logged, format)
		},
	}

	newCT, newTag, err := m.Rotate(ciphertext, header, tag, opts)
	if err != nil {
		t.Fatalf("Rotate: %v", err)
	}
	if len(logged) != 2 {
		t.Errorf("expected 2 log lines from a rotation, got %d", len(logged))
	}

	recovered, err := newCipher.Decrypt(newCT, header, newTag)
	if err != nil {
		t.Fatalf("Decrypt under rotated cipher: %v", err)
	}
	if !bytes.Equal(recovered, plaintext) {
		t.Error("rotated ciphertext did not decrypt back to the original plaintext")
	}
}

func TestMultiContextCipherRequiresAtLeastOneCipher(t *testing.T) {
	if _, err := NewMultiContextCipher(); err == nil {
		t.Error("expected an error constructing a fallback chain with no ciphers")
	}
}
