// rotation.go - key-rotation fallback and re-encryption helpers
//
// AES-Blake has no filesystem layer of its own, so key rotation here means
// decrypting under whichever of a short list of (key, nonce, context)
// triples still authenticates a message, and re-encrypting under a fresh
// one. This adapts the teacher's MultiKeyProvider fallback-on-decrypt
// pattern and ReEncrypt helper to operate on ciphertext/tag pairs instead
// of filesystem entries.
package aesblake

import (
	"fmt"

	"github.com/google/uuid"
)

// MultiContextCipher tries a list of Cipher instances in order when
// decrypting, so data encrypted under a prior key/nonce/context can still
// be read while a rotation is in flight. The first cipher is used for all
// new encryptions.
type MultiContextCipher struct {
	ciphers []*Cipher
	primary *Cipher
}

// NewMultiContextCipher builds a fallback chain; ciphers[0] becomes the
// primary used for Encrypt.
func NewMultiContextCipher(ciphers ...*Cipher) (*MultiContextCipher, error) {
	if len(ciphers) == 0 {
		return nil, fmt.Errorf("aesblake: at least one cipher required")
	}
	return &MultiContextCipher{ciphers: ciphers, primary: ciphers[0]}, nil
}

// Encrypt always uses the primary (newest) cipher.
func (m *MultiContextCipher) Encrypt(plaintext, header []byte) (ciphertext, tag []byte, err error) {
	return m.primary.Encrypt(plaintext, header)
}

// Decrypt tries every cipher of the primary's tier in order, returning the
// plaintext from the first one that authenticates; ciphers of any other
// tier are skipped. Every candidate is tried even after an authentication
// failure, so a single corrupted triple doesn't block fallback to the next.
func (m *MultiContextCipher) Decrypt(ciphertext, header, tag []byte) ([]byte, error) {
	var lastErr error
	for _, c := range m.ciphers {
		if c.Tier() != m.primary.Tier() {
			continue
		}
		plaintext, err := c.Decrypt(ciphertext, header, tag)
		if err == nil {
			return plaintext, nil
		}
		lastErr = err
	}
	if lastErr != nil {
		return nil, fmt.Errorf("aesblake: no cipher in rotation chain authenticated: %w", lastErr)
	}
	return nil, ErrAuthFailure
}

// RotationOptions configures a re-encryption pass from one cipher to
// another.
type RotationOptions struct {
	// NewCipher re-encrypts the recovered plaintext. Required.
	NewCipher *Cipher

	// Verbose enables progress logging via a caller-supplied sink instead
	// of writing to stdout directly, so library callers control where
	// rotation progress goes.
	Verbose bool
	Log     func(format string, args ...any)
}

func (o *RotationOptions) log(format string, args ...any) {
	if o.Verbose && o.Log != nil {
		o.Log(format, args...)
	}
}

// Rotate decrypts ciphertext/tag under the first cipher in m's fallback
// chain that authenticates, then re-encrypts the recovered plaintext under
// opts.NewCipher. header is reused unchanged as associated data for the new
// ciphertext. Each call is tagged with a fresh UUID so a caller's log sink
// can correlate the decrypt-then-re-encrypt pair across a batch rotation,
// the same per-operation identifier the teacher assigns per encrypted
// filename.
func (m *MultiContextCipher) Rotate(ciphertext, header, tag []byte, opts RotationOptions) (newCiphertext, newTag []byte, err error) {
	if opts.NewCipher == nil {
		return nil, nil, fmt.Errorf("aesblake: RotationOptions.NewCipher is required")
	}
	rotationID := uuid.New()
	plaintext, err := m.Decrypt(ciphertext, header, tag)
	if err != nil {
		return nil, nil, fmt.Errorf("aesblake: rotation decrypt failed: %w", err)
	}
	opts.log("[%s] rotating %d bytes of plaintext to a new context", rotationID, len(plaintext))
	newCiphertext, newTag, err = opts.NewCipher.Encrypt(plaintext, header)
	if err != nil {
		return nil, nil, fmt.Errorf("aesblake: rotation re-encrypt failed: %w", err)
	}
	opts.log("[%s] rotation complete", rotationID)
	return newCiphertext, newTag, nil
}
