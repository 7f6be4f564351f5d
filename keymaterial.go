// keymaterial.go - password-based derivation of key/nonce/context material
//
// AES-Blake's constructors take key, nonce, and context as arbitrary-length
// byte strings (C4 pads or truncates each to the tier's word count), so a
// password-based caller needs some way to turn one secret into three
// independent strings. This derives all three from a single Argon2id call
// by asking for wide enough output and slicing it, the same library and
// tuning knobs the rest of the package's password path uses.
package aesblake

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// Argon2idParams tunes the Argon2id password hash used to stretch a
// passphrase into key/nonce/context material. Defaults follow the
// draft RFC's recommended interactive parameters.
type Argon2idParams struct {
	// Memory is the memory cost in KiB.
	Memory uint32
	// Iterations is the number of passes over memory.
	Iterations uint32
	// Parallelism is the number of parallel lanes (threads).
	Parallelism uint8
	// SaltSize is the random salt length in bytes.
	SaltSize int
}

// DefaultArgon2idParams returns 64 MiB memory, 3 iterations, 4 lanes, and a
// 32-byte salt — interactive-use parameters suitable for encrypting data at
// rest under a user passphrase.
func DefaultArgon2idParams() Argon2idParams {
	return Argon2idParams{
		Memory:      64 * 1024,
		Iterations:  3,
		Parallelism: 4,
		SaltSize:    32,
	}
}

// Validate checks that every Argon2id tuning parameter is in a usable
// range.
func (p *Argon2idParams) Validate() error {
	if p.Memory < 8*p.uint32Parallelism() {
		return NewValidationError("Memory", p.Memory, "argon2id memory cost is too small for the requested parallelism")
	}
	if p.Iterations < 1 {
		return NewValidationError("Iterations", p.Iterations, "argon2id iteration count must be at least 1")
	}
	if p.Parallelism < 1 {
		return NewValidationError("Parallelism", p.Parallelism, "argon2id parallelism must be at least 1")
	}
	if p.SaltSize < 16 {
		return NewValidationError("SaltSize", p.SaltSize, "argon2id salt must be at least 16 bytes")
	}
	return nil
}

func (p *Argon2idParams) uint32Parallelism() uint32 { return uint32(p.Parallelism) }

// PasswordMaterial holds the key/nonce/context strings derived from a
// password, and the salt needed to reproduce them.
type PasswordMaterial struct {
	Salt    []byte
	Key     []byte
	Nonce   []byte
	Context []byte
}

// derivedKeyLen, derivedNonceLen, and derivedContextLen are generous enough
// to saturate every tier's word count before C4's padding/truncation rule
// ever has to pad: Tier512 wants 8 64-bit words (64 bytes) of key and of
// nonce, and 16 64-bit words (128 bytes) of context.
const (
	derivedKeyLen     = 64
	derivedNonceLen   = 64
	derivedContextLen = 128
)

// DeriveKeyMaterial stretches password with Argon2id under a fresh random
// salt (or the supplied salt, to reproduce a prior derivation) into
// independent key, nonce, and context strings wide enough for either tier.
func DeriveKeyMaterial(password, salt []byte, params Argon2idParams) (*PasswordMaterial, error) {
	if len(password) == 0 {
		return nil, NewValidationError("password", len(password), "password cannot be empty")
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	if salt == nil {
		salt = make([]byte, params.SaltSize)
		if _, err := rand.Read(salt); err != nil {
			return nil, fmt.Errorf("aesblake: generating salt: %w", err)
		}
	}

	total := derivedKeyLen + derivedNonceLen + derivedContextLen
	wide := argon2.IDKey(password, salt, params.Iterations, params.Memory, params.Parallelism, uint32(total))

	return &PasswordMaterial{
		Salt:    salt,
		Key:     wide[0:derivedKeyLen],
		Nonce:   wide[derivedKeyLen : derivedKeyLen+derivedNonceLen],
		Context: wide[derivedKeyLen+derivedNonceLen:],
	}, nil
}

// New256FromPassword derives key/nonce/context from password via Argon2id
// and constructs a plain AESBlake256 cipher.
func New256FromPassword(password, salt []byte, params Argon2idParams) (*Cipher, *PasswordMaterial, error) {
	m, err := DeriveKeyMaterial(password, salt, params)
	if err != nil {
		return nil, nil, err
	}
	return New256(m.Key, m.Nonce, m.Context), m, nil
}

// New512FromPassword derives key/nonce/context from password via Argon2id
// and constructs a plain AESBlake512 cipher.
func New512FromPassword(password, salt []byte, params Argon2idParams) (*Cipher, *PasswordMaterial, error) {
	m, err := DeriveKeyMaterial(password, salt, params)
	if err != nil {
		return nil, nil, err
	}
	return New512(m.Key, m.Nonce, m.Context), m, nil
}
