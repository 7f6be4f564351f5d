// types.go - shared enumerations and configuration for AES-Blake
package aesblake

import "fmt"

// Domain separates derived key material by purpose, per the construction's
// domain-mask table. It is XORed into state[12..16] during init_state_vector
// so that round keys derived for the context digest, the message lanes, the
// header lanes, and the checksum lane can never collide.
type Domain uint8

const (
	// DomainCTX digests (key, nonce, context) into the keygen's resting state.
	DomainCTX Domain = iota
	// DomainMSG derives round keys for plaintext/ciphertext lanes.
	DomainMSG
	// DomainHDR derives round keys for associated-header lanes.
	DomainHDR
	// DomainCHK derives round keys for the final checksum-encryption lane.
	DomainCHK
)

func (d Domain) String() string {
	switch d {
	case DomainCTX:
		return "CTX"
	case DomainMSG:
		return "MSG"
	case DomainHDR:
		return "HDR"
	case DomainCHK:
		return "CHK"
	default:
		return "unknown domain"
	}
}

// maskU32 returns the 32-bit tier's domain mask, pinned to the values that
// reproduce the reference test vectors.
func (d Domain) maskU32() uint32 {
	switch d {
	case DomainMSG:
		return 0x00F0000F
	case DomainHDR:
		return 0x0F000F00
	case DomainCHK:
		return 0xF00F0000
	default:
		return 0
	}
}

// maskU64 returns the 64-bit tier's domain mask.
func (d Domain) maskU64() uint64 {
	switch d {
	case DomainMSG:
		return 0x0000FF00000000FF
	case DomainHDR:
		return 0x00FF000000FF0000
	case DomainCHK:
		return 0xFF0000FF00000000
	default:
		return 0
	}
}

// aesBlockBytes is L, the width of a single AES-128 lane (C5, C7).
const aesBlockBytes = 16

// aesRounds is the number of AES round-key slots derived per lane (10 AES
// rounds plus the initial whitening key).
const aesRounds = 11

// TierName identifies one of the two strength tiers.
type TierName uint8

const (
	// Tier256 is AESBlake256: 2 parallel lanes, a 32-byte tag.
	Tier256 TierName = iota
	// Tier512 is AESBlake512: 4 parallel lanes, a 64-byte tag.
	Tier512
)

func (t TierName) String() string {
	switch t {
	case Tier256:
		return "AESBlake256"
	case Tier512:
		return "AESBlake512"
	default:
		return "unknown tier"
	}
}

// Lanes returns N, the number of parallel AES-128 lanes in a group.
func (t TierName) Lanes() int {
	switch t {
	case Tier256:
		return 2
	case Tier512:
		return 4
	default:
		return 0
	}
}

// GroupBytes returns T = N*16, the tier's group size in bytes. Plaintext,
// ciphertext, and header lengths must be exact multiples of this.
func (t TierName) GroupBytes() int {
	return t.Lanes() * aesBlockBytes
}

// TagBytes returns N*16, the authentication tag length.
func (t TierName) TagBytes() int {
	return t.Lanes() * aesBlockBytes
}

// Config configures a masked AES-Blake cipher instance. The plain
// (unmasked) constructors New256/New512 take key/nonce/context directly and
// need no Config; Config exists for the masked variants, where a masking
// order and an injectable random source must also be supplied.
type Config struct {
	// Tier selects AESBlake256 or AESBlake512.
	Tier TierName

	// Order is the masking order for the masked variants: the number of
	// random masks per value (Order+1 shares). Order >= 1. Masking a value
	// draws Order random words, and every masked multiply draws
	// (Order+1)*Order/2, so randomness grows quadratically with Order.
	Order int

	// RandSource supplies fresh mask material. Defaults to
	// CryptoRandSource (backed by crypto/rand.Reader) when nil.
	RandSource RandSource
}

// Validate checks that the configuration is well-formed.
func (c *Config) Validate() error {
	if c == nil {
		return ErrNilConfig
	}
	if c.Tier != Tier256 && c.Tier != Tier512 {
		return NewValidationError("Tier", c.Tier, "unsupported tier")
	}
	if c.Order < 1 {
		return NewValidationError("Order", c.Order, "masking order must be at least 1")
	}
	return nil
}

// validateGroupLength checks that the byte slice length is a non-negative
// multiple of the tier's group size, returning *ValidationError wrapping
// ErrInvalidInput-shaped detail on failure.
func validateGroupLength(name string, data []byte, groupBytes int) error {
	if len(data)%groupBytes != 0 {
		return &ValidationError{
			Field:   name,
			Value:   len(data),
			Message: fmt.Sprintf("length %d is not a multiple of the tier block size %d", len(data), groupBytes),
			Err:     ErrInvalidInput,
		}
	}
	return nil
}
