// checksum.go - running group checksum accumulator (C6)
package aesblake

// Checksum accumulates a 16-byte running XOR across a sequence of AES
// blocks, used to fold every plaintext/header/ciphertext chunk in a lane
// into the final authentication tag.
type Checksum struct {
	state [16]byte
}

// XorWith folds data into the checksum state byte by byte.
func (c *Checksum) XorWith(data [16]byte) {
	for i := range c.state {
		c.state[i] ^= data[i]
	}
}

// State returns the current accumulated value.
func (c *Checksum) State() [16]byte { return c.state }

// createChecksums returns n fresh, zero-initialized checksums, one per
// lane of a tier.
func createChecksums(n int) []Checksum {
	return make([]Checksum, n)
}

// MaskedChecksum is structurally identical to Checksum but every byte is
// a masked u8, so no running total is ever held in the clear.
type MaskedChecksum struct {
	state [16]MaskedUint[byte]
}

// newMaskedChecksum returns a checksum masked at the given order, with
// every byte initialized to a fresh masking of zero.
func newMaskedChecksum(order int, rnd RandSource) MaskedChecksum {
	var c MaskedChecksum
	for i := range c.state {
		c.state[i] = NewMaskedUint[byte](0, MaskBoolean, order, 8, rnd)
	}
	return c
}

// XorWith folds a masked 16-byte block into the checksum state share-wise.
func (c *MaskedChecksum) XorWith(data [16]MaskedUint[byte]) error {
	for i := range c.state {
		out, err := c.state[i].XOR(data[i])
		if err != nil {
			return err
		}
		c.state[i] = out
	}
	return nil
}

// State returns the live masked bytes.
func (c *MaskedChecksum) State() [16]MaskedUint[byte] { return c.state }

func createMaskedChecksums(n, order int, rnd RandSource) []MaskedChecksum {
	out := make([]MaskedChecksum, n)
	for i := range out {
		out[i] = newMaskedChecksum(order, rnd)
	}
	return out
}
