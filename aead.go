// aead.go - plain AEAD driver (C7)
//
// Cipher orchestrates the group loop: derive round keys per group from the
// keyed BLAKE state, drive the cooperative AES rounds across all lanes of
// a group with a column exchange at each yield point, and fold every
// group into running checksums that become the authentication tag.
package aesblake

import "crypto/subtle"

// Cipher is a plain (unmasked) AES-Blake instance at a fixed tier.
type Cipher struct {
	tier TierName
	kg32 *keygen[uint32]
	kg64 *keygen[uint64]
}

// New256 constructs an AESBlake256 cipher (32-bit words, 2 lanes, 32-byte
// tag) from key, nonce, and context byte strings of any length.
func New256(key, nonce, context []byte) *Cipher {
	return &Cipher{tier: Tier256, kg32: newKeygen32(key, nonce, context)}
}

// New512 constructs an AESBlake512 cipher (64-bit words, 4 lanes, 64-byte
// tag) from key, nonce, and context byte strings of any length.
func New512(key, nonce, context []byte) *Cipher {
	return &Cipher{tier: Tier512, kg64: newKeygen64(key, nonce, context)}
}

// Tier reports which tier this cipher instance was constructed at.
func (c *Cipher) Tier() TierName { return c.tier }

func (c *Cipher) lanes() int { return c.tier.Lanes() }

func (c *Cipher) deriveRoundKeys(blockCounter uint64, domain Domain) [][aesRounds][16]byte {
	return deriveRoundKeysFor(c.tier, c.kg32, c.kg64, blockCounter, domain)
}

// deriveRoundKeysFor is the tier-dispatching core of derive_keys, shared
// by the plain and masked ciphers: the masked cipher derives the same
// plain round-key bytes and then masks each one independently.
func deriveRoundKeysFor(tier TierName, kg32 *keygen[uint32], kg64 *keygen[uint64], blockCounter uint64, domain Domain) [][aesRounds][16]byte {
	n := tier.Lanes()
	out := make([][aesRounds][16]byte, n)
	if tier == Tier256 {
		lanes := deriveKeys(kg32, aesRounds, blockCounter, domain, extractTier256)
		for i, l := range lanes {
			copy(out[i][:], l)
		}
		return out
	}
	lanes := deriveKeys(kg64, aesRounds, blockCounter, domain, extractTier512)
	for i, l := range lanes {
		copy(out[i][:], l)
	}
	return out
}

func chunkBlocks(data []byte) [][16]byte {
	out := make([][16]byte, len(data)/16)
	for i := range out {
		copy(out[i][:], data[i*16:i*16+16])
	}
	return out
}

// runEncryptionRounds drives the forward cooperative round sequence for
// one group of N chunks, exchanging columns across lanes at every yield.
func runEncryptionRounds(tier TierName, roundKeys [][aesRounds][16]byte, group [][16]byte) [][16]byte {
	n := len(group)
	blocks := make([]*Block, n)
	for i := range blocks {
		blocks[i] = NewBlock(roundKeys[i])
		blocks[i].Load(group[i])
	}
	pattern := patternFor(tier, false)
	for !blocks[0].Done() {
		states := make([][16]byte, n)
		needExchange := false
		for i, b := range blocks {
			needExchange = b.Step()
			states[i] = b.State()
		}
		if needExchange {
			next := exchangeColumns(states, pattern)
			for i, b := range blocks {
				b.SetState(next[i])
			}
		}
	}
	out := make([][16]byte, n)
	for i, b := range blocks {
		out[i] = b.State()
	}
	return out
}

// runDecryptionRounds mirrors runEncryptionRounds for the reverse sequence.
func runDecryptionRounds(tier TierName, roundKeys [][aesRounds][16]byte, group [][16]byte) [][16]byte {
	n := len(group)
	blocks := make([]*InvBlock, n)
	for i := range blocks {
		blocks[i] = NewInvBlock(roundKeys[i])
		blocks[i].Load(group[i])
	}
	pattern := patternFor(tier, true)
	for !blocks[0].Done() {
		states := make([][16]byte, n)
		needExchange := false
		for i, b := range blocks {
			needExchange = b.Step()
			states[i] = b.State()
		}
		if needExchange {
			next := exchangeColumns(states, pattern)
			for i, b := range blocks {
				b.SetState(next[i])
			}
		}
	}
	out := make([][16]byte, n)
	for i, b := range blocks {
		out[i] = b.State()
	}
	return out
}

// Encrypt encrypts plaintext under header as associated data and returns
// the ciphertext and its authentication tag. len(plaintext) and
// len(header) must each be a multiple of the tier's group size.
func (c *Cipher) Encrypt(plaintext, header []byte) (ciphertext, tag []byte, err error) {
	groupBytes := c.tier.GroupBytes()
	if err := validateGroupLength("plaintext", plaintext, groupBytes); err != nil {
		return nil, nil, err
	}
	if err := validateGroupLength("header", header, groupBytes); err != nil {
		return nil, nil, err
	}

	n := c.lanes()
	blockCounter := uint64(0)
	plaintextChk := createChecksums(n)
	chunks := chunkBlocks(plaintext)
	ciphertext = make([]byte, 0, len(plaintext))

	for g := 0; g < len(chunks); g += n {
		group := chunks[g : g+n]
		rk := c.deriveRoundKeys(blockCounter, DomainMSG)
		out := runEncryptionRounds(c.tier, rk, group)
		for _, ob := range out {
			ciphertext = append(ciphertext, ob[:]...)
		}
		for k := 0; k < n; k++ {
			plaintextChk[k].XorWith(group[k])
		}
		blockCounter++
	}

	tag = c.computeAuthTag(header, plaintextChk, &blockCounter)
	return ciphertext, tag, nil
}

// Decrypt recovers plaintext from ciphertext under header, verifying tag
// in constant time and failing with ErrAuthFailure on mismatch.
func (c *Cipher) Decrypt(ciphertext, header, tag []byte) ([]byte, error) {
	groupBytes := c.tier.GroupBytes()
	if err := validateGroupLength("ciphertext", ciphertext, groupBytes); err != nil {
		return nil, err
	}
	if err := validateGroupLength("header", header, groupBytes); err != nil {
		return nil, err
	}
	if len(tag) != c.tier.TagBytes() {
		return nil, NewValidationError("tag", len(tag), "tag length does not match tier")
	}

	n := c.lanes()
	blockCounter := uint64(0)
	plaintextChk := createChecksums(n)
	chunks := chunkBlocks(ciphertext)
	plaintext := make([]byte, 0, len(ciphertext))

	for g := 0; g < len(chunks); g += n {
		group := chunks[g : g+n]
		rk := c.deriveRoundKeys(blockCounter, DomainMSG)
		out := runDecryptionRounds(c.tier, rk, group)
		for _, ob := range out {
			plaintext = append(plaintext, ob[:]...)
		}
		for k := 0; k < n; k++ {
			plaintextChk[k].XorWith(out[k])
		}
		blockCounter++
	}

	computed := c.computeAuthTag(header, plaintextChk, &blockCounter)
	if subtle.ConstantTimeCompare(computed, tag) != 1 {
		return nil, NewAuthenticationError(c.tier.String())
	}
	return plaintext, nil
}

// computeAuthTag folds the header into a second set of checksums, then
// folds the message checksum itself through one more AES group under the
// CHK domain, and combines the two. blockCounter is reset to zero once
// the tag is computed, so every Encrypt/Decrypt call starts from a clean
// counter regardless of call order.
func (c *Cipher) computeAuthTag(header []byte, plaintextChk []Checksum, blockCounter *uint64) []byte {
	n := c.lanes()
	headerChk := createChecksums(n)
	hchunks := chunkBlocks(header)

	for g := 0; g < len(hchunks); g += n {
		group := hchunks[g : g+n]
		rk := c.deriveRoundKeys(*blockCounter, DomainHDR)
		out := runEncryptionRounds(c.tier, rk, group)
		for k := 0; k < n; k++ {
			headerChk[k].XorWith(out[k])
		}
		*blockCounter++
	}

	chkGroup := make([][16]byte, n)
	for k := 0; k < n; k++ {
		chkGroup[k] = plaintextChk[k].State()
	}
	rk := c.deriveRoundKeys(*blockCounter, DomainCHK)
	out := runEncryptionRounds(c.tier, rk, chkGroup)

	tag := make([]byte, 0, n*16)
	for k := 0; k < n; k++ {
		hs := headerChk[k].State()
		var t [16]byte
		for i := range t {
			t[i] = out[k][i] ^ hs[i]
		}
		tag = append(tag, t[:]...)
	}
	*blockCounter = 0
	return tag
}
