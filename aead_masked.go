// aead_masked.go - first-order boolean-masked AEAD driver (C7, masked)
//
// MaskedCipher mirrors Cipher exactly in structure: the same group loop,
// the same domain-separated round-key derivation, the same checksum fold.
// The only difference is that every byte that ever depends on plaintext,
// header, or the running checksum lives as a MaskedUint[byte] from the
// moment it enters a lane to the moment it leaves one; round keys are
// derived in the clear (they depend only on key/nonce/context, which are
// not the asset the masking protects) and then masked fresh per group so
// the AES round engine never computes on an unmasked byte that depends on
// the input stream.
package aesblake

import "crypto/subtle"

// MaskedCipher is a first-order masked AES-Blake instance at a fixed tier.
type MaskedCipher struct {
	tier  TierName
	kg32  *keygen[uint32]
	kg64  *keygen[uint64]
	order int
	rnd   RandSource
}

// New256Masked constructs a masked AESBlake256 cipher. rnd defaults to
// CryptoRandSource when nil.
func New256Masked(key, nonce, context []byte, order int, rnd RandSource) *MaskedCipher {
	if rnd == nil {
		rnd = NewCryptoRandSource()
	}
	return &MaskedCipher{tier: Tier256, kg32: newKeygen32(key, nonce, context), order: order, rnd: rnd}
}

// New512Masked constructs a masked AESBlake512 cipher. rnd defaults to
// CryptoRandSource when nil.
func New512Masked(key, nonce, context []byte, order int, rnd RandSource) *MaskedCipher {
	if rnd == nil {
		rnd = NewCryptoRandSource()
	}
	return &MaskedCipher{tier: Tier512, kg64: newKeygen64(key, nonce, context), order: order, rnd: rnd}
}

// NewMaskedFromConfig builds a masked cipher from a Config plus key
// material, validating the configuration first.
func NewMaskedFromConfig(cfg Config, key, nonce, context []byte) (*MaskedCipher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rnd := cfg.RandSource
	if rnd == nil {
		rnd = NewCryptoRandSource()
	}
	if cfg.Tier == Tier256 {
		return New256Masked(key, nonce, context, cfg.Order, rnd), nil
	}
	return New512Masked(key, nonce, context, cfg.Order, rnd), nil
}

// Tier reports which tier this cipher instance was constructed at.
func (c *MaskedCipher) Tier() TierName { return c.tier }

func (c *MaskedCipher) lanes() int { return c.tier.Lanes() }

// deriveMaskedRoundKeys derives the same plain round-key bytes derive_keys
// would produce for an unmasked cipher, then masks each byte independently
// with fresh randomness: the round keys are public to the lane's own
// computation (they depend only on key/nonce/context/counter/domain), but
// masking them too keeps every operand in the round engine at a uniform
// masked representation, so no Step ever mixes a masked and an unmasked
// byte.
func (c *MaskedCipher) deriveMaskedRoundKeys(blockCounter uint64, domain Domain) [][aesRounds][16]MaskedUint[byte] {
	plain := deriveRoundKeysFor(c.tier, c.kg32, c.kg64, blockCounter, domain)
	out := make([][aesRounds][16]MaskedUint[byte], len(plain))
	for i, rk := range plain {
		for r := range rk {
			out[i][r] = maskBytes(rk[r], c.order, c.rnd)
		}
	}
	return out
}

// maskBytes masks each byte of a 16-byte block independently, consuming
// 16*order random bytes from rnd.
func maskBytes(data [16]byte, order int, rnd RandSource) [16]MaskedUint[byte] {
	var out [16]MaskedUint[byte]
	for i, v := range data {
		out[i] = NewMaskedUint[byte](v, MaskBoolean, order, 8, rnd)
	}
	return out
}

// runMaskedEncryptionRounds drives the forward cooperative round sequence
// over already-masked input, mirroring runEncryptionRounds.
func runMaskedEncryptionRounds(tier TierName, roundKeys [][aesRounds][16]MaskedUint[byte], maskedGroup [][16]MaskedUint[byte], rnd RandSource) ([][16]MaskedUint[byte], error) {
	n := len(maskedGroup)
	blocks := make([]*MaskedBlock, n)
	for i := range blocks {
		blocks[i] = NewMaskedBlock(roundKeys[i])
		blocks[i].LoadMasked(maskedGroup[i])
	}
	pattern := patternFor(tier, false)
	for !blocks[0].Done() {
		states := make([][16]MaskedUint[byte], n)
		needExchange := false
		for i, b := range blocks {
			ex, err := b.Step(rnd)
			if err != nil {
				return nil, err
			}
			needExchange = ex
			states[i] = b.MaskedState()
		}
		if needExchange {
			next := exchangeColumnsMasked(states, pattern)
			for i, b := range blocks {
				b.SetMaskedState(next[i])
			}
		}
	}
	out := make([][16]MaskedUint[byte], n)
	for i, b := range blocks {
		out[i] = b.MaskedState()
	}
	return out, nil
}

// runMaskedDecryptionRounds mirrors runMaskedEncryptionRounds for the
// reverse sequence.
func runMaskedDecryptionRounds(tier TierName, roundKeys [][aesRounds][16]MaskedUint[byte], maskedGroup [][16]MaskedUint[byte], rnd RandSource) ([][16]MaskedUint[byte], error) {
	n := len(maskedGroup)
	blocks := make([]*MaskedInvBlock, n)
	for i := range blocks {
		blocks[i] = NewMaskedInvBlock(roundKeys[i])
		blocks[i].LoadMasked(maskedGroup[i])
	}
	pattern := patternFor(tier, true)
	for !blocks[0].Done() {
		states := make([][16]MaskedUint[byte], n)
		needExchange := false
		for i, b := range blocks {
			ex, err := b.Step(rnd)
			if err != nil {
				return nil, err
			}
			needExchange = ex
			states[i] = b.MaskedState()
		}
		if needExchange {
			next := exchangeColumnsMasked(states, pattern)
			for i, b := range blocks {
				b.SetMaskedState(next[i])
			}
		}
	}
	out := make([][16]MaskedUint[byte], n)
	for i, b := range blocks {
		out[i] = b.MaskedState()
	}
	return out, nil
}

// Encrypt encrypts plaintext under header as associated data, masking
// every plaintext, header, and checksum byte before it ever reaches the
// round engine. Only the ciphertext bytes and the final tag are unmasked,
// at the last possible step.
func (c *MaskedCipher) Encrypt(plaintext, header []byte) (ciphertext, tag []byte, err error) {
	groupBytes := c.tier.GroupBytes()
	if err := validateGroupLength("plaintext", plaintext, groupBytes); err != nil {
		return nil, nil, err
	}
	if err := validateGroupLength("header", header, groupBytes); err != nil {
		return nil, nil, err
	}

	n := c.lanes()
	blockCounter := uint64(0)
	plaintextChk := createMaskedChecksums(n, c.order, c.rnd)
	chunks := chunkBlocks(plaintext)
	ciphertext = make([]byte, 0, len(plaintext))

	for g := 0; g < len(chunks); g += n {
		group := chunks[g : g+n]
		rk := c.deriveMaskedRoundKeys(blockCounter, DomainMSG)
		maskedGroup := make([][16]MaskedUint[byte], n)
		for k := 0; k < n; k++ {
			maskedGroup[k] = maskBytes(group[k], c.order, c.rnd)
		}
		out, err := runMaskedEncryptionRounds(c.tier, rk, maskedGroup, c.rnd)
		if err != nil {
			return nil, nil, err
		}
		for k := 0; k < n; k++ {
			var ob [16]byte
			for i, v := range out[k] {
				ob[i] = v.Unmask()
			}
			ciphertext = append(ciphertext, ob[:]...)
			if err := plaintextChk[k].XorWith(maskedGroup[k]); err != nil {
				return nil, nil, err
			}
		}
		blockCounter++
	}

	tag, err = c.computeAuthTag(header, plaintextChk, &blockCounter)
	if err != nil {
		return nil, nil, err
	}
	return ciphertext, tag, nil
}

// Decrypt recovers plaintext from ciphertext under header, verifying tag
// in constant time and failing with ErrAuthFailure on mismatch.
func (c *MaskedCipher) Decrypt(ciphertext, header, tag []byte) ([]byte, error) {
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
	plaintextChk := createMaskedChecksums(n, c.order, c.rnd)
	chunks := chunkBlocks(ciphertext)
	plaintext := make([]byte, 0, len(ciphertext))

	for g := 0; g < len(chunks); g += n {
		group := chunks[g : g+n]
		rk := c.deriveMaskedRoundKeys(blockCounter, DomainMSG)
		maskedGroup := make([][16]MaskedUint[byte], n)
		for k := 0; k < n; k++ {
			maskedGroup[k] = maskBytes(group[k], c.order, c.rnd)
		}
		out, err := runMaskedDecryptionRounds(c.tier, rk, maskedGroup, c.rnd)
		if err != nil {
			return nil, err
		}
		for k := 0; k < n; k++ {
			var pb [16]byte
			for i, v := range out[k] {
				pb[i] = v.Unmask()
			}
			plaintext = append(plaintext, pb[:]...)
			if err := plaintextChk[k].XorWith(out[k]); err != nil {
				return nil, err
			}
		}
		blockCounter++
	}

	computed, err := c.computeAuthTag(header, plaintextChk, &blockCounter)
	if err != nil {
		return nil, err
	}
	if subtle.ConstantTimeCompare(computed, tag) != 1 {
		return nil, NewAuthenticationError(c.tier.String())
	}
	return plaintext, nil
}

// computeAuthTag mirrors Cipher.computeAuthTag, masking the header chunks
// and driving the checksum's own AES group under the CHK domain entirely
// in the masked domain; only the combined tag bytes are unmasked, at the
// very last step before they leave the function.
func (c *MaskedCipher) computeAuthTag(header []byte, plaintextChk []MaskedChecksum, blockCounter *uint64) ([]byte, error) {
	n := c.lanes()
	headerChk := createMaskedChecksums(n, c.order, c.rnd)
	hchunks := chunkBlocks(header)

	for g := 0; g < len(hchunks); g += n {
		group := hchunks[g : g+n]
		rk := c.deriveMaskedRoundKeys(*blockCounter, DomainHDR)
		maskedGroup := make([][16]MaskedUint[byte], n)
		for k := 0; k < n; k++ {
			maskedGroup[k] = maskBytes(group[k], c.order, c.rnd)
		}
		out, err := runMaskedEncryptionRounds(c.tier, rk, maskedGroup, c.rnd)
		if err != nil {
			return nil, err
		}
		for k := 0; k < n; k++ {
			if err := headerChk[k].XorWith(out[k]); err != nil {
				return nil, err
			}
		}
		*blockCounter++
	}

	chkGroup := make([][16]MaskedUint[byte], n)
	for k := 0; k < n; k++ {
		chkGroup[k] = plaintextChk[k].State()
	}
	rk := c.deriveMaskedRoundKeys(*blockCounter, DomainCHK)
	out, err := runMaskedEncryptionRounds(c.tier, rk, chkGroup, c.rnd)
	if err != nil {
		return nil, err
	}

	tag := make([]byte, 0, n*16)
	for k := 0; k < n; k++ {
		hs := headerChk[k].State()
		var t [16]byte
		for i := range t {
			combined, err := out[k][i].XOR(hs[i])
			if err != nil {
				return nil, err
			}
			t[i] = combined.Unmask()
		}
		tag = append(tag, t[:]...)
	}
	*blockCounter = 0
	return tag, nil
}
