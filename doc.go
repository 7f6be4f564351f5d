// Package aesblake implements AES-Blake, a from-scratch authenticated
// encryption construction that drives parallel AES-128 lanes with a
// BLAKE-style keyed compression function, closing with a checksum-based
// authentication tag.
//
// # Overview
//
// Two tiers are provided: AESBlake256 (two lanes, 32-byte tag) and
// AESBlake512 (four lanes, 64-byte tag). Each tier has a plain variant and
// a first-order boolean-masked variant resistant to simple power/EM
// side-channel analysis.
//
// Round keys for every AES-128 lane are derived from (key, nonce, context)
// by a dedicated key-derivation function built on a BLAKE-style keyed
// compression permutation, re-run once per group of blocks at a distinct
// block counter. Between AES rounds, lanes exchange state columns so every
// output byte depends on every lane's input, not just its own.
//
// # Basic Usage
//
//	c := aesblake.New256(key, nonce, context)
//	ciphertext, tag, err := c.Encrypt(plaintext, header)
//	if err != nil {
//	    panic(err)
//	}
//	recovered, err := c.Decrypt(ciphertext, header, tag)
//
// Password-based construction derives key/nonce/context via Argon2id:
//
//	c, material, err := aesblake.New256FromPassword(
//	    []byte("correct horse battery staple"), nil, aesblake.DefaultArgon2idParams())
//
// The masked variant takes an explicit masking order and random source:
//
//	mc := aesblake.New256Masked(key, nonce, context, 1, aesblake.NewCryptoRandSource())
//
// # Security Considerations
//
// Protected against:
//   - Tampering with ciphertext, header, or tag (authenticated encryption)
//   - Known-plaintext and chosen-plaintext attacks under a fixed
//     (key, nonce, context) triple
//   - First-order power/EM side-channel leakage, when using the masked
//     variant with a properly entropic RandSource
//
// Not protected against:
//   - Nonce reuse under a fixed key (the caller owns nonce uniqueness)
//   - Side-channel leakage beyond first order
//   - Memory disclosure of live key material or unmasked intermediate state
//   - Key exchange or key management — this package only consumes key
//     material, it does not negotiate or store it
//
// # Wire Format
//
// Envelope serializes a tier tag, an optional Argon2id salt, the
// associated-data header, and the ciphertext/tag pair into one
// self-describing blob:
//   - Magic bytes (4 bytes): "ABLK" (0x41424C4B)
//   - Version (1 byte)
//   - Tier (1 byte)
//   - Salt size (2 bytes) + salt (variable)
//   - Header size (4 bytes) + header (variable)
//   - Tag size (2 bytes) + tag (variable)
//   - Ciphertext (remaining bytes)
//
// # Performance
//
// The plain variant's AES rounds use a from-scratch round engine rather
// than AES-NI, so throughput is well below crypto/aes's hardware-backed
// path; the masked variant is substantially slower still, since every
// nonlinear step routes through the DOM-independent masking gadget instead
// of a table lookup. EncryptParallel/DecryptParallel recover throughput on
// large inputs by processing independent groups across a worker pool.
package aesblake
