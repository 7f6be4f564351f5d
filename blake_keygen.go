// blake_keygen.go - BLAKE-style keyed compression and round-key derivation (C4)
//
// One generic core (parameterized over the word type, per the design
// notes' "tier trait parameterising word type, IVs, rotations, domain
// masks") serves both AESBlake256 (32-bit words, 2 lanes) and AESBlake512
// (64-bit words, 4 lanes); only the per-lane extraction function differs.
package aesblake

// tierConfig carries everything that differs between the 32-bit and
// 64-bit BLAKE instantiations: rotation schedule, IV tuple, and word width.
type tierConfig[T word] struct {
	bits       int
	r0, r1, r2, r3 uint
	iv         [8]T
}

var tier32Config = tierConfig[uint32]{
	bits: 32,
	r0:   16, r1: 12, r2: 8, r3: 7,
	iv: [8]uint32{
		0x6A09E667, 0xBB67AE85, 0x3C6EF372, 0xA54FF53A,
		0x510E527F, 0x9B05688C, 0x1F83D9AB, 0x5BE0CD19,
	},
}

var tier64Config = tierConfig[uint64]{
	bits: 64,
	r0:   32, r1: 24, r2: 16, r3: 63,
	iv: [8]uint64{
		0x6A09E667F3BCC908, 0xBB67AE8584CAA73B, 0x3C6EF372FE94F82B, 0xA54FF53A5F1D36F1,
		0x510E527FADE682D1, 0x9B05688C2B3E6C1F, 0x1F83D9ABFB41BD6B, 0x5BE0CD19137E2179,
	},
}

// msgSchedule is the fixed message permutation applied between BLAKE rounds.
var msgSchedule = [16]int{2, 6, 3, 10, 7, 0, 4, 13, 1, 11, 12, 5, 9, 14, 15, 8}

func rotr[T word](x T, n uint, bits int) T {
	if bits == 32 {
		return T(rotr32(uint32(x), n))
	}
	return T(rotr64(uint64(x), n))
}

// gMix is the BLAKE G function over state v at quarter-round indices
// (a,b,c,d), mixing in message words mx, my.
func gMix[T word](v *[16]T, a, b, c, d int, mx, my T, cfg tierConfig[T]) {
	v[a] = v[a] + v[b] + mx
	v[d] = rotr(v[d]^v[a], cfg.r0, cfg.bits)
	v[c] = v[c] + v[d]
	v[b] = rotr(v[b]^v[c], cfg.r1, cfg.bits)

	v[a] = v[a] + v[b] + my
	v[d] = rotr(v[d]^v[a], cfg.r2, cfg.bits)
	v[c] = v[c] + v[d]
	v[b] = rotr(v[b]^v[c], cfg.r3, cfg.bits)
}

// mixIntoState runs one full BLAKE round (four columnar G calls, then four
// diagonal G calls) over state v with message words m.
func mixIntoState[T word](v *[16]T, m [16]T, cfg tierConfig[T]) {
	gMix(v, 0, 4, 8, 12, m[0], m[1], cfg)
	gMix(v, 1, 5, 9, 13, m[2], m[3], cfg)
	gMix(v, 2, 6, 10, 14, m[4], m[5], cfg)
	gMix(v, 3, 7, 11, 15, m[6], m[7], cfg)

	gMix(v, 0, 5, 10, 15, m[8], m[9], cfg)
	gMix(v, 1, 6, 11, 12, m[10], m[11], cfg)
	gMix(v, 2, 7, 8, 13, m[12], m[13], cfg)
	gMix(v, 3, 4, 9, 14, m[14], m[15], cfg)
}

// permute applies the fixed message schedule to m.
func permute[T word](m [16]T) [16]T {
	var out [16]T
	for i, idx := range msgSchedule {
		out[i] = m[idx]
	}
	return out
}

// halfMasks returns the upper-half and lower-half bit masks of a word with
// the given bit width, used to build the Key/Nonce Composite.
func halfMasks[T word](bits int) (upper, lower T) {
	lower = allOnesMask[T](bits / 2)
	upper = allOnesMask[T](bits) &^ lower
	return upper, lower
}

// buildKNC interleaves key and nonce words through half-bit masks into the
// 16-word Key/Nonce Composite used as the message words of derive_keys.
func buildKNC[T word](key, nonce [8]T, bits int) [16]T {
	upper, lower := halfMasks[T](bits)
	var knc [16]T
	for i := 0; i < 8; i++ {
		a := (key[i] & upper) | (nonce[i] & lower)
		b := (nonce[i] & upper) | (key[i] & lower)
		knc[2*i] = a
		knc[2*i+1] = b
	}
	return knc
}

// initStateVector lays out state as IV[0..4], then entropy with the block
// counter folded into words 4..11, then IV[4..8] XORed with the domain mask
// in words 12..15.
func initStateVector[T word](state *[16]T, entropy [8]T, counter uint64, domain Domain, cfg tierConfig[T]) {
	for i := 0; i < 4; i++ {
		state[i] = cfg.iv[i]
	}
	for i := 0; i < 8; i++ {
		state[4+i] = entropy[i]
	}
	low := T(counter & 0xFFFFFFFF)
	high := T(counter >> 32)
	for i := 4; i < 8; i++ {
		state[i] += low
	}
	for i := 8; i < 12; i++ {
		state[i] += high
	}
	for i := 0; i < 4; i++ {
		state[12+i] = cfg.iv[4+i]
	}
	mask := domainMask[T](domain, cfg.bits)
	for i := 12; i < 16; i++ {
		state[i] ^= mask
	}
}

func domainMask[T word](domain Domain, bits int) T {
	if bits == 32 {
		return T(domain.maskU32())
	}
	return T(domain.maskU64())
}

// keygen holds the BLAKE-style keyed compression state for one cipher
// instance. State is the post-digest_context resting state; knc is the
// Key/Nonce Composite used as the message schedule during derive_keys.
type keygen[T word] struct {
	cfg     tierConfig[T]
	state   [16]T
	knc     [16]T
	key     [8]T
	nonce   [8]T
	context [16]T
}

// newKeygen32 (and newKeygen64 below, for 64-bit words) builds the keygen
// state from right-padded/truncated key, nonce,
// and context byte strings, then folds the context into state via
// digest_context so the returned keygen is ready for derive_keys.
func newKeygen32(key, nonce, context []byte) *keygen[uint32] {
	g := &keygen[uint32]{cfg: tier32Config}
	copy(g.key[:], chunkWordsBE32(key, 8))
	copy(g.nonce[:], chunkWordsBE32(nonce, 8))
	copy(g.context[:], chunkWordsBE32(context, 16))
	g.knc = buildKNC(g.key, g.nonce, 32)
	g.digestContext()
	return g
}

func newKeygen64(key, nonce, context []byte) *keygen[uint64] {
	g := &keygen[uint64]{cfg: tier64Config}
	copy(g.key[:], chunkWordsBE64(key, 8))
	copy(g.nonce[:], chunkWordsBE64(nonce, 8))
	copy(g.context[:], chunkWordsBE64(context, 16))
	g.knc = buildKNC(g.key, g.nonce, 64)
	g.digestContext()
	return g
}

// digestContext folds the context vector into state: init_state_vector
// with the key as entropy, then 9 permute-and-mix rounds plus one final mix.
func (g *keygen[T]) digestContext() {
	initStateVector(&g.state, g.key, 0, DomainCTX, g.cfg)
	ctx := g.context
	for i := 0; i < 9; i++ {
		mixIntoState(&g.state, ctx, g.cfg)
		ctx = permute(ctx)
	}
	mixIntoState(&g.state, ctx, g.cfg)
}

// eSource splits the post-digest state into the two 8-word entropy
// sources used by derive_keys.
func eSource[T word](state [16]T, which int) [8]T {
	var e [8]T
	if which == 0 {
		copy(e[0:4], state[0:4])
		copy(e[4:8], state[8:12])
	} else {
		copy(e[0:4], state[4:8])
		copy(e[4:8], state[12:16])
	}
	return e
}

// extractFunc pulls one or more 16-byte round keys out of a post-mix state:
// one for the 32-bit tier (state[4:8]), two for the 64-bit tier
// (state[4:6] and state[6:8]).
type extractFunc[T word] func(state [16]T) [][16]byte

func extractTier256(state [16]uint32) [][16]byte {
	var out [16]byte
	b0 := beBytes32(state[4])
	b1 := beBytes32(state[5])
	b2 := beBytes32(state[6])
	b3 := beBytes32(state[7])
	copy(out[0:4], b0[:])
	copy(out[4:8], b1[:])
	copy(out[8:12], b2[:])
	copy(out[12:16], b3[:])
	return [][16]byte{out}
}

func extractTier512(state [16]uint64) [][16]byte {
	var rk0, rk1 [16]byte
	a0 := beBytes64(state[4])
	a1 := beBytes64(state[5])
	copy(rk0[0:8], a0[:])
	copy(rk0[8:16], a1[:])
	b0 := beBytes64(state[6])
	b1 := beBytes64(state[7])
	copy(rk1[0:8], b0[:])
	copy(rk1[8:16], b1[:])
	return [][16]byte{rk0, rk1}
}

// deriveKeys is the generic core of per-group round-key derivation: for each
// of the two entropy sources, clone the keygen state (never mutating g), run
// key_count extraction rounds over a private copy of knc, and collect the
// round keys each extraction yields. It is a pure function of
// (g.state, g.knc, blockCounter, domain) and never touches g.
func deriveKeys[T word](g *keygen[T], keyCount int, blockCounter uint64, domain Domain, extract extractFunc[T]) [][][16]byte {
	var lanes [][][16]byte
	for e := 0; e < 2; e++ {
		entropy := eSource(g.state, e)
		var cloneState [16]T
		initStateVector(&cloneState, entropy, blockCounter, domain, g.cfg)
		kncCopy := g.knc

		var perLane [][][16]byte
		for round := 0; round < keyCount-1; round++ {
			mixIntoState(&cloneState, kncCopy, g.cfg)
			keys := extract(cloneState)
			if perLane == nil {
				perLane = make([][][16]byte, len(keys))
			}
			for i, k := range keys {
				perLane[i] = append(perLane[i], k)
			}
			kncCopy = permute(kncCopy)
		}
		mixIntoState(&cloneState, kncCopy, g.cfg)
		keys := extract(cloneState)
		if perLane == nil {
			perLane = make([][][16]byte, len(keys))
		}
		for i, k := range keys {
			perLane[i] = append(perLane[i], k)
		}
		lanes = append(lanes, perLane...)
	}
	return lanes
}
