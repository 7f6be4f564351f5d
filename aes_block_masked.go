// aes_block_masked.go - first-order boolean-masked AES-128 round engine (C5)
//
// Every state byte and round-key byte lives as a MaskedUint[byte] the whole
// way through. Linear steps (squaring and constant GF(2^8) multiplies in
// MixColumns, the affine transforms, ShiftRows, AddRoundKey) apply
// per-share with no randomness. The only nonlinear step, GF(2^8) byte
// inversion for the S-box, is built from the same addition chain as the
// plain S-box but routes every secret-by-secret multiply through the
// DOM-independent gadget in masked_gadget.go, so it consumes fresh
// randomness from rnd exactly where two masked values that both depend on
// the plaintext are multiplied together.
package aesblake

// maskedSquare computes a^2 in GF(2^8), a GF(2)-linear (Frobenius) map
// applied independently per share.
func maskedSquare(a MaskedUint[byte]) (MaskedUint[byte], error) {
	return a.applyShares(func(v byte) byte { return gfMul(v, v) })
}

// maskedXtime multiplies a masked byte by the constant 2 in GF(2^8), a
// GF(2)-linear map and so safe to apply per share with no randomness.
func maskedXtime(a MaskedUint[byte]) (MaskedUint[byte], error) {
	return a.applyShares(xtime)
}

// maskedGFMul multiplies two masked bytes that both depend on secret data,
// via the DOM-independent gadget with GF(2^8) multiplication as the
// per-share product and XOR as the (de)blinding combinator — GF(2^8)
// addition is XOR, so the gadget's boolean-AND shape carries over directly.
func maskedGFMul(a, b MaskedUint[byte], rnd RandSource) (MaskedUint[byte], error) {
	if err := a.checkCompatible(b); err != nil {
		return MaskedUint[byte]{}, err
	}
	if a.Domain != MaskBoolean {
		return MaskedUint[byte]{}, NewMaskingError(MaskingDomainMismatch, "maskedGFMul requires boolean-domain operands")
	}
	xorOp := func(x, y byte) byte { return x ^ y }
	out := domGadget(a.shares(), b.shares(), gfMul, xorOp, xorOp, rnd, a.Bits)
	return fromShares[byte](out, MaskBoolean, a.Bits), nil
}

// maskedGFInverse computes a^254 (GF(2^8) inversion, 0 maps to 0) via the
// same addition chain as gfInverse, squaring per-share and routing every
// secret*secret multiply through maskedGFMul.
func maskedGFInverse(a MaskedUint[byte], rnd RandSource) (MaskedUint[byte], error) {
	a2, err := maskedSquare(a)
	if err != nil {
		return MaskedUint[byte]{}, err
	}
	a4, err := maskedSquare(a2)
	if err != nil {
		return MaskedUint[byte]{}, err
	}
	a8, err := maskedSquare(a4)
	if err != nil {
		return MaskedUint[byte]{}, err
	}
	a16, err := maskedSquare(a8)
	if err != nil {
		return MaskedUint[byte]{}, err
	}
	a32, err := maskedSquare(a16)
	if err != nil {
		return MaskedUint[byte]{}, err
	}
	a64, err := maskedSquare(a32)
	if err != nil {
		return MaskedUint[byte]{}, err
	}
	a128, err := maskedSquare(a64)
	if err != nil {
		return MaskedUint[byte]{}, err
	}
	a192, err := maskedGFMul(a128, a64, rnd)
	if err != nil {
		return MaskedUint[byte]{}, err
	}
	a224, err := maskedGFMul(a192, a32, rnd)
	if err != nil {
		return MaskedUint[byte]{}, err
	}
	a240, err := maskedGFMul(a224, a16, rnd)
	if err != nil {
		return MaskedUint[byte]{}, err
	}
	a248, err := maskedGFMul(a240, a8, rnd)
	if err != nil {
		return MaskedUint[byte]{}, err
	}
	a252, err := maskedGFMul(a248, a4, rnd)
	if err != nil {
		return MaskedUint[byte]{}, err
	}
	return maskedGFMul(a252, a2, rnd)
}

// maskedAffine applies a GF(2)-linear map per share, then XORs a public
// constant into the value share alone (adding a constant once across all
// shares changes the unmasked result by exactly that constant).
func maskedAffine(a MaskedUint[byte], linear func(byte) byte, constant byte) (MaskedUint[byte], error) {
	out, err := a.applyShares(linear)
	if err != nil {
		return MaskedUint[byte]{}, err
	}
	out.Value ^= constant
	return out, nil
}

func maskedSboxAffine(a MaskedUint[byte]) (MaskedUint[byte], error) {
	return maskedAffine(a, func(x byte) byte {
		return x ^ rotl8(x, 1) ^ rotl8(x, 2) ^ rotl8(x, 3) ^ rotl8(x, 4)
	}, 0x63)
}

func maskedInvSboxAffine(a MaskedUint[byte]) (MaskedUint[byte], error) {
	return maskedAffine(a, func(y byte) byte {
		return rotl8(y, 1) ^ rotl8(y, 3) ^ rotl8(y, 6)
	}, 0x05)
}

// maskedSub is the masked forward S-box: affine(inverse(x)).
func maskedSub(a MaskedUint[byte], rnd RandSource) (MaskedUint[byte], error) {
	inv, err := maskedGFInverse(a, rnd)
	if err != nil {
		return MaskedUint[byte]{}, err
	}
	return maskedSboxAffine(inv)
}

// maskedInvSub is the masked inverse S-box: inverse(inv_affine(y)).
func maskedInvSub(a MaskedUint[byte], rnd RandSource) (MaskedUint[byte], error) {
	deaff, err := maskedInvSboxAffine(a)
	if err != nil {
		return MaskedUint[byte]{}, err
	}
	return maskedGFInverse(deaff, rnd)
}

func xorAll(values ...MaskedUint[byte]) (MaskedUint[byte], error) {
	acc := values[0]
	var err error
	for _, v := range values[1:] {
		acc, err = acc.XOR(v)
		if err != nil {
			return MaskedUint[byte]{}, err
		}
	}
	return acc, nil
}

// MaskedBlock is the masked counterpart to Block: 16 masked state bytes
// stepped one AES round at a time against 16 masked round-key bytes.
type MaskedBlock struct {
	state [16]MaskedUint[byte]
	keys  [aesRounds][16]MaskedUint[byte]
	round int
}

// NewMaskedBlock primes a lane with masked per-round keys.
func NewMaskedBlock(keys [aesRounds][16]MaskedUint[byte]) *MaskedBlock {
	return &MaskedBlock{keys: keys}
}

// Load masks a fresh 16-byte input block at the given order, consuming
// 16*order random bytes from rnd.
func (b *MaskedBlock) Load(in [16]byte, order int, rnd RandSource) {
	for i, v := range in {
		b.state[i] = NewMaskedUint[byte](v, MaskBoolean, order, 8, rnd)
	}
	b.round = 0
}

// LoadMasked primes the lane with state that is already masked, such as a
// running checksum's shares, so nothing is unmasked and remasked in between.
func (b *MaskedBlock) LoadMasked(in [16]MaskedUint[byte]) {
	b.state = in
	b.round = 0
}

// State unmasks the current lane state — used only at the group boundary
// where AES output must be combined with the checksum and column exchange.
func (b *MaskedBlock) State() [16]byte {
	var out [16]byte
	for i, v := range b.state {
		out[i] = v.Unmask()
	}
	return out
}

// MaskedState exposes the live masked bytes for the column exchange, which
// operates on shares directly rather than forcing an unmask/remask.
func (b *MaskedBlock) MaskedState() [16]MaskedUint[byte] { return b.state }

// SetMaskedState overwrites the lane's masked bytes after a column exchange.
func (b *MaskedBlock) SetMaskedState(s [16]MaskedUint[byte]) { b.state = s }

func (b *MaskedBlock) Done() bool { return b.round >= aesRounds }

func maskedShiftRows(s [16]MaskedUint[byte]) [16]MaskedUint[byte] {
	var t [16]MaskedUint[byte]
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			t[r+4*c] = s[r+4*((c+r)%4)]
		}
	}
	return t
}

func maskedInvShiftRows(s [16]MaskedUint[byte]) [16]MaskedUint[byte] {
	var t [16]MaskedUint[byte]
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			t[r+4*c] = s[r+4*((c-r+4)%4)]
		}
	}
	return t
}

func maskedSubBytes(s [16]MaskedUint[byte], rnd RandSource, inverse bool) ([16]MaskedUint[byte], error) {
	var out [16]MaskedUint[byte]
	var err error
	for i, v := range s {
		if inverse {
			out[i], err = maskedInvSub(v, rnd)
		} else {
			out[i], err = maskedSub(v, rnd)
		}
		if err != nil {
			return [16]MaskedUint[byte]{}, err
		}
	}
	return out, nil
}

func maskedAddRoundKey(s [16]MaskedUint[byte], key [16]MaskedUint[byte]) ([16]MaskedUint[byte], error) {
	var out [16]MaskedUint[byte]
	var err error
	for i := range s {
		out[i], err = s[i].XOR(key[i])
		if err != nil {
			return [16]MaskedUint[byte]{}, err
		}
	}
	return out, nil
}

// maskedMixColumns mirrors mixColumns' xtime-based formula exactly, share by
// share: x = a^b^c^d, y = a, then each output XORs x with xtime of its sum
// with its neighbor (d wraps to y).
func maskedMixColumns(s [16]MaskedUint[byte]) ([16]MaskedUint[byte], error) {
	var out [16]MaskedUint[byte]
	for c := 0; c < 4; c++ {
		a0, b0, c0, d0 := s[4*c], s[4*c+1], s[4*c+2], s[4*c+3]
		x, err := xorAll(a0, b0, c0, d0)
		if err != nil {
			return [16]MaskedUint[byte]{}, err
		}
		y := a0
		xAB, err := maskedXtime(mustXOR(a0, b0))
		if err != nil {
			return [16]MaskedUint[byte]{}, err
		}
		xBC, err := maskedXtime(mustXOR(b0, c0))
		if err != nil {
			return [16]MaskedUint[byte]{}, err
		}
		xCD, err := maskedXtime(mustXOR(c0, d0))
		if err != nil {
			return [16]MaskedUint[byte]{}, err
		}
		xDY, err := maskedXtime(mustXOR(d0, y))
		if err != nil {
			return [16]MaskedUint[byte]{}, err
		}
		o0, err := xorAll(a0, x, xAB)
		if err != nil {
			return [16]MaskedUint[byte]{}, err
		}
		o1, err := xorAll(b0, x, xBC)
		if err != nil {
			return [16]MaskedUint[byte]{}, err
		}
		o2, err := xorAll(c0, x, xCD)
		if err != nil {
			return [16]MaskedUint[byte]{}, err
		}
		o3, err := xorAll(d0, x, xDY)
		if err != nil {
			return [16]MaskedUint[byte]{}, err
		}
		out[4*c], out[4*c+1], out[4*c+2], out[4*c+3] = o0, o1, o2, o3
	}
	return out, nil
}

// mustXOR XORs two compatible MaskedUint[byte] operands, used only where
// the operands are known (by construction) to share domain/order/width.
func mustXOR(a, b MaskedUint[byte]) MaskedUint[byte] {
	out, err := a.XOR(b)
	if err != nil {
		panic("aesblake: incompatible masked operands in AES round: " + err.Error())
	}
	return out
}

// maskedInvMixColumns undoes maskedMixColumns the same way invMixColumns
// does: cancel the GF(4)-linear component via double-xtime on the
// diagonal sums, then run the forward transform.
func maskedInvMixColumns(s [16]MaskedUint[byte]) ([16]MaskedUint[byte], error) {
	var out [16]MaskedUint[byte]
	for c := 0; c < 4; c++ {
		a, b, cc, d := s[4*c], s[4*c+1], s[4*c+2], s[4*c+3]
		m := mustXOR(a, cc)
		n := mustXOR(b, d)
		xm, err := maskedXtime(m)
		if err != nil {
			return [16]MaskedUint[byte]{}, err
		}
		xx, err := maskedXtime(xm)
		if err != nil {
			return [16]MaskedUint[byte]{}, err
		}
		yn, err := maskedXtime(n)
		if err != nil {
			return [16]MaskedUint[byte]{}, err
		}
		yy, err := maskedXtime(yn)
		if err != nil {
			return [16]MaskedUint[byte]{}, err
		}
		o0, err := a.XOR(xx)
		if err != nil {
			return [16]MaskedUint[byte]{}, err
		}
		o1, err := b.XOR(yy)
		if err != nil {
			return [16]MaskedUint[byte]{}, err
		}
		o2, err := cc.XOR(xx)
		if err != nil {
			return [16]MaskedUint[byte]{}, err
		}
		o3, err := d.XOR(yy)
		if err != nil {
			return [16]MaskedUint[byte]{}, err
		}
		out[4*c], out[4*c+1], out[4*c+2], out[4*c+3] = o0, o1, o2, o3
	}
	out, err := maskedMixColumns(out)
	if err != nil {
		return [16]MaskedUint[byte]{}, err
	}
	return out, nil
}

// Step advances the masked lane by one AES round, reporting whether a
// column exchange must run before the next Step call. Middle rounds 1..9
// each need an exchange before running; the final round (10) has none
// before it but is followed by one last exchange.
func (b *MaskedBlock) Step(rnd RandSource) (needExchange bool, err error) {
	switch {
	case b.round == 0:
		b.state, err = maskedAddRoundKey(b.state, b.keys[0])
		if err != nil {
			return false, err
		}
		b.round++
		return true, nil
	case b.round < aesRounds-1:
		b.state, err = maskedSubBytes(b.state, rnd, false)
		if err != nil {
			return false, err
		}
		b.state = maskedShiftRows(b.state)
		b.state, err = maskedMixColumns(b.state)
		if err != nil {
			return false, err
		}
		b.state, err = maskedAddRoundKey(b.state, b.keys[b.round])
		if err != nil {
			return false, err
		}
		b.round++
		return b.round < aesRounds-1, nil
	default:
		b.state, err = maskedSubBytes(b.state, rnd, false)
		if err != nil {
			return false, err
		}
		b.state = maskedShiftRows(b.state)
		b.state, err = maskedAddRoundKey(b.state, b.keys[b.round])
		if err != nil {
			return false, err
		}
		b.round++
		return true, nil
	}
}

// MaskedInvBlock mirrors InvBlock for masked decryption: an inverse
// exchange point first, then the undone final round, then each of the nine
// undone middle rounds followed by an inverse exchange point, then the
// whitening key, tracked by the same stage counter the plain InvBlock uses.
type MaskedInvBlock struct {
	state [16]MaskedUint[byte]
	keys  [aesRounds][16]MaskedUint[byte]
	i     int
	stage int
}

func NewMaskedInvBlock(keys [aesRounds][16]MaskedUint[byte]) *MaskedInvBlock {
	return &MaskedInvBlock{keys: keys, i: aesRounds - 2}
}

func (b *MaskedInvBlock) Load(in [16]byte, order int, rnd RandSource) {
	for i, v := range in {
		b.state[i] = NewMaskedUint[byte](v, MaskBoolean, order, 8, rnd)
	}
	b.i = aesRounds - 2
	b.stage = 0
}

// LoadMasked primes the lane with state that is already masked.
func (b *MaskedInvBlock) LoadMasked(in [16]MaskedUint[byte]) {
	b.state = in
	b.i = aesRounds - 2
	b.stage = 0
}

func (b *MaskedInvBlock) MaskedState() [16]MaskedUint[byte]     { return b.state }
func (b *MaskedInvBlock) SetMaskedState(s [16]MaskedUint[byte]) { b.state = s }
func (b *MaskedInvBlock) Done() bool                            { return b.stage == 4 }

func (b *MaskedInvBlock) State() [16]byte {
	var out [16]byte
	for i, v := range b.state {
		out[i] = v.Unmask()
	}
	return out
}

func (b *MaskedInvBlock) Step(rnd RandSource) (needExchange bool, err error) {
	switch b.stage {
	case 0:
		b.stage = 1
		return true, nil
	case 1:
		b.state, err = maskedAddRoundKey(b.state, b.keys[aesRounds-1])
		if err != nil {
			return false, err
		}
		b.state = maskedInvShiftRows(b.state)
		b.state, err = maskedSubBytes(b.state, rnd, true)
		if err != nil {
			return false, err
		}
		b.stage = 2
		return false, nil
	case 2:
		b.state, err = maskedAddRoundKey(b.state, b.keys[b.i])
		if err != nil {
			return false, err
		}
		b.state, err = maskedInvMixColumns(b.state)
		if err != nil {
			return false, err
		}
		b.state = maskedInvShiftRows(b.state)
		b.state, err = maskedSubBytes(b.state, rnd, true)
		if err != nil {
			return false, err
		}
		b.i--
		if b.i < 1 {
			b.stage = 3
		}
		return true, nil
	case 3:
		b.state, err = maskedAddRoundKey(b.state, b.keys[0])
		if err != nil {
			return false, err
		}
		b.stage = 4
		return false, nil
	default:
		return false, nil
	}
}
