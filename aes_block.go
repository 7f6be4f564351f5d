// aes_block.go - plain AES-128 round engine (C5)
//
// Round keys are supplied externally (from derive_keys) rather than
// expanded from a single 128-bit key, so Block has no key-schedule step of
// its own: it only runs the round transform, one round per Step call, so
// the driving Cipher can interleave a column exchange between lanes at
// exactly the boundaries the cooperative round sequence calls for.
package aesblake

// Block is one AES-128 lane's round state, stepped one round at a time.
// Step follows the cooperative sequence: add_round_key(0), then nine
// middle rounds each preceded by an exchange point, then the final round,
// which has no exchange before it and one final exchange after it.
type Block struct {
	state [16]byte
	keys  [aesRounds][16]byte
	round int
}

// NewBlock creates a lane primed with the given per-round keys
// (keys[0] is the initial whitening key, keys[10] the final round key).
func NewBlock(keys [aesRounds][16]byte) *Block {
	return &Block{keys: keys}
}

// Load resets the lane to encrypt a fresh 16-byte input block.
func (b *Block) Load(in [16]byte) {
	b.state = in
	b.round = 0
}

// State returns the current 16-byte state, valid to read between Steps
// (a column exchange reads and rewrites exactly this).
func (b *Block) State() [16]byte { return b.state }

// SetState overwrites the current state, used by the driver to splice in
// the result of a column exchange before the next Step.
func (b *Block) SetState(s [16]byte) { b.state = s }

// Done reports whether all rounds have been applied.
func (b *Block) Done() bool { return b.round >= aesRounds }

// Step advances the lane by exactly one AES round and reports whether a
// column exchange must run before the next Step call. Middle rounds
// 1..9 each need an exchange before running; the final round (10) has
// none before it but is followed by one last exchange.
func (b *Block) Step() (needExchange bool) {
	switch {
	case b.round == 0:
		addRoundKey(&b.state, b.keys[0])
		b.round++
		return true
	case b.round < aesRounds-1:
		subBytes(&b.state, &ENC)
		shiftRows(&b.state)
		mixColumns(&b.state)
		addRoundKey(&b.state, b.keys[b.round])
		b.round++
		return b.round < aesRounds-1
	default:
		subBytes(&b.state, &ENC)
		shiftRows(&b.state)
		addRoundKey(&b.state, b.keys[b.round])
		b.round++
		return true
	}
}

// InvBlock mirrors Block for decryption, undoing its steps in reverse: an
// inverse exchange runs first (undoing the final forward exchange), then
// the final round is undone, then each of the nine middle rounds is undone
// and followed by an inverse exchange, and the whitening key comes last.
// An internal stage counter tracks the position in that sequence.
type InvBlock struct {
	state [16]byte
	keys  [aesRounds][16]byte
	i     int // current middle round, counting down from 9 to 1
	stage int // 0: initial exchange point; 1: undo final round; 2: undo round i; 3: undo whitening; 4: done
}

// NewInvBlock creates a lane primed to decrypt with the same per-round
// keys used to encrypt (keys[0] whitening, keys[10] final round key).
func NewInvBlock(keys [aesRounds][16]byte) *InvBlock {
	return &InvBlock{keys: keys, i: aesRounds - 2}
}

func (b *InvBlock) Load(in [16]byte) {
	b.state = in
	b.i = aesRounds - 2
	b.stage = 0
}

func (b *InvBlock) State() [16]byte     { return b.state }
func (b *InvBlock) SetState(s [16]byte) { b.state = s }
func (b *InvBlock) Done() bool          { return b.stage == 4 }

// Step runs the next piece of the inverse schedule, returning whether a
// column exchange must run immediately before the following Step call.
func (b *InvBlock) Step() (needExchange bool) {
	switch b.stage {
	case 0:
		b.stage = 1
		return true
	case 1:
		addRoundKey(&b.state, b.keys[aesRounds-1])
		invShiftRows(&b.state)
		subBytes(&b.state, &DEC)
		b.stage = 2
		return false
	case 2:
		addRoundKey(&b.state, b.keys[b.i])
		invMixColumns(&b.state)
		invShiftRows(&b.state)
		subBytes(&b.state, &DEC)
		b.i--
		if b.i < 1 {
			b.stage = 3
		}
		return true
	case 3:
		addRoundKey(&b.state, b.keys[0])
		b.stage = 4
		return false
	default:
		return false
	}
}

func addRoundKey(s *[16]byte, key [16]byte) {
	for i := range s {
		s[i] ^= key[i]
	}
}

func subBytes(s *[16]byte, sbox *[256]byte) {
	for i := range s {
		s[i] = sub(sbox, s[i])
	}
}

// shiftRows cyclically left-shifts row r by r positions; state is stored
// column-major, state[r+4c] = byte at row r, column c.
func shiftRows(s *[16]byte) {
	var t [16]byte
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			t[r+4*c] = s[r+4*((c+r)%4)]
		}
	}
	*s = t
}

func invShiftRows(s *[16]byte) {
	var t [16]byte
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			t[r+4*c] = s[r+4*((c-r+4)%4)]
		}
	}
	*s = t
}

// mixColumns applies MixColumns column by column via the xtime-based
// formula: x = a^b^c^d, y = a, then each byte XORs x with xtime of its
// sum with its neighbor (d wraps to y).
func mixColumns(s *[16]byte) {
	for c := 0; c < 4; c++ {
		i := 4 * c
		a0, b0, c0, d0 := s[i], s[i+1], s[i+2], s[i+3]
		x := a0 ^ b0 ^ c0 ^ d0
		y := a0
		s[i] = a0 ^ x ^ xtime(a0^b0)
		s[i+1] = b0 ^ x ^ xtime(b0^c0)
		s[i+2] = c0 ^ x ^ xtime(c0^d0)
		s[i+3] = d0 ^ x ^ xtime(d0^y)
	}
}

// invMixColumns undoes MixColumns by first canceling the GF(4)-linear
// component via double-xtime on the diagonal sums, then running the
// forward transform.
func invMixColumns(s *[16]byte) {
	for c := 0; c < 4; c++ {
		i := 4 * c
		a, b, cc, d := s[i], s[i+1], s[i+2], s[i+3]
		m := a ^ cc
		n := b ^ d
		xx := xtime(xtime(m))
		yy := xtime(xtime(n))
		s[i] = a ^ xx
		s[i+1] = b ^ yy
		s[i+2] = cc ^ xx
		s[i+3] = d ^ yy
	}
	mixColumns(s)
}
