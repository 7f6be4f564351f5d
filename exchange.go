// exchange.go - cross-lane column exchange (C7's exchange_columns)
//
// Between AES rounds, the driver reassembles each lane's 16-byte state
// from 4-byte column slices drawn from other lanes per a fixed
// permutation pattern. This is the one place the lanes interact at all;
// outside an exchange point every lane's round transform is independent.
package aesblake

// exchangePattern[i][k] names which lane's column k feeds into output
// lane i's column k.
type exchangePattern [][4]int

var (
	tier256Pattern = exchangePattern{{0, 1, 0, 1}, {1, 0, 1, 0}}

	tier512Forward = exchangePattern{
		{0, 1, 2, 3},
		{1, 2, 3, 0},
		{2, 3, 0, 1},
		{3, 0, 1, 2},
	}
	tier512Inverse = exchangePattern{
		{0, 3, 2, 1},
		{1, 0, 3, 2},
		{2, 1, 0, 3},
		{3, 2, 1, 0},
	}
)

// patternFor returns the exchange pattern for a tier and direction. The
// 256 tier's pattern is its own inverse.
func patternFor(tier TierName, inverse bool) exchangePattern {
	if tier == Tier256 {
		return tier256Pattern
	}
	if inverse {
		return tier512Inverse
	}
	return tier512Forward
}

// exchangeColumns reassembles every lane's state from column slices of
// the other lanes per pattern, reading all inputs before writing any
// output so lanes never observe a partially-updated sibling.
func exchangeColumns(states [][16]byte, pattern exchangePattern) [][16]byte {
	out := make([][16]byte, len(states))
	for i := range states {
		for k := 0; k < 4; k++ {
			src := pattern[i][k]
			copy(out[i][4*k:4*k+4], states[src][4*k:4*k+4])
		}
	}
	return out
}

// exchangeColumnsMasked is exchangeColumns over masked lane state: shares
// move verbatim, so no randomness is consumed and no value is unmasked.
func exchangeColumnsMasked(states [][16]MaskedUint[byte], pattern exchangePattern) [][16]MaskedUint[byte] {
	out := make([][16]MaskedUint[byte], len(states))
	for i := range states {
		for k := 0; k < 4; k++ {
			src := pattern[i][k]
			copy(out[i][4*k:4*k+4], states[src][4*k:4*k+4])
		}
	}
	return out
}
