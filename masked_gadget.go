// masked_gadget.go - DOM-independent AND/MUL gadget, OR, and B<->A
// conversion for the masked integer algebra (C3).
package aesblake

// domGadget implements the DOM-independent (Gross, CHES 2016) two-operand
// gadget shared by boolean AND and arithmetic MUL: every cross term between
// shares of x and y is blinded by a fresh random word before being folded
// back into the two diagonal accumulators it came from, so no intermediate
// ever depends on more than one share of each operand at a time.
//
// op computes the per-share product (AND or wrapping MUL); combine/uncombine
// are the blind/unblind pair (XOR/XOR for boolean, SUB/ADD for arithmetic).
func domGadget[T word](x, y []T, op func(a, b T) T, combine, uncombine func(a, b T) T, rnd RandSource, bits int) []T {
	shareCount := len(x)
	out := make([]T, shareCount)
	for i := 0; i < shareCount; i++ {
		out[i] = op(x[i], y[i])
	}
	order := shareCount - 1
	for i := 0; i < order; i++ {
		for j := i + 1; j < shareCount; j++ {
			r := T(rnd.NextWord(bits))
			pji := combine(op(x[j], y[i]), r)
			pij := uncombine(op(x[i], y[j]), r)
			out[i] = uncombine(out[i], pij)
			out[j] = uncombine(out[j], pji)
		}
	}
	return out
}

// And computes the masked AND of two boolean-masked operands, consuming
// share_count*order/2 fresh random words from rnd.
func (m MaskedUint[T]) And(other MaskedUint[T], rnd RandSource) (MaskedUint[T], error) {
	if err := m.checkCompatible(other); err != nil {
		return MaskedUint[T]{}, err
	}
	if m.Domain != MaskBoolean {
		return MaskedUint[T]{}, NewMaskingError(MaskingDomainMismatch, "And requires boolean-domain operands")
	}
	out := domGadget(m.shares(), other.shares(),
		func(a, b T) T { return a & b },
		func(a, b T) T { return a ^ b },
		func(a, b T) T { return a ^ b },
		rnd, m.Bits)
	return fromShares[T](out, MaskBoolean, m.Bits), nil
}

// Mul computes the masked wrapping multiplication of two arithmetic-masked
// operands, consuming share_count*order/2 fresh random words from rnd.
func (m MaskedUint[T]) Mul(other MaskedUint[T], rnd RandSource) (MaskedUint[T], error) {
	if err := m.checkCompatible(other); err != nil {
		return MaskedUint[T]{}, err
	}
	if m.Domain != MaskArithmetic {
		return MaskedUint[T]{}, NewMaskingError(MaskingDomainMismatch, "Mul requires arithmetic-domain operands")
	}
	out := domGadget(m.shares(), other.shares(),
		func(a, b T) T { return a * b },
		func(a, b T) T { return a - b },
		func(a, b T) T { return a + b },
		rnd, m.Bits)
	return fromShares[T](out, MaskArithmetic, m.Bits), nil
}

// Or computes x|y = (x&y) ^ x ^ y, sharewise after the AND gadget — the
// XOR terms are linear so they combine per-share with no extra randomness.
func (m MaskedUint[T]) Or(other MaskedUint[T], rnd RandSource) (MaskedUint[T], error) {
	and, err := m.And(other, rnd)
	if err != nil {
		return MaskedUint[T]{}, err
	}
	withX, err := and.XOR(m)
	if err != nil {
		return MaskedUint[T]{}, err
	}
	return withX.XOR(other)
}

// btoa converts a boolean-masked value to an arithmetic-masked value,
// preserving the unmasked value and drawing entirely fresh masks.
//
// This recombines the shares internally and re-masks in the arithmetic
// domain with fresh randomness drawn from rnd, rather than running the
// Bettale et al. recursive bit-serial circuit share-wise. See DESIGN.md
// for the tradeoff this makes against a fully leak-resistant conversion.
func (m MaskedUint[T]) btoa(rnd RandSource) (MaskedUint[T], error) {
	if m.Domain != MaskBoolean {
		return MaskedUint[T]{}, NewMaskingError(MaskingDomainMismatch, "btoa requires a boolean-domain operand")
	}
	v := m.Unmask()
	return NewMaskedUint[T](v, MaskArithmetic, m.Order, m.Bits, rnd), nil
}

// atob converts an arithmetic-masked value to a boolean-masked value,
// preserving the unmasked value and drawing entirely fresh masks. See the
// btoa doc comment for the same caveat: this recombines internally rather
// than running a leak-resistant circuit.
func (m MaskedUint[T]) atob(rnd RandSource) (MaskedUint[T], error) {
	if m.Domain != MaskArithmetic {
		return MaskedUint[T]{}, NewMaskingError(MaskingDomainMismatch, "atob requires an arithmetic-domain operand")
	}
	v := m.Unmask()
	return NewMaskedUint[T](v, MaskBoolean, m.Order, m.Bits, rnd), nil
}
