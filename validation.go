// validation.go - input validation helpers for defensive programming
package aesblake

import "fmt"

// ValidateBuffer checks that a buffer is non-nil and at least minSize bytes.
func ValidateBuffer(buf []byte, name string, minSize int) error {
	if buf == nil {
		return &ValidationError{Field: name, Message: "buffer cannot be nil"}
	}
	if minSize > 0 && len(buf) < minSize {
		return &ValidationError{
			Field:   name,
			Value:   len(buf),
			Message: fmt.Sprintf("buffer too small: got %d bytes, need at least %d bytes", len(buf), minSize),
		}
	}
	return nil
}

// ValidateSize checks that a size parameter falls within [minSize, maxSize];
// maxSize <= 0 means unbounded.
func ValidateSize(size int, name string, minSize, maxSize int) error {
	if size < 0 {
		return &ValidationError{Field: name, Value: size, Message: "size cannot be negative"}
	}
	if minSize >= 0 && size < minSize {
		return &ValidationError{
			Field:   name,
			Value:   size,
			Message: fmt.Sprintf("size too small: got %d, minimum is %d", size, minSize),
		}
	}
	if maxSize > 0 && size > maxSize {
		return &ValidationError{
			Field:   name,
			Value:   size,
			Message: fmt.Sprintf("size too large: got %d, maximum is %d", size, maxSize),
		}
	}
	return nil
}

// ValidateTierInput checks that plaintext/ciphertext and header both have
// lengths that are exact multiples of tier's group size, the precondition
// every Cipher/MaskedCipher entry point shares.
func ValidateTierInput(tier TierName, data, header []byte) error {
	groupBytes := tier.GroupBytes()
	if err := validateGroupLength("data", data, groupBytes); err != nil {
		return err
	}
	return validateGroupLength("header", header, groupBytes)
}

// ValidateTag checks that a tag has the exact byte length tier expects.
func ValidateTag(tier TierName, tag []byte) error {
	if len(tag) != tier.TagBytes() {
		return NewValidationError("tag", len(tag), "tag length does not match tier")
	}
	return nil
}

// ValidateOrder checks that a masking order is at least 1.
func ValidateOrder(order int) error {
	if order < 1 {
		return NewValidationError("Order", order, "masking order must be at least 1")
	}
	return nil
}
