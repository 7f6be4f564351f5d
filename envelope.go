// envelope.go - self-describing wire format for AES-Blake output
//
// A bare ciphertext/tag pair doesn't say which tier produced it or what
// salt a password-derived key needs to be reproduced. Envelope wraps both
// in a small binary header so a decrypting party only needs the password
// (or key material) and the bytes on the wire, the same magic/version/
// size-prefixed layout the teacher's file header uses for its own at-rest
// format.
package aesblake

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

const (
	// envelopeMagic identifies an AES-Blake envelope on the wire (ASCII "ABLK").
	envelopeMagic = uint32(0x41424C4B)

	// envelopeVersion is the current envelope format version.
	envelopeVersion = uint8(1)

	// envelopeMinSize is magic(4) + version(1) + tier(1) + salt size(2) +
	// header size(4) + tag size(2), before the variable-length fields.
	envelopeMinSize = 4 + 1 + 1 + 2 + 4 + 2
)

// Envelope bundles a tier tag, the Argon2id salt (if password-derived; nil
// otherwise), the associated-data header, and the ciphertext/tag pair into
// one self-describing blob.
type Envelope struct {
	Tier       TierName
	Salt       []byte
	Header     []byte
	Ciphertext []byte
	Tag        []byte
}

// WriteTo serializes the envelope: magic, version, tier, then
// size-prefixed salt, header, and tag, then the ciphertext as the
// remaining bytes with no size prefix.
func (e *Envelope) WriteTo(w io.Writer) (int64, error) {
	buf := new(bytes.Buffer)

	if err := binary.Write(buf, binary.BigEndian, envelopeMagic); err != nil {
		return 0, fmt.Errorf("aesblake: writing envelope magic: %w", err)
	}
	if err := binary.Write(buf, binary.BigEndian, envelopeVersion); err != nil {
		return 0, fmt.Errorf("aesblake: writing envelope version: %w", err)
	}
	if err := binary.Write(buf, binary.BigEndian, uint8(e.Tier)); err != nil {
		return 0, fmt.Errorf("aesblake: writing envelope tier: %w", err)
	}
	if err := binary.Write(buf, binary.BigEndian, uint16(len(e.Salt))); err != nil {
		return 0, fmt.Errorf("aesblake: writing salt size: %w", err)
	}
	if _, err := buf.Write(e.Salt); err != nil {
		return 0, fmt.Errorf("aesblake: writing salt: %w", err)
	}
	if err := binary.Write(buf, binary.BigEndian, uint32(len(e.Header))); err != nil {
		return 0, fmt.Errorf("aesblake: writing header size: %w", err)
	}
	if _, err := buf.Write(e.Header); err != nil {
		return 0, fmt.Errorf("aesblake: writing header: %w", err)
	}
	if err := binary.Write(buf, binary.BigEndian, uint16(len(e.Tag))); err != nil {
		return 0, fmt.Errorf("aesblake: writing tag size: %w", err)
	}
	if _, err := buf.Write(e.Tag); err != nil {
		return 0, fmt.Errorf("aesblake: writing tag: %w", err)
	}
	if _, err := buf.Write(e.Ciphertext); err != nil {
		return 0, fmt.Errorf("aesblake: writing ciphertext: %w", err)
	}

	n, err := w.Write(buf.Bytes())
	return int64(n), err
}

// ReadEnvelope parses an envelope previously produced by WriteTo.
func ReadEnvelope(r io.Reader) (*Envelope, error) {
	e := &Envelope{}

	var magic uint32
	if err := binary.Read(r, binary.BigEndian, &magic); err != nil {
		return nil, fmt.Errorf("aesblake: reading envelope magic: %w", err)
	}
	if magic != envelopeMagic {
		return nil, ErrInvalidEnvelope
	}

	var version uint8
	if err := binary.Read(r, binary.BigEndian, &version); err != nil {
		return nil, fmt.Errorf("aesblake: reading envelope version: %w", err)
	}
	if version > envelopeVersion {
		return nil, ErrUnsupportedVersion
	}

	var tier uint8
	if err := binary.Read(r, binary.BigEndian, &tier); err != nil {
		return nil, fmt.Errorf("aesblake: reading envelope tier: %w", err)
	}
	e.Tier = TierName(tier)
	if e.Tier != Tier256 && e.Tier != Tier512 {
		return nil, NewValidationError("Tier", tier, "unsupported tier in envelope")
	}

	var saltSize uint16
	if err := binary.Read(r, binary.BigEndian, &saltSize); err != nil {
		return nil, fmt.Errorf("aesblake: reading salt size: %w", err)
	}
	e.Salt = make([]byte, saltSize)
	if _, err := io.ReadFull(r, e.Salt); err != nil {
		return nil, fmt.Errorf("aesblake: reading salt: %w", err)
	}

	var headerSize uint32
	if err := binary.Read(r, binary.BigEndian, &headerSize); err != nil {
		return nil, fmt.Errorf("aesblake: reading header size: %w", err)
	}
	e.Header = make([]byte, headerSize)
	if _, err := io.ReadFull(r, e.Header); err != nil {
		return nil, fmt.Errorf("aesblake: reading header: %w", err)
	}

	var tagSize uint16
	if err := binary.Read(r, binary.BigEndian, &tagSize); err != nil {
		return nil, fmt.Errorf("aesblake: reading tag size: %w", err)
	}
	e.Tag = make([]byte, tagSize)
	if _, err := io.ReadFull(r, e.Tag); err != nil {
		return nil, fmt.Errorf("aesblake: reading tag: %w", err)
	}
	if int(tagSize) != e.Tier.TagBytes() {
		return nil, NewValidationError("tag", tagSize, "tag length does not match the envelope's declared tier")
	}

	ciphertext, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("aesblake: reading ciphertext: %w", err)
	}
	e.Ciphertext = ciphertext

	return e, nil
}

// Validate checks structural consistency of an envelope's fields against
// its declared tier.
func (e *Envelope) Validate() error {
	if e.Tier != Tier256 && e.Tier != Tier512 {
		return NewValidationError("Tier", e.Tier, "unsupported tier")
	}
	if len(e.Tag) != e.Tier.TagBytes() {
		return NewValidationError("tag", len(e.Tag), "tag length does not match tier")
	}
	groupBytes := e.Tier.GroupBytes()
	if err := validateGroupLength("ciphertext", e.Ciphertext, groupBytes); err != nil {
		return err
	}
	return validateGroupLength("header", e.Header, groupBytes)
}

// SealWithPassword encrypts plaintext under header with a fresh Argon2id
// derivation from password, returning a ready-to-serialize Envelope.
func SealWithPassword(tier TierName, password, header, plaintext []byte, params Argon2idParams) (*Envelope, error) {
	var (
		cipher *Cipher
		m      *PasswordMaterial
		err    error
	)
	switch tier {
	case Tier256:
		cipher, m, err = New256FromPassword(password, nil, params)
	case Tier512:
		cipher, m, err = New512FromPassword(password, nil, params)
	default:
		return nil, NewValidationError("Tier", tier, "unsupported tier")
	}
	if err != nil {
		return nil, err
	}

	ciphertext, tag, err := cipher.Encrypt(plaintext, header)
	if err != nil {
		return nil, err
	}
	return &Envelope{Tier: tier, Salt: m.Salt, Header: header, Ciphertext: ciphertext, Tag: tag}, nil
}

// OpenWithPassword re-derives key material from password and e.Salt via
// Argon2id and decrypts e, returning the plaintext; e itself is not
// modified.
func OpenWithPassword(e *Envelope, password []byte, params Argon2idParams) ([]byte, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	m, err := DeriveKeyMaterial(password, e.Salt, params)
	if err != nil {
		return nil, err
	}
	var cipher *Cipher
	switch e.Tier {
	case Tier256:
		cipher = New256(m.Key, m.Nonce, m.Context)
	case Tier512:
		cipher = New512(m.Key, m.Nonce, m.Context)
	}
	return cipher.Decrypt(e.Ciphertext, e.Header, e.Tag)
}
