// Command aesblake-demo exercises the aesblake package end to end: it
// derives key material from a passphrase, seals a message, reopens it, and
// prints a stable SHA3-512 fingerprint of the sealed envelope so two runs
// with the same passphrase and salt can be compared without diffing raw
// bytes. It is a CLI harness, not a library entry point, so it carries its
// own ambient flag/log/fmt stack the way the teacher's examples do.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/google/uuid"
	"golang.org/x/crypto/sha3"

	"github.com/aesblake/aesblake"
)

func main() {
	var (
		tierFlag   = flag.String("tier", "256", "AES-Blake tier: 256 or 512")
		password   = flag.String("password", "correct-horse-battery-staple", "passphrase to derive key material from")
		message    = flag.String("message", "the quick brown fox jumps over the lazy dog", "plaintext message to seal")
		maskedFlag = flag.Bool("masked", false, "use the first-order masked cipher instead of the plain one")
		order      = flag.Int("order", 1, "masking order, used only with -masked")
	)
	flag.Parse()

	runID := uuid.New()
	log.Printf("[%s] aesblake-demo starting", runID)

	tier, err := parseTier(*tierFlag)
	if err != nil {
		log.Fatalf("[%s] %v", runID, err)
	}

	groupBytes := tier.GroupBytes()
	plaintext := padToGroup([]byte(*message), groupBytes)
	header := []byte("aesblake-demo")
	header = padToGroup(header, groupBytes)

	params := aesblake.DefaultArgon2idParams()
	material, err := aesblake.DeriveKeyMaterial([]byte(*password), nil, params)
	if err != nil {
		log.Fatalf("[%s] deriving key material: %v", runID, err)
	}
	fmt.Printf("[%s] derived key/nonce/context via Argon2id, salt=%x\n", runID, material.Salt)

	var ciphertext, tag []byte
	if *maskedFlag {
		ciphertext, tag, err = sealMasked(tier, material, plaintext, header, *order)
	} else {
		ciphertext, tag, err = sealPlain(tier, material, plaintext, header)
	}
	if err != nil {
		log.Fatalf("[%s] seal: %v", runID, err)
	}
	fmt.Printf("[%s] sealed %d bytes under %s (masked=%v)\n", runID, len(plaintext), tier, *maskedFlag)

	envelope := &aesblake.Envelope{Tier: tier, Salt: material.Salt, Header: header, Ciphertext: ciphertext, Tag: tag}
	if err := envelope.Validate(); err != nil {
		log.Fatalf("[%s] envelope validation: %v", runID, err)
	}

	buf := &bytesBuffer{}
	if _, err := envelope.WriteTo(buf); err != nil {
		log.Fatalf("[%s] serializing envelope: %v", runID, err)
	}

	fingerprint := sha3.Sum512(buf.b)
	fmt.Printf("[%s] envelope fingerprint (SHA3-512): %x\n", runID, fingerprint)

	recovered, err := reopen(tier, material, envelope)
	if err != nil {
		log.Fatalf("[%s] reopen: %v", runID, err)
	}
	fmt.Printf("[%s] recovered plaintext matches original: %v\n", runID, string(recovered) == string(plaintext))

	log.Printf("[%s] aesblake-demo done", runID)
}

func parseTier(s string) (aesblake.TierName, error) {
	switch s {
	case "256":
		return aesblake.Tier256, nil
	case "512":
		return aesblake.Tier512, nil
	default:
		return 0, fmt.Errorf("unknown tier %q, want \"256\" or \"512\"", s)
	}
}

// padToGroup right-pads b with zero bytes to the next multiple of
// groupBytes, since the CLI's free-form -message flag and its fixed header
// rarely land on a group boundary and the core cipher rejects anything
// that doesn't.
func padToGroup(b []byte, groupBytes int) []byte {
	if rem := len(b) % groupBytes; rem != 0 {
		b = append(b, make([]byte, groupBytes-rem)...)
	}
	if len(b) == 0 {
		b = make([]byte, groupBytes)
	}
	return b
}

func sealPlain(tier aesblake.TierName, m *aesblake.PasswordMaterial, plaintext, header []byte) (ciphertext, tag []byte, err error) {
	var c *aesblake.Cipher
	if tier == aesblake.Tier256 {
		c = aesblake.New256(m.Key, m.Nonce, m.Context)
	} else {
		c = aesblake.New512(m.Key, m.Nonce, m.Context)
	}
	return c.Encrypt(plaintext, header)
}

func sealMasked(tier aesblake.TierName, m *aesblake.PasswordMaterial, plaintext, header []byte, order int) (ciphertext, tag []byte, err error) {
	rnd := aesblake.NewCryptoRandSource()
	var c *aesblake.MaskedCipher
	if tier == aesblake.Tier256 {
		c = aesblake.New256Masked(m.Key, m.Nonce, m.Context, order, rnd)
	} else {
		c = aesblake.New512Masked(m.Key, m.Nonce, m.Context, order, rnd)
	}
	return c.Encrypt(plaintext, header)
}

func reopen(tier aesblake.TierName, m *aesblake.PasswordMaterial, e *aesblake.Envelope) ([]byte, error) {
	var c *aesblake.Cipher
	if tier == aesblake.Tier256 {
		c = aesblake.New256(m.Key, m.Nonce, m.Context)
	} else {
		c = aesblake.New512(m.Key, m.Nonce, m.Context)
	}
	return c.Decrypt(e.Ciphertext, e.Header, e.Tag)
}

// bytesBuffer is a tiny io.Writer sink, avoiding a bytes.Buffer import just
// to collect envelope.WriteTo's output before hashing it.
type bytesBuffer struct{ b []byte }

func (w *bytesBuffer) Write(p []byte) (int, error) {
	w.b = append(w.b, p...)
	return len(p), nil
}
