// Package secureid obfuscates integer identifiers so they can be published
// in URLs and pages without revealing sequence or volume.
//
// An identifier is sealed with AES-GCM under a secret key: the 8-byte
// big-endian number is encrypted with a random 12-byte nonce and the result
// (nonce followed by ciphertext and tag) is encoded as unpadded base64url.
// Encrypting the same number twice yields different strings; any alteration
// of a string is detected on decryption.
package secureid

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"strings"

	"github.com/ardnew/etpl/pkg"
)

// Key sizes accepted by [New], selecting AES-128, AES-192 or AES-256.
const (
	KeySize128 = 16
	KeySize192 = 24
	KeySize256 = 32
)

const (
	nonceSize = 12
	plainSize = 8
)

var (
	ErrKeySize   = pkg.MakeErrorf("invalid key size")
	ErrKeyFormat = pkg.MakeErrorf("invalid key encoding")
	ErrMalformed = pkg.MakeErrorf("malformed identifier")
	ErrTampered  = pkg.MakeErrorf("identifier failed authentication")
)

// Codec encrypts and decrypts identifiers under one key.
// It is safe for concurrent use.
type Codec struct {
	aead cipher.AEAD
}

// New returns a Codec for key, which must be 16, 24 or 32 bytes.
func New(key []byte) (*Codec, error) {
	switch len(key) {
	case KeySize128, KeySize192, KeySize256:
	default:
		return nil, ErrKeySize.Wrapf("%d bytes", len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, ErrKeySize.Wrap(err)
	}

	aead, err := cipher.NewGCMWithNonceSize(block, nonceSize)
	if err != nil {
		return nil, pkg.MakeError(err)
	}

	return &Codec{aead: aead}, nil
}

// ParseKey decodes a hex-encoded key.
func ParseKey(s string) ([]byte, error) {
	key, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, ErrKeyFormat.Wrap(err)
	}

	return key, nil
}

// FromHex is shorthand for [ParseKey] followed by [New].
func FromHex(s string) (*Codec, error) {
	key, err := ParseKey(s)
	if err != nil {
		return nil, err
	}

	return New(key)
}

// Generate returns a random key of size bytes.
func Generate(size int) ([]byte, error) {
	switch size {
	case KeySize128, KeySize192, KeySize256:
	default:
		return nil, ErrKeySize.Wrapf("%d bytes", size)
	}

	key := make([]byte, size)
	if _, err := rand.Read(key); err != nil {
		return nil, pkg.MakeError(err)
	}

	return key, nil
}

// EncryptNumber seals n into an opaque URL-safe string.
func (c *Codec) EncryptNumber(n int64) (string, error) {
	buf := make([]byte, nonceSize, nonceSize+plainSize+c.aead.Overhead())
	if _, err := rand.Read(buf); err != nil {
		return "", pkg.MakeError(err)
	}

	var plain [plainSize]byte

	binary.BigEndian.PutUint64(plain[:], uint64(n)) //nolint:gosec

	sealed := c.aead.Seal(buf, buf[:nonceSize], plain[:], nil)

	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// DecryptNumber recovers the number sealed in s by [Codec.EncryptNumber].
// Plain decimal strings are rejected, so a caller cannot bypass
// obfuscation by supplying a raw identifier.
func (c *Codec) DecryptNumber(s string) (int64, error) {
	if s == "" || isDecimal(s) {
		return 0, ErrMalformed.Wrapf("%q", s)
	}

	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return 0, ErrMalformed.Wrap(err)
	}

	if len(raw) != nonceSize+plainSize+c.aead.Overhead() {
		return 0, ErrMalformed.Wrapf("%d bytes decoded", len(raw))
	}

	plain, err := c.aead.Open(nil, raw[:nonceSize], raw[nonceSize:], nil)
	if err != nil {
		return 0, ErrTampered.Wrapf("%q", s)
	}

	return int64(binary.BigEndian.Uint64(plain)), nil //nolint:gosec
}

func isDecimal(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}

	return true
}
