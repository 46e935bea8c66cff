// Package auth implements the stateless login protocol of the calendar:
// encrypted identity and CSRF cookies, CSRF token generation and bcrypt
// password verification.
//
// ────────────────────────────────────────────────────────────────────
// LEARNING NOTE: why encrypted cookies instead of a session table?
// ────────────────────────────────────────────────────────────────────
// The server keeps no per-login state. After a successful login the user
// name and a random CSRF token are sealed with a key that only lives in
// process memory, and the sealed strings are handed to the browser as
// cookies. On every request the server opens them again:
//
//	cookie "user" ── Decrypt ──> "alice"
//	cookie "csrf" ── Decrypt ──> "x8Kq…" (128 chars)
//
// XChaCha20-Poly1305 is an AEAD cipher: the Poly1305 tag authenticates the
// ciphertext, so a cookie edited by the client fails to open instead of
// decrypting to garbage. That single check is what makes the identity
// unforgeable. Restarting the process draws a new key and every issued
// cookie stops opening, which logs everybody out.
package auth

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"
)

// KeySize is the length in bytes of a Codec key.
const KeySize = chacha20poly1305.KeySize

// MaxPlaintext bounds what Encrypt accepts. Sealed and base64 encoded, a
// plaintext of this size stays far below the 4 KiB browsers allow per cookie.
const MaxPlaintext = 1024

// ErrPlaintextTooLarge is returned by Encrypt for inputs over MaxPlaintext.
var ErrPlaintextTooLarge = errors.New("plaintext too large")

// Codec seals short strings into cookie-safe tokens and opens them again.
//
// Encryption and decryption use separate cipher instances, each behind its
// own lock, so resetting the decryptor after a bad token never stalls or
// corrupts a concurrent Encrypt.
type Codec struct {
	enc *sealer
	dec *sealer
}

// sealer owns one AEAD instance built from the key.
type sealer struct {
	mu   sync.Mutex
	key  []byte
	aead cipher.AEAD
}

func newSealer(key []byte) (*sealer, error) {
	s := &sealer{key: key}
	if err := s.reset(); err != nil {
		return nil, err
	}
	return s, nil
}

// reset rebuilds the AEAD from the key. Callers must hold s.mu or own s.
func (s *sealer) reset() error {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return fmt.Errorf("init cipher: %w", err)
	}
	s.aead = aead
	return nil
}

// NewCodec returns a Codec using key, which must be KeySize bytes long.
func NewCodec(key []byte) (*Codec, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("codec key must be %d bytes, got %d", KeySize, len(key))
	}
	k := make([]byte, KeySize)
	copy(k, key)

	enc, err := newSealer(k)
	if err != nil {
		return nil, err
	}
	dec, err := newSealer(k)
	if err != nil {
		return nil, err
	}
	return &Codec{enc: enc, dec: dec}, nil
}

// NewRandomCodec draws a fresh key from crypto/rand. The key is never
// written anywhere; it lives as long as the returned Codec.
func NewRandomCodec() (*Codec, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate session key: %w", err)
	}
	return NewCodec(key)
}

// Encrypt seals plaintext under a random nonce and returns
// base64url(nonce || ciphertext || tag).
func (c *Codec) Encrypt(plaintext string) (string, error) {
	if len(plaintext) > MaxPlaintext {
		return "", ErrPlaintextTooLarge
	}

	c.enc.mu.Lock()
	defer c.enc.mu.Unlock()

	nonceSize := c.enc.aead.NonceSize()
	buf := make([]byte, nonceSize, nonceSize+len(plaintext)+c.enc.aead.Overhead())
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	sealed := c.enc.aead.Seal(buf, buf[:nonceSize], []byte(plaintext), nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a token produced by Encrypt. Anything that is not such a
// token (bad base64, too short, wrong key, edited bytes) yields ok == false.
// Decrypt never returns an error and never panics.
func (c *Codec) Decrypt(token string) (plaintext string, ok bool) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return "", false
	}

	c.dec.mu.Lock()
	defer c.dec.mu.Unlock()

	nonceSize := c.dec.aead.NonceSize()
	if len(raw) < nonceSize+c.dec.aead.Overhead() {
		return "", false
	}
	opened, err := c.dec.aead.Open(nil, raw[:nonceSize], raw[nonceSize:], nil)
	if err != nil {
		// A failed open leaves nothing behind in the AEAD, but the decryptor
		// is rebuilt anyway so any future stateful primitive starts clean.
		_ = c.dec.reset()
		return "", false
	}
	return string(opened), true
}

// Reset rebuilds the decryptor from the key. Encryption is unaffected.
func (c *Codec) Reset() error {
	c.dec.mu.Lock()
	defer c.dec.mu.Unlock()
	return c.dec.reset()
}
