package auth

import (
	"encoding/base64"
	"errors"
	"strings"
	"sync"
	"testing"
)

func newTestCodec(t *testing.T) *Codec {
	t.Helper()
	c, err := NewRandomCodec()
	if err != nil {
		t.Fatalf("NewRandomCodec: %v", err)
	}
	return c
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	c := newTestCodec(t)
	inputs := []string{
		"",
		"alice",
		"user with spaces & symbols !@#$%^*()",
		"żółć – unicode ✓",
		NewCSRFToken(),
		strings.Repeat("x", MaxPlaintext),
	}
	for _, in := range inputs {
		token, err := c.Encrypt(in)
		if err != nil {
			t.Fatalf("Encrypt(%q): %v", in, err)
		}
		got, ok := c.Decrypt(token)
		if !ok {
			t.Fatalf("Decrypt of a fresh token failed for %q", in)
		}
		if got != in {
			t.Errorf("round trip: got %q, want %q", got, in)
		}
	}
}

func TestEncrypt_TooLarge(t *testing.T) {
	c := newTestCodec(t)
	_, err := c.Encrypt(strings.Repeat("x", MaxPlaintext+1))
	if !errors.Is(err, ErrPlaintextTooLarge) {
		t.Fatalf("expected ErrPlaintextTooLarge, got %v", err)
	}
}

func TestEncrypt_TokenIsCookieSafe(t *testing.T) {
	c := newTestCodec(t)
	token, err := c.Encrypt("alice")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if strings.ContainsAny(token, " ;,\"\\=+/") {
		t.Errorf("token contains characters unsafe for a cookie value: %q", token)
	}
}

func TestDecrypt_EverySingleByteMutationFails(t *testing.T) {
	c := newTestCodec(t)
	token, err := c.Encrypt("alice")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		t.Fatalf("decode token: %v", err)
	}

	for i := range raw {
		mutated := make([]byte, len(raw))
		copy(mutated, raw)
		mutated[i] ^= 0x01
		if got, ok := c.Decrypt(base64.RawURLEncoding.EncodeToString(mutated)); ok {
			t.Fatalf("byte %d flipped: expected failure, got %q", i, got)
		}
	}

	// The codec still works after all those failures.
	if got, ok := c.Decrypt(token); !ok || got != "alice" {
		t.Fatalf("codec broken after failed decrypts: got %q ok=%v", got, ok)
	}
}

func TestDecrypt_Garbage(t *testing.T) {
	c := newTestCodec(t)
	for _, in := range []string{
		"",
		"not base64 !!!",
		"YWxpY2U",                 // valid base64, far too short
		strings.Repeat("A", 4096), // valid base64, random bytes
	} {
		if got, ok := c.Decrypt(in); ok {
			t.Errorf("Decrypt(%.20q...) = %q, expected failure", in, got)
		}
	}
}

func TestDecrypt_TruncatedToken(t *testing.T) {
	c := newTestCodec(t)
	token, _ := c.Encrypt("alice")
	for n := 0; n < len(token); n += 5 {
		if _, ok := c.Decrypt(token[:n]); ok {
			t.Fatalf("truncated token of length %d decrypted", n)
		}
	}
}

func TestDecrypt_OtherKeyFails(t *testing.T) {
	a := newTestCodec(t)
	b := newTestCodec(t)
	token, _ := a.Encrypt("alice")
	if _, ok := b.Decrypt(token); ok {
		t.Fatal("token from another key must not decrypt")
	}
}

func TestNewCodec_KeyLength(t *testing.T) {
	if _, err := NewCodec(make([]byte, 16)); err == nil {
		t.Fatal("expected error for a 16-byte key")
	}
	if _, err := NewCodec(make([]byte, KeySize)); err != nil {
		t.Fatalf("NewCodec with %d-byte key: %v", KeySize, err)
	}
}

func TestCodec_ConcurrentUseAndReset(t *testing.T) {
	c := newTestCodec(t)
	var wg sync.WaitGroup
	errs := make(chan string, 64)

	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				token, err := c.Encrypt("bob")
				if err != nil {
					errs <- err.Error()
					return
				}
				if _, ok := c.Decrypt(token + "x"); ok {
					errs <- "tampered token decrypted"
					return
				}
				if got, ok := c.Decrypt(token); !ok || got != "bob" {
					errs <- "valid token failed after concurrent reset"
					return
				}
				if i%10 == 0 {
					if err := c.Reset(); err != nil {
						errs <- err.Error()
						return
					}
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for e := range errs {
		t.Error(e)
	}
}
