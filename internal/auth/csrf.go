package auth

import "math/rand/v2"

// CSRFTokenLength is the number of characters in a CSRF token.
const CSRFTokenLength = 128

const csrfAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewCSRFToken returns a random alphanumeric token.
//
// The token is only compared with the copy sealed in the csrf cookie; the
// sealing, not the token source, is what a forger cannot reproduce.
func NewCSRFToken() string {
	b := make([]byte, CSRFTokenLength)
	for i := range b {
		b[i] = csrfAlphabet[rand.IntN(len(csrfAlphabet))]
	}
	return string(b)
}
