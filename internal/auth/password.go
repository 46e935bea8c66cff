package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrUnknownUser is returned by ChangePassword when no row has the login.
var ErrUnknownUser = errors.New("unknown user")

// ErrInvalidPassword is returned for passwords bcrypt cannot hash: empty,
// or longer than 72 bytes.
var ErrInvalidPassword = errors.New("password must be 1 to 72 bytes")

// UserStore is the slice of the user table the verifier needs.
type UserStore interface {
	// PasswordHashes returns the stored hash of every row whose login
	// equals login. Login is not unique, so zero or many rows are fine.
	PasswordHashes(ctx context.Context, login string) ([]string, error)
	// SetPasswordHash overwrites the hash of every row with the login and
	// reports how many rows changed.
	SetPasswordHash(ctx context.Context, login, hash string) (int64, error)
}

// PasswordVerifier checks and changes bcrypt-hashed passwords.
type PasswordVerifier struct {
	users UserStore
	cost  int
}

// NewPasswordVerifier returns a verifier hashing new passwords at cost.
// A cost outside bcrypt's range falls back to bcrypt.DefaultCost.
func NewPasswordVerifier(users UserStore, cost int) *PasswordVerifier {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordVerifier{users: users, cost: cost}
}

// Verify reports whether password matches any stored hash for login.
// A wrong password is not an error; only a store failure is.
func (v *PasswordVerifier) Verify(ctx context.Context, login, password string) (bool, error) {
	if login == "" || password == "" {
		return false, nil
	}
	hashes, err := v.users.PasswordHashes(ctx, login)
	if err != nil {
		return false, fmt.Errorf("load password hashes: %w", err)
	}
	for _, h := range hashes {
		// The salt and cost travel inside h, so no other input is needed.
		if bcrypt.CompareHashAndPassword([]byte(h), []byte(password)) == nil {
			return true, nil
		}
	}
	return false, nil
}

// ChangePassword stores a fresh hash (new salt) for login.
//
// Cookies issued before the change keep working: there is no session table
// to revoke them from.
func (v *PasswordVerifier) ChangePassword(ctx context.Context, login, newPassword string) error {
	hash, err := HashPassword(newPassword, v.cost)
	if err != nil {
		return err
	}
	n, err := v.users.SetPasswordHash(ctx, login, hash)
	if err != nil {
		return fmt.Errorf("store password hash: %w", err)
	}
	if n == 0 {
		return ErrUnknownUser
	}
	return nil
}

// HashPassword returns a bcrypt hash of password at cost.
func HashPassword(password string, cost int) (string, error) {
	if password == "" || len(password) > 72 {
		return "", ErrInvalidPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
