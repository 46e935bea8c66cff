package db

import (
	"context"
	"fmt"
)

// PasswordHashes returns the stored hash of every row whose login equals
// login, in insertion order.
func (s *Store) PasswordHashes(ctx context.Context, login string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		s.dialect.Rebind(`SELECT password FROM `+s.users+` WHERE login = ?`), login)
	if err != nil {
		return nil, fmt.Errorf("load password hashes: %w", err)
	}
	defer rows.Close()

	var hashes []string
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, fmt.Errorf("scan password hash: %w", err)
		}
		hashes = append(hashes, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load password hashes: %w", err)
	}
	return hashes, nil
}

// SetPasswordHash overwrites the hash of every row for login.
func (s *Store) SetPasswordHash(ctx context.Context, login, hash string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		s.dialect.Rebind(`UPDATE `+s.users+` SET password = ? WHERE login = ?`), hash, login)
	if err != nil {
		return 0, fmt.Errorf("set password hash: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// InsertUser adds a credential row. Logins are not unique; adding a second
// row for the same login gives that login a second valid password until
// the next password change.
func (s *Store) InsertUser(ctx context.Context, login, hash string) error {
	_, err := s.db.ExecContext(ctx,
		s.dialect.Rebind(`INSERT INTO `+s.users+` (login, password) VALUES (?, ?)`), login, hash)
	if err != nil {
		return fmt.Errorf("insert user %q: %w", login, err)
	}
	return nil
}
