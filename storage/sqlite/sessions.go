package sqlite

import (
	"context"
	"database/sql"
	"time"
)

// RevokeSession records a token id until expiresAt. Entries whose tokens
// have already expired are purged on the way.
func (s *Store) RevokeSession(ctx context.Context, tokenID string, expiresAt time.Time) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM revoked_sessions WHERE expires_at <= ?`, formatTime(s.now())); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO revoked_sessions (jti, expires_at) VALUES (?, ?)`,
			tokenID, formatTime(expiresAt))
		return err
	})
}

func (s *Store) IsSessionRevoked(ctx context.Context, tokenID string) (bool, error) {
	var revoked bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM revoked_sessions WHERE jti = ?)`, tokenID).Scan(&revoked)
	return revoked, err
}
