package sqlstore

import (
	"context"

	"github.com/jmoiron/sqlx"

	"statcalc/domain/core"
)

// SavePreference inserts or replaces the value stored under key
func (s *Store) SavePreference(ctx context.Context, key, value string) error {
	return s.withTx(ctx, "save preference", func(tx *sqlx.Tx) error {
		query := tx.Rebind(`INSERT INTO user_preferences (preference_key, preference_value)
			VALUES (?, ?)
			ON CONFLICT (preference_key) DO UPDATE SET preference_value = excluded.preference_value`)
		if _, err := tx.ExecContext(ctx, query, key, value); err != nil {
			return core.NewPersistenceError("save preference", err)
		}
		return nil
	})
}

// GetPreference returns the stored value, or def when the key is absent
func (s *Store) GetPreference(ctx context.Context, key, def string) (string, error) {
	var value string
	query := s.db.Rebind(`SELECT COALESCE(preference_value, '') FROM user_preferences WHERE preference_key = ?`)
	if err := s.db.GetContext(ctx, &value, query, key); err != nil {
		if isNoRows(err) {
			return def, nil
		}
		return "", core.NewPersistenceError("get preference", err)
	}
	return value, nil
}
