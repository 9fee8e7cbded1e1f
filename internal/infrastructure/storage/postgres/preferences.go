package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// PreferenceStore keeps user preferences in the user_preferences table.
// It serves deployments without Redis.
type PreferenceStore struct {
	txManager *TxManager
}

// NewPreferenceStore creates a preference store.
func NewPreferenceStore(txManager *TxManager) *PreferenceStore {
	return &PreferenceStore{txManager: txManager}
}

// Get implements preferences.Store.
func (s *PreferenceStore) Get(ctx context.Context, userID, key string) (json.RawMessage, bool, error) {
	var raw []byte
	err := s.txManager.GetQuerier(ctx).QueryRow(ctx,
		`SELECT value FROM user_preferences WHERE user_id = $1 AND key = $2`,
		userID, key,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get preference %q: %w", key, err)
	}
	return json.RawMessage(raw), true, nil
}

// Set implements preferences.Store.
func (s *PreferenceStore) Set(ctx context.Context, userID, key string, value json.RawMessage) error {
	_, err := s.txManager.GetQuerier(ctx).Exec(ctx, `
		INSERT INTO user_preferences (user_id, key, value, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (user_id, key)
		DO UPDATE SET value = EXCLUDED.value, updated_at = now()
	`, userID, key, []byte(value))
	if err != nil {
		return fmt.Errorf("set preference %q: %w", key, err)
	}
	return nil
}
