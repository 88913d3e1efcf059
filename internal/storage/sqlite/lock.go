package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/pills/internal/models"
)

func (s *Store) GetLockState() (models.LockState, error) {
	var locked bool
	var unlockedAt sql.NullInt64

	err := s.db.QueryRow("SELECT locked, unlocked_at FROM lock_state WHERE id = 1").Scan(&locked, &unlockedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.LockedState(), nil
	}
	if err != nil {
		return models.LockState{}, fmt.Errorf("failed to read lock state: %w", err)
	}

	state := models.LockState{Locked: locked}
	if unlockedAt.Valid {
		t := time.Unix(unlockedAt.Int64, 0)
		state.UnlockedAt = &t
	}
	return state, nil
}

func (s *Store) SaveLockState(state models.LockState) error {
	if err := state.Validate(); err != nil {
		return err
	}

	var unlockedAt sql.NullInt64
	if !state.Locked && state.UnlockedAt != nil {
		unlockedAt = sql.NullInt64{Int64: state.UnlockedAt.Unix(), Valid: true}
	}

	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO lock_state (id, locked, unlocked_at)
		VALUES (1, ?, ?)`, state.Locked, unlockedAt)
	if err != nil {
		return fmt.Errorf("failed to save lock state: %w", err)
	}
	return nil
}
