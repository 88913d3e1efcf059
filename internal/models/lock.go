package models

import (
	"fmt"
	"time"
)

// LockState is the persisted state of the history edit lock.
type LockState struct {
	Locked     bool       `json:"locked"`
	UnlockedAt *time.Time `json:"unlocked_at,omitempty"`
}

// LockedState returns the default, locked state.
func LockedState() LockState {
	return LockState{Locked: true}
}

// Validate checks that an unlocked state always carries its unlock time.
func (s LockState) Validate() error {
	if !s.Locked && s.UnlockedAt == nil {
		return fmt.Errorf("unlocked history lock has no unlock timestamp")
	}
	return nil
}
