package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/pills/internal/models"
)

func (s *Store) SchedulePending(ctx context.Context, reminders []models.PendingReminder) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO pending_reminders
			(identifier, period, day_key, hour, minute, body, fire_at, delivered_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, NULL)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range reminders {
		if _, err := stmt.ExecContext(ctx,
			r.Identifier, string(r.Reminder.Period), r.Reminder.DayKey,
			r.Reminder.Hour, r.Reminder.Minute, r.Reminder.Body,
			r.FireAt.UTC().Format(time.RFC3339),
		); err != nil {
			return fmt.Errorf("failed to schedule reminder %s: %w", r.Identifier, err)
		}
	}

	return tx.Commit()
}

func (s *Store) CancelPending(ctx context.Context, identifiers []string) error {
	if len(identifiers) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(identifiers)), ",")
	args := make([]interface{}, len(identifiers))
	for i, id := range identifiers {
		args[i] = id
	}

	_, err := s.db.ExecContext(ctx, "DELETE FROM pending_reminders WHERE identifier IN ("+placeholders+")", args...)
	return err
}

func (s *Store) RemoveAllPending(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM pending_reminders")
	return err
}

// RemoveScheduled deletes delivered reminders and those firing after the
// given time. Undelivered reminders that are already due stay for the
// dispatcher.
func (s *Store) RemoveScheduled(ctx context.Context, after time.Time) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM pending_reminders WHERE delivered_at IS NOT NULL OR fire_at > ?",
		after.UTC().Format(time.RFC3339))
	return err
}

func (s *Store) GetPendingReminders(ctx context.Context) ([]models.PendingReminder, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT identifier, period, day_key, hour, minute, body, fire_at, delivered_at
		FROM pending_reminders
		ORDER BY fire_at, identifier`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.PendingReminder
	for rows.Next() {
		var pr models.PendingReminder
		var period, fireAt string
		var deliveredAt sql.NullString

		if err := rows.Scan(&pr.Identifier, &period, &pr.Reminder.DayKey, &pr.Reminder.Hour,
			&pr.Reminder.Minute, &pr.Reminder.Body, &fireAt, &deliveredAt); err != nil {
			return nil, err
		}
		pr.Reminder.Period = models.Period(period)

		if pr.FireAt, err = time.Parse(time.RFC3339, fireAt); err != nil {
			return nil, fmt.Errorf("failed to parse fire_at for reminder %s: %w", pr.Identifier, err)
		}
		if deliveredAt.Valid {
			t, err := time.Parse(time.RFC3339, deliveredAt.String)
			if err != nil {
				return nil, fmt.Errorf("failed to parse delivered_at for reminder %s: %w", pr.Identifier, err)
			}
			pr.DeliveredAt = &t
		}

		out = append(out, pr)
	}

	return out, rows.Err()
}

func (s *Store) MarkReminderDelivered(ctx context.Context, identifier string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE pending_reminders SET delivered_at = ? WHERE identifier = ?",
		at.UTC().Format(time.RFC3339), identifier)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("no pending reminder %s", identifier)
	}
	return nil
}
