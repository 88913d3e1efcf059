package postgres

import (
	"fmt"
	"time"

	"github.com/julianstephens/pills/internal/constants"
	"github.com/julianstephens/pills/internal/models"
)

func (s *Store) InsertRecord(rec models.DoseRecord) error {
	now := time.Now()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = now
	}

	_, err := s.db.Exec(`
		INSERT INTO dose_records (id, day_key, morning_taken, evening_taken, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.ID, rec.Day.Format(constants.DateFormat), rec.MorningTaken, rec.EveningTaken,
		rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert dose record: %w", err)
	}
	return nil
}

func (s *Store) UpdateRecord(rec models.DoseRecord) error {
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now()
	}

	res, err := s.db.Exec(`
		UPDATE dose_records
		SET morning_taken = $1, evening_taken = $2, updated_at = $3
		WHERE day_key = $4`,
		rec.MorningTaken, rec.EveningTaken, rec.UpdatedAt, rec.Day.Format(constants.DateFormat))
	if err != nil {
		return fmt.Errorf("failed to update dose record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("no dose record for %s", rec.Day.Format(constants.DateFormat))
	}
	return nil
}

func (s *Store) GetAllRecords() ([]models.DoseRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, to_char(day_key, 'YYYY-MM-DD'), morning_taken, evening_taken, created_at, updated_at
		FROM dose_records
		ORDER BY day_key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.DoseRecord
	for rows.Next() {
		var rec models.DoseRecord
		var dayKey string

		if err := rows.Scan(&rec.ID, &dayKey, &rec.MorningTaken, &rec.EveningTaken, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		if rec.Day, err = time.Parse(constants.DateFormat, dayKey); err != nil {
			return nil, fmt.Errorf("failed to parse day_key for dose record %s: %w", rec.ID, err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}
