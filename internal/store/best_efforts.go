package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// GetBestEffort retrieves the stored best effort for one window duration.
func (db *DB) GetBestEffort(athleteID int64, sportName string, durationSeconds int) (*BestEffort, error) {
	row := db.QueryRow(`
		SELECT athlete_id, sport, duration_seconds, value, activity_id, achieved_at
		FROM best_efforts
		WHERE athlete_id = ? AND sport = ? AND duration_seconds = ?
	`, athleteID, sportName, durationSeconds)

	be, err := scanBestEffort(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBestEffortNotFound
	}
	return be, err
}

// UpsertBestEffort stores a best effort only if it strictly improves the
// currently stored value for the same (athlete, sport, duration). When
// lowerIsBetter is set (pace sports) a smaller value wins; otherwise a larger
// value wins (power). Returns whether the row was written.
func (db *DB) UpsertBestEffort(be *BestEffort, lowerIsBetter bool) (updated bool, err error) {
	existing, err := db.GetBestEffort(be.AthleteID, be.Sport, be.DurationSeconds)
	if err != nil && !errors.Is(err, ErrBestEffortNotFound) {
		return false, err
	}

	if existing != nil {
		if lowerIsBetter {
			if be.Value >= existing.Value {
				return false, nil
			}
		} else {
			if be.Value <= existing.Value {
				return false, nil
			}
		}
	}

	_, err = db.Exec(`
		INSERT INTO best_efforts (athlete_id, sport, duration_seconds, value, activity_id, achieved_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(athlete_id, sport, duration_seconds) DO UPDATE SET
			value = excluded.value,
			activity_id = excluded.activity_id,
			achieved_at = excluded.achieved_at
	`,
		be.AthleteID, be.Sport, be.DurationSeconds, be.Value,
		be.ActivityID, be.AchievedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListBestEfforts returns all stored best efforts for a sport ordered by
// window duration.
func (db *DB) ListBestEfforts(athleteID int64, sportName string) ([]BestEffort, error) {
	rows, err := db.Query(`
		SELECT athlete_id, sport, duration_seconds, value, activity_id, achieved_at
		FROM best_efforts
		WHERE athlete_id = ? AND sport = ?
		ORDER BY duration_seconds ASC
	`, athleteID, sportName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var efforts []BestEffort
	for rows.Next() {
		be, err := scanBestEffort(rows)
		if err != nil {
			return nil, err
		}
		efforts = append(efforts, *be)
	}
	return efforts, rows.Err()
}

// DeleteBestEffortsForActivity removes best efforts attributed to an
// activity, ahead of a history re-scan after that activity is deleted.
func (db *DB) DeleteBestEffortsForActivity(activityID string) error {
	_, err := db.Exec(`DELETE FROM best_efforts WHERE activity_id = ?`, activityID)
	return err
}

func scanBestEffort(s scanner) (*BestEffort, error) {
	var be BestEffort
	var achievedAt string
	err := s.Scan(&be.AthleteID, &be.Sport, &be.DurationSeconds, &be.Value, &be.ActivityID, &achievedAt)
	if err != nil {
		return nil, err
	}
	be.AchievedAt, err = time.Parse(time.RFC3339, achievedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing achieved_at %q: %w", achievedAt, err)
	}
	return &be, nil
}
