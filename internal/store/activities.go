package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// UpsertActivity inserts or updates an activity keyed by its id.
func (db *DB) UpsertActivity(a *Activity) error {
	sources, err := marshalSources(a.DuplicateSources)
	if err != nil {
		return fmt.Errorf("encoding duplicate_sources: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO activities (
			id, athlete_id, name, sport, start_date, duration_seconds, distance,
			source, created_at, has_power, has_gps, has_heartrate, has_cadence,
			has_altitude, average_heartrate, load, duplicate_sources, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			athlete_id = excluded.athlete_id,
			name = excluded.name,
			sport = excluded.sport,
			start_date = excluded.start_date,
			duration_seconds = excluded.duration_seconds,
			distance = excluded.distance,
			source = excluded.source,
			created_at = excluded.created_at,
			has_power = excluded.has_power,
			has_gps = excluded.has_gps,
			has_heartrate = excluded.has_heartrate,
			has_cadence = excluded.has_cadence,
			has_altitude = excluded.has_altitude,
			average_heartrate = excluded.average_heartrate,
			load = excluded.load,
			duplicate_sources = excluded.duplicate_sources,
			updated_at = CURRENT_TIMESTAMP
	`,
		a.ID, a.AthleteID, a.Name, a.Sport,
		a.StartDate.UTC().Format(time.RFC3339), a.DurationSeconds, a.Distance,
		a.Source, a.CreatedAt.UTC().Format(time.RFC3339),
		boolToInt(a.HasPower), boolToInt(a.HasGPS), boolToInt(a.HasHeartrate),
		boolToInt(a.HasCadence), boolToInt(a.HasAltitude),
		a.AverageHeartrate, a.Load, sources,
	)
	return err
}

// GetActivity retrieves an activity by id.
func (db *DB) GetActivity(id string) (*Activity, error) {
	row := db.QueryRow(activitySelect+` WHERE id = ?`, id)
	a, err := scanActivity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrActivityNotFound
	}
	return a, err
}

// DeleteActivity removes an activity and, via cascade, its streams.
func (db *DB) DeleteActivity(id string) error {
	result, err := db.Exec(`DELETE FROM activities WHERE id = ?`, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrActivityNotFound
	}
	return nil
}

// ListActivities returns all of an athlete's activities ordered by start date.
func (db *DB) ListActivities(athleteID int64) ([]Activity, error) {
	rows, err := db.Query(activitySelect+`
		WHERE athlete_id = ?
		ORDER BY start_date ASC, id ASC
	`, athleteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectActivities(rows)
}

// ListActivitiesBetween returns an athlete's activities with a start date in
// [from, to], ordered by start date. Used to find dedup candidates around an
// incoming record.
func (db *DB) ListActivitiesBetween(athleteID int64, from, to time.Time) ([]Activity, error) {
	rows, err := db.Query(activitySelect+`
		WHERE athlete_id = ? AND start_date >= ? AND start_date <= ?
		ORDER BY start_date ASC, id ASC
	`, athleteID,
		from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectActivities(rows)
}

// UpdateActivityLoad sets the stored load scalar for an activity.
func (db *DB) UpdateActivityLoad(id string, load float64) error {
	result, err := db.Exec(`
		UPDATE activities SET load = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, load, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrActivityNotFound
	}
	return nil
}

const activitySelect = `
	SELECT id, athlete_id, name, sport, start_date, duration_seconds, distance,
		source, created_at, has_power, has_gps, has_heartrate, has_cadence,
		has_altitude, average_heartrate, load, duplicate_sources
	FROM activities`

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanActivity(s scanner) (*Activity, error) {
	var a Activity
	var startDate, createdAt string
	var hasPower, hasGPS, hasHR, hasCadence, hasAltitude int64
	var sources sql.NullString

	err := s.Scan(
		&a.ID, &a.AthleteID, &a.Name, &a.Sport, &startDate, &a.DurationSeconds,
		&a.Distance, &a.Source, &createdAt, &hasPower, &hasGPS, &hasHR,
		&hasCadence, &hasAltitude, &a.AverageHeartrate, &a.Load, &sources,
	)
	if err != nil {
		return nil, err
	}

	a.StartDate, err = time.Parse(time.RFC3339, startDate)
	if err != nil {
		return nil, fmt.Errorf("parsing start_date %q: %w", startDate, err)
	}
	a.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at %q: %w", createdAt, err)
	}
	a.HasPower = hasPower == 1
	a.HasGPS = hasGPS == 1
	a.HasHeartrate = hasHR == 1
	a.HasCadence = hasCadence == 1
	a.HasAltitude = hasAltitude == 1
	a.DuplicateSources, err = unmarshalSources(sources)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func collectActivities(rows *sql.Rows) ([]Activity, error) {
	var activities []Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		activities = append(activities, *a)
	}
	return activities, rows.Err()
}

func marshalSources(sources []string) (sql.NullString, error) {
	if len(sources) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(sources)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func unmarshalSources(n sql.NullString) ([]string, error) {
	if !n.Valid || n.String == "" {
		return nil, nil
	}
	var sources []string
	if err := json.Unmarshal([]byte(n.String), &sources); err != nil {
		return nil, fmt.Errorf("parsing duplicate_sources %q: %w", n.String, err)
	}
	return sources, nil
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
