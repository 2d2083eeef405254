package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const dayFormat = "2006-01-02"

// RangeWriteError reports a storage failure while writing a replayed series
// range. The write happens inside one transaction, so a RangeWriteError means
// nothing from the range landed.
type RangeWriteError struct {
	Sport string
	From  time.Time
	To    time.Time
	Err   error
}

func (e *RangeWriteError) Error() string {
	return fmt.Sprintf("writing %s series range %s..%s: %v",
		e.Sport, e.From.Format(dayFormat), e.To.Format(dayFormat), e.Err)
}

func (e *RangeWriteError) Unwrap() error { return e.Err }

// UpsertDailyLoad inserts or updates a daily load bucket.
func (db *DB) UpsertDailyLoad(b *DailyLoadBucket) error {
	_, err := db.Exec(`
		INSERT INTO daily_loads (athlete_id, date, sport, load, duration_seconds, updated_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(athlete_id, date, sport) DO UPDATE SET
			load = excluded.load,
			duration_seconds = excluded.duration_seconds,
			updated_at = CURRENT_TIMESTAMP
	`, b.AthleteID, b.Date.Format(dayFormat), b.Sport, b.Load, b.DurationSeconds)
	return err
}

// DeleteDailyLoadsFrom removes daily load buckets on or after a date, ahead
// of re-aggregation for that range.
func (db *DB) DeleteDailyLoadsFrom(athleteID int64, sportName string, from time.Time) error {
	_, err := db.Exec(`
		DELETE FROM daily_loads WHERE athlete_id = ? AND sport = ? AND date >= ?
	`, athleteID, sportName, from.Format(dayFormat))
	return err
}

// DeleteDailyLoadsBefore removes daily load buckets strictly before a date.
// Buckets predating a sport's first remaining activity are leftovers of
// deleted records.
func (db *DB) DeleteDailyLoadsBefore(athleteID int64, sportName string, before time.Time) error {
	_, err := db.Exec(`
		DELETE FROM daily_loads WHERE athlete_id = ? AND sport = ? AND date < ?
	`, athleteID, sportName, before.Format(dayFormat))
	return err
}

// DeleteSeriesBefore removes series points strictly before a date, so a
// replay can never seed from a day no current activity backs.
func (db *DB) DeleteSeriesBefore(athleteID int64, sportName string, before time.Time) error {
	_, err := db.Exec(`
		DELETE FROM load_series WHERE athlete_id = ? AND sport = ? AND date < ?
	`, athleteID, sportName, before.Format(dayFormat))
	return err
}

// GetSeriesPointBefore returns the most recent stored series point strictly
// before date, used as the seed for incremental replays.
func (db *DB) GetSeriesPointBefore(athleteID int64, sportName string, date time.Time) (*SeriesPoint, error) {
	row := db.QueryRow(`
		SELECT athlete_id, date, sport, load, ctl, atl, tsb
		FROM load_series
		WHERE athlete_id = ? AND sport = ? AND date < ?
		ORDER BY date DESC
		LIMIT 1
	`, athleteID, sportName, date.Format(dayFormat))

	p, err := scanSeriesPoint(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSeriesPointNotFound
	}
	return p, err
}

// GetSeries returns the full stored series for an athlete and sport in date
// order.
func (db *DB) GetSeries(athleteID int64, sportName string) ([]SeriesPoint, error) {
	rows, err := db.Query(`
		SELECT athlete_id, date, sport, load, ctl, atl, tsb
		FROM load_series
		WHERE athlete_id = ? AND sport = ?
		ORDER BY date ASC
	`, athleteID, sportName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []SeriesPoint
	for rows.Next() {
		p, err := scanSeriesPoint(rows)
		if err != nil {
			return nil, err
		}
		points = append(points, *p)
	}
	return points, rows.Err()
}

// ReplaceSeriesRange upserts a replayed range of series points in a single
// transaction. The points must share one athlete and sport and be in strictly
// increasing date order. Repeated calls with identical input converge on
// identical rows.
func (db *DB) ReplaceSeriesRange(points []SeriesPoint) error {
	if len(points) == 0 {
		return nil
	}

	first, last := points[0], points[len(points)-1]
	rangeErr := func(err error) error {
		return &RangeWriteError{Sport: first.Sport, From: first.Date, To: last.Date, Err: err}
	}

	tx, err := db.Begin()
	if err != nil {
		return rangeErr(err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO load_series (athlete_id, date, sport, load, ctl, atl, tsb, computed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(athlete_id, date, sport) DO UPDATE SET
			load = excluded.load,
			ctl = excluded.ctl,
			atl = excluded.atl,
			tsb = excluded.tsb,
			computed_at = CURRENT_TIMESTAMP
	`)
	if err != nil {
		return rangeErr(err)
	}
	defer stmt.Close()

	for _, p := range points {
		_, err := stmt.Exec(
			p.AthleteID, p.Date.Format(dayFormat), p.Sport,
			p.Load, p.CTL, p.ATL, p.TSB,
		)
		if err != nil {
			return rangeErr(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return rangeErr(err)
	}
	return nil
}

func scanSeriesPoint(s scanner) (*SeriesPoint, error) {
	var p SeriesPoint
	var date string
	err := s.Scan(&p.AthleteID, &date, &p.Sport, &p.Load, &p.CTL, &p.ATL, &p.TSB)
	if err != nil {
		return nil, err
	}
	p.Date, err = time.Parse(dayFormat, date)
	if err != nil {
		return nil, fmt.Errorf("parsing series date %q: %w", date, err)
	}
	return &p, nil
}
