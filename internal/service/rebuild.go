package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"trainload/internal/analysis"
	"trainload/internal/observability"
	"trainload/internal/sport"
	"trainload/internal/store"
)

// RebuildSeries replays an athlete's entire series for one sport, from the
// first recorded day of that sport through today. Returns the number of
// points written; zero when the sport has no history.
func (e *Engine) RebuildSeries(ctx context.Context, athleteID int64, s sport.Sport) (int, error) {
	return e.RebuildSeriesFrom(ctx, athleteID, s, time.Time{})
}

// RebuildSeriesFrom replays the series forward from a date, seeding from the
// stored point immediately preceding it. The replayed range lands in one
// transaction, so a failed replay leaves the stored series untouched.
// Re-running with unchanged input reproduces identical rows.
func (e *Engine) RebuildSeriesFrom(ctx context.Context, athleteID int64, s sport.Sport, from time.Time) (int, error) {
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	default:
	}

	activities, err := e.db.ListActivities(athleteID)
	if err != nil {
		return 0, fmt.Errorf("listing activities: %w", err)
	}

	var matching []store.Activity
	for _, a := range activities {
		if sport.Normalize(a.Sport) == s {
			matching = append(matching, a)
		}
	}
	if len(matching) == 0 {
		return 0, nil
	}

	loads := analysis.AggregateDaily(matching)
	firstDay := loads[0].Date
	lastDay := loads[len(loads)-1].Date

	// Rows predating the sport's first remaining activity belong to deleted
	// records. Purge them before seeding, or a merge that removes the
	// earliest activity would leave its load in the series forever.
	if err := e.db.DeleteSeriesBefore(athleteID, string(s), firstDay); err != nil {
		return 0, fmt.Errorf("purging stale series rows: %w", err)
	}
	if err := e.db.DeleteDailyLoadsBefore(athleteID, string(s), firstDay); err != nil {
		return 0, fmt.Errorf("purging stale daily loads: %w", err)
	}

	start := analysis.Day(from)
	if from.IsZero() || start.Before(firstDay) {
		start = firstDay
	}

	// Seed from the stored point just before the replay start. No prior
	// point means the replay covers the sport's whole history from zero.
	var seed analysis.SeriesPoint
	prior, err := e.db.GetSeriesPointBefore(athleteID, string(s), start)
	if err != nil && !errors.Is(err, store.ErrSeriesPointNotFound) {
		return 0, fmt.Errorf("loading series seed: %w", err)
	}
	if prior != nil {
		seed = analysis.SeriesPoint{Date: prior.Date, Load: prior.Load, CTL: prior.CTL, ATL: prior.ATL, TSB: prior.TSB}
	} else {
		start = firstDay
	}

	// Dedup or re-ingestion may have changed any day's activity set from
	// the replay start onward; rewrite the affected daily buckets before
	// replaying.
	if err := e.db.DeleteDailyLoadsFrom(athleteID, string(s), start); err != nil {
		return 0, fmt.Errorf("clearing daily loads: %w", err)
	}
	for _, dl := range loads {
		if dl.Date.Before(start) {
			continue
		}
		err := e.db.UpsertDailyLoad(&store.DailyLoadBucket{
			AthleteID:       athleteID,
			Date:            dl.Date,
			Sport:           string(s),
			Load:            dl.Load,
			DurationSeconds: dl.DurationSeconds,
		})
		if err != nil {
			return 0, fmt.Errorf("storing daily load for %s: %w", dl.Date.Format("2006-01-02"), err)
		}
	}

	through := analysis.Day(e.now())
	if lastDay.After(through) {
		through = lastDay
	}

	points := analysis.ReplaySeries(seed, start, through, loads)
	if len(points) == 0 {
		return 0, nil
	}

	rows := make([]store.SeriesPoint, 0, len(points))
	for _, p := range points {
		rows = append(rows, store.SeriesPoint{
			AthleteID: athleteID,
			Date:      p.Date,
			Sport:     string(s),
			Load:      p.Load,
			CTL:       p.CTL,
			ATL:       p.ATL,
			TSB:       p.TSB,
		})
	}

	if err := e.db.ReplaceSeriesRange(rows); err != nil {
		return 0, err
	}
	observability.RecordSeriesPointsWritten(len(rows))

	e.logger.Debug("replayed load series",
		"athlete", athleteID,
		"sport", s,
		"from", start.Format("2006-01-02"),
		"through", through.Format("2006-01-02"),
		"points", len(rows),
	)

	return len(rows), nil
}
