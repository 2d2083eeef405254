// Package service orchestrates the analytics core: it feeds incoming activity
// records through validation, duplicate resolution, load series replays and
// best-effort extraction, keeping all storage I/O at this boundary.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"trainload/internal/analysis"
	"trainload/internal/config"
	"trainload/internal/dedup"
	"trainload/internal/observability"
	"trainload/internal/sport"
	"trainload/internal/store"
)

// ValidationError reports a malformed or incomplete incoming record. Records
// failing validation are skipped: never stored, never merged, never fed into
// the series.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid activity: %s %s", e.Field, e.Reason)
}

// Engine wires the computation core to the store.
type Engine struct {
	db     *store.DB
	logger *slog.Logger
	zones  analysis.HRZones
	tol    dedup.Tolerances

	// now is swappable in tests for a deterministic "today".
	now func() time.Time
}

// NewEngine creates an Engine from loaded configuration.
func NewEngine(db *store.DB, logger *slog.Logger, cfg *config.Config) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		db:     db,
		logger: logger,
		zones:  analysis.NewHRZones(cfg.Athlete.RestingHR, cfg.Athlete.MaxHR),
		tol: dedup.Tolerances{
			TimeWindow: time.Duration(cfg.Dedup.TimeWindowMinutes) * time.Minute,
			Duration:   time.Duration(cfg.Dedup.DurationToleranceSeconds) * time.Second,
			Distance:   cfg.Dedup.DistanceToleranceMeters,
		},
		now: time.Now,
	}
}

// IngestResult summarizes what one ingested record caused downstream.
type IngestResult struct {
	CanonicalID         string
	DuplicatesRemoved   int
	SeriesPointsWritten int
	EffortsImproved     int
}

// IngestActivity runs one already-normalized record through the full
// pipeline: validate, store, resolve duplicates against nearby history,
// replay the affected series range and update best efforts. Returns a
// ValidationError (and stores nothing) for malformed records.
func (e *Engine) IngestActivity(ctx context.Context, a *store.Activity, streams []store.StreamPoint) (*IngestResult, error) {
	if err := validateActivity(a); err != nil {
		observability.RecordValidationSkip()
		return nil, err
	}

	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = e.now().UTC()
	}
	if a.Source == "" {
		a.Source = store.Manual
	}
	markStreamPresence(a, streams)
	a.Load = analysis.LoadScalar(*a, streams, e.zones)

	if err := e.db.UpsertActivity(a); err != nil {
		return nil, fmt.Errorf("storing activity %s: %w", a.ID, err)
	}
	if len(streams) > 0 {
		if err := e.db.ReplaceStreams(a.ID, streams); err != nil {
			return nil, fmt.Errorf("storing streams for %s: %w", a.ID, err)
		}
	}
	observability.RecordIngested()

	result := &IngestResult{CanonicalID: a.ID}

	// Resolve duplicates among records starting near this one. The candidate
	// window starts at the pairwise tolerance around the incoming record and
	// grows until the cluster containing it closes, so a chain of
	// near-duplicates spanning several windows end to end still resolves in
	// one pass.
	canonical := a
	from := a.StartDate.Add(-e.tol.TimeWindow)
	to := a.StartDate.Add(e.tol.TimeWindow)
	var candidates []store.Activity
	for {
		list, err := e.db.ListActivitiesBetween(a.AthleteID, from, to)
		if err != nil {
			return nil, fmt.Errorf("listing dedup candidates: %w", err)
		}
		candidates = list

		lo, hi, ok := clusterSpan(candidates, a.ID, e.tol)
		if !ok {
			break
		}
		growFrom, growTo := lo.Add(-e.tol.TimeWindow), hi.Add(e.tol.TimeWindow)
		if !growFrom.Before(from) && !growTo.After(to) {
			break
		}
		from, to = growFrom, growTo
	}

	for _, res := range dedup.Resolve(candidates, e.tol) {
		if !resolutionInvolves(&res, a.ID) {
			continue
		}
		if err := e.applyResolution(&res); err != nil {
			return nil, err
		}
		c := res.Canonical
		canonical = &c
		result.CanonicalID = c.ID
		result.DuplicatesRemoved = len(res.Removed)
		break
	}

	// Replay the series forward from the earliest date the cluster touched.
	earliest := canonical.StartDate
	if result.DuplicatesRemoved > 0 {
		for _, c := range candidates {
			if c.StartDate.Before(earliest) {
				earliest = c.StartDate
			}
		}
	}
	written, err := e.RebuildSeriesFrom(ctx, canonical.AthleteID, sport.Normalize(canonical.Sport), analysis.Day(earliest))
	if err != nil {
		return nil, err
	}
	result.SeriesPointsWritten = written

	improved, err := e.ExtractBestEfforts(ctx, canonical)
	if err != nil {
		return nil, err
	}
	result.EffortsImproved = improved

	return result, nil
}

// applyResolution deletes the losers of a duplicate cluster and persists the
// canonical record with its audit list.
func (e *Engine) applyResolution(res *dedup.Resolution) error {
	for _, r := range res.Removed {
		// Best efforts credited to a deleted duplicate are dropped too; the
		// canonical record's extraction reinstates anything it can back up.
		if err := e.db.DeleteBestEffortsForActivity(r.ID); err != nil {
			return fmt.Errorf("dropping best efforts of duplicate %s: %w", r.ID, err)
		}
		if err := e.db.DeleteActivity(r.ID); err != nil && !errors.Is(err, store.ErrActivityNotFound) {
			return fmt.Errorf("deleting duplicate %s: %w", r.ID, err)
		}
	}

	if err := e.db.UpsertActivity(&res.Canonical); err != nil {
		return fmt.Errorf("storing canonical %s: %w", res.Canonical.ID, err)
	}

	e.logger.Info("merged duplicate activities",
		"canonical", res.Canonical.ID,
		"removed", len(res.Removed),
		"sources", res.Canonical.DuplicateSources,
	)
	observability.RecordDuplicatesMerged(len(res.Removed))

	if res.Ambiguous {
		// Completeness and provenance tied; only creation time decided.
		e.logger.Warn("ambiguous duplicate cluster, tie broken by creation time",
			"canonical", res.Canonical.ID,
			"score", dedup.CompletenessScore(&res.Canonical),
			"removed", len(res.Removed),
		)
		observability.RecordAmbiguousCluster()
	}

	return nil
}

// ExtractBestEfforts scans an activity's sensor stream and records every
// window value that strictly beats the stored best for its sport.
func (e *Engine) ExtractBestEfforts(ctx context.Context, a *store.Activity) (improved int, err error) {
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	default:
	}

	streams, err := e.db.GetStreams(a.ID)
	if err != nil {
		return 0, fmt.Errorf("loading streams for %s: %w", a.ID, err)
	}
	if len(streams) == 0 {
		return 0, nil
	}

	s := sport.Normalize(a.Sport)

	var efforts []analysis.Effort
	lowerIsBetter := sport.PaceBased(s)
	if lowerIsBetter {
		efforts = analysis.PaceCurve(analysis.SpeedSamples(streams), analysis.EffortWindows)
	} else {
		efforts = analysis.PowerCurve(analysis.WattsSamples(streams), analysis.EffortWindows)
	}

	for _, effort := range efforts {
		updated, err := e.db.UpsertBestEffort(&store.BestEffort{
			AthleteID:       a.AthleteID,
			Sport:           string(s),
			DurationSeconds: effort.DurationSeconds,
			Value:           effort.Value,
			ActivityID:      a.ID,
			AchievedAt:      a.StartDate,
		}, lowerIsBetter)
		if err != nil {
			return improved, fmt.Errorf("storing %ds best effort: %w", effort.DurationSeconds, err)
		}
		if updated {
			improved++
			observability.RecordBestEffortImproved()
		}
	}

	return improved, nil
}

// validateActivity enforces the minimum shape an incoming record must have.
func validateActivity(a *store.Activity) error {
	if a.Sport == "" {
		return &ValidationError{Field: "sport", Reason: "is required"}
	}
	if a.DurationSeconds <= 0 {
		return &ValidationError{Field: "duration_seconds", Reason: "must be positive"}
	}
	if a.StartDate.IsZero() {
		return &ValidationError{Field: "start_date", Reason: "is required"}
	}
	if a.AthleteID <= 0 {
		return &ValidationError{Field: "athlete_id", Reason: "must be positive"}
	}
	if a.Distance != nil && *a.Distance < 0 {
		return &ValidationError{Field: "distance", Reason: "must not be negative"}
	}
	return nil
}

// markStreamPresence sets the completeness flags from the actual samples so
// the dedup scoring sees what the record really carries.
func markStreamPresence(a *store.Activity, streams []store.StreamPoint) {
	for _, p := range streams {
		if p.Watts != nil {
			a.HasPower = true
		}
		if p.Lat != nil && p.Lng != nil {
			a.HasGPS = true
		}
		if p.Heartrate != nil {
			a.HasHeartrate = true
		}
		if p.Cadence != nil {
			a.HasCadence = true
		}
		if p.Altitude != nil {
			a.HasAltitude = true
		}
	}
}

// clusterSpan returns the start-date extent of the duplicate cluster holding
// the given record. ok is false when no candidate carries that id.
func clusterSpan(records []store.Activity, id string, tol dedup.Tolerances) (lo, hi time.Time, ok bool) {
	for _, cluster := range dedup.Clusters(records, tol) {
		if !containsID(cluster, id) {
			continue
		}
		lo, hi = cluster[0].StartDate, cluster[0].StartDate
		for _, m := range cluster[1:] {
			if m.StartDate.Before(lo) {
				lo = m.StartDate
			}
			if m.StartDate.After(hi) {
				hi = m.StartDate
			}
		}
		return lo, hi, true
	}
	return time.Time{}, time.Time{}, false
}

func containsID(cluster []store.Activity, id string) bool {
	for _, c := range cluster {
		if c.ID == id {
			return true
		}
	}
	return false
}

func resolutionInvolves(res *dedup.Resolution, id string) bool {
	if res.Canonical.ID == id {
		return true
	}
	for _, r := range res.Removed {
		if r.ID == id {
			return true
		}
	}
	return false
}
