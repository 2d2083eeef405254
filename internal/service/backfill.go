package service

import (
	"context"
	"fmt"
	"time"

	"trainload/internal/analysis"
	"trainload/internal/dedup"
	"trainload/internal/observability"
	"trainload/internal/sport"
)

// BackfillResult tallies a batch run. Per-item failures are counted and
// collected without aborting the run.
type BackfillResult struct {
	Processed int
	Failed    int
	Errors    []error
}

func (r *BackfillResult) fail(stage string, err error) {
	r.Failed++
	r.Errors = append(r.Errors, err)
	observability.RecordItemFailure(stage)
}

// BackfillLoadSeries rebuilds the full load series of every sport for one
// athlete.
func (e *Engine) BackfillLoadSeries(ctx context.Context, athleteID int64) (*BackfillResult, error) {
	result := &BackfillResult{}

	for _, s := range sport.All {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		result.Processed++
		if _, err := e.RebuildSeries(ctx, athleteID, s); err != nil {
			result.fail("series", fmt.Errorf("rebuilding %s series: %w", s, err))
			e.logger.Warn("series rebuild failed", "sport", s, "error", err)
		}
	}

	return result, nil
}

// BackfillBestEfforts re-extracts best efforts from every stored activity of
// one athlete, oldest first. Because stored bests only ever improve, the run
// is idempotent.
func (e *Engine) BackfillBestEfforts(ctx context.Context, athleteID int64) (*BackfillResult, error) {
	activities, err := e.db.ListActivities(athleteID)
	if err != nil {
		return nil, fmt.Errorf("listing activities: %w", err)
	}

	result := &BackfillResult{}
	for i := range activities {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		result.Processed++
		if _, err := e.ExtractBestEfforts(ctx, &activities[i]); err != nil {
			result.fail("efforts", fmt.Errorf("extracting efforts for %s: %w", activities[i].ID, err))
			e.logger.Warn("best effort extraction failed", "activity", activities[i].ID, "error", err)
		}
	}

	return result, nil
}

// DedupScan resolves duplicate clusters across an athlete's whole history,
// then replays each affected sport's series from the earliest date a merge
// touched.
func (e *Engine) DedupScan(ctx context.Context, athleteID int64) (*BackfillResult, error) {
	activities, err := e.db.ListActivities(athleteID)
	if err != nil {
		return nil, fmt.Errorf("listing activities: %w", err)
	}

	result := &BackfillResult{}
	affected := make(map[sport.Sport]time.Time)

	for _, res := range dedup.Resolve(activities, e.tol) {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		result.Processed++
		if err := e.applyResolution(&res); err != nil {
			result.fail("dedup", err)
			e.logger.Warn("duplicate resolution failed", "canonical", res.Canonical.ID, "error", err)
			continue
		}

		// The losers' best efforts went with them; the canonical record's
		// streams reinstate whatever they can back up.
		if _, err := e.ExtractBestEfforts(ctx, &res.Canonical); err != nil {
			result.fail("efforts", fmt.Errorf("re-extracting efforts for %s: %w", res.Canonical.ID, err))
			e.logger.Warn("best effort extraction failed", "activity", res.Canonical.ID, "error", err)
		}

		s := sport.Normalize(res.Canonical.Sport)
		earliest := analysis.Day(res.Canonical.StartDate)
		for _, r := range res.Removed {
			if d := analysis.Day(r.StartDate); d.Before(earliest) {
				earliest = d
			}
		}
		if cur, ok := affected[s]; !ok || earliest.Before(cur) {
			affected[s] = earliest
		}
	}

	for s, from := range affected {
		if _, err := e.RebuildSeriesFrom(ctx, athleteID, s, from); err != nil {
			result.fail("series", fmt.Errorf("rebuilding %s series after dedup: %w", s, err))
			e.logger.Warn("post-dedup series rebuild failed", "sport", s, "error", err)
		}
	}

	return result, nil
}
