package store

import "time"

// Activity is one activity record as delivered by the upstream ingestion
// collaborators. Within an athlete's history at most one canonical Activity
// should exist per real-world session; the dedup resolver enforces that by
// deleting the losers of each duplicate cluster.
type Activity struct {
	ID               string    `db:"id"` // uuid
	AthleteID        int64     `db:"athlete_id"`
	Name             string    `db:"name"`
	Sport            string    `db:"sport"` // free-text label from the source
	StartDate        time.Time `db:"start_date"`
	DurationSeconds  int       `db:"duration_seconds"`
	Distance         *float64  `db:"distance"` // meters, nullable
	Source           string    `db:"source"`   // device/platform id, or "manual"
	CreatedAt        time.Time `db:"created_at"`
	HasPower         bool      `db:"has_power"`
	HasGPS           bool      `db:"has_gps"`
	HasHeartrate     bool      `db:"has_heartrate"`
	HasCadence       bool      `db:"has_cadence"`
	HasAltitude      bool      `db:"has_altitude"`
	AverageHeartrate *float64  `db:"average_heartrate"` // bpm, nullable
	Load             float64   `db:"load"`              // load scalar for the session
	DuplicateSources []string  `db:"duplicate_sources"` // audit list, sources of merged duplicates
}

// Manual is the provenance source of a hand-entered activity. Anything else
// is treated as an external device or platform.
const Manual = "manual"

// StreamPoint is a single per-second sample from an activity's sensor streams.
type StreamPoint struct {
	ActivityID     string   `db:"activity_id"`
	TimeOffset     int      `db:"time_offset"` // seconds from start
	Watts          *float64 `db:"watts"`
	VelocitySmooth *float64 `db:"velocity_smooth"` // m/s
	Heartrate      *int     `db:"heartrate"`       // bpm
	Cadence        *int     `db:"cadence"`
	Altitude       *float64 `db:"altitude"` // meters
	Lat            *float64 `db:"latlng_lat"`
	Lng            *float64 `db:"latlng_lng"`
	Distance       *float64 `db:"distance"` // cumulative meters
}

// DailyLoadBucket is the summed load for one (athlete, date, sport) day,
// rebuilt whenever the canonical activity set for that day changes.
type DailyLoadBucket struct {
	AthleteID       int64     `db:"athlete_id"`
	Date            time.Time `db:"date"`  // midnight UTC
	Sport           string    `db:"sport"` // canonical bucket
	Load            float64   `db:"load"`
	DurationSeconds int       `db:"duration_seconds"`
}

// SeriesPoint is one day of the chronic/acute load series for an athlete and
// canonical sport. Exactly one row exists per (athlete, date, sport) covering
// every calendar day of the sport's history, zero-load days included.
// Rows are only ever written by series replays, never hand-edited.
type SeriesPoint struct {
	AthleteID int64     `db:"athlete_id"`
	Date      time.Time `db:"date"`
	Sport     string    `db:"sport"`
	Load      float64   `db:"load"`
	CTL       float64   `db:"ctl"` // chronic load, 42-day decay
	ATL       float64   `db:"atl"` // acute load, 7-day decay
	TSB       float64   `db:"tsb"` // balance, CTL - ATL
}

// BestEffort is the best sustained average ever recorded for one window
// duration of one sport. Power sports store watts (higher is better); pace
// sports store seconds per kilometer (lower is better). Rows are replaced
// only by strictly better values.
type BestEffort struct {
	AthleteID       int64     `db:"athlete_id"`
	Sport           string    `db:"sport"`
	DurationSeconds int       `db:"duration_seconds"`
	Value           float64   `db:"value"`
	ActivityID      string    `db:"activity_id"`
	AchievedAt      time.Time `db:"achieved_at"`
}
