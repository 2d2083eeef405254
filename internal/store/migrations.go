package store

import "database/sql"

// migrate runs all database migrations
func migrate(db *sql.DB) error {
	migrations := []string{
		// Activity records from all ingestion sources
		`CREATE TABLE IF NOT EXISTS activities (
			id TEXT PRIMARY KEY,
			athlete_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			sport TEXT NOT NULL,
			start_date TEXT NOT NULL,
			duration_seconds INTEGER NOT NULL,
			distance REAL,
			source TEXT NOT NULL,
			created_at TEXT NOT NULL,
			has_power INTEGER NOT NULL DEFAULT 0,
			has_gps INTEGER NOT NULL DEFAULT 0,
			has_heartrate INTEGER NOT NULL DEFAULT 0,
			has_cadence INTEGER NOT NULL DEFAULT 0,
			has_altitude INTEGER NOT NULL DEFAULT 0,
			average_heartrate REAL,
			load REAL NOT NULL DEFAULT 0,
			duplicate_sources TEXT,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_activities_athlete_start ON activities(athlete_id, start_date)`,

		// Streams (per-second sensor samples)
		`CREATE TABLE IF NOT EXISTS streams (
			activity_id TEXT NOT NULL,
			time_offset INTEGER NOT NULL,
			watts REAL,
			velocity_smooth REAL,
			heartrate INTEGER,
			cadence INTEGER,
			altitude REAL,
			latlng_lat REAL,
			latlng_lng REAL,
			distance REAL,
			PRIMARY KEY (activity_id, time_offset),
			FOREIGN KEY (activity_id) REFERENCES activities(id) ON DELETE CASCADE
		)`,

		// Daily load buckets, aggregated from canonical activities
		`CREATE TABLE IF NOT EXISTS daily_loads (
			athlete_id INTEGER NOT NULL,
			date TEXT NOT NULL,
			sport TEXT NOT NULL,
			load REAL NOT NULL,
			duration_seconds INTEGER NOT NULL,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (athlete_id, date, sport)
		)`,

		// Chronic/acute load series, one row per calendar day per sport
		`CREATE TABLE IF NOT EXISTS load_series (
			athlete_id INTEGER NOT NULL,
			date TEXT NOT NULL,
			sport TEXT NOT NULL,
			load REAL NOT NULL,
			ctl REAL NOT NULL,
			atl REAL NOT NULL,
			tsb REAL NOT NULL,
			computed_at TEXT DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (athlete_id, date, sport)
		)`,

		// Best efforts (mean-maximal values per window duration)
		`CREATE TABLE IF NOT EXISTS best_efforts (
			athlete_id INTEGER NOT NULL,
			sport TEXT NOT NULL,
			duration_seconds INTEGER NOT NULL,
			value REAL NOT NULL,
			activity_id TEXT NOT NULL,
			achieved_at TEXT NOT NULL,
			PRIMARY KEY (athlete_id, sport, duration_seconds)
		)`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}

	return nil
}
