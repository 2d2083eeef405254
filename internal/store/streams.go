package store

// ReplaceStreams deletes any existing stream points for an activity and
// inserts the given ones in a single transaction.
func (db *DB) ReplaceStreams(activityID string, points []StreamPoint) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM streams WHERE activity_id = ?`, activityID); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO streams (
			activity_id, time_offset, watts, velocity_smooth, heartrate,
			cadence, altitude, latlng_lat, latlng_lng, distance
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range points {
		_, err := stmt.Exec(
			activityID, p.TimeOffset, p.Watts, p.VelocitySmooth, p.Heartrate,
			p.Cadence, p.Altitude, p.Lat, p.Lng, p.Distance,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetStreams retrieves all stream points for an activity ordered by offset.
func (db *DB) GetStreams(activityID string) ([]StreamPoint, error) {
	rows, err := db.Query(`
		SELECT activity_id, time_offset, watts, velocity_smooth, heartrate,
			cadence, altitude, latlng_lat, latlng_lng, distance
		FROM streams
		WHERE activity_id = ?
		ORDER BY time_offset ASC
	`, activityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []StreamPoint
	for rows.Next() {
		var p StreamPoint
		err := rows.Scan(
			&p.ActivityID, &p.TimeOffset, &p.Watts, &p.VelocitySmooth,
			&p.Heartrate, &p.Cadence, &p.Altitude, &p.Lat, &p.Lng, &p.Distance,
		)
		if err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}
