package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(f float64) *float64 { return &f }

func intPtr(i int) *int { return &i }

func testActivity(id string) *Activity {
	return &Activity{
		ID:               id,
		AthleteID:        1,
		Name:             "Morning Run",
		Sport:            "Run",
		StartDate:        time.Date(2025, 6, 1, 7, 0, 0, 0, time.UTC),
		DurationSeconds:  3600,
		Distance:         floatPtr(10000),
		Source:           "garmin",
		CreatedAt:        time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
		HasHeartrate:     true,
		AverageHeartrate: floatPtr(152),
		Load:             85.5,
	}
}

func TestUpsertAndGetActivity(t *testing.T) {
	db := OpenTest(t)

	a := testActivity("act-1")
	a.DuplicateSources = []string{"manual", "polar"}
	require.NoError(t, db.UpsertActivity(a))

	got, err := db.GetActivity("act-1")
	require.NoError(t, err)
	assert.Equal(t, a.Name, got.Name)
	assert.Equal(t, a.Sport, got.Sport)
	assert.True(t, got.StartDate.Equal(a.StartDate))
	assert.True(t, got.CreatedAt.Equal(a.CreatedAt))
	require.NotNil(t, got.Distance)
	assert.Equal(t, 10000.0, *got.Distance)
	assert.True(t, got.HasHeartrate)
	assert.False(t, got.HasPower)
	assert.Equal(t, 85.5, got.Load)
	assert.Equal(t, []string{"manual", "polar"}, got.DuplicateSources)
}

func TestUpsertActivityIsIdempotent(t *testing.T) {
	db := OpenTest(t)

	a := testActivity("act-1")
	require.NoError(t, db.UpsertActivity(a))
	a.Load = 90
	require.NoError(t, db.UpsertActivity(a))

	activities, err := db.ListActivities(1)
	require.NoError(t, err)
	require.Len(t, activities, 1)
	assert.Equal(t, 90.0, activities[0].Load)
}

func TestGetActivityNotFound(t *testing.T) {
	db := OpenTest(t)

	_, err := db.GetActivity("missing")
	assert.ErrorIs(t, err, ErrActivityNotFound)
}

func TestDeleteActivityCascadesStreams(t *testing.T) {
	db := OpenTest(t)

	require.NoError(t, db.UpsertActivity(testActivity("act-1")))
	require.NoError(t, db.ReplaceStreams("act-1", []StreamPoint{
		{TimeOffset: 0, Heartrate: intPtr(140)},
		{TimeOffset: 1, Heartrate: intPtr(142)},
	}))

	require.NoError(t, db.DeleteActivity("act-1"))

	_, err := db.GetActivity("act-1")
	assert.ErrorIs(t, err, ErrActivityNotFound)

	streams, err := db.GetStreams("act-1")
	require.NoError(t, err)
	assert.Empty(t, streams)

	assert.ErrorIs(t, db.DeleteActivity("act-1"), ErrActivityNotFound)
}

func TestListActivitiesBetween(t *testing.T) {
	db := OpenTest(t)

	base := time.Date(2025, 6, 1, 7, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		a := testActivity(id)
		a.StartDate = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, db.UpsertActivity(a))
	}

	got, err := db.ListActivitiesBetween(1, base, base.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "b", got[1].ID)
}

func TestReplaceStreamsRoundTrip(t *testing.T) {
	db := OpenTest(t)
	require.NoError(t, db.UpsertActivity(testActivity("act-1")))

	points := []StreamPoint{
		{TimeOffset: 0, Watts: floatPtr(220), VelocitySmooth: floatPtr(3.1), Heartrate: intPtr(150)},
		{TimeOffset: 1, Watts: floatPtr(240), VelocitySmooth: floatPtr(3.2)},
	}
	require.NoError(t, db.ReplaceStreams("act-1", points))

	got, err := db.GetStreams("act-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 220.0, *got[0].Watts)
	assert.Nil(t, got[1].Heartrate)

	// Replacing drops the old samples
	require.NoError(t, db.ReplaceStreams("act-1", points[:1]))
	got, err = db.GetStreams("act-1")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
