package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEffort(value float64) *BestEffort {
	return &BestEffort{
		AthleteID:       1,
		Sport:           "ride",
		DurationSeconds: 60,
		Value:           value,
		ActivityID:      "act-1",
		AchievedAt:      time.Date(2025, 6, 1, 7, 0, 0, 0, time.UTC),
	}
}

func TestUpsertBestEffortHigherWins(t *testing.T) {
	db := OpenTest(t)

	updated, err := db.UpsertBestEffort(testEffort(250), false)
	require.NoError(t, err)
	assert.True(t, updated, "first value always lands")

	// Equal value is not an improvement
	updated, err = db.UpsertBestEffort(testEffort(250), false)
	require.NoError(t, err)
	assert.False(t, updated)

	updated, err = db.UpsertBestEffort(testEffort(240), false)
	require.NoError(t, err)
	assert.False(t, updated)

	updated, err = db.UpsertBestEffort(testEffort(260), false)
	require.NoError(t, err)
	assert.True(t, updated)

	got, err := db.GetBestEffort(1, "ride", 60)
	require.NoError(t, err)
	assert.Equal(t, 260.0, got.Value)
}

func TestUpsertBestEffortLowerWins(t *testing.T) {
	db := OpenTest(t)

	pace := testEffort(300)
	pace.Sport = "run"

	updated, err := db.UpsertBestEffort(pace, true)
	require.NoError(t, err)
	assert.True(t, updated)

	worse := testEffort(310)
	worse.Sport = "run"
	updated, err = db.UpsertBestEffort(worse, true)
	require.NoError(t, err)
	assert.False(t, updated)

	better := testEffort(290)
	better.Sport = "run"
	updated, err = db.UpsertBestEffort(better, true)
	require.NoError(t, err)
	assert.True(t, updated)

	got, err := db.GetBestEffort(1, "run", 60)
	require.NoError(t, err)
	assert.Equal(t, 290.0, got.Value)
}

func TestGetBestEffortNotFound(t *testing.T) {
	db := OpenTest(t)
	_, err := db.GetBestEffort(1, "ride", 60)
	assert.ErrorIs(t, err, ErrBestEffortNotFound)
}

func TestListBestEffortsOrdered(t *testing.T) {
	db := OpenTest(t)

	for _, d := range []int{300, 5, 60} {
		be := testEffort(200)
		be.DurationSeconds = d
		_, err := db.UpsertBestEffort(be, false)
		require.NoError(t, err)
	}

	got, err := db.ListBestEfforts(1, "ride")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []int{5, 60, 300}, []int{got[0].DurationSeconds, got[1].DurationSeconds, got[2].DurationSeconds})
}

func TestDeleteBestEffortsForActivity(t *testing.T) {
	db := OpenTest(t)

	mine := testEffort(250)
	_, err := db.UpsertBestEffort(mine, false)
	require.NoError(t, err)

	other := testEffort(280)
	other.DurationSeconds = 120
	other.ActivityID = "act-2"
	_, err = db.UpsertBestEffort(other, false)
	require.NoError(t, err)

	require.NoError(t, db.DeleteBestEffortsForActivity("act-1"))

	_, err = db.GetBestEffort(1, "ride", 60)
	assert.ErrorIs(t, err, ErrBestEffortNotFound)

	kept, err := db.GetBestEffort(1, "ride", 120)
	require.NoError(t, err)
	assert.Equal(t, "act-2", kept.ActivityID)
}
