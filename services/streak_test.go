package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordActivityTransitions(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	day := func(n int) StreakResult {
		t.Helper()
		res, err := e.streak.RecordActivity(ctx, "alice", testDay.AddDate(0, 0, n))
		require.NoError(t, err)
		return *res
	}

	assert.Equal(t, StreakResult{CurrentStreak: 1, LongestStreak: 1}, day(0), "first activity")
	assert.Equal(t, StreakResult{CurrentStreak: 1, LongestStreak: 1}, day(0), "same day is a no-op")
	assert.Equal(t, StreakResult{CurrentStreak: 2, LongestStreak: 2}, day(1), "next day continues")
	assert.Equal(t, StreakResult{CurrentStreak: 3, LongestStreak: 3}, day(2))
	assert.Equal(t, StreakResult{CurrentStreak: 1, LongestStreak: 3}, day(7), "gap resets, longest kept")
	assert.Equal(t, StreakResult{CurrentStreak: 2, LongestStreak: 3}, day(8), "longest only moves when exceeded")

	row := e.stats(t, "alice")
	require.NotNil(t, row.LastActivityDate)
	assert.Equal(t, "2025-03-18", *row.LastActivityDate)
}

func TestRecordActivitySameDayDifferentHours(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	_, err := e.streak.RecordActivity(ctx, "alice", testDay.Add(time.Minute))
	require.NoError(t, err)
	res, err := e.streak.RecordActivity(ctx, "alice", testDay.Add(23 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, res.CurrentStreak)
}

func TestRecordActivityResetAfterFiveDays(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	_, err := e.streak.RecordActivity(ctx, "alice", testDay)
	require.NoError(t, err)
	res, err := e.streak.RecordActivity(ctx, "alice", testDay.AddDate(0, 0, 5))
	require.NoError(t, err)
	assert.Equal(t, 1, res.CurrentStreak)
	assert.Equal(t, 1, res.LongestStreak)
}

func TestRecordActivityRejectsEarlierDate(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	_, err := e.streak.RecordActivity(ctx, "alice", testDay)
	require.NoError(t, err)
	_, err = e.streak.RecordActivity(ctx, "alice", testDay.AddDate(0, 0, 1))
	require.NoError(t, err)

	_, err = e.streak.RecordActivity(ctx, "alice", testDay.AddDate(0, 0, -3))
	require.ErrorIs(t, err, ErrInvalidArgument)

	row := e.stats(t, "alice")
	assert.Equal(t, 2, row.CurrentStreak)
	assert.Equal(t, "2025-03-11", *row.LastActivityDate)
}

func TestDaysBetween(t *testing.T) {
	n, err := daysBetween("2024-02-28", "2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = daysBetween("2025-01-02", "2025-01-01")
	require.NoError(t, err)
	assert.Equal(t, -1, n)

	_, err = daysBetween("yesterday", "2025-01-01")
	assert.Error(t, err)
}
