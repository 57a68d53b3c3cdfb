package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandpit-systems/beachline/models"
)

func womenPolicy(lockAt, tz string) models.TournamentPolicy {
	return models.TournamentPolicy{
		RosterSize:   4,
		StarterCount: 2,
		ReserveCount: 2,
		LineupLockAt: lockAt,
		Timezone:     tz,
	}
}

func TestResolveLocationFallsBackToUTC(t *testing.T) {
	assert.Equal(t, time.UTC, resolveLocation("Not/AZone"))
	assert.Equal(t, time.UTC, resolveLocation(""))

	berlin := resolveLocation("Europe/Berlin")
	require.NotNil(t, berlin)
	assert.Equal(t, "Europe/Berlin", berlin.String())
}

func TestRequiredMatchDateOffsets(t *testing.T) {
	policy := womenPolicy("2026-06-18T08:00:00Z", "UTC")

	cases := []struct {
		day  models.DayBucket
		want string
	}{
		{models.DayFriday, "2026-06-19"},
		{models.DaySaturday, "2026-06-20"},
		{models.DaySunday, "2026-06-21"},
	}
	for _, tc := range cases {
		required, _, err := requiredMatchDate(policy, tc.day)
		require.NoError(t, err)
		assert.Equal(t, tc.want, required.Format(dateKeyLayout))
	}
}

func TestRequiredMatchDateUsesTournamentTimezone(t *testing.T) {
	// 23:30 UTC on the 18th is already the 19th in Berlin, so saturday
	// shifts one calendar day forward relative to UTC.
	policy := womenPolicy("2026-06-18T23:30:00Z", "Europe/Berlin")

	required, loc, err := requiredMatchDate(policy, models.DaySaturday)
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", loc.String())
	assert.Equal(t, "2026-06-21", required.Format(dateKeyLayout))
}

func TestValidateMatchScheduleWrongDay(t *testing.T) {
	policy := womenPolicy("2026-06-18T08:00:00Z", "UTC")
	now := time.Date(2026, 6, 19, 10, 0, 0, 0, time.UTC)

	// Saturday match scheduled on friday's date.
	scheduled := time.Date(2026, 6, 19, 14, 0, 0, 0, time.UTC)
	err := validateMatchSchedule(policy, models.DaySaturday, scheduled, now)
	require.Error(t, err)
	assert.Equal(t, CodeScheduleWindow, CodeOf(err))
}

func TestValidateMatchScheduleInsertionWindow(t *testing.T) {
	policy := womenPolicy("2026-06-18T08:00:00Z", "UTC")
	scheduled := time.Date(2026, 6, 20, 14, 0, 0, 0, time.UTC) // saturday slot

	// Two days ahead: outside [required-1, required].
	early := time.Date(2026, 6, 18, 10, 0, 0, 0, time.UTC)
	err := validateMatchSchedule(policy, models.DaySaturday, scheduled, early)
	require.Error(t, err)
	assert.Equal(t, CodeScheduleWindow, CodeOf(err))

	// Day before and day itself are both fine.
	for _, now := range []time.Time{
		time.Date(2026, 6, 19, 10, 0, 0, 0, time.UTC),
		time.Date(2026, 6, 20, 23, 0, 0, 0, time.UTC),
	} {
		assert.NoError(t, validateMatchSchedule(policy, models.DaySaturday, scheduled, now))
	}

	// After the required date the window is closed.
	late := time.Date(2026, 6, 21, 0, 30, 0, 0, time.UTC)
	err = validateMatchSchedule(policy, models.DaySaturday, scheduled, late)
	require.Error(t, err)
	assert.Equal(t, CodeScheduleWindow, CodeOf(err))
}

func TestValidateMatchScheduleRejectsBrokenInputs(t *testing.T) {
	now := time.Date(2026, 6, 19, 10, 0, 0, 0, time.UTC)

	err := validateMatchSchedule(womenPolicy("not-a-timestamp", "UTC"), models.DayFriday, now, now)
	require.Error(t, err)
	assert.Equal(t, CodeScheduleWindow, CodeOf(err))

	err = validateMatchSchedule(womenPolicy("2026-06-18T08:00:00Z", "UTC"), models.DayBucket("monday"), now, now)
	require.Error(t, err)
	assert.Equal(t, CodeScheduleWindow, CodeOf(err))

	err = validateMatchSchedule(womenPolicy("2026-06-18T08:00:00Z", "UTC"), models.DayFriday, time.Time{}, now)
	require.Error(t, err)
	assert.Equal(t, CodeScheduleWindow, CodeOf(err))
}
