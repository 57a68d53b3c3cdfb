package services

import (
	"time"

	"github.com/sandpit-systems/beachline/models"
)

// requiredMatchDate computes the calendar date (in the tournament's resolved
// timezone) a match of the given day bucket must be played on: the lock date
// plus the bucket's fixed offset.
func requiredMatchDate(policy models.TournamentPolicy, day models.DayBucket) (time.Time, *time.Location, error) {
	loc := resolveLocation(policy.Timezone)

	offset := day.DayOffset()
	if offset < 0 {
		return time.Time{}, loc, scheduleWindowError("unknown day bucket", map[string]interface{}{
			"day": string(day),
		})
	}

	lockAt, err := time.Parse(time.RFC3339, policy.LineupLockAt)
	if err != nil {
		return time.Time{}, loc, scheduleWindowError("lineup lock timestamp is not a valid instant", map[string]interface{}{
			"lineupLockAt": policy.LineupLockAt,
		})
	}

	return lockAt.In(loc).AddDate(0, 0, offset), loc, nil
}

// validateMatchSchedule enforces the cadence contract for a candidate match:
// the scheduled timestamp must fall on the required calendar date, and the
// insertion itself must happen within [required-1 day, required]. All
// comparisons are by date-key equality within the tournament timezone.
func validateMatchSchedule(policy models.TournamentPolicy, day models.DayBucket, scheduledAt, now time.Time) error {
	required, loc, err := requiredMatchDate(policy, day)
	if err != nil {
		return err
	}
	requiredKey := required.Format(dateKeyLayout)

	if scheduledAt.IsZero() {
		return scheduleWindowError("scheduled timestamp is not a valid instant", map[string]interface{}{
			"scheduledAt": scheduledAt,
		})
	}
	scheduledKey := dateKeyIn(scheduledAt, loc)
	if scheduledKey != requiredKey {
		return scheduleWindowError("match is scheduled on the wrong calendar day", map[string]interface{}{
			"day":           string(day),
			"scheduledDate": scheduledKey,
			"requiredDate":  requiredKey,
		})
	}

	todayKey := dateKeyIn(now, loc)
	earliestKey := required.AddDate(0, 0, -1).Format(dateKeyLayout)
	if todayKey != requiredKey && todayKey != earliestKey {
		return scheduleWindowError("match insertion is outside the allowed window", map[string]interface{}{
			"day":         string(day),
			"today":       todayKey,
			"windowStart": earliestKey,
			"windowEnd":   requiredKey,
		})
	}
	return nil
}
