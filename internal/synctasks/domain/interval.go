// Package domain holds the pure recurring-sync scheduling rules.
package domain

import (
	"fmt"
	"time"

	"recruit_portal_backend/internal/synctasks/transport"
)

// Interval converts a sync setting's interval fields into a duration.
// Custom intervals need both a value and a unit.
func Interval(intervalType transport.IntervalType, value *int, unit *transport.IntervalUnit) (time.Duration, error) {
	switch intervalType {
	case transport.IntervalHourly:
		return time.Hour, nil
	case transport.IntervalDaily:
		return 24 * time.Hour, nil
	case transport.IntervalWeekly:
		return 7 * 24 * time.Hour, nil
	case transport.IntervalCustom:
		if value == nil || unit == nil {
			return 0, fmt.Errorf("custom interval requires value and unit")
		}
		switch *unit {
		case transport.UnitMinutes:
			return time.Duration(*value) * time.Minute, nil
		case transport.UnitHours:
			return time.Duration(*value) * time.Hour, nil
		case transport.UnitDays:
			return time.Duration(*value) * 24 * time.Hour, nil
		default:
			return 0, fmt.Errorf("unknown interval unit: %s", *unit)
		}
	default:
		return 0, fmt.Errorf("unknown interval type: %s", intervalType)
	}
}

// NextRun computes when a sync setting fires next. A setting that never ran
// is due immediately.
func NextRun(lastRun *time.Time, now time.Time, intervalType transport.IntervalType, value *int, unit *transport.IntervalUnit) (time.Time, error) {
	if lastRun == nil {
		return now, nil
	}
	interval, err := Interval(intervalType, value, unit)
	if err != nil {
		return time.Time{}, err
	}
	return lastRun.Add(interval), nil
}

// CanTransitionTask encodes the scheduled task state machine. Cancelled
// tasks can be re-enabled back to pending; completed and failed cannot.
func CanTransitionTask(from, to transport.TaskStatus) bool {
	switch from {
	case transport.TaskPending:
		return to == transport.TaskRunning || to == transport.TaskCancelled
	case transport.TaskRunning:
		return to == transport.TaskCompleted || to == transport.TaskFailed
	case transport.TaskCancelled:
		return to == transport.TaskPending
	default:
		return false
	}
}
