package domain

import (
	"testing"
	"time"

	"recruit_portal_backend/internal/synctasks/transport"
)

func intPtr(v int) *int                                        { return &v }
func unitPtr(u transport.IntervalUnit) *transport.IntervalUnit { return &u }

func TestInterval_FixedTypes(t *testing.T) {
	cases := []struct {
		intervalType transport.IntervalType
		want         time.Duration
	}{
		{transport.IntervalHourly, time.Hour},
		{transport.IntervalDaily, 24 * time.Hour},
		{transport.IntervalWeekly, 7 * 24 * time.Hour},
	}

	for _, tc := range cases {
		got, err := Interval(tc.intervalType, nil, nil)
		if err != nil {
			t.Fatalf("Interval(%s) returned error: %v", tc.intervalType, err)
		}
		if got != tc.want {
			t.Errorf("Interval(%s) = %v, want %v", tc.intervalType, got, tc.want)
		}
	}
}

func TestInterval_Custom(t *testing.T) {
	cases := []struct {
		value int
		unit  transport.IntervalUnit
		want  time.Duration
	}{
		{30, transport.UnitMinutes, 30 * time.Minute},
		{6, transport.UnitHours, 6 * time.Hour},
		{3, transport.UnitDays, 72 * time.Hour},
	}

	for _, tc := range cases {
		got, err := Interval(transport.IntervalCustom, intPtr(tc.value), unitPtr(tc.unit))
		if err != nil {
			t.Fatalf("Interval(custom %d %s) returned error: %v", tc.value, tc.unit, err)
		}
		if got != tc.want {
			t.Errorf("Interval(custom %d %s) = %v, want %v", tc.value, tc.unit, got, tc.want)
		}
	}
}

func TestInterval_CustomRequiresValueAndUnit(t *testing.T) {
	if _, err := Interval(transport.IntervalCustom, nil, unitPtr(transport.UnitHours)); err == nil {
		t.Error("expected error for custom interval without value")
	}
	if _, err := Interval(transport.IntervalCustom, intPtr(5), nil); err == nil {
		t.Error("expected error for custom interval without unit")
	}
}

func TestInterval_UnknownType(t *testing.T) {
	if _, err := Interval(transport.IntervalType("monthly"), nil, nil); err == nil {
		t.Error("expected error for unknown interval type")
	}
}

func TestNextRun_NeverRanIsDueImmediately(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	got, err := NextRun(nil, now, transport.IntervalDaily, nil, nil)
	if err != nil {
		t.Fatalf("NextRun returned error: %v", err)
	}
	if !got.Equal(now) {
		t.Fatalf("expected next run %v, got %v", now, got)
	}
}

func TestNextRun_AddsIntervalToLastRun(t *testing.T) {
	lastRun := time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	got, err := NextRun(&lastRun, now, transport.IntervalHourly, nil, nil)
	if err != nil {
		t.Fatalf("NextRun returned error: %v", err)
	}
	want := time.Date(2024, 3, 1, 7, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected next run %v, got %v", want, got)
	}
}

func TestCanTransitionTask(t *testing.T) {
	cases := []struct {
		from transport.TaskStatus
		to   transport.TaskStatus
		want bool
	}{
		{transport.TaskPending, transport.TaskRunning, true},
		{transport.TaskPending, transport.TaskCancelled, true},
		{transport.TaskRunning, transport.TaskCompleted, true},
		{transport.TaskRunning, transport.TaskFailed, true},
		{transport.TaskCancelled, transport.TaskPending, true},

		{transport.TaskPending, transport.TaskCompleted, false},
		{transport.TaskPending, transport.TaskFailed, false},
		{transport.TaskRunning, transport.TaskCancelled, false},
		{transport.TaskRunning, transport.TaskPending, false},
		{transport.TaskCompleted, transport.TaskPending, false},
		{transport.TaskFailed, transport.TaskPending, false},
		{transport.TaskCancelled, transport.TaskRunning, false},
	}

	for _, tc := range cases {
		if got := CanTransitionTask(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransitionTask(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}
