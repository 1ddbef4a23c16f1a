package domain

import (
	"testing"
	"time"

	"recruit_portal_backend/internal/followups/transport"
)

func TestCanTransition_ForwardEdges(t *testing.T) {
	cases := []struct {
		from transport.ActionStatus
		to   transport.ActionStatus
		want bool
	}{
		{transport.StatusPending, transport.StatusInProgress, true},
		{transport.StatusPending, transport.StatusCompleted, true},
		{transport.StatusPending, transport.StatusCancelled, true},
		{transport.StatusInProgress, transport.StatusCompleted, true},
		{transport.StatusInProgress, transport.StatusCancelled, true},
		{transport.StatusInProgress, transport.StatusPending, false},
		{transport.StatusCompleted, transport.StatusPending, false},
		{transport.StatusCompleted, transport.StatusInProgress, false},
		{transport.StatusCompleted, transport.StatusCancelled, false},
		{transport.StatusCancelled, transport.StatusCompleted, false},
		{transport.StatusCancelled, transport.StatusPending, false},
	}

	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	if !IsTerminal(transport.StatusCompleted) {
		t.Error("expected completed to be terminal")
	}
	if !IsTerminal(transport.StatusCancelled) {
		t.Error("expected cancelled to be terminal")
	}
	if IsTerminal(transport.StatusPending) {
		t.Error("expected pending to be non-terminal")
	}
	if IsTerminal(transport.StatusInProgress) {
		t.Error("expected in_progress to be non-terminal")
	}
}

func TestKnownStatus_RejectsUnknown(t *testing.T) {
	if KnownStatus(transport.ActionStatus("archived")) {
		t.Error("expected archived to be unknown")
	}
	if !KnownStatus(transport.StatusPending) {
		t.Error("expected pending to be known")
	}
}

func TestDueDate_PreservesWallClockTime(t *testing.T) {
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	got := DueDate(now, 2)
	want := time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected due date %v, got %v", want, got)
	}
}

func TestDueDate_NegativeOffsetSchedulesBefore(t *testing.T) {
	now := time.Date(2024, 6, 10, 8, 30, 0, 0, time.UTC)

	got := DueDate(now, -3)
	want := time.Date(2024, 6, 7, 8, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected due date %v, got %v", want, got)
	}
}

func TestLogTypeForTransition(t *testing.T) {
	if got := LogTypeForTransition(transport.StatusCompleted); got != transport.LogComplete {
		t.Errorf("expected complete log type, got %s", got)
	}
	if got := LogTypeForTransition(transport.StatusCancelled); got != transport.LogCancel {
		t.Errorf("expected cancel log type, got %s", got)
	}
	if got := LogTypeForTransition(transport.StatusInProgress); got != transport.LogUpdate {
		t.Errorf("expected update log type, got %s", got)
	}
}
