package transport

import "testing"

func TestCanAdvance_ForwardOnly(t *testing.T) {
	cases := []struct {
		from SubmissionStatus
		to   SubmissionStatus
		want bool
	}{
		{SubmissionPending, SubmissionFollowedUp, true},
		{SubmissionFollowedUp, SubmissionResponseReceived, true},
		{SubmissionFollowedUp, SubmissionNoResponse, true},

		// Terminal outcomes require a prior follow-up.
		{SubmissionPending, SubmissionResponseReceived, false},
		{SubmissionPending, SubmissionNoResponse, false},

		// Same status is not an advance.
		{SubmissionPending, SubmissionPending, false},
		{SubmissionFollowedUp, SubmissionFollowedUp, false},

		// Backwards never.
		{SubmissionFollowedUp, SubmissionPending, false},
		{SubmissionResponseReceived, SubmissionFollowedUp, false},
		{SubmissionResponseReceived, SubmissionPending, false},
		{SubmissionNoResponse, SubmissionFollowedUp, false},

		// The two outcomes never replace each other.
		{SubmissionResponseReceived, SubmissionNoResponse, false},
		{SubmissionNoResponse, SubmissionResponseReceived, false},
	}

	for _, tc := range cases {
		if got := CanAdvance(tc.from, tc.to); got != tc.want {
			t.Errorf("CanAdvance(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestCanAdvance_UnknownStatus(t *testing.T) {
	if CanAdvance(SubmissionStatus("draft"), SubmissionFollowedUp) {
		t.Error("expected unknown source status to be rejected")
	}
	if CanAdvance(SubmissionPending, SubmissionStatus("archived")) {
		t.Error("expected unknown target status to be rejected")
	}
}

func TestKnownStatus(t *testing.T) {
	for _, status := range []SubmissionStatus{SubmissionPending, SubmissionFollowedUp, SubmissionResponseReceived, SubmissionNoResponse} {
		if !KnownStatus(status) {
			t.Errorf("expected %s to be known", status)
		}
	}
	if KnownStatus(SubmissionStatus("lost")) {
		t.Error("expected lost to be unknown")
	}
}
