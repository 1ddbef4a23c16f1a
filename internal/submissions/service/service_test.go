package service

import (
	"context"
	"testing"

	"recruit_portal_backend/internal/submissions/transport"
	"recruit_portal_backend/platform/apperr"

	"github.com/google/uuid"
)

func TestUpdateStatus_NoResponseIsSweepOnly(t *testing.T) {
	svc := &Service{}

	_, err := svc.UpdateStatus(context.Background(), uuid.New(), transport.UpdateSubmissionStatusRequest{
		Status: transport.SubmissionNoResponse,
	}, uuid.New())
	if err == nil {
		t.Fatal("expected no_response to be rejected, got nil error")
	}
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateStatus_UnknownStatusIsRejected(t *testing.T) {
	svc := &Service{}

	_, err := svc.UpdateStatus(context.Background(), uuid.New(), transport.UpdateSubmissionStatusRequest{
		Status: transport.SubmissionStatus("archived"),
	}, uuid.New())
	if err == nil {
		t.Fatal("expected unknown status to be rejected, got nil error")
	}
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
