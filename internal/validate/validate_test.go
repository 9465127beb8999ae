package validate

import (
	"errors"
	"testing"
)

type createRequest struct {
	ServiceID string `json:"serviceId" validate:"required,uuid"`
	Notes     string `json:"notes" validate:"max=10"`
}

func TestStruct_ReportsJSONFieldName(t *testing.T) {
	err := Struct(createRequest{ServiceID: "not-a-uuid"})
	var ve ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if ve.Code != "VALIDATION_FAILED" {
		t.Fatalf("unexpected code %q", ve.Code)
	}
	if ve.Message != `serviceId failed "uuid"` {
		t.Fatalf("unexpected message %q", ve.Message)
	}
}

func TestStruct_OK(t *testing.T) {
	if err := Struct(createRequest{ServiceID: "6f1c1b8e-3f4e-4a7a-9a43-0d3b1f7c2b11", Notes: "extra"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidationError_Error(t *testing.T) {
	if got := (ValidationError{Message: "bad"}).Error(); got != "bad" {
		t.Fatalf("got %q", got)
	}
	if got := (ValidationError{Code: "X", Message: "bad"}).Error(); got != "X: bad" {
		t.Fatalf("got %q", got)
	}
}
