package service

import (
	"testing"

	"workflow_portal_backend/platform/apperr"
)

func strptr(s string) *string { return &s }

func TestNormalizePhoneNil(t *testing.T) {
	got, err := normalizePhone(nil)
	if err != nil {
		t.Fatalf("normalizePhone(nil) error = %v", err)
	}
	if got != nil {
		t.Fatalf("normalizePhone(nil) = %q, want nil", *got)
	}
}

func TestNormalizePhoneEmptyBecomesNil(t *testing.T) {
	got, err := normalizePhone(strptr("   "))
	if err != nil {
		t.Fatalf("normalizePhone(blank) error = %v", err)
	}
	if got != nil {
		t.Fatalf("normalizePhone(blank) = %q, want nil", *got)
	}
}

func TestNormalizePhoneFormatsE164(t *testing.T) {
	got, err := normalizePhone(strptr("+31 6 12345678"))
	if err != nil {
		t.Fatalf("normalizePhone error = %v", err)
	}
	if got == nil || *got != "+31612345678" {
		t.Fatalf("normalizePhone = %v, want +31612345678", got)
	}
}

func TestNormalizePhoneRejectsGarbage(t *testing.T) {
	got, err := normalizePhone(strptr("not-a-phone"))
	if err == nil {
		t.Fatalf("normalizePhone accepted garbage, returned %v", got)
	}
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("normalizePhone error kind = %v, want validation", apperr.GetKind(err))
	}
}
