package handler

import (
	"strings"
	"testing"
)

func TestValidateStructUsesJSONFieldKeys(t *testing.T) {
	type payload struct {
		Name  string `json:"name" validate:"required"`
		Email string `json:"email" validate:"required,email"`
	}
	errs := validateStruct(payload{Email: "not-an-email"})
	if errs == nil {
		t.Fatalf("expected validation errors")
	}
	if errs["name"] == "" {
		t.Fatalf("expected error keyed by json name, got %v", errs)
	}
	if !strings.Contains(errs["email"], "valid email") {
		t.Fatalf("expected email message, got %q", errs["email"])
	}
	if _, ok := errs["Name"]; ok {
		t.Fatalf("struct field names must not leak: %v", errs)
	}
}

func TestValidateStructPassesValidPayload(t *testing.T) {
	type payload struct {
		Name string `json:"name" validate:"required,max=255"`
	}
	if errs := validateStruct(payload{Name: "Cuci Kering"}); errs != nil {
		t.Fatalf("expected nil, got %v", errs)
	}
}

func TestValidateStructMinMessage(t *testing.T) {
	type payload struct {
		Password string `json:"password" validate:"required,min=8"`
	}
	errs := validateStruct(payload{Password: "short"})
	if errs == nil || errs["password"] == "" {
		t.Fatalf("expected password error, got %v", errs)
	}
	if !strings.Contains(errs["password"], "8") {
		t.Fatalf("expected message carrying the bound, got %q", errs["password"])
	}
}
