package handler

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
)

func TestWriteJSONEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, 201, "created", map[string]any{"id": 7})

	if rec.Code != 201 {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected application/json, got %q", ct)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["success"] != true {
		t.Fatalf("expected success=true, got %v", body["success"])
	}
	if body["message"] != "created" {
		t.Fatalf("expected message=created, got %v", body["message"])
	}
	data, ok := body["data"].(map[string]any)
	if !ok || data["id"] != float64(7) {
		t.Fatalf("unexpected data: %v", body["data"])
	}
}

func TestWriteErrorEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, 404, "not found")

	if rec.Code != 404 {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["success"] != false {
		t.Fatalf("expected success=false, got %v", body["success"])
	}
	if _, present := body["errors"]; present {
		t.Fatalf("plain errors must not carry an errors map: %v", body)
	}
}

func TestWriteErrorRefusesSuccessStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, 200, "oops")
	if rec.Code != 500 {
		t.Fatalf("expected status forced to 500, got %d", rec.Code)
	}
}

func TestWriteValidationErrorsEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	writeValidationErrors(rec, map[string]string{"details.1": "setiap item harus memiliki service_id atau add_on_id"})

	if rec.Code != 422 {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	var body struct {
		Success bool              `json:"success"`
		Message string            `json:"message"`
		Errors  map[string]string `json:"errors"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Success {
		t.Fatalf("expected success=false")
	}
	if body.Errors["details.1"] == "" {
		t.Fatalf("expected row-keyed error, got %v", body.Errors)
	}
}
