package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	dErrors "sanitrack/pkg/domain-errors"
)

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body
}

func TestWriteError(t *testing.T) {
	t.Run("internal error omits description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeInternal, "db failed"))

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}
		body := decodeBody(t, w)
		if body["error"] != "internal_error" {
			t.Fatalf("expected error code internal_error, got %q", body["error"])
		}
		if _, ok := body["error_description"]; ok {
			t.Fatalf("expected error_description to be omitted for internal errors")
		}
	})

	t.Run("uncoded error is internal", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, errors.New("connection reset by peer"))

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}
		if body := decodeBody(t, w); body["error_description"] != "" {
			t.Fatalf("expected no description, got %q", body["error_description"])
		}
	})

	t.Run("tenant required is a bad request", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeTenantRequired, "Organization ID required"))

		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
		}
		body := decodeBody(t, w)
		if body["error"] != "tenant_required" {
			t.Fatalf("expected error code tenant_required, got %q", body["error"])
		}
		if body["error_description"] != "Organization ID required" {
			t.Fatalf("unexpected description %q", body["error_description"])
		}
	})

	t.Run("wrapped forbidden keeps outer message", func(t *testing.T) {
		w := httptest.NewRecorder()
		inner := dErrors.New(dErrors.CodeForbidden, "Insufficient role")
		WriteError(w, dErrors.Wrap(inner, dErrors.CodeForbidden, "Insufficient role"))

		if w.Code != http.StatusForbidden {
			t.Fatalf("expected status %d, got %d", http.StatusForbidden, w.Code)
		}
	})
}

func TestStatusFor(t *testing.T) {
	cases := map[dErrors.Code]int{
		dErrors.CodeValidation:   http.StatusBadRequest,
		dErrors.CodeUnauthorized: http.StatusUnauthorized,
		dErrors.CodeForbidden:    http.StatusForbidden,
		dErrors.CodeNotFound:     http.StatusNotFound,
		dErrors.CodeConflict:     http.StatusConflict,
		dErrors.CodeTimeout:      http.StatusGatewayTimeout,
		dErrors.CodeInternal:     http.StatusInternalServerError,
	}
	for code, want := range cases {
		if got := StatusFor(code); got != want {
			t.Errorf("StatusFor(%s) = %d, want %d", code, got, want)
		}
	}
}

type createThing struct {
	Name string `json:"name"`
}

func (c *createThing) Validate() error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	return nil
}

func TestDecodeAndPrepare(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("valid body", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"  Acme  "}`))
		w := httptest.NewRecorder()

		req, ok := DecodeAndPrepare[createThing](w, r, logger, r.Context(), "req-1")
		if !ok {
			t.Fatalf("expected decode to succeed, got status %d", w.Code)
		}
		if req.Name != "Acme" {
			t.Fatalf("expected trimmed name, got %q", req.Name)
		}
	})

	t.Run("malformed JSON", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":`))
		w := httptest.NewRecorder()

		if _, ok := DecodeAndPrepare[createThing](w, r, logger, r.Context(), "req-1"); ok {
			t.Fatal("expected decode to fail")
		}
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
		}
	})

	t.Run("unknown field", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"a","organization_id":"org-2"}`))
		w := httptest.NewRecorder()

		if _, ok := DecodeAndPrepare[createThing](w, r, logger, r.Context(), "req-1"); ok {
			t.Fatal("expected unknown fields to be rejected")
		}
	})

	t.Run("validation failure", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"  "}`))
		w := httptest.NewRecorder()

		if _, ok := DecodeAndPrepare[createThing](w, r, logger, r.Context(), "req-1"); ok {
			t.Fatal("expected validation to fail")
		}
		if body := decodeBody(t, w); body["error"] != "validation_error" {
			t.Fatalf("expected validation_error, got %q", body["error"])
		}
	})
}
