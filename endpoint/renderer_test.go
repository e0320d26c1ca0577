package endpoint

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestStringRenderer_SetsContentTypeAndBody(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	r := StringRenderer{Body: "hello"}
	if err := r.Render(rec, req); err != nil {
		t.Fatalf("Render returned error: %v", err)
	}

	resp := rec.Result()
	if got := resp.Header.Get("Content-Type"); got != "text/plain; charset=utf-8" {
		t.Fatalf("expected Content-Type %q, got %q", "text/plain; charset=utf-8", got)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	if got := rec.Body.String(); got != "hello" {
		t.Fatalf("expected body %q, got %q", "hello", got)
	}
}

func TestStringRenderer_DoesNotOverrideExistingContentType(t *testing.T) {
	rec := httptest.NewRecorder()
	rec.Header().Set("Content-Type", "text/csv")
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	r := StringRenderer{Body: "a,b,c"}
	if err := r.Render(rec, req); err != nil {
		t.Fatalf("Render returned error: %v", err)
	}

	if got := rec.Result().Header.Get("Content-Type"); got != "text/csv" {
		t.Fatalf("expected Content-Type %q, got %q", "text/csv", got)
	}
}

func TestStringRenderer_StatusOverride(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	r := StringRenderer{Status: http.StatusTeapot, Body: "short and stout"}
	if err := r.Render(rec, req); err != nil {
		t.Fatalf("Render returned error: %v", err)
	}

	if got := rec.Result().StatusCode; got != http.StatusTeapot {
		t.Fatalf("expected status %d, got %d", http.StatusTeapot, got)
	}
}

func TestStringRenderer_CustomContentType(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	r := StringRenderer{Body: "- item", ContentType: "application/yaml"}
	if err := r.Render(rec, req); err != nil {
		t.Fatalf("Render returned error: %v", err)
	}

	if got := rec.Result().Header.Get("Content-Type"); got != "application/yaml" {
		t.Fatalf("expected Content-Type %q, got %q", "application/yaml", got)
	}
}

func TestNoContentRenderer_DefaultStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	r := NoContentRenderer{}
	if err := r.Render(rec, req); err != nil {
		t.Fatalf("Render returned error: %v", err)
	}

	resp := rec.Result()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, resp.StatusCode)
	}
	if rec.Body.Len() != 0 {
		t.Fatalf("expected empty body, got %q", rec.Body.String())
	}
}

func TestNoContentRenderer_StatusOverride(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	r := NoContentRenderer{Status: http.StatusAccepted}
	if err := r.Render(rec, req); err != nil {
		t.Fatalf("Render returned error: %v", err)
	}

	if got := rec.Result().StatusCode; got != http.StatusAccepted {
		t.Fatalf("expected status %d, got %d", http.StatusAccepted, got)
	}
}
