package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDownloadRejectsForeignDomain(t *testing.T) {
	app := newTestApp(newStubDB(), newStubStore(), &stubGenerator{})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/download?url=https://evil.example/img.png&filename=a.png", nil)
	app.Download(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rr.Code)
	}
}

func TestDownloadRequiresURL(t *testing.T) {
	app := newTestApp(newStubDB(), newStubStore(), &stubGenerator{})

	rr := httptest.NewRecorder()
	app.Download(rr, httptest.NewRequest("GET", "/api/download", nil))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}
