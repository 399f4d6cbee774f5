package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"stylens-server/internal/middleware"
	"stylens-server/internal/storage"
)

func authedReq(method, target string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	return req.WithContext(middleware.ContextWithUser(req.Context(), testUserID, testEmail))
}

func TestSyncArchiveBackfillsMissingRows(t *testing.T) {
	db := newStubDB()
	store := newStubStore()
	app := newTestApp(db, store, &stubGenerator{})

	// Two stored images, one already has a metadata row.
	knownKey := storage.GenerationPrefix(testEmail) + "portrait-2026-01-01-aaaa1111.png"
	orphanKey := storage.GenerationPrefix(testEmail) + "portrait-2026-01-02-bbbb2222.png"
	store.objects[knownKey] = []byte("a")
	store.objects[orphanKey] = []byte("b")
	db.generations = append(db.generations, generationRow{
		userID:   testUserID,
		imageURL: store.PublicURL(knownKey),
	})

	rr := httptest.NewRecorder()
	app.SyncArchive(rr, authedReq("POST", "/api/archive/sync"))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d; body=%s", rr.Code, rr.Body.String())
	}
	var resp struct {
		Synced int `json:"synced"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Synced != 1 {
		t.Fatalf("synced = %d, want 1", resp.Synced)
	}
	if got := db.generationCount(); got != 2 {
		t.Fatalf("rows = %d, want 2", got)
	}
}

func TestSyncArchiveIsIdempotent(t *testing.T) {
	db := newStubDB()
	store := newStubStore()
	app := newTestApp(db, store, &stubGenerator{})

	key := storage.GenerationPrefix(testEmail) + "portrait-2026-01-01-cccc3333.png"
	store.objects[key] = []byte("a")

	for i := 0; i < 2; i++ {
		rr := httptest.NewRecorder()
		app.SyncArchive(rr, authedReq("POST", "/api/archive/sync"))
		if rr.Code != http.StatusOK {
			t.Fatalf("round %d: status = %d", i, rr.Code)
		}
	}

	if got := db.generationCount(); got != 1 {
		t.Fatalf("rows = %d, want 1 after repeated sync", got)
	}
}

func TestListGenerations(t *testing.T) {
	db := newStubDB()
	db.generations = append(db.generations,
		generationRow{userID: testUserID, imageURL: "https://img.test/a.png", title: "A", model: "test-model"},
		generationRow{userID: "someone-else", imageURL: "https://img.test/b.png", title: "B"},
	)
	app := newTestApp(db, newStubStore(), &stubGenerator{})

	rr := httptest.NewRecorder()
	app.ListGenerations(rr, authedReq("GET", "/api/generations"))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d; body=%s", rr.Code, rr.Body.String())
	}
	var resp struct {
		Generations []generationItem `json:"generations"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Generations) != 1 {
		t.Fatalf("items = %d, want only the caller's rows", len(resp.Generations))
	}
	if resp.Generations[0].ImageURL != "https://img.test/a.png" {
		t.Fatalf("item = %+v", resp.Generations[0])
	}
}

func TestListGenerationsUnauthenticated(t *testing.T) {
	app := newTestApp(newStubDB(), newStubStore(), &stubGenerator{})

	rr := httptest.NewRecorder()
	app.ListGenerations(rr, httptest.NewRequest("GET", "/api/generations", nil))

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
}
