package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"stylens-server/internal/sqlinline"
	"stylens-server/internal/storage"
)

const maxStyleUploadBytes = 16 << 20

var titleCaser = cases.Title(language.English)

type styleItem struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Prompt    string `json:"prompt"`
	ImageURL  string `json:"imageUrl"`
	CreatedAt string `json:"createdAt"`
}

// ListStyles returns the curated style feed, newest first. Public, no auth.
func (a *App) ListStyles(w http.ResponseWriter, r *http.Request) {
	rows, err := a.SQL.Query(r.Context(), sqlinline.QListStyles)
	if err != nil {
		a.Logger.Error().Err(err).Msg("style list failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load styles")
		return
	}
	defer rows.Close()

	items := make([]styleItem, 0, 32)
	for rows.Next() {
		var item styleItem
		var createdAt time.Time
		if err := rows.Scan(&item.ID, &item.Title, &item.Prompt, &item.ImageURL, &createdAt); err != nil {
			a.Logger.Warn().Err(err).Msg("style row scan failed")
			continue
		}
		item.CreatedAt = createdAt.UTC().Format(time.RFC3339)
		items = append(items, item)
	}

	a.json(w, http.StatusOK, map[string]any{"styles": items})
}

type styleRequest struct {
	Title    string `json:"title"`
	Prompt   string `json:"prompt"`
	ImageURL string `json:"imageUrl"`
}

// CreateStyle adds one curated feed entry. Titles are normalized to title
// case so the feed reads consistently regardless of how admins type them.
func (a *App) CreateStyle(w http.ResponseWriter, r *http.Request) {
	var req styleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	req.Title = titleCaser.String(strings.TrimSpace(req.Title))
	if req.Title == "" || req.Prompt == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "title and prompt required")
		return
	}

	var id string
	var createdAt time.Time
	row := a.SQL.QueryRow(r.Context(), sqlinline.QInsertStyle, req.Title, req.Prompt, req.ImageURL)
	if err := row.Scan(&id, &createdAt); err != nil {
		a.Logger.Error().Err(err).Msg("style insert failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to create style")
		return
	}

	a.json(w, http.StatusCreated, styleItem{
		ID:        id,
		Title:     req.Title,
		Prompt:    req.Prompt,
		ImageURL:  req.ImageURL,
		CreatedAt: createdAt.UTC().Format(time.RFC3339),
	})
}

// UpdateStyle replaces a feed entry's title, prompt and preview URL.
func (a *App) UpdateStyle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "id required")
		return
	}
	var req styleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	req.Title = titleCaser.String(strings.TrimSpace(req.Title))
	if req.Title == "" || req.Prompt == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "title and prompt required")
		return
	}

	tag, err := a.SQL.Exec(r.Context(), sqlinline.QUpdateStyle, id, req.Title, req.Prompt, req.ImageURL)
	if err != nil {
		a.Logger.Error().Err(err).Str("style_id", id).Msg("style update failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to update style")
		return
	}
	if tag.RowsAffected() == 0 {
		a.error(w, http.StatusNotFound, "not_found", "style not found")
		return
	}
	a.json(w, http.StatusOK, map[string]bool{"success": true})
}

// DeleteStyle removes a feed entry and its stored preview image, when the
// preview lives on our domain.
func (a *App) DeleteStyle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "id required")
		return
	}

	var imageURL string
	row := a.SQL.QueryRow(r.Context(), sqlinline.QSelectStyleImage, id)
	if err := row.Scan(&imageURL); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			a.error(w, http.StatusNotFound, "not_found", "style not found")
			return
		}
		a.Logger.Error().Err(err).Str("style_id", id).Msg("style load failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load style")
		return
	}

	if key, ok := a.Store.KeyFromURL(imageURL); ok {
		if err := a.Store.Delete(r.Context(), key); err != nil {
			// Row deletion proceeds; an orphaned preview object is harmless.
			a.Logger.Warn().Err(err).Str("key", key).Msg("style preview delete failed")
		}
	}

	if _, err := a.SQL.Exec(r.Context(), sqlinline.QDeleteStyle, id); err != nil {
		a.Logger.Error().Err(err).Str("style_id", id).Msg("style delete failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to delete style")
		return
	}
	a.json(w, http.StatusOK, map[string]bool{"success": true})
}

// UploadStyleImage stores a preview image for the feed and returns its public
// URL. The admin then references it when creating or updating a style.
func (a *App) UploadStyleImage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxStyleUploadBytes); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "file required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "failed to read file")
		return
	}

	key := storage.FeedStyleKey(header.Filename, time.Now())
	if err := a.Store.Put(r.Context(), key, data, uploadContentType(header, data)); err != nil {
		a.Logger.Error().Err(err).Str("key", key).Msg("style preview upload failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to store file")
		return
	}

	a.json(w, http.StatusOK, map[string]string{"url": a.Store.PublicURL(key)})
}
