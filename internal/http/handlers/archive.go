package handlers

import (
	"net/http"
	"strconv"
	"time"

	"stylens-server/internal/sqlinline"
	"stylens-server/internal/storage"
)

const (
	defaultArchiveLimit = 50
	maxArchiveLimit     = 100
)

type generationItem struct {
	ID        string `json:"id"`
	ImageURL  string `json:"imageUrl"`
	Prompt    string `json:"prompt"`
	Title     string `json:"title"`
	Model     string `json:"model"`
	CreatedAt string `json:"createdAt"`
}

// ListGenerations returns the caller's archive, newest first.
func (a *App) ListGenerations(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}

	limit := queryInt(r, "limit", defaultArchiveLimit)
	if limit <= 0 || limit > maxArchiveLimit {
		limit = defaultArchiveLimit
	}
	offset := queryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	rows, err := a.SQL.Query(r.Context(), sqlinline.QListGenerationsByUser, userID, limit, offset)
	if err != nil {
		a.Logger.Error().Err(err).Str("user_id", userID).Msg("generation list failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load generations")
		return
	}
	defer rows.Close()

	items := make([]generationItem, 0, limit)
	for rows.Next() {
		var item generationItem
		var ownerID string
		var createdAt time.Time
		if err := rows.Scan(&item.ID, &ownerID, &item.ImageURL, &item.Prompt,
			&item.Title, &item.Model, &createdAt); err != nil {
			a.Logger.Warn().Err(err).Msg("generation row scan failed")
			continue
		}
		item.CreatedAt = createdAt.UTC().Format(time.RFC3339)
		items = append(items, item)
	}

	a.json(w, http.StatusOK, map[string]any{"generations": items})
}

// SyncArchive reconciles the metadata table against what storage actually
// holds: any object in the caller's generation folder without a matching row
// gets one. Rows are only added, never removed, so a temporarily unreadable
// listing cannot destroy history.
func (a *App) SyncArchive(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	email := a.currentUserEmail(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}

	keys, err := a.Store.List(r.Context(), storage.GenerationPrefix(email))
	if err != nil {
		a.Logger.Error().Err(err).Str("user_id", userID).Msg("archive listing failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to list stored images")
		return
	}

	rows, err := a.SQL.Query(r.Context(), sqlinline.QSelectGenerationURLsByUser, userID)
	if err != nil {
		a.Logger.Error().Err(err).Str("user_id", userID).Msg("archive url load failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load archive")
		return
	}
	known := make(map[string]struct{})
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			continue
		}
		known[url] = struct{}{}
	}
	rows.Close()

	synced := 0
	for _, key := range keys {
		url := a.Store.PublicURL(key)
		if _, ok := known[url]; ok {
			continue
		}
		if _, err := a.SQL.Exec(r.Context(), sqlinline.QInsertGeneration,
			userID, url, "", "Portrait", ""); err != nil {
			a.Logger.Warn().Err(err).Str("image_url", url).Msg("archive backfill insert failed")
			continue
		}
		synced++
	}

	a.json(w, http.StatusOK, map[string]any{"success": true, "synced": synced})
}

func queryInt(r *http.Request, name string, fallback int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
